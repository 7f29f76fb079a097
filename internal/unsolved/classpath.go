package unsolved

import (
	"archive/zip"
	"fmt"
	"sort"
	"strings"
)

// LibraryNames lists the qualified names of the classes packaged in the given
// jar archives. Nested classes are reported with dots; anonymous and local
// classes are skipped.
func LibraryNames(jars []string) ([]string, error) {
	seen := make(map[string]struct{})
	for _, jar := range jars {
		if err := scanJar(jar, seen); err != nil {
			return nil, err
		}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

func scanJar(path string, seen map[string]struct{}) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer zr.Close()
	for _, f := range zr.File {
		if name, ok := className(f.Name); ok {
			seen[name] = struct{}{}
		}
	}
	return nil
}

func className(entry string) (string, bool) {
	if !strings.HasSuffix(entry, ".class") || strings.HasPrefix(entry, "META-INF/") {
		return "", false
	}
	entry = strings.TrimSuffix(entry, ".class")
	base := entry[strings.LastIndex(entry, "/")+1:]
	if base == "module-info" || base == "package-info" {
		return "", false
	}
	parts := strings.Split(base, "$")
	for _, p := range parts[1:] {
		if p == "" || (p[0] >= '0' && p[0] <= '9') {
			return "", false
		}
	}
	return strings.ReplaceAll(strings.ReplaceAll(entry, "/", "."), "$", "."), true
}
