// Package emit renders the retained part of a declaration graph as Java
// compilation units.
package emit

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/phobologic/jslice/internal/graph"
	"github.com/phobologic/jslice/internal/lang"
	"github.com/phobologic/jslice/internal/model"
	"github.com/phobologic/jslice/internal/slice"
)

// EmptyBody replaces the body of every member whose body is not kept.
const EmptyBody = "throw new java.lang.Error();"

// Retention reports what a slice keeps.
type Retention interface {
	RetainsType(id model.DeclID) bool
	Mode(id model.DeclID) slice.Mode
	FieldInit(id model.DeclID) slice.InitMode
	RetainsConstant(typeID model.DeclID, name string) bool
}

// File is one rendered compilation unit.
type File struct {
	Path      string
	Source    string
	Synthetic bool
}

// Render renders every compilation unit holding a retained top-level type,
// in graph order.
func Render(g *graph.Graph, ret Retention) []File {
	var out []File
	for _, cu := range g.Units() {
		var types []*model.TypeDecl
		for _, t := range cu.Types {
			if ret.RetainsType(t.ID) {
				types = append(types, t)
			}
		}
		if len(types) == 0 {
			continue
		}
		p := &printer{g: g, ret: ret}
		for _, t := range types {
			p.typeDecl(t)
		}
		body := p.b.String()

		var b strings.Builder
		if cu.Package != "" {
			fmt.Fprintf(&b, "package %s;\n\n", cu.Package)
		}
		imports := keptImports(g, ret, cu, body)
		for _, imp := range imports {
			b.WriteString(imp.String())
			b.WriteString("\n")
		}
		if len(imports) > 0 {
			b.WriteString("\n")
		}
		b.WriteString(body)
		out = append(out, File{Path: cu.Path, Source: b.String(), Synthetic: cu.Synthetic})
	}
	return out
}

// Write stores files under dir, creating package directories.
func Write(dir string, files []File) error {
	for _, f := range files {
		path := filepath.Join(dir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(f.Source), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}

var identRe = regexp.MustCompile(`[A-Za-z_$][A-Za-z0-9_$]*`)

// keptImports drops imports that nothing in the rendered body uses, and
// imports of packages or types that are not part of the output.
func keptImports(g *graph.Graph, ret Retention, cu *model.CompilationUnit, body string) []*model.Import {
	tokens := make(map[string]struct{})
	for _, t := range identRe.FindAllString(body, -1) {
		tokens[t] = struct{}{}
	}
	exists := func(qname string) bool {
		if t := g.Lookup(qname); t != nil {
			return ret.RetainsType(t.ID)
		}
		return g.IsLibraryType(qname)
	}
	var out []*model.Import
	for _, imp := range cu.Imports {
		keep := false
		switch {
		case imp.Static && imp.Wildcard:
			keep = exists(imp.Path)
		case imp.Static:
			_, used := tokens[imp.Name()]
			keep = used && exists(imp.Container())
		case imp.Wildcard:
			keep = packageExists(g, ret, imp.Path)
		default:
			_, used := tokens[imp.Name()]
			keep = used && exists(imp.Path)
		}
		if keep {
			out = append(out, imp)
		}
	}
	return out
}

// packageExists reports whether a wildcard-imported package or type will be
// visible to the compiler.
func packageExists(g *graph.Graph, ret Retention, path string) bool {
	if lang.IsPlatformPackage(path) {
		return true
	}
	if t := g.Lookup(path); t != nil {
		return ret.RetainsType(t.ID)
	}
	for _, t := range g.Types() {
		if t.Parent == 0 && t.Package == path && ret.RetainsType(t.ID) {
			return true
		}
	}
	return false
}
