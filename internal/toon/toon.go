// Package toon encodes run reports in TOON (Token-Oriented Object Notation).
package toon

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Report summarizes one minimization run.
type Report struct {
	RunID      string
	Root       string
	State      string
	Iterations int
	Targets    []Target
	Types      []Type
	Members    []Member
	Files      []File
	// Diagnostics are the compiler errors left when the run failed.
	Diagnostics []Diagnostic
}

type Target struct {
	Spec      string
	Decl      string
	Satisfied bool
}

type Type struct {
	QName     string
	Kind      string
	Synthetic bool
}

type Member struct {
	Owner     string
	Signature string
	Mode      string
	Synthetic bool
}

type File struct {
	Path      string
	Synthetic bool
}

type Diagnostic struct {
	File     string
	Line     int
	Category string
	Message  string
}

// Encode converts a run report into TOON format.
func Encode(r *Report) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("run: %s", encodeValue(r.RunID)))
	parts = append(parts, fmt.Sprintf("root: %s", encodeValue(r.Root)))
	parts = append(parts, fmt.Sprintf("state: %s", encodeValue(r.State)))
	parts = append(parts, fmt.Sprintf("iterations: %d", r.Iterations))

	var targetRows [][]string
	for _, t := range r.Targets {
		targetRows = append(targetRows, []string{t.Spec, t.Decl, strconv.FormatBool(t.Satisfied)})
	}
	parts = append(parts, formatTabular("targets", []string{"spec", "decl", "satisfied"}, targetRows))

	var typeRows [][]string
	for _, t := range r.Types {
		typeRows = append(typeRows, []string{t.QName, t.Kind, strconv.FormatBool(t.Synthetic)})
	}
	parts = append(parts, formatTabular("types", []string{"name", "kind", "synthetic"}, typeRows))

	var memberRows [][]string
	for _, m := range r.Members {
		memberRows = append(memberRows, []string{m.Owner, m.Signature, m.Mode, strconv.FormatBool(m.Synthetic)})
	}
	parts = append(parts, formatTabular("members", []string{"owner", "signature", "mode", "synthetic"}, memberRows))

	var fileRows [][]string
	for _, f := range r.Files {
		fileRows = append(fileRows, []string{f.Path, strconv.FormatBool(f.Synthetic)})
	}
	parts = append(parts, formatTabular("files", []string{"path", "synthetic"}, fileRows))

	if len(r.Diagnostics) > 0 {
		var diagRows [][]string
		for _, d := range r.Diagnostics {
			diagRows = append(diagRows, []string{d.File, strconv.Itoa(d.Line), d.Category, d.Message})
		}
		parts = append(parts, formatTabular("diagnostics", []string{"file", "line", "category", "message"}, diagRows))
	}

	return strings.Join(parts, "\n")
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
