// Package target parses target specifiers and resolves them to declarations.
package target

import (
	"errors"
	"fmt"
	"strings"

	"github.com/phobologic/jslice/internal/graph"
	"github.com/phobologic/jslice/internal/model"
)

var (
	// ErrTargetNotFound means no declaration matches a specifier.
	ErrTargetNotFound = errors.New("target not found")
	// ErrAmbiguousTarget means more than one declaration matches a specifier.
	ErrAmbiguousTarget = errors.New("ambiguous target")
	// ErrBadSpecifier means the specifier does not follow the grammar.
	ErrBadSpecifier = errors.New("malformed target specifier")
)

// Spec is a parsed target specifier.
type Spec struct {
	Raw    string
	Owner  string   // qualified owner type, nested types joined with dots
	Member string   // method, constructor (owner simple name), or field name
	Params []string // nil for fields
}

// IsField reports whether the specifier names a field.
func (s Spec) IsField() bool {
	return s.Params == nil
}

// Parse parses QualifiedType#member(ParamType,...) or QualifiedType#field.
func Parse(raw string) (Spec, error) {
	s := strings.TrimSpace(raw)
	hash := strings.Index(s, "#")
	if hash <= 0 || hash == len(s)-1 {
		return Spec{}, fmt.Errorf("%q: %w", raw, ErrBadSpecifier)
	}
	spec := Spec{Raw: raw, Owner: s[:hash]}
	rest := s[hash+1:]
	open := strings.Index(rest, "(")
	if open < 0 {
		spec.Member = rest
		if !model.IsIdentifier(spec.Member) {
			return Spec{}, fmt.Errorf("%q: %w", raw, ErrBadSpecifier)
		}
		return spec, nil
	}
	if !strings.HasSuffix(rest, ")") {
		return Spec{}, fmt.Errorf("%q: %w", raw, ErrBadSpecifier)
	}
	spec.Member = rest[:open]
	spec.Params = []string{}
	for _, p := range splitParams(rest[open+1 : len(rest)-1]) {
		spec.Params = append(spec.Params, normalize(p))
	}
	if !model.IsIdentifier(spec.Member) {
		return Spec{}, fmt.Errorf("%q: %w", raw, ErrBadSpecifier)
	}
	return spec, nil
}

// splitParams splits a parameter list on top-level commas, ignoring commas
// nested inside type arguments.
func splitParams(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	return append(out, s[start:])
}

// normalize reduces a written parameter type to its comparison form: type
// arguments erased, qualification stripped to the simple name, varargs
// written as an array.
func normalize(t string) string {
	t = strings.Join(strings.Fields(t), "")
	if strings.HasSuffix(t, "...") {
		t = strings.TrimSuffix(t, "...") + "[]"
	}
	var b strings.Builder
	depth := 0
	for _, r := range t {
		switch {
		case r == '<':
			depth++
		case r == '>':
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	base := b.String()
	arr := ""
	if i := strings.Index(base, "["); i >= 0 {
		base, arr = base[:i], base[i:]
	}
	return model.SimpleName(base) + arr
}

// paramForm renders a declared parameter in comparison form.
func paramForm(p *model.Param) string {
	s := p.Type.Simple() + strings.Repeat("[]", p.Type.Dims)
	if p.Varargs {
		s += "[]"
	}
	return s
}

// Resolve finds the declaration a specifier names.
func Resolve(g *graph.Graph, spec Spec) (model.DeclID, error) {
	owner := g.Lookup(spec.Owner)
	if owner == nil || owner.Synthetic {
		return 0, fmt.Errorf("%s: no type %s: %w", spec.Raw, spec.Owner, ErrTargetNotFound)
	}
	if spec.IsField() {
		if f := owner.Member(model.Field, spec.Member); f != nil {
			return f.ID, nil
		}
		return 0, fmt.Errorf("%s: %w", spec.Raw, ErrTargetNotFound)
	}

	kind := model.Method
	if spec.Member == owner.Name {
		kind = model.Constructor
	}
	var matches []*model.Member
	for _, m := range owner.Members {
		if m.Kind != kind || (kind == model.Method && m.Name != spec.Member) {
			continue
		}
		if paramsMatch(m, spec.Params) {
			matches = append(matches, m)
		}
	}
	switch len(matches) {
	case 0:
		return 0, fmt.Errorf("%s: %w", spec.Raw, ErrTargetNotFound)
	case 1:
		return matches[0].ID, nil
	}
	sigs := make([]string, len(matches))
	for i, m := range matches {
		sigs[i] = m.Signature()
	}
	return 0, fmt.Errorf("%s matches %s: %w", spec.Raw, strings.Join(sigs, ", "), ErrAmbiguousTarget)
}

func paramsMatch(m *model.Member, want []string) bool {
	if len(m.Params) != len(want) {
		return false
	}
	for i, p := range m.Params {
		if paramForm(p) != want[i] {
			return false
		}
	}
	return true
}

// ResolveAll parses and resolves every specifier, joining all failures.
func ResolveAll(g *graph.Graph, raws []string) ([]model.DeclID, error) {
	var (
		ids  []model.DeclID
		errs []error
	)
	for _, raw := range raws {
		spec, err := Parse(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		id, err := Resolve(g, spec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ids = append(ids, id)
	}
	return ids, errors.Join(errs...)
}
