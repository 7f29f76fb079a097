package emit

import (
	"fmt"
	"strings"

	"github.com/phobologic/jslice/internal/bind"
	"github.com/phobologic/jslice/internal/graph"
	"github.com/phobologic/jslice/internal/lang"
	"github.com/phobologic/jslice/internal/model"
	"github.com/phobologic/jslice/internal/slice"
)

const indentUnit = "    "

// annotationTarget lets a synthetic annotation type appear wherever the
// sources use it.
const annotationTarget = "@java.lang.annotation.Target({" +
	"java.lang.annotation.ElementType.TYPE, " +
	"java.lang.annotation.ElementType.FIELD, " +
	"java.lang.annotation.ElementType.METHOD, " +
	"java.lang.annotation.ElementType.PARAMETER, " +
	"java.lang.annotation.ElementType.CONSTRUCTOR, " +
	"java.lang.annotation.ElementType.LOCAL_VARIABLE, " +
	"java.lang.annotation.ElementType.ANNOTATION_TYPE, " +
	"java.lang.annotation.ElementType.PACKAGE, " +
	"java.lang.annotation.ElementType.TYPE_PARAMETER, " +
	"java.lang.annotation.ElementType.TYPE_USE})"

type printer struct {
	g      *graph.Graph
	ret    Retention
	b      strings.Builder
	indent int
}

func (p *printer) line(format string, args ...any) {
	p.b.WriteString(strings.Repeat(indentUnit, p.indent))
	fmt.Fprintf(&p.b, format, args...)
	p.b.WriteString("\n")
}

func (p *printer) typeDecl(t *model.TypeDecl) {
	for _, a := range t.Annotations {
		p.line("%s", a)
	}
	if t.Synthetic && t.Kind == model.Annotation && !hasTargetAnnotation(t.Annotations) {
		p.line("%s", annotationTarget)
	}

	var head strings.Builder
	if mods := typeModifiers(t); len(mods) > 0 {
		head.WriteString(strings.Join(mods, " ") + " ")
	}
	head.WriteString(string(t.Kind) + " " + t.Name)
	head.WriteString(typeParams(t.TypeParams))
	if t.Kind == model.Record {
		head.WriteString("(" + params(t.Components) + ")")
	}
	if t.Super != nil && t.Kind == model.Class {
		head.WriteString(" extends " + t.Super.String())
	}
	if len(t.Interfaces) > 0 {
		kw := " implements "
		if t.IsInterface() {
			kw = " extends "
		}
		head.WriteString(kw + refList(t.Interfaces))
	}
	p.line("%s {", head.String())
	p.indent++

	if t.Kind == model.Enum {
		var names []string
		for _, c := range t.Constants {
			if p.ret.RetainsConstant(t.ID, c.Name) {
				names = append(names, c.Name)
			}
		}
		p.line("%s;", strings.Join(names, ", "))
	}
	for _, m := range t.Members {
		if p.ret.Mode(m.ID) == slice.Dropped {
			continue
		}
		p.member(t, m)
	}
	for _, n := range t.Nested {
		if p.ret.RetainsType(n.ID) {
			p.typeDecl(n)
		}
	}

	p.indent--
	p.line("}")
}

func hasTargetAnnotation(annos []string) bool {
	for _, a := range annos {
		name := strings.TrimPrefix(a, "@")
		if i := strings.IndexByte(name, '('); i >= 0 {
			name = name[:i]
		}
		if name == "Target" || name == "java.lang.annotation.Target" {
			return true
		}
	}
	return false
}

// typeModifiers drops sealing: permitted subclasses may not survive the slice.
func typeModifiers(t *model.TypeDecl) []string {
	var out []string
	for _, m := range t.Modifiers {
		if m == "sealed" || m == "non-sealed" {
			continue
		}
		out = append(out, m)
	}
	return out
}

func (p *printer) member(owner *model.TypeDecl, m *model.Member) {
	for _, a := range m.Annotations {
		p.line("%s", a)
	}
	switch m.Kind {
	case model.Field:
		p.field(m)
	case model.Constructor:
		p.constructor(owner, m)
	default:
		p.method(owner, m)
	}
}

func (p *printer) field(m *model.Member) {
	decl := modifiers(m.Modifiers) + m.Type.String() + " " + m.Name
	switch p.ret.FieldInit(m.ID) {
	case slice.InitKeep:
		if m.Init != nil {
			decl += " = " + m.Init.Text
		}
	case slice.InitDefault:
		decl += " = " + lang.DefaultValue(m.Type.String())
	}
	p.line("%s;", decl)
}

func (p *printer) method(owner *model.TypeDecl, m *model.Member) {
	mods := m.Modifiers
	abstractInEnum := owner.Kind == model.Enum && m.IsAbstract()
	if abstractInEnum {
		mods = without(mods, "abstract")
	}
	var head strings.Builder
	head.WriteString(modifiers(mods))
	if tp := typeParams(m.TypeParams); tp != "" {
		head.WriteString(tp + " ")
	}
	ret := "void"
	if m.Return != nil {
		ret = m.Return.String()
	}
	head.WriteString(ret + " " + m.Name + "(" + params(m.Params) + ")")
	if len(m.Throws) > 0 {
		head.WriteString(" throws " + refList(m.Throws))
	}
	if m.Default != "" {
		head.WriteString(" default " + m.Default)
	}

	switch {
	case abstractInEnum:
		p.line("%s { %s }", head.String(), EmptyBody)
	case m.Body == nil:
		p.line("%s;", head.String())
	case p.ret.Mode(m.ID) == slice.Keep:
		p.block(head.String(), m.Body.Text)
	default:
		p.line("%s { %s }", head.String(), EmptyBody)
	}
}

func (p *printer) constructor(owner *model.TypeDecl, m *model.Member) {
	var head strings.Builder
	head.WriteString(modifiers(m.Modifiers))
	if tp := typeParams(m.TypeParams); tp != "" {
		head.WriteString(tp + " ")
	}
	head.WriteString(owner.Name)
	if !m.Compact {
		head.WriteString("(" + params(m.Params) + ")")
	}
	if len(m.Throws) > 0 {
		head.WriteString(" throws " + refList(m.Throws))
	}
	if p.ret.Mode(m.ID) == slice.Keep && m.Body != nil {
		p.block(head.String(), m.Body.Text)
		return
	}
	if call := leadingCallText(m); call != "" {
		p.line("%s { %s %s }", head.String(), call, EmptyBody)
		return
	}
	p.line("%s { %s }", head.String(), EmptyBody)
}

// block writes a declaration head followed by a verbatim body, re-indenting
// the body's continuation lines.
func (p *printer) block(head, body string) {
	lines := strings.Split(body, "\n")
	p.line("%s %s", head, lines[0])
	if len(lines) == 1 {
		return
	}
	base := commonIndent(lines[1:])
	for _, l := range lines[1:] {
		if strings.TrimSpace(l) == "" {
			p.b.WriteString("\n")
			continue
		}
		p.line("%s", strings.TrimRight(l[base:], " \t"))
	}
}

// commonIndent returns the byte width of the whitespace prefix shared by the
// last line, which closes the block.
func commonIndent(lines []string) int {
	last := lines[len(lines)-1]
	n := len(last) - len(strings.TrimLeft(last, " \t"))
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		w := len(l) - len(strings.TrimLeft(l, " \t"))
		if w < n {
			n = w
		}
	}
	return n
}

// leadingCallText returns the source of a constructor's explicit super(...)
// or this(...) call, including its semicolon, or "".
func leadingCallText(m *model.Member) string {
	if bind.LeadingCtorCall(m) == nil {
		return ""
	}
	text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(m.Body.Text), "{"))
	end := topLevelSemicolon(text)
	if end < 0 {
		return ""
	}
	return text[:end+1]
}

// topLevelSemicolon finds the first ';' outside brackets, string literals,
// and character literals.
func topLevelSemicolon(s string) int {
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '(', '{', '[':
			depth++
		case ')', '}', ']':
			depth--
		case ';':
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func modifiers(mods []string) string {
	if len(mods) == 0 {
		return ""
	}
	return strings.Join(mods, " ") + " "
}

func without(mods []string, drop string) []string {
	var out []string
	for _, m := range mods {
		if m != drop {
			out = append(out, m)
		}
	}
	return out
}

func typeParams(tps []*model.TypeParam) string {
	if len(tps) == 0 {
		return ""
	}
	parts := make([]string, len(tps))
	for i, tp := range tps {
		parts[i] = tp.String()
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

func params(ps []*model.Param) string {
	parts := make([]string, len(ps))
	for i, prm := range ps {
		var b strings.Builder
		for _, a := range prm.Annotations {
			b.WriteString(a + " ")
		}
		b.WriteString(modifiers(prm.Modifiers))
		t := prm.Type.String()
		if prm.Varargs {
			t += "..."
		}
		b.WriteString(t + " " + prm.Name)
		parts[i] = b.String()
	}
	return strings.Join(parts, ", ")
}

func refList(refs []*model.TypeRef) string {
	parts := make([]string, len(refs))
	for i, r := range refs {
		parts[i] = r.String()
	}
	return strings.Join(parts, ", ")
}
