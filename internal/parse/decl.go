package parse

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/jslice/internal/lang"
	"github.com/phobologic/jslice/internal/model"
)

type span struct{ start, end uint32 }

// unitParser holds per-file state while walking one syntax tree.
type unitParser struct {
	src      []byte
	comments []span // sorted, non-overlapping
	pkg      string
}

// raw returns the node text as written.
func (p *unitParser) raw(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return lang.NodeText(n, p.src)
}

// text returns the node text with comments removed and whitespace collapsed.
func (p *unitParser) text(n *sitter.Node) string {
	return lang.CollapseWhitespace(p.stripped(n))
}

// stripped returns the node text with every comment inside it removed, keeping
// line structure.
func (p *unitParser) stripped(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	start, end := n.StartByte(), n.EndByte()
	var b strings.Builder
	pos := start
	for _, c := range p.comments {
		if c.end <= pos || c.start < start {
			continue
		}
		if c.start >= end {
			break
		}
		b.Write(p.src[pos:c.start])
		if strings.Contains(string(p.src[c.start:c.end]), "\n") {
			b.WriteByte('\n')
		} else {
			b.WriteByte(' ')
		}
		pos = c.end
	}
	if pos < end {
		b.Write(p.src[pos:end])
	}
	return trimTrailingSpace(b.String())
}

func trimTrailingSpace(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		l = strings.TrimRight(l, " \t\r")
		if strings.TrimSpace(l) == "" && len(out) > 0 && out[len(out)-1] == "" {
			continue
		}
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}

func line(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

func (p *unitParser) unit(root *sitter.Node, path string) *model.CompilationUnit {
	cu := &model.CompilationUnit{Path: path}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		c := root.NamedChild(i)
		switch c.Type() {
		case "package_declaration":
			for j := 0; j < int(c.NamedChildCount()); j++ {
				cc := c.NamedChild(j)
				if cc.Type() == "identifier" || cc.Type() == "scoped_identifier" {
					cu.Package = p.text(cc)
				}
			}
			p.pkg = cu.Package
		case "import_declaration":
			cu.Imports = append(cu.Imports, p.importDecl(c))
		default:
			if td := p.typeDecl(c, nil); td != nil {
				cu.Types = append(cu.Types, td)
			}
		}
	}
	return cu
}

func (p *unitParser) importDecl(n *sitter.Node) *model.Import {
	imp := &model.Import{Line: line(n)}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch c.Type() {
		case "static":
			imp.Static = true
		case "asterisk":
			imp.Wildcard = true
		case "identifier", "scoped_identifier":
			imp.Path = p.text(c)
		}
	}
	if !imp.Wildcard && strings.HasSuffix(strings.TrimSuffix(p.text(n), ";"), ".*") {
		imp.Wildcard = true
	}
	return imp
}

var typeKinds = map[string]model.TypeKind{
	"class_declaration":           model.Class,
	"interface_declaration":       model.Interface,
	"enum_declaration":            model.Enum,
	"annotation_type_declaration": model.Annotation,
	"record_declaration":          model.Record,
}

// typeDecl converts a type declaration node. outer is nil for top-level types
// and local or anonymous classes get an empty outer name.
func (p *unitParser) typeDecl(n *sitter.Node, outer *model.TypeDecl) *model.TypeDecl {
	kind, ok := typeKinds[n.Type()]
	if !ok {
		return nil
	}
	td := &model.TypeDecl{
		Kind:    kind,
		Name:    p.raw(n.ChildByFieldName("name")),
		Package: p.pkg,
		Line:    line(n),
	}
	if outer != nil {
		td.QName = outer.QName + "." + td.Name
	} else {
		td.QName = model.Qualify(p.pkg, td.Name)
	}
	td.TypeParams = p.typeParams(n.ChildByFieldName("type_parameters"))
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "modifiers":
			td.Modifiers, td.Annotations = p.modifiers(c)
		case "superclass":
			if refs := p.typeList(c); len(refs) > 0 {
				td.Super = refs[0]
			}
		case "super_interfaces", "extends_interfaces":
			td.Interfaces = append(td.Interfaces, p.typeList(c)...)
		case "formal_parameters":
			if kind == model.Record {
				td.Components = p.params(c)
			}
		}
	}
	if td.IsInterface() && kind == model.Interface {
		// extends on an interface lists superinterfaces, never a superclass.
		if td.Super != nil {
			td.Interfaces = append([]*model.TypeRef{td.Super}, td.Interfaces...)
			td.Super = nil
		}
	}
	p.typeBody(n.ChildByFieldName("body"), td)
	return td
}

func (p *unitParser) typeBody(body *sitter.Node, td *model.TypeDecl) {
	if body == nil {
		return
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		c := body.NamedChild(i)
		switch c.Type() {
		case "enum_constant":
			td.Constants = append(td.Constants, &model.EnumConstant{
				Name: p.raw(c.ChildByFieldName("name")),
				Line: line(c),
			})
		case "enum_body_declarations":
			p.typeBody(c, td)
		case "field_declaration", "constant_declaration":
			td.Members = append(td.Members, p.fields(c, td)...)
		case "method_declaration", "annotation_type_element_declaration":
			td.Members = append(td.Members, p.method(c, td))
		case "constructor_declaration", "compact_constructor_declaration":
			td.Members = append(td.Members, p.constructor(c, td))
		default:
			if nested := p.typeDecl(c, td); nested != nil {
				td.Nested = append(td.Nested, nested)
			}
		}
	}
}

func (p *unitParser) modifiers(n *sitter.Node) (mods, annos []string) {
	if n == nil {
		return nil, nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if isAnnotation(c) {
			annos = append(annos, p.text(c))
			continue
		}
		if t := strings.TrimSpace(p.raw(c)); t != "" {
			mods = append(mods, t)
		}
	}
	return mods, annos
}

func (p *unitParser) childOfType(n *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == typ {
			return c
		}
	}
	return nil
}

// fields splits a field declaration into one member per declarator.
func (p *unitParser) fields(n *sitter.Node, owner *model.TypeDecl) []*model.Member {
	mods, annos := p.modifiers(p.childOfType(n, "modifiers"))
	base := p.typeRef(n.ChildByFieldName("type"))
	if owner.IsInterface() {
		mods = addModifiers(mods, "public", "static", "final")
	}
	var out []*model.Member
	for i := 0; i < int(n.NamedChildCount()); i++ {
		d := n.NamedChild(i)
		if d.Type() != "variable_declarator" {
			continue
		}
		m := &model.Member{
			Kind:        model.Field,
			Name:        p.raw(d.ChildByFieldName("name")),
			Modifiers:   append([]string(nil), mods...),
			Annotations: append([]string(nil), annos...),
			Type:        model.ArrayOf(base, dims(p.raw(d.ChildByFieldName("dimensions")))),
			Line:        line(d),
		}
		if v := d.ChildByFieldName("value"); v != nil {
			m.Init = &model.Body{Text: p.stripped(v), Expr: p.expr(v)}
		}
		out = append(out, m)
	}
	return out
}

func addModifiers(mods []string, add ...string) []string {
	out := append([]string(nil), mods...)
	for _, a := range add {
		if !model.HasModifier(out, a) {
			out = append(out, a)
		}
	}
	return out
}

func (p *unitParser) method(n *sitter.Node, owner *model.TypeDecl) *model.Member {
	mods, annos := p.modifiers(p.childOfType(n, "modifiers"))
	m := &model.Member{
		Kind:        model.Method,
		Name:        p.raw(n.ChildByFieldName("name")),
		Modifiers:   mods,
		Annotations: annos,
		TypeParams:  p.typeParams(n.ChildByFieldName("type_parameters")),
		Line:        line(n),
	}
	if tp := p.childOfType(n, "type_parameters"); tp != nil && m.TypeParams == nil {
		m.TypeParams = p.typeParams(tp)
	}
	ret := p.typeRef(n.ChildByFieldName("type"))
	if d := n.ChildByFieldName("dimensions"); d != nil && ret != nil {
		ret = model.ArrayOf(ret, dims(p.raw(d)))
	}
	m.Return = ret
	if params := n.ChildByFieldName("parameters"); params != nil {
		m.Params = p.params(params)
	}
	m.Throws = p.typeList(p.childOfType(n, "throws"))
	if body := n.ChildByFieldName("body"); body != nil {
		m.Body = p.body(body)
	}
	if v := n.ChildByFieldName("value"); v != nil {
		m.Default = p.text(v)
	} else if dv := p.childOfType(n, "default_value"); dv != nil && dv.NamedChildCount() > 0 {
		m.Default = p.text(dv.NamedChild(0))
	}
	if owner.IsInterface() && m.Body == nil && !model.HasModifier(m.Modifiers, "public") {
		m.Modifiers = addModifiers(m.Modifiers, "public")
	}
	return m
}

func (p *unitParser) constructor(n *sitter.Node, owner *model.TypeDecl) *model.Member {
	mods, annos := p.modifiers(p.childOfType(n, "modifiers"))
	m := &model.Member{
		Kind:        model.Constructor,
		Name:        owner.Name,
		Modifiers:   mods,
		Annotations: annos,
		TypeParams:  p.typeParams(n.ChildByFieldName("type_parameters")),
		Line:        line(n),
	}
	if params := n.ChildByFieldName("parameters"); params != nil {
		m.Params = p.params(params)
	} else if n.Type() == "compact_constructor_declaration" {
		m.Params = owner.Components
		m.Compact = true
	}
	m.Throws = p.typeList(p.childOfType(n, "throws"))
	if body := n.ChildByFieldName("body"); body != nil {
		m.Body = p.body(body)
	} else {
		m.Body = &model.Body{Text: "{}"}
	}
	return m
}

func (p *unitParser) params(n *sitter.Node) []*model.Param {
	var out []*model.Param
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "formal_parameter":
			mods, annos := p.modifiers(p.childOfType(c, "modifiers"))
			t := p.typeRef(c.ChildByFieldName("type"))
			if d := c.ChildByFieldName("dimensions"); d != nil {
				t = model.ArrayOf(t, dims(p.raw(d)))
			}
			out = append(out, &model.Param{
				Name:        p.raw(c.ChildByFieldName("name")),
				Type:        t,
				Modifiers:   mods,
				Annotations: annos,
			})
		case "spread_parameter":
			param := &model.Param{Varargs: true}
			for j := 0; j < int(c.NamedChildCount()); j++ {
				cc := c.NamedChild(j)
				switch cc.Type() {
				case "modifiers":
					param.Modifiers, param.Annotations = p.modifiers(cc)
				case "variable_declarator":
					param.Name = p.raw(cc.ChildByFieldName("name"))
				default:
					if param.Type == nil && !isAnnotation(cc) {
						param.Type = p.typeRef(cc)
					}
				}
			}
			out = append(out, param)
		}
	}
	return out
}

func (p *unitParser) body(n *sitter.Node) *model.Body {
	return &model.Body{Text: p.stripped(n), Stmts: p.block(n)}
}
