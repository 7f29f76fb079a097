package parse

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/jslice/internal/model"
)

// typeRef converts any tree-sitter type node into a model reference.
func (p *unitParser) typeRef(n *sitter.Node) *model.TypeRef {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "type_identifier", "identifier":
		return model.NewRef(p.raw(n))
	case "integral_type", "floating_point_type", "boolean_type", "void_type":
		return model.NewRef(strings.TrimSpace(p.raw(n)))
	case "scoped_type_identifier", "scoped_identifier":
		return model.NewRef(p.scopedName(n))
	case "generic_type":
		var ref *model.TypeRef
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			switch c.Type() {
			case "type_arguments":
				if ref == nil {
					continue
				}
				ref.Args = p.typeArgs(c)
			default:
				if ref == nil {
					ref = p.typeRef(c)
				}
			}
		}
		if ref == nil {
			return model.NewRef(p.text(n))
		}
		return ref
	case "array_type":
		elem := p.typeRef(n.ChildByFieldName("element"))
		if elem == nil {
			return nil
		}
		return model.ArrayOf(elem, dims(p.raw(n.ChildByFieldName("dimensions"))))
	case "annotated_type":
		for i := int(n.NamedChildCount()) - 1; i >= 0; i-- {
			c := n.NamedChild(i)
			if !isAnnotation(c) {
				return p.typeRef(c)
			}
		}
	case "wildcard":
		ref := &model.TypeRef{Name: "?", Wildcard: true}
		for i := 0; i < int(n.ChildCount()); i++ {
			c := n.Child(i)
			switch {
			case !c.IsNamed() && (c.Type() == "extends" || c.Type() == "super"):
				ref.BoundKind = c.Type()
			case c.IsNamed() && !isAnnotation(c) && ref.BoundKind != "":
				ref.Bound = p.typeRef(c)
			}
		}
		return ref
	}
	return model.NewRef(p.text(n))
}

func (p *unitParser) typeArgs(n *sitter.Node) []*model.TypeRef {
	args := []*model.TypeRef{}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if isAnnotation(c) {
			continue
		}
		if r := p.typeRef(c); r != nil {
			args = append(args, r)
		}
	}
	return args
}

// scopedName renders a dotted type name without type arguments or annotations.
func (p *unitParser) scopedName(n *sitter.Node) string {
	var parts []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "scoped_type_identifier", "scoped_identifier":
			parts = append(parts, p.scopedName(c))
		case "generic_type":
			parts = append(parts, p.typeRef(c).Name)
		case "type_identifier", "identifier":
			parts = append(parts, p.raw(c))
		}
	}
	return strings.Join(parts, ".")
}

func (p *unitParser) typeParams(n *sitter.Node) []*model.TypeParam {
	if n == nil {
		return nil
	}
	var out []*model.TypeParam
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() != "type_parameter" {
			continue
		}
		tp := &model.TypeParam{}
		for j := 0; j < int(c.NamedChildCount()); j++ {
			cc := c.NamedChild(j)
			switch cc.Type() {
			case "type_identifier", "identifier":
				tp.Name = p.raw(cc)
			case "type_bound":
				for k := 0; k < int(cc.NamedChildCount()); k++ {
					if b := p.typeRef(cc.NamedChild(k)); b != nil {
						tp.Bounds = append(tp.Bounds, b)
					}
				}
			}
		}
		out = append(out, tp)
	}
	return out
}

// typeList collects the types of a superclass, super_interfaces,
// extends_interfaces, throws, or type_list node.
func (p *unitParser) typeList(n *sitter.Node) []*model.TypeRef {
	if n == nil {
		return nil
	}
	var out []*model.TypeRef
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "type_list" {
			out = append(out, p.typeList(c)...)
			continue
		}
		if isAnnotation(c) {
			continue
		}
		if r := p.typeRef(c); r != nil {
			out = append(out, r)
		}
	}
	return out
}

func isAnnotation(n *sitter.Node) bool {
	return n.Type() == "marker_annotation" || n.Type() == "annotation"
}

func dims(s string) int {
	return strings.Count(s, "[")
}
