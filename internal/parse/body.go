package parse

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/jslice/internal/model"
)

// block converts the statements of a block or constructor body.
func (p *unitParser) block(n *sitter.Node) []*model.Stmt {
	if n == nil {
		return nil
	}
	var out []*model.Stmt
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if s := p.stmt(n.NamedChild(i)); s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (p *unitParser) stmt(n *sitter.Node) *model.Stmt {
	if n == nil {
		return nil
	}
	s := &model.Stmt{Line: line(n)}
	switch n.Type() {
	case "line_comment", "block_comment":
		return nil
	case "block":
		s.Kind = model.StmtBlock
		s.Body = p.block(n)
	case "local_variable_declaration":
		s.Kind = model.StmtLocalVar
		s.Type = p.typeRef(n.ChildByFieldName("type"))
		s.Vars = p.declarators(n)
	case "expression_statement":
		s.Kind = model.StmtExpr
		if n.NamedChildCount() > 0 {
			s.X = p.expr(n.NamedChild(0))
		}
	case "if_statement":
		s.Kind = model.StmtIf
		s.Cond = p.expr(n.ChildByFieldName("condition"))
		s.Then = p.stmt(n.ChildByFieldName("consequence"))
		s.Else = p.stmt(n.ChildByFieldName("alternative"))
	case "while_statement", "do_statement":
		s.Kind = model.StmtWhile
		if n.Type() == "do_statement" {
			s.Kind = model.StmtDo
		}
		s.Cond = p.expr(n.ChildByFieldName("condition"))
		s.Body = p.single(n.ChildByFieldName("body"))
	case "for_statement":
		p.forStmt(n, s)
	case "enhanced_for_statement":
		s.Kind = model.StmtForEach
		s.Type = p.typeRef(n.ChildByFieldName("type"))
		v := &model.Var{Name: p.raw(n.ChildByFieldName("name"))}
		if d := n.ChildByFieldName("dimensions"); d != nil {
			v.Dims = dims(p.raw(d))
		}
		s.Vars = []*model.Var{v}
		s.X = p.expr(n.ChildByFieldName("value"))
		s.Body = p.single(n.ChildByFieldName("body"))
	case "return_statement", "throw_statement", "yield_statement":
		s.Kind = map[string]model.StmtKind{
			"return_statement": model.StmtReturn,
			"throw_statement":  model.StmtThrow,
			"yield_statement":  model.StmtYield,
		}[n.Type()]
		if n.NamedChildCount() > 0 {
			s.X = p.expr(n.NamedChild(0))
		}
	case "try_statement", "try_with_resources_statement":
		p.tryStmt(n, s)
	case "switch_expression", "switch_statement":
		s.Kind = model.StmtSwitch
		s.X = p.expr(n.ChildByFieldName("condition"))
		s.Cases = p.cases(n.ChildByFieldName("body"))
	case "synchronized_statement":
		s.Kind = model.StmtSync
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			if c.Type() == "block" {
				s.Body = p.block(c)
			} else if s.X == nil {
				s.X = p.expr(c)
			}
		}
	case "labeled_statement":
		s.Kind = model.StmtLabeled
		if k := n.NamedChildCount(); k > 0 {
			s.Body = p.single(n.NamedChild(int(k) - 1))
		}
	case "assert_statement":
		s.Kind = model.StmtAssert
		s.Args = p.exprs(n)
	case "explicit_constructor_invocation":
		s.Kind = model.StmtCtorCall
		ctor := n.ChildByFieldName("constructor")
		s.Super = ctor != nil && ctor.Type() == "super"
		s.Args = p.args(n.ChildByFieldName("arguments"))
	default:
		if td := p.typeDecl(n, nil); td != nil {
			td.QName = td.Name
			s.Kind = model.StmtLocalClass
			s.Class = td
			break
		}
		s.Kind = model.StmtOther
	}
	return s
}

// single wraps a statement used as a loop or label body.
func (p *unitParser) single(n *sitter.Node) []*model.Stmt {
	if n == nil {
		return nil
	}
	if n.Type() == "block" {
		return p.block(n)
	}
	if s := p.stmt(n); s != nil {
		return []*model.Stmt{s}
	}
	return nil
}

func (p *unitParser) declarators(n *sitter.Node) []*model.Var {
	var out []*model.Var
	for i := 0; i < int(n.NamedChildCount()); i++ {
		d := n.NamedChild(i)
		if d.Type() != "variable_declarator" {
			continue
		}
		v := &model.Var{Name: p.raw(d.ChildByFieldName("name"))}
		if dm := d.ChildByFieldName("dimensions"); dm != nil {
			v.Dims = dims(p.raw(dm))
		}
		if val := d.ChildByFieldName("value"); val != nil {
			v.Init = p.expr(val)
		}
		out = append(out, v)
	}
	return out
}

// forStmt splits the header of a basic for loop into init, condition, and
// update parts by counting the separating semicolons.
func (p *unitParser) forStmt(n *sitter.Node, s *model.Stmt) {
	s.Kind = model.StmtFor
	cond := n.ChildByFieldName("condition")
	body := n.ChildByFieldName("body")
	s.Cond = p.expr(cond)
	s.Body = p.single(body)
	phase := 0
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if !c.IsNamed() {
			if c.Type() == ";" {
				phase++
			}
			continue
		}
		if sameNode(c, body) || sameNode(c, cond) || c.Type() == "line_comment" || c.Type() == "block_comment" {
			continue
		}
		switch {
		case c.Type() == "local_variable_declaration":
			s.Init = append(s.Init, p.stmt(c))
			phase++
		case phase == 0:
			s.Init = append(s.Init, &model.Stmt{Kind: model.StmtExpr, Line: line(c), X: p.expr(c)})
		default:
			s.Update = append(s.Update, p.expr(c))
		}
	}
}

func (p *unitParser) tryStmt(n *sitter.Node, s *model.Stmt) {
	s.Kind = model.StmtTry
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "resource_specification":
			for j := 0; j < int(c.NamedChildCount()); j++ {
				r := c.NamedChild(j)
				if r.Type() != "resource" {
					continue
				}
				if t := r.ChildByFieldName("type"); t != nil {
					v := &model.Var{Name: p.raw(r.ChildByFieldName("name"))}
					if val := r.ChildByFieldName("value"); val != nil {
						v.Init = p.expr(val)
					}
					s.Resources = append(s.Resources, &model.Stmt{
						Kind: model.StmtLocalVar, Line: line(r), Type: p.typeRef(t), Vars: []*model.Var{v},
					})
				} else if r.NamedChildCount() > 0 {
					s.Resources = append(s.Resources, &model.Stmt{
						Kind: model.StmtExpr, Line: line(r), X: p.expr(r.NamedChild(0)),
					})
				}
			}
		case "block":
			s.Body = p.block(c)
		case "catch_clause":
			s.Catches = append(s.Catches, p.catchClause(c))
		case "finally_clause":
			if b := p.childOfType(c, "block"); b != nil {
				s.Finally = p.block(b)
			}
		}
	}
}

func (p *unitParser) catchClause(n *sitter.Node) *model.Catch {
	cc := &model.Catch{}
	if param := p.childOfType(n, "catch_formal_parameter"); param != nil {
		cc.Name = p.raw(param.ChildByFieldName("name"))
		if ct := p.childOfType(param, "catch_type"); ct != nil {
			for i := 0; i < int(ct.NamedChildCount()); i++ {
				if r := p.typeRef(ct.NamedChild(i)); r != nil {
					cc.Types = append(cc.Types, r)
				}
			}
		}
	}
	cc.Body = p.block(n.ChildByFieldName("body"))
	return cc
}

func (p *unitParser) cases(n *sitter.Node) []*model.Case {
	if n == nil {
		return nil
	}
	var out []*model.Case
	for i := 0; i < int(n.NamedChildCount()); i++ {
		g := n.NamedChild(i)
		if g.Type() != "switch_block_statement_group" && g.Type() != "switch_rule" {
			continue
		}
		c := &model.Case{}
		for j := 0; j < int(g.NamedChildCount()); j++ {
			child := g.NamedChild(j)
			if child.Type() == "switch_label" {
				if strings.HasPrefix(strings.TrimSpace(p.raw(child)), "default") {
					c.Default = true
				}
				c.Labels = append(c.Labels, p.exprs(child)...)
				continue
			}
			if child.Type() == "block" && g.Type() == "switch_rule" {
				c.Body = append(c.Body, p.block(child)...)
				continue
			}
			if s := p.stmt(child); s != nil {
				c.Body = append(c.Body, s)
			}
		}
		out = append(out, c)
	}
	return out
}

// exprs converts every named child of n into an expression.
func (p *unitParser) exprs(n *sitter.Node) []*model.Expr {
	var out []*model.Expr
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "line_comment" || c.Type() == "block_comment" {
			continue
		}
		out = append(out, p.expr(c))
	}
	return out
}

func (p *unitParser) args(n *sitter.Node) []*model.Expr {
	if n == nil {
		return nil
	}
	return p.exprs(n)
}

var literalTypes = map[string]string{
	"decimal_integer_literal":        "int",
	"hex_integer_literal":            "int",
	"octal_integer_literal":          "int",
	"binary_integer_literal":         "int",
	"decimal_floating_point_literal": "double",
	"hex_floating_point_literal":     "double",
	"character_literal":              "char",
	"string_literal":                 "java.lang.String",
	"text_block":                     "java.lang.String",
	"true":                           "boolean",
	"false":                          "boolean",
}

func (p *unitParser) literal(n *sitter.Node, e *model.Expr) {
	e.Kind = model.ExprLiteral
	e.Name = p.raw(n)
	if n.Type() == "null_literal" {
		return
	}
	t := literalTypes[n.Type()]
	lower := strings.ToLower(e.Name)
	switch {
	case t == "int" && strings.HasSuffix(lower, "l"):
		t = "long"
	case t == "double" && strings.HasSuffix(lower, "f"):
		t = "float"
	}
	e.Type = model.NewRef(t)
}

var typeNodes = map[string]struct{}{
	"type_identifier": {}, "scoped_type_identifier": {}, "generic_type": {}, "array_type": {},
	"integral_type": {}, "floating_point_type": {}, "boolean_type": {}, "void_type": {},
}

func (p *unitParser) expr(n *sitter.Node) *model.Expr {
	if n == nil {
		return nil
	}
	e := &model.Expr{Line: line(n)}
	switch t := n.Type(); t {
	case "parenthesized_expression":
		if n.NamedChildCount() > 0 {
			return p.expr(n.NamedChild(0))
		}
	case "identifier":
		e.Kind = model.ExprName
		e.Name = p.raw(n)
	case "this":
		e.Kind = model.ExprThis
	case "super":
		e.Kind = model.ExprSuper
	case "field_access":
		e.Kind = model.ExprField
		e.X = p.expr(n.ChildByFieldName("object"))
		e.Name = p.raw(n.ChildByFieldName("field"))
		if f := n.ChildByFieldName("field"); f != nil && f.Type() == "this" {
			e.Kind = model.ExprThis
			e.Name = p.text(n.ChildByFieldName("object"))
			e.X = nil
		}
	case "method_invocation":
		e.Kind = model.ExprCall
		e.X = p.expr(n.ChildByFieldName("object"))
		e.Name = p.raw(n.ChildByFieldName("name"))
		e.Args = p.args(n.ChildByFieldName("arguments"))
	case "object_creation_expression":
		e.Kind = model.ExprNew
		e.Type = p.typeRef(n.ChildByFieldName("type"))
		e.Args = p.args(n.ChildByFieldName("arguments"))
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			switch c.Type() {
			case "class_body":
				anon := &model.TypeDecl{Kind: model.Class, Package: p.pkg, Line: line(c)}
				if e.Type != nil {
					anon.Super = e.Type.Clone()
				}
				p.typeBody(c, anon)
				e.Class = anon
			case "argument_list", "type_arguments", "line_comment", "block_comment":
			default:
				if i == 0 && e.X == nil && !sameNode(n.ChildByFieldName("type"), c) {
					e.X = p.expr(c)
				}
			}
		}
	case "array_creation_expression":
		e.Kind = model.ExprNewArray
		elem := p.typeRef(n.ChildByFieldName("type"))
		total := 0
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			switch c.Type() {
			case "dimensions_expr":
				total++
				if c.NamedChildCount() > 0 {
					e.Args = append(e.Args, p.expr(c.NamedChild(0)))
				}
			case "dimensions":
				total += dims(p.raw(c))
			case "array_initializer":
				e.Y = p.expr(c)
			}
		}
		if elem != nil {
			e.Type = model.ArrayOf(elem, total)
		}
	case "array_initializer":
		e.Kind = model.ExprArrayInit
		e.Args = p.exprs(n)
	case "null_literal", "decimal_integer_literal", "hex_integer_literal", "octal_integer_literal",
		"binary_integer_literal", "decimal_floating_point_literal", "hex_floating_point_literal",
		"character_literal", "string_literal", "text_block", "true", "false":
		p.literal(n, e)
	case "cast_expression":
		e.Kind = model.ExprCast
		e.Type = p.typeRef(n.ChildByFieldName("type"))
		e.X = p.expr(n.ChildByFieldName("value"))
	case "instanceof_expression":
		e.Kind = model.ExprInstanceOf
		e.X = p.expr(n.ChildByFieldName("left"))
		e.Type = p.typeRef(n.ChildByFieldName("right"))
		if name := n.ChildByFieldName("name"); name != nil {
			e.Name = p.raw(name)
		}
		if e.Type == nil {
			if tp := p.childOfType(n, "type_pattern"); tp != nil && tp.NamedChildCount() > 0 {
				e.Type = p.typeRef(tp.NamedChild(0))
				if tp.NamedChildCount() > 1 {
					e.Name = p.raw(tp.NamedChild(int(tp.NamedChildCount()) - 1))
				}
			}
		}
	case "binary_expression":
		e.Kind = model.ExprBinary
		e.X = p.expr(n.ChildByFieldName("left"))
		e.Op = p.raw(n.ChildByFieldName("operator"))
		e.Y = p.expr(n.ChildByFieldName("right"))
	case "unary_expression":
		e.Kind = model.ExprUnary
		e.Op = p.raw(n.ChildByFieldName("operator"))
		e.X = p.expr(n.ChildByFieldName("operand"))
	case "update_expression":
		e.Kind = model.ExprUnary
		e.Op = "++"
		if strings.Contains(p.raw(n), "--") {
			e.Op = "--"
		}
		if n.NamedChildCount() > 0 {
			e.X = p.expr(n.NamedChild(0))
		}
	case "assignment_expression":
		e.Kind = model.ExprAssign
		e.X = p.expr(n.ChildByFieldName("left"))
		e.Op = p.raw(n.ChildByFieldName("operator"))
		e.Y = p.expr(n.ChildByFieldName("right"))
	case "ternary_expression":
		e.Kind = model.ExprCond
		e.X = p.expr(n.ChildByFieldName("condition"))
		e.Y = p.expr(n.ChildByFieldName("consequence"))
		e.Z = p.expr(n.ChildByFieldName("alternative"))
	case "lambda_expression":
		p.lambda(n, e)
	case "method_reference":
		e.Kind = model.ExprMethodRef
		if n.NamedChildCount() > 0 {
			first := n.NamedChild(0)
			if _, isType := typeNodes[first.Type()]; isType {
				e.Type = p.typeRef(first)
			} else {
				e.X = p.expr(first)
			}
		}
		e.Name = "new"
		if k := n.NamedChildCount(); k > 1 {
			if last := n.NamedChild(int(k) - 1); last.Type() == "identifier" {
				e.Name = p.raw(last)
			}
		}
	case "array_access":
		e.Kind = model.ExprIndex
		e.X = p.expr(n.ChildByFieldName("array"))
		e.Y = p.expr(n.ChildByFieldName("index"))
	case "class_literal":
		e.Kind = model.ExprClassLit
		if n.NamedChildCount() > 0 {
			e.Type = p.typeRef(n.NamedChild(0))
		}
	case "switch_expression":
		e.Kind = model.ExprSwitch
		e.X = p.expr(n.ChildByFieldName("condition"))
		e.Cases = p.cases(n.ChildByFieldName("body"))
	default:
		if _, isType := typeNodes[t]; isType {
			// A type used in expression position, such as a qualified name in
			// a switch label or an annotation argument.
			e.Kind = model.ExprName
			e.Name = p.text(n)
			break
		}
		e.Kind = model.ExprOther
		e.Args = p.exprs(n)
	}
	return e
}

func (p *unitParser) lambda(n *sitter.Node, e *model.Expr) {
	e.Kind = model.ExprLambda
	if params := n.ChildByFieldName("parameters"); params != nil {
		switch params.Type() {
		case "identifier":
			e.Params = []*model.Param{{Name: p.raw(params)}}
		case "formal_parameters":
			e.Params = p.params(params)
		default:
			for i := 0; i < int(params.NamedChildCount()); i++ {
				e.Params = append(e.Params, &model.Param{Name: p.raw(params.NamedChild(i))})
			}
		}
	}
	e.Params = nonNilParams(e.Params)
	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	if body.Type() == "block" {
		e.Body = p.block(body)
		if e.Body == nil {
			e.Body = []*model.Stmt{}
		}
		return
	}
	e.Y = p.expr(body)
}

func nonNilParams(ps []*model.Param) []*model.Param {
	if ps == nil {
		return []*model.Param{}
	}
	return ps
}

func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}
