package bind

import (
	"github.com/phobologic/jslice/internal/graph"
	"github.com/phobologic/jslice/internal/model"
)

func (w *walker) stmts(ss []*model.Stmt) {
	for _, s := range ss {
		w.stmt(s)
	}
}

func (w *walker) block(ss []*model.Stmt) {
	w.pushScope()
	w.stmts(ss)
	w.popScope()
}

func (w *walker) stmt(s *model.Stmt) {
	if s == nil {
		return
	}
	switch s.Kind {
	case model.StmtBlock, model.StmtLabeled:
		w.block(s.Body)
	case model.StmtSync:
		w.expr(s.X, Usage{})
		w.block(s.Body)
	case model.StmtLocalVar:
		w.localVar(s, Usage{})
	case model.StmtLocalClass:
		w.types[len(w.types)-1][s.Class.Name] = s.Class
		w.localClass(s.Class)
	case model.StmtExpr:
		w.expr(s.X, Usage{Discarded: true})
	case model.StmtIf:
		w.expr(s.Cond, Usage{Condition: true})
		w.pushScope()
		w.stmt(s.Then)
		w.popScope()
		w.pushScope()
		w.stmt(s.Else)
		w.popScope()
	case model.StmtWhile, model.StmtDo:
		w.expr(s.Cond, Usage{Condition: true})
		w.block(s.Body)
	case model.StmtFor:
		w.pushScope()
		for _, init := range s.Init {
			w.stmt(init)
		}
		if s.Cond != nil {
			w.expr(s.Cond, Usage{Condition: true})
		}
		for _, u := range s.Update {
			w.expr(u, Usage{Discarded: true})
		}
		w.block(s.Body)
		w.popScope()
	case model.StmtForEach:
		w.forEach(s)
	case model.StmtReturn, model.StmtYield:
		if s.X == nil {
			return
		}
		var expected *Value
		if s.Kind == model.StmtReturn && len(w.returns) > 0 {
			expected = w.returns[len(w.returns)-1]
		}
		w.expr(s.X, Usage{Expected: expected})
	case model.StmtThrow:
		w.throw(s.X)
	case model.StmtTry:
		w.try(s)
	case model.StmtSwitch:
		w.switchCases(s.X, s.Cases)
	case model.StmtAssert:
		for i, a := range s.Args {
			w.expr(a, Usage{Condition: i == 0})
		}
	case model.StmtCtorCall:
		owner := w.g.Type(w.scope())
		if owner == nil {
			return
		}
		args := w.args(s.Args)
		if s.Super {
			w.superCall(owner, args, false)
		} else {
			w.thisCall(owner, args)
		}
	}
}

func (w *walker) localVar(s *model.Stmt, u Usage) {
	declared := w.useType(s.Type, u)
	isVar := s.Type != nil && s.Type.Name == "var"
	if isVar && declared.Ref != nil {
		// var is inferred, never a type to resolve.
		w.refs = w.refs[:len(w.refs)-1]
		declared = Value{}
	}
	for _, v := range s.Vars {
		vt := declared
		if v.Dims > 0 && s.Type != nil {
			vt = w.valueOf(model.ArrayOf(s.Type, v.Dims))
		}
		if v.Init != nil {
			use := Usage{Resource: u.Resource}
			if vt.Known() {
				exp := instance(vt)
				use.Expected = &exp
			}
			if vt.Known() && !vt.TypeVar && vt.Res.Status != graph.Library && v.Init.Kind == model.ExprLambda {
				if declared.Ref != nil {
					declared.Ref.Use.Lambda = lambdaShape(v.Init, w)
				}
			}
			iv := w.expr(v.Init, use)
			if isVar {
				vt = iv
			}
		}
		w.declare(v.Name, instance(vt))
	}
}

func (w *walker) forEach(s *model.Stmt) {
	w.pushScope()
	elem := w.useType(s.Type, Usage{})
	if s.Type != nil && s.Type.Name == "var" && elem.Ref != nil {
		w.refs = w.refs[:len(w.refs)-1]
		elem = Value{}
	}
	el := instance(elem)
	iv := w.expr(s.X, Usage{Iterated: true, Element: &el})
	w.markValue(iv, Usage{Iterated: true, Element: &el})
	if len(s.Vars) > 0 {
		w.declare(s.Vars[0].Name, el)
	}
	w.block(s.Body)
	w.popScope()
}

func (w *walker) throw(x *model.Expr) {
	if x == nil {
		return
	}
	u := Usage{Thrown: true}
	if x.Kind == model.ExprNew && x.Type != nil {
		u.Caught = w.isCaught(x.Type.Simple())
	}
	v := w.expr(x, u)
	if x.Kind != model.ExprNew && v.Known() {
		u.Caught = w.isCaught(v.Type.Simple())
		w.markValue(v, u)
	}
}

func (w *walker) try(s *model.Stmt) {
	w.pushScope()
	for _, r := range s.Resources {
		if r.Kind == model.StmtLocalVar {
			w.localVar(r, Usage{Resource: true})
			continue
		}
		v := w.expr(r.X, Usage{Resource: true})
		w.markValue(v, Usage{Resource: true})
	}
	var names []string
	for _, c := range s.Catches {
		for _, t := range c.Types {
			names = append(names, t.Simple())
		}
	}
	w.caught = append(w.caught, names)
	w.block(s.Body)
	w.caught = w.caught[:len(w.caught)-1]
	w.popScope()

	for _, c := range s.Catches {
		w.pushScope()
		var first Value
		for i, t := range c.Types {
			v := w.useType(t, Usage{Caught: true})
			if i == 0 {
				first = v
			}
		}
		if len(c.Types) == 1 {
			w.declare(c.Name, instance(first))
		} else {
			w.declare(c.Name, libraryValue("java.lang.Exception"))
		}
		w.stmts(c.Body)
		w.popScope()
	}
	if s.Finally != nil {
		w.block(s.Finally)
	}
}

// switchCases binds switch labels, resolving bare names against the
// selector's enum type.
func (w *walker) switchCases(x *model.Expr, cases []*model.Case) {
	sel := w.expr(x, Usage{})
	var enum *model.TypeDecl
	if sel.Res.Status == graph.Source {
		if t := w.g.Type(sel.Res.ID); t != nil && (t.Kind == model.Enum || t.Synthetic) {
			enum = t
		}
	}
	for _, c := range cases {
		for _, l := range c.Labels {
			if l.Kind == model.ExprName && model.IsIdentifier(l.Name) && (enum != nil || sel.Res.Status == graph.Unresolved) {
				w.constant(sel, enum, l)
				continue
			}
			w.expr(l, Usage{})
		}
		w.block(c.Body)
	}
}

func (w *walker) constant(sel Value, enum *model.TypeDecl, l *model.Expr) {
	r := &Ref{Kind: RefConstant, Name: l.Name, Receiver: instance(sel), Static: true, Line: l.Line}
	if enum != nil && w.g.FindConstant(enum.ID, l.Name) != nil {
		r.Res = graph.Resolution{Status: graph.Source, ID: enum.ID, QName: enum.QName}
	} else if enum != nil && !enum.Synthetic {
		if f := w.g.FindField(enum.ID, l.Name); f != nil {
			r.Kind = RefField
			r.Res = graph.Resolution{Status: graph.Source, ID: f.ID}
		}
	}
	w.emit(r)
}

// markValue reports the type of a value used in a typed position (iterated,
// thrown, or closed as a resource) so that a synthetic type can take on the
// capability, or an unresolved member producing it can return one.
func (w *walker) markValue(v Value, u Usage) {
	if v.Ref != nil && v.Ref.Unresolved() && (v.Ref.Kind == RefMethod || v.Ref.Kind == RefField) {
		merge(&v.Ref.Use, u)
		return
	}
	if !v.Known() || v.Type.Primitive || v.TypeVar || v.Local != nil {
		return
	}
	switch v.Res.Status {
	case graph.Library:
		return
	case graph.Source:
		if t := w.g.Type(v.Res.ID); t == nil || !t.Synthetic {
			return
		}
	}
	w.refs = append(w.refs, &Ref{
		Kind: RefType, Name: v.Type.Name, Type: v.Type, Res: v.Res, Use: u,
		From: w.from, Scope: v.Scope, Unit: v.Unit, Line: 0,
	})
}

func merge(dst *Usage, u Usage) {
	dst.Iterated = dst.Iterated || u.Iterated
	dst.Thrown = dst.Thrown || u.Thrown
	dst.Caught = dst.Caught || u.Caught
	dst.Resource = dst.Resource || u.Resource
	if u.Element != nil {
		dst.Element = u.Element
	}
}

// localClass binds the members of a local or anonymous class in its own frame.
func (w *walker) localClass(t *model.TypeDecl) {
	if t.Name != "" {
		for _, a := range t.Annotations {
			w.annotation(a)
		}
		if t.Super != nil {
			w.useType(t.Super, Usage{Extends: true})
		}
		for _, r := range t.Interfaces {
			w.useType(r, Usage{Implements: true})
		}
	}
	w.frames = append(w.frames, frame{local: t})
	w.pushVars(t.TypeParams)
	w.pushScope()
	for _, n := range t.Nested {
		w.types[len(w.types)-1][n.Name] = n
	}
	for _, m := range t.Members {
		w.localMember(t, m)
	}
	for _, n := range t.Nested {
		w.localClass(n)
	}
	w.popScope()
	w.vars = w.vars[:len(w.vars)-1]
	w.frames = w.frames[:len(w.frames)-1]
}

func (w *walker) localMember(owner *model.TypeDecl, m *model.Member) {
	for _, a := range m.Annotations {
		w.annotation(a)
	}
	w.pushScope()
	w.pushVars(m.TypeParams)
	defer func() {
		w.vars = w.vars[:len(w.vars)-1]
		w.popScope()
	}()
	if m.Kind == model.Field {
		fv := w.useType(m.Type, Usage{})
		if m.Init != nil && m.Init.Expr != nil {
			exp := instance(fv)
			w.expr(m.Init.Expr, Usage{Expected: &exp})
		}
		return
	}
	for _, p := range m.Params {
		w.param(p)
		w.declare(p.Name, w.paramValue(p))
	}
	ret := w.useType(m.Return, Usage{})
	for _, t := range m.Throws {
		w.useType(t, Usage{Declared: true, Caught: true})
	}
	if m.HasOverride() && owner.Super != nil {
		w.localOverride(owner, m)
	}
	if m.Body == nil {
		return
	}
	if ret.Known() && !m.Return.IsVoid() {
		r := instance(ret)
		w.returns = append(w.returns, &r)
	} else {
		w.returns = append(w.returns, nil)
	}
	w.stmts(m.Body.Stmts)
	w.returns = w.returns[:len(w.returns)-1]
}

// localOverride requires an @Override method of an anonymous or local class
// to exist on an unresolved or synthetic supertype.
func (w *walker) localOverride(owner *model.TypeDecl, m *model.Member) {
	if IsObjectMethod(m.Name, len(m.Params)) {
		return
	}
	// The local class's own frame is still pushed; resolve the supertype
	// from the enclosing scope.
	top := w.frames[len(w.frames)-1]
	w.frames = w.frames[:len(w.frames)-1]
	sup := w.valueOf(owner.Super)
	w.frames = append(w.frames, top)
	switch sup.Res.Status {
	case graph.Library:
		return
	case graph.Source:
		if len(w.g.FindMethods(sup.Res.ID, m.Name, len(m.Params))) > 0 {
			return
		}
		if t := w.g.Type(sup.Res.ID); !t.Synthetic && !w.g.UnresolvedAncestor(t.ID) {
			return
		}
	}
	args := make([]Value, len(m.Params))
	for i, p := range m.Params {
		args[i] = w.paramValue(p)
	}
	w.emit(&Ref{
		Kind: RefMethod, Name: m.Name, Receiver: instance(sup), Args: args,
		Member: m, Use: Usage{Override: true}, Line: m.Line,
	})
}
