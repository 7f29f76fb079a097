package bind

import (
	"strings"

	"github.com/phobologic/jslice/internal/graph"
	"github.com/phobologic/jslice/internal/lang"
	"github.com/phobologic/jslice/internal/model"
	"github.com/phobologic/jslice/internal/qpath"
)

var booleanValue = primitiveValue("boolean")

func (w *walker) args(es []*model.Expr) []Value {
	out := make([]Value, len(es))
	for i, e := range es {
		out[i] = w.expr(e, Usage{})
	}
	return out
}

// expr binds an expression and returns its static type.
func (w *walker) expr(e *model.Expr, u Usage) Value {
	if e == nil {
		return Value{}
	}
	switch e.Kind {
	case model.ExprName:
		return w.name(e, u)
	case model.ExprField:
		return w.field(e, u)
	case model.ExprCall:
		return w.call(e, u)
	case model.ExprNew:
		return w.newExpr(e, u)
	case model.ExprNewArray:
		v := w.useType(e.Type, Usage{})
		for _, a := range e.Args {
			w.expr(a, Usage{Expected: ptr(primitiveValue("int"))})
		}
		if e.Y != nil {
			el := instance(v)
			if el.Type != nil {
				el = w.valueOf(el.Type.Element())
			}
			w.arrayInit(e.Y, el)
		}
		return instance(v)
	case model.ExprArrayInit:
		var el Value
		if u.Expected != nil && u.Expected.Type != nil && u.Expected.Type.Dims > 0 {
			el = *u.Expected
			el.Type = el.Type.Element()
		}
		w.arrayInit(e, el)
		if u.Expected != nil {
			return *u.Expected
		}
		return Value{}
	case model.ExprLiteral:
		if e.Type == nil {
			return Value{Null: true}
		}
		if e.Type.Primitive {
			return primitiveValue(e.Type.Name)
		}
		return libraryValue(e.Type.Name)
	case model.ExprThis:
		if e.Name != "" {
			return w.qualifiedThis(e.Name)
		}
		return w.thisValue()
	case model.ExprSuper:
		return w.superValue()
	case model.ExprCast:
		v := w.useType(e.Type, Usage{})
		w.expr(e.X, Usage{})
		return instance(v)
	case model.ExprInstanceOf:
		w.expr(e.X, Usage{})
		v := w.useType(e.Type, Usage{})
		if e.Name != "" {
			w.declare(e.Name, instance(v))
		}
		return booleanValue
	case model.ExprBinary:
		return w.binary(e, u)
	case model.ExprUnary:
		if e.Op == "!" {
			w.expr(e.X, Usage{Condition: true})
			return booleanValue
		}
		return w.expr(e.X, Usage{Expected: u.Expected})
	case model.ExprAssign:
		lhs := w.expr(e.X, Usage{Assigned: true})
		use := Usage{}
		if lhs.Known() && e.Op == "=" {
			exp := instance(lhs)
			use.Expected = &exp
			if e.Y != nil && e.Y.Kind == model.ExprLambda && lhs.Ref != nil && lhs.Ref.Kind == RefField {
				w.markLambda(lhs, e.Y)
			}
		}
		w.expr(e.Y, use)
		return instance(lhs)
	case model.ExprCond:
		w.expr(e.X, Usage{Condition: true})
		y := w.expr(e.Y, Usage{Expected: u.Expected, Condition: u.Condition})
		z := w.expr(e.Z, Usage{Expected: u.Expected, Condition: u.Condition})
		if y.Known() && !y.Null {
			return instance(y)
		}
		return instance(z)
	case model.ExprLambda:
		return w.lambda(e)
	case model.ExprMethodRef:
		return w.methodRef(e)
	case model.ExprIndex:
		arr := w.expr(e.X, Usage{Deref: true})
		w.expr(e.Y, Usage{Expected: ptr(primitiveValue("int"))})
		if arr.Known() && arr.Type.Dims > 0 {
			el := instance(arr)
			el.Type = arr.Type.Element()
			return el
		}
		return Value{}
	case model.ExprClassLit:
		w.useType(e.Type, Usage{})
		return libraryValue("java.lang.Class")
	case model.ExprSwitch:
		w.pushScope()
		w.switchCases(e.X, e.Cases)
		w.popScope()
		return Value{}
	}
	for _, a := range e.Args {
		w.expr(a, Usage{})
	}
	return Value{}
}

func ptr(v Value) *Value {
	return &v
}

func (w *walker) arrayInit(e *model.Expr, el Value) {
	if e.Kind != model.ExprArrayInit {
		w.expr(e, Usage{Expected: expectedOf(el)})
		return
	}
	for _, a := range e.Args {
		if a.Kind == model.ExprArrayInit && el.Type != nil {
			inner := el
			inner.Type = el.Type.Element()
			w.arrayInit(a, inner)
			continue
		}
		w.expr(a, Usage{Expected: expectedOf(el)})
	}
}

func expectedOf(v Value) *Value {
	if !v.Known() {
		return nil
	}
	return &v
}

func (w *walker) binary(e *model.Expr, u Usage) Value {
	switch e.Op {
	case "&&", "||":
		w.expr(e.X, Usage{Condition: true})
		w.expr(e.Y, Usage{Condition: true})
		return booleanValue
	}
	x := w.expr(e.X, Usage{})
	y := w.expr(e.Y, Usage{})
	switch e.Op {
	case "==", "!=", "<", "<=", ">", ">=":
		return booleanValue
	case "+":
		if x.QName() == "java.lang.String" || y.QName() == "java.lang.String" {
			return libraryValue("java.lang.String")
		}
	}
	return promote(x, y)
}

// promote computes the result type of an arithmetic or bitwise operator.
func promote(x, y Value) Value {
	px, okx := primitiveOf(x)
	py, oky := primitiveOf(y)
	switch {
	case okx && oky:
		if px == "boolean" && py == "boolean" {
			return booleanValue
		}
		wide, ok := lang.WidenPrimitive(px, py)
		if !ok {
			return Value{}
		}
		if wide == "byte" || wide == "short" || wide == "char" {
			wide = "int"
		}
		return primitiveValue(wide)
	case okx:
		return primitiveValue(px)
	case oky:
		return primitiveValue(py)
	}
	return Value{}
}

func primitiveOf(v Value) (string, bool) {
	if !v.Known() || v.Type.Dims > 0 {
		return "", false
	}
	if v.Type.Primitive {
		return v.Type.Name, true
	}
	return lang.Unbox(v.QName())
}

func (w *walker) lambda(e *model.Expr) Value {
	shape := lambdaShape(e, w)
	w.pushScope()
	for _, p := range e.Params {
		if p.Type != nil {
			w.useType(p.Type, Usage{})
			w.declare(p.Name, w.paramValue(p))
		} else {
			w.declare(p.Name, Value{})
		}
	}
	w.returns = append(w.returns, nil)
	if e.Y != nil {
		w.expr(e.Y, Usage{})
	} else {
		w.stmts(e.Body)
	}
	w.returns = w.returns[:len(w.returns)-1]
	w.popScope()
	return Value{Lambda: shape}
}

// lambdaShape computes arity and whether the lambda yields a value. A call
// used as an expression body counts as yielding nothing.
func lambdaShape(e *model.Expr, w *walker) *LambdaShape {
	shape := &LambdaShape{Arity: len(e.Params)}
	if e.Kind == model.ExprMethodRef {
		shape.Arity = -1
		shape.Returns = true
		return shape
	}
	if e.Y != nil {
		switch e.Y.Kind {
		case model.ExprCall, model.ExprAssign, model.ExprNew:
			shape.Returns = false
		case model.ExprUnary:
			shape.Returns = e.Y.Op != "++" && e.Y.Op != "--"
		default:
			shape.Returns = true
		}
		return shape
	}
	model.WalkStmts(e.Body, func(s *model.Stmt) {
		if s.Kind == model.StmtReturn && s.X != nil {
			shape.Returns = true
		}
	})
	return shape
}

// markLambda records that a lambda is assigned to a field whose type may need
// to become a functional interface.
func (w *walker) markLambda(target Value, lambda *model.Expr) {
	if target.Known() && target.Res.Status != graph.Library {
		w.refs = append(w.refs, &Ref{
			Kind: RefType, Name: target.Type.Name, Type: target.Type, Res: target.Res,
			Use: Usage{Lambda: lambdaShape(lambda, w)}, From: w.from, Scope: target.Scope, Unit: target.Unit,
		})
	}
}

func (w *walker) methodRef(e *model.Expr) Value {
	var recv Value
	if e.Type != nil {
		recv = w.useType(e.Type, Usage{})
	} else {
		recv = w.receiver(e.X)
	}
	if e.Name != "new" && recv.Res.Status == graph.Source {
		if ms := w.g.FindMethods(recv.Res.ID, e.Name, -1); len(ms) > 0 {
			w.emit(&Ref{Kind: RefMethod, Name: e.Name, Receiver: instance(recv), Res: memberRes(ms[0]), Alts: ids(ms[1:]), Line: e.Line})
		}
	}
	if e.Name == "new" && recv.Res.Status == graph.Source {
		if cs := w.g.FindConstructors(recv.Res.ID, -1); len(cs) > 0 {
			w.emit(&Ref{Kind: RefNew, Name: recv.Type.Name, Receiver: instance(recv), Res: memberRes(cs[0]), Alts: ids(cs[1:]), Line: e.Line})
		}
	}
	return Value{Lambda: lambdaShape(e, w)}
}

func memberRes(m *model.Member) graph.Resolution {
	return graph.Resolution{Status: graph.Source, ID: m.ID}
}

func ids(ms []*model.Member) []model.DeclID {
	var out []model.DeclID
	for _, m := range ms {
		out = append(out, m.ID)
	}
	return out
}

// name binds a simple name used as a value: a local, a field of an enclosing
// class, a statically imported field, or a type.
func (w *walker) name(e *model.Expr, u Usage) Value {
	if v, ok := w.lookupLocal(e.Name); ok {
		return v
	}
	if v, ok := w.implicitField(e, u); ok {
		return v
	}
	if v, ok := w.typeName(e.Name); ok {
		return v
	}
	r := w.emit(&Ref{Kind: RefField, Name: e.Name, Receiver: w.thisValue(), Implicit: true, Use: u, Line: e.Line})
	if recv, ok := w.staticImportOwner(e.Name, false); ok {
		r.Receiver = recv
		r.Static = true
		r.Implicit = false
	}
	return Value{Ref: r}
}

// typeName resolves a simple name that denotes a type, reporting the use.
func (w *walker) typeName(name string) (Value, bool) {
	if lt := w.lookupLocalType(name); lt != nil {
		return Value{Type: model.NewRef(name), Local: lt, Static: true, Scope: w.scope(), Unit: w.unit}, true
	}
	if _, ok := w.lookupVar(name); ok {
		return Value{}, false
	}
	v := w.resolve(model.NewRef(name))
	if !v.Res.Found() {
		return Value{}, false
	}
	v.Static = true
	v.Ref = w.emit(&Ref{Kind: RefType, Name: name, Type: v.Type, Res: v.Res})
	return v, true
}

func (w *walker) implicitField(e *model.Expr, u Usage) (Value, bool) {
	for i := len(w.frames) - 1; i >= 0; i-- {
		f := w.frames[i]
		if f.local != nil {
			if m := f.local.Member(model.Field, e.Name); m != nil {
				return w.useValue(m.Type), true
			}
			if f.local.Super != nil {
				top := w.frames[i:]
				w.frames = w.frames[:i]
				sup := w.valueOf(f.local.Super)
				w.frames = append(w.frames, top...)
				if sup.Res.Status == graph.Source {
					if m := w.g.FindField(sup.Res.ID, e.Name); m != nil {
						return w.bindField(m, sup, e, u, true), true
					}
				}
			}
			continue
		}
		if m := w.g.FindField(f.id, e.Name); m != nil {
			return w.bindField(m, instance(typeValue(w.g.Type(f.id), w.g)), e, u, true), true
		}
		if t := w.g.Type(f.id); t.Kind == model.Enum && w.g.FindConstant(f.id, e.Name) != nil {
			w.emit(&Ref{Kind: RefConstant, Name: e.Name, Res: graph.Resolution{Status: graph.Source, ID: f.id, QName: t.QName}, Static: true, Line: e.Line})
			return instance(typeValue(t, w.g)), true
		}
	}
	if owner, ok := w.staticImportOwner(e.Name, false); ok && owner.Res.Status != graph.Unresolved {
		return w.member(owner, e, u), true
	}
	return Value{}, false
}

func (w *walker) useValue(ref *model.TypeRef) Value {
	return instance(w.valueOf(ref))
}

func (w *walker) bindField(m *model.Member, recv Value, e *model.Expr, u Usage, implicit bool) Value {
	r := w.emit(&Ref{Kind: RefField, Name: m.Name, Res: memberRes(m), Receiver: recv, Implicit: implicit, Static: m.IsStatic(), Use: u, Line: e.Line})
	v := w.substitute(w.memberValue(m, m.Type), m, recv)
	v.Ref = r
	return v
}

// staticImportOwner finds the type a static import brings name in from.
// Single-member imports win over wildcards.
func (w *walker) staticImportOwner(name string, method bool) (Value, bool) {
	if w.unit == nil {
		return Value{}, false
	}
	for _, imp := range w.unit.Imports {
		if imp.Static && !imp.Wildcard && imp.Name() == name {
			return w.importedType(imp.Container()), true
		}
	}
	var fallback *Value
	for _, imp := range w.unit.Imports {
		if !imp.Static || !imp.Wildcard {
			continue
		}
		v := w.importedType(imp.Path)
		switch v.Res.Status {
		case graph.Source:
			if method && len(w.g.FindMethods(v.Res.ID, name, -1)) > 0 {
				return v, true
			}
			if !method && (w.g.FindField(v.Res.ID, name) != nil || w.g.FindConstant(v.Res.ID, name) != nil) {
				return v, true
			}
			if w.g.Type(v.Res.ID).Synthetic && fallback == nil {
				fallback = &v
			}
		case graph.Unresolved:
			if fallback == nil {
				fallback = &v
			}
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return Value{}, false
}

func (w *walker) importedType(qname string) Value {
	ref := model.NewRef(qname)
	v := Value{Type: ref, Scope: 0, Unit: w.unit, Static: true}
	v.Res = w.g.ResolveType(0, w.unit, qname)
	if v.Res.QName == "" {
		v.Res.QName = qname
	}
	return v
}

// receiver evaluates the qualifier of a field access or call. Dotted chains
// whose head names nothing are classified as class paths or member chains.
func (w *walker) receiver(x *model.Expr) Value {
	if x == nil {
		return w.thisValue()
	}
	segs, ok := x.Segments()
	if !ok || len(segs) == 0 {
		return w.expr(x, Usage{Deref: true})
	}
	head := segs[0]
	if _, ok := w.lookupLocal(head); ok {
		return w.expr(x, Usage{Deref: true})
	}
	if w.fieldVisible(head) || w.lookupLocalType(head) != nil {
		return w.expr(x, Usage{Deref: true})
	}
	if _, ok := w.lookupVar(head); !ok {
		if r := w.resolve(model.NewRef(head)); r.Res.Found() {
			return w.expr(x, Usage{Deref: true})
		}
	}
	// A qualified name of a known type, such as java.util.List or a source
	// type written with its package.
	for n := len(segs); n >= 2; n-- {
		q := strings.Join(segs[:n], ".")
		res := w.g.ResolveType(w.scope(), w.unit, q)
		if res.Status == graph.Unresolved {
			continue
		}
		if res.Status == graph.Source && w.g.Type(res.ID) == nil {
			continue
		}
		v := Value{Type: model.NewRef(q), Res: res, Scope: w.scope(), Unit: w.unit, Static: true}
		v.Ref = w.emit(&Ref{Kind: RefType, Name: q, Type: v.Type, Res: res, Line: x.Line})
		return w.chain(v, segs[n:], x.Line)
	}
	switch qpath.Classify(segs) {
	case qpath.ClassPath:
		return w.useTypeAt(strings.Join(segs, "."), x.Line)
	}
	if n := qpath.TypePrefix(segs); n > 0 {
		v := w.useTypeAt(strings.Join(segs[:n], "."), x.Line)
		return w.chain(v, segs[n:], x.Line)
	}
	return w.expr(x, Usage{Deref: true})
}

func (w *walker) useTypeAt(name string, line int) Value {
	v := w.useType(model.NewRef(name), Usage{})
	if v.Ref != nil {
		v.Ref.Line = line
	}
	v.Static = true
	return v
}

// chain applies field accesses for the remaining segments of a qualifier.
func (w *walker) chain(v Value, rest []string, line int) Value {
	for _, s := range rest {
		v = w.member(v, &model.Expr{Kind: model.ExprField, Name: s, Line: line}, Usage{Deref: true})
	}
	return v
}

func (w *walker) fieldVisible(name string) bool {
	for i := len(w.frames) - 1; i >= 0; i-- {
		f := w.frames[i]
		if f.local != nil {
			if f.local.Member(model.Field, name) != nil {
				return true
			}
			continue
		}
		if w.g.FindField(f.id, name) != nil {
			return true
		}
	}
	if owner, ok := w.staticImportOwner(name, false); ok && owner.Res.Status != graph.Unresolved {
		return true
	}
	return false
}

func (w *walker) field(e *model.Expr, u Usage) Value {
	if e.X != nil && e.X.Kind == model.ExprSuper {
		return w.member(w.superValue(), e, u)
	}
	recv := w.receiver(e.X)
	return w.member(recv, e, u)
}

// member binds a field access (or nested type, or enum constant) on recv.
func (w *walker) member(recv Value, e *model.Expr, u Usage) Value {
	if recv.Known() && recv.Type.Dims > 0 {
		if e.Name == "length" {
			return primitiveValue("int")
		}
		return Value{}
	}
	if recv.Local != nil {
		if m := recv.Local.Member(model.Field, e.Name); m != nil {
			return w.useValue(m.Type)
		}
		if n := recv.Local.NestedType(e.Name); n != nil {
			return Value{Type: model.NewRef(e.Name), Local: n, Static: true}
		}
		return Value{}
	}
	switch recv.Res.Status {
	case graph.Source:
		t := w.g.Type(recv.Res.ID)
		if t == nil {
			return Value{}
		}
		if f := w.g.FindField(t.ID, e.Name); f != nil {
			return w.bindField(f, recv, e, u, false)
		}
		if recv.Static {
			if n := t.NestedType(e.Name); n != nil {
				v := typeValue(n, w.g)
				v.Ref = w.emit(&Ref{Kind: RefType, Name: n.QName, Type: v.Type, Res: v.Res, Line: e.Line})
				return v
			}
			if w.g.FindConstant(t.ID, e.Name) != nil {
				w.emit(&Ref{Kind: RefConstant, Name: e.Name, Res: recv.Res, Receiver: recv, Static: true, Line: e.Line})
				return instance(recv)
			}
		}
		if !t.Synthetic && !w.g.UnresolvedAncestor(t.ID) {
			return Value{}
		}
	case graph.Library:
		return Value{}
	case graph.Unresolved:
		if !recv.Known() && recv.Ref == nil {
			return Value{}
		}
		if !recv.Known() {
			// The receiver is itself an unresolved member; its type is
			// fabricated first and the access is bound on a later pass.
			recv.Ref.Use.Deref = true
			return Value{}
		}
	}
	if recv.Static && model.IsCapitalized(e.Name) && strings.ToUpper(e.Name) != e.Name && u.Deref {
		// Outer.Inner used as a qualifier is a nested type.
		v := w.useType(model.NewRef(recv.Res.QName+"."+e.Name), Usage{})
		v.Static = true
		return v
	}
	r := w.emit(&Ref{Kind: RefField, Name: e.Name, Receiver: instance(recv), Static: recv.Static, Use: u, Line: e.Line})
	return Value{Ref: r}
}

func (w *walker) call(e *model.Expr, u Usage) Value {
	var recv Value
	implicit := e.X == nil
	switch {
	case implicit:
		recv = w.thisValue()
	case e.X.Kind == model.ExprSuper:
		recv = w.superValue()
	default:
		recv = w.receiver(e.X)
	}
	args := w.args(e.Args)
	if implicit {
		return w.implicitCall(e, u, args)
	}
	return w.methodOn(recv, e, u, args)
}

func (w *walker) implicitCall(e *model.Expr, u Usage, args []Value) Value {
	for i := len(w.frames) - 1; i >= 0; i-- {
		f := w.frames[i]
		var recv Value
		if f.local != nil {
			if ms := localMethods(f.local, e.Name, len(args)); len(ms) > 0 {
				w.fixArgs(args, nil)
				return w.useValue(ms[0].Return)
			}
			if f.local.Super == nil {
				continue
			}
			top := w.frames[i:]
			w.frames = w.frames[:i]
			recv = instance(w.valueOf(f.local.Super))
			w.frames = append(w.frames, top...)
			if recv.Res.Status == graph.Library && !IsObjectMethod(e.Name, len(args)) {
				return w.fixArgs(args, nil)
			}
		} else {
			recv = instance(typeValue(w.g.Type(f.id), w.g))
		}
		if recv.Res.Status != graph.Source {
			continue
		}
		if ms := w.g.FindMethods(recv.Res.ID, e.Name, len(args)); len(ms) > 0 {
			return w.bindMethod(ms, recv, e, u, args, true)
		}
	}
	if owner, ok := w.staticImportOwner(e.Name, true); ok {
		owner.Static = true
		return w.methodOn(owner, e, u, args)
	}
	if IsObjectMethod(e.Name, len(args)) {
		return w.fixArgs(args, nil)
	}
	// Inherited from a library supertype of some enclosing class.
	for i := len(w.frames) - 1; i >= 0; i-- {
		f := w.frames[i]
		if f.local == nil && !w.g.UnresolvedAncestor(f.id) && w.libraryAncestor(f.id) {
			return w.fixArgs(args, nil)
		}
	}
	r := w.emit(&Ref{Kind: RefMethod, Name: e.Name, Receiver: w.thisValue(), Implicit: true, Args: args, Use: u, Line: e.Line})
	w.fixArgs(args, r)
	return Value{Ref: r}
}

func (w *walker) libraryAncestor(id model.DeclID) bool {
	for _, s := range w.g.Ancestors(id) {
		if s.Status == graph.Library && s.QName != lang.ObjectType {
			return true
		}
	}
	return false
}

func localMethods(t *model.TypeDecl, name string, arity int) []*model.Member {
	var out []*model.Member
	for _, m := range t.Members {
		if m.Kind == model.Method && m.Name == name && m.Accepts(arity) {
			out = append(out, m)
		}
	}
	return out
}

// methodOn binds a call on an explicit receiver.
func (w *walker) methodOn(recv Value, e *model.Expr, u Usage, args []Value) Value {
	if recv.Local != nil {
		if ms := localMethods(recv.Local, e.Name, len(args)); len(ms) > 0 {
			return w.useValue(ms[0].Return)
		}
		return w.fixArgs(args, nil)
	}
	if recv.TypeVar && recv.Res.Status == graph.Library {
		return w.fixArgs(args, nil)
	}
	if recv.Known() && recv.Type.Dims > 0 {
		return w.fixArgs(args, nil)
	}
	switch recv.Res.Status {
	case graph.Source:
		t := w.g.Type(recv.Res.ID)
		if t == nil {
			return w.fixArgs(args, nil)
		}
		if ms := w.g.FindMethods(t.ID, e.Name, len(args)); len(ms) > 0 {
			return w.bindMethod(ms, recv, e, u, args, false)
		}
		if IsObjectMethod(e.Name, len(args)) {
			return w.fixArgs(args, nil)
		}
		if !t.Synthetic && !w.g.UnresolvedAncestor(t.ID) {
			if t.Kind == model.Enum && (e.Name == "values" || e.Name == "valueOf" || e.Name == "ordinal" || e.Name == "name") {
				return w.fixArgs(args, nil)
			}
			if t.Kind == model.Record && len(args) == 0 {
				for _, c := range t.Components {
					if c.Name == e.Name {
						return w.memberValue(&model.Member{Owner: t.ID}, c.Type)
					}
				}
			}
			return w.fixArgs(args, nil)
		}
	case graph.Library:
		return w.fixArgs(args, nil)
	case graph.Unresolved:
		if !recv.Known() {
			if recv.Ref != nil && recv.Ref.Unresolved() {
				recv.Ref.Use.Deref = true
			}
			return w.fixArgs(args, nil)
		}
		if IsObjectMethod(e.Name, len(args)) {
			return w.fixArgs(args, nil)
		}
	}
	r := w.emit(&Ref{Kind: RefMethod, Name: e.Name, Receiver: instance(recv), Static: recv.Static, Args: args, Use: u, Line: e.Line})
	w.fixArgs(args, r)
	return Value{Ref: r}
}

func (w *walker) bindMethod(ms []*model.Member, recv Value, e *model.Expr, u Usage, args []Value, implicit bool) Value {
	best := pickOverload(ms, args, w)
	alts := make([]model.DeclID, 0, len(ms)-1)
	for _, m := range ms {
		if m != best {
			alts = append(alts, m.ID)
		}
	}
	r := w.emit(&Ref{
		Kind: RefMethod, Name: e.Name, Res: memberRes(best), Alts: alts, Receiver: recv,
		Implicit: implicit, Static: best.IsStatic(), Args: args, Use: u, Line: e.Line,
	})
	w.fixArgsFor(args, best)
	v := w.substitute(w.memberValue(best, best.Return), best, recv)
	if best.Return.IsVoid() {
		v = Value{}
	}
	v.Ref = r
	return v
}

// pickOverload prefers the candidate whose declared parameter types match the
// most argument types.
func pickOverload(ms []*model.Member, args []Value, w *walker) *model.Member {
	best, bestScore := ms[0], -1
	for _, m := range ms {
		score := 0
		for i, a := range args {
			if i >= len(m.Params) || !a.Known() || m.Params[i].Type == nil {
				continue
			}
			pt := m.Params[i].Type
			if pt.Simple() == model.SimpleName(a.Type.Name) && pt.Dims == a.Type.Dims {
				score += 2
			} else if p, ok := primitiveOf(a); ok && pt.Primitive {
				if _, widened := lang.WidenPrimitive(p, pt.Name); widened {
					score++
				}
			}
		}
		if score > bestScore {
			best, bestScore = m, score
		}
	}
	return best
}

// fixArgs updates the usage of unresolved members passed as arguments once
// the callee is known to be unresolved (r non-nil) or a library method.
func (w *walker) fixArgs(args []Value, r *Ref) Value {
	if r == nil {
		return Value{}
	}
	for _, a := range args {
		if a.Ref != nil && a.Ref.Unresolved() && a.Ref.Kind != RefType && a.Ref.Use.Expected == nil {
			a.Ref.Use.Deref = true
		}
	}
	return Value{}
}

// fixArgsFor gives unresolved members passed to a bound method the declared
// parameter type as their expected type.
func (w *walker) fixArgsFor(args []Value, m *model.Member) {
	vars := w.g.TypeVarsInScope(m)
	for i, a := range args {
		if a.Ref == nil || !a.Ref.Unresolved() || a.Ref.Kind == RefType || a.Ref.Use.Expected != nil {
			continue
		}
		var pt *model.TypeRef
		switch {
		case i < len(m.Params):
			pt = m.Params[i].Type
		case m.IsVarargs():
			pt = m.Params[len(m.Params)-1].Type
		}
		if pt == nil || graph.IsTypeVarName(pt.Name, vars) {
			continue
		}
		pv := instance(w.memberValue(m, pt))
		a.Ref.Use.Expected = &pv
	}
}

// substitute replaces a class type variable in a member's type with the
// receiver's corresponding type argument.
func (w *walker) substitute(v Value, m *model.Member, recv Value) Value {
	if !v.TypeVar || v.Type == nil || !recv.Known() {
		return instance(v)
	}
	owner := w.g.Type(m.Owner)
	if owner == nil {
		return instance(v)
	}
	for i, tp := range owner.TypeParams {
		if tp.Name == v.Type.Name && i < len(recv.Type.Args) && !recv.Type.Args[i].Wildcard {
			arg := recv.Type.Args[i]
			if arg.Primitive {
				return primitiveValue(arg.Name)
			}
			res := w.g.ResolveType(recv.Scope, recv.Unit, arg.Name)
			return Value{Type: arg, Res: res, Scope: recv.Scope, Unit: recv.Unit}
		}
	}
	return instance(v)
}

func (w *walker) newExpr(e *model.Expr, u Usage) Value {
	var outer Value
	if e.X != nil {
		outer = w.expr(e.X, Usage{Deref: true})
	}
	typeUse := Usage{Thrown: u.Thrown, Caught: u.Caught}
	var v Value
	if outer.Res.Status == graph.Source && e.Type != nil {
		if n := w.g.Type(outer.Res.ID).NestedType(e.Type.Name); n != nil {
			v = typeValue(n, w.g)
			v.Static = false
		}
	}
	if v.Type == nil {
		v = w.useType(e.Type, typeUse)
	}
	args := w.args(e.Args)
	result := instance(v)
	if e.Class != nil {
		w.localClass(e.Class)
	}
	switch {
	case v.Local != nil:
		return result
	case v.Res.Status == graph.Source:
		t := w.g.Type(v.Res.ID)
		if t == nil {
			return result
		}
		cs := w.g.FindConstructors(t.ID, len(args))
		if len(cs) > 0 {
			best := pickOverload(cs, args, w)
			r := w.emit(&Ref{Kind: RefNew, Name: t.Name, Res: memberRes(best), Alts: altIDs(cs, best), Receiver: result, Args: args, Use: u, Line: e.Line})
			w.fixArgsFor(args, best)
			result.Ref = r
			return result
		}
		if t.IsInterface() && e.Class != nil {
			return result
		}
		if !w.g.HasConstructors(t.ID) && len(args) == 0 {
			w.emit(&Ref{Kind: RefNew, Name: t.Name, Res: graph.Resolution{Status: graph.Source, ID: 0, QName: t.QName}, Receiver: result, Use: u, Line: e.Line})
			return result
		}
		if !t.Synthetic {
			return result
		}
	case v.Res.Status == graph.Library:
		return result
	}
	if e.Type == nil {
		return result
	}
	r := w.emit(&Ref{Kind: RefNew, Name: e.Type.Name, Receiver: result, Args: args, Use: u, Line: e.Line})
	w.fixArgs(args, r)
	result.Ref = r
	return result
}

func altIDs(ms []*model.Member, best *model.Member) []model.DeclID {
	var out []model.DeclID
	for _, m := range ms {
		if m != best {
			out = append(out, m.ID)
		}
	}
	return out
}

// superCall binds super(...) or the implicit super() of a constructor.
func (w *walker) superCall(owner *model.TypeDecl, args []Value, implicit bool) {
	var sup *graph.SuperRef
	for _, s := range w.g.Supertypes(owner.ID) {
		if !s.Interface {
			s := s
			sup = &s
			break
		}
	}
	if sup == nil || sup.Status == graph.Library {
		return
	}
	recv := Value{Type: sup.Ref, Res: sup.Resolution, Scope: owner.Parent, Unit: w.g.Unit(owner.ID)}
	r := &Ref{Kind: RefCtorCall, Name: sup.Ref.Name, Super: true, Receiver: recv, Args: args, Implicit: implicit, Line: owner.Line}
	if sup.Status == graph.Source {
		st := w.g.Type(sup.ID)
		cs := w.g.FindConstructors(sup.ID, len(args))
		switch {
		case len(cs) > 0:
			best := pickOverload(cs, args, w)
			r.Res = memberRes(best)
			r.Alts = altIDs(cs, best)
			w.fixArgsFor(args, best)
		case !w.g.HasConstructors(sup.ID) && len(args) == 0:
			r.Res = graph.Resolution{Status: graph.Source, QName: st.QName}
		case !st.Synthetic:
			return
		}
	}
	w.emit(r)
	if r.Unresolved() {
		w.fixArgs(args, r)
	}
}

// thisCall binds this(...).
func (w *walker) thisCall(owner *model.TypeDecl, args []Value) {
	cs := w.g.FindConstructors(owner.ID, len(args))
	if len(cs) == 0 {
		return
	}
	best := pickOverload(cs, args, w)
	w.emit(&Ref{Kind: RefCtorCall, Name: owner.Name, Res: memberRes(best), Alts: altIDs(cs, best), Receiver: instance(typeValue(owner, w.g)), Args: args})
	w.fixArgsFor(args, best)
}
