package bind

import (
	"strings"

	"github.com/phobologic/jslice/internal/graph"
	"github.com/phobologic/jslice/internal/lang"
	"github.com/phobologic/jslice/internal/model"
)

// Binder resolves names against one graph. It holds no state between calls,
// so the graph may grow between calls.
type Binder struct {
	g *graph.Graph
}

// New returns a binder over g.
func New(g *graph.Graph) *Binder {
	return &Binder{g: g}
}

// frame is one enclosing class: an arena type or a local/anonymous class.
type frame struct {
	id    model.DeclID
	local *model.TypeDecl
}

type typeVar struct {
	bound *model.TypeRef
}

// walker carries the lexical state of one binding pass.
type walker struct {
	g      *graph.Graph
	unit   *model.CompilationUnit
	from   model.DeclID
	frames []frame
	locals []map[string]Value
	types  []map[string]*model.TypeDecl
	vars   []map[string]typeVar
	// caught holds the simple names caught by each enclosing try, innermost last.
	caught  [][]string
	throws  []string
	returns []*Value // expected return value per method or lambda; nil entries are unknown
	refs    []*Ref
}

func (b *Binder) walker(from model.DeclID) *walker {
	w := &walker{g: b.g, from: from, unit: b.g.Unit(from)}
	for _, t := range reverse(b.g.EnclosingChain(from)) {
		w.frames = append(w.frames, frame{id: t.ID})
		w.pushVars(t.TypeParams)
	}
	return w
}

func reverse(ts []*model.TypeDecl) []*model.TypeDecl {
	out := make([]*model.TypeDecl, len(ts))
	for i, t := range ts {
		out[len(ts)-1-i] = t
	}
	return out
}

// Header binds a type's annotations, type parameter bounds, supertypes, and
// record components, plus the implicit super() of a class without
// constructors.
func (b *Binder) Header(id model.DeclID) []*Ref {
	t := b.g.Type(id)
	if t == nil {
		return nil
	}
	w := b.walker(id)
	// Supertypes and annotations are resolved outside the type's own scope.
	w.frames = w.frames[:len(w.frames)-1]
	for _, a := range t.Annotations {
		w.annotation(a)
	}
	w.frames = append(w.frames, frame{id: id})
	for _, tp := range t.TypeParams {
		for _, bound := range tp.Bounds {
			w.useType(bound, Usage{})
		}
	}
	w.frames = w.frames[:len(w.frames)-1]
	if t.Super != nil {
		w.useType(t.Super, Usage{Extends: true})
	}
	for _, r := range t.Interfaces {
		w.useType(r, Usage{Implements: true})
	}
	w.frames = append(w.frames, frame{id: id})
	for _, c := range t.Components {
		w.param(c)
	}
	if t.Kind == model.Class && !b.g.HasConstructors(id) && t.Name != "" {
		w.superCall(t, nil, true)
	}
	return w.refs
}

// Signature binds a member's declaration without its body or initializer.
func (b *Binder) Signature(id model.DeclID) []*Ref {
	m := b.g.Member(id)
	if m == nil {
		return nil
	}
	w := b.walker(id)
	for _, a := range m.Annotations {
		w.annotation(a)
	}
	if m.Kind == model.Field {
		w.useType(m.Type, Usage{})
		return w.refs
	}
	w.pushVars(m.TypeParams)
	for _, tp := range m.TypeParams {
		for _, bound := range tp.Bounds {
			w.useType(bound, Usage{})
		}
	}
	for _, p := range m.Params {
		w.param(p)
	}
	if m.Return != nil {
		w.useType(m.Return, Usage{})
	}
	for _, t := range m.Throws {
		w.useType(t, Usage{Declared: true, Caught: true})
	}
	if m.HasOverride() {
		w.overrideRequirement(m)
	}
	return w.refs
}

// Body binds a method or constructor body, or a field initializer.
func (b *Binder) Body(id model.DeclID) []*Ref {
	m := b.g.Member(id)
	if m == nil {
		return nil
	}
	w := b.walker(id)
	w.pushScope()
	if m.Kind == model.Field {
		if m.Init != nil && m.Init.Expr != nil {
			fv := w.valueOf(m.Type)
			w.expr(m.Init.Expr, Usage{Expected: &fv})
		}
		return w.refs
	}
	w.pushVars(m.TypeParams)
	for _, p := range m.Params {
		w.declare(p.Name, w.paramValue(p))
	}
	for _, t := range m.Throws {
		w.throws = append(w.throws, t.Simple())
	}
	if m.Kind == model.Method && m.Return != nil && !m.Return.IsVoid() {
		rv := w.valueOf(m.Return)
		w.returns = append(w.returns, &rv)
	} else {
		w.returns = append(w.returns, nil)
	}
	if m.Body == nil {
		return w.refs
	}
	stmts := m.Body.Stmts
	if m.Kind == model.Constructor {
		owner := b.g.Type(m.Owner)
		if len(stmts) == 0 || stmts[0].Kind != model.StmtCtorCall {
			if owner.Kind == model.Class {
				w.superCall(owner, nil, true)
			}
		}
	}
	w.stmts(stmts)
	return w.refs
}

// LeadingCall binds only the explicit this(...) or super(...) call that opens
// a constructor body. Constructors whose bodies are emptied keep that call.
func (b *Binder) LeadingCall(id model.DeclID) []*Ref {
	m := b.g.Member(id)
	if m == nil || m.Kind != model.Constructor || LeadingCtorCall(m) == nil {
		return nil
	}
	w := b.walker(id)
	w.pushScope()
	for _, p := range m.Params {
		w.declare(p.Name, w.paramValue(p))
	}
	w.stmt(m.Body.Stmts[0])
	return w.refs
}

// LeadingCtorCall returns the explicit constructor call opening m's body, or nil.
func LeadingCtorCall(m *model.Member) *model.Stmt {
	if m.Body == nil || len(m.Body.Stmts) == 0 || m.Body.Stmts[0].Kind != model.StmtCtorCall {
		return nil
	}
	return m.Body.Stmts[0]
}

func (w *walker) emit(r *Ref) *Ref {
	r.From = w.from
	r.Scope = w.scope()
	r.Unit = w.unit
	w.refs = append(w.refs, r)
	return r
}

// scope returns the innermost arena type.
func (w *walker) scope() model.DeclID {
	for i := len(w.frames) - 1; i >= 0; i-- {
		if w.frames[i].local == nil {
			return w.frames[i].id
		}
	}
	return 0
}

func (w *walker) pushScope() {
	w.locals = append(w.locals, map[string]Value{})
	w.types = append(w.types, map[string]*model.TypeDecl{})
}

func (w *walker) popScope() {
	w.locals = w.locals[:len(w.locals)-1]
	w.types = w.types[:len(w.types)-1]
}

func (w *walker) declare(name string, v Value) {
	if name == "" || len(w.locals) == 0 {
		return
	}
	v.Ref = nil
	w.locals[len(w.locals)-1][name] = v
}

func (w *walker) lookupLocal(name string) (Value, bool) {
	for i := len(w.locals) - 1; i >= 0; i-- {
		if v, ok := w.locals[i][name]; ok {
			return v, true
		}
	}
	return Value{}, false
}

func (w *walker) lookupLocalType(name string) *model.TypeDecl {
	for i := len(w.types) - 1; i >= 0; i-- {
		if t, ok := w.types[i][name]; ok {
			return t
		}
	}
	for i := len(w.frames) - 1; i >= 0; i-- {
		if l := w.frames[i].local; l != nil {
			if n := l.NestedType(name); n != nil {
				return n
			}
		}
	}
	return nil
}

func (w *walker) pushVars(params []*model.TypeParam) {
	m := make(map[string]typeVar, len(params))
	for _, p := range params {
		var bound *model.TypeRef
		if len(p.Bounds) > 0 {
			bound = p.Bounds[0]
		}
		m[p.Name] = typeVar{bound: bound}
	}
	w.vars = append(w.vars, m)
}

// lookupVar finds a type variable; method-level names shadow class-level ones.
func (w *walker) lookupVar(name string) (typeVar, bool) {
	for i := len(w.vars) - 1; i >= 0; i-- {
		if v, ok := w.vars[i][name]; ok {
			return v, true
		}
	}
	return typeVar{}, false
}

func (w *walker) isCaught(simple string) bool {
	for _, t := range w.throws {
		if t == simple {
			return true
		}
	}
	for _, c := range w.caught {
		for _, t := range c {
			if t == simple || t == "Exception" || t == "Throwable" {
				return true
			}
		}
	}
	return false
}

func (w *walker) param(p *model.Param) {
	for _, a := range p.Annotations {
		w.annotation(a)
	}
	if p.Type != nil {
		w.useType(p.Type, Usage{})
	}
}

func (w *walker) paramValue(p *model.Param) Value {
	if p.Type == nil {
		return Value{}
	}
	if p.Varargs {
		return w.valueOf(model.ArrayOf(p.Type, 1))
	}
	return w.valueOf(p.Type)
}

// annotation binds the type of an annotation written as source text.
func (w *walker) annotation(text string) {
	name := strings.TrimPrefix(text, "@")
	if i := strings.IndexAny(name, "( "); i >= 0 {
		name = name[:i]
	}
	if name == "" || name == "interface" {
		return
	}
	v := w.useType(model.NewRef(name), Usage{Annotation: true})
	if v.Ref != nil {
		v.Ref.Annotation = text
	}
}

var objectMethods = map[string]int{
	"equals": 1, "hashCode": 0, "toString": 0, "clone": 0, "finalize": 0, "getClass": 0,
	"notify": 0, "notifyAll": 0, "wait": -1,
}

// IsObjectMethod reports whether name/arity is a method every class inherits.
func IsObjectMethod(name string, arity int) bool {
	a, ok := objectMethods[name]
	return ok && (a < 0 || a == arity)
}

// overrideRequirement reports an @Override method whose overridden method
// exists nowhere the binder can see.
func (w *walker) overrideRequirement(m *model.Member) {
	if len(w.g.Overridden(m.ID)) > 0 || IsObjectMethod(m.Name, len(m.Params)) {
		return
	}
	owner := w.g.Type(m.Owner)
	for _, s := range w.g.Ancestors(owner.ID) {
		if s.Status != graph.Library {
			continue
		}
		if shapes, ok := lang.AbstractMethods(s.QName); ok {
			for _, sh := range shapes {
				if sh.Name == m.Name && sh.Arity == len(m.Params) {
					return
				}
			}
		}
	}
	if !w.g.UnresolvedAncestor(owner.ID) {
		return
	}
	args := make([]Value, len(m.Params))
	for i, p := range m.Params {
		args[i] = w.paramValue(p)
	}
	w.emit(&Ref{
		Kind:     RefMethod,
		Name:     m.Name,
		Receiver: w.thisValue(),
		Implicit: true,
		Static:   m.IsStatic(),
		Args:     args,
		Member:   m,
		Use:      Usage{Override: true},
		Line:     m.Line,
	})
}
