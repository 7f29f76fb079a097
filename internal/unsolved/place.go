package unsolved

import (
	"fmt"
	"strings"

	"github.com/phobologic/jslice/internal/bind"
	"github.com/phobologic/jslice/internal/graph"
	"github.com/phobologic/jslice/internal/lang"
	"github.com/phobologic/jslice/internal/model"
)

const (
	objectType    = lang.ObjectType
	checkedRoot   = lang.CheckedRoot
	uncheckedRoot = lang.UncheckedRoot
)

// place decides the qualified name of an unresolved type written as name.
// An explicit import or package qualification wins. A simple name goes to
// the first non-platform wildcard import, else to the referencing package.
func (r *Resolver) place(name string, res graph.Resolution, scope model.DeclID, cu *model.CompilationUnit) string {
	if cu == nil {
		cu = r.g.Unit(scope)
	}
	if res.QName != "" {
		name = res.QName
	}
	head, rest, qualified := strings.Cut(name, ".")
	if qualified && !model.IsCapitalized(head) {
		return name
	}
	placed := r.placeSimple(head, cu)
	if qualified {
		return placed + "." + rest
	}
	return placed
}

func (r *Resolver) placeSimple(name string, cu *model.CompilationUnit) string {
	if cu == nil {
		return name
	}
	for _, imp := range cu.Imports {
		if !imp.Wildcard && !imp.Static && imp.Name() == name {
			return imp.Path
		}
	}
	for _, imp := range cu.Imports {
		if imp.Wildcard && !imp.Static && !lang.IsPlatformPackage(imp.Path) {
			return imp.Path + "." + name
		}
	}
	return model.Qualify(cu.Package, name)
}

// ensureType returns the type named qname, creating synthetic types for it
// and any missing enclosing types. It returns nil when the name would have to
// be placed in the platform library or inside a non-synthetic type.
func (r *Resolver) ensureType(qname string, arity int) *model.TypeDecl {
	if t := r.g.Lookup(qname); t != nil {
		return t
	}
	segs := strings.Split(qname, ".")
	for i := len(segs) - 1; i > 0; i-- {
		if p := r.g.Lookup(strings.Join(segs[:i], ".")); p != nil {
			if !p.Synthetic {
				return nil
			}
			return r.nestedChain(p, segs[i:], arity)
		}
	}
	k := len(segs) - 1
	for i, s := range segs[:len(segs)-1] {
		if model.IsCapitalized(s) {
			k = i
			break
		}
	}
	pkg := strings.Join(segs[:k], ".")
	if lang.IsPlatformPackage(pkg) {
		return nil
	}
	topArity := 0
	if k == len(segs)-1 {
		topArity = arity
	}
	top := newType(segs[k], topArity)
	if err := r.g.AddType(0, pkg, top); err != nil {
		r.log.Debug("synthetic type collision", "qname", top.QName, "error", err)
		return r.g.Lookup(qname)
	}
	r.changed("type", top.QName)
	if k == len(segs)-1 {
		return top
	}
	return r.nestedChain(top, segs[k+1:], arity)
}

func (r *Resolver) nestedChain(parent *model.TypeDecl, names []string, arity int) *model.TypeDecl {
	t := parent
	for i, n := range names {
		if existing := t.NestedType(n); existing != nil {
			t = existing
			continue
		}
		a := 0
		if i == len(names)-1 {
			a = arity
		}
		nt := newType(n, a)
		nt.Modifiers = []string{"public", "static"}
		if err := r.g.AddType(t.ID, t.Package, nt); err != nil {
			return nil
		}
		r.changed("type", nt.QName)
		t = nt
	}
	return t
}

func newType(name string, arity int) *model.TypeDecl {
	t := &model.TypeDecl{
		Name:      name,
		Kind:      model.Class,
		Modifiers: []string{"public"},
	}
	for i := 0; i < arity; i++ {
		t.TypeParams = append(t.TypeParams, &model.TypeParam{Name: fmt.Sprintf("T%d", i)})
	}
	return t
}

func (r *Resolver) changed(what, name string) {
	r.changes++
	r.log.Debug("synthetic declaration", "kind", what, "name", name)
}

// typeOf renders a value's type with qualified names, creating unresolved
// types on the way. nil means the type is unknown.
func (r *Resolver) typeOf(v bind.Value, pkg string) *model.TypeRef {
	if v.Lambda != nil {
		return r.functionalParam(*v.Lambda, pkg)
	}
	if !v.Known() || v.Null || v.Local != nil {
		return nil
	}
	if v.Type.Primitive {
		return v.Type.Erasure()
	}
	if v.TypeVar {
		if v.Res.QName == "" {
			return model.ArrayOf(model.NewRef(objectType), v.Type.Dims)
		}
		return model.ArrayOf(model.NewRef(v.Res.QName), v.Type.Dims)
	}
	qname := v.Res.QName
	switch v.Res.Status {
	case graph.Unresolved:
		t := r.declared(v.Type, v.Res, v.Scope, v.Unit)
		if t == nil {
			return nil
		}
		qname = t.QName
	case graph.Source:
		if t := r.g.Type(v.Res.ID); t != nil {
			qname = t.QName
		}
	}
	return &model.TypeRef{Name: qname, Dims: v.Type.Dims, Args: r.qualifyArgs(v.Type.Args, v.Scope, v.Unit)}
}

// qualifyArgs qualifies written type arguments. It returns nil, making the
// type raw, when any argument cannot be named outside its scope.
func (r *Resolver) qualifyArgs(args []*model.TypeRef, scope model.DeclID, cu *model.CompilationUnit) []*model.TypeRef {
	if len(args) == 0 {
		return nil
	}
	out := make([]*model.TypeRef, len(args))
	for i, a := range args {
		q := r.qualify(a, scope, cu)
		if q == nil {
			return nil
		}
		out[i] = q
	}
	return out
}

// qualify rewrites a written type reference with qualified names, or returns
// nil if some name in it is unknown, such as a type variable.
func (r *Resolver) qualify(a *model.TypeRef, scope model.DeclID, cu *model.CompilationUnit) *model.TypeRef {
	if a == nil {
		return nil
	}
	if a.Wildcard {
		w := &model.TypeRef{Wildcard: true, BoundKind: a.BoundKind}
		if a.Bound != nil {
			if w.Bound = r.qualify(a.Bound, scope, cu); w.Bound == nil {
				return nil
			}
		}
		return w
	}
	if a.Primitive {
		return a.Clone()
	}
	res := r.g.ResolveType(scope, cu, a.Name)
	var qname string
	switch res.Status {
	case graph.Source, graph.Library:
		qname = res.QName
	default:
		t := r.g.Lookup(r.place(a.Name, res, scope, cu))
		if t == nil {
			return nil
		}
		qname = t.QName
	}
	q := &model.TypeRef{Name: qname, Dims: a.Dims}
	if len(a.Args) > 0 {
		if q.Args = r.qualifyArgs(a.Args, scope, cu); q.Args == nil {
			return nil
		}
	}
	return q
}

func (r *Resolver) params(args []bind.Value, owner *model.TypeDecl) []*model.Param {
	ps := make([]*model.Param, len(args))
	for i, a := range args {
		t := r.typeOf(a, owner.Package)
		if t == nil {
			t = model.NewRef(objectType)
		}
		ps[i] = &model.Param{Name: fmt.Sprintf("p%d", i), Type: t}
	}
	return ps
}

// returnType picks the least specific return type the call site allows.
func (r *Resolver) returnType(ref *bind.Ref, owner *model.TypeDecl) *model.TypeRef {
	u := ref.Use
	switch {
	case u.Condition:
		return model.NewRef("boolean")
	case u.Expected != nil:
		if t := r.typeOf(*u.Expected, owner.Package); t != nil {
			return t
		}
		return model.NewRef(objectType)
	case u.Iterated && !u.Deref:
		return iterableOf(r.elementType(u.Element))
	case u.Deref, u.Thrown, u.Resource, u.Iterated:
		return r.valueClass(model.Capitalize(ref.Name)+"ReturnType", owner, ref)
	case u.Discarded:
		return model.NewRef("void")
	}
	return model.NewRef(objectType)
}

func (r *Resolver) fieldType(ref *bind.Ref, owner *model.TypeDecl) *model.TypeRef {
	u := ref.Use
	switch {
	case u.Condition:
		return model.NewRef("boolean")
	case u.Expected != nil:
		if t := r.typeOf(*u.Expected, owner.Package); t != nil {
			return t
		}
	case u.Iterated && !u.Deref:
		return iterableOf(r.elementType(u.Element))
	case u.Deref, u.Thrown, u.Resource, u.Iterated:
		return r.valueClass("SyntheticTypeFor"+model.Capitalize(ref.Name), owner, ref)
	}
	return model.NewRef(objectType)
}

// valueClass creates the synthetic class a dereferenced member produces.
func (r *Resolver) valueClass(name string, owner *model.TypeDecl, ref *bind.Ref) *model.TypeRef {
	t := r.ensureType(model.Qualify(owner.Package, name), 0)
	if t == nil {
		return model.NewRef(objectType)
	}
	u := ref.Use
	switch {
	case u.Thrown && !u.Caught:
		r.exception(t, uncheckedRoot)
	case u.Thrown:
		r.exception(t, checkedRoot)
	}
	if u.Resource {
		r.closeable(t)
	}
	if u.Iterated {
		r.iterable(t, r.elementType(u.Element))
	}
	return model.NewRef(t.QName)
}

func (r *Resolver) elementType(el *bind.Value) *model.TypeRef {
	if el == nil {
		return model.NewRef(objectType)
	}
	t := r.typeOf(*el, "")
	if t == nil {
		return model.NewRef(objectType)
	}
	if t.IsPrimitive() {
		if boxed, ok := lang.Box(t.Name); ok {
			return model.NewRef(boxed)
		}
	}
	return t
}

func iterableOf(el *model.TypeRef) *model.TypeRef {
	return model.NewRef("java.lang.Iterable", el)
}

// functionalParam is the parameter type for a lambda or method reference
// passed to a synthetic method.
func (r *Resolver) functionalParam(shape bind.LambdaShape, pkg string) *model.TypeRef {
	arity := shape.Arity
	if arity < 0 {
		arity = 1
	}
	if f, ok := lang.PlatformFunctional(arity, shape.Returns); ok {
		return model.NewRef(f.QName)
	}
	name := fmt.Sprintf("SyntheticConsumer%d", arity)
	if shape.Returns {
		name = fmt.Sprintf("SyntheticFunction%d", arity)
	}
	t := r.ensureType(model.Qualify(pkg, name), 0)
	if t == nil {
		return model.NewRef(objectType)
	}
	r.makeFunctional(t, bind.LambdaShape{Arity: arity, Returns: shape.Returns})
	return model.NewRef(t.QName)
}
