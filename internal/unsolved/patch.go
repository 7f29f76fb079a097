package unsolved

import (
	"fmt"
	"strings"

	"github.com/phobologic/jslice/internal/bind"
	"github.com/phobologic/jslice/internal/graph"
	"github.com/phobologic/jslice/internal/lang"
	"github.com/phobologic/jslice/internal/model"
)

// UnconstrainedType is the type variable given to a synthetic method whose
// result is demanded as unrelated types.
const UnconstrainedType = "SyntheticUnconstrainedType"

// IsGeneratedName reports whether a type name was invented for a value whose
// real type is unknown, as opposed to a name written in the sources.
func IsGeneratedName(name string) bool {
	name = model.SimpleName(name)
	for _, p := range []string{"SyntheticTypeFor", "SyntheticFunction", "SyntheticConsumer"} {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return name == UnconstrainedType || strings.HasSuffix(name, "ReturnType") || strings.HasSuffix(name, "SyntheticType")
}

// Extender is the slicer half of the joint fixpoint.
type Extender interface {
	Refs() []*bind.Ref
	Extend()
}

// Fixpoint alternates Resolve and Extend until the resolver has nothing left
// to add or limit rounds have run. It returns the total number of changes.
func (r *Resolver) Fixpoint(s Extender, limit int) int {
	total := 0
	for i := 0; i < limit; i++ {
		n := r.Resolve(s.Refs())
		if n == 0 {
			break
		}
		total += n
		s.Extend()
	}
	return total
}

func (r *Resolver) track(fn func()) bool {
	before := r.changes
	fn()
	return r.changes > before
}

// Rethrow makes a synthetic checked exception unchecked.
func (r *Resolver) Rethrow(t *model.TypeDecl) bool {
	if !t.Synthetic || t.Kind != model.Class {
		return false
	}
	if t.Super != nil && t.Super.Name != checkedRoot && t.Super.Name != "java.lang.Throwable" {
		return false
	}
	t.Super = model.NewRef(uncheckedRoot)
	r.changed("supertype", t.QName+" extends "+uncheckedRoot)
	return true
}

// AddSupertype makes a synthetic type a subtype of sup. Final platform
// classes, cycles, and a second superclass are refused.
func (r *Resolver) AddSupertype(t *model.TypeDecl, sup *model.TypeRef, iface bool) bool {
	if !t.Synthetic || sup == nil || sup.Primitive || sup.Dims > 0 || sup.Name == t.QName {
		return false
	}
	if sup.Name == objectType || lang.IsFinalPlatformClass(sup.Name) || r.g.IsSubtype(sup.Name, t.QName) {
		return false
	}
	if iface {
		if t.Kind == model.Annotation {
			return false
		}
		return r.addInterface(t, sup)
	}
	if t.IsInterface() || t.Kind == model.Enum {
		return false
	}
	if t.Super != nil {
		return false
	}
	t.Super = sup
	r.changed("supertype", t.QName+" extends "+sup.Name)
	return true
}

// MakeIterable makes a synthetic type iterable over el.
func (r *Resolver) MakeIterable(t *model.TypeDecl, el *model.TypeRef) bool {
	if el == nil || el.IsPrimitive() {
		el = model.NewRef(objectType)
	}
	return r.track(func() { r.iterable(t, el) })
}

// Unabstract gives a synthetic abstract method a body: interface methods
// become default methods.
func (r *Resolver) Unabstract(m *model.Member) bool {
	owner := r.g.Type(m.Owner)
	if owner == nil || !m.Synthetic || !m.IsAbstract() {
		return false
	}
	m.Modifiers = without(m.Modifiers, "abstract")
	if owner.IsInterface() && !model.HasModifier(m.Modifiers, "default") {
		m.Modifiers = append(m.Modifiers, "default")
	}
	m.Body = &model.Body{}
	r.changed("body", owner.QName+"."+m.Name)
	return true
}

func without(mods []string, drop string) []string {
	out := mods[:0:0]
	for _, m := range mods {
		if m != drop {
			out = append(out, m)
		}
	}
	return out
}

// AddMethod adds a method to a synthetic type unless one with the same
// erased parameter list exists. A nil return type gives the method a fresh
// <Name>ReturnType class.
func (r *Resolver) AddMethod(owner *model.TypeDecl, name string, params []*model.TypeRef, ret *model.TypeRef) bool {
	if !owner.Synthetic {
		return false
	}
	m := &model.Member{Kind: model.Method, Name: name}
	for i, p := range params {
		m.Params = append(m.Params, &model.Param{Name: fmt.Sprintf("p%d", i), Type: p})
	}
	for _, existing := range r.g.FindMethods(owner.ID, name, len(params)) {
		if graph.SameErasure(existing, m, r.g.TypeVarsInScope(existing), nil) {
			return false
		}
	}
	if ret == nil {
		ret = r.generatedClass(owner.Package, model.Capitalize(name)+"ReturnType")
	}
	m.Return = ret
	return r.track(func() { r.addMethod(owner, m, false) })
}

// AddField adds an instance field to a synthetic type, typed with a fresh
// SyntheticTypeFor<Name> class.
func (r *Resolver) AddField(owner *model.TypeDecl, name string) bool {
	if !owner.Synthetic || r.g.FindField(owner.ID, name) != nil {
		return false
	}
	mods := []string{"public"}
	if owner.IsInterface() {
		mods = append(mods, "static", "final")
	}
	typ := r.generatedClass(owner.Package, "SyntheticTypeFor"+model.Capitalize(name))
	return r.track(func() {
		r.add(owner, &model.Member{Kind: model.Field, Name: name, Modifiers: mods, Type: typ})
	})
}

// AddConstructor adds a constructor with the given parameter types to a
// synthetic class, together with the no-arg constructor.
func (r *Resolver) AddConstructor(t *model.TypeDecl, params []*model.TypeRef) bool {
	if !t.Synthetic || t.Kind != model.Class {
		return false
	}
	return r.track(func() {
		if len(params) > 0 && len(r.g.FindConstructors(t.ID, len(params))) == 0 {
			ps := make([]*model.Param, len(params))
			for i, p := range params {
				ps[i] = &model.Param{Name: fmt.Sprintf("p%d", i), Type: p}
			}
			r.addConstructor(t, ps)
		}
		if len(r.g.FindConstructors(t.ID, 0)) == 0 {
			r.addConstructor(t, nil)
		}
	})
}

func (r *Resolver) generatedClass(pkg, name string) *model.TypeRef {
	var t *model.TypeDecl
	r.track(func() { t = r.ensureType(model.Qualify(pkg, name), 0) })
	if t == nil {
		return model.NewRef(objectType)
	}
	return model.NewRef(t.QName)
}

// OverrideInSuper gives the nearest unresolved or synthetic supertype of m's
// owner the method that m overrides.
func (r *Resolver) OverrideInSuper(m *model.Member) bool {
	owner := r.g.Type(m.Owner)
	if owner == nil || m.Kind != model.Method {
		return false
	}
	sup := r.unresolvedSuper(owner, false, map[model.DeclID]struct{}{})
	if sup == nil {
		return false
	}
	return r.track(func() { r.overrideMethod(sup, m) })
}

// InheritedOwner returns the synthetic supertype that members inherited by a
// source type are attached to, or nil.
func (r *Resolver) InheritedOwner(t *model.TypeDecl, field bool) *model.TypeDecl {
	if t.Synthetic {
		return t
	}
	return r.unresolvedSuper(t, field, map[model.DeclID]struct{}{})
}

// EnsureType creates the synthetic type a simple or qualified name written in
// cu denotes. It returns nil if the name already resolves.
func (r *Resolver) EnsureType(name string, cu *model.CompilationUnit) *model.TypeDecl {
	res := r.g.ResolveType(0, cu, name)
	if res.Found() {
		return nil
	}
	var t *model.TypeDecl
	r.track(func() { t = r.ensureType(r.place(name, res, 0, cu), 0) })
	return t
}

// Retype replaces the type of every synthetic method result and field typed
// as from. With typeVar set, methods instead become generic in
// UnconstrainedType and return it. It returns the members changed.
func (r *Resolver) Retype(from string, to *model.TypeRef, typeVar bool) []*model.Member {
	var out []*model.Member
	for _, t := range r.g.Types() {
		if !t.Synthetic {
			continue
		}
		for _, m := range t.Members {
			if !m.Synthetic {
				continue
			}
			switch {
			case m.Kind == model.Method && m.Return != nil && m.Return.Dims == 0 && m.Return.Name == from:
				if typeVar {
					m.TypeParams = []*model.TypeParam{{Name: UnconstrainedType}}
					m.Return = model.NewRef(UnconstrainedType)
				} else {
					m.Return = to.Clone()
				}
			case m.Kind == model.Field && m.Type != nil && m.Type.Dims == 0 && m.Type.Name == from:
				if typeVar {
					m.Type = model.NewRef(objectType)
				} else {
					m.Type = to.Clone()
				}
			default:
				continue
			}
			r.changed("retype", t.QName+"."+m.Name)
			out = append(out, m)
		}
	}
	return out
}

// UseSites returns the synthetic members whose result or field type is the
// named type.
func (r *Resolver) UseSites(qname string) []*model.Member {
	var out []*model.Member
	for _, t := range r.g.Types() {
		if !t.Synthetic {
			continue
		}
		for _, m := range t.Members {
			if !m.Synthetic {
				continue
			}
			if (m.Kind == model.Method && m.Return != nil && m.Return.Dims == 0 && m.Return.Name == qname) ||
				(m.Kind == model.Field && m.Type != nil && m.Type.Dims == 0 && m.Type.Name == qname) {
				out = append(out, m)
			}
		}
	}
	return out
}
