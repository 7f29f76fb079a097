package bind

import (
	"strings"

	"github.com/phobologic/jslice/internal/graph"
	"github.com/phobologic/jslice/internal/model"
)

// resolve resolves a written type name in the walker's current scope.
func (w *walker) resolve(ref *model.TypeRef) Value {
	v := Value{Type: ref, Scope: w.scope(), Unit: w.unit}
	if ref == nil {
		return Value{}
	}
	if ref.Primitive {
		v.Res = graph.Resolution{Status: graph.Library, QName: ref.Name}
		return v
	}
	if ref.Wildcard {
		if ref.Bound != nil && ref.BoundKind == "extends" {
			return w.resolve(ref.Bound)
		}
		return Value{}
	}
	head, _, _ := strings.Cut(ref.Name, ".")
	if tv, ok := w.lookupVar(head); ok && head == ref.Name {
		v.TypeVar = true
		if tv.bound != nil && ref.Dims == 0 {
			b := w.resolve(tv.bound)
			b.TypeVar = true
			return b
		}
		v.Res = graph.Resolution{Status: graph.Library, QName: "java.lang.Object"}
		return v
	}
	if lt := w.lookupLocalType(head); lt != nil {
		v.Local = lt
		v.Res = graph.Resolution{Status: graph.Library, QName: ref.Name}
		if head != ref.Name {
			if n := lt.NestedType(strings.TrimPrefix(ref.Name, head+".")); n != nil {
				v.Local = n
			}
		}
		return v
	}
	v.Res = w.g.ResolveType(v.Scope, w.unit, ref.Name)
	return v
}

// useType resolves a type reference and reports it and its type arguments.
func (w *walker) useType(ref *model.TypeRef, u Usage) Value {
	if ref == nil || ref.IsVoid() {
		return Value{Type: ref}
	}
	v := w.resolve(ref)
	if !ref.Primitive && !ref.Wildcard && !v.TypeVar && v.Local == nil {
		r := w.emit(&Ref{Kind: RefType, Name: ref.Name, Type: ref, Res: v.Res, Use: u})
		v.Ref = r
	}
	for _, a := range ref.Args {
		if a.Wildcard {
			if a.Bound != nil {
				w.useType(a.Bound, Usage{})
			}
			continue
		}
		w.useType(a, Usage{})
	}
	return v
}

// valueOf resolves a type in the current scope without reporting it.
func (w *walker) valueOf(ref *model.TypeRef) Value {
	return w.resolve(ref)
}

// memberValue resolves a type written in a member declared elsewhere, in the
// scope of that member's owner.
func (w *walker) memberValue(m *model.Member, ref *model.TypeRef) Value {
	if ref == nil {
		return Value{}
	}
	if ref.Primitive {
		return Value{Type: ref, Res: graph.Resolution{Status: graph.Library, QName: ref.Name}}
	}
	if graph.IsTypeVarName(ref.Name, w.g.TypeVarsInScope(m)) {
		return Value{Type: ref, TypeVar: true, Res: graph.Resolution{Status: graph.Library, QName: "java.lang.Object"}}
	}
	return Value{
		Type:  ref,
		Scope: m.Owner,
		Unit:  w.g.Unit(m.Owner),
		Res:   w.g.ResolveType(m.Owner, nil, ref.Name),
	}
}

// typeValue is the value of an expression naming a declared type.
func typeValue(t *model.TypeDecl, g *graph.Graph) Value {
	return Value{
		Type:   model.NewRef(t.QName),
		Res:    graph.Resolution{Status: graph.Source, ID: t.ID, QName: t.QName},
		Scope:  t.ID,
		Unit:   g.Unit(t.ID),
		Static: true,
	}
}

func instance(v Value) Value {
	v.Static = false
	v.Ref = nil
	return v
}

// thisValue is the value of this in the innermost frame.
func (w *walker) thisValue() Value {
	if len(w.frames) == 0 {
		return Value{}
	}
	f := w.frames[len(w.frames)-1]
	if f.local != nil {
		return Value{Type: model.NewRef(f.local.Name), Local: f.local, Scope: w.scope(), Unit: w.unit}
	}
	return instance(typeValue(w.g.Type(f.id), w.g))
}

// qualifiedThis is the value of Outer.this.
func (w *walker) qualifiedThis(name string) Value {
	for i := len(w.frames) - 1; i >= 0; i-- {
		f := w.frames[i]
		if f.local == nil {
			if t := w.g.Type(f.id); t.Name == name || t.QName == name {
				return instance(typeValue(t, w.g))
			}
		}
	}
	return w.thisValue()
}

// superValue is the value of super in the innermost frame.
func (w *walker) superValue() Value {
	if len(w.frames) == 0 {
		return Value{}
	}
	f := w.frames[len(w.frames)-1]
	if f.local != nil {
		if f.local.Super != nil {
			return w.valueOf(f.local.Super)
		}
		return Value{}
	}
	for _, s := range w.g.Supertypes(f.id) {
		if !s.Interface {
			return Value{Type: s.Ref, Res: s.Resolution, Scope: w.g.Type(f.id).Parent, Unit: w.g.Unit(f.id)}
		}
	}
	return Value{Type: model.NewRef("java.lang.Object"), Res: graph.Resolution{Status: graph.Library, QName: "java.lang.Object"}}
}

func libraryValue(qname string) Value {
	return Value{Type: model.NewRef(qname), Res: graph.Resolution{Status: graph.Library, QName: qname}}
}

func primitiveValue(name string) Value {
	return Value{Type: model.NewRef(name), Res: graph.Resolution{Status: graph.Library, QName: name}}
}
