package typecorrect

import (
	"github.com/phobologic/jslice/internal/lang"
	"github.com/phobologic/jslice/internal/model"
)

// Bound is the type chosen to satisfy every demand placed on a synthetic type.
type Bound struct {
	Type *model.TypeRef
	// TypeVar makes the use site generic instead of naming a type.
	TypeVar bool
	// Absorb lists demanded synthetic types that must become subtypes of Type.
	Absorb []*model.TypeRef
}

// Strategy computes a least upper bound for the types demanded of one
// synthetic type. ret reports whether the synthetic type is a method result.
type Strategy interface {
	LUB(demands []*model.TypeRef, ret bool) Bound
}

// Widening is the default strategy. Synthetic reports whether a qualified
// name is a synthetic class that may gain supertypes.
type Widening struct {
	Synthetic func(qname string) bool
}

// LUB applies, in order: a single demand wins; primitive and boxed demands
// settle on the narrowest primitive that converts to every one of them; a
// synthetic demand absorbs the other synthetic demands; distinct result
// demands become a type variable; anything else is Object.
func (w Widening) LUB(demands []*model.TypeRef, ret bool) Bound {
	uniq := dedupe(demands)
	switch len(uniq) {
	case 0:
		return Bound{Type: model.NewRef(lang.ObjectType)}
	case 1:
		return Bound{Type: uniq[0].Clone()}
	}
	if p, ok := narrowest(uniq); ok {
		return Bound{Type: model.NewRef(p)}
	}
	if w.Synthetic != nil {
		for i, d := range uniq {
			if d.Dims > 0 || !w.Synthetic(d.Name) {
				continue
			}
			var rest []*model.TypeRef
			ok := true
			for j, o := range uniq {
				if j == i {
					continue
				}
				if o.Dims > 0 || !w.Synthetic(o.Name) {
					ok = false
					break
				}
				rest = append(rest, o.Clone())
			}
			if ok {
				return Bound{Type: d.Clone(), Absorb: rest}
			}
		}
	}
	if ret {
		return Bound{TypeVar: true}
	}
	return Bound{Type: model.NewRef(lang.ObjectType)}
}

func dedupe(refs []*model.TypeRef) []*model.TypeRef {
	var out []*model.TypeRef
	seen := make(map[string]struct{})
	for _, r := range refs {
		if r == nil {
			continue
		}
		k := r.String()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

// narrowest finds the primitive assignable to every demand. A demand is the
// type required where the value is used, so the result must widen to each
// primitive demand and box to each boxed one.
func narrowest(refs []*model.TypeRef) (string, bool) {
	acc := ""
	var boxed []string
	for _, r := range refs {
		if r.Dims > 0 {
			return "", false
		}
		p := r.Name
		if !r.Primitive {
			u, ok := lang.Unbox(r.Name)
			if !ok {
				return "", false
			}
			p = u
			boxed = append(boxed, u)
		}
		switch {
		case acc == "":
			acc = p
		case acc == p:
		default:
			n, ok := lang.NarrowPrimitive(acc, p)
			if !ok {
				return "", false
			}
			acc = n
		}
	}
	for _, u := range boxed {
		if u != acc {
			return "", false
		}
	}
	return acc, acc != "" && acc != "void"
}
