package graph

import (
	"github.com/phobologic/jslice/internal/model"
)

// SameErasure reports whether two methods have override-equivalent parameter
// lists: equal arity and equal simple erased parameter types, where a type
// variable on either side matches anything.
func SameErasure(a, b *model.Member, aVars, bVars []string) bool {
	if len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		pa, pb := a.Params[i].Type, b.Params[i].Type
		if pa == nil || pb == nil {
			continue
		}
		if isTypeVar(pa.Name, aVars) || isTypeVar(pb.Name, bVars) {
			continue
		}
		if pa.Simple() != pb.Simple() || pa.Dims+varargDim(a.Params[i]) != pb.Dims+varargDim(b.Params[i]) {
			return false
		}
	}
	return true
}

func varargDim(p *model.Param) int {
	if p.Varargs {
		return 1
	}
	return 0
}

func isTypeVar(name string, vars []string) bool {
	for _, v := range vars {
		if v == name {
			return true
		}
	}
	return false
}

// TypeVarsInScope returns the type variables visible in a member: its own and
// those of its owner and every enclosing non-static type.
func (g *Graph) TypeVarsInScope(m *model.Member) []string {
	vars := m.TypeParamNames()
	for _, t := range g.EnclosingChain(m.Owner) {
		vars = append(vars, t.TypeParamNames()...)
	}
	return vars
}

// Overridden returns the methods in source supertypes of m's owner that m
// overrides, nearest first.
func (g *Graph) Overridden(id model.DeclID) []*model.Member {
	m := g.Member(id)
	if m == nil || m.Kind != model.Method || m.IsStatic() {
		return nil
	}
	mVars := g.TypeVarsInScope(m)
	var out []*model.Member
	for _, s := range g.Ancestors(m.Owner) {
		if s.Status != Source {
			continue
		}
		for _, cand := range g.Type(s.ID).Members {
			if cand.Kind != model.Method || cand.Name != m.Name || cand.IsStatic() ||
				model.HasModifier(cand.Modifiers, "private") {
				continue
			}
			if SameErasure(m, cand, mVars, g.TypeVarsInScope(cand)) {
				out = append(out, cand)
			}
		}
	}
	return out
}

// Implementation returns the method that implements abstract method am for the
// concrete class id: a non-abstract override-equivalent method on the class
// or one of its source ancestors. nil means the class does not implement it.
func (g *Graph) Implementation(id model.DeclID, am *model.Member) *model.Member {
	amVars := g.TypeVarsInScope(am)
	var found *model.Member
	g.walkHierarchy(id, func(t *model.TypeDecl) bool {
		for _, m := range t.Members {
			if m.ID == am.ID || m.Kind != model.Method || m.Name != am.Name || m.IsAbstract() {
				continue
			}
			if SameErasure(m, am, g.TypeVarsInScope(m), amVars) {
				found = m
				return false
			}
		}
		return true
	})
	return found
}

// Obligation is an abstract method a concrete class must implement, paired
// with the member that implements it (nil when none exists).
type Obligation struct {
	Abstract       *model.Member
	Implementation *model.Member
}

// MustImplement lists the abstract methods declared on source ancestors of a
// concrete class. Abstract and interface types have no obligations.
func (g *Graph) MustImplement(id model.DeclID) []Obligation {
	t := g.Type(id)
	if t == nil || t.IsAbstract() {
		return nil
	}
	var out []Obligation
	seen := make(map[model.DeclID]struct{})
	for _, s := range g.Ancestors(id) {
		if s.Status != Source {
			continue
		}
		for _, m := range g.Type(s.ID).Members {
			if !m.IsAbstract() {
				continue
			}
			if _, dup := seen[m.ID]; dup {
				continue
			}
			seen[m.ID] = struct{}{}
			out = append(out, Obligation{Abstract: m, Implementation: g.Implementation(id, m)})
		}
	}
	return out
}

// IsTypeVarName reports whether name is one of vars.
func IsTypeVarName(name string, vars []string) bool {
	return isTypeVar(name, vars)
}
