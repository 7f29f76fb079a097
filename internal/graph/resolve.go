package graph

import (
	"strings"

	"github.com/phobologic/jslice/internal/lang"
	"github.com/phobologic/jslice/internal/model"
)

// Status classifies the result of resolving a name.
type Status uint8

const (
	Unresolved Status = iota
	Source
	Library
)

func (s Status) String() string {
	switch s {
	case Source:
		return "source"
	case Library:
		return "library"
	}
	return "unresolved"
}

// Resolution is the outcome of resolving a type name. For unresolved names
// QName holds the qualified name implied by an explicit import or qualified
// reference, or "" if nothing implies one.
type Resolution struct {
	Status Status
	ID     model.DeclID
	QName  string
}

// Found reports whether the name bound to a source or library type.
func (r Resolution) Found() bool {
	return r.Status != Unresolved
}

func (g *Graph) sourceOrLibrary(qname string) (Resolution, bool) {
	if id, ok := g.byQName[qname]; ok {
		return Resolution{Status: Source, ID: id, QName: qname}, true
	}
	if g.IsLibraryType(qname) {
		return Resolution{Status: Library, QName: qname}, true
	}
	return Resolution{}, false
}

// knownType is sourceOrLibrary without the guess that any capitalized name in
// a platform package exists. Wildcard imports only bind names known to exist.
func (g *Graph) knownType(qname string) (Resolution, bool) {
	if id, ok := g.byQName[qname]; ok {
		return Resolution{Status: Source, ID: id, QName: qname}, true
	}
	if _, ok := g.library[qname]; ok || lang.IsPlatformType(qname) {
		return Resolution{Status: Library, QName: qname}, true
	}
	return Resolution{}, false
}

// ResolveType resolves a type name as written inside the type scope (which
// may be zero for unit level, in which case cu supplies imports and package).
// Type variables are not considered; callers handle them first.
func (g *Graph) ResolveType(scope model.DeclID, cu *model.CompilationUnit, name string) Resolution {
	if cu == nil {
		cu = g.Unit(scope)
	}
	if i := strings.Index(name, "."); i >= 0 {
		return g.resolveQualified(scope, cu, name[:i], name[i+1:])
	}
	return g.resolveSimple(scope, cu, name)
}

func (g *Graph) resolveQualified(scope model.DeclID, cu *model.CompilationUnit, head, rest string) Resolution {
	first := g.resolveSimple(scope, cu, head)
	if first.Found() {
		q := first.QName + "." + rest
		if r, ok := g.sourceOrLibrary(q); ok {
			return r
		}
		if first.Status == Library {
			return Resolution{Status: Library, QName: q}
		}
		return Resolution{QName: q}
	}
	if first.QName != "" {
		// The head is an explicitly imported but unknown type.
		return Resolution{QName: first.QName + "." + rest}
	}
	full := head + "." + rest
	if r, ok := g.sourceOrLibrary(full); ok {
		return r
	}
	// A qualified name whose prefix is a source type, as in pkg.Outer.Inner.
	segs := strings.Split(full, ".")
	for i := len(segs) - 1; i > 0; i-- {
		prefix := strings.Join(segs[:i], ".")
		if _, ok := g.byQName[prefix]; ok {
			return Resolution{QName: full}
		}
		if g.IsLibraryType(prefix) {
			return Resolution{Status: Library, QName: full}
		}
	}
	return Resolution{QName: full}
}

func (g *Graph) resolveSimple(scope model.DeclID, cu *model.CompilationUnit, name string) Resolution {
	visited := make(map[model.DeclID]struct{})
	for t := g.Type(scope); t != nil; t = g.Type(t.Parent) {
		if t.Name == name {
			return Resolution{Status: Source, ID: t.ID, QName: t.QName}
		}
		if r, ok := g.memberType(t, name, visited); ok {
			return r
		}
	}
	if cu == nil {
		return Resolution{}
	}
	for _, imp := range cu.Imports {
		if imp.Wildcard || imp.Name() != name {
			continue
		}
		if r, ok := g.sourceOrLibrary(imp.Path); ok {
			return r
		}
		return Resolution{QName: imp.Path}
	}
	for _, td := range cu.Types {
		if td.Name == name {
			return Resolution{Status: Source, ID: td.ID, QName: td.QName}
		}
	}
	if r, ok := g.sourceOrLibrary(model.Qualify(cu.Package, name)); ok {
		return r
	}
	for _, imp := range cu.Imports {
		if !imp.Wildcard {
			continue
		}
		if r, ok := g.knownType(imp.Path + "." + name); ok {
			return r
		}
	}
	if q, ok := lang.JavaLang(name); ok {
		return Resolution{Status: Library, QName: q}
	}
	return Resolution{}
}

// memberType finds a nested type named name declared in t or inherited from
// its source supertypes.
func (g *Graph) memberType(t *model.TypeDecl, name string, visited map[model.DeclID]struct{}) (Resolution, bool) {
	if _, seen := visited[t.ID]; seen {
		return Resolution{}, false
	}
	visited[t.ID] = struct{}{}
	if n := t.NestedType(name); n != nil {
		return Resolution{Status: Source, ID: n.ID, QName: n.QName}, true
	}
	for _, s := range g.Supertypes(t.ID) {
		if s.Status != Source {
			continue
		}
		if r, ok := g.memberType(g.Type(s.ID), name, visited); ok {
			return r, true
		}
	}
	return Resolution{}, false
}

// SuperRef is one declared supertype edge. Unresolved edges are placeholders
// that the synthesizer fills in.
type SuperRef struct {
	Resolution
	Ref       *model.TypeRef
	Interface bool // listed under implements, or extends of an interface
}

// Supertypes resolves the declared supertypes of a type, superclass first.
func (g *Graph) Supertypes(id model.DeclID) []SuperRef {
	t := g.Type(id)
	if t == nil {
		return nil
	}
	// Supertype names are resolved from the enclosing scope so that a type
	// never resolves a supertype to one of its own nested types.
	scope := t.Parent
	cu := g.Unit(id)
	var out []SuperRef
	if t.Super != nil {
		out = append(out, SuperRef{Resolution: g.resolveSuperName(scope, cu, t, t.Super), Ref: t.Super})
	}
	for _, r := range t.Interfaces {
		out = append(out, SuperRef{Resolution: g.resolveSuperName(scope, cu, t, r), Ref: r, Interface: true})
	}
	return out
}

func (g *Graph) resolveSuperName(scope model.DeclID, cu *model.CompilationUnit, t *model.TypeDecl, r *model.TypeRef) Resolution {
	res := g.ResolveType(scope, cu, r.Name)
	if res.ID == t.ID {
		// A same-named supertype from elsewhere, as in class Foo extends other.Foo.
		return Resolution{QName: res.QName}
	}
	return res
}

// Ancestors returns every transitive supertype edge of id, breadth first,
// visiting each source type once.
func (g *Graph) Ancestors(id model.DeclID) []SuperRef {
	visited := map[model.DeclID]struct{}{id: {}}
	var out []SuperRef
	queue := []model.DeclID{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, s := range g.Supertypes(cur) {
			if s.Status == Source {
				if _, seen := visited[s.ID]; seen {
					continue
				}
				visited[s.ID] = struct{}{}
				queue = append(queue, s.ID)
			}
			out = append(out, s)
		}
	}
	return out
}

// IsSubtype reports whether sub is sup or transitively extends it, following
// source and platform supertype edges.
func (g *Graph) IsSubtype(sub, sup string) bool {
	if sub == sup || sup == lang.ObjectType {
		return true
	}
	if t := g.Lookup(sub); t != nil {
		for _, s := range g.Ancestors(t.ID) {
			if s.QName == sup || (s.Status == Library && lang.IsPlatformSubtype(s.QName, sup)) {
				return true
			}
		}
		return false
	}
	return lang.IsPlatformSubtype(sub, sup)
}

// FindMethods returns methods named name accepting arity arguments, declared
// on t or inherited from its source supertypes, nearest first. arity < 0
// matches any arity.
func (g *Graph) FindMethods(id model.DeclID, name string, arity int) []*model.Member {
	var out []*model.Member
	g.walkHierarchy(id, func(t *model.TypeDecl) bool {
		for _, m := range t.Members {
			if m.Kind == model.Method && m.Name == name && (arity < 0 || m.Accepts(arity)) {
				out = append(out, m)
			}
		}
		return true
	})
	return out
}

// FindConstructors returns the constructors of t accepting arity arguments.
func (g *Graph) FindConstructors(id model.DeclID, arity int) []*model.Member {
	t := g.Type(id)
	if t == nil {
		return nil
	}
	var out []*model.Member
	for _, m := range t.Members {
		if m.Kind == model.Constructor && (arity < 0 || m.Accepts(arity)) {
			out = append(out, m)
		}
	}
	return out
}

// HasConstructors reports whether t declares any constructor.
func (g *Graph) HasConstructors(id model.DeclID) bool {
	return len(g.FindConstructors(id, -1)) > 0
}

// FindField returns the nearest field named name visible on t, including
// fields inherited from source supertypes.
func (g *Graph) FindField(id model.DeclID, name string) *model.Member {
	var found *model.Member
	g.walkHierarchy(id, func(t *model.TypeDecl) bool {
		if f := t.Member(model.Field, name); f != nil {
			found = f
			return false
		}
		return true
	})
	return found
}

// FindConstant returns the enum constant named name declared directly on t.
func (g *Graph) FindConstant(id model.DeclID, name string) *model.EnumConstant {
	t := g.Type(id)
	if t == nil {
		return nil
	}
	for _, c := range t.Constants {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// walkHierarchy visits t and its source ancestors breadth first until fn
// returns false.
func (g *Graph) walkHierarchy(id model.DeclID, fn func(*model.TypeDecl) bool) {
	t := g.Type(id)
	if t == nil || !fn(t) {
		return
	}
	for _, s := range g.Ancestors(id) {
		if s.Status != Source {
			continue
		}
		if !fn(g.Type(s.ID)) {
			return
		}
	}
}

// UnresolvedAncestor reports whether any transitive supertype of id could not
// be resolved, or resolves to a library type whose members are unknown.
func (g *Graph) UnresolvedAncestor(id model.DeclID) bool {
	for _, s := range g.Ancestors(id) {
		if s.Status == Unresolved {
			return true
		}
		if t := g.Type(s.ID); t != nil && t.Synthetic {
			return true
		}
	}
	return false
}
