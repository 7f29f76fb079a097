// Package graph holds the declaration graph: an arena of type and member
// declarations addressed by stable IDs, with containment and supertype edges.
package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/phobologic/jslice/internal/lang"
	"github.com/phobologic/jslice/internal/model"
)

// ErrDuplicateType is returned when a top-level qualified name is inserted twice.
var ErrDuplicateType = errors.New("duplicate type declaration")

type entry struct {
	Type   *model.TypeDecl
	Member *model.Member
	Unit   *model.CompilationUnit
}

// Graph is the per-run declaration store. It is not safe for concurrent use;
// use Clone to give each run its own copy.
type Graph struct {
	units   []*model.CompilationUnit
	decls   []entry // index is the DeclID; slot 0 is unused
	byQName map[string]model.DeclID
	library map[string]struct{}
}

// New builds a graph from parsed units. Units whose top-level types collide
// with an already inserted qualified name are rejected with ErrDuplicateType;
// the remaining units are still inserted.
func New(units []*model.CompilationUnit) (*Graph, error) {
	g := &Graph{
		decls:   make([]entry, 1),
		byQName: make(map[string]model.DeclID),
		library: make(map[string]struct{}),
	}
	var errs []error
	for _, cu := range units {
		if err := g.AddUnit(cu); err != nil {
			errs = append(errs, err)
		}
	}
	return g, errors.Join(errs...)
}

// AddUnit inserts a compilation unit and assigns IDs to its declarations.
func (g *Graph) AddUnit(cu *model.CompilationUnit) error {
	for _, td := range cu.Types {
		if _, dup := g.byQName[td.QName]; dup {
			return fmt.Errorf("%s in %s: %w", td.QName, cu.Path, ErrDuplicateType)
		}
	}
	g.units = append(g.units, cu)
	for _, td := range cu.Types {
		g.insertType(cu, 0, td)
	}
	return nil
}

func (g *Graph) insertType(cu *model.CompilationUnit, parent model.DeclID, td *model.TypeDecl) {
	td.ID = model.DeclID(len(g.decls))
	td.Parent = parent
	td.Interfaces = dedupeRefs(td.Interfaces)
	g.decls = append(g.decls, entry{Type: td, Unit: cu})
	g.byQName[td.QName] = td.ID
	for _, m := range td.Members {
		g.insertMember(cu, td, m)
	}
	for _, n := range td.Nested {
		g.insertType(cu, td.ID, n)
	}
}

func (g *Graph) insertMember(cu *model.CompilationUnit, owner *model.TypeDecl, m *model.Member) {
	m.ID = model.DeclID(len(g.decls))
	m.Owner = owner.ID
	g.decls = append(g.decls, entry{Member: m, Unit: cu})
}

// dedupeRefs drops repeated entries of an implements or extends list, keeping
// the first occurrence.
func dedupeRefs(refs []*model.TypeRef) []*model.TypeRef {
	seen := make(map[string]struct{}, len(refs))
	out := refs[:0]
	for _, r := range refs {
		key := r.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

// AddLibraryTypes records qualified names available from auxiliary archives.
func (g *Graph) AddLibraryTypes(names []string) {
	for _, n := range names {
		g.library[n] = struct{}{}
	}
}

// IsLibraryType reports whether qname names a platform or auxiliary-archive type.
func (g *Graph) IsLibraryType(qname string) bool {
	if _, ok := g.library[qname]; ok {
		return true
	}
	if lang.IsPlatformType(qname) {
		return true
	}
	return qname != "" && lang.IsPlatformPackage(model.Qualifier(qname)) && model.IsCapitalized(model.SimpleName(qname))
}

// Len returns one more than the highest assigned ID.
func (g *Graph) Len() int {
	return len(g.decls)
}

// Units returns every compilation unit, source units first in insertion order.
func (g *Graph) Units() []*model.CompilationUnit {
	return g.units
}

// Type returns the type declaration with the given ID, or nil.
func (g *Graph) Type(id model.DeclID) *model.TypeDecl {
	if int(id) <= 0 || int(id) >= len(g.decls) {
		return nil
	}
	return g.decls[id].Type
}

// Member returns the member declaration with the given ID, or nil.
func (g *Graph) Member(id model.DeclID) *model.Member {
	if int(id) <= 0 || int(id) >= len(g.decls) {
		return nil
	}
	return g.decls[id].Member
}

// Unit returns the compilation unit that declares id.
func (g *Graph) Unit(id model.DeclID) *model.CompilationUnit {
	if int(id) <= 0 || int(id) >= len(g.decls) {
		return nil
	}
	return g.decls[id].Unit
}

// Owner returns the type that declares member id.
func (g *Graph) Owner(id model.DeclID) *model.TypeDecl {
	if m := g.Member(id); m != nil {
		return g.Type(m.Owner)
	}
	return nil
}

// Lookup returns the type with the given qualified name (nested types use
// dots, as in Outer.Inner).
func (g *Graph) Lookup(qname string) *model.TypeDecl {
	return g.Type(g.byQName[qname])
}

// Types returns every type declaration in ID order.
func (g *Graph) Types() []*model.TypeDecl {
	var out []*model.TypeDecl
	for _, e := range g.decls {
		if e.Type != nil {
			out = append(out, e.Type)
		}
	}
	return out
}

// TypesBySimpleName returns every type whose simple name is name, in ID order.
func (g *Graph) TypesBySimpleName(name string) []*model.TypeDecl {
	var out []*model.TypeDecl
	for _, e := range g.decls {
		if e.Type != nil && e.Type.Name == name {
			out = append(out, e.Type)
		}
	}
	return out
}

// Outer returns the enclosing type of a nested type, or nil.
func (g *Graph) Outer(id model.DeclID) *model.TypeDecl {
	if t := g.Type(id); t != nil {
		return g.Type(t.Parent)
	}
	return nil
}

// TopLevel returns the outermost type enclosing id (a type or member).
func (g *Graph) TopLevel(id model.DeclID) *model.TypeDecl {
	t := g.Type(id)
	if t == nil {
		t = g.Owner(id)
	}
	for t != nil && t.Parent != 0 {
		t = g.Type(t.Parent)
	}
	return t
}

// EnclosingChain returns id's type followed by every enclosing type, innermost first.
func (g *Graph) EnclosingChain(id model.DeclID) []*model.TypeDecl {
	t := g.Type(id)
	if t == nil {
		t = g.Owner(id)
	}
	var out []*model.TypeDecl
	for t != nil {
		out = append(out, t)
		t = g.Type(t.Parent)
	}
	return out
}

// AddType inserts a synthetic type. With parent zero the type becomes the sole
// top-level type of a new synthetic compilation unit in pkg.
func (g *Graph) AddType(parent model.DeclID, pkg string, td *model.TypeDecl) error {
	td.Synthetic = true
	td.Package = pkg
	if p := g.Type(parent); p != nil {
		td.QName = p.QName + "." + td.Name
		if _, dup := g.byQName[td.QName]; dup {
			return fmt.Errorf("%s: %w", td.QName, ErrDuplicateType)
		}
		p.Nested = append(p.Nested, td)
		g.insertType(g.Unit(parent), parent, td)
		return nil
	}
	td.QName = model.Qualify(pkg, td.Name)
	path := td.Name + ".java"
	if pkg != "" {
		path = strings.ReplaceAll(pkg, ".", "/") + "/" + path
	}
	return g.AddUnit(&model.CompilationUnit{
		Path:      path,
		Package:   pkg,
		Types:     []*model.TypeDecl{td},
		Synthetic: true,
	})
}

// AddMember inserts a member into an existing type and returns its ID.
func (g *Graph) AddMember(owner model.DeclID, m *model.Member) model.DeclID {
	t := g.Type(owner)
	t.Members = append(t.Members, m)
	g.insertMember(g.Unit(owner), t, m)
	return m.ID
}

// Clone deep-copies the graph. IDs are preserved.
func (g *Graph) Clone() (*Graph, error) {
	data, err := json.Marshal(g.units)
	if err != nil {
		return nil, fmt.Errorf("cloning graph: %w", err)
	}
	var units []*model.CompilationUnit
	if err := json.Unmarshal(data, &units); err != nil {
		return nil, fmt.Errorf("cloning graph: %w", err)
	}
	c := &Graph{
		units:   units,
		decls:   make([]entry, len(g.decls)),
		byQName: make(map[string]model.DeclID, len(g.byQName)),
		library: make(map[string]struct{}, len(g.library)),
	}
	for k := range g.library {
		c.library[k] = struct{}{}
	}
	for _, cu := range units {
		for _, td := range cu.Types {
			c.restore(cu, td)
		}
	}
	return c, nil
}

func (g *Graph) restore(cu *model.CompilationUnit, td *model.TypeDecl) {
	g.decls[td.ID] = entry{Type: td, Unit: cu}
	g.byQName[td.QName] = td.ID
	for _, m := range td.Members {
		g.decls[m.ID] = entry{Member: m, Unit: cu}
	}
	for _, n := range td.Nested {
		g.restore(cu, n)
	}
}

// Packages returns the sorted set of packages declared by source units.
func (g *Graph) Packages() []string {
	set := make(map[string]struct{})
	for _, cu := range g.units {
		set[cu.Package] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// HasPackage reports whether any unit declares pkg, or pkg is a prefix of a
// declared package.
func (g *Graph) HasPackage(pkg string) bool {
	for _, cu := range g.units {
		if cu.Package == pkg || strings.HasPrefix(cu.Package, pkg+".") {
			return true
		}
	}
	return false
}
