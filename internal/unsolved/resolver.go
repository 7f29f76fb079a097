// Package unsolved fabricates placeholder declarations for names that the
// retained program uses but that neither the sources nor the platform library
// declare. Every fabricated declaration is marked synthetic, is created at
// most once per qualified name, and afterwards only widens.
package unsolved

import (
	"io"
	"log/slog"
	"sort"

	"github.com/phobologic/jslice/internal/bind"
	"github.com/phobologic/jslice/internal/graph"
	"github.com/phobologic/jslice/internal/model"
)

// Resolver synthesizes declarations into one graph.
type Resolver struct {
	g       *graph.Graph
	log     *slog.Logger
	changes int
}

// New returns a resolver over g. A nil logger discards output.
func New(g *graph.Graph, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resolver{g: g, log: logger}
}

// Resolve synthesizes declarations for the unresolved references in refs and
// widens existing synthetic declarations with capabilities the references
// reveal. It returns the number of changes made; zero means the graph already
// satisfies every reference, so calling it again with the same refs is a
// no-op.
func (r *Resolver) Resolve(refs []*bind.Ref) int {
	r.changes = 0
	ordered := make([]*bind.Ref, len(refs))
	copy(ordered, refs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return phase(ordered[i]) < phase(ordered[j])
	})
	for _, ref := range ordered {
		r.resolve(ref)
	}
	if r.changes > 0 {
		r.log.Debug("synthesized declarations", "changes", r.changes)
	}
	return r.changes
}

// phase orders references so that the kind of a synthetic type is settled
// before members are added to it.
func phase(ref *bind.Ref) int {
	switch ref.Kind {
	case bind.RefType:
		u := ref.Use
		if u.Extends || u.Implements || u.Annotation || u.Lambda != nil {
			return 0
		}
		return 1
	case bind.RefNew, bind.RefCtorCall:
		return 2
	case bind.RefMethod, bind.RefField:
		if ref.Use.Override {
			return 4
		}
		return 3
	}
	return 5
}

func (r *Resolver) resolve(ref *bind.Ref) {
	switch ref.Kind {
	case bind.RefType:
		r.typeRef(ref)
	case bind.RefNew, bind.RefCtorCall:
		r.constructor(ref)
	case bind.RefMethod:
		if ref.Unresolved() {
			r.method(ref)
		}
	case bind.RefField:
		if ref.Unresolved() {
			r.field(ref)
		}
	case bind.RefConstant:
		if ref.Unresolved() {
			r.constant(ref)
		}
	}
}

func (r *Resolver) typeRef(ref *bind.Ref) {
	var t *model.TypeDecl
	switch ref.Res.Status {
	case graph.Library:
		return
	case graph.Source:
		t = r.g.Type(ref.Res.ID)
		if t == nil || !t.Synthetic {
			return
		}
	case graph.Unresolved:
		name := ref.Name
		arity := 0
		if ref.Type != nil {
			name = ref.Type.Name
			arity = len(ref.Type.Args)
		}
		t = r.ensureType(r.place(name, ref.Res, ref.Scope, ref.Unit), arity)
		if t == nil {
			return
		}
	}
	r.applyUsage(t, ref)
}

// applyUsage widens a synthetic type with the capability its use requires.
func (r *Resolver) applyUsage(t *model.TypeDecl, ref *bind.Ref) {
	u := ref.Use
	switch {
	case u.Annotation:
		r.annotationType(t, ref)
	case u.Implements:
		r.makeInterface(t)
	case u.Extends:
		if from := r.g.Type(ref.From); from != nil && from.IsInterface() {
			r.makeInterface(t)
		}
	}
	if u.Lambda != nil {
		r.makeFunctional(t, *u.Lambda)
	}
	switch {
	case u.Thrown && !u.Caught:
		r.exception(t, uncheckedRoot)
	case u.Thrown, u.Caught, u.Declared:
		r.exception(t, checkedRoot)
	}
	if u.Resource {
		r.closeable(t)
	}
	if u.Iterated {
		r.iterable(t, r.elementType(u.Element))
	}
}

func (r *Resolver) constructor(ref *bind.Ref) {
	if ref.Res.Status != graph.Unresolved {
		return
	}
	t := r.valueType(ref.Receiver)
	if t == nil || t.Kind != model.Class {
		return
	}
	if len(ref.Args) == 0 {
		if r.g.HasConstructors(t.ID) && len(r.g.FindConstructors(t.ID, 0)) == 0 {
			r.addConstructor(t, nil)
		}
		return
	}
	if len(r.g.FindConstructors(t.ID, len(ref.Args))) > 0 {
		return
	}
	r.addConstructor(t, r.params(ref.Args, t))
	if len(r.g.FindConstructors(t.ID, 0)) == 0 {
		r.addConstructor(t, nil)
	}
}

func (r *Resolver) method(ref *bind.Ref) {
	owner := r.memberOwner(ref, false)
	if owner == nil {
		r.log.Debug("no owner for unresolved method", "name", ref.Name, "line", ref.Line)
		return
	}
	if ref.Use.Override && ref.Member != nil {
		r.overrideMethod(owner, ref.Member)
		return
	}
	if len(r.g.FindMethods(owner.ID, ref.Name, len(ref.Args))) > 0 {
		return
	}
	m := &model.Member{
		Kind:   model.Method,
		Name:   ref.Name,
		Params: r.params(ref.Args, owner),
		Return: r.returnType(ref, owner),
	}
	r.addMethod(owner, m, ref.Static)
}

func (r *Resolver) field(ref *bind.Ref) {
	owner := r.memberOwner(ref, true)
	if owner == nil {
		r.log.Debug("no owner for unresolved field", "name", ref.Name, "line", ref.Line)
		return
	}
	if r.g.FindField(owner.ID, ref.Name) != nil || r.g.FindConstant(owner.ID, ref.Name) != nil {
		return
	}
	mods := []string{"public"}
	if ref.Static || owner.IsInterface() {
		mods = append(mods, "static")
	}
	if owner.IsInterface() {
		mods = append(mods, "final")
	}
	r.add(owner, &model.Member{
		Kind:      model.Field,
		Name:      ref.Name,
		Modifiers: mods,
		Type:      r.fieldType(ref, owner),
	})
}

func (r *Resolver) constant(ref *bind.Ref) {
	t := r.valueType(ref.Receiver)
	if t == nil {
		return
	}
	r.enumConstant(t, ref.Name)
}

// memberOwner finds or creates the synthetic type that must declare an
// unresolved member.
func (r *Resolver) memberOwner(ref *bind.Ref, preferClass bool) *model.TypeDecl {
	recv := ref.Receiver
	if recv.Local != nil {
		if recv.Local.Super == nil {
			return nil
		}
		res := r.g.ResolveType(ref.Scope, ref.Unit, recv.Local.Super.Name)
		return r.declared(recv.Local.Super, res, ref.Scope, ref.Unit)
	}
	if ref.Implicit {
		t := r.g.Type(recv.Res.ID)
		if recv.Res.Status != graph.Source || t == nil {
			return nil
		}
		if t.Synthetic {
			return t
		}
		for _, c := range r.g.EnclosingChain(t.ID) {
			if o := r.unresolvedSuper(c, preferClass, map[model.DeclID]struct{}{}); o != nil {
				return o
			}
		}
		return nil
	}
	switch recv.Res.Status {
	case graph.Source:
		t := r.g.Type(recv.Res.ID)
		if t == nil {
			return nil
		}
		if t.Synthetic {
			return t
		}
		return r.unresolvedSuper(t, preferClass, map[model.DeclID]struct{}{})
	case graph.Unresolved:
		if !recv.Known() {
			return nil
		}
		return r.declared(recv.Type, recv.Res, recv.Scope, recv.Unit)
	}
	return nil
}

// unresolvedSuper picks the unresolved or synthetic supertype of t that
// inherited members are attached to: the last listed such interface, else the
// superclass, else the same choice made for a source supertype.
func (r *Resolver) unresolvedSuper(t *model.TypeDecl, preferClass bool, seen map[model.DeclID]struct{}) *model.TypeDecl {
	if _, ok := seen[t.ID]; ok {
		return nil
	}
	seen[t.ID] = struct{}{}
	supers := r.g.Supertypes(t.ID)
	var class, iface *graph.SuperRef
	for i := range supers {
		s := &supers[i]
		if !r.openSuper(s) {
			continue
		}
		if s.Interface {
			iface = s
		} else {
			class = s
		}
	}
	pick := iface
	if pick == nil || (preferClass && class != nil) {
		pick = class
	}
	if pick != nil {
		st := r.declared(pick.Ref, pick.Resolution, t.Parent, r.g.Unit(t.ID))
		if st != nil && pick.Interface {
			r.makeInterface(st)
		}
		return st
	}
	for _, s := range supers {
		if s.Status == graph.Source {
			if o := r.unresolvedSuper(r.g.Type(s.ID), preferClass, seen); o != nil {
				return o
			}
		}
	}
	return nil
}

func (r *Resolver) openSuper(s *graph.SuperRef) bool {
	switch s.Status {
	case graph.Unresolved:
		return true
	case graph.Source:
		t := r.g.Type(s.ID)
		return t != nil && t.Synthetic
	}
	return false
}

// declared returns the type a written reference denotes, creating it when it
// is unresolved. Source types are returned only if synthetic.
func (r *Resolver) declared(ref *model.TypeRef, res graph.Resolution, scope model.DeclID, cu *model.CompilationUnit) *model.TypeDecl {
	switch res.Status {
	case graph.Source:
		if t := r.g.Type(res.ID); t != nil && t.Synthetic {
			return t
		}
		return nil
	case graph.Unresolved:
		return r.ensureType(r.place(ref.Name, res, scope, cu), len(ref.Args))
	}
	return nil
}

// valueType is the synthetic type of a value, created if unresolved.
func (r *Resolver) valueType(v bind.Value) *model.TypeDecl {
	if !v.Known() || v.Local != nil || v.TypeVar {
		return nil
	}
	return r.declared(v.Type, v.Res, v.Scope, v.Unit)
}
