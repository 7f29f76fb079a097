// Package slice computes which declarations a minimized program retains.
//
// Retention starts at the targets, whose bodies are kept, and follows every
// source-bound reference the binder reports until nothing new is reached.
// Declarations reached from a target are retained with empty bodies; the
// structural pass then adds the overrides and implementations that keep
// retained classes well formed.
package slice

import (
	"io"
	"log/slog"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/phobologic/jslice/internal/bind"
	"github.com/phobologic/jslice/internal/graph"
	"github.com/phobologic/jslice/internal/lang"
	"github.com/phobologic/jslice/internal/model"
)

// Mode says how a member is emitted.
type Mode uint8

const (
	Dropped Mode = iota
	Empty        // signature kept, body replaced
	Keep         // body kept verbatim
)

func (m Mode) String() string {
	return [...]string{"dropped", "empty", "keep"}[m]
}

// InitMode says what becomes of a retained field's initializer.
type InitMode uint8

const (
	InitDrop    InitMode = iota
	InitKeep             // initializer kept verbatim
	InitDefault          // initializer replaced by the type's default value
)

type taskKind uint8

const (
	taskHeader taskKind = iota
	taskSignature
	taskBody
	taskLeadingCall
)

type task struct {
	kind taskKind
	id   model.DeclID
}

// Slicer holds the retained sets of one run. Sets only grow.
type Slicer struct {
	g   *graph.Graph
	b   *bind.Binder
	log *slog.Logger

	types   *roaring.Bitmap
	members *roaring.Bitmap
	keep    *roaring.Bitmap

	done      [4]*roaring.Bitmap // processed ids per task kind
	constants map[model.DeclID]map[string]struct{}
	queue     []task
	refs      []*bind.Ref
}

// New returns an empty slicer over g. A nil logger discards output.
func New(g *graph.Graph, logger *slog.Logger) *Slicer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Slicer{
		g:         g,
		b:         bind.New(g),
		log:       logger,
		types:     roaring.New(),
		members:   roaring.New(),
		keep:      roaring.New(),
		constants: make(map[model.DeclID]map[string]struct{}),
	}
	s.resetDone()
	return s
}

func (s *Slicer) resetDone() {
	for i := range s.done {
		s.done[i] = roaring.New()
	}
}

// Seed retains the targets with their bodies.
func (s *Slicer) Seed(targets []model.DeclID) {
	for _, id := range targets {
		s.retainMember(id, Keep)
	}
}

// Run propagates retention to a fixpoint.
func (s *Slicer) Run() {
	for {
		s.drain()
		if !s.structural() {
			break
		}
	}
	s.log.Debug("slice complete",
		"types", s.types.GetCardinality(),
		"members", s.members.GetCardinality(),
		"kept_bodies", s.keep.GetCardinality(),
		"refs", len(s.refs))
}

// Extend re-binds all retained code after the graph has grown, so that names
// which now bind to synthetic declarations pull those in. Nothing retained
// before is dropped.
func (s *Slicer) Extend() {
	s.resetDone()
	s.refs = nil
	s.queue = s.queue[:0]
	it := s.types.Iterator()
	for it.HasNext() {
		id := model.DeclID(it.Next())
		s.enqueue(taskHeader, id)
		if t := s.g.Type(id); t != nil && t.Synthetic {
			s.retainAllMembers(t)
		}
	}
	it = s.members.Iterator()
	for it.HasNext() {
		s.enqueueMember(model.DeclID(it.Next()))
	}
	s.Run()
}

// Refs returns every reference bound from retained code in the latest pass.
func (s *Slicer) Refs() []*bind.Ref {
	return s.refs
}

// RetainsType reports whether the type is retained.
func (s *Slicer) RetainsType(id model.DeclID) bool {
	return s.types.Contains(uint32(id))
}

// Mode reports how a member is emitted.
func (s *Slicer) Mode(id model.DeclID) Mode {
	switch {
	case s.keep.Contains(uint32(id)):
		return Keep
	case s.members.Contains(uint32(id)):
		return Empty
	}
	return Dropped
}

// Types returns the retained type IDs in ascending order.
func (s *Slicer) Types() []model.DeclID {
	return ids(s.types)
}

// Members returns the retained member IDs in ascending order.
func (s *Slicer) Members() []model.DeclID {
	return ids(s.members)
}

func ids(bm *roaring.Bitmap) []model.DeclID {
	raw := bm.ToArray()
	out := make([]model.DeclID, len(raw))
	for i, v := range raw {
		out[i] = model.DeclID(v)
	}
	return out
}

// RetainsConstant reports whether an enum constant is referenced.
func (s *Slicer) RetainsConstant(typeID model.DeclID, name string) bool {
	_, ok := s.constants[typeID][name]
	return ok
}

// Size is the number of retained types and members.
func (s *Slicer) Size() uint64 {
	return s.types.GetCardinality() + s.members.GetCardinality()
}

func (s *Slicer) enqueue(kind taskKind, id model.DeclID) {
	if id == 0 || s.done[kind].Contains(uint32(id)) {
		return
	}
	s.done[kind].Add(uint32(id))
	s.queue = append(s.queue, task{kind: kind, id: id})
}

func (s *Slicer) enqueueMember(id model.DeclID) {
	s.enqueue(taskSignature, id)
	m := s.g.Member(id)
	if m == nil {
		return
	}
	switch {
	case s.keep.Contains(uint32(id)):
		s.enqueue(taskBody, id)
	case m.Kind == model.Field && s.FieldInit(id) == InitKeep:
		s.enqueue(taskBody, id)
	case m.Kind == model.Constructor:
		s.enqueue(taskLeadingCall, id)
	}
}

func (s *Slicer) drain() {
	for len(s.queue) > 0 {
		t := s.queue[0]
		s.queue = s.queue[1:]
		var refs []*bind.Ref
		switch t.kind {
		case taskHeader:
			refs = s.b.Header(t.id)
		case taskSignature:
			refs = s.b.Signature(t.id)
		case taskBody:
			refs = s.b.Body(t.id)
		case taskLeadingCall:
			refs = s.b.LeadingCall(t.id)
		}
		s.follow(refs)
	}
}

func (s *Slicer) follow(refs []*bind.Ref) {
	s.refs = append(s.refs, refs...)
	for _, r := range refs {
		if r.Res.Status != graph.Source {
			continue
		}
		switch r.Kind {
		case bind.RefType:
			s.retainType(r.Res.ID)
		case bind.RefMethod, bind.RefField:
			s.retainMember(r.Res.ID, Empty)
			for _, alt := range r.Alts {
				s.retainMember(alt, Empty)
			}
		case bind.RefNew, bind.RefCtorCall:
			if r.Res.ID != 0 {
				s.retainMember(r.Res.ID, Empty)
				for _, alt := range r.Alts {
					s.retainMember(alt, Empty)
				}
			} else if t := s.g.Lookup(r.Res.QName); t != nil {
				s.retainType(t.ID)
			}
		case bind.RefConstant:
			s.retainType(r.Res.ID)
			set, ok := s.constants[r.Res.ID]
			if !ok {
				set = make(map[string]struct{})
				s.constants[r.Res.ID] = set
			}
			set[r.Name] = struct{}{}
		}
	}
}

func (s *Slicer) retainType(id model.DeclID) {
	t := s.g.Type(id)
	if t == nil || !s.types.CheckedAdd(uint32(id)) {
		return
	}
	s.enqueue(taskHeader, id)
	if t.Parent != 0 {
		s.retainType(t.Parent)
	}
	switch {
	case t.Synthetic:
		s.retainAllMembers(t)
	case t.Kind == model.Annotation:
		// Elements may be set by any use of the annotation.
		for _, m := range t.Members {
			s.retainMember(m.ID, Empty)
		}
	}
}

func (s *Slicer) retainAllMembers(t *model.TypeDecl) {
	for _, m := range t.Members {
		s.retainMember(m.ID, Empty)
	}
}

func (s *Slicer) retainMember(id model.DeclID, mode Mode) {
	m := s.g.Member(id)
	if m == nil {
		return
	}
	if t := s.g.Type(m.Owner); t != nil && t.Kind == model.Enum && m.Kind == model.Constructor {
		// Constants are emitted without arguments, so enum constructors are
		// never needed.
		s.retainType(m.Owner)
		return
	}
	s.retainType(m.Owner)
	added := s.members.CheckedAdd(uint32(id))
	if mode == Keep && s.keep.CheckedAdd(uint32(id)) {
		added = true
	}
	if added {
		s.enqueueMember(id)
	}
}

// structural retains the declarations that retained classes need to stay
// well formed. It reports whether anything new was retained.
func (s *Slicer) structural() bool {
	before := s.Size()
	for _, id := range s.Members() {
		m := s.g.Member(id)
		if m == nil || m.Kind != model.Method || !m.HasOverride() {
			continue
		}
		if over := s.g.Overridden(id); len(over) > 0 {
			s.retainMember(over[0].ID, Empty)
		}
	}
	for _, id := range s.Types() {
		t := s.g.Type(id)
		if t == nil || t.IsAbstract() || t.Synthetic {
			continue
		}
		for _, ob := range s.g.MustImplement(id) {
			if ob.Implementation != nil && s.members.Contains(uint32(ob.Abstract.ID)) {
				s.retainMember(ob.Implementation.ID, Empty)
			}
		}
		s.retainLibraryOverrides(t)
	}
	return s.Size() != before || len(s.queue) > 0
}

// retainLibraryOverrides keeps the methods of a concrete class that override
// or implement a method of a non-source supertype.
func (s *Slicer) retainLibraryOverrides(t *model.TypeDecl) {
	var shapes []lang.MethodShape
	for _, a := range s.g.Ancestors(t.ID) {
		if a.Status == graph.Library {
			sh, _ := lang.AbstractMethods(a.QName)
			shapes = append(shapes, sh...)
		}
	}
	for _, m := range t.Members {
		if m.Kind != model.Method || m.IsStatic() {
			continue
		}
		if m.HasOverride() && len(s.g.Overridden(m.ID)) == 0 {
			s.retainMember(m.ID, Empty)
			continue
		}
		for _, sh := range shapes {
			if sh.Name == m.Name && sh.Arity == len(m.Params) {
				s.retainMember(m.ID, Empty)
				break
			}
		}
	}
}

// FieldInit decides what happens to a retained field's initializer.
func (s *Slicer) FieldInit(id model.DeclID) InitMode {
	m := s.g.Member(id)
	if m == nil || m.Kind != model.Field {
		return InitDrop
	}
	if m.Init != nil && s.keep.Contains(uint32(id)) {
		return InitKeep
	}
	if !m.IsFinal() {
		return InitDrop
	}
	if m.Init != nil {
		if m.Init.Expr != nil && ConstantLike(m.Init.Expr) {
			return InitKeep
		}
		return InitDefault
	}
	if !m.IsStatic() && s.assignedByKeptConstructor(m) {
		return InitDrop
	}
	return InitDefault
}

func (s *Slicer) assignedByKeptConstructor(f *model.Member) bool {
	owner := s.g.Type(f.Owner)
	if owner == nil {
		return false
	}
	for _, c := range owner.Members {
		if c.Kind != model.Constructor || !s.keep.Contains(uint32(c.ID)) || c.Body == nil {
			continue
		}
		assigned := false
		model.WalkStmts(c.Body.Stmts, func(st *model.Stmt) {
			if st.Kind == model.StmtExpr && assigns(st.X, f.Name) {
				assigned = true
			}
		})
		if assigned {
			return true
		}
	}
	return false
}

func assigns(e *model.Expr, name string) bool {
	if e == nil || e.Kind != model.ExprAssign || e.Op != "=" || e.X == nil {
		return false
	}
	switch e.X.Kind {
	case model.ExprName:
		return e.X.Name == name
	case model.ExprField:
		return e.X.Name == name && e.X.X != nil && e.X.X.Kind == model.ExprThis
	}
	return false
}

// ConstantLike reports whether an initializer is built only from literals
// and operators, so that keeping it pulls in nothing.
func ConstantLike(e *model.Expr) bool {
	if e == nil {
		return true
	}
	switch e.Kind {
	case model.ExprLiteral:
		return true
	case model.ExprUnary:
		return ConstantLike(e.X)
	case model.ExprBinary:
		return ConstantLike(e.X) && ConstantLike(e.Y)
	case model.ExprCond:
		return ConstantLike(e.X) && ConstantLike(e.Y) && ConstantLike(e.Z)
	case model.ExprCast:
		return e.Type != nil && (e.Type.IsPrimitive() || e.Type.Name == "String") && ConstantLike(e.X)
	}
	return false
}
