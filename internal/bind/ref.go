// Package bind resolves the names used in declarations and bodies against the
// declaration graph. Every use is reported as a Ref that is bound to a source
// declaration, bound to the platform or an auxiliary library, or unresolved
// together with the context it was used in.
package bind

import (
	"github.com/phobologic/jslice/internal/graph"
	"github.com/phobologic/jslice/internal/model"
)

// RefKind is the kind of name a Ref reports.
type RefKind uint8

const (
	RefType RefKind = iota
	RefMethod
	RefField
	RefNew
	RefCtorCall
	RefConstant
)

func (k RefKind) String() string {
	return [...]string{"type", "method", "field", "constructor", "constructor-call", "constant"}[k]
}

// LambdaShape describes a lambda expression or method reference.
type LambdaShape struct {
	Arity   int
	Returns bool
}

// Value is the static type of an expression, as far as the binder knows it.
type Value struct {
	Type    *model.TypeRef   // as written in Scope; nil when unknown
	Res     graph.Resolution // resolution of the erased type name
	Scope   model.DeclID
	Unit    *model.CompilationUnit
	TypeVar bool
	Static  bool // the expression names a type, not a value
	Null    bool
	Lambda  *LambdaShape
	Local   *model.TypeDecl // local or anonymous class
	Ref     *Ref            // the reference this expression produced, if any
}

// Known reports whether the type is known.
func (v Value) Known() bool {
	return v.Type != nil
}

// IsPrimitive reports whether the value has a non-array primitive type.
func (v Value) IsPrimitive() bool {
	return v.Type.IsPrimitive()
}

// QName returns the resolved qualified name of a known class-typed value, or
// the primitive keyword.
func (v Value) QName() string {
	if v.Type == nil {
		return ""
	}
	if v.Type.Primitive {
		return v.Type.Name
	}
	return v.Res.QName
}

// Usage is the context a reference appears in.
type Usage struct {
	Expected   *Value
	Condition  bool
	Discarded  bool
	Deref      bool
	Assigned   bool
	Thrown     bool
	Caught     bool
	Declared   bool
	Resource   bool
	Iterated   bool
	Element    *Value
	Extends    bool
	Implements bool
	Annotation bool
	Override   bool
	Lambda     *LambdaShape
}

// Ref is one use of a name.
type Ref struct {
	Kind RefKind
	Name string
	// Res is the binding: for types, the type; for members, Status and the
	// ID of the bound member (zero for library members).
	Res  graph.Resolution
	Alts []model.DeclID // further overload candidates
	Type *model.TypeRef // RefType: the reference as written
	// Receiver is the type declaring (or expected to declare) a member.
	Receiver Value
	Implicit bool // unqualified member use
	Static   bool
	Super    bool // RefCtorCall: super(...) rather than this(...)
	Args     []Value
	// Member is the overridden-method template for Usage.Override refs and
	// the annotation text for annotation type refs.
	Member     *model.Member
	Annotation string
	Use        Usage
	From       model.DeclID // member or type whose code contains the use
	Scope      model.DeclID
	Unit       *model.CompilationUnit
	Line       int
}

// Unresolved reports whether the ref names nothing known.
func (r *Ref) Unresolved() bool {
	return r.Res.Status == graph.Unresolved
}
