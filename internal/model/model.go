// Package model defines the declaration model shared by every jslice stage.
package model

import (
	"strings"
)

// DeclID addresses a type or member declaration inside a graph. Zero means none.
type DeclID uint32

// TypeKind indicates the syntactic kind of a type declaration.
type TypeKind string

const (
	Class      TypeKind = "class"
	Interface  TypeKind = "interface"
	Enum       TypeKind = "enum"
	Annotation TypeKind = "@interface"
	Record     TypeKind = "record"
)

// MemberKind indicates the syntactic kind of a member declaration.
type MemberKind string

const (
	Method      MemberKind = "method"
	Constructor MemberKind = "constructor"
	Field       MemberKind = "field"
)

// CompilationUnit is one input file, or one fabricated file holding a synthetic
// top-level type.
type CompilationUnit struct {
	Path      string
	Package   string
	Imports   []*Import
	Types     []*TypeDecl
	Synthetic bool
}

// Import is a single import declaration. For wildcard imports Path is the
// package (or type, for static wildcards) being imported from.
type Import struct {
	Path     string
	Static   bool
	Wildcard bool
	Line     int
}

// Name returns the simple name an import introduces, or "" for wildcards.
func (i *Import) Name() string {
	if i.Wildcard {
		return ""
	}
	return SimpleName(i.Path)
}

// Container returns the part of the import path that names where the imported
// symbol lives: the package for type imports, the type for static imports.
func (i *Import) Container() string {
	if i.Wildcard {
		return i.Path
	}
	return Qualifier(i.Path)
}

// String renders the import as Java source.
func (i *Import) String() string {
	var b strings.Builder
	b.WriteString("import ")
	if i.Static {
		b.WriteString("static ")
	}
	b.WriteString(i.Path)
	if i.Wildcard {
		b.WriteString(".*")
	}
	b.WriteString(";")
	return b.String()
}

// TypeDecl is a class, interface, enum, annotation, or record declaration.
type TypeDecl struct {
	ID          DeclID
	Parent      DeclID
	Name        string
	QName       string
	Package     string
	Kind        TypeKind
	Modifiers   []string
	Annotations []string
	TypeParams  []*TypeParam
	Super       *TypeRef
	Interfaces  []*TypeRef
	Members     []*Member
	Nested      []*TypeDecl
	Constants   []*EnumConstant
	Components  []*Param
	Synthetic   bool
	Line        int
}

// IsInterface reports whether the type is an interface or annotation type.
func (t *TypeDecl) IsInterface() bool {
	return t.Kind == Interface || t.Kind == Annotation
}

// IsAbstract reports whether the type may leave methods unimplemented.
func (t *TypeDecl) IsAbstract() bool {
	return t.IsInterface() || HasModifier(t.Modifiers, "abstract")
}

// IsStatic reports whether a nested type is static (explicitly or implicitly).
func (t *TypeDecl) IsStatic() bool {
	return t.Kind != Class || HasModifier(t.Modifiers, "static")
}

// Supertypes returns the superclass (if any) followed by the superinterfaces.
func (t *TypeDecl) Supertypes() []*TypeRef {
	var out []*TypeRef
	if t.Super != nil {
		out = append(out, t.Super)
	}
	return append(out, t.Interfaces...)
}

// Member returns the first member with the given kind and name.
func (t *TypeDecl) Member(kind MemberKind, name string) *Member {
	for _, m := range t.Members {
		if m.Kind == kind && m.Name == name {
			return m
		}
	}
	return nil
}

// NestedType returns the directly nested type with the given simple name.
func (t *TypeDecl) NestedType(name string) *TypeDecl {
	for _, n := range t.Nested {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// TypeParamNames returns the names of the declared type parameters.
func (t *TypeDecl) TypeParamNames() []string {
	return typeParamNames(t.TypeParams)
}

// EnumConstant is one constant of an enum declaration.
type EnumConstant struct {
	Name string
	Line int
}

// TypeParam is a declared type variable with optional bounds.
type TypeParam struct {
	Name   string
	Bounds []*TypeRef
}

// String renders the type parameter as Java source.
func (p *TypeParam) String() string {
	if len(p.Bounds) == 0 {
		return p.Name
	}
	parts := make([]string, len(p.Bounds))
	for i, b := range p.Bounds {
		parts[i] = b.String()
	}
	return p.Name + " extends " + strings.Join(parts, " & ")
}

// Param is a method, constructor, lambda, or record parameter.
type Param struct {
	Name        string
	Type        *TypeRef
	Varargs     bool
	Modifiers   []string
	Annotations []string
}

// Member is a method, constructor, or field.
type Member struct {
	ID          DeclID
	Owner       DeclID
	Kind        MemberKind
	Name        string
	Modifiers   []string
	Annotations []string
	TypeParams  []*TypeParam
	Params      []*Param
	Return      *TypeRef
	Type        *TypeRef
	Throws      []*TypeRef
	Body        *Body
	Init        *Body
	Default     string
	Compact     bool // record constructor written without a parameter list
	Synthetic   bool
	Line        int
}

// IsStatic reports whether the member carries the static modifier.
func (m *Member) IsStatic() bool {
	return HasModifier(m.Modifiers, "static")
}

// IsAbstract reports whether the member has no body to run: abstract methods and
// interface methods that are neither default, static, nor private.
func (m *Member) IsAbstract() bool {
	if m.Kind != Method {
		return false
	}
	return m.Body == nil && !HasModifier(m.Modifiers, "native")
}

// IsFinal reports whether the member carries the final modifier.
func (m *Member) IsFinal() bool {
	return HasModifier(m.Modifiers, "final")
}

// HasOverride reports whether the member is annotated @Override.
func (m *Member) HasOverride() bool {
	for _, a := range m.Annotations {
		if a == "@Override" || a == "@java.lang.Override" {
			return true
		}
	}
	return false
}

// IsVarargs reports whether the last parameter is variadic.
func (m *Member) IsVarargs() bool {
	return len(m.Params) > 0 && m.Params[len(m.Params)-1].Varargs
}

// Accepts reports whether a call with n arguments can bind to the member by arity.
func (m *Member) Accepts(n int) bool {
	if m.IsVarargs() {
		return n >= len(m.Params)-1
	}
	return n == len(m.Params)
}

// TypeParamNames returns the names of the member's own type parameters.
func (m *Member) TypeParamNames() []string {
	return typeParamNames(m.TypeParams)
}

// Signature renders a compact name(ParamTypes) form used in logs and reports.
func (m *Member) Signature() string {
	if m.Kind == Field {
		return m.Name
	}
	parts := make([]string, len(m.Params))
	for i, p := range m.Params {
		s := p.Type.String()
		if p.Varargs {
			s += "..."
		}
		parts[i] = s
	}
	return m.Name + "(" + strings.Join(parts, ",") + ")"
}

// Body holds the comment-stripped source text of a block or expression together
// with its IR.
type Body struct {
	Text  string
	Stmts []*Stmt
	Expr  *Expr
}

// HasModifier reports whether mods contains the given keyword.
func HasModifier(mods []string, want string) bool {
	for _, m := range mods {
		if m == want {
			return true
		}
	}
	return false
}

func typeParamNames(params []*TypeParam) []string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return names
}
