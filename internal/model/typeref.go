package model

import (
	"strings"
	"unicode"
)

// TypeRef is a use of a type name: a field, parameter, or return type, an
// extends/implements entry, a type argument, a catch parameter, a cast, an
// instanceof operand, or a bound.
type TypeRef struct {
	Name      string
	Args      []*TypeRef
	Dims      int
	Primitive bool
	Wildcard  bool
	BoundKind string
	Bound     *TypeRef
}

var primitives = map[string]struct{}{
	"boolean": {}, "byte": {}, "char": {}, "short": {}, "int": {},
	"long": {}, "float": {}, "double": {}, "void": {},
}

// IsPrimitiveName reports whether name is a primitive type keyword or void.
func IsPrimitiveName(name string) bool {
	_, ok := primitives[name]
	return ok
}

// NewRef builds a reference to a named type, marking primitives.
func NewRef(name string, args ...*TypeRef) *TypeRef {
	return &TypeRef{Name: name, Args: args, Primitive: IsPrimitiveName(name)}
}

// ArrayOf returns a copy of r with dims additional array dimensions.
func ArrayOf(r *TypeRef, dims int) *TypeRef {
	c := r.Clone()
	c.Dims += dims
	return c
}

// IsVoid reports whether the reference is the void pseudo-type.
func (r *TypeRef) IsVoid() bool {
	return r != nil && r.Name == "void" && r.Dims == 0
}

// IsPrimitive reports whether the reference is a non-array primitive.
func (r *TypeRef) IsPrimitive() bool {
	return r != nil && r.Primitive && r.Dims == 0
}

// IsQualified reports whether the written name contains a dot.
func (r *TypeRef) IsQualified() bool {
	return strings.Contains(r.Name, ".")
}

// Simple returns the last segment of the written name.
func (r *TypeRef) Simple() string {
	return SimpleName(r.Name)
}

// Element returns the component type of an array reference.
func (r *TypeRef) Element() *TypeRef {
	c := r.Clone()
	if c.Dims > 0 {
		c.Dims--
	}
	return c
}

// Erasure returns the reference without type arguments, keeping array depth.
func (r *TypeRef) Erasure() *TypeRef {
	return &TypeRef{Name: r.Name, Dims: r.Dims, Primitive: r.Primitive}
}

// Clone returns a deep copy.
func (r *TypeRef) Clone() *TypeRef {
	if r == nil {
		return nil
	}
	c := *r
	if r.Args != nil {
		c.Args = make([]*TypeRef, len(r.Args))
		for i, a := range r.Args {
			c.Args[i] = a.Clone()
		}
	}
	c.Bound = r.Bound.Clone()
	return &c
}

// Walk calls fn for r and every nested type argument and bound.
func (r *TypeRef) Walk(fn func(*TypeRef)) {
	if r == nil {
		return
	}
	if !r.Wildcard {
		fn(r)
	}
	for _, a := range r.Args {
		a.Walk(fn)
	}
	r.Bound.Walk(fn)
}

// Equal reports structural equality of the written forms.
func (r *TypeRef) Equal(o *TypeRef) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.String() == o.String()
}

// String renders the reference as Java source.
func (r *TypeRef) String() string {
	if r == nil {
		return ""
	}
	var b strings.Builder
	r.write(&b)
	return b.String()
}

func (r *TypeRef) write(b *strings.Builder) {
	if r.Wildcard {
		b.WriteString("?")
		if r.Bound != nil {
			b.WriteString(" " + r.BoundKind + " ")
			r.Bound.write(b)
		}
		return
	}
	b.WriteString(r.Name)
	if r.Args != nil {
		b.WriteString("<")
		for i, a := range r.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			a.write(b)
		}
		b.WriteString(">")
	}
	for i := 0; i < r.Dims; i++ {
		b.WriteString("[]")
	}
}

// SimpleName returns the last dot-separated segment of a name.
func SimpleName(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}

// Qualifier returns everything before the last dot, or "".
func Qualifier(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[:i]
	}
	return ""
}

// Qualify joins a package (possibly empty) and a name.
func Qualify(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}

// IsCapitalized reports whether the first rune of s is upper case.
func IsCapitalized(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}

// Capitalize upper-cases the first rune of s.
func Capitalize(s string) string {
	for i, r := range s {
		return string(unicode.ToUpper(r)) + s[i+len(string(r)):]
	}
	return s
}

// IsIdentifier reports whether s is a legal Java identifier.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || r == '$' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	_, reserved := keywords[s]
	return !reserved
}

var keywords = map[string]struct{}{
	"abstract": {}, "assert": {}, "boolean": {}, "break": {}, "byte": {}, "case": {},
	"catch": {}, "char": {}, "class": {}, "const": {}, "continue": {}, "default": {},
	"do": {}, "double": {}, "else": {}, "enum": {}, "extends": {}, "final": {},
	"finally": {}, "float": {}, "for": {}, "goto": {}, "if": {}, "implements": {},
	"import": {}, "instanceof": {}, "int": {}, "interface": {}, "long": {}, "native": {},
	"new": {}, "package": {}, "private": {}, "protected": {}, "public": {}, "return": {},
	"short": {}, "static": {}, "strictfp": {}, "super": {}, "switch": {},
	"synchronized": {}, "this": {}, "throw": {}, "throws": {}, "transient": {},
	"try": {}, "void": {}, "volatile": {}, "while": {}, "true": {}, "false": {}, "null": {},
}
