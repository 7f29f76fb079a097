package unsolved

import (
	"fmt"
	"strings"

	"github.com/phobologic/jslice/internal/bind"
	"github.com/phobologic/jslice/internal/graph"
	"github.com/phobologic/jslice/internal/lang"
	"github.com/phobologic/jslice/internal/model"
)

// FunctionalMarker is the annotation marking a synthetic functional interface.
const FunctionalMarker = "@java.lang.FunctionalInterface"

func (r *Resolver) add(owner *model.TypeDecl, m *model.Member) {
	m.Synthetic = true
	r.g.AddMember(owner.ID, m)
	r.changed(string(m.Kind), owner.QName+"."+m.Name)
}

// addMethod adds a method with a throwing body. Interface methods become
// default methods so implementors never gain obligations.
func (r *Resolver) addMethod(owner *model.TypeDecl, m *model.Member, static bool) {
	mods := []string{"public"}
	switch {
	case static:
		mods = append(mods, "static")
	case owner.IsInterface():
		mods = append(mods, "default")
	}
	if len(m.Modifiers) == 0 {
		m.Modifiers = mods
	}
	if m.Body == nil {
		m.Body = &model.Body{}
	}
	r.add(owner, m)
}

func (r *Resolver) addConstructor(t *model.TypeDecl, params []*model.Param) {
	r.add(t, &model.Member{
		Kind:      model.Constructor,
		Name:      t.Name,
		Modifiers: []string{"public"},
		Params:    params,
		Body:      &model.Body{},
	})
}

// overrideMethod gives a synthetic supertype the method that a source
// @Override method overrides.
func (r *Resolver) overrideMethod(owner *model.TypeDecl, tmpl *model.Member) {
	vars := r.g.TypeVarsInScope(tmpl)
	for _, m := range r.g.FindMethods(owner.ID, tmpl.Name, len(tmpl.Params)) {
		if graph.SameErasure(m, tmpl, r.g.TypeVarsInScope(m), vars) {
			return
		}
	}
	scope, cu := tmpl.Owner, r.g.Unit(tmpl.Owner)
	if scope == 0 {
		// Members of local and anonymous classes are not in the graph.
		scope = owner.ID
	}
	m := &model.Member{Kind: model.Method, Name: tmpl.Name}
	for i, p := range tmpl.Params {
		t := r.templateType(p.Type, vars, scope, cu)
		if p.Varargs {
			t = model.ArrayOf(t, 1)
		}
		m.Params = append(m.Params, &model.Param{Name: fmt.Sprintf("p%d", i), Type: t})
	}
	m.Return = r.templateType(tmpl.Return, vars, scope, cu)
	for _, th := range tmpl.Throws {
		m.Throws = append(m.Throws, r.templateType(th, vars, scope, cu))
	}
	vis := "public"
	if model.HasModifier(tmpl.Modifiers, "protected") && !owner.IsInterface() {
		vis = "protected"
	}
	m.Modifiers = []string{vis}
	if owner.IsInterface() {
		m.Modifiers = append(m.Modifiers, "default")
	}
	r.addMethod(owner, m, false)
}

func (r *Resolver) templateType(t *model.TypeRef, vars []string, scope model.DeclID, cu *model.CompilationUnit) *model.TypeRef {
	if t == nil {
		return model.NewRef("void")
	}
	if t.IsVoid() || t.Primitive {
		return t.Clone()
	}
	if graph.IsTypeVarName(t.Name, vars) {
		return model.ArrayOf(model.NewRef(objectType), t.Dims)
	}
	if q := r.qualify(t, scope, cu); q != nil {
		return q
	}
	if q := r.qualify(t.Erasure(), scope, cu); q != nil {
		return q
	}
	return model.ArrayOf(model.NewRef(objectType), t.Dims)
}

// convertible reports whether a synthetic type is still a plain class that can
// change kind.
func convertible(t *model.TypeDecl) bool {
	if !t.Synthetic || t.Kind != model.Class || t.Super != nil {
		return false
	}
	for _, m := range t.Members {
		if m.Kind == model.Constructor || (m.Kind == model.Field && !m.IsStatic()) {
			return false
		}
	}
	return true
}

func (r *Resolver) makeInterface(t *model.TypeDecl) {
	if t.IsInterface() || !convertible(t) {
		return
	}
	t.Kind = model.Interface
	for _, m := range t.Members {
		if m.Kind == model.Method && !m.IsStatic() && !model.HasModifier(m.Modifiers, "default") {
			m.Modifiers = append(m.Modifiers, "default")
		}
	}
	r.changed("interface", t.QName)
}

// makeFunctional turns a synthetic type into a functional interface whose
// single abstract method fits the lambda shape.
func (r *Resolver) makeFunctional(t *model.TypeDecl, shape bind.LambdaShape) {
	if model.HasModifier(t.Annotations, FunctionalMarker) {
		return
	}
	r.makeInterface(t)
	if t.Kind != model.Interface {
		return
	}
	arity := shape.Arity
	if arity < 0 {
		arity = 1
	}
	m := &model.Member{Kind: model.Method, Name: "apply", Modifiers: []string{"public"}, Return: model.NewRef("void")}
	if shape.Returns {
		m.Return = model.NewRef(objectType)
	}
	for i := 0; i < arity; i++ {
		m.Params = append(m.Params, &model.Param{Name: fmt.Sprintf("p%d", i), Type: model.NewRef(objectType)})
	}
	t.Annotations = append(t.Annotations, FunctionalMarker)
	r.add(t, m)
}

func (r *Resolver) exception(t *model.TypeDecl, root string) {
	if !t.Synthetic || t.Kind != model.Class || t.Super != nil {
		return
	}
	t.Super = model.NewRef(root)
	r.changed("supertype", t.QName+" extends "+root)
}

func (r *Resolver) addInterface(t *model.TypeDecl, ref *model.TypeRef) bool {
	if !t.Synthetic || t.Kind == model.Annotation {
		return false
	}
	for _, i := range t.Interfaces {
		if i.Name == ref.Name {
			return false
		}
	}
	t.Interfaces = append(t.Interfaces, ref)
	r.changed("supertype", t.QName+" implements "+ref.Name)
	return true
}

func (r *Resolver) closeable(t *model.TypeDecl) {
	if !r.addInterface(t, model.NewRef("java.lang.AutoCloseable")) || t.IsInterface() {
		return
	}
	if len(r.g.FindMethods(t.ID, "close", 0)) == 0 {
		r.addMethod(t, &model.Member{Kind: model.Method, Name: "close", Return: model.NewRef("void")}, false)
	}
}

func (r *Resolver) iterable(t *model.TypeDecl, el *model.TypeRef) {
	if !r.addInterface(t, iterableOf(el)) || t.IsInterface() {
		return
	}
	if len(r.g.FindMethods(t.ID, "iterator", 0)) == 0 {
		r.addMethod(t, &model.Member{Kind: model.Method, Name: "iterator", Return: model.NewRef("java.util.Iterator", el.Clone())}, false)
	}
}

// enumConstant turns a synthetic class into an enum and adds a constant.
func (r *Resolver) enumConstant(t *model.TypeDecl, name string) {
	if !t.Synthetic {
		return
	}
	if t.Kind != model.Enum {
		if !convertible(t) || len(t.Interfaces) > 0 {
			return
		}
		t.Kind = model.Enum
		r.changed("enum", t.QName)
	}
	if r.g.FindConstant(t.ID, name) != nil {
		return
	}
	t.Constants = append(t.Constants, &model.EnumConstant{Name: name})
	r.changed("constant", t.QName+"."+name)
}

// annotationType turns a synthetic type into an annotation type with the
// elements its use sets.
func (r *Resolver) annotationType(t *model.TypeDecl, ref *bind.Ref) {
	if t.Kind != model.Annotation {
		if !convertible(t) || len(t.Members) > 0 || len(t.Interfaces) > 0 {
			return
		}
		t.Kind = model.Annotation
		r.changed("annotation", t.QName)
	}
	for _, el := range annotationElements(ref.Annotation) {
		if t.Member(model.Method, el.name) != nil {
			continue
		}
		typ := r.annotationValueType(el.value, ref.Scope, ref.Unit)
		r.add(t, &model.Member{
			Kind:      model.Method,
			Name:      el.name,
			Modifiers: []string{"public"},
			Return:    typ,
			Default:   annotationDefault(typ),
		})
	}
}

type element struct {
	name  string
	value string
}

// annotationElements splits the arguments of an annotation written as
// @Name(a = 1, b = "x") or @Name(value).
func annotationElements(text string) []element {
	open := strings.Index(text, "(")
	if open < 0 || !strings.HasSuffix(text, ")") {
		return nil
	}
	inner := strings.TrimSpace(text[open+1 : len(text)-1])
	if inner == "" {
		return nil
	}
	var out []element
	for _, part := range splitTopLevel(inner) {
		name, value, ok := strings.Cut(part, "=")
		if !ok || strings.ContainsAny(strings.TrimSpace(name), " \"'({") {
			out = append(out, element{name: "value", value: strings.TrimSpace(part)})
			continue
		}
		out = append(out, element{name: strings.TrimSpace(name), value: strings.TrimSpace(value)})
	}
	return out
}

// splitTopLevel splits s on commas outside brackets and literals.
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	var quote rune
	for i, c := range s {
		switch {
		case quote != 0:
			if c == quote && (i == 0 || s[i-1] != '\\') {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(' || c == '{' || c == '[':
			depth++
		case c == ')' || c == '}' || c == ']':
			depth--
		case c == ',' && depth == 0:
			parts = append(parts, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	if tail := strings.TrimSpace(s[start:]); tail != "" {
		parts = append(parts, tail)
	}
	return parts
}

// annotationValueType infers an element type from the value written for it.
func (r *Resolver) annotationValueType(v string, scope model.DeclID, cu *model.CompilationUnit) *model.TypeRef {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return model.NewRef("java.lang.String")
	case strings.HasPrefix(v, `"`):
		return model.NewRef("java.lang.String")
	case strings.HasPrefix(v, "'"):
		return model.NewRef("char")
	case v == "true" || v == "false":
		return model.NewRef("boolean")
	case strings.HasSuffix(v, ".class"):
		return model.NewRef("java.lang.Class", &model.TypeRef{Wildcard: true})
	case strings.HasPrefix(v, "{"):
		inner := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(v, "{"), "}"))
		parts := splitTopLevel(inner)
		if len(parts) == 0 {
			return model.ArrayOf(model.NewRef("java.lang.String"), 1)
		}
		return model.ArrayOf(r.annotationValueType(parts[0], scope, cu), 1)
	case strings.HasPrefix(v, "@"):
		name := strings.TrimPrefix(v, "@")
		if i := strings.IndexAny(name, "( "); i >= 0 {
			name = name[:i]
		}
		if t := r.namedType(name, scope, cu); t != nil {
			if t.Synthetic && t.Kind != model.Annotation && convertible(t) && len(t.Members) == 0 {
				t.Kind = model.Annotation
				r.changed("annotation", t.QName)
			}
			return model.NewRef(t.QName)
		}
		return model.NewRef("java.lang.String")
	}
	if num := strings.TrimPrefix(v, "-"); num != "" && num[0] >= '0' && num[0] <= '9' {
		lower := strings.ToLower(num)
		switch {
		case strings.HasSuffix(lower, "l"):
			return model.NewRef("long")
		case strings.HasSuffix(lower, "f"):
			return model.NewRef("float")
		case strings.ContainsAny(lower, ".d") || (strings.Contains(lower, "e") && !strings.HasPrefix(lower, "0x")):
			return model.NewRef("double")
		}
		return model.NewRef("int")
	}
	// Type.CONSTANT names an enum constant.
	if owner, constant, ok := cutLast(v); ok && model.IsCapitalized(model.SimpleName(owner)) {
		res := r.g.ResolveType(scope, cu, owner)
		switch res.Status {
		case graph.Source, graph.Library:
			if t := r.g.Type(res.ID); t != nil && t.Synthetic {
				r.enumConstant(t, constant)
			}
			return model.NewRef(res.QName)
		}
		if t := r.ensureType(r.place(owner, res, scope, cu), 0); t != nil {
			r.enumConstant(t, constant)
			return model.NewRef(t.QName)
		}
	}
	return model.NewRef("java.lang.String")
}

func (r *Resolver) namedType(name string, scope model.DeclID, cu *model.CompilationUnit) *model.TypeDecl {
	res := r.g.ResolveType(scope, cu, name)
	switch res.Status {
	case graph.Source:
		return r.g.Type(res.ID)
	case graph.Library:
		return nil
	}
	return r.ensureType(r.place(name, res, scope, cu), 0)
}

func cutLast(s string) (before, after string, ok bool) {
	i := strings.LastIndex(s, ".")
	if i <= 0 || i == len(s)-1 {
		return "", "", false
	}
	return s[:i], s[i+1:], model.IsIdentifier(s[i+1:])
}

// annotationDefault gives synthetic elements a default so uses that omit them
// still compile.
func annotationDefault(t *model.TypeRef) string {
	switch {
	case t.Dims > 0:
		return "{}"
	case t.Primitive:
		return lang.DefaultValue(t.Name)
	case t.Name == "java.lang.String":
		return `""`
	case t.Name == "java.lang.Class":
		return "java.lang.Object.class"
	}
	return ""
}
