package typecorrect

import (
	"strings"

	"github.com/phobologic/jslice/internal/diag"
	"github.com/phobologic/jslice/internal/lang"
	"github.com/phobologic/jslice/internal/model"
	"github.com/phobologic/jslice/internal/unsolved"
)

// mismatch handles a value of type found used where required is expected.
func (l *Loop) mismatch(d diag.Diagnostic, found, required string, b *batch) {
	cu := l.unit(d.File)
	fTypes := l.synthetic(found)
	if base := baseName(required); base == "Throwable" || base == "Exception" {
		for _, t := range fTypes {
			b.add("rethrow "+t.QName, func() bool { return l.r.Rethrow(t) })
		}
		return
	}
	if l.demandFor(fTypes, required, cu, b) {
		return
	}
	if l.demandFor(l.synthetic(required), found, cu, b) {
		return
	}
	to := l.resolveText(required, cu)
	if to == nil || to.Primitive || to.Dims > 0 {
		return
	}
	for _, t := range fTypes {
		if unsolved.IsGeneratedName(t.Name) && len(l.r.UseSites(t.QName)) > 0 {
			continue
		}
		iface := l.isInterface(to.Name)
		b.add(t.QName+" <: "+to.Name, func() bool { return l.r.AddSupertype(t, to, iface) })
	}
}

// demandFor records that the generated types among ts are required to be
// want. It reports whether any demand was recorded.
func (l *Loop) demandFor(ts []*model.TypeDecl, want string, cu *model.CompilationUnit, b *batch) bool {
	ref := l.resolveText(want, cu)
	if ref == nil {
		return false
	}
	found := false
	for _, t := range ts {
		if !unsolved.IsGeneratedName(t.Name) || len(l.r.UseSites(t.QName)) == 0 {
			continue
		}
		b.demands = append(b.demands, demand{qname: t.QName, want: ref})
		found = true
	}
	return found
}

// operands picks operand types the operator accepts for generated types.
func (l *Loop) operands(d diag.Diagnostic, b *batch) {
	allowed := lang.OperandTypes(d.Operator)
	if len(allowed) == 0 {
		return
	}
	pick := func(other string) *model.TypeRef {
		o := baseName(other)
		if p, ok := lang.Unbox(o); ok {
			o = p
		}
		for _, a := range allowed {
			if a == o || model.SimpleName(a) == o {
				return model.NewRef(a)
			}
		}
		return model.NewRef(allowed[0])
	}
	first := l.generated(d.Found)
	second := l.generated(d.Required)
	for _, t := range first {
		want := pick(d.Required)
		if len(second) > 0 || d.Required == "" {
			want = model.NewRef(allowed[0])
		}
		b.demands = append(b.demands, demand{qname: t.QName, want: want})
	}
	for _, t := range second {
		want := pick(d.Found)
		if len(first) > 0 {
			want = model.NewRef(allowed[0])
		}
		b.demands = append(b.demands, demand{qname: t.QName, want: want})
	}
}

// forEach makes the iterated synthetic type an Iterable of the loop
// variable's type.
func (l *Loop) forEach(d diag.Diagnostic, b *batch) {
	cu := l.unit(d.File)
	el := model.NewRef(lang.ObjectType)
	if text := diag.LoopVariableType(d.Source); text != "" && text != "var" {
		if r := l.resolveText(text, cu); r != nil {
			el = r
			if r.IsPrimitive() {
				if boxed, ok := lang.Box(r.Name); ok {
					el = model.NewRef(boxed)
				}
			}
		}
	}
	for _, t := range l.synthetic(d.Found) {
		b.add(t.QName+" iterable", func() bool { return l.r.MakeIterable(t, el) })
	}
}

func (l *Loop) exception(d diag.Diagnostic, b *batch) {
	for _, t := range l.synthetic(d.Exception) {
		b.add("rethrow "+t.QName, func() bool { return l.r.Rethrow(t) })
	}
}

// missingOverride gives a synthetic supertype's abstract method a body, or
// stubs the method into a synthetic implementor.
func (l *Loop) missingOverride(d diag.Diagnostic, b *batch) {
	name, params := diag.MethodName(d.Method)
	planned := false
	for _, s := range l.synthetic(d.Super) {
		if model.HasModifier(s.Annotations, unsolved.FunctionalMarker) {
			continue
		}
		for _, m := range s.Members {
			if m.Kind == model.Method && m.Name == name && len(m.Params) == len(params) && m.IsAbstract() {
				b.add("unabstract "+s.QName+"."+m.Name, func() bool { return l.r.Unabstract(m) })
				planned = true
			}
		}
	}
	if planned {
		return
	}
	for _, c := range l.synthetic(d.Class) {
		cu := l.g.Unit(c.ID)
		ps := l.resolveAll(params, cu)
		ret := l.abstractReturn(d.Super, name, len(params))
		b.add("stub "+c.QName+"."+name, func() bool { return l.r.AddMethod(c, name, ps, ret) })
	}
}

// platformReturns are the result types of the abstract methods in
// lang.AbstractMethods.
var platformReturns = map[string]string{
	"run": "void", "compareTo": "int", "compare": "int", "close": "void",
	"length": "int", "charAt": "char", "hasNext": "boolean", "accept": "void",
	"test": "boolean", "getAsBoolean": "boolean",
}

// abstractReturn finds the declared result type of the abstract method a
// stub must implement. nil means unknown.
func (l *Loop) abstractReturn(super, name string, arity int) *model.TypeRef {
	for _, t := range l.g.TypesBySimpleName(baseName(super)) {
		for _, m := range t.Members {
			if m.Kind != model.Method || m.Name != name || len(m.Params) != arity || m.Return == nil {
				continue
			}
			if m.Return.Primitive {
				return m.Return.Clone()
			}
			res := l.g.ResolveType(t.ID, nil, m.Return.Name)
			if res.Found() {
				return &model.TypeRef{Name: res.QName, Dims: m.Return.Dims}
			}
			return nil
		}
	}
	if p, ok := platformReturns[name]; ok {
		for _, q := range []string{"java.lang.", "java.util.", "java.util.function.", "java.util.concurrent.", "java.io."} {
			if shapes, ok := lang.AbstractMethods(q + baseName(super)); ok {
				for _, s := range shapes {
					if s.Name == name && s.Arity == arity {
						return model.NewRef(p)
					}
				}
			}
		}
	}
	return nil
}

// doesNotOverride gives a synthetic supertype the method an @Override method
// at the diagnostic's line overrides.
func (l *Loop) doesNotOverride(d diag.Diagnostic, b *batch) {
	m := l.memberAt(d.File, d.Line)
	if m == nil || !l.g.UnresolvedAncestor(m.Owner) {
		return
	}
	b.add("override "+m.Signature(), func() bool { return l.r.OverrideInSuper(m) })
}

// cannotFind routes an unknown class back to the resolver and adds unknown
// members to synthetic locations.
func (l *Loop) cannotFind(d diag.Diagnostic, b *batch) {
	cu := l.unit(d.File)
	switch d.SymbolKind {
	case "class", "interface":
		name := baseName(d.Symbol)
		if d.LocationKind == "package" {
			name = d.Location + "." + name
		}
		l.ensureType(name, cu, b)
	case "method":
		name, params := diag.MethodName(d.Symbol)
		ps := l.resolveAll(params, cu)
		for _, t := range l.locationTypes(d) {
			b.add("method "+t.QName+"."+name, func() bool {
				owner := l.r.InheritedOwner(t, false)
				return owner != nil && l.r.AddMethod(owner, name, ps, nil)
			})
		}
	case "variable":
		if model.IsCapitalized(d.Symbol) && !strings.Contains(d.Location, " of type ") {
			if cu != nil && !l.g.ResolveType(0, cu, d.Symbol).Found() {
				l.ensureType(d.Symbol, cu, b)
				return
			}
		}
		for _, t := range l.locationTypes(d) {
			b.add("field "+t.QName+"."+d.Symbol, func() bool {
				owner := l.r.InheritedOwner(t, true)
				return owner != nil && l.r.AddField(owner, d.Symbol)
			})
		}
	}
}

func (l *Loop) ensureType(name string, cu *model.CompilationUnit, b *batch) {
	if cu == nil || l.g.ResolveType(0, cu, name).Found() {
		return
	}
	b.add("type "+name, func() bool { return l.r.EnsureType(name, cu) != nil })
}

// arguments adds the overload or constructor a call site needs to a
// synthetic type.
func (l *Loop) arguments(d diag.Diagnostic, b *batch) {
	cu := l.unit(d.File)
	args := l.resolveAll(diag.SplitTypes(d.Found), cu)
	for _, t := range l.synthetic(d.Location) {
		if d.SymbolKind == "constructor" {
			b.add("constructor "+t.QName, func() bool { return l.r.AddConstructor(t, args) })
			continue
		}
		name := d.Symbol
		b.add("overload "+t.QName+"."+name, func() bool { return l.r.AddMethod(t, name, args, nil) })
	}
}

// locationTypes returns the types a member lookup happened in that can gain
// members: synthetic types, and source types with an unresolved ancestor.
func (l *Loop) locationTypes(d diag.Diagnostic) []*model.TypeDecl {
	var name string
	switch d.LocationKind {
	case "class", "interface", "enum":
		name = d.Location
	case "variable":
		_, typ, ok := strings.Cut(d.Location, " of type ")
		if !ok {
			return nil
		}
		name = typ
	default:
		return nil
	}
	var out []*model.TypeDecl
	for _, t := range l.g.TypesBySimpleName(baseName(name)) {
		if t.Synthetic || l.g.UnresolvedAncestor(t.ID) {
			out = append(out, t)
		}
	}
	return out
}

// synthetic returns the synthetic types whose simple name matches the type
// text. Same-named synthetic types in different packages all match.
func (l *Loop) synthetic(text string) []*model.TypeDecl {
	name := baseName(text)
	if name == "" {
		return nil
	}
	var out []*model.TypeDecl
	for _, t := range l.g.TypesBySimpleName(name) {
		if t.Synthetic {
			out = append(out, t)
		}
	}
	return out
}

func (l *Loop) generated(text string) []*model.TypeDecl {
	var out []*model.TypeDecl
	for _, t := range l.synthetic(text) {
		if unsolved.IsGeneratedName(t.Name) && len(l.r.UseSites(t.QName)) > 0 {
			out = append(out, t)
		}
	}
	return out
}

func (l *Loop) isSyntheticClass(qname string) bool {
	t := l.g.Lookup(qname)
	return t != nil && t.Synthetic && t.Kind == model.Class
}

func (l *Loop) isInterface(qname string) bool {
	if t := l.g.Lookup(qname); t != nil {
		return t.IsInterface()
	}
	return lang.IsPlatformInterface(qname)
}

// unit returns the compilation unit rendered to path.
func (l *Loop) unit(path string) *model.CompilationUnit {
	for _, cu := range l.g.Units() {
		if cu.Path == path {
			return cu
		}
	}
	return nil
}

// memberAt finds the method declared at a line of a unit.
func (l *Loop) memberAt(path string, line int) *model.Member {
	cu := l.unit(path)
	if cu == nil {
		return nil
	}
	var found *model.Member
	var walk func(ts []*model.TypeDecl)
	walk = func(ts []*model.TypeDecl) {
		for _, t := range ts {
			for _, m := range t.Members {
				if m.Kind == model.Method && m.Line == line && found == nil {
					found = m
				}
			}
			walk(t.Nested)
		}
	}
	walk(cu.Types)
	return found
}

func (l *Loop) resolveAll(texts []string, cu *model.CompilationUnit) []*model.TypeRef {
	out := make([]*model.TypeRef, len(texts))
	for i, t := range texts {
		if out[i] = l.resolveText(t, cu); out[i] == nil {
			out[i] = model.NewRef(lang.ObjectType)
		}
	}
	return out
}

// resolveText turns a type as javac prints it into a qualified reference.
// It returns nil if any name in it cannot be resolved.
func (l *Loop) resolveText(text string, cu *model.CompilationUnit) *model.TypeRef {
	r := parseTypeText(text)
	if r == nil {
		return nil
	}
	ok := true
	r.Walk(func(t *model.TypeRef) {
		if t.Primitive {
			return
		}
		q := l.qualifyName(t.Name, cu)
		if q == "" {
			ok = false
			return
		}
		t.Name = q
	})
	if !ok {
		return nil
	}
	return r
}

func (l *Loop) qualifyName(name string, cu *model.CompilationUnit) string {
	if cu != nil {
		if res := l.g.ResolveType(0, cu, name); res.Found() {
			return res.QName
		}
	}
	if t := l.g.Lookup(name); t != nil {
		return t.QName
	}
	if ts := l.synthetic(name); len(ts) > 0 && !strings.Contains(name, ".") {
		return ts[0].QName
	}
	if q, ok := lang.JavaLang(name); ok {
		return q
	}
	if strings.Contains(name, ".") && l.g.IsLibraryType(name) {
		return name
	}
	return ""
}

// baseName strips type arguments and array brackets from javac type text
// and returns the simple name.
func baseName(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexAny(text, "<["); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimSuffix(text, "...")
	return model.SimpleName(strings.TrimSpace(text))
}
