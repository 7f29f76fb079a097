package slice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/jslice/internal/graph"
	"github.com/phobologic/jslice/internal/model"
	"github.com/phobologic/jslice/internal/parse"
)

func buildGraph(t *testing.T, files map[string]string) *graph.Graph {
	t.Helper()
	var units []*model.CompilationUnit
	for path, src := range files {
		cu, err := parse.Source(context.Background(), src, path)
		require.NoError(t, err, path)
		units = append(units, cu)
	}
	g, err := graph.New(units)
	require.NoError(t, err)
	return g
}

func member(t *testing.T, g *graph.Graph, qname string, kind model.MemberKind, name string) *model.Member {
	t.Helper()
	td := g.Lookup(qname)
	require.NotNil(t, td, qname)
	m := td.Member(kind, name)
	require.NotNil(t, m, name)
	return m
}

func run(g *graph.Graph, targets ...*model.Member) *Slicer {
	s := New(g, nil)
	var ids []model.DeclID
	for _, m := range targets {
		ids = append(ids, m.ID)
	}
	s.Seed(ids)
	s.Run()
	return s
}

func TestTargetKeptCalleeEmptied(t *testing.T) {
	t.Parallel()

	g := buildGraph(t, map[string]string{
		"p/A.java": "package p; class A { int f() { return new B().g(); } int other() { return 0; } }",
		"p/B.java": "package p; class B { int g() { return h(); } int h() { return 2; } }",
		"p/C.java": "package p; class C { }",
	})
	f := member(t, g, "p.A", model.Method, "f")
	s := run(g, f)

	assert.Equal(t, Keep, s.Mode(f.ID))
	assert.Equal(t, Empty, s.Mode(member(t, g, "p.B", model.Method, "g").ID))
	assert.Equal(t, Dropped, s.Mode(member(t, g, "p.B", model.Method, "h").ID))
	assert.Equal(t, Dropped, s.Mode(member(t, g, "p.A", model.Method, "other").ID))
	assert.True(t, s.RetainsType(g.Lookup("p.A").ID))
	assert.True(t, s.RetainsType(g.Lookup("p.B").ID))
	assert.False(t, s.RetainsType(g.Lookup("p.C").ID))
}

func TestSignatureTypesRetained(t *testing.T) {
	t.Parallel()

	g := buildGraph(t, map[string]string{
		"p/A.java": "package p; class A { void f() { B.make(); } }",
		"p/B.java": "package p; class B { static R make() throws X { return null; } }",
		"p/R.java": "package p; class R { }",
		"p/X.java": "package p; class X extends Exception { }",
	})
	s := run(g, member(t, g, "p.A", model.Method, "f"))

	for _, q := range []string{"p.B", "p.R", "p.X"} {
		assert.True(t, s.RetainsType(g.Lookup(q).ID), q)
	}
}

func TestNestedTypeRetainsOuter(t *testing.T) {
	t.Parallel()

	g := buildGraph(t, map[string]string{
		"p/A.java":     "package p; class A { Outer.Inner f() { return null; } }",
		"p/Outer.java": "package p; class Outer { static class Inner { } static class Unused { } }",
	})
	s := run(g, member(t, g, "p.A", model.Method, "f"))

	assert.True(t, s.RetainsType(g.Lookup("p.Outer.Inner").ID))
	assert.True(t, s.RetainsType(g.Lookup("p.Outer").ID))
	assert.False(t, s.RetainsType(g.Lookup("p.Outer.Unused").ID))
}

func TestOverrideRetainsOverridden(t *testing.T) {
	t.Parallel()

	g := buildGraph(t, map[string]string{
		"p/Base.java": "package p; abstract class Base { abstract void run(); void unused() { } }",
		"p/Impl.java": "package p; class Impl extends Base { @Override void run() { } void go() { run(); } }",
	})
	s := run(g, member(t, g, "p.Impl", model.Method, "go"))

	assert.Equal(t, Empty, s.Mode(member(t, g, "p.Impl", model.Method, "run").ID))
	assert.Equal(t, Empty, s.Mode(member(t, g, "p.Base", model.Method, "run").ID))
	assert.Equal(t, Dropped, s.Mode(member(t, g, "p.Base", model.Method, "unused").ID))
}

func TestImplementationOfRetainedAbstractMethod(t *testing.T) {
	t.Parallel()

	g := buildGraph(t, map[string]string{
		"p/Shape.java":  "package p; interface Shape { double area(); double perimeter(); }",
		"p/Square.java": "package p; class Square implements Shape { public double area() { return 1; } public double perimeter() { return 4; } }",
		"p/Use.java":    "package p; class Use { double f(Shape s) { new Square(); return s.area(); } }",
	})
	s := run(g, member(t, g, "p.Use", model.Method, "f"))

	assert.Equal(t, Empty, s.Mode(member(t, g, "p.Shape", model.Method, "area").ID))
	assert.Equal(t, Empty, s.Mode(member(t, g, "p.Square", model.Method, "area").ID))
	assert.Equal(t, Dropped, s.Mode(member(t, g, "p.Shape", model.Method, "perimeter").ID))
	assert.Equal(t, Dropped, s.Mode(member(t, g, "p.Square", model.Method, "perimeter").ID))
}

func TestLibraryOverridesRetained(t *testing.T) {
	t.Parallel()

	g := buildGraph(t, map[string]string{
		"p/Task.java": "package p; class Task implements Runnable { public void run() { } public String toString() { return \"\"; } void other() { } }",
		"p/Use.java":  "package p; class Use { Object f() { return new Task(); } }",
	})
	s := run(g, member(t, g, "p.Use", model.Method, "f"))

	assert.Equal(t, Empty, s.Mode(member(t, g, "p.Task", model.Method, "run").ID))
	assert.Equal(t, Dropped, s.Mode(member(t, g, "p.Task", model.Method, "other").ID))
}

func TestIterableUnderUtilWildcardKeepsIterator(t *testing.T) {
	t.Parallel()

	g := buildGraph(t, map[string]string{
		"p/A.java": `package p;
import java.util.*;
class A<K> implements Iterable<K> {
    public Iterator<K> iterator() { return null; }
    void run() { }
    void other() { }
}`,
	})
	a := g.Lookup("p.A")
	supers := g.Supertypes(a.ID)
	require.Len(t, supers, 1)
	assert.Equal(t, "java.lang.Iterable", supers[0].QName)

	s := run(g, member(t, g, "p.A", model.Method, "run"))
	assert.Equal(t, Keep, s.Mode(member(t, g, "p.A", model.Method, "run").ID))
	assert.Equal(t, Empty, s.Mode(member(t, g, "p.A", model.Method, "iterator").ID))
	assert.Equal(t, Dropped, s.Mode(member(t, g, "p.A", model.Method, "other").ID))
}

func TestEnumConstantsAndConstructors(t *testing.T) {
	t.Parallel()

	g := buildGraph(t, map[string]string{
		"p/Color.java": "package p; enum Color { RED(1), GREEN(2), BLUE(3); final int v; Color(int v) { this.v = v; } }",
		"p/Use.java":   "package p; class Use { Color f() { return Color.GREEN; } }",
	})
	s := run(g, member(t, g, "p.Use", model.Method, "f"))

	color := g.Lookup("p.Color")
	assert.True(t, s.RetainsType(color.ID))
	assert.True(t, s.RetainsConstant(color.ID, "GREEN"))
	assert.False(t, s.RetainsConstant(color.ID, "RED"))
	assert.Equal(t, Dropped, s.Mode(member(t, g, "p.Color", model.Constructor, "Color").ID))
}

func TestEmptiedConstructorBindsLeadingCall(t *testing.T) {
	t.Parallel()

	g := buildGraph(t, map[string]string{
		"p/Base.java": "package p; class Base { Base(int x) { } Base(String s, int y) { } }",
		"p/Sub.java":  "package p; class Sub extends Base { Sub() { super(1); helper(); } void helper() { } }",
		"p/Use.java":  "package p; class Use { void f() { new Sub(); } }",
	})
	s := run(g, member(t, g, "p.Use", model.Method, "f"))

	base := g.Lookup("p.Base")
	var intCtor, strCtor *model.Member
	for _, m := range base.Members {
		if m.Kind == model.Constructor && m.Params[0].Type.Name == "int" {
			intCtor = m
		} else if m.Kind == model.Constructor {
			strCtor = m
		}
	}
	require.NotNil(t, intCtor)
	require.NotNil(t, strCtor)
	assert.Equal(t, Empty, s.Mode(intCtor.ID))
	assert.Equal(t, Dropped, s.Mode(strCtor.ID))
	assert.Equal(t, Dropped, s.Mode(member(t, g, "p.Sub", model.Method, "helper").ID))
}

func TestFieldInit(t *testing.T) {
	t.Parallel()

	g := buildGraph(t, map[string]string{
		"p/A.java": `package p;
class A {
    static final int LIMIT = 10 * 2;
    final String name = compute();
    final int count;
    final int seen;
    int plain = 5;
    A(int c) { this.count = c; }
    static String compute() { return ""; }
    int f() { return LIMIT + count + seen + plain + name.length(); }
}
`,
	})
	ctor := member(t, g, "p.A", model.Constructor, "A")
	s := run(g, member(t, g, "p.A", model.Method, "f"), ctor)

	assert.Equal(t, InitKeep, s.FieldInit(member(t, g, "p.A", model.Field, "LIMIT").ID))
	assert.Equal(t, InitDefault, s.FieldInit(member(t, g, "p.A", model.Field, "name").ID))
	assert.Equal(t, InitDrop, s.FieldInit(member(t, g, "p.A", model.Field, "count").ID))
	assert.Equal(t, InitDefault, s.FieldInit(member(t, g, "p.A", model.Field, "seen").ID))
	assert.Equal(t, InitDrop, s.FieldInit(member(t, g, "p.A", model.Field, "plain").ID))
	assert.Equal(t, Dropped, s.Mode(member(t, g, "p.A", model.Method, "compute").ID))
}

func TestTargetFieldKeepsInitializer(t *testing.T) {
	t.Parallel()

	g := buildGraph(t, map[string]string{
		"p/A.java": "package p; class A { Object o = B.make(); }",
		"p/B.java": "package p; class B { static Object make() { return null; } }",
	})
	o := member(t, g, "p.A", model.Field, "o")
	s := run(g, o)

	assert.Equal(t, InitKeep, s.FieldInit(o.ID))
	assert.Equal(t, Empty, s.Mode(member(t, g, "p.B", model.Method, "make").ID))
}

func TestExtendIsMonotonic(t *testing.T) {
	t.Parallel()

	g := buildGraph(t, map[string]string{
		"p/A.java": "package p; class A { int f() { return new B().g(); } }",
		"p/B.java": "package p; class B { int g() { return 1; } }",
	})
	s := run(g, member(t, g, "p.A", model.Method, "f"))
	before := s.Size()
	types, members := s.Types(), s.Members()

	s.Extend()

	assert.Equal(t, before, s.Size())
	assert.Equal(t, types, s.Types())
	assert.Equal(t, members, s.Members())
	assert.NotEmpty(t, s.Refs())
}

func TestConstantLike(t *testing.T) {
	t.Parallel()

	tests := []struct {
		init string
		want bool
	}{
		{"1", true},
		{`"a" + "b"`, true},
		{"-(1 << 3)", true},
		{"true ? 1 : 2", true},
		{"(int) 3L", true},
		{"compute()", false},
		{"new Object()", false},
		{"(Foo) null", false},
		{"OTHER", false},
	}
	for _, tt := range tests {
		cu, err := parse.Source(context.Background(), "class A { Object x = "+tt.init+"; }", "A.java")
		require.NoError(t, err)
		f := cu.Types[0].Members[0]
		require.NotNil(t, f.Init, tt.init)
		assert.Equal(t, tt.want, ConstantLike(f.Init.Expr), tt.init)
	}
}
