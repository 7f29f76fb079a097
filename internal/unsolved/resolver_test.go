package unsolved

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/jslice/internal/graph"
	"github.com/phobologic/jslice/internal/model"
	"github.com/phobologic/jslice/internal/parse"
	"github.com/phobologic/jslice/internal/slice"
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

// synthesize slices from qname.method and alternates slicing and synthesis
// until synthesis makes no change.
func synthesize(t *testing.T, g *graph.Graph, qname, method string) (*slice.Slicer, *Resolver) {
	t.Helper()
	td := g.Lookup(qname)
	require.NotNil(t, td, qname)
	m := td.Member(model.Method, method)
	require.NotNil(t, m, method)

	s := slice.New(g, nil)
	s.Seed([]model.DeclID{m.ID})
	s.Run()
	r := New(g, nil)
	for i := 0; i < 10; i++ {
		if r.Resolve(s.Refs()) == 0 {
			return s, r
		}
		s.Extend()
	}
	t.Fatal("synthesis did not converge")
	return nil, nil
}

func synthetic(t *testing.T, g *graph.Graph, qname string) *model.TypeDecl {
	t.Helper()
	td := g.Lookup(qname)
	require.NotNil(t, td, qname)
	require.True(t, td.Synthetic, qname)
	return td
}

func methodNamed(t *testing.T, td *model.TypeDecl, name string) *model.Member {
	t.Helper()
	m := td.Member(model.Method, name)
	require.NotNil(t, m, "%s.%s", td.QName, name)
	return m
}

func TestImportedTypeGetsCalledMethods(t *testing.T) {
	t.Parallel()

	g := buildGraph(t, map[string]string{
		"p/A.java": `package p;
import com.ext.Foo;
class A {
    void f() {
        Foo x = Foo.make(1);
        x.run();
    }
}
`,
	})
	synthesize(t, g, "p.A", "f")

	foo := synthetic(t, g, "com.ext.Foo")
	assert.Equal(t, "com.ext", foo.Package)

	mk := methodNamed(t, foo, "make")
	assert.True(t, mk.IsStatic())
	require.Len(t, mk.Params, 1)
	assert.Equal(t, "int", mk.Params[0].Type.Name)
	assert.Equal(t, "com.ext.Foo", mk.Return.Name)

	run := methodNamed(t, foo, "run")
	assert.False(t, run.IsStatic())
	assert.True(t, run.Return.IsVoid())
}

func TestSimpleNamePlacement(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		src   string
		qname string
	}{
		{
			name:  "same package",
			src:   "package p; class A { void f(Bar b) { } }",
			qname: "p.Bar",
		},
		{
			name:  "first non-platform wildcard",
			src:   "package p; import java.util.*; import org.x.*; import org.y.*; class A { void f(Bar b) { } }",
			qname: "org.x.Bar",
		},
		{
			name:  "qualified",
			src:   "package p; class A { void f(org.z.Bar b) { } }",
			qname: "org.z.Bar",
		},
		{
			name:  "nested in imported",
			src:   "package p; import org.q.Outer; class A { void f(Outer.Bar b) { } }",
			qname: "org.q.Outer.Bar",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := buildGraph(t, map[string]string{"p/A.java": tt.src})
			synthesize(t, g, "p.A", "f")
			synthetic(t, g, tt.qname)
		})
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	t.Parallel()

	g := buildGraph(t, map[string]string{
		"p/A.java": `package p;
import com.ext.Svc;
class A {
    String f(Svc s) {
        return s.name(s.count() + 1).trim();
    }
}
`,
	})
	s, r := synthesize(t, g, "p.A", "f")
	size := g.Len()

	assert.Zero(t, r.Resolve(s.Refs()))
	assert.Equal(t, size, g.Len())
}

func TestExceptions(t *testing.T) {
	t.Parallel()

	g := buildGraph(t, map[string]string{
		"p/A.java": `package p;
import com.e.Oops;
import com.e.Boom;
import com.e.Caught;
class A {
    void f() throws Oops {
        try {
            g();
        } catch (Caught c) {
        }
        throw new Boom();
    }
    void g() { }
}
`,
	})
	synthesize(t, g, "p.A", "f")

	assert.Equal(t, "java.lang.Exception", synthetic(t, g, "com.e.Oops").Super.Name)
	assert.Equal(t, "java.lang.RuntimeException", synthetic(t, g, "com.e.Boom").Super.Name)
	assert.Equal(t, "java.lang.Exception", synthetic(t, g, "com.e.Caught").Super.Name)
}

func TestIterableAndCloseable(t *testing.T) {
	t.Parallel()

	g := buildGraph(t, map[string]string{
		"p/A.java": `package p;
import com.x.Repo;
import com.x.Conn;
class A {
    void f(Repo repo) throws Exception {
        for (String s : repo) {
        }
        try (Conn c = new Conn()) {
        }
    }
}
`,
	})
	synthesize(t, g, "p.A", "f")

	repo := synthetic(t, g, "com.x.Repo")
	require.Len(t, repo.Interfaces, 1)
	assert.Equal(t, "java.lang.Iterable<java.lang.String>", repo.Interfaces[0].String())
	assert.Equal(t, "java.util.Iterator<java.lang.String>", methodNamed(t, repo, "iterator").Return.String())

	conn := synthetic(t, g, "com.x.Conn")
	require.Len(t, conn.Interfaces, 1)
	assert.Equal(t, "java.lang.AutoCloseable", conn.Interfaces[0].Name)
	assert.NotNil(t, methodNamed(t, conn, "close"))
}

func TestLambdaMakesFunctionalInterface(t *testing.T) {
	t.Parallel()

	g := buildGraph(t, map[string]string{
		"p/A.java": `package p;
import com.x.Fn;
class A {
    Object f() {
        Fn fn = (a, b) -> a;
        return fn;
    }
}
`,
	})
	synthesize(t, g, "p.A", "f")

	fn := synthetic(t, g, "com.x.Fn")
	assert.Equal(t, model.Interface, fn.Kind)
	assert.Contains(t, fn.Annotations, FunctionalMarker)
	apply := methodNamed(t, fn, "apply")
	assert.True(t, apply.IsAbstract())
	assert.Len(t, apply.Params, 2)
	assert.Equal(t, "java.lang.Object", apply.Return.Name)
}

func TestAnnotationType(t *testing.T) {
	t.Parallel()

	g := buildGraph(t, map[string]string{
		"p/A.java": `package p;
import com.x.Config;
class A {
    @Config(name = "a", retries = 3, tags = {"x", "y"}, kind = Config.class)
    void f() { }
}
`,
	})
	synthesize(t, g, "p.A", "f")

	cfg := synthetic(t, g, "com.x.Config")
	assert.Equal(t, model.Annotation, cfg.Kind)

	name := methodNamed(t, cfg, "name")
	assert.Equal(t, "java.lang.String", name.Return.Name)
	assert.Equal(t, `""`, name.Default)
	assert.Equal(t, "int", methodNamed(t, cfg, "retries").Return.Name)
	tags := methodNamed(t, cfg, "tags")
	assert.Equal(t, "java.lang.String[]", tags.Return.String())
	assert.Equal(t, "{}", tags.Default)
	assert.Equal(t, "java.lang.Class", methodNamed(t, cfg, "kind").Return.Name)
}

func TestSwitchLabelsMakeEnum(t *testing.T) {
	t.Parallel()

	g := buildGraph(t, map[string]string{
		"p/A.java": `package p;
import com.x.Mode;
class A {
    int f(Mode m) {
        switch (m) {
        case FAST:
            return 1;
        case SLOW:
            return 2;
        }
        return 0;
    }
}
`,
	})
	synthesize(t, g, "p.A", "f")

	mode := synthetic(t, g, "com.x.Mode")
	assert.Equal(t, model.Enum, mode.Kind)
	var names []string
	for _, c := range mode.Constants {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"FAST", "SLOW"}, names)
}

func TestUnresolvedSuperclassMembers(t *testing.T) {
	t.Parallel()

	g := buildGraph(t, map[string]string{
		"p/A.java": `package p;
import com.x.Base;
class A extends Base {
    @Override
    public int size(String s) { return 0; }
    void f() {
        helper(2);
        size("x");
    }
}
`,
	})
	synthesize(t, g, "p.A", "f")

	base := synthetic(t, g, "com.x.Base")
	assert.Equal(t, model.Class, base.Kind)

	size := methodNamed(t, base, "size")
	require.Len(t, size.Params, 1)
	assert.Equal(t, "java.lang.String", size.Params[0].Type.Name)
	assert.Equal(t, "int", size.Return.Name)

	helper := methodNamed(t, base, "helper")
	require.Len(t, helper.Params, 1)
	assert.Equal(t, "int", helper.Params[0].Type.Name)
}

func TestImplementedInterfaceStaysWithoutObligations(t *testing.T) {
	t.Parallel()

	g := buildGraph(t, map[string]string{
		"p/A.java": `package p;
import com.x.Listener;
class A implements Listener {
    void f() {
        onEvent("e");
    }
}
`,
	})
	synthesize(t, g, "p.A", "f")

	l := synthetic(t, g, "com.x.Listener")
	assert.Equal(t, model.Interface, l.Kind)
	on := methodNamed(t, l, "onEvent")
	assert.True(t, model.HasModifier(on.Modifiers, "default"))
	assert.False(t, on.IsAbstract())
}

func TestNeverPlacesIntoPlatformPackages(t *testing.T) {
	t.Parallel()

	g := buildGraph(t, map[string]string{
		"p/A.java": "package p; class A { void f(java.util.Nope n) { } }",
	})
	synthesize(t, g, "p.A", "f")

	assert.Nil(t, g.Lookup("java.util.Nope"))
}
