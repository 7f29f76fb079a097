package unsolved

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/jslice/internal/model"
	"github.com/phobologic/jslice/internal/slice"
)

const extUser = `package p;
import com.ext.Lib;
import com.ext.Oops;
class A {
    void f(Lib lib) throws Oops {
        lib.get().foo();
        lib.count.size();
    }
}
`

func TestIsGeneratedName(t *testing.T) {
	t.Parallel()
	for _, n := range []string{"com.ext.GetReturnType", "SyntheticTypeForCount", "SyntheticFunction2", "p.FooSyntheticType", UnconstrainedType} {
		assert.True(t, IsGeneratedName(n), n)
	}
	for _, n := range []string{"com.ext.Lib", "Return", "p.Oops"} {
		assert.False(t, IsGeneratedName(n), n)
	}
}

func TestFixpointMatchesManualLoop(t *testing.T) {
	t.Parallel()
	g := buildGraph(t, map[string]string{"p/A.java": extUser})
	m := g.Lookup("p.A").Member(model.Method, "f")
	s := slice.New(g, nil)
	s.Seed([]model.DeclID{m.ID})
	s.Run()
	r := New(g, nil)

	assert.Positive(t, r.Fixpoint(s, 10))
	assert.Zero(t, r.Fixpoint(s, 10))
	synthetic(t, g, "com.ext.Lib")
	synthetic(t, g, "com.ext.GetReturnType")
}

func TestRethrow(t *testing.T) {
	t.Parallel()
	g := buildGraph(t, map[string]string{"p/A.java": extUser})
	_, r := synthesize(t, g, "p.A", "f")

	oops := synthetic(t, g, "com.ext.Oops")
	require.Equal(t, "java.lang.Exception", oops.Super.Name)
	assert.True(t, r.Rethrow(oops))
	assert.Equal(t, "java.lang.RuntimeException", oops.Super.Name)
	assert.False(t, r.Rethrow(oops))
	assert.False(t, r.Rethrow(g.Lookup("p.A")))
}

func TestAddSupertype(t *testing.T) {
	t.Parallel()
	g := buildGraph(t, map[string]string{"p/A.java": extUser})
	_, r := synthesize(t, g, "p.A", "f")
	lib := synthetic(t, g, "com.ext.Lib")
	ret := synthetic(t, g, "com.ext.GetReturnType")

	assert.False(t, r.AddSupertype(lib, model.NewRef("java.lang.String"), false), "final platform class")
	assert.False(t, r.AddSupertype(lib, model.NewRef("java.lang.Object"), false))
	assert.False(t, r.AddSupertype(lib, model.NewRef("int"), false))
	assert.False(t, r.AddSupertype(lib, model.ArrayOf(model.NewRef("java.lang.Number"), 1), false))
	assert.False(t, r.AddSupertype(g.Lookup("p.A"), model.NewRef("java.lang.Number"), false), "source type")

	require.True(t, r.AddSupertype(ret, model.NewRef("com.ext.Lib"), false))
	assert.Equal(t, "com.ext.Lib", ret.Super.Name)
	assert.False(t, r.AddSupertype(lib, model.NewRef("com.ext.GetReturnType"), false), "cycle")
	assert.False(t, r.AddSupertype(ret, model.NewRef("java.lang.Number"), false), "second superclass")

	require.True(t, r.AddSupertype(lib, model.NewRef("java.lang.Runnable"), true))
	require.Len(t, lib.Interfaces, 1)
	assert.Equal(t, "java.lang.Runnable", lib.Interfaces[0].Name)
}

func TestAddMembers(t *testing.T) {
	t.Parallel()
	g := buildGraph(t, map[string]string{"p/A.java": extUser})
	_, r := synthesize(t, g, "p.A", "f")
	lib := synthetic(t, g, "com.ext.Lib")

	require.True(t, r.AddMethod(lib, "size", []*model.TypeRef{model.NewRef("int")}, nil))
	size := methodNamed(t, lib, "size")
	assert.Equal(t, "com.ext.SizeReturnType", size.Return.Name)
	synthetic(t, g, "com.ext.SizeReturnType")
	assert.False(t, r.AddMethod(lib, "size", []*model.TypeRef{model.NewRef("int")}, nil), "same erasure")
	assert.True(t, r.AddMethod(lib, "size", []*model.TypeRef{model.NewRef("java.lang.String")}, model.NewRef("int")))
	assert.Len(t, g.FindMethods(lib.ID, "size", 1), 2)

	require.True(t, r.AddField(lib, "total"))
	total := lib.Member(model.Field, "total")
	require.NotNil(t, total)
	assert.Equal(t, "com.ext.SyntheticTypeForTotal", total.Type.Name)
	assert.False(t, r.AddField(lib, "total"))
	assert.False(t, r.AddField(lib, "count"), "already declared")

	require.True(t, r.AddConstructor(lib, []*model.TypeRef{model.NewRef("int")}))
	assert.Len(t, g.FindConstructors(lib.ID, 1), 1)
	assert.Len(t, g.FindConstructors(lib.ID, 0), 1)
	assert.False(t, r.AddConstructor(lib, []*model.TypeRef{model.NewRef("int")}))

	a := g.Lookup("p.A")
	assert.False(t, r.AddMethod(a, "x", nil, nil))
	assert.False(t, r.AddField(a, "x"))
}

func TestEnsureType(t *testing.T) {
	t.Parallel()
	g := buildGraph(t, map[string]string{"p/A.java": extUser})
	_, r := synthesize(t, g, "p.A", "f")
	cu := g.Unit(g.Lookup("p.A").ID)

	assert.Nil(t, r.EnsureType("Lib", cu), "already resolves")
	assert.Nil(t, r.EnsureType("String", cu))
	created := r.EnsureType("Missing", cu)
	require.NotNil(t, created)
	assert.Equal(t, "p.Missing", created.QName)
	assert.True(t, created.Synthetic)
}

func TestRetypeAndUseSites(t *testing.T) {
	t.Parallel()
	g := buildGraph(t, map[string]string{"p/A.java": extUser})
	_, r := synthesize(t, g, "p.A", "f")
	lib := synthetic(t, g, "com.ext.Lib")
	get := methodNamed(t, lib, "get")
	count := lib.Member(model.Field, "count")
	require.NotNil(t, count)
	require.Equal(t, "com.ext.SyntheticTypeForCount", count.Type.Name)

	sites := r.UseSites("com.ext.GetReturnType")
	require.Len(t, sites, 1)
	assert.Same(t, get, sites[0])

	changed := r.Retype("com.ext.GetReturnType", model.NewRef("int"), false)
	require.Len(t, changed, 1)
	assert.Equal(t, "int", get.Return.Name)
	assert.Empty(t, r.UseSites("com.ext.GetReturnType"))

	changed = r.Retype("com.ext.SyntheticTypeForCount", nil, true)
	require.Len(t, changed, 1)
	assert.Equal(t, "java.lang.Object", count.Type.Name)
}

func TestRetypeToTypeVariable(t *testing.T) {
	t.Parallel()
	g := buildGraph(t, map[string]string{"p/A.java": extUser})
	_, r := synthesize(t, g, "p.A", "f")
	get := methodNamed(t, synthetic(t, g, "com.ext.Lib"), "get")

	r.Retype("com.ext.GetReturnType", nil, true)
	require.Len(t, get.TypeParams, 1)
	assert.Equal(t, UnconstrainedType, get.TypeParams[0].Name)
	assert.Equal(t, UnconstrainedType, get.Return.Name)
}
