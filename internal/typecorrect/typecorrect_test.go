package typecorrect

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/jslice/internal/diag"
	"github.com/phobologic/jslice/internal/graph"
	"github.com/phobologic/jslice/internal/model"
	"github.com/phobologic/jslice/internal/oracle"
	"github.com/phobologic/jslice/internal/parse"
	"github.com/phobologic/jslice/internal/slice"
	"github.com/phobologic/jslice/internal/unsolved"
)

const libUser = `package p;
import com.ext.Lib;
class A {
    void f(Lib lib) {
        lib.get().foo();
    }
}
`

type fixture struct {
	g *graph.Graph
	s *slice.Slicer
	r *unsolved.Resolver
}

// setup slices from qname.method and synthesizes until nothing changes.
func setup(t *testing.T, files map[string]string, qname, method string, synthesize bool) fixture {
	t.Helper()
	var units []*model.CompilationUnit
	for path, src := range files {
		cu, err := parse.Source(context.Background(), src, path)
		require.NoError(t, err, path)
		units = append(units, cu)
	}
	g, err := graph.New(units)
	require.NoError(t, err)
	td := g.Lookup(qname)
	require.NotNil(t, td, qname)
	m := td.Member(model.Method, method)
	require.NotNil(t, m, method)

	s := slice.New(g, nil)
	s.Seed([]model.DeclID{m.ID})
	s.Run()
	r := unsolved.New(g, nil)
	if synthesize {
		r.Fixpoint(s, 20)
	}
	return fixture{g: g, s: s, r: r}
}

func (f fixture) loop(script *oracle.Script, opts Options) *Loop {
	return New(f.g, f.s, f.r, script, opts)
}

func failing(ds ...diag.Diagnostic) oracle.Result {
	return oracle.Result{Diagnostics: ds}
}

func TestConvergesImmediately(t *testing.T) {
	t.Parallel()
	f := setup(t, map[string]string{"p/A.java": libUser}, "p.A", "f", true)
	l := f.loop(&oracle.Script{}, Options{})

	res, err := l.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Converged, res.State)
	assert.Equal(t, Converged, l.State())
	assert.Equal(t, 1, res.Iterations)
	assert.NotEmpty(t, res.Files)
}

func TestRetypesGeneratedResult(t *testing.T) {
	t.Parallel()
	f := setup(t, map[string]string{"p/A.java": libUser}, "p.A", "f", true)
	lib := f.g.Lookup("com.ext.Lib")
	require.NotNil(t, lib)
	get := lib.Member(model.Method, "get")
	require.NotNil(t, get)
	require.Equal(t, "com.ext.GetReturnType", get.Return.Name)

	script := &oracle.Script{Results: []oracle.Result{failing(diag.Diagnostic{
		File: "p/A.java", Line: 5, Category: diag.IncompatibleTypes,
		Found: "GetReturnType", Required: "int",
	})}}
	var observed []int
	res, err := f.loop(script, Options{Observe: func(_, n int) { observed = append(observed, n) }}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Converged, res.State)
	assert.Equal(t, 2, res.Iterations)
	assert.Equal(t, "int", get.Return.Name)
	assert.Equal(t, []int{1, 0}, observed)
	assert.Len(t, script.Calls(), 2)
}

func TestConflictingResultDemandsBecomeTypeVariable(t *testing.T) {
	t.Parallel()
	f := setup(t, map[string]string{"p/A.java": libUser}, "p.A", "f", true)
	get := f.g.Lookup("com.ext.Lib").Member(model.Method, "get")

	script := &oracle.Script{Results: []oracle.Result{failing(
		diag.Diagnostic{File: "p/A.java", Line: 5, Category: diag.IncompatibleTypes, Found: "GetReturnType", Required: "int"},
		diag.Diagnostic{File: "p/A.java", Line: 6, Category: diag.IncompatibleTypes, Found: "GetReturnType", Required: "String"},
	)}}
	_, err := f.loop(script, Options{}).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, get.TypeParams, 1)
	assert.Equal(t, unsolved.UnconstrainedType, get.TypeParams[0].Name)
	assert.Equal(t, unsolved.UnconstrainedType, get.Return.Name)
}

func TestNumericResultDemandsPickNarrowest(t *testing.T) {
	t.Parallel()
	f := setup(t, map[string]string{"p/A.java": libUser}, "p.A", "f", true)
	get := f.g.Lookup("com.ext.Lib").Member(model.Method, "get")

	script := &oracle.Script{Results: []oracle.Result{failing(
		diag.Diagnostic{File: "p/A.java", Line: 5, Category: diag.IncompatibleTypes, Found: "GetReturnType", Required: "int"},
		diag.Diagnostic{File: "p/A.java", Line: 6, Category: diag.IncompatibleTypes, Found: "GetReturnType", Required: "long"},
	)}}
	res, err := f.loop(script, Options{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Converged, res.State)
	assert.Equal(t, "int", get.Return.Name)
	assert.Empty(t, get.TypeParams)
}

func TestBadOperandPicksOperatorType(t *testing.T) {
	t.Parallel()
	f := setup(t, map[string]string{"p/A.java": libUser}, "p.A", "f", true)
	get := f.g.Lookup("com.ext.Lib").Member(model.Method, "get")

	script := &oracle.Script{Results: []oracle.Result{failing(diag.Diagnostic{
		File: "p/A.java", Line: 5, Category: diag.BadOperandTypes, Operator: "&&",
		Found: "GetReturnType", Required: "boolean",
	})}}
	_, err := f.loop(script, Options{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "boolean", get.Return.Name)
}

func TestSyntheticClassGainsRequiredSupertype(t *testing.T) {
	t.Parallel()
	f := setup(t, map[string]string{"p/A.java": libUser}, "p.A", "f", true)
	lib := f.g.Lookup("com.ext.Lib")

	script := &oracle.Script{Results: []oracle.Result{failing(diag.Diagnostic{
		File: "p/A.java", Line: 5, Category: diag.IncompatibleTypes,
		Found: "Lib", Required: "Runnable",
	})}}
	_, err := f.loop(script, Options{}).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, lib.Interfaces, 1)
	assert.Equal(t, "java.lang.Runnable", lib.Interfaces[0].Name)
}

func TestFinalPlatformClassIsNeverASupertype(t *testing.T) {
	t.Parallel()
	f := setup(t, map[string]string{"p/A.java": libUser}, "p.A", "f", true)
	lib := f.g.Lookup("com.ext.Lib")

	script := &oracle.Script{Results: []oracle.Result{failing(diag.Diagnostic{
		File: "p/A.java", Line: 5, Category: diag.IncompatibleTypes,
		Found: "Lib", Required: "String",
	})}}
	res, err := f.loop(script, Options{}).Run(context.Background())
	require.ErrorIs(t, err, ErrUnfixableDiagnostic)
	assert.Equal(t, Failed, res.State)
	assert.Nil(t, lib.Super)
	assert.Len(t, res.Diagnostics, 1)
}

func TestExceptionBecomesUnchecked(t *testing.T) {
	t.Parallel()
	f := setup(t, map[string]string{"p/A.java": `package p;
class A {
    void f() {
        try {
            g();
        } catch (Oops e) {
        }
    }
    void g() {
    }
}
`}, "p.A", "f", true)
	oops := f.g.Lookup("p.Oops")
	require.NotNil(t, oops)
	require.Equal(t, "java.lang.Exception", oops.Super.Name)

	script := &oracle.Script{Results: []oracle.Result{failing(diag.Diagnostic{
		File: "p/A.java", Line: 6, Category: diag.NeverThrown, Exception: "Oops",
	})}}
	_, err := f.loop(script, Options{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "java.lang.RuntimeException", oops.Super.Name)
}

func TestForEachGainsIterable(t *testing.T) {
	t.Parallel()
	f := setup(t, map[string]string{"p/A.java": libUser}, "p.A", "f", true)
	lib := f.g.Lookup("com.ext.Lib")

	script := &oracle.Script{Results: []oracle.Result{failing(diag.Diagnostic{
		File: "p/A.java", Line: 5, Category: diag.ForEachNotApplicable,
		Found: "Lib", Required: "array or java.lang.Iterable",
		Source: "for (String s : lib) {",
	})}}
	_, err := f.loop(script, Options{}).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, lib.Interfaces, 1)
	assert.Equal(t, "java.lang.Iterable<java.lang.String>", lib.Interfaces[0].String())
	assert.NotNil(t, lib.Member(model.Method, "iterator"))
}

func TestMissingOverrideStubsSyntheticImplementor(t *testing.T) {
	t.Parallel()
	f := setup(t, map[string]string{
		"p/A.java": libUser,
		"p/Task.java": `package p;
public interface Task {
    boolean run(int x);
}
`,
	}, "p.A", "f", true)
	impl := f.r.EnsureType("Impl", f.g.Unit(f.g.Lookup("p.A").ID))
	require.NotNil(t, impl)

	script := &oracle.Script{Results: []oracle.Result{failing(diag.Diagnostic{
		File: "p/Impl.java", Line: 3, Category: diag.MissingOverride,
		Class: "Impl", Method: "run(int)", Super: "Task",
	})}}
	_, err := f.loop(script, Options{}).Run(context.Background())
	require.NoError(t, err)
	run := impl.Member(model.Method, "run")
	require.NotNil(t, run)
	require.Len(t, run.Params, 1)
	assert.Equal(t, "int", run.Params[0].Type.Name)
	assert.Equal(t, "boolean", run.Return.Name)
}

func TestDoesNotOverrideAddsMethodToSyntheticSuper(t *testing.T) {
	t.Parallel()
	f := setup(t, map[string]string{"p/B.java": `package p;
import com.ext.Base;
class B extends Base {
    void entry() {
    }
    @Override
    public void go(int x) {
    }
}
`}, "p.B", "entry", false)

	script := &oracle.Script{Results: []oracle.Result{failing(diag.Diagnostic{
		File: "p/B.java", Line: 6, Category: diag.DoesNotOverride,
		Message: "method does not override or implement a method from a supertype",
	})}}
	_, err := f.loop(script, Options{}).Run(context.Background())
	require.NoError(t, err)
	base := f.g.Lookup("com.ext.Base")
	require.NotNil(t, base)
	require.True(t, base.Synthetic)
	gm := base.Member(model.Method, "go")
	require.NotNil(t, gm)
	assert.Equal(t, "int", gm.Params[0].Type.Name)
}

func TestCannotFindSymbolRoutesToResolver(t *testing.T) {
	t.Parallel()
	f := setup(t, map[string]string{"p/A.java": libUser}, "p.A", "f", true)

	script := &oracle.Script{Results: []oracle.Result{failing(
		diag.Diagnostic{File: "p/A.java", Line: 5, Category: diag.CannotFindSymbol,
			SymbolKind: "method", Symbol: "size(int)", LocationKind: "variable", Location: "lib of type Lib"},
		diag.Diagnostic{File: "p/A.java", Line: 5, Category: diag.CannotFindSymbol,
			SymbolKind: "variable", Symbol: "count", LocationKind: "class", Location: "Lib"},
		diag.Diagnostic{File: "p/A.java", Line: 6, Category: diag.CannotFindSymbol,
			SymbolKind: "class", Symbol: "Missing", LocationKind: "class", Location: "A"},
	)}}
	_, err := f.loop(script, Options{}).Run(context.Background())
	require.NoError(t, err)

	lib := f.g.Lookup("com.ext.Lib")
	size := lib.Member(model.Method, "size")
	require.NotNil(t, size)
	assert.Equal(t, "int", size.Params[0].Type.Name)
	assert.Equal(t, "com.ext.SizeReturnType", size.Return.Name)

	count := lib.Member(model.Field, "count")
	require.NotNil(t, count)
	assert.Equal(t, "com.ext.SyntheticTypeForCount", count.Type.Name)

	missing := f.g.Lookup("p.Missing")
	require.NotNil(t, missing)
	assert.True(t, missing.Synthetic)
}

func TestArgumentMismatchAddsConstructor(t *testing.T) {
	t.Parallel()
	f := setup(t, map[string]string{"p/A.java": libUser}, "p.A", "f", true)
	lib := f.g.Lookup("com.ext.Lib")

	script := &oracle.Script{Results: []oracle.Result{failing(diag.Diagnostic{
		File: "p/A.java", Line: 5, Category: diag.ArgumentMismatch,
		SymbolKind: "constructor", Symbol: "Lib", LocationKind: "class", Location: "Lib",
		Found: "int,String", Required: "no arguments",
	})}}
	_, err := f.loop(script, Options{}).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, f.g.FindConstructors(lib.ID, 2), 1)
	assert.Len(t, f.g.FindConstructors(lib.ID, 0), 1)
}

func TestSourceOnlyDiagnosticFails(t *testing.T) {
	t.Parallel()
	f := setup(t, map[string]string{"p/A.java": libUser}, "p.A", "f", true)
	bad := diag.Diagnostic{File: "p/A.java", Line: 5, Category: diag.IncompatibleTypes,
		Message: "incompatible types: String cannot be converted to int", Found: "String", Required: "int"}
	other := diag.Diagnostic{File: "p/A.java", Line: 7, Category: diag.Other, Message: "unreachable statement"}

	for _, d := range []diag.Diagnostic{bad, other} {
		l := f.loop(&oracle.Script{Results: []oracle.Result{failing(d)}}, Options{})
		res, err := l.Run(context.Background())
		require.ErrorIs(t, err, ErrUnfixableDiagnostic)
		assert.Equal(t, Failed, res.State)
		assert.Equal(t, Failed, l.State())
		assert.Equal(t, []diag.Diagnostic{d}, res.Diagnostics)
	}
}

// missing returns one cannot-find-symbol diagnostic per name.
func missing(names ...string) oracle.Result {
	var ds []diag.Diagnostic
	for _, n := range names {
		ds = append(ds, diag.Diagnostic{File: "p/A.java", Line: 5, Category: diag.CannotFindSymbol,
			SymbolKind: "class", Symbol: n, LocationKind: "class", Location: "A"})
	}
	return failing(ds...)
}

func TestStallFails(t *testing.T) {
	t.Parallel()
	f := setup(t, map[string]string{"p/A.java": libUser}, "p.A", "f", true)
	script := &oracle.Script{Results: []oracle.Result{missing("Foo1"), missing("Foo2"), missing("Foo3"), missing("Foo4")}}

	res, err := f.loop(script, Options{}).Run(context.Background())
	require.ErrorIs(t, err, ErrStalled)
	require.ErrorIs(t, err, ErrIterationCapExceeded)
	assert.Equal(t, Failed, res.State)
	assert.Equal(t, 3, res.Iterations)
	assert.Equal(t, []int{1, 1, 1}, res.Trend)
}

func TestIterationCap(t *testing.T) {
	t.Parallel()
	f := setup(t, map[string]string{"p/A.java": libUser}, "p.A", "f", true)
	var results []oracle.Result
	for i := 10; i > 0; i-- {
		var names []string
		for j := 0; j < i; j++ {
			names = append(names, fmt.Sprintf("T%d_%d", i, j))
		}
		results = append(results, missing(names...))
	}
	script := &oracle.Script{Results: results}

	res, err := f.loop(script, Options{MaxIterations: 3}).Run(context.Background())
	require.ErrorIs(t, err, ErrIterationCapExceeded)
	assert.NotErrorIs(t, err, ErrStalled)
	assert.Equal(t, Failed, res.State)
	assert.Len(t, script.Calls(), 3)
	assert.Equal(t, []int{10, 9, 8}, res.Trend)
}

func TestToolErrorFails(t *testing.T) {
	t.Parallel()
	f := setup(t, map[string]string{"p/A.java": libUser}, "p.A", "f", true)
	res, err := f.loop(&oracle.Script{Err: oracle.ErrToolInvocation}, Options{}).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, oracle.ErrToolInvocation))
	assert.Equal(t, Failed, res.State)
}
