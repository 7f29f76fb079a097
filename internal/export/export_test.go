package export

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/jslice/internal/graph"
	"github.com/phobologic/jslice/internal/model"
	"github.com/phobologic/jslice/internal/parse"
	"github.com/phobologic/jslice/internal/slice"
)

const source = `package p;
import com.ext.Base;
class A extends Base implements Runnable {
    int n;
    public void run() {
        helper();
    }
    void helper() {
    }
    void unused() {
    }
}
`

func build(t *testing.T) (*graph.Graph, *slice.Slicer) {
	t.Helper()
	cu, err := parse.Source(context.Background(), source, "p/A.java")
	require.NoError(t, err)
	g, err := graph.New([]*model.CompilationUnit{cu})
	require.NoError(t, err)
	s := slice.New(g, nil)
	s.Seed([]model.DeclID{g.Lookup("p.A").Member(model.Method, "run").ID})
	s.Run()
	return g, s
}

func TestCollect(t *testing.T) {
	t.Parallel()
	g, s := build(t)
	snap := Collect(g, s)

	require.Len(t, snap.Types, 1)
	assert.Equal(t, TypeNode{QName: "p.A", Name: "A", Package: "p", Kind: "class", File: "p/A.java", Line: 3, Retained: true}, snap.Types[0])

	modes := make(map[string]string)
	for _, m := range snap.Members {
		assert.Equal(t, "p.A", m.Owner)
		modes[m.Key] = m.Mode
	}
	assert.Equal(t, "keep", modes["p.A#run()"])
	assert.Equal(t, "dropped", modes["p.A#unused()"])

	require.Len(t, snap.Supers, 2)
	assert.Equal(t, SuperEdge{Type: "p.A", Target: "com.ext.Base", Status: "unresolved"}, snap.Supers[0])
	assert.Equal(t, "java.lang.Runnable", snap.Supers[1].Target)
	assert.True(t, snap.Supers[1].Interface)
}

func TestCollectWithoutRetention(t *testing.T) {
	t.Parallel()
	g, _ := build(t)
	snap := Collect(g, nil)
	for _, m := range snap.Members {
		assert.Equal(t, "keep", m.Mode)
	}
}

type call struct {
	cypher string
	params map[string]any
}

type recorder struct {
	calls  []call
	failOn string
}

func (r *recorder) Run(_ context.Context, cypher string, params map[string]any) error {
	r.calls = append(r.calls, call{cypher, params})
	if r.failOn != "" && strings.Contains(cypher, r.failOn) {
		return errors.New("connection refused")
	}
	return nil
}

func TestLoad(t *testing.T) {
	t.Parallel()
	g, s := build(t)
	rec := &recorder{}
	require.NoError(t, NewLoader(rec, nil).Load(context.Background(), Collect(g, s)))

	require.Len(t, rec.calls, len(cleanQueries)+len(indexQueries)+3)
	types := rec.calls[len(rec.calls)-3]
	assert.Equal(t, typesQuery, types.cypher)
	batch := types.params["batch"].([]map[string]any)
	require.Len(t, batch, 1)
	assert.Equal(t, "p.A", batch[0]["qname"])

	members := rec.calls[len(rec.calls)-2].params["batch"].([]map[string]any)
	assert.Len(t, members, 4)
}

func TestLoadError(t *testing.T) {
	t.Parallel()
	g, s := build(t)
	err := NewLoader(&recorder{failOn: "HAS_MEMBER"}, nil).Load(context.Background(), Collect(g, s))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading members")
}
