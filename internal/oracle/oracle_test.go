package oracle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/jslice/internal/diag"
	"github.com/phobologic/jslice/internal/emit"
)

// fakeJavac writes a shell script standing in for javac.
func fakeJavac(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	path := filepath.Join(t.TempDir(), "javac")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

var units = []emit.File{
	{Path: "com/example/Foo.java", Source: "package com.example;\n\npublic class Foo {\n}\n"},
}

func TestJavacSuccess(t *testing.T) {
	t.Parallel()
	j := &Javac{Path: fakeJavac(t, "exit 0")}
	res, err := j.Compile(context.Background(), units, nil)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Empty(t, res.Diagnostics)
}

func TestJavacDiagnosticsAreRelative(t *testing.T) {
	t.Parallel()
	script := `for a; do last=$a; done
echo "$last:3: error: cannot find symbol"
echo "    Bar b;"
echo "    ^"
echo "  symbol:   class Bar"
echo "  location: class Foo"
echo "1 error"
exit 1`
	j := &Javac{Path: fakeJavac(t, script)}
	res, err := j.Compile(context.Background(), units, []string{"a.jar", "b.jar"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	require.Len(t, res.Diagnostics, 1)
	d := res.Diagnostics[0]
	assert.Equal(t, "com/example/Foo.java", d.File)
	assert.Equal(t, diag.CannotFindSymbol, d.Category)
	assert.Equal(t, "Bar", d.Symbol)
}

func TestJavacFailures(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		j    *Javac
	}{
		{"missing executable", &Javac{Path: filepath.Join(t.TempDir(), "no-such-javac")}},
		{"exit without diagnostics", &Javac{Path: fakeJavac(t, "echo 'javac: invalid flag' >&2; exit 2")}},
		{"timeout", &Javac{Path: fakeJavac(t, "exec sleep 5"), Timeout: 50 * time.Millisecond}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := tt.j.Compile(context.Background(), units, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrToolInvocation), "got %v", err)
		})
	}
}

func TestScript(t *testing.T) {
	t.Parallel()
	s := &Script{Results: []Result{{Diagnostics: []diag.Diagnostic{{Category: diag.Other}}}}}
	ctx := context.Background()

	res, err := s.Compile(ctx, units, nil)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Len(t, res.Diagnostics, 1)

	res, err = s.Compile(ctx, nil, nil)
	require.NoError(t, err)
	assert.True(t, res.Success)

	calls := s.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, units, calls[0])
}

func TestScriptError(t *testing.T) {
	t.Parallel()
	s := &Script{Err: ErrToolInvocation}
	_, err := s.Compile(context.Background(), units, nil)
	assert.ErrorIs(t, err, ErrToolInvocation)
}
