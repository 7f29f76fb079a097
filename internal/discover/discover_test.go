package discover

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverJavaFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "com/example/Simple.java", "package com.example; class Simple {}")
	writeFile(t, dir, "Main.java", "class Main {}")
	// Non-Java file should be ignored
	writeFile(t, dir, "readme.txt", "hello")
	// Hidden file should be ignored
	writeFile(t, dir, ".Hidden.java", "class Hidden {}")

	entries, err := Files(dir, Options{})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Should be sorted
	assert.Equal(t, "Main.java", entries[0].Path)
	assert.Equal(t, "com/example/Simple.java", entries[1].Path)
	assert.Equal(t, int64(len("class Main {}")), entries[0].Size)
}

func TestDiscoverSkipDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "A.java", "class A {}")
	writeFile(t, dir, "target/classes/B.java", "class B {}")
	writeFile(t, dir, "build/gen/C.java", "class C {}")
	writeFile(t, dir, ".hidden/D.java", "class D {}")

	entries, err := Files(dir, Options{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "A.java", entries[0].Path)
}

func TestDiscoverGitignore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, ".gitignore", "generated/\n")
	writeFile(t, dir, "A.java", "class A {}")
	writeFile(t, dir, "generated/G.java", "class G {}")

	entries, err := Files(dir, Options{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "A.java", entries[0].Path)
}

func TestDiscoverMaxFileSize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "Small.java", "class Small {}")
	writeFile(t, dir, "Big.java", "class Big { int a; int b; int c; int d; }")

	entries, err := Files(dir, Options{MaxFileSize: 20})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Small.java", entries[0].Path)
}

func TestDiscoverSymlinksSkipped(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "Real.java", "class Real {}")

	err := os.Symlink(filepath.Join(dir, "Real.java"), filepath.Join(dir, "Link.java"))
	if err != nil {
		t.Skip("symlinks not supported")
	}

	entries, err := Files(dir, Options{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Real.java", entries[0].Path)
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	dir := filepath.Dir(path)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
