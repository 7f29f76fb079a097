package unsolved

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJar(t *testing.T, entries ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lib.jar")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for _, e := range entries {
		_, err := zw.Create(e)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestLibraryNames(t *testing.T) {
	t.Parallel()

	jar := writeJar(t,
		"META-INF/MANIFEST.MF",
		"META-INF/versions/11/com/x/Foo.class",
		"com/x/Foo.class",
		"com/x/Foo$Inner.class",
		"com/x/Foo$1.class",
		"com/x/package-info.class",
		"module-info.class",
		"com/x/README.txt",
	)
	names, err := LibraryNames([]string{jar})
	require.NoError(t, err)
	assert.Equal(t, []string{"com.x.Foo", "com.x.Foo.Inner"}, names)
}

func TestLibraryNamesMissingJar(t *testing.T) {
	t.Parallel()

	_, err := LibraryNames([]string{filepath.Join(t.TempDir(), "missing.jar")})
	assert.Error(t, err)
}
