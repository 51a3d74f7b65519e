package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) func() {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return func() { _ = os.Chdir(old) }
}

func TestEnsureDir_RelativeResolvesAgainstCWD(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	got, err := EnsureDir(afero.NewOsFs(), "data")
	require.NoError(t, err)

	want := filepath.Join(tmp, "data")
	require.Equal(t, want, got)

	fi, err := os.Stat(want)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o700), fi.Mode().Perm()&0o700)
	}
}

func TestEnsureDir_AbsoluteAndIdempotent(t *testing.T) {
	fsys := afero.NewMemMapFs()
	dir := filepath.Join(string(filepath.Separator), "srv", "blobs")

	for i := 0; i < 2; i++ {
		got, err := EnsureDir(fsys, dir)
		require.NoError(t, err)
		require.Equal(t, dir, got)
	}

	ok, err := afero.DirExists(fsys, dir)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestEnsureDir_ReadOnlyFs(t *testing.T) {
	fsys := afero.NewReadOnlyFs(afero.NewMemMapFs())

	_, err := EnsureDir(fsys, "/nope")
	require.Error(t, err)
}
