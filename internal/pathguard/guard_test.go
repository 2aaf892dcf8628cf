package pathguard

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGuard(t *testing.T) (*Guard, string) {
	t.Helper()
	root := t.TempDir()
	guard, err := New(root)
	require.NoError(t, err)
	// t.TempDir may live under a symlinked parent (macOS /tmp); use the
	// guard's canonical view of it for assertions.
	return guard, guard.Root()
}

func TestNew_MissingRoot_Fails(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestNew_FileRoot_Fails(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := New(file)
	require.Error(t, err)
}

func TestConfine_RelativeInsideRoot(t *testing.T) {
	guard, root := newGuard(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "app"), 0o755))

	got, err := guard.Confine("app", RequireDir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "app"), got)
}

func TestConfine_AbsoluteInsideRoot(t *testing.T) {
	guard, root := newGuard(t)
	dir := filepath.Join(root, "svc")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	got, err := guard.Confine(dir, RequireDir)

	require.NoError(t, err)
	assert.Equal(t, dir, got)
}

func TestConfine_RootItself(t *testing.T) {
	guard, root := newGuard(t)

	got, err := guard.Confine(root, RequireDir)

	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestConfine_DotDotTraversal_Rejected(t *testing.T) {
	guard, _ := newGuard(t)

	_, err := guard.Confine("../escape", RequireParent)

	require.ErrorIs(t, err, ErrPathTraversal)
}

func TestConfine_NestedDotDotTraversal_Rejected(t *testing.T) {
	guard, _ := newGuard(t)

	_, err := guard.Confine("app/../../escape", RequireParent)

	require.ErrorIs(t, err, ErrPathTraversal)
}

func TestConfine_AbsoluteOutsideRoot_Rejected(t *testing.T) {
	guard, _ := newGuard(t)
	outside := t.TempDir()

	_, err := guard.Confine(outside, RequireDir)

	require.ErrorIs(t, err, ErrPathTraversal)
}

func TestConfine_SymlinkEscape_Rejected(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires elevation on windows")
	}
	guard, root := newGuard(t)
	outside := t.TempDir()
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "link")))

	_, err := guard.Confine("link", RequireDir)

	require.ErrorIs(t, err, ErrPathTraversal)
}

func TestConfine_SymlinkEscapeWithMissingTail_Rejected(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires elevation on windows")
	}
	guard, root := newGuard(t)
	outside := t.TempDir()
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "link")))

	_, err := guard.Confine("link/newdir", RequireParent)

	require.ErrorIs(t, err, ErrPathTraversal)
}

func TestConfine_SymlinkInsideRoot_Allowed(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires elevation on windows")
	}
	guard, root := newGuard(t)
	target := filepath.Join(root, "real")
	require.NoError(t, os.MkdirAll(target, 0o755))
	require.NoError(t, os.Symlink(target, filepath.Join(root, "alias")))

	got, err := guard.Confine("alias", RequireDir)

	require.NoError(t, err)
	assert.Equal(t, target, got)
}

func TestConfine_RequireDir_MissingTarget(t *testing.T) {
	guard, _ := newGuard(t)

	_, err := guard.Confine("missing", RequireDir)

	require.ErrorIs(t, err, ErrPathNotFound)
}

func TestConfine_RequireDir_FileTarget(t *testing.T) {
	guard, root := newGuard(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "f"), []byte("x"), 0o644))

	_, err := guard.Confine("f", RequireDir)

	require.ErrorIs(t, err, ErrPathNotFound)
}

func TestConfine_RequireParent_MissingTargetAllowed(t *testing.T) {
	guard, root := newGuard(t)

	got, err := guard.Confine("newproject", RequireParent)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "newproject"), got)
}

func TestConfine_RequireParent_MissingParent(t *testing.T) {
	guard, _ := newGuard(t)

	_, err := guard.Confine("a/b/c", RequireParent)

	require.ErrorIs(t, err, ErrPathNotFound)
}

func TestConfine_EmptyPath(t *testing.T) {
	guard, _ := newGuard(t)

	_, err := guard.Confine("  ", RequireDir)

	require.ErrorIs(t, err, ErrPathNotFound)
}
