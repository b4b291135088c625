package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	luxerrors "git.home.luguber.info/inful/luxd/internal/errors"
	"git.home.luguber.info/inful/luxd/internal/lighting"
)

func TestProfileStore_Lifecycle(t *testing.T) {
	ps, err := NewProfileStore(t.TempDir())
	require.NoError(t, err)

	values := lighting.Vector{0, 80, 40, 20, 100, 0}
	require.NoError(t, ps.Create("sunrise", values))

	got, err := ps.Get("sunrise")
	require.NoError(t, err)
	require.Equal(t, "sunrise", got.Name)
	require.True(t, values.Equal(got.Values))

	list, err := ps.List()
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, ps.Delete("sunrise"))

	_, err = ps.Get("sunrise")
	require.True(t, luxerrors.HasCategory(err, luxerrors.CategoryNotFound))
}

func TestProfileStore_DuplicateNameConflicts(t *testing.T) {
	ps, err := NewProfileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, ps.Create("dusk", lighting.Vector{}))

	err = ps.Create("dusk", lighting.Vector{1, 2, 3, 4, 5, 6})
	require.True(t, luxerrors.HasCategory(err, luxerrors.CategoryConflict))

	// The original record must be untouched.
	got, err := ps.Get("dusk")
	require.NoError(t, err)
	require.True(t, lighting.Vector{}.Equal(got.Values))
}

func TestProfileStore_DeleteUnknownIsNotFound(t *testing.T) {
	ps, err := NewProfileStore(t.TempDir())
	require.NoError(t, err)

	err = ps.Delete("never-created")
	require.True(t, luxerrors.HasCategory(err, luxerrors.CategoryNotFound))
}

func TestProfileStore_RejectsUnsafeNames(t *testing.T) {
	ps, err := NewProfileStore(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "../escape", "a/b", "dot.dot"} {
		err := ps.Create(name, lighting.Vector{})
		require.True(t, luxerrors.HasCategory(err, luxerrors.CategoryValidation), "name %q", name)
	}

	require.NoError(t, ps.Create("day_2 bright-mode", lighting.Vector{}))
}

func TestProfileStore_ListSkipsCorruptRecords(t *testing.T) {
	dataDir := t.TempDir()
	ps, err := NewProfileStore(dataDir)
	require.NoError(t, err)

	require.NoError(t, ps.Create("good", lighting.Vector{}))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, ProfilesDir, "bad.json"), []byte("{broken"), 0o644))

	list, err := ps.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "good", list[0].Name)
}
