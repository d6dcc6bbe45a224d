package library

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Southclaws/fault/ftag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-melodycards/config"
	"go-melodycards/melody"
)

func testLibrary(t *testing.T) (*Library, *time.Time) {
	t.Helper()
	lib, err := Open(t.TempDir())
	require.NoError(t, err)
	now := time.Date(2024, 1, 15, 14, 30, 0, 0, time.Local)
	lib.now = func() time.Time { return now }
	return lib, &now
}

func tune() Melody {
	return Melody{
		Chapter:       1,
		Title:         "First Steps",
		Score:         100,
		Tempo:         120,
		TimeSignature: config.TimeSignature{Numerator: 4, Denominator: 4},
		Melody: []melody.Event{
			{Pitch: "C4", Start: 0, Duration: 2},
			{Pitch: "E4", Start: 2, Duration: 2},
		},
	}
}

func TestSaveAndLoad(t *testing.T) {
	lib, _ := testLibrary(t)

	m := tune()
	m.Name = "my tune"
	info, err := lib.Save(m)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15_14-30-00_my-tune.json", info.Filename)
	assert.Equal(t, "my-tune", info.Name)

	got, err := lib.Load(info.Filename)
	require.NoError(t, err)
	assert.Equal(t, m.Melody, got.Melody)
	assert.Equal(t, 120.0, got.Tempo)
	assert.Equal(t, "First Steps", got.Title)
	assert.True(t, got.Saved.Equal(info.Timestamp))
}

func TestSaveRejectsEmptyMelody(t *testing.T) {
	lib, _ := testLibrary(t)

	_, err := lib.Save(Melody{Tempo: 120})
	require.Error(t, err)
	assert.Equal(t, ftag.InvalidArgument, ftag.Get(err))

	saves, err := lib.List()
	require.NoError(t, err)
	assert.Empty(t, saves)
}

func TestListNewestFirst(t *testing.T) {
	lib, now := testLibrary(t)

	_, err := lib.Save(tune())
	require.NoError(t, err)
	*now = now.Add(time.Hour)
	m := tune()
	m.Name = "later"
	_, err = lib.Save(m)
	require.NoError(t, err)

	// stray files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(lib.Dir(), "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(lib.Dir(), "bad.json"), []byte("{}"), 0644))

	saves, err := lib.List()
	require.NoError(t, err)
	require.Len(t, saves, 2)
	assert.Equal(t, "later", saves[0].Name)
	assert.Equal(t, "", saves[1].Name)
	assert.Equal(t, "2024-01-15_14-30-00.json", saves[1].Filename)
}

func TestListMissingDir(t *testing.T) {
	lib, err := Open(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)

	saves, err := lib.List()
	require.NoError(t, err)
	assert.Empty(t, saves)
}

func TestLoadNewestWhenUnnamed(t *testing.T) {
	lib, now := testLibrary(t)

	_, err := lib.Load("")
	require.Error(t, err)
	assert.Equal(t, ftag.NotFound, ftag.Get(err))

	_, err = lib.Save(tune())
	require.NoError(t, err)
	*now = now.Add(time.Minute)
	m := tune()
	m.Melody = m.Melody[:1]
	_, err = lib.Save(m)
	require.NoError(t, err)

	got, err := lib.Load("")
	require.NoError(t, err)
	assert.Len(t, got.Melody, 1)
}

func TestLoadErrors(t *testing.T) {
	lib, _ := testLibrary(t)

	_, err := lib.Load("2020-01-01_00-00-00.json")
	require.Error(t, err)
	assert.Equal(t, ftag.NotFound, ftag.Get(err))

	require.NoError(t, os.MkdirAll(lib.Dir(), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(lib.Dir(), "2020-01-01_00-00-00.json"), []byte("not json"), 0644))
	_, err = lib.Load("2020-01-01_00-00-00.json")
	require.Error(t, err)
	assert.Equal(t, ftag.InvalidArgument, ftag.Get(err))
}

func TestRenameAndDelete(t *testing.T) {
	lib, _ := testLibrary(t)

	info, err := lib.Save(tune())
	require.NoError(t, err)

	name, err := lib.Rename(info.Filename, "a/b: c")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15_14-30-00_a-b--c.json", name)

	saves, err := lib.List()
	require.NoError(t, err)
	require.Len(t, saves, 1)
	assert.Equal(t, "a-b--c", saves[0].Name)

	_, err = lib.Rename("whatever.json", "x")
	assert.Error(t, err)

	require.NoError(t, lib.Delete(name))
	saves, err = lib.List()
	require.NoError(t, err)
	assert.Empty(t, saves)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "hello-world", sanitizeFilename("  hello world "))
	assert.Equal(t, "what", sanitizeFilename("what?*"))
	assert.Equal(t, "", sanitizeFilename("   "))
}
