package imagedir

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte(n), 0o644))
	}
}

func listNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

var renameDay = time.Date(2025, 3, 7, 12, 0, 0, 0, time.UTC)

func TestRenameNumbersWithinRange(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.jpg", "IMG_01012024_0099.png", "c.JPEG", "d", ".hidden")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	log, _ := test.NewNullLogger()

	got, err := NewRenamer(log, false).Rename(Numbering{Dir: dir, Start: 11, End: 20}, renameDay)
	require.NoError(t, err)

	// name order: ".hidden", "IMG_...", "a.jpg", "c.JPEG", "d"
	assert.Equal(t, []Renamed{
		{From: filepath.Join(dir, ".hidden"), To: filepath.Join(dir, "IMG_07032025_0011")},
		{From: filepath.Join(dir, "a.jpg"), To: filepath.Join(dir, "IMG_07032025_0013.jpg")},
		{From: filepath.Join(dir, "c.JPEG"), To: filepath.Join(dir, "IMG_07032025_0014.JPEG")},
		{From: filepath.Join(dir, "d"), To: filepath.Join(dir, "IMG_07032025_0015")},
	}, got)
	assert.ElementsMatch(t, []string{
		"IMG_07032025_0011", "IMG_01012024_0099.png", "IMG_07032025_0013.jpg",
		"IMG_07032025_0014.JPEG", "IMG_07032025_0015", "sub",
	}, listNames(t, dir))

	// a second pass finds nothing left to do
	again, err := NewRenamer(log, false).Rename(Numbering{Dir: dir, Start: 11, End: 20}, renameDay)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestRenameStopsAtEnd(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "1.jpg", "2.jpg", "3.jpg")
	log, _ := test.NewNullLogger()

	got, err := NewRenamer(log, false).Rename(Numbering{Dir: dir, Start: 1, End: 2}, renameDay)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Contains(t, listNames(t, dir), "3.jpg")
}

func TestRenameDryRun(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.jpg", "b.jpg", "IMG_07032025_0001.jpg.bak")
	log, _ := test.NewNullLogger()

	got, err := NewRenamer(log, true).Rename(Numbering{Dir: dir, Start: 1, End: 5}, renameDay)
	require.NoError(t, err)
	assert.Equal(t, []Renamed{
		{From: filepath.Join(dir, "a.jpg"), To: filepath.Join(dir, "IMG_07032025_0002.jpg")},
		{From: filepath.Join(dir, "b.jpg"), To: filepath.Join(dir, "IMG_07032025_0003.jpg")},
	}, got)
	assert.ElementsMatch(t, []string{"a.jpg", "b.jpg", "IMG_07032025_0001.jpg.bak"}, listNames(t, dir))
}

func TestRenameKeepsFileWhenTargetTaken(t *testing.T) {
	dir := t.TempDir()
	// "A.jpg" sorts before the normalised file and is handed its number
	touch(t, dir, "A.jpg", "IMG_07032025_0001.jpg")
	log, hook := test.NewNullLogger()

	got, err := NewRenamer(log, false).Rename(Numbering{Dir: dir, Start: 1, End: 5}, renameDay)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.ElementsMatch(t, []string{"A.jpg", "IMG_07032025_0001.jpg"}, listNames(t, dir))

	data, err := os.ReadFile(filepath.Join(dir, "IMG_07032025_0001.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "IMG_07032025_0001.jpg", string(data))
	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Message, "exists")
}

func TestRenameMissingDir(t *testing.T) {
	log, _ := test.NewNullLogger()
	_, err := NewRenamer(log, false).Rename(Numbering{Dir: filepath.Join(t.TempDir(), "missing"), Start: 1, End: 5}, renameDay)
	assert.Error(t, err)
}
