package notes

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "notes")
	s, err := Open(dir)
	require.NoError(t, err)
	return s, dir
}

func TestOpenCreatesFolder(t *testing.T) {
	_, dir := openStore(t)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSaveRoundTrip(t *testing.T) {
	s, dir := openStore(t)

	require.NoError(t, s.Save("Greeting", "こんにちは\n"))

	got, ok := s.Get("Greeting")
	require.True(t, ok)
	assert.Equal(t, "こんにちは\n", got)

	data, err := os.ReadFile(filepath.Join(dir, "Greeting.txt"))
	require.NoError(t, err)
	assert.Equal(t, "こんにちは\n", string(data))

	reloaded, err := Open(dir)
	require.NoError(t, err)
	got, ok = reloaded.Get("Greeting")
	require.True(t, ok)
	assert.Equal(t, "こんにちは\n", got)
}

func TestSaveDuplicateKeepsExistingContent(t *testing.T) {
	s, dir := openStore(t)
	require.NoError(t, s.Save("Memo", "first"))

	err := s.Save("Memo", "second")
	require.ErrorIs(t, err, ErrDuplicateTitle)

	got, _ := s.Get("Memo")
	assert.Equal(t, "first", got)
	data, err := os.ReadFile(filepath.Join(dir, "Memo.txt"))
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
	assert.Equal(t, []string{"Memo"}, s.Titles())
}

func TestSaveRejectsInvalidTitles(t *testing.T) {
	s, dir := openStore(t)

	for _, title := range []string{"", "   ", "..", "a/b", `a\b`, "what?", "tab\there",
		"CON", "nul", "Com1", "lpt9", "aux.backup", "trailing."} {
		t.Run(title, func(t *testing.T) {
			assert.ErrorIs(t, s.Save(title, "x"), ErrInvalidTitle)
		})
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Zero(t, s.Len())
}

func TestSaveDuplicateIgnoresCase(t *testing.T) {
	s, dir := openStore(t)
	require.NoError(t, s.Save("Memo", "first"))

	for _, title := range []string{"memo", "MEMO", "mEmO"} {
		assert.ErrorIs(t, s.Save(title, "second"), ErrDuplicateTitle, title)
	}

	data, err := os.ReadFile(filepath.Join(dir, "Memo.txt"))
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
	assert.Equal(t, []string{"Memo"}, s.Titles())
}

func TestSaveAllowsReservedNameAsPrefix(t *testing.T) {
	s, _ := openStore(t)
	require.NoError(t, s.Save("Console", "x"))
	require.NoError(t, s.Save("COM10", "y"))
}

func TestSaveNormalizesTitle(t *testing.T) {
	s, _ := openStore(t)

	require.NoError(t, s.Save("  Cafe\u0301 ", "x"))
	assert.Equal(t, []string{"Caf\u00e9"}, s.Titles())
	assert.ErrorIs(t, s.Save("Caf\u00e9", "y"), ErrDuplicateTitle)
}

func TestDeleteRemovesFromMemoryAndDisk(t *testing.T) {
	s, dir := openStore(t)
	require.NoError(t, s.Save("A", "1"))
	require.NoError(t, s.Save("B", "2"))

	require.NoError(t, s.Delete("A"))

	assert.Equal(t, []string{"B"}, s.Titles())
	_, err := os.Stat(filepath.Join(dir, "A.txt"))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, s.LoadAll())
	assert.Equal(t, []string{"B"}, s.Titles())
	_, ok := s.Get("A")
	assert.False(t, ok)
}

func TestDeleteWithNothingSelected(t *testing.T) {
	s, _ := openStore(t)
	require.NoError(t, s.Save("Keep", "me"))

	assert.ErrorIs(t, s.Delete(""), ErrNotFound)
	assert.ErrorIs(t, s.Delete("Missing"), ErrNotFound)
	assert.Equal(t, []string{"Keep"}, s.Titles())
}

func TestDeleteToleratesMissingFile(t *testing.T) {
	s, dir := openStore(t)
	require.NoError(t, s.Save("Gone", "x"))
	require.NoError(t, os.Remove(filepath.Join(dir, "Gone.txt")))

	require.NoError(t, s.Delete("Gone"))
	assert.Zero(t, s.Len())
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Greeting.txt"), []byte("hello"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Farewell.txt"), []byte("bye"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.md"), []byte("no"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, tempFilePrefix+"123"), []byte("no"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.txt"), 0755))

	s, err := Open(dir)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"Greeting", "Farewell"}, s.Titles())
	got, _ := s.Get("Greeting")
	assert.Equal(t, "hello", got)
	got, _ = s.Get("Farewell")
	assert.Equal(t, "bye", got)
}

func TestLoadedTitleWithSurroundingSpaces(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Todo .txt"), []byte("buy milk"), 0644))

	s, err := Open(dir)
	require.NoError(t, err)
	require.Equal(t, []string{"Todo "}, s.Titles())

	got, ok := s.Get("Todo ")
	require.True(t, ok)
	assert.Equal(t, "buy milk", got)

	require.NoError(t, s.Delete("Todo "))
	assert.Empty(t, s.Titles())
	_, err = os.Stat(filepath.Join(dir, "Todo .txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestLoadAllKeepsSavedOrder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), nil, 0644))

	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Save("a-saved", ""))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0-external.txt"), nil, 0644))

	require.NoError(t, s.LoadAll())
	assert.Equal(t, []string{"b", "a-saved", "0-external"}, s.Titles())
}

func TestTitlesOrder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), nil, 0644))

	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Save("0-new", ""))

	assert.Equal(t, []string{"a", "b", "0-new"}, s.Titles())
}

func TestWatchReloadsExternalChanges(t *testing.T) {
	s, dir := openStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 8)
	require.NoError(t, s.Watch(ctx, func() { changed <- struct{}{} }))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "External.txt"), []byte("from outside"), 0644))

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the new note")
	}
	got, ok := s.Get("External")
	require.True(t, ok)
	assert.Equal(t, "from outside", got)
}
