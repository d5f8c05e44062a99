package action

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestCreateFolder(t *testing.T) {
	dir := t.TempDir()
	f := NewFiles(fakeGuard{}, dir, quiet)

	got, err := f.CreateFolder(context.Background(), "reports")
	require.NoError(t, err)
	assert.Equal(t, "Folder created: reports, sir.", got)
	assert.DirExists(t, filepath.Join(dir, "reports"))
}

func TestCreateFolderProtected(t *testing.T) {
	dir := t.TempDir()
	f := NewFiles(fakeGuard{protected: filepath.Join(dir, "etc")}, dir, quiet)

	got, err := f.CreateFolder(context.Background(), "etc")
	require.NoError(t, err)
	assert.Equal(t, "Cannot create folder in protected directory.", got)
	assert.NoDirExists(t, filepath.Join(dir, "etc"))
}

func TestRename(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.txt"))
	f := NewFiles(fakeGuard{}, dir, quiet)
	ctx := context.Background()

	got, err := f.Rename(ctx, "a.txt", "b.txt")
	require.NoError(t, err)
	assert.Equal(t, "Renamed to: b.txt, sir.", got)
	assert.FileExists(t, filepath.Join(dir, "b.txt"))

	got, _ = f.Rename(ctx, "missing.txt", "c.txt")
	assert.Equal(t, "File not found.", got)

	guarded := NewFiles(fakeGuard{protected: filepath.Join(dir, "b.txt")}, dir, quiet)
	got, _ = guarded.Rename(ctx, "b.txt", "c.txt")
	assert.Equal(t, "Cannot rename protected file.", got)
}

func TestMoveIntoDirectory(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "notes.txt"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive"), 0o755))
	f := NewFiles(fakeGuard{}, dir, quiet)

	got, err := f.Move(context.Background(), "notes.txt", "archive")
	require.NoError(t, err)
	assert.Equal(t, "Moved notes.txt to archive, sir.", got)
	assert.FileExists(t, filepath.Join(dir, "archive", "notes.txt"))

	got, _ = f.Move(context.Background(), "notes.txt", "archive")
	assert.Equal(t, "Source file not found.", got)
}

func TestDeleteAsksWhenGated(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "old.log")
	touch(t, path)
	f := NewFiles(fakeGuard{gate: true}, dir, quiet)
	ctx := context.Background()

	got, err := f.Delete(ctx, "old.log", false)
	require.NoError(t, err)
	assert.Equal(t, "CONFIRM_DELETE: Are you sure you want to delete old.log?", got)
	assert.FileExists(t, path)

	got, err = f.Delete(ctx, "old.log", true)
	require.NoError(t, err)
	assert.Equal(t, "Deleted: old.log, sir.", got)
	assert.NoFileExists(t, path)
}

func TestDeleteUngated(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "tmp.txt"))
	f := NewFiles(fakeGuard{}, dir, quiet)

	got, err := f.Delete(context.Background(), "tmp.txt", false)
	require.NoError(t, err)
	assert.Equal(t, "Deleted: tmp.txt, sir.", got)
}

func TestDeleteRefusals(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keep.txt")
	touch(t, path)
	ctx := context.Background()

	got, _ := NewFiles(fakeGuard{}, dir, quiet).Delete(ctx, "nope.txt", true)
	assert.Equal(t, "File not found.", got)

	got, _ = NewFiles(fakeGuard{protected: path}, dir, quiet).Delete(ctx, "keep.txt", true)
	assert.Equal(t, "Cannot delete protected file.", got)
	assert.FileExists(t, path)
}

func TestSearch(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.go"))
	touch(t, filepath.Join(dir, "sub", "b.go"))
	touch(t, filepath.Join(dir, "sub", "c.txt"))
	f := NewFiles(fakeGuard{}, dir, quiet)
	ctx := context.Background()

	got, err := f.Search(ctx, ".", "*.go")
	require.NoError(t, err)
	assert.Equal(t, "Found 2 file(s):\na.go\n"+filepath.Join("sub", "b.go")+"\n", got)

	got, _ = f.Search(ctx, ".", "*.rs")
	assert.Equal(t, "No files found matching '*.rs'", got)

	got, _ = f.Search(ctx, "missing", "*")
	assert.Equal(t, "Directory not found.", got)
}

func TestSearchTruncates(t *testing.T) {
	dir := t.TempDir()
	for i := range 13 {
		touch(t, filepath.Join(dir, fmt.Sprintf("f%02d.md", i)))
	}

	got, err := NewFiles(fakeGuard{}, dir, quiet).Search(context.Background(), dir, "*.md")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "Found 13 file(s):\nf00.md\n"))
	assert.True(t, strings.HasSuffix(got, "f09.md\n\n... and 3 more"))
}
