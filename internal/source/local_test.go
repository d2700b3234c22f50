package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLocalTree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "dev", "ana.pdf"), "%PDF")
	writeFile(t, filepath.Join(root, "dev", "bruno.TXT"), "resume")
	writeFile(t, filepath.Join(root, "dev", "notes.xlsx"), "")
	writeFile(t, filepath.Join(root, "dev", ".hidden.txt"), "")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dev", "archive"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "data"), 0o755))

	src, err := NewLocal(root)
	require.NoError(t, err)
	ctx := context.Background()

	folder, err := FindFolder(ctx, src, "", "DEV")
	require.NoError(t, err)
	assert.Equal(t, "dev", folder.ID)

	_, err = FindFolder(ctx, src, "", "sales")
	require.Error(t, err)

	entries, err := src.ListFolder(ctx, folder.ID)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, "ana.pdf", entries[0].Name)
	assert.True(t, entries[1].IsFolder())

	files := CandidateFiles(entries)
	require.Len(t, files, 2)
	assert.Equal(t, "dev/ana.pdf", files[0].ID)
	assert.Equal(t, "dev/bruno.TXT", files[1].ID)

	data, err := src.Download(ctx, files[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "resume", string(data))
}

func TestLocalRejectsEscapes(t *testing.T) {
	src, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = src.Download(context.Background(), "../etc/passwd")
	assert.ErrorIs(t, err, errEscapesRoot)

	_, err = src.ListFolder(context.Background(), "/etc")
	assert.ErrorIs(t, err, errEscapesRoot)
}

func TestNewLocalRequiresDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	writeFile(t, file, "x")

	_, err := NewLocal(file)
	require.Error(t, err)
	_, err = NewLocal(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestLocalEnsureFolder(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "Dev"), 0o755))

	src, err := NewLocal(root)
	require.NoError(t, err)

	entry, created, err := src.EnsureFolder(ctx, "dev")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Dev", entry.Name)

	entry, created, err = src.EnsureFolder(ctx, "design")
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, entry.IsFolder())
	assert.DirExists(t, filepath.Join(root, "design"))

	found, err := FindFolder(ctx, src, "", "design")
	require.NoError(t, err)
	assert.Equal(t, "design", found.ID)

	for _, name := range []string{"", "..", "a/b", "/tmp"} {
		_, _, err := src.EnsureFolder(ctx, name)
		assert.ErrorIs(t, err, errNotFolderName, name)
	}
}
