package fsx_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clipmenu/clipmenu-go/internal/fsx"
)

func TestAtomicWriter_Write(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "content.txt")

	writer := fsx.NewAtomicWriter(fsx.NewReal())
	opts := fsx.AtomicWriteOptions{SyncDir: true, Perm: 0o644}
	require.NoError(t, writer.Write(path, strings.NewReader("hello clip"), opts))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "hello clip", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no leftover temp files")
}

func TestAtomicWriter_OverwritesExisting(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "content.txt")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	writer := fsx.NewAtomicWriter(fsx.NewReal())
	opts := fsx.AtomicWriteOptions{SyncDir: true, Perm: 0o644}
	require.NoError(t, writer.Write(path, strings.NewReader("new"), opts))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "new", string(got))
}
