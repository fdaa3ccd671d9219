// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWriter_CreatesParents(t *testing.T) {
	dir := t.TempDir()
	w := &FileWriter{BaseDir: dir}

	n, err := w.Write("a/b/c.txt", "hello\n")
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)

	data, err := os.ReadFile(filepath.Join(dir, "a", "b", "c.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}

func TestFileWriter_OverwritesKeepingMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.sh")
	require.NoError(t, os.WriteFile(path, []byte("old old old"), 0755))

	w := &FileWriter{}
	_, err := w.Write(path, "new")
	require.NoError(t, err)

	data, _ := os.ReadFile(path)
	assert.Equal(t, "new", string(data))

	if runtime.GOOS != "windows" {
		info, _ := os.Stat(path)
		assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
	}
}

func TestFileWriter_EmptyContent(t *testing.T) {
	dir := t.TempDir()
	w := &FileWriter{BaseDir: dir}

	n, err := w.Write("empty.txt", "")
	require.NoError(t, err)
	assert.Zero(t, n)

	info, err := os.Stat(filepath.Join(dir, "empty.txt"))
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestFileWriter_Errors(t *testing.T) {
	dir := t.TempDir()
	w := &FileWriter{BaseDir: dir}

	_, err := w.Write("", "x")
	assert.Error(t, err)

	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))
	_, err = w.Write("sub", "x")
	assert.Error(t, err)

	// A parent that is a regular file cannot become a directory
	require.NoError(t, os.WriteFile(filepath.Join(dir, "file"), []byte("x"), 0644))
	_, err = w.Write("file/child.txt", "x")
	assert.Error(t, err)
}

func skipWithoutLinks(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("links need extra privileges on Windows")
	}
}

func TestFileWriter_WritesThroughSymlink(t *testing.T) {
	skipWithoutLinks(t)
	dir := t.TempDir()
	target := filepath.Join(dir, "real.txt")
	link := filepath.Join(dir, "link.txt")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0600))
	require.NoError(t, os.Symlink(target, link))

	w := &FileWriter{BaseDir: dir}
	n, err := w.Write("link.txt", "new")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	info, err := os.Lstat(link)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink, "link should survive the write")

	info, err = os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileWriter_DanglingSymlinkCreatesTarget(t *testing.T) {
	skipWithoutLinks(t)
	dir := t.TempDir()
	target := filepath.Join(dir, "missing.txt")
	require.NoError(t, os.Symlink(target, filepath.Join(dir, "link.txt")))

	w := &FileWriter{BaseDir: dir}
	_, err := w.Write("link.txt", "created")
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "created", string(data))
}

func TestFileWriter_KeepsHardLinks(t *testing.T) {
	skipWithoutLinks(t)
	dir := t.TempDir()
	first := filepath.Join(dir, "first.txt")
	second := filepath.Join(dir, "second.txt")
	require.NoError(t, os.WriteFile(first, []byte("old content"), 0644))
	require.NoError(t, os.Link(first, second))

	w := &FileWriter{BaseDir: dir}
	_, err := w.Write("first.txt", "new")
	require.NoError(t, err)

	data, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestFileWriter_ReadOnlyDirectory(t *testing.T) {
	skipWithoutLinks(t)
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	dir := filepath.Join(t.TempDir(), "locked")
	require.NoError(t, os.Mkdir(dir, 0755))
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0644))
	require.NoError(t, os.Chmod(dir, 0555))
	t.Cleanup(func() { _ = os.Chmod(dir, 0755) })

	w := &FileWriter{}
	_, err := w.Write(path, "new")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	// A new file still needs a writable directory
	_, err = w.Write(filepath.Join(dir, "other.txt"), "x")
	assert.Error(t, err)
}
