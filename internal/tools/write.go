// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/cliff/internal/util"
)

// DefaultFileMode is used for files that do not exist yet.
const DefaultFileMode os.FileMode = 0644

// FileWriter creates or overwrites files on behalf of plan steps.
type FileWriter struct {
	// BaseDir resolves relative paths; empty means the current directory.
	BaseDir string
}

// Resolve returns the absolute path a step path refers to.
func (w *FileWriter) Resolve(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("path is required")
	}
	if !filepath.IsAbs(path) && w.BaseDir != "" {
		path = filepath.Join(w.BaseDir, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", path, err)
	}
	return abs, nil
}

// Write creates missing parent directories and writes content to path,
// replacing any existing file. An existing file keeps its permissions.
//
// A symlink is written through to its target. New and regular files are
// replaced atomically, so a failed write leaves the old content. A file that
// is hard linked, not a regular file, or sits in a directory that cannot
// take a temp file is rewritten in place instead.
func (w *FileWriter) Write(path, content string) (int64, error) {
	abs, err := w.Resolve(path)
	if err != nil {
		return 0, err
	}
	data := []byte(content)

	target := abs
	if info, err := os.Lstat(abs); err == nil && info.Mode()&os.ModeSymlink != 0 {
		resolved, err := filepath.EvalSymlinks(abs)
		switch {
		case err == nil:
			target = resolved
		case errors.Is(err, fs.ErrNotExist):
			// Dangling link: opening it creates the file it points to
			return writeInPlace(abs, data, DefaultFileMode)
		default:
			return 0, fmt.Errorf("resolve symlink %s: %w", abs, err)
		}
	}

	mode := DefaultFileMode
	info, err := os.Stat(target)
	exists := err == nil
	if exists {
		if info.IsDir() {
			return 0, fmt.Errorf("%s is a directory", target)
		}
		mode = info.Mode().Perm()
		if !info.Mode().IsRegular() || hardLinked(info) {
			return writeInPlace(target, data, mode)
		}
	}

	if err := util.AtomicWriteFile(target, data, mode); err != nil {
		if exists && errors.Is(err, fs.ErrPermission) {
			return writeInPlace(target, data, mode)
		}
		return 0, err
	}
	return int64(len(data)), nil
}

func writeInPlace(path string, data []byte, mode os.FileMode) (int64, error) {
	if err := os.WriteFile(path, data, mode); err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}
