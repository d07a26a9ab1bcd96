// Copyright (c) The tabletdb Authors
// SPDX-License-Identifier: MPL-2.0

package fs

import (
	"os"
	"path/filepath"

	"github.com/coreos/etcd/pkg/fileutil"

	"github.com/tabletdb/fstool/types"
)

// FS implements the types.VFS interface using Go's built in OS filesystem
// (and a few helpers from etcd's fileutil). It only exposes read
// operations; the inspection tool never mutates anything on disk.
type FS struct{}

func New() *FS {
	return &FS{}
}

// ListDir returns a list of all entries in the specified dir in
// lexicographical order. If the dir doesn't exist, it returns an error.
// Empty slice with nil error is assumed to mean that the directory exists
// and was readable, but contains no entries.
func (fs *FS) ListDir(dir string) ([]string, error) {
	return fileutil.ReadDir(dir)
}

// Exists reports whether path names an existing file or directory.
func (fs *FS) Exists(path string) bool {
	return fileutil.Exist(path)
}

// IsDir reports whether path names an existing directory.
func (fs *FS) IsDir(path string) bool {
	fi, err := os.Stat(path)
	if err != nil {
		return false
	}
	return fi.IsDir()
}

// OpenReader opens an existing file in read-only mode. If the file doesn't
// exist or permission is denied, an error is returned, otherwise no checks
// are made about the well-formedness of the file, it may be empty, the
// wrong size or corrupt in arbitrary ways.
func (fs *FS) OpenReader(dir string, name string) (types.ReadableFile, error) {
	return os.OpenFile(filepath.Join(dir, name), os.O_RDONLY, os.FileMode(0644))
}
