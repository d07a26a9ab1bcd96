// Copyright (c) The tabletdb Authors
// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"io"
	"os"
)

var (
	// ErrNotFound is returned when a requested tablet, metadata record or
	// directory doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrCorrupt is returned when an on-disk structure is present but its
	// bytes don't parse as a valid instance of that structure.
	ErrCorrupt = errors.New("corrupt")

	// ErrUninitialized is returned when an on-disk structure exists but has
	// not been fully written yet, for example a segment file that was just
	// pre-allocated by a concurrent writer. It's an expected transient state
	// on a live system, not a failure.
	ErrUninitialized = errors.New("uninitialized")
)

// ReadableFile provides random read access to a file on disk. *os.File
// implements it directly.
type ReadableFile interface {
	io.ReaderAt
	io.Closer
	Stat() (os.FileInfo, error)
}

// VFS is the read-only slice of filesystem operations the inspection tool
// needs. It abstracts the actual file system for easier testing and keeps
// the rest of the code honest about never writing anything.
type VFS interface {
	// ListDir returns the names of all entries in dir, files and
	// directories alike, in lexicographical order. If the dir doesn't
	// exist it must return an error. An empty slice with nil error means
	// the directory exists and is readable but is empty.
	ListDir(dir string) ([]string, error)

	// Exists reports whether path names an existing file or directory.
	Exists(path string) bool

	// IsDir reports whether path names an existing directory.
	IsDir(path string) bool

	// OpenReader opens an existing file in read-only mode. No checks are
	// made about the well-formedness of the file, it may be empty, the
	// wrong size or corrupt in arbitrary ways.
	OpenReader(dir string, name string) (ReadableFile, error)
}
