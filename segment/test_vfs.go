// Copyright (c) The tabletdb Authors
// SPDX-License-Identifier: MPL-2.0

package segment

import (
	"io"
	"os"
	"sort"
	"time"

	"github.com/tabletdb/fstool/types"
)

// testVFS implements types.VFS in memory for testing. It holds a single
// flat directory of named files and supports error injection.
type testVFS struct {
	files map[string]*testFile

	listErr error
	openErr error
}

func newTestVFS() *testVFS {
	return &testVFS{
		files: make(map[string]*testFile),
	}
}

func (fs *testVFS) put(name string, contents []byte) *testFile {
	f := &testFile{name: name, buf: contents}
	fs.files[name] = f
	return f
}

func (fs *testVFS) ListDir(dir string) ([]string, error) {
	if fs.listErr != nil {
		return nil, fs.listErr
	}
	names := make([]string, 0, len(fs.files))
	for name := range fs.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (fs *testVFS) Exists(path string) bool {
	_, ok := fs.files[path]
	return ok
}

func (fs *testVFS) IsDir(path string) bool {
	return false
}

func (fs *testVFS) OpenReader(dir string, name string) (types.ReadableFile, error) {
	if fs.openErr != nil {
		return nil, fs.openErr
	}
	f, ok := fs.files[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	return f, nil
}

type testFile struct {
	name string
	buf  []byte

	readErr error
	statErr error
	closed  bool
}

// ReadAt mimics os.File semantics: a read that runs off the end of the
// file returns the bytes read plus io.EOF.
func (f *testFile) ReadAt(p []byte, off int64) (int, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}
	if off >= int64(len(f.buf)) {
		return 0, io.EOF
	}
	n := copy(p, f.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (f *testFile) Close() error {
	f.closed = true
	return nil
}

func (f *testFile) Stat() (os.FileInfo, error) {
	if f.statErr != nil {
		return nil, f.statErr
	}
	return testFileInfo{name: f.name, size: int64(len(f.buf))}, nil
}

type testFileInfo struct {
	name string
	size int64
}

func (fi testFileInfo) Name() string       { return fi.name }
func (fi testFileInfo) Size() int64        { return fi.size }
func (fi testFileInfo) Mode() os.FileMode  { return 0644 }
func (fi testFileInfo) ModTime() time.Time { return time.Time{} }
func (fi testFileInfo) IsDir() bool        { return false }
func (fi testFileInfo) Sys() any           { return nil }
