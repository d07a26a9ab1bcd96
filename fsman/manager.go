// Copyright (c) The tabletdb Authors
// SPDX-License-Identifier: MPL-2.0

// Package fsman exposes the storage manager's on-disk layout for reading:
// the instance identity, the WAL root directories, the tablet metadata
// store and the data directory. The inspection tool opens it read-only so
// it can run against a live, concurrently-mutating engine.
package fsman

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/tabletdb/fstool/fs"
	"github.com/tabletdb/fstool/metadb"
	"github.com/tabletdb/fstool/types"
)

const (
	// InstanceFileName is the identity file at the storage root.
	InstanceFileName = "instance"

	// DataDirName and WALDirName are the fixed child directories of the
	// storage root.
	DataDirName = "data"
	WALDirName  = "wals"

	// RecoveryDirSuffix marks a tablet WAL directory holding segments
	// pending replay. A directory either carries the suffix and is a
	// recovery dir, or doesn't and is a normal WAL dir, never both.
	RecoveryDirSuffix = ".recovery"

	// HiddenPrefix marks directory entries that are never tables, tablets
	// or segments.
	HiddenPrefix = "."

	instanceFormatVersion = 1
)

// Instance is the identity record stored in the instance file.
type Instance struct {
	UUID          string `json:"uuid"`
	FormatVersion int    `json:"format_version"`
}

// Options configures opening a storage manager.
type Options struct {
	// RootDir is the storage root containing the instance file, the
	// metadata store, the data dir and the default WAL root.
	RootDir string

	// WALDirs lists additional WAL root directories outside RootDir.
	// RootDir/wals is always a WAL root.
	WALDirs []string

	// ReadOnly opens the metadata store without taking write locks so the
	// tool can run against a live engine. The inspection tool always sets
	// it.
	ReadOnly bool

	// VFS defaults to the OS filesystem.
	VFS types.VFS

	// Logger defaults to hclog.Default().
	Logger hclog.Logger
}

// Manager provides read access to one storage manager instance.
type Manager struct {
	opts Options
	vfs  types.VFS
	log  hclog.Logger
	uuid string
	meta *metadb.BoltMetaDB
}

// Open opens the storage manager rooted at opts.RootDir. It fails with an
// error matching types.ErrNotFound if no instance exists there.
func Open(opts Options) (*Manager, error) {
	if opts.VFS == nil {
		opts.VFS = fs.New()
	}
	if opts.Logger == nil {
		opts.Logger = hclog.Default()
	}

	m := &Manager{
		opts: opts,
		vfs:  opts.VFS,
		log:  opts.Logger,
	}

	inst, err := m.readInstance()
	if err != nil {
		return nil, err
	}
	m.uuid = inst.UUID

	m.meta = &metadb.BoltMetaDB{}
	if err := m.meta.Open(opts.RootDir, opts.ReadOnly); err != nil {
		return nil, fmt.Errorf("failed to open tablet metadata store: %w", err)
	}
	return m, nil
}

func (m *Manager) readInstance() (*Instance, error) {
	path := filepath.Join(m.opts.RootDir, InstanceFileName)
	if !m.vfs.Exists(path) {
		return nil, fmt.Errorf("%w: no storage manager instance at %s", types.ErrNotFound, m.opts.RootDir)
	}
	rf, err := m.vfs.OpenReader(m.opts.RootDir, InstanceFileName)
	if err != nil {
		return nil, fmt.Errorf("failed to open instance file %s: %w", path, err)
	}
	defer rf.Close()

	fi, err := rf.Stat()
	if err != nil {
		return nil, err
	}
	raw := make([]byte, fi.Size())
	if _, err := rf.ReadAt(raw, 0); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read instance file %s: %w", path, err)
	}

	var inst Instance
	if err := json.Unmarshal(raw, &inst); err != nil {
		return nil, fmt.Errorf("%w: instance file %s doesn't parse: %s", types.ErrCorrupt, path, err)
	}
	if inst.UUID == "" {
		return nil, fmt.Errorf("%w: instance file %s has no uuid", types.ErrCorrupt, path)
	}
	return &inst, nil
}

// Close releases the metadata store.
func (m *Manager) Close() error {
	return m.meta.Close()
}

// UUID returns the storage manager's identity.
func (m *Manager) UUID() string {
	return m.uuid
}

// RootDir returns the storage root.
func (m *Manager) RootDir() string {
	return m.opts.RootDir
}

// DataDir returns the directory holding data block files.
func (m *Manager) DataDir() string {
	return filepath.Join(m.opts.RootDir, DataDirName)
}

// WALRootDirs returns every WAL root directory: the one under the storage
// root plus any configured extras.
func (m *Manager) WALRootDirs() []string {
	dirs := []string{filepath.Join(m.opts.RootDir, WALDirName)}
	dirs = append(dirs, m.opts.WALDirs...)
	return dirs
}

// VFS returns the filesystem the manager was opened with.
func (m *Manager) VFS() types.VFS {
	return m.vfs
}

// ListDir lists dir through the manager's filesystem.
func (m *Manager) ListDir(dir string) ([]string, error) {
	return m.vfs.ListDir(dir)
}

// Exists reports whether path exists.
func (m *Manager) Exists(path string) bool {
	return m.vfs.Exists(path)
}

// RecoveryDir returns the recovery directory path for a tablet WAL dir.
func (m *Manager) RecoveryDir(tabletWALDir string) string {
	return tabletWALDir + RecoveryDirSuffix
}

// LoadTabletMeta loads the superblock for tabletID fresh from the
// metadata store.
func (m *Manager) LoadTabletMeta(tabletID string) (*metadb.Superblock, error) {
	return m.meta.Load(tabletID)
}

// ListTabletIDs returns all tablet ids known to the metadata store.
func (m *Manager) ListTabletIDs() ([]string, error) {
	return m.meta.ListTabletIDs()
}

// IsHidden reports whether a directory entry name carries the hidden
// prefix and must never be treated as a table, tablet or segment.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, HiddenPrefix)
}

// IsRecoveryDirName reports whether a directory name carries the recovery
// suffix.
func IsRecoveryDirName(name string) bool {
	return strings.HasSuffix(name, RecoveryDirSuffix)
}

// DumpTree writes an indented recursive listing of the storage root and
// any extra WAL roots to w.
func (m *Manager) DumpTree(w io.Writer) error {
	roots := []string{m.opts.RootDir}
	roots = append(roots, m.opts.WALDirs...)
	for _, root := range roots {
		if !m.vfs.Exists(root) {
			return fmt.Errorf("%w: directory %s does not exist", types.ErrNotFound, root)
		}
		fmt.Fprintf(w, "%s/\n", root)
		if err := m.dumpTree(w, root, 1); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) dumpTree(w io.Writer, dir string, depth int) error {
	entries, err := m.vfs.ListDir(dir)
	if err != nil {
		return fmt.Errorf("could not list directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		path := filepath.Join(dir, entry)
		if m.vfs.IsDir(path) {
			fmt.Fprintf(w, "%s%s/\n", strings.Repeat("  ", depth), entry)
			if err := m.dumpTree(w, path, depth+1); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), entry)
	}
	return nil
}

// Create initializes a new storage manager layout at rootDir with the
// given identity: the instance file, the data and WAL dirs and an empty
// metadata store. This is the engine's provisioning path; the inspection
// tool never calls it.
func Create(rootDir string, uuid string) error {
	for _, dir := range []string{rootDir, filepath.Join(rootDir, DataDirName), filepath.Join(rootDir, WALDirName)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	inst := Instance{UUID: uuid, FormatVersion: instanceFormatVersion}
	raw, err := json.Marshal(inst)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(rootDir, InstanceFileName), raw, 0644); err != nil {
		return err
	}

	meta := &metadb.BoltMetaDB{}
	if err := meta.Open(rootDir, false); err != nil {
		return err
	}
	return meta.Close()
}
