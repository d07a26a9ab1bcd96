// Copyright (c) The tabletdb Authors
// SPDX-License-Identifier: MPL-2.0

// Package fstool implements a read-only inspection tool for the on-disk
// layout of a tabletdb storage manager: WAL segment listings, segment
// header dumps, tablet metadata and tablet debug dumps. It never mutates
// persisted state and is safe to run against a live engine.
package fstool

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/atomic"
	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-hclog"

	"github.com/tabletdb/fstool/fsman"
	"github.com/tabletdb/fstool/segment"
	"github.com/tabletdb/fstool/tablet"
	"github.com/tabletdb/fstool/types"
)

var (
	ErrNotFound      = types.ErrNotFound
	ErrCorrupt       = types.ErrCorrupt
	ErrUninitialized = types.ErrUninitialized
)

// DetailLevel controls how much structure is rendered per listed item.
// Each level's output is a line-for-line superset of the previous one.
type DetailLevel int

const (
	IDOnly DetailLevel = iota
	HeadersOnly
	Full
)

func (d DetailLevel) String() string {
	switch d {
	case IDOnly:
		return "ids"
	case HeadersOnly:
		return "headers"
	case Full:
		return "full"
	default:
		return fmt.Sprintf("DetailLevel(%d)", int(d))
	}
}

// ParseDetailLevel parses the string forms accepted on the command line.
func ParseDetailLevel(s string) (DetailLevel, error) {
	switch s {
	case "ids":
		return IDOnly, nil
	case "headers":
		return HeadersOnly, nil
	case "full":
		return Full, nil
	default:
		return IDOnly, fmt.Errorf("unknown detail level %q (want ids, headers or full)", s)
	}
}

// Tool is the inspection tool. Construct with New, call Init once, then
// any number of inspection operations. All dependencies are explicit;
// nothing is looked up from ambient global state.
type Tool struct {
	rootDir string
	walDirs []string
	detail  DetailLevel
	vfs     types.VFS
	out     io.Writer
	log     hclog.Logger

	fsm         *fsman.Manager
	initialized atomic.Value[bool]
}

type toolOpt func(*Tool)

// WithDetailLevel sets the verbosity for listing operations.
func WithDetailLevel(d DetailLevel) toolOpt {
	return func(t *Tool) {
		t.detail = d
	}
}

// WithWALDirs adds WAL root directories outside the storage root.
func WithWALDirs(dirs ...string) toolOpt {
	return func(t *Tool) {
		t.walDirs = append(t.walDirs, dirs...)
	}
}

// WithOutput directs informational output somewhere other than stdout.
func WithOutput(w io.Writer) toolOpt {
	return func(t *Tool) {
		t.out = w
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l hclog.Logger) toolOpt {
	return func(t *Tool) {
		t.log = l
	}
}

// WithVFS substitutes the filesystem, for tests.
func WithVFS(vfs types.VFS) toolOpt {
	return func(t *Tool) {
		t.vfs = vfs
	}
}

// New creates a Tool for the storage manager rooted at rootDir.
func New(rootDir string, opts ...toolOpt) *Tool {
	t := &Tool{
		rootDir: rootDir,
		detail:  IDOnly,
		out:     os.Stdout,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.log == nil {
		t.log = hclog.Default()
	}
	return t
}

// Init opens the storage manager read-only. It must be called exactly
// once before any inspection operation.
func (t *Tool) Init() error {
	if t.initialized.Load() {
		return errors.New("already initialized")
	}
	t.initialized.Store(true)

	fsm, err := fsman.Open(fsman.Options{
		RootDir:  t.rootDir,
		WALDirs:  t.walDirs,
		ReadOnly: true,
		VFS:      t.vfs,
		Logger:   t.log,
	})
	if err != nil {
		return err
	}
	t.fsm = fsm
	t.log.Info("opened storage manager", "uuid", fsm.UUID())
	return nil
}

// Close releases the storage manager.
func (t *Tool) Close() error {
	if t.fsm == nil {
		return nil
	}
	return t.fsm.Close()
}

// FsTree prints the full directory tree of the storage manager.
func (t *Tool) FsTree() error {
	return t.fsm.DumpTree(t.out)
}

// ListAllLogSegments walks every WAL root directory, reporting each table
// directory's tablet WAL and recovery dirs and the segments inside them.
func (t *Tool) ListAllLogSegments() error {
	for _, walsDir := range t.fsm.WALRootDirs() {
		if !t.fsm.Exists(walsDir) {
			return fmt.Errorf("%w: root log directory '%s' does not exist", types.ErrNotFound, walsDir)
		}

		fmt.Fprintf(t.out, "Root log directory: %s\n", walsDir)

		tables, err := t.fsm.ListDir(walsDir)
		if err != nil {
			return fmt.Errorf("could not list table directories in %s: %w", walsDir, err)
		}
		for _, table := range tables {
			if fsman.IsHidden(table) {
				continue
			}
			tableWALDir := filepath.Join(walsDir, table)
			children, err := t.fsm.ListDir(tableWALDir)
			if err != nil {
				return fmt.Errorf("could not list log directories in %s: %w", tableWALDir, err)
			}
			for _, child := range children {
				if fsman.IsHidden(child) {
					// Hidden files or ./..
					t.log.Debug("ignoring hidden entry in table log directory", "entry", child)
					continue
				}
				path := filepath.Join(tableWALDir, child)
				if fsman.IsRecoveryDirName(child) {
					fmt.Fprintf(t.out, "Log recovery dir found: %s\n", path)
				} else {
					fmt.Fprintf(t.out, "Log directory: %s\n", path)
				}
				if err := t.ListSegmentsInDir(path); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// ListLogSegmentsForTablet lists the segments in one tablet's WAL dir and,
// when present, its recovery dir. A missing recovery dir is not an error.
func (t *Tool) ListLogSegmentsForTablet(tabletID string) error {
	meta, err := t.fsm.LoadTabletMeta(tabletID)
	if err != nil {
		return err
	}

	tabletWALDir := meta.WALDir
	if !t.fsm.Exists(tabletWALDir) {
		return fmt.Errorf("%w: tablet '%s' has no logs in wals dir '%s'", types.ErrNotFound, tabletID, tabletWALDir)
	}
	fmt.Fprintf(t.out, "Tablet WAL dir found: %s\n", tabletWALDir)
	if err := t.ListSegmentsInDir(tabletWALDir); err != nil {
		return err
	}

	recoveryDir := t.fsm.RecoveryDir(tabletWALDir)
	if t.fsm.Exists(recoveryDir) {
		fmt.Fprintf(t.out, "Recovery dir found: %s\n", recoveryDir)
		if err := t.ListSegmentsInDir(recoveryDir); err != nil {
			return err
		}
	}
	return nil
}

// ListAllTablets prints every tablet id known to the metadata store, with
// metadata detail from HeadersOnly up.
func (t *Tool) ListAllTablets() error {
	tablets, err := t.fsm.ListTabletIDs()
	if err != nil {
		return err
	}
	for _, id := range tablets {
		fmt.Fprintf(t.out, "Tablet: %s\n", id)
		if t.detail >= HeadersOnly {
			if err := t.printTabletMeta(id, 2, t.detail >= Full); err != nil {
				return err
			}
		}
	}
	return nil
}

// ListSegmentsInDir lists the recognized log segments in one directory in
// filesystem listing order. Non-segment files are silently skipped. From
// HeadersOnly up each segment's header is rendered under its name.
func (t *Tool) ListSegmentsInDir(segmentsDir string) error {
	entries, err := t.fsm.ListDir(segmentsDir)
	if err != nil {
		return fmt.Errorf("unable to list log segments in %s: %w", segmentsDir, err)
	}
	fmt.Fprintf(t.out, "Segments in %s:\n", segmentsDir)
	for _, name := range entries {
		if !segment.IsSegmentFileName(name) {
			continue
		}
		fmt.Fprintf(t.out, "Segment: %s\n", name)
		if t.detail >= HeadersOnly {
			if err := t.PrintLogSegmentHeader(segmentsDir, name, 2); err != nil {
				return err
			}
		}
	}
	return nil
}

// PrintLogSegmentHeader opens one segment file and renders its size and
// header. Uninitialized and corrupt segments are expected on a live
// system (segments rotate and get created concurrently); they are logged
// and produce no output. Any other failure aborts the enclosing scan.
func (t *Tool) PrintLogSegmentHeader(dir string, name string, indent int) error {
	path := filepath.Join(dir, name)
	hdr, err := segment.OpenHeader(t.fsm.VFS(), dir, name)
	if errors.Is(err, types.ErrUninitialized) {
		t.log.Error("segment is not initialized", "path", path, "error", err)
		return nil
	}
	if errors.Is(err, types.ErrCorrupt) {
		t.log.Error("segment is corrupt", "path", path, "error", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("unexpected error reading log segment %s: %w", path, err)
	}

	fmt.Fprintf(t.out, "%sSize: %s\n", Indent(indent), humanize.IBytes(uint64(hdr.FileSize)))
	fmt.Fprintf(t.out, "%sHeader:\n", Indent(indent))
	fmt.Fprintln(t.out, IndentString(hdr.Debug(), indent+2))
	return nil
}

// PrintTabletMeta renders a tablet's partition, table, schema and
// superblock as indented text.
func (t *Tool) PrintTabletMeta(tabletID string, indent int) error {
	return t.printTabletMeta(tabletID, indent, true)
}

func (t *Tool) printTabletMeta(tabletID string, indent int, superblock bool) error {
	meta, err := t.fsm.LoadTabletMeta(tabletID)
	if err != nil {
		return err
	}

	fmt.Fprintf(t.out, "%sPartition: %s\n", Indent(indent),
		meta.PartitionSch.PartitionDebugString(meta.Partition, meta.Schema))
	fmt.Fprintf(t.out, "%sTable name: %s Table id: %s\n", Indent(indent), meta.TableName, meta.TableID)
	fmt.Fprintf(t.out, "%sSchema (version=%d): %s\n", Indent(indent), meta.SchemaVersion, meta.Schema)

	if !superblock {
		return nil
	}
	debug, err := meta.Debug()
	if err != nil {
		return fmt.Errorf("could not get superblock for tablet %s: %w", tabletID, err)
	}
	fmt.Fprintf(t.out, "%sSuperblock:\n", Indent(indent))
	fmt.Fprintln(t.out, IndentString(debug, indent+2))
	return nil
}

// DumpTabletData opens the named tablet read-only and prints its debug
// dump. Opening drives the tablet's own load path; it touches nothing on
// disk but may populate caches inside the engine.
func (t *Tool) DumpTabletData(tabletID string) error {
	meta, err := t.fsm.LoadTabletMeta(tabletID)
	if err != nil {
		return err
	}

	tab := tablet.New(meta, t.fsm.VFS(), t.fsm.DataDir(), t.log)
	if err := tab.Open(); err != nil {
		return fmt.Errorf("could not open tablet %s: %w", tabletID, err)
	}
	lines, err := tab.DebugDump()
	if err != nil {
		return fmt.Errorf("could not dump tablet %s: %w", tabletID, err)
	}
	for _, line := range lines {
		fmt.Fprintln(t.out, line)
	}
	return nil
}

// PrintUUID prints the storage manager's identity.
func (t *Tool) PrintUUID(indent int) error {
	fmt.Fprintf(t.out, "%s%s\n", Indent(indent), t.fsm.UUID())
	return nil
}
