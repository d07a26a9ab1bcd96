// Copyright (c) The tabletdb Authors
// SPDX-License-Identifier: MPL-2.0

package metadb

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"go.etcd.io/bbolt"

	"github.com/tabletdb/fstool/types"
)

const (
	// FileName is the file name for the bolt db holding tablet metadata,
	// relative to the storage root.
	FileName = "tablet-meta.db"

	// MetaBucket is the bolt bucket mapping tablet id -> superblock.
	MetaBucket = "tablet-meta"
)

var (
	// ErrNotOpen is returned when any call is made before Open has opened
	// the DB file.
	ErrNotOpen = errors.New("metadb: not open")
)

// BoltMetaDB stores one superblock record per tablet in a BoltDB file at
// the storage root. The engine writes records through Put; the inspection
// tool opens the store read-only and loads records fresh on every call.
type BoltMetaDB struct {
	dir string
	db  *bbolt.DB
}

// Open opens (and in writable mode creates) the metadata store in dir.
// A read-only open of a dir that was never initialized fails, which is
// the desired behavior for the inspection tool: there is no storage
// manager there to inspect.
func (db *BoltMetaDB) Open(dir string, readOnly bool) error {
	if db.db != nil {
		return fmt.Errorf("already open in dir %s", db.dir)
	}
	db.dir = dir

	opts := &bbolt.Options{ReadOnly: readOnly}
	bb, err := bbolt.Open(filepath.Join(dir, FileName), 0644, opts)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", FileName, err)
	}
	db.db = bb

	if readOnly {
		return nil
	}

	tx, err := db.db.Begin(true)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.CreateBucketIfNotExists([]byte(MetaBucket)); err != nil {
		return err
	}
	return tx.Commit()
}

// Load reads the superblock for tabletID. Every call reads from disk; no
// record is ever cached. Returns an error matching types.ErrNotFound if
// no such tablet exists.
func (db *BoltMetaDB) Load(tabletID string) (*Superblock, error) {
	if db.db == nil {
		return nil, ErrNotOpen
	}

	tx, err := db.db.Begin(false)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	meta := tx.Bucket([]byte(MetaBucket))
	if meta == nil {
		return nil, fmt.Errorf("%w: no metadata for tablet %s", types.ErrNotFound, tabletID)
	}
	raw := meta.Get([]byte(tabletID))
	if raw == nil {
		return nil, fmt.Errorf("%w: no metadata for tablet %s", types.ErrNotFound, tabletID)
	}

	var sb Superblock
	if err := json.Unmarshal(raw, &sb); err != nil {
		return nil, fmt.Errorf("%w: failed to parse superblock for tablet %s: %s", types.ErrCorrupt, tabletID, err)
	}
	return &sb, nil
}

// ListTabletIDs returns the ids of all tablets with a metadata record, in
// key order.
func (db *BoltMetaDB) ListTabletIDs() ([]string, error) {
	if db.db == nil {
		return nil, ErrNotOpen
	}

	tx, err := db.db.Begin(false)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	meta := tx.Bucket([]byte(MetaBucket))
	if meta == nil {
		return nil, nil
	}
	var ids []string
	c := meta.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		ids = append(ids, string(k))
	}
	return ids, nil
}

// Put persists the superblock for its tablet id, replacing any existing
// record. This is the engine's write path; the inspection tool never
// calls it on a read-only store.
func (db *BoltMetaDB) Put(sb *Superblock) error {
	if db.db == nil {
		return ErrNotOpen
	}

	encoded, err := json.Marshal(sb)
	if err != nil {
		return fmt.Errorf("failed to encode superblock: %w", err)
	}

	tx, err := db.db.Begin(true)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	meta := tx.Bucket([]byte(MetaBucket))
	if err := meta.Put([]byte(sb.TabletID), encoded); err != nil {
		return err
	}
	return tx.Commit()
}

// Close implements io.Closer
func (db *BoltMetaDB) Close() error {
	if db.db == nil {
		return nil
	}
	err := db.db.Close()
	db.db = nil
	return err
}
