// Copyright (c) The tabletdb Authors
// SPDX-License-Identifier: MPL-2.0

package tablet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tabletdb/fstool/fs"
	"github.com/tabletdb/fstool/metadb"
)

func testMeta() *metadb.Superblock {
	return &metadb.Superblock{
		TabletID:  "tablet-1",
		TableID:   "table-1",
		TableName: "metrics",
		RowSets: []metadb.RowSet{
			{ID: 2, Rows: 30, MinKey: "m", MaxKey: "z", DataBlocks: []string{"2.data"}},
			{ID: 1, Rows: 100, MinKey: "a", MaxKey: "l", DataBlocks: []string{"1a.data", "1b.data"}},
		},
	}
}

func writeBlocks(t *testing.T, dataDir string, blocks map[string]int) {
	t.Helper()
	for name, size := range blocks {
		require.NoError(t, os.WriteFile(filepath.Join(dataDir, name), make([]byte, size), 0644))
	}
}

func TestOpenAndDebugDump(t *testing.T) {
	dataDir := t.TempDir()
	writeBlocks(t, dataDir, map[string]int{"1a.data": 1024, "1b.data": 1024, "2.data": 512})

	tab := New(testMeta(), fs.New(), dataDir, nil)
	require.NoError(t, tab.Open())

	lines, err := tab.DebugDump()
	require.NoError(t, err)
	require.Equal(t, []string{
		`Dumping tablet tablet-1 (table "metrics"):`,
		"MemRowSet: empty (no write path attached)",
		"RowSet(1): 100 rows, 2 blocks, 2.0 KiB, keys [a, l]",
		"RowSet(2): 30 rows, 1 blocks, 512 B, keys [m, z]",
		"Total: 2 rowsets, 130 rows",
	}, lines)
}

func TestOpenMissingBlock(t *testing.T) {
	dataDir := t.TempDir()
	writeBlocks(t, dataDir, map[string]int{"1a.data": 10, "2.data": 10})

	tab := New(testMeta(), fs.New(), dataDir, nil)
	err := tab.Open()
	require.Error(t, err)
	require.ErrorContains(t, err, "1b.data")
}

func TestDumpBeforeOpen(t *testing.T) {
	tab := New(testMeta(), fs.New(), t.TempDir(), nil)
	_, err := tab.DebugDump()
	require.ErrorContains(t, err, "not open")
}

func TestDoubleOpen(t *testing.T) {
	dataDir := t.TempDir()
	writeBlocks(t, dataDir, map[string]int{"1a.data": 1, "1b.data": 1, "2.data": 1})

	tab := New(testMeta(), fs.New(), dataDir, nil)
	require.NoError(t, tab.Open())
	require.ErrorContains(t, tab.Open(), "already open")
}
