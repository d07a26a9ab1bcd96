// Copyright (c) The tabletdb Authors
// SPDX-License-Identifier: MPL-2.0

package metadb

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ColumnSchema describes one column of a tablet's schema.
type ColumnSchema struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// Schema is a tablet's column schema. The first KeyColumns columns form
// the primary key.
type Schema struct {
	Columns    []ColumnSchema `json:"columns"`
	KeyColumns int            `json:"key_columns"`
}

// String renders the schema in the compact single-line form used by the
// inspection output.
func (s Schema) String() string {
	cols := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		nullability := "NOT NULL"
		if c.Nullable {
			nullability = "NULLABLE"
		}
		cols[i] = fmt.Sprintf("%s %s %s", c.Name, strings.ToUpper(c.Type), nullability)
	}
	keys := make([]string, 0, s.KeyColumns)
	for i := 0; i < s.KeyColumns && i < len(s.Columns); i++ {
		keys = append(keys, s.Columns[i].Name)
	}
	return fmt.Sprintf("(%s) PRIMARY KEY (%s)", strings.Join(cols, ", "), strings.Join(keys, ", "))
}

// PartitionSchema describes how a table is split into tablets.
type PartitionSchema struct {
	HashColumns  []string `json:"hash_columns"`
	HashBuckets  int      `json:"hash_buckets"`
	RangeColumns []string `json:"range_columns"`
}

// Partition is one tablet's slice of the partition space.
type Partition struct {
	HashBucket    int    `json:"hash_bucket"`
	RangeKeyStart string `json:"range_key_start"`
	RangeKeyEnd   string `json:"range_key_end"`
}

// PartitionDebugString renders p against the tablet's schema. Unbounded
// range ends render as the empty bound marker the engine uses elsewhere.
func (ps PartitionSchema) PartitionDebugString(p Partition, s Schema) string {
	var parts []string
	if len(ps.HashColumns) > 0 {
		parts = append(parts, fmt.Sprintf("HASH (%s) PARTITIONS %d bucket=%d",
			strings.Join(ps.HashColumns, ", "), ps.HashBuckets, p.HashBucket))
	}
	if len(ps.RangeColumns) > 0 {
		start := p.RangeKeyStart
		if start == "" {
			start = "<start>"
		}
		end := p.RangeKeyEnd
		if end == "" {
			end = "<end>"
		}
		parts = append(parts, fmt.Sprintf("RANGE (%s) [%s, %s)",
			strings.Join(ps.RangeColumns, ", "), start, end))
	}
	if len(parts) == 0 {
		return "UNPARTITIONED"
	}
	return strings.Join(parts, ", ")
}

// RowSet describes one persisted row set of a tablet: its row count, key
// bounds and the data block files backing it.
type RowSet struct {
	ID         uint64   `json:"id"`
	Rows       uint64   `json:"rows"`
	MinKey     string   `json:"min_key"`
	MaxKey     string   `json:"max_key"`
	DataBlocks []string `json:"data_blocks"`
}

// Superblock is the serialized form of a tablet's metadata. It is stored
// as one record per tablet in the metadata store and is also the debug
// rendering unit for inspection output.
type Superblock struct {
	TabletID      string          `json:"tablet_id"`
	TableID       string          `json:"table_id"`
	TableName     string          `json:"table_name"`
	SchemaVersion uint32          `json:"schema_version"`
	Schema        Schema          `json:"schema"`
	PartitionSch  PartitionSchema `json:"partition_schema"`
	Partition     Partition       `json:"partition"`
	WALDir        string          `json:"wal_dir"`
	RowSets       []RowSet        `json:"rowsets"`
}

// Debug returns the superblock's debug rendering. Conversion can fail in
// principle so the error is surfaced rather than swallowed.
func (sb *Superblock) Debug() (string, error) {
	out, err := json.MarshalIndent(sb, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}
