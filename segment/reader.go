// Copyright (c) The tabletdb Authors
// SPDX-License-Identifier: MPL-2.0

package segment

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/tabletdb/fstool/types"
)

// OpenHeader opens the segment file name in dir and parses its header.
// There are four outcomes:
//
//   - a parsed *Header and nil error on success
//   - an error matching types.ErrUninitialized when the file exists but no
//     header has been fully written yet (empty or still all zero because a
//     concurrent writer pre-allocated it)
//   - an error matching types.ErrCorrupt when a header region is present
//     but its bytes don't parse
//   - any other error for real I/O failures (permissions, disk errors)
//
// Callers scanning a live directory are expected to log and skip the
// first two error classes and abort on the last.
func OpenHeader(vfs types.VFS, dir string, name string) (*Header, error) {
	rf, err := vfs.OpenReader(dir, name)
	if err != nil {
		return nil, err
	}
	defer rf.Close()

	fi, err := rf.Stat()
	if err != nil {
		return nil, err
	}
	size := fi.Size()
	if size == 0 {
		return nil, fmt.Errorf("%w: segment file is empty", types.ErrUninitialized)
	}

	var pre [fileHeaderLen]byte
	n, err := rf.ReadAt(pre[:], 0)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		// File is shorter than a preamble. All zero bytes means the writer
		// hasn't flushed a header yet, anything else is damage.
		if isZero(pre[:n]) {
			return nil, fmt.Errorf("%w: segment header not yet written", types.ErrUninitialized)
		}
		return nil, fmt.Errorf("%w: truncated segment header preamble (%d bytes)", types.ErrCorrupt, n)
	}
	if err != nil {
		return nil, err
	}
	if isZero(pre[:]) {
		return nil, fmt.Errorf("%w: segment header not yet written", types.ErrUninitialized)
	}

	h, fieldsLen, fieldsCRC, err := readPreamble(pre[:])
	if err != nil {
		return nil, err
	}
	h.FileSize = size

	fields := make([]byte, fieldsLen)
	if fieldsLen > 0 {
		n, err := rf.ReadAt(fields, fileHeaderLen)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: segment header fields truncated (%d of %d bytes)", types.ErrCorrupt, n, fieldsLen)
		}
		if err != nil {
			return nil, err
		}
	}
	if crc32c(fields) != fieldsCRC {
		return nil, fmt.Errorf("%w: segment header fields checksum mismatch", types.ErrCorrupt)
	}
	if fieldsLen > 0 {
		if err := json.Unmarshal(fields, &h.Fields); err != nil {
			return nil, fmt.Errorf("%w: segment header fields don't parse: %s", types.ErrCorrupt, err)
		}
	}
	return &h, nil
}

// Debug renders the header as multi-line text with one field per line.
// Output is deterministic: debug fields are sorted by key.
func (h *Header) Debug() string {
	var b strings.Builder
	fmt.Fprintf(&b, "base index: %d\n", h.BaseIndex)
	fmt.Fprintf(&b, "segment id: %016x\n", h.ID)

	keys := make([]string, 0, len(h.Fields))
	for k := range h.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, h.Fields[k])
	}
	return strings.TrimSuffix(b.String(), "\n")
}
