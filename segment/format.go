// Copyright (c) The tabletdb Authors
// SPDX-License-Identifier: MPL-2.0

package segment

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tabletdb/fstool/types"
)

const (
	segmentFileSuffix      = ".wal"
	segmentFileNamePattern = "%020d-%016x" + segmentFileSuffix

	// MaxFieldsSize is the largest debug-field region we accept in a
	// header. Real headers are a few hundred bytes; anything bigger means
	// the length field itself is garbage and limits allocation when
	// reading corrupt files.
	MaxFieldsSize = 64 * 1024

	fileHeaderLen = 32
	version       = 0
	magic         = 0x74b53a1c
)

/*

  File Header

	0      1      2      3      4      5      6      7      8
	+------+------+------+------+------+------+------+------+
	| Magic                     | Reserved           | Vsn  |
	+------+------+------+------+------+------+------+------+
	| BaseIndex                                             |
	+------+------+------+------+------+------+------+------+
	| SegmentID                                             |
	+------+------+------+------+------+------+------+------+
	| FieldsLen                 | FieldsCRC                 |
	+------+------+------+------+------+------+------+------+

  followed by FieldsLen bytes of JSON-encoded debug fields covered by
  FieldsCRC (CRC32-Castagnoli).

*/

// Header is the parsed header of one log segment file. The debug fields
// are owned by the log format; the tool treats them as opaque text.
type Header struct {
	BaseIndex uint64
	ID        uint64
	Fields    map[string]string

	// FileSize is the total size of the segment file the header was read
	// from, not part of the encoded header itself.
	FileSize int64
}

// FileName returns the formatted file name expected for a segment with the
// given base index and ID.
func FileName(baseIndex, id uint64) string {
	return fmt.Sprintf(segmentFileNamePattern, baseIndex, id)
}

// IsSegmentFileName reports whether name matches the segment file naming
// convention. Files that merely share the suffix but don't parse are not
// segments; a stray file in a WAL dir must never be treated as one.
func IsSegmentFileName(name string) bool {
	if !strings.HasSuffix(name, segmentFileSuffix) {
		return false
	}
	var baseIndex, id uint64
	n, err := fmt.Sscanf(name, segmentFileNamePattern, &baseIndex, &id)
	if err != nil || n != 2 {
		return false
	}
	// Sscanf is lenient about width so round-trip to rule out names with
	// the right shape but wrong padding.
	return FileName(baseIndex, id) == name
}

// EncodeHeader returns the canonical on-disk encoding of h. The log writer
// owns this format; the tool itself only ever decodes.
func EncodeHeader(h Header) ([]byte, error) {
	fields, err := json.Marshal(h.Fields)
	if err != nil {
		return nil, err
	}
	if len(fields) > MaxFieldsSize {
		return nil, fmt.Errorf("header debug fields too large (%d bytes)", len(fields))
	}

	buf := make([]byte, fileHeaderLen+len(fields))
	binary.LittleEndian.PutUint32(buf[0:4], magic)
	// Explicitly zero Reserved bytes just in case
	buf[4] = 0
	buf[5] = 0
	buf[6] = 0
	buf[7] = version
	binary.LittleEndian.PutUint64(buf[8:16], h.BaseIndex)
	binary.LittleEndian.PutUint64(buf[16:24], h.ID)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(len(fields)))
	binary.LittleEndian.PutUint32(buf[28:32], crc32c(fields))
	copy(buf[fileHeaderLen:], fields)
	return buf, nil
}

// readPreamble decodes the fixed 32 byte preamble. It returns the partial
// header plus the length and checksum of the fields region that follows.
func readPreamble(buf []byte) (Header, uint32, uint32, error) {
	var h Header
	if len(buf) < fileHeaderLen {
		return h, 0, 0, fmt.Errorf("%w: truncated segment header preamble (%d bytes)", types.ErrCorrupt, len(buf))
	}
	if binary.LittleEndian.Uint32(buf[0:4]) != magic {
		return h, 0, 0, fmt.Errorf("%w: bad segment header magic", types.ErrCorrupt)
	}
	if buf[7] != version {
		return h, 0, 0, fmt.Errorf("%w: unsupported segment header version %d", types.ErrCorrupt, buf[7])
	}
	h.BaseIndex = binary.LittleEndian.Uint64(buf[8:16])
	h.ID = binary.LittleEndian.Uint64(buf[16:24])
	fieldsLen := binary.LittleEndian.Uint32(buf[24:28])
	fieldsCRC := binary.LittleEndian.Uint32(buf[28:32])
	if fieldsLen > MaxFieldsSize {
		return h, 0, 0, fmt.Errorf("%w: segment header indicates a fields region larger than %d bytes", types.ErrCorrupt, MaxFieldsSize)
	}
	return h, fieldsLen, fieldsCRC, nil
}

func isZero(buf []byte) bool {
	for _, b := range buf {
		if b != 0 {
			return false
		}
	}
	return true
}
