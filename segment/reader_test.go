// Copyright (c) The tabletdb Authors
// SPDX-License-Identifier: MPL-2.0

package segment

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tabletdb/fstool/types"
)

func validHeaderBytes(t *testing.T) []byte {
	t.Helper()
	buf, err := EncodeHeader(Header{
		BaseIndex: 42,
		ID:        7,
		Fields:    map[string]string{"codec": "binary/v1", "compression": "none"},
	})
	require.NoError(t, err)
	return buf
}

func TestOpenHeaderClassification(t *testing.T) {
	valid := validHeaderBytes(t)

	cases := []struct {
		name     string
		contents []byte
		wantErr  error
	}{
		{
			name:     "valid header",
			contents: valid,
		},
		{
			name:     "empty file is uninitialized",
			contents: []byte{},
			wantErr:  types.ErrUninitialized,
		},
		{
			name:     "all zero preamble is uninitialized",
			contents: make([]byte, fileHeaderLen),
			wantErr:  types.ErrUninitialized,
		},
		{
			name:     "short all zero file is uninitialized",
			contents: make([]byte, 10),
			wantErr:  types.ErrUninitialized,
		},
		{
			name:     "short non-zero file is corrupt",
			contents: []byte("garbage"),
			wantErr:  types.ErrCorrupt,
		},
		{
			name:     "bad magic is corrupt",
			contents: append([]byte{0xde, 0xad, 0xbe, 0xef}, valid[4:]...),
			wantErr:  types.ErrCorrupt,
		},
		{
			name:     "truncated fields region is corrupt",
			contents: valid[:len(valid)-3],
			wantErr:  types.ErrCorrupt,
		},
		{
			name: "fields checksum mismatch is corrupt",
			contents: func() []byte {
				buf := append([]byte{}, valid...)
				buf[len(buf)-1] ^= 0xff
				return buf
			}(),
			wantErr: types.ErrCorrupt,
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			vfs := newTestVFS()
			vfs.put("seg.wal", tc.contents)

			hdr, err := OpenHeader(vfs, "dir", "seg.wal")
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, uint64(42), hdr.BaseIndex)
			require.Equal(t, uint64(7), hdr.ID)
			require.Equal(t, int64(len(tc.contents)), hdr.FileSize)
		})
	}
}

func TestOpenHeaderIOErrorIsFatal(t *testing.T) {
	ioErr := errors.New("injected read failure")

	vfs := newTestVFS()
	f := vfs.put("seg.wal", validHeaderBytes(t))
	f.readErr = ioErr

	_, err := OpenHeader(vfs, "dir", "seg.wal")
	require.ErrorIs(t, err, ioErr)
	require.NotErrorIs(t, err, types.ErrCorrupt)
	require.NotErrorIs(t, err, types.ErrUninitialized)
}

func TestOpenHeaderMissingFile(t *testing.T) {
	vfs := newTestVFS()
	_, err := OpenHeader(vfs, "dir", "nope.wal")
	require.Error(t, err)
}

func TestHeaderDebugDeterministic(t *testing.T) {
	vfs := newTestVFS()
	vfs.put("seg.wal", validHeaderBytes(t))

	first, err := OpenHeader(vfs, "dir", "seg.wal")
	require.NoError(t, err)
	second, err := OpenHeader(vfs, "dir", "seg.wal")
	require.NoError(t, err)

	require.Equal(t, first.Debug(), second.Debug())
	require.Equal(t,
		"base index: 42\nsegment id: 0000000000000007\ncodec: binary/v1\ncompression: none",
		first.Debug())
}
