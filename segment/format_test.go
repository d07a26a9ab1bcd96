// Copyright (c) The tabletdb Authors
// SPDX-License-Identifier: MPL-2.0

package segment

import (
	"encoding/binary"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/require"
)

func TestFileName(t *testing.T) {
	require.Equal(t, "00000000000000001234-00000000000010e1.wal", FileName(1234, 4321))
}

func TestIsSegmentFileName(t *testing.T) {
	cases := []struct {
		name string
		file string
		want bool
	}{
		{"canonical name", FileName(1, 1), true},
		{"large values", FileName(1<<60, 1<<50), true},
		{"wrong suffix", "00000000000000000001-0000000000000001.log", false},
		{"no suffix", "00000000000000000001-0000000000000001", false},
		{"stray file", "notes.txt", false},
		{"suffix only", ".wal", false},
		{"unpadded index", "1-0000000000000001.wal", false},
		{"unpadded id", "00000000000000000001-1.wal", false},
		{"non-hex id", "00000000000000000001-zzzzzzzzzzzzzzzz.wal", false},
		{"hidden file", "." + FileName(1, 1), false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, IsSegmentFileName(tc.file))
		})
	}
}

func TestHeaderCodec(t *testing.T) {
	cases := []struct {
		name    string
		hdr     Header
		corrupt func([]byte) []byte
		wantErr string
	}{
		{
			name: "basic encoding/decoding",
			hdr: Header{
				BaseIndex: 1234,
				ID:        4321,
				Fields:    map[string]string{"codec": "binary/v1", "seqno": "7"},
			},
		},
		{
			name: "no fields",
			hdr: Header{
				BaseIndex: 1,
				ID:        1,
			},
		},
		{
			name: "bad magic",
			hdr:  Header{BaseIndex: 1, ID: 1},
			corrupt: func(buf []byte) []byte {
				buf[0] = 0xff
				return buf
			},
			wantErr: "corrupt",
		},
		{
			name: "bad version",
			hdr:  Header{BaseIndex: 1, ID: 1},
			corrupt: func(buf []byte) []byte {
				buf[7] = 0xff
				return buf
			},
			wantErr: "corrupt",
		},
		{
			name: "absurd fields length",
			hdr:  Header{BaseIndex: 1, ID: 1},
			corrupt: func(buf []byte) []byte {
				binary.LittleEndian.PutUint32(buf[24:28], MaxFieldsSize+1)
				return buf
			},
			wantErr: "corrupt",
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			buf, err := EncodeHeader(tc.hdr)
			require.NoError(t, err)

			if tc.corrupt != nil {
				buf = tc.corrupt(buf)
			}

			h, fieldsLen, _, err := readPreamble(buf)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.hdr.BaseIndex, h.BaseIndex)
			require.Equal(t, tc.hdr.ID, h.ID)
			require.Equal(t, len(buf)-fileHeaderLen, int(fieldsLen))
		})
	}
}

func TestHeaderCodecFuzz(t *testing.T) {
	fuzzer := fuzz.New().NumElements(0, 8)

	var hdr Header
	for i := 0; i < 1000; i++ {
		fuzzer.Fuzz(&hdr.BaseIndex)
		fuzzer.Fuzz(&hdr.ID)
		fuzzer.Fuzz(&hdr.Fields)

		buf, err := EncodeHeader(hdr)
		require.NoError(t, err)

		vfs := newTestVFS()
		vfs.put("seg.wal", buf)

		got, err := OpenHeader(vfs, "dir", "seg.wal")
		require.NoError(t, err)
		require.Equal(t, hdr.BaseIndex, got.BaseIndex)
		require.Equal(t, hdr.ID, got.ID)
		require.Equal(t, len(hdr.Fields), len(got.Fields))
	}
}
