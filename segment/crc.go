// Copyright (c) The tabletdb Authors
// SPDX-License-Identifier: MPL-2.0

package segment

import (
	"hash/crc32"
)

var castagnoliTable *crc32.Table

func init() {
	castagnoliTable = crc32.MakeTable(crc32.Castagnoli)
}

func crc32c(buf []byte) uint32 {
	return crc32.Checksum(buf, castagnoliTable)
}
