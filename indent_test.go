// Copyright (c) The tabletdb Authors
// SPDX-License-Identifier: MPL-2.0

package fstool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIndent(t *testing.T) {
	require.Equal(t, "", Indent(0))
	require.Equal(t, "    ", Indent(4))
}

func TestIndentString(t *testing.T) {
	require.Equal(t, "  one", IndentString("one", 2))
	require.Equal(t, "  one\n  two", IndentString("one\ntwo", 2))
	require.Equal(t, "one\ntwo", IndentString("one\ntwo", 0))
}
