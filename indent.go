// Copyright (c) The tabletdb Authors
// SPDX-License-Identifier: MPL-2.0

package fstool

import "strings"

// Indent returns indent spaces.
func Indent(indent int) string {
	return strings.Repeat(" ", indent)
}

// IndentString prefixes every line of s with indent spaces.
func IndentString(s string, indent int) string {
	return Indent(indent) + strings.ReplaceAll(s, "\n", "\n"+Indent(indent))
}
