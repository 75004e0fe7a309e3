// SPDX-License-Identifier: MPL-2.0

// Package phptoken is a small PHP lexer that turns a source file into the
// token and doc-block model consumed by package sniff.
//
// It understands just enough PHP to find declarations, calls, string
// literals and structured doc comments: inline HTML, open/close tags,
// comments, quoted strings, heredoc/nowdoc, variables, numbers, identifiers
// and punctuation. It does not build a syntax tree.
package phptoken
