// SPDX-License-Identifier: MPL-2.0

package sniff

import (
	"path/filepath"
	"strings"
)

// Classify reports whether a token (or the file it belongs to) identifies a
// vendored copy of TGMPA. A non-empty filename whose basename matches one of
// the library's shipped file names is a match regardless of tok; otherwise
// the token's kind and declared name decide.
//
// Classify runs for every relevant token of every scanned file and has no
// side effects.
func Classify(filename string, tok Token) bool {
	if filename != "" && isVendorFileName(filename) {
		return true
	}

	switch tok.Kind {
	case KindClass:
		return tok.Name == VendorClassName
	case KindFunction:
		return tok.Name == VendorBootstrapFunc
	case KindConstant:
		return tok.Name == VendorVersionConstant
	case KindCall:
		// Themes call tgmpa_register from their own files, so a match here
		// would flag the integration rather than the library.
		return false
	case KindOther, KindFileStart, KindInterface, KindTrait:
		return false
	}
	return false
}

func isVendorFileName(filename string) bool {
	base := strings.ToLower(filepath.Base(filepath.FromSlash(filename)))
	_, ok := vendorFileNames[base]
	return ok
}
