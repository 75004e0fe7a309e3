// SPDX-License-Identifier: MPL-2.0

package sniff

import "strings"

// DocTagSet maps a doc-block tag name (without "@") to its trimmed value.
type DocTagSet map[string]string

// ExtractTags builds the tag set of one doc block. A tag's value is the first
// doc string between its marker and the next marker, or the block end for the
// last tag. Tags without a value are omitted and a later duplicate overwrites
// an earlier one. A block without tag markers yields an empty set.
func ExtractTags(src Source, block DocBlock) DocTagSet {
	tags := make(DocTagSet, len(block.Tags))
	for i, marker := range block.Tags {
		bound := block.End
		if i+1 < len(block.Tags) {
			bound = block.Tags[i+1].Pos
		}
		value, ok := src.DocStringAfter(marker.Pos, bound)
		if !ok {
			continue
		}
		tags[marker.Name] = strings.TrimSpace(value)
	}
	return tags
}

// Applicable reports whether the tag set describes the canonical TGMPA
// library block: the right package, a version tag, and not the example file.
func (t DocTagSet) Applicable() bool {
	if t["package"] != VendorPackage {
		return false
	}
	if _, ok := t["version"]; !ok {
		return false
	}
	if sub, ok := t["subpackage"]; ok && sub == ExampleSubpackage {
		return false
	}
	return true
}
