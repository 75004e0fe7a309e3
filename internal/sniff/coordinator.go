// SPDX-License-Identifier: MPL-2.0

package sniff

// Process is invoked by the host once per relevant token of a file. It
// surfaces a pending resolver notice on the first call of the run, then, if
// the token confirms the file as TGMPA, checks the file's library doc block.
//
// A file moves Unseen → Confirmed → Resolved within a single call; once
// Resolved, later tokens of the same file produce nothing.
func Process(state *ScanState, src Source, tok Token) []Finding {
	var findings []Finding
	if kind, ok := state.takeNotice().findingKind(); ok {
		findings = append(findings, NewFinding(kind, 0))
	}

	file := src.FileName()
	if state.Checked(file) {
		return findings
	}

	var filename string
	if tok.Kind == KindFileStart {
		filename = file
	}
	if !Classify(filename, tok) {
		return findings
	}
	if !state.claim(file) {
		return findings
	}

	return append(findings, checkDocBlocks(state, src, tok)...)
}

// ScanFile drives Process over every token of src and returns all findings.
func ScanFile(state *ScanState, src Source) []Finding {
	var findings []Finding
	for _, tok := range src.Tokens() {
		findings = append(findings, Process(state, src, tok)...)
	}
	return findings
}

// checkDocBlocks evaluates the first applicable doc block that precedes the
// scan boundary. Without one, the file is reported as VersionUndetermined at
// the token that confirmed it.
func checkDocBlocks(state *ScanState, src Source, tok Token) []Finding {
	boundary := src.ScanBoundary()
	for _, block := range src.DocBlocks() {
		if block.Start >= boundary {
			break
		}
		tags := ExtractTags(src, block)
		if !tags.Applicable() {
			continue
		}
		if findings, ok := Evaluate(tags, state.Latest(), versionTagPos(block)); ok {
			return findings
		}
	}
	return []Finding{NewFinding(VersionUndetermined, tok.Pos, state.Latest())}
}

// versionTagPos returns the position of the last "@version" marker in block,
// matching the value ExtractTags keeps.
func versionTagPos(block DocBlock) int {
	pos := block.Start
	for _, tag := range block.Tags {
		if tag.Name == "version" {
			pos = tag.Pos
		}
	}
	return pos
}
