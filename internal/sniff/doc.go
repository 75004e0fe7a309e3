// SPDX-License-Identifier: MPL-2.0

// Package sniff detects vendored copies of TGM Plugin Activation (TGMPA) and
// checks their embedded version against the latest upstream release.
//
// The package is host-neutral: a tokenizer supplies a Source for each file and
// the Coordinator is driven once per relevant token. It is organized into:
//   - source.go: the token and doc-block model a host must provide
//   - classify.go: signature heuristics deciding whether a file is TGMPA
//   - doctags.go: doc-block tag extraction
//   - version.go: the version and generator-provenance grammar
//   - compliance.go: version currency and provenance checks
//   - coordinator.go: per-file state machine and one-shot resolver notices
package sniff
