// SPDX-License-Identifier: MPL-2.0

package sniff

import "fmt"

// fakeSource is an in-memory Source. Doc strings are keyed by position.
type fakeSource struct {
	name     string
	tokens   []Token
	blocks   []DocBlock
	strings  map[int]string
	boundary int
}

func newFakeSource(name string) *fakeSource {
	return &fakeSource{
		name:     name,
		tokens:   []Token{{Kind: KindFileStart, Pos: 0}},
		strings:  make(map[int]string),
		boundary: 1 << 20,
	}
}

func (f *fakeSource) FileName() string      { return f.name }
func (f *fakeSource) Tokens() []Token       { return f.tokens }
func (f *fakeSource) DocBlocks() []DocBlock { return f.blocks }
func (f *fakeSource) ScanBoundary() int     { return f.boundary }

func (f *fakeSource) DocStringAfter(pos, bound int) (string, bool) {
	best := -1
	for p := range f.strings {
		if p > pos && p < bound && (best < 0 || p < best) {
			best = p
		}
	}
	if best < 0 {
		return "", false
	}
	return f.strings[best], true
}

// addBlock appends a doc block at start holding the given tag/value pairs.
// An empty value leaves the tag without a doc string.
func (f *fakeSource) addBlock(start int, pairs ...string) DocBlock {
	if len(pairs)%2 != 0 {
		panic(fmt.Sprintf("addBlock: odd number of pairs: %d", len(pairs)))
	}
	block := DocBlock{Start: start}
	pos := start + 1
	for i := 0; i < len(pairs); i += 2 {
		block.Tags = append(block.Tags, TagMarker{Name: pairs[i], Pos: pos})
		if pairs[i+1] != "" {
			f.strings[pos+1] = pairs[i+1]
		}
		pos += 2
	}
	block.End = pos
	f.blocks = append(f.blocks, block)
	return block
}

func (f *fakeSource) addToken(kind TokenKind, pos int, name string) {
	f.tokens = append(f.tokens, Token{Kind: kind, Pos: pos, Name: name})
}

// kindsOf returns the kinds of findings in order.
func kindsOf(findings []Finding) []FindingKind {
	kinds := make([]FindingKind, 0, len(findings))
	for _, f := range findings {
		kinds = append(kinds, f.Kind)
	}
	return kinds
}
