// SPDX-License-Identifier: MPL-2.0

package phptoken

import (
	"sort"
	"strings"

	"github.com/themecheck/tgmpalint/internal/sniff"
)

type (
	// File is a tokenized PHP file. It implements sniff.Source.
	File struct {
		name       string
		size       int
		lineStarts []int
		raw        []Token
		tokens     []sniff.Token
		blocks     []sniff.DocBlock
		docStrings []docString
		boundary   int
	}

	docString struct {
		pos  int
		text string
	}
)

var _ sniff.Source = (*File)(nil)

// Parse tokenizes src and builds the semantic view of the file.
func Parse(name string, src []byte) *File {
	f := &File{
		name:       name,
		size:       len(src),
		lineStarts: lineStarts(src),
		raw:        Tokenize(src),
		boundary:   len(src),
	}
	f.classify()
	for _, tok := range f.raw {
		if tok.Kind == DocComment {
			f.addDocComment(tok)
		}
	}
	return f
}

// FileName implements sniff.Source.
func (f *File) FileName() string { return f.name }

// Tokens implements sniff.Source.
func (f *File) Tokens() []sniff.Token { return f.tokens }

// DocBlocks implements sniff.Source.
func (f *File) DocBlocks() []sniff.DocBlock { return f.blocks }

// ScanBoundary implements sniff.Source.
func (f *File) ScanBoundary() int { return f.boundary }

// DocStringAfter implements sniff.Source.
func (f *File) DocStringAfter(pos, bound int) (string, bool) {
	i := sort.Search(len(f.docStrings), func(i int) bool { return f.docStrings[i].pos > pos })
	if i == len(f.docStrings) || f.docStrings[i].pos >= bound {
		return "", false
	}
	return f.docStrings[i].text, true
}

// LineCol converts a byte offset into a 1-based line and column.
func (f *File) LineCol(pos int) (line, col int) {
	if pos < 0 {
		pos = 0
	}
	if pos > f.size {
		pos = f.size
	}
	i := sort.Search(len(f.lineStarts), func(i int) bool { return f.lineStarts[i] > pos }) - 1
	return i + 1, pos - f.lineStarts[i] + 1
}

func lineStarts(src []byte) []int {
	starts := []int{0}
	for i, c := range src {
		if c == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// classify walks the significant tokens and records declarations, calls and
// the position of the first class-like declaration.
func (f *File) classify() {
	sig := make([]Token, 0, len(f.raw))
	for _, tok := range f.raw {
		if !tok.trivial() {
			sig = append(sig, tok)
		}
	}

	start := sniff.Token{Kind: sniff.KindFileStart}
	for _, tok := range sig {
		if tok.Kind == OpenTag {
			start.Pos = tok.Pos
			break
		}
	}
	f.tokens = append(f.tokens, start)

	at := func(i int) Token {
		if i < 0 || i >= len(sig) {
			return Token{Kind: Whitespace}
		}
		return sig[i]
	}

	for i, tok := range sig {
		if tok.Kind != Ident {
			continue
		}
		prev, next := at(i-1), at(i+1)
		lower := strings.ToLower(tok.Text)

		switch lower {
		case "class", "interface", "trait":
			if isPunct(prev, "::") || isKeyword(prev, "new") || next.Kind != Ident {
				continue
			}
			kind := sniff.KindClass
			switch lower {
			case "interface":
				kind = sniff.KindInterface
			case "trait":
				kind = sniff.KindTrait
			}
			f.tokens = append(f.tokens, sniff.Token{Kind: kind, Pos: tok.Pos, Name: next.Text})
			if tok.Pos < f.boundary {
				f.boundary = tok.Pos
			}
		case "function":
			if isPunct(prev, "->") || isPunct(prev, "?->") || isPunct(prev, "::") {
				continue
			}
			if isPunct(next, "&") {
				next = at(i + 2)
			}
			if next.Kind == Ident {
				f.tokens = append(f.tokens, sniff.Token{Kind: sniff.KindFunction, Pos: tok.Pos, Name: next.Text})
			}
		case "const":
			if next.Kind != Ident {
				continue
			}
			// Typed class constants put the type before the name.
			if after := at(i + 2); after.Kind == Ident {
				next = after
			}
			f.tokens = append(f.tokens, sniff.Token{Kind: sniff.KindConstant, Pos: tok.Pos, Name: next.Text})
		case "define":
			if isPunct(next, "(") && at(i+2).Kind == String {
				f.tokens = append(f.tokens, sniff.Token{Kind: sniff.KindConstant, Pos: tok.Pos, Name: unquote(at(i + 2).Text)})
			}
		default:
			if !isPunct(next, "(") || isKeyword(prev, "function") || isKeyword(prev, "new") ||
				isPunct(prev, "->") || isPunct(prev, "?->") || isPunct(prev, "::") {
				continue
			}
			name := tok.Text[strings.LastIndexByte(tok.Text, '\\')+1:]
			f.tokens = append(f.tokens, sniff.Token{Kind: sniff.KindCall, Pos: tok.Pos, Name: name})
		}
	}
}

// addDocComment splits a doc comment into tag markers and doc strings. A tag
// starts at an "@name" that begins the line's content or follows whitespace,
// so one-line blocks carry several tags. The text up to the next tag is the
// tag's doc string; text before the first tag is a doc string of its own.
func (f *File) addDocComment(tok Token) {
	block := sniff.DocBlock{Start: tok.Pos, End: tok.Pos + len(tok.Text)}

	offset := 0
	for line := range strings.SplitAfterSeq(tok.Text, "\n") {
		lineOffset := offset
		offset += len(line)

		content, at := docLineContent(line, lineOffset == 0)
		if content == "" {
			continue
		}
		base := tok.Pos + lineOffset + at

		starts := tagStarts(content)
		if len(starts) == 0 || starts[0] > 0 {
			lead := content
			if len(starts) > 0 {
				lead = content[:starts[0]]
			}
			f.addDocString(base, lead)
		}
		for i, start := range starts {
			end := len(content)
			if i+1 < len(starts) {
				end = starts[i+1]
			}
			nameEnd := start + 1
			for nameEnd < end && !isSpace(content[nameEnd]) {
				nameEnd++
			}
			block.Tags = append(block.Tags, sniff.TagMarker{Name: content[start+1 : nameEnd], Pos: base + start})
			f.addDocString(base+nameEnd, content[nameEnd:end])
		}
	}

	f.blocks = append(f.blocks, block)
}

// addDocString records text at pos with surrounding blanks removed.
func (f *File) addDocString(pos int, text string) {
	trimmed := strings.TrimLeft(text, " \t")
	pos += len(text) - len(trimmed)
	trimmed = strings.TrimRight(trimmed, " \t")
	if trimmed != "" {
		f.docStrings = append(f.docStrings, docString{pos: pos, text: trimmed})
	}
}

// tagStarts returns the offsets of every "@name" in content that starts the
// content or follows a blank.
func tagStarts(content string) []int {
	var starts []int
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '@' && isIdentStart(content[i+1]) && (i == 0 || isSpace(content[i-1])) {
			starts = append(starts, i)
		}
	}
	return starts
}

// docLineContent strips comment decoration from one doc-comment line and
// returns the remaining text with its offset inside the line.
func docLineContent(line string, first bool) (string, int) {
	at := 0
	skip := func(n int) { at += n }

	skip(len(line) - len(strings.TrimLeft(line, " \t")))
	if first && strings.HasPrefix(line[at:], "/**") {
		skip(3)
	}
	for at < len(line) && line[at] == '*' && !strings.HasPrefix(line[at:], "*/") {
		skip(1)
	}
	skip(len(line[at:]) - len(strings.TrimLeft(line[at:], " \t")))

	content := strings.TrimRight(line[at:], " \t\r\n")
	content = strings.TrimSuffix(content, "*/")
	content = strings.TrimRight(content, " \t")
	return content, at
}

func isPunct(t Token, p string) bool {
	return t.Kind == Punct && t.Text == p
}

func isKeyword(t Token, kw string) bool {
	return t.Kind == Ident && strings.EqualFold(t.Text, kw)
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
