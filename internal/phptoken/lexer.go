// SPDX-License-Identifier: MPL-2.0

package phptoken

import (
	"bytes"
	"strings"
)

// Lexical token kinds.
const (
	InlineHTML Kind = iota
	OpenTag
	CloseTag
	Whitespace
	Comment
	DocComment
	String
	Variable
	Number
	Ident
	Punct
)

type (
	// Kind is the lexical class of a Token.
	Kind int

	// Token is a lexical token. Pos is the byte offset of Text in the source.
	Token struct {
		Kind Kind
		Text string
		Pos  int
	}

	lexer struct {
		src    []byte
		pos    int
		inPHP  bool
		tokens []Token
	}
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case InlineHTML:
		return "inline-html"
	case OpenTag:
		return "open-tag"
	case CloseTag:
		return "close-tag"
	case Whitespace:
		return "whitespace"
	case Comment:
		return "comment"
	case DocComment:
		return "doc-comment"
	case String:
		return "string"
	case Variable:
		return "variable"
	case Number:
		return "number"
	case Ident:
		return "ident"
	case Punct:
		return "punct"
	}
	return "unknown"
}

// trivial reports whether the token carries no syntax.
func (t Token) trivial() bool {
	switch t.Kind {
	case Whitespace, Comment, DocComment, InlineHTML:
		return true
	case OpenTag, CloseTag, String, Variable, Number, Ident, Punct:
		return false
	}
	return false
}

// Tokenize splits PHP source into lexical tokens. It never fails: malformed
// input (an unterminated string or comment) runs to the end of the file.
func Tokenize(src []byte) []Token {
	l := &lexer{src: src}
	for l.pos < len(l.src) {
		if l.inPHP {
			l.lexPHP()
		} else {
			l.lexHTML()
		}
	}
	return l.tokens
}

func (l *lexer) emit(kind Kind, start int) {
	l.tokens = append(l.tokens, Token{Kind: kind, Text: string(l.src[start:l.pos]), Pos: start})
}

func (l *lexer) hasPrefix(s string) bool {
	return bytes.HasPrefix(l.src[l.pos:], []byte(s))
}

func (l *lexer) lexHTML() {
	start := l.pos
	for l.pos < len(l.src) {
		if n := l.openTagLen(); n > 0 {
			if l.pos > start {
				l.emit(InlineHTML, start)
			}
			tagStart := l.pos
			l.pos += n
			l.emit(OpenTag, tagStart)
			l.inPHP = true
			return
		}
		l.pos++
	}
	l.emit(InlineHTML, start)
}

// openTagLen returns the length of a PHP open tag at the current position.
func (l *lexer) openTagLen() int {
	rest := l.src[l.pos:]
	if len(rest) >= 5 && strings.EqualFold(string(rest[:5]), "<?php") {
		if len(rest) == 5 || isSpace(rest[5]) {
			return 5
		}
	}
	if bytes.HasPrefix(rest, []byte("<?=")) {
		return 3
	}
	return 0
}

func (l *lexer) lexPHP() {
	start := l.pos
	c := l.src[l.pos]
	switch {
	case l.hasPrefix("?>"):
		l.pos += 2
		// The close tag swallows a single newline.
		if l.pos < len(l.src) && l.src[l.pos] == '\n' {
			l.pos++
		}
		l.emit(CloseTag, start)
		l.inPHP = false
	case isSpace(c):
		for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
			l.pos++
		}
		l.emit(Whitespace, start)
	case l.hasPrefix("#["):
		l.pos += 2
		l.emit(Punct, start)
	case c == '#' || l.hasPrefix("//"):
		l.lexLineComment()
		l.emit(Comment, start)
	case l.hasPrefix("/**") && l.pos+3 < len(l.src) && isSpace(l.src[l.pos+3]):
		l.lexBlockComment()
		l.emit(DocComment, start)
	case l.hasPrefix("/*"):
		l.lexBlockComment()
		l.emit(Comment, start)
	case c == '\'' || c == '"' || c == '`':
		l.lexQuoted(c)
		l.emit(String, start)
	case l.hasPrefix("<<<"):
		if l.lexHeredoc() {
			l.emit(String, start)
			return
		}
		l.pos = start + 3
		l.emit(Punct, start)
	case c == '$' && l.pos+1 < len(l.src) && isIdentStart(l.src[l.pos+1]):
		l.pos++
		for l.pos < len(l.src) && isIdentChar(l.src[l.pos]) {
			l.pos++
		}
		l.emit(Variable, start)
	case isDigit(c):
		for l.pos < len(l.src) && (isIdentChar(l.src[l.pos]) || l.src[l.pos] == '.') {
			l.pos++
		}
		l.emit(Number, start)
	case isIdentStart(c) || c == '\\':
		for l.pos < len(l.src) && (isIdentChar(l.src[l.pos]) || l.src[l.pos] == '\\') {
			l.pos++
		}
		l.emit(Ident, start)
	default:
		l.pos += punctLen(l.src[l.pos:])
		l.emit(Punct, start)
	}
}

// lexLineComment consumes up to the end of line or a close tag.
func (l *lexer) lexLineComment() {
	for l.pos < len(l.src) && l.src[l.pos] != '\n' && !l.hasPrefix("?>") {
		l.pos++
	}
}

func (l *lexer) lexBlockComment() {
	end := bytes.Index(l.src[l.pos+2:], []byte("*/"))
	if end < 0 {
		l.pos = len(l.src)
		return
	}
	l.pos += 2 + end + 2
}

func (l *lexer) lexQuoted(quote byte) {
	l.pos++
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case '\\':
			l.pos += 2
			continue
		case quote:
			l.pos++
			return
		}
		l.pos++
	}
	l.pos = len(l.src)
}

// lexHeredoc consumes a heredoc or nowdoc. It reports false when the "<<<"
// is not followed by a valid label.
func (l *lexer) lexHeredoc() bool {
	i := l.pos + 3
	for i < len(l.src) && (l.src[i] == ' ' || l.src[i] == '\t') {
		i++
	}
	var quote byte
	if i < len(l.src) && (l.src[i] == '\'' || l.src[i] == '"') {
		quote = l.src[i]
		i++
	}
	labelStart := i
	for i < len(l.src) && isIdentChar(l.src[i]) {
		i++
	}
	if i == labelStart || !isIdentStart(l.src[labelStart]) {
		return false
	}
	label := l.src[labelStart:i]
	if quote != 0 {
		if i >= len(l.src) || l.src[i] != quote {
			return false
		}
		i++
	}
	nl := bytes.IndexByte(l.src[i:], '\n')
	if nl < 0 {
		return false
	}
	i += nl + 1

	// The closing label starts a line, optionally indented, and is not
	// followed by an identifier character.
	for i < len(l.src) {
		lineStart := i
		for i < len(l.src) && (l.src[i] == ' ' || l.src[i] == '\t') {
			i++
		}
		if bytes.HasPrefix(l.src[i:], label) {
			after := i + len(label)
			if after >= len(l.src) || !isIdentChar(l.src[after]) {
				l.pos = after
				return true
			}
		}
		next := bytes.IndexByte(l.src[lineStart:], '\n')
		if next < 0 {
			break
		}
		i = lineStart + next + 1
	}
	l.pos = len(l.src)
	return true
}

var multiCharPunct = []string{"?->", "::", "->", "=>", "??", "==", "!=", "<=", ">=", "&&", "||", "++", "--", "..."}

func punctLen(rest []byte) int {
	for _, p := range multiCharPunct {
		if bytes.HasPrefix(rest, []byte(p)) {
			return len(p)
		}
	}
	return 1
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= 0x80
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
