// SPDX-License-Identifier: MPL-2.0

package sniff

// TokenKind classifies the semantic tokens a host hands to the Coordinator.
type TokenKind int

const (
	// KindOther is any token the classifier does not inspect.
	KindOther TokenKind = iota
	// KindFileStart marks the beginning of a file (the PHP open tag).
	KindFileStart
	// KindClass is a class declaration; Name is the declared class name.
	KindClass
	// KindInterface is an interface declaration.
	KindInterface
	// KindTrait is a trait declaration.
	KindTrait
	// KindFunction is a function declaration; Name is the declared function name.
	KindFunction
	// KindConstant is a constant declaration; Name is the declared constant name.
	KindConstant
	// KindCall is an identifier used as a call; Name is the identifier.
	KindCall
)

type (
	// Token is a classified token with a stable position inside its file.
	Token struct {
		Kind TokenKind
		Pos  int
		Name string
	}

	// TagMarker is a doc-comment tag such as "@version", stored without the "@".
	TagMarker struct {
		Name string
		Pos  int
	}

	// DocBlock is one documentation-comment region. Tags are in source order.
	DocBlock struct {
		Start int
		End   int
		Tags  []TagMarker
	}

	// Source is the per-file view a host tokenizer exposes to the Coordinator.
	Source interface {
		// FileName returns the path of the file being scanned.
		FileName() string
		// Tokens returns the relevant semantic tokens in file order,
		// starting with a KindFileStart token.
		Tokens() []Token
		// DocBlocks returns the documentation-comment regions in file order.
		DocBlocks() []DocBlock
		// DocStringAfter returns the first doc-string token positioned after
		// pos and before bound.
		DocStringAfter(pos, bound int) (string, bool)
		// ScanBoundary returns the position of the first class-like
		// declaration, or the end of the file when there is none.
		ScanBoundary() int
	}
)

// String returns a short name for the token kind.
func (k TokenKind) String() string {
	switch k {
	case KindFileStart:
		return "file-start"
	case KindClass:
		return "class"
	case KindInterface:
		return "interface"
	case KindTrait:
		return "trait"
	case KindFunction:
		return "function"
	case KindConstant:
		return "constant"
	case KindCall:
		return "call"
	case KindOther:
		return "other"
	}
	return "unknown"
}

// IsClassLike reports whether the kind declares a class, interface or trait.
func (k TokenKind) IsClassLike() bool {
	return k == KindClass || k == KindInterface || k == KindTrait
}
