package render

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Point is a zero-based (row, column) position in the source buffer.
// Column counts bytes, matching tree-sitter.
type Point struct {
	Row    int
	Column int
}

// Node is the capability set the renderer needs from a syntax tree node.
// Implementations are borrowed, read-only views into a tree.
type Node interface {
	Kind() string
	StartPosition() Point
	// Text returns the node's span of src decoded as UTF-8, or a
	// *TextDecodeError when the span cannot be decoded.
	Text(src []byte) (string, error)
	ChildCount() int
	// Child returns the child at index i. ok is false when the tree has no
	// child in that slot.
	Child(i int) (child Node, ok bool)
}

// Tree is a rooted syntax tree that can serialize its own shape.
type Tree interface {
	Root() Node
	SExpr() string
}

// namedNode is implemented by nodes that distinguish named nodes from
// anonymous tokens.
type namedNode interface {
	IsNamed() bool
}

// missingNode is implemented by nodes that can be inserted by the parser's
// error recovery without consuming any source.
type missingNode interface {
	IsMissing() bool
}

// ErrNoRoot is returned when a tree has no root node to render.
var ErrNoRoot = errors.New("render: tree has no root node")

// ErrTextDecode matches every *TextDecodeError via errors.Is.
var ErrTextDecode = errors.New("render: undecodable text span")

// TextDecodeError reports a node span that is out of range or not valid UTF-8.
type TextDecodeError struct {
	Start  int
	End    int
	Reason string
}

func (e *TextDecodeError) Error() string {
	return fmt.Sprintf("render: span [%d, %d): %s", e.Start, e.End, e.Reason)
}

func (e *TextDecodeError) Is(target error) bool {
	return target == ErrTextDecode
}

// DecodeSpan returns src[start:end] as a string. It fails when the span lies
// outside src or does not form valid UTF-8, e.g. when it cuts a multi-byte
// sequence in half.
func DecodeSpan(src []byte, start, end int) (string, error) {
	if start < 0 || end < start || end > len(src) {
		return "", &TextDecodeError{Start: start, End: end, Reason: fmt.Sprintf("out of bounds for %d-byte source", len(src))}
	}
	b := src[start:end]
	if !utf8.Valid(b) {
		return "", &TextDecodeError{Start: start, End: end, Reason: "invalid UTF-8"}
	}
	return string(b), nil
}
