// Package grammar adapts tree-sitter parsers to the render package's Node
// and Tree interfaces.
package grammar

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/tliron/commonlog"

	"github.com/jward/treedump/internal/render"
)

var log = commonlog.GetLogger("treedump.grammar")

// ErrGrammarLoad matches every *GrammarLoadError via errors.Is.
var ErrGrammarLoad = errors.New("grammar: load failed")

// GrammarLoadError reports that a grammar could not be installed into the
// parser. There is no fallback grammar, so callers treat it as fatal.
type GrammarLoadError struct {
	Language string
	Err      error
}

func (e *GrammarLoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("grammar: loading %q: %v", e.Language, e.Err)
	}
	return fmt.Sprintf("grammar: loading %q: unsupported language", e.Language)
}

func (e *GrammarLoadError) Unwrap() error { return e.Err }

func (e *GrammarLoadError) Is(target error) bool {
	return target == ErrGrammarLoad
}

// Parse parses src with the named grammar. The returned Tree must be closed.
func Parse(ctx context.Context, language string, src []byte) (*Tree, error) {
	name := Canonical(language)
	lang, ok := LanguageByName(name)
	if !ok || lang == nil {
		return nil, &GrammarLoadError{Language: language}
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if errors.Is(err, sitter.ErrNoLanguage) {
		return nil, &GrammarLoadError{Language: language, Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("grammar: parse %s: %w", name, err)
	}
	if tree == nil || tree.RootNode() == nil {
		return nil, fmt.Errorf("grammar: parse %s: no syntax tree produced", name)
	}

	log.Debugf("parsed %d bytes as %s", len(src), name)
	return &Tree{tree: tree, language: name}, nil
}

// Tree is an immutable tree-sitter syntax tree.
type Tree struct {
	tree     *sitter.Tree
	language string
}

// Root returns the root node.
func (t *Tree) Root() render.Node {
	root := t.tree.RootNode()
	if root == nil {
		return nil
	}
	return Node{n: root}
}

// SExpr returns tree-sitter's canonical S-expression for the whole tree.
func (t *Tree) SExpr() string {
	return t.tree.RootNode().String()
}

// Language returns the canonical grammar name the tree was parsed with.
func (t *Tree) Language() string {
	return t.language
}

// HasError reports whether the parser had to recover from syntax errors.
func (t *Tree) HasError() bool {
	return t.tree.RootNode().HasError()
}

// Close releases the tree's C memory. Nodes obtained from it become invalid.
func (t *Tree) Close() {
	t.tree.Close()
}

// Node is a borrowed view of a tree-sitter node.
type Node struct {
	n *sitter.Node
}

func (n Node) Kind() string { return n.n.Type() }

func (n Node) IsNamed() bool { return n.n.IsNamed() }

func (n Node) IsMissing() bool { return n.n.IsMissing() }

func (n Node) StartPosition() render.Point {
	p := n.n.StartPoint()
	return render.Point{Row: int(p.Row), Column: int(p.Column)}
}

// Text decodes the node's byte span from src.
func (n Node) Text(src []byte) (string, error) {
	return render.DecodeSpan(src, int(n.n.StartByte()), int(n.n.EndByte()))
}

func (n Node) ChildCount() int { return int(n.n.ChildCount()) }

func (n Node) Child(i int) (render.Node, bool) {
	child := n.n.Child(i)
	if child == nil || child.IsNull() {
		return nil, false
	}
	return Node{n: child}, true
}
