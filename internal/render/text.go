package render

import (
	"bufio"
	"fmt"
	"io"
)

// Header is the first line of the text rendering.
const Header = "Tree structure:"

// TextWriter renders trees in the indented listing format followed by the
// quoted S-expression.
type TextWriter struct {
	w    io.Writer
	opts []Option
}

// NewTextWriter returns a TextWriter that writes to w. opts apply to every
// Render call.
func NewTextWriter(w io.Writer, opts ...Option) *TextWriter {
	return &TextWriter{w: w, opts: opts}
}

// Render writes the header, one line per visited node, and finally the
// tree's S-expression formatted with %q. Lines are written as they are
// produced and not retained.
func (t *TextWriter) Render(tree Tree, src []byte) error {
	bw := bufio.NewWriter(t.w)
	if _, err := fmt.Fprintln(bw, Header); err != nil {
		return fmt.Errorf("render: header: %w", err)
	}

	err := Walk(tree.Root(), src, func(l Line) error {
		_, err := fmt.Fprintln(bw, l.String())
		return err
	}, t.opts...)
	if err != nil {
		return fmt.Errorf("render: listing: %w", err)
	}

	if _, err := fmt.Fprintf(bw, "%q\n", tree.SExpr()); err != nil {
		return fmt.Errorf("render: sexp: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("render: flush: %w", err)
	}
	return nil
}

// Result is a fully materialized rendering, for encoders that need the whole
// listing at once.
type Result struct {
	Lines []Line `json:"lines"`
	SExpr string `json:"sexp"`
}

// Collect walks tree and returns every visited line plus the S-expression.
func Collect(tree Tree, src []byte, opts ...Option) (*Result, error) {
	res := &Result{Lines: []Line{}}
	err := Walk(tree.Root(), src, func(l Line) error {
		res.Lines = append(res.Lines, l)
		return nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("render: collect: %w", err)
	}
	res.SExpr = tree.SExpr()
	return res, nil
}
