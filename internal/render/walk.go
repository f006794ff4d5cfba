package render

import (
	"errors"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("treedump.render")

// initialStackCapacity is the pre-allocated depth of the explicit work stack.
const initialStackCapacity = 64

// Visitor receives each rendered line in pre-order.
type Visitor func(Line) error

// SkipChildren may be returned by a Visitor to leave the current node's
// subtree unvisited. It is not returned by Walk.
var SkipChildren = errors.New("render: skip children")

// Predicate decides whether a line is handed to the Visitor.
type Predicate func(Line) (bool, error)

// AllOf keeps a line only when every predicate keeps it. Evaluation stops
// at the first false or error.
func AllOf(preds ...Predicate) Predicate {
	return func(l Line) (bool, error) {
		for _, p := range preds {
			ok, err := p(l)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}
}

type config struct {
	maxDepth      int // negative means unlimited
	filter        Predicate
	placeholder   string
	explicitStack bool
}

// Option configures a walk.
type Option func(*config)

// WithMaxDepth stops descending below depth n. The root is depth 0.
func WithMaxDepth(n int) Option {
	return func(c *config) {
		c.maxDepth = n
	}
}

// WithFilter drops lines for which p returns false. Descendants of a dropped
// line are still visited and keep their true depth.
func WithFilter(p Predicate) Option {
	return func(c *config) {
		c.filter = p
	}
}

// WithPlaceholder overrides the text used for undecodable spans.
func WithPlaceholder(s string) Option {
	return func(c *config) {
		c.placeholder = s
	}
}

// WithExplicitStack makes Walk use WalkStack's heap-allocated work stack
// instead of recursion.
func WithExplicitStack() Option {
	return func(c *config) {
		c.explicitStack = true
	}
}

func newConfig(opts []Option) *config {
	c := &config{maxDepth: -1, placeholder: Placeholder}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// walker holds the per-walk inputs shared by both traversal strategies.
type walker struct {
	*config
	src   []byte
	visit Visitor
}

// Walk visits root and its descendants depth-first in pre-order, calling
// visit once per node. Siblings are visited left to right. Child slots the
// tree reports as empty are skipped. Undecodable spans are rendered with the
// placeholder; they never stop the walk.
//
// Walk recurses once per tree level unless WithExplicitStack is given.
func Walk(root Node, src []byte, visit Visitor, opts ...Option) error {
	c := newConfig(opts)
	if root == nil {
		return ErrNoRoot
	}
	w := &walker{config: c, src: src, visit: visit}
	if c.explicitStack {
		return w.iterate(root)
	}
	return w.recurse(root, 0)
}

// WalkStack is Walk with an explicit work stack, so tree depth costs heap
// memory rather than goroutine stack. Output is identical to Walk.
func WalkStack(root Node, src []byte, visit Visitor, opts ...Option) error {
	return Walk(root, src, visit, append(opts, WithExplicitStack())...)
}

func (w *walker) recurse(n Node, depth int) error {
	descend, err := w.emit(n, depth)
	if err != nil || !descend {
		return err
	}
	for i := 0; i < n.ChildCount(); i++ {
		child, ok := n.Child(i)
		if !ok {
			continue
		}
		if w.tooDeep(depth + 1) {
			continue
		}
		if err := w.recurse(child, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// frame is a node whose children are partially visited. next is the index of
// the next child slot to examine.
type frame struct {
	node  Node
	depth int
	next  int
}

func (w *walker) iterate(root Node) error {
	descend, err := w.emit(root, 0)
	if err != nil || !descend {
		return err
	}

	stack := make([]frame, 0, initialStackCapacity)
	stack = append(stack, frame{node: root})
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next >= top.node.ChildCount() {
			stack = stack[:len(stack)-1]
			continue
		}
		i := top.next
		top.next++

		child, ok := top.node.Child(i)
		if !ok {
			continue
		}
		depth := top.depth + 1
		if w.tooDeep(depth) {
			continue
		}
		descend, err := w.emit(child, depth)
		if err != nil {
			return err
		}
		if descend {
			stack = append(stack, frame{node: child, depth: depth})
		}
	}
	return nil
}

func (w *walker) tooDeep(depth int) bool {
	return w.maxDepth >= 0 && depth > w.maxDepth
}

// emit renders n, applies the filter and calls the visitor. It reports
// whether the walk should descend into n's children.
func (w *walker) emit(n Node, depth int) (bool, error) {
	line := w.line(n, depth)
	if w.filter != nil {
		keep, err := w.filter(line)
		if err != nil {
			return false, err
		}
		if !keep {
			return true, nil
		}
	}
	if err := w.visit(line); err != nil {
		if errors.Is(err, SkipChildren) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (w *walker) line(n Node, depth int) Line {
	pos := n.StartPosition()
	text, err := n.Text(w.src)
	if err != nil {
		log.Debugf("%s at %d:%d: %s", n.Kind(), pos.Row, pos.Column, err)
		text = w.placeholder
	}
	l := Line{
		Depth:      depth,
		Kind:       n.Kind(),
		Row:        pos.Row,
		Column:     pos.Column,
		Text:       text,
		ChildCount: n.ChildCount(),
	}
	if nn, ok := n.(namedNode); ok {
		l.Named = nn.IsNamed()
	}
	if mn, ok := n.(missingNode); ok {
		l.Missing = mn.IsMissing()
	}
	return l
}
