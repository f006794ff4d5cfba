package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/risor-io/risor/object"
	"github.com/tliron/commonlog"

	"github.com/jward/treedump/internal/render"
)

// buildGlobals exposes one rendered line to a filter expression.
//
//	kind, text       string
//	row, column      int (zero-based)
//	depth            int (root is 0)
//	child_count      int
//	named, missing   bool
func buildGlobals(line render.Line) map[string]any {
	return map[string]any{
		"kind":        object.NewString(line.Kind),
		"text":        object.NewString(line.Text),
		"row":         object.NewInt(int64(line.Row)),
		"column":      object.NewInt(int64(line.Column)),
		"depth":       object.NewInt(int64(line.Depth)),
		"child_count": object.NewInt(int64(line.ChildCount)),
		"named":       object.NewBool(line.Named),
		"missing":     object.NewBool(line.Missing),
		"has_prefix":  hasPrefixFn,
		"log":         logProxy,
	}
}

// logProxy is shared by every evaluation; building a proxy reflects over
// logObject's methods.
var logProxy = mustProxy(&logObject{log: commonlog.GetLogger("treedump.filter")})

// hasPrefixFn is the "has_prefix" host function.
//
// has_prefix(s, prefix) → bool
var hasPrefixFn = object.NewBuiltin("has_prefix", func(ctx context.Context, args ...object.Object) object.Object {
	if len(args) != 2 {
		return object.NewArgsError("has_prefix", 2, len(args))
	}

	s, ok := args[0].(*object.String)
	if !ok {
		return object.Errorf("has_prefix: s must be a string, got %s", args[0].Type())
	}

	prefix, ok := args[1].(*object.String)
	if !ok {
		return object.Errorf("has_prefix: prefix must be a string, got %s", args[1].Type())
	}

	return object.NewBool(strings.HasPrefix(s.Value(), prefix.Value()))
})

// logObject lets filter scripts write to the treedump log.
type logObject struct {
	log commonlog.Logger
}

func (l *logObject) Info(msg string) {
	l.log.Info(msg)
}

func (l *logObject) Warn(msg string) {
	l.log.Warning(msg)
}

func (l *logObject) Error(msg string) {
	l.log.Error(msg)
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}
