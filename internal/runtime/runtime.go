// Package runtime evaluates Risor filter expressions against rendered nodes.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/object"

	"github.com/jward/treedump/internal/render"
)

// presetDir is the directory, relative to the scripts root, holding filters.
const presetDir = "filters"

// ErrUnknownPreset is returned by Preset when no filter script has that name.
var ErrUnknownPreset = errors.New("runtime: unknown preset")

// Runtime loads filter scripts and builds Filters that evaluate them.
type Runtime struct {
	scriptsDir string
	fsys       fs.FS
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS configures the Runtime to load scripts from an fs.FS
// instead of from disk.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// NewRuntime creates a Runtime that loads preset scripts from scriptsDir.
// WithRuntimeFS takes precedence over scriptsDir.
func NewRuntime(scriptsDir string, opts ...RuntimeOption) *Runtime {
	r := &Runtime{scriptsDir: scriptsDir}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadScript reads a .risor file and returns its source code.
// When an fs.FS is configured, uses fs.ReadFile on the embedded filesystem.
// Otherwise, uses os.ReadFile with scriptsDir as the base directory.
func (r *Runtime) LoadScript(name string) (string, error) {
	if r.fsys != nil {
		// fs.FS paths are slash-separated and never rooted.
		fsPath := strings.TrimPrefix(filepath.ToSlash(name), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	fullPath := name
	if !filepath.IsAbs(name) {
		fullPath = filepath.Join(r.scriptsDir, name)
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", fullPath, err)
	}
	return string(data), nil
}

// PresetScriptPath returns the path of a preset filter script.
func PresetScriptPath(name string) string {
	return path.Join(presetDir, name+".risor")
}

// Presets lists the available preset filter names in sorted order.
func (r *Runtime) Presets() ([]string, error) {
	var matches []string
	var err error
	switch {
	case r.fsys != nil:
		matches, err = fs.Glob(r.fsys, path.Join(presetDir, "*.risor"))
	case r.scriptsDir != "":
		matches, err = filepath.Glob(filepath.Join(r.scriptsDir, presetDir, "*.risor"))
	}
	if err != nil {
		return nil, fmt.Errorf("runtime: listing presets: %w", err)
	}

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(filepath.Base(m), ".risor"))
	}
	sort.Strings(names)
	return names, nil
}

// Preset builds a Filter from filters/<name>.risor.
func (r *Runtime) Preset(name string) (*Filter, error) {
	src, err := r.LoadScript(PresetScriptPath(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w %q", ErrUnknownPreset, name)
		}
		return nil, err
	}
	return r.compile(src, "preset "+name)
}

// Compile builds a Filter from an inline Risor expression.
func (r *Runtime) Compile(expr string) (*Filter, error) {
	return r.compile(expr, "<inline>")
}

func (r *Runtime) compile(src, label string) (*Filter, error) {
	if strings.TrimSpace(src) == "" {
		return nil, fmt.Errorf("runtime: filter %s: empty expression", label)
	}
	return &Filter{source: src, label: label}, nil
}

// Filter is a Risor expression evaluated once per rendered line. The
// expression sees the line through the globals built by buildGlobals.
type Filter struct {
	source string
	label  string
}

// String returns the filter's label.
func (f *Filter) String() string {
	return f.label
}

// Match evaluates the filter for line and reports whether the result is
// truthy.
func (f *Filter) Match(ctx context.Context, line render.Line) (bool, error) {
	globals := buildGlobals(line)

	opts := make([]risor.Option, 0, len(globals))
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}

	result, err := risor.Eval(ctx, f.source, opts...)
	if err != nil {
		return false, fmt.Errorf("runtime: filter %s: %w", f.label, err)
	}
	if errObj, ok := result.(*object.Error); ok {
		return false, fmt.Errorf("runtime: filter %s: %s", f.label, errObj.Inspect())
	}
	if result == nil {
		return false, nil
	}
	return result.IsTruthy(), nil
}

// Predicate adapts the filter to render.WithFilter, binding ctx.
func (f *Filter) Predicate(ctx context.Context) render.Predicate {
	return func(line render.Line) (bool, error) {
		return f.Match(ctx, line)
	}
}
