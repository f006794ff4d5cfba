package treedump

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/tliron/commonlog"

	"github.com/jward/treedump/internal/grammar"
	"github.com/jward/treedump/internal/render"
	"github.com/jward/treedump/internal/runtime"
	"github.com/jward/treedump/internal/source"
	"github.com/jward/treedump/internal/store"
	"github.com/jward/treedump/scripts"
)

var log = commonlog.GetLogger("treedump")

var (
	// ErrNoStore is returned by Save and Check when no database is configured.
	ErrNoStore = errors.New("treedump: no snapshot database configured")
	// ErrNoSnapshot is returned by Check when nothing was saved for the input.
	ErrNoSnapshot = errors.New("treedump: no snapshot for this source")
)

// Inspector parses source text with one grammar and renders the syntax tree.
type Inspector struct {
	language      string
	encoding      string
	filterExpr    string
	preset        string
	maxDepth      int
	explicitStack bool
	dbPath        string
	scriptsDir    string
	scriptsFS     fs.FS

	filters []*runtime.Filter
	store   *store.Store
}

// Option configures an Inspector.
type Option func(*Inspector)

// WithLanguage selects the grammar by name or alias. Defaults to
// grammar.Default.
func WithLanguage(name string) Option {
	return func(i *Inspector) {
		i.language = name
	}
}

// WithEncoding sets the encoding Load decodes input from.
func WithEncoding(enc string) Option {
	return func(i *Inspector) {
		i.encoding = enc
	}
}

// WithFilter keeps only lines for which the Risor expression is truthy.
func WithFilter(expr string) Option {
	return func(i *Inspector) {
		i.filterExpr = expr
	}
}

// WithPreset keeps only lines matched by a preset filter script. It combines
// with WithFilter: both must match.
func WithPreset(name string) Option {
	return func(i *Inspector) {
		i.preset = name
	}
}

// WithMaxDepth prunes nodes deeper than n. Negative means unlimited.
func WithMaxDepth(n int) Option {
	return func(i *Inspector) {
		i.maxDepth = n
	}
}

// WithExplicitStack walks the tree with a heap work stack instead of
// recursion.
func WithExplicitStack(enabled bool) Option {
	return func(i *Inspector) {
		i.explicitStack = enabled
	}
}

// WithStore enables Save and Check against a SQLite database at dbPath.
func WithStore(dbPath string) Option {
	return func(i *Inspector) {
		i.dbPath = dbPath
	}
}

// WithScriptsDir loads preset filters from dir on disk instead of the
// embedded scripts.
func WithScriptsDir(dir string) Option {
	return func(i *Inspector) {
		i.scriptsDir = dir
	}
}

// WithScriptsFS loads preset filters from fsys.
func WithScriptsFS(fsys fs.FS) Option {
	return func(i *Inspector) {
		i.scriptsFS = fsys
	}
}

// New creates an Inspector. The grammar is resolved up front; an unknown
// grammar yields a *grammar.GrammarLoadError.
func New(opts ...Option) (*Inspector, error) {
	i := &Inspector{
		language: grammar.Default,
		encoding: source.DefaultEncoding,
		maxDepth: -1,
	}
	for _, opt := range opts {
		opt(i)
	}

	if _, ok := grammar.LanguageByName(i.language); !ok {
		return nil, &grammar.GrammarLoadError{Language: i.language}
	}
	i.language = grammar.Canonical(i.language)

	// Script source: scriptsDir overrides embedded FS.
	var rtOpts []runtime.RuntimeOption
	if i.scriptsFS == nil && i.scriptsDir == "" {
		i.scriptsFS = scripts.FS
	}
	if i.scriptsFS != nil {
		rtOpts = append(rtOpts, runtime.WithRuntimeFS(i.scriptsFS))
	}
	rt := runtime.NewRuntime(i.scriptsDir, rtOpts...)

	if i.preset != "" {
		f, err := rt.Preset(i.preset)
		if err != nil {
			return nil, fmt.Errorf("treedump: %w", err)
		}
		i.filters = append(i.filters, f)
	}
	if i.filterExpr != "" {
		f, err := rt.Compile(i.filterExpr)
		if err != nil {
			return nil, fmt.Errorf("treedump: %w", err)
		}
		i.filters = append(i.filters, f)
	}

	if i.dbPath != "" {
		s, err := store.NewStore(i.dbPath)
		if err != nil {
			return nil, fmt.Errorf("treedump: create store: %w", err)
		}
		if err := s.Migrate(); err != nil {
			s.Close()
			return nil, fmt.Errorf("treedump: migrate: %w", err)
		}
		if err := s.SetMetadata("treedump_version", Version().String()); err != nil {
			s.Close()
			return nil, fmt.Errorf("treedump: %w", err)
		}
		i.store = s
	}

	log.Debugf("inspector: language=%s encoding=%s filters=%d store=%t", i.language, i.encoding, len(i.filters), i.store != nil)
	return i, nil
}

// Close releases the snapshot database, if any.
func (i *Inspector) Close() error {
	if i.store == nil {
		return nil
	}
	return i.store.Close()
}

// Language returns the canonical grammar name.
func (i *Inspector) Language() string {
	return i.language
}

// Store returns the snapshot store, or nil when none is configured.
func (i *Inspector) Store() *store.Store {
	return i.store
}

// Load returns UTF-8 source text from literal, path ("-" for stdin) or the
// built-in sample, decoded from the configured encoding.
func (i *Inspector) Load(literal, path string, stdin io.Reader) ([]byte, error) {
	return source.Load(literal, path, i.encoding, stdin)
}

// Parse parses src with the configured grammar. The caller must Close the
// returned tree.
func (i *Inspector) Parse(ctx context.Context, src []byte) (*grammar.Tree, error) {
	return grammar.Parse(ctx, i.language, src)
}

func (i *Inspector) renderOptions(ctx context.Context) []render.Option {
	opts := []render.Option{render.WithMaxDepth(i.maxDepth)}
	if i.explicitStack {
		opts = append(opts, render.WithExplicitStack())
	}
	if len(i.filters) > 0 {
		preds := make([]render.Predicate, len(i.filters))
		for idx, f := range i.filters {
			preds[idx] = f.Predicate(ctx)
		}
		opts = append(opts, render.WithFilter(render.AllOf(preds...)))
	}
	return opts
}

// snapshotOptions renders the complete tree: snapshots never carry the
// display filters or depth limit.
func (i *Inspector) snapshotOptions() []render.Option {
	if i.explicitStack {
		return []render.Option{render.WithExplicitStack()}
	}
	return nil
}

// Dump parses src and writes the "Tree structure:" listing followed by the
// quoted S-expression to w.
func (i *Inspector) Dump(ctx context.Context, w io.Writer, src []byte) error {
	tree, err := i.Parse(ctx, src)
	if err != nil {
		return err
	}
	defer tree.Close()

	return render.NewTextWriter(w, i.renderOptions(ctx)...).Render(tree, src)
}

// Result is a materialized rendering of one source text.
type Result struct {
	Language   string        `json:"language"`
	SourceHash string        `json:"source_hash"`
	HasError   bool          `json:"has_error"`
	Lines      []render.Line `json:"lines"`
	SExpr      string        `json:"sexp"`
}

// Collect parses src and returns every rendered line and the S-expression.
// Filters and the depth limit apply.
func (i *Inspector) Collect(ctx context.Context, src []byte) (*Result, error) {
	return i.collect(ctx, src, i.renderOptions(ctx))
}

func (i *Inspector) collect(ctx context.Context, src []byte, opts []render.Option) (*Result, error) {
	tree, err := i.Parse(ctx, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	res, err := render.Collect(tree, src, opts...)
	if err != nil {
		return nil, err
	}
	return &Result{
		Language:   i.language,
		SourceHash: store.ComputeSourceHash(i.language, src),
		HasError:   tree.HasError(),
		Lines:      res.Lines,
		SExpr:      res.SExpr,
	}, nil
}

// Save stores the complete rendering of src. Filters and the depth limit
// only shape what Dump and Collect print; they are not applied here.
func (i *Inspector) Save(ctx context.Context, src []byte) (*store.Snapshot, error) {
	if i.store == nil {
		return nil, ErrNoStore
	}
	res, err := i.collect(ctx, src, i.snapshotOptions())
	if err != nil {
		return nil, err
	}

	snap := &store.Snapshot{
		Language:   res.Language,
		SourceHash: res.SourceHash,
		SourceLen:  len(src),
		SExpr:      res.SExpr,
		NodeCount:  len(res.Lines),
		HasError:   res.HasError,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := i.store.SaveSnapshot(snap, toSnapshotLines(res.Lines)); err != nil {
		return nil, fmt.Errorf("treedump: %w", err)
	}
	log.Infof("saved snapshot %d (%s, %d nodes)", snap.ID, snap.Language, snap.NodeCount)
	return snap, nil
}

// CheckResult compares a fresh rendering with the latest stored snapshot.
type CheckResult struct {
	Snapshot   *store.Snapshot `json:"-"`
	SnapshotID int64           `json:"snapshot_id"`
	Match      bool            `json:"match"`
	SExprMatch bool            `json:"sexp_match"`
	// FirstDiff is the index of the first differing line, or -1.
	FirstDiff int    `json:"first_diff"`
	Want      string `json:"want,omitempty"`
	Got       string `json:"got,omitempty"`
}

// Check renders the complete tree of src and compares it line by line with
// the newest snapshot saved for the same grammar and source bytes. Filters
// and the depth limit are ignored, as in Save.
func (i *Inspector) Check(ctx context.Context, src []byte) (*CheckResult, error) {
	if i.store == nil {
		return nil, ErrNoStore
	}
	hash := store.ComputeSourceHash(i.language, src)
	snap, err := i.store.LatestSnapshot(i.language, hash)
	if err != nil {
		return nil, fmt.Errorf("treedump: %w", err)
	}
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	stored, err := i.store.SnapshotLines(snap.ID)
	if err != nil {
		return nil, fmt.Errorf("treedump: %w", err)
	}

	res, err := i.collect(ctx, src, i.snapshotOptions())
	if err != nil {
		return nil, err
	}

	cr := &CheckResult{
		Snapshot:   snap,
		SnapshotID: snap.ID,
		SExprMatch: snap.SExpr == res.SExpr,
		FirstDiff:  -1,
	}
	n := max(len(stored), len(res.Lines))
	for idx := 0; idx < n; idx++ {
		var want, got string
		if idx < len(stored) {
			want = fromSnapshotLine(stored[idx]).String()
		}
		if idx < len(res.Lines) {
			got = res.Lines[idx].String()
		}
		if want != got {
			cr.FirstDiff, cr.Want, cr.Got = idx, want, got
			break
		}
	}
	cr.Match = cr.SExprMatch && cr.FirstDiff < 0
	return cr, nil
}

func toSnapshotLines(lines []render.Line) []store.SnapshotLine {
	out := make([]store.SnapshotLine, len(lines))
	for idx, l := range lines {
		out[idx] = store.SnapshotLine{
			Ordinal: idx,
			Depth:   l.Depth,
			Kind:    l.Kind,
			Row:     l.Row,
			Col:     l.Column,
			Text:    l.Text,
			Named:   l.Named,
		}
	}
	return out
}

func fromSnapshotLine(l store.SnapshotLine) render.Line {
	return render.Line{
		Depth:  l.Depth,
		Kind:   l.Kind,
		Row:    l.Row,
		Column: l.Col,
		Text:   l.Text,
		Named:  l.Named,
	}
}
