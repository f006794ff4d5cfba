package treedump

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/treedump/internal/grammar"
	"github.com/jward/treedump/internal/source"
)

func newTestInspector(t *testing.T, opts ...Option) *Inspector {
	t.Helper()
	in, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { in.Close() })
	return in
}

func withTestStore(t *testing.T) Option {
	t.Helper()
	return WithStore(filepath.Join(t.TempDir(), "snapshots.db"))
}

// =============================================================================
// Construction
// =============================================================================

func TestNew_Defaults(t *testing.T) {
	t.Parallel()
	in := newTestInspector(t)

	assert.Equal(t, grammar.Default, in.Language())
	assert.Nil(t, in.Store())
}

func TestNew_CanonicalizesLanguage(t *testing.T) {
	t.Parallel()
	in := newTestInspector(t, WithLanguage("JS"))
	assert.Equal(t, "javascript", in.Language())
}

func TestNew_UnknownLanguage(t *testing.T) {
	t.Parallel()

	_, err := New(WithLanguage("cobol"))
	require.Error(t, err)
	assert.ErrorIs(t, err, grammar.ErrGrammarLoad)

	var gle *grammar.GrammarLoadError
	require.ErrorAs(t, err, &gle)
	assert.Equal(t, "cobol", gle.Language)
}

func TestNew_BadFilter(t *testing.T) {
	t.Parallel()

	_, err := New(WithPreset("nope"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestNew_StoreRecordsVersion(t *testing.T) {
	t.Parallel()
	in := newTestInspector(t, withTestStore(t))

	require.NotNil(t, in.Store())
	v, err := in.Store().GetMetadata("treedump_version")
	require.NoError(t, err)
	assert.Equal(t, Version().String(), v)
}

// =============================================================================
// Dump / Collect
// =============================================================================

func TestDump_ArrayLiteral(t *testing.T) {
	t.Parallel()
	in := newTestInspector(t)

	var buf bytes.Buffer
	require.NoError(t, in.Dump(context.Background(), &buf, []byte("[1, 2, 3]")))

	want := strings.Join([]string{
		"Tree structure:",
		"program (line 0, column 0): [1, 2, 3]",
		"  expression_statement (line 0, column 0): [1, 2, 3]",
		"    array (line 0, column 0): [1, 2, 3]",
		"      [ (line 0, column 0): [",
		"      number (line 0, column 1): 1",
		"      , (line 0, column 2): ,",
		"      number (line 0, column 4): 2",
		"      , (line 0, column 5): ,",
		"      number (line 0, column 7): 3",
		"      ] (line 0, column 8): ]",
		`"(program (expression_statement (array (number) (number) (number))))"`,
	}, "\n") + "\n"
	assert.Equal(t, want, buf.String())
}

func TestDump_Sample(t *testing.T) {
	t.Parallel()
	in := newTestInspector(t)

	src, err := in.Load("", "", nil)
	require.NoError(t, err)
	assert.Equal(t, source.Sample, string(src))

	var buf bytes.Buffer
	require.NoError(t, in.Dump(context.Background(), &buf, src))
	assert.True(t, strings.HasPrefix(buf.String(), "Tree structure:\nprogram (line 0, column 0): "+source.Sample+"\n"))
}

func TestDump_ExplicitStackSameOutput(t *testing.T) {
	t.Parallel()
	src := []byte("function f(a) {\n  return [a, `x\ny`];\n}\n")

	var rec, stack bytes.Buffer
	require.NoError(t, newTestInspector(t).Dump(context.Background(), &rec, src))
	require.NoError(t, newTestInspector(t, WithExplicitStack(true)).Dump(context.Background(), &stack, src))
	assert.Equal(t, rec.String(), stack.String())
}

func TestCollect_FilterAndPresetCombine(t *testing.T) {
	t.Parallel()
	in := newTestInspector(t, WithPreset("leaves"), WithFilter(`kind == "number"`))

	res, err := in.Collect(context.Background(), []byte("[1, 2, 3]"))
	require.NoError(t, err)
	require.Len(t, res.Lines, 3)
	for _, l := range res.Lines {
		assert.Equal(t, "number", l.Kind)
		assert.Equal(t, 3, l.Depth)
	}
	// The S-expression is never filtered.
	assert.Equal(t, "(program (expression_statement (array (number) (number) (number))))", res.SExpr)
	assert.Equal(t, "javascript", res.Language)
	assert.Len(t, res.SourceHash, 64)
}

func TestCollect_MaxDepth(t *testing.T) {
	t.Parallel()
	in := newTestInspector(t, WithMaxDepth(1))

	res, err := in.Collect(context.Background(), []byte("[1, 2, 3]"))
	require.NoError(t, err)
	require.Len(t, res.Lines, 2)
	assert.Equal(t, "program", res.Lines[0].Kind)
	assert.Equal(t, "expression_statement", res.Lines[1].Kind)
}

func TestCollect_ScriptsFS(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{
		"filters/punct.risor": &fstest.MapFile{Data: []byte("!named")},
	}
	in := newTestInspector(t, WithScriptsFS(fsys), WithPreset("punct"))

	res, err := in.Collect(context.Background(), []byte("[1, 2]"))
	require.NoError(t, err)
	var kinds []string
	for _, l := range res.Lines {
		kinds = append(kinds, l.Kind)
	}
	assert.Equal(t, []string{"[", ",", "]"}, kinds)
}

func TestCollect_HasError(t *testing.T) {
	t.Parallel()
	in := newTestInspector(t)

	res, err := in.Collect(context.Background(), []byte(source.Sample))
	require.NoError(t, err)
	assert.True(t, res.HasError)
}

func TestLoad_Encoding(t *testing.T) {
	t.Parallel()
	in := newTestInspector(t, WithEncoding("latin1"))

	src, err := in.Load("", "-", bytes.NewReader([]byte{'"', 0xE9, '"'}))
	require.NoError(t, err)
	assert.Equal(t, `"é"`, string(src))
}

// =============================================================================
// Save / Check
// =============================================================================

func TestSave_NoStore(t *testing.T) {
	t.Parallel()
	in := newTestInspector(t)

	_, err := in.Save(context.Background(), []byte("[1]"))
	assert.ErrorIs(t, err, ErrNoStore)
	_, err = in.Check(context.Background(), []byte("[1]"))
	assert.ErrorIs(t, err, ErrNoStore)
}

func TestSaveAndCheck_Match(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	in := newTestInspector(t, withTestStore(t))
	src := []byte("[1, 2, 3]")

	snap, err := in.Save(ctx, src)
	require.NoError(t, err)
	assert.Positive(t, snap.ID)
	assert.Equal(t, 10, snap.NodeCount)
	assert.Equal(t, len(src), snap.SourceLen)
	assert.False(t, snap.HasError)

	lines, err := in.Store().SnapshotLines(snap.ID)
	require.NoError(t, err)
	require.Len(t, lines, 10)
	assert.Equal(t, "program", lines[0].Kind)

	cr, err := in.Check(ctx, src)
	require.NoError(t, err)
	assert.True(t, cr.Match)
	assert.True(t, cr.SExprMatch)
	assert.Equal(t, -1, cr.FirstDiff)
	assert.Equal(t, snap.ID, cr.SnapshotID)
}

func TestCheck_NoSnapshot(t *testing.T) {
	t.Parallel()
	in := newTestInspector(t, withTestStore(t))

	_, err := in.Check(context.Background(), []byte("[1]"))
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestSave_IgnoresDisplayFilters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := withTestStore(t)
	src := []byte("[1, 2, 3]")

	filtered, err := New(db, WithPreset("named"), WithFilter("depth < 3"), WithMaxDepth(2))
	require.NoError(t, err)
	snap, err := filtered.Save(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, 10, snap.NodeCount)

	// The filtered inspector still prints only what its filters select.
	res, err := filtered.Collect(ctx, src)
	require.NoError(t, err)
	assert.Len(t, res.Lines, 3)

	cr, err := filtered.Check(ctx, src)
	require.NoError(t, err)
	assert.True(t, cr.Match)
	require.NoError(t, filtered.Close())

	// A plain inspector sharing the database agrees.
	in := newTestInspector(t, db)
	cr, err = in.Check(ctx, src)
	require.NoError(t, err)
	assert.True(t, cr.Match)
	assert.Equal(t, -1, cr.FirstDiff)
	assert.Equal(t, snap.ID, cr.SnapshotID)
}

func TestCheck_DetectsMismatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	in := newTestInspector(t, withTestStore(t))
	src := []byte("[1, 2, 3]")

	snap, err := in.Save(ctx, src)
	require.NoError(t, err)

	// Simulate a grammar change by rewriting one stored line.
	_, err = in.Store().DB().Exec(
		"UPDATE snapshot_lines SET kind = 'integer' WHERE snapshot_id = ? AND ordinal = 4", snap.ID,
	)
	require.NoError(t, err)

	cr, err := in.Check(ctx, src)
	require.NoError(t, err)
	assert.False(t, cr.Match)
	assert.True(t, cr.SExprMatch)
	assert.Equal(t, 4, cr.FirstDiff)
	assert.Equal(t, "      integer (line 0, column 1): 1", cr.Want)
	assert.Equal(t, "      number (line 0, column 1): 1", cr.Got)
}

func TestVersion(t *testing.T) {
	t.Parallel()
	v := Version()
	assert.NotEmpty(t, v.String())
	assert.True(t, strings.HasPrefix(v.String(), v.Core()))
}
