package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jward/treedump"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindRepoRoot_DirectGitDir(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}

	got := findRepoRoot(root)
	assert.Equal(t, root, got)
}

func TestFindRepoRoot_NestedSubdirectory(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	deep := filepath.Join(root, "sub", "deep")
	if err := os.MkdirAll(deep, 0o755); err != nil {
		t.Fatal(err)
	}

	got := findRepoRoot(deep)
	assert.Equal(t, root, got)
}

func TestResolveDBPath_Default(t *testing.T) {
	t.Parallel()
	got := resolveDBPath("/repo")
	assert.Equal(t, filepath.Join("/repo", ".treedump", "snapshots.db"), got)
}

func TestResolveLanguage(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		flag string
		path string
		want string
	}{
		{"flag wins", "python", "main.go", "python"},
		{"from extension", "", "main.go", "go"},
		{"unknown extension", "", "notes.txt", "javascript"},
		{"stdin", "", "-", "javascript"},
		{"no input", "", "", "javascript"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, resolveLanguage(tt.flag, tt.path))
		})
	}
}

func TestValidateFormat(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validateFormat("text"))
	assert.NoError(t, validateFormat("json"))

	err := validateFormat("yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "text or json")
}

func TestFormatCheckText_Match(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	formatCheckText(&buf, &treedump.CheckResult{SnapshotID: 3, Match: true, SExprMatch: true, FirstDiff: -1})
	assert.Equal(t, "OK: matches snapshot #3\n", buf.String())
}

func TestFormatCheckText_Mismatch(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	formatCheckText(&buf, &treedump.CheckResult{
		SnapshotID: 3,
		SExprMatch: true,
		FirstDiff:  1,
		Want:       "  number (line 0, column 1): 1",
		Got:        "  number (line 0, column 1): 2",
	})

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "MISMATCH: snapshot #3\n"))
	assert.Contains(t, out, "  line 1\n")
	assert.Contains(t, out, "want:   number (line 0, column 1): 1")
	assert.Contains(t, out, "got:    number (line 0, column 1): 2")
	assert.NotContains(t, out, "s-expression")
}

func TestFormatSnapshotsText(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	formatSnapshotsText(&buf, []CLISnapshot{{
		ID:         7,
		Language:   "javascript",
		SourceHash: strings.Repeat("ab", 32),
		SourceLen:  9,
		NodeCount:  11,
		CreatedAt:  time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "javascript")
	assert.Contains(t, lines[1], "abababababab ")
	assert.Contains(t, lines[1], "2025-01-02T03:04:05Z")
}

func TestFormatCatalogText_MarksDefault(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	formatCatalogText(&buf, CLICatalog{
		Languages: []string{"go", "javascript"},
		Default:   "javascript",
		Encodings: []string{"utf-8"},
		Presets:   []string{"named"},
	})

	out := buf.String()
	assert.Contains(t, out, "  go\n")
	assert.Contains(t, out, "  javascript (default)\n")
	assert.Contains(t, out, "Presets: named\n")
}

func TestOutputResultText_UnsupportedType(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	err := outputResultText(&buf, CLIResult{Command: "x", Results: 42})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "int")
}

func TestListPresets_Embedded(t *testing.T) {
	t.Parallel()
	names, err := listPresets("")
	require.NoError(t, err)
	assert.Equal(t, []string{"errors", "leaves", "named"}, names)
}

func TestListPresets_ScriptsDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "filters"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "filters", "calls.risor"), []byte(`kind == "call_expression"`), 0o644))

	names, err := listPresets(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"calls"}, names)
}
