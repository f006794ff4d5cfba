package main

import (
	"time"

	"github.com/jward/treedump"
)

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIDump is a rendering plus the snapshot it was saved as, if any.
type CLIDump struct {
	*treedump.Result
	SnapshotID *int64 `json:"snapshot_id,omitempty"`
}

// CLICatalog lists what the binary can parse and filter with.
type CLICatalog struct {
	Languages []string `json:"languages"`
	Default   string   `json:"default"`
	Encodings []string `json:"encodings"`
	Presets   []string `json:"presets"`
}

// CLISnapshot is a JSON-friendly snapshot summary.
type CLISnapshot struct {
	ID         int64     `json:"id"`
	Language   string    `json:"language"`
	SourceHash string    `json:"source_hash"`
	SourceLen  int       `json:"source_len"`
	NodeCount  int       `json:"node_count"`
	HasError   bool      `json:"has_error"`
	CreatedAt  time.Time `json:"created_at"`
}

// CLIVersion is the version command's result.
type CLIVersion struct {
	Version   string `json:"version"`
	GoVersion string `json:"go_version,omitempty"`
	Module    string `json:"module,omitempty"`
}
