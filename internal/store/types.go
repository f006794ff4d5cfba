package store

import "time"

// Snapshot is one persisted rendering of a source text under a grammar.
type Snapshot struct {
	ID         int64
	Language   string
	SourceHash string
	SourceLen  int
	SExpr      string
	NodeCount  int
	HasError   bool
	CreatedAt  time.Time
}

// SnapshotLine is one rendered node of a Snapshot, in pre-order.
type SnapshotLine struct {
	Ordinal int
	Depth   int
	Kind    string
	Row     int
	Col     int
	Text    string
	Named   bool
}
