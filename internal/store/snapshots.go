package store

import (
	"database/sql"
	"fmt"
)

// SaveSnapshot inserts snap and its lines in a single transaction. Line
// ordinals are assigned from slice order. snap.ID is set on success.
func (s *Store) SaveSnapshot(snap *Snapshot, lines []SnapshotLine) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("save snapshot: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO snapshots (language, source_hash, source_len, sexp, node_count, has_error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snap.Language, snap.SourceHash, snap.SourceLen, snap.SExpr, snap.NodeCount, snap.HasError, snap.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("save snapshot: insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("save snapshot: last insert id: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO snapshot_lines (snapshot_id, ordinal, depth, kind, start_row, start_col, text, named)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("save snapshot: prepare lines: %w", err)
	}
	defer stmt.Close()

	for i, l := range lines {
		if _, err := stmt.Exec(id, i, l.Depth, l.Kind, l.Row, l.Col, l.Text, l.Named); err != nil {
			return 0, fmt.Errorf("save snapshot: line %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("save snapshot: commit: %w", err)
	}
	snap.ID = id
	return id, nil
}

const snapshotColumns = "id, language, source_hash, source_len, sexp, node_count, has_error, created_at"

func scanSnapshot(row interface{ Scan(...any) error }) (*Snapshot, error) {
	snap := &Snapshot{}
	err := row.Scan(&snap.ID, &snap.Language, &snap.SourceHash, &snap.SourceLen,
		&snap.SExpr, &snap.NodeCount, &snap.HasError, &snap.CreatedAt)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// LatestSnapshot returns the newest snapshot for (language, sourceHash), or
// nil if none exists.
func (s *Store) LatestSnapshot(language, sourceHash string) (*Snapshot, error) {
	row := s.db.QueryRow(
		"SELECT "+snapshotColumns+" FROM snapshots WHERE language = ? AND source_hash = ? ORDER BY id DESC LIMIT 1",
		language, sourceHash,
	)
	snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	return snap, nil
}

// SnapshotByID returns a snapshot, or nil if it does not exist.
func (s *Store) SnapshotByID(id int64) (*Snapshot, error) {
	snap, err := scanSnapshot(s.db.QueryRow("SELECT "+snapshotColumns+" FROM snapshots WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot by id: %w", err)
	}
	return snap, nil
}

// Snapshots lists snapshots newest first. An empty language lists all.
func (s *Store) Snapshots(language string) ([]*Snapshot, error) {
	query := "SELECT " + snapshotColumns + " FROM snapshots"
	var args []any
	if language != "" {
		query += " WHERE language = ?"
		args = append(args, language)
	}
	query += " ORDER BY id DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("snapshots: scan: %w", err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// SnapshotLines returns a snapshot's lines ordered by ordinal.
func (s *Store) SnapshotLines(snapshotID int64) ([]SnapshotLine, error) {
	rows, err := s.db.Query(
		"SELECT ordinal, depth, kind, start_row, start_col, text, named FROM snapshot_lines WHERE snapshot_id = ? ORDER BY ordinal",
		snapshotID,
	)
	if err != nil {
		return nil, fmt.Errorf("snapshot lines: %w", err)
	}
	defer rows.Close()

	var lines []SnapshotLine
	for rows.Next() {
		var l SnapshotLine
		if err := rows.Scan(&l.Ordinal, &l.Depth, &l.Kind, &l.Row, &l.Col, &l.Text, &l.Named); err != nil {
			return nil, fmt.Errorf("snapshot lines: scan: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// DeleteSnapshot removes a snapshot and its lines.
func (s *Store) DeleteSnapshot(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("delete snapshot: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM snapshot_lines WHERE snapshot_id = ?", id); err != nil {
		return fmt.Errorf("delete snapshot lines: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM snapshots WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return tx.Commit()
}
