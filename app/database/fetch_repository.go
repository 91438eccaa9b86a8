package database

import (
	"fmt"
)

var _ FetchRepository = (*FetchRepo)(nil)

// FetchRepo records per-URL extraction outcomes
type FetchRepo struct {
	db *DB
}

func NewFetchRepository(db *DB) *FetchRepo {
	return &FetchRepo{db: db}
}

// RecordFetches stores a batch of outcomes in one transaction.
func (r *FetchRepo) RecordFetches(fetches []Fetch) error {
	if len(fetches) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO fetches (run_id, url, source, status, label, archived_path, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range fetches {
		if _, err := stmt.Exec(f.RunID, f.URL, f.Source, f.Status, f.Label, f.ArchivedPath, formatTime(f.FetchedAt)); err != nil {
			return fmt.Errorf("failed to insert fetch %s: %w", f.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit fetches: %w", err)
	}
	return nil
}

func (r *FetchRepo) GetFetches(runID string, limit int) ([]Fetch, error) {
	rows, err := r.db.Query(`
		SELECT run_id, url, source, status, label, archived_path, fetched_at
		FROM fetches
		WHERE run_id = ?
		ORDER BY id
		LIMIT ?
	`, runID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query fetches: %w", err)
	}
	defer rows.Close()

	var fetches []Fetch
	for rows.Next() {
		var f Fetch
		var fetchedAt string
		if err := rows.Scan(&f.RunID, &f.URL, &f.Source, &f.Status, &f.Label, &f.ArchivedPath, &fetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan fetch: %w", err)
		}
		f.FetchedAt = parseTime(fetchedAt)
		fetches = append(fetches, f)
	}
	return fetches, rows.Err()
}

func (r *FetchRepo) CountByStatus(runID string) (map[string]int, error) {
	rows, err := r.db.Query(`SELECT status, COUNT(*) FROM fetches WHERE run_id = ? GROUP BY status`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to count fetches: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
