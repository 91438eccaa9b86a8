package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var _ RunRepository = (*RunRepo)(nil)

// RunRepo handles database operations for pipeline runs
type RunRepo struct {
	db *DB
}

func NewRunRepository(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

func (r *RunRepo) StartRun(id, date string, startedAt time.Time) error {
	_, err := r.db.Exec(`
		INSERT INTO runs (id, run_date, started_at, status)
		VALUES (?, ?, ?, ?)
	`, id, date, formatTime(startedAt), RunStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

func (r *RunRepo) FinishRun(id, status string, stats RunStats, finishedAt time.Time) error {
	result, err := r.db.Exec(`
		UPDATE runs
		SET finished_at = ?, status = ?, candidates = ?, extracted = ?, kept = ?,
		    balanced = ?, dated_pct = ?, output_path = ?
		WHERE id = ?
	`, formatTime(finishedAt), status, stats.Candidates, stats.Extracted, stats.Kept,
		stats.Balanced, stats.DatedPct, stats.OutputPath, id)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run '%s' not found", id)
	}
	return nil
}

const runColumns = `id, run_date, started_at, finished_at, status, candidates, extracted, kept, balanced, dated_pct, output_path`

func (r *RunRepo) GetRun(id string) (*Run, error) {
	row := r.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

func (r *RunRepo) GetRuns(limit int) ([]Run, error) {
	rows, err := r.db.Query(`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var run Run
	var startedAt string
	var finishedAt sql.NullString

	err := s.Scan(&run.ID, &run.Date, &startedAt, &finishedAt, &run.Status, &run.Candidates,
		&run.Extracted, &run.Kept, &run.Balanced, &run.DatedPct, &run.OutputPath)
	if err != nil {
		return nil, err
	}

	run.StartedAt = parseTime(startedAt)
	if finishedAt.Valid {
		t := parseTime(finishedAt.String)
		run.FinishedAt = &t
	}
	return &run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
