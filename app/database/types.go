package database

import (
	"time"
)

const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"

	FetchStatusOK    = "ok"
	FetchStatusEmpty = "empty"
)

type Run struct {
	ID         string     `json:"id"`
	Date       string     `json:"date"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Status     string     `json:"status"`
	Candidates int        `json:"candidates"`
	Extracted  int        `json:"extracted"`
	Kept       int        `json:"kept"`
	Balanced   int        `json:"balanced"`
	DatedPct   float64    `json:"dated_pct"`
	OutputPath string     `json:"output_path"`
}

// RunStats are the counts recorded when a run finishes.
type RunStats struct {
	Candidates int
	Extracted  int
	Kept       int
	Balanced   int
	DatedPct   float64
	OutputPath string
}

// Fetch is one extraction outcome.
type Fetch struct {
	RunID        string    `json:"run_id"`
	URL          string    `json:"url"`
	Source       string    `json:"source"`
	Status       string    `json:"status"`
	Label        string    `json:"label"`
	ArchivedPath string    `json:"archived_path"`
	FetchedAt    time.Time `json:"fetched_at"`
}
