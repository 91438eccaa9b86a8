package database

import (
	"time"
)

type RunRepository interface {
	StartRun(id, date string, startedAt time.Time) error
	FinishRun(id, status string, stats RunStats, finishedAt time.Time) error
	GetRun(id string) (*Run, error)
	GetRuns(limit int) ([]Run, error)
}

type FetchRepository interface {
	RecordFetches(fetches []Fetch) error
	GetFetches(runID string, limit int) ([]Fetch, error)
	CountByStatus(runID string) (map[string]int, error)
}
