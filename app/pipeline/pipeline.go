package pipeline

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/lysyi3m/factcomb/app/database"
	"github.com/lysyi3m/factcomb/app/dataset"
	"github.com/lysyi3m/factcomb/app/discovery"
	"github.com/lysyi3m/factcomb/app/export"
	"github.com/lysyi3m/factcomb/app/extract"
	"github.com/lysyi3m/factcomb/app/fetch"
	"github.com/lysyi3m/factcomb/app/source"
	"github.com/lysyi3m/factcomb/app/tasks"
	"github.com/lysyi3m/factcomb/app/verdict"
)

type Options struct {
	OutDir       string
	Location     *time.Location
	Pages        int
	MaxPerSource int
	LookbackDays int
	Concurrency  int
	BatchSize    int
	TargetTotal  int
	Ratios       dataset.Ratios
	Seed         int64
	Shuffle      bool
	Collect      dataset.CollectOptions
}

// Result is everything one run produced.
type Result struct {
	RunID    string
	Snapshot dataset.Snapshot
	Balanced []dataset.Record
	Paths    export.Paths
	Summary  dataset.Summary
}

type Pipeline struct {
	provider fetch.Provider
	sources  []source.Source
	runs     database.RunRepository
	fetches  database.FetchRepository
	opts     Options
	output   io.Writer
	now      func() time.Time
}

func New(provider fetch.Provider, sources []source.Source, opts Options) *Pipeline {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Ratios == nil {
		opts.Ratios = dataset.DefaultRatios
	}

	return &Pipeline{
		provider: provider,
		sources:  sources,
		opts:     opts,
		output:   os.Stdout,
		now:      time.Now,
	}
}

// WithLedger records runs and fetch outcomes in the given repositories.
func (p *Pipeline) WithLedger(runs database.RunRepository, fetches database.FetchRepository) *Pipeline {
	p.runs = runs
	p.fetches = fetches
	return p
}

// WithOutput redirects the rendered summary.
func (p *Pipeline) WithOutput(w io.Writer) *Pipeline {
	p.output = w
	return p
}

func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	started := p.now()
	date := started.In(p.opts.Location).Format("2006-01-02")
	runID := uuid.NewString()

	slog.Info("Run started", "run_id", runID, "date", date, "sources", len(p.sources))
	p.startRun(runID, date, started)

	archive := extract.NewArchive(filepath.Join(p.opts.OutDir, "html", date))
	extractor := extract.NewExtractor(p.provider, verdict.NewClassifier(), extract.NewDateFinder(p.opts.Location), archive)
	runner := tasks.NewRunner(
		discovery.NewListing(p.provider, p.opts.Pages, p.opts.MaxPerSource),
		discovery.NewFeed(p.provider, p.opts.Location),
		extractor,
		tasks.RunnerOptions{
			LookbackDays: p.opts.LookbackDays,
			Concurrency:  p.opts.Concurrency,
			BatchSize:    p.opts.BatchSize,
		},
	)

	candidates := runner.Discover(ctx, p.sources)
	slog.Info("Discovery finished", "candidates", len(candidates))

	records := runner.Extract(ctx, candidates, func(index int, batch []dataset.Record) {
		p.recordFetches(runID, batch)
	})

	snapshot := dataset.NewCollector(p.opts.Collect).Collect(records)
	balanced := dataset.NewBalancer(p.opts.Ratios, p.opts.Seed).Run(snapshot.Records, p.opts.TargetTotal)
	if p.opts.Shuffle {
		balanced = dataset.Shuffle(balanced, p.opts.Seed)
	}

	paths, writeErr := export.NewWriter(p.opts.OutDir).Write(date, balanced)

	summary := dataset.NewSummary(runID, date, len(candidates), snapshot, balanced)
	summary.ArchivedBytes = archive.Bytes()
	summary.Duration = p.now().Sub(started)
	if err := summary.Render(p.output); err != nil {
		slog.Warn("Failed to render summary", "error", err)
	}

	result := &Result{
		RunID:    runID,
		Snapshot: snapshot,
		Balanced: balanced,
		Paths:    paths,
		Summary:  summary,
	}

	status := database.RunStatusCompleted
	if writeErr != nil {
		status = database.RunStatusFailed
	}
	p.finishRun(runID, status, summary, len(records), paths.CSV)

	if writeErr != nil {
		return result, writeErr
	}

	slog.Info("Run finished", "run_id", runID, "balanced", len(balanced), "path", paths.CSV, "duration", summary.Duration.String())
	return result, nil
}

func (p *Pipeline) startRun(runID, date string, started time.Time) {
	if p.runs == nil {
		return
	}
	if err := p.runs.StartRun(runID, date, started); err != nil {
		slog.Warn("Failed to record run start", "run_id", runID, "error", err)
	}
}

func (p *Pipeline) finishRun(runID, status string, summary dataset.Summary, extracted int, outputPath string) {
	if p.runs == nil {
		return
	}

	stats := database.RunStats{
		Candidates: summary.Candidates,
		Extracted:  extracted,
		Kept:       summary.PostFilter,
		Balanced:   summary.Balanced,
		DatedPct:   summary.DatedPct,
		OutputPath: outputPath,
	}
	if err := p.runs.FinishRun(runID, status, stats, p.now()); err != nil {
		slog.Warn("Failed to record run finish", "run_id", runID, "error", err)
	}
}

func (p *Pipeline) recordFetches(runID string, batch []dataset.Record) {
	if p.fetches == nil || len(batch) == 0 {
		return
	}

	now := p.now()
	fetches := make([]database.Fetch, 0, len(batch))
	for _, r := range batch {
		status := database.FetchStatusOK
		if r.Title == "" && r.Body == "" {
			status = database.FetchStatusEmpty
		}
		fetches = append(fetches, database.Fetch{
			RunID:        runID,
			URL:          r.URL,
			Source:       r.Source,
			Status:       status,
			Label:        string(r.Label),
			ArchivedPath: r.HTMLPath,
			FetchedAt:    now,
		})
	}

	if err := p.fetches.RecordFetches(fetches); err != nil {
		slog.Warn("Failed to record fetches", "run_id", runID, "count", len(fetches), "error", err)
	}
}
