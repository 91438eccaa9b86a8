package tasks

import (
	"context"
	"log/slog"

	"golang.org/x/sync/semaphore"

	"github.com/lysyi3m/factcomb/app/dataset"
	"github.com/lysyi3m/factcomb/app/discovery"
	"github.com/lysyi3m/factcomb/app/ident"
	"github.com/lysyi3m/factcomb/app/source"
)

const (
	DefaultConcurrency = 10
	DefaultBatchSize   = 40
)

type RunnerOptions struct {
	LookbackDays int
	Concurrency  int
	BatchSize    int
}

// Runner drives discovery sequentially per source and extraction in
// fixed-size batches under a bounded permit pool.
type Runner struct {
	listing      ListingDiscoverer
	feed         FeedDiscoverer
	extractor    ArticleExtractor
	lookbackDays int
	batchSize    int
	permits      *semaphore.Weighted
}

func NewRunner(listing ListingDiscoverer, feed FeedDiscoverer, extractor ArticleExtractor, opts RunnerOptions) *Runner {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}

	return &Runner{
		listing:      listing,
		feed:         feed,
		extractor:    extractor,
		lookbackDays: opts.LookbackDays,
		batchSize:    opts.BatchSize,
		permits:      semaphore.NewWeighted(int64(opts.Concurrency)),
	}
}

// Discover runs every source in order and returns the candidates, dropping
// repeats of a canonical URL already seen from an earlier source.
func (r *Runner) Discover(ctx context.Context, sources []source.Source) []discovery.Candidate {
	var candidates []discovery.Candidate
	seen := make(map[string]bool)

	for _, src := range sources {
		task := NewDiscoverSourceTask(src, r.listing, r.feed, r.lookbackDays)

		if err := execute(ctx, task); err != nil {
			slog.Warn("Source discovery failed", "source", src.Name(), "error", err)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		repeated := 0
		for _, c := range task.Candidates {
			key := ident.Canonicalize(c.URL)
			if seen[key] {
				repeated++
				continue
			}
			seen[key] = true
			candidates = append(candidates, c)
		}
		if repeated > 0 {
			slog.Debug("Repeated candidates dropped", "source", src.Name(), "count", repeated)
		}
	}

	return candidates
}

// Batches splits candidates into chunks of the configured batch size.
func (r *Runner) Batches(candidates []discovery.Candidate) [][]discovery.Candidate {
	var batches [][]discovery.Candidate
	for start := 0; start < len(candidates); start += r.batchSize {
		end := min(start+r.batchSize, len(candidates))
		batches = append(batches, candidates[start:end])
	}
	return batches
}

// Extract processes candidates batch by batch. onBatch, when set, sees each
// finished batch before the next one starts, so completed work is persisted
// even if a later batch never finishes.
func (r *Runner) Extract(ctx context.Context, candidates []discovery.Candidate, onBatch func(index int, records []dataset.Record)) []dataset.Record {
	batches := r.Batches(candidates)

	var records []dataset.Record
	for i, batch := range batches {
		task := NewExtractBatchTask(i, batch, r.extractor, r.permits)

		if err := execute(ctx, task); err != nil {
			slog.Warn("Extraction stopped", "batch", i+1, "batches", len(batches), "error", err)
			break
		}

		records = append(records, task.Records...)
		slog.Info("Batch extracted", "batch", i+1, "batches", len(batches), "records", len(task.Records), "duration", task.GetDuration().String())

		if onBatch != nil {
			onBatch(i, task.Records)
		}
	}

	return records
}

func execute(ctx context.Context, task TaskInterface) error {
	task.Start()
	err := task.Execute(ctx)

	slog.Debug("Task finished",
		"task_id", task.GetID(),
		"type", string(task.GetType()),
		"source", task.GetSourceName(),
		"duration", task.GetDuration().String(),
		"error", err)

	return err
}
