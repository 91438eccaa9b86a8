package tasks

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/lysyi3m/factcomb/app/dataset"
	"github.com/lysyi3m/factcomb/app/discovery"
)

// ExtractBatchTask extracts one batch of candidates, holding a permit from
// the shared pool for every fetch in flight.
type ExtractBatchTask struct {
	Task
	Index      int
	Candidates []discovery.Candidate
	Records    []dataset.Record
	extractor  ArticleExtractor
	permits    *semaphore.Weighted
}

func NewExtractBatchTask(index int, candidates []discovery.Candidate, extractor ArticleExtractor, permits *semaphore.Weighted) *ExtractBatchTask {
	return &ExtractBatchTask{
		Task:       NewTask(TaskTypeExtractBatch, ""),
		Index:      index,
		Candidates: candidates,
		extractor:  extractor,
		permits:    permits,
	}
}

func (t *ExtractBatchTask) Execute(ctx context.Context) error {
	results := make([]dataset.Record, len(t.Candidates))

	var g errgroup.Group
	for i, c := range t.Candidates {
		if err := t.permits.Acquire(ctx, 1); err != nil {
			g.Wait()
			return err
		}

		g.Go(func() error {
			defer t.permits.Release(1)
			results[i] = t.extractor.Extract(ctx, c)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	t.Records = results
	return nil
}
