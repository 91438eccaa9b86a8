package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/factcomb/app/discovery"
	"github.com/lysyi3m/factcomb/app/source"
)

type DiscoverSourceTask struct {
	Task
	Source       source.Source
	Candidates   []discovery.Candidate
	listing      ListingDiscoverer
	feed         FeedDiscoverer
	lookbackDays int
}

func NewDiscoverSourceTask(src source.Source, listing ListingDiscoverer, feed FeedDiscoverer, lookbackDays int) *DiscoverSourceTask {
	return &DiscoverSourceTask{
		Task:         NewTask(TaskTypeDiscoverSource, src.Name()),
		Source:       src,
		listing:      listing,
		feed:         feed,
		lookbackDays: lookbackDays,
	}
}

func (t *DiscoverSourceTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.Source.Settings().Enabled {
		slog.Debug("Source disabled, skipping", "source", t.SourceName)
		return nil
	}

	switch s := t.Source.(type) {
	case *source.FeedSource:
		t.Candidates = t.feed.Discover(ctx, s, t.lookbackDays)
	case *source.ListingSource:
		t.Candidates = discovery.Candidates(s, t.listing.Discover(ctx, s))
	default:
		return fmt.Errorf("unsupported source type %T", t.Source)
	}

	slog.Info("Source discovered", "source", t.SourceName, "mode", t.Source.Mode(), "candidates", len(t.Candidates), "duration", t.GetDuration().String())
	return nil
}
