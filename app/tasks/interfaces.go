package tasks

import (
	"context"

	"github.com/lysyi3m/factcomb/app/dataset"
	"github.com/lysyi3m/factcomb/app/discovery"
	"github.com/lysyi3m/factcomb/app/source"
)

// ListingDiscoverer harvests article links from a source's listing pages.
type ListingDiscoverer interface {
	Discover(ctx context.Context, src *source.ListingSource) []string
}

// FeedDiscoverer turns a syndication feed into candidates carrying hints.
type FeedDiscoverer interface {
	Discover(ctx context.Context, src *source.FeedSource, lookbackDays int) []discovery.Candidate
}

// ArticleExtractor never fails; a broken page yields a record with empty fields.
type ArticleExtractor interface {
	Extract(ctx context.Context, c discovery.Candidate) dataset.Record
}
