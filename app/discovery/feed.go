package discovery

import (
	"bytes"
	"cmp"
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"

	"github.com/lysyi3m/factcomb/app/fetch"
	"github.com/lysyi3m/factcomb/app/ident"
	"github.com/lysyi3m/factcomb/app/source"
	"github.com/lysyi3m/factcomb/app/text"
)

const maxSummaryLength = 1500

type Feed struct {
	provider     fetch.Provider
	gofeedParser *gofeed.Parser
	location     *time.Location
	now          func() time.Time
}

func NewFeed(provider fetch.Provider, location *time.Location) *Feed {
	if location == nil {
		location = time.UTC
	}
	return &Feed{
		provider:     provider,
		gofeedParser: gofeed.NewParser(),
		location:     location,
		now:          time.Now,
	}
}

// Discover fetches and parses a feed. Entries older than lookbackDays are
// dropped when they carry a date; undated entries are kept. Any failure
// yields an empty list.
func (d *Feed) Discover(ctx context.Context, src *source.FeedSource, lookbackDays int) []Candidate {
	if days := src.Settings().LookbackDays; days > 0 {
		lookbackDays = days
	}

	resp, err := d.provider.For(src.Settings().Alternate).Get(ctx, src.URL)
	if err != nil {
		slog.Warn("Feed fetch failed", "source", src.Name(), "url", src.URL, "error", err)
		return nil
	}

	candidates, err := d.Run(src, resp.Body, lookbackDays)
	if err != nil {
		slog.Warn("Feed parse failed", "source", src.Name(), "url", src.URL, "error", err)
		return nil
	}

	slog.Debug("Feed parsed", "source", src.Name(), "candidates", len(candidates))
	return candidates
}

func (d *Feed) Run(src *source.FeedSource, data []byte, lookbackDays int) ([]Candidate, error) {
	feed, err := d.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var cutoff time.Time
	if lookbackDays > 0 {
		cutoff = d.now().AddDate(0, 0, -lookbackDays)
	}

	maxItems := src.Settings().MaxItems
	candidates := make([]Candidate, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}

		candidate, ok := d.normalizeItem(src, item)
		if !ok {
			continue
		}

		if candidate.PublishedAt != nil && !cutoff.IsZero() && candidate.PublishedAt.Before(cutoff) {
			continue
		}

		candidates = append(candidates, candidate)
		if maxItems > 0 && len(candidates) >= maxItems {
			break
		}
	}

	return candidates, nil
}

// normalizeItem resolves relative item links against the feed URL.
func (d *Feed) normalizeItem(src *source.FeedSource, item *gofeed.Item) (Candidate, bool) {
	link := ident.Resolve(src.URL, item.Link)
	if link == "" {
		return Candidate{}, false
	}

	candidate := newCandidate(src, link)
	candidate.Title = text.Trim(text.Sanitize(item.Title), 400)
	candidate.Summary = text.Trim(text.Sanitize(plainText(cmp.Or(item.Description, item.Content))), maxSummaryLength)
	candidate.PublishedAt = d.publishedAt(item)

	if len(item.Categories) > 0 {
		candidate.LabelHint = strings.TrimSpace(item.Categories[0])
	}

	return candidate, true
}

func (d *Feed) publishedAt(item *gofeed.Item) *time.Time {
	if item.PublishedParsed != nil {
		t := item.PublishedParsed.UTC()
		return &t
	}
	if item.UpdatedParsed != nil {
		t := item.UpdatedParsed.UTC()
		return &t
	}

	for _, raw := range []string{item.Published, item.Updated} {
		if raw == "" {
			continue
		}
		if t, err := dateparse.ParseIn(strings.TrimSpace(raw), d.location); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func plainText(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return fragment
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return doc.Text()
}
