package extract

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/lysyi3m/factcomb/app/dataset"
	"github.com/lysyi3m/factcomb/app/discovery"
	"github.com/lysyi3m/factcomb/app/fetch"
	"github.com/lysyi3m/factcomb/app/ident"
	"github.com/lysyi3m/factcomb/app/text"
	"github.com/lysyi3m/factcomb/app/verdict"
)

type Extractor struct {
	provider   fetch.Provider
	classifier *verdict.Classifier
	content    *ContentExtractor
	dates      *DateFinder
	archive    *Archive
	now        func() time.Time
}

func NewExtractor(provider fetch.Provider, classifier *verdict.Classifier, dates *DateFinder, archive *Archive) *Extractor {
	return &Extractor{
		provider:   provider,
		classifier: classifier,
		content:    NewContentExtractor(),
		dates:      dates,
		archive:    archive,
		now:        time.Now,
	}
}

// Extract fetches one candidate and derives its record. It never fails: an
// unusable page yields the feed hints when there are any, otherwise a record
// with an empty title that the collector drops.
func (e *Extractor) Extract(ctx context.Context, c discovery.Candidate) dataset.Record {
	rec := dataset.Record{
		Source:       c.Source,
		URL:          c.URL,
		CanonicalURL: ident.Canonicalize(c.URL),
		CrawledAt:    e.now().UTC().Format(time.RFC3339),
	}

	fetcher := e.provider.For(c.Alternate)
	resp, err := fetcher.Get(ctx, c.URL)
	if err != nil {
		slog.Warn("Article fetch failed", "source", c.Source, "url", c.URL, "error", err)
		return e.fromHints(c, rec)
	}

	if path, err := e.archive.Store(rec.CanonicalURL, resp.Body); err != nil {
		slog.Warn("Failed to archive article", "url", c.URL, "error", err)
	} else {
		rec.HTMLPath = path
	}

	if err := resp.RequireHTML(); err != nil {
		slog.Warn("Article skipped", "source", c.Source, "url", c.URL, "error", err)
		return e.fromHints(c, rec)
	}

	html := text.Decode(resp.Body, resp.Header.Get("Content-Type"))
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		slog.Warn("Article unparseable", "source", c.Source, "url", c.URL, "error", err)
		return e.fromHints(c, rec)
	}

	rec.Title = text.Sanitize(title(doc, c.Selectors.Title))
	if rec.Title == "" {
		rec.Title = c.Title
	}

	rec.Body = text.Sanitize(body(doc, c.Selectors.Body))
	if rec.Body == "" {
		if content, err := e.content.Run(html, c.URL); err == nil {
			rec.Body = text.Sanitize(content)
		} else {
			slog.Debug("Readability fallback failed", "url", c.URL, "error", err)
		}
	}
	if rec.Body == "" {
		rec.Body = c.Summary
	}

	rec.PublishedAt = e.dates.FromPage(doc, c.URL)
	if rec.PublishedAt == "" && c.PublishedAt != nil {
		rec.PublishedAt = format(*c.PublishedAt)
	}
	if rec.PublishedAt == "" {
		rec.PublishedAt = e.dates.FromHeaders(ctx, fetcher, c.URL)
	}

	e.label(&rec, c, doc)

	slog.Debug("Article extracted",
		"source", c.Source,
		"url", c.URL,
		"title_length", len(rec.Title),
		"body_length", len(rec.Body),
		"published_at", rec.PublishedAt,
		"label", string(rec.Label))

	return rec
}

func (e *Extractor) label(rec *dataset.Record, c discovery.Candidate, doc *goquery.Document) {
	if c.FixedLabel != verdict.Unknown {
		rec.Label = c.FixedLabel
		rec.LabelRaw = string(c.FixedLabel)
		rec.LabelOrigin = dataset.LabelOriginFixed
		return
	}

	if doc != nil {
		if label, evidence := e.classifier.FromDocument(doc, c.Selectors.Verdict); label != verdict.Unknown {
			rec.Label = label
			rec.LabelRaw = evidence
			rec.LabelOrigin = dataset.LabelOriginPage
			return
		}
	}

	if label := verdict.Classify(c.LabelHint); label != verdict.Unknown {
		rec.Label = label
		rec.LabelRaw = c.LabelHint
		rec.LabelOrigin = dataset.LabelOriginFeed
	}
}

func (e *Extractor) fromHints(c discovery.Candidate, rec dataset.Record) dataset.Record {
	if !c.FromFeed() {
		return rec
	}

	rec.Title = c.Title
	rec.Body = c.Summary
	if c.PublishedAt != nil {
		rec.PublishedAt = format(*c.PublishedAt)
	}
	e.label(&rec, c, nil)

	return rec
}
