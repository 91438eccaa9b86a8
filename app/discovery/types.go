package discovery

import (
	"time"

	"github.com/lysyi3m/factcomb/app/source"
	"github.com/lysyi3m/factcomb/app/verdict"
)

// Candidate is a discovered article URL with whatever the discovery step
// already knew about it.
type Candidate struct {
	Source      string
	URL         string
	Title       string
	Summary     string
	PublishedAt *time.Time
	LabelHint   string
	FixedLabel  verdict.Label
	Selectors   source.SelectorSet
	Alternate   bool
}

// FromFeed reports whether the candidate carries feed hints to fall back on.
func (c Candidate) FromFeed() bool {
	return c.Title != "" || c.Summary != ""
}

func newCandidate(src source.Source, link string) Candidate {
	settings := src.Settings()
	return Candidate{
		Source:     src.Name(),
		URL:        link,
		FixedLabel: settings.FixedLabel,
		Selectors:  settings.Selectors,
		Alternate:  settings.Alternate,
	}
}

// Candidates wraps listing URLs into candidates without hints.
func Candidates(src source.Source, links []string) []Candidate {
	candidates := make([]Candidate, 0, len(links))
	for _, link := range links {
		candidates = append(candidates, newCandidate(src, link))
	}
	return candidates
}
