package dataset

import (
	"strings"

	"github.com/lysyi3m/factcomb/app/ident"
	"github.com/lysyi3m/factcomb/app/text"
	"github.com/lysyi3m/factcomb/app/verdict"
)

const (
	LabelOriginFixed      = "fixed"
	LabelOriginPage       = "page"
	LabelOriginFeed       = "feed"
	LabelOriginNormalized = "normalized"
)

// Record is one row of the dataset. PublishedAt and CrawledAt are RFC 3339
// UTC strings; PublishedAt is empty when the date is unknown.
type Record struct {
	Source       string        `json:"source"`
	PublishedAt  string        `json:"published_at"`
	Title        string        `json:"title"`
	Body         string        `json:"body"`
	Label        verdict.Label `json:"label"`
	LabelRaw     string        `json:"label_raw"`
	LabelOrigin  string        `json:"label_origin"`
	URL          string        `json:"url"`
	CanonicalURL string        `json:"canonical_url"`
	Fingerprint  string        `json:"fingerprint"`
	HTMLPath     string        `json:"html_path"`
	CrawledAt    string        `json:"crawled_at"`
}

// Identified returns a copy with canonical URL and fingerprint filled in.
func (r Record) Identified() Record {
	if r.CanonicalURL == "" {
		r.CanonicalURL = ident.Canonicalize(r.URL)
	}
	if r.Fingerprint == "" {
		r.Fingerprint = ContentFingerprint(r)
	}
	return r
}

// ContentFingerprint hashes publish date, title and body. The URL is left
// out so mirrors of the same article share a fingerprint.
func ContentFingerprint(r Record) string {
	title := strings.ToLower(text.NormalizeSpace(r.Title))
	return ident.Fingerprint(r.PublishedAt, title, text.NormalizeSpace(r.Body))
}

func (r Record) HasDate() bool {
	return r.PublishedAt != ""
}
