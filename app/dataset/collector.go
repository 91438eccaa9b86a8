package dataset

import (
	"log/slog"
	"sort"
	"unicode/utf8"

	"github.com/lysyi3m/factcomb/app/text"
	"github.com/lysyi3m/factcomb/app/verdict"
)

const (
	MaxTitleLength = 400
	MaxBodyLength  = 20000
)

type CollectOptions struct {
	MinTitle      int
	MinBody       int
	MinTitleChars int
	RequireDate   bool
}

type CollectStats struct {
	Input                int
	Empty                int
	Short                int
	LowInfo              int
	Undated              int
	DuplicateURL         int
	DuplicateFingerprint int
	Kept                 int
}

// Snapshot is the deduplicated output of one run. Canonical URLs and
// fingerprints are unique within Records.
type Snapshot struct {
	Records []Record
	Stats   CollectStats
}

type Collector struct {
	opts CollectOptions
}

func NewCollector(opts CollectOptions) *Collector {
	if opts.MinTitleChars <= 0 {
		opts.MinTitleChars = text.DefaultMinTitleChars
	}
	return &Collector{opts: opts}
}

// Collect filters, labels and deduplicates extracted records. Input order
// does not affect the result beyond ties of the sort key.
func (c *Collector) Collect(records []Record) Snapshot {
	stats := CollectStats{Input: len(records)}
	kept := make([]Record, 0, len(records))

	for _, r := range records {
		if r.Title == "" || r.URL == "" {
			stats.Empty++
			continue
		}

		r.Title = text.Trim(r.Title, MaxTitleLength)
		if utf8.RuneCountInString(r.Body) > MaxBodyLength {
			r.Body = string([]rune(r.Body)[:MaxBodyLength])
		}

		if utf8.RuneCountInString(r.Title) < c.opts.MinTitle || utf8.RuneCountInString(r.Body) < c.opts.MinBody {
			stats.Short++
			continue
		}

		if text.IsLowInfoTitle(r.Title, c.opts.MinTitleChars) {
			stats.LowInfo++
			continue
		}

		if c.opts.RequireDate && !r.HasDate() {
			stats.Undated++
			continue
		}

		kept = append(kept, normalizeLabel(r).Identified())
	}

	SortForDedup(kept)

	byURL := DedupByCanonicalURL(kept)
	stats.DuplicateURL = len(kept) - len(byURL)

	byFingerprint := DedupByFingerprint(byURL)
	stats.DuplicateFingerprint = len(byURL) - len(byFingerprint)

	stats.Kept = len(byFingerprint)

	slog.Debug("Records collected",
		"input", stats.Input,
		"empty", stats.Empty,
		"short", stats.Short,
		"low_info", stats.LowInfo,
		"undated", stats.Undated,
		"duplicate_url", stats.DuplicateURL,
		"duplicate_fingerprint", stats.DuplicateFingerprint,
		"kept", stats.Kept)

	return Snapshot{Records: byFingerprint, Stats: stats}
}

func normalizeLabel(r Record) Record {
	if r.LabelOrigin == LabelOriginFixed {
		return r
	}

	raw := string(r.Label)
	if raw == "" {
		raw = r.LabelRaw
	}

	r.Label = verdict.Normalize(raw)
	if r.Label == verdict.Unknown {
		r.Label = verdict.Doubtful
	}
	if r.LabelOrigin == "" {
		r.LabelOrigin = LabelOriginNormalized
	}
	return r
}

// SortForDedup orders records so the most complete one of a duplicate group
// comes first: dated before undated, newer before older, longer body first.
func SortForDedup(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.HasDate() != b.HasDate() {
			return a.HasDate()
		}
		if a.PublishedAt != b.PublishedAt {
			return a.PublishedAt > b.PublishedAt
		}
		return utf8.RuneCountInString(a.Body) > utf8.RuneCountInString(b.Body)
	})
}

func DedupByCanonicalURL(records []Record) []Record {
	return dedup(records, func(r Record) string { return r.CanonicalURL })
}

func DedupByFingerprint(records []Record) []Record {
	return dedup(records, func(r Record) string { return r.Fingerprint })
}

func dedup(records []Record, key func(Record) string) []Record {
	seen := make(map[string]bool, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		k := key(r)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out
}

// Merge identifies, sorts and deduplicates an already-collected set, as
// done when folding a run into the master file.
func Merge(records []Record) []Record {
	merged := make([]Record, 0, len(records))
	for _, r := range records {
		if r.URL == "" && r.CanonicalURL == "" {
			continue
		}
		merged = append(merged, r.Identified())
	}

	SortForDedup(merged)
	return DedupByFingerprint(DedupByCanonicalURL(merged))
}
