package source

import (
	"regexp"

	"github.com/lysyi3m/factcomb/app/verdict"
)

type Mode string

const (
	ModeFeed    Mode = "feed"
	ModeListing Mode = "listing"
)

// Source is one configured origin. Exactly two variants exist: *FeedSource and
// *ListingSource, each carrying only the fields its discovery mode needs.
type Source interface {
	Name() string
	Mode() Mode
	Settings() Settings
}

// Settings are the mode-independent parts of a source.
type Settings struct {
	Enabled      bool
	FixedLabel   verdict.Label
	Hint         string
	Selectors    SelectorSet
	Alternate    bool
	MaxItems     int
	LookbackDays int
}

type FeedSource struct {
	name     string
	URL      string
	settings Settings
}

func (s *FeedSource) Name() string       { return s.name }
func (s *FeedSource) Mode() Mode         { return ModeFeed }
func (s *FeedSource) Settings() Settings { return s.settings }

type ListingSource struct {
	name            string
	URLs            []string
	LinkSelectors   []string
	Restrict        []string
	ArticlePatterns []*regexp.Regexp
	settings        Settings
}

func (s *ListingSource) Name() string       { return s.name }
func (s *ListingSource) Mode() Mode         { return ModeListing }
func (s *ListingSource) Settings() Settings { return s.settings }

// Raw configuration as read from a YAML file.
type Config struct {
	Name             string   `yaml:"name"`
	Mode             string   `yaml:"mode"`
	FeedURL          string   `yaml:"feed_url"`
	ListingURLs      []string `yaml:"listing_urls"`
	LinkSelectors    []string `yaml:"link_selectors"`
	Restrict         []string `yaml:"restrict"`
	ArticlePatterns  []string `yaml:"article_patterns"`
	FixedLabel       string   `yaml:"fixed_label"`
	ExtractionHint   string   `yaml:"extraction_hint"`
	AlternateFetcher bool     `yaml:"alternate_fetcher"`
	Enabled          *bool    `yaml:"enabled"`
	MaxItems         int      `yaml:"max_items"`
	LookbackDays     int      `yaml:"lookback_days"`
}
