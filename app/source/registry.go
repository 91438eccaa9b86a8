package source

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/lysyi3m/factcomb/app/verdict"
)

var ErrNoSelectors = errors.New("listing source has no link selectors")

type Registry struct {
	sourcesDir string
	cache      map[string]Source
	mu         sync.RWMutex
}

func NewRegistry(sourcesDir string) *Registry {
	return &Registry{
		sourcesDir: sourcesDir,
		cache:      make(map[string]Source),
	}
}

// Run loads every *.yml and *.yaml file in the sources directory. A file that
// fails to parse or validate is logged and skipped; the rest still load.
func (r *Registry) Run() error {
	if _, err := os.Stat(r.sourcesDir); os.IsNotExist(err) {
		return nil
	}

	var files []string
	for _, pattern := range []string{"*.yml", "*.yaml"} {
		matches, err := filepath.Glob(filepath.Join(r.sourcesDir, pattern))
		if err != nil {
			return fmt.Errorf("failed to find source files: %w", err)
		}
		files = append(files, matches...)
	}

	for _, file := range files {
		src, err := r.LoadFile(file)
		if err != nil {
			slog.Warn("Source skipped", "file", file, "error", err)
			continue
		}

		slog.Debug("Source loaded", "source", src.Name(), "mode", src.Mode(), "enabled", src.Settings().Enabled)
	}

	return nil
}

func (r *Registry) LoadFile(file string) (Source, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Name == "" {
		base := filepath.Base(file)
		cfg.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	src, err := Build(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid source %s: %w", cfg.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[src.Name()] = src

	return src, nil
}

func (r *Registry) Get(name string) (Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src, ok := r.cache[name]
	if !ok {
		return nil, fmt.Errorf("source with name '%s' not found", name)
	}
	return src, nil
}

// All returns every loaded source sorted by name.
func (r *Registry) All() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sources := make([]Source, 0, len(r.cache))
	for _, src := range r.cache {
		sources = append(sources, src)
	}

	sort.Slice(sources, func(i, j int) bool {
		return sources[i].Name() < sources[j].Name()
	})
	return sources
}

// Enabled returns enabled sources sorted by name so runs are reproducible.
func (r *Registry) Enabled() []Source {
	var enabled []Source
	for _, src := range r.All() {
		if src.Settings().Enabled {
			enabled = append(enabled, src)
		}
	}
	return enabled
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}

// Build validates a raw configuration and turns it into its variant.
func Build(cfg Config) (Source, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("source name is required")
	}

	settings, err := buildSettings(cfg)
	if err != nil {
		return nil, err
	}

	mode := Mode(strings.ToLower(strings.TrimSpace(cfg.Mode)))
	if mode == "" {
		if cfg.FeedURL != "" {
			mode = ModeFeed
		} else {
			mode = ModeListing
		}
	}

	switch mode {
	case ModeFeed:
		if cfg.FeedURL == "" {
			return nil, fmt.Errorf("feed URL is required")
		}
		return &FeedSource{
			name:     cfg.Name,
			URL:      strings.TrimSpace(cfg.FeedURL),
			settings: settings,
		}, nil

	case ModeListing:
		if len(cfg.ListingURLs) == 0 {
			return nil, fmt.Errorf("at least one listing URL is required")
		}
		if len(cfg.LinkSelectors) == 0 {
			return nil, ErrNoSelectors
		}

		patterns := make([]*regexp.Regexp, 0, len(cfg.ArticlePatterns))
		for i, p := range cfg.ArticlePatterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("invalid article pattern at index %d: %w", i, err)
			}
			patterns = append(patterns, re)
		}

		return &ListingSource{
			name:            cfg.Name,
			URLs:            cfg.ListingURLs,
			LinkSelectors:   cfg.LinkSelectors,
			Restrict:        cfg.Restrict,
			ArticlePatterns: patterns,
			settings:        settings,
		}, nil

	default:
		return nil, fmt.Errorf("invalid mode: %s", cfg.Mode)
	}
}

func buildSettings(cfg Config) (Settings, error) {
	settings := Settings{
		Enabled:      true,
		Alternate:    cfg.AlternateFetcher,
		MaxItems:     cfg.MaxItems,
		LookbackDays: cfg.LookbackDays,
		Hint:         cfg.ExtractionHint,
	}

	if cfg.Enabled != nil {
		settings.Enabled = *cfg.Enabled
	}

	nonNegativeFields := map[string]int{
		"max items":     cfg.MaxItems,
		"lookback days": cfg.LookbackDays,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return settings, fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	if cfg.FixedLabel != "" {
		label, err := verdict.ParseLabel(cfg.FixedLabel)
		if err != nil {
			return settings, fmt.Errorf("invalid fixed label: %w", err)
		}
		settings.FixedLabel = label
	}

	if cfg.ExtractionHint != "" {
		selectors, ok := Hints[cfg.ExtractionHint]
		if !ok {
			return settings, fmt.Errorf("unknown extraction hint: %s", cfg.ExtractionHint)
		}
		settings.Selectors = selectors
	}

	return settings, nil
}
