package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"github.com/lysyi3m/factcomb/app/dataset"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type runOpts struct {
	Pages         int           `long:"pages" env:"PAGES" default:"3" description:"Listing pages to visit per source"`
	MaxPerSource  int           `long:"max-per-source" env:"MAX_PER_SOURCE" default:"300" description:"Maximum candidate URLs per listing source"`
	TargetTotal   int           `long:"target-total" env:"TARGET_TOTAL" default:"300" description:"Rows in the balanced dataset"`
	Ratio         string        `long:"ratio" env:"RATIO" default:"false=0.4,true=0.4,doubtful=0.2" description:"Target class ratios"`
	MinTitle      int           `long:"min-title" env:"MIN_TITLE" default:"12" description:"Minimum title length"`
	MinBody       int           `long:"min-body" env:"MIN_BODY" default:"300" description:"Minimum body length"`
	RequireDate   bool          `long:"require-date" env:"REQUIRE_DATE" description:"Drop rows without a publish date"`
	LookbackDays  int           `long:"lookback-days" env:"LOOKBACK_DAYS" default:"15" description:"Ignore feed entries older than this many days"`
	Concurrency   int           `long:"concurrency" env:"CONCURRENCY" default:"10" description:"Article fetches in flight"`
	BatchSize     int           `long:"batch-size" env:"BATCH_SIZE" default:"40" description:"Articles per extraction batch"`
	Retries       int           `long:"retries" env:"RETRIES" default:"2" description:"Retries per failed fetch"`
	Timeout       time.Duration `long:"timeout" env:"TIMEOUT" default:"35s" description:"HTTP request timeout"`
	HostInterval  time.Duration `long:"host-interval" env:"HOST_INTERVAL" default:"250ms" description:"Minimum spacing between requests to one host"`
	Seed          int64         `long:"seed" env:"SEED" default:"42" description:"Sampling seed"`
	Shuffle       bool          `long:"shuffle" env:"SHUFFLE" description:"Shuffle the balanced rows with the sampling seed"`
	UserAgent     string        `long:"user-agent" env:"USER_AGENT" default:"factcomb/1.0" description:"User agent string for HTTP requests"`
	RespectRobots bool          `long:"respect-robots" env:"RESPECT_ROBOTS" description:"Skip URLs disallowed by robots.txt"`
}

type consolidateOpts struct {
	Out   string `long:"out" env:"CONSOLIDATE_OUT" description:"Output CSV (defaults to <out-dir>/consolidated.csv)"`
	Clean bool   `long:"clean" env:"CONSOLIDATE_CLEAN" description:"Sanitize fields and drop boilerplate titles"`
}

type serveOpts struct {
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
}

type rawCfg struct {
	OutDir     string `long:"out-dir" env:"OUT_DIR" default:"./data" description:"Directory for datasets, archives and the master file"`
	SourcesDir string `long:"sources-dir" env:"SOURCES_DIR" default:"./sources" description:"Directory containing source configuration files"`
	Ledger     string `long:"ledger" env:"LEDGER_PATH" default:"./data/ledger.db" description:"SQLite crawl ledger (empty to disable)"`
	Timezone   string `long:"timezone" env:"TZ" default:"America/Bogota" description:"Timezone for run dates and naive timestamps"`
	Debug      bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`

	Run         runOpts         `command:"run" description:"Crawl sources and write a balanced dataset"`
	Consolidate consolidateOpts `command:"consolidate" description:"Merge historical daily datasets"`
	Serve       serveOpts       `command:"serve" description:"Serve the status API"`
}

// Load reads .env when present, then flags and environment.
func Load() (*Cfg, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	return LoadArgs(os.Args[1:])
}

// LoadArgs parses args; it returns nil, nil when help was requested.
func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	ratios, err := dataset.ParseRatios(raw.Run.Ratio)
	if err != nil {
		return nil, fmt.Errorf("invalid ratio: %w", err)
	}

	nonNegativeFields := map[string]int{
		"pages":          raw.Run.Pages,
		"max per source": raw.Run.MaxPerSource,
		"target total":   raw.Run.TargetTotal,
		"lookback days":  raw.Run.LookbackDays,
		"retries":        raw.Run.Retries,
	}
	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return nil, fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	cfg := &Cfg{
		OutDir:         raw.OutDir,
		SourcesDir:     raw.SourcesDir,
		Ledger:         raw.Ledger,
		Timezone:       raw.Timezone,
		Debug:          raw.Debug,
		Pages:          raw.Run.Pages,
		MaxPerSource:   raw.Run.MaxPerSource,
		TargetTotal:    raw.Run.TargetTotal,
		Ratios:         ratios,
		MinTitle:       raw.Run.MinTitle,
		MinBody:        raw.Run.MinBody,
		RequireDate:    raw.Run.RequireDate,
		LookbackDays:   raw.Run.LookbackDays,
		Concurrency:    raw.Run.Concurrency,
		BatchSize:      raw.Run.BatchSize,
		Retries:        raw.Run.Retries,
		Timeout:        raw.Run.Timeout,
		HostInterval:   raw.Run.HostInterval,
		Seed:           raw.Run.Seed,
		Shuffle:        raw.Run.Shuffle,
		UserAgent:      raw.Run.UserAgent,
		RespectRobots:  raw.Run.RespectRobots,
		ConsolidateOut: raw.Consolidate.Out,
		Clean:          raw.Consolidate.Clean,
		Port:           raw.Serve.Port,
		APIAccessKey:   raw.Serve.APIAccessKey,
		Version:        GetVersion(),
	}

	if parser.Active != nil {
		cfg.Command = parser.Active.Name
	}

	loc, err := applyTimezone(cfg.Timezone)
	if err != nil {
		slog.Warn("Invalid timezone, using UTC", "timezone", cfg.Timezone, "error", err)
		loc = time.UTC
	}
	cfg.Location = loc

	return cfg, nil
}

func applyTimezone(timezone string) (*time.Location, error) {
	if timezone == "" {
		return time.UTC, nil
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	time.Local = loc
	return loc, nil
}
