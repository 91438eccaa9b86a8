package cfg

import (
	"time"

	"github.com/lysyi3m/factcomb/app/dataset"
)

const (
	CommandRun         = "run"
	CommandConsolidate = "consolidate"
	CommandServe       = "serve"
)

type Cfg struct {
	Command string

	// Shared configuration
	OutDir     string
	SourcesDir string
	Ledger     string
	Timezone   string
	Location   *time.Location
	Debug      bool

	// Run configuration
	Pages         int
	MaxPerSource  int
	TargetTotal   int
	Ratios        dataset.Ratios
	MinTitle      int
	MinBody       int
	RequireDate   bool
	LookbackDays  int
	Concurrency   int
	BatchSize     int
	Retries       int
	Timeout       time.Duration
	HostInterval  time.Duration
	Seed          int64
	Shuffle       bool
	UserAgent     string
	RespectRobots bool

	// Consolidate configuration
	ConsolidateOut string
	Clean          bool

	// Serve configuration
	Port         string
	APIAccessKey string

	Version string
}
