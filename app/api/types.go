package api

import (
	"github.com/lysyi3m/factcomb/app/database"
	"github.com/lysyi3m/factcomb/app/source"
)

type Handler struct {
	registry *source.Registry
	runs     database.RunRepository
	fetches  database.FetchRepository
	outDir   string
}

type DatasetInfo struct {
	Date     string `json:"date"`
	File     string `json:"file"`
	Size     int64  `json:"size"`
	SizeText string `json:"size_text"`
}

type SourceInfo struct {
	Name         string `json:"name"`
	Mode         string `json:"mode"`
	Enabled      bool   `json:"enabled"`
	FixedLabel   string `json:"fixed_label,omitempty"`
	Hint         string `json:"extraction_hint,omitempty"`
	MaxItems     int    `json:"max_items"`
	LookbackDays int    `json:"lookback_days"`
}
