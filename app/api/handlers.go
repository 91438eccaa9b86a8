package api

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/factcomb/app/database"
	"github.com/lysyi3m/factcomb/app/export"
	"github.com/lysyi3m/factcomb/app/source"
)

const (
	defaultRunsLimit    = 20
	defaultFetchesLimit = 500
)

func NewHandler(registry *source.Registry, runs database.RunRepository,
	fetches database.FetchRepository, outDir string) *Handler {
	return &Handler{
		registry: registry,
		runs:     runs,
		fetches:  fetches,
		outDir:   outDir,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if runs, err := h.runs.GetRuns(1); err == nil && len(runs) > 0 {
		health["last_run"] = runs[0].ID
		health["last_run_status"] = runs[0].Status
	}

	health["loaded_sources"] = h.registry.Count()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) ListSources(c *gin.Context) {
	all := h.registry.All()

	sources := make([]SourceInfo, 0, len(all))
	for _, src := range all {
		sources = append(sources, sourceInfo(src))
	}

	c.JSON(http.StatusOK, gin.H{
		"sources": sources,
		"total":   len(sources),
	})
}

func (h *Handler) GetSource(c *gin.Context) {
	src, err := h.registry.Get(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
		return
	}

	c.JSON(http.StatusOK, sourceInfo(src))
}

func sourceInfo(src source.Source) SourceInfo {
	settings := src.Settings()
	return SourceInfo{
		Name:         src.Name(),
		Mode:         string(src.Mode()),
		Enabled:      settings.Enabled,
		FixedLabel:   string(settings.FixedLabel),
		Hint:         settings.Hint,
		MaxItems:     settings.MaxItems,
		LookbackDays: settings.LookbackDays,
	}
}

func (h *Handler) ListRuns(c *gin.Context) {
	limit := queryLimit(c, defaultRunsLimit)

	runs, err := h.runs.GetRuns(limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_runs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if runs == nil {
		runs = []database.Run{}
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":  runs,
		"total": len(runs),
	})
}

func (h *Handler) GetRun(c *gin.Context) {
	id := c.Param("id")

	run, err := h.runs.GetRun(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_run", "run_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}

	details := gin.H{"run": run}
	if counts, err := h.fetches.CountByStatus(id); err == nil {
		details["fetches"] = counts
	}

	c.JSON(http.StatusOK, details)
}

func (h *Handler) ListRunFetches(c *gin.Context) {
	id := c.Param("id")

	run, err := h.runs.GetRun(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_run", "run_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}

	fetches, err := h.fetches.GetFetches(id, queryLimit(c, defaultFetchesLimit))
	if err != nil {
		slog.Error("Database error", "operation", "get_fetches", "run_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if fetches == nil {
		fetches = []database.Fetch{}
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":  id,
		"fetches": fetches,
		"total":   len(fetches),
	})
}

func (h *Handler) ListDatasets(c *gin.Context) {
	files, err := export.DatasetFiles(h.outDir)
	if err != nil {
		slog.Error("Failed to list datasets", "dir", h.outDir, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list datasets"})
		return
	}

	datasets := make([]DatasetInfo, 0, len(files))
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		name := filepath.Base(f)
		datasets = append(datasets, DatasetInfo{
			Date:     strings.TrimSuffix(strings.TrimPrefix(name, "dataset_"), ".csv"),
			File:     name,
			Size:     info.Size(),
			SizeText: humanize.Bytes(uint64(info.Size())),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"datasets": datasets,
		"total":    len(datasets),
	})
}

func (h *Handler) GetDataset(c *gin.Context) {
	date := c.Param("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Date must be YYYY-MM-DD"})
		return
	}

	path := export.NewWriter(h.outDir).PathsFor(date).CSV
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Dataset not found"})
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.FileAttachment(path, filepath.Base(path))
}

func queryLimit(c *gin.Context, fallback int) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}
