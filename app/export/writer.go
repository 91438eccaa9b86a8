package export

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lysyi3m/factcomb/app/dataset"
)

type Paths struct {
	CSV      string
	ExcelCSV string
	JSONL    string
	Parquet  string
	Master   string
}

type Writer struct {
	outDir string
}

func NewWriter(outDir string) *Writer {
	return &Writer{outDir: outDir}
}

func (w *Writer) PathsFor(date string) Paths {
	return Paths{
		CSV:      filepath.Join(w.outDir, fmt.Sprintf("dataset_%s.csv", date)),
		ExcelCSV: filepath.Join(w.outDir, fmt.Sprintf("dataset_%s_excel.csv", date)),
		JSONL:    filepath.Join(w.outDir, "jsonl", fmt.Sprintf("dataset_%s.jsonl", date)),
		Parquet:  filepath.Join(w.outDir, "parquet", fmt.Sprintf("dataset_%s.parquet", date)),
		Master:   filepath.Join(w.outDir, "master.csv"),
	}
}

// Write persists a run's records in every format and merges them into the
// master. Only a failure of the primary CSV is returned; every other format
// failure is logged and the remaining formats are still written.
func (w *Writer) Write(date string, records []dataset.Record) (Paths, error) {
	paths := w.PathsFor(date)

	for _, dir := range []string{w.outDir, filepath.Dir(paths.JSONL), filepath.Dir(paths.Parquet)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return paths, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if err := WriteCSV(paths.CSV, records); err != nil {
		return paths, fmt.Errorf("failed to write dataset CSV: %w", err)
	}

	if err := WriteExcelCSV(paths.ExcelCSV, records); err != nil {
		slog.Warn("Failed to write Excel CSV", "path", paths.ExcelCSV, "error", err)
	}

	if err := AppendJSONL(paths.JSONL, records); err != nil {
		slog.Warn("Failed to write JSONL", "path", paths.JSONL, "error", err)
	}

	if err := WriteParquet(paths.Parquet, records); err != nil {
		slog.Warn("Failed to write Parquet", "path", paths.Parquet, "error", err)
	}

	if _, err := MergeMaster(paths.Master, records); err != nil {
		slog.Warn("Failed to merge master", "path", paths.Master, "error", err)
	}

	return paths, nil
}
