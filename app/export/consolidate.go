package export

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/lysyi3m/factcomb/app/dataset"
	"github.com/lysyi3m/factcomb/app/text"
)

const minCleanTitleLength = 25

var boilerplateTitles = []*regexp.Regexp{
	regexp.MustCompile(`^Maldito Bulo/Maldita\.es`),
	regexp.MustCompile(`^Maldita\.es`),
	regexp.MustCompile(`^Newtral`),
}

// DatasetFiles lists the daily dataset CSVs in dir, oldest first. Excel
// variants are not included.
func DatasetFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "dataset_*.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to find dataset files: %w", err)
	}

	daily := files[:0]
	for _, f := range files {
		if !strings.HasSuffix(f, "_excel.csv") {
			daily = append(daily, f)
		}
	}
	sort.Strings(daily)
	return daily, nil
}

// Consolidate merges every daily dataset in dir into out. With clean set,
// fields are sanitized and titles that are outlet boilerplate or too short
// are dropped. The merged set is deduplicated like the master.
func Consolidate(dir, out string, clean bool) (int, error) {
	files, err := DatasetFiles(dir)
	if err != nil {
		return 0, err
	}

	var all []dataset.Record
	for _, f := range files {
		if filepath.Clean(f) == filepath.Clean(out) {
			continue
		}
		records, err := ReadCSV(f)
		if err != nil {
			slog.Warn("Skipping unreadable dataset", "path", f, "error", err)
			continue
		}
		all = append(all, records...)
	}

	if clean {
		all = Clean(all)
	}

	merged := dataset.Merge(all)
	if err := replaceCSV(out, merged); err != nil {
		return 0, err
	}

	slog.Info("Datasets consolidated", "files", len(files), "rows", len(all), "kept", len(merged), "path", out)
	return len(merged), nil
}

func Clean(records []dataset.Record) []dataset.Record {
	cleaned := make([]dataset.Record, 0, len(records))
	for _, r := range records {
		r.Title = text.NormalizeSpace(text.Sanitize(r.Title))
		r.Body = text.Sanitize(r.Body)
		r.Source = text.NormalizeSpace(r.Source)

		if utf8.RuneCountInString(r.Title) < minCleanTitleLength || isBoilerplate(r.Title) {
			continue
		}
		cleaned = append(cleaned, r)
	}
	return cleaned
}

func isBoilerplate(title string) bool {
	for _, re := range boilerplateTitles {
		if re.MatchString(title) {
			return true
		}
	}
	return false
}
