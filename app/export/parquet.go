package export

import (
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/lysyi3m/factcomb/app/dataset"
)

type parquetRow struct {
	Source       string `parquet:"source"`
	PublishedAt  string `parquet:"published_at"`
	Title        string `parquet:"title"`
	Body         string `parquet:"body"`
	Label        string `parquet:"label"`
	LabelRaw     string `parquet:"label_raw"`
	URL          string `parquet:"url"`
	CanonicalURL string `parquet:"canonical_url"`
	Fingerprint  string `parquet:"fingerprint"`
	HTMLPath     string `parquet:"html_path"`
	CrawledAt    string `parquet:"crawled_at"`
}

func WriteParquet(path string, records []dataset.Record) error {
	rows := make([]parquetRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, parquetRow{
			Source:       r.Source,
			PublishedAt:  r.PublishedAt,
			Title:        r.Title,
			Body:         r.Body,
			Label:        string(r.Label),
			LabelRaw:     r.LabelRaw,
			URL:          r.URL,
			CanonicalURL: r.CanonicalURL,
			Fingerprint:  r.Fingerprint,
			HTMLPath:     r.HTMLPath,
			CrawledAt:    r.CrawledAt,
		})
	}

	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("failed to write parquet %s: %w", path, err)
	}
	return nil
}
