package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/lysyi3m/factcomb/app/dataset"
	"github.com/lysyi3m/factcomb/app/text"
	"github.com/lysyi3m/factcomb/app/verdict"
)

const utf8BOM = "\xEF\xBB\xBF"

var Columns = []string{
	"source",
	"published_at",
	"title",
	"body",
	"label",
	"url",
	"canonical_url",
	"fingerprint",
	"html_path",
	"crawled_at",
}

// Header names used by older dataset files.
var legacyColumns = map[string]string{
	"fuente":        "source",
	"fecha":         "published_at",
	"titulo":        "title",
	"texto":         "body",
	"estado":        "label",
	"url_canonica":  "canonical_url",
	"hash":          "fingerprint",
	"html_raw_path": "html_path",
	"fecha_crawl":   "crawled_at",
}

func row(r dataset.Record) []string {
	return []string{
		r.Source,
		r.PublishedAt,
		r.Title,
		r.Body,
		string(r.Label),
		r.URL,
		r.CanonicalURL,
		r.Fingerprint,
		r.HTMLPath,
		r.CrawledAt,
	}
}

func WriteCSV(path string, records []dataset.Record) error {
	return writeFile(path, func(w io.Writer) error {
		return encodeCSV(w, records, ',', nil)
	})
}

// WriteExcelCSV writes the spreadsheet-friendly variant: semicolon separated,
// UTF-8 with BOM, no line breaks or tabs inside cells.
func WriteExcelCSV(path string, records []dataset.Record) error {
	return writeFile(path, func(w io.Writer) error {
		if _, err := io.WriteString(w, utf8BOM); err != nil {
			return err
		}
		return encodeCSV(w, records, ';', text.Spreadsheet)
	})
}

func encodeCSV(w io.Writer, records []dataset.Record, comma rune, clean func(string) string) error {
	cw := csv.NewWriter(w)
	cw.Comma = comma

	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, r := range records {
		fields := row(r)
		if clean != nil {
			for i := range fields {
				fields[i] = clean(fields[i])
			}
		}
		if err := cw.Write(fields); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return f.Close()
}

// ReadCSV loads a dataset file. Columns are matched by header name, older
// Spanish headers included, so files from earlier layouts still merge.
func ReadCSV(path string) ([]dataset.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	if peek, err := br.Peek(len(utf8BOM)); err == nil && string(peek) == utf8BOM {
		br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		if alias, ok := legacyColumns[name]; ok {
			name = alias
		}
		index[name] = i
	}

	var records []dataset.Record
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		get := func(column string) string {
			i, ok := index[column]
			if !ok || i >= len(fields) {
				return ""
			}
			return fields[i]
		}

		label, err := verdict.ParseLabel(get("label"))
		if err != nil {
			label = verdict.Normalize(get("label"))
		}

		records = append(records, dataset.Record{
			Source:       get("source"),
			PublishedAt:  normalizeTimestamp(get("published_at")),
			Title:        get("title"),
			Body:         get("body"),
			Label:        label,
			URL:          get("url"),
			CanonicalURL: get("canonical_url"),
			Fingerprint:  get("fingerprint"),
			HTMLPath:     get("html_path"),
			CrawledAt:    get("crawled_at"),
		})
	}

	return records, nil
}

// normalizeTimestamp rewrites a stored date as RFC 3339 UTC so dates sort as
// strings. Naive values are read in the local zone; unparseable ones are kept.
func normalizeTimestamp(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	t, err := dateparse.ParseLocal(raw)
	if err != nil {
		return raw
	}
	return t.UTC().Format(time.RFC3339)
}
