package export

import (
	"bufio"
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/lysyi3m/factcomb/app/dataset"
)

// AppendJSONL appends one JSON object per record. Non-ASCII text is written as is.
func AppendJSONL(path string, records []dataset.Record) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}

	bw := bufio.NewWriter(f)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)

	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			f.Close()
			return fmt.Errorf("failed to encode record %s: %w", r.URL, err)
		}
	}

	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return f.Close()
}
