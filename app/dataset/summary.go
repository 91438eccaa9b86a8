package dataset

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/lysyi3m/factcomb/app/verdict"
)

// Summary holds the run-level counts printed at the end of every run, even
// when a stage produced nothing.
type Summary struct {
	RunID            string
	Date             string
	Candidates       int
	PreFilter        int
	PostFilter       int
	Balanced         int
	PerClass         map[verdict.Label]int
	BalancedPerClass map[verdict.Label]int
	DatedPct         float64
	ArchivedBytes    int64
	Duration         time.Duration
}

func NewSummary(runID, date string, candidates int, snapshot Snapshot, balanced []Record) Summary {
	s := Summary{
		RunID:            runID,
		Date:             date,
		Candidates:       candidates,
		PreFilter:        snapshot.Stats.Input,
		PostFilter:       len(snapshot.Records),
		Balanced:         len(balanced),
		PerClass:         CountByLabel(snapshot.Records),
		BalancedPerClass: CountByLabel(balanced),
	}

	dated := 0
	for _, r := range balanced {
		if r.HasDate() {
			dated++
		}
	}
	if len(balanced) > 0 {
		s.DatedPct = 100 * float64(dated) / float64(len(balanced))
	}

	return s
}

func CountByLabel(records []Record) map[verdict.Label]int {
	counts := make(map[verdict.Label]int)
	for _, r := range records {
		counts[r.Label]++
	}
	return counts
}

type summaryRow struct {
	name  string
	value string
}

func (s Summary) rows() []summaryRow {
	rows := []summaryRow{
		{"Run", s.RunID},
		{"Date", s.Date},
		{"Candidates", humanize.Comma(int64(s.Candidates))},
		{"Rows before filters", humanize.Comma(int64(s.PreFilter))},
		{"Rows after filters", humanize.Comma(int64(s.PostFilter))},
	}

	for _, l := range verdict.Labels {
		rows = append(rows, summaryRow{
			name:  "  " + string(l),
			value: fmt.Sprintf("%d -> %d", s.PerClass[l], s.BalancedPerClass[l]),
		})
	}

	rows = append(rows,
		summaryRow{"Balanced rows", humanize.Comma(int64(s.Balanced))},
		summaryRow{"With known date", fmt.Sprintf("%.1f%%", s.DatedPct)},
	)

	if s.ArchivedBytes > 0 {
		rows = append(rows, summaryRow{"Archived HTML", humanize.Bytes(uint64(s.ArchivedBytes))})
	}
	if s.Duration > 0 {
		rows = append(rows, summaryRow{"Duration", s.Duration.Round(time.Second).String()})
	}

	return rows
}

// Render writes an aligned two-column table.
func (s Summary) Render(w io.Writer) error {
	rows := s.rows()

	width := 0
	for _, r := range rows {
		width = max(width, runewidth.StringWidth(r.name))
	}

	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%s  %s\n", runewidth.FillRight(r.name, width), r.value); err != nil {
			return err
		}
	}
	return nil
}
