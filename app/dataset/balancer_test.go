package dataset

import (
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/lysyi3m/factcomb/app/verdict"
)

func pool(counts map[verdict.Label]int) []Record {
	var records []Record
	for _, l := range verdict.Labels {
		for i := 0; i < counts[l]; i++ {
			records = append(records, Record{
				URL:   fmt.Sprintf("https://site.com/%s/%d", l, i),
				Title: fmt.Sprintf("%s %d", l, i),
				Label: l,
			})
		}
	}
	return records
}

func TestParseRatios(t *testing.T) {
	ratios, err := ParseRatios("falso=0.4, true=0.4,doubtful=0.2")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ratios, DefaultRatios) {
		t.Errorf("Expected %v, got %v", DefaultRatios, ratios)
	}

	for _, bad := range []string{"", "false", "false=x", "maybe=0.5", "false=-1"} {
		if _, err := ParseRatios(bad); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}

func TestDesiredCountsRounding(t *testing.T) {
	tests := []struct {
		ratios Ratios
		total  int
	}{
		{DefaultRatios, 10},
		{DefaultRatios, 7},
		{Ratios{verdict.False: 1, verdict.True: 1, verdict.Doubtful: 1}, 10},
		{Ratios{verdict.False: 1, verdict.True: 1, verdict.Doubtful: 1}, 11},
		{Ratios{verdict.False: 0.5, verdict.True: 0.5}, 3},
	}

	for _, tt := range tests {
		desired := DesiredCounts(tt.ratios, tt.total)
		sum := 0
		for _, c := range tt.ratios.Classes() {
			sum += desired[c]
			exact := float64(tt.total) * tt.ratios.Normalized()[c]
			if math.Abs(float64(desired[c])-exact) > 1 {
				t.Errorf("Class %s: desired %d too far from %f", c, desired[c], exact)
			}
		}
		if sum != tt.total {
			t.Errorf("Ratios %v total %d: expected sum %d, got %d (%v)", tt.ratios, tt.total, tt.total, sum, desired)
		}
	}
}

func TestQuotasRedistributeDeficit(t *testing.T) {
	supply := map[verdict.Label]int{verdict.False: 3, verdict.True: 20, verdict.Doubtful: 20}
	quotas := Quotas(DefaultRatios, 10, supply)

	if quotas[verdict.False] != 3 {
		t.Errorf("Expected false capped at 3, got %d", quotas[verdict.False])
	}
	if quotas[verdict.True]+quotas[verdict.Doubtful] != 7 {
		t.Errorf("Expected 7 redistributed to true/doubtful, got %v", quotas)
	}
	if quotas[verdict.True] < 4 || quotas[verdict.Doubtful] < 2 {
		t.Errorf("Expected original quotas preserved before redistribution, got %v", quotas)
	}
}

func TestQuotasLaw(t *testing.T) {
	supplies := []map[verdict.Label]int{
		{verdict.False: 3, verdict.True: 20, verdict.Doubtful: 20},
		{verdict.False: 0, verdict.True: 5, verdict.Doubtful: 1},
		{verdict.False: 100, verdict.True: 100, verdict.Doubtful: 100},
		{verdict.False: 2, verdict.True: 2, verdict.Doubtful: 2},
	}

	for _, supply := range supplies {
		available := supply[verdict.False] + supply[verdict.True] + supply[verdict.Doubtful]
		for _, total := range []int{0, 1, 5, 10, 50, 300} {
			quotas := Quotas(DefaultRatios, total, supply)
			desired := DesiredCounts(DefaultRatios, total)

			sum := 0
			for _, c := range verdict.Labels {
				if quotas[c] > supply[c] {
					t.Errorf("Class %s over supply: %d > %d", c, quotas[c], supply[c])
				}
				if quotas[c] < min(desired[c], supply[c]) {
					t.Errorf("Class %s below clipped desire: %d < %d", c, quotas[c], min(desired[c], supply[c]))
				}
				sum += quotas[c]
			}
			if sum != min(total, available) {
				t.Errorf("Supply %v total %d: expected sum %d, got %d", supply, total, min(total, available), sum)
			}
		}
	}
}

func TestBalancerScenario(t *testing.T) {
	records := pool(map[verdict.Label]int{verdict.False: 3, verdict.True: 20, verdict.Doubtful: 20})
	out := NewBalancer(DefaultRatios, 42).Run(records, 10)

	if len(out) != 10 {
		t.Fatalf("Expected 10 records, got %d", len(out))
	}

	counts := CountByLabel(out)
	if counts[verdict.False] != 3 {
		t.Errorf("Expected 3 false records, got %d", counts[verdict.False])
	}

	for i, r := range out {
		if i < 3 && r.Label != verdict.False {
			t.Errorf("Expected false bucket first, got %s at %d", r.Label, i)
		}
	}
}

func TestBalancerDeterministic(t *testing.T) {
	records := pool(map[verdict.Label]int{verdict.False: 50, verdict.True: 50, verdict.Doubtful: 50})

	a := NewBalancer(DefaultRatios, 42).Run(records, 20)
	b := NewBalancer(DefaultRatios, 42).Run(records, 20)
	if !reflect.DeepEqual(a, b) {
		t.Error("Expected identical samples for identical seeds")
	}

	c := NewBalancer(DefaultRatios, 7).Run(records, 20)
	if reflect.DeepEqual(a, c) {
		t.Error("Expected different samples for different seeds")
	}

	seen := make(map[string]bool)
	for _, r := range a {
		if seen[r.URL] {
			t.Errorf("Record %s sampled twice", r.URL)
		}
		seen[r.URL] = true
	}
}

func TestBalancerEmptyClass(t *testing.T) {
	records := pool(map[verdict.Label]int{verdict.True: 4})
	out := NewBalancer(DefaultRatios, 42).Run(records, 10)

	if len(out) != 4 {
		t.Errorf("Expected all 4 available records, got %d", len(out))
	}
	if NewBalancer(DefaultRatios, 42).Run(nil, 10) != nil {
		t.Error("Expected nil for empty pool")
	}
}

func TestShuffle(t *testing.T) {
	records := pool(map[verdict.Label]int{verdict.False: 10})

	a := Shuffle(records, 42)
	b := Shuffle(records, 42)
	if !reflect.DeepEqual(a, b) {
		t.Error("Expected deterministic shuffle")
	}
	if len(a) != len(records) {
		t.Errorf("Expected %d records, got %d", len(records), len(a))
	}
	if records[0].URL != "https://site.com/false/0" {
		t.Error("Expected input slice to be left untouched")
	}
}
