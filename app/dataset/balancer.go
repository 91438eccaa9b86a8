package dataset

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"github.com/lysyi3m/factcomb/app/verdict"
)

type Ratios map[verdict.Label]float64

var DefaultRatios = Ratios{
	verdict.False:    0.4,
	verdict.True:     0.4,
	verdict.Doubtful: 0.2,
}

// ParseRatios reads "false=0.4,true=0.4,doubtful=0.2". Spanish label names
// are accepted.
func ParseRatios(s string) (Ratios, error) {
	ratios := make(Ratios)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("invalid ratio %q: expected label=value", part)
		}
		label, err := verdict.ParseLabel(name)
		if err != nil {
			return nil, fmt.Errorf("invalid ratio %q: %w", part, err)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("invalid ratio value %q", value)
		}
		ratios[label] = v
	}
	if len(ratios) == 0 {
		return nil, fmt.Errorf("no ratios given")
	}
	return ratios, nil
}

// Classes returns the ratio labels in precedence order, unknown labels last.
func (r Ratios) Classes() []verdict.Label {
	var classes []verdict.Label
	for _, l := range verdict.Labels {
		if _, ok := r[l]; ok {
			classes = append(classes, l)
		}
	}
	var extra []verdict.Label
	for l := range r {
		known := false
		for _, k := range verdict.Labels {
			if l == k {
				known = true
				break
			}
		}
		if !known {
			extra = append(extra, l)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(classes, extra...)
}

// Normalized scales the ratios to sum to 1. Zero or negative totals become
// an even split.
func (r Ratios) Normalized() Ratios {
	total := 0.0
	for _, v := range r {
		total += v
	}

	out := make(Ratios, len(r))
	for l, v := range r {
		if total <= 0 {
			out[l] = 1 / float64(len(r))
			continue
		}
		out[l] = v / total
	}
	return out
}

// DesiredCounts rounds total*ratio per class and fixes rounding drift one
// unit at a time: largest remainder first for a shortfall, smallest first
// for an excess.
func DesiredCounts(ratios Ratios, total int) map[verdict.Label]int {
	classes := ratios.Classes()
	norm := ratios.Normalized()

	desired := make(map[verdict.Label]int, len(classes))
	remainder := make(map[verdict.Label]float64, len(classes))
	sum := 0
	for _, c := range classes {
		exact := float64(total) * norm[c]
		desired[c] = int(math.Round(exact))
		remainder[c] = exact - float64(desired[c])
		sum += desired[c]
	}

	diff := total - sum
	if diff == 0 || len(classes) == 0 {
		return desired
	}

	order := append([]verdict.Label{}, classes...)
	sort.SliceStable(order, func(i, j int) bool {
		if diff > 0 {
			return remainder[order[i]] > remainder[order[j]]
		}
		return remainder[order[i]] < remainder[order[j]]
	})

	for i := 0; diff != 0; i = (i + 1) % len(order) {
		c := order[i]
		if diff > 0 {
			desired[c]++
			diff--
		} else if desired[c] > 0 {
			desired[c]--
			diff++
		}
	}

	return desired
}

// Quotas clips the desired counts to supply and hands any deficit to the
// classes with the most unused supply, one unit per visit.
func Quotas(ratios Ratios, total int, supply map[verdict.Label]int) map[verdict.Label]int {
	desired := DesiredCounts(ratios, total)
	classes := ratios.Classes()

	take := make(map[verdict.Label]int, len(classes))
	remaining := make(map[verdict.Label]int, len(classes))
	deficit := total
	for _, c := range classes {
		take[c] = min(desired[c], supply[c])
		remaining[c] = supply[c] - take[c]
		deficit -= take[c]
	}

	if deficit <= 0 {
		return take
	}

	order := append([]verdict.Label{}, classes...)
	sort.SliceStable(order, func(i, j int) bool {
		return remaining[order[i]] > remaining[order[j]]
	})

	for j := 0; deficit > 0 && hasSupply(remaining); j++ {
		c := order[j%len(order)]
		if remaining[c] > 0 {
			take[c]++
			remaining[c]--
			deficit--
		}
	}

	return take
}

func hasSupply(remaining map[verdict.Label]int) bool {
	for _, n := range remaining {
		if n > 0 {
			return true
		}
	}
	return false
}

type Balancer struct {
	ratios Ratios
	seed   int64
}

func NewBalancer(ratios Ratios, seed int64) *Balancer {
	return &Balancer{ratios: ratios, seed: seed}
}

// Run selects at most total records approximating the ratios. The output is
// the false, true and doubtful buckets concatenated; within a bucket records
// keep their pool order. Sampling depends only on the pool and the seed.
func (b *Balancer) Run(pool []Record, total int) []Record {
	if total <= 0 || len(pool) == 0 {
		return nil
	}

	buckets := make(map[verdict.Label][]Record)
	for _, r := range pool {
		buckets[r.Label] = append(buckets[r.Label], r)
	}

	supply := make(map[verdict.Label]int, len(buckets))
	for l, rs := range buckets {
		supply[l] = len(rs)
	}

	quotas := Quotas(b.ratios, total, supply)

	var out []Record
	for _, c := range b.ratios.Classes() {
		bucket := buckets[c]
		if len(bucket) == 0 {
			slog.Info("Class has no supply", "label", string(c))
			continue
		}
		out = append(out, sample(bucket, quotas[c], b.seed)...)
	}

	return out
}

func sample(bucket []Record, n int, seed int64) []Record {
	if n <= 0 {
		return nil
	}
	if len(bucket) <= n {
		return append([]Record{}, bucket...)
	}

	rng := rand.New(rand.NewSource(seed))
	picked := rng.Perm(len(bucket))[:n]
	sort.Ints(picked)

	out := make([]Record, 0, n)
	for _, i := range picked {
		out = append(out, bucket[i])
	}
	return out
}

// Shuffle returns a shuffled copy using the same seed convention as the balancer.
func Shuffle(records []Record, seed int64) []Record {
	out := append([]Record{}, records...)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
