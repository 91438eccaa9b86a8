package extract

import (
	"context"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/goccy/go-json"

	"github.com/lysyi3m/factcomb/app/fetch"
)

var dateMetas = []struct {
	selector string
	attr     string
}{
	{`meta[property="article:published_time"]`, "content"},
	{`meta[itemprop="datePublished"]`, "content"},
	{`meta[name="date"]`, "content"},
	{`meta[name="publishdate"]`, "content"},
	{`time[datetime]`, "datetime"},
}

var ldDateKeys = []string{"datePublished", "dateCreated", "dateModified"}

var urlDatePatterns = []struct {
	re               *regexp.Regexp
	year, month, day int
}{
	{regexp.MustCompile(`/(\d{4})/(\d{1,2})/(\d{1,2})(?:/|$)`), 1, 2, 3},
	{regexp.MustCompile(`/(\d{1,2})/(\d{1,2})/(\d{4})(?:/|$)`), 3, 2, 1},
	{regexp.MustCompile(`(\d{4})\.(\d{1,2})\.(\d{1,2})`), 1, 2, 3},
}

var spanishMonths = map[string]time.Month{
	"enero": time.January, "febrero": time.February, "marzo": time.March,
	"abril": time.April, "mayo": time.May, "junio": time.June,
	"julio": time.July, "agosto": time.August, "septiembre": time.September,
	"setiembre": time.September, "octubre": time.October,
	"noviembre": time.November, "diciembre": time.December,
}

var spanishDate = regexp.MustCompile(`(?i)(\d{1,2})\s+de\s+(enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|setiembre|octubre|noviembre|diciembre)(?:\s+de|,)?\s+(\d{4})`)

// DateFinder resolves publish dates. Naive timestamps are read in location
// and every result is returned as RFC 3339 UTC.
type DateFinder struct {
	location *time.Location
	now      func() time.Time
}

func NewDateFinder(location *time.Location) *DateFinder {
	if location == nil {
		location = time.UTC
	}
	return &DateFinder{location: location, now: time.Now}
}

// FromPage walks the meta and time tags, the text of time elements, ld+json
// blocks and finally the URL path.
func (d *DateFinder) FromPage(doc *goquery.Document, pageURL string) string {
	for _, m := range dateMetas {
		value, ok := doc.Find(m.selector).First().Attr(m.attr)
		if !ok {
			continue
		}
		if t, ok := d.Parse(value); ok {
			return format(t)
		}
	}

	var found string
	doc.Find("time").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if t, ok := d.Parse(s.Text()); ok {
			found = format(t)
			return false
		}
		return true
	})
	if found != "" {
		return found
	}

	if value := d.fromLDJSON(doc); value != "" {
		return value
	}

	return d.FromURL(pageURL)
}

func (d *DateFinder) fromLDJSON(doc *goquery.Document) string {
	var found string
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data any
		if err := json.Unmarshal([]byte(strings.TrimSpace(s.Text())), &data); err != nil {
			return true
		}
		if raw := findLDDate(data); raw != "" {
			if t, ok := d.Parse(raw); ok {
				found = format(t)
				return false
			}
		}
		return true
	})
	return found
}

func findLDDate(v any) string {
	switch node := v.(type) {
	case []any:
		for _, item := range node {
			if s := findLDDate(item); s != "" {
				return s
			}
		}
	case map[string]any:
		for _, key := range ldDateKeys {
			if s, ok := node[key].(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
		if graph, ok := node["@graph"]; ok {
			return findLDDate(graph)
		}
	}
	return ""
}

// FromURL reads YYYY/MM/DD, DD/MM/YYYY or YYYY.MM.DD from the URL as a local date.
func (d *DateFinder) FromURL(pageURL string) string {
	for _, p := range urlDatePatterns {
		m := p.re.FindStringSubmatch(pageURL)
		if m == nil {
			continue
		}
		year, _ := strconv.Atoi(m[p.year])
		month, _ := strconv.Atoi(m[p.month])
		day, _ := strconv.Atoi(m[p.day])

		t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, d.location)
		if t.Year() != year || int(t.Month()) != month || t.Day() != day || !d.plausible(t) {
			continue
		}
		return format(t)
	}
	return ""
}

// FromHeaders asks the server for Last-Modified or Date.
func (d *DateFinder) FromHeaders(ctx context.Context, fetcher fetch.Fetcher, pageURL string) string {
	header, err := fetcher.Head(ctx, pageURL)
	if err != nil {
		return ""
	}
	for _, key := range []string{"Last-Modified", "Date"} {
		if value := header.Get(key); value != "" {
			if t, err := http.ParseTime(value); err == nil && d.plausible(t) {
				return format(t)
			}
		}
	}
	return ""
}

// Parse accepts anything dateparse understands plus Spanish long dates such
// as "5 de enero de 2024".
func (d *DateFinder) Parse(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	if t, err := dateparse.ParseIn(value, d.location); err == nil && d.plausible(t) {
		return t, true
	}

	if m := spanishDate.FindStringSubmatch(value); m != nil {
		day, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[3])
		t := time.Date(year, spanishMonths[strings.ToLower(m[2])], day, 0, 0, 0, 0, d.location)
		if t.Day() == day && d.plausible(t) {
			return t, true
		}
	}

	return time.Time{}, false
}

func (d *DateFinder) plausible(t time.Time) bool {
	return t.Year() >= 1990 && t.Before(d.now().Add(48*time.Hour))
}

func format(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
