package extract

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
)

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func bogota(t *testing.T) *DateFinder {
	t.Helper()
	loc, err := time.LoadLocation("America/Bogota")
	if err != nil {
		t.Fatal(err)
	}
	d := NewDateFinder(loc)
	d.now = func() time.Time { return time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC) }
	return d
}

func TestDateFromMeta(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{"published time", `<meta property="article:published_time" content="2024-01-05T10:00:00Z">`, "2024-01-05T10:00:00Z"},
		{"itemprop naive", `<meta itemprop="datePublished" content="2024-01-05 10:00:00">`, "2024-01-05T15:00:00Z"},
		{"time datetime", `<time datetime="2024-01-05">5 ene</time>`, "2024-01-05T05:00:00Z"},
		{"time text", `<time>5 de enero de 2024</time>`, "2024-01-05T05:00:00Z"},
		{"meta order", `<meta name="date" content="2024-01-03"><meta property="article:published_time" content="2024-01-04T00:00:00Z">`, "2024-01-04T00:00:00Z"},
		{"unparseable skipped", `<meta property="article:published_time" content="ayer"><meta name="date" content="2024-01-02T12:00:00Z">`, "2024-01-02T12:00:00Z"},
	}

	d := bogota(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseHTML(t, "<html><head>"+tt.html+"</head><body>"+tt.html+"</body></html>")
			if got := d.FromPage(doc, "https://site.com/nota"); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestDateFromLDJSON(t *testing.T) {
	html := `<html><head>
		<script type="application/ld+json">not json</script>
		<script type="application/ld+json">
		{"@context":"https://schema.org","@graph":[
			{"@type":"WebSite","name":"Site"},
			{"@type":"NewsArticle","dateModified":"2024-01-07T00:00:00Z","datePublished":"2024-01-06T08:30:00-05:00"}
		]}
		</script>
	</head><body></body></html>`

	if got := bogota(t).FromPage(parseHTML(t, html), "https://site.com/nota"); got != "2024-01-06T13:30:00Z" {
		t.Errorf("Expected datePublished from @graph, got %q", got)
	}
}

func TestDateFromURL(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"https://site.com/2024/01/05/nota", "2024-01-05T05:00:00Z"},
		{"https://site.com/noticias/05/01/2024/nota", "2024-01-05T05:00:00Z"},
		{"https://site.com/nota-2024.01.05.html", "2024-01-05T05:00:00Z"},
		{"https://site.com/2024/13/45/nota", ""},
		{"https://site.com/nota", ""},
	}

	d := bogota(t)
	for _, tt := range tests {
		if got := d.FromURL(tt.url); got != tt.expected {
			t.Errorf("FromURL(%q): expected %q, got %q", tt.url, tt.expected, got)
		}
	}
}

func TestDateFromHeaders(t *testing.T) {
	provider := &fakeProvider{pages: map[string]page{
		"https://site.com/nota": {header: http.Header{"Last-Modified": []string{"Fri, 05 Jan 2024 10:00:00 GMT"}}},
	}}

	if got := bogota(t).FromHeaders(context.Background(), provider, "https://site.com/nota"); got != "2024-01-05T10:00:00Z" {
		t.Errorf("Expected Last-Modified date, got %q", got)
	}
	if got := bogota(t).FromHeaders(context.Background(), provider, "https://site.com/otra"); got != "" {
		t.Errorf("Expected empty date without headers, got %q", got)
	}
}

func TestDateParseRejectsImplausible(t *testing.T) {
	d := bogota(t)
	for _, value := range []string{"", "1970-01-01", "2030-01-01", "sin fecha"} {
		if _, ok := d.Parse(value); ok {
			t.Errorf("Expected %q to be rejected", value)
		}
	}
}
