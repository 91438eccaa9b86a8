package extract

import (
	"context"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/lysyi3m/factcomb/app/dataset"
	"github.com/lysyi3m/factcomb/app/discovery"
	"github.com/lysyi3m/factcomb/app/fetch"
	"github.com/lysyi3m/factcomb/app/verdict"
)

type page struct {
	contentType string
	body        string
	header      http.Header
}

type fakeProvider struct {
	pages map[string]page
	heads int
}

func (f *fakeProvider) For(alternate bool) fetch.Fetcher {
	return f
}

func (f *fakeProvider) Get(ctx context.Context, url string) (*fetch.Response, error) {
	p, ok := f.pages[url]
	if !ok {
		return nil, &fetch.StatusError{Code: http.StatusServiceUnavailable}
	}
	header := http.Header{}
	header.Set("Content-Type", p.contentType)
	return &fetch.Response{URL: url, StatusCode: http.StatusOK, Header: header, Body: []byte(p.body)}, nil
}

func (f *fakeProvider) Head(ctx context.Context, url string) (http.Header, error) {
	f.heads++
	p, ok := f.pages[url]
	if !ok || p.header == nil {
		return http.Header{}, nil
	}
	return p.header, nil
}

var paragraph = strings.Repeat("El video que circula en redes sociales fue editado. ", 3)

const articleURL = "https://site.com/chequeos/falso-video?utm_source=twitter"

func articlePage() string {
	return `<html><head>
		<title>Falso video | Site</title>
		<meta property="og:title" content="OG del chequeo">
		<meta property="article:published_time" content="2024-01-05T10:00:00-05:00">
	</head><body>
		<nav><p>Inicio</p></nav>
		<article>
			<h1>Es falso que el video muestre fraude</h1>
			<div class="calificacion">Falso</div>
			<p>` + paragraph + `</p>
			<p>   </p>
			<p>Segundo párrafo del chequeo.</p>
		</article>
	</body></html>`
}

func newTestExtractor(t *testing.T, provider fetch.Provider) *Extractor {
	t.Helper()
	loc, err := time.LoadLocation("America/Bogota")
	if err != nil {
		t.Fatal(err)
	}
	e := NewExtractor(provider, verdict.NewClassifier(), NewDateFinder(loc), NewArchive(t.TempDir()))
	e.now = func() time.Time { return time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC) }
	return e
}

func TestExtractArticle(t *testing.T) {
	provider := &fakeProvider{pages: map[string]page{
		articleURL: {contentType: "text/html; charset=utf-8", body: articlePage()},
	}}
	e := newTestExtractor(t, provider)

	rec := e.Extract(context.Background(), discovery.Candidate{Source: "site", URL: articleURL})

	if rec.Title != "Es falso que el video muestre fraude" {
		t.Errorf("Expected article heading as title, got %q", rec.Title)
	}
	expectedBody := strings.TrimSpace(paragraph) + "\nSegundo párrafo del chequeo."
	if rec.Body != expectedBody {
		t.Errorf("Expected article paragraphs as body, got %q", rec.Body)
	}
	if rec.PublishedAt != "2024-01-05T15:00:00Z" {
		t.Errorf("Expected UTC publish date, got %q", rec.PublishedAt)
	}
	if rec.Label != verdict.False || rec.LabelOrigin != dataset.LabelOriginPage {
		t.Errorf("Expected page label false, got %q (%s)", rec.Label, rec.LabelOrigin)
	}
	if rec.CanonicalURL != "https://site.com/chequeos/falso-video" {
		t.Errorf("Unexpected canonical URL %q", rec.CanonicalURL)
	}
	if rec.CrawledAt != "2024-01-20T12:00:00Z" {
		t.Errorf("Unexpected crawl timestamp %q", rec.CrawledAt)
	}

	archived, err := os.ReadFile(rec.HTMLPath)
	if err != nil {
		t.Fatalf("Expected archived HTML: %v", err)
	}
	if string(archived) != articlePage() {
		t.Error("Expected archive to hold the raw fetched bytes")
	}
	if e.archive.Bytes() != int64(len(articlePage())) {
		t.Errorf("Expected archive byte count %d, got %d", len(articlePage()), e.archive.Bytes())
	}
}

func TestExtractFixedLabelSkipsClassifier(t *testing.T) {
	provider := &fakeProvider{pages: map[string]page{
		articleURL: {contentType: "text/html", body: articlePage()},
	}}
	e := newTestExtractor(t, provider)

	rec := e.Extract(context.Background(), discovery.Candidate{Source: "bbc", URL: articleURL, FixedLabel: verdict.True})
	if rec.Label != verdict.True || rec.LabelOrigin != dataset.LabelOriginFixed {
		t.Errorf("Expected fixed label true, got %q (%s)", rec.Label, rec.LabelOrigin)
	}
}

func TestExtractTitleFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{"og title", `<html><head><meta property="og:title" content="Título OG"><title>Título página</title></head><body><h1>H1</h1></body></html>`, "Título OG"},
		{"page title", `<html><head><title>Título página</title></head><body><h1>H1</h1></body></html>`, "Título página"},
		{"any heading", `<html><body><h1>Solo H1</h1></body></html>`, "Solo H1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseHTML(t, tt.html)
			if got := title(doc, nil); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestExtractBodyContainerThreshold(t *testing.T) {
	long := strings.Repeat("Contenido relevante de la nota. ", 20)
	html := `<html><body>
		<div class="menu-post"><p>Corto</p></div>
		<div id="main-content"><p>` + long + `</p><p>Fin.</p></div>
	</body></html>`

	got := body(parseHTML(t, html), nil)
	if got != strings.TrimSpace(long)+"\nFin." {
		t.Errorf("Expected best container paragraphs, got %q", got)
	}

	short := `<html><body><div class="content"><p>Muy poco texto</p></div></body></html>`
	if got := body(parseHTML(t, short), nil); got != "" {
		t.Errorf("Expected no body below threshold, got %q", got)
	}
}

func TestExtractBodyHints(t *testing.T) {
	html := `<html><body>
		<div class="entry-content"><p>Texto del hint.</p></div>
		<article><p>Texto del artículo.</p></article>
	</body></html>`

	if got := body(parseHTML(t, html), []string{".entry-content p"}); got != "Texto del hint." {
		t.Errorf("Expected hint selector to win, got %q", got)
	}
}

func TestExtractWithoutDate(t *testing.T) {
	html := `<html><body><article><h1>Un chequeo sin fecha conocida</h1><p>` + paragraph + `</p></article></body></html>`
	provider := &fakeProvider{pages: map[string]page{
		"https://site.com/nota": {contentType: "text/html", body: html},
	}}
	e := newTestExtractor(t, provider)

	rec := e.Extract(context.Background(), discovery.Candidate{Source: "site", URL: "https://site.com/nota"})
	if rec.PublishedAt != "" {
		t.Errorf("Expected empty publish date, got %q", rec.PublishedAt)
	}
	if rec.Title == "" || rec.Body == "" {
		t.Errorf("Expected title and body despite missing date, got %+v", rec)
	}
	if provider.heads != 1 {
		t.Errorf("Expected one HEAD request for the date fallback, got %d", provider.heads)
	}
}

func TestExtractFetchFailure(t *testing.T) {
	e := newTestExtractor(t, &fakeProvider{})

	rec := e.Extract(context.Background(), discovery.Candidate{Source: "site", URL: "https://down.example/a"})
	if rec.Title != "" || rec.Body != "" {
		t.Errorf("Expected empty record, got %+v", rec)
	}
	if rec.URL != "https://down.example/a" {
		t.Errorf("Expected URL to be kept, got %q", rec.URL)
	}
}

func TestExtractFeedHintsFallback(t *testing.T) {
	e := newTestExtractor(t, &fakeProvider{})
	published := time.Date(2024, 1, 18, 10, 0, 0, 0, time.UTC)

	rec := e.Extract(context.Background(), discovery.Candidate{
		Source:      "feed",
		URL:         "https://down.example/a",
		Title:       "Título desde el feed",
		Summary:     "Resumen desde el feed",
		PublishedAt: &published,
		LabelHint:   "Engañoso",
	})

	if rec.Title != "Título desde el feed" || rec.Body != "Resumen desde el feed" {
		t.Errorf("Expected feed hints, got %+v", rec)
	}
	if rec.PublishedAt != "2024-01-18T10:00:00Z" {
		t.Errorf("Unexpected date %q", rec.PublishedAt)
	}
	if rec.Label != verdict.Doubtful || rec.LabelOrigin != dataset.LabelOriginFeed {
		t.Errorf("Expected label from feed category, got %q (%s)", rec.Label, rec.LabelOrigin)
	}
}

func TestExtractNotHTML(t *testing.T) {
	provider := &fakeProvider{pages: map[string]page{
		"https://site.com/informe.pdf": {contentType: "application/pdf", body: "%PDF-1.4"},
	}}
	e := newTestExtractor(t, provider)

	rec := e.Extract(context.Background(), discovery.Candidate{Source: "site", URL: "https://site.com/informe.pdf"})
	if rec.Title != "" || rec.Body != "" {
		t.Errorf("Expected non-HTML page to be skipped, got %+v", rec)
	}

	if rec.HTMLPath == "" {
		t.Fatal("Expected raw bytes to be archived before the content type check")
	}
	archived, err := os.ReadFile(rec.HTMLPath)
	if err != nil {
		t.Fatalf("Failed to read archive: %v", err)
	}
	if string(archived) != "%PDF-1.4" {
		t.Errorf("Expected archived bytes to match the response, got %q", archived)
	}
}
