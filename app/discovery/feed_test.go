package discovery

import (
	"context"
	"testing"
	"time"

	"github.com/lysyi3m/factcomb/app/source"
	"github.com/lysyi3m/factcomb/app/verdict"
)

const testFeed = `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Chequeos</title>
    <link>https://site.com</link>
    <item>
      <title>Es falso que el agua cure el virus</title>
      <link>https://site.com/chequeos/agua</link>
      <description>&lt;p&gt;Un &lt;b&gt;bulo&lt;/b&gt; viral.&lt;/p&gt;</description>
      <category>Falso</category>
      <pubDate>Thu, 18 Jan 2024 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Nota vieja</title>
      <link>https://site.com/chequeos/vieja</link>
      <pubDate>Fri, 05 Jan 2024 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Sin fecha</title>
      <link>https://site.com/chequeos/sin-fecha</link>
    </item>
    <item>
      <title>Sin enlace</title>
    </item>
  </channel>
</rss>`

func buildFeed(t *testing.T, cfg source.Config) *source.FeedSource {
	t.Helper()
	cfg.Mode = "feed"
	if cfg.Name == "" {
		cfg.Name = "test-feed"
	}
	if cfg.FeedURL == "" {
		cfg.FeedURL = "https://site.com/feed"
	}
	src, err := source.Build(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return src.(*source.FeedSource)
}

func TestFeedDiscover(t *testing.T) {
	fetcher := newFakeFetcher(map[string]string{"https://site.com/feed": testFeed})
	d := NewFeed(fetcher, time.UTC)
	d.now = func() time.Time { return time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC) }

	candidates := d.Discover(context.Background(), buildFeed(t, source.Config{}), 10)

	if len(candidates) != 2 {
		t.Fatalf("Expected 2 candidates, got %d: %+v", len(candidates), candidates)
	}

	first := candidates[0]
	if first.URL != "https://site.com/chequeos/agua" {
		t.Errorf("Unexpected URL %q", first.URL)
	}
	if first.Source != "test-feed" {
		t.Errorf("Expected source 'test-feed', got %q", first.Source)
	}
	if first.Summary != "Un bulo viral." {
		t.Errorf("Expected HTML stripped from summary, got %q", first.Summary)
	}
	if first.LabelHint != "Falso" {
		t.Errorf("Expected first category as label hint, got %q", first.LabelHint)
	}
	if first.PublishedAt == nil || !first.PublishedAt.Equal(time.Date(2024, 1, 18, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected published date %v", first.PublishedAt)
	}

	if candidates[1].URL != "https://site.com/chequeos/sin-fecha" || candidates[1].PublishedAt != nil {
		t.Errorf("Expected undated entry to be kept, got %+v", candidates[1])
	}
}

func TestFeedDropsEntriesOutsideLookback(t *testing.T) {
	feed := `<?xml version="1.0"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom</title>
  <entry>
    <title>Quince días</title>
    <link href="https://site.com/a"/>
    <published>2024-01-05T10:00:00Z</published>
  </entry>
</feed>`

	d := NewFeed(newFakeFetcher(nil), time.UTC)
	d.now = func() time.Time { return time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC) }

	candidates, err := d.Run(buildFeed(t, source.Config{}), []byte(feed), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 0 {
		t.Errorf("Expected 15-day-old entry to be dropped, got %+v", candidates)
	}
}

func TestFeedResolvesRelativeLinks(t *testing.T) {
	feed := `<?xml version="1.0"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom</title>
  <entry>
    <title>Ruta absoluta</title>
    <link href="/chequeos/uno"/>
  </entry>
  <entry>
    <title>Ruta relativa</title>
    <link href="dos"/>
  </entry>
  <entry>
    <title>Sin esquema</title>
    <link href="//cdn.site.com/tres"/>
  </entry>
</feed>`

	d := NewFeed(newFakeFetcher(nil), time.UTC)
	src := buildFeed(t, source.Config{FeedURL: "https://site.com/chequeos/feed"})

	candidates, err := d.Run(src, []byte(feed), 0)
	if err != nil {
		t.Fatal(err)
	}

	expected := []string{
		"https://site.com/chequeos/uno",
		"https://site.com/chequeos/dos",
		"https://cdn.site.com/tres",
	}
	if len(candidates) != len(expected) {
		t.Fatalf("Expected %d candidates, got %d", len(expected), len(candidates))
	}
	for i, c := range candidates {
		if c.URL != expected[i] {
			t.Errorf("Expected %s, got %s", expected[i], c.URL)
		}
	}
}

func TestFeedSourceOverrides(t *testing.T) {
	fetcher := newFakeFetcher(map[string]string{"https://site.com/feed": testFeed})
	d := NewFeed(fetcher, time.UTC)
	d.now = func() time.Time { return time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC) }

	src := buildFeed(t, source.Config{FixedLabel: "true", MaxItems: 1, LookbackDays: 30})
	candidates := d.Discover(context.Background(), src, 1)

	if len(candidates) != 1 {
		t.Fatalf("Expected max_items to cap output at 1, got %d", len(candidates))
	}
	if candidates[0].FixedLabel != verdict.True {
		t.Errorf("Expected fixed label to be carried, got %q", candidates[0].FixedLabel)
	}
}

func TestFeedDiscoverFailures(t *testing.T) {
	fetcher := newFakeFetcher(map[string]string{"https://site.com/feed": "not a feed"})
	d := NewFeed(fetcher, time.UTC)

	if got := d.Discover(context.Background(), buildFeed(t, source.Config{}), 10); len(got) != 0 {
		t.Errorf("Expected empty list on parse failure, got %d", len(got))
	}
	if got := d.Discover(context.Background(), buildFeed(t, source.Config{FeedURL: "https://missing.example/feed"}), 10); len(got) != 0 {
		t.Errorf("Expected empty list on fetch failure, got %d", len(got))
	}
}
