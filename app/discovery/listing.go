package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/lysyi3m/factcomb/app/fetch"
	"github.com/lysyi3m/factcomb/app/ident"
	"github.com/lysyi3m/factcomb/app/source"
	"github.com/lysyi3m/factcomb/app/text"
)

type Listing struct {
	provider     fetch.Provider
	pages        int
	maxPerSource int
}

func NewListing(provider fetch.Provider, pages, maxPerSource int) *Listing {
	if pages < 1 {
		pages = 1
	}
	return &Listing{
		provider:     provider,
		pages:        pages,
		maxPerSource: maxPerSource,
	}
}

// PageVariants returns the root followed by three pagination shapes for each
// page from 2 to pages. Sites differ in which shape they serve.
func PageVariants(root string, pages int) []string {
	variants := []string{root}
	base := strings.TrimRight(root, "/")
	sep := "?"
	if strings.Contains(root, "?") {
		sep = "&"
	}

	for p := 2; p <= pages; p++ {
		variants = append(variants,
			fmt.Sprintf("%s/page/%d", base, p),
			fmt.Sprintf("%s%spage=%d", root, sep, p),
			fmt.Sprintf("%s%sp=%d", root, sep, p),
		)
	}
	return variants
}

// Discover returns article URLs in first-seen order, each once, capped at
// the source's limit. Failed pages are logged and skipped.
func (l *Listing) Discover(ctx context.Context, src *source.ListingSource) []string {
	limit := l.maxPerSource
	if max := src.Settings().MaxItems; max > 0 && (limit <= 0 || max < limit) {
		limit = max
	}

	fetcher := l.provider.For(src.Settings().Alternate)
	filter := NewLinkFilter(src)
	seen := make(map[string]bool)
	var links []string

	for _, root := range src.URLs {
		for _, pageURL := range PageVariants(root, l.pages) {
			if limit > 0 && len(links) >= limit {
				return links
			}
			if ctx.Err() != nil {
				return links
			}

			resp, err := fetcher.Get(ctx, pageURL)
			if err != nil {
				slog.Warn("Listing fetch failed", "source", src.Name(), "url", pageURL, "error", err)
				continue
			}

			found := ParseLinks(resp, pageURL, src.LinkSelectors)
			added := 0
			for _, link := range found {
				if seen[link] || !filter.Accept(link) {
					continue
				}
				seen[link] = true
				links = append(links, link)
				added++
				if limit > 0 && len(links) >= limit {
					break
				}
			}

			slog.Debug("Listing page parsed", "source", src.Name(), "url", pageURL, "anchors", len(found), "added", added)
		}
	}

	return links
}

// ParseLinks applies the link selectors to a listing page and resolves every
// href against the page URL.
func ParseLinks(resp *fetch.Response, pageURL string, selectors []string) []string {
	html := text.Decode(resp.Body, resp.Header.Get("Content-Type"))
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		slog.Warn("Listing page unparseable", "url", pageURL, "error", err)
		return nil
	}

	var links []string
	for _, sel := range selectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			anchor := s
			if goquery.NodeName(s) != "a" {
				anchor = s.Find("a[href]").First()
			}
			href, ok := anchor.Attr("href")
			if !ok {
				return
			}
			if link := ident.Resolve(pageURL, href); link != "" {
				links = append(links, link)
			}
		})
	}
	return links
}
