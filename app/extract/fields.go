package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/lysyi3m/factcomb/app/text"
)

const minContainerScore = 400

var containerSelector = strings.Join([]string{
	"[class*='content']",
	"[class*='post']",
	"[class*='article']",
	"[id*='content']",
	"[id*='post']",
	"[id*='article']",
}, ", ")

// title tries hint selectors, then the article heading, og:title, <title>
// and finally any h1.
func title(doc *goquery.Document, hints []string) string {
	for _, sel := range hints {
		if t := text.NormalizeSpace(doc.Find(sel).First().Text()); t != "" {
			return t
		}
	}

	if t := text.NormalizeSpace(doc.Find("article").First().Find("h1").First().Text()); t != "" {
		return t
	}

	if og, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		if t := text.NormalizeSpace(og); t != "" {
			return t
		}
	}

	if t := text.NormalizeSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}

	return text.NormalizeSpace(doc.Find("h1").First().Text())
}

// paragraphs joins the non-empty paragraph texts of a selection with newlines.
func paragraphs(sel *goquery.Selection) string {
	var parts []string
	sel.Each(func(_ int, s *goquery.Selection) {
		if p := text.NormalizeSpace(s.Text()); p != "" {
			parts = append(parts, p)
		}
	})
	return strings.Join(parts, "\n")
}

// body tries hint selectors, paragraphs of the article region, then the
// content-like container with the most paragraph text.
func body(doc *goquery.Document, hints []string) string {
	for _, sel := range hints {
		if b := paragraphs(doc.Find(sel)); b != "" {
			return b
		}
	}

	if article := doc.Find("article").First(); article.Length() > 0 {
		if b := paragraphs(article.Find("p")); b != "" {
			return b
		}
	}

	var best *goquery.Selection
	bestScore := 0
	doc.Find(containerSelector).Each(func(_ int, s *goquery.Selection) {
		score := 0
		s.Find("p").Each(func(_ int, p *goquery.Selection) {
			score += len([]rune(text.NormalizeSpace(p.Text())))
		})
		if score > bestScore {
			best = s
			bestScore = score
		}
	})

	if best != nil && bestScore > minContainerScore {
		return paragraphs(best.Find("p"))
	}
	return ""
}
