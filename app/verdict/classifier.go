package verdict

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/lysyi3m/factcomb/app/text"
)

const (
	boundaryStart = `(?:^|[^\p{L}\p{N}_])`
	boundaryEnd   = `(?:$|[^\p{L}\p{N}_])`
	evidenceLimit = 200
)

func wordPattern(alternatives string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + boundaryStart + `(?:` + alternatives + `)` + boundaryEnd)
}

type bucket struct {
	label   Label
	pattern *regexp.Regexp
}

var buckets = []bucket{
	{False, wordPattern(`completamente\s+falso|falso|falsa|bulo|fake|mentira|false`)},
	{True, wordPattern(`verdadero|verdadera|cierto|cierta|real|true`)},
	{Doubtful, wordPattern(`engaños[oa]s?|cuestionable|inexact[oa]s?|imprecis[oa]s?|imprecise|inchequeable|no[ -]?verificable|unverifiable|parcialmente\s+verdader[oa]|partially\s+true|verdader[oa]\s+pero|misleading`)},
}

// Qualified phrases contain a true-bucket word but mean doubtful. They are
// masked before the true bucket is tested.
var qualifiedTrue = regexp.MustCompile(`(?i)parcialmente\s+verdader[oa]|verdader[oa]\s+pero|partially\s+true`)

// Classify returns the first bucket whose pattern matches, in the order
// false, true, doubtful, or Unknown when nothing matches.
func Classify(s string) Label {
	if strings.TrimSpace(s) == "" {
		return Unknown
	}

	for _, b := range buckets {
		candidate := s
		if b.label == True {
			candidate = qualifiedTrue.ReplaceAllString(s, " ")
		}
		if b.pattern.MatchString(candidate) {
			return b.label
		}
	}
	return Unknown
}

var defaultBadgeSelectors = []string{
	"[class*='calificac']",
	"[class*='veredicto']",
	"[class*='rating']",
	"[class*='verdict']",
	"[class*='badge']",
}

var textSelectors = []string{"h1", "h2", "h3", "strong", "em", "span", "p"}

var metaSelectors = []string{
	`meta[property="og:title"]`,
	`meta[name="description"]`,
	`meta[property="og:description"]`,
}

type Classifier struct {
	badgeSelectors []string
}

func NewClassifier() *Classifier {
	return &Classifier{
		badgeSelectors: defaultBadgeSelectors,
	}
}

// FromDocument scans the page for verdict evidence: badge elements first,
// then headings and emphasis, then meta descriptions, then the whole body.
// The first element whose text classifies wins. The returned evidence is the
// matched text, trimmed.
func (c *Classifier) FromDocument(doc *goquery.Document, hintSelectors []string) (Label, string) {
	if doc == nil {
		return Unknown, ""
	}

	selectors := append(append([]string{}, hintSelectors...), c.badgeSelectors...)
	selectors = append(selectors, textSelectors...)

	for _, sel := range selectors {
		if label, evidence := scanElements(doc, sel); label != Unknown {
			return label, evidence
		}
	}

	for _, sel := range metaSelectors {
		content, ok := doc.Find(sel).First().Attr("content")
		if !ok {
			continue
		}
		if label := Classify(content); label != Unknown {
			return label, text.Trim(content, evidenceLimit)
		}
	}

	body := doc.Find("body").Text()
	if label := Classify(body); label != Unknown {
		return label, text.Trim(body, evidenceLimit)
	}

	return Unknown, ""
}

func scanElements(doc *goquery.Document, selector string) (Label, string) {
	var label Label
	var evidence string

	doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		content := text.NormalizeSpace(s.Text())
		if content == "" {
			return true
		}
		if l := Classify(content); l != Unknown {
			label = l
			evidence = text.Trim(content, evidenceLimit)
			return false
		}
		return true
	})

	return label, evidence
}
