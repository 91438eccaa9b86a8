package text

import (
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

var (
	horizontalSpace  = regexp.MustCompile(`[ \t\p{Zs}]{2,}`)
	spaceBeforeBreak = regexp.MustCompile(`[ \t\p{Zs}]+\n`)
	anySpace         = regexp.MustCompile(`\s+`)
	mojibakeMarkers  = []string{"Ã", "Â", "â€"}
)

// Sanitize repairs encoding artifacts and strips control characters.
// Newlines and tabs survive; runs of horizontal whitespace collapse to one space.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}

	s = html.UnescapeString(s)
	s = RepairMojibake(s)
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")

	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r == ' ' {
			return ' '
		}
		if unicode.IsControl(r) || r == '\uFEFF' {
			return -1
		}
		return r
	}, s)

	s = spaceBeforeBreak.ReplaceAllString(s, "\n")
	s = horizontalSpace.ReplaceAllString(s, " ")

	return strings.TrimSpace(s)
}

// RepairMojibake undoes UTF-8 text that was decoded as Windows-1252 once.
// The input is returned unchanged when the repair does not reduce the number
// of telltale sequences or does not yield valid UTF-8.
func RepairMojibake(s string) string {
	before := countMarkers(s)
	if before == 0 {
		return s
	}

	raw, err := charmap.Windows1252.NewEncoder().String(s)
	if err != nil || !utf8.ValidString(raw) {
		return s
	}

	if countMarkers(raw) >= before {
		return s
	}
	return raw
}

func countMarkers(s string) int {
	n := 0
	for _, m := range mojibakeMarkers {
		n += strings.Count(s, m)
	}
	return n
}

// NormalizeSpace collapses every whitespace run, newlines included, to a single space.
func NormalizeSpace(s string) string {
	return strings.TrimSpace(anySpace.ReplaceAllString(s, " "))
}

// Trim normalizes whitespace and cuts s to at most max runes, ending in an ellipsis when cut.
func Trim(s string, max int) string {
	s = NormalizeSpace(s)
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}

	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max-1])) + "…"
}

// Spreadsheet flattens line breaks and tabs so a value stays in one cell.
func Spreadsheet(s string) string {
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ").Replace(s)
	return horizontalSpace.ReplaceAllString(s, " ")
}
