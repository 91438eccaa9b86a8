package text

import (
	"strings"
	"unicode/utf8"
)

const DefaultMinTitleChars = 8

var lowInfoTitles = map[string]bool{
	"última hora": true,
	"en vivo":     true,
	"noticias":    true,
	"ver más":     true,
	"leer más":    true,
	"portada":     true,
}

// IsLowInfoTitle reports titles that carry no article identity: stoplisted
// section labels or strings shorter than minChars.
func IsLowInfoTitle(title string, minChars int) bool {
	t := strings.ToLower(NormalizeSpace(title))
	if t == "" {
		return true
	}
	if lowInfoTitles[t] {
		return true
	}
	return utf8.RuneCountInString(t) < minChars
}
