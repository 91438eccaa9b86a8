package discovery

import (
	"net/url"
	"strings"

	"github.com/lysyi3m/factcomb/app/source"
)

var skippedExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".mp4", ".pdf", ".svg", ".webp"}

// LinkFilter decides which resolved anchors on a listing page are articles.
type LinkFilter struct {
	src   *source.ListingSource
	roots map[string]bool
}

func NewLinkFilter(src *source.ListingSource) *LinkFilter {
	roots := make(map[string]bool, len(src.URLs))
	for _, root := range src.URLs {
		roots[strings.TrimRight(root, "/")] = true
	}
	return &LinkFilter{src: src, roots: roots}
}

func (f *LinkFilter) Accept(link string) bool {
	if link == "" || strings.HasSuffix(link, "#") {
		return false
	}

	if f.hasSkippedExtension(link) {
		return false
	}

	if f.roots[strings.TrimRight(link, "/")] {
		return false
	}

	if len(f.src.Restrict) > 0 && !f.matchesAny(link, f.src.Restrict) {
		return false
	}

	if len(f.src.ArticlePatterns) > 0 {
		for _, re := range f.src.ArticlePatterns {
			if re.MatchString(link) {
				return true
			}
		}
		return false
	}

	return true
}

func (f *LinkFilter) hasSkippedExtension(link string) bool {
	path := link
	if u, err := url.Parse(link); err == nil {
		path = u.Path
	}
	path = strings.ToLower(path)

	for _, ext := range skippedExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func (f *LinkFilter) matchesAny(value string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(value, p) {
			return true
		}
	}
	return false
}
