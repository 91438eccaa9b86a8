package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"

	"github.com/lysyi3m/factcomb/app/text"
)

// ContentExtractor is the last body strategy: readability's main-content heuristic.
type ContentExtractor struct{}

func NewContentExtractor() *ContentExtractor {
	return &ContentExtractor{}
}

func (e *ContentExtractor) Run(html, pageURL string) (string, error) {
	if html == "" {
		return "", fmt.Errorf("HTML data is empty")
	}

	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		parsedURL = nil
	}

	article, err := readability.FromReader(strings.NewReader(html), parsedURL)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	content := strings.TrimSpace(article.TextContent)
	if content == "" {
		return "", fmt.Errorf("no content extracted from HTML data")
	}

	lines := strings.Split(content, "\n")
	paragraphs := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = text.NormalizeSpace(line); line != "" {
			paragraphs = append(paragraphs, line)
		}
	}

	return strings.Join(paragraphs, "\n"), nil
}
