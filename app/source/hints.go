package source

// SelectorSet holds site-specific selectors tried before the generic chains.
type SelectorSet struct {
	Title   []string
	Body    []string
	Verdict []string
}

var Hints = map[string]SelectorSet{
	"wordpress": {
		Title:   []string{"h1.entry-title", "h1.post-title"},
		Body:    []string{".entry-content p", ".post-content p"},
		Verdict: []string{".entry-content .wp-block-button", "[class*='tag-falso']", "[class*='tag-verdadero']"},
	},
	"drupal": {
		Title:   []string{"h1.page-title", ".node__title"},
		Body:    []string{".field--name-body p", ".node__content p"},
		Verdict: []string{".field--name-field-calificacion", ".field--name-field-veredicto"},
	},
	"afp": {
		Title:   []string{"h1.content-title"},
		Body:    []string{".article-entry p"},
		Verdict: []string{".rating-text", ".verdict"},
	},
}
