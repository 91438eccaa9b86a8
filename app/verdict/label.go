package verdict

import (
	"fmt"
	"strings"
)

type Label string

const (
	Unknown  Label = ""
	False    Label = "false"
	True     Label = "true"
	Doubtful Label = "doubtful"
)

// Labels lists the known classes in precedence order.
var Labels = []Label{False, True, Doubtful}

var labelAliases = map[string]Label{
	"false":     False,
	"falso":     False,
	"true":      True,
	"verdadero": True,
	"doubtful":  Doubtful,
	"dudoso":    Doubtful,
}

// ParseLabel accepts the canonical label names and their Spanish equivalents.
func ParseLabel(s string) (Label, error) {
	label, ok := labelAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return Unknown, fmt.Errorf("unknown label: %q", s)
	}
	return label, nil
}

// Normalize collapses free-form verdict text to the label set by substring
// match. Any non-empty text without a true or false cue is doubtful.
func Normalize(raw string) Label {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return Unknown
	}

	if label, ok := labelAliases[s]; ok {
		return label
	}

	switch {
	case containsAny(s, "falso", "bulo", "fake"):
		return False
	case containsAny(s, "verdadero", "cierto", "real"):
		return True
	default:
		return Doubtful
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
