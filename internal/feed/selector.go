package feed

import (
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/streamcloud/streamcloud/pkg/title"
)

// matchThreshold is the Jaro-Winkler score at which a fuzzy pattern match is
// accepted. Jaro-Winkler favors prefix agreement, which suits media titles.
const matchThreshold = 0.85

// Selector decides which feed entries a source cares about.
type Selector struct {
	patterns []string
}

// NewSelector compiles a source's patterns. A source with no patterns
// accepts everything.
func NewSelector(patterns []string) *Selector {
	return &Selector{patterns: patterns}
}

// Matches reports whether an entry title is wanted. Each pattern matches
// either as a normalized substring or by fuzzy similarity against the title
// with release decorations stripped.
func (s *Selector) Matches(entryTitle string) bool {
	if len(s.patterns) == 0 {
		return true
	}

	cleaned := title.Normalize(title.StripReleaseTags(entryTitle))
	for _, pattern := range s.patterns {
		p := title.Normalize(pattern)
		if p == "" {
			continue
		}
		if strings.Contains(cleaned, p) {
			return true
		}
		if float64(edlib.JaroWinklerSimilarity(p, cleaned)) >= matchThreshold {
			return true
		}
	}
	return false
}
