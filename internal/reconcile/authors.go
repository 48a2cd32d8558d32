package reconcile

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/capralifecycle/cals/internal/gitrepo"
)

// DefaultBotPatterns match lowercased author names of automation accounts.
var DefaultBotPatterns = []string{"*renovate*", "*jenkins*", "*snyk-*"}

// BotMatcher classifies commit authors as automation or human.
type BotMatcher struct {
	patterns []string
}

// NewBotMatcher uses patterns, or DefaultBotPatterns when empty.
func NewBotMatcher(patterns []string) *BotMatcher {
	if len(patterns) == 0 {
		patterns = DefaultBotPatterns
	}

	return &BotMatcher{patterns: patterns}
}

// IsBot reports whether name matches any pattern, case-insensitively.
func (m *BotMatcher) IsBot(name string) bool {
	lower := strings.ToLower(name)

	for _, p := range m.patterns {
		if ok, _ := doublestar.Match(p, lower); ok {
			return true
		}
	}

	return false
}

// OnlyBots reports whether every author is a bot. It is true for an
// empty list.
func (m *BotMatcher) OnlyBots(authors []gitrepo.AuthorCount) bool {
	for _, a := range authors {
		if !m.IsBot(a.Name) {
			return false
		}
	}

	return true
}
