package usecase

import (
	"strings"

	"github.com/kirillkom/game-expert/internal/core/domain"
)

type categoryMatcher struct {
	label    string
	keywords []string
}

// CategoryClassifier resolves a response category from the question text.
// Rules are tried in order and the first group with a keyword hit wins.
type CategoryClassifier struct {
	matchers     []categoryMatcher
	defaultLabel string
}

func NewCategoryClassifier(rules []domain.CategoryRule, defaultLabel string) *CategoryClassifier {
	matchers := make([]categoryMatcher, 0, len(rules))
	for _, rule := range rules {
		keywords := make([]string, 0, len(rule.Keywords))
		for _, keyword := range rule.Keywords {
			keyword = strings.ToLower(strings.TrimSpace(keyword))
			if keyword == "" {
				continue
			}
			keywords = append(keywords, keyword)
		}
		if len(keywords) == 0 {
			continue
		}
		matchers = append(matchers, categoryMatcher{label: rule.Label, keywords: keywords})
	}
	return &CategoryClassifier{
		matchers:     matchers,
		defaultLabel: defaultLabel,
	}
}

// Classify returns the requested category unchanged when it is concrete,
// otherwise the label of the first matching keyword group.
func (c *CategoryClassifier) Classify(message, requested string) (string, domain.CategorySource) {
	if !domain.IsWildcardCategory(requested) {
		return requested, domain.CategoryRequested
	}

	normalized := strings.ToLower(message)
	for _, matcher := range c.matchers {
		for _, keyword := range matcher.keywords {
			if strings.Contains(normalized, keyword) {
				return matcher.label, domain.CategoryClassified
			}
		}
	}
	return c.defaultLabel, domain.CategoryDefault
}
