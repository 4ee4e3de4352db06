package domain

import (
	"fmt"
	"strings"
)

// ExpertiseLevel is the caller's hint for how deep the answer should go.
// The zero value means no constraint.
type ExpertiseLevel string

const (
	ExpertiseNone         ExpertiseLevel = ""
	ExpertiseBeginner     ExpertiseLevel = "beginner"
	ExpertiseIntermediate ExpertiseLevel = "intermediate"
	ExpertiseAdvanced     ExpertiseLevel = "advanced"
	ExpertiseProfessional ExpertiseLevel = "professional"
)

// ExpertiseLevels lists the levels from shallowest to deepest.
var ExpertiseLevels = []ExpertiseLevel{
	ExpertiseBeginner,
	ExpertiseIntermediate,
	ExpertiseAdvanced,
	ExpertiseProfessional,
}

var expertiseAliases = map[string]ExpertiseLevel{
	"beginner":      ExpertiseBeginner,
	"iniciante":     ExpertiseBeginner,
	"intermediate":  ExpertiseIntermediate,
	"intermediário": ExpertiseIntermediate,
	"intermediario": ExpertiseIntermediate,
	"advanced":      ExpertiseAdvanced,
	"avançado":      ExpertiseAdvanced,
	"avancado":      ExpertiseAdvanced,
	"professional":  ExpertiseProfessional,
	"profissional":  ExpertiseProfessional,
}

// ParseExpertiseLevel normalizes a caller supplied level. Blank input maps to
// ExpertiseNone.
func ParseExpertiseLevel(raw string) (ExpertiseLevel, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return ExpertiseNone, nil
	}
	level, ok := expertiseAliases[key]
	if !ok {
		return ExpertiseNone, NewError(ErrInvalidInput, "parse expertise level", fmt.Sprintf("unknown level %q", raw))
	}
	return level, nil
}

// WildcardCategory is the category value meaning "no category constraint".
const WildcardCategory = "all"

// IsWildcardCategory reports whether the requested category pins nothing.
// "todos" is accepted for clients built against the Portuguese UI.
func IsWildcardCategory(category string) bool {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case "", WildcardCategory, "todos":
		return true
	default:
		return false
	}
}

type Question struct {
	Message        string
	Category       string
	ExpertiseLevel ExpertiseLevel
}

// CategorySource tells how an answer's category was resolved.
type CategorySource string

const (
	CategoryRequested  CategorySource = "requested"
	CategoryClassified CategorySource = "classified"
	CategoryDefault    CategorySource = "default"
)

type Answer struct {
	Text           string         `json:"response"`
	Category       string         `json:"category"`
	CategorySource CategorySource `json:"-"`
	ExpertiseLevel ExpertiseLevel `json:"-"`

	Provider         string `json:"-"`
	Model            string `json:"-"`
	PromptTokens     int    `json:"-"`
	CompletionTokens int    `json:"-"`
}
