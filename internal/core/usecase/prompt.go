package usecase

import (
	"fmt"
	"strings"

	"github.com/kirillkom/game-expert/internal/core/domain"
)

const clauseSeparator = "\n\n"

// ComposePrompt layers the base directive with the optional focus and
// expertise clauses. The message is always the final text, verbatim.
func ComposePrompt(baseDirective, category string, level domain.ExpertiseLevel, message string) string {
	clauses := make([]string, 0, 4)
	if directive := strings.TrimRight(baseDirective, "\n"); directive != "" {
		clauses = append(clauses, directive)
	}
	if !domain.IsWildcardCategory(category) {
		clauses = append(clauses, categoryClause(category))
	}
	if level != domain.ExpertiseNone {
		clauses = append(clauses, expertiseClause(level))
	}
	clauses = append(clauses, "## User Question:\n"+message)
	return strings.Join(clauses, clauseSeparator)
}

func categoryClause(category string) string {
	return fmt.Sprintf("## Specific Focus: %s\nConcentrate especially on aspects related to %s.", category, category)
}

func expertiseClause(level domain.ExpertiseLevel) string {
	return fmt.Sprintf(
		"## Requested Expertise Level: %s\nAdapt your explanations to the %s level and calibrate depth and terminology accordingly.",
		level,
		level,
	)
}
