package usecase

import (
	"strings"
	"testing"

	"github.com/kirillkom/game-expert/internal/core/domain"
)

const testDirective = "# Game Expert\nYou are a game expert."

func TestComposePromptWithoutOptionsEndsWithMessage(t *testing.T) {
	messages := []string{
		"how do I parry in Sekiro?",
		"  leading and trailing spaces  ",
		"line one\n\nline two",
		"## looks like a heading",
	}
	for _, message := range messages {
		prompt := ComposePrompt(testDirective, "", domain.ExpertiseNone, message)
		if !strings.HasSuffix(prompt, message) {
			t.Fatalf("prompt must end with message %q, got %q", message, prompt)
		}
		if strings.Contains(prompt, "## Specific Focus") {
			t.Fatalf("unexpected category clause: %q", prompt)
		}
		if strings.Contains(prompt, "## Requested Expertise Level") {
			t.Fatalf("unexpected expertise clause: %q", prompt)
		}
		if !strings.HasPrefix(prompt, testDirective) {
			t.Fatalf("prompt must start with base directive, got %q", prompt)
		}
	}
}

func TestComposePromptWildcardCategoryAddsNoClause(t *testing.T) {
	for _, category := range []string{"", "all", "ALL", "todos"} {
		prompt := ComposePrompt(testDirective, category, domain.ExpertiseNone, "q")
		if strings.Contains(prompt, "## Specific Focus") {
			t.Fatalf("category %q must not add a focus clause", category)
		}
	}
}

func TestComposePromptNamesCategoryAndLevel(t *testing.T) {
	prompt := ComposePrompt(testDirective, "Strategy", domain.ExpertiseAdvanced, "best opener?")

	if !strings.Contains(prompt, "## Specific Focus: Strategy") {
		t.Fatalf("expected focus clause naming category, got %q", prompt)
	}
	if !strings.Contains(prompt, "## Requested Expertise Level: advanced") {
		t.Fatalf("expected expertise clause naming level, got %q", prompt)
	}
	if !strings.HasSuffix(prompt, "best opener?") {
		t.Fatalf("message must be the final clause, got %q", prompt)
	}

	focus := strings.Index(prompt, "## Specific Focus")
	level := strings.Index(prompt, "## Requested Expertise Level")
	question := strings.Index(prompt, "## User Question")
	if !(focus < level && level < question) {
		t.Fatalf("unexpected clause order: focus=%d level=%d question=%d", focus, level, question)
	}
}

func TestComposePromptSeparatesClausesWithBlankLine(t *testing.T) {
	prompt := ComposePrompt(testDirective, "RPG/MMORPG", domain.ExpertiseBeginner, "q")
	want := testDirective +
		"\n\n## Specific Focus: RPG/MMORPG\nConcentrate especially on aspects related to RPG/MMORPG." +
		"\n\n## Requested Expertise Level: beginner\nAdapt your explanations to the beginner level and calibrate depth and terminology accordingly." +
		"\n\n## User Question:\nq"
	if prompt != want {
		t.Fatalf("unexpected prompt:\n%s\nwant:\n%s", prompt, want)
	}
}

func TestComposePromptIsDeterministic(t *testing.T) {
	a := ComposePrompt(testDirective, "FPS/Shooter", domain.ExpertiseProfessional, "spray control")
	b := ComposePrompt(testDirective, "FPS/Shooter", domain.ExpertiseProfessional, "spray control")
	if a != b {
		t.Fatalf("expected identical prompts")
	}
}
