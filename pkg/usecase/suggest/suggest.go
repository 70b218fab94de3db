package suggest

import (
	"bytes"
	"context"
	_ "embed"
	"regexp"
	"slices"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sensei/pkg/adapter"
	"github.com/m-mizutani/sensei/pkg/model"
	"github.com/m-mizutani/sensei/pkg/repository"
	"google.golang.org/genai"
)

//go:embed prompt/next_steps.md
var nextStepsPromptRaw string

var nextStepsPromptTmpl = template.Must(template.New("next_steps").Parse(nextStepsPromptRaw))

const (
	recentTopics    = 3
	recentQuestions = 5
	maxSuggestions  = 4
)

// UseCase proposes follow-up questions from recent topics and questions
type UseCase struct {
	repo   repository.Repository
	gemini adapter.Gemini
}

func New(repo repository.Repository, gemini adapter.Gemini) *UseCase {
	return &UseCase{repo: repo, gemini: gemini}
}

// NextSteps returns up to four suggested questions
func (u *UseCase) NextSteps(ctx context.Context) ([]string, error) {
	topics, err := u.repo.ListRecentTopics(ctx, recentTopics)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list recent topics")
	}

	questions, err := u.repo.ListRecentMessagesBySender(ctx, model.SenderUser, recentQuestions)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list recent questions")
	}
	slices.Reverse(questions)

	var buf bytes.Buffer
	if err := nextStepsPromptTmpl.Execute(&buf, map[string]any{
		"Count":     maxSuggestions,
		"Topics":    topics,
		"Questions": questions,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to execute next steps prompt template")
	}

	thinkingBudget := int32(0)
	resp, err := u.gemini.GenerateContent(ctx,
		[]*genai.Content{genai.NewContentFromText(buf.String(), genai.RoleUser)},
		&genai.GenerateContentConfig{
			ThinkingConfig: &genai.ThinkingConfig{ThinkingBudget: &thinkingBudget},
		},
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate suggestions")
	}

	return ParseSuggestions(adapter.ResponseText(resp), maxSuggestions), nil
}

var bulletPrefix = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s*`)

// ParseSuggestions splits model output into at most limit suggestions,
// stripping bullet markers and blank lines
func ParseSuggestions(output string, limit int) []string {
	suggestions := []string{}
	for _, line := range strings.Split(output, "\n") {
		s := strings.TrimSpace(bulletPrefix.ReplaceAllString(line, ""))
		if s == "" {
			continue
		}
		suggestions = append(suggestions, s)
		if len(suggestions) == limit {
			break
		}
	}
	return suggestions
}
