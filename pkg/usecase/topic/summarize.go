package topic

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sensei/pkg/adapter"
	"github.com/m-mizutani/sensei/pkg/model"
	"github.com/m-mizutani/sensei/pkg/utils/logging"
	"google.golang.org/genai"
)

//go:embed prompt/summarize.md
var summarizePromptRaw string

var summarizePromptTmpl = template.Must(template.New("summarize").Parse(summarizePromptRaw))

// Summarize asks the model for the topic of the recent conversation and
// upserts it. Output that has no usable topic is logged and skipped, and
// (nil, nil) is returned.
func (u *UseCase) Summarize(ctx context.Context) (*model.LearningTopic, error) {
	logger := logging.From(ctx)

	recent, err := u.repo.ListRecentMessages(ctx, u.window)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list recent messages")
	}
	if len(recent) == 0 {
		logger.Debug("no conversation to summarize")
		return nil, nil
	}
	slices.Reverse(recent)

	lines := make([]string, len(recent))
	for i, m := range recent {
		lines[i] = fmt.Sprintf("%s: %s", m.Sender, m.Content)
	}

	var buf bytes.Buffer
	if err := summarizePromptTmpl.Execute(&buf, map[string]any{
		"Conversation": strings.Join(lines, "\n"),
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to execute summarize prompt template")
	}

	thinkingBudget := int32(0)
	resp, err := u.gemini.GenerateContent(ctx,
		[]*genai.Content{genai.NewContentFromText(buf.String(), genai.RoleUser)},
		&genai.GenerateContentConfig{
			ThinkingConfig: &genai.ThinkingConfig{ThinkingBudget: &thinkingBudget},
		},
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate summary")
	}

	output := adapter.ResponseText(resp)
	name, description, ok := ParseSummary(output)
	if !ok {
		logger.Warn("summary has no topic, skip update", "output", output)
		return nil, nil
	}

	saved, err := u.repo.UpsertTopic(ctx, &model.LearningTopic{
		Topic:       name,
		Description: description,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to upsert topic", goerr.V("topic", name))
	}

	return saved, nil
}

var summaryLine = regexp.MustCompile(`(?i)^[\s*_#>-]*(topic|description)[\s*_]*:[\s*_]*(.*?)[\s*_]*$`)

// ParseSummary extracts "Topic:" and "Description:" values from free
// text. Both must be present and non-blank.
func ParseSummary(output string) (topic, description string, ok bool) {
	for _, line := range strings.Split(output, "\n") {
		m := summaryLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}

		switch strings.ToLower(m[1]) {
		case "topic":
			if topic == "" {
				topic = m[2]
			}
		case "description":
			if description == "" {
				description = m[2]
			}
		}
	}

	return topic, description, topic != "" && description != ""
}
