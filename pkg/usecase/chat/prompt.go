package chat

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sensei/pkg/model"
)

//go:embed prompt/answer.md
var answerPromptRaw string

var answerPromptTmpl = template.Must(template.New("answer").Parse(answerPromptRaw))

// PromptInput is everything the answer prompt is built from
type PromptInput struct {
	Query string
	// Passages in rank order
	Passages []model.RetrievedPassage
	// History in chronological order
	History []*model.Message
	Topics  []*model.LearningTopic
}

// BuildPrompt renders the answer prompt. Empty inputs render as empty
// sections.
func BuildPrompt(in *PromptInput) (string, error) {
	passages := make([]string, len(in.Passages))
	for i, p := range in.Passages {
		passages[i] = p.Text
	}

	history := make([]string, len(in.History))
	for i, m := range in.History {
		history[i] = fmt.Sprintf("%s: %s", m.Sender, m.Content)
	}

	topics := make([]string, len(in.Topics))
	for i, t := range in.Topics {
		topics[i] = fmt.Sprintf("- %s: %s", t.Topic, t.Description)
	}

	var buf bytes.Buffer
	if err := answerPromptTmpl.Execute(&buf, map[string]any{
		"Query":               in.Query,
		"RetrievedContext":    strings.Join(passages, "\n"),
		"ConversationHistory": strings.Join(history, "\n"),
		"LongTermMemory":      strings.Join(topics, "\n"),
	}); err != nil {
		return "", goerr.Wrap(err, "failed to execute answer prompt template")
	}

	return buf.String(), nil
}
