package chat

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sensei/pkg/model"
	"github.com/m-mizutani/sensei/pkg/utils/logging"
)

// Reply is the result of one chat turn
type Reply struct {
	Answer      *model.Answer
	Suggestions []string
}

// Send handles one learner message: it stores the message, answers it,
// stores the answer and collects next-step suggestions. Every
// summaryInterval stored messages the recent conversation is summarized
// into a topic. Suggestion and summary failures are logged and do not fail
// the turn.
func (u *UseCase) Send(ctx context.Context, content string) (*Reply, error) {
	if strings.TrimSpace(content) == "" {
		return nil, goerr.Wrap(model.ErrEmptyContent, "message is empty", goerr.T(model.ErrTagBadRequest))
	}

	if err := u.appendMessage(ctx, model.SenderUser, content); err != nil {
		return nil, err
	}

	answer, err := u.Answer(ctx, content)
	if err != nil {
		return nil, err
	}

	if err := u.appendMessage(ctx, model.SenderAssistant, answer.Text); err != nil {
		return nil, err
	}

	reply := &Reply{
		Answer:      answer,
		Suggestions: u.suggest(ctx),
	}

	u.maybeSummarize(ctx)

	return reply, nil
}

func (u *UseCase) appendMessage(ctx context.Context, sender model.Sender, content string) error {
	msg, err := model.NewMessage(sender, content)
	if err != nil {
		return goerr.Wrap(err, "failed to build message", goerr.V("sender", sender))
	}
	if err := u.repo.PutMessage(ctx, msg); err != nil {
		return goerr.Wrap(err, "failed to store message", goerr.V("sender", sender), goerr.T(ErrTagStore))
	}
	return nil
}

func (u *UseCase) suggest(ctx context.Context) []string {
	if u.suggester == nil {
		return []string{}
	}

	suggestions, err := u.suggester.NextSteps(ctx)
	if err != nil {
		logging.From(ctx).Warn("failed to get suggestions", "error", err)
		return []string{}
	}
	return suggestions
}

func (u *UseCase) maybeSummarize(ctx context.Context) {
	if u.summarizer == nil || u.summaryInterval <= 0 {
		return
	}

	logger := logging.From(ctx)
	total, err := u.repo.CountMessages(ctx)
	if err != nil {
		logger.Warn("failed to count messages", "error", err)
		return
	}
	if total == 0 || total%u.summaryInterval != 0 {
		return
	}

	topic, err := u.summarizer.Summarize(ctx)
	if err != nil {
		logger.Warn("failed to summarize conversation", "error", err)
		return
	}
	if topic != nil {
		logger.Info("topic learned", "topic", topic.Topic)
	}
}
