package chat_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/sensei/pkg/adapter/mock"
	"github.com/m-mizutani/sensei/pkg/model"
	"github.com/m-mizutani/sensei/pkg/repository"
	"github.com/m-mizutani/sensei/pkg/usecase/chat"
	"google.golang.org/genai"
)

type stubSuggester struct {
	suggestions []string
	err         error
}

func (s *stubSuggester) NextSteps(ctx context.Context) ([]string, error) {
	return s.suggestions, s.err
}

type stubSummarizer struct {
	calls int
	err   error
}

func (s *stubSummarizer) Summarize(ctx context.Context) (*model.LearningTopic, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &model.LearningTopic{Topic: "stub"}, nil
}

func TestSend(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	gemini := &mock.Gemini{EmbedFunc: queryAtOrigin, GenerateContentFunc: mock.Reply("A goroutine is a lightweight thread.")}

	uc := chat.New(repo, gemini, chat.WithSuggester(&stubSuggester{
		suggestions: []string{"What is a channel?", "How does select work?"},
	}))

	reply, err := uc.Send(ctx, "What is a goroutine?")
	gt.NoError(t, err)
	gt.Equal(t, reply.Answer.Text, "A goroutine is a lightweight thread.")
	gt.A(t, reply.Suggestions).Length(2)

	msgs, err := repo.ListRecentMessages(ctx, 10)
	gt.NoError(t, err)
	gt.A(t, msgs).Length(2)
	gt.Equal(t, msgs[0].Sender, model.SenderAssistant)
	gt.Equal(t, msgs[0].Content, "A goroutine is a lightweight thread.")
	gt.Equal(t, msgs[1].Sender, model.SenderUser)
	gt.Equal(t, msgs[1].Content, "What is a goroutine?")

	// the question itself is part of the history given to the model
	gt.S(t, gemini.LastPrompt()).Contains("user: What is a goroutine?")
}

func TestSendStoresCitedAnswer(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	gemini := &mock.Gemini{
		EmbedFunc: queryAtOrigin,
		GenerateContentFunc: func(ctx context.Context, _ []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return groundedResponse("Paris is the capital of France.", []*genai.GroundingSupport{
				{Segment: &genai.Segment{EndIndex: 31}, GroundingChunkIndices: []int32{0}},
			}, "https://example.com"), nil
		},
	}

	_, err := chat.New(repo, gemini).Send(ctx, "capital?")
	gt.NoError(t, err)

	msgs, err := repo.ListRecentMessagesBySender(ctx, model.SenderAssistant, 1)
	gt.NoError(t, err)
	gt.Equal(t, msgs[0].Content, "Paris is the capital of France.[1](https://example.com)")
}

func TestSendEmpty(t *testing.T) {
	repo := repository.NewMemory()
	_, err := chat.New(repo, &mock.Gemini{}).Send(context.Background(), "   ")
	gt.Error(t, err)
	gt.True(t, model.IsBadRequest(err))

	n, err := repo.CountMessages(context.Background())
	gt.NoError(t, err)
	gt.Equal(t, n, 0)
}

func TestSendSuggestionFailureIsAbsorbed(t *testing.T) {
	gemini := &mock.Gemini{EmbedFunc: queryAtOrigin, GenerateContentFunc: mock.Reply("ok")}
	uc := chat.New(repository.NewMemory(), gemini, chat.WithSuggester(&stubSuggester{err: errors.New("boom")}))

	reply, err := uc.Send(context.Background(), "hi")
	gt.NoError(t, err)
	gt.True(t, reply.Suggestions != nil)
	gt.A(t, reply.Suggestions).Length(0)
}

func TestSendGenerationFailureKeepsUserMessage(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	gemini := &mock.Gemini{EmbedFunc: queryAtOrigin, GenerateContentFunc: mock.Reply("")}

	_, err := chat.New(repo, gemini).Send(ctx, "hi")
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, chat.ErrTagGeneration))

	msgs, err := repo.ListRecentMessages(ctx, 10)
	gt.NoError(t, err)
	gt.A(t, msgs).Length(1)
	gt.Equal(t, msgs[0].Sender, model.SenderUser)
}

func TestSendTriggersSummary(t *testing.T) {
	ctx := context.Background()
	gemini := &mock.Gemini{EmbedFunc: queryAtOrigin, GenerateContentFunc: mock.Reply("ok")}
	summarizer := &stubSummarizer{}
	uc := chat.New(repository.NewMemory(), gemini,
		chat.WithSummarizer(summarizer),
		chat.WithSummaryInterval(4),
	)

	// each turn stores two messages
	for range 5 {
		_, err := uc.Send(ctx, "question")
		gt.NoError(t, err)
	}
	gt.Equal(t, summarizer.calls, 2)
}

func TestSendSummaryFailureIsAbsorbed(t *testing.T) {
	gemini := &mock.Gemini{EmbedFunc: queryAtOrigin, GenerateContentFunc: mock.Reply("ok")}
	summarizer := &stubSummarizer{err: errors.New("bad output")}
	uc := chat.New(repository.NewMemory(), gemini,
		chat.WithSummarizer(summarizer),
		chat.WithSummaryInterval(2),
	)

	reply, err := uc.Send(context.Background(), "question")
	gt.NoError(t, err)
	gt.Equal(t, reply.Answer.Text, "ok")
	gt.Equal(t, summarizer.calls, 1)
}
