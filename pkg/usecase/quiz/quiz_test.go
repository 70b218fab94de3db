package quiz_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/sensei/pkg/adapter/mock"
	"github.com/m-mizutani/sensei/pkg/model"
	"github.com/m-mizutani/sensei/pkg/repository"
	"github.com/m-mizutani/sensei/pkg/usecase/quiz"
	"google.golang.org/genai"
)

const quizJSON = `{
  "topic": "Go concurrency",
  "questions": [
    {
      "question_text": "What starts a goroutine?",
      "options": {"a": "go", "b": "defer", "c": "chan", "d": "select"},
      "correct_answer": "a",
      "explanation": "The go keyword starts a goroutine."
    },
    {
      "question_text": "Which statement waits on multiple channels?",
      "options": {"a": "switch", "b": "select", "c": "for", "d": "range"},
      "correct_answer": "B"
    }
  ]
}`

func TestStripCodeFence(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"no fence", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```\n", `{"a":1}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gt.Equal(t, quiz.StripCodeFenceForTest(tc.input), tc.expected)
		})
	}
}

func TestStartAndAnswer(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	gemini := &mock.Gemini{GenerateContentFunc: mock.Reply("```json\n" + quizJSON + "\n```")}
	uc := quiz.New(repo, gemini)

	q, err := uc.Start(ctx, "Go concurrency")
	gt.NoError(t, err)
	gt.A(t, q.Questions).Length(2)
	gt.Equal(t, q.Questions[0].Options.A, "go")
	gt.Equal(t, q.Questions[1].CorrectAnswer, "b")
	gt.Equal(t, q.Questions[1].Explanation, model.DefaultExplanation)

	gt.Equal(t, gemini.Configs[0].ResponseMIMEType, "application/json")
	gt.V(t, gemini.Configs[0].ResponseSchema).NotNil()
	gt.S(t, gemini.LastPrompt()).Contains("5 questions")

	first, err := uc.Answer(ctx, q.Questions[0].ID, " A ")
	gt.NoError(t, err)
	gt.True(t, first.Correct)
	gt.Equal(t, first.CorrectAnswer, "a")
	gt.Equal(t, first.Explanation, "The go keyword starts a goroutine.")
	gt.V(t, first.Next).NotNil()
	gt.Equal(t, first.Next.ID, q.Questions[1].ID)

	second, err := uc.Answer(ctx, q.Questions[1].ID, "c")
	gt.NoError(t, err)
	gt.False(t, second.Correct)
	gt.Equal(t, second.CorrectAnswer, "b")
	gt.V(t, second.Next).Nil()
}

func TestStartBlankTopic(t *testing.T) {
	gemini := &mock.Gemini{}
	_, err := quiz.New(repository.NewMemory(), gemini).Start(context.Background(), "  ")
	gt.Error(t, err)
	gt.True(t, model.IsBadRequest(err))
	gt.A(t, gemini.Prompts).Length(0)
}

func TestStartInvalidOutput(t *testing.T) {
	testCases := map[string]string{
		"not json":     "Here is your quiz!",
		"no questions": `{"topic": "Go", "questions": []}`,
	}

	for name, output := range testCases {
		t.Run(name, func(t *testing.T) {
			gemini := &mock.Gemini{GenerateContentFunc: mock.Reply(output)}
			_, err := quiz.New(repository.NewMemory(), gemini).Start(context.Background(), "Go")
			gt.Error(t, err)
		})
	}
}

func TestStartGenerationError(t *testing.T) {
	gemini := &mock.Gemini{
		GenerateContentFunc: func(context.Context, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return nil, errors.New("unavailable")
		},
	}
	_, err := quiz.New(repository.NewMemory(), gemini).Start(context.Background(), "Go")
	gt.Error(t, err)
}

func TestAnswerUnknownQuestion(t *testing.T) {
	_, err := quiz.New(repository.NewMemory(), &mock.Gemini{}).Answer(context.Background(), model.NewQuestionID(), "a")
	gt.Error(t, err)
	gt.True(t, model.IsNotFound(err))
}
