package quiz

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"strings"
	"text/template"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sensei/pkg/adapter"
	"github.com/m-mizutani/sensei/pkg/model"
	"github.com/m-mizutani/sensei/pkg/repository"
	"github.com/m-mizutani/sensei/pkg/utils/logging"
	"google.golang.org/genai"
)

//go:embed prompt/quiz.md
var quizPromptRaw string

var quizPromptTmpl = template.Must(template.New("quiz").Parse(quizPromptRaw))

const defaultQuestionCount = 5

// UseCase generates quizzes and checks answers
type UseCase struct {
	repo   repository.Repository
	gemini adapter.Gemini
	count  int
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithQuestionCount sets the number of questions requested per quiz
func WithQuestionCount(n int) Option {
	return func(uc *UseCase) {
		uc.count = n
	}
}

func New(repo repository.Repository, gemini adapter.Gemini, opts ...Option) *UseCase {
	uc := &UseCase{
		repo:   repo,
		gemini: gemini,
		count:  defaultQuestionCount,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

type quizPayload struct {
	Topic     string            `json:"topic"`
	Questions []questionPayload `json:"questions"`
}

type questionPayload struct {
	QuestionText  string        `json:"question_text"`
	Options       model.Options `json:"options"`
	CorrectAnswer string        `json:"correct_answer" jsonschema:"key of the correct option: a, b, c or d"`
	Explanation   string        `json:"explanation"`
}

// Start generates and stores a new quiz about topic
func (u *UseCase) Start(ctx context.Context, topic string) (*model.Quiz, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, goerr.New("topic is required", goerr.T(model.ErrTagBadRequest))
	}

	var buf bytes.Buffer
	if err := quizPromptTmpl.Execute(&buf, map[string]any{
		"Topic": topic,
		"Count": u.count,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to execute quiz prompt template")
	}

	schema, err := adapter.ResponseSchema[quizPayload]()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build quiz schema")
	}

	resp, err := u.gemini.GenerateContent(ctx,
		[]*genai.Content{genai.NewContentFromText(buf.String(), genai.RoleUser)},
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   schema,
		},
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate quiz", goerr.V("topic", topic))
	}

	payload, err := parseQuiz(adapter.ResponseText(resp))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse quiz", goerr.V("topic", topic))
	}

	quiz := &model.Quiz{
		ID:        model.NewQuizID(),
		Topic:     topic,
		CreatedAt: time.Now(),
	}
	for i, q := range payload.Questions {
		explanation := strings.TrimSpace(q.Explanation)
		if explanation == "" {
			explanation = model.DefaultExplanation
		}

		quiz.Questions = append(quiz.Questions, &model.Question{
			ID:            model.NewQuestionID(),
			QuizID:        quiz.ID,
			Seq:           i,
			Text:          q.QuestionText,
			Options:       q.Options,
			CorrectAnswer: normalizeKey(q.CorrectAnswer),
			Explanation:   explanation,
		})
	}

	if err := u.repo.PutQuiz(ctx, quiz); err != nil {
		return nil, goerr.Wrap(err, "failed to store quiz", goerr.V("quiz_id", quiz.ID))
	}

	logging.From(ctx).Info("quiz created", "quiz_id", quiz.ID, "topic", topic, "questions", len(quiz.Questions))
	return quiz, nil
}

// Answer checks an answer and returns the next question of the quiz, if any
func (u *UseCase) Answer(ctx context.Context, id model.QuestionID, answer string) (*model.QuizResult, error) {
	question, err := u.repo.GetQuestion(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get question", goerr.V("question_id", id))
	}

	questions, err := u.repo.ListQuestions(ctx, question.QuizID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list questions", goerr.V("quiz_id", question.QuizID))
	}

	result := &model.QuizResult{
		Correct:       normalizeKey(answer) == question.CorrectAnswer,
		Explanation:   question.Explanation,
		CorrectAnswer: question.CorrectAnswer,
	}
	for _, q := range questions {
		if q.Seq > question.Seq {
			result.Next = q
			break
		}
	}

	return result, nil
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// parseQuiz decodes model output. Code fences are stripped because models
// sometimes wrap JSON in them despite the MIME type.
func parseQuiz(output string) (*quizPayload, error) {
	text := stripCodeFence(output)

	var payload quizPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, goerr.Wrap(err, "quiz output is not valid JSON", goerr.V("output", output))
	}
	if len(payload.Questions) == 0 {
		return nil, goerr.New("quiz has no questions", goerr.V("output", output))
	}

	return &payload, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
