package chat

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sensei/pkg/adapter"
	"github.com/m-mizutani/sensei/pkg/model"
	"github.com/m-mizutani/sensei/pkg/repository"
)

var (
	// ErrTagRetrieval marks failures of embedding or vector search
	ErrTagRetrieval = goerr.NewTag("retrieval")
	// ErrTagGeneration marks failed or empty generation
	ErrTagGeneration = goerr.NewTag("generation")
	// ErrTagStore marks failures of the message or topic store
	ErrTagStore = goerr.NewTag("store")
)

const (
	defaultTopK            = 5
	defaultHistoryLimit    = 10
	defaultSummaryInterval = 10
)

// Suggester proposes what the learner could ask next
type Suggester interface {
	NextSteps(ctx context.Context) ([]string, error)
}

// Summarizer condenses recent conversation into a long-term topic
type Summarizer interface {
	Summarize(ctx context.Context) (*model.LearningTopic, error)
}

// UseCase answers learner questions with retrieved material, conversation
// memory and web search grounding
type UseCase struct {
	repo   repository.Repository
	gemini adapter.Gemini

	suggester  Suggester
	summarizer Summarizer

	topK            int
	historyLimit    int
	summaryInterval int
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithTopK sets the number of passages retrieved per query
func WithTopK(k int) Option {
	return func(uc *UseCase) {
		uc.topK = k
	}
}

// WithHistoryLimit sets the number of recent messages put in the prompt
func WithHistoryLimit(n int) Option {
	return func(uc *UseCase) {
		uc.historyLimit = n
	}
}

// WithSummaryInterval sets how many stored messages trigger a summary
func WithSummaryInterval(n int) Option {
	return func(uc *UseCase) {
		uc.summaryInterval = n
	}
}

func WithSuggester(s Suggester) Option {
	return func(uc *UseCase) {
		uc.suggester = s
	}
}

func WithSummarizer(s Summarizer) Option {
	return func(uc *UseCase) {
		uc.summarizer = s
	}
}

// New creates a new chat UseCase instance
func New(
	repo repository.Repository,
	gemini adapter.Gemini,
	opts ...Option,
) *UseCase {
	uc := &UseCase{
		repo:            repo,
		gemini:          gemini,
		topK:            defaultTopK,
		historyLimit:    defaultHistoryLimit,
		summaryInterval: defaultSummaryInterval,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}
