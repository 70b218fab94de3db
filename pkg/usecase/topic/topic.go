package topic

import (
	"context"
	"sort"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sensei/pkg/adapter"
	"github.com/m-mizutani/sensei/pkg/model"
	"github.com/m-mizutani/sensei/pkg/repository"
)

const defaultWindow = 10

// UseCase maintains long-term memory: it summarizes recent conversation
// into learning topics and lists them
type UseCase struct {
	repo   repository.Repository
	gemini adapter.Gemini
	window int
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithWindow sets how many recent messages are summarized
func WithWindow(n int) Option {
	return func(uc *UseCase) {
		uc.window = n
	}
}

// New creates a new topic UseCase instance
func New(repo repository.Repository, gemini adapter.Gemini, opts ...Option) *UseCase {
	uc := &UseCase{
		repo:   repo,
		gemini: gemini,
		window: defaultWindow,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// List returns all topics sorted by topic text
func (u *UseCase) List(ctx context.Context) ([]*model.LearningTopic, error) {
	topics, err := u.repo.ListTopics(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list topics")
	}

	sort.Slice(topics, func(i, j int) bool { return topics[i].Topic < topics[j].Topic })
	return topics, nil
}
