package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/sensei/pkg/model"
)

// MessageStore is the ordered conversation log (short-term memory)
type MessageStore interface {
	// PutMessage appends a message to the log
	PutMessage(ctx context.Context, msg *model.Message) error

	// ListRecentMessages returns up to limit messages, most recent first
	ListRecentMessages(ctx context.Context, limit int) ([]*model.Message, error)

	// ListRecentMessagesBySender returns up to limit messages of sender, most recent first
	ListRecentMessagesBySender(ctx context.Context, sender model.Sender, limit int) ([]*model.Message, error)

	// CountMessages returns the number of stored messages
	CountMessages(ctx context.Context) (int, error)
}

// TopicStore holds learned topics (long-term memory)
type TopicStore interface {
	// UpsertTopic inserts a topic or updates the description of the
	// topic with equal text. ID and CreatedAt of an existing topic are kept.
	UpsertTopic(ctx context.Context, topic *model.LearningTopic) (*model.LearningTopic, error)

	// ListTopics returns all topics in no particular order
	ListTopics(ctx context.Context) ([]*model.LearningTopic, error)

	// ListRecentTopics returns up to limit topics, newest CreatedAt first
	ListRecentTopics(ctx context.Context, limit int) ([]*model.LearningTopic, error)
}

// QuizStore persists generated quizzes
type QuizStore interface {
	// PutQuiz saves a quiz with its questions
	PutQuiz(ctx context.Context, quiz *model.Quiz) error

	// GetQuestion returns a question; model.ErrNotFound if missing
	GetQuestion(ctx context.Context, id model.QuestionID) (*model.Question, error)

	// ListQuestions returns questions of a quiz ordered by Seq
	ListQuestions(ctx context.Context, quizID model.QuizID) ([]*model.Question, error)
}

// PassageIndex is the vector index over ingested passages
type PassageIndex interface {
	// PutPassages indexes passages with their embeddings
	PutPassages(ctx context.Context, passages []*model.Passage) error

	// SearchPassages returns up to limit passages nearest to embedding by
	// Euclidean distance, nearest first
	SearchPassages(ctx context.Context, embedding firestore.Vector32, limit int) ([]*model.Passage, error)
}

// Repository is the full persistence layer
type Repository interface {
	MessageStore
	TopicStore
	QuizStore
	PassageIndex
}
