package model

import (
	"time"

	"github.com/google/uuid"
)

type TopicID string

// NewTopicID generates a new unique TopicID
func NewTopicID() TopicID {
	return TopicID(uuid.New().String())
}

// LearningTopic is a long-term memory entry. Topic text is the unique key.
type LearningTopic struct {
	ID          TopicID   `json:"id"`
	Topic       string    `json:"topic"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
