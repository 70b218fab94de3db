package model

import (
	"time"

	"github.com/google/uuid"
)

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Validate checks if the sender is one of the known participants
func (s Sender) Validate() error {
	switch s {
	case SenderUser, SenderAssistant:
		return nil
	default:
		return ErrInvalidSender
	}
}

type MessageID string

// NewMessageID generates a time-ordered MessageID. Lexical order of IDs
// follows creation order, so it breaks ties between equal timestamps.
func NewMessageID() MessageID {
	return MessageID(uuid.Must(uuid.NewV7()).String())
}

// Message is one immutable turn of the conversation log
type Message struct {
	ID        MessageID `json:"id"`
	Sender    Sender    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"timestamp"`
}

// NewMessage builds a message stamped with the current time
func NewMessage(sender Sender, content string) (*Message, error) {
	if err := sender.Validate(); err != nil {
		return nil, err
	}
	if content == "" {
		return nil, ErrEmptyContent
	}

	return &Message{
		ID:        NewMessageID(),
		Sender:    sender,
		Content:   content,
		CreatedAt: time.Now(),
	}, nil
}
