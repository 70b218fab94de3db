package model

import (
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
)

type PassageID string

// NewPassageID generates a new unique PassageID
func NewPassageID() PassageID {
	return PassageID(uuid.New().String())
}

type SourceType string

const (
	SourceTypeText SourceType = "text"
	SourceTypePDF  SourceType = "pdf"
)

// Passage is an indexed chunk of ingested learning material
type Passage struct {
	ID         PassageID
	Text       string
	SourceType SourceType
	SourceID   string
	Seq        int
	Embedding  firestore.Vector32
	CreatedAt  time.Time

	// Distance is filled by vector search and never written
	Distance float64 `firestore:"Distance,omitempty"`
}

// RetrievedPassage is a search hit. Rank 0 is the most similar passage.
type RetrievedPassage struct {
	Text     string
	Rank     int
	Distance float64
}
