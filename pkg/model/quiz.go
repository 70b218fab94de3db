package model

import (
	"time"

	"github.com/google/uuid"
)

type QuizID string

func NewQuizID() QuizID {
	return QuizID(uuid.New().String())
}

type QuestionID string

func NewQuestionID() QuestionID {
	return QuestionID(uuid.New().String())
}

// DefaultExplanation is used when the model omitted an explanation
const DefaultExplanation = "No explanation provided."

type Quiz struct {
	ID        QuizID      `json:"quiz_id"`
	Topic     string      `json:"topic"`
	Questions []*Question `json:"questions" firestore:"-"`
	CreatedAt time.Time   `json:"created_at"`
}

// Options holds the four choices of a multiple-choice question
type Options struct {
	A string `json:"a"`
	B string `json:"b"`
	C string `json:"c"`
	D string `json:"d"`
}

type Question struct {
	ID            QuestionID `json:"id"`
	QuizID        QuizID     `json:"quiz_id"`
	Seq           int        `json:"seq"`
	Text          string     `json:"question_text"`
	Options       Options    `json:"options"`
	CorrectAnswer string     `json:"-"`
	Explanation   string     `json:"-"`
}

// QuizResult is the outcome of answering one question
type QuizResult struct {
	Correct       bool      `json:"is_correct"`
	Explanation   string    `json:"explanation"`
	CorrectAnswer string    `json:"correct_answer"`
	Next          *Question `json:"next_question"`
}
