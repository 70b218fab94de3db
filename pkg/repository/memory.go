package repository

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sensei/pkg/model"
)

// Memory is an in-process Repository. It is safe for concurrent use and
// backs tests and the "memory" backend.
type Memory struct {
	mu        sync.RWMutex
	messages  []*model.Message
	topics    map[string]*model.LearningTopic
	quizzes   map[model.QuizID]*model.Quiz
	questions map[model.QuestionID]*model.Question
	passages  []*model.Passage
}

var _ Repository = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		topics:    make(map[string]*model.LearningTopic),
		quizzes:   make(map[model.QuizID]*model.Quiz),
		questions: make(map[model.QuestionID]*model.Question),
	}
}

func (m *Memory) PutMessage(ctx context.Context, msg *model.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *msg
	m.messages = append(m.messages, &cp)
	return nil
}

func (m *Memory) ListRecentMessages(ctx context.Context, limit int) ([]*model.Message, error) {
	return m.recentMessages(limit, func(*model.Message) bool { return true }), nil
}

func (m *Memory) ListRecentMessagesBySender(ctx context.Context, sender model.Sender, limit int) ([]*model.Message, error) {
	return m.recentMessages(limit, func(msg *model.Message) bool { return msg.Sender == sender }), nil
}

// recentMessages walks the log backwards. The log is in insertion order,
// so equal timestamps keep insertion order.
func (m *Memory) recentMessages(limit int, match func(*model.Message) bool) []*model.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sorted := make([]*model.Message, len(m.messages))
	copy(sorted, m.messages)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	var result []*model.Message
	for i := len(sorted) - 1; i >= 0 && len(result) < limit; i-- {
		if match(sorted[i]) {
			cp := *sorted[i]
			result = append(result, &cp)
		}
	}
	return result
}

func (m *Memory) CountMessages(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages), nil
}

func (m *Memory) UpsertTopic(ctx context.Context, topic *model.LearningTopic) (*model.LearningTopic, error) {
	if topic.Topic == "" {
		return nil, goerr.New("topic is empty", goerr.T(model.ErrTagBadRequest))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	saved := *topic
	if existing, ok := m.topics[topic.Topic]; ok {
		saved.ID = existing.ID
		saved.CreatedAt = existing.CreatedAt
	} else {
		if saved.ID == "" {
			saved.ID = model.NewTopicID()
		}
		if saved.CreatedAt.IsZero() {
			saved.CreatedAt = now
		}
	}
	saved.UpdatedAt = now

	m.topics[saved.Topic] = &saved
	result := saved
	return &result, nil
}

func (m *Memory) ListTopics(ctx context.Context) ([]*model.LearningTopic, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*model.LearningTopic, 0, len(m.topics))
	for _, t := range m.topics {
		cp := *t
		result = append(result, &cp)
	}
	return result, nil
}

func (m *Memory) ListRecentTopics(ctx context.Context, limit int) ([]*model.LearningTopic, error) {
	topics, err := m.ListTopics(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(topics, func(i, j int) bool {
		if topics[i].CreatedAt.Equal(topics[j].CreatedAt) {
			return topics[i].Topic < topics[j].Topic
		}
		return topics[i].CreatedAt.After(topics[j].CreatedAt)
	})

	if len(topics) > limit {
		topics = topics[:limit]
	}
	return topics, nil
}

func (m *Memory) PutQuiz(ctx context.Context, quiz *model.Quiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *quiz
	cp.Questions = nil
	m.quizzes[quiz.ID] = &cp
	for _, q := range quiz.Questions {
		qc := *q
		m.questions[q.ID] = &qc
	}
	return nil
}

func (m *Memory) GetQuestion(ctx context.Context, id model.QuestionID) (*model.Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q, ok := m.questions[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "question not found", goerr.V("question_id", id), goerr.T(model.ErrTagNotFound))
	}
	cp := *q
	return &cp, nil
}

func (m *Memory) ListQuestions(ctx context.Context, quizID model.QuizID) ([]*model.Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*model.Question
	for _, q := range m.questions {
		if q.QuizID == quizID {
			cp := *q
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Seq < result[j].Seq })
	return result, nil
}

func (m *Memory) PutPassages(ctx context.Context, passages []*model.Passage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range passages {
		cp := *p
		m.passages = append(m.passages, &cp)
	}
	return nil
}

// SearchPassages is a brute-force L2 search. Ties are broken by insertion
// order so results are deterministic for a fixed index.
func (m *Memory) SearchPassages(ctx context.Context, embedding firestore.Vector32, limit int) ([]*model.Passage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type hit struct {
		passage  *model.Passage
		distance float64
	}
	hits := make([]hit, 0, len(m.passages))
	for _, p := range m.passages {
		if len(p.Embedding) != len(embedding) {
			return nil, goerr.New("embedding dimension mismatch",
				goerr.V("index", len(p.Embedding)),
				goerr.V("query", len(embedding)))
		}
		hits = append(hits, hit{passage: p, distance: euclidean(p.Embedding, embedding)})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].distance < hits[j].distance })
	if len(hits) > limit {
		hits = hits[:limit]
	}

	result := make([]*model.Passage, len(hits))
	for i, h := range hits {
		cp := *h.passage
		cp.Distance = h.distance
		result[i] = &cp
	}
	return result, nil
}

func euclidean(a, b firestore.Vector32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
