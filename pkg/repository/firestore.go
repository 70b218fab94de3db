package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sensei/pkg/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	collectionMessages  = "messages"
	collectionTopics    = "topics"
	collectionQuizzes   = "quizzes"
	collectionQuestions = "questions"
	collectionPassages  = "passages"
)

// Firestore implements Repository. Passage search requires a vector index
// on passages.Embedding with the dimension of the embedding model.
type Firestore struct {
	client *firestore.Client
}

var _ Repository = (*Firestore)(nil)

// New creates a Firestore repository
func New(projectID, databaseID string) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(context.Background(), projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project_id", projectID),
			goerr.V("database_id", databaseID))
	}

	return &Firestore{client: client}, nil
}

func (r *Firestore) Close() error {
	return r.client.Close()
}

func (r *Firestore) PutMessage(ctx context.Context, msg *model.Message) error {
	if _, err := r.client.Collection(collectionMessages).Doc(string(msg.ID)).Set(ctx, msg); err != nil {
		return goerr.Wrap(err, "failed to put message", goerr.V("message_id", msg.ID))
	}
	return nil
}

// Message IDs are UUIDv7, so document ID order is creation order with
// ties resolved by insertion.
func (r *Firestore) ListRecentMessages(ctx context.Context, limit int) ([]*model.Message, error) {
	q := r.client.Collection(collectionMessages).
		OrderBy(firestore.DocumentID, firestore.Desc).
		Limit(limit)
	return collect[model.Message](ctx, q.Documents(ctx), "message")
}

func (r *Firestore) ListRecentMessagesBySender(ctx context.Context, sender model.Sender, limit int) ([]*model.Message, error) {
	q := r.client.Collection(collectionMessages).
		Where("Sender", "==", string(sender)).
		OrderBy(firestore.DocumentID, firestore.Desc).
		Limit(limit)
	return collect[model.Message](ctx, q.Documents(ctx), "message")
}

func (r *Firestore) CountMessages(ctx context.Context) (int, error) {
	result, err := r.client.Collection(collectionMessages).NewAggregationQuery().WithCount("all").Get(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count messages")
	}

	v, ok := result["all"].(*firestorepb.Value)
	if !ok {
		return 0, goerr.New("unexpected count result type", goerr.V("result", result))
	}
	return int(v.GetIntegerValue()), nil
}

func topicDocID(topic string) string {
	h := sha256.Sum256([]byte(topic))
	return hex.EncodeToString(h[:])
}

func (r *Firestore) UpsertTopic(ctx context.Context, topic *model.LearningTopic) (*model.LearningTopic, error) {
	if topic.Topic == "" {
		return nil, goerr.New("topic is empty", goerr.T(model.ErrTagBadRequest))
	}

	ref := r.client.Collection(collectionTopics).Doc(topicDocID(topic.Topic))
	var saved model.LearningTopic

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		now := time.Now()
		saved = *topic

		doc, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
			if saved.ID == "" {
				saved.ID = model.NewTopicID()
			}
			if saved.CreatedAt.IsZero() {
				saved.CreatedAt = now
			}
		case err != nil:
			return goerr.Wrap(err, "failed to get topic")
		default:
			var existing model.LearningTopic
			if err := doc.DataTo(&existing); err != nil {
				return goerr.Wrap(err, "failed to decode topic")
			}
			saved.ID = existing.ID
			saved.CreatedAt = existing.CreatedAt
		}
		saved.UpdatedAt = now

		return tx.Set(ref, &saved)
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to upsert topic", goerr.V("topic", topic.Topic))
	}

	return &saved, nil
}

func (r *Firestore) ListTopics(ctx context.Context) ([]*model.LearningTopic, error) {
	return collect[model.LearningTopic](ctx, r.client.Collection(collectionTopics).Documents(ctx), "topic")
}

func (r *Firestore) ListRecentTopics(ctx context.Context, limit int) ([]*model.LearningTopic, error) {
	q := r.client.Collection(collectionTopics).
		OrderBy("CreatedAt", firestore.Desc).
		Limit(limit)
	return collect[model.LearningTopic](ctx, q.Documents(ctx), "topic")
}

func (r *Firestore) PutQuiz(ctx context.Context, quiz *model.Quiz) error {
	docs := make([]bulkDoc, 0, len(quiz.Questions)+1)
	docs = append(docs, bulkDoc{ref: r.client.Collection(collectionQuizzes).Doc(string(quiz.ID)), data: quiz})
	for _, q := range quiz.Questions {
		docs = append(docs, bulkDoc{ref: r.client.Collection(collectionQuestions).Doc(string(q.ID)), data: q})
	}

	return r.bulkSet(ctx, docs, goerr.V("quiz_id", quiz.ID))
}

func (r *Firestore) GetQuestion(ctx context.Context, id model.QuestionID) (*model.Question, error) {
	doc, err := r.client.Collection(collectionQuestions).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "question not found", goerr.V("question_id", id), goerr.T(model.ErrTagNotFound))
		}
		return nil, goerr.Wrap(err, "failed to get question", goerr.V("question_id", id))
	}

	var q model.Question
	if err := doc.DataTo(&q); err != nil {
		return nil, goerr.Wrap(err, "failed to decode question", goerr.V("question_id", id))
	}
	return &q, nil
}

func (r *Firestore) ListQuestions(ctx context.Context, quizID model.QuizID) ([]*model.Question, error) {
	q := r.client.Collection(collectionQuestions).Where("QuizID", "==", string(quizID))
	questions, err := collect[model.Question](ctx, q.Documents(ctx), "question")
	if err != nil {
		return nil, err
	}

	sort.Slice(questions, func(i, j int) bool { return questions[i].Seq < questions[j].Seq })
	return questions, nil
}

func (r *Firestore) PutPassages(ctx context.Context, passages []*model.Passage) error {
	if len(passages) == 0 {
		return nil
	}

	docs := make([]bulkDoc, len(passages))
	for i, p := range passages {
		docs[i] = bulkDoc{ref: r.client.Collection(collectionPassages).Doc(string(p.ID)), data: p}
	}

	return r.bulkSet(ctx, docs, goerr.V("source_id", passages[0].SourceID))
}

func (r *Firestore) SearchPassages(ctx context.Context, embedding firestore.Vector32, limit int) ([]*model.Passage, error) {
	vq := r.client.Collection(collectionPassages).FindNearest(
		"Embedding",
		embedding,
		limit,
		firestore.DistanceMeasureEuclidean,
		&firestore.FindNearestOptions{DistanceResultField: "Distance"},
	)

	passages, err := collect[model.Passage](ctx, vq.Documents(ctx), "passage")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search passages", goerr.V("limit", limit))
	}
	return passages, nil
}

type bulkDoc struct {
	ref  *firestore.DocumentRef
	data any
}

type bulkWriter interface {
	Set(doc *firestore.DocumentRef, data any, opts ...firestore.SetOption) (*firestore.BulkWriterJob, error)
	End()
}

func (r *Firestore) bulkSet(ctx context.Context, docs []bulkDoc, opt goerr.Option) error {
	return writeBulk(r.client.BulkWriter(ctx), docs, opt)
}

// writeBulk enqueues docs and waits for every job. The writer is always
// ended, also when enqueueing fails.
func writeBulk(bw bulkWriter, docs []bulkDoc, opt goerr.Option) error {
	jobs := make([]*firestore.BulkWriterJob, 0, len(docs))
	for _, d := range docs {
		job, err := bw.Set(d.ref, d.data)
		if err != nil {
			bw.End()
			return goerr.Wrap(err, "failed to enqueue document", opt)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return goerr.Wrap(err, "failed to write document", opt)
		}
	}
	return nil
}

func collect[T any](ctx context.Context, iter *firestore.DocumentIterator, kind string) ([]*T, error) {
	defer iter.Stop()

	var result []*T
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate documents", goerr.V("kind", kind))
		}

		var v T
		if err := doc.DataTo(&v); err != nil {
			return nil, goerr.Wrap(err, "failed to decode document",
				goerr.V("kind", kind),
				goerr.V("doc_id", doc.Ref.ID))
		}
		result = append(result, &v)
	}
	return result, nil
}
