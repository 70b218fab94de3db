package ingest

import (
	"bytes"
	"context"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sensei/pkg/adapter"
	"github.com/m-mizutani/sensei/pkg/model"
	"github.com/m-mizutani/sensei/pkg/repository"
	"github.com/m-mizutani/sensei/pkg/utils/logging"
)

// DefaultTextSource names pasted text without an explicit source
const DefaultTextSource = "manual_text"

// ErrNothingToIngest is returned when a source yields no chunk
var ErrNothingToIngest = goerr.New("nothing to ingest", goerr.T(model.ErrTagBadRequest))

// UseCase turns learning material into indexed passages
type UseCase struct {
	repo     repository.Repository
	gemini   adapter.Gemini
	storage  adapter.Storage
	splitter Splitter
	pdf      adapter.PDFExtractor
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithStorage archives every ingested source into storage
func WithStorage(s adapter.Storage) Option {
	return func(uc *UseCase) {
		uc.storage = s
	}
}

func WithSplitter(s Splitter) Option {
	return func(uc *UseCase) {
		uc.splitter = s
	}
}

func WithPDFExtractor(fn adapter.PDFExtractor) Option {
	return func(uc *UseCase) {
		uc.pdf = fn
	}
}

func New(repo repository.Repository, gemini adapter.Gemini, opts ...Option) *UseCase {
	uc := &UseCase{
		repo:     repo,
		gemini:   gemini,
		splitter: NewSplitter(),
		pdf:      adapter.ExtractPDFPages,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// Text ingests pasted text and returns the number of stored chunks
func (u *UseCase) Text(ctx context.Context, text, sourceID string) (int, error) {
	if strings.TrimSpace(text) == "" {
		return 0, goerr.New("text is required", goerr.T(model.ErrTagBadRequest))
	}
	if sourceID == "" {
		sourceID = DefaultTextSource
	}

	if err := u.archive(ctx, model.SourceTypeText, sourceID+".txt", []byte(text)); err != nil {
		return 0, err
	}

	return u.index(ctx, model.SourceTypeText, sourceID, []string{text})
}

// PDF ingests a PDF document. Each page is chunked separately.
func (u *UseCase) PDF(ctx context.Context, name string, r io.Reader) (int, error) {
	if !strings.EqualFold(path.Ext(name), ".pdf") {
		return 0, goerr.New("only PDF files are allowed", goerr.V("name", name), goerr.T(model.ErrTagBadRequest))
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to read pdf", goerr.V("name", name))
	}

	pages, err := u.pdf(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, goerr.Wrap(err, "failed to extract pdf text", goerr.V("name", name), goerr.T(model.ErrTagBadRequest))
	}

	if err := u.archive(ctx, model.SourceTypePDF, name, data); err != nil {
		return 0, err
	}

	return u.index(ctx, model.SourceTypePDF, name, pages)
}

func (u *UseCase) index(ctx context.Context, sourceType model.SourceType, sourceID string, documents []string) (int, error) {
	var chunks []string
	for i, doc := range documents {
		split, err := u.splitter.SplitText(doc)
		if err != nil {
			return 0, goerr.Wrap(err, "failed to split document",
				goerr.V("source_id", sourceID),
				goerr.V("document", i))
		}
		chunks = append(chunks, split...)
	}
	if len(chunks) == 0 {
		return 0, goerr.Wrap(ErrNothingToIngest, "no text found in source", goerr.V("source_id", sourceID))
	}

	now := time.Now()
	passages := make([]*model.Passage, len(chunks))
	for i, chunk := range chunks {
		vec, err := u.gemini.Embed(ctx, chunk)
		if err != nil {
			return 0, goerr.Wrap(err, "failed to embed chunk",
				goerr.V("source_id", sourceID),
				goerr.V("seq", i))
		}

		passages[i] = &model.Passage{
			ID:         model.NewPassageID(),
			Text:       chunk,
			SourceType: sourceType,
			SourceID:   sourceID,
			Seq:        i,
			Embedding:  firestore.Vector32(vec),
			CreatedAt:  now,
		}
	}

	if err := u.repo.PutPassages(ctx, passages); err != nil {
		return 0, goerr.Wrap(err, "failed to store passages", goerr.V("source_id", sourceID))
	}

	logging.From(ctx).Info("source ingested",
		"source_type", sourceType,
		"source_id", sourceID,
		"chunks", len(passages),
	)
	return len(passages), nil
}

func (u *UseCase) archive(ctx context.Context, sourceType model.SourceType, name string, data []byte) error {
	if u.storage == nil {
		return nil
	}

	key := path.Join("sources", string(sourceType), time.Now().UTC().Format("20060102T150405Z"), path.Base(name))
	w, err := u.storage.Put(ctx, key)
	if err != nil {
		return goerr.Wrap(err, "failed to open archive writer", goerr.V("key", key))
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return goerr.Wrap(err, "failed to write archive", goerr.V("key", key))
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to close archive writer", goerr.V("key", key))
	}

	logging.From(ctx).Debug("source archived", "key", key)
	return nil
}
