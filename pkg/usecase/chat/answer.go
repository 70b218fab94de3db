package chat

import (
	"context"
	"slices"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sensei/pkg/model"
	"github.com/m-mizutani/sensei/pkg/utils/logging"
	"google.golang.org/genai"
)

// Answer runs the query pipeline: vector retrieval, memory retrieval,
// grounded generation and citation splicing. Any stage failure aborts the
// whole answer.
func (u *UseCase) Answer(ctx context.Context, query string) (*model.Answer, error) {
	if strings.TrimSpace(query) == "" {
		return nil, goerr.Wrap(model.ErrEmptyContent, "query is empty", goerr.T(model.ErrTagBadRequest))
	}

	passages, err := u.retrieveVector(ctx, query)
	if err != nil {
		return nil, err
	}

	history, topics, err := u.retrieveMemory(ctx)
	if err != nil {
		return nil, err
	}

	prompt, err := BuildPrompt(&PromptInput{
		Query:    query,
		Passages: passages,
		History:  history,
		Topics:   topics,
	})
	if err != nil {
		return nil, err
	}

	answer, err := u.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	answer.Passages = passages
	answer.Text = InsertCitations(answer.RawText, answer.Grounding)

	logging.From(ctx).Debug("answer generated",
		"passages", len(passages),
		"history", len(history),
		"topics", len(topics),
		"grounded", answer.Grounding != nil,
		"search_queries", answer.SearchQueries,
	)

	return answer, nil
}

func (u *UseCase) retrieveVector(ctx context.Context, query string) ([]model.RetrievedPassage, error) {
	vec, err := u.gemini.Embed(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed query", goerr.T(ErrTagRetrieval))
	}

	hits, err := u.repo.SearchPassages(ctx, vec, u.topK)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search passages", goerr.T(ErrTagRetrieval))
	}

	passages := make([]model.RetrievedPassage, len(hits))
	for i, h := range hits {
		passages[i] = model.RetrievedPassage{
			Text:     h.Text,
			Rank:     i,
			Distance: h.Distance,
		}
	}
	return passages, nil
}

// retrieveMemory returns recent messages in chronological order and all
// known topics
func (u *UseCase) retrieveMemory(ctx context.Context) ([]*model.Message, []*model.LearningTopic, error) {
	recent, err := u.repo.ListRecentMessages(ctx, u.historyLimit)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to list recent messages", goerr.T(ErrTagStore))
	}
	slices.Reverse(recent)

	topics, err := u.repo.ListTopics(ctx)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to list topics", goerr.T(ErrTagStore))
	}

	return recent, topics, nil
}

func (u *UseCase) generate(ctx context.Context, prompt string) (*model.Answer, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		},
	}

	resp, err := u.gemini.GenerateContent(ctx, contents, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate answer", goerr.T(ErrTagGeneration))
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, goerr.New("no candidate in response", goerr.T(ErrTagGeneration))
	}

	candidate := resp.Candidates[0]
	raw, offsets := joinTextParts(candidate.Content.Parts)
	if raw == "" {
		return nil, goerr.New("empty answer generated",
			goerr.V("finish_reason", candidate.FinishReason),
			goerr.T(ErrTagGeneration))
	}

	answer := &model.Answer{RawText: raw}
	if md := candidate.GroundingMetadata; md != nil {
		answer.Grounding = convertGrounding(md, offsets)
		answer.SearchQueries = md.WebSearchQueries
	}
	return answer, nil
}

// joinTextParts concatenates answer text parts. offsets[i] is the byte
// position of part i in the joined text.
func joinTextParts(parts []*genai.Part) (string, []int) {
	var b strings.Builder
	offsets := make([]int, len(parts))
	for i, p := range parts {
		offsets[i] = b.Len()
		if p == nil || p.Thought {
			continue
		}
		b.WriteString(p.Text)
	}
	return b.String(), offsets
}

// convertGrounding maps grounding metadata onto the joined answer text.
// Supports without a segment cannot be placed and are dropped.
func convertGrounding(md *genai.GroundingMetadata, offsets []int) *model.Grounding {
	if len(md.GroundingSupports) == 0 && len(md.GroundingChunks) == 0 {
		return nil
	}

	g := &model.Grounding{
		Chunks: make([]model.GroundingChunk, len(md.GroundingChunks)),
	}
	for i, c := range md.GroundingChunks {
		switch {
		case c == nil:
		case c.Web != nil:
			g.Chunks[i] = model.GroundingChunk{URI: c.Web.URI, Title: c.Web.Title}
		case c.RetrievedContext != nil:
			g.Chunks[i] = model.GroundingChunk{URI: c.RetrievedContext.URI, Title: c.RetrievedContext.Title}
		}
	}

	for _, s := range md.GroundingSupports {
		if s == nil || s.Segment == nil {
			continue
		}

		base := 0
		if pi := int(s.Segment.PartIndex); pi > 0 && pi < len(offsets) {
			base = offsets[pi]
		}

		indices := make([]int, len(s.GroundingChunkIndices))
		for i, idx := range s.GroundingChunkIndices {
			indices[i] = int(idx)
		}

		g.Supports = append(g.Supports, model.GroundingSupport{
			StartIndex:   base + int(s.Segment.StartIndex),
			EndIndex:     base + int(s.Segment.EndIndex),
			ChunkIndices: indices,
		})
	}

	return g
}
