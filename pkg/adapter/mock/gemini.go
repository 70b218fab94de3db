// Package mock provides hand-written test doubles for adapter interfaces.
package mock

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// Gemini is a function-field mock of adapter.Gemini. Calls are recorded.
type Gemini struct {
	GenerateContentFunc func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	EmbedFunc           func(ctx context.Context, text string) ([]float32, error)

	mu       sync.Mutex
	Prompts  []string
	Configs  []*genai.GenerateContentConfig
	Embedded []string
}

func (m *Gemini) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.mu.Lock()
	for _, c := range contents {
		for _, p := range c.Parts {
			m.Prompts = append(m.Prompts, p.Text)
		}
	}
	m.Configs = append(m.Configs, config)
	m.mu.Unlock()

	if m.GenerateContentFunc == nil {
		return nil, goerr.New("GenerateContent is not mocked")
	}
	return m.GenerateContentFunc(ctx, contents, config)
}

func (m *Gemini) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.Embedded = append(m.Embedded, text)
	m.mu.Unlock()

	if m.EmbedFunc == nil {
		return []float32{0, 0, 0}, nil
	}
	return m.EmbedFunc(ctx, text)
}

// LastPrompt returns the text of the most recent generation request
func (m *Gemini) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Prompts) == 0 {
		return ""
	}
	return m.Prompts[len(m.Prompts)-1]
}

// TextResponse builds a single-candidate response with the given text
func TextResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: genai.NewContentFromText(text, genai.RoleModel)},
		},
	}
}

// Reply returns a GenerateContentFunc answering every call with text
func Reply(text string) func(context.Context, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return func(context.Context, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		return TextResponse(text), nil
	}
}
