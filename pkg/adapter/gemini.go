package adapter

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

type Gemini interface {
	GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	Embed(ctx context.Context, text string) ([]float32, error)
}

type GeminiClient struct {
	client          *genai.Client
	generativeModel string
	embeddingModel  string
	dimensions      int32
}

type GeminiOption func(*GeminiClient)

func WithGenerativeModel(model string) GeminiOption {
	return func(g *GeminiClient) {
		g.generativeModel = model
	}
}

func WithEmbeddingModel(model string) GeminiOption {
	return func(g *GeminiClient) {
		g.embeddingModel = model
	}
}

// WithEmbeddingDimensions sets output dimensionality of embeddings. The
// passage index must be built with the same value.
func WithEmbeddingDimensions(n int) GeminiOption {
	return func(g *GeminiClient) {
		g.dimensions = int32(n)
	}
}

// GeminiBackend selects how the client authenticates
type GeminiBackend struct {
	APIKey   string
	Project  string
	Location string
}

func (b GeminiBackend) clientConfig() *genai.ClientConfig {
	if b.APIKey != "" {
		return &genai.ClientConfig{
			APIKey:  b.APIKey,
			Backend: genai.BackendGeminiAPI,
		}
	}
	return &genai.ClientConfig{
		Project:  b.Project,
		Location: b.Location,
		Backend:  genai.BackendVertexAI,
	}
}

func NewGemini(ctx context.Context, backend GeminiBackend, opts ...GeminiOption) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, backend.clientConfig())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client")
	}

	g := &GeminiClient{
		client:          client,
		generativeModel: "gemini-2.5-pro",
		embeddingModel:  "gemini-embedding-001",
		dimensions:      768,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

// WithModel returns a client sharing the connection but generating with
// another model. Used for the light model of summaries and quizzes.
func (g *GeminiClient) WithModel(model string) *GeminiClient {
	cp := *g
	cp.generativeModel = model
	return &cp
}

func (g *GeminiClient) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.generativeModel, contents, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content", goerr.V("model", g.generativeModel))
	}
	return resp, nil
}

func (g *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := g.client.Models.EmbedContent(ctx, g.embeddingModel, genai.Text(text), &genai.EmbedContentConfig{
		OutputDimensionality: &g.dimensions,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed content", goerr.V("model", g.embeddingModel))
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, goerr.New("empty embedding returned", goerr.V("model", g.embeddingModel))
	}

	return resp.Embeddings[0].Values, nil
}

// ResponseText concatenates text parts of the first candidate
func ResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" && !part.Thought {
			text += part.Text
		}
	}
	return text
}
