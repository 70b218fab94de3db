package adapter_test

import (
	"context"
	"os"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/sensei/pkg/adapter"
	"google.golang.org/genai"
)

func newTestGemini(t *testing.T) *adapter.GeminiClient {
	backend := adapter.GeminiBackend{
		APIKey:   os.Getenv("TEST_GEMINI_API_KEY"),
		Project:  os.Getenv("TEST_GEMINI_PROJECT"),
		Location: "us-central1",
	}
	if backend.APIKey == "" && backend.Project == "" {
		t.Skip("TEST_GEMINI_API_KEY or TEST_GEMINI_PROJECT is not set")
	}

	client, err := adapter.NewGemini(context.Background(), backend, adapter.WithGenerativeModel("gemini-2.5-flash"))
	gt.NoError(t, err)
	return client
}

func TestGenerateContent(t *testing.T) {
	client := newTestGemini(t)
	ctx := context.Background()

	contents := []*genai.Content{
		genai.NewContentFromText("Hello, what is the capital of France?", genai.RoleUser),
	}

	resp, err := client.GenerateContent(ctx, contents, nil)
	gt.NoError(t, err)
	gt.S(t, adapter.ResponseText(resp)).Contains("Paris")
}

func TestGenerateContentWithSearch(t *testing.T) {
	client := newTestGemini(t)
	ctx := context.Background()

	contents := []*genai.Content{
		genai.NewContentFromText("Who won the most recent Nobel Prize in Physics?", genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}

	resp, err := client.GenerateContent(ctx, contents, config)
	gt.NoError(t, err)
	gt.A(t, resp.Candidates).Longer(0)
	t.Log("grounding:", resp.Candidates[0].GroundingMetadata != nil)
}

func TestEmbed(t *testing.T) {
	client := newTestGemini(t)
	ctx := context.Background()

	vec, err := client.Embed(ctx, "photosynthesis converts light into chemical energy")
	gt.NoError(t, err)
	gt.A(t, vec).Length(768)
}

func TestResponseText(t *testing.T) {
	t.Run("joins text parts", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []*genai.Part{
					{Text: "Paris is "},
					{Text: "thinking...", Thought: true},
					{Text: "the capital."},
				}}},
			},
		}
		gt.Equal(t, adapter.ResponseText(resp), "Paris is the capital.")
	})

	t.Run("no candidates", func(t *testing.T) {
		gt.Equal(t, adapter.ResponseText(&genai.GenerateContentResponse{}), "")
		gt.Equal(t, adapter.ResponseText(nil), "")
	})
}
