package chat_test

import (
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/sensei/pkg/model"
	"github.com/m-mizutani/sensei/pkg/usecase/chat"
)

func chunks(uris ...string) []model.GroundingChunk {
	out := make([]model.GroundingChunk, len(uris))
	for i, u := range uris {
		out[i] = model.GroundingChunk{URI: u}
	}
	return out
}

func TestInsertCitations(t *testing.T) {
	testCases := []struct {
		name      string
		text      string
		grounding *model.Grounding
		expected  string
	}{
		{
			name: "single support at end of text",
			text: "Paris is the capital of France.",
			grounding: &model.Grounding{
				Supports: []model.GroundingSupport{{EndIndex: 31, ChunkIndices: []int{0}}},
				Chunks:   chunks("https://example.com"),
			},
			expected: "Paris is the capital of France.[1](https://example.com)",
		},
		{
			name: "two supports keep both fragments in order",
			text: "aaaaaaaaaabbbbbbbbbbcccc",
			grounding: &model.Grounding{
				Supports: []model.GroundingSupport{
					{StartIndex: 0, EndIndex: 10, ChunkIndices: []int{0}},
					{StartIndex: 10, EndIndex: 20, ChunkIndices: []int{1}},
				},
				Chunks: chunks("https://a.example", "https://b.example"),
			},
			expected: "aaaaaaaaaa[1](https://a.example)bbbbbbbbbb[2](https://b.example)cccc",
		},
		{
			name: "supports given in descending order",
			text: "aaaaaaaaaabbbbbbbbbbcccc",
			grounding: &model.Grounding{
				Supports: []model.GroundingSupport{
					{EndIndex: 20, ChunkIndices: []int{1}},
					{EndIndex: 10, ChunkIndices: []int{0}},
				},
				Chunks: chunks("https://a.example", "https://b.example"),
			},
			expected: "aaaaaaaaaa[1](https://a.example)bbbbbbbbbb[2](https://b.example)cccc",
		},
		{
			name: "multiple links joined in given order",
			text: "Water boils at 100C.",
			grounding: &model.Grounding{
				Supports: []model.GroundingSupport{{EndIndex: 20, ChunkIndices: []int{2, 0}}},
				Chunks:   chunks("u0", "u1", "u2"),
			},
			expected: "Water boils at 100C.[3](u2), [1](u0)",
		},
		{
			name: "out of range indices are skipped",
			text: "Go has goroutines.",
			grounding: &model.Grounding{
				Supports: []model.GroundingSupport{{EndIndex: 18, ChunkIndices: []int{5, -1, 0}}},
				Chunks:   chunks("u0"),
			},
			expected: "Go has goroutines.[1](u0)",
		},
		{
			name: "support with only invalid indices inserts nothing",
			text: "Go has goroutines.",
			grounding: &model.Grounding{
				Supports: []model.GroundingSupport{
					{EndIndex: 6, ChunkIndices: []int{3, 9}},
					{EndIndex: 18, ChunkIndices: []int{}},
				},
				Chunks: chunks("u0"),
			},
			expected: "Go has goroutines.",
		},
		{
			name: "offset beyond text is clamped to the end",
			text: "short",
			grounding: &model.Grounding{
				Supports: []model.GroundingSupport{{EndIndex: 100, ChunkIndices: []int{0}}},
				Chunks:   chunks("u0"),
			},
			expected: "short[1](u0)",
		},
		{
			name: "negative offset is clamped to the start",
			text: "short",
			grounding: &model.Grounding{
				Supports: []model.GroundingSupport{{EndIndex: -3, ChunkIndices: []int{0}}},
				Chunks:   chunks("u0"),
			},
			expected: "[1](u0)short",
		},
		{
			name: "multibyte text uses byte offsets",
			text: "東京は日本の首都です。",
			grounding: &model.Grounding{
				Supports: []model.GroundingSupport{{EndIndex: len("東京は日本の首都です"), ChunkIndices: []int{0}}},
				Chunks:   chunks("u0"),
			},
			expected: "東京は日本の首都です[1](u0)。",
		},
		{
			name:      "nil grounding is identity",
			text:      "no search happened",
			grounding: nil,
			expected:  "no search happened",
		},
		{
			name:      "empty supports is identity",
			text:      "no supports",
			grounding: &model.Grounding{Chunks: chunks("u0")},
			expected:  "no supports",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gt.Equal(t, chat.InsertCitations(tc.text, tc.grounding), tc.expected)
		})
	}
}

func TestInsertCitationsLength(t *testing.T) {
	text := "The mitochondria is the powerhouse of the cell. ATP is produced there."
	g := &model.Grounding{
		Supports: []model.GroundingSupport{
			{EndIndex: 47, ChunkIndices: []int{0, 1}},
			{EndIndex: 70, ChunkIndices: []int{1}},
			{EndIndex: 3, ChunkIndices: []int{7}},
		},
		Chunks: chunks("https://bio.example/1", "https://bio.example/2"),
	}

	inserted := len("[1](https://bio.example/1), [2](https://bio.example/2)") + len("[2](https://bio.example/2)")
	out := chat.InsertCitations(text, g)
	gt.Equal(t, len(out), len(text)+inserted)
	gt.S(t, out).Contains("cell.[1](https://bio.example/1), [2](https://bio.example/2)")
	gt.True(t, strings.HasSuffix(out, "there.[2](https://bio.example/2)"))
}

func TestInsertCitationsSameOffset(t *testing.T) {
	text := "Light travels fast."
	g := &model.Grounding{
		Supports: []model.GroundingSupport{
			{EndIndex: 19, ChunkIndices: []int{0}},
			{EndIndex: 19, ChunkIndices: []int{1}},
		},
		Chunks: chunks("u0", "u1"),
	}

	out := chat.InsertCitations(text, g)
	gt.True(t, strings.HasPrefix(out, text))
	gt.S(t, out).Contains("[1](u0)")
	gt.S(t, out).Contains("[2](u1)")
	gt.Equal(t, len(out), len(text)+len("[1](u0)")+len("[2](u1)"))
}

func TestInsertCitationsDoesNotReorderInput(t *testing.T) {
	g := &model.Grounding{
		Supports: []model.GroundingSupport{
			{EndIndex: 1, ChunkIndices: []int{0}},
			{EndIndex: 2, ChunkIndices: []int{0}},
		},
		Chunks: chunks("u0"),
	}

	chat.InsertCitations("abc", g)
	gt.Equal(t, g.Supports[0].EndIndex, 1)
	gt.Equal(t, g.Supports[1].EndIndex, 2)
}
