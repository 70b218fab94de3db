package model

// Grounding is the source attribution a model attaches when it decided to
// search. A nil *Grounding means the answer was not grounded.
type Grounding struct {
	Supports []GroundingSupport
	Chunks   []GroundingChunk
}

// GroundingSupport ties the span [StartIndex, EndIndex) of the raw answer
// to chunks. Offsets are byte offsets into the raw text.
type GroundingSupport struct {
	StartIndex   int
	EndIndex     int
	ChunkIndices []int
}

type GroundingChunk struct {
	URI   string
	Title string
}

// Answer is the result of one orchestrated query
type Answer struct {
	Text          string
	RawText       string
	Grounding     *Grounding
	Passages      []RetrievedPassage
	SearchQueries []string
}
