package chat

import (
	"fmt"
	"sort"
	"strings"

	"github.com/m-mizutani/sensei/pkg/model"
)

// InsertCitations splices citation links into text right after the end
// offset of each grounding support. A support citing chunks 0 and 2 becomes
// "[1](uri0), [3](uri2)". Supports are applied from the largest end offset
// down so pending offsets always refer to the unmodified text. Chunk indices
// outside of g.Chunks are dropped, and a support left without any valid
// link inserts nothing. Offsets outside the text are clamped to it.
func InsertCitations(text string, g *model.Grounding) string {
	if g == nil || len(g.Supports) == 0 {
		return text
	}

	supports := make([]model.GroundingSupport, len(g.Supports))
	copy(supports, g.Supports)
	sort.SliceStable(supports, func(i, j int) bool {
		return supports[i].EndIndex > supports[j].EndIndex
	})

	size := len(text)
	for _, s := range supports {
		marker := citationMarker(s.ChunkIndices, g.Chunks)
		if marker == "" {
			continue
		}

		at := min(max(s.EndIndex, 0), size)
		text = text[:at] + marker + text[at:]
	}

	return text
}

func citationMarker(indices []int, chunks []model.GroundingChunk) string {
	links := make([]string, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(chunks) {
			continue
		}
		links = append(links, fmt.Sprintf("[%d](%s)", i+1, chunks[i].URI))
	}
	return strings.Join(links, ", ")
}
