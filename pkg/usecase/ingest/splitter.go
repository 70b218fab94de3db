package ingest

import (
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"
)

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 150
)

var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter cuts a document into chunks
type Splitter interface {
	SplitText(text string) ([]string, error)
}

// NewSplitter returns a recursive character splitter with chunks of 1000
// characters overlapping by 150. Length is counted in runes. opts override
// the defaults.
func NewSplitter(opts ...textsplitter.Option) Splitter {
	base := []textsplitter.Option{
		textsplitter.WithChunkSize(defaultChunkSize),
		textsplitter.WithChunkOverlap(defaultChunkOverlap),
		textsplitter.WithSeparators(defaultSeparators),
		textsplitter.WithLenFunc(utf8.RuneCountInString),
	}
	return textsplitter.NewRecursiveCharacter(append(base, opts...)...)
}
