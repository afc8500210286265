package model

import (
	"errors"
	"fmt"
)

// ErrInvalidOffsets is returned by ProcessedChapter.Validate.
var ErrInvalidOffsets = errors.New("model: invalid foreign word offsets")

// ForeignWordData records one substituted occurrence. StartIndex and
// EndIndex are byte offsets into ProcessedChapter.ProcessedContent and span
// the whole rendering of the substitution.
type ForeignWordData struct {
	OriginalWord string
	ForeignWord  string
	StartIndex   int
	EndIndex     int
	// RefID is the stable reference id carried by the rendering.
	RefID     string
	WordEntry *WordEntry
}

// ProcessedChapter is a chapter with a controlled subset of its words
// replaced by foreign equivalents.
type ProcessedChapter struct {
	Chapter
	ProcessedContent string
	ForeignWords     []ForeignWordData
}

// Validate checks that ForeignWords are sorted, non-overlapping and inside
// ProcessedContent.
func (p *ProcessedChapter) Validate() error {
	prevEnd := 0
	for i, fw := range p.ForeignWords {
		switch {
		case fw.StartIndex >= fw.EndIndex:
			return fmt.Errorf("%w: entry %d is empty", ErrInvalidOffsets, i)
		case fw.StartIndex < prevEnd:
			return fmt.Errorf("%w: entry %d overlaps or is out of order", ErrInvalidOffsets, i)
		case fw.EndIndex > len(p.ProcessedContent):
			return fmt.Errorf("%w: entry %d ends past content", ErrInvalidOffsets, i)
		}
		prevEnd = fw.EndIndex
	}
	return nil
}

// At returns the processed text covered by the i-th foreign word.
func (p *ProcessedChapter) At(i int) string {
	fw := p.ForeignWords[i]
	return p.ProcessedContent[fw.StartIndex:fw.EndIndex]
}
