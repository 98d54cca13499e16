package types

import "errors"

// Chunk represents a bounded, overlapping segment of a document's text.
// One document yields an ordered sequence of chunks; adjacent chunks
// overlap by a configured token count except possibly the last.
type Chunk struct {
	// Identification
	ID         string
	DocumentID string
	SourceName string
	Sequence   int

	// Content
	Text       string
	TokenCount int

	// Absolute byte offsets into the document's normalized text, for
	// traceability back to the source.
	StartOffset int
	EndOffset   int
}

// Validate performs validation of the chunk.
func (c *Chunk) Validate() error {
	if c.ID == "" {
		return errors.New("chunk ID is required")
	}
	if c.DocumentID == "" {
		return errors.New("chunk document ID is required")
	}
	if c.Text == "" {
		return errors.New("chunk text cannot be empty")
	}
	if c.Sequence < 0 {
		return errors.New("chunk sequence must be non-negative")
	}
	if c.StartOffset < 0 || c.EndOffset < c.StartOffset {
		return errors.New("invalid chunk offsets")
	}
	return nil
}

// EstimateTokens estimates the number of tokens in a string using the
// chars/4 heuristic. Used for context budgeting, not for chunk windows,
// which count whitespace-delimited tokens exactly.
func EstimateTokens(text string) int {
	return len(text) / 4
}
