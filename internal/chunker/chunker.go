package chunker

import (
	"errors"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/dshills/docassist/pkg/types"
)

const (
	// DefaultMaxChunkTokens is the target maximum token count per chunk.
	DefaultMaxChunkTokens = 1000

	// DefaultOverlapTokens is the default overlap between adjacent chunks.
	DefaultOverlapTokens = 200

	// boundaryLookback bounds how far back from the window edge the
	// chunker searches for a sentence or line boundary before falling
	// back to a hard token cut.
	boundaryLookback = 8
)

// ErrInvalidWindow is returned when the overlap/window configuration
// cannot produce forward progress.
var ErrInvalidWindow = errors.New("overlap must be positive and less than max chunk tokens")

// Chunker splits normalized document text into overlapping, size-bounded
// segments. A token is a whitespace-delimited word; each token remembers
// its byte offsets so chunks carry absolute offsets into the source.
type Chunker struct {
	maxTokens     int
	overlapTokens int
}

// New creates a Chunker with the given window configuration.
func New(maxTokens, overlapTokens int) (*Chunker, error) {
	if maxTokens <= 0 || overlapTokens <= 0 || overlapTokens >= maxTokens {
		return nil, ErrInvalidWindow
	}
	return &Chunker{maxTokens: maxTokens, overlapTokens: overlapTokens}, nil
}

// token is one whitespace-delimited word with its byte span in the text.
type token struct {
	start int
	end   int

	// sentenceEnd is true when the token terminates a sentence.
	// lineEnd is true when a newline follows the token.
	sentenceEnd bool
	lineEnd     bool
}

// Chunk splits a document into an ordered chunk sequence. A document
// shorter than the window yields exactly one chunk; an empty document
// yields zero chunks and no error (the caller reports a warning).
func (c *Chunker) Chunk(doc *types.Document) ([]types.Chunk, error) {
	toks := tokenize(doc.Text)
	if len(toks) == 0 {
		return nil, nil
	}

	chunks := make([]types.Chunk, 0, len(toks)/(c.maxTokens-c.overlapTokens)+1)

	start := 0
	seq := 0
	for {
		end := start + c.maxTokens
		last := end >= len(toks)
		if last {
			end = len(toks)
		} else {
			end = c.snapToBoundary(toks, start, end)
		}

		chunks = append(chunks, c.makeChunk(doc, toks, start, end, seq))
		seq++

		if last {
			break
		}
		start = end - c.overlapTokens
	}

	return chunks, nil
}

// snapToBoundary moves the window edge back to the nearest sentence or
// line boundary within the lookback window. The edge never moves so far
// that the window stops advancing past the overlap.
func (c *Chunker) snapToBoundary(toks []token, start, end int) int {
	lookback := boundaryLookback
	if lookback > c.maxTokens-c.overlapTokens-1 {
		lookback = c.maxTokens - c.overlapTokens - 1
	}
	for j := end - 1; j >= end-lookback && j > start; j-- {
		if toks[j-1].sentenceEnd || toks[j-1].lineEnd {
			return j
		}
	}
	return end
}

func (c *Chunker) makeChunk(doc *types.Document, toks []token, start, end, seq int) types.Chunk {
	startOff := toks[start].start
	endOff := toks[end-1].end
	return types.Chunk{
		ID:          uuid.New().String(),
		DocumentID:  doc.ID,
		SourceName:  doc.SourceName,
		Sequence:    seq,
		Text:        doc.Text[startOff:endOff],
		TokenCount:  end - start,
		StartOffset: startOff,
		EndOffset:   endOff,
	}
}

// tokenize splits text into whitespace-delimited tokens with offsets and
// boundary flags.
func tokenize(text string) []token {
	toks := make([]token, 0, len(text)/6)

	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(r) {
			i += size
			continue
		}

		start := i
		for i < len(text) {
			r, size = utf8.DecodeRuneInString(text[i:])
			if unicode.IsSpace(r) {
				break
			}
			i += size
		}

		tok := token{start: start, end: i, sentenceEnd: endsSentence(text[start:i])}
		// Peek past trailing spaces for a newline.
		for j := i; j < len(text); {
			r2, s2 := utf8.DecodeRuneInString(text[j:])
			if r2 == '\n' {
				tok.lineEnd = true
				break
			}
			if !unicode.IsSpace(r2) {
				break
			}
			j += s2
		}
		toks = append(toks, tok)
	}

	return toks
}

// endsSentence reports whether a token terminates a sentence, allowing
// closing quotes or brackets after the punctuation.
func endsSentence(word string) bool {
	for i := len(word) - 1; i >= 0; i-- {
		switch word[i] {
		case '"', '\'', ')', ']', '}':
			continue
		case '.', '!', '?':
			return true
		default:
			return false
		}
	}
	return false
}
