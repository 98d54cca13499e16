package types

// ConfidenceBand is a coarse categorical label derived from the top
// similarity score of a retrieval.
type ConfidenceBand string

const (
	ConfidenceHigh   ConfidenceBand = "high"
	ConfidenceMedium ConfidenceBand = "medium"
	ConfidenceLow    ConfidenceBand = "low"
	ConfidenceNone   ConfidenceBand = "none"
)

// RetrievalResult is one ranked match from the vector index. Results are
// ephemeral, produced per query and never persisted.
type RetrievalResult struct {
	ChunkID    string
	Similarity float64
	Text       string
	SourceName string
	Sequence   int
}

// Validate checks if the retrieval result is valid.
func (r *RetrievalResult) Validate() error {
	if r.ChunkID == "" {
		return ErrInvalidChunkID
	}
	if r.Similarity < -1 || r.Similarity > 1 {
		return ErrInvalidSimilarity
	}
	if r.Text == "" {
		return ErrEmptyContent
	}
	return nil
}

// Source identifies a chunk cited in an answer.
type Source struct {
	SourceName string  `json:"source_name"`
	Sequence   int     `json:"chunk_sequence_index"`
	Similarity float64 `json:"similarity"`
}

// Answer is the Q&A response shape.
type Answer struct {
	Text       string         `json:"answer_text"`
	Sources    []Source       `json:"sources"`
	Confidence ConfidenceBand `json:"confidence_band"`

	// NoContext is true when retrieval found nothing above threshold.
	// The generation capability is never invoked in that case.
	NoContext bool `json:"no_context,omitempty"`
}

// RenderedDocument is the output of the documentation synthesizer:
// structured markdown plus a manifest of the sections it contains.
type RenderedDocument struct {
	SourceName string
	Markdown   string
	Sections   []string
}
