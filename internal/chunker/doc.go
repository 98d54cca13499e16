// Package chunker divides normalized document text into overlapping,
// size-bounded chunks for embedding and retrieval.
//
// # Basic Usage
//
//	c, err := chunker.New(1000, 200)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	chunks, err := c.Chunk(doc)
//
// # Chunking Strategy
//
// The chunker tokenizes text into whitespace-delimited words and slides a
// window of max_chunk_tokens across the stream, advancing by
// max_chunk_tokens - overlap_tokens each step. The window edge prefers to
// break after a sentence or at the end of a line; when no such boundary
// exists within a small lookback window, it falls back to a hard token
// cut.
//
// Each chunk records its absolute byte offsets in the source text so a
// retrieval result can always be traced back to the passage it came from.
//
// # Edge Cases
//
// A document shorter than the window yields exactly one chunk. An empty
// document yields zero chunks; the ingestion layer reports this as a
// warning, not a failure.
package chunker
