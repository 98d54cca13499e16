// Package types provides shared type definitions for the document assistant.
//
// This package defines domain types used across multiple components,
// including documents, chunks, retrieval results, and the code symbol
// table produced by the structural analyzer.
//
// # Core Types
//
// Document represents an ingested file after format normalization:
//
//	doc := &types.Document{
//	    SourceName: "auth-guide.md",
//	    Text:       normalizedText,
//	    Format:     types.FormatMarkdown,
//	}
//
// Chunk represents a bounded, overlapping segment of a document, the unit
// of indexing and retrieval:
//
//	chunk := types.Chunk{
//	    DocumentID: doc.ID,
//	    Sequence:   0,
//	    Text:       segment,
//	    StartOffset: 0,
//	    EndOffset:  412,
//	}
//
// SymbolTable is the structured extraction of a source file's declarations
// (classes, functions, endpoints, tests, imports) produced by the analyzer
// and consumed by the documentation synthesizer.
//
// # Validation
//
// Domain types implement validation methods to ensure data integrity:
//
//	if err := chunk.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package types
