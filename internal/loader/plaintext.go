package loader

import (
	"context"

	"github.com/dshills/docassist/pkg/types"
)

// Ensure PlainText implements the interface.
var _ Loader = (*PlainText)(nil)

// PlainText handles plain text files and all source-code formats, which
// are ingested verbatim.
type PlainText struct{}

// NewPlainText creates a new plain text loader.
func NewPlainText() *PlainText {
	return &PlainText{}
}

// Formats returns the formats this loader handles.
func (p *PlainText) Formats() []types.Format {
	return []types.Format{
		types.FormatText,
		types.FormatPython,
		types.FormatJavaScript,
		types.FormatTypeScript,
		types.FormatJava,
		types.FormatC,
		types.FormatCPP,
		types.FormatGo,
		types.FormatRust,
		types.FormatPHP,
	}
}

// Extract returns the content as-is.
func (p *PlainText) Extract(_ context.Context, data []byte) (string, error) {
	return string(data), nil
}
