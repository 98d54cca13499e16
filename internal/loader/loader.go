// Package loader converts uploaded file bytes into normalized Documents.
//
// Each declared format maps to a Loader through an explicit registry that
// is queried once at ingestion time. Source-code formats load as plain
// text so code files can be ingested for Q&A alongside documentation.
package loader

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/docassist/pkg/types"
)

// Loader normalizes one file format into document text.
type Loader interface {
	// Formats returns the declared formats this loader handles.
	Formats() []types.Format

	// Extract converts raw bytes into normalized plain text.
	Extract(ctx context.Context, data []byte) (string, error)
}

// Registry maps declared formats to loaders.
type Registry struct {
	loaders map[types.Format]Loader
}

// NewRegistry creates a registry with the default loaders installed:
// plain text (including all source-code formats), markdown, docx, and
// pdf (via an external pdftotext binary).
func NewRegistry() *Registry {
	r := &Registry{loaders: make(map[types.Format]Loader)}
	r.Register(NewPlainText())
	r.Register(NewMarkdown())
	r.Register(NewDocx())
	r.Register(NewPDF(nil))
	return r
}

// Register installs a loader for every format it declares.
func (r *Registry) Register(l Loader) {
	for _, f := range l.Formats() {
		r.loaders[f] = l
	}
}

// Load normalizes raw bytes into a Document. Unsupported formats return
// ErrUnsupportedFormat; content that is empty after normalization returns
// ErrEmptyDocument so the ingestion layer can report a warning.
func (r *Registry) Load(ctx context.Context, sourceName string, data []byte, format types.Format) (*types.Document, error) {
	l, ok := r.loaders[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrUnsupportedFormat, format)
	}

	text, err := l.Extract(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", sourceName, err)
	}

	text = normalizeText(text)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%s: %w", sourceName, types.ErrEmptyDocument)
	}

	return &types.Document{
		ID:         uuid.New().String(),
		SourceName: sourceName,
		Text:       text,
		Format:     format,
		UploadedAt: time.Now(),
	}, nil
}

// FormatForFile resolves a format from a file name extension.
func FormatForFile(name string) (types.Format, error) {
	dot := strings.LastIndex(name, ".")
	if dot < 0 || dot == len(name)-1 {
		return "", fmt.Errorf("%w: no extension on %q", types.ErrUnsupportedFormat, name)
	}
	f := types.Format(strings.ToLower(name[dot+1:]))
	switch f {
	case types.FormatText, types.FormatMarkdown, types.FormatPDF, types.FormatDocx,
		types.FormatPython, types.FormatJavaScript, types.FormatTypeScript,
		types.FormatJava, types.FormatC, types.FormatCPP, types.FormatGo,
		types.FormatRust, types.FormatPHP:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", types.ErrUnsupportedFormat, f)
}

// normalizeText converts line endings to LF and trims trailing space.
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.TrimRight(text, " \t\n")
}
