package types

import (
	"errors"
	"time"
)

// Format identifies the declared format of an uploaded file.
type Format string

const (
	FormatText     Format = "txt"
	FormatMarkdown Format = "md"
	FormatPDF      Format = "pdf"
	FormatDocx     Format = "docx"

	// Source-code formats, loaded as plain text for Q&A ingestion and
	// handled by the structural analyzer in documentation mode.
	FormatPython     Format = "py"
	FormatJavaScript Format = "js"
	FormatTypeScript Format = "ts"
	FormatJava       Format = "java"
	FormatC          Format = "c"
	FormatCPP        Format = "cpp"
	FormatGo         Format = "go"
	FormatRust       Format = "rs"
	FormatPHP        Format = "php"
)

// IsCode reports whether the format is a source-code format.
func (f Format) IsCode() bool {
	switch f {
	case FormatPython, FormatJavaScript, FormatTypeScript, FormatJava,
		FormatC, FormatCPP, FormatGo, FormatRust, FormatPHP:
		return true
	}
	return false
}

// Document represents a single ingested file after format normalization.
// Documents are immutable once created.
type Document struct {
	ID         string
	SourceName string
	Text       string
	Format     Format
	UploadedAt time.Time
}

// Validate checks required document fields.
func (d *Document) Validate() error {
	if d.ID == "" {
		return errors.New("document ID is required")
	}
	if d.SourceName == "" {
		return errors.New("document source name is required")
	}
	return nil
}
