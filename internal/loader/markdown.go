package loader

import (
	"context"
	"regexp"
	"strings"

	"github.com/dshills/docassist/pkg/types"
)

// Ensure Markdown implements the interface.
var _ Loader = (*Markdown)(nil)

// Markdown handles markdown files, simplifying formatting to plain text
// while keeping the prose and code content searchable.
type Markdown struct{}

// NewMarkdown creates a new markdown loader.
func NewMarkdown() *Markdown {
	return &Markdown{}
}

// Formats returns the formats this loader handles.
func (m *Markdown) Formats() []types.Format {
	return []types.Format{types.FormatMarkdown}
}

// Extract strips markdown syntax, keeping text content.
func (m *Markdown) Extract(_ context.Context, data []byte) (string, error) {
	return stripMarkdown(string(data)), nil
}

var (
	mdFence      = regexp.MustCompile("(?m)^```[^\n]*$")
	mdInlineCode = regexp.MustCompile("`([^`]+)`")
	mdImage      = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	mdLink       = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	mdHeading    = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	mdBlockquote = regexp.MustCompile(`(?m)^>\s*`)
	mdRule       = regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`)
)

// stripMarkdown removes common markdown formatting. Code block contents
// are kept (fences removed) because API documentation frequently carries
// the answer inside an example block.
func stripMarkdown(content string) string {
	content = mdFence.ReplaceAllString(content, "")
	content = mdInlineCode.ReplaceAllString(content, "$1")
	content = mdImage.ReplaceAllString(content, "")
	content = mdLink.ReplaceAllString(content, "$1")
	content = mdHeading.ReplaceAllString(content, "")
	content = mdBlockquote.ReplaceAllString(content, "")
	content = mdRule.ReplaceAllString(content, "")
	content = strings.ReplaceAll(content, "**", "")
	content = strings.ReplaceAll(content, "__", "")
	return content
}
