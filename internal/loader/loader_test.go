package loader

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/docassist/pkg/types"
)

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	output []byte
	err    error
}

func (m *mockRunner) Run(_ context.Context, _ string, _ ...string) ([]byte, error) {
	return m.output, m.err
}

func TestLoad_PlainText(t *testing.T) {
	r := NewRegistry()

	doc, err := r.Load(context.Background(), "notes.txt", []byte("hello world\r\nline two\r\n"), types.FormatText)
	require.NoError(t, err)

	assert.Equal(t, "hello world\nline two", doc.Text)
	assert.Equal(t, "notes.txt", doc.SourceName)
	assert.Equal(t, types.FormatText, doc.Format)
	assert.NotEmpty(t, doc.ID)
}

func TestLoad_SourceCodeAsText(t *testing.T) {
	r := NewRegistry()

	src := "def hello():\n    return 1\n"
	doc, err := r.Load(context.Background(), "app.py", []byte(src), types.FormatPython)
	require.NoError(t, err)
	assert.Contains(t, doc.Text, "def hello():")
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	r := NewRegistry()

	_, err := r.Load(context.Background(), "img.bmp", []byte{1, 2, 3}, types.Format("bmp"))
	assert.ErrorIs(t, err, types.ErrUnsupportedFormat)
}

func TestLoad_EmptyDocument(t *testing.T) {
	r := NewRegistry()

	_, err := r.Load(context.Background(), "empty.txt", []byte("  \n\t "), types.FormatText)
	assert.ErrorIs(t, err, types.ErrEmptyDocument)
}

func TestLoad_Markdown(t *testing.T) {
	r := NewRegistry()

	md := "# Auth Guide\n\nSend the key in the `X-API-Key` header.\n\n```http\nGET /users\n```\n\nSee [docs](https://example.com).\n"
	doc, err := r.Load(context.Background(), "auth.md", []byte(md), types.FormatMarkdown)
	require.NoError(t, err)

	assert.Contains(t, doc.Text, "Auth Guide")
	assert.Contains(t, doc.Text, "X-API-Key")
	assert.Contains(t, doc.Text, "GET /users")
	assert.Contains(t, doc.Text, "See docs.")
	assert.NotContains(t, doc.Text, "```")
	assert.NotContains(t, doc.Text, "https://example.com")
	assert.NotContains(t, doc.Text, "# ")
}

func TestLoad_DocxInvalidArchive(t *testing.T) {
	r := NewRegistry()

	_, err := r.Load(context.Background(), "doc.docx", []byte("not a zip"), types.FormatDocx)
	assert.Error(t, err)
}

func TestParseDocumentXML(t *testing.T) {
	xml := `<?xml version="1.0"?>
<document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <body>
    <p><r><t>First paragraph.</t></r></p>
    <p><r><t>Second </t></r><r><t>paragraph.</t></r></p>
  </body>
</document>`

	text, err := parseDocumentXML([]byte(xml))
	require.NoError(t, err)
	assert.Equal(t, "First paragraph.\nSecond paragraph.", text)
}

func TestPDF_UsesRunner(t *testing.T) {
	runner := &mockRunner{output: []byte("extracted pdf text")}
	r := &Registry{loaders: map[types.Format]Loader{types.FormatPDF: NewPDF(runner)}}

	doc, err := r.Load(context.Background(), "guide.pdf", []byte("%PDF-1.4"), types.FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "extracted pdf text", doc.Text)
}

func TestPDF_RunnerFailure(t *testing.T) {
	runner := &mockRunner{err: errors.New("binary not found")}
	p := NewPDF(runner)

	_, err := p.Extract(context.Background(), []byte("%PDF-1.4"))
	assert.Error(t, err)
}

func TestFormatForFile(t *testing.T) {
	tests := []struct {
		name    string
		want    types.Format
		wantErr bool
	}{
		{"readme.MD", types.FormatMarkdown, false},
		{"main.go", types.FormatGo, false},
		{"app.py", types.FormatPython, false},
		{"archive.tar.gz", "", true},
		{"noext", "", true},
		{"trailingdot.", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatForFile(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
