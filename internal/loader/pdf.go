package loader

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/dshills/docassist/pkg/types"
)

// CommandRunner executes an external command and returns its stdout.
// Abstracted so tests can stub the pdftotext dependency.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Ensure PDF implements the interface.
var _ Loader = (*PDF)(nil)

// PDF extracts text from PDF files by shelling out to pdftotext.
type PDF struct {
	runner CommandRunner
}

// NewPDF creates a new PDF loader. A nil runner uses os/exec.
func NewPDF(runner CommandRunner) *PDF {
	if runner == nil {
		runner = execRunner{}
	}
	return &PDF{runner: runner}
}

// Formats returns the formats this loader handles.
func (p *PDF) Formats() []types.Format {
	return []types.Format{types.FormatPDF}
}

// Extract writes the PDF to a temp file and runs pdftotext over it.
func (p *PDF) Extract(ctx context.Context, data []byte) (string, error) {
	tmpDir, err := os.MkdirTemp("", "docassist-pdf-")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	tmpFile := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(tmpFile, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write temp pdf: %w", err)
	}

	// "-" sends extracted text to stdout.
	out, err := p.runner.Run(ctx, "pdftotext", "-layout", tmpFile, "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext failed: %w", err)
	}
	return string(out), nil
}
