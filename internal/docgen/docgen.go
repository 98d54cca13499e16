// Package docgen renders a symbol table into structured markdown
// documentation. Rendering is deterministic: identical symbol tables
// and options always produce identical markdown. A generation
// capability, when present, adds best-effort natural-language summaries
// per symbol; every summary failure degrades that symbol to its
// signature-only listing and never fails the render.
package docgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/dshills/docassist/internal/capability"
	"github.com/dshills/docassist/pkg/types"
)

// Section titles in their fixed output order.
const (
	SectionOverview  = "Overview"
	SectionClasses   = "Classes"
	SectionFunctions = "Functions"
	SectionEndpoints = "API Endpoints"
	SectionTests     = "Tests"
	SectionImports   = "Imports"
)

// Options controls rendering.
type Options struct {
	// Generator, when non-nil, is asked for a one-paragraph summary of
	// each class, function, and endpoint symbol.
	Generator capability.Generator

	// Title overrides the default document title derived from the
	// source name.
	Title string
}

// Renderer turns symbol tables into markdown documents.
type Renderer struct{}

// New creates a Renderer.
func New() *Renderer {
	return &Renderer{}
}

// Render produces the markdown document for one symbol table.
func (r *Renderer) Render(ctx context.Context, table *types.SymbolTable, opts Options) *types.RenderedDocument {
	var b strings.Builder
	sections := []string{SectionOverview}

	title := opts.Title
	if title == "" {
		title = "Code Documentation: " + table.SourceName
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	r.renderOverview(&b, table)

	categories := []struct {
		title string
		kind  types.SymbolKind
	}{
		{SectionClasses, types.KindClass},
		{SectionFunctions, types.KindFunction},
		{SectionEndpoints, types.KindEndpoint},
		{SectionTests, types.KindTest},
		{SectionImports, types.KindImport},
	}

	for _, cat := range categories {
		symbols := table.OfKind(cat.kind)
		if len(symbols) == 0 {
			continue
		}
		sections = append(sections, cat.title)
		fmt.Fprintf(&b, "## %s\n\n", cat.title)

		if cat.kind == types.KindImport {
			for _, sym := range symbols {
				fmt.Fprintf(&b, "- `%s`\n", sym.Name)
			}
			b.WriteString("\n")
			continue
		}

		for _, sym := range symbols {
			r.renderSymbol(ctx, &b, &sym, opts)
		}
	}

	return &types.RenderedDocument{
		SourceName: table.SourceName,
		Markdown:   strings.TrimRight(b.String(), "\n") + "\n",
		Sections:   sections,
	}
}

func (r *Renderer) renderOverview(b *strings.Builder, table *types.SymbolTable) {
	fmt.Fprintf(b, "## %s\n\n", SectionOverview)
	fmt.Fprintf(b, "- **Language:** %s\n", table.Language)
	fmt.Fprintf(b, "- **Parse status:** %s\n", table.Status)
	fmt.Fprintf(b, "- **Classes:** %d\n", table.CountKind(types.KindClass))
	fmt.Fprintf(b, "- **Functions:** %d\n", table.CountKind(types.KindFunction))
	fmt.Fprintf(b, "- **API endpoints:** %d\n", table.CountKind(types.KindEndpoint))
	fmt.Fprintf(b, "- **Tests:** %d\n", table.CountKind(types.KindTest))

	if len(table.Warnings) > 0 {
		b.WriteString("\n**Warnings:**\n\n")
		for _, w := range table.Warnings {
			fmt.Fprintf(b, "- %s\n", w)
		}
	}
	b.WriteString("\n")
}

func (r *Renderer) renderSymbol(ctx context.Context, b *strings.Builder, sym *types.Symbol, opts Options) {
	heading := sym.Name
	if sym.Kind == types.KindEndpoint && sym.Route != "" {
		heading = fmt.Sprintf("%s %s (%s)", sym.HTTPMethod, sym.Route, sym.Name)
	}
	fmt.Fprintf(b, "### %s\n\n", heading)

	if sym.Signature != "" {
		fmt.Fprintf(b, "```%s\n%s\n```\n\n", sym.Language, sym.Signature)
	}
	if sym.Lines.Start > 0 {
		fmt.Fprintf(b, "*Lines %d-%d*\n\n", sym.Lines.Start, sym.Lines.End)
	}
	if sym.DocComment != "" {
		for _, line := range strings.Split(sym.DocComment, "\n") {
			fmt.Fprintf(b, "> %s\n", line)
		}
		b.WriteString("\n")
	}

	if opts.Generator != nil && sym.Signature != "" {
		summary, err := opts.Generator.SummarizeSymbol(ctx, sym.Signature, sym.DocComment)
		if err == nil && summary != "" {
			fmt.Fprintf(b, "%s\n\n", strings.TrimSpace(summary))
		}
	}
}
