package types

import "errors"

// SymbolKind represents the category of an extracted code symbol.
type SymbolKind string

const (
	KindClass    SymbolKind = "class"
	KindFunction SymbolKind = "function"
	KindEndpoint SymbolKind = "endpoint"
	KindTest     SymbolKind = "test"
	KindImport   SymbolKind = "import"
)

// ParseStatus reports how much of the grammar-aware extraction succeeded.
type ParseStatus string

const (
	// ParseFull means the grammar-aware parser handled the whole file.
	ParseFull ParseStatus = "full"
	// ParsePartial means the grammar parser hit errors; the symbols it
	// did produce are reported as-is.
	ParsePartial ParseStatus = "partial"
	// ParseHeuristic means only the pattern-based fallback ran.
	ParseHeuristic ParseStatus = "heuristic"
)

// LineRange is an inclusive span of source lines, 1-based.
type LineRange struct {
	Start int
	End   int
}

// Symbol represents a declaration extracted from a source file.
type Symbol struct {
	Name       string
	Kind       SymbolKind
	Signature  string
	DocComment string
	Lines      LineRange
	Language   string

	// Endpoint metadata, set only for KindEndpoint.
	HTTPMethod string
	Route      string
}

// ValidateKind checks if the symbol kind is valid.
func (s *Symbol) ValidateKind() error {
	switch s.Kind {
	case KindClass, KindFunction, KindEndpoint, KindTest, KindImport:
		return nil
	default:
		return errors.New("invalid symbol kind")
	}
}

// Validate performs validation of the symbol.
func (s *Symbol) Validate() error {
	if s.Name == "" {
		return errors.New("symbol name is required")
	}
	if err := s.ValidateKind(); err != nil {
		return err
	}
	if s.Lines.Start <= 0 || s.Lines.End < s.Lines.Start {
		return errors.New("invalid symbol line range")
	}
	return nil
}

// SymbolTable is the ordered extraction result for one source file.
// It is immutable after creation.
type SymbolTable struct {
	SourceName string
	Language   string
	Status     ParseStatus
	Symbols    []Symbol
	Warnings   []string
}

// CountKind returns the number of symbols of the given kind.
func (t *SymbolTable) CountKind(kind SymbolKind) int {
	n := 0
	for i := range t.Symbols {
		if t.Symbols[i].Kind == kind {
			n++
		}
	}
	return n
}

// OfKind returns the symbols of the given kind in table order.
func (t *SymbolTable) OfKind(kind SymbolKind) []Symbol {
	out := make([]Symbol, 0)
	for i := range t.Symbols {
		if t.Symbols[i].Kind == kind {
			out = append(out, t.Symbols[i])
		}
	}
	return out
}
