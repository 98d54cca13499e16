// Package analyzer parses source-code text into a language-aware symbol
// table of classes, functions, API endpoints, tests, and imports.
//
// Each supported language family has a grammar-aware parser behind the
// LanguageParser interface. When full parsing fails on malformed input,
// the analyzer falls back to a pattern-based pass that still extracts
// top-level declarations, and reports the degradation through the symbol
// table's parse status rather than an error. A completely unrecognized
// language yields an empty table with a warning, never a failure.
package analyzer

import (
	"strings"

	"github.com/dshills/docassist/pkg/types"
)

// ParseOutcome is what a language parser produces: the extracted symbols
// plus any recoverable errors it hit along the way.
type ParseOutcome struct {
	Symbols []types.Symbol
	Errors  []string
}

// LanguageParser extracts declarations for one language family.
type LanguageParser interface {
	// Language returns the canonical language identifier.
	Language() string

	// Parse extracts symbols from source text. Returning an error means
	// the grammar pass failed entirely and the heuristic fallback
	// should run; recoverable problems go into ParseOutcome.Errors.
	Parse(source string) (*ParseOutcome, error)
}

// Analyzer dispatches source files to language parsers through an
// explicit registry, with a heuristic fallback for everything else.
type Analyzer struct {
	parsers map[string]LanguageParser
}

// New creates an Analyzer with all built-in language parsers registered.
func New() *Analyzer {
	a := &Analyzer{parsers: make(map[string]LanguageParser)}
	a.Register(NewGoParser())
	a.Register(NewPythonParser())
	a.Register(NewScriptParser("javascript"))
	a.Register(NewScriptParser("typescript"))
	a.Register(NewCLikeParser("java"))
	a.Register(NewCLikeParser("c"))
	a.Register(NewCLikeParser("cpp"))
	a.Register(NewCLikeParser("rust"))
	a.Register(NewCLikeParser("php"))
	return a
}

// Register installs a parser for its language.
func (a *Analyzer) Register(p LanguageParser) {
	a.parsers[p.Language()] = p
}

// languageAliases maps file extensions and common names to canonical
// language identifiers.
var languageAliases = map[string]string{
	"go":         "go",
	"golang":     "go",
	"py":         "python",
	"python":     "python",
	"js":         "javascript",
	"jsx":        "javascript",
	"javascript": "javascript",
	"ts":         "typescript",
	"tsx":        "typescript",
	"typescript": "typescript",
	"java":       "java",
	"c":          "c",
	"h":          "c",
	"cpp":        "cpp",
	"cc":         "cpp",
	"hpp":        "cpp",
	"c++":        "cpp",
	"rs":         "rust",
	"rust":       "rust",
	"php":        "php",
}

// CanonicalLanguage resolves a language hint (extension, file name, or
// language name) to a canonical identifier. Returns "" when unknown.
func CanonicalLanguage(hint string) string {
	hint = strings.ToLower(strings.TrimSpace(hint))
	if dot := strings.LastIndex(hint, "."); dot >= 0 {
		hint = hint[dot+1:]
	}
	return languageAliases[hint]
}

// Analyze parses source text into a SymbolTable. sourceName is used for
// provenance and for test-file path detection; languageHint may be a
// language name, an extension, or a file name.
func (a *Analyzer) Analyze(source, sourceName, languageHint string) *types.SymbolTable {
	lang := CanonicalLanguage(languageHint)
	if lang == "" {
		lang = CanonicalLanguage(sourceName)
	}

	table := &types.SymbolTable{
		SourceName: sourceName,
		Language:   lang,
	}

	if lang == "" {
		table.Language = "unknown"
		table.Status = types.ParseHeuristic
		table.Warnings = append(table.Warnings,
			"unrecognized language; no symbols extracted")
		return table
	}

	parser, ok := a.parsers[lang]
	if !ok {
		table.Status = types.ParseHeuristic
		table.Warnings = append(table.Warnings,
			"no parser registered for "+lang+"; pattern extraction only")
		table.Symbols = heuristicExtract(source, lang)
		tagTests(table, sourceName)
		return table
	}

	outcome, err := parser.Parse(source)

	switch {
	case err != nil:
		// Grammar pass failed entirely; run the fallback.
		table.Status = types.ParseHeuristic
		table.Warnings = append(table.Warnings, "parse failed: "+err.Error())
		table.Symbols = heuristicExtract(source, lang)
	case len(outcome.Errors) > 0:
		table.Status = types.ParsePartial
		table.Warnings = append(table.Warnings, outcome.Errors...)
		table.Symbols = outcome.Symbols
		if len(table.Symbols) == 0 {
			table.Symbols = heuristicExtract(source, lang)
			table.Status = types.ParseHeuristic
		}
	default:
		table.Status = types.ParseFull
		table.Symbols = outcome.Symbols
	}

	tagTests(table, sourceName)
	return table
}

// tagTests re-tags function symbols as tests when their name matches the
// language family's test-naming convention or the file path looks like a
// test file. Endpoint tags always win over test tags.
func tagTests(table *types.SymbolTable, sourceName string) {
	inTestFile := isTestFilePath(sourceName)
	for i := range table.Symbols {
		sym := &table.Symbols[i]
		if sym.Kind != types.KindFunction {
			continue
		}
		if inTestFile || isTestName(sym.Name, table.Language) {
			sym.Kind = types.KindTest
		}
	}
}

// isTestName reports whether a function name follows the conventional
// test-naming pattern for the language family.
func isTestName(name, lang string) bool {
	switch lang {
	case "python", "php":
		return strings.HasPrefix(name, "test_") || strings.HasPrefix(name, "test")
	case "go":
		return strings.HasPrefix(name, "Test") || strings.HasPrefix(name, "Benchmark") ||
			strings.HasPrefix(name, "Fuzz")
	case "java":
		return strings.HasPrefix(name, "test") || strings.HasSuffix(name, "Test")
	case "rust", "c", "cpp":
		return strings.HasPrefix(name, "test_")
	case "javascript", "typescript":
		return strings.HasPrefix(name, "test") || strings.HasSuffix(name, ".test")
	}
	return false
}

// isTestFilePath reports whether the file path follows a recognized
// test-file convention.
func isTestFilePath(path string) bool {
	lower := strings.ToLower(path)
	base := lower
	if i := strings.LastIndexAny(base, "/\\"); i >= 0 {
		base = base[i+1:]
	}
	switch {
	case strings.HasSuffix(base, "_test.go"),
		strings.HasSuffix(base, "_test.py"),
		strings.HasPrefix(base, "test_"),
		strings.Contains(base, ".test."),
		strings.Contains(base, ".spec."),
		strings.Contains(lower, "/tests/"),
		strings.Contains(lower, "/__tests__/"):
		return true
	}
	return false
}
