package analyzer

import (
	"regexp"
	"strings"

	"github.com/dshills/docassist/pkg/types"
)

// ScriptParser extracts symbols from JavaScript and TypeScript source.
// Route handlers registered Express-style (app.get('/path', handler))
// are tagged as endpoints; describe/it/test blocks are tagged as tests.
type ScriptParser struct {
	language string
}

// NewScriptParser creates a parser for "javascript" or "typescript".
func NewScriptParser(language string) *ScriptParser {
	return &ScriptParser{language: language}
}

// Language returns the canonical language identifier.
func (p *ScriptParser) Language() string { return p.language }

var (
	jsClassRe = regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+([A-Za-z_$][\w$]*)`)
	jsFuncRe  = regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)\s*\(`)
	// const handler = async (req, res) => { ... } / const f = function() {}
	jsArrowRe = regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*(?::\s*[^=]+)?=\s*(?:async\s+)?(?:\([^)]*\)|[A-Za-z_$][\w$]*)\s*=>`)
	jsFnExpr  = regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*=\s*(?:async\s+)?function\b`)
	// interface Foo { / type Foo = (TypeScript)
	tsTypeRe = regexp.MustCompile(`^\s*(?:export\s+)?(?:interface|enum)\s+([A-Za-z_$][\w$]*)`)

	jsImportRe  = regexp.MustCompile(`^\s*import\s+(?:.+\s+from\s+)?["']([^"']+)["']`)
	jsRequireRe = regexp.MustCompile(`^\s*(?:const|let|var)\s+[\w${},\s]+\s*=\s*require\(\s*["']([^"']+)["']\s*\)`)

	// app.get('/users', getUser) or router.post("/items", async (req, res) => ...)
	jsRouteRe = regexp.MustCompile(`\b\w+\.(get|post|put|delete|patch|head|options|all|use)\(\s*["']([^"']+)["']\s*,\s*([A-Za-z_$][\w$]*)?`)

	// it('does x', ...) / test('does x', ...) / describe('suite', ...)
	jsTestRe = regexp.MustCompile(`^\s*(it|test|describe)\(\s*["'` + "`" + `]([^"'` + "`" + `]+)`)
)

// Parse scans the source line by line; a scan never fails outright,
// but unbalanced delimiters are reported through ParseOutcome.Errors.
func (p *ScriptParser) Parse(source string) (*ParseOutcome, error) {
	lines := strings.Split(source, "\n")
	outcome := &ParseOutcome{Errors: structuralErrors(source, p.language)}

	// First pass: collect route registrations that reference a named
	// handler so the handler declaration can be re-tagged.
	routes := make(map[string]goRoute)
	for _, line := range lines {
		m := jsRouteRe.FindStringSubmatch(line)
		if m == nil || m[1] == "use" || !strings.HasPrefix(m[2], "/") {
			continue
		}
		if m[3] != "" {
			routes[m[3]] = goRoute{method: strings.ToUpper(m[1]), route: m[2]}
		}
	}

	for i, line := range lines {
		lineNo := i + 1

		if m := jsTestRe.FindStringSubmatch(line); m != nil {
			if m[1] == "describe" {
				continue
			}
			end := braceBlockEnd(lines, i)
			outcome.Symbols = append(outcome.Symbols, types.Symbol{
				Name:      m[2],
				Kind:      types.KindTest,
				Signature: strings.TrimSpace(line),
				Lines:     types.LineRange{Start: lineNo, End: end},
				Language:  p.language,
			})
			continue
		}

		if m := jsClassRe.FindStringSubmatch(line); m != nil {
			end := braceBlockEnd(lines, i)
			outcome.Symbols = append(outcome.Symbols, types.Symbol{
				Name:       m[1],
				Kind:       types.KindClass,
				Signature:  headerSignature(line),
				DocComment: leadingComment(lines, i),
				Lines:      types.LineRange{Start: lineNo, End: end},
				Language:   p.language,
			})
			continue
		}

		if m := tsTypeRe.FindStringSubmatch(line); m != nil && p.language == "typescript" {
			end := braceBlockEnd(lines, i)
			outcome.Symbols = append(outcome.Symbols, types.Symbol{
				Name:       m[1],
				Kind:       types.KindClass,
				Signature:  headerSignature(line),
				DocComment: leadingComment(lines, i),
				Lines:      types.LineRange{Start: lineNo, End: end},
				Language:   p.language,
			})
			continue
		}

		var name string
		if m := jsFuncRe.FindStringSubmatch(line); m != nil {
			name = m[1]
		} else if m := jsFnExpr.FindStringSubmatch(line); m != nil {
			name = m[1]
		} else if m := jsArrowRe.FindStringSubmatch(line); m != nil {
			name = m[1]
		}
		if name != "" {
			end := braceBlockEnd(lines, i)
			sym := types.Symbol{
				Name:       name,
				Kind:       types.KindFunction,
				Signature:  headerSignature(line),
				DocComment: leadingComment(lines, i),
				Lines:      types.LineRange{Start: lineNo, End: end},
				Language:   p.language,
			}
			if route, ok := routes[name]; ok {
				sym.Kind = types.KindEndpoint
				sym.HTTPMethod = route.method
				sym.Route = route.route
			}
			outcome.Symbols = append(outcome.Symbols, sym)
			continue
		}

		if m := jsImportRe.FindStringSubmatch(line); m != nil {
			outcome.Symbols = append(outcome.Symbols, types.Symbol{
				Name:      m[1],
				Kind:      types.KindImport,
				Signature: strings.TrimSpace(line),
				Lines:     types.LineRange{Start: lineNo, End: lineNo},
				Language:  p.language,
			})
			continue
		}
		if m := jsRequireRe.FindStringSubmatch(line); m != nil {
			outcome.Symbols = append(outcome.Symbols, types.Symbol{
				Name:      m[1],
				Kind:      types.KindImport,
				Signature: strings.TrimSpace(line),
				Lines:     types.LineRange{Start: lineNo, End: lineNo},
				Language:  p.language,
			})
		}
	}

	return outcome, nil
}

// headerSignature trims a declaration header down to the opening brace.
func headerSignature(line string) string {
	trimmed := strings.TrimSpace(line)
	if idx := strings.Index(trimmed, "{"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

// leadingComment captures a // or /* ... */ comment block immediately
// above a declaration, with comment markers stripped.
func leadingComment(lines []string, declLine int) string {
	var parts []string
	for i := declLine - 1; i >= 0; i-- {
		trimmed := strings.TrimSpace(lines[i])
		switch {
		case strings.HasPrefix(trimmed, "//"):
			parts = append([]string{strings.TrimSpace(strings.TrimPrefix(trimmed, "//"))}, parts...)
		case strings.HasPrefix(trimmed, "*") || strings.HasPrefix(trimmed, "/*"):
			text := strings.TrimPrefix(trimmed, "/*")
			text = strings.TrimPrefix(text, "*")
			text = strings.TrimSuffix(text, "*/")
			text = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "*"))
			if text != "" {
				parts = append([]string{text}, parts...)
			}
			if strings.HasPrefix(trimmed, "/*") {
				return strings.TrimSpace(strings.Join(parts, "\n"))
			}
		default:
			return strings.TrimSpace(strings.Join(parts, "\n"))
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// braceBlockEnd finds the closing line of the brace block opened at or
// after start, 1-based. Falls back to the start line when no block
// opens within a short lookahead.
func braceBlockEnd(lines []string, start int) int {
	depth := 0
	opened := false
	for i := start; i < len(lines); i++ {
		for _, r := range lines[i] {
			switch r {
			case '{':
				depth++
				opened = true
			case '}':
				depth--
			}
		}
		if opened && depth <= 0 {
			return i + 1
		}
		if !opened && i > start+2 {
			break
		}
	}
	return start + 1
}
