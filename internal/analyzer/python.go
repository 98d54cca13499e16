package analyzer

import (
	"regexp"
	"strings"

	"github.com/dshills/docassist/pkg/types"
)

// PythonParser extracts symbols from Python source using an
// indentation-aware line scan. Decorators in the Flask and FastAPI
// style mark route handlers as endpoints.
type PythonParser struct{}

// NewPythonParser creates a Python language parser.
func NewPythonParser() *PythonParser {
	return &PythonParser{}
}

// Language returns the canonical language identifier.
func (p *PythonParser) Language() string { return "python" }

var (
	pyClassRe = regexp.MustCompile(`^(\s*)class\s+([A-Za-z_]\w*)\s*(\([^)]*\))?\s*:`)
	pyDefRe   = regexp.MustCompile(`^(\s*)(?:async\s+)?def\s+([A-Za-z_]\w*)\s*\(`)
	pyImport  = regexp.MustCompile(`^(?:from\s+([\w.]+)\s+import|import\s+([\w.]+))`)

	// @app.route("/users", methods=["GET", "POST"])
	pyRouteDecorator = regexp.MustCompile(`^\s*@\w+\.route\(\s*["']([^"']+)["']`)
	pyRouteMethods   = regexp.MustCompile(`methods\s*=\s*\[\s*["'](\w+)["']`)
	// @app.get("/users"), @router.post("/items")
	pyVerbDecorator = regexp.MustCompile(`^\s*@\w+\.(get|post|put|delete|patch|head|options)\(\s*["']([^"']+)["']`)
)

// Parse scans the source line by line. The scan itself never fails;
// structural damage such as unbalanced brackets or a colon-less header
// is reported through ParseOutcome.Errors instead.
func (p *PythonParser) Parse(source string) (*ParseOutcome, error) {
	lines := strings.Split(source, "\n")
	outcome := &ParseOutcome{Errors: structuralErrors(source, "python")}

	var pendingMethod, pendingRoute string
	for i, line := range lines {
		lineNo := i + 1

		if m := pyVerbDecorator.FindStringSubmatch(line); m != nil {
			pendingMethod = strings.ToUpper(m[1])
			pendingRoute = m[2]
			continue
		}
		if m := pyRouteDecorator.FindStringSubmatch(line); m != nil {
			pendingRoute = m[1]
			pendingMethod = "GET"
			if mm := pyRouteMethods.FindStringSubmatch(line); mm != nil {
				pendingMethod = strings.ToUpper(mm[1])
			}
			continue
		}

		if m := pyClassRe.FindStringSubmatch(line); m != nil {
			end := pyBlockEnd(lines, i, len(m[1]))
			outcome.Symbols = append(outcome.Symbols, types.Symbol{
				Name:       m[2],
				Kind:       types.KindClass,
				Signature:  strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), ":")),
				DocComment: pyDocstring(lines, i),
				Lines:      types.LineRange{Start: lineNo, End: end},
				Language:   "python",
			})
			pendingMethod, pendingRoute = "", ""
			continue
		}

		if m := pyDefRe.FindStringSubmatch(line); m != nil {
			end := pyBlockEnd(lines, i, len(m[1]))
			sym := types.Symbol{
				Name:       m[2],
				Kind:       types.KindFunction,
				Signature:  pySignature(lines, i),
				DocComment: pyDocstring(lines, i),
				Lines:      types.LineRange{Start: lineNo, End: end},
				Language:   "python",
			}
			if pendingRoute != "" {
				sym.Kind = types.KindEndpoint
				sym.HTTPMethod = pendingMethod
				sym.Route = pendingRoute
			}
			outcome.Symbols = append(outcome.Symbols, sym)
			pendingMethod, pendingRoute = "", ""
			continue
		}

		if m := pyImport.FindStringSubmatch(line); m != nil {
			name := m[1]
			if name == "" {
				name = m[2]
			}
			outcome.Symbols = append(outcome.Symbols, types.Symbol{
				Name:      name,
				Kind:      types.KindImport,
				Signature: strings.TrimSpace(line),
				Lines:     types.LineRange{Start: lineNo, End: lineNo},
				Language:  "python",
			})
		}

		// Any other non-blank line breaks the decorator association.
		if strings.TrimSpace(line) != "" && !strings.HasPrefix(strings.TrimSpace(line), "@") {
			pendingMethod, pendingRoute = "", ""
		}
	}

	return outcome, nil
}

// pySignature joins a def header that may span multiple lines, up to
// the terminating colon.
func pySignature(lines []string, start int) string {
	var sig strings.Builder
	for i := start; i < len(lines) && i < start+5; i++ {
		part := strings.TrimSpace(lines[i])
		if sig.Len() > 0 {
			sig.WriteString(" ")
		}
		sig.WriteString(part)
		if strings.HasSuffix(part, ":") {
			break
		}
	}
	return strings.TrimSuffix(sig.String(), ":")
}

// pyDocstring extracts a triple-quoted docstring immediately following
// a declaration header.
func pyDocstring(lines []string, declLine int) string {
	// Find the line after the header's terminating colon.
	body := declLine + 1
	for body < len(lines) && !strings.HasSuffix(strings.TrimSpace(lines[body-1]), ":") {
		body++
	}
	if body >= len(lines) {
		return ""
	}

	first := strings.TrimSpace(lines[body])
	var quote string
	switch {
	case strings.HasPrefix(first, `"""`):
		quote = `"""`
	case strings.HasPrefix(first, `'''`):
		quote = `'''`
	default:
		return ""
	}

	text := strings.TrimPrefix(first, quote)
	if idx := strings.Index(text, quote); idx >= 0 {
		return strings.TrimSpace(text[:idx])
	}

	parts := []string{strings.TrimSpace(text)}
	for i := body + 1; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if idx := strings.Index(trimmed, quote); idx >= 0 {
			parts = append(parts, strings.TrimSpace(trimmed[:idx]))
			break
		}
		parts = append(parts, trimmed)
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// pyBlockEnd finds the last line of the block opened at start with the
// given indentation, 1-based.
func pyBlockEnd(lines []string, start, indent int) int {
	end := start + 1
	for i := start + 1; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		if indentOf(lines[i]) <= indent {
			break
		}
		end = i + 1
	}
	if end <= start {
		end = start + 1
	}
	return end
}

// indentOf counts leading whitespace, with tabs weighted as 4 columns.
func indentOf(line string) int {
	n := 0
	for _, r := range line {
		switch r {
		case ' ':
			n++
		case '\t':
			n += 4
		default:
			return n
		}
	}
	return n
}
