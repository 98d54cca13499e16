package analyzer

import (
	"regexp"
	"strings"

	"github.com/dshills/docassist/pkg/types"
)

// langRules is the per-language extraction rule table for brace-block
// languages. Endpoint and test markers are enumerated explicitly per
// language rather than guessed.
type langRules struct {
	class    *regexp.Regexp
	function *regexp.Regexp
	imports  *regexp.Regexp

	// endpointMarker matches a route annotation or attribute on the
	// line(s) above a function; group 1 is the HTTP method (may be
	// empty, defaulting to GET), group 2 the route path.
	endpointMarker *regexp.Regexp

	// testMarker matches an annotation marking the next function as a
	// test, such as @Test or #[test].
	testMarker *regexp.Regexp
}

var clikeRules = map[string]langRules{
	"java": {
		class:    regexp.MustCompile(`^\s*(?:public\s+|final\s+|abstract\s+)*(?:class|interface|enum|record)\s+([A-Za-z_]\w*)`),
		function: regexp.MustCompile(`^\s*(?:public|private|protected)\s+(?:static\s+|final\s+|synchronized\s+)*[\w<>\[\],.\s]+?\s+([a-z]\w*)\s*\([^;]*$|^\s*(?:public|private|protected)\s+(?:static\s+|final\s+|synchronized\s+)*[\w<>\[\],.\s]+?\s+([a-z]\w*)\s*\([^;]*\)\s*(?:\{|throws)`),
		imports:  regexp.MustCompile(`^\s*import\s+(?:static\s+)?([\w.]+(?:\.\*)?)\s*;`),
		// @GetMapping("/users"), @RequestMapping(value = "/users", method = RequestMethod.POST)
		endpointMarker: regexp.MustCompile(`^\s*@(?:(Get|Post|Put|Delete|Patch)Mapping|RequestMapping)\s*\(\s*(?:value\s*=\s*)?"([^"]+)"`),
		testMarker:     regexp.MustCompile(`^\s*@Test\b`),
	},
	"c": {
		function: regexp.MustCompile(`^[A-Za-z_][\w\s\*]*[\s\*]([A-Za-z_]\w*)\s*\([^;]*\)\s*\{?\s*$`),
		imports:  regexp.MustCompile(`^\s*#include\s+[<"]([^>"]+)[>"]`),
	},
	"cpp": {
		class:    regexp.MustCompile(`^\s*(?:template\s*<[^>]*>\s*)?(?:class|struct)\s+([A-Za-z_]\w*)\s*(?::|\{|$)`),
		function: regexp.MustCompile(`^[A-Za-z_][\w\s\*&:<>,~]*[\s\*&]([A-Za-z_]\w*|operator\S+)\s*\([^;]*\)\s*(?:const\s*)?(?:noexcept\s*)?(?:override\s*)?\{?\s*$`),
		imports:  regexp.MustCompile(`^\s*#include\s+[<"]([^>"]+)[>"]`),
	},
	"rust": {
		class:    regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:struct|enum|trait)\s+([A-Za-z_]\w*)`),
		function: regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:async\s+)?(?:unsafe\s+)?fn\s+([A-Za-z_]\w*)`),
		imports:  regexp.MustCompile(`^\s*use\s+([\w:]+(?:::\{[^}]*\})?)\s*;`),
		// #[get("/users")] and friends (Rocket, Actix attribute macros)
		endpointMarker: regexp.MustCompile(`^\s*#\[\s*(?:\w+::)?(get|post|put|delete|patch|head|options)\s*\(\s*"([^"]+)"`),
		testMarker:     regexp.MustCompile(`^\s*#\[\s*(?:tokio::)?test\s*\]?`),
	},
	"php": {
		class:    regexp.MustCompile(`^\s*(?:abstract\s+|final\s+)?(?:class|interface|trait)\s+([A-Za-z_]\w*)`),
		function: regexp.MustCompile(`^\s*(?:public\s+|private\s+|protected\s+)?(?:static\s+)?function\s+([A-Za-z_]\w*)\s*\(`),
		imports:  regexp.MustCompile(`^\s*use\s+([\w\\]+)`),
		// #[Route('/users', methods: ['GET'])] (Symfony attributes)
		endpointMarker: regexp.MustCompile(`^\s*#\[\s*Route\s*\(\s*['"]([^'"]+)['"]`),
	},
}

// phpRouteCall matches Laravel-style Route::get('/users', ...) calls,
// which register routes away from the handler declaration.
var phpRouteCall = regexp.MustCompile(`\bRoute::(get|post|put|delete|patch|any)\(\s*['"]([^'"]+)['"]`)

// CLikeParser extracts symbols from brace-delimited languages via the
// per-language rule table.
type CLikeParser struct {
	language string
	rules    langRules
}

// NewCLikeParser creates a parser for java, c, cpp, rust, or php.
func NewCLikeParser(language string) *CLikeParser {
	return &CLikeParser{language: language, rules: clikeRules[language]}
}

// Language returns the canonical language identifier.
func (p *CLikeParser) Language() string { return p.language }

// Parse scans the source line by line; the scan itself never fails,
// but unbalanced delimiters are reported through ParseOutcome.Errors.
func (p *CLikeParser) Parse(source string) (*ParseOutcome, error) {
	lines := strings.Split(source, "\n")
	outcome := &ParseOutcome{Errors: structuralErrors(source, p.language)}

	var pendingMethod, pendingRoute string
	pendingTest := false

	for i, line := range lines {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)

		if p.rules.endpointMarker != nil {
			if m := p.rules.endpointMarker.FindStringSubmatch(line); m != nil {
				if len(m) >= 3 && m[2] != "" {
					pendingMethod, pendingRoute = strings.ToUpper(m[1]), m[2]
					if pendingMethod == "" {
						pendingMethod = "GET"
					}
				} else {
					pendingMethod, pendingRoute = "GET", m[1]
				}
				continue
			}
		}
		if p.rules.testMarker != nil && p.rules.testMarker.MatchString(line) {
			pendingTest = true
			continue
		}

		if p.language == "php" {
			if m := phpRouteCall.FindStringSubmatch(line); m != nil {
				outcome.Symbols = append(outcome.Symbols, types.Symbol{
					Name:       m[2],
					Kind:       types.KindEndpoint,
					Signature:  trimmed,
					Lines:      types.LineRange{Start: lineNo, End: lineNo},
					Language:   p.language,
					HTTPMethod: strings.ToUpper(m[1]),
					Route:      m[2],
				})
				continue
			}
		}

		if p.rules.class != nil {
			if m := p.rules.class.FindStringSubmatch(line); m != nil {
				end := braceBlockEnd(lines, i)
				outcome.Symbols = append(outcome.Symbols, types.Symbol{
					Name:       m[1],
					Kind:       types.KindClass,
					Signature:  headerSignature(line),
					DocComment: leadingComment(lines, i),
					Lines:      types.LineRange{Start: lineNo, End: end},
					Language:   p.language,
				})
				pendingMethod, pendingRoute, pendingTest = "", "", false
				continue
			}
		}

		if p.rules.function != nil {
			if m := p.rules.function.FindStringSubmatch(line); m != nil {
				name := firstGroup(m)
				if name != "" && !isReservedWord(name) {
					end := braceBlockEnd(lines, i)
					sym := types.Symbol{
						Name:       name,
						Kind:       types.KindFunction,
						Signature:  headerSignature(line),
						DocComment: leadingComment(lines, i),
						Lines:      types.LineRange{Start: lineNo, End: end},
						Language:   p.language,
					}
					switch {
					case pendingRoute != "":
						sym.Kind = types.KindEndpoint
						sym.HTTPMethod = pendingMethod
						sym.Route = pendingRoute
					case pendingTest:
						sym.Kind = types.KindTest
					}
					outcome.Symbols = append(outcome.Symbols, sym)
					pendingMethod, pendingRoute, pendingTest = "", "", false
					continue
				}
			}
		}

		if p.rules.imports != nil {
			if m := p.rules.imports.FindStringSubmatch(line); m != nil {
				outcome.Symbols = append(outcome.Symbols, types.Symbol{
					Name:      m[1],
					Kind:      types.KindImport,
					Signature: trimmed,
					Lines:     types.LineRange{Start: lineNo, End: lineNo},
					Language:  p.language,
				})
				continue
			}
		}

		// Non-annotation lines break pending marker association.
		if trimmed != "" && !strings.HasPrefix(trimmed, "@") && !strings.HasPrefix(trimmed, "#[") {
			pendingMethod, pendingRoute, pendingTest = "", "", false
		}
	}

	return outcome, nil
}

// firstGroup returns the first non-empty capture group.
func firstGroup(m []string) string {
	for _, g := range m[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}

// isReservedWord filters control-flow keywords that function-shaped
// regexes can false-positive on.
func isReservedWord(name string) bool {
	switch name {
	case "if", "for", "while", "switch", "return", "else", "catch", "do", "new", "sizeof":
		return true
	}
	return false
}
