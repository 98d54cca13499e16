package analyzer

import (
	"regexp"
	"strings"

	"github.com/dshills/docassist/pkg/types"
)

// Pattern fallback for files whose grammar parse failed. It leans on
// structural cues shared across language families (keywords, braces,
// indentation) and intentionally over-accepts rather than dropping
// recognizable declarations.
var (
	heuristicClass = regexp.MustCompile(`^\s*(?:\w+\s+)*(?:class|struct|interface|trait|enum)\s+([A-Za-z_]\w*)`)
	heuristicFunc  = regexp.MustCompile(`^\s*(?:\w+\s+)*(?:def|fn|func|function)\s+([A-Za-z_]\w*)\s*\(`)
	heuristicDecl  = regexp.MustCompile(`^([A-Za-z_][\w\s\*]*?)\b([A-Za-z_]\w*)\s*\([^;]*\)\s*\{`)
)

// heuristicExtract runs the degraded pattern pass over source text.
func heuristicExtract(source, language string) []types.Symbol {
	lines := strings.Split(source, "\n")
	symbols := make([]types.Symbol, 0)

	for i, line := range lines {
		lineNo := i + 1

		if m := heuristicClass.FindStringSubmatch(line); m != nil {
			symbols = append(symbols, types.Symbol{
				Name:      m[1],
				Kind:      types.KindClass,
				Signature: headerSignature(line),
				Lines:     types.LineRange{Start: lineNo, End: lineNo},
				Language:  language,
			})
			continue
		}
		if m := heuristicFunc.FindStringSubmatch(line); m != nil {
			symbols = append(symbols, types.Symbol{
				Name:      m[1],
				Kind:      types.KindFunction,
				Signature: headerSignature(line),
				Lines:     types.LineRange{Start: lineNo, End: lineNo},
				Language:  language,
			})
			continue
		}
		// C-style: return type then name then argument list then brace.
		if m := heuristicDecl.FindStringSubmatch(line); m != nil && !isReservedWord(m[2]) {
			symbols = append(symbols, types.Symbol{
				Name:      m[2],
				Kind:      types.KindFunction,
				Signature: headerSignature(line),
				Lines:     types.LineRange{Start: lineNo, End: lineNo},
				Language:  language,
			})
		}
	}

	return symbols
}
