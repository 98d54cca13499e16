package analyzer

import (
	"fmt"
	"regexp"
	"strings"
)

// structuralErrors checks source for signs that the line scan ran over
// malformed code: bracket pairs left unbalanced outside strings and
// comments, and for Python a def/class header with no terminating
// colon. Reported errors downgrade the symbol table to a partial parse.
func structuralErrors(source, lang string) []string {
	errs := delimiterErrors(source, lang)
	if lang == "python" {
		errs = append(errs, pyHeaderErrors(source)...)
	}
	return errs
}

// delimiterErrors counts (), [] and {} outside string literals and
// comments and reports any pair that does not balance. String and
// comment syntax varies per language, so the skipping rules do too.
func delimiterErrors(source, lang string) []string {
	var (
		hashComment  = lang == "python" || lang == "php"
		slashComment = lang != "python"
		tripleQuote  = lang == "python"
		backtick     = lang == "javascript" || lang == "typescript"
		// In these languages a single quote is a char literal or a Rust
		// lifetime, never a multi-character string.
		charQuote = lang == "java" || lang == "c" || lang == "cpp" || lang == "rust"
	)

	counts := map[rune]int{'(': 0, '[': 0, '{': 0}
	runes := []rune(source)

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if tripleQuote && (r == '"' || r == '\'') && runAt(runes, i, r, 3) {
			j := tripleEnd(runes, i+3, r)
			if j < 0 {
				return []string{"unterminated triple-quoted string"}
			}
			i = j
			continue
		}
		if charQuote && r == '\'' {
			for k := i + 1; k <= i+3 && k < len(runes); k++ {
				if runes[k] == '\'' {
					i = k
					break
				}
			}
			continue
		}
		if r == '"' || r == '\'' || (backtick && r == '`') {
			closer := r
			j := i + 1
			for j < len(runes) && runes[j] != closer {
				if runes[j] == '\\' {
					j++
				} else if runes[j] == '\n' && closer != '`' {
					// An unterminated literal ends at the line break.
					break
				}
				j++
			}
			i = j
			continue
		}
		if hashComment && r == '#' {
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			continue
		}
		if slashComment && r == '/' && i+1 < len(runes) {
			if runes[i+1] == '/' {
				for i < len(runes) && runes[i] != '\n' {
					i++
				}
				continue
			}
			if runes[i+1] == '*' {
				end := strings.Index(string(runes[i+2:]), "*/")
				if end < 0 {
					return []string{"unterminated block comment"}
				}
				i += 2 + end + 1
				continue
			}
		}

		switch r {
		case '(':
			counts['(']++
		case ')':
			counts['(']--
		case '[':
			counts['[']++
		case ']':
			counts['[']--
		case '{':
			counts['{']++
		case '}':
			counts['{']--
		}
	}

	var errs []string
	for _, p := range []struct {
		open rune
		name string
	}{
		{'(', "parentheses"},
		{'[', "brackets"},
		{'{', "braces"},
	} {
		if c := counts[p.open]; c != 0 {
			errs = append(errs, fmt.Sprintf("unbalanced %s (%+d)", p.name, c))
		}
	}
	return errs
}

// runAt reports whether runes[i:] starts with count copies of r.
func runAt(runes []rune, i int, r rune, count int) bool {
	if i+count > len(runes) {
		return false
	}
	for k := 0; k < count; k++ {
		if runes[i+k] != r {
			return false
		}
	}
	return true
}

// tripleEnd returns the index of the last quote of the closing triple,
// or -1 when the string never closes.
func tripleEnd(runes []rune, from int, r rune) int {
	for i := from; i+3 <= len(runes); i++ {
		if runAt(runes, i, r, 3) {
			return i + 2
		}
	}
	return -1
}

var pyHeaderRe = regexp.MustCompile(`^\s*(?:async\s+)?(def|class)\b`)

// pyHeaderErrors reports def/class headers with no terminating colon
// within the multi-line header lookahead.
func pyHeaderErrors(source string) []string {
	lines := strings.Split(source, "\n")
	var errs []string
	for i, line := range lines {
		m := pyHeaderRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		terminated := false
		for j := i; j < len(lines) && j < i+5; j++ {
			part := strings.TrimSpace(lines[j])
			// Drop a trailing comment before checking for the colon.
			if idx := strings.Index(part, " #"); idx >= 0 {
				part = strings.TrimSpace(part[:idx])
			}
			if strings.HasSuffix(part, ":") {
				terminated = true
				break
			}
		}
		if !terminated {
			errs = append(errs, fmt.Sprintf("line %d: %s header missing ':'", i+1, m[1]))
		}
	}
	return errs
}
