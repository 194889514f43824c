package source

import (
	"regexp"
	"slices"

	"github.com/matzehuels/modgraph/pkg/graph"
)

// specifier matches a quoted module specifier. Template literals with
// substitutions are not static requests and are skipped.
const specifier = `(?:"([^"\n]+)"|'([^'\n]+)'|` + "`([^`$\\n]+)`" + `)`

var patterns = []struct {
	re   *regexp.Regexp
	kind graph.Kind
}{
	{regexp.MustCompile(`\bimport\s+(?:[\w$*{}\s,]+?\s+from\s+)?` + specifier), graph.KindStatic},
	{regexp.MustCompile(`\bexport\s+(?:\*(?:\s+as\s+[\w$]+)?|\{[^}]*\})\s+from\s+` + specifier), graph.KindStatic},
	{regexp.MustCompile(`\bimport\s*\(\s*` + specifier + `\s*[,)]`), graph.KindDynamic},
	{regexp.MustCompile(`\brequire\s*\(\s*` + specifier + `\s*\)`), graph.KindRequire},
}

type match struct {
	offset int
	req    Request
}

// Scan extracts dependency requests from JavaScript source in source order.
// Comments are ignored; string, template and regular expression literals
// are not scanned, while template substitutions are.
func Scan(src []byte) []Request {
	code, literal := lex(src)

	var found []match
	for _, p := range patterns {
		for _, loc := range p.re.FindAllSubmatchIndex(code, -1) {
			if literal[loc[0]] {
				continue
			}
			spec := ""
			for g := 1; g <= 3; g++ {
				if s, e := loc[2*g], loc[2*g+1]; s >= 0 {
					spec = string(code[s:e])
					break
				}
			}
			if spec == "" {
				continue
			}
			found = append(found, match{offset: loc[0], req: Request{Specifier: spec, Kind: p.kind}})
		}
	}

	slices.SortStableFunc(found, func(a, b match) int { return a.offset - b.offset })

	reqs := make([]Request, len(found))
	for i, m := range found {
		m.req.Index = i
		reqs[i] = m.req
	}
	return reqs
}

// lex blanks out comments in a copy of src and marks every byte that lies
// inside a string, template or regular expression literal. Offsets are
// preserved, so both results index like src.
func lex(src []byte) (code []byte, literal []bool) {
	code = slices.Clone(src)
	literal = make([]bool, len(code))

	var (
		braces []int // open braces per template substitution, innermost last
		last   = -1  // offset of the last significant code byte
		value  bool  // the last token was a literal
	)
	// template continues template text at i and returns where code resumes.
	template := func(i int) int {
		j, open := templateText(code, literal, i)
		if open {
			braces = append(braces, 0)
		}
		last, value = j-1, !open
		return j
	}

	for i := 0; i < len(code); {
		c := code[i]
		switch {
		case c == '/' && i+1 < len(code) && code[i+1] == '/':
			for ; i < len(code) && code[i] != '\n'; i++ {
				code[i] = ' '
			}
			continue
		case c == '/' && i+1 < len(code) && code[i+1] == '*':
			code[i], code[i+1] = ' ', ' '
			j := i + 2
			for ; j < len(code); j++ {
				if code[j] == '*' && j+1 < len(code) && code[j+1] == '/' {
					code[j], code[j+1] = ' ', ' '
					j += 2
					break
				}
				if code[j] != '\n' {
					code[j] = ' '
				}
			}
			i = j
			continue
		case c == '"' || c == '\'':
			j := stringEnd(code, i)
			mark(literal, i, j)
			i, last, value = j, j-1, true
			continue
		case c == '`':
			literal[i] = true
			i = template(i + 1)
			continue
		case c == '{':
			if n := len(braces); n > 0 {
				braces[n-1]++
			}
		case c == '}':
			if n := len(braces); n > 0 {
				if braces[n-1] == 0 {
					braces = braces[:n-1]
					literal[i] = true
					i = template(i + 1)
					continue
				}
				braces[n-1]--
			}
		case c == '/' && regexAllowed(code, last, value):
			if j := regexEnd(code, i); j > 0 {
				mark(literal, i, j)
				i, last, value = j, j-1, true
				continue
			}
		}
		if !isSpace(c) {
			last, value = i, false
		}
		i++
	}
	return code, literal
}

func mark(literal []bool, from, to int) {
	for k := from; k < to; k++ {
		literal[k] = true
	}
}

// stringEnd returns the offset after the string literal opened at i. An
// unterminated string ends at the line break.
func stringEnd(code []byte, i int) int {
	quote := code[i]
	for j := i + 1; j < len(code); j++ {
		switch code[j] {
		case '\\':
			j++
		case quote:
			return j + 1
		case '\n':
			return j
		}
	}
	return len(code)
}

// templateText marks template text from i up to the closing backtick or the
// next substitution. open reports whether a substitution was entered.
func templateText(code []byte, literal []bool, i int) (next int, open bool) {
	for j := i; j < len(code); j++ {
		literal[j] = true
		switch code[j] {
		case '\\':
			if j+1 < len(code) {
				j++
				literal[j] = true
			}
		case '`':
			return j + 1, false
		case '$':
			if j+1 < len(code) && code[j+1] == '{' {
				literal[j+1] = true
				return j + 2, true
			}
		}
	}
	return len(code), false
}

// regexEnd returns the offset after the regular expression literal opened
// at i, or -1 when the line ends first and the slash is a division.
func regexEnd(code []byte, i int) int {
	class := false
	for j := i + 1; j < len(code); j++ {
		switch code[j] {
		case '\\':
			j++
		case '\n':
			return -1
		case '[':
			class = true
		case ']':
			class = false
		case '/':
			if !class {
				return j + 1
			}
		}
	}
	return -1
}

// keywordsBeforeExpr are the keywords after which a slash starts a regular
// expression rather than a division.
var keywordsBeforeExpr = map[string]bool{
	"return": true, "typeof": true, "instanceof": true, "in": true, "of": true,
	"new": true, "delete": true, "void": true, "throw": true, "case": true,
	"do": true, "else": true, "yield": true, "await": true,
}

// regexAllowed reports whether a slash after the token ending at last opens
// a regular expression.
func regexAllowed(code []byte, last int, value bool) bool {
	if value {
		return false
	}
	if last < 0 {
		return true
	}
	switch c := code[last]; {
	case c == ')' || c == ']':
		return false
	case isIdent(c):
		start := last
		for start > 0 && isIdent(code[start-1]) {
			start--
		}
		return keywordsBeforeExpr[string(code[start:last+1])]
	}
	return true
}

func isIdent(c byte) bool {
	return c == '_' || c == '$' || c >= 0x80 ||
		'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
