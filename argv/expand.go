// Package argv turns one raw command line into its final argument vector.
//
// Expansion is a fixed-order, non-reentrant pipeline: tilde expansion,
// variable expansion, word splitting, filename expansion, quote removal.
// The order is a contract: text produced by variable expansion is never
// re-scanned for glob metacharacters and never re-split.
package argv

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
)

// Expander runs the expansion pipeline. Process-wide lookups are injected
// so callers can expand deterministically in tests without mutating real
// process state.
type Expander struct {
	// Getenv looks up an environment variable. Undefined variables expand
	// to the empty string, so there is no miss signal. A nil Getenv treats
	// every variable as undefined.
	Getenv func(name string) string

	// HomeDir reports the directory substituted for an unquoted, unescaped
	// tilde. If ok is false the tilde is left literal. A nil HomeDir uses
	// os.UserHomeDir.
	HomeDir func() (home string, ok bool)
}

func (ex *Expander) getenv(name string) string {
	if ex.Getenv == nil {
		return ""
	}
	return ex.Getenv(name)
}

func (ex *Expander) homeDir() (string, bool) {
	if ex.HomeDir == nil {
		home, err := os.UserHomeDir()
		return home, err == nil
	}
	return ex.HomeDir()
}

// Expand runs the full pipeline over source and returns the argument
// vector.
func (ex *Expander) Expand(source string) ([]string, error) {
	tilded, err := ex.ExpandTilde(source)
	if err != nil {
		return nil, err
	}

	vared, err := ex.ExpandVars(tilded)
	if err != nil {
		return nil, err
	}

	words := SplitWords(vared)
	words = ExpandFilenames(words)

	return ExpandQuotes(words)
}

// ExpandTilde replaces every unescaped, unquoted tilde in source with the
// home directory. Tildes inside quotes or after a backslash pass through
// unexpanded, as does every tilde when no home directory is available.
func (ex *Expander) ExpandTilde(source string) (string, error) {
	var out strings.Builder
	var quote rune
	var prev rune

	for _, r := range source {
		switch {
		case quote != 0:
			if r == quote && prev != '\\' {
				quote = 0
			}
			out.WriteRune(r)
		case (r == '\'' || r == '"') && prev != '\\':
			quote = r
			out.WriteRune(r)
		case r == '~' && prev != '\\':
			if home, ok := ex.homeDir(); ok {
				out.WriteString(home)
			} else {
				out.WriteRune('~')
			}
		default:
			out.WriteRune(r)
		}
		prev = r
	}

	if quote != 0 {
		return "", &Error{Kind: UnterminatedSequence, Char: quote}
	}
	return out.String(), nil
}

// ExpandVars replaces every variable reference in source with its value.
// ${NAME} requires the closing brace; a bare $NAME runs to the first
// character that is not alphanumeric or '_'. References inside single
// quotes are suppressed; inside double quotes they still expand, and a
// single quote there is plain content, not a suppressor.
func (ex *Expander) ExpandVars(source string) (string, error) {
	var out strings.Builder
	runes := []rune(source)
	var inSingle, inDouble bool
	var prev rune

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case inSingle:
			if r == '\'' && prev != '\\' {
				inSingle = false
			}
			out.WriteRune(r)
		case r == '\'' && !inDouble && prev != '\\':
			inSingle = true
			out.WriteRune(r)
		case r == '"' && prev != '\\':
			inDouble = !inDouble
			out.WriteRune(r)
		case r == '$':
			if i == len(runes)-1 {
				return "", &Error{Kind: UnterminatedSequence, Char: '$'}
			}
			if runes[i+1] == '{' {
				end := -1
				for j := i + 2; j < len(runes); j++ {
					if runes[j] == '}' {
						end = j
						break
					}
				}
				if end < 0 {
					return "", &Error{Kind: UnterminatedSequence, Char: '{'}
				}
				out.WriteString(ex.getenv(string(runes[i+2 : end])))
				i = end
			} else {
				j := i + 1
				for j < len(runes) && isIdentRune(runes[j]) {
					j++
				}
				if j == i+1 {
					return "", &Error{Kind: UnexpectedCharacter, Char: runes[j]}
				}
				out.WriteString(ex.getenv(string(runes[i+1 : j])))
				i = j - 1
			}
		default:
			out.WriteRune(r)
		}
		prev = runes[i]
	}

	return out.String(), nil
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// ExpandFilenames replaces every glob candidate that matches at least one
// filesystem entry with its matches, one word per match, sorted
// lexicographically. A word is a candidate iff it contains an unescaped
// '*', '?' or '['. A candidate with no matches is kept literally; that is
// not an error.
func ExpandFilenames(words []string) []string {
	out := make([]string, 0, len(words))
	for _, word := range words {
		if !hasUnescapedMeta(word) {
			out = append(out, word)
			continue
		}

		matches, err := filepath.Glob(word)
		if err != nil || len(matches) == 0 {
			out = append(out, word)
			continue
		}
		sort.Strings(matches)
		out = append(out, matches...)
	}
	return out
}

func hasUnescapedMeta(word string) bool {
	var prev rune
	for _, r := range word {
		if (r == '*' || r == '?' || r == '[') && prev != '\\' {
			return true
		}
		prev = r
	}
	return false
}

// ExpandQuotes is the final pass: it removes unescaped quote delimiters and
// resolves backslash escapes. A quote character of the other kind inside an
// active quoted span is emitted literally. Only a quote character, a space
// or a tilde may be escaped.
func ExpandQuotes(words []string) ([]string, error) {
	out := make([]string, 0, len(words))
	for _, word := range words {
		expanded, err := expandQuotes(word)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded)
	}
	return out, nil
}

func expandQuotes(word string) (string, error) {
	var out strings.Builder
	var quote rune
	runes := []rune(word)

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\\':
			if i == len(runes)-1 {
				return "", &Error{Kind: UnexpectedEndOfLine}
			}
			i++
			switch c := runes[i]; c {
			case '"', '\'', ' ', '~':
				out.WriteRune(c)
			default:
				return "", &Error{Kind: InvalidEscape, Char: c}
			}
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				out.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
		default:
			out.WriteRune(r)
		}
	}

	if quote != 0 {
		return "", &Error{Kind: UnterminatedSequence, Char: quote}
	}
	return out.String(), nil
}
