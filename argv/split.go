package argv

import "strings"

// SplitWords splits source into words on runs of space and tab. A delimiter
// inside a quoted span or immediately following a backslash is not a split
// point. Quote characters are kept in the words; removing them is the job
// of ExpandQuotes, which runs after filename expansion.
func SplitWords(source string) []string {
	var words []string
	var word strings.Builder
	var quote rune
	var prev rune
	inWord := false

	for _, r := range source {
		switch {
		case quote != 0:
			if r == quote && prev != '\\' {
				quote = 0
			}
			word.WriteRune(r)
		case (r == '\'' || r == '"') && prev != '\\':
			quote = r
			inWord = true
			word.WriteRune(r)
		case (r == ' ' || r == '\t') && prev != '\\':
			if inWord {
				words = append(words, word.String())
				word.Reset()
				inWord = false
			}
		default:
			inWord = true
			word.WriteRune(r)
		}
		prev = r
	}
	if inWord {
		words = append(words, word.String())
	}
	return words
}
