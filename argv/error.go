package argv

import "fmt"

// ErrorKind enumerates the syntax errors the expansion pipeline can find in
// a command line.
type ErrorKind int

const (
	// UnexpectedCharacter means a character appeared where it is not valid,
	// such as a non-identifier character right after a bare $.
	UnexpectedCharacter ErrorKind = iota
	// UnexpectedEndOfLine means the line ended while more input was needed,
	// such as after a trailing backslash.
	UnexpectedEndOfLine
	// UnterminatedSequence means a quote or ${ was opened but never closed.
	UnterminatedSequence
	// InvalidEscape means a backslash was followed by a character that is
	// not escapable.
	InvalidEscape
)

// Error is a syntax error in a command line. It is always recoverable: the
// caller reports it, discards the line and keeps the session going.
type Error struct {
	Kind ErrorKind
	// Char is the offending or unterminated character. It is unset for
	// UnexpectedEndOfLine.
	Char rune
}

func (e *Error) Error() string {
	switch e.Kind {
	case UnexpectedCharacter:
		return fmt.Sprintf("unexpected character %q", e.Char)
	case UnexpectedEndOfLine:
		return "unexpected end of line"
	case UnterminatedSequence:
		return fmt.Sprintf("unterminated %q sequence", e.Char)
	case InvalidEscape:
		return fmt.Sprintf("invalid escape character %q", e.Char)
	}
	return fmt.Sprintf("unknown expansion error %d", int(e.Kind))
}
