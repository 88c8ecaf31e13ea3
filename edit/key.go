package edit

import "fmt"

// Key represents a single keyboard input, typically assembled from an
// escape sequence.
type Key struct {
	Rune rune
	Mod  Mod
}

// Mod represents a modifier key.
type Mod byte

// Values for Mod.
const (
	Alt Mod = 1 << iota
	Ctrl
)

// Special keys are represented as negative runes so they cannot collide
// with printable input.
const (
	Up rune = -iota - 1
	Down
	Left
	Right
	Home
	End
	Backspace
	Delete
	Enter
	Tab
)

var keyNames = map[rune]string{
	Up: "Up", Down: "Down", Left: "Left", Right: "Right",
	Home: "Home", End: "End",
	Backspace: "Backspace", Delete: "Delete", Enter: "Enter", Tab: "Tab",
}

func (k Key) String() string {
	s := ""
	if k.Mod&Ctrl != 0 {
		s += "Ctrl-"
	}
	if k.Mod&Alt != 0 {
		s += "Alt-"
	}
	if name, ok := keyNames[k.Rune]; ok {
		return s + name
	}
	if k.Rune <= 0 {
		return s + fmt.Sprintf("(bad key %d)", k.Rune)
	}
	return s + string(k.Rune)
}
