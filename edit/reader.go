package edit

import (
	"bufio"
	"io"
	"strings"
)

// keyReader assembles the byte stream of a terminal in raw mode into Keys.
// Reads are blocking, one key per call; the editor is a single-threaded
// per-key loop with no timeout, so an escape sequence split across reads
// simply blocks until its remaining bytes arrive.
type keyReader struct {
	r *bufio.Reader
}

func newKeyReader(r io.Reader) *keyReader {
	return &keyReader{bufio.NewReader(r)}
}

// ReadKey reads and decodes one key. Unrecognized escape sequences decode
// to the zero Key, which the editor ignores.
func (kr *keyReader) ReadKey() (Key, error) {
	r, _, err := kr.r.ReadRune()
	if err != nil {
		return Key{}, err
	}

	switch {
	case r == 0x1b:
		return kr.readEscape()
	case r == '\r' || r == '\n':
		return Key{Rune: Enter}, nil
	case r == '\t':
		return Key{Rune: Tab}, nil
	case r == 0x7f || r == 0x08:
		return Key{Rune: Backspace}, nil
	case r < 0x20:
		// C0 control characters arrive as the letter minus 0x60.
		return Key{Rune: r + 0x60, Mod: Ctrl}, nil
	default:
		return Key{Rune: r}, nil
	}
}

func (kr *keyReader) readEscape() (Key, error) {
	b, err := kr.r.ReadByte()
	if err != nil {
		return Key{}, err
	}

	switch b {
	case '[':
		// CSI: parameter bytes, then a final byte in 0x40..0x7e.
		var params []byte
		for {
			c, err := kr.r.ReadByte()
			if err != nil {
				return Key{}, err
			}
			if 0x40 <= c && c <= 0x7e {
				return csiKey(string(params), c), nil
			}
			params = append(params, c)
		}
	case 'O':
		// SS3 sequences, sent for arrows and Home/End by some terminals.
		c, err := kr.r.ReadByte()
		if err != nil {
			return Key{}, err
		}
		return ss3Key(c), nil
	default:
		return Key{Rune: rune(b), Mod: Alt}, nil
	}
}

func csiKey(params string, final byte) Key {
	var mod Mod
	if strings.HasSuffix(params, ";5") {
		mod = Ctrl
		params = strings.TrimSuffix(params, ";5")
	} else if strings.HasSuffix(params, ";3") {
		mod = Alt
		params = strings.TrimSuffix(params, ";3")
	}

	switch final {
	case 'A':
		return Key{Rune: Up, Mod: mod}
	case 'B':
		return Key{Rune: Down, Mod: mod}
	case 'C':
		return Key{Rune: Right, Mod: mod}
	case 'D':
		return Key{Rune: Left, Mod: mod}
	case 'H':
		return Key{Rune: Home, Mod: mod}
	case 'F':
		return Key{Rune: End, Mod: mod}
	case '~':
		switch params {
		case "1", "7":
			return Key{Rune: Home, Mod: mod}
		case "3":
			return Key{Rune: Delete, Mod: mod}
		case "4", "8":
			return Key{Rune: End, Mod: mod}
		}
	}
	return Key{}
}

func ss3Key(final byte) Key {
	switch final {
	case 'A':
		return Key{Rune: Up}
	case 'B':
		return Key{Rune: Down}
	case 'C':
		return Key{Rune: Right}
	case 'D':
		return Key{Rune: Left}
	case 'H':
		return Key{Rune: Home}
	case 'F':
		return Key{Rune: End}
	}
	return Key{}
}
