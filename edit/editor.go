// Package edit implements wrash's interactive line editor: a blocking,
// single-threaded per-key read loop over a raw-mode terminal, with history
// recall and two-stage tab completion.
package edit

import (
	"fmt"
	"io"
	"os"
	"unicode"

	"github.com/mattn/go-runewidth"

	"github.com/wrash-sh/wrash/complete"
	"github.com/wrash-sh/wrash/sys"
)

// listPadding is the gap between columns in a completion listing.
const listPadding = 2

// Editor reads one committed command line per ReadLine call.
type Editor struct {
	// In is the terminal to read from; its mode is toggled around each
	// ReadLine call.
	In *os.File
	// Out receives the prompt, the echoed buffer and completion listings.
	Out io.Writer

	// Prompt renders the prompt for each redraw. Nil means no prompt.
	Prompt func() string
	// Hist returns the history lines Up and Down recall over, newest
	// first. It is called once per ReadLine, when the call starts.
	Hist func() []string
	// Complete returns the completion candidates for prefix. isCommand is
	// true when the prefix starts at the beginning of the line.
	Complete func(prefix string, isCommand bool) []string
}

// editorState is the mutable state of one ReadLine call, discarded once a
// line is committed.
type editorState struct {
	buffer []rune
	cursor int // rune offset in [0, len(buffer)]

	hist       []string
	recall     int    // index into hist, -1 when not recalling
	snapshot   []rune // buffer as it was when recall started
	lastWasTab bool
}

// ReadLine reads one line from the terminal. Raw mode is entered for the
// duration of the call and restored on every return path, including I/O
// failure. The returned line has no trailing newline; Ctrl-D commits the
// literal line "exit".
func (ed *Editor) ReadLine() (string, error) {
	restore, err := sys.SetupTerminal(int(ed.In.Fd()))
	if err != nil {
		return "", fmt.Errorf("can't set up terminal: %w", err)
	}
	defer restore()

	line, err := ed.readLine()
	fmt.Fprint(ed.Out, "\r\n")
	return line, err
}

func (ed *Editor) readLine() (string, error) {
	kr := newKeyReader(ed.In)
	st := &editorState{recall: -1}
	if ed.Hist != nil {
		st.hist = ed.Hist()
	}

	ed.redraw(st)
	for {
		k, err := kr.ReadKey()
		if err != nil {
			return "", err
		}
		if done := ed.handleKey(st, k); done {
			return string(st.buffer), nil
		}
		ed.redraw(st)
	}
}

// handleKey applies one key to the state, redrawing any side output (like
// completion listings) itself. It reports whether the line is committed.
func (ed *Editor) handleKey(st *editorState, k Key) (done bool) {
	lastWasTab := st.lastWasTab
	st.lastWasTab = false

	switch k {
	case Key{Rune: Enter}:
		return true
	case Key{Rune: 'd', Mod: Ctrl}:
		st.buffer = []rune("exit")
		st.cursor = len(st.buffer)
		ed.redraw(st)
		return true

	case Key{Rune: Backspace}:
		if st.cursor > 0 {
			st.buffer = append(st.buffer[:st.cursor-1], st.buffer[st.cursor:]...)
			st.cursor--
		}
	case Key{Rune: Delete}:
		if st.cursor < len(st.buffer) {
			st.buffer = append(st.buffer[:st.cursor], st.buffer[st.cursor+1:]...)
		}

	case Key{Rune: Left}:
		if st.cursor > 0 {
			st.cursor--
		}
	case Key{Rune: Right}:
		if st.cursor < len(st.buffer) {
			st.cursor++
		}
	case Key{Rune: Home}, Key{Rune: 'a', Mod: Ctrl}:
		st.cursor = 0
	case Key{Rune: End}, Key{Rune: 'e', Mod: Ctrl}:
		st.cursor = len(st.buffer)
	case Key{Rune: Left, Mod: Ctrl}, Key{Rune: 'b', Mod: Alt}:
		st.cursor = prevBoundary(st.buffer, st.cursor)
	case Key{Rune: Right, Mod: Ctrl}, Key{Rune: 'f', Mod: Alt}:
		st.cursor = nextBoundary(st.buffer, st.cursor)

	case Key{Rune: 'u', Mod: Ctrl}:
		st.buffer = append([]rune(nil), st.buffer[st.cursor:]...)
		st.cursor = 0
	case Key{Rune: 'k', Mod: Ctrl}:
		st.buffer = st.buffer[:st.cursor]

	case Key{Rune: Up}:
		st.recallOlder()
	case Key{Rune: Down}:
		st.recallNewer()

	case Key{Rune: 'l', Mod: Ctrl}:
		fmt.Fprint(ed.Out, "\x1b[2J\x1b[H")

	case Key{Rune: Tab}:
		st.lastWasTab = true
		ed.complete(st, lastWasTab)

	default:
		if k.Mod == 0 && k.Rune > 0 && unicode.IsPrint(k.Rune) {
			st.buffer = append(st.buffer[:st.cursor], append([]rune{k.Rune}, st.buffer[st.cursor:]...)...)
			st.cursor++
		}
	}
	return false
}

// recallOlder steps one entry further into history, snapshotting the
// in-progress buffer on the first step. It clamps at the oldest match.
func (st *editorState) recallOlder() {
	if len(st.hist) == 0 {
		return
	}
	if st.recall == -1 {
		st.snapshot = append([]rune(nil), st.buffer...)
		st.recall = 0
	} else if st.recall+1 < len(st.hist) {
		st.recall++
	}
	st.buffer = []rune(st.hist[st.recall])
	st.cursor = len(st.buffer)
}

// recallNewer steps back toward the present; stepping past the newest
// match restores the snapshot and leaves recall mode.
func (st *editorState) recallNewer() {
	switch {
	case st.recall > 0:
		st.recall--
		st.buffer = []rune(st.hist[st.recall])
		st.cursor = len(st.buffer)
	case st.recall == 0:
		st.recall = -1
		st.buffer = st.snapshot
		st.snapshot = nil
		st.cursor = len(st.buffer)
	}
}

// complete handles one Tab press: a single candidate replaces the typed
// prefix, several candidates narrow to their common prefix first, and a
// second consecutive Tab lists them all.
func (ed *Editor) complete(st *editorState, again bool) {
	if ed.Complete == nil {
		return
	}

	start := wordStart(st.buffer, st.cursor)
	prefix := string(st.buffer[start:st.cursor])
	cands := ed.Complete(prefix, start == 0)

	switch {
	case len(cands) == 0:
	case len(cands) == 1:
		st.replacePrefix(start, cands[0])
	case again:
		ed.listCandidates(cands)
	default:
		if shared, ok := complete.CommonPrefix(cands); ok && len(shared) > len(prefix) {
			st.replacePrefix(start, shared)
		}
	}
}

// replacePrefix replaces the span [start, cursor) with text and puts the
// cursor after it.
func (st *editorState) replacePrefix(start int, text string) {
	tail := append([]rune(nil), st.buffer[st.cursor:]...)
	st.buffer = append(st.buffer[:start], []rune(text)...)
	st.cursor = len(st.buffer)
	st.buffer = append(st.buffer, tail...)
}

// listCandidates prints every candidate below the edit line in columns
// sized to the longest candidate; the next redraw repaints the prompt
// underneath.
func (ed *Editor) listCandidates(cands []string) {
	_, cols := sys.GetWinsize(int(ed.In.Fd()))

	longest := 0
	for _, cand := range cands {
		if w := runewidth.StringWidth(cand); w > longest {
			longest = w
		}
	}
	ed.writeColumns(cands, longest+listPadding, cols)
}

func (ed *Editor) writeColumns(cands []string, colWidth, termWidth int) {
	perRow := termWidth / colWidth
	if perRow < 1 {
		perRow = 1
	}

	fmt.Fprint(ed.Out, "\r\n")
	for i, cand := range cands {
		fmt.Fprint(ed.Out, runewidth.FillRight(cand, colWidth))
		if (i+1)%perRow == 0 {
			fmt.Fprint(ed.Out, "\r\n")
		}
	}
	if len(cands)%perRow != 0 {
		fmt.Fprint(ed.Out, "\r\n")
	}
}

// wordStart returns the offset at which the word under completion begins:
// just past the closest space left of pos, or 0.
func wordStart(buffer []rune, pos int) int {
	for pos > 0 && buffer[pos-1] != ' ' {
		pos--
	}
	return pos
}

// nextBoundary returns the next word boundary at or after pos: the first
// offset whose whitespace-ness differs from that of the character at pos.
func nextBoundary(buffer []rune, pos int) int {
	if pos >= len(buffer) {
		return len(buffer)
	}
	start := unicode.IsSpace(buffer[pos])
	for i := pos + 1; i < len(buffer); i++ {
		if unicode.IsSpace(buffer[i]) != start {
			return i
		}
	}
	return len(buffer)
}

// prevBoundary mirrors nextBoundary, scanning left from the character just
// before pos.
func prevBoundary(buffer []rune, pos int) int {
	if pos <= 0 {
		return 0
	}
	start := unicode.IsSpace(buffer[pos-1])
	for i := pos - 1; i > 0; i-- {
		if unicode.IsSpace(buffer[i-1]) != start {
			return i
		}
	}
	return 0
}

// redraw repaints the prompt and buffer in place and parks the cursor at
// its logical offset.
func (ed *Editor) redraw(st *editorState) {
	prompt := ""
	if ed.Prompt != nil {
		prompt = ed.Prompt()
	}

	fmt.Fprintf(ed.Out, "\r\x1b[K%s%s\r", prompt, string(st.buffer))
	col := runewidth.StringWidth(prompt) + runewidth.StringWidth(string(st.buffer[:st.cursor]))
	if col > 0 {
		fmt.Fprintf(ed.Out, "\x1b[%dC", col)
	}
}
