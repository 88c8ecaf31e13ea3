// Package shell ties the line editor, the expansion engine and the history
// store into one interactive wrapper-shell session.
package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/wrash-sh/wrash/argv"
	"github.com/wrash-sh/wrash/complete"
	"github.com/wrash-sh/wrash/edit"
	"github.com/wrash-sh/wrash/history"
)

// Session is one interactive session. It exclusively owns its history
// store for the session's lifetime and is not safe for concurrent use.
type Session struct {
	baseArgv []string
	base     string // baseArgv joined, as shown in prompts and history
	mode     history.Mode
	frozen   bool

	hist     *history.History
	editor   *edit.Editor
	expander *argv.Expander
	environ  map[string]string

	in     *os.File
	out    io.Writer
	errOut io.Writer

	exitRequested bool
	exitCode      int
}

// Option configures a Session.
type Option func(*Session)

// WithHistory sets the history store backing the session.
func WithHistory(h *history.History) Option {
	return func(s *Session) { s.hist = h }
}

// WithFrozen freezes the session: the mode can no longer be changed away
// from Wrapped.
func WithFrozen(frozen bool) Option {
	return func(s *Session) { s.frozen = frozen }
}

// WithMode sets the starting mode.
func WithMode(mode history.Mode) Option {
	return func(s *Session) { s.mode = mode }
}

// WithStdio redirects the session's terminal input and its output and
// error streams.
func WithStdio(in *os.File, out, errOut io.Writer) Option {
	return func(s *Session) {
		s.in, s.out, s.errOut = in, out, errOut
	}
}

// WithEnviron replaces the session environment, used for variable
// expansion and passed to spawned commands.
func WithEnviron(environ map[string]string) Option {
	return func(s *Session) { s.environ = environ }
}

// NewSession creates a session wrapping baseArgv, which must have at least
// the program name.
func NewSession(baseArgv []string, opts ...Option) (*Session, error) {
	if len(baseArgv) == 0 {
		return nil, errors.New("no base command given")
	}

	s := &Session{
		baseArgv: baseArgv,
		base:     strings.Join(baseArgv, " "),
		mode:     history.Wrapped,
		in:       os.Stdin,
		out:      os.Stdout,
		errOut:   os.Stderr,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.hist == nil {
		s.hist = history.New()
	}
	if s.environ == nil {
		s.environ = environFromOS()
	}

	s.expander = &argv.Expander{
		Getenv: func(name string) string { return s.environ[name] },
		HomeDir: func() (string, bool) {
			home, err := os.UserHomeDir()
			return home, err == nil
		},
	}
	s.editor = &edit.Editor{
		In:       s.in,
		Out:      s.out,
		Prompt:   s.prompt,
		Hist:     s.recallLines,
		Complete: s.complete,
	}

	return s, nil
}

func environFromOS() map[string]string {
	environ := make(map[string]string)
	for _, kv := range os.Environ() {
		if key, value, ok := strings.Cut(kv, "="); ok {
			environ[key] = value
		}
	}
	return environ
}

// Base returns the wrapped base command as one display string.
func (s *Session) Base() string { return s.base }

// Mode returns the current session mode.
func (s *Session) Mode() history.Mode { return s.mode }

// IsFrozen reports whether the mode is locked to Wrapped.
func (s *Session) IsFrozen() bool { return s.frozen }

// SetMode switches the session mode. A frozen session rejects any change
// away from its current mode.
func (s *Session) SetMode(mode history.Mode) error {
	if s.frozen && mode != s.mode {
		return errors.New("session is frozen, mode cannot be changed")
	}
	s.mode = mode
	return nil
}

// History exposes the session's history store; callers apply their own
// filters.
func (s *Session) History() *history.History { return s.hist }

// HistorySync persists the history store to its backing file.
func (s *Session) HistorySync() error { return s.hist.Sync() }

// PushToHistory records one committed input line. Builtin invocations are
// recorded without a base so both modes recall them identically.
func (s *Session) PushToHistory(raw string, isBuiltin bool) {
	entry := &history.Entry{
		Argv:      strings.TrimSpace(raw),
		Mode:      s.mode,
		IsBuiltin: isBuiltin,
	}
	if !isBuiltin && s.mode == history.Wrapped {
		base := s.base
		entry.Base = &base
	}
	s.hist.Push(entry)
}

// prompt renders "[user wd] base > " for wrapped sessions and
// "[user wd] $ " for normal ones.
func (s *Session) prompt() string {
	user := s.environ["USER"]
	wd, _ := os.Getwd()
	if s.mode == history.Wrapped {
		return fmt.Sprintf("[%s %s] %s > ", user, wd, s.base)
	}
	return fmt.Sprintf("[%s %s] $ ", user, wd)
}

// recallLines renders the filtered history view the editor recalls over,
// newest first. Wrapped non-builtin entries show only their argv; the base
// is implicit in the prompt.
func (s *Session) recallLines() []string {
	matched := s.hist.Filtered(history.RecallPredicate(s.mode, s.base))

	lines := make([]string, 0, len(matched))
	for i := len(matched) - 1; i >= 0; i-- {
		entry := matched[i]
		if entry.Mode == history.Wrapped && !entry.IsBuiltin {
			lines = append(lines, entry.Argv)
		} else {
			lines = append(lines, entry.Command())
		}
	}
	return lines
}

func (s *Session) complete(prefix string, isCommand bool) []string {
	if isCommand {
		return complete.Commands(prefix, s.environ["PATH"])
	}
	return complete.Files(prefix)
}

// Run drives the read-expand-dispatch loop until exit is requested, then
// syncs history once on the way out. It returns the session's exit code.
func (s *Session) Run() int {
	for !s.exitRequested {
		line, err := s.editor.ReadLine()
		if err != nil {
			fmt.Fprintf(s.errOut, "wrash: can't read input: %s\n", err)
			s.exitCode = 1
			break
		}
		s.dispatch(line)
	}

	if err := s.hist.Sync(); err != nil && !errors.Is(err, history.ErrNoBackingFile) {
		fmt.Fprintf(s.errOut, "wrash: can't sync history: %s\n", err)
	}
	return s.exitCode
}

// dispatch expands one committed line and runs it: builtins by name, other
// commands through the base program in Wrapped mode or directly in Normal
// mode. Every non-empty line is recorded, whether or not it ran.
func (s *Session) dispatch(line string) {
	args, err := s.expander.Expand(line)
	if err != nil {
		fmt.Fprintf(s.errOut, "wrash: %s\n", err)
		return
	}
	if len(args) == 0 {
		return
	}

	if isBuiltin(args[0]) {
		s.runBuiltin(args)
		s.PushToHistory(line, true)
		return
	}

	s.runExternal(args)
	s.PushToHistory(line, false)
}

func (s *Session) runExternal(args []string) {
	var cmd *exec.Cmd
	if s.mode == history.Wrapped {
		full := append(append([]string(nil), s.baseArgv...), args...)
		cmd = exec.Command(full[0], full[1:]...)
	} else {
		cmd = exec.Command(args[0], args[1:]...)
	}
	if s.in != nil {
		cmd.Stdin = s.in
	}
	cmd.Stdout = s.out
	cmd.Stderr = s.errOut
	cmd.Env = s.environSlice()

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			s.exitCode = exitErr.ExitCode()
			return
		}
		fmt.Fprintf(s.errOut, "wrash: can't run %s: %s\n", cmd.Path, err)
		s.exitCode = 127
		return
	}
	s.exitCode = 0
}

func (s *Session) environSlice() []string {
	keys := make([]string, 0, len(s.environ))
	for key := range s.environ {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	kvs := make([]string, 0, len(keys))
	for _, key := range keys {
		kvs = append(kvs, key+"="+s.environ[key])
	}
	return kvs
}
