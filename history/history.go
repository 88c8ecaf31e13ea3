// Package history implements wrash's ordered, persisted command log.
//
// The on-disk form is a yaml list of records {argv, base, mode, is_builtin}
// under the per-user data directory. Field names and the two mode values
// are a stable contract; old history files must keep loading.
package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mode is the session mode a command was entered under.
type Mode string

// The two modes. The values appear verbatim in history files.
const (
	Wrapped Mode = "Wrapped"
	Normal  Mode = "Normal"
)

// ParseMode parses the user-facing spelling of a mode, as accepted by the
// mode builtin.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "wrapped":
		return Wrapped, nil
	case "normal":
		return Normal, nil
	}
	return "", fmt.Errorf("invalid mode %q, want wrapped or normal", s)
}

// Entry is one committed command line. Entries are immutable once pushed;
// they only go away when the whole store is replaced by a reload.
type Entry struct {
	// Argv is the raw line as typed, minus any base prefix.
	Argv string `yaml:"argv"`
	// Base is the base program the line was an argument to, nil for
	// builtins and commands entered in Normal mode.
	Base      *string `yaml:"base"`
	Mode      Mode    `yaml:"mode"`
	IsBuiltin bool    `yaml:"is_builtin"`
}

// Command renders the entry the way it could be retyped in Normal mode:
// the base program, when there is one, followed by the arguments.
func (e *Entry) Command() string {
	if e.Base == nil {
		return e.Argv
	}
	return *e.Base + " " + e.Argv
}

// ErrNoBackingFile is returned by Sync on a store that was created without
// a backing file.
var ErrNoBackingFile = errors.New("history store has no backing file")

// ParseError reports malformed content in an existing history file. The
// wrapped error carries enough detail to locate the bad record.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("can't parse history file %s: %s", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// History is an insertion-ordered sequence of entries, optionally bound to
// a backing file. It is not safe for concurrent use; wrash sessions are
// single threaded.
type History struct {
	entries []*Entry
	path    string
}

// New returns an empty store with no backing file. Pushing works; Sync
// fails with ErrNoBackingFile.
func New() *History {
	return &History{}
}

// Load reads the history at path. A missing file is not an error: the
// store starts empty but stays bound to path so a later Sync creates it.
// Malformed existing content is a *ParseError.
func Load(path string) (*History, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &History{path: path}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("can't read history file: %w", err)
	}

	var entries []*Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	for i, entry := range entries {
		if entry == nil {
			return nil, &ParseError{Path: path, Err: fmt.Errorf("record %d: empty record", i)}
		}
		if entry.Mode != Wrapped && entry.Mode != Normal {
			return nil, &ParseError{
				Path: path,
				Err:  fmt.Errorf("record %d: field mode: want %q or %q, got %q", i, Wrapped, Normal, entry.Mode),
			}
		}
	}

	return &History{entries: entries, path: path}, nil
}

// Push appends an entry. It never fails.
func (h *History) Push(entry *Entry) {
	h.entries = append(h.entries, entry)
}

// Len returns the number of entries.
func (h *History) Len() int { return len(h.entries) }

// Each calls f on every entry, oldest first, stopping early when f returns
// false.
func (h *History) Each(f func(*Entry) bool) {
	for _, entry := range h.entries {
		if !f(entry) {
			return
		}
	}
}

// EachReverse calls f on every entry, newest first, stopping early when f
// returns false.
func (h *History) EachReverse(f func(*Entry) bool) {
	for i := len(h.entries) - 1; i >= 0; i-- {
		if !f(h.entries[i]) {
			return
		}
	}
}

// Filtered returns the entries matching pred, oldest first. The slice is
// fresh but the entries are shared with the store.
func (h *History) Filtered(pred func(*Entry) bool) []*Entry {
	var matched []*Entry
	for _, entry := range h.entries {
		if pred(entry) {
			matched = append(matched, entry)
		}
	}
	return matched
}

// Sync serializes the whole sequence and atomically replaces the backing
// file, creating parent directories as needed.
func (h *History) Sync() error {
	if h.path == "" {
		return ErrNoBackingFile
	}

	data, err := yaml.Marshal(h.entries)
	if err != nil {
		return fmt.Errorf("can't marshal history entries: %w", err)
	}

	dir := filepath.Dir(h.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("can't create history directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".history-*.yaml")
	if err != nil {
		return fmt.Errorf("can't create history file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("can't write history file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("can't write history file: %w", err)
	}
	if err := os.Rename(tmp.Name(), h.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("can't replace history file: %w", err)
	}
	return nil
}

// RecallPredicate is the view the line editor recalls over: builtin
// invocations are always included, other entries must have been entered in
// the same mode against the same base program (or none).
func RecallPredicate(mode Mode, base string) func(*Entry) bool {
	return func(e *Entry) bool {
		if e.IsBuiltin {
			return true
		}
		return e.Mode == mode && (e.Base == nil || *e.Base == base)
	}
}

// Filter is a predicate combination for the history builtin. Zero fields
// match everything.
type Filter struct {
	// Mode, when non-nil, matches entries entered under that mode.
	Mode *Mode
	// Base, when non-nil, matches entries whose base equals *Base or whose
	// base is absent.
	Base *string
	// NoBuiltins excludes builtin invocations.
	NoBuiltins bool
	// Pattern, when non-nil, matches against the entry's argv.
	Pattern *regexp.Regexp
}

// Match reports whether the entry passes every set field of the filter.
func (f Filter) Match(e *Entry) bool {
	if f.Mode != nil && e.Mode != *f.Mode {
		return false
	}
	if f.Base != nil && e.Base != nil && *e.Base != *f.Base {
		return false
	}
	if f.NoBuiltins && e.IsBuiltin {
		return false
	}
	if f.Pattern != nil && !f.Pattern.MatchString(e.Argv) {
		return false
	}
	return true
}
