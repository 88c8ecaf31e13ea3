package history

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func base(s string) *string { return &s }

func TestPushAndIterate(t *testing.T) {
	e1 := &Entry{Argv: "add -A", Base: base("git"), Mode: Wrapped}
	e2 := &Entry{Argv: "status", Base: base("git"), Mode: Wrapped}

	h := New()
	h.Push(e1)
	h.Push(e2)
	require.Equal(t, 2, h.Len())

	var forward []*Entry
	h.Each(func(e *Entry) bool {
		forward = append(forward, e)
		return true
	})
	assert.Equal(t, []*Entry{e1, e2}, forward)

	var reverse []*Entry
	h.EachReverse(func(e *Entry) bool {
		reverse = append(reverse, e)
		return true
	})
	assert.Equal(t, []*Entry{e2, e1}, reverse)
}

func TestEachStopsEarly(t *testing.T) {
	h := New()
	h.Push(&Entry{Argv: "a", Mode: Normal})
	h.Push(&Entry{Argv: "b", Mode: Normal})

	var seen int
	h.Each(func(*Entry) bool {
		seen++
		return false
	})
	assert.Equal(t, 1, seen)
}

func TestSyncRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wrash", "history.yaml")

	h, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 0, h.Len())

	h.Push(&Entry{Argv: "add -A", Base: base("git"), Mode: Wrapped})
	h.Push(&Entry{Argv: "mode normal", Mode: Wrapped, IsBuiltin: true})
	h.Push(&Entry{Argv: "ls -l", Mode: Normal})
	require.NoError(t, h.Sync())

	reloaded, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(h.entries, reloaded.entries); diff != "" {
		t.Errorf("reloaded history differs (-want +got):\n%s", diff)
	}
}

func TestSyncOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.yaml")

	h, err := Load(path)
	require.NoError(t, err)
	h.Push(&Entry{Argv: "a", Mode: Normal})
	require.NoError(t, h.Sync())

	h.Push(&Entry{Argv: "b", Mode: Normal})
	require.NoError(t, h.Sync())

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Len())
}

func TestSyncWithoutBackingFile(t *testing.T) {
	h := New()
	h.Push(&Entry{Argv: "a", Mode: Normal})
	assert.ErrorIs(t, h.Sync(), ErrNoBackingFile)
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	h, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 0, h.Len())
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not a list"), 0o644))

	_, err := Load(path)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, path, parseErr.Path)
}

func TestLoadBadMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.yaml")
	content := "- argv: ls\n  base: null\n  mode: Sideways\n  is_builtin: false\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := Load(path)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Error(), "record 0")
	assert.Contains(t, parseErr.Error(), "mode")
}

func mixedHistory() (*History, []*Entry) {
	entries := []*Entry{
		{Argv: "add -A", Base: base("git"), Mode: Wrapped},
		{Argv: "mode normal", Mode: Wrapped, IsBuiltin: true},
		{Argv: "commit -m 'x'", Mode: Normal},
		{Argv: "mode wrapped", Mode: Normal, IsBuiltin: true},
		{Argv: "clippy", Base: base("cargo"), Mode: Wrapped},
	}

	h := New()
	for _, e := range entries {
		h.Push(e)
	}
	return h, entries
}

// A Wrapped git session recalls its own commands, every builtin, and
// nothing entered against other bases or in the other mode.
func TestRecallPredicate(t *testing.T) {
	h, entries := mixedHistory()

	matched := h.Filtered(RecallPredicate(Wrapped, "git"))
	require.Len(t, matched, 3)
	assert.Same(t, entries[0], matched[0])
	assert.Same(t, entries[1], matched[1])
	assert.Same(t, entries[3], matched[2])

	assert.Equal(t, "git add -A", matched[0].Command())
	assert.Equal(t, "mode normal", matched[1].Command())
	assert.Equal(t, "mode wrapped", matched[2].Command())
}

// Filtering by mode alone keeps every Wrapped entry, whatever its base,
// in insertion order.
func TestFilterByMode(t *testing.T) {
	h, entries := mixedHistory()
	wrapped := Wrapped

	matched := h.Filtered(Filter{Mode: &wrapped}.Match)
	require.Len(t, matched, 3)
	assert.Same(t, entries[0], matched[0])
	assert.Same(t, entries[1], matched[1])
	assert.Same(t, entries[4], matched[2])

	assert.Equal(t, "git add -A", matched[0].Command())
	assert.Equal(t, "mode normal", matched[1].Command())
	assert.Equal(t, "cargo clippy", matched[2].Command())
}

func TestFilterMatch(t *testing.T) {
	wrapped := Wrapped
	git := "git"

	e := &Entry{Argv: "add -A", Base: base("git"), Mode: Wrapped}
	builtin := &Entry{Argv: "mode normal", Mode: Wrapped, IsBuiltin: true}
	cargo := &Entry{Argv: "clippy", Base: base("cargo"), Mode: Wrapped}

	assert.True(t, Filter{}.Match(e))
	assert.True(t, Filter{Mode: &wrapped, Base: &git}.Match(e))
	assert.False(t, Filter{Base: &git}.Match(cargo))
	assert.True(t, Filter{Base: &git}.Match(builtin))
	assert.False(t, Filter{NoBuiltins: true}.Match(builtin))
	assert.True(t, Filter{Pattern: regexp.MustCompile("^add")}.Match(e))
	assert.False(t, Filter{Pattern: regexp.MustCompile("^commit")}.Match(e))
}

func TestParseMode(t *testing.T) {
	for s, want := range map[string]Mode{"wrapped": Wrapped, "Normal": Normal, "WRAPPED": Wrapped} {
		got, err := ParseMode(s)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseMode("sideways")
	assert.Error(t, err)
}
