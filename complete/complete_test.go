package complete

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTree builds:
//
//	a_file
//	another_file
//	directory/
//	directory/a_child
//	some_other_file
//	bin/a_tool*  bin/a_tool_too*  bin/sub/  bin/notes
func testTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(root, "directory"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "bin", "sub"), 0o755))

	plain := []string{"a_file", "another_file", "some_other_file", "directory/a_child", "bin/notes"}
	for _, name := range plain {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), nil, 0o644))
	}
	for _, name := range []string{"bin/a_tool", "bin/a_tool_too"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), nil, 0o755))
	}

	return root
}

func TestFiles(t *testing.T) {
	chdir(t, testTree(t))

	assert.Equal(t,
		[]string{"a_file", "another_file", "bin/", "directory/", "some_other_file"},
		Files(""))
	assert.Equal(t, []string{"a_file", "another_file"}, Files("a"))
	assert.Equal(t, []string{"directory/a_child"}, Files("directory/"))
	assert.Equal(t, []string{"./a_file", "./another_file"}, Files("./a"))
	assert.Empty(t, Files("nope"))
}

func TestFilesUnreadableDir(t *testing.T) {
	chdir(t, t.TempDir())
	assert.Empty(t, Files("missing/a"))
}

func TestCommandsOnPath(t *testing.T) {
	root := testTree(t)
	chdir(t, root)

	pathList := filepath.Join(root, "bin") + ":" + filepath.Join(root, "missing")

	// Bare prefix: directories in the working directory plus executables
	// found on the path, as base names. Non-executable path entries and
	// directories on the path are skipped, unreadable path components
	// silently so.
	assert.Equal(t,
		[]string{"a_tool", "a_tool_too"},
		Commands("a", pathList))
	assert.Equal(t,
		[]string{"bin/", "directory/"},
		Commands("", ""))
	assert.Empty(t, Commands("notes", pathList))
}

func TestCommandsWithSeparator(t *testing.T) {
	chdir(t, testTree(t))

	assert.Equal(t, []string{"bin/a_tool", "bin/a_tool_too"}, Commands("bin/a", ""))
	// Directories pass the executable filter so completion can descend.
	assert.Equal(t, []string{"bin/sub/"}, Commands("bin/s", ""))
}

func TestCommandsDedup(t *testing.T) {
	root := testTree(t)
	chdir(t, root)

	bin := filepath.Join(root, "bin")
	assert.Equal(t, []string{"a_tool", "a_tool_too"}, Commands("a_t", bin+":"+bin))
}

func TestCommonPrefix(t *testing.T) {
	cases := []struct {
		cands []string
		want  string
		ok    bool
	}{
		{nil, "", false},
		{[]string{"a_file"}, "a_file", true},
		{[]string{"a_file", "a_file_too", "a_file_as_well"}, "a_file", true},
		{[]string{"a_file", "a_file_too", "some_new_file"}, "", false},
		{[]string{"abc", "abd", "ab"}, "ab", true},
	}

	for _, c := range cases {
		got, ok := CommonPrefix(c.cands)
		assert.Equal(t, c.ok, ok, "cands %q", c.cands)
		assert.Equal(t, c.want, got, "cands %q", c.cands)
	}
}

// chdir switches the working directory for the duration of the test,
// mirroring t.Chdir, which needs Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(prev) })
}
