// Package complete implements the filesystem lookups behind tab
// completion.
//
// All lookups are best effort: an unreadable directory contributes no
// candidates rather than an error, so completion never aborts a read loop.
package complete

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Files lists the entries of prefix's parent directory (the working
// directory when the prefix has no parent) whose names start with the final
// path segment. The parent part of the prefix, including a leading "./", is
// kept on every candidate, and directories get a trailing separator.
func Files(prefix string) []string {
	dir, seg := filepath.Split(prefix)

	readDir := dir
	if readDir == "" {
		readDir = "."
	}
	entries, err := os.ReadDir(readDir)
	if err != nil {
		return nil
	}

	var found []string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, seg) {
			continue
		}
		if entry.IsDir() {
			name += string(filepath.Separator)
		}
		found = append(found, dir+name)
	}
	sort.Strings(found)
	return found
}

// Commands completes the first word of a line. A prefix containing a path
// separator completes like Files restricted to directories and
// executables. A bare prefix completes directories in the working directory
// plus executable, non-directory entries of every directory on pathList (a
// ":"-delimited PATH-like string), as base names only.
func Commands(prefix, pathList string) []string {
	if strings.ContainsRune(prefix, filepath.Separator) {
		return executables(prefix)
	}

	var found []string
	for _, cand := range Files(prefix) {
		if strings.HasSuffix(cand, string(filepath.Separator)) {
			found = append(found, cand)
		}
	}

	for _, dir := range strings.Split(pathList, ":") {
		if dir == "" {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			name := entry.Name()
			if !strings.HasPrefix(name, prefix) || entry.IsDir() {
				continue
			}
			if !isExecutable(entry) {
				continue
			}
			found = append(found, name)
		}
	}

	sort.Strings(found)
	return dedup(found)
}

func executables(prefix string) []string {
	var found []string
	for _, cand := range Files(prefix) {
		if strings.HasSuffix(cand, string(filepath.Separator)) {
			found = append(found, cand)
			continue
		}
		info, err := os.Stat(cand)
		if err == nil && info.Mode()&0o111 != 0 {
			found = append(found, cand)
		}
	}
	return found
}

func isExecutable(entry os.DirEntry) bool {
	info, err := entry.Info()
	return err == nil && info.Mode()&0o111 != 0
}

// dedup removes adjacent duplicates from a sorted slice. The same command
// name may appear in several pathList directories.
func dedup(sorted []string) []string {
	out := sorted[:0]
	for _, s := range sorted {
		if len(out) == 0 || out[len(out)-1] != s {
			out = append(out, s)
		}
	}
	return out
}

// CommonPrefix returns the longest prefix shared by every candidate. The
// guess starts as the shortest candidate and shrinks one character at a
// time from the end; reaching the empty string means there is no common
// prefix, reported as ok == false.
func CommonPrefix(cands []string) (prefix string, ok bool) {
	if len(cands) == 0 {
		return "", false
	}

	guess := cands[0]
	for _, cand := range cands[1:] {
		if len(cand) < len(guess) {
			guess = cand
		}
	}

	for guess != "" {
		shared := true
		for _, cand := range cands {
			if !strings.HasPrefix(cand, guess) {
				shared = false
				break
			}
		}
		if shared {
			return guess, true
		}
		guess = guess[:len(guess)-1]
	}
	return "", false
}
