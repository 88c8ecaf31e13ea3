//go:build !windows

package edit

import (
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readLineThrough runs one ReadLine call against a real pty, feeding input
// through the master side.
func readLineThrough(t *testing.T, ed *Editor, input string) string {
	t.Helper()

	master, slave, err := pty.Open()
	if err != nil {
		t.Skipf("can't open pty: %s", err)
	}
	defer master.Close()
	defer slave.Close()

	ed.In = slave
	if ed.Out == nil {
		ed.Out = slave
	}

	lines := make(chan string, 1)
	errs := make(chan error, 1)
	go func() {
		line, err := ed.ReadLine()
		if err != nil {
			errs <- err
			return
		}
		lines <- line
	}()

	// Drain the editor's redraw output so writes to the slave side don't
	// block once the pty buffer fills.
	go func() {
		buf := make([]byte, 1024)
		for {
			if _, err := master.Read(buf); err != nil {
				return
			}
		}
	}()

	// Wait for ReadLine to switch the slave side to raw mode; input arriving
	// before that would get canonical line-discipline treatment.
	time.Sleep(50 * time.Millisecond)
	_, err = master.WriteString(input)
	require.NoError(t, err)

	select {
	case line := <-lines:
		return line
	case err := <-errs:
		t.Fatalf("ReadLine: %s", err)
	case <-time.After(5 * time.Second):
		t.Fatalf("ReadLine did not return")
	}
	return ""
}

func TestReadLinePlain(t *testing.T) {
	ed := &Editor{Prompt: func() string { return "> " }}
	assert.Equal(t, "echo hi", readLineThrough(t, ed, "echo hi\r"))
}

func TestReadLineEditing(t *testing.T) {
	ed := &Editor{}
	// Type "ecoh", fix the transposition, then append " ok".
	input := "ecoh" + "\x1b[D" + "\x7f" + "\x1b[F" + "o" + " ok\r"
	assert.Equal(t, "echo ok", readLineThrough(t, ed, input))
}

func TestReadLineCtrlD(t *testing.T) {
	ed := &Editor{}
	assert.Equal(t, "exit", readLineThrough(t, ed, "\x04"))
}

func TestReadLineRecallThroughPty(t *testing.T) {
	ed := &Editor{Hist: func() []string { return []string{"status", "add -A"} }}
	assert.Equal(t, "add -A", readLineThrough(t, ed, "\x1b[A\x1b[A\r"))
}
