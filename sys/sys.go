// Package sys wraps the few terminal ioctls the line editor needs.
package sys

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// SetupTerminal puts the terminal referenced by fd into the mode the line
// editor needs: no echo, no canonical line buffering, reads return after
// one byte. CR is still translated to NL on input so Enter always arrives
// as '\n'. It returns a function restoring the saved attributes; callers
// must run it on every exit path.
func SetupTerminal(fd int) (restore func() error, err error) {
	saved, err := unix.IoctlGetTermios(fd, getAttrIOCTL)
	if err != nil {
		return nil, fmt.Errorf("can't get terminal attributes: %w", err)
	}

	raw := *saved
	raw.Lflag &^= unix.ICANON | unix.ECHO
	raw.Iflag |= unix.ICRNL
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, setAttrIOCTL, &raw); err != nil {
		return nil, fmt.Errorf("can't set terminal attributes: %w", err)
	}

	return func() error {
		return unix.IoctlSetTermios(fd, setAttrIOCTL, saved)
	}, nil
}

// GetWinsize reports the size of the terminal referenced by fd, falling
// back to 24x80 when the terminal cannot be queried.
func GetWinsize(fd int) (rows, cols int) {
	ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)
	if err != nil || ws.Row == 0 || ws.Col == 0 {
		return 24, 80
	}
	return int(ws.Row), int(ws.Col)
}
