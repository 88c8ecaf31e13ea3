package sys

import "golang.org/x/sys/unix"

const (
	getAttrIOCTL = unix.TCGETS
	setAttrIOCTL = unix.TCSETS
)
