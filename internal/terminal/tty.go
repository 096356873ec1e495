// Package terminal resolves the controlling terminal and moves ownership of
// its device node between root and the logged-in user.
package terminal

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// TTY names a terminal device.
type TTY struct {
	// Path is the device node, e.g. /dev/tty2.
	Path string
}

var stdinLink = "/proc/self/fd/0"

// Current resolves the terminal attached to stdin.
func Current() (TTY, error) {
	p, err := os.Readlink(stdinLink)
	if err != nil {
		return TTY{}, fmt.Errorf("resolve tty: %w", err)
	}
	if !strings.HasPrefix(p, "/dev/") {
		return TTY{}, fmt.Errorf("resolve tty: stdin is %s, not a terminal device", p)
	}
	return TTY{Path: p}, nil
}

func FromPath(path string) TTY { return TTY{Path: path} }

// Line is the utmp line name: the path without /dev/.
func (t TTY) Line() string {
	return strings.TrimPrefix(t.Path, "/dev/")
}

// Number is the trailing decimal of the device name (2 for /dev/tty2). It
// returns "" when the name has no trailing digits.
func (t TTY) Number() string {
	s := t.Path
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	if i == len(s) {
		return ""
	}
	n, err := strconv.Atoi(s[i:])
	if err != nil {
		return ""
	}
	return strconv.Itoa(n)
}

func (t TTY) String() string { return t.Path }
