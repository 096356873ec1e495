// Package selection remembers the last user and session chosen at the login
// prompt.
package selection

import (
	"bufio"
	"bytes"
	"errors"
	"path/filepath"
	"strings"

	"github.com/hnrobert/ttylogin/internal/hostfs"
	"github.com/hnrobert/ttylogin/internal/sessions"
	"github.com/hnrobert/ttylogin/internal/usermgr"
)

var ErrMalformed = errors.New("selection file needs a user line and a session line")

type Last struct {
	User    string
	Session string
}

// Read parses the two-line selection file.
func Read(path string) (Last, error) {
	b, err := hostfs.ReadFile(path)
	if err != nil {
		return Last{}, err
	}
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() && len(lines) < 2 {
		lines = append(lines, strings.TrimSpace(sc.Text()))
	}
	if len(lines) < 2 || lines[0] == "" {
		return Last{}, ErrMalformed
	}
	return Last{User: lines[0], Session: lines[1]}, nil
}

// Indices maps l onto the offered lists. Names that are no longer offered
// select the first entry.
func (l Last) Indices(users []usermgr.Principal, list []sessions.Session) (int, int) {
	u, s := 0, 0
	for i, p := range users {
		if p.Name == l.User {
			u = i
			break
		}
	}
	for i, ss := range list {
		if ss.Name == l.Session {
			s = i
			break
		}
	}
	return u, s
}

func Write(path string, l Last) error {
	if err := hostfs.EnsureDir(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return hostfs.WriteFileAtomic(path, []byte(l.User+"\n"+l.Session+"\n"), 0644)
}
