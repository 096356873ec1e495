// Package environ builds the environment of a login session.
package environ

import (
	"sort"
	"strconv"

	"github.com/hnrobert/ttylogin/internal/sessions"
	"github.com/hnrobert/ttylogin/internal/usermgr"
)

const (
	userPath = "/usr/local/bin:/usr/bin:/bin"
	rootPath = "/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin"
)

// Input is everything the session environment depends on.
type Input struct {
	Principal usermgr.Principal
	Session   sessions.Session
	// VTNR is the virtual terminal number, empty when the tty has none.
	VTNR      string
	Seat      string
	SessionID string
	// PAMEnv holds variables exported by the authentication stack.
	PAMEnv map[string]string
	// Passthrough holds variables copied from the manager's own environment.
	Passthrough map[string]string
}

// Build returns the session environment as sorted KEY=value pairs. The same
// input always yields the same output. Passthrough variables are overridden
// by the stack's, and both are overridden by the identity and XDG variables
// derived from the principal and session.
func Build(in Input) []string {
	env := map[string]string{}
	for k, v := range in.Passthrough {
		env[k] = v
	}
	for k, v := range in.PAMEnv {
		env[k] = v
	}

	p := in.Principal
	home := p.Home
	env["SHELL"] = p.Shell
	env["LOGNAME"] = p.Name
	env["USER"] = p.Name
	env["HOME"] = home
	env["PWD"] = home
	if p.UID == 0 {
		env["PATH"] = rootPath
	} else {
		env["PATH"] = userPath
	}

	env["XDG_SESSION_TYPE"] = in.Session.Kind.SessionType()
	env["XDG_CURRENT_DESKTOP"] = in.Session.Name
	env["XDG_DATA_HOME"] = home + "/.local/share"
	env["XDG_CONFIG_HOME"] = home + "/.config"
	env["XDG_CACHE_HOME"] = home + "/.cache"
	env["XDG_SESSION_CLASS"] = "user"
	env["XDG_RUNTIME_DIR"] = "/run/user/" + strconv.Itoa(p.UID)
	if in.VTNR != "" {
		env["XDG_VTNR"] = in.VTNR
	}
	seat := in.Seat
	if seat == "" {
		seat = DefaultSeat
	}
	env["XDG_SEAT"] = seat
	if in.SessionID != "" {
		env["XDG_SESSION_ID"] = in.SessionID
	}

	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

// Lookup returns the value of key in a KEY=value list.
func Lookup(env []string, key string) (string, bool) {
	prefix := key + "="
	for _, kv := range env {
		if len(kv) >= len(prefix) && kv[:len(prefix)] == prefix {
			return kv[len(prefix):], true
		}
	}
	return "", false
}
