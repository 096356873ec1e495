package environ

import (
	"strings"

	"go.uber.org/zap"
)

const DefaultSeat = "seat0"

// Logind answers seat and session queries, normally through loginctl.
type Logind interface {
	SeatStatus() (string, error)
	ListSessions() (string, error)
}

// Resolver looks up the seat and logind session of a login.
type Resolver struct {
	logind Logind
	logger *zap.Logger
}

func NewResolver(logind Logind, logger *zap.Logger) *Resolver {
	return &Resolver{logind: logind, logger: logger}
}

// Seat returns the first line of the seat status report, or seat0.
func (r *Resolver) Seat() string {
	out, err := r.logind.SeatStatus()
	if err != nil {
		r.logger.Info("seat lookup failed, using default", zap.Error(err))
		return DefaultSeat
	}
	if s := firstLine(out); s != "" {
		return s
	}
	return DefaultSeat
}

// SessionID prefers the id the authentication stack exported and otherwise
// searches logind for a session of user on line. It returns "" when neither
// knows one.
func (r *Resolver) SessionID(user, line string, pamEnv map[string]string) string {
	if id := pamEnv["XDG_SESSION_ID"]; id != "" {
		return id
	}
	out, err := r.logind.ListSessions()
	if err != nil {
		r.logger.Info("session lookup failed", zap.Error(err))
		return ""
	}
	return FindSession(out, user, line)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimSpace(line)
}

// FindSession scans a `loginctl list-sessions` table (SESSION UID USER SEAT
// ... TTY ...) for the session of user on line.
func FindSession(table, user, line string) string {
	for _, row := range strings.Split(table, "\n") {
		cols := strings.Fields(row)
		if len(cols) < 5 || cols[2] != user {
			continue
		}
		for _, c := range cols[3:] {
			if c == line {
				return cols[0]
			}
		}
	}
	return ""
}
