package accounting

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

var ErrWriteFailed = errors.New("accounting record write failed")

// Ledger records and retires interactive logins per terminal line.
type Ledger struct {
	utmp   *Store
	wtmp   *Store
	logger *zap.Logger
	now    func() time.Time
}

// NewLedger returns a ledger over utmpPath. wtmpPath may be empty to skip the
// login history.
func NewLedger(utmpPath, wtmpPath string, logger *zap.Logger) *Ledger {
	l := &Ledger{utmp: NewStore(utmpPath), logger: logger, now: time.Now}
	if wtmpPath != "" {
		l.wtmp = NewStore(wtmpPath)
	}
	return l
}

// RecordLogin marks line as held by user's session process pid.
func (l *Ledger) RecordLogin(user, line string, pid int) error {
	r := Record{
		Kind:    UserProcess,
		PID:     pid,
		Line:    line,
		ID:      LineID(line),
		User:    user,
		Session: sessionID(),
		Time:    l.now(),
	}
	log := l.logger.With(zap.String("user", user), zap.String("line", line), zap.Int("pid", pid))
	if err := l.utmp.Put(r); err != nil {
		log.Error("writing login record failed", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	l.history(r)
	log.Info("login recorded")
	return nil
}

// RetireLogin hands line back to the login state. A line without a user
// session record is left alone and gets no wtmp logout.
func (l *Ledger) RetireLogin(line string) error {
	log := l.logger.With(zap.String("line", line))
	// Only a live user session is retired. Anything else on the line belongs
	// to someone else and stays as it is.
	prev, found, err := l.utmp.Update(line, func(r *Record) bool {
		if r.Kind != UserProcess {
			return false
		}
		r.Kind = LoginProcess
		r.User = LoginUser
		r.Time = l.now()
		return true
	})
	if err != nil {
		log.Error("retiring login record failed", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if !found {
		log.Info("no login record to retire")
		return nil
	}
	l.history(Record{Kind: DeadProcess, PID: prev.PID, Line: line, ID: prev.ID, Time: prev.Time})
	log.Info("login record retired")
	return nil
}

// CountUserSessions counts the lines currently held by a user session.
func (l *Ledger) CountUserSessions() (int, error) {
	recs, err := l.utmp.Records()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, r := range recs {
		if r.Kind == UserProcess && r.User != "" {
			n++
		}
	}
	return n, nil
}

// history appends r to wtmp. Failures only cost the history entry.
func (l *Ledger) history(r Record) {
	if l.wtmp == nil {
		return
	}
	if err := l.wtmp.Append(r); err != nil {
		l.logger.Warn("appending wtmp record failed", zap.String("line", r.Line), zap.Error(err))
	}
}

func sessionID() int {
	sid, err := unix.Getsid(0)
	if err != nil {
		return 0
	}
	return sid
}
