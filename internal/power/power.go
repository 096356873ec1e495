// Package power reboots or powers off the host from the login screen, but
// only while nobody is logged in.
package power

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var ErrUsersLoggedIn = errors.New("users are logged in")

type Counter interface {
	CountUserSessions() (int, error)
}

type Commands interface {
	Reboot() error
	PowerOff() error
}

type Guard struct {
	counter Counter
	cmds    Commands
	logger  *zap.Logger
}

func NewGuard(counter Counter, cmds Commands, logger *zap.Logger) *Guard {
	return &Guard{counter: counter, cmds: cmds, logger: logger}
}

func (g *Guard) Reboot() error {
	return g.do("reboot", g.cmds.Reboot)
}

func (g *Guard) PowerOff() error {
	return g.do("poweroff", g.cmds.PowerOff)
}

func (g *Guard) do(action string, run func() error) error {
	n, err := g.counter.CountUserSessions()
	if err != nil {
		g.logger.Warn("cannot count user sessions, refusing "+action, zap.Error(err))
		return fmt.Errorf("%s: count sessions: %w", action, err)
	}
	if n > 0 {
		g.logger.Info(action+" refused", zap.Int("sessions", n))
		return fmt.Errorf("%s not possible: %w", action, ErrUsersLoggedIn)
	}
	g.logger.Warn(action + " requested from login screen")
	return run()
}
