// Package launch starts a session command as the logged-in user.
package launch

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/google/shlex"
	"go.uber.org/zap"

	"github.com/hnrobert/ttylogin/internal/environ"
	"github.com/hnrobert/ttylogin/internal/sessions"
	"github.com/hnrobert/ttylogin/internal/terminal"
	"github.com/hnrobert/ttylogin/internal/usermgr"
)

var ErrSpawnFailed = errors.New("session spawn failed")

// Resolver supplies the logind facts that go into the environment.
type Resolver interface {
	Seat() string
	SessionID(user, line string, pamEnv map[string]string) string
}

type Options struct {
	TTY terminal.TTY
	// Stdio of the session, normally the manager's own tty streams.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Passthrough names variables copied from the manager's environment.
	Passthrough []string
	// FailurePause is how long a failed spawn holds the screen before
	// returning.
	FailurePause time.Duration
}

type Launcher struct {
	opts     Options
	resolver Resolver
	logger   *zap.Logger
	sleep    func(time.Duration)
	getenv   func(string) (string, bool)
	// noSetGroups leaves the supplementary groups alone; unprivileged
	// callers may not call setgroups.
	noSetGroups bool
}

func New(opts Options, resolver Resolver, logger *zap.Logger) *Launcher {
	return &Launcher{
		opts:     opts,
		resolver: resolver,
		logger:   logger,
		sleep:    time.Sleep,
		getenv:   os.LookupEnv,
	}
}

// Child is a running session process.
type Child struct {
	cmd *exec.Cmd
}

func (c *Child) Pid() int { return c.cmd.Process.Pid }

// Exit describes how a session process ended.
type Exit struct {
	// Code is the exit status, or -1 when the process was killed by a signal
	// or could not be waited for.
	Code int
	Err  error
}

// Wait blocks until the process exits.
func (c *Child) Wait() Exit {
	err := c.cmd.Wait()
	if err == nil {
		return Exit{Code: 0}
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		if ws, ok := ee.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return Exit{Code: -1, Err: fmt.Errorf("killed by %s", ws.Signal())}
		}
		return Exit{Code: ee.ExitCode()}
	}
	return Exit{Code: -1, Err: err}
}

// Spawn starts s as p. The child gets p's supplementary groups, gid and uid
// before exec, and the environment from environ.Build. On failure Spawn
// pauses for FailurePause and returns an error wrapping ErrSpawnFailed.
func (l *Launcher) Spawn(p usermgr.Principal, s sessions.Session, pamEnv map[string]string) (*Child, error) {
	log := l.logger.With(zap.String("user", p.Name), zap.String("session", s.Name))

	argv, err := shlex.Split(s.Command)
	if err == nil && len(argv) == 0 {
		err = errors.New("empty command")
	}
	if err != nil {
		return nil, l.fail(log, fmt.Errorf("parse command %q: %w", s.Command, err))
	}

	env := environ.Build(environ.Input{
		Principal:   p,
		Session:     s,
		VTNR:        l.opts.TTY.Number(),
		Seat:        l.resolver.Seat(),
		SessionID:   l.resolver.SessionID(p.Name, l.opts.TTY.Line(), pamEnv),
		PAMEnv:      pamEnv,
		Passthrough: l.passthrough(),
	})

	dir := ""
	if st, err := os.Stat(p.Home); err == nil && st.IsDir() {
		dir = p.Home
	} else {
		log.Warn("home directory unusable, keeping working directory", zap.String("home", p.Home), zap.Error(err))
	}

	cmd := l.command(p, argv, env, dir)
	if err := cmd.Start(); err != nil {
		if dir == "" {
			return nil, l.fail(log, err)
		}
		// The child enters dir after dropping to p's ids, so a home p cannot
		// search fails the exec. Start again where the manager stands.
		log.Warn("starting in home directory failed, retrying outside it", zap.String("home", dir), zap.Error(err))
		cmd = l.command(p, argv, env, "")
		if err := cmd.Start(); err != nil {
			return nil, l.fail(log, err)
		}
	}
	log.Info("session started", zap.Int("pid", cmd.Process.Pid), zap.Strings("argv", argv))
	return &Child{cmd: cmd}, nil
}

func (l *Launcher) command(p usermgr.Principal, argv, env []string, dir string) *exec.Cmd {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = env
	cmd.Dir = dir
	cmd.Stdin = l.opts.Stdin
	cmd.Stdout = l.opts.Stdout
	cmd.Stderr = l.opts.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Credential: &syscall.Credential{
			Uid:         uint32(p.UID),
			Gid:         uint32(p.GID),
			Groups:      groups(p),
			NoSetGroups: l.noSetGroups,
		},
	}
	return cmd
}

func (l *Launcher) fail(log *zap.Logger, err error) error {
	log.Error("session spawn failed", zap.Error(err))
	if l.opts.FailurePause > 0 {
		l.sleep(l.opts.FailurePause)
	}
	return fmt.Errorf("%w: %v", ErrSpawnFailed, err)
}

func (l *Launcher) passthrough() map[string]string {
	out := map[string]string{}
	for _, k := range l.opts.Passthrough {
		if v, ok := l.getenv(k); ok {
			out[k] = v
		}
	}
	return out
}

func groups(p usermgr.Principal) []uint32 {
	out := make([]uint32, 0, len(p.Groups))
	for _, g := range p.Groups {
		if g >= 0 {
			out = append(out, uint32(g))
		}
	}
	return out
}
