// Package login sequences one console login: authenticate, hand the terminal
// to the user, run the session, then give everything back.
package login

import (
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hnrobert/ttylogin/internal/auth"
	"github.com/hnrobert/ttylogin/internal/launch"
	"github.com/hnrobert/ttylogin/internal/sessions"
	"github.com/hnrobert/ttylogin/internal/terminal"
	"github.com/hnrobert/ttylogin/internal/usermgr"
)

var ErrPrincipalMismatch = errors.New("credential does not belong to the selected account")

type Authenticator interface {
	Authenticate(cred auth.Credential) (*auth.Grant, error)
}

type Ownership interface {
	Transfer(ttyPath string, uid int) error
	Reclaim(ttyPath string) error
}

type Ledger interface {
	RecordLogin(user, line string, pid int) error
	RetireLogin(line string) error
}

type Process interface {
	Pid() int
	Wait() launch.Exit
}

type Launcher interface {
	Spawn(p usermgr.Principal, s sessions.Session, pamEnv map[string]string) (Process, error)
}

// Spawner adapts a *launch.Launcher to Launcher.
func Spawner(l *launch.Launcher) Launcher {
	return spawner{l}
}

type spawner struct{ l *launch.Launcher }

func (s spawner) Spawn(p usermgr.Principal, sess sessions.Session, pamEnv map[string]string) (Process, error) {
	c, err := s.l.Spawn(p, sess, pamEnv)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Orchestrator runs login attempts one at a time. It keeps no state between
// attempts.
type Orchestrator struct {
	auth     Authenticator
	owner    Ownership
	ledger   Ledger
	launcher Launcher
	logger   *zap.Logger

	// StateHook, when set, observes every state change.
	StateHook func(State)
}

func New(a Authenticator, o Ownership, l Ledger, s Launcher, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{auth: a, owner: o, ledger: l, launcher: s, logger: logger}
}

func (o *Orchestrator) enter(s State) {
	if o.StateHook != nil {
		o.StateHook(s)
	}
}

// Attempt authenticates cred and, when granted, runs s as p on cred's tty
// until it exits. The secret in cred is wiped before Attempt returns. Once the
// terminal transfer has been attempted the terminal is always reclaimed, the
// line retired and the grant closed, in that order.
func (o *Orchestrator) Attempt(p usermgr.Principal, s sessions.Session, cred auth.Credential) Result {
	log := o.logger.With(
		zap.String("attempt", uuid.NewString()),
		zap.String("user", p.Name),
		zap.String("tty", cred.TTYPath),
		zap.String("session", s.Name),
	)
	defer o.enter(Idle)

	if cred.Username != p.Name {
		cred.Wipe()
		log.Error("credential user does not match selected account", zap.String("credential_user", cred.Username))
		o.enter(Denied)
		return Result{Status: StatusDenied, Reason: auth.HumanError(ErrPrincipalMismatch), Err: ErrPrincipalMismatch}
	}

	o.enter(Authenticating)
	grant, err := o.auth.Authenticate(cred)
	cred.Wipe()
	if err != nil {
		log.Info("login denied", zap.Error(err))
		o.enter(Denied)
		return Result{Status: StatusDenied, Reason: auth.HumanError(err), Err: err}
	}
	o.enter(Granted)

	return o.run(log, p, s, cred.TTYPath, grant)
}

func (o *Orchestrator) run(log *zap.Logger, p usermgr.Principal, s sessions.Session, ttyPath string, grant *auth.Grant) (res Result) {
	line := terminal.FromPath(ttyPath).Line()
	retire := false
	defer func() {
		o.enter(OwnershipReleased)
		if err := o.owner.Reclaim(ttyPath); err != nil {
			log.Error("reclaiming tty failed", zap.Error(err))
		}
		if retire {
			if err := o.ledger.RetireLogin(line); err != nil {
				log.Warn("retiring login record failed", zap.Error(err))
			}
		}
		if err := grant.Close(); err != nil {
			log.Warn("closing auth session failed", zap.Error(err))
		}
	}()

	o.enter(OwnershipAcquired)
	if err := o.owner.Transfer(ttyPath, p.UID); err != nil {
		log.Error("login aborted, tty transfer failed", zap.Error(err))
		return Result{Status: StatusFailed, Stage: StageOwnership, Detail: err.Error(), Err: err}
	}

	retire = true
	o.enter(Executing)
	child, err := o.launcher.Spawn(p, s, grant.Env())
	if err != nil {
		log.Error("login aborted, session did not start", zap.Error(err))
		return Result{Status: StatusFailed, Stage: StageLaunch, Detail: err.Error(), Err: err}
	}
	pid := child.Pid()
	if err := o.ledger.RecordLogin(p.Name, line, pid); err != nil {
		log.Warn("recording login failed", zap.Error(err))
	}
	ex := child.Wait()
	log.Info("session ended", zap.Int("pid", pid), zap.Int("exit_code", ex.Code), zap.NamedError("exit_error", ex.Err))
	return Result{Status: StatusCompleted, ExitCode: ex.Code, PID: pid, Err: ex.Err}
}
