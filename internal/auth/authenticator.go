package auth

import (
	"errors"

	"go.uber.org/zap"
)

// Authenticator runs one credential check per call against a fixed service.
type Authenticator struct {
	service string
	stack   Stack
	logger  *zap.Logger
}

func New(service string, stack Stack, logger *zap.Logger) *Authenticator {
	return &Authenticator{service: service, stack: stack, logger: logger}
}

// Authenticate validates cred and opens the login session. On success the
// returned Grant owns the transaction and must be closed by the caller; on
// failure the transaction has already been ended and the error is a
// *DeniedError.
func (a *Authenticator) Authenticate(cred Credential) (*Grant, error) {
	log := a.logger.With(
		zap.String("service", a.service),
		zap.String("user", cred.Username),
		zap.String("tty", cred.TTYPath),
	)

	r := newSecretResponder(cred.Secret)
	tx, err := a.stack.Start(a.service, cred.Username, r)
	if err != nil {
		if tx != nil {
			a.end(log, tx)
		}
		log.Warn("authentication context init failed", zap.Error(err))
		return nil, denied(ErrContextInit, err)
	}

	if err := tx.Authenticate(); err != nil {
		a.end(log, tx)
		if v := r.Violation(); v != nil {
			log.Warn("authentication conversation aborted", zap.Error(v))
			return nil, denied(ErrProtocol, v)
		}
		log.Info("authentication rejected", zap.Error(err))
		return nil, denied(ErrRejected, err)
	}
	if err := tx.AcctMgmt(); err != nil {
		a.end(log, tx)
		log.Info("account not permitted to log in", zap.Error(err))
		return nil, denied(ErrRejected, err)
	}

	if err := tx.SetTTY(cred.TTYPath); err != nil {
		a.end(log, tx)
		log.Error("set tty item failed", zap.Error(err))
		return nil, denied(ErrSessionOpen, err)
	}
	if err := tx.EstablishCred(); err != nil {
		a.end(log, tx)
		log.Error("establish credentials failed", zap.Error(err))
		return nil, denied(ErrSessionOpen, err)
	}
	if err := tx.OpenSession(); err != nil {
		if derr := tx.DeleteCred(); derr != nil {
			log.Warn("delete credentials failed", zap.Error(derr))
		}
		a.end(log, tx)
		log.Error("open session failed", zap.Error(err))
		return nil, denied(ErrSessionOpen, err)
	}

	env, err := tx.Env()
	if err != nil {
		log.Warn("reading stack environment failed", zap.Error(err))
		env = nil
	}
	log.Info("authentication granted")
	return &Grant{user: cred.Username, tx: tx, env: env, logger: log}, nil
}

func (a *Authenticator) end(log *zap.Logger, tx Transaction) {
	if err := tx.End(); err != nil {
		log.Warn("ending authentication context failed", zap.Error(err))
	}
}

// Grant is a granted, session-open authentication context. It is single use:
// Close tears the session down and ends the transaction exactly once.
type Grant struct {
	user   string
	tx     Transaction
	env    map[string]string
	logger *zap.Logger
	closed bool
	err    error
}

func (g *Grant) User() string { return g.user }

// Env returns a copy of the variables the stack exported for the session.
func (g *Grant) Env() map[string]string {
	out := make(map[string]string, len(g.env))
	for k, v := range g.env {
		out[k] = v
	}
	return out
}

// Close closes the login session and ends the transaction. Repeated calls
// return the first result without touching the stack again. Failures are
// logged; they never abort the caller's teardown.
func (g *Grant) Close() error {
	if g.closed {
		return g.err
	}
	g.closed = true

	var errs []error
	if err := g.tx.CloseSession(); err != nil {
		errs = append(errs, err)
	}
	if err := g.tx.DeleteCred(); err != nil {
		errs = append(errs, err)
	}
	if err := g.tx.End(); err != nil {
		errs = append(errs, err)
	}
	g.err = errors.Join(errs...)
	if g.err != nil {
		g.logger.Warn("closing authentication context failed", zap.Error(g.err))
	} else {
		g.logger.Info("login session closed")
	}
	return g.err
}
