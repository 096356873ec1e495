//go:build linux && cgo

package auth

import (
	"github.com/msteinert/pam/v2"
)

type pamStack struct{}

// NewPAMStack returns the system PAM stack.
func NewPAMStack() (Stack, error) {
	return pamStack{}, nil
}

func (pamStack) Start(service, user string, r Responder) (Transaction, error) {
	t, err := pam.StartFunc(service, user, func(s pam.Style, msg string) (string, error) {
		return r.Respond(styleFromPAM(s), msg)
	})
	if t == nil {
		return nil, err
	}
	return &pamTransaction{t: t}, err
}

func styleFromPAM(s pam.Style) Style {
	switch s {
	case pam.PromptEchoOff:
		return PromptEchoOff
	case pam.PromptEchoOn:
		return PromptEchoOn
	case pam.ErrorMsg:
		return ErrorMsg
	case pam.TextInfo:
		return TextInfo
	default:
		return Style(0)
	}
}

type pamTransaction struct {
	t *pam.Transaction
}

func (p *pamTransaction) Authenticate() error { return p.t.Authenticate(0) }
func (p *pamTransaction) AcctMgmt() error     { return p.t.AcctMgmt(0) }
func (p *pamTransaction) SetTTY(tty string) error {
	return p.t.SetItem(pam.Tty, tty)
}
func (p *pamTransaction) EstablishCred() error { return p.t.SetCred(pam.EstablishCred) }
func (p *pamTransaction) DeleteCred() error    { return p.t.SetCred(pam.DeleteCred) }
func (p *pamTransaction) OpenSession() error   { return p.t.OpenSession(0) }
func (p *pamTransaction) CloseSession() error  { return p.t.CloseSession(0) }
func (p *pamTransaction) Env() (map[string]string, error) {
	return p.t.GetEnvList()
}
func (p *pamTransaction) End() error { return p.t.End() }
