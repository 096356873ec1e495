// Package authtest provides an instrumented in-memory authentication stack.
package authtest

import (
	"errors"
	"sync"

	"github.com/hnrobert/ttylogin/internal/auth"
)

var ErrBadPassword = errors.New("authtest: bad password")

// Prompt is one message the fake stack sends during Authenticate.
type Prompt struct {
	Style auth.Style
	Msg   string
}

// Stack is a fake auth.Stack. Passwords maps user to the accepted secret.
// The *Err fields inject failures at each step. Counters record calls across
// all transactions started from the stack.
type Stack struct {
	Passwords map[string]string
	// Prompts defaults to a single masked "Password: " prompt.
	Prompts []Prompt
	Env     map[string]string

	StartErr     error
	PartialStart bool
	AcctErr      error
	SetTTYErr    error
	CredErr      error
	OpenErr      error
	CloseErr     error
	EndErr       error

	mu       sync.Mutex
	Starts   int
	Opens    int
	Closes   int
	Ends     int
	LastTTY  string
	Received []string
}

func (s *Stack) Start(service, user string, r auth.Responder) (auth.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Starts++
	if s.StartErr != nil {
		if s.PartialStart {
			return &tx{s: s, user: user, r: r}, s.StartErr
		}
		return nil, s.StartErr
	}
	return &tx{s: s, user: user, r: r}, nil
}

// Counts returns (starts, ends) under the lock.
func (s *Stack) Counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Starts, s.Ends
}

type tx struct {
	s    *Stack
	user string
	r    auth.Responder
}

func (t *tx) Authenticate() error {
	prompts := t.s.Prompts
	if len(prompts) == 0 {
		prompts = []Prompt{{Style: auth.PromptEchoOff, Msg: "Password: "}}
	}
	var answer string
	for _, p := range prompts {
		a, err := t.r.Respond(p.Style, p.Msg)
		if err != nil {
			return err
		}
		if p.Style == auth.PromptEchoOff {
			answer = a
		}
	}
	t.s.mu.Lock()
	t.s.Received = append(t.s.Received, answer)
	t.s.mu.Unlock()
	want, ok := t.s.Passwords[t.user]
	if !ok || want != answer {
		return ErrBadPassword
	}
	return nil
}

func (t *tx) AcctMgmt() error { return t.s.AcctErr }

func (t *tx) SetTTY(tty string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.LastTTY = tty
	return t.s.SetTTYErr
}

func (t *tx) EstablishCred() error { return t.s.CredErr }
func (t *tx) DeleteCred() error    { return nil }

func (t *tx) OpenSession() error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.s.OpenErr != nil {
		return t.s.OpenErr
	}
	t.s.Opens++
	return nil
}

func (t *tx) CloseSession() error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.Closes++
	return t.s.CloseErr
}

func (t *tx) Env() (map[string]string, error) { return t.s.Env, nil }

func (t *tx) End() error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.Ends++
	return t.s.EndErr
}
