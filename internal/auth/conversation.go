package auth

import (
	"errors"
	"fmt"
)

// Style is the kind of message an authentication stack sends.
type Style int

const (
	PromptEchoOff Style = iota + 1
	PromptEchoOn
	ErrorMsg
	TextInfo
)

func (s Style) String() string {
	switch s {
	case PromptEchoOff:
		return "prompt-echo-off"
	case PromptEchoOn:
		return "prompt-echo-on"
	case ErrorMsg:
		return "error-msg"
	case TextInfo:
		return "text-info"
	default:
		return fmt.Sprintf("style(%d)", int(s))
	}
}

// Responder answers the stack's conversation messages.
type Responder interface {
	Respond(style Style, msg string) (string, error)
}

var errNoSecret = errors.New("no secret bound to conversation")

// secretResponder answers a single masked prompt with the secret. Every other
// message, and any prompt after the first, is a protocol violation.
type secretResponder struct {
	secret    []byte
	answered  bool
	violation error
}

func newSecretResponder(secret []byte) *secretResponder {
	return &secretResponder{secret: secret}
}

func (r *secretResponder) Respond(style Style, msg string) (string, error) {
	switch {
	case r.secret == nil:
		return r.fail(errNoSecret)
	case style != PromptEchoOff:
		return r.fail(fmt.Errorf("unexpected %s message %q", style, msg))
	case r.answered:
		return r.fail(fmt.Errorf("second prompt %q in single-exchange conversation", msg))
	}
	r.answered = true
	// The pam binding takes the answer as a string. This conversion is the
	// one copy Credential.Wipe cannot reach; secret itself aliases the
	// credential's bytes.
	return string(r.secret), nil
}

func (r *secretResponder) fail(err error) (string, error) {
	if r.violation == nil {
		r.violation = err
	}
	return "", fmt.Errorf("%w: %v", ErrProtocol, err)
}

// Violation returns the first protocol violation seen, if any.
func (r *secretResponder) Violation() error {
	return r.violation
}
