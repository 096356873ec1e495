package auth

import (
	"errors"
	"testing"
)

func TestSecretResponderSingleExchange(t *testing.T) {
	r := newSecretResponder([]byte("s3cret"))

	got, err := r.Respond(PromptEchoOff, "Password: ")
	if err != nil || got != "s3cret" {
		t.Fatalf("first prompt: got %q, %v", got, err)
	}
	if _, err := r.Respond(PromptEchoOff, "Password: "); !errors.Is(err, ErrProtocol) {
		t.Fatalf("second prompt: expected ErrProtocol, got %v", err)
	}
	if r.Violation() == nil {
		t.Fatal("expected violation recorded")
	}
}

func TestSecretResponderRejectsOtherStyles(t *testing.T) {
	for _, s := range []Style{PromptEchoOn, ErrorMsg, TextInfo, Style(42)} {
		r := newSecretResponder([]byte("s3cret"))
		if _, err := r.Respond(s, "msg"); !errors.Is(err, ErrProtocol) {
			t.Errorf("%s: expected ErrProtocol, got %v", s, err)
		}
	}
}

func TestSecretResponderWithoutSecret(t *testing.T) {
	r := newSecretResponder(nil)
	if _, err := r.Respond(PromptEchoOff, "Password: "); !errors.Is(err, ErrProtocol) {
		t.Fatalf("expected ErrProtocol, got %v", err)
	}
	if !errors.Is(r.Violation(), errNoSecret) {
		t.Fatalf("expected errNoSecret, got %v", r.Violation())
	}
}

func TestSecretResponderAllowsEmptySecret(t *testing.T) {
	r := newSecretResponder([]byte{})
	got, err := r.Respond(PromptEchoOff, "Password: ")
	if err != nil || got != "" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestSecretResponderAliasesCredential(t *testing.T) {
	c := Credential{Username: "alice", Secret: []byte("pw")}
	r := newSecretResponder(c.Secret)
	if got, err := r.Respond(PromptEchoOff, "Password: "); err != nil || got != "pw" {
		t.Fatalf("respond: %q %v", got, err)
	}
	c.Wipe()
	for i, b := range r.secret {
		if b != 0 {
			t.Fatalf("byte %d survived wipe", i)
		}
	}
}
