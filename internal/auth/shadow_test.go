package auth

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/GehirnInc/crypt/sha512_crypt"
	"go.uber.org/zap"
)

func shadowFixture(t *testing.T) string {
	t.Helper()
	hash, err := sha512_crypt.New().Generate([]byte("correctpass"), []byte("$6$saltsaltsalt"))
	if err != nil {
		t.Fatalf("generate hash: %v", err)
	}
	content := "root:!:19000:0:99999:7:::\n" +
		"alice:" + hash + ":19000:0:99999:7:::\n" +
		"ylice:$y$j9T$abc$def:19000:0:99999:7:::\n" +
		"olda:" + hash + ":19000:0:99999:7::100:\n"
	p := filepath.Join(t.TempDir(), "shadow")
	if err := os.WriteFile(p, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestShadowStackVerifiesCrypt(t *testing.T) {
	st := NewShadowStack(shadowFixture(t), time.Second)
	st.verifySu = func(context.Context, string, string) (bool, error) {
		t.Fatal("su must not run for sha512 hashes")
		return false, nil
	}
	a := New("login", st, zap.NewNop())

	g, err := a.Authenticate(Credential{Username: "alice", Secret: []byte("correctpass"), TTYPath: "/dev/tty2"})
	if err != nil {
		t.Fatalf("expected grant, got %v", err)
	}
	if err := g.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	for _, c := range []Credential{
		{Username: "alice", Secret: []byte("wrongpass")},
		{Username: "nobody", Secret: []byte("correctpass")},
		{Username: "root", Secret: []byte("")},
		{Username: "olda", Secret: []byte("correctpass")},
	} {
		if _, err := a.Authenticate(c); !errors.Is(err, ErrRejected) {
			t.Errorf("%s: expected ErrRejected, got %v", c.Username, err)
		}
	}
}

func TestShadowStackFallsBackToSu(t *testing.T) {
	st := NewShadowStack(shadowFixture(t), time.Second)
	var calledWith string
	st.verifySu = func(_ context.Context, user, password string) (bool, error) {
		calledWith = user
		return password == "yespass", nil
	}
	a := New("login", st, zap.NewNop())

	if _, err := a.Authenticate(Credential{Username: "ylice", Secret: []byte("nope")}); !errors.Is(err, ErrRejected) {
		t.Fatalf("expected rejection, got %v", err)
	}
	g, err := a.Authenticate(Credential{Username: "ylice", Secret: []byte("yespass")})
	if err != nil {
		t.Fatalf("expected grant via su, got %v", err)
	}
	_ = g.Close()
	if calledWith != "ylice" {
		t.Fatalf("su called for %q", calledWith)
	}
}

func TestShadowTransactionEndOnce(t *testing.T) {
	st := NewShadowStack(shadowFixture(t), time.Second)
	tx, err := st.Start("login", "alice", newSecretResponder([]byte("x")))
	if err != nil {
		t.Fatal(err)
	}
	if err := tx.End(); err != nil {
		t.Fatalf("first end: %v", err)
	}
	if err := tx.End(); !errors.Is(err, errEnded) {
		t.Fatalf("expected errEnded, got %v", err)
	}
}

func TestVerifyCryptUnsupported(t *testing.T) {
	for _, h := range []string{"$y$j9T$a$b", "$2b$10$abc", "$7$abc", "plaintext"} {
		if _, err := verifyCrypt(h, "x"); !errors.Is(err, errUnsupportedHash) {
			t.Errorf("%s: expected errUnsupportedHash, got %v", h, err)
		}
	}
}

func fakeSu(t *testing.T, script string) {
	t.Helper()
	p := filepath.Join(t.TempDir(), "su")
	if err := os.WriteFile(p, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatal(err)
	}
	oldPath, oldCred := suPath, suCredential
	suPath = p
	suCredential = func() *syscall.Credential { return nil }
	t.Cleanup(func() { suPath, suCredential = oldPath, oldCred })
}

func TestVerifyWithSuRequiresPrompt(t *testing.T) {
	fakeSu(t, "exit 0\n")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ok, err := verifyWithSu(ctx, "alice", "anything")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ok {
		t.Fatal("su that never asked for a password must not grant")
	}
}

func TestVerifyWithSuAnswersPrompt(t *testing.T) {
	fakeSu(t, "printf 'Password: '\nread p\n[ \"$p\" = right ]\n")

	for _, c := range []struct {
		password string
		want     bool
	}{
		{"right", true},
		{"wrong", false},
	} {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		ok, err := verifyWithSu(ctx, "alice", c.password)
		cancel()
		if err != nil {
			t.Fatalf("%s: %v", c.password, err)
		}
		if ok != c.want {
			t.Errorf("%s: got %v, want %v", c.password, ok, c.want)
		}
	}
}

func TestShadowStackAsRootRejectsWrongYescryptPassword(t *testing.T) {
	if os.Geteuid() != 0 {
		t.Skip("needs root")
	}
	if _, err := exec.LookPath("su"); err != nil {
		t.Skip("su not installed")
	}
	p := filepath.Join(t.TempDir(), "shadow")
	if err := os.WriteFile(p, []byte("daemon:$y$j9T$abc$def:19000:0:99999:7:::\n"), 0600); err != nil {
		t.Fatal(err)
	}
	a := New("login", NewShadowStack(p, 15*time.Second), zap.NewNop())

	g, err := a.Authenticate(Credential{Username: "daemon", Secret: []byte("definitely-wrong")})
	if err == nil {
		_ = g.Close()
		t.Fatal("wrong password granted while running as root")
	}
}
