package console

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/hnrobert/ttylogin/internal/auth"
	"github.com/hnrobert/ttylogin/internal/config"
	"github.com/hnrobert/ttylogin/internal/login"
	"github.com/hnrobert/ttylogin/internal/sessions"
	"github.com/hnrobert/ttylogin/internal/usermgr"
)

type call struct {
	user, session, secret, tty string
}

type fakeAttempter struct {
	calls    []call
	password string
	fail     bool
}

func (f *fakeAttempter) Attempt(p usermgr.Principal, s sessions.Session, cred auth.Credential) login.Result {
	f.calls = append(f.calls, call{p.Name, s.Name, string(cred.Secret), cred.TTYPath})
	switch {
	case string(cred.Secret) != f.password:
		return login.Result{Status: login.StatusDenied, Reason: "Login incorrect."}
	case f.fail:
		return login.Result{Status: login.StatusFailed, Stage: login.StageLaunch, Detail: "no such file"}
	default:
		return login.Result{Status: login.StatusCompleted, PID: 10}
	}
}

type fakePower struct{ reboots int }

func (f *fakePower) Reboot() error   { f.reboots++; return nil }
func (f *fakePower) PowerOff() error { return errors.New("poweroff not possible: users are logged in") }

func testOptions(t *testing.T) Options {
	return Options{
		Users:         []usermgr.Principal{{Name: "root"}, {Name: "alice"}},
		Sessions:      []sessions.Session{{Name: "bash", Command: "/bin/bash", Kind: sessions.Shell}, {Name: "sway", Command: "sway", Kind: sessions.Wayland}},
		Banner:        func() string { return "Welcome to box\n" },
		Issue:         config.Issue{RowGap: 1, ColGap: 2},
		Prompts:       config.Default().Prompts,
		TTYPath:       "/dev/tty3",
		SelectionFile: filepath.Join(t.TempDir(), "default"),
	}
}

func TestRunRetriesAfterDenial(t *testing.T) {
	opts := testOptions(t)
	a := &fakeAttempter{password: "correctpass"}
	var out bytes.Buffer
	in := strings.NewReader("2\n\nwrongpass\nalice\n2\ncorrectpass\n")
	c := New(opts, in, &out, a, &fakePower{}, zaptest.NewLogger(t))

	if err := c.Run(); err != nil {
		t.Fatal(err)
	}
	want := []call{
		{"alice", "bash", "wrongpass", "/dev/tty3"},
		{"alice", "sway", "correctpass", "/dev/tty3"},
	}
	if len(a.calls) != len(want) {
		t.Fatalf("calls %+v", a.calls)
	}
	for i := range want {
		if a.calls[i] != want[i] {
			t.Fatalf("call %d: %+v want %+v", i, a.calls[i], want[i])
		}
	}
	s := out.String()
	if !strings.Contains(s, "Login incorrect.") {
		t.Fatalf("denial not shown:\n%s", s)
	}
	if !strings.Contains(s, "\n  Welcome to box\n") {
		t.Fatalf("banner not indented:\n%s", s)
	}
	if strings.Contains(s, "wrongpass") || strings.Contains(s, "correctpass") {
		t.Fatal("password echoed")
	}
	b, err := os.ReadFile(opts.SelectionFile)
	if err != nil || string(b) != "alice\nsway\n" {
		t.Fatalf("selection %q err=%v", b, err)
	}
}

func TestRunUsesLastSelection(t *testing.T) {
	opts := testOptions(t)
	opts.Last.User, opts.Last.Session = "alice", "sway"
	a := &fakeAttempter{password: "pw"}
	var out bytes.Buffer
	c := New(opts, strings.NewReader("\n\npw\n"), &out, a, nil, zaptest.NewLogger(t))
	if err := c.Run(); err != nil {
		t.Fatal(err)
	}
	if a.calls[0].user != "alice" || a.calls[0].session != "sway" {
		t.Fatalf("defaults not applied: %+v", a.calls[0])
	}
	if !strings.Contains(out.String(), "login [alice]: ") {
		t.Fatalf("default not shown:\n%s", out.String())
	}
}

func TestRunStopsAtEOF(t *testing.T) {
	c := New(testOptions(t), strings.NewReader("1\n"), io.Discard, &fakeAttempter{}, nil, zaptest.NewLogger(t))
	if err := c.Run(); !errors.Is(err, io.EOF) {
		t.Fatalf("want io.EOF, got %v", err)
	}
}

func TestLaunchFailureKeepsPrompting(t *testing.T) {
	a := &fakeAttempter{password: "pw", fail: true}
	var out bytes.Buffer
	c := New(testOptions(t), strings.NewReader("1\n1\npw\n"), &out, a, nil, zaptest.NewLogger(t))
	if err := c.Run(); !errors.Is(err, io.EOF) {
		t.Fatalf("want io.EOF, got %v", err)
	}
	if !strings.Contains(out.String(), "Login failed (launch): no such file") {
		t.Fatalf("failure not shown:\n%s", out.String())
	}
}

func TestPowerCommands(t *testing.T) {
	p := &fakePower{}
	var out bytes.Buffer
	c := New(testOptions(t), strings.NewReader("!reboot\n!poweroff\n"), &out, &fakeAttempter{}, p, zaptest.NewLogger(t))
	if err := c.Run(); !errors.Is(err, io.EOF) {
		t.Fatalf("want io.EOF, got %v", err)
	}
	if p.reboots != 1 {
		t.Fatalf("reboots=%d", p.reboots)
	}
	if !strings.Contains(out.String(), "users are logged in") {
		t.Fatalf("refusal not shown:\n%s", out.String())
	}
}

func TestUnknownChoiceReprompts(t *testing.T) {
	a := &fakeAttempter{password: "pw"}
	var out bytes.Buffer
	c := New(testOptions(t), strings.NewReader("9\nmallory\nroot\nkde\n1\npw\n"), &out, a, nil, zaptest.NewLogger(t))
	if err := c.Run(); err != nil {
		t.Fatal(err)
	}
	s := out.String()
	for _, want := range []string{`unknown user "9"`, `unknown user "mallory"`, `unknown session "kde"`} {
		if !strings.Contains(s, want) {
			t.Errorf("missing %q", want)
		}
	}
	if len(a.calls) != 1 || a.calls[0].user != "root" || a.calls[0].session != "bash" {
		t.Fatalf("calls %+v", a.calls)
	}
}

func TestTerminalPasswordIsReadWithoutEcho(t *testing.T) {
	a := &fakeAttempter{password: "s3cret"}
	c := New(testOptions(t), strings.NewReader("1\n1\n"), io.Discard, a, nil, zaptest.NewLogger(t))
	c.inFd = 0
	c.isTerminal = func(int) bool { return true }
	reads := 0
	c.readSecret = func(int) ([]byte, error) {
		reads++
		return []byte("s3cret"), nil
	}
	if err := c.Run(); err != nil {
		t.Fatal(err)
	}
	if reads != 1 || a.calls[0].secret != "s3cret" {
		t.Fatalf("reads=%d calls=%+v", reads, a.calls)
	}
}

func TestRunNeedsUsersAndSessions(t *testing.T) {
	opts := testOptions(t)
	opts.Users = nil
	if err := New(opts, strings.NewReader(""), io.Discard, &fakeAttempter{}, nil, zaptest.NewLogger(t)).Run(); err == nil {
		t.Fatal("expected error without users")
	}
}
