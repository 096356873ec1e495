package issue

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestExpand(t *testing.T) {
	f := Facts{
		Users:  2,
		Uptime: 26*time.Hour + 5*time.Minute + 30*time.Second,
		OSName: "Debian GNU/Linux 12 (bookworm)",
		Host:   "box Linux 6.1.0 x86_64",
		Arch:   "x86_64",
		TTY:    "/dev/tty2",
		Now:    time.Date(2024, 3, 9, 7, 5, 3, 0, time.Local),
	}
	got := Expand("%s %m (%l)\n%n\n%d %t\nup %U, %u users, 100%% sure", f)
	want := "Debian GNU/Linux 12 (bookworm) x86_64 (/dev/tty2)\n" +
		"box Linux 6.1.0 x86_64\n" +
		"Sat, 2024-3-9 07:05:03\n" +
		"up 1 days, 2 hours, 5 minutes, 2 users, 100%% sure"
	if got != want {
		t.Fatalf("got\n%s\nwant\n%s", got, want)
	}
}

func TestLoadCreatesDefault(t *testing.T) {
	p := filepath.Join(t.TempDir(), "etc", "issue")
	got := Load(p, zaptest.NewLogger(t))
	if got != DefaultContent {
		t.Fatalf("got %q", got)
	}
	b, err := os.ReadFile(p)
	if err != nil || string(b) != DefaultContent {
		t.Fatalf("default not written: %v %q", err, b)
	}
}

func TestLoadFallsBackWhenUnwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}
	got := Load(filepath.Join(blocker, "issue"), zaptest.NewLogger(t))
	if got != DefaultContent {
		t.Fatalf("got %q", got)
	}
}

func TestLoadFlattensMarkdown(t *testing.T) {
	p := filepath.Join(t.TempDir(), "issue.md")
	md := "# Welcome to %n\n\nThis is **%s** on `%l`.\n\n- users: %u\n- up: %U\n"
	if err := os.WriteFile(p, []byte(md), 0644); err != nil {
		t.Fatal(err)
	}
	got := Load(p, zaptest.NewLogger(t))
	want := "Welcome to %n\n\nThis is %s on %l.\n\n- users: %u\n- up: %U\n"
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestOSName(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"NAME=\"Arch Linux\"\nPRETTY_NAME=\"Arch Linux\"\nID=arch\n": "Arch Linux",
		"NAME=Alpine\nID=alpine\n":                                   "Alpine",
		"ID=unknown\n":                                               "Linux",
	}
	i := 0
	for content, want := range cases {
		i++
		p := filepath.Join(dir, strings.Repeat("x", i))
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		if got := osName(p); got != want {
			t.Errorf("%q: got %q want %q", content, got, want)
		}
	}
	if got := osName(filepath.Join(dir, "missing")); got != "Linux" {
		t.Errorf("missing file: %q", got)
	}
}

func TestUptime(t *testing.T) {
	p := filepath.Join(t.TempDir(), "uptime")
	if err := os.WriteFile(p, []byte("93784.55 180000.00\n"), 0644); err != nil {
		t.Fatal(err)
	}
	d, err := uptime(p)
	if err != nil {
		t.Fatal(err)
	}
	if got := FormatUptime(d); got != "1 days, 2 hours, 3 minutes" {
		t.Fatalf("got %q", got)
	}
}
