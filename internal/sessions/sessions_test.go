package sessions

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap/zaptest"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func fixture(t *testing.T) (string, Sources) {
	dir := t.TempDir()
	src := Sources{
		ShellsFile: filepath.Join(dir, "shells"),
		X11Dir:     filepath.Join(dir, "xsessions"),
		WaylandDir: filepath.Join(dir, "wayland-sessions"),
	}
	writeFile(t, src.ShellsFile, "# /etc/shells\n/bin/bash\n/usr/bin/zsh\n\n")
	writeFile(t, filepath.Join(src.X11Dir, "i3.desktop"), "[Desktop Entry]\nName=i3\nTryExec=i3\nExec=i3 --shmlog-size 0\n")
	writeFile(t, filepath.Join(src.X11Dir, "broken.desktop"), "[Desktop Entry]\nName=broken\n")
	writeFile(t, filepath.Join(src.X11Dir, "README"), "not a session")
	return filepath.Join(dir, "cache", "sessions.yaml"), src
}

func TestDiscover(t *testing.T) {
	_, src := fixture(t)
	got, err := Discover(src, zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	want := []Session{
		{Name: "bash", Command: "/bin/bash", Kind: Shell},
		{Name: "zsh", Command: "/usr/bin/zsh", Kind: Shell},
		{Name: "i3", Command: "i3 --shmlog-size 0", Kind: X11},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v\nwant %+v", got, want)
	}
}

func TestLoadWritesAndPrefersCache(t *testing.T) {
	cache, src := fixture(t)
	log := zaptest.NewLogger(t)
	first, err := Load(cache, src, log)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(cache); err != nil {
		t.Fatalf("cache not written: %v", err)
	}

	// Discovery sources changing must not matter once the cache exists.
	writeFile(t, src.ShellsFile, "/bin/sh\n")
	second, err := Load(cache, src, log)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("cache not used: %+v vs %+v", first, second)
	}
}

func TestLoadRediscoversOnBadCache(t *testing.T) {
	cache, src := fixture(t)
	writeFile(t, cache, "sessions:\n  - name: x\n    cmd: y\n    type: plasma\n")
	got, err := Load(cache, src, zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %+v", got)
	}
}

func TestSessionType(t *testing.T) {
	for k, want := range map[Kind]string{X11: "x11", Wayland: "wayland", Shell: "tty"} {
		if got := k.SessionType(); got != want {
			t.Errorf("%s: got %q want %q", k, got, want)
		}
	}
}
