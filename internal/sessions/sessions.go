// Package sessions enumerates the session commands a user can start: login
// shells plus X11 and Wayland desktop sessions.
package sessions

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/hnrobert/ttylogin/internal/hostfs"
)

type Kind string

const (
	X11     Kind = "x11"
	Wayland Kind = "wayland"
	Shell   Kind = "shell"
)

// SessionType is the XDG_SESSION_TYPE value for k.
func (k Kind) SessionType() string {
	if k == Shell {
		return "tty"
	}
	return string(k)
}

func (k Kind) Valid() bool {
	return k == X11 || k == Wayland || k == Shell
}

type Session struct {
	Name    string `yaml:"name"`
	Command string `yaml:"cmd"`
	Kind    Kind   `yaml:"type"`
}

type cacheFile struct {
	Sessions []Session `yaml:"sessions"`
}

// Sources names where sessions are discovered when no cache exists.
type Sources struct {
	ShellsFile string
	X11Dir     string
	WaylandDir string
}

// Load reads the session cache at cachePath. When it is missing or unusable
// the sessions are discovered from src and the cache is written back.
func Load(cachePath string, src Sources, logger *zap.Logger) ([]Session, error) {
	if list, err := readCache(cachePath); err == nil {
		logger.Info("sessions loaded from cache", zap.String("path", cachePath), zap.Int("count", len(list)))
		return list, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		logger.Warn("session cache unusable, rediscovering", zap.String("path", cachePath), zap.Error(err))
	}

	list, err := Discover(src, logger)
	if err != nil {
		return nil, err
	}
	if err := writeCache(cachePath, list); err != nil {
		logger.Warn("writing session cache failed", zap.String("path", cachePath), zap.Error(err))
	}
	return list, nil
}

// Discover lists shells from the shells file followed by the X11 and Wayland
// desktop entries. Missing session directories contribute nothing.
func Discover(src Sources, logger *zap.Logger) ([]Session, error) {
	shells, err := shellSessions(src.ShellsFile)
	if err != nil {
		return nil, err
	}
	out := shells
	for _, d := range []struct {
		dir  string
		kind Kind
	}{{src.X11Dir, X11}, {src.WaylandDir, Wayland}} {
		list, err := desktopSessions(d.dir, d.kind, logger)
		if err != nil {
			return nil, err
		}
		out = append(out, list...)
	}
	return out, nil
}

func readCache(path string) ([]Session, error) {
	b, err := hostfs.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c cacheFile
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	if len(c.Sessions) == 0 {
		return nil, errors.New("no sessions in cache")
	}
	for i, s := range c.Sessions {
		if s.Name == "" || s.Command == "" || !s.Kind.Valid() {
			return nil, fmt.Errorf("session %d: incomplete entry", i)
		}
	}
	return c.Sessions, nil
}

func writeCache(path string, list []Session) error {
	b, err := yaml.Marshal(cacheFile{Sessions: list})
	if err != nil {
		return err
	}
	if err := hostfs.EnsureDir(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return hostfs.WriteFileAtomic(path, b, 0644)
}

func shellSessions(path string) ([]Session, error) {
	b, err := hostfs.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []Session
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "/") {
			continue
		}
		out = append(out, Session{Name: filepath.Base(line), Command: line, Kind: Shell})
	}
	return out, sc.Err()
}

func desktopSessions(dir string, kind Kind, logger *zap.Logger) ([]Session, error) {
	if dir == "" {
		return nil, nil
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []Session
	for _, e := range ents {
		if e.IsDir() || filepath.Ext(e.Name()) != ".desktop" {
			continue
		}
		p := filepath.Join(dir, e.Name())
		cmd, err := execLine(p)
		if err != nil {
			logger.Warn("skipping desktop entry", zap.String("path", p), zap.Error(err))
			continue
		}
		out = append(out, Session{Name: strings.TrimSuffix(e.Name(), ".desktop"), Command: cmd, Kind: kind})
	}
	return out, nil
}

// execLine returns the value of the first Exec= key.
func execLine(path string) (string, error) {
	b, err := hostfs.ReadFile(path)
	if err != nil {
		return "", err
	}
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if v, ok := strings.CutPrefix(line, "Exec="); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return "", errors.New("no Exec= line")
}
