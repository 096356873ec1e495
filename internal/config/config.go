// Package config loads the login manager's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hnrobert/ttylogin/internal/hostfs"
)

const DefaultPath = "/etc/ttylogin/config.yaml"

type Config struct {
	Login   Login   `yaml:"login"`
	Auth    Auth    `yaml:"auth"`
	Issue   Issue   `yaml:"issue"`
	Prompts Prompts `yaml:"prompts"`
}

type Login struct {
	MinUID             int    `yaml:"min_uid"`
	IncludeRoot        bool   `yaml:"include_root_user"`
	UserFile           string `yaml:"user_file"`
	GroupFile          string `yaml:"group_file"`
	ShellsFile         string `yaml:"shells_file"`
	X11SessionDir      string `yaml:"x11_session_folder"`
	WaylandSessionDir  string `yaml:"wayland_session_folder"`
	SessionFile        string `yaml:"session_file"`
	SelectionFile      string `yaml:"default_selection_file"`
	WriteLastSelection bool   `yaml:"write_last_to_default_selection"`
	NumLock            bool   `yaml:"activate_num_lock"`
	UtmpFile           string `yaml:"utmp_file"`
	// Empty disables wtmp bookkeeping.
	WtmpFile          string        `yaml:"wtmp_file"`
	SpawnFailurePause time.Duration `yaml:"spawn_failure_pause"`
	LogDir            string        `yaml:"log_dir"`
	// Variables copied from the manager's own environment into sessions.
	Passthrough []string `yaml:"passthrough_env"`
}

type Auth struct {
	Service string `yaml:"service"`
	// pam or shadow.
	Backend    string        `yaml:"backend"`
	ShadowFile string        `yaml:"shadow_file"`
	SuTimeout  time.Duration `yaml:"su_timeout"`
}

type Issue struct {
	File   string `yaml:"issue_file"`
	RowGap int    `yaml:"issue_row_gap"`
	ColGap int    `yaml:"issue_col_gap"`
}

type Prompts struct {
	User     string `yaml:"user_option_prompt"`
	Session  string `yaml:"start_option_prompt"`
	Password string `yaml:"password_prompt"`
}

func Default() Config {
	return Config{
		Login: Login{
			MinUID:             1000,
			IncludeRoot:        true,
			UserFile:           hostfs.EtcPasswd,
			GroupFile:          hostfs.EtcGroup,
			ShellsFile:         hostfs.EtcShells,
			X11SessionDir:      "/usr/share/xsessions",
			WaylandSessionDir:  "/usr/share/wayland-sessions",
			SessionFile:        "/etc/ttylogin/sessions.yaml",
			SelectionFile:      "/etc/ttylogin/default",
			WriteLastSelection: true,
			NumLock:            true,
			UtmpFile:           hostfs.RunUtmp,
			WtmpFile:           hostfs.VarLogWtmp,
			SpawnFailurePause:  time.Second,
			LogDir:             "/var/log/ttylogin",
			Passthrough:        []string{"TERM", "LANG", "LC_ALL", "TZ"},
		},
		Auth: Auth{
			Service:    "login",
			Backend:    "pam",
			ShadowFile: hostfs.EtcShadow,
			SuTimeout:  6 * time.Second,
		},
		Issue: Issue{
			File:   "/etc/ttylogin/issue",
			RowGap: 1,
			ColGap: 2,
		},
		Prompts: Prompts{
			User:     "select user:",
			Session:  "select environment:",
			Password: "type password:",
		},
	}
}

// Load reads path on top of the defaults. A missing file is created from the
// defaults (best effort). On any read or parse error the defaults are returned
// together with the error so the caller can log it and keep going.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if werr := Save(path, cfg); werr != nil {
				return cfg, fmt.Errorf("write default config: %w", werr)
			}
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Default(), fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// Save writes cfg to path, creating the parent directory.
func Save(path string, cfg Config) error {
	if err := hostfs.EnsureDir(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return hostfs.WriteFileAtomic(path, data, 0644)
}

func (c Config) validate() error {
	switch c.Auth.Backend {
	case "pam", "shadow":
	default:
		return fmt.Errorf("invalid auth backend %q", c.Auth.Backend)
	}
	if c.Auth.Service == "" {
		return errors.New("auth service must not be empty")
	}
	if c.Login.MinUID < 0 {
		return fmt.Errorf("invalid min_uid %d", c.Login.MinUID)
	}
	if c.Login.SpawnFailurePause < 0 {
		return fmt.Errorf("invalid spawn_failure_pause %s", c.Login.SpawnFailurePause)
	}
	return nil
}
