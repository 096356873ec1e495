package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"go.uber.org/zap"

	"github.com/hnrobert/ttylogin/internal/accounting"
	"github.com/hnrobert/ttylogin/internal/auth"
	"github.com/hnrobert/ttylogin/internal/config"
	"github.com/hnrobert/ttylogin/internal/console"
	"github.com/hnrobert/ttylogin/internal/environ"
	"github.com/hnrobert/ttylogin/internal/issue"
	"github.com/hnrobert/ttylogin/internal/launch"
	"github.com/hnrobert/ttylogin/internal/logger"
	"github.com/hnrobert/ttylogin/internal/login"
	"github.com/hnrobert/ttylogin/internal/power"
	"github.com/hnrobert/ttylogin/internal/selection"
	"github.com/hnrobert/ttylogin/internal/sessions"
	"github.com/hnrobert/ttylogin/internal/terminal"
	"github.com/hnrobert/ttylogin/internal/usercmd"
	"github.com/hnrobert/ttylogin/internal/usermgr"
)

func main() {
	os.Exit(run())
}

// terminationSignals are caught rather than left fatal. The session shares
// the manager's process group, so a keyboard interrupt reaches both and the
// running attempt still has to be torn down.
var terminationSignals = []os.Signal{syscall.SIGTERM, syscall.SIGHUP, os.Interrupt, syscall.SIGQUIT}

func run() int {
	cfgPath := getenvDefault("TTYLOGIN_CONFIG", config.DefaultPath)
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}
	cfg, cfgErr := config.Load(cfgPath)

	if err := logger.Init(cfg.Login.LogDir); err != nil {
		fmt.Fprintf(os.Stderr, "ttylogin: file logging disabled: %v\n", err)
		_ = logger.Init("")
	}
	defer logger.Close()
	log := logger.L()
	if cfgErr != nil {
		log.Warn("configuration problem, using defaults", zap.String("path", cfgPath), zap.Error(cfgErr))
	}

	tty, err := terminal.Current()
	if err != nil {
		log.Error("no terminal on stdin", zap.Error(err))
		return 1
	}
	log = log.With(zap.String("tty", tty.Path))

	runner := usercmd.New()
	if cfg.Login.NumLock {
		if err := runner.SetNumLock(true); err != nil {
			log.Warn("enabling num lock failed", zap.Error(err))
		}
	}

	dir := &usermgr.Directory{
		PasswdPath: cfg.Login.UserFile,
		ShadowPath: cfg.Auth.ShadowFile,
		GroupPath:  cfg.Login.GroupFile,
		ShellsPath: cfg.Login.ShellsFile,
	}
	users, err := dir.Eligible(cfg.Login.MinUID, cfg.Login.IncludeRoot)
	if err != nil {
		log.Error("reading accounts failed", zap.Error(err))
		return 1
	}
	list, err := sessions.Load(cfg.Login.SessionFile, sessions.Sources{
		ShellsFile: cfg.Login.ShellsFile,
		X11Dir:     cfg.Login.X11SessionDir,
		WaylandDir: cfg.Login.WaylandSessionDir,
	}, log.Named("sessions"))
	if err != nil {
		log.Error("reading sessions failed", zap.Error(err))
		return 1
	}
	last, err := selection.Read(cfg.Login.SelectionFile)
	if err != nil {
		log.Info("no usable last selection", zap.Error(err))
	}

	ledger := accounting.NewLedger(cfg.Login.UtmpFile, cfg.Login.WtmpFile, log.Named("accounting"))
	launcher := launch.New(launch.Options{
		TTY:          tty,
		Stdin:        os.Stdin,
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		Passthrough:  cfg.Login.Passthrough,
		FailurePause: cfg.Login.SpawnFailurePause,
	}, environ.NewResolver(runner, log.Named("environ")), log.Named("launch"))
	orch := login.New(
		auth.New(cfg.Auth.Service, authStack(cfg.Auth, log), log.Named("auth")),
		terminal.NewController(log.Named("terminal")),
		ledger,
		login.Spawner(launcher),
		log.Named("login"),
	)

	var busy atomic.Bool
	idle := make(chan struct{}, 1)
	orch.StateHook = func(s login.State) {
		if s != login.Idle {
			busy.Store(true)
			return
		}
		busy.Store(false)
		select {
		case idle <- struct{}{}:
		default:
		}
	}

	tmpl := issue.Load(cfg.Issue.File, log.Named("issue"))
	opts := console.Options{
		Users:    users,
		Sessions: list,
		Banner:   func() string { return issue.Expand(tmpl, issue.Gather(ledger, tty.Path)) },
		Issue:    cfg.Issue,
		Prompts:  cfg.Prompts,
		TTYPath:  tty.Path,
		Last:     last,
	}
	if cfg.Login.WriteLastSelection {
		opts.SelectionFile = cfg.Login.SelectionFile
	}
	guard := power.NewGuard(ledger, runner, log.Named("power"))
	con := console.New(opts, os.Stdin, os.Stdout, orch, guard, log.Named("console"))

	ctx, stop := signal.NotifyContext(context.Background(), terminationSignals...)
	defer stop()

	done := make(chan error, 1)
	go func() { done <- con.Run() }()

	select {
	case err := <-done:
		return exitCode(log, err)
	case <-ctx.Done():
	}
	if busy.Load() {
		// Teardown of the running attempt must finish first.
		log.Warn("termination requested, waiting for the session to end")
		select {
		case err := <-done:
			return exitCode(log, err)
		case <-idle:
		}
	}
	log.Info("terminated between attempts")
	return 0
}

func authStack(cfg config.Auth, log *zap.Logger) auth.Stack {
	if cfg.Backend == "pam" {
		st, err := auth.NewPAMStack()
		if err == nil {
			return st
		}
		log.Warn("PAM unavailable, falling back to shadow authentication", zap.Error(err))
	}
	return auth.NewShadowStack(cfg.ShadowFile, cfg.SuTimeout)
}

func exitCode(log *zap.Logger, err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, io.EOF):
		log.Info("input closed")
		return 0
	default:
		log.Error("login screen stopped", zap.Error(err))
		return 1
	}
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
