// Package usercmd runs the host helper programs the login manager depends on.
package usercmd

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

type Runner struct {
	Timeout time.Duration

	command func(ctx context.Context, name string, args ...string) *exec.Cmd
}

func New() *Runner {
	return &Runner{Timeout: 10 * time.Second, command: exec.CommandContext}
}

func (r *Runner) cmd(ctx context.Context, name string, args ...string) *exec.Cmd {
	if r.command != nil {
		return r.command(ctx, name, args...)
	}
	return exec.CommandContext(ctx, name, args...)
}

func (r *Runner) run(name string, args ...string) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.Timeout)
	defer cancel()
	cmd := r.cmd(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		s := strings.TrimSpace(stderr.String())
		if s == "" {
			return err
		}
		return fmt.Errorf("%s %v: %s", name, args, s)
	}
	return nil
}

// Output runs name and returns its stdout.
func (r *Runner) Output(name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.Timeout)
	defer cancel()
	cmd := r.cmd(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		s := strings.TrimSpace(stderr.String())
		if s == "" {
			return "", err
		}
		return "", fmt.Errorf("%s %v: %s", name, args, s)
	}
	return stdout.String(), nil
}

// SeatStatus returns the raw `loginctl seat-status` report.
func (r *Runner) SeatStatus() (string, error) {
	return r.Output("loginctl", "seat-status")
}

// ListSessions returns the raw `loginctl list-sessions` table without its
// header.
func (r *Runner) ListSessions() (string, error) {
	return r.Output("loginctl", "list-sessions", "--no-legend")
}

// SetNumLock switches the keyboard num lock LED and state of the current
// console.
func (r *Runner) SetNumLock(on bool) error {
	arg := "-num"
	if on {
		arg = "+num"
	}
	return r.run("setleds", arg)
}

func (r *Runner) Reboot() error {
	return r.run("reboot")
}

func (r *Runner) PowerOff() error {
	return r.run("shutdown", "--poweroff", "now")
}
