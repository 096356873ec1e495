// Package console is the text front end of the login manager: numbered user
// and session menus and a password prompt on the terminal.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/hnrobert/ttylogin/internal/auth"
	"github.com/hnrobert/ttylogin/internal/config"
	"github.com/hnrobert/ttylogin/internal/login"
	"github.com/hnrobert/ttylogin/internal/selection"
	"github.com/hnrobert/ttylogin/internal/sessions"
	"github.com/hnrobert/ttylogin/internal/usermgr"
)

// Commands accepted at the user prompt.
const (
	cmdReboot   = "!reboot"
	cmdPowerOff = "!poweroff"
)

type Attempter interface {
	Attempt(p usermgr.Principal, s sessions.Session, cred auth.Credential) login.Result
}

type Power interface {
	Reboot() error
	PowerOff() error
}

type Options struct {
	Users    []usermgr.Principal
	Sessions []sessions.Session
	// Banner is printed above the menus, already expanded.
	Banner  func() string
	Issue   config.Issue
	Prompts config.Prompts
	TTYPath string
	// SelectionFile is rewritten after every authenticated login when set.
	SelectionFile string
	Last          selection.Last
}

type Console struct {
	opts     Options
	in       *bufio.Reader
	inFd     int
	out      io.Writer
	attempts Attempter
	power    Power
	logger   *zap.Logger

	isTerminal func(fd int) bool
	readSecret func(fd int) ([]byte, error)
}

// New builds a console reading from in and writing to out. When in is a
// terminal the password is read without echo.
func New(opts Options, in io.Reader, out io.Writer, a Attempter, p Power, logger *zap.Logger) *Console {
	c := &Console{
		opts:       opts,
		in:         bufio.NewReader(in),
		inFd:       -1,
		out:        out,
		attempts:   a,
		power:      p,
		logger:     logger,
		isTerminal: term.IsTerminal,
		readSecret: term.ReadPassword,
	}
	if f, ok := in.(*os.File); ok {
		c.inFd = int(f.Fd())
	}
	return c
}

// Run shows the login screen until one session has run to completion. It
// returns nil after the session, io.EOF when input ends first.
func (c *Console) Run() error {
	if len(c.opts.Users) == 0 {
		return errors.New("no user may log in on this terminal")
	}
	if len(c.opts.Sessions) == 0 {
		return errors.New("no sessions available")
	}
	for {
		done, err := c.round()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (c *Console) round() (bool, error) {
	c.banner()
	ui, si := c.opts.Last.Indices(c.opts.Users, c.opts.Sessions)

	user, err := c.chooseUser(ui)
	if err != nil || user == nil {
		return false, err
	}
	sess, err := c.chooseSession(si)
	if err != nil || sess == nil {
		return false, err
	}

	fmt.Fprintf(c.out, "-> %s\n%s ", sess.Command, c.opts.Prompts.Password)
	secret, err := c.secret()
	fmt.Fprintln(c.out)
	if err != nil {
		return false, err
	}

	res := c.attempts.Attempt(*user, *sess, auth.Credential{
		Username: user.Name,
		Secret:   secret,
		TTYPath:  c.opts.TTYPath,
	})
	switch res.Status {
	case login.StatusDenied:
		fmt.Fprintf(c.out, "\n%s\n\n", res.Reason)
		return false, nil
	case login.StatusFailed:
		c.remember(user.Name, sess.Name)
		fmt.Fprintf(c.out, "\nLogin failed (%s): %s\n\n", res.Stage, res.Detail)
		return false, nil
	default:
		c.remember(user.Name, sess.Name)
		c.logger.Info("console session finished", zap.Stringer("result", res))
		return true, nil
	}
}

func (c *Console) banner() {
	if c.opts.Banner == nil {
		return
	}
	fmt.Fprint(c.out, strings.Repeat("\n", max(c.opts.Issue.RowGap, 0)))
	pad := strings.Repeat(" ", max(c.opts.Issue.ColGap, 0))
	for _, line := range strings.Split(strings.TrimRight(c.opts.Banner(), "\n"), "\n") {
		fmt.Fprintln(c.out, pad+line)
	}
	fmt.Fprintln(c.out)
}

// chooseUser returns nil with no error when the input was a power command.
func (c *Console) chooseUser(def int) (*usermgr.Principal, error) {
	for {
		fmt.Fprintln(c.out, c.opts.Prompts.User)
		for i, u := range c.opts.Users {
			fmt.Fprintf(c.out, "%s %d) %s\n", mark(i == def), i+1, u.Name)
		}
		fmt.Fprintf(c.out, "login [%s]: ", c.opts.Users[def].Name)
		line, err := c.line()
		if err != nil {
			return nil, err
		}
		switch line {
		case cmdReboot:
			c.powerAction("reboot", c.power.Reboot)
			return nil, nil
		case cmdPowerOff:
			c.powerAction("poweroff", c.power.PowerOff)
			return nil, nil
		}
		i, ok := pick(line, def, len(c.opts.Users), func(i int) string { return c.opts.Users[i].Name })
		if ok {
			return &c.opts.Users[i], nil
		}
		fmt.Fprintf(c.out, "unknown user %q\n", line)
	}
}

func (c *Console) chooseSession(def int) (*sessions.Session, error) {
	for {
		fmt.Fprintln(c.out, c.opts.Prompts.Session)
		for i, s := range c.opts.Sessions {
			fmt.Fprintf(c.out, "%s %d) %s [%s]\n", mark(i == def), i+1, s.Name, s.Kind)
		}
		fmt.Fprintf(c.out, "session [%s]: ", c.opts.Sessions[def].Name)
		line, err := c.line()
		if err != nil {
			return nil, err
		}
		i, ok := pick(line, def, len(c.opts.Sessions), func(i int) string { return c.opts.Sessions[i].Name })
		if ok {
			return &c.opts.Sessions[i], nil
		}
		fmt.Fprintf(c.out, "unknown session %q\n", line)
	}
}

func (c *Console) powerAction(name string, run func() error) {
	if c.power == nil {
		fmt.Fprintf(c.out, "%s is not available here\n", name)
		return
	}
	if err := run(); err != nil {
		fmt.Fprintf(c.out, "-> %s\n", err)
	}
}

func (c *Console) remember(user, sess string) {
	if c.opts.SelectionFile == "" {
		return
	}
	last := selection.Last{User: user, Session: sess}
	if err := selection.Write(c.opts.SelectionFile, last); err != nil {
		c.logger.Warn("writing last selection failed", zap.String("path", c.opts.SelectionFile), zap.Error(err))
		return
	}
	c.opts.Last = last
}

func (c *Console) line() (string, error) {
	s, err := c.in.ReadString('\n')
	if err != nil && (s == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

// secret reads the password without echo on a terminal and as a plain line
// otherwise. The returned slice is the caller's to wipe.
func (c *Console) secret() ([]byte, error) {
	if c.inFd >= 0 && c.in.Buffered() == 0 && c.isTerminal(c.inFd) {
		return c.readSecret(c.inFd)
	}
	b, err := c.in.ReadBytes('\n')
	if err != nil && (len(b) == 0 || !errors.Is(err, io.EOF)) {
		return nil, err
	}
	n := len(b)
	for n > 0 && (b[n-1] == '\n' || b[n-1] == '\r') {
		n--
	}
	out := make([]byte, n)
	copy(out, b[:n])
	for i := range b {
		b[i] = 0
	}
	return out, nil
}

// pick resolves a menu answer: empty keeps def, a number selects by
// position, anything else by name.
func pick(answer string, def, n int, name func(int) string) (int, bool) {
	if answer == "" {
		return def, true
	}
	if k, err := strconv.Atoi(answer); err == nil {
		if k >= 1 && k <= n {
			return k - 1, true
		}
		return 0, false
	}
	for i := 0; i < n; i++ {
		if name(i) == answer {
			return i, true
		}
	}
	return 0, false
}

func mark(selected bool) string {
	if selected {
		return "*"
	}
	return " "
}
