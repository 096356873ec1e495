package auth

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/creack/pty"

	"github.com/hnrobert/ttylogin/internal/usermgr"
)

var errSuBackend = errors.New("su backend error")

var (
	suPath = "su"
	// su run by root skips authentication (pam_rootok), so it is started as
	// nobody when the manager is privileged.
	suCredential = func() *syscall.Credential {
		if os.Geteuid() != 0 {
			return nil
		}
		return &syscall.Credential{Uid: 65534, Gid: 65534}
	}
)

// verifyWithSu runs su(1) behind a PTY so it can prompt for the password.
// This covers every hash format the host's own su understands. A su that
// exits cleanly without ever asking for the password does not count.
func verifyWithSu(ctx context.Context, username, password string) (bool, error) {
	if !usermgr.ValidUsername(username) {
		return false, errInvalidCredentials
	}

	cmd := exec.CommandContext(ctx, suPath, "-s", "/bin/sh", "-c", "true", "--", username)
	if cred := suCredential(); cred != nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{Credential: cred}
	}
	f, err := pty.Start(cmd)
	if err != nil {
		return false, fmt.Errorf("%w: start su: %v", errSuBackend, err)
	}
	defer func() { _ = f.Close() }()

	prompted := false
	var out bytes.Buffer
	readerDone := make(chan struct{})
	waitDone := make(chan struct{})

	go func() {
		defer close(readerDone)
		br := bufio.NewReader(f)
		buf := make([]byte, 4096)
		for {
			_ = f.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
			n, rerr := br.Read(buf)
			if n > 0 {
				out.Write(buf[:n])
				if !prompted && strings.Contains(strings.ToLower(out.String()), "password") {
					prompted = true
					_, _ = io.WriteString(f, password+"\n")
				}
			}
			if rerr != nil {
				if errors.Is(rerr, os.ErrDeadlineExceeded) {
					select {
					case <-waitDone:
						return
					default:
						continue
					}
				}
				return
			}
		}
	}()

	err = cmd.Wait()
	close(waitDone)
	<-readerDone

	if err == nil {
		return prompted, nil
	}
	if ctx.Err() != nil {
		return false, fmt.Errorf("%w: su timed out", errSuBackend)
	}
	return false, nil
}
