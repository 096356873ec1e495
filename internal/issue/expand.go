package issue

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/hnrobert/ttylogin/internal/hostfs"
)

// Facts are the values substituted into the banner.
type Facts struct {
	Users  int
	Uptime time.Duration
	OSName string
	// Host is the full uname line: node, system, release, machine.
	Host string
	Arch string
	TTY  string
	Now  time.Time
}

// Expand substitutes %u %U %s %n %m %l %d %t in content.
func Expand(content string, f Facts) string {
	r := strings.NewReplacer(
		"%u", strconv.Itoa(f.Users),
		"%U", FormatUptime(f.Uptime),
		"%s", f.OSName,
		"%n", f.Host,
		"%m", f.Arch,
		"%l", f.TTY,
		"%d", f.Now.Format("Mon, 2006-1-2"),
		"%t", f.Now.Format("15:04:05"),
	)
	return r.Replace(content)
}

func FormatUptime(d time.Duration) string {
	secs := int64(d / time.Second)
	days := secs / 86400
	hours := secs % 86400 / 3600
	mins := secs % 3600 / 60
	return fmt.Sprintf("%d days, %d hours, %d minutes", days, hours, mins)
}

// UserCounter reports how many user sessions are open.
type UserCounter interface {
	CountUserSessions() (int, error)
}

// Gather collects the live host facts. Anything that cannot be read is left
// at a neutral value.
func Gather(users UserCounter, ttyPath string) Facts {
	f := Facts{
		OSName: osName(hostfs.EtcOSRelease),
		Host:   "unknown",
		Arch:   "unknown",
		TTY:    ttyPath,
		Now:    time.Now(),
	}
	if n, err := users.CountUserSessions(); err == nil {
		f.Users = n
	}
	if up, err := uptime(hostfs.ProcUptime); err == nil {
		f.Uptime = up
	}
	var u unix.Utsname
	if err := unix.Uname(&u); err == nil {
		node := unix.ByteSliceToString(u.Nodename[:])
		sys := unix.ByteSliceToString(u.Sysname[:])
		rel := unix.ByteSliceToString(u.Release[:])
		f.Arch = unix.ByteSliceToString(u.Machine[:])
		f.Host = strings.Join([]string{node, sys, rel, f.Arch}, " ")
	}
	return f
}

// osName reads PRETTY_NAME (or NAME) from an os-release file.
func osName(path string) string {
	b, err := hostfs.ReadFile(path)
	if err != nil {
		return "Linux"
	}
	name := ""
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		k, v, ok := strings.Cut(strings.TrimSpace(sc.Text()), "=")
		if !ok {
			continue
		}
		v = strings.Trim(v, `"'`)
		switch k {
		case "PRETTY_NAME":
			if v != "" {
				return v
			}
		case "NAME":
			name = v
		}
	}
	if name == "" {
		return "Linux"
	}
	return name
}

func uptime(path string) (time.Duration, error) {
	b, err := hostfs.ReadFile(path)
	if err != nil {
		return 0, err
	}
	fields := strings.Fields(string(b))
	if len(fields) == 0 {
		return 0, fmt.Errorf("%s: empty", path)
	}
	secs, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(secs * float64(time.Second)), nil
}
