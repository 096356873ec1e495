// Package hostfs provides safe access helpers for host files that other
// processes read and write concurrently (account databases, utmp/wtmp,
// the login manager's own state files).
//
// Every helper serialises access per path inside this process. Files shared
// with other programs (utmp) additionally take an fcntl record lock, which is
// the same primitive glibc's utmp functions use.
package hostfs
