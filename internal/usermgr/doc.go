// Package usermgr reads the host account databases (/etc/passwd, /etc/shadow,
// /etc/group, /etc/shells) and resolves the principals that may log in on a
// console. Loading is read-only and tolerant: malformed lines are skipped and
// counted, never fatal.
package usermgr
