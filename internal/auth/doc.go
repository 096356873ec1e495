// Package auth validates console credentials through a pluggable
// authentication stack and opens the administrative login session.
//
// The stack drives a synchronous conversation: it asks questions and this
// package answers them through a Responder. The responder handed to every
// transaction answers exactly one masked prompt with the caller's secret and
// treats anything else as a protocol violation.
//
// Two stacks exist: PAM (the normal case) and a shadow-file stack for hosts
// built without PAM, which verifies crypt(3) hashes directly and falls back
// to su(1) behind a pty for hash formats it cannot verify.
package auth
