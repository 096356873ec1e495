//go:build !linux || !cgo

package auth

import "errors"

// NewPAMStack reports that this build has no PAM support; use the shadow
// backend instead.
func NewPAMStack() (Stack, error) {
	return nil, errors.New("pam: not available in this build (requires linux and cgo)")
}
