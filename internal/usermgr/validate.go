package usermgr

import "regexp"

var usernameRe = regexp.MustCompile(`^[a-z_][a-z0-9_.-]{0,31}\$?$`)

// ValidUsername enforces shadow-utils style names: lowercase letters, digits,
// underscore, dot and dash, starting with a letter or underscore, with an
// optional trailing '$'. It never accepts a leading '-', so a valid name is
// safe to pass as a command-line argument.
func ValidUsername(u string) bool {
	return usernameRe.MatchString(u)
}
