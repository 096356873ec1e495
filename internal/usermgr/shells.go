package usermgr

import (
	"slices"
	"strings"
)

var defaultShells = []string{"/bin/bash", "/bin/sh"}

// LoadShells reads the login shells file. A missing file is not an error; the
// default shells are always part of the result.
func LoadShells(path string) []string {
	var shells []string
	t, err := loadTable(path, func(f []string) (string, error) {
		return strings.TrimSpace(strings.Join(f, ":")), nil
	})
	if err == nil {
		shells = t.All()
	}
	for _, d := range defaultShells {
		if !slices.Contains(shells, d) {
			shells = append(shells, d)
		}
	}
	return shells
}
