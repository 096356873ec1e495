package usermgr

import (
	"errors"
	"slices"

	"github.com/hnrobert/ttylogin/internal/hostfs"
)

var ErrUserNotFound = errors.New("user not found")

// Directory resolves principals from the host account databases.
type Directory struct {
	PasswdPath string
	ShadowPath string
	GroupPath  string
	ShellsPath string
}

func NewDefault() *Directory {
	return &Directory{
		PasswdPath: hostfs.EtcPasswd,
		ShadowPath: hostfs.EtcShadow,
		GroupPath:  hostfs.EtcGroup,
		ShellsPath: hostfs.EtcShells,
	}
}

// Eligible lists the accounts offered on the login screen: uid >= minUID (or
// root when includeRoot) with a shell listed in the shells file.
func (d *Directory) Eligible(minUID int, includeRoot bool) ([]Principal, error) {
	pw, err := LoadPasswd(d.PasswdPath)
	if err != nil {
		return nil, err
	}
	shells := LoadShells(d.ShellsPath)
	gr := d.groups()

	var out []Principal
	for _, e := range pw.List() {
		if !(e.UID >= minUID || (includeRoot && e.UID == 0)) {
			continue
		}
		if !slices.Contains(shells, e.Shell) {
			continue
		}
		out = append(out, principalOf(e, gr))
	}
	return out, nil
}

// Lookup resolves a single account by name, whether or not it is eligible.
func (d *Directory) Lookup(name string) (Principal, error) {
	pw, err := LoadPasswd(d.PasswdPath)
	if err != nil {
		return Principal{}, err
	}
	e := pw.Find(name)
	if e == nil {
		return Principal{}, ErrUserNotFound
	}
	return principalOf(*e, d.groups()), nil
}

// Shadow returns the shadow entry for name, or ErrUserNotFound.
func (d *Directory) Shadow(name string) (*ShadowEntry, error) {
	sh, err := LoadShadow(d.ShadowPath)
	if err != nil {
		return nil, err
	}
	se := sh.Find(name)
	if se == nil {
		return nil, ErrUserNotFound
	}
	return se, nil
}

func (d *Directory) groups() *GroupFile {
	if d.GroupPath == "" {
		return nil
	}
	gr, err := LoadGroup(d.GroupPath)
	if err != nil {
		return nil
	}
	return gr
}

func principalOf(e PasswdEntry, gr *GroupFile) Principal {
	p := Principal{
		Name:  e.Name,
		UID:   e.UID,
		GID:   e.GID,
		Gecos: e.Gecos,
		Home:  e.Home,
		Shell: e.Shell,
	}
	if gr != nil {
		p.Groups = gr.GroupsOf(e.Name, e.GID)
	} else {
		p.Groups = []int{e.GID}
	}
	return p
}
