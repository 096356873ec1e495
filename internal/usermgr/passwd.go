package usermgr

type PasswdFile struct {
	Table[PasswdEntry]
}

func LoadPasswd(path string) (*PasswdFile, error) {
	t, err := loadTable(path, parsePasswd)
	if err != nil {
		return nil, err
	}
	return &PasswdFile{*t}, nil
}

func parsePasswd(f []string) (PasswdEntry, error) {
	if len(f) != 7 || f[0] == "" {
		return PasswdEntry{}, errMalformed
	}
	uid, err := id(f[2])
	if err != nil {
		return PasswdEntry{}, err
	}
	gid, err := id(f[3])
	if err != nil {
		return PasswdEntry{}, err
	}
	return PasswdEntry{Name: f[0], Passwd: f[1], UID: uid, GID: gid, Gecos: f[4], Home: f[5], Shell: f[6]}, nil
}

// Find returns a copy of the first entry named name, or nil.
func (f *PasswdFile) Find(name string) *PasswdEntry {
	return f.first(func(e *PasswdEntry) bool { return e.Name == name })
}

// List returns the entries in file order.
func (f *PasswdFile) List() []PasswdEntry { return f.All() }
