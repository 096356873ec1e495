package usermgr

type PasswdEntry struct {
	Name   string
	Passwd string
	UID    int
	GID    int
	Gecos  string
	Home   string
	Shell  string
}

type ShadowEntry struct {
	Name       string
	Hash       string
	LastChange string
	Min        string
	Max        string
	Warn       string
	Inactive   string
	Expire     string
	Reserved   string
}

// Locked reports whether the entry carries no usable password hash.
func (e *ShadowEntry) Locked() bool {
	return e.Hash == "" || e.Hash == "!" || e.Hash == "*" ||
		e.Hash[0] == '!' || e.Hash[0] == '*'
}

type GroupEntry struct {
	Name    string
	Passwd  string
	GID     int
	Members []string
}

// Principal is an account eligible to log in. UID and GID are resolved,
// non-negative ids; Groups holds the supplementary group ids.
type Principal struct {
	Name   string
	UID    int
	GID    int
	Gecos  string
	Home   string
	Shell  string
	Groups []int
}
