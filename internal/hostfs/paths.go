package hostfs

// Well-known host file locations.
const (
	EtcPasswd    = "/etc/passwd"
	EtcShadow    = "/etc/shadow"
	EtcGroup     = "/etc/group"
	EtcShells    = "/etc/shells"
	EtcOSRelease = "/etc/os-release"
	ProcUptime   = "/proc/uptime"
	RunUtmp      = "/run/utmp"
	VarLogWtmp   = "/var/log/wtmp"
)
