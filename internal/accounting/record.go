// Package accounting maintains utmp/wtmp login records for terminal lines.
package accounting

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"
)

// Kind is the ut_type of a record.
type Kind int16

const (
	Empty        Kind = 0
	RunLevel     Kind = 1
	BootTime     Kind = 2
	NewTime      Kind = 3
	OldTime      Kind = 4
	InitProcess  Kind = 5
	LoginProcess Kind = 6
	UserProcess  Kind = 7
	DeadProcess  Kind = 8
	Accounting   Kind = 9
)

func (k Kind) String() string {
	switch k {
	case Empty:
		return "EMPTY"
	case RunLevel:
		return "RUN_LVL"
	case BootTime:
		return "BOOT_TIME"
	case NewTime:
		return "NEW_TIME"
	case OldTime:
		return "OLD_TIME"
	case InitProcess:
		return "INIT_PROCESS"
	case LoginProcess:
		return "LOGIN_PROCESS"
	case UserProcess:
		return "USER_PROCESS"
	case DeadProcess:
		return "DEAD_PROCESS"
	case Accounting:
		return "ACCOUNTING"
	default:
		return fmt.Sprintf("KIND(%d)", int16(k))
	}
}

// Field widths of the glibc struct utmp.
const (
	LineSize   = 32
	IDSize     = 4
	UserSize   = 32
	HostSize   = 256
	RecordSize = 384
)

// LoginUser is the user marker of a line waiting for a login.
const LoginUser = "LOGIN"

// Record is one utmp entry. String fields longer than their on-disk width are
// truncated on Encode.
type Record struct {
	Kind    Kind
	PID     int
	Line    string
	ID      string
	User    string
	Host    string
	Session int
	Time    time.Time
}

// rawRecord mirrors the on-disk layout byte for byte.
type rawRecord struct {
	Type     int16
	_        [2]byte
	Pid      int32
	Line     [LineSize]byte
	ID       [IDSize]byte
	User     [UserSize]byte
	Host     [HostSize]byte
	ExitTerm int16
	ExitCode int16
	Session  int32
	TvSec    int32
	TvUsec   int32
	AddrV6   [4]int32
	_        [20]byte
}

// Encode serialises r into RecordSize bytes.
func Encode(r Record) []byte {
	var raw rawRecord
	raw.Type = int16(r.Kind)
	raw.Pid = int32(r.PID)
	putField(raw.Line[:], r.Line)
	putField(raw.ID[:], r.ID)
	putField(raw.User[:], r.User)
	putField(raw.Host[:], r.Host)
	raw.Session = int32(r.Session)
	if !r.Time.IsZero() {
		raw.TvSec = int32(r.Time.Unix())
		raw.TvUsec = int32(r.Time.Nanosecond() / 1000)
	}
	var buf bytes.Buffer
	buf.Grow(RecordSize)
	// Writing a fixed-size struct into a bytes.Buffer cannot fail.
	_ = binary.Write(&buf, binary.NativeEndian, &raw)
	return buf.Bytes()
}

// Decode parses exactly RecordSize bytes.
func Decode(b []byte) (Record, error) {
	if len(b) != RecordSize {
		return Record{}, fmt.Errorf("utmp record: want %d bytes, got %d", RecordSize, len(b))
	}
	var raw rawRecord
	if err := binary.Read(bytes.NewReader(b), binary.NativeEndian, &raw); err != nil {
		return Record{}, fmt.Errorf("utmp record: %w", err)
	}
	r := Record{
		Kind:    Kind(raw.Type),
		PID:     int(raw.Pid),
		Line:    getField(raw.Line[:]),
		ID:      getField(raw.ID[:]),
		User:    getField(raw.User[:]),
		Host:    getField(raw.Host[:]),
		Session: int(raw.Session),
	}
	if raw.TvSec != 0 || raw.TvUsec != 0 {
		r.Time = time.Unix(int64(raw.TvSec), int64(raw.TvUsec)*1000)
	}
	return r, nil
}

// putField copies s into dst, truncating, and NUL pads the rest.
func putField(dst []byte, s string) {
	n := copy(dst, s)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

// getField returns dst up to the first NUL. A full-width field has none.
func getField(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}

// LineID derives the 4-byte ut_id from a line name: its last four bytes, so
// tty1 and tty12 get distinct ids.
func LineID(line string) string {
	if len(line) <= IDSize {
		return line
	}
	return line[len(line)-IDSize:]
}
