package accounting

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hnrobert/ttylogin/internal/hostfs"
)

// Store is a file of fixed-size utmp records. Every operation holds an
// exclusive fcntl lock for its whole duration.
type Store struct {
	Path string
}

func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Records returns every complete record in the file. A missing file holds no
// records.
func (s *Store) Records() ([]Record, error) {
	f, err := hostfs.OpenLocked(s.Path, os.O_RDWR, 0)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	recs, _, err := readAll(f.File)
	return recs, err
}

// FindLine returns the first login-type record for line.
func (s *Store) FindLine(line string) (Record, bool, error) {
	recs, err := s.Records()
	if err != nil {
		return Record{}, false, err
	}
	for _, r := range recs {
		if r.Line == line && isLineKind(r.Kind) {
			return r, true, nil
		}
	}
	return Record{}, false, nil
}

// Put writes r over the existing record for the same line (or, failing that,
// the same id) and appends it when there is none.
func (s *Store) Put(r Record) error {
	f, err := hostfs.OpenLocked(s.Path, os.O_RDWR|os.O_CREATE, 0664)
	if err != nil {
		return err
	}
	defer f.Close()

	recs, end, err := readAll(f.File)
	if err != nil {
		return err
	}
	slot := -1
	for i, cur := range recs {
		if isLineKind(cur.Kind) && cur.Line == r.Line {
			slot = i
			break
		}
	}
	if slot < 0 && r.ID != "" {
		for i, cur := range recs {
			if isIDKind(cur.Kind) && cur.ID == r.ID {
				slot = i
				break
			}
		}
	}
	off := end
	if slot >= 0 {
		off = int64(slot) * RecordSize
	}
	if _, err := f.WriteAt(Encode(r), off); err != nil {
		return fmt.Errorf("write %s: %w", s.Path, err)
	}
	return nil
}

// Update finds the first login-type record for line and rewrites it through
// fn. fn returning false leaves the file untouched. It reports whether a
// record was rewritten.
func (s *Store) Update(line string, fn func(*Record) bool) (Record, bool, error) {
	f, err := hostfs.OpenLocked(s.Path, os.O_RDWR, 0)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Record{}, false, nil
		}
		return Record{}, false, err
	}
	defer f.Close()

	recs, _, err := readAll(f.File)
	if err != nil {
		return Record{}, false, err
	}
	for i, cur := range recs {
		if cur.Line != line || !isLineKind(cur.Kind) {
			continue
		}
		if !fn(&cur) {
			return Record{}, false, nil
		}
		if _, err := f.WriteAt(Encode(cur), int64(i)*RecordSize); err != nil {
			return Record{}, false, fmt.Errorf("write %s: %w", s.Path, err)
		}
		return cur, true, nil
	}
	return Record{}, false, nil
}

// Append adds r at the end of the file, the way wtmp is written.
func (s *Store) Append(r Record) error {
	f, err := hostfs.OpenLocked(s.Path, os.O_RDWR|os.O_CREATE, 0664)
	if err != nil {
		return err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return err
	}
	// A torn tail is overwritten so the file stays record aligned.
	off := st.Size() - st.Size()%RecordSize
	if _, err := f.WriteAt(Encode(r), off); err != nil {
		return fmt.Errorf("write %s: %w", s.Path, err)
	}
	return nil
}

// readAll decodes the file from the start and returns the offset just past
// the last complete record.
func readAll(f *os.File) ([]Record, int64, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, 0, err
	}
	var recs []Record
	buf := make([]byte, RecordSize)
	for {
		_, err := io.ReadFull(f, buf)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		r, err := Decode(buf)
		if err != nil {
			return nil, 0, err
		}
		recs = append(recs, r)
	}
	return recs, int64(len(recs)) * RecordSize, nil
}

// isLineKind matches the records getutxline considers.
func isLineKind(k Kind) bool {
	return k == LoginProcess || k == UserProcess
}

// isIDKind matches the records getutxid considers for process entries.
func isIDKind(k Kind) bool {
	switch k {
	case InitProcess, LoginProcess, UserProcess, DeadProcess:
		return true
	}
	return false
}
