package usermgr

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hnrobert/ttylogin/internal/hostfs"
)

var errMalformed = errors.New("malformed entry")

// Table is a read-only colon-separated account database. Rows that fail to
// parse are counted and left out.
type Table[T any] struct {
	rows    []T
	skipped int
}

func (t *Table[T]) All() []T {
	out := make([]T, len(t.rows))
	copy(out, t.rows)
	return out
}

// Skipped is the number of non-comment lines that did not parse.
func (t *Table[T]) Skipped() int { return t.skipped }

func (t *Table[T]) first(match func(*T) bool) *T {
	for i := range t.rows {
		if match(&t.rows[i]) {
			r := t.rows[i]
			return &r
		}
	}
	return nil
}

// loadTable splits every non-blank, non-comment line of path on ':' (trailing
// empty fields kept) and hands the fields to parse.
func loadTable[T any](path string, parse func(fields []string) (T, error)) (*Table[T], error) {
	b, err := hostfs.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t := &Table[T]{}
	sc := bufio.NewScanner(bytes.NewReader(b))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		trim := strings.TrimSpace(line)
		if trim == "" || strings.HasPrefix(trim, "#") {
			continue
		}
		row, err := parse(strings.Split(line, ":"))
		if err != nil {
			t.skipped++
			continue
		}
		t.rows = append(t.rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}

// id parses a non-negative uid or gid.
func id(field string) (int, error) {
	n, err := strconv.Atoi(field)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: bad id %q", errMalformed, field)
	}
	return n, nil
}
