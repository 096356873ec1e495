package usermgr

import (
	"sort"
	"strings"
)

type GroupFile struct {
	Table[GroupEntry]
}

func LoadGroup(path string) (*GroupFile, error) {
	t, err := loadTable(path, parseGroup)
	if err != nil {
		return nil, err
	}
	return &GroupFile{*t}, nil
}

func parseGroup(f []string) (GroupEntry, error) {
	if len(f) < 4 || f[0] == "" {
		return GroupEntry{}, errMalformed
	}
	gid, err := id(f[2])
	if err != nil {
		return GroupEntry{}, err
	}
	var members []string
	for _, m := range strings.Split(f[3], ",") {
		if m = strings.TrimSpace(m); m != "" {
			members = append(members, m)
		}
	}
	return GroupEntry{Name: f[0], Passwd: f[1], GID: gid, Members: members}, nil
}

func (f *GroupFile) Find(name string) *GroupEntry {
	return f.first(func(e *GroupEntry) bool { return e.Name == name })
}

// GroupsOf returns the sorted, de-duplicated gids user belongs to, always
// including primary.
func (f *GroupFile) GroupsOf(user string, primary int) []int {
	set := map[int]struct{}{primary: {}}
	for _, g := range f.rows {
		for _, m := range g.Members {
			if m == user {
				set[g.GID] = struct{}{}
				break
			}
		}
	}
	out := make([]int, 0, len(set))
	for g := range set {
		out = append(out, g)
	}
	sort.Ints(out)
	return out
}
