package usermgr

type ShadowFile struct {
	Table[ShadowEntry]
}

func LoadShadow(path string) (*ShadowFile, error) {
	t, err := loadTable(path, parseShadow)
	if err != nil {
		return nil, err
	}
	return &ShadowFile{*t}, nil
}

// parseShadow accepts short lines; missing aging fields read as empty.
func parseShadow(f []string) (ShadowEntry, error) {
	if len(f) < 2 || f[0] == "" {
		return ShadowEntry{}, errMalformed
	}
	for len(f) < 9 {
		f = append(f, "")
	}
	return ShadowEntry{
		Name:       f[0],
		Hash:       f[1],
		LastChange: f[2],
		Min:        f[3],
		Max:        f[4],
		Warn:       f[5],
		Inactive:   f[6],
		Expire:     f[7],
		Reserved:   f[8],
	}, nil
}

func (f *ShadowFile) Find(name string) *ShadowEntry {
	return f.first(func(e *ShadowEntry) bool { return e.Name == name })
}
