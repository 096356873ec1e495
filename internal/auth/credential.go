package auth

// Credential is one login attempt's input. Secret is owned by the attempt and
// must be wiped once authentication returns.
type Credential struct {
	Username string
	Secret   []byte
	TTYPath  string
}

// Wipe zeroes the secret in place.
func (c *Credential) Wipe() {
	for i := range c.Secret {
		c.Secret[i] = 0
	}
	c.Secret = nil
}

// String never renders the secret.
func (c Credential) String() string {
	return "Credential{" + c.Username + "@" + c.TTYPath + "}"
}
