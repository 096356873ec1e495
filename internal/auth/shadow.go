package auth

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/GehirnInc/crypt"
	"github.com/GehirnInc/crypt/md5_crypt"
	"github.com/GehirnInc/crypt/sha256_crypt"
	"github.com/GehirnInc/crypt/sha512_crypt"

	"github.com/hnrobert/ttylogin/internal/usermgr"
)

var (
	errInvalidCredentials = errors.New("invalid credentials")
	errUserLocked         = errors.New("user is locked")
	errAccountExpired     = errors.New("account expired")
	errUnsupportedHash    = errors.New("unsupported password hash")
	errEnded              = errors.New("transaction already ended")
)

// ShadowStack authenticates against a shadow file without PAM. It cannot
// register sessions with the platform; OpenSession and friends are no-ops.
type ShadowStack struct {
	dir      *usermgr.Directory
	timeout  time.Duration
	now      func() time.Time
	verifySu func(ctx context.Context, username, password string) (bool, error)
}

func NewShadowStack(shadowPath string, suTimeout time.Duration) *ShadowStack {
	return &ShadowStack{
		dir:      &usermgr.Directory{ShadowPath: shadowPath},
		timeout:  suTimeout,
		now:      time.Now,
		verifySu: verifyWithSu,
	}
}

func (s *ShadowStack) Start(service, user string, r Responder) (Transaction, error) {
	if r == nil {
		return nil, errors.New("shadow: nil responder")
	}
	return &shadowTransaction{stack: s, user: user, r: r}, nil
}

type shadowTransaction struct {
	stack *ShadowStack
	user  string
	r     Responder
	entry *usermgr.ShadowEntry
	ended bool
}

func (t *shadowTransaction) Authenticate() error {
	if t.ended {
		return errEnded
	}
	// Prompt before looking the user up so unknown names behave like wrong
	// passwords.
	password, err := t.r.Respond(PromptEchoOff, "Password: ")
	if err != nil {
		return err
	}
	se, err := t.stack.dir.Shadow(t.user)
	if err != nil {
		if errors.Is(err, usermgr.ErrUserNotFound) {
			return errInvalidCredentials
		}
		return err
	}
	if se.Locked() {
		return errUserLocked
	}
	ok, err := verifyCrypt(se.Hash, password)
	if errors.Is(err, errUnsupportedHash) {
		ctx, cancel := context.WithTimeout(context.Background(), t.stack.timeout)
		defer cancel()
		ok, err = t.stack.verifySu(ctx, t.user, password)
	}
	if err != nil {
		return err
	}
	if !ok {
		return errInvalidCredentials
	}
	t.entry = se
	return nil
}

// AcctMgmt enforces the shadow expire field (days since the epoch).
func (t *shadowTransaction) AcctMgmt() error {
	if t.entry == nil {
		return errInvalidCredentials
	}
	if t.entry.Expire == "" {
		return nil
	}
	days, err := strconv.ParseInt(t.entry.Expire, 10, 64)
	if err != nil || days <= 0 {
		return nil
	}
	if t.stack.now().Unix()/86400 >= days {
		return errAccountExpired
	}
	return nil
}

func (t *shadowTransaction) SetTTY(string) error  { return nil }
func (t *shadowTransaction) EstablishCred() error { return nil }
func (t *shadowTransaction) DeleteCred() error    { return nil }
func (t *shadowTransaction) OpenSession() error   { return nil }
func (t *shadowTransaction) CloseSession() error  { return nil }

func (t *shadowTransaction) Env() (map[string]string, error) { return nil, nil }

func (t *shadowTransaction) End() error {
	if t.ended {
		return errEnded
	}
	t.ended = true
	return nil
}

func verifyCrypt(hash, password string) (bool, error) {
	// $1$ (md5-crypt), $5$ (sha256-crypt) and $6$ (sha512-crypt) are verified
	// here. yescrypt ($y$), scrypt ($7$) and bcrypt ($2*$) go through su.
	if strings.HasPrefix(hash, "$y$") || strings.HasPrefix(hash, "$7$") || strings.HasPrefix(hash, "$2") {
		return false, errUnsupportedHash
	}
	var c crypt.Crypter
	switch {
	case strings.HasPrefix(hash, "$6$"):
		c = sha512_crypt.New()
	case strings.HasPrefix(hash, "$5$"):
		c = sha256_crypt.New()
	case strings.HasPrefix(hash, "$1$"):
		c = md5_crypt.New()
	default:
		return false, errUnsupportedHash
	}
	return c.Verify(hash, []byte(password)) == nil, nil
}
