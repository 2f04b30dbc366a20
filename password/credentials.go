package password

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCredentials is returned for an unknown username or wrong password.
var ErrInvalidCredentials = errors.New("password: invalid credentials")

// Credential is one configured login and the identity it maps to.
type Credential struct {
	ID       int64    `yaml:"id"`
	Username string   `yaml:"username"`
	Email    string   `yaml:"email"`
	Name     string   `yaml:"name"`
	Roles    []string `yaml:"roles"`
	Hash     string   `yaml:"hash"`
}

// Credentials is an immutable index over configured logins. A login may
// present either its username or its email; both match case-insensitively.
type Credentials struct {
	hasher  *Hasher
	entries map[string]Credential
	emails  map[string]string
	dummy   string
}

// NewCredentials indexes list. Every hash must decode; duplicate usernames
// are rejected.
func NewCredentials(h *Hasher, list []Credential) (*Credentials, error) {
	if h == nil {
		return nil, fmt.Errorf("%w: nil hasher", ErrConfig)
	}
	dummy, err := h.Hash("storefront-dummy-password")
	if err != nil {
		return nil, err
	}

	c := &Credentials{
		hasher:  h,
		entries: make(map[string]Credential, len(list)),
		emails:  make(map[string]string, len(list)),
		dummy:   dummy,
	}
	for _, cred := range list {
		key := strings.ToLower(strings.TrimSpace(cred.Username))
		if key == "" {
			return nil, fmt.Errorf("%w: credential without username", ErrConfig)
		}
		if _, dup := c.entries[key]; dup {
			return nil, fmt.Errorf("%w: duplicate username %q", ErrConfig, cred.Username)
		}
		if _, err := decode(cred.Hash); err != nil {
			return nil, fmt.Errorf("credential %q: %w", cred.Username, err)
		}
		c.entries[key] = cred
	}
	for key, cred := range c.entries {
		email := strings.ToLower(strings.TrimSpace(cred.Email))
		if email == "" {
			continue
		}
		if _, clash := c.entries[email]; clash && email != key {
			return nil, fmt.Errorf("%w: email %q collides with a username", ErrConfig, cred.Email)
		}
		if prev, dup := c.emails[email]; dup && prev != key {
			return nil, fmt.Errorf("%w: duplicate email %q", ErrConfig, cred.Email)
		}
		c.emails[email] = key
	}
	return c, nil
}

// Len returns the number of configured logins.
func (c *Credentials) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Authenticate checks a username or email against plain. Unknown usernames still pay for
// one hash verification.
func (c *Credentials) Authenticate(username, plain string) (Credential, error) {
	key := strings.ToLower(strings.TrimSpace(username))
	if alias, isEmail := c.emails[key]; isEmail {
		key = alias
	}
	cred, ok := c.entries[key]
	hash := c.dummy
	if ok {
		hash = cred.Hash
	}

	match, err := c.hasher.Verify(plain, hash)
	if err != nil {
		return Credential{}, err
	}
	if !ok || !match {
		return Credential{}, ErrInvalidCredentials
	}
	return cred, nil
}
