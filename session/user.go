package session

import (
	"encoding/json"
	"fmt"
	"time"
)

// User is the identity snapshot stored in the user-data cookie and returned
// to clients. Nullable fields serialize as null.
type User struct {
	ID            int64    `json:"id"`
	Username      string   `json:"username"`
	Email         string   `json:"email"`
	Name          string   `json:"name"`
	Roles         []string `json:"roles"`
	Avatar        *string  `json:"avatar"`
	Description   *string  `json:"description"`
	URL           *string  `json:"url,omitempty"`
	LastValidated *string  `json:"lastValidated,omitempty"`
}

// HasRole reports whether role is among the user's roles.
func (u *User) HasRole(role string) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// LastValidatedAt parses the lastValidated stamp. A missing or unparseable
// stamp reports false.
func (u *User) LastValidatedAt() (time.Time, bool) {
	if u == nil || u.LastValidated == nil || *u.LastValidated == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, *u.LastValidated)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Stamp returns a copy of u validated at t.
func (u User) Stamp(t time.Time) User {
	stamp := t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	u.LastValidated = &stamp
	return u
}

// Snapshot returns the minimal identity written at login: no profile fields
// and no validation stamp, so the first request triggers a refresh.
func (u User) Snapshot() User {
	return User{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Name:     u.Name,
		Roles:    u.Roles,
	}
}

// UnmarshalJSON accepts the id as a JSON number or a numeric string, since
// user-data cookies written by older frontends quote it.
func (u *User) UnmarshalJSON(b []byte) error {
	type plain User
	aux := struct {
		*plain
		ID json.Number `json:"id"`
	}{plain: (*plain)(u)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	u.ID = 0
	if aux.ID == "" {
		return nil
	}
	id, err := aux.ID.Int64()
	if err != nil {
		return fmt.Errorf("session: user id %q: %w", aux.ID, err)
	}
	u.ID = id
	return nil
}

func decodeUser(raw string) (User, error) {
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return User{}, err
	}
	return u, nil
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
