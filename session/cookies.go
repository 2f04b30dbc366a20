package session

import (
	"net/http"
	"net/url"
	"time"
)

const (
	// CookieToken carries the session token.
	CookieToken = "auth-token"
	// CookieUser carries the JSON identity snapshot for opaque sessions.
	CookieUser = "user-data"
)

// CookieOptions are the attributes applied to every cookie the
// authenticator writes.
type CookieOptions struct {
	Path     string
	MaxAge   time.Duration
	HTTPOnly bool
	Secure   bool
	SameSite http.SameSite
}

// DefaultCookieOptions returns http-only, lax, root-path cookies living for
// [MaxSessionAge].
func DefaultCookieOptions() CookieOptions {
	return CookieOptions{
		Path:     "/",
		MaxAge:   MaxSessionAge,
		HTTPOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// CookieJar reads request cookies and writes response cookies. Values are
// passed unencoded; adapters handle transport encoding.
type CookieJar interface {
	Get(name string) (string, bool)
	Set(name, value string, opts CookieOptions)
	Delete(name string, opts CookieOptions)
}

// HTTPCookieJar adapts a request/response pair. Values are URL-encoded on
// the wire so JSON snapshots survive cookie sanitization.
type HTTPCookieJar struct {
	r *http.Request
	w http.ResponseWriter
}

// NewHTTPCookieJar wraps r and w.
func NewHTTPCookieJar(w http.ResponseWriter, r *http.Request) *HTTPCookieJar {
	return &HTTPCookieJar{r: r, w: w}
}

// Get percent-decodes the cookie value. A literal '+' is kept as is.
func (j *HTTPCookieJar) Get(name string) (string, bool) {
	c, err := j.r.Cookie(name)
	if err != nil {
		return "", false
	}
	v, err := url.PathUnescape(c.Value)
	if err != nil {
		return c.Value, true
	}
	return v, true
}

func (j *HTTPCookieJar) Set(name, value string, opts CookieOptions) {
	http.SetCookie(j.w, &http.Cookie{
		Name:     name,
		Value:    url.PathEscape(value),
		Path:     opts.Path,
		MaxAge:   int(opts.MaxAge / time.Second),
		HttpOnly: opts.HTTPOnly,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})
}

func (j *HTTPCookieJar) Delete(name string, opts CookieOptions) {
	http.SetCookie(j.w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     opts.Path,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: opts.HTTPOnly,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})
}

// MemoryJar is an in-process jar used by tests and the CLI.
type MemoryJar struct {
	values map[string]string
}

// NewMemoryJar returns a jar seeded with values.
func NewMemoryJar(values map[string]string) *MemoryJar {
	m := make(map[string]string, len(values))
	for k, v := range values {
		m[k] = v
	}
	return &MemoryJar{values: m}
}

func (j *MemoryJar) Get(name string) (string, bool) {
	v, ok := j.values[name]
	return v, ok
}

func (j *MemoryJar) Set(name, value string, _ CookieOptions) {
	j.values[name] = value
}

func (j *MemoryJar) Delete(name string, _ CookieOptions) {
	delete(j.values, name)
}
