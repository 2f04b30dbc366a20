package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/storefront/jwt"
	"go.uber.org/zap"
)

const (
	// MaxSessionAge bounds opaque token age and cookie lifetime.
	MaxSessionAge = 7 * 24 * time.Hour
	// SnapshotTTL is how long a cached identity snapshot is trusted before a
	// directory refresh is attempted.
	SnapshotTTL = 24 * time.Hour
	// DefaultRefreshTimeout bounds a single directory refresh.
	DefaultRefreshTimeout = 5 * time.Second
)

// Client-facing rejection messages.
const (
	MsgNotAuthenticated = "Not authenticated"
	MsgExpired          = "Session expired. Please log in again."
	MsgInvalidSigned    = "Invalid session. Please log in again."
	MsgInvalidFormat    = "Invalid session format"
	MsgDataMissing      = "Session data missing. Please log in again."
	MsgDataInvalid      = "Invalid session data. Please log in again."
	MsgMismatch         = "Session mismatch. Please log in again."
	MsgValidationFailed = "Session validation failed"
)

// Verifier verifies signed tokens. *jwt.Manager satisfies it.
type Verifier interface {
	Verify(token string) (*jwt.Claims, error)
}

// Directory looks up the authoritative user record by id.
type Directory interface {
	FetchUser(ctx context.Context, id int64) (*User, error)
}

// Result is the outcome of [Authenticator.Authenticate].
type Result struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message,omitempty"`
	User      *User     `json:"user,omitempty"`
	TokenType TokenType `json:"tokenType,omitempty"`

	// Refreshed is set when the snapshot was replaced from the directory.
	Refreshed bool `json:"-"`
	// RefreshErr holds the swallowed directory failure, if any.
	RefreshErr error `json:"-"`
	// Err holds the internal failure behind MsgValidationFailed.
	Err error `json:"-"`
}

// Option configures an [Authenticator].
type Option func(*Authenticator)

// WithVerifier enables the signed token format.
func WithVerifier(v Verifier) Option {
	return func(a *Authenticator) { a.verifier = v }
}

// WithDirectory enables snapshot refresh.
func WithDirectory(d Directory) Option {
	return func(a *Authenticator) { a.directory = d }
}

// WithLogger sets the logger. Nil keeps the no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Authenticator) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) {
		if now != nil {
			a.now = now
		}
	}
}

// WithRefreshTimeout bounds each directory refresh. Non-positive values keep the default.
func WithRefreshTimeout(d time.Duration) Option {
	return func(a *Authenticator) {
		if d > 0 {
			a.refreshTimeout = d
		}
	}
}

// WithCookieOptions overrides the cookie attributes.
func WithCookieOptions(opts CookieOptions) Option {
	return func(a *Authenticator) { a.cookies = opts }
}

// Authenticator validates session cookies. It is stateless and safe for
// concurrent use once constructed.
type Authenticator struct {
	verifier       Verifier
	directory      Directory
	logger         *zap.Logger
	now            func() time.Time
	refreshTimeout time.Duration
	cookies        CookieOptions
}

// NewAuthenticator builds an Authenticator.
func NewAuthenticator(opts ...Option) *Authenticator {
	a := &Authenticator{
		logger:         zap.NewNop(),
		now:            time.Now,
		refreshTimeout: DefaultRefreshTimeout,
		cookies:        DefaultCookieOptions(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SignedEnabled reports whether signed tokens are accepted.
func (a *Authenticator) SignedEnabled() bool {
	return a.verifier != nil
}

// Authenticate resolves the session carried by jar. Any rejection clears
// both session cookies.
func (a *Authenticator) Authenticate(ctx context.Context, jar CookieJar) Result {
	raw, ok := jar.Get(CookieToken)
	if !ok || raw == "" {
		return Result{Success: false, Message: MsgNotAuthenticated}
	}

	res, err := a.authenticate(ctx, jar, raw)
	if err != nil {
		a.logger.Error("session validation failed", zap.Error(err))
		a.Clear(jar)
		return Result{Success: false, Message: MsgValidationFailed, Err: err}
	}
	if !res.Success {
		a.Clear(jar)
	}
	return res
}

func (a *Authenticator) authenticate(ctx context.Context, jar CookieJar, raw string) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("session: panic: %v", r)
		}
	}()

	switch tok := ParseToken(raw, a.SignedEnabled()).(type) {
	case SignedToken:
		return a.authenticateSigned(tok)
	case OpaqueToken:
		return a.authenticateOpaque(ctx, jar, tok)
	case MalformedToken:
		return reject(MsgInvalidFormat), nil
	default:
		return Result{}, fmt.Errorf("session: unknown token %T", tok)
	}
}

func (a *Authenticator) authenticateSigned(tok SignedToken) (Result, error) {
	claims, err := a.verifier.Verify(tok.Raw)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrExpired):
		return reject(MsgExpired), nil
	case errors.Is(err, jwt.ErrInvalid):
		return reject(MsgInvalidSigned), nil
	default:
		return Result{}, fmt.Errorf("session: verify signed token: %w", err)
	}

	id := claims.Identity()
	user := &User{
		ID:          id.ID,
		Username:    id.Username,
		Email:       id.Email,
		Name:        id.Name,
		Roles:       id.Roles,
		Avatar:      strPtr(id.Avatar),
		Description: strPtr(id.Description),
	}
	return Result{Success: true, User: user, TokenType: TokenTypeJWT}, nil
}

func (a *Authenticator) authenticateOpaque(ctx context.Context, jar CookieJar, tok OpaqueToken) (Result, error) {
	now := a.now()
	if now.Sub(tok.IssuedAt) > MaxSessionAge {
		return reject(MsgExpired), nil
	}

	raw, ok := jar.Get(CookieUser)
	if !ok || raw == "" {
		return reject(MsgDataMissing), nil
	}
	cached, err := decodeUser(raw)
	if err != nil {
		return reject(MsgDataInvalid), nil
	}
	if cached.Username != tok.Username {
		return reject(MsgMismatch), nil
	}

	res := Result{Success: true, User: &cached, TokenType: TokenTypeSession}
	if !a.stale(cached, now) || a.directory == nil {
		return res, nil
	}

	fresh, err := a.refresh(ctx, cached.ID)
	if err != nil {
		a.logger.Warn("session snapshot refresh failed; using cached snapshot",
			zap.Int64("user_id", cached.ID),
			zap.Error(err),
		)
		res.RefreshErr = err
		return res, nil
	}

	stamped := fresh.Stamp(now)
	if err := a.writeSnapshot(jar, stamped); err != nil {
		return Result{}, err
	}
	res.User = &stamped
	res.Refreshed = true
	return res, nil
}

func (a *Authenticator) stale(u User, now time.Time) bool {
	last, ok := u.LastValidatedAt()
	if !ok {
		return true
	}
	return now.Sub(last) > SnapshotTTL
}

func (a *Authenticator) refresh(ctx context.Context, id int64) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, a.refreshTimeout)
	defer cancel()

	fresh, err := a.directory.FetchUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if fresh == nil {
		return nil, errors.New("session: directory returned no user")
	}
	return fresh, nil
}

// Issue starts an opaque session for user: the encoded token plus a minimal
// identity snapshot.
func (a *Authenticator) Issue(jar CookieJar, user User) (string, error) {
	token := EncodeOpaque(user.Username, a.now())
	if err := a.writeSnapshot(jar, user.Snapshot()); err != nil {
		return "", err
	}
	jar.Set(CookieToken, token, a.cookies)
	return token, nil
}

// IssueSigned stores an already signed token. No snapshot cookie is written
// since signed tokens carry their own claims.
func (a *Authenticator) IssueSigned(jar CookieJar, token string) {
	jar.Set(CookieToken, token, a.cookies)
	jar.Delete(CookieUser, a.cookies)
}

// Clear removes both session cookies.
func (a *Authenticator) Clear(jar CookieJar) {
	jar.Delete(CookieToken, a.cookies)
	jar.Delete(CookieUser, a.cookies)
}

func (a *Authenticator) writeSnapshot(jar CookieJar, u User) error {
	b, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("session: encode snapshot: %w", err)
	}
	jar.Set(CookieUser, string(b), a.cookies)
	return nil
}

func reject(msg string) Result {
	return Result{Success: false, Message: msg}
}
