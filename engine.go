package storefront

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/MrEthical07/storefront/cms"
	"github.com/MrEthical07/storefront/internal/audit"
	"github.com/MrEthical07/storefront/internal/cache"
	"github.com/MrEthical07/storefront/internal/rate"
	"github.com/MrEthical07/storefront/jwt"
	"github.com/MrEthical07/storefront/mail"
	"github.com/MrEthical07/storefront/password"
	"github.com/MrEthical07/storefront/session"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Engine serves every storefront operation. Build it with [Builder].
type Engine struct {
	config      Config
	logger      *zap.Logger
	now         func() time.Time
	redis       redis.UniversalClient
	limiter     *rate.Limiter
	cache       *cache.Cache
	auth        *session.Authenticator
	signer      *jwt.Manager
	canSign     bool
	credentials *password.Credentials
	catalog     Catalog
	content     Content
	mail        *mail.Sender
	audit       *audit.Dispatcher
	metrics     *Metrics
}

// Close flushes pending audit events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// Config returns the configuration the Engine was built with.
func (e *Engine) Config() Config {
	return e.config
}

// Authenticator exposes the cookie session validator.
func (e *Engine) Authenticator() *session.Authenticator {
	return e.auth
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return NewMetrics(MetricsConfig{}).Snapshot()
	}
	return e.metrics.Snapshot()
}

// Ping checks Redis when one is configured.
func (e *Engine) Ping(ctx context.Context) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if e.redis == nil {
		return nil
	}
	return e.redis.Ping(ctx).Err()
}

func (e *Engine) metricInc(id MetricID) {
	e.metrics.Inc(id)
}

// Me validates the session cookies in jar.
func (e *Engine) Me(ctx context.Context, jar session.CookieJar) session.Result {
	start := time.Now()
	res := e.auth.Authenticate(ctx, jar)
	e.metrics.ObserveSince(MetricAuthenticateLatency, start)

	switch {
	case res.Success:
		e.metricInc(MetricSessionValid)
		if res.Refreshed {
			e.metricInc(MetricSessionRefreshed)
			e.emitAudit(ctx, AuditSessionRefreshed, true, res.User.ID, res.User.Username, nil, nil)
		}
		if res.RefreshErr != nil {
			e.metricInc(MetricSessionRefreshFailed)
		}
	case res.Message != session.MsgNotAuthenticated:
		e.metricInc(MetricSessionRejected)
		e.emitAudit(ctx, AuditSessionRejected, false, 0, "", res.Err, map[string]string{"reason": res.Message})
	}
	return res
}

// LoginResult is a successful login.
type LoginResult struct {
	User      session.User      `json:"user"`
	Token     string            `json:"token"`
	TokenType session.TokenType `json:"tokenType"`
}

// Login verifies username (or email) and plain against the configured
// credentials and writes session cookies into jar. A signed token is issued
// when signing material is configured, an opaque token plus identity
// snapshot otherwise.
func (e *Engine) Login(ctx context.Context, jar session.CookieJar, username, plain string) (LoginResult, error) {
	if e == nil || e.credentials == nil {
		return LoginResult{}, ErrEngineNotReady
	}
	username = strings.TrimSpace(username)
	if username == "" || plain == "" {
		return LoginResult{}, invalid("Username and password are required")
	}
	isEmail := strings.Contains(username, "@") && strings.Contains(username, ".")
	if !isEmail && len(username) < 6 {
		return LoginResult{}, invalid("Username must be at least 6 characters long")
	}

	subjects := e.loginSubjects(ctx, username)
	for _, subject := range subjects {
		if err := e.limitCheck(ctx, rate.ScopeLogin, subject); err != nil {
			e.metricInc(MetricLoginRateLimited)
			e.emitAudit(ctx, AuditLoginRateLimited, false, 0, username, err, nil)
			return LoginResult{}, err
		}
	}

	cred, err := e.credentials.Authenticate(username, plain)
	if err != nil {
		for _, subject := range subjects {
			if herr := e.limitHit(ctx, rate.ScopeLogin, subject); herr != nil {
				e.metricInc(MetricLoginRateLimited)
				e.emitAudit(ctx, AuditLoginRateLimited, false, 0, username, herr, nil)
				return LoginResult{}, herr
			}
		}
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, AuditLoginFailure, false, 0, username, err, nil)
		if errors.Is(err, password.ErrInvalidCredentials) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("login: %w", err)
	}

	if e.limiter != nil {
		if err := e.limiter.Reset(ctx, rate.ScopeLogin, subjects[0]); err != nil {
			e.logger.Warn("login counter reset failed", zap.Error(err))
		}
	}

	user := session.User{
		ID:       cred.ID,
		Username: cred.Username,
		Email:    cred.Email,
		Name:     cred.Name,
		Roles:    cred.Roles,
	}
	if user.Name == "" {
		user.Name = user.Username
	}

	out := LoginResult{User: user}
	if e.canSign {
		token, err := e.signer.Issue(jwt.Identity{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			Name:     user.Name,
			Roles:    user.Roles,
		})
		if err != nil {
			e.logger.Error("sign session token", zap.Error(err))
			return LoginResult{}, fmt.Errorf("%w: %v", ErrSessionIssue, err)
		}
		e.auth.IssueSigned(jar, token)
		out.Token, out.TokenType = token, session.TokenTypeJWT
	} else {
		token, err := e.auth.Issue(jar, user)
		if err != nil {
			e.logger.Error("issue session cookies", zap.Error(err))
			return LoginResult{}, fmt.Errorf("%w: %v", ErrSessionIssue, err)
		}
		out.Token, out.TokenType = token, session.TokenTypeSession
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, AuditLoginSuccess, true, user.ID, user.Username, nil, map[string]string{"token_type": string(out.TokenType)})
	e.logger.Info("login succeeded", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return out, nil
}

func (e *Engine) loginSubjects(ctx context.Context, username string) []string {
	subjects := []string{"user:" + strings.ToLower(username)}
	if ip := ipSubject(ctx); ip != "" {
		subjects = append(subjects, ip)
	}
	return subjects
}

// ipSubject is the rate-limit subject for the caller's address, or "" when
// unknown. Empty subjects are never limited.
func ipSubject(ctx context.Context) string {
	if ip := clientIPFromContext(ctx); ip != "" {
		return "ip:" + ip
	}
	return ""
}

// Logout deletes both session cookies. It never fails.
func (e *Engine) Logout(ctx context.Context, jar session.CookieJar) {
	var username string
	if raw, ok := jar.Get(session.CookieToken); ok {
		if tok, ok := session.ParseToken(raw, e.auth.SignedEnabled()).(session.OpaqueToken); ok {
			username = tok.Username
		}
	}
	e.auth.Clear(jar)
	e.metricInc(MetricLogout)
	e.emitAudit(ctx, AuditLogout, true, 0, username, nil, nil)
}

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// Register validates reg and creates a subscriber account in the CMS.
// Rejections carry a registrant-facing message (see UserMessage).
func (e *Engine) Register(ctx context.Context, reg cms.Registration) (*session.User, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.TrimSpace(reg.Email)
	if err := validateRegistration(reg); err != nil {
		e.metricInc(MetricRegisterFailure)
		return nil, err
	}

	if err := e.limitHit(ctx, rate.ScopeRegister, ipSubject(ctx)); err != nil {
		e.metricInc(MetricRegisterRateLimited)
		e.emitAudit(ctx, AuditRegisterFailure, false, 0, reg.Username, err, nil)
		return nil, err
	}

	if e.content == nil {
		e.logger.Error("registration attempted without CMS credentials")
		e.metricInc(MetricRegisterFailure)
		return nil, ErrNotConfigured
	}

	start := time.Now()
	user, err := e.content.CreateUser(ctx, reg)
	e.metrics.ObserveSince(MetricUpstreamLatency, start)
	if err != nil {
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, AuditRegisterFailure, false, 0, reg.Username, err, nil)
		return nil, err
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, AuditRegisterSuccess, true, user.ID, user.Username, nil, nil)
	return user, nil
}

func validateRegistration(reg cms.Registration) error {
	switch {
	case reg.Username == "" || reg.Email == "" || reg.Password == "":
		return invalid("Username, email, and password are required")
	case len(reg.Password) < password.MinLength:
		return invalid("Password must be at least 8 characters long")
	case !mail.ValidEmail(reg.Email):
		return invalid("Please enter a valid email address")
	case len(reg.Username) < 6:
		return invalid("Username must be at least 6 characters long")
	case !usernamePattern.MatchString(reg.Username):
		return invalid("Username can only contain letters, numbers, dots, dashes, and underscores")
	}
	return nil
}

// limitCheck and limitHit map limiter results onto ErrRateLimited. Redis
// outages are logged and let the request through.
func (e *Engine) limitCheck(ctx context.Context, scope rate.Scope, subject string) error {
	if e.limiter == nil {
		return nil
	}
	return e.limitResult(scope, e.limiter.Check(ctx, scope, subject))
}

func (e *Engine) limitHit(ctx context.Context, scope rate.Scope, subject string) error {
	if e.limiter == nil {
		return nil
	}
	_, err := e.limiter.Hit(ctx, scope, subject)
	return e.limitResult(scope, err)
}

func (e *Engine) limitResult(scope rate.Scope, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, rate.ErrRateLimited):
		return ErrRateLimited
	default:
		e.logger.Warn("rate limiter unavailable", zap.String("scope", string(scope)), zap.Error(err))
		return nil
	}
}
