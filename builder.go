package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/storefront/cart"
	"github.com/MrEthical07/storefront/cms"
	"github.com/MrEthical07/storefront/commerce"
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

// Catalog is the commerce surface the Engine uses. *commerce.Client
// satisfies it.
type Catalog interface {
	Products(ctx context.Context, q commerce.ProductQuery) (commerce.ProductPage, error)
	ProductByHandle(ctx context.Context, handle string) (commerce.ProductDetail, error)
	cart.CartCreator
}

// Content is the CMS surface the Engine uses. *cms.Client satisfies it.
type Content interface {
	Posts(ctx context.Context, q cms.PostQuery) (cms.PostPage, error)
	Post(ctx context.Context, slug string) (cms.Post, error)
	Categories(ctx context.Context, q cms.CategoryQuery) ([]cms.Category, error)
	Query(ctx context.Context, body json.RawMessage) (json.RawMessage, error)
	CreateUser(ctx context.Context, reg cms.Registration) (*session.User, error)
}

var (
	_ Catalog = (*commerce.Client)(nil)
	_ Content = (*cms.Client)(nil)
)

// Builder assembles an Engine. A Builder can be built once.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	logger *zap.Logger

	directory   session.Directory
	catalog     Catalog
	content     Content
	mailer      mail.Mailer
	auditSink   AuditSink
	credentials []password.Credential
	clock       func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis enables rate limiting and response caching.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithDirectory overrides the user directory used for snapshot refresh.
// By default the CMS client serves it.
func (b *Builder) WithDirectory(d session.Directory) *Builder {
	b.directory = d
	return b
}

// WithCommerce overrides the catalog client built from Config.Commerce.
func (b *Builder) WithCommerce(c Catalog) *Builder {
	b.catalog = c
	return b
}

// WithCMS overrides the content client built from Config.CMS.
func (b *Builder) WithCMS(c Content) *Builder {
	b.content = c
	return b
}

// WithMailer overrides the SendGrid mailer selected by Config.Mail.
func (b *Builder) WithMailer(m mail.Mailer) *Builder {
	b.mailer = m
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithCredentials replaces Config.Credentials.
func (b *Builder) WithCredentials(list []password.Credential) *Builder {
	b.credentials = list
	return b
}

func (b *Builder) withClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// Build validates the configuration and wires every component.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	b.built = true

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := b.clock
	if now == nil {
		now = time.Now
	}

	e := &Engine{
		config:  cfg,
		logger:  logger,
		now:     now,
		metrics: NewMetrics(cfg.Metrics),
	}

	// -------- UPSTREAMS --------
	e.catalog = b.catalog
	if e.catalog == nil && cfg.Commerce.Configured() {
		c, err := commerce.New(cfg.Commerce, logger)
		if err != nil {
			return nil, fmt.Errorf("commerce client: %w", err)
		}
		e.catalog = c
	}
	e.content = b.content
	if e.content == nil && cfg.CMS.Configured() {
		c, err := cms.New(cfg.CMS, logger)
		if err != nil {
			return nil, fmt.Errorf("cms client: %w", err)
		}
		e.content = c
	}
	directory := b.directory
	if directory == nil {
		if d, ok := e.content.(session.Directory); ok {
			directory = d
		}
	}

	// -------- SESSIONS --------
	cookies := session.DefaultCookieOptions()
	cookies.Secure = cfg.Session.SecureCookies
	opts := []session.Option{
		session.WithLogger(logger),
		session.WithClock(now),
		session.WithRefreshTimeout(cfg.Session.RefreshTimeout),
		session.WithCookieOptions(cookies),
	}
	if directory != nil {
		opts = append(opts, session.WithDirectory(directory))
	}
	if cfg.Session.SignedEnabled() {
		signer, err := jwt.NewManager(jwt.Config{
			SigningMethod: jwt.SigningMethod(cfg.Session.SigningMethod),
			Secret:        []byte(cfg.Session.JWTSecret),
			PrivateKey:    []byte(cfg.Session.PrivateKey),
			PublicKey:     []byte(cfg.Session.PublicKey),
			TTL:           cfg.Session.TokenTTL,
			Issuer:        cfg.Session.Issuer,
			Leeway:        cfg.Session.Leeway,
		})
		if err != nil {
			return nil, fmt.Errorf("session signer: %w", err)
		}
		e.signer = signer
		e.canSign = cfg.Session.JWTSecret != "" || cfg.Session.PrivateKey != ""
		opts = append(opts, session.WithVerifier(signer))
	}
	e.auth = session.NewAuthenticator(opts...)

	// -------- CREDENTIALS --------
	hasher, err := password.NewHasher(cfg.Password)
	if err != nil {
		return nil, err
	}
	list := b.credentials
	if list == nil {
		list = cfg.Credentials
	}
	creds, err := password.NewCredentials(hasher, list)
	if err != nil {
		return nil, err
	}
	e.credentials = creds

	// -------- REDIS --------
	if b.redis != nil {
		e.redis = b.redis
		if cfg.RateLimit.Enabled {
			e.limiter = rate.New(b.redis, cfg.Redis.Prefix, map[rate.Scope]rate.Policy{
				rate.ScopeLogin:    {Limit: cfg.RateLimit.LoginAttempts, Window: cfg.RateLimit.LoginWindow},
				rate.ScopeRegister: {Limit: cfg.RateLimit.RegisterAttempts, Window: cfg.RateLimit.RegisterWindow},
				rate.ScopeContact:  {Limit: cfg.RateLimit.ContactAttempts, Window: cfg.RateLimit.ContactWindow},
			})
		}
		if cfg.Cache.Enabled {
			e.cache = cache.New(b.redis, cfg.Redis.Prefix, func(key string, err error) {
				logger.Warn("cache unavailable", zap.String("key", key), zap.Error(err))
			})
		}
	}

	// -------- MAIL --------
	e.mail = mail.NewSender(cfg.Mail, b.mailer, logger)

	// -------- AUDIT --------
	sink := b.auditSink
	if sink == nil {
		sink = audit.NewLoggerSink(logger)
	}
	e.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
		OnDrop: func(ev audit.Event) {
			logger.Warn("audit event dropped", zap.String("event_type", ev.EventType))
		},
		OnFailure: func(ev audit.Event, err error) {
			logger.Error("audit sink failed", zap.String("event_type", ev.EventType), zap.Error(err))
		},
	}, sink)

	for _, w := range cfg.Lint() {
		logger.Warn("config: "+w.Message, zap.String("code", w.Code))
	}
	return e, nil
}
