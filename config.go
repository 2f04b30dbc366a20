package storefront

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/MrEthical07/storefront/cms"
	"github.com/MrEthical07/storefront/commerce"
	"github.com/MrEthical07/storefront/internal/logging"
	"github.com/MrEthical07/storefront/jwt"
	"github.com/MrEthical07/storefront/mail"
	"github.com/MrEthical07/storefront/password"
	"gopkg.in/yaml.v3"
)

// Config is the complete storefront configuration. Build one with
// DefaultConfig or LoadConfig and treat it as immutable afterwards.
type Config struct {
	Env         string                `yaml:"env"`
	Server      ServerConfig          `yaml:"server"`
	Session     SessionConfig         `yaml:"session"`
	Commerce    commerce.Config       `yaml:"commerce"`
	CMS         cms.Config            `yaml:"cms"`
	Mail        mail.Config           `yaml:"mail"`
	Redis       RedisConfig           `yaml:"redis"`
	Cache       CacheConfig           `yaml:"cache"`
	RateLimit   RateLimitConfig       `yaml:"rate_limit"`
	Password    password.Params       `yaml:"password"`
	Credentials []password.Credential `yaml:"credentials"`
	Audit       AuditConfig           `yaml:"audit"`
	Metrics     MetricsConfig         `yaml:"metrics"`
	Logging     logging.Config        `yaml:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

// SessionConfig controls session cookies and signed tokens. Signed tokens
// are issued and accepted only when signing material is configured.
type SessionConfig struct {
	SigningMethod  string        `yaml:"signing_method"`
	JWTSecret      string        `yaml:"jwt_secret"`
	PrivateKey     string        `yaml:"private_key"`
	PublicKey      string        `yaml:"public_key"`
	TokenTTL       time.Duration `yaml:"token_ttl"`
	Issuer         string        `yaml:"issuer"`
	Leeway         time.Duration `yaml:"leeway"`
	RefreshTimeout time.Duration `yaml:"refresh_timeout"`
	SecureCookies  bool          `yaml:"secure_cookies"`
}

// SignedEnabled reports whether signing material is present.
func (s SessionConfig) SignedEnabled() bool {
	switch jwt.SigningMethod(s.SigningMethod) {
	case jwt.MethodEd25519:
		return s.PublicKey != ""
	default:
		return s.JWTSecret != ""
	}
}

// RedisConfig locates the Redis server used for rate limits and caching.
// An empty Addr runs without Redis.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// CacheConfig sets upstream response cache lifetimes. Zero disables caching
// for that resource.
type CacheConfig struct {
	Enabled       bool          `yaml:"enabled"`
	ProductsTTL   time.Duration `yaml:"products_ttl"`
	PostsTTL      time.Duration `yaml:"posts_ttl"`
	CategoriesTTL time.Duration `yaml:"categories_ttl"`
}

// RateLimitConfig sets fixed-window budgets. Login counts failures per
// username and per client IP; register and contact count every attempt per IP.
type RateLimitConfig struct {
	Enabled          bool          `yaml:"enabled"`
	LoginAttempts    int           `yaml:"login_attempts"`
	LoginWindow      time.Duration `yaml:"login_window"`
	RegisterAttempts int           `yaml:"register_attempts"`
	RegisterWindow   time.Duration `yaml:"register_window"`
	ContactAttempts  int           `yaml:"contact_attempts"`
	ContactWindow    time.Duration `yaml:"contact_window"`
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool `yaml:"enabled"`
	BufferSize int  `yaml:"buffer_size"`
	DropIfFull bool `yaml:"drop_if_full"`
	// Sink selects where the server binary sends events: "log" (the
	// structured logger, default) or "json" (one JSON object per line on
	// stdout).
	Sink string `yaml:"sink"`
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool `yaml:"enabled"`
	EnableLatencyHistograms bool `yaml:"enable_latency_histograms"`
}

// DefaultConfig returns a development-friendly configuration with no
// upstream credentials.
func DefaultConfig() Config {
	return Config{
		Env: "development",
		Server: ServerConfig{
			Addr:            ":3000",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Session: SessionConfig{
			SigningMethod:  string(jwt.MethodHS256),
			TokenTTL:       7 * 24 * time.Hour,
			Issuer:         "storefront",
			RefreshTimeout: 5 * time.Second,
		},
		Commerce: commerce.Config{
			APIVersion: commerce.DefaultAPIVersion,
			Timeout:    commerce.DefaultTimeout,
		},
		CMS: cms.Config{
			Timeout: cms.DefaultTimeout,
		},
		Redis: RedisConfig{Prefix: "sf"},
		Cache: CacheConfig{
			Enabled:       true,
			ProductsTTL:   5 * time.Minute,
			PostsTTL:      5 * time.Minute,
			CategoriesTTL: 30 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:          true,
			LoginAttempts:    5,
			LoginWindow:      15 * time.Minute,
			RegisterAttempts: 5,
			RegisterWindow:   time.Hour,
			ContactAttempts:  5,
			ContactWindow:    time.Hour,
		},
		Password: password.DefaultParams(),
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
		Logging: logging.Config{Level: "info"},
	}
}

// Production reports whether Env is "production".
func (c *Config) Production() bool {
	return strings.EqualFold(c.Env, "production")
}

// Validate rejects configurations the Engine cannot run with.
func (c *Config) Validate() error {
	// Session
	if c.Session.TokenTTL <= 0 {
		return errors.New("Session TokenTTL must be > 0")
	}
	if c.Session.TokenTTL > 7*24*time.Hour {
		return errors.New("Session TokenTTL must not exceed the 7 day cookie lifetime")
	}
	switch jwt.SigningMethod(c.Session.SigningMethod) {
	case jwt.MethodHS256:
		if c.Session.JWTSecret != "" && len(c.Session.JWTSecret) < 16 {
			return errors.New("Session JWTSecret must be at least 16 bytes")
		}
	case jwt.MethodEd25519:
		if c.Session.PrivateKey != "" && c.Session.PublicKey == "" {
			return errors.New("ed25519 requires PublicKey")
		}
	default:
		return errors.New("unsupported Session SigningMethod")
	}
	if c.Session.RefreshTimeout < 0 {
		return errors.New("Session RefreshTimeout must be >= 0")
	}

	// Server
	if c.Server.Addr == "" {
		return errors.New("Server Addr must be set")
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.ShutdownTimeout < 0 {
		return errors.New("Server timeouts must be >= 0")
	}

	// Cache
	if c.Cache.ProductsTTL < 0 || c.Cache.PostsTTL < 0 || c.Cache.CategoriesTTL < 0 {
		return errors.New("Cache TTLs must be >= 0")
	}

	// Rate limits
	if c.RateLimit.Enabled {
		for name, p := range map[string]struct {
			n int
			w time.Duration
		}{
			"Login":    {c.RateLimit.LoginAttempts, c.RateLimit.LoginWindow},
			"Register": {c.RateLimit.RegisterAttempts, c.RateLimit.RegisterWindow},
			"Contact":  {c.RateLimit.ContactAttempts, c.RateLimit.ContactWindow},
		} {
			if p.n < 0 {
				return fmt.Errorf("RateLimit %sAttempts must be >= 0", name)
			}
			if p.n > 0 && p.w <= 0 {
				return fmt.Errorf("RateLimit %sWindow must be > 0", name)
			}
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}
	if c.Audit.Sink != "" && c.Audit.Sink != "log" && c.Audit.Sink != "json" {
		return fmt.Errorf("Audit Sink %q must be log or json", c.Audit.Sink)
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	if c.Production() && !c.Session.SecureCookies {
		return errors.New("production requires Session SecureCookies")
	}
	return nil
}

// LoadConfig reads path (when non-empty) over DefaultConfig, applies
// environment overrides, and validates the result. Unknown YAML keys are
// rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	ApplyEnv(&cfg, os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overlays the deployment environment variables onto cfg.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	set("STOREFRONT_ENV", &cfg.Env)
	set("STOREFRONT_ADDR", &cfg.Server.Addr)
	set("SHOPIFY_STORE_DOMAIN", &cfg.Commerce.StoreDomain)
	set("SHOPIFY_STOREFRONT_ACCESS_TOKEN", &cfg.Commerce.StorefrontToken)
	set("SHOPIFY_API_VERSION", &cfg.Commerce.APIVersion)
	set("SHOPIFY_PRODUCT_CATEGORY_METAFIELD", &cfg.Commerce.CategoryMetafield)
	set("WP_USER", &cfg.CMS.User)
	set("WP_APP_PASSWORD", &cfg.CMS.AppPassword)
	set("WP_GRAPHQL_ENDPOINT", &cfg.CMS.GraphQLEndpoint)
	set("WP_REST_ENDPOINT", &cfg.CMS.RESTEndpoint)
	set("JWT_SECRET", &cfg.Session.JWTSecret)
	set("EMAIL_FROM", &cfg.Mail.From)
	set("EMAIL_TO", &cfg.Mail.To)
	set("SENDGRID_API_KEY", &cfg.Mail.SendGridAPIKey)
	set("REDIS_ADDR", &cfg.Redis.Addr)
	set("REDIS_PASSWORD", &cfg.Redis.Password)
	set("LOG_LEVEL", &cfg.Logging.Level)

	if v, ok := lookup("ALLOWED_ORIGINS"); ok && v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.Server.AllowedOrigins = origins
	}
}

// LintWarning is a non-fatal configuration concern.
type LintWarning struct {
	Code    string
	Message string
}

// LintWarnings is the result of Lint.
type LintWarnings []LintWarning

// Codes returns the warning codes in order.
func (ws LintWarnings) Codes() []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.Code
	}
	return out
}

// Lint reports settings that are valid but probably unintended.
func (c *Config) Lint() LintWarnings {
	var ws LintWarnings
	add := func(code, msg string) { ws = append(ws, LintWarning{Code: code, Message: msg}) }

	if !c.Commerce.Configured() {
		add("commerce_not_configured", "storefront API credentials missing; catalog and checkout endpoints will fail")
	}
	if !c.CMS.Configured() {
		add("cms_not_configured", "WordPress credentials missing; registration, posts and session refresh are disabled")
	}
	if !c.Session.SignedEnabled() {
		add("signed_sessions_disabled", "no signing material; logins issue opaque sessions only")
	}
	if c.Mail.From == "" || c.Mail.To == "" || c.Mail.SendGridAPIKey == "" {
		add("mail_simulated", "mail provider or addresses missing; contact messages are only logged")
	}
	if c.Redis.Addr == "" {
		add("redis_missing", "no Redis address; rate limiting and response caching are disabled")
	}
	if !c.RateLimit.Enabled {
		add("rate_limits_disabled", "rate limiting is disabled")
	}
	for _, o := range c.Server.AllowedOrigins {
		if o == "*" {
			add("cors_wildcard", "CORS allows any origin")
			break
		}
	}
	if c.Production() && c.Logging.Development {
		add("dev_logging_in_production", "development logging enabled in production")
	}
	return ws
}
