package storefront

import (
	"slices"
	"testing"
)

func TestSecurityReportReflectsWiring(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.Session.JWTSecret = "0123456789abcdef0123"
	})

	r := env.engine.SecurityReport()
	if r.SigningAlgorithm != "hs256" || !r.SignedSessions {
		t.Fatalf("signing = %q signed=%v", r.SigningAlgorithm, r.SignedSessions)
	}
	if r.LocalCredentials != 1 {
		t.Fatalf("LocalCredentials = %d", r.LocalCredentials)
	}
	if !r.RateLimitingActive || !r.CacheActive || !r.AuditEnabled {
		t.Fatalf("expected limiter, cache and audit active: %+v", r)
	}
	if !r.CommerceConfigured || !r.CMSConfigured {
		t.Fatalf("expected injected catalog and content: %+v", r)
	}
	if r.MailSimulated {
		t.Fatal("injected mailer with addresses must not be simulated")
	}
	if r.Argon2.Memory != testPasswordParams().Memory {
		t.Fatalf("argon2 memory = %d", r.Argon2.Memory)
	}
	if slices.Contains(r.Warnings, "signed_sessions_disabled") {
		t.Fatalf("unexpected warning list %v", r.Warnings)
	}
}

func TestSecurityReportOpaqueWithoutRedis(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Password = testPasswordParams()
	engine, err := New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer engine.Close()

	r := engine.SecurityReport()
	if r.SigningAlgorithm != "opaque" || r.SignedSessions {
		t.Fatalf("signing = %q signed=%v", r.SigningAlgorithm, r.SignedSessions)
	}
	if r.RateLimitingActive || r.CacheActive {
		t.Fatal("limiter and cache need Redis")
	}
	if !r.MailSimulated {
		t.Fatal("mail without addresses must be simulated")
	}
	for _, code := range []string{"redis_missing", "signed_sessions_disabled", "mail_simulated"} {
		if !slices.Contains(r.Warnings, code) {
			t.Fatalf("missing warning %q in %v", code, r.Warnings)
		}
	}
}

func TestSecurityReportNilEngine(t *testing.T) {
	var e *Engine
	if r := e.SecurityReport(); r.SigningAlgorithm != "" {
		t.Fatalf("nil engine report = %+v", r)
	}
}
