package storefront

import "time"

// SecurityReport summarizes the effective security posture of an Engine.
type SecurityReport struct {
	Env                string               `json:"env"`
	ProductionMode     bool                 `json:"productionMode"`
	SigningAlgorithm   string               `json:"signingAlgorithm"`
	SignedSessions     bool                 `json:"signedSessions"`
	TokenTTL           time.Duration        `json:"tokenTTL"`
	SecureCookies      bool                 `json:"secureCookies"`
	Argon2             PasswordConfigReport `json:"argon2"`
	LocalCredentials   int                  `json:"localCredentials"`
	RateLimitingActive bool                 `json:"rateLimitingActive"`
	CacheActive        bool                 `json:"cacheActive"`
	CommerceConfigured bool                 `json:"commerceConfigured"`
	CMSConfigured      bool                 `json:"cmsConfigured"`
	MailSimulated      bool                 `json:"mailSimulated"`
	AuditEnabled       bool                 `json:"auditEnabled"`
	Warnings           []string             `json:"warnings"`
}

type PasswordConfigReport struct {
	Memory      uint32 `json:"memory"`
	Time        uint32 `json:"time"`
	Parallelism uint8  `json:"parallelism"`
	SaltLength  uint32 `json:"saltLength"`
	KeyLength   uint32 `json:"keyLength"`
}

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	alg := "opaque"
	if e.canSign {
		alg = e.config.Session.SigningMethod
	}

	return SecurityReport{
		Env:              e.config.Env,
		ProductionMode:   e.config.Production(),
		SigningAlgorithm: alg,
		SignedSessions:   e.auth.SignedEnabled(),
		TokenTTL:         e.config.Session.TokenTTL,
		SecureCookies:    e.config.Session.SecureCookies,
		Argon2: PasswordConfigReport{
			Memory:      e.config.Password.Memory,
			Time:        e.config.Password.Time,
			Parallelism: e.config.Password.Parallelism,
			SaltLength:  e.config.Password.SaltLength,
			KeyLength:   e.config.Password.KeyLength,
		},
		LocalCredentials:   e.credentials.Len(),
		RateLimitingActive: e.limiter != nil,
		CacheActive:        e.cache != nil,
		CommerceConfigured: e.catalog != nil,
		CMSConfigured:      e.content != nil,
		MailSimulated:      e.mail.Simulated(),
		AuditEnabled:       e.audit != nil,
		Warnings:           e.config.Lint().Codes(),
	}
}
