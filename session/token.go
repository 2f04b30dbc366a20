package session

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"
)

// TokenType labels the format that authenticated a request.
type TokenType string

const (
	TokenTypeJWT     TokenType = "jwt"
	TokenTypeSession TokenType = "session"
)

// Token is the decoded auth-token cookie: [SignedToken], [OpaqueToken] or [MalformedToken].
type Token interface {
	isToken()
}

// SignedToken is a JWT awaiting signature verification.
type SignedToken struct {
	Raw string
}

// OpaqueToken is the decoded username/issued-at pair.
type OpaqueToken struct {
	Username string
	IssuedAt time.Time
}

// MalformedToken is an opaque token that did not decode into both parts.
type MalformedToken struct {
	Raw string
}

func (SignedToken) isToken()    {}
func (OpaqueToken) isToken()    {}
func (MalformedToken) isToken() {}

// ParseToken classifies raw. A token containing '.' is treated as signed only
// when signed verification is available; everything else goes through the
// opaque decoder.
func ParseToken(raw string, signedEnabled bool) Token {
	if signedEnabled && strings.Contains(raw, ".") {
		return SignedToken{Raw: raw}
	}

	decoded, ok := decodeBase64(raw)
	if !ok {
		return MalformedToken{Raw: raw}
	}

	parts := strings.Split(decoded, ":")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return MalformedToken{Raw: raw}
	}
	millis, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return MalformedToken{Raw: raw}
	}

	return OpaqueToken{Username: parts[0], IssuedAt: time.UnixMilli(millis)}
}

// EncodeOpaque builds the opaque token for username issued at t.
func EncodeOpaque(username string, t time.Time) string {
	payload := username + ":" + strconv.FormatInt(t.UnixMilli(), 10)
	return base64.StdEncoding.EncodeToString([]byte(payload))
}

func decodeBase64(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if b, err := enc.DecodeString(raw); err == nil {
			return string(b), true
		}
	}
	return "", false
}
