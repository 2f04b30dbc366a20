package storefront

import "context"

type ctxKey int

const (
	ctxClientIP ctxKey = iota
	ctxUserAgent
)

// WithClientIP attaches the caller's IP address to ctx. The Engine keys
// per-IP rate limits and audit records on it.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxClientIP, ip)
}

// WithUserAgent attaches the HTTP User-Agent string to ctx for audit records.
func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	return context.WithValue(ctx, ctxUserAgent, userAgent)
}

func clientIPFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxClientIP)
}

func userAgentFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxUserAgent)
}

func stringFromContext(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	s, _ := ctx.Value(key).(string)
	return s
}
