package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/MrEthical07/storefront/session"
)

// SessionChecker resolves the session carried by a cookie jar.
// *storefront.Engine satisfies it.
type SessionChecker interface {
	Me(ctx context.Context, jar session.CookieJar) session.Result
}

type userContextKey struct{}

// UserFromContext returns the user attached by [RequireUser].
func UserFromContext(ctx context.Context) (*session.User, bool) {
	u, ok := ctx.Value(userContextKey{}).(*session.User)
	return u, ok && u != nil
}

// WithUser attaches u to ctx.
func WithUser(ctx context.Context, u *session.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, u)
}

// RequireUser rejects requests without a valid session with 401 and the
// authenticator's message. Rejected sessions have their cookies cleared by
// the authenticator before the response is written.
func RequireUser(checker SessionChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if checker == nil {
				reject(w, http.StatusUnauthorized, session.MsgNotAuthenticated)
				return
			}

			res := checker.Me(r.Context(), session.NewHTTPCookieJar(w, r))
			if !res.Success || res.User == nil {
				msg := res.Message
				if msg == "" {
					msg = session.MsgNotAuthenticated
				}
				reject(w, http.StatusUnauthorized, msg)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), res.User)))
		})
	}
}

func reject(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}{Message: msg})
}
