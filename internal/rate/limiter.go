package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Scope names an independently counted action.
type Scope string

const (
	ScopeLogin    Scope = "login"
	ScopeRegister Scope = "register"
	ScopeContact  Scope = "contact"
)

// Policy is the attempt budget for a scope. A zero Limit disables the scope.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Decision describes a counter after a hit.
type Decision struct {
	Count      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter enforces per-scope fixed-window limits using Redis counters.
type Limiter struct {
	redis    redis.UniversalClient
	prefix   string
	policies map[Scope]Policy
}

// New creates a Limiter backed by client.
func New(client redis.UniversalClient, prefix string, policies map[Scope]Policy) *Limiter {
	p := make(map[Scope]Policy, len(policies))
	for scope, policy := range policies {
		p[scope] = policy
	}
	return &Limiter{redis: client, prefix: prefix, policies: p}
}

// Policy returns the policy for scope.
func (l *Limiter) Policy(scope Scope) (Policy, bool) {
	p, ok := l.policies[scope]
	return p, ok && p.Limit > 0 && p.Window > 0
}

// Check reports ErrRateLimited when subject has already used up its budget.
// It does not count an attempt.
func (l *Limiter) Check(ctx context.Context, scope Scope, subject string) error {
	policy, ok := l.Policy(scope)
	if !ok || subject == "" {
		return nil
	}

	count, err := l.redis.Get(ctx, l.key(scope, subject)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count >= int64(policy.Limit) {
		return ErrRateLimited
	}
	return nil
}

// Hit counts one attempt. It returns ErrRateLimited, together with the
// decision, once the count exceeds the limit.
func (l *Limiter) Hit(ctx context.Context, scope Scope, subject string) (Decision, error) {
	policy, ok := l.Policy(scope)
	if !ok || subject == "" {
		return Decision{}, nil
	}

	key := l.key(scope, subject)
	count, err := l.incrementWithTTL(ctx, key, policy.Window)
	if err != nil {
		return Decision{}, err
	}

	d := Decision{Count: int(count), Remaining: max(policy.Limit-int(count), 0)}
	if count > int64(policy.Limit) {
		ttl, err := l.redis.PTTL(ctx, key).Result()
		if err == nil && ttl > 0 {
			d.RetryAfter = ttl
		}
		return d, ErrRateLimited
	}
	return d, nil
}

// Reset clears the counter for subject.
func (l *Limiter) Reset(ctx context.Context, scope Scope, subject string) error {
	if subject == "" {
		return nil
	}
	if err := l.redis.Del(ctx, l.key(scope, subject)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Attempts returns the current count for subject. Missing keys count as zero.
func (l *Limiter) Attempts(ctx context.Context, scope Scope, subject string) (int, error) {
	count, err := l.redis.Get(ctx, l.key(scope, subject)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

func (l *Limiter) key(scope Scope, subject string) string {
	return l.prefix + ":rl:" + string(scope) + ":" + subject
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}
	return count, nil
}
