package httpx

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	smemory "github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

const (
	rateLimitPrefix  = "taskmanager:ratelimit"
	rateLimitTimeout = 250 * time.Millisecond
)

// RateLimits holds the fixed window of each limited route group.
// A group with a zero Limit is not limited.
type RateLimits struct {
	Register  limiter.Rate
	Login     limiter.Rate
	TaskRead  limiter.Rate
	TaskWrite limiter.Rate
}

// PerMinute returns a one minute window admitting n requests.
func PerMinute(n int) limiter.Rate {
	return limiter.Rate{Period: time.Minute, Limit: int64(n)}
}

// DefaultRateLimits keys the credential endpoints by client address and task routes by user.
func DefaultRateLimits() RateLimits {
	return RateLimits{
		Register:  PerMinute(5),
		Login:     PerMinute(12),
		TaskRead:  PerMinute(120),
		TaskWrite: PerMinute(60),
	}
}

// RateLimiter counts a request against key and reports the window state.
type RateLimiter interface {
	Allow(ctx context.Context, key string, rate limiter.Rate) (limiter.Context, error)
	Close() error
}

type storeLimiter struct {
	store limiter.Store
	close func() error
}

// NewMemoryRateLimiter keeps counters in process memory. Replicas do not share them.
func NewMemoryRateLimiter() RateLimiter {
	store := smemory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          rateLimitPrefix,
		CleanUpInterval: time.Minute,
	})
	return &storeLimiter{store: store}
}

// NewRedisRateLimiter shares counters between replicas. Increment and expiry run in
// one script, so a counter never outlives its window.
func NewRedisRateLimiter(ctx context.Context, addr, password string, db int) (RateLimiter, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: rateLimitPrefix})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("create redis rate store: %w", err)
	}
	return &storeLimiter{store: store, close: client.Close}, nil
}

func (l *storeLimiter) Allow(ctx context.Context, key string, rate limiter.Rate) (limiter.Context, error) {
	return limiter.New(l.store, rate).Get(ctx, key)
}

func (l *storeLimiter) Close() error {
	if l.close == nil {
		return nil
	}
	return l.close()
}

// withRateLimit rejects requests over rate with 429. When the limiter itself fails
// the request goes through and the failure is logged.
func (r *Router) withRateLimit(route string, rate limiter.Rate, keyFn func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rate.Limit <= 0 || r.limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			key := keyFn(req)
			if key == "" {
				key = rateLimitKeyIP(req)
			}
			ctx, cancel := context.WithTimeout(req.Context(), rateLimitTimeout)
			state, err := r.limiter.Allow(ctx, route+"|"+key, rate)
			cancel()
			if err != nil {
				r.logger.WarnContext(req.Context(), "rate limiter unavailable", "route", route, "error", err)
				next.ServeHTTP(w, req)
				return
			}
			setRateHeaders(w.Header(), state)
			if state.Reached {
				r.recordRateLimitHit(route, rateMetricKey(key))
				writeError(w, http.StatusTooManyRequests, "Too many requests")
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func setRateHeaders(h http.Header, state limiter.Context) {
	h.Set("X-RateLimit-Limit", strconv.FormatInt(state.Limit, 10))
	h.Set("X-RateLimit-Remaining", strconv.FormatInt(state.Remaining, 10))
	if state.Reset > 0 {
		h.Set("X-RateLimit-Reset", strconv.FormatInt(state.Reset, 10))
	}
}

func rateLimitKeyUser(req *http.Request) string {
	if info, ok := authInfoFromContext(req.Context()); ok && info.UserID != "" {
		return "user:" + info.UserID
	}
	return ""
}

// rateLimitKeyIP keys on the socket peer. Forwarded headers only count when the
// router was built with TrustProxyHeaders.
func rateLimitKeyIP(req *http.Request) string {
	if ip := clientIP(req); ip != "" {
		return "ip:" + ip
	}
	return "ip:unknown"
}

// rateMetricKey reduces a key to its kind so metric cardinality stays bounded.
func rateMetricKey(key string) string {
	kind, _, found := strings.Cut(key, ":")
	if !found || kind == "" {
		return "unknown"
	}
	return kind
}
