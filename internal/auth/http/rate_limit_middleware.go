package http

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	authDomain "github.com/allisson/fieldvault/internal/auth/domain"
	apperrors "github.com/allisson/fieldvault/internal/errors"
	"github.com/allisson/fieldvault/internal/httputil"
)

const (
	limiterSweepInterval = 5 * time.Minute
	limiterMaxIdle       = time.Hour
)

// limiterStore keeps one token bucket per tenant and actor pair.
type limiterStore struct {
	limiters sync.Map // map[string]*limiterEntry
	limit    rate.Limit
	burst    int
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess atomic.Int64 // unix nanoseconds
}

// RateLimitMiddleware throttles each actor independently with a token bucket of rps
// and burst. It must run after IdentityMiddleware. Rejected requests get a 429 with
// Retry-After in whole seconds. Idle buckets are swept until ctx is cancelled.
func RateLimitMiddleware(ctx context.Context, rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	store := &limiterStore{limit: rate.Limit(rps), burst: burst}
	go store.sweepEvery(ctx, limiterSweepInterval, limiterMaxIdle)

	return func(c *gin.Context) {
		actor, ok := GetActor(c.Request.Context())
		if !ok {
			logger.Error("rate limit middleware: no actor in context")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		limiter := store.get(limiterKey(actor))
		if limiter.Allow() {
			c.Next()
			return
		}

		retryAfter := retryAfterSeconds(limiter)
		logger.Debug("rate limit exceeded",
			slog.String("actor_id", actor.ID),
			slog.String("tenant_id", actor.TenantID),
			slog.Int("retry_after", retryAfter))

		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, httputil.ErrorResponse{
			Error:   "rate_limit_exceeded",
			Message: "Too many requests. Please retry after the specified delay.",
		})
	}
}

// Actor ids are only unique inside a tenant.
func limiterKey(actor *authDomain.Actor) string {
	return actor.TenantID + "/" + actor.ID
}

// retryAfterSeconds is the wait for the next token, rounded up and at least one second.
func retryAfterSeconds(limiter *rate.Limiter) int {
	reservation := limiter.Reserve()
	delay := reservation.Delay()
	reservation.Cancel()

	return max(1, int(math.Ceil(delay.Seconds())))
}

func (s *limiterStore) get(key string) *rate.Limiter {
	now := time.Now().UnixNano()
	if val, ok := s.limiters.Load(key); ok {
		entry := val.(*limiterEntry)
		entry.lastAccess.Store(now)
		return entry.limiter
	}

	entry := &limiterEntry{limiter: rate.NewLimiter(s.limit, s.burst)}
	entry.lastAccess.Store(now)
	actual, _ := s.limiters.LoadOrStore(key, entry)
	return actual.(*limiterEntry).limiter
}

func (s *limiterStore) sweepEvery(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.sweep(now.Add(-maxIdle))
		}
	}
}

// sweep drops buckets idle since before threshold.
func (s *limiterStore) sweep(threshold time.Time) {
	cutoff := threshold.UnixNano()
	s.limiters.Range(func(key, value any) bool {
		if value.(*limiterEntry).lastAccess.Load() < cutoff {
			s.limiters.Delete(key)
		}
		return true
	})
}
