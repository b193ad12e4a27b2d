package api

import (
	"net/http"
	"sync"

	"github.com/trust-scanner/internal/types"
	"golang.org/x/time/rate"
)

// RateLimiter manages per-caller request rates. Analyses fan out to two
// metered upstreams, so the API throttles well below what the server itself
// could absorb.
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex

	freeTierLimit rate.Limit
	paidTierLimit rate.Limit
	burstSize     int
}

// NewRateLimiter creates a rate limiter with per-tier requests-per-second limits
func NewRateLimiter(freeTierRPS, paidTierRPS int) *RateLimiter {
	return &RateLimiter{
		limiters:      make(map[string]*rate.Limiter),
		freeTierLimit: rate.Limit(freeTierRPS),
		paidTierLimit: rate.Limit(paidTierRPS),
		burstSize:     10,
	}
}

// getLimiter returns the rate limiter for a specific caller and tier
func (rl *RateLimiter) getLimiter(callerID string, tier types.UserTier) *rate.Limiter {
	rl.mu.RLock()
	limiter, exists := rl.limiters[callerID]
	rl.mu.RUnlock()

	if exists {
		return limiter
	}

	limit := rl.freeTierLimit
	if tier == types.TierPaid {
		limit = rl.paidTierLimit
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Double-check in case another goroutine created it
	if limiter, exists := rl.limiters[callerID]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(limit, rl.burstSize)
	rl.limiters[callerID] = limiter
	return limiter
}

// RateLimitMiddleware creates a middleware that enforces rate limiting
func RateLimitMiddleware(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			callerID := r.Header.Get("X-User-ID")
			if callerID == "" {
				// Anonymous callers are keyed by IP
				callerID = r.RemoteAddr
			}

			tier := types.UserTier(r.Header.Get("X-User-Tier"))
			if tier == "" {
				tier = types.TierFree
			}

			limiter := rl.getLimiter(callerID, tier)
			if !limiter.Allow() {
				respondError(w, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED",
					"Rate limit exceeded. Please try again later.", map[string]interface{}{
						"tier": tier,
					})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
