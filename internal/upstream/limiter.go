package upstream

import (
	"context"
	"sync"
	"time"
)

// tokenLimiter is a token bucket pacing outbound requests to an upstream API.
// Both upstreams meter by requests per second on their free tiers.
type tokenLimiter struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

func newTokenLimiter(requestsPerSecond float64) *tokenLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &tokenLimiter{
		tokens:     requestsPerSecond,
		maxTokens:  requestsPerSecond,
		refillRate: requestsPerSecond,
		lastRefill: time.Now(),
	}
}

// wait blocks until a token is available or the context is cancelled
func (l *tokenLimiter) wait(ctx context.Context) error {
	l.mu.Lock()

	now := time.Now()
	l.tokens += now.Sub(l.lastRefill).Seconds() * l.refillRate
	if l.tokens > l.maxTokens {
		l.tokens = l.maxTokens
	}
	l.lastRefill = now

	if l.tokens >= 1 {
		l.tokens--
		l.mu.Unlock()
		return nil
	}

	waitTime := time.Duration((1 - l.tokens) / l.refillRate * float64(time.Second))
	l.tokens = 0
	l.lastRefill = time.Now().Add(waitTime)
	l.mu.Unlock()

	select {
	case <-time.After(waitTime):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
