package service

import (
	"golang.org/x/time/rate"

	"github.com/yndnr/blueis/pkg/cmap"
)

// RateLimiterRegistry manages command rate limiters per client address.
type RateLimiterRegistry struct {
	limiters *cmap.Map[string, *rate.Limiter]
	limit    int
}

// NewRateLimiterRegistry creates a registry allowing limit commands per
// second (burst limit) for each address. limit <= 0 disables limiting.
func NewRateLimiterRegistry(limit int) *RateLimiterRegistry {
	return &RateLimiterRegistry{
		limiters: cmap.New[string, *rate.Limiter](),
		limit:    limit,
	}
}

// Enabled reports whether limiting is on.
func (r *RateLimiterRegistry) Enabled() bool {
	return r != nil && r.limit > 0
}

// Allow reports whether addr may run one more command now.
func (r *RateLimiterRegistry) Allow(addr string) bool {
	if !r.Enabled() {
		return true
	}
	return r.GetOrCreate(addr).Allow()
}

// GetOrCreate retrieves an existing rate limiter or creates a new one.
func (r *RateLimiterRegistry) GetOrCreate(addr string) *rate.Limiter {
	limiter, _ := r.limiters.GetOrCompute(addr, func() *rate.Limiter {
		return rate.NewLimiter(rate.Limit(r.limit), r.limit)
	})
	return limiter
}

// Delete removes the limiter for addr.
func (r *RateLimiterRegistry) Delete(addr string) {
	r.limiters.Delete(addr)
}

// Prune drops limiters whose bucket has refilled, i.e. addresses that
// have been quiet for at least one second. It returns the number removed.
func (r *RateLimiterRegistry) Prune() int {
	if !r.Enabled() {
		return 0
	}
	full := float64(r.limit)
	return r.limiters.DeleteIf(func(_ string, l *rate.Limiter) bool {
		return l.Tokens() >= full
	})
}

// Len returns the number of tracked addresses.
func (r *RateLimiterRegistry) Len() int {
	return r.limiters.Count()
}
