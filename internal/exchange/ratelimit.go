// ratelimit.go groups per-category REST rate limiters. The teacher's own
// internal/exchange/ratelimit.go hand-rolled a continuous-refill token
// bucket for this; here golang.org/x/time/rate (seen wired for exactly
// this purpose in the arbitrage-bot sibling under other_examples/) plays
// the same role via the ecosystem-standard limiter, keeping the same
// per-category grouping shape.
package exchange

import "golang.org/x/time/rate"

// RateLimiter groups rate.Limiters by Bybit V5 API category. Each
// mutating or data-fetching call waits on the matching limiter before
// issuing its HTTP request.
type RateLimiter struct {
	Order  *rate.Limiter // POST /v5/order/create
	Cancel *rate.Limiter // POST /v5/order/cancel
	Book   *rate.Limiter // GET /v5/market/tickers, /v5/market/instruments-info
}

// NewRateLimiter returns limiters tuned conservatively for Bybit's
// published per-UID rate limits: burst sized to absorb a cancel/replace
// pair without stalling, refill rate well under the documented ceiling.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		Order:  rate.NewLimiter(rate.Limit(10), 20),
		Cancel: rate.NewLimiter(rate.Limit(10), 20),
		Book:   rate.NewLimiter(rate.Limit(5), 10),
	}
}
