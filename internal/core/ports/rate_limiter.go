package ports

import "context"

// RateLimiter is a fixed-window request counter keyed by caller identity
// (typically client IP). Allow reports whether the request may proceed and,
// when denied, how many seconds remain until the window resets.
//
// Implementations are process-local (in-memory) or shared (Redis). The
// fixed-window semantics are deliberate: bursts of up to 2× the limit are
// possible across a window boundary, which is acceptable for anti-abuse.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int) (allowed bool, retryAfterSec int, err error)
}
