package api

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// submissionLimiter is a per-client token bucket over the public submission
// endpoints. Each client IP gets its own bucket, so one noisy submitter
// cannot exhaust the budget for everyone else.
type submissionLimiter struct {
	mu    sync.Mutex
	perIP map[string]*visitor
	rate  rate.Limit
	burst int
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const visitorIdleExpiry = 10 * time.Minute

func newSubmissionLimiter(r rate.Limit, burst int) *submissionLimiter {
	return &submissionLimiter{perIP: make(map[string]*visitor), rate: r, burst: burst}
}

// Allow consumes one token from ip's bucket, creating the bucket on first
// sight. Buckets idle past the expiry are swept on the way through, keeping
// the map bounded by recent traffic.
func (l *submissionLimiter) Allow(ip string) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, v := range l.perIP {
		if now.Sub(v.lastSeen) > visitorIdleExpiry {
			delete(l.perIP, key)
		}
	}

	v, ok := l.perIP[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.perIP[ip] = v
	}
	v.lastSeen = now
	return v.limiter.Allow()
}
