package webserver

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// importLimiter bounds how fast a single client can anchor documents. Every
// import costs a storage-network upload, so the window is kept small. State
// is in-process; imports are rare enough that a replica-shared limit is not
// worth the coupling.
type importLimiter struct {
	mu     sync.Mutex
	seen   map[string][]time.Time
	limit  int
	window time.Duration
}

func newImportLimiter(limit int, window time.Duration) *importLimiter {
	l := &importLimiter{
		seen:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
	}
	go l.janitor()
	return l
}

// allow records one attempt under key and reports whether it stays within
// the sliding window.
func (l *importLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	recent := l.prune(key, now)
	if len(recent) >= l.limit {
		l.seen[key] = recent
		return false
	}
	l.seen[key] = append(recent, now)
	return true
}

// prune drops attempts older than the window. Caller holds the lock.
func (l *importLimiter) prune(key string, now time.Time) []time.Time {
	recent := l.seen[key][:0]
	for _, t := range l.seen[key] {
		if now.Sub(t) < l.window {
			recent = append(recent, t)
		}
	}
	return recent
}

// janitor evicts keys whose whole history has aged out, so one-off clients
// do not accumulate forever.
func (l *importLimiter) janitor() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for range ticker.C {
		l.mu.Lock()
		now := time.Now()
		for key := range l.seen {
			if recent := l.prune(key, now); len(recent) == 0 {
				delete(l.seen, key)
			} else {
				l.seen[key] = recent
			}
		}
		l.mu.Unlock()
	}
}

// middleware keys attempts by session address when one is present, falling
// back to the client IP for unauthenticated imports.
func (l *importLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetString("addr")
		if key == "" {
			key = c.ClientIP()
		}
		if !l.allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"err": "too many imports, slow down"})
			return
		}
		c.Next()
	}
}
