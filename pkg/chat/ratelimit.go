package chat

import (
	"sync"

	"golang.org/x/time/rate"
)

const (
	DefaultRate  = rate.Limit(5)
	DefaultBurst = 5
)

// Limiter throttles chat per player.
type Limiter struct {
	lock     sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func NewLimiter(limit rate.Limit, burst int) *Limiter {
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

// Allow reports whether the player may send a message now.
func (l *Limiter) Allow(player string) bool {
	l.lock.Lock()
	limiter, ok := l.limiters[player]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[player] = limiter
	}
	l.lock.Unlock()
	return limiter.Allow()
}

// Forget drops the player's limiter, e.g. on disconnect.
func (l *Limiter) Forget(player string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	delete(l.limiters, player)
}
