package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// LoginRateLimit limits login attempts per client IP: at most maxAttempts per
// window, 429 beyond that.
func LoginRateLimit(maxAttempts int, window time.Duration) gin.HandlerFunc {
	type entry struct {
		timestamps []time.Time
	}
	var (
		mu    sync.RWMutex
		store = make(map[string]*entry)
	)
	// Periodically drop stale entries.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			mu.Lock()
			cutoff := time.Now().Add(-window)
			for ip, e := range store {
				newTs := e.timestamps[:0]
				for _, t := range e.timestamps {
					if t.After(cutoff) {
						newTs = append(newTs, t)
					}
				}
				if len(newTs) == 0 {
					delete(store, ip)
				} else {
					e.timestamps = newTs
				}
			}
			mu.Unlock()
		}
	}()

	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()
		mu.Lock()
		e, ok := store[ip]
		if !ok {
			e = &entry{}
			store[ip] = e
		}
		cutoff := now.Add(-window)
		newTs := e.timestamps[:0]
		for _, t := range e.timestamps {
			if t.After(cutoff) {
				newTs = append(newTs, t)
			}
		}
		e.timestamps = newTs
		if len(e.timestamps) >= maxAttempts {
			mu.Unlock()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "too many login attempts, try again later",
			})
			c.Abort()
			return
		}
		e.timestamps = append(e.timestamps, now)
		mu.Unlock()
		c.Next()
	}
}
