package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hivedesk/hivedesk-backend/pkg/clientip"
)

// Message send rate limit: per-IP token bucket. 60/min with a burst of 20
// absorbs quick back-and-forth typing while blocking floods.

const (
	sendRPS        = 1.0
	sendBurst      = 20
	sendCleanupMin = 5 * time.Minute
	sendLimiterTTL = 30 * time.Minute
)

type sendLimiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

var (
	sendEntries   = make(map[string]*sendLimiterEntry)
	sendEntriesMu sync.Mutex
	sendCleanup   bool
)

func getSendLimiter(ip string) *rate.Limiter {
	sendEntriesMu.Lock()
	defer sendEntriesMu.Unlock()
	startSendCleanupOnce()

	e, ok := sendEntries[ip]
	if !ok {
		e = &sendLimiterEntry{
			limiter: rate.NewLimiter(rate.Limit(sendRPS), sendBurst),
			lastUse: time.Now(),
		}
		sendEntries[ip] = e
	}
	e.lastUse = time.Now()
	return e.limiter
}

func startSendCleanupOnce() {
	if sendCleanup {
		return
	}
	sendCleanup = true
	go func() {
		ticker := time.NewTicker(sendCleanupMin)
		defer ticker.Stop()
		for range ticker.C {
			sendEntriesMu.Lock()
			now := time.Now()
			for k, e := range sendEntries {
				if now.Sub(e.lastUse) > sendLimiterTTL {
					delete(sendEntries, k)
				}
			}
			sendEntriesMu.Unlock()
		}
	}()
}

// SendRateLimit limits message-sending endpoints per client IP. Returns
// 429 with rate limit headers when exceeded.
func SendRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientip.RealClientIP(r)
		limiter := getSendLimiter(ip)

		if !limiter.Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(sendBurst))
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"message":"too many messages, slow down"}`))
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(sendBurst))
		next.ServeHTTP(w, r)
	})
}
