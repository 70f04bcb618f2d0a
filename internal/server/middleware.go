package server

import (
	"crypto/subtle"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"startloft-api/internal/apperr"
)

const (
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"

	msgUnauthorized = "Требуется токен администратора"
	msgRateLimited  = "Слишком много запросов. Попробуйте позже."

	limiterIdle = 10 * time.Minute
)

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)

		c.Next()

		log.Printf("http: %s %s %d %s ip=%s id=%s",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(),
			time.Since(start).Round(time.Millisecond), c.ClientIP(), id)
	}
}

// adminGuard accepts the token in X-Admin-Token or as a bearer token. An
// empty expected token rejects everything.
func adminGuard(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader("X-Admin-Token")
		if got == "" {
			parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				got = strings.TrimSpace(parts[1])
			}
		}
		if token == "" || got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			writeError(c, apperr.Unauthorized(msgUnauthorized))
			return
		}
		c.Next()
	}
}

// ipLimiter admits at most limit requests per client IP within any rolling
// window. Entries of idle clients expire from the cache.
type ipLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	hits *cache.Cache
}

func newIPLimiter(perMinute int) *ipLimiter {
	if perMinute <= 0 {
		perMinute = 5
	}
	return &ipLimiter{
		limit:  perMinute,
		window: time.Minute,
		now:    time.Now,
		hits:   cache.New(limiterIdle, limiterIdle),
	}
}

func (l *ipLimiter) allow(ip string) bool {
	return l.allowAt(ip, l.now())
}

// allowAt records a request at now unless ip already used its budget in the
// window ending at now.
func (l *ipLimiter) allowAt(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	var seen []time.Time
	if v, ok := l.hits.Get(ip); ok {
		seen = v.([]time.Time)
	}
	cutoff := now.Add(-l.window)
	kept := seen[:0]
	for _, at := range seen {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	if len(kept) >= l.limit {
		l.hits.Set(ip, kept, cache.DefaultExpiration)
		return false
	}
	l.hits.Set(ip, append(kept, now), cache.DefaultExpiration)
	return true
}

func rateLimit(l *ipLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			c.Header("Retry-After", strconv.Itoa(int(time.Minute.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorBody{Detail: msgRateLimited})
			return
		}
		c.Next()
	}
}
