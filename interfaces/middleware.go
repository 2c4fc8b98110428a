package interfaces

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"jobboard/domain"
)

const (
	requestIDKey    = "request_id"
	actorKey        = "actor"
	requestIDHeader = "X-Request-ID"
	csrfKey         = "csrf_token"
	csrfHeader      = "X-CSRF-Token"
	csrfCookieAge   = 365 * 24 * 60 * 60

	// TokenCookie carries the API token for the HTML pages.
	TokenCookie = "jobboard_token"
	// CSRFCookie and CSRFField carry the double-submit token of page forms.
	CSRFCookie = "jobboard_csrf"
	CSRFField  = "csrf_token"
)

// Authenticator resolves a bearer token to an actor.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.Actor, error)
}

// RequestID tags each request with an id, reusing a client-supplied one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// AccessLog writes one line per request.
func AccessLog(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []any{
			"request_id", c.GetString(requestIDKey),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if actor := actorOf(c); actor.IsAuthenticated {
			fields = append(fields, "user_id", actor.UserID)
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Warnw("HTTP request", fields...)
			return
		}
		log.Infow("HTTP request", fields...)
	}
}

// Recovery turns panics into a 500 and logs them.
func Recovery(log *zap.SugaredLogger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Errorw("Panic recovered",
			"request_id", c.GetString(requestIDKey),
			"path", c.Request.URL.Path,
			"error", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	})
}

// APIAuth resolves "Authorization: Token <key>" into an actor. Cookies are
// ignored so a browser session never authorizes an API call. An unknown
// token is rejected with 401.
func APIAuth(auth Authenticator, log *zap.SugaredLogger) gin.HandlerFunc {
	return authenticate(auth, log, headerToken, true)
}

// PageAuth resolves the token header or the token cookie. An unknown token
// continues anonymously.
func PageAuth(auth Authenticator, log *zap.SugaredLogger) gin.HandlerFunc {
	return authenticate(auth, log, func(c *gin.Context) string {
		if token := headerToken(c); token != "" {
			return token
		}
		token, _ := c.Cookie(TokenCookie)
		return token
	}, false)
}

func authenticate(auth Authenticator, log *zap.SugaredLogger, tokenOf func(*gin.Context) string, strict bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := auth.Authenticate(c.Request.Context(), tokenOf(c))
		if err != nil {
			if strict {
				respondError(c, log, err)
				return
			}
			actor = domain.Anonymous()
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

func headerToken(c *gin.Context) string {
	scheme, token, found := strings.Cut(c.GetHeader("Authorization"), " ")
	if found && strings.EqualFold(scheme, "Token") {
		return strings.TrimSpace(token)
	}
	return ""
}

// setCookie writes an HttpOnly, SameSite=Lax cookie for the whole site.
func setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", c.Request.TLS != nil, true)
}

// CSRF issues a double-submit token cookie and, on unsafe methods,
// requires the same value in the csrf_token form field or the X-CSRF-Token
// header.
func CSRF(reject func(*gin.Context, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(CSRFCookie)
		if err != nil || token == "" {
			token = uuid.NewString()
			setCookie(c, CSRFCookie, token, csrfCookieAge)
		}
		c.Set(csrfKey, token)

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		sent := c.GetHeader(csrfHeader)
		if sent == "" {
			sent = c.PostForm(CSRFField)
		}
		if err != nil || subtle.ConstantTimeCompare([]byte(sent), []byte(token)) != 1 {
			reject(c, ErrCSRF)
			c.Abort()
			return
		}
		c.Next()
	}
}

// actorOf returns the actor set by Authenticate, or the anonymous actor.
func actorOf(c *gin.Context) domain.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(domain.Actor); ok {
			return actor
		}
	}
	return domain.Anonymous()
}

// RequireAuth rejects anonymous API requests with 401.
func RequireAuth(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !actorOf(c).IsAuthenticated {
			respondError(c, log, domain.ErrLoginRequired)
			return
		}
		c.Next()
	}
}

// limiterIdle is how long an unused limiter is kept. It exceeds the time
// a limiter needs to refill, so an evicted key comes back with the same
// allowance it would have had.
const limiterIdle = 5 * time.Minute

// ActorLimiter throttles a route per authenticated user, falling back to
// the client IP for anonymous requests. Keys idle for limiterIdle are
// swept on later calls.
type ActorLimiter struct {
	mu        sync.Mutex
	entries   map[string]*limiterEntry
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewActorLimiter allows perMinute requests per actor. perMinute <= 0
// returns nil, which Middleware treats as unlimited.
func NewActorLimiter(perMinute int) *ActorLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &ActorLimiter{
		entries: make(map[string]*limiterEntry),
		limit:   rate.Limit(float64(perMinute) / 60.0),
		burst:   perMinute,
		now:     time.Now,
	}
}

// allow spends one token of key's limiter.
func (l *ActorLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= limiterIdle {
		for k, e := range l.entries {
			if now.Sub(e.lastSeen) >= limiterIdle {
				delete(l.entries, k)
			}
		}
		l.lastSweep = now
	}

	e, ok := l.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

func (l *ActorLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}
		key := "ip:" + c.ClientIP()
		if actor := actorOf(c); actor.IsAuthenticated {
			key = "user:" + strconv.FormatUint(uint64(actor.UserID), 10)
		}
		if !l.allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"detail": "Request was throttled."})
			return
		}
		c.Next()
	}
}
