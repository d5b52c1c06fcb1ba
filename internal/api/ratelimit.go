package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"studyloop-generation/internal/logger"
	"studyloop-generation/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimiter applique une fenêtre fixe par clé. Le compteur vit dans Redis quand un
// client est fourni et joignable, sinon dans une table en mémoire propre à l'instance.
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
	log    *logger.Logger
	now    func() time.Time

	mu    sync.Mutex
	local map[string]*localWindow
}

type localWindow struct {
	count int
	reset time.Time
}

// RateDecision est le résultat d'une vérification
type RateDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Duration
	Backend   string
}

func NewRateLimiter(client *redis.Client, limit int, window time.Duration, log *logger.Logger) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: "rl:trigger:",
		log:    log.With("component", "ratelimit"),
		now:    time.Now,
		local:  map[string]*localWindow{},
	}
}

// Allow compte une requête pour la clé
func (rl *RateLimiter) Allow(ctx context.Context, key string) RateDecision {
	if rl.client != nil {
		decision, err := rl.allowRedis(ctx, key)
		if err == nil {
			return decision
		}
		rl.log.Warn("Redis rate limiter unavailable, using local window", "error", err)
	}
	return rl.allowLocal(key)
}

// allowRedis incrémente le compteur et lit son TTL dans une même transaction.
// Une clé sans expiration reçoit la fenêtre, y compris après un EXPIRE perdu.
func (rl *RateLimiter) allowRedis(ctx context.Context, key string) (RateDecision, error) {
	redisKey := rl.prefix + key

	var incr *redis.IntCmd
	var ttlCmd *redis.DurationCmd
	_, err := rl.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		ttlCmd = pipe.TTL(ctx, redisKey)
		return nil
	})
	if err != nil {
		return RateDecision{}, err
	}

	ttl := ttlCmd.Val()
	if ttl < 0 {
		if err := rl.client.Expire(ctx, redisKey, rl.window).Err(); err != nil {
			return RateDecision{}, err
		}
		ttl = rl.window
	}

	return rl.decide(int(incr.Val()), ttl, "redis"), nil
}

func (rl *RateLimiter) allowLocal(key string) RateDecision {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.local[key]
	if !ok || !now.Before(w.reset) {
		w = &localWindow{reset: now.Add(rl.window)}
		rl.local[key] = w
		rl.purgeLocked(now)
	}
	w.count++

	return rl.decide(w.count, w.reset.Sub(now), "memory")
}

// purgeLocked retire les fenêtres expirées
func (rl *RateLimiter) purgeLocked(now time.Time) {
	for k, w := range rl.local {
		if !now.Before(w.reset) {
			delete(rl.local, k)
		}
	}
}

func (rl *RateLimiter) decide(count int, reset time.Duration, backend string) RateDecision {
	remaining := rl.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return RateDecision{
		Allowed:   count <= rl.limit,
		Limit:     rl.limit,
		Remaining: remaining,
		Reset:     reset,
		Backend:   backend,
	}
}

// Middleware limite les requêtes par adresse cliente
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := clientKey(c)
		decision := rl.Allow(c.Request.Context(), key)

		reset := int(decision.Reset.Seconds())
		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(reset))

		if !decision.Allowed {
			metrics.IncRateLimited(decision.Backend)
			c.Header("Retry-After", strconv.Itoa(reset))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success":         false,
				"error":           "Rate limit exceeded",
				"retry_after_sec": reset,
				"window":          rl.window.String(),
			})
			return
		}
		c.Next()
	}
}

// clientKey s'appuie sur ClientIP, qui n'honore X-Forwarded-For que depuis
// les proxies de confiance du moteur
func clientKey(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return fmt.Sprintf("anonymous:%s", c.Request.RemoteAddr)
}
