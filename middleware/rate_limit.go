package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Limiter решает, можно ли пропустить ещё один запрос с данным ключом.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// visitor holds the rate limiter and the last time we saw this key.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter - token bucket на каждый ключ, состояние в памяти процесса.
type MemoryLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	perMinute int
	idleTTL   time.Duration
	now       func() time.Time
}

func NewMemoryLimiter(perMinute int, now func() time.Time) *MemoryLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryLimiter{
		visitors:  make(map[string]*visitor),
		perMinute: perMinute,
		idleTTL:   10 * time.Minute,
		now:       now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, exists := l.visitors[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.perMinute)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1), nil
}

// Cleanup удаляет ключи, которые не появлялись дольше idleTTL.
func (l *MemoryLimiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	cutoff := l.now().Add(-l.idleTTL)
	for key, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, key)
			removed++
		}
	}
	return removed
}

// RunCleanup периодически чистит неактивные ключи до отмены ctx.
func (l *MemoryLimiter) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Cleanup()
		}
	}
}

// RedisLimiter - фиксированное окно в минуту, общее для всех экземпляров сервиса.
type RedisLimiter struct {
	client    *redis.Client
	perMinute int
	now       func() time.Time
}

func NewRedisLimiter(client *redis.Client, perMinute int, now func() time.Time) *RedisLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	if now == nil {
		now = time.Now
	}
	return &RedisLimiter{client: client, perMinute: perMinute, now: now}
}

func rateLimitKey(key string, window time.Time) string {
	return fmt.Sprintf("ratelimit:votes:%s:%d", key, window.Unix())
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	window := l.now().UTC().Truncate(time.Minute)
	redisKey := rateLimitKey(key, window)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, 2*time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit counter: %w", err)
	}
	return incr.Val() <= int64(l.perMinute), nil
}

// RateLimit ограничивает запросы по IP клиента. Если лимитер недоступен,
// запрос пропускается, а ошибка пишется в лог.
func RateLimit(limiter Limiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			allowed, err := limiter.Allow(r.Context(), ip)
			if err != nil {
				logger.WarnContext(r.Context(), "Rate limiter unavailable", slog.String("ip", ip), slog.Any("error", err))
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				writeError(w, r, http.StatusTooManyRequests, "Too many requests. Please slow down.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
