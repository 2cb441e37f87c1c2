package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter представляет rate limiter на основе окна фиксированного размера
type RateLimiter struct {
	buckets  map[string]*bucket
	logger   *slog.Logger
	cleanupC chan struct{}
	stopOnce sync.Once
	rate     int
	window   time.Duration
	mu       sync.RWMutex
}

// bucket представляет bucket для конкретного IP/ключа
type bucket struct {
	lastRefill time.Time
	tokens     int
	mu         sync.Mutex
}

// NewRateLimiter создает новый rate limiter
// rate - максимальное количество запросов за window
func NewRateLimiter(rate int, window time.Duration, logger *slog.Logger) *RateLimiter {
	rl := &RateLimiter{
		buckets:  make(map[string]*bucket),
		rate:     rate,
		window:   window,
		logger:   logger,
		cleanupC: make(chan struct{}),
	}

	// Запускаем периодическую очистку старых buckets
	go rl.cleanup()

	return rl
}

// cleanup периодически удаляет неактивные buckets для экономии памяти
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window * 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupOldBuckets()
		case <-rl.cleanupC:
			return
		}
	}
}

// cleanupOldBuckets удаляет buckets, которые не использовались дольше 2*window
func (rl *RateLimiter) cleanupOldBuckets() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for key, b := range rl.buckets {
		b.mu.Lock()
		if now.Sub(b.lastRefill) > rl.window*2 {
			delete(rl.buckets, key)
		}
		b.mu.Unlock()
	}
}

// Stop останавливает cleanup goroutine; повторный вызов безопасен
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.cleanupC)
	})
}

func (rl *RateLimiter) bucketFor(key string) *bucket {
	rl.mu.RLock()
	b, exists := rl.buckets[key]
	rl.mu.RUnlock()
	if exists {
		return b
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	// Другой запрос мог создать bucket, пока мы ждали блокировку
	if b, exists = rl.buckets[key]; !exists {
		b = &bucket{tokens: rl.rate, lastRefill: time.Now()}
		rl.buckets[key] = b
	}
	return b
}

// Allow проверяет, разрешен ли запрос для данного ключа (обычно IP адрес)
func (rl *RateLimiter) Allow(key string) bool {
	b := rl.bucketFor(key)

	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()

	// Пополняем токены, когда окно истекло
	if now.Sub(b.lastRefill) >= rl.window {
		b.tokens = rl.rate
		b.lastRefill = now
	}

	if b.tokens > 0 {
		b.tokens--
		return true
	}

	return false
}

// PathRateLimit задает лимит для пути
type PathRateLimit struct {
	Path   string
	Rate   int
	Window time.Duration
}

// PathLimiter ограничивает частоту запросов с отдельными лимитами для путей
// (например, для sign-in и sign-up) и общим лимитом для остальных.
type PathLimiter struct {
	limiters map[string]*RateLimiter
	fallback *RateLimiter
	logger   *slog.Logger
}

// NewPathLimiter создает limiter с кастомными лимитами для путей
func NewPathLimiter(limits []PathRateLimit, defaultRate int, defaultWindow time.Duration, logger *slog.Logger) *PathLimiter {
	limiters := make(map[string]*RateLimiter, len(limits))
	for _, limit := range limits {
		limiters[limit.Path] = NewRateLimiter(limit.Rate, limit.Window, logger)
	}

	return &PathLimiter{
		limiters: limiters,
		fallback: NewRateLimiter(defaultRate, defaultWindow, logger),
		logger:   logger,
	}
}

// Middleware возвращает 429, когда лимит исчерпан
func (p *PathLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limiter, exists := p.limiters[r.URL.Path]
		if !exists {
			limiter = p.fallback
		}

		key := getClientIP(r)
		if !limiter.Allow(key) {
			p.logger.WarnContext(r.Context(), "rate limit exceeded",
				slog.String("ip", key),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)

			w.Header().Set("Retry-After", strconv.Itoa(int(limiter.window.Seconds())))
			writeError(w, "rate limit exceeded, please try again later", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Stop останавливает все limiters
func (p *PathLimiter) Stop() {
	for _, l := range p.limiters {
		l.Stop()
	}
	p.fallback.Stop()
}

// getClientIP извлекает IP адрес клиента из запроса
// Проверяет заголовки X-Forwarded-For и X-Real-IP для прокси
func getClientIP(r *http.Request) string {
	// Берем первый IP из X-Forwarded-For (реальный клиент)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// Порт отбрасываем, иначе каждое соединение получит свой bucket
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
