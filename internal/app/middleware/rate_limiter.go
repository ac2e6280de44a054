package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"visitor-pass-service/internal/error/code"
	"visitor-pass-service/internal/error/response"
)

// RateLimiterConfig 限流器配置
type RateLimiterConfig struct {
	Rate       float64                   // 每秒允许的请求数
	Burst      int                       // 允许的突发请求数
	ExpiryTime time.Duration             // 空闲多久后回收限流器
	LimitType  string                    // 限流类型: "ip", "combined", "custom"
	KeyFunc    func(*gin.Context) string // 自定义键生成函数
}

// DefaultRateLimiterConfig 默认限流器配置
var DefaultRateLimiterConfig = RateLimiterConfig{
	Rate:       5,
	Burst:      10,
	ExpiryTime: 10 * time.Minute,
	LimitType:  "ip",
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterStore 按键保存令牌桶，每个中间件实例独立
type limiterStore struct {
	mu        sync.Mutex
	items     map[string]*limiterEntry
	rate      rate.Limit
	burst     int
	expiry    time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newLimiterStore(cfg RateLimiterConfig) *limiterStore {
	return &limiterStore{
		items:  make(map[string]*limiterEntry),
		rate:   rate.Limit(cfg.Rate),
		burst:  cfg.Burst,
		expiry: cfg.ExpiryTime,
		now:    time.Now,
	}
}

// allow 获取键对应的限流器并尝试取令牌
func (s *limiterStore) allow(key string) bool {
	s.mu.Lock()
	now := s.now()
	s.sweep(now)

	entry, ok := s.items[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(s.rate, s.burst)}
		s.items[key] = entry
	}
	entry.lastSeen = now
	limiter := entry.limiter
	s.mu.Unlock()

	return limiter.AllowN(now, 1)
}

// sweep 回收空闲限流器，调用方持有锁
func (s *limiterStore) sweep(now time.Time) {
	if s.expiry <= 0 || now.Sub(s.lastSweep) < s.expiry {
		return
	}
	s.lastSweep = now
	for key, entry := range s.items {
		if now.Sub(entry.lastSeen) > s.expiry {
			delete(s.items, key)
		}
	}
}

func (s *limiterStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// RateLimiter 创建限流中间件
func RateLimiter(config ...RateLimiterConfig) gin.HandlerFunc {
	return newRateLimiter(config...).handler()
}

type rateLimiter struct {
	cfg   RateLimiterConfig
	store *limiterStore
}

func newRateLimiter(config ...RateLimiterConfig) *rateLimiter {
	// 使用默认配置或自定义配置
	cfg := DefaultRateLimiterConfig
	if len(config) > 0 {
		cfg = config[0]
	}

	// 确保配置有效
	if cfg.Rate <= 0 {
		cfg.Rate = DefaultRateLimiterConfig.Rate
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultRateLimiterConfig.Burst
	}
	if cfg.LimitType == "" {
		cfg.LimitType = DefaultRateLimiterConfig.LimitType
	}
	if cfg.ExpiryTime == 0 {
		cfg.ExpiryTime = DefaultRateLimiterConfig.ExpiryTime
	}

	return &rateLimiter{cfg: cfg, store: newLimiterStore(cfg)}
}

func (l *rateLimiter) key(c *gin.Context) string {
	switch l.cfg.LimitType {
	case "combined":
		return c.ClientIP() + ":" + c.FullPath()
	case "custom":
		if l.cfg.KeyFunc != nil {
			return l.cfg.KeyFunc(c)
		}
	}
	return c.ClientIP()
}

func (l *rateLimiter) handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.store.allow(l.key(c)) {
			response.Abort(c, code.ErrTooManyRequests, "")
			return
		}
		c.Next()
	}
}

// IPRateLimiter 按IP限流
func IPRateLimiter(rps float64, burst int) gin.HandlerFunc {
	return RateLimiter(RateLimiterConfig{
		Rate:      rps,
		Burst:     burst,
		LimitType: "ip",
	})
}

// CombinedRateLimiter 按IP和路由组合限流
func CombinedRateLimiter(rps float64, burst int) gin.HandlerFunc {
	return RateLimiter(RateLimiterConfig{
		Rate:      rps,
		Burst:     burst,
		LimitType: "combined",
	})
}
