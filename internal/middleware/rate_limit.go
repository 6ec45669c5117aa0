package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/arena-game/internal/config"
)

// tokenBucket 单个客户端的令牌桶
type tokenBucket struct {
	tokens     float64
	capacity   float64
	refillRate float64 // 每秒补充的令牌数
	lastRefill time.Time
}

// allow 取走一枚令牌，桶空时拒绝
func (b *tokenBucket) allow(now time.Time) bool {
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens += elapsed * b.refillRate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.lastRefill = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// RateLimiter 按客户端IP限流的中间件
//
// 普通请求与登录请求使用独立的桶：登录桶容量小、补充慢，
// 用来压制撞库；桶表只增不删，靠定期清理回收长期不活跃的IP。
type RateLimiter struct {
	cfg *config.RateLimitConfig

	mu           sync.Mutex
	buckets      map[string]*tokenBucket
	loginBuckets map[string]*tokenBucket

	stopCleanup chan struct{}
}

// NewRateLimiter 创建限流器
func NewRateLimiter(cfg *config.RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		cfg:          cfg,
		buckets:      make(map[string]*tokenBucket),
		loginBuckets: make(map[string]*tokenBucket),
		stopCleanup:  make(chan struct{}),
	}

	go rl.cleanupLoop()
	return rl
}

// Limit 通用限流中间件（默认100次/分钟）
func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.cfg.Enabled {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if !rl.allowRequest(ip) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    "RATE_LIMIT_EXCEEDED",
				"message": "请求过于频繁，请稍后再试",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// LimitLogin 登录限流中间件（默认10次/小时，防撞库）
func (rl *RateLimiter) LimitLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.cfg.Enabled {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if !rl.allowLogin(ip) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    "LOGIN_RATE_LIMIT_EXCEEDED",
				"message": "登录尝试过于频繁，请稍后再试",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// allowRequest 普通请求桶
func (rl *RateLimiter) allowRequest(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	bucket, ok := rl.buckets[ip]
	if !ok {
		capacity := float64(rl.cfg.Burst)
		if capacity < 1 {
			capacity = float64(rl.cfg.RequestsPerMinute)
		}
		bucket = &tokenBucket{
			tokens:     capacity,
			capacity:   capacity,
			refillRate: float64(rl.cfg.RequestsPerMinute) / 60,
			lastRefill: time.Now(),
		}
		rl.buckets[ip] = bucket
	}

	return bucket.allow(time.Now())
}

// allowLogin 登录桶
func (rl *RateLimiter) allowLogin(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	bucket, ok := rl.loginBuckets[ip]
	if !ok {
		capacity := float64(rl.cfg.LoginPerHour)
		bucket = &tokenBucket{
			tokens:     capacity,
			capacity:   capacity,
			refillRate: capacity / 3600,
			lastRefill: time.Now(),
		}
		rl.loginBuckets[ip] = bucket
	}

	return bucket.allow(time.Now())
}

// cleanupLoop 定期回收长期不活跃的IP桶
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now())
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanup 移除一小时没有请求的桶
func (rl *RateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, bucket := range rl.buckets {
		if now.Sub(bucket.lastRefill) > time.Hour {
			delete(rl.buckets, ip)
		}
	}
	for ip, bucket := range rl.loginBuckets {
		if now.Sub(bucket.lastRefill) > time.Hour {
			delete(rl.loginBuckets, ip)
		}
	}
}

// Stop 停止后台清理
func (rl *RateLimiter) Stop() {
	close(rl.stopCleanup)
}
