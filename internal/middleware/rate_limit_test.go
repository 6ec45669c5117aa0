package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/arena-game/internal/config"
	"github.com/stretchr/testify/suite"
)

// RateLimiterTestSuite 限流中间件测试套件
type RateLimiterTestSuite struct {
	suite.Suite
	limiter *RateLimiter
	router  *gin.Engine
}

func (suite *RateLimiterTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	suite.limiter = NewRateLimiter(&config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 60,
		LoginPerHour:      3,
		Burst:             5,
	})

	suite.router = gin.New()
	suite.router.GET("/ping", suite.limiter.Limit(), func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	suite.router.POST("/login", suite.limiter.LimitLogin(), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
}

func (suite *RateLimiterTestSuite) TearDownTest() {
	suite.limiter.Stop()
}

func (suite *RateLimiterTestSuite) do(method, path, ip string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = ip + ":12345"
	suite.router.ServeHTTP(w, req)
	return w.Code
}

// 测试突发容量之内放行、之外拒绝
func (suite *RateLimiterTestSuite) TestBurstThenReject() {
	for i := 0; i < 5; i++ {
		suite.Equal(http.StatusOK, suite.do(http.MethodGet, "/ping", "10.0.0.1"))
	}
	suite.Equal(http.StatusTooManyRequests, suite.do(http.MethodGet, "/ping", "10.0.0.1"))
}

// 测试不同IP互不影响
func (suite *RateLimiterTestSuite) TestPerIPIsolation() {
	for i := 0; i < 5; i++ {
		suite.Equal(http.StatusOK, suite.do(http.MethodGet, "/ping", "10.0.0.1"))
	}
	suite.Equal(http.StatusTooManyRequests, suite.do(http.MethodGet, "/ping", "10.0.0.1"))

	// 另一个IP仍然放行
	suite.Equal(http.StatusOK, suite.do(http.MethodGet, "/ping", "10.0.0.2"))
}

// 测试登录桶比普通桶更严格
func (suite *RateLimiterTestSuite) TestLoginBucketStricter() {
	for i := 0; i < 3; i++ {
		suite.Equal(http.StatusOK, suite.do(http.MethodPost, "/login", "10.0.0.3"))
	}
	suite.Equal(http.StatusTooManyRequests, suite.do(http.MethodPost, "/login", "10.0.0.3"))

	// 登录被限不影响普通请求
	suite.Equal(http.StatusOK, suite.do(http.MethodGet, "/ping", "10.0.0.3"))
}

// 测试令牌随时间补充
func (suite *RateLimiterTestSuite) TestRefill() {
	bucket := &tokenBucket{
		tokens:     0,
		capacity:   5,
		refillRate: 1, // 每秒1枚
		lastRefill: time.Now().Add(-2 * time.Second),
	}

	suite.True(bucket.allow(time.Now()))
}

// 测试关闭开关后不限流
func (suite *RateLimiterTestSuite) TestDisabled() {
	limiter := NewRateLimiter(&config.RateLimitConfig{Enabled: false, RequestsPerMinute: 1, LoginPerHour: 1})
	defer limiter.Stop()

	router := gin.New()
	router.GET("/ping", limiter.Limit(), func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	for i := 0; i < 20; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.9:12345"
		router.ServeHTTP(w, req)
		suite.Equal(http.StatusOK, w.Code)
	}
}

// 测试清理回收不活跃的桶
func (suite *RateLimiterTestSuite) TestCleanup() {
	suite.do(http.MethodGet, "/ping", "10.0.0.4")

	suite.limiter.mu.Lock()
	suite.limiter.buckets["10.0.0.4"].lastRefill = time.Now().Add(-2 * time.Hour)
	suite.limiter.mu.Unlock()

	suite.limiter.cleanup(time.Now())

	suite.limiter.mu.Lock()
	_, exists := suite.limiter.buckets["10.0.0.4"]
	suite.limiter.mu.Unlock()
	suite.False(exists)
}

func TestRateLimiterSuite(t *testing.T) {
	suite.Run(t, new(RateLimiterTestSuite))
}
