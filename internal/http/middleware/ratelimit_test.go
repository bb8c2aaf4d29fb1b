package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func limitedEngine(rl *RateLimiter, pre ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), DeviceID())
	r.Use(pre...)
	r.Use(rl.Handler())
	r.POST("/api/v1/surveys", func(c *gin.Context) { c.Status(http.StatusCreated) })
	return r
}

func submitFrom(r *gin.Engine, remote, deviceID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/surveys", nil)
	req.RemoteAddr = remote
	if deviceID != "" {
		req.Header.Set("X-Device-ID", deviceID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestKeyByDeviceOrIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var key string
	r.Use(DeviceID())
	r.GET("/k", func(c *gin.Context) {
		key = KeyByDeviceOrIP()(c)
		c.Status(http.StatusOK)
	})

	cases := []struct {
		name  string
		setup func(*http.Request)
		want  string
	}{
		{"fingerprint uses ip", func(*http.Request) {}, "ip:203.0.113.9"},
		{"header", func(r *http.Request) { r.Header.Set("X-Device-ID", "kiosk-3") }, "device:kiosk-3"},
		{"cookie", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "survey_device", Value: "cookie-dev"})
		}, "device:cookie-dev"},
		{"invalid header falls back", func(r *http.Request) { r.Header.Set("X-Device-ID", "bad value!") }, "ip:203.0.113.9"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/k", nil)
			req.RemoteAddr = "203.0.113.9:4000"
			tc.setup(req)
			r.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tc.want, key)
		})
	}
}

func TestRateLimiter_DevicesHaveSeparateBuckets(t *testing.T) {
	r := limitedEngine(NewRateLimiter(0.001, 1, KeyByDeviceOrIP()))

	// Two kiosks behind the same NAT.
	assert.Equal(t, http.StatusCreated, submitFrom(r, "10.0.0.1:1", "kiosk-a").Code)
	assert.Equal(t, http.StatusCreated, submitFrom(r, "10.0.0.1:2", "kiosk-b").Code)

	denied := submitFrom(r, "10.0.0.1:3", "kiosk-a")
	require.Equal(t, http.StatusTooManyRequests, denied.Code)
	assert.Equal(t, "1", denied.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(denied.Body.Bytes(), &body))
	assert.Equal(t, "too_many_requests", body["code"])
	assert.Equal(t, denied.Header().Get(requestIDHeader), body["request_id"])
	assert.NotEmpty(t, body["request_id"])
}

func TestRateLimiter_AnonymousCallersShareIPBucket(t *testing.T) {
	r := limitedEngine(NewRateLimiter(0.001, 2, KeyByDeviceOrIP()))

	assert.Equal(t, http.StatusCreated, submitFrom(r, "198.51.100.7:1", "").Code)
	assert.Equal(t, http.StatusCreated, submitFrom(r, "198.51.100.7:2", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, submitFrom(r, "198.51.100.7:3", "").Code)
	assert.Equal(t, http.StatusCreated, submitFrom(r, "198.51.100.8:1", "").Code)
}

func TestRateLimiter_ReplayBypassesTokens(t *testing.T) {
	rl := NewRateLimiter(0.001, 1, KeyByDeviceOrIP())
	replay := func(c *gin.Context) {
		if c.GetHeader("Idempotency-Key") != "" {
			c.Set(ctxKeyRateBypass, true)
		}
		c.Next()
	}
	r := limitedEngine(rl, replay)

	assert.Equal(t, http.StatusCreated, submitFrom(r, "10.0.0.9:1", "kiosk-z").Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/surveys", nil)
	req.Header.Set("X-Device-ID", "kiosk-z")
	req.Header.Set("Idempotency-Key", "k-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	assert.Equal(t, http.StatusTooManyRequests, submitFrom(r, "10.0.0.9:2", "kiosk-z").Code)
}

func TestIsRateBypass(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.False(t, IsRateBypass(c))
	c.Set(ctxKeyRateBypass, "yes")
	assert.False(t, IsRateBypass(c))
	c.Set(ctxKeyRateBypass, true)
	assert.True(t, IsRateBypass(c))
}

func TestRateLimiter_BurstAndEviction(t *testing.T) {
	rl := NewRateLimiter(1, -3, KeyByDeviceOrIP())
	assert.Equal(t, 1, rl.burst)

	first := rl.getVisitor("device:a")
	assert.Same(t, first, rl.getVisitor("device:a"))

	rl.mu.Lock()
	rl.ttl = time.Minute
	rl.visitors["device:stale"] = &visitor{limiter: rate.NewLimiter(1, 1), lastSeen: time.Now().Add(-time.Hour)}
	rl.cleanupN = 4999
	rl.mu.Unlock()

	rl.getVisitor("device:b")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.visitors, "device:stale")
	assert.Contains(t, rl.visitors, "device:a")
	assert.Contains(t, rl.visitors, "device:b")
	assert.Zero(t, rl.cleanupN)
}
