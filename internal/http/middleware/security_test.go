package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serveSecured(opt SecurityOptions, req *http.Request, pre ...gin.HandlerFunc) http.Header {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(pre...)
	r.Use(SecurityHeaders(opt))
	r.GET("/api/v1/survey/status", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/v1/stats", func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Header()
}

func TestSecurityHeaders_Baseline(t *testing.T) {
	h := serveSecured(SecurityOptions{}, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	assert.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", h.Get("X-Frame-Options"))
	assert.Equal(t, "no-referrer", h.Get("Referrer-Policy"))
	for _, k := range []string{"Permissions-Policy", "Cache-Control", "Strict-Transport-Security", "Access-Control-Expose-Headers"} {
		assert.Empty(t, h.Get(k), k)
	}
}

func TestSecurityHeaders_StatusIsNoStoreStatsIsNot(t *testing.T) {
	opt := SecurityOptions{NoStorePrefixes: []string{"", "/api/v1/survey/status"}}

	status := serveSecured(opt, httptest.NewRequest(http.MethodGet, "/api/v1/survey/status", nil))
	assert.Equal(t, "no-store", status.Get("Cache-Control"))
	assert.Equal(t, "no-cache", status.Get("Pragma"))
	assert.Equal(t, "0", status.Get("Expires"))

	stats := serveSecured(opt, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	assert.Empty(t, stats.Get("Cache-Control"))

	all := serveSecured(SecurityOptions{NoStore: true}, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	assert.Equal(t, "no-store", all.Get("Cache-Control"))
}

func TestSecurityHeaders_HSTSOnlyOverHTTPS(t *testing.T) {
	opt := SecurityOptions{EnableHSTS: true, HSTSMaxAge: 24 * time.Hour}

	plain := serveSecured(opt, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	assert.Empty(t, plain.Get("Strict-Transport-Security"))

	viaTLS := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	viaTLS.TLS = &tls.ConnectionState{}
	assert.Equal(t, "max-age=86400; includeSubDomains; preload",
		serveSecured(opt, viaTLS).Get("Strict-Transport-Security"))

	proxied := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	proxied.Header.Set("X-Forwarded-Proto", "HTTPS")
	def := serveSecured(SecurityOptions{EnableHSTS: true}, proxied)
	assert.Equal(t, "max-age=15552000; includeSubDomains; preload", def.Get("Strict-Transport-Security"))
}

func TestSecurityHeaders_Policy(t *testing.T) {
	h := serveSecured(SecurityOptions{EnablePolicy: true}, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	assert.Contains(t, h.Get("Permissions-Policy"), "camera=()")
	assert.Equal(t, "none", h.Get("X-Permitted-Cross-Domain-Policies"))
}

func TestSecurityHeaders_ExposeRequestID(t *testing.T) {
	cases := []struct {
		name     string
		existing string
		want     string
	}{
		{"empty", "", "X-Request-ID"},
		{"append", "ETag, Idempotency-Replayed", "ETag, Idempotency-Replayed, X-Request-ID"},
		{"already listed", "X-Request-ID, ETag", "X-Request-ID, ETag"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pre := func(c *gin.Context) {
				c.Header(requestIDHeader, "rid-1")
				if tc.existing != "" {
					c.Header("Access-Control-Expose-Headers", tc.existing)
				}
				c.Next()
			}
			h := serveSecured(SecurityOptions{}, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil), pre)
			assert.Equal(t, tc.want, h.Get("Access-Control-Expose-Headers"))
		})
	}
}

func TestHasAnyPrefix(t *testing.T) {
	assert.False(t, hasAnyPrefix("/api/v1/stats", nil))
	assert.False(t, hasAnyPrefix("/api/v1/stats", []string{""}))
	assert.True(t, hasAnyPrefix("/api/v1/survey/status", []string{"/api/v1/survey"}))
}
