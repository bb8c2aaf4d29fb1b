package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestHelpers_GetIdempotencyKey_IsReplay(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	if k, ok := GetIdempotencyKey(c); k != "" || ok {
		t.Fatalf("expected empty key when not set")
	}
	if IsReplay(c) {
		t.Fatalf("expected IsReplay=false by default")
	}

	c.Set(ctxKeyIdemKey, 123)
	if _, ok := GetIdempotencyKey(c); ok {
		t.Fatalf("expected GetIdempotencyKey to be absent for non-string value")
	}
	c.Set(ctxKeyIdemReplay, true)
	if !IsReplay(c) {
		t.Fatalf("expected IsReplay=true")
	}
	c.Set(ctxKeyIdemReplay, "yes")
	if IsReplay(c) {
		t.Fatalf("expected IsReplay=false for non-bool")
	}
}

func TestIdempotencyValidator_NoHeader_NoLookupCalled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	lookupCalled := false
	lookup := func(context.Context, string, string, time.Time) (bool, error) {
		lookupCalled = true
		return false, nil
	}
	r.Use(IdempotencyValidator(IdempotencyOptions{}, lookup))
	r.POST("/surveys", func(c *gin.Context) {
		if _, ok := GetIdempotencyKey(c); ok {
			t.Fatalf("key should not be present when header missing")
		}
		c.Status(http.StatusNoContent)
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/surveys", nil))
	if w.Code != http.StatusNoContent || lookupCalled {
		t.Fatalf("code=%d lookupCalled=%v", w.Code, lookupCalled)
	}
}

func TestIdempotencyValidator_InvalidKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(IdempotencyValidator(IdempotencyOptions{MaxLen: 8}, nil))
	r.POST("/surveys", func(c *gin.Context) { t.Fatal("handler must not run") })

	for _, key := range []string{"has space", "way-too-long-key", "ñ"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/surveys", nil)
		req.Header.Set(HeaderIdempotencyKey, key)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("key %q: code=%d", key, w.Code)
		}
		var body map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("json: %v", err)
		}
		if body["code"] != "bad_idempotency_key" {
			t.Fatalf("key %q: body=%v", key, body)
		}
	}
}

func TestIdempotencyValidator_CustomPattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(IdempotencyValidator(IdempotencyOptions{Pattern: regexp.MustCompile(`^[0-9]+$`)}, nil))
	r.POST("/surveys", func(c *gin.Context) {
		k, _ := GetIdempotencyKey(c)
		c.String(http.StatusOK, k)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/surveys", nil)
	req.Header.Set(HeaderIdempotencyKey, "12345")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "12345" {
		t.Fatalf("code=%d body=%q", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/surveys", nil)
	req.Header.Set(HeaderIdempotencyKey, "abc")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("code=%d", w.Code)
	}
}

func TestIdempotencyValidator_ReplayMarksBypassWithDevice(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	var gotDevice, gotKey string
	lookup := func(_ context.Context, deviceID, key string, now time.Time) (bool, error) {
		gotDevice, gotKey = deviceID, key
		if now.IsZero() {
			t.Fatalf("now must be set")
		}
		return true, nil
	}
	r.Use(DeviceID(), IdempotencyValidator(IdempotencyOptions{}, lookup))
	r.POST("/surveys", func(c *gin.Context) {
		if !IsReplay(c) || !IsRateBypass(c) {
			t.Fatalf("replay flags not set")
		}
		c.Status(http.StatusCreated)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/surveys", nil)
	req.Header.Set(HeaderIdempotencyKey, "k-1")
	req.Header.Set("X-Device-ID", "dev-7")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("code=%d", w.Code)
	}
	if gotDevice != "dev-7" || gotKey != "k-1" {
		t.Fatalf("lookup got (%q,%q)", gotDevice, gotKey)
	}
}

func TestIdempotencyValidator_SafeMethodsSkipLookup_ErrorsDoNotBlock(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := withCapturedLogger(t)
	r := gin.New()

	calls := 0
	lookup := func(context.Context, string, string, time.Time) (bool, error) {
		calls++
		return false, errors.New("db down")
	}
	r.Use(IdempotencyValidator(IdempotencyOptions{}, lookup))
	r.GET("/stats", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/surveys", func(c *gin.Context) {
		if IsReplay(c) {
			t.Fatalf("failed lookup must not mark replay")
		}
		c.Status(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	req.Header.Set(HeaderIdempotencyKey, "k")
	r.ServeHTTP(httptest.NewRecorder(), req)
	if calls != 0 {
		t.Fatalf("GET must not consult lookup")
	}

	w := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/surveys", nil)
	req.Header.Set(HeaderIdempotencyKey, "k")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated || calls != 1 {
		t.Fatalf("code=%d calls=%d", w.Code, calls)
	}
	if !strings.Contains(buf.String(), "idempotency lookup failed") {
		t.Fatalf("expected warn log, got %s", buf.String())
	}
}
