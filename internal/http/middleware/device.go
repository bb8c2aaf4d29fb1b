// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the respondent's device identifier once per request so
// that the logger, the rate limiter, the idempotency validator and the
// handlers all agree on it.
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-survey-backend/internal/device"
)

const (
	ctxKeyDeviceID     = "deviceID"
	ctxKeyDeviceSource = "deviceSource"
)

// DeviceID stores the caller's device id in the Gin context. The id comes
// from the X-Device-ID header, then the survey cookie, then a request
// fingerprint; see device.FromRequest.
func DeviceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, src := device.FromRequest(c.Request, c.ClientIP())
		c.Set(ctxKeyDeviceID, id)
		c.Set(ctxKeyDeviceSource, src)
		c.Next()
	}
}

// GetDeviceID returns the id stored by DeviceID, or "" when the middleware
// did not run.
func GetDeviceID(c *gin.Context) string {
	return c.GetString(ctxKeyDeviceID)
}

// GetDeviceSource reports where the id came from.
func GetDeviceSource(c *gin.Context) device.Source {
	if v, ok := c.Get(ctxKeyDeviceSource); ok {
		if s, ok := v.(device.Source); ok {
			return s
		}
	}
	return ""
}
