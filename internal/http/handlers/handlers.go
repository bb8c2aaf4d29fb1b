// Package handlers exposes the survey HTTP endpoints. Handlers are
// transport-thin: they validate input, call the application services, and
// translate results into HTTP responses.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-survey-backend/internal/device"
	"github.com/tbourn/go-survey-backend/internal/http/middleware"
	"github.com/tbourn/go-survey-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// SubmissionService runs the duplicate check and stores questionnaires.
type SubmissionService interface {
	Status(ctx context.Context, deviceID string) (services.Status, error)
	Submit(ctx context.Context, in services.SubmitInput) (services.SubmitResult, error)
	Replay(ctx context.Context, deviceID, key string) (services.SubmitResult, bool, error)
}

// StatsService builds the dashboard and searches comments.
type StatsService interface {
	Dashboard(ctx context.Context, includeTest *bool) (*services.Dashboard, error)
	ETag(ctx context.Context, includeTest *bool) (string, error)
	SearchComments(ctx context.Context, q string, k int, includeTest *bool) ([]services.CommentHit, error)
}

// SeedService generates synthetic test submissions.
type SeedService interface {
	Generate(ctx context.Context, n int) (services.SeedResult, error)
}

//
// Handler wiring
//

// Options carries the configuration the handlers need.
type Options struct {
	TestMode  bool
	PublicURL string
	QRSize    int
	// SeedCount is the batch size used when ?count= is absent.
	SeedCount int
	// CookieTTL is the lifetime of the device cookie; zero disables it.
	CookieTTL time.Duration
	// SecureCookies marks the device cookie Secure.
	SecureCookies bool
}

// Handlers groups the survey endpoints.
type Handlers struct {
	subSvc   SubmissionService
	statsSvc StatsService
	seedSvc  SeedService
	opts     Options
}

// New constructs Handlers bound to the given services.
func New(sub SubmissionService, st StatsService, seed SeedService, opts Options) *Handlers {
	return &Handlers{subSvc: sub, statsSvc: st, seedSvc: seed, opts: opts}
}

// deviceID returns the id resolved by middleware.DeviceID, resolving it
// here when the middleware is not installed.
func deviceID(c *gin.Context) (string, device.Source) {
	if id := middleware.GetDeviceID(c); id != "" {
		return id, middleware.GetDeviceSource(c)
	}
	return device.FromRequest(c.Request, c.ClientIP())
}

// pinDevice sets the device cookie so the next session from this browser
// resolves to the same id even if its fingerprint changes.
func (h *Handlers) pinDevice(c *gin.Context, id string, src device.Source) {
	if h.opts.CookieTTL <= 0 || id == "" || src == device.SourceCookie {
		return
	}
	http.SetCookie(c.Writer, device.Cookie(id, h.opts.CookieTTL, h.opts.SecureCookies))
}
