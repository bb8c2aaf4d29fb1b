// Statistics HTTP handlers.
//
//   - GET /stats            (dashboard, weak ETag, may return 304)
//   - GET /stats/comments   (comments ranked against a query)
//
// Both accept include_test to override the configured default.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-survey-backend/internal/services"
	"github.com/tbourn/go-survey-backend/internal/utils"
)

const (
	defaultCommentHits = 5
	maxCommentHits     = 50
)

// CommentsResponse wraps ranked comment hits.
type CommentsResponse struct {
	Query string                `json:"query"`
	Hits  []services.CommentHit `json:"hits"`
}

func includeTestParam(c *gin.Context) (*bool, bool) {
	v, err := utils.OptionalBool(c.Query("include_test"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "include_test must be a boolean")
		return nil, false
	}
	return v, true
}

// Stats godoc
// @ID          getStats
// @Summary     Statistics dashboard
// @Description Aggregates every stored submission: per-question average, median, mode, standard deviation and distribution, overall average, respondent counts and comments. state is "no_data" when nothing has been submitted. Supports weak ETag via If-None-Match.
// @Tags        Stats
// @Produce     json
//
// @Param       include_test   query   bool    false "Include test submissions"
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"surveys-12-1738555506789-0\")
//
// @Success     200  {object}  services.Dashboard
// @Header      200  {string}  ETag "Weak ETag for current data"
// @Success     304  {string}  string "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse "Load failed"
// @Failure     503  {object}  handlers.ErrorResponse "Storage timeout"
// @Router      /stats [get]
func (h *Handlers) Stats(c *gin.Context) {
	inc, valid := includeTestParam(c)
	if !valid {
		return
	}
	ctx := c.Request.Context()

	// ETag pre-check (best effort).
	if etag, err := h.statsSvc.ETag(ctx, inc); err == nil {
		c.Header("ETag", etag)
		c.Header("Cache-Control", "no-cache")
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	d, err := h.statsSvc.Dashboard(ctx, inc)
	if err != nil {
		failFromError(c, err, ErrCodeLoadFailed)
		return
	}
	ok(c, http.StatusOK, d)
}

// Comments godoc
// @ID          searchComments
// @Summary     Search comments
// @Description Ranks the free-text suggestions against q by word overlap and returns the best k.
// @Tags        Stats
// @Produce     json
//
// @Param       q             query  string  true  "Search text"   example(horario flexible)
// @Param       k             query  int     false "Max results"   minimum(1) maximum(50) default(5)
// @Param       include_test  query  bool    false "Include test submissions"
//
// @Success     200  {object}  handlers.CommentsResponse
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse "Load failed"
// @Router      /stats/comments [get]
func (h *Handlers) Comments(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "q is required")
		return
	}
	inc, valid := includeTestParam(c)
	if !valid {
		return
	}
	k := utils.Clamp(utils.AtoiDefault(c.Query("k"), defaultCommentHits), 1, maxCommentHits)

	hits, err := h.statsSvc.SearchComments(c.Request.Context(), q, k, inc)
	if err != nil {
		failFromError(c, err, ErrCodeLoadFailed)
		return
	}
	ok(c, http.StatusOK, CommentsResponse{Query: q, Hits: hits})
}
