// Admin and sharing HTTP handlers.
//
//   - POST /admin/test-data   (seed synthetic submissions, test mode only)
//   - GET  /qr                (QR code for the public survey URL)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-survey-backend/internal/qr"
	"github.com/tbourn/go-survey-backend/internal/services"
	"github.com/tbourn/go-survey-backend/internal/utils"
)

// SeedResponse reports a seeding batch.
type SeedResponse struct {
	Requested int      `json:"requested" example:"10"`
	Inserted  int      `json:"inserted" example:"10"`
	Failed    int      `json:"failed" example:"0"`
	IDs       []string `json:"ids"`
	Error     string   `json:"error,omitempty"`
}

// SeedTestData godoc
// @ID          seedTestData
// @Summary     Generate test submissions
// @Description Inserts count synthetic submissions with random answers, concurrently. Only available in test mode. Partial failure is reported in aggregate.
// @Tags        Admin
// @Produce     json
//
// @Param       count  query  int  false "Number of records"  minimum(1) maximum(1000) default(10)
//
// @Success     201  {object}  handlers.SeedResponse "All inserted"
// @Success     207  {object}  handlers.SeedResponse "Partial failure"
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse "Test mode disabled"
// @Failure     500  {object}  handlers.ErrorResponse "Every insert failed"
// @Router      /admin/test-data [post]
func (h *Handlers) SeedTestData(c *gin.Context) {
	def := h.opts.SeedCount
	if def <= 0 {
		def = services.DefaultSeedCount
	}
	n := utils.AtoiDefault(c.Query("count"), def)
	res, err := h.seedSvc.Generate(c.Request.Context(), n)
	if err != nil {
		failFromError(c, err, ErrCodeSeedFailed)
		return
	}

	body := SeedResponse{Requested: res.Requested, Inserted: res.Inserted, Failed: res.Failed, IDs: res.IDs}
	if res.Err != nil {
		body.Error = res.Err.Error()
	}
	switch {
	case res.Failed == 0:
		ok(c, http.StatusCreated, body)
	case res.Inserted == 0:
		fail(c, http.StatusInternalServerError, ErrCodeSeedFailed, body.Error)
	default:
		ok(c, http.StatusMultiStatus, body)
	}
}

// QR godoc
// @ID          getQR
// @Summary     QR code for the survey
// @Description Renders the configured public survey URL as a PNG QR code (error correction High). download=1 sends it as an attachment named survey-qr.png.
// @Tags        Survey
// @Produce     png
//
// @Param       size      query  int   false "Pixels per side"  minimum(64) maximum(2048) default(200)
// @Param       download  query  bool  false "Send as attachment"
//
// @Success     200  {file}    binary
// @Failure     500  {object}  handlers.ErrorResponse "Rendering failed"
// @Router      /qr [get]
func (h *Handlers) QR(c *gin.Context) {
	size := qr.ClampSize(utils.AtoiDefault(c.Query("size"), h.opts.QRSize))
	png, err := qr.PNG(h.opts.PublicURL, size)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeQRFailed, err.Error())
		return
	}
	if dl, _ := utils.OptionalBool(c.Query("download")); dl != nil && *dl {
		c.Header("Content-Disposition", `attachment; filename="`+qr.Filename+`"`)
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "image/png", png)
}
