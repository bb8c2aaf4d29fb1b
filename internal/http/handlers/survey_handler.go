// Survey HTTP handlers.
//
// This file exposes the respondent-facing endpoints:
//   - GET  /survey/questions   (localized questionnaire)
//   - GET  /survey/status      (duplicate check for the caller's device)
//   - POST /surveys            (submit a complete questionnaire)
//
// Idempotency:
// A retried POST carrying the same Idempotency-Key returns the original
// survey id with `Idempotency-Replayed: true` instead of 409.
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-survey-backend/internal/domain"
	"github.com/tbourn/go-survey-backend/internal/http/middleware"
	"github.com/tbourn/go-survey-backend/internal/services"
)

//
// DTOs
//

// Answer is one Likert score. Clients may send it as a JSON number or
// string; it is kept as text and validated by the survey flow.
type Answer string

// UnmarshalJSON accepts 7 as well as "7".
func (a *Answer) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Answer(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*a = Answer(n.String())
	return nil
}

// SubmitSurveyRequest is the JSON payload of POST /surveys.
type SubmitSurveyRequest struct {
	// Answers to questions P1..P10, each an integer from 1 to 10.
	Answers []Answer `json:"answers" swaggertype:"array,string" example:"8,7,9,6,8,7,9,8,7,8"`
	// Suggestions is the optional free-text comment.
	Suggestions string `json:"suggestions" example:"Más formación, por favor"`
}

// SubmitSurveyResponse is returned by POST /surveys.
type SubmitSurveyResponse struct {
	SurveyID       string `json:"survey_id" example:"1738555506789-Kd8sPq2Zx"`
	TestSubmission bool   `json:"test_submission" example:"false"`
}

//
// Handlers
//

// Questions godoc
// @ID          getQuestions
// @Summary     Get the questionnaire
// @Description Returns the localized questions, comment prompt and scale. The language is taken from ?lang= or Accept-Language; Spanish is the default.
// @Tags        Survey
// @Produce     json
//
// @Param       lang             query   string  false "Language tag"          example(en)
// @Param       Accept-Language  header  string  false "Preferred languages"   example(es-ES,es;q=0.9)
//
// @Success     200  {object}  domain.Catalog
// @Router      /survey/questions [get]
func (h *Handlers) Questions(c *gin.Context) {
	tag := domain.NegotiateLanguage(c.GetHeader("Accept-Language"), c.Query("lang"))
	c.Header("Content-Language", tag.String())
	c.Header("Vary", "Accept-Language")
	ok(c, http.StatusOK, domain.LoadCatalog(tag))
}

// Status godoc
// @ID          getSurveyStatus
// @Summary     Check whether this device may answer
// @Description Runs the duplicate check for the caller's device. state is "blocked" when the device already submitted outside test mode. A failed check fails open and reports gate_warning.
// @Tags        Survey
// @Produce     json
//
// @Param       X-Device-ID  header  string  false "Stable device id chosen by the client"  example(3f0c2b7e-device)
//
// @Success     200  {object}  services.Status
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /survey/status [get]
func (h *Handlers) Status(c *gin.Context) {
	id, src := deviceID(c)
	st, err := h.subSvc.Status(c.Request.Context(), id)
	if err != nil {
		failFromError(c, err, ErrCodeInternal)
		return
	}
	h.pinDevice(c, id, src)
	ok(c, http.StatusOK, st)
}

// SubmitSurvey godoc
// @ID          submitSurvey
// @Summary     Submit the questionnaire
// @Description Validates and stores ten answers plus an optional comment. Outside test mode the device is then blocked from submitting again.
// @Tags        Survey
// @Accept      json
// @Produce     json
//
// @Param       X-Device-ID      header  string  false "Stable device id chosen by the client"  example(3f0c2b7e-device)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"       example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.SubmitSurveyRequest  true  "Answers"
//
// @Success     201  {object}  handlers.SubmitSurveyResponse
// @Success     200  {object}  handlers.SubmitSurveyResponse "Idempotent replay"
// @Header      200  {string}  Idempotency-Replayed "true on replay"
// @Failure     400  {object}  handlers.ErrorResponse "Validation failed"
// @Failure     409  {object}  handlers.ErrorResponse "Already submitted"
// @Failure     429  {object}  handlers.ErrorResponse "Too many requests"
// @Failure     500  {object}  handlers.ErrorResponse "Submission failed"
// @Failure     503  {object}  handlers.ErrorResponse "Storage timeout"
// @Router      /surveys [post]
func (h *Handlers) SubmitSurvey(c *gin.Context) {
	id, src := deviceID(c)
	key, _ := middleware.GetIdempotencyKey(c)

	// A retry the idempotency middleware already matched skips decoding.
	if middleware.IsReplay(c) {
		res, found, err := h.subSvc.Replay(c.Request.Context(), id, key)
		if err == nil && found {
			h.pinDevice(c, id, src)
			c.Header("Idempotency-Replayed", "true")
			ok(c, http.StatusOK, SubmitSurveyResponse{SurveyID: res.SurveyID, TestSubmission: res.TestSubmission})
			return
		}
	}

	var req SubmitSurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	answers := make([]string, len(req.Answers))
	for i, a := range req.Answers {
		answers[i] = string(a)
	}

	res, err := h.subSvc.Submit(c.Request.Context(), services.SubmitInput{
		DeviceID:       id,
		Answers:        answers,
		Suggestions:    req.Suggestions,
		IdempotencyKey: key,
	})
	if err != nil {
		failFromError(c, err, ErrCodeSubmitFailed)
		return
	}

	h.pinDevice(c, id, src)
	body := SubmitSurveyResponse{SurveyID: res.SurveyID, TestSubmission: res.TestSubmission}
	if res.Replayed {
		c.Header("Idempotency-Replayed", "true")
		ok(c, http.StatusOK, body)
		return
	}
	ok(c, http.StatusCreated, body)
}
