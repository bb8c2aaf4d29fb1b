// Package services – SubmissionService
//
// SubmissionService runs the survey flow on behalf of a transport. Each call
// builds a fresh survey.Flow for the caller's device, so the HTTP API and
// the terminal client share the exact same state machine: duplicate gate,
// step validation, and the two sequential writes.
//
// Observability: public methods open OpenTelemetry spans and update the
// survey_* Prometheus counters.
package services

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-survey-backend/internal/domain"
	"github.com/tbourn/go-survey-backend/internal/observability"
	"github.com/tbourn/go-survey-backend/internal/survey"
)

// DefaultMaxSuggestionRunes caps the free-text comment.
const DefaultMaxSuggestionRunes = 2000

// ReplayStore remembers the survey id created for an Idempotency-Key. Only
// the SQL backend implements it.
type ReplayStore interface {
	GetReplay(ctx context.Context, deviceID, key string) (surveyID string, ok bool, err error)
	SaveReplay(ctx context.Context, deviceID, key, surveyID string, ttl time.Duration) error
}

// SubmissionService submits questionnaires and reports device status.
type SubmissionService struct {
	Store    survey.Store
	Replays  ReplayStore // optional
	TestMode bool

	// ReplayTTL bounds how long an Idempotency-Key is honoured.
	ReplayTTL time.Duration
	// Timeout bounds each operation's store calls; zero means none.
	Timeout time.Duration
	// MaxSuggestionRunes caps the comment length; zero means no cap.
	MaxSuggestionRunes int
}

// NewSubmissionService wires store and, when it supports replays, enables
// idempotent resubmission.
func NewSubmissionService(store survey.Store, testMode bool) *SubmissionService {
	s := &SubmissionService{
		Store:              store,
		TestMode:           testMode,
		ReplayTTL:          24 * time.Hour,
		MaxSuggestionRunes: DefaultMaxSuggestionRunes,
	}
	if rs, ok := store.(ReplayStore); ok {
		s.Replays = rs
	}
	return s
}

// Status is the outcome of the Checking phase for a device.
type Status struct {
	DeviceID    string       `json:"device_id"`
	State       survey.State `json:"-"`
	StateName   string       `json:"state"`
	TestMode    bool         `json:"test_mode"`
	GateWarning string       `json:"gate_warning,omitempty"`
}

// SubmitInput is one complete questionnaire.
type SubmitInput struct {
	DeviceID       string
	Answers        []string
	Suggestions    string
	IdempotencyKey string
}

// SubmitResult describes a stored submission.
type SubmitResult struct {
	SurveyID       string `json:"survey_id"`
	TestSubmission bool   `json:"test_submission"`
	Replayed       bool   `json:"-"`
}

func (s *SubmissionService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Timeout > 0 {
		return context.WithTimeout(ctx, s.Timeout)
	}
	return context.WithCancel(ctx)
}

func staticDevice(id string) survey.Resolver {
	return survey.ResolverFunc(func(context.Context) (string, error) {
		if id == "" {
			return "", errors.New("no device id on request")
		}
		return id, nil
	})
}

// Status runs the duplicate check for deviceID.
func (s *SubmissionService) Status(ctx context.Context, deviceID string) (Status, error) {
	tr := otel.Tracer("services/SubmissionService")
	ctx, span := tr.Start(ctx, "Status", trace.WithAttributes(
		attribute.String("device.id", deviceID),
		attribute.Bool("survey.test_mode", s.TestMode),
	))
	defer span.End()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	f := survey.New(s.Store, staticDevice(deviceID), survey.WithTestMode(s.TestMode))
	if err := f.Start(ctx); err != nil {
		return Status{}, err
	}
	st := Status{DeviceID: deviceID, State: f.State(), StateName: f.State().String(), TestMode: s.TestMode}
	if ge := f.GateErr(); ge != nil {
		st.GateWarning = ge.Error()
	}
	span.SetAttributes(attribute.String("survey.state", st.StateName))
	return st, nil
}

// Replay returns the result stored for a submission already made with
// (deviceID, key). found is false when no replay store is configured, either
// argument is empty, or the key is unknown or expired.
func (s *SubmissionService) Replay(ctx context.Context, deviceID, key string) (res SubmitResult, found bool, err error) {
	if s.Replays == nil || deviceID == "" || key == "" {
		return SubmitResult{}, false, nil
	}
	id, ok, err := s.Replays.GetReplay(ctx, deviceID, key)
	if err != nil || !ok {
		return SubmitResult{}, false, err
	}
	observability.SurveySubmissions.WithLabelValues(observability.Mode(s.TestMode), observability.ResultReplayed).Inc()
	return SubmitResult{SurveyID: id, TestSubmission: s.TestMode, Replayed: true}, true, nil
}

// Submit validates and stores a questionnaire. Errors:
//   - ErrAlreadySubmitted when the device is blocked
//   - *survey.ValidationError for a missing or invalid answer (with its step)
//   - *survey.PersistenceError when a store write fails
func (s *SubmissionService) Submit(ctx context.Context, in SubmitInput) (SubmitResult, error) {
	tr := otel.Tracer("services/SubmissionService")
	ctx, span := tr.Start(ctx, "Submit", trace.WithAttributes(
		attribute.String("device.id", in.DeviceID),
		attribute.Bool("survey.test_mode", s.TestMode),
		attribute.Bool("idempotency.key_present", in.IdempotencyKey != ""),
	))
	defer span.End()

	logger := zerolog.Ctx(ctx)
	if logger.GetLevel() == zerolog.Disabled {
		logger = &log.Logger
	}
	mode := observability.Mode(s.TestMode)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if res, ok, err := s.Replay(ctx, in.DeviceID, in.IdempotencyKey); err != nil {
		logger.Warn().Err(err).Msg("idempotency lookup failed")
	} else if ok {
		return res, nil
	}

	if s.TestMode && in.DeviceID == "" {
		in.DeviceID = survey.NewTestDeviceID(time.Now())
	}
	if err := s.validateShape(in); err != nil {
		observability.SurveySubmissions.WithLabelValues(mode, observability.ResultInvalid).Inc()
		return SubmitResult{}, err
	}

	f := survey.New(s.Store, staticDevice(in.DeviceID), survey.WithTestMode(s.TestMode))
	if err := f.Start(ctx); err != nil {
		return SubmitResult{}, err
	}
	if f.State() == survey.StateBlocked {
		observability.DuplicatesBlocked.Inc()
		observability.SurveySubmissions.WithLabelValues(mode, observability.ResultBlocked).Inc()
		return SubmitResult{}, ErrAlreadySubmitted
	}

	for _, a := range in.Answers {
		if err := f.Answer(a); err != nil {
			observability.SurveySubmissions.WithLabelValues(mode, observability.ResultInvalid).Inc()
			return SubmitResult{}, err
		}
		if err := f.Next(); err != nil {
			observability.SurveySubmissions.WithLabelValues(mode, observability.ResultInvalid).Inc()
			return SubmitResult{}, err
		}
	}
	if err := f.Answer(in.Suggestions); err != nil {
		return SubmitResult{}, err
	}

	id, err := f.Submit(ctx)
	if err != nil {
		observability.SurveySubmissions.WithLabelValues(mode, observability.ResultError).Inc()
		observability.FailSpan(span, err, "submit failed")
		logger.Error().Err(err).Str("device_id", in.DeviceID).Msg("survey submit failed")
		return SubmitResult{}, err
	}
	observability.SurveySubmissions.WithLabelValues(mode, observability.ResultOK).Inc()
	span.SetAttributes(attribute.String("survey.id", id))

	if s.Replays != nil && in.IdempotencyKey != "" && in.DeviceID != "" {
		if err := s.Replays.SaveReplay(ctx, in.DeviceID, in.IdempotencyKey, id, s.ReplayTTL); err != nil {
			logger.Warn().Err(err).Str("survey_id", id).Msg("idempotency save failed")
		}
	}
	logger.Info().Str("survey_id", id).Bool("test", s.TestMode).Msg("survey submitted")
	return SubmitResult{SurveyID: id, TestSubmission: s.TestMode}, nil
}

func (s *SubmissionService) validateShape(in SubmitInput) error {
	if n := len(in.Answers); n != domain.NumQuestions {
		step := n
		if n > domain.NumQuestions {
			step = survey.CommentStep
		}
		return &survey.ValidationError{Step: step, Reason: domain.ErrWrongAnswerCount}
	}
	if s.MaxSuggestionRunes > 0 && utf8.RuneCountInString(in.Suggestions) > s.MaxSuggestionRunes {
		return &survey.ValidationError{Step: survey.CommentStep, Reason: ErrSuggestionsTooLong}
	}
	return nil
}
