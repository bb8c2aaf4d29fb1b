// Package survey implements the step-wise submission flow as an explicit
// state machine:
//
//	Checking -> Blocked
//	Checking -> Active(0) <-> Active(1) ... Active(N) -> Submitting -> Completed
//
// Steps 0..N-1 are the Likert questions and step N is the optional comment.
// Answers live in memory until Submit, which writes the SurveyResponse and,
// outside test mode, the DeviceRecord that blocks later submissions from the
// same device.
//
// A Flow serves a single respondent and is not safe for concurrent use.
package survey

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-survey-backend/internal/domain"
)

// State is the flow's coarse state.
type State int

const (
	StateChecking State = iota
	StateBlocked
	StateActive
	StateSubmitting
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateChecking:
		return "checking"
	case StateBlocked:
		return "blocked"
	case StateActive:
		return "active"
	case StateSubmitting:
		return "submitting"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// CommentStep is the index of the trailing free-text step.
const CommentStep = domain.NumQuestions

// ErrAnswerRequired is the ValidationError reason for an empty answer.
var ErrAnswerRequired = errors.New("answer is required")

// Store is the persistence the flow needs.
type Store interface {
	GetDevice(ctx context.Context, deviceID string) (*domain.DeviceRecord, error)
	PutSurvey(ctx context.Context, rec *domain.SurveyResponse) error
	PutDevice(ctx context.Context, rec *domain.DeviceRecord) error
}

// Resolver yields a stable identifier for the respondent's device.
type Resolver interface {
	ResolveDeviceID(ctx context.Context) (string, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context) (string, error)

// ResolveDeviceID calls f.
func (f ResolverFunc) ResolveDeviceID(ctx context.Context) (string, error) { return f(ctx) }

// Option customises a Flow.
type Option func(*Flow)

// WithTestMode marks submissions as test submissions and disables the
// duplicate gate.
func WithTestMode(on bool) Option { return func(f *Flow) { f.testMode = on } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(f *Flow) { f.now = now } }

// WithIDGenerator overrides NewID.
func WithIDGenerator(gen func(time.Time) string) Option { return func(f *Flow) { f.newID = gen } }

// Flow is one respondent's pass through the questionnaire.
type Flow struct {
	store    Store
	resolver Resolver
	now      func() time.Time
	newID    func(time.Time) string

	state       State
	step        int
	answers     [domain.NumQuestions]string
	suggestions string
	testMode    bool
	deviceID    string
	surveyID    string
	gateErr     error
}

// New returns a flow in the Checking state. Call Start before anything else.
func New(store Store, resolver Resolver, opts ...Option) *Flow {
	f := &Flow{
		store:    store,
		resolver: resolver,
		now:      time.Now,
		newID:    NewID,
		state:    StateChecking,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Start resolves the device id and runs the duplicate check, moving to
// Blocked or Active(0). Resolution or lookup failures fail open: the flow
// becomes Active and GateErr reports what went wrong.
func (f *Flow) Start(ctx context.Context) error {
	if f.state != StateChecking {
		return ErrInvalidTransition
	}
	logger := loggerFrom(ctx)

	id, err := f.resolve(ctx)
	if err != nil {
		f.gateErr = &IdentifierResolutionError{Err: err}
		logger.Warn().Err(err).Msg("device id unavailable; duplicate check skipped")
		f.activate()
		return nil
	}
	f.deviceID = id

	if f.testMode {
		f.activate()
		return nil
	}

	if _, err := f.store.GetDevice(ctx, id); err == nil {
		f.state = StateBlocked
		logger.Info().Str("device_id", id).Msg("device already submitted")
		return nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		f.gateErr = &PersistenceError{Op: "get_device", Err: err}
		logger.Warn().Err(err).Str("device_id", id).Msg("duplicate check failed; continuing")
	}
	f.activate()
	return nil
}

func (f *Flow) resolve(ctx context.Context) (string, error) {
	if f.resolver == nil {
		return "", errors.New("no device resolver configured")
	}
	id, err := f.resolver.ResolveDeviceID(ctx)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(id) == "" {
		return "", errors.New("empty device id")
	}
	return id, nil
}

func (f *Flow) activate() {
	f.state = StateActive
	f.step = 0
}

// Answer records the value for the current step. On question steps the
// value must be an integer in [1,10]; on the comment step any text,
// including none, is accepted and kept byte for byte.
func (f *Flow) Answer(value string) error {
	if err := f.requireActive(); err != nil {
		return err
	}
	if f.step == CommentStep {
		f.suggestions = value
		return nil
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return &ValidationError{Step: f.step, Reason: ErrAnswerRequired}
	}
	v, err := domain.ParseScore(value)
	if err != nil {
		return &ValidationError{Step: f.step, Reason: err}
	}
	f.answers[f.step] = strconv.Itoa(v)
	return nil
}

// Next advances to the following step. A question step must be answered.
// The comment step is last; use Submit from there.
func (f *Flow) Next() error {
	if err := f.requireActive(); err != nil {
		return err
	}
	if f.step == CommentStep {
		return ErrInvalidTransition
	}
	if f.answers[f.step] == "" {
		return &ValidationError{Step: f.step, Reason: ErrAnswerRequired}
	}
	f.step++
	return nil
}

// Back returns to the previous step, keeping every answer.
func (f *Flow) Back() error {
	if err := f.requireActive(); err != nil {
		return err
	}
	if f.step == 0 {
		return ErrInvalidTransition
	}
	f.step--
	return nil
}

// Submit persists the response from the comment step. On failure the flow
// stays Active on the comment step with all answers intact and the error is
// a *PersistenceError.
func (f *Flow) Submit(ctx context.Context) (string, error) {
	if err := f.requireActive(); err != nil {
		return "", err
	}
	if f.step != CommentStep {
		return "", ErrInvalidTransition
	}
	for i, a := range f.answers {
		if a == "" {
			return "", &ValidationError{Step: i, Reason: ErrAnswerRequired}
		}
	}

	f.state = StateSubmitting
	now := f.now().UTC().Truncate(time.Millisecond)
	rec := &domain.SurveyResponse{
		ID:               f.newID(now),
		Questions:        f.Answers(),
		Suggestions:      f.suggestions,
		Timestamp:        now,
		DeviceID:         f.deviceID,
		IsTestSubmission: f.testMode,
	}
	if err := f.store.PutSurvey(ctx, rec); err != nil {
		f.state = StateActive
		return "", &PersistenceError{Op: "put_survey", Err: err}
	}
	// Without a device id there is nothing to key the gate on.
	if !f.testMode && f.deviceID != "" {
		dev := &domain.DeviceRecord{DeviceID: f.deviceID, LastSubmission: now, SurveyID: rec.ID}
		if err := f.store.PutDevice(ctx, dev); err != nil {
			f.state = StateActive
			return "", &PersistenceError{Op: "put_device", Err: err}
		}
	}
	f.state = StateCompleted
	f.surveyID = rec.ID
	return rec.ID, nil
}

// Reset starts another round after a completed test-mode submission.
func (f *Flow) Reset() error {
	if f.state == StateBlocked {
		return ErrBlocked
	}
	if f.state != StateCompleted || !f.testMode {
		return ErrInvalidTransition
	}
	f.answers = [domain.NumQuestions]string{}
	f.suggestions = ""
	f.surveyID = ""
	f.activate()
	return nil
}

func (f *Flow) requireActive() error {
	switch f.state {
	case StateActive:
		return nil
	case StateBlocked:
		return ErrBlocked
	default:
		return ErrInvalidTransition
	}
}

// State returns the current state.
func (f *Flow) State() State { return f.state }

// Step returns the current step, meaningful while Active.
func (f *Flow) Step() int { return f.step }

// Answers returns a copy of the question answers ("" when unanswered).
func (f *Flow) Answers() []string {
	out := make([]string, domain.NumQuestions)
	copy(out, f.answers[:])
	return out
}

func (f *Flow) Suggestions() string { return f.suggestions }
func (f *Flow) DeviceID() string    { return f.deviceID }
func (f *Flow) TestMode() bool      { return f.testMode }

// SurveyID is the id written by the last successful Submit.
func (f *Flow) SurveyID() string { return f.surveyID }

// GateErr is non-nil when Start could not establish duplicate status.
func (f *Flow) GateErr() error { return f.gateErr }

func loggerFrom(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		return &log.Logger
	}
	return l
}
