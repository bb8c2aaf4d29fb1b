// Package services – SeedService
//
// SeedService fills the store with synthetic test submissions so that the
// dashboard has something to show during a demo. Inserts run concurrently
// and are awaited as one batch; individual failures are only reported in
// aggregate.
package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/go-survey-backend/internal/domain"
	"github.com/tbourn/go-survey-backend/internal/observability"
	"github.com/tbourn/go-survey-backend/internal/survey"
)

const (
	DefaultSeedCount = 10
	MaxSeedCount     = 1000
)

// SurveyWriter is the single write the generator needs.
type SurveyWriter interface {
	PutSurvey(ctx context.Context, rec *domain.SurveyResponse) error
}

// SeedService generates test submissions.
type SeedService struct {
	Store    SurveyWriter
	TestMode bool
	// Concurrency bounds in-flight inserts; zero means one per record.
	Concurrency int

	now func() time.Time
}

// NewSeedService returns a generator writing to store.
func NewSeedService(store SurveyWriter, testMode bool) *SeedService {
	return &SeedService{Store: store, TestMode: testMode, Concurrency: 8, now: time.Now}
}

// SeedResult is the aggregate outcome of Generate. Err joins every insert
// failure and is nil when all succeeded.
type SeedResult struct {
	Requested int      `json:"requested"`
	Inserted  int      `json:"inserted"`
	Failed    int      `json:"failed"`
	IDs       []string `json:"ids"`
	Err       error    `json:"-"`
}

// Generate inserts n records with random answers. It only runs in test mode.
// The returned error is non-nil only when the batch could not start.
func (s *SeedService) Generate(ctx context.Context, n int) (SeedResult, error) {
	if !s.TestMode {
		return SeedResult{}, ErrTestModeDisabled
	}
	if n == 0 {
		n = DefaultSeedCount
	}
	if n < 1 || n > MaxSeedCount {
		return SeedResult{}, ErrInvalidCount
	}

	tr := otel.Tracer("services/SeedService")
	ctx, span := tr.Start(ctx, "Generate")
	span.SetAttributes(attribute.Int("seed.count", n))
	defer span.End()

	now := time.Now
	if s.now != nil {
		now = s.now
	}

	var (
		g        errgroup.Group
		inserted atomic.Int64
		mu       sync.Mutex
		errs     []error
		ids      []string
	)
	if s.Concurrency > 0 {
		g.SetLimit(s.Concurrency)
	}
	for range n {
		g.Go(func() error {
			ts := now().UTC().Truncate(time.Millisecond)
			rec := &domain.SurveyResponse{
				ID:               survey.NewID(ts),
				Questions:        randomAnswers(),
				Timestamp:        ts,
				DeviceID:         survey.NewTestDeviceID(ts),
				IsTestSubmission: true,
			}
			if err := s.Store.PutSurvey(ctx, rec); err != nil {
				observability.SeedRecords.WithLabelValues(observability.ResultError).Inc()
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return nil
			}
			inserted.Add(1)
			observability.SeedRecords.WithLabelValues(observability.ResultOK).Inc()
			mu.Lock()
			ids = append(ids, rec.ID)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	res := SeedResult{
		Requested: n,
		Inserted:  int(inserted.Load()),
		Failed:    len(errs),
		IDs:       ids,
		Err:       errors.Join(errs...),
	}
	if res.IDs == nil {
		res.IDs = []string{}
	}
	span.SetAttributes(attribute.Int("seed.inserted", res.Inserted), attribute.Int("seed.failed", res.Failed))
	return res, nil
}

func randomAnswers() []string {
	out := make([]string, domain.NumQuestions)
	for i := range out {
		out[i] = strconv.Itoa(domain.MinScore + rand.IntN(domain.MaxScore-domain.MinScore+1))
	}
	return out
}
