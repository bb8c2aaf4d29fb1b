// Package services – StatsService
//
// StatsService loads every stored survey, filters and validates it, and hands
// the result to the pure stats aggregator. Every call re-fetches the whole
// collection: there is no caching and no incremental update.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ecodeclub/ekit/slice"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/go-survey-backend/internal/domain"
	"github.com/tbourn/go-survey-backend/internal/observability"
	"github.com/tbourn/go-survey-backend/internal/search"
	"github.com/tbourn/go-survey-backend/internal/stats"
	"github.com/tbourn/go-survey-backend/internal/survey"
)

// Dashboard states.
const (
	DashboardOK     = "ok"
	DashboardNoData = "no_data"
)

// SurveyReader is the read side of the survey store.
type SurveyReader interface {
	ListSurveys(ctx context.Context, order domain.Order) ([]domain.SurveyResponse, error)
	SurveysStats(ctx context.Context) (count int64, latest *time.Time, err error)
}

// StatsService builds the statistics dashboard.
type StatsService struct {
	Store SurveyReader

	// IncludeTestDefault applies when the caller does not choose.
	IncludeTestDefault bool
	Timeout            time.Duration

	now func() time.Time
}

// NewStatsService returns a StatsService reading from store.
func NewStatsService(store SurveyReader, includeTestDefault bool) *StatsService {
	return &StatsService{Store: store, IncludeTestDefault: includeTestDefault, now: time.Now}
}

// Comment is a non-blank suggestion shown under the charts.
type Comment struct {
	SurveyID  string    `json:"survey_id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Test      bool      `json:"test"`
}

// Dashboard is the full statistics view. Summary is nil when State is no_data.
type Dashboard struct {
	State       string         `json:"state"`
	IncludeTest bool           `json:"include_test"`
	Summary     *stats.Summary `json:"summary,omitempty"`
	Comments    []Comment      `json:"comments"`
	Skipped     int            `json:"skipped"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// CommentHit is a ranked comment search result.
type CommentHit struct {
	Comment
	Score float64 `json:"score"`
}

func (s *StatsService) includeTest(v *bool) bool {
	if v != nil {
		return *v
	}
	return s.IncludeTestDefault
}

func (s *StatsService) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// load fetches all surveys newest first, drops malformed ones and, unless
// includeTest, test submissions.
func (s *StatsService) load(ctx context.Context, includeTest bool) ([]domain.SurveyResponse, int, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	logger := zerolog.Ctx(ctx)
	if logger.GetLevel() == zerolog.Disabled {
		logger = &log.Logger
	}

	skipped := 0
	all, err := s.Store.ListSurveys(ctx, domain.Descending)
	var undecodable *domain.DecodeError
	if errors.As(err, &undecodable) {
		skipped = len(undecodable.IDs)
		logger.Warn().Err(undecodable.Err).Strs("survey_ids", undecodable.IDs).Msg("skipping undecodable survey records")
		err = nil
	}
	if err != nil {
		return nil, 0, &survey.PersistenceError{Op: "list_surveys", Err: err}
	}

	kept := make([]domain.SurveyResponse, 0, len(all))
	for _, r := range all {
		if !includeTest && r.IsTestSubmission {
			continue
		}
		if err := r.Validate(); err != nil {
			skipped++
			logger.Warn().Err(err).Str("survey_id", r.ID).Msg("skipping malformed survey record")
			continue
		}
		kept = append(kept, r)
	}
	return kept, skipped, nil
}

// Dashboard computes the statistics. includeTest nil selects the default.
// A store failure is returned as *survey.PersistenceError; an empty
// collection is not an error and yields State no_data.
func (s *StatsService) Dashboard(ctx context.Context, includeTest *bool) (*Dashboard, error) {
	inc := s.includeTest(includeTest)
	tr := otel.Tracer("services/StatsService")
	ctx, span := tr.Start(ctx, "Dashboard")
	span.SetAttributes(attribute.Bool("stats.include_test", inc))
	defer span.End()

	rows, skipped, err := s.load(ctx, inc)
	if err != nil {
		observability.StatsLoads.WithLabelValues(observability.ResultError).Inc()
		observability.FailSpan(span, err, "load failed")
		return nil, err
	}

	d := &Dashboard{
		State:       DashboardOK,
		IncludeTest: inc,
		Comments:    comments(rows),
		Skipped:     skipped,
		GeneratedAt: s.clock().UTC(),
	}

	records, _ := stats.FromResponses(rows)
	sum, err := stats.Compute(records)
	switch {
	case errors.Is(err, stats.ErrNoData):
		d.State = DashboardNoData
		observability.StatsLoads.WithLabelValues(observability.ResultNoData).Inc()
	case err != nil:
		return nil, err
	default:
		d.Summary = &sum
		observability.StatsLoads.WithLabelValues(observability.ResultOK).Inc()
	}
	span.SetAttributes(attribute.Int("stats.responses", len(records)), attribute.String("stats.state", d.State))
	return d, nil
}

// comments keeps the order of rows, which load returns newest first.
func comments(rows []domain.SurveyResponse) []Comment {
	out := make([]Comment, 0, len(rows))
	for _, r := range rows {
		text := strings.TrimSpace(r.Suggestions)
		if text == "" {
			continue
		}
		out = append(out, Comment{SurveyID: r.ID, Text: text, Timestamp: r.Timestamp, Test: r.IsTestSubmission})
	}
	return out
}

// SearchComments ranks the stored comments against q and returns at most k hits.
func (s *StatsService) SearchComments(ctx context.Context, q string, k int, includeTest *bool) ([]CommentHit, error) {
	inc := s.includeTest(includeTest)
	tr := otel.Tracer("services/StatsService")
	ctx, span := tr.Start(ctx, "SearchComments")
	span.SetAttributes(attribute.Int("search.k", k), attribute.Int("search.query_len", len(q)))
	defer span.End()

	rows, _, err := s.load(ctx, inc)
	if err != nil {
		observability.FailSpan(span, err, "load failed")
		return nil, err
	}
	cs := comments(rows)
	byID := make(map[string]Comment, len(cs))
	for _, c := range cs {
		byID[c.SurveyID] = c
	}
	idx := search.New(
		slice.Map(cs, func(_ int, c Comment) search.Document { return search.Document{ID: c.SurveyID, Text: c.Text} }),
		search.WithStopwords(search.DefaultStopwords),
	)
	hits := slice.Map(idx.TopK(q, k), func(_ int, r search.Result) CommentHit {
		return CommentHit{Comment: byID[r.ID], Score: r.Score}
	})
	return hits, nil
}

// ETag returns a weak validator for the dashboard. It changes whenever a
// survey is added or the test filter differs.
func (s *StatsService) ETag(ctx context.Context, includeTest *bool) (string, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	count, latest, err := s.Store.SurveysStats(ctx)
	if err != nil {
		return "", &survey.PersistenceError{Op: "surveys_stats", Err: err}
	}
	var ms int64
	if latest != nil {
		ms = latest.UnixMilli()
	}
	flag := 0
	if s.includeTest(includeTest) {
		flag = 1
	}
	return fmt.Sprintf(`W/"surveys-%d-%d-%d"`, count, ms, flag), nil
}
