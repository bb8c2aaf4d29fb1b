package repo

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-survey-backend/internal/domain"
)

// ScopeSurveys is the idempotency scope used for survey submissions.
const ScopeSurveys = "surveys"

// GormStore adapts the repository free functions to the store interfaces
// consumed by the survey flow and the services, so they stay decoupled from
// GORM while reusing the functions above.
type GormStore struct {
	DB *gorm.DB
}

// NewGormStore wraps db.
func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{DB: db} }

// GetDevice proxies GetDevice.
func (s *GormStore) GetDevice(ctx context.Context, deviceID string) (*domain.DeviceRecord, error) {
	return GetDevice(ctx, s.DB, deviceID)
}

// PutDevice proxies PutDevice.
func (s *GormStore) PutDevice(ctx context.Context, rec *domain.DeviceRecord) error {
	return PutDevice(ctx, s.DB, rec)
}

// GetSurvey proxies GetSurvey.
func (s *GormStore) GetSurvey(ctx context.Context, id string) (*domain.SurveyResponse, error) {
	return GetSurvey(ctx, s.DB, id)
}

// PutSurvey proxies PutSurvey.
func (s *GormStore) PutSurvey(ctx context.Context, rec *domain.SurveyResponse) error {
	return PutSurvey(ctx, s.DB, rec)
}

// ListSurveys proxies ListSurveys.
func (s *GormStore) ListSurveys(ctx context.Context, order domain.Order) ([]domain.SurveyResponse, error) {
	return ListSurveys(ctx, s.DB, order)
}

// SurveysStats proxies SurveysStats.
func (s *GormStore) SurveysStats(ctx context.Context) (int64, *time.Time, error) {
	return SurveysStats(ctx, s.DB)
}

// GetReplay returns the survey id stored for a previous submission made by
// deviceID with the same Idempotency-Key. ok is false when there is none.
func (s *GormStore) GetReplay(ctx context.Context, deviceID, key string) (surveyID string, ok bool, err error) {
	rec, err := GetIdempotency(ctx, s.DB, deviceID, ScopeSurveys, key, time.Now().UTC())
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return rec.SurveyID, true, nil
}

// SaveReplay remembers surveyID for (deviceID, key) during ttl. A concurrent
// retry that already stored the key is not an error.
func (s *GormStore) SaveReplay(ctx context.Context, deviceID, key, surveyID string, ttl time.Duration) error {
	_, err := CreateIdempotency(ctx, s.DB, deviceID, ScopeSurveys, key, surveyID, http.StatusCreated, ttl)
	if errors.Is(err, ErrDuplicate) {
		return nil
	}
	return err
}

// HasReplay reports whether a live idempotency record exists. It backs the
// HTTP idempotency validator's replay lookup.
func (s *GormStore) HasReplay(ctx context.Context, deviceID, key string, now time.Time) (bool, error) {
	rec, err := GetIdempotency(ctx, s.DB, deviceID, ScopeSurveys, key, now)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
