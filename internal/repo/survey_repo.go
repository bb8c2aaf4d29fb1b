// Package repo implements the SQL persistence layer for survey records,
// backed by GORM. This file provides repository functions for the
// SurveyResponse model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only persistence
// and query composition.
//
// Error semantics:
//   - A missing row is reported as ErrNotFound (domain.ErrNotFound), so
//     callers can test for it without knowing which backend is configured.
//   - On other DB errors the raw gorm error is propagated.
//
// Functions:
//
//   - PutSurvey(ctx, db, rec) -> error
//     Upserts a survey by id.
//
//   - GetSurvey(ctx, db, id) -> *domain.SurveyResponse, error
//     Fetches a survey by id, or ErrNotFound.
//
//   - ListSurveys(ctx, db, order) -> []domain.SurveyResponse, error
//     Returns every survey ordered by timestamp. Rows whose questions
//     column is not valid JSON are skipped and reported in a
//     *domain.DecodeError returned next to the decoded rows.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-survey-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = domain.ErrNotFound

// PutSurvey inserts rec, replacing every column if the id already exists.
func PutSurvey(ctx context.Context, db *gorm.DB, rec *domain.SurveyResponse) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(rec).Error
}

// GetSurvey fetches a single survey by id. If the record does not exist it
// returns ErrNotFound.
func GetSurvey(ctx context.Context, db *gorm.DB, id string) (*domain.SurveyResponse, error) {
	var s domain.SurveyResponse
	err := db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// surveyRow is the raw shape of a surveys row. Questions stays a string so
// one bad row cannot fail the serializer for the whole result set.
type surveyRow struct {
	ID               string
	Questions        string
	Suggestions      string
	Timestamp        time.Time
	DeviceID         string
	IsTestSubmission bool
}

func (surveyRow) TableName() string { return "surveys" }

func (r surveyRow) decode() (domain.SurveyResponse, error) {
	var qs []string
	if err := json.Unmarshal([]byte(r.Questions), &qs); err != nil {
		return domain.SurveyResponse{}, err
	}
	return domain.SurveyResponse{
		ID:               r.ID,
		Questions:        qs,
		Suggestions:      r.Suggestions,
		Timestamp:        r.Timestamp,
		DeviceID:         r.DeviceID,
		IsTestSubmission: r.IsTestSubmission,
	}, nil
}

// ListSurveys returns all surveys ordered by timestamp, newest first for
// domain.Descending. Ties are broken by id so the order is stable. It returns
// an empty slice when the table is empty. Rows that cannot be decoded are left
// out and their ids returned in a *domain.DecodeError alongside the rest.
func ListSurveys(ctx context.Context, db *gorm.DB, order domain.Order) ([]domain.SurveyResponse, error) {
	desc := order != domain.Ascending
	rows, err := db.WithContext(ctx).
		Model(&surveyRow{}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: desc}).
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.SurveyResponse, 0)
	var bad *domain.DecodeError
	for rows.Next() {
		var raw surveyRow
		if err := db.ScanRows(rows, &raw); err != nil {
			return nil, err
		}
		rec, err := raw.decode()
		if err != nil {
			bad = bad.Add(raw.ID, err)
			continue
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, bad.OrNil()
}
