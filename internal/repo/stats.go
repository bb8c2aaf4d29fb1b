// Package repo implements the SQL persistence layer for survey records,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-survey-backend/internal/domain"
)

// SurveysStats returns the total number of surveys and the greatest
// Timestamp among them. When the table is empty, count is 0 and latest is
// nil.
//
// Return values:
//   - count:  total surveys
//   - latest: pointer to the greatest Timestamp, or nil if no rows
//   - err:    database error, if any
func SurveysStats(ctx context.Context, db *gorm.DB) (count int64, latest *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.SurveyResponse{})

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Avoid MAX() -> TEXT in SQLite.
	var row struct {
		Timestamp time.Time
	}
	if err = db.WithContext(ctx).Model(&domain.SurveyResponse{}).
		Select("timestamp").Order("timestamp DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.Timestamp, nil
}
