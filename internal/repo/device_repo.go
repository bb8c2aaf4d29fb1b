package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-survey-backend/internal/domain"
)

// GetDevice fetches the record for deviceID, or ErrNotFound when the device
// has never completed a genuine submission.
func GetDevice(ctx context.Context, db *gorm.DB, deviceID string) (*domain.DeviceRecord, error) {
	var d domain.DeviceRecord
	err := db.WithContext(ctx).Where("device_id = ?", deviceID).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// PutDevice upserts rec keyed by device id.
func PutDevice(ctx context.Context, db *gorm.DB, rec *domain.DeviceRecord) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(rec).Error
}
