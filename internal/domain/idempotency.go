package domain

import "time"

// Idempotency records the outcome of a completed submission keyed by
// (device_id, scope, key). A client that retries POST /surveys with the same
// Idempotency-Key gets the original survey id back instead of a second write
// (or a duplicate-submission rejection).
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	DeviceID  string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_device_scope_key,priority:1"`
	Scope     string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_device_scope_key,priority:2"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_device_scope_key,priority:3"`
	SurveyID  string    `gorm:"type:TEXT NOT NULL"`
	Status    int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
