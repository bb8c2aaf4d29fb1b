// Package domain defines the persisted survey records shared by every storage
// backend. The same structs are mapped by GORM (SQL backends), by the Mongo
// driver (bson tags) and serialized as JSON (Redis backend), so the record
// schema is identical whichever store is configured.
package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Fixed shape of every questionnaire.
const (
	// NumQuestions is the number of Likert questions in the survey.
	NumQuestions = 10
	// MinScore and MaxScore bound every answer (inclusive).
	MinScore = 1
	MaxScore = 10
)

// Record-level errors. Storage adapters translate their driver specific
// "missing" results into ErrNotFound.
var (
	ErrNotFound          = errors.New("record not found")
	ErrWrongAnswerCount  = fmt.Errorf("survey must contain exactly %d answers", NumQuestions)
	ErrAnswerNotInteger  = errors.New("answer is not an integer")
	ErrAnswerOutOfRange  = fmt.Errorf("answer must be between %d and %d", MinScore, MaxScore)
	ErrMissingIdentifier = errors.New("record identifier is empty")
)

// DecodeError lists stored records a bulk read could not decode. Backends
// return it together with the records that did decode.
type DecodeError struct {
	IDs []string
	Err error // first decode failure
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%d stored record(s) could not be decoded, first %q: %v", len(e.IDs), e.IDs[0], e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Add records a failed id. It is safe on a nil receiver.
func (e *DecodeError) Add(id string, err error) *DecodeError {
	if e == nil {
		e = &DecodeError{Err: err}
	}
	e.IDs = append(e.IDs, id)
	return e
}

// OrNil returns e as an error, or a nil interface when nothing failed.
func (e *DecodeError) OrNil() error {
	if e == nil {
		return nil
	}
	return e
}

// SurveyResponse is one submitted questionnaire.
//
// Fields:
//   - ID: generated survey id ("<unix-millis>-<suffix>"), primary key.
//   - Questions: exactly NumQuestions string-encoded integers; the index
//     identifies the question.
//   - Suggestions: optional free-text comment.
//   - Timestamp: creation time assigned by the submitting client (UTC, ms precision).
//   - DeviceID: deduplication key of the submitting device.
//   - IsTestSubmission: true for synthetic or test-mode records.
type SurveyResponse struct {
	ID               string    `json:"id"               bson:"_id"              gorm:"type:varchar(64);primaryKey"`
	Questions        []string  `json:"questions"        bson:"questions"        gorm:"type:text;not null;serializer:json"`
	Suggestions      string    `json:"suggestions,omitempty" bson:"suggestions,omitempty" gorm:"type:text"`
	Timestamp        time.Time `json:"timestamp"        bson:"timestamp"        gorm:"not null;index:idx_surveys_ts"`
	DeviceID         string    `json:"deviceId"         bson:"deviceId"         gorm:"type:varchar(128);not null;index"`
	IsTestSubmission bool      `json:"isTestSubmission" bson:"isTestSubmission" gorm:"not null;default:false;index"`
}

// TableName returns the database table name for SurveyResponse.
func (SurveyResponse) TableName() string { return "surveys" }

// Scores parses the string-encoded answers. It fails with ErrWrongAnswerCount,
// ErrAnswerNotInteger or ErrAnswerOutOfRange (wrapped with the 1-based
// question number) when the record violates the questionnaire invariant.
func (r SurveyResponse) Scores() ([]int, error) {
	if len(r.Questions) != NumQuestions {
		return nil, ErrWrongAnswerCount
	}
	out := make([]int, NumQuestions)
	for i, q := range r.Questions {
		v, err := ParseScore(q)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		out[i] = v
	}
	return out, nil
}

// Validate reports whether the record may be persisted or aggregated.
func (r SurveyResponse) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return ErrMissingIdentifier
	}
	_, err := r.Scores()
	return err
}

// ParseScore converts a single string-encoded answer into its Likert value.
func ParseScore(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, ErrAnswerNotInteger
	}
	if v < MinScore || v > MaxScore {
		return 0, ErrAnswerOutOfRange
	}
	return v, nil
}

// DeviceRecord marks a device that completed a genuine (non-test)
// submission. Its existence is the duplicate-submission gate.
type DeviceRecord struct {
	DeviceID       string    `json:"deviceId"       bson:"_id"            gorm:"type:varchar(128);primaryKey"`
	LastSubmission time.Time `json:"lastSubmission" bson:"lastSubmission" gorm:"not null"`
	SurveyID       string    `json:"surveyId"       bson:"surveyId"       gorm:"type:varchar(64);not null"`
}

// TableName returns the database table name for DeviceRecord.
func (DeviceRecord) TableName() string { return "devices" }

// Order is the timestamp ordering used when listing surveys.
type Order int

const (
	// Descending lists the newest submission first.
	Descending Order = iota
	// Ascending lists the oldest submission first.
	Ascending
)

// String returns "desc" or "asc".
func (o Order) String() string {
	if o == Ascending {
		return "asc"
	}
	return "desc"
}
