package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-survey-backend/internal/domain"
)

func TestPutGetSurvey_RoundTripAndUpsert(t *testing.T) {
	db := newTestDB(t, &domain.SurveyResponse{})
	ctx := context.Background()

	ts := time.Date(2025, 5, 6, 7, 8, 9, 0, time.UTC)
	rec := &domain.SurveyResponse{
		ID:          "1746515289000-abcdefghi",
		Questions:   answers("7"),
		Suggestions: "más formación",
		Timestamp:   ts,
		DeviceID:    "dev-1",
	}
	if err := PutSurvey(ctx, db, rec); err != nil {
		t.Fatalf("PutSurvey: %v", err)
	}

	got, err := GetSurvey(ctx, db, rec.ID)
	if err != nil {
		t.Fatalf("GetSurvey: %v", err)
	}
	if got.Suggestions != "más formación" || got.DeviceID != "dev-1" || len(got.Questions) != 10 || got.Questions[0] != "7" {
		t.Fatalf("unexpected row %#v", got)
	}
	if !got.Timestamp.Equal(ts) {
		t.Fatalf("timestamp=%v want %v", got.Timestamp, ts)
	}

	// Put with the same id replaces the record.
	rec.Suggestions = "otra cosa"
	if err := PutSurvey(ctx, db, rec); err != nil {
		t.Fatalf("PutSurvey upsert: %v", err)
	}
	got, err = GetSurvey(ctx, db, rec.ID)
	if err != nil || got.Suggestions != "otra cosa" {
		t.Fatalf("upsert not applied: %v %#v", err, got)
	}
	var n int64
	db.Model(&domain.SurveyResponse{}).Count(&n)
	if n != 1 {
		t.Fatalf("expected 1 row after upsert, got %d", n)
	}
}

func TestGetSurvey_NotFound(t *testing.T) {
	db := newTestDB(t, &domain.SurveyResponse{})
	if _, err := GetSurvey(context.Background(), db, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !errors.Is(ErrNotFound, domain.ErrNotFound) {
		t.Fatalf("repo.ErrNotFound must be domain.ErrNotFound")
	}
}

func TestListSurveys_Order(t *testing.T) {
	db := newTestDB(t, &domain.SurveyResponse{})
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"b", "a", "c"} {
		rec := &domain.SurveyResponse{ID: id, Questions: answers("3"), Timestamp: base.Add(time.Duration(i) * time.Hour), DeviceID: "d"}
		if err := PutSurvey(ctx, db, rec); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	desc, err := ListSurveys(ctx, db, domain.Descending)
	if err != nil {
		t.Fatalf("ListSurveys desc: %v", err)
	}
	if len(desc) != 3 || desc[0].ID != "c" || desc[2].ID != "b" {
		t.Fatalf("unexpected desc order: %v", ids(desc))
	}

	asc, err := ListSurveys(ctx, db, domain.Ascending)
	if err != nil {
		t.Fatalf("ListSurveys asc: %v", err)
	}
	if asc[0].ID != "b" || asc[2].ID != "c" {
		t.Fatalf("unexpected asc order: %v", ids(asc))
	}
}

func TestListSurveys_SkipsUndecodableRow(t *testing.T) {
	db := newTestDB(t, &domain.SurveyResponse{})
	ctx := context.Background()

	ts := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
	if err := PutSurvey(ctx, db, &domain.SurveyResponse{ID: "good", Questions: answers("6"), Timestamp: ts, DeviceID: "d1"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	err := db.Exec(
		"INSERT INTO surveys (id, questions, suggestions, timestamp, device_id, is_test_submission) VALUES (?, ?, ?, ?, ?, ?)",
		"broken", "not-json", "", ts.Add(time.Minute), "d2", false,
	).Error
	if err != nil {
		t.Fatalf("insert raw row: %v", err)
	}

	got, err := ListSurveys(ctx, db, domain.Descending)
	var de *domain.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected *domain.DecodeError, got %v", err)
	}
	if len(de.IDs) != 1 || de.IDs[0] != "broken" {
		t.Fatalf("decode error ids = %v", de.IDs)
	}
	if len(got) != 1 || got[0].ID != "good" || got[0].Questions[0] != "6" {
		t.Fatalf("decoded rows = %+v", got)
	}
}

func TestListSurveys_EmptyIsNotNil(t *testing.T) {
	db := newTestDB(t, &domain.SurveyResponse{})
	got, err := ListSurveys(context.Background(), db, domain.Descending)
	if err != nil {
		t.Fatalf("ListSurveys: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestDevice_GetPut(t *testing.T) {
	db := newTestDB(t, &domain.DeviceRecord{})
	ctx := context.Background()

	if _, err := GetDevice(ctx, db, "dev-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if err := PutDevice(ctx, db, &domain.DeviceRecord{DeviceID: "dev-1", LastSubmission: now, SurveyID: "s1"}); err != nil {
		t.Fatalf("PutDevice: %v", err)
	}
	// Second put for the same device overwrites.
	if err := PutDevice(ctx, db, &domain.DeviceRecord{DeviceID: "dev-1", LastSubmission: now.Add(time.Hour), SurveyID: "s2"}); err != nil {
		t.Fatalf("PutDevice upsert: %v", err)
	}
	got, err := GetDevice(ctx, db, "dev-1")
	if err != nil {
		t.Fatalf("GetDevice: %v", err)
	}
	if got.SurveyID != "s2" || !got.LastSubmission.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected device %#v", got)
	}
}

func ids(in []domain.SurveyResponse) []string {
	out := make([]string, len(in))
	for i, r := range in {
		out[i] = r.ID
	}
	return out
}
