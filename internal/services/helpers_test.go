package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-survey-backend/internal/domain"
	"github.com/tbourn/go-survey-backend/internal/repo"
)

// newTestStore returns a GormStore over a private in-memory database.
func newTestStore(t *testing.T) *repo.GormStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// One connection serialises writes from concurrent goroutines.
	sqlDB.SetMaxOpenConns(1)
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return repo.NewGormStore(db)
}

func answers(v string) []string {
	out := make([]string, domain.NumQuestions)
	for i := range out {
		out[i] = v
	}
	return out
}

// fakeStore is a failure-injecting in-memory store.
type fakeStore struct {
	mu        sync.Mutex
	surveys   []domain.SurveyResponse
	devices   map[string]domain.DeviceRecord
	getErr    error
	putErr    error
	listErr   error
	failEvery int // every n-th PutSurvey fails when > 0
	puts      int
}

func newFakeStore() *fakeStore { return &fakeStore{devices: map[string]domain.DeviceRecord{}} }

func (f *fakeStore) GetDevice(_ context.Context, id string) (*domain.DeviceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	d, ok := f.devices[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &d, nil
}

func (f *fakeStore) PutDevice(_ context.Context, rec *domain.DeviceRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.devices[rec.DeviceID] = *rec
	return nil
}

func (f *fakeStore) PutSurvey(_ context.Context, rec *domain.SurveyResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.putErr != nil {
		return f.putErr
	}
	if f.failEvery > 0 && f.puts%f.failEvery == 0 {
		return fmt.Errorf("insert %d refused", f.puts)
	}
	f.surveys = append(f.surveys, *rec)
	return nil
}

func (f *fakeStore) ListSurveys(_ context.Context, _ domain.Order) ([]domain.SurveyResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.SurveyResponse(nil), f.surveys...), nil
}

func (f *fakeStore) SurveysStats(context.Context) (int64, *time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return 0, nil, f.listErr
	}
	return int64(len(f.surveys)), nil, nil
}
