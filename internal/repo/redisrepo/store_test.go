package redisrepo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-survey-backend/internal/domain"
)

// newStore uses REDIS_ADDR with a unique key prefix, or skips.
func newStore(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	prefix := fmt.Sprintf("survey_test_%d", time.Now().UnixNano())
	s, err := Open(context.Background(), Options{Addr: addr, Prefix: prefix})
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx := context.Background()
		if keys, err := s.cmd.Keys(ctx, prefix+":*").Result(); err == nil && len(keys) > 0 {
			s.cmd.Del(ctx, keys...)
		}
		_ = s.Close()
	})
	return s
}

func answers(v string) []string {
	out := make([]string, domain.NumQuestions)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestNew_DefaultPrefix(t *testing.T) {
	s := New(redis.NewClient(&redis.Options{Addr: "localhost:0"}), "")
	assert.Equal(t, "survey:surveys:x", s.surveyKey("x"))
	assert.Equal(t, "survey:devices:d", s.deviceKey("d"))
	assert.Equal(t, "survey:surveys:by_ts", s.timelineKey())
	assert.NoError(t, s.Close())
}

func TestStore_SurveysAndDevices(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	base := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

	_, err := s.GetDevice(ctx, "d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.GetSurvey(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.PutSurvey(ctx, &domain.SurveyResponse{
			ID: id, Questions: answers("8"), Timestamp: base.Add(time.Duration(i) * time.Minute), DeviceID: "d1",
		}))
	}
	require.NoError(t, s.PutDevice(ctx, &domain.DeviceRecord{DeviceID: "d1", LastSubmission: base, SurveyID: "a"}))

	d, err := s.GetDevice(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "a", d.SurveyID)

	desc, err := s.ListSurveys(ctx, domain.Descending)
	require.NoError(t, err)
	require.Len(t, desc, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{desc[0].ID, desc[1].ID, desc[2].ID})

	asc, err := s.ListSurveys(ctx, domain.Ascending)
	require.NoError(t, err)
	assert.Equal(t, "a", asc[0].ID)

	n, latest, err := s.SurveysStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	require.NotNil(t, latest)
	assert.True(t, latest.Equal(base.Add(2*time.Minute)))
}
