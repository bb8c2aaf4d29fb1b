// Package redisrepo stores survey records in Redis as JSON strings.
//
// Key layout (prefix defaults to "survey"):
//
//	<prefix>:surveys:<id>    survey JSON
//	<prefix>:surveys:by_ts   sorted set of survey ids scored by unix millis
//	<prefix>:devices:<id>    device record JSON
package redisrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ecodeclub/ekit/slice"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/tbourn/go-survey-backend/internal/domain"
)

// Store implements the survey and device persistence operations on Redis.
type Store struct {
	cmd    redis.Cmdable
	closer func() error
	prefix string
}

// Options configures Open.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Open creates a client for opts and pings the server.
func Open(ctx context.Context, opts Options) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "redis ping")
	}
	s := New(client, opts.Prefix)
	s.closer = client.Close
	return s, nil
}

// New wraps an existing client. An empty prefix becomes "survey".
func New(cmd redis.Cmdable, prefix string) *Store {
	if prefix == "" {
		prefix = "survey"
	}
	return &Store{cmd: cmd, prefix: prefix}
}

func (s *Store) surveyKey(id string) string { return fmt.Sprintf("%s:surveys:%s", s.prefix, id) }
func (s *Store) deviceKey(id string) string { return fmt.Sprintf("%s:devices:%s", s.prefix, id) }
func (s *Store) timelineKey() string        { return s.prefix + ":surveys:by_ts" }

func (s *Store) GetDevice(ctx context.Context, deviceID string) (*domain.DeviceRecord, error) {
	var d domain.DeviceRecord
	if err := s.getJSON(ctx, s.deviceKey(deviceID), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Store) PutDevice(ctx context.Context, rec *domain.DeviceRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return errors.Wrap(s.cmd.Set(ctx, s.deviceKey(rec.DeviceID), data, 0).Err(), "redis put device")
}

func (s *Store) GetSurvey(ctx context.Context, id string) (*domain.SurveyResponse, error) {
	var r domain.SurveyResponse
	if err := s.getJSON(ctx, s.surveyKey(id), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// PutSurvey writes the JSON document and its timeline entry in one
// MULTI/EXEC transaction.
func (s *Store) PutSurvey(ctx context.Context, rec *domain.SurveyResponse) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.cmd.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.surveyKey(rec.ID), data, 0)
		p.ZAdd(ctx, s.timelineKey(), redis.Z{Score: float64(rec.Timestamp.UnixMilli()), Member: rec.ID})
		return nil
	})
	return errors.Wrap(err, "redis put survey")
}

// ListSurveys reads the timeline and fetches every document with MGET.
// Ids whose document has disappeared are skipped; documents that fail to
// decode are left out and reported in a *domain.DecodeError.
func (s *Store) ListSurveys(ctx context.Context, order domain.Order) ([]domain.SurveyResponse, error) {
	var (
		ids []string
		err error
	)
	if order == domain.Ascending {
		ids, err = s.cmd.ZRange(ctx, s.timelineKey(), 0, -1).Result()
	} else {
		ids, err = s.cmd.ZRevRange(ctx, s.timelineKey(), 0, -1).Result()
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis list survey ids")
	}
	out := make([]domain.SurveyResponse, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := slice.Map(ids, func(_ int, id string) string { return s.surveyKey(id) })
	vals, err := s.cmd.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Wrap(err, "redis mget surveys")
	}
	var bad *domain.DecodeError
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var r domain.SurveyResponse
		if err := json.Unmarshal([]byte(str), &r); err != nil {
			bad = bad.Add(ids[i], errors.Wrapf(err, "redis decode survey %s", ids[i]))
			continue
		}
		out = append(out, r)
	}
	return out, bad.OrNil()
}

// SurveysStats returns the timeline cardinality and the highest score.
func (s *Store) SurveysStats(ctx context.Context) (int64, *time.Time, error) {
	n, err := s.cmd.ZCard(ctx, s.timelineKey()).Result()
	if err != nil {
		return 0, nil, errors.Wrap(err, "redis zcard")
	}
	if n == 0 {
		return 0, nil, nil
	}
	top, err := s.cmd.ZRevRangeWithScores(ctx, s.timelineKey(), 0, 0).Result()
	if err != nil {
		return 0, nil, errors.Wrap(err, "redis latest survey")
	}
	if len(top) == 0 {
		return n, nil, nil
	}
	ts := time.UnixMilli(int64(top[0].Score)).UTC()
	return n, &ts, nil
}

// Close closes the client created by Open. It is a no-op for New.
func (s *Store) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

func (s *Store) getJSON(ctx context.Context, key string, dst any) error {
	b, err := s.cmd.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ErrNotFound
	}
	if err != nil {
		return errors.Wrapf(err, "redis get %s", key)
	}
	return errors.Wrapf(json.Unmarshal(b, dst), "redis decode %s", key)
}
