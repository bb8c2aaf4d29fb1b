// Package mongorepo stores survey records in MongoDB. Surveys live in the
// "surveys" collection and device markers in "devices"; both use the record
// key as _id so puts are idempotent upserts.
package mongorepo

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tbourn/go-survey-backend/internal/domain"
)

const (
	surveysCollection = "surveys"
	devicesCollection = "devices"
)

// Store implements the survey and device persistence operations on MongoDB.
type Store struct {
	client  *mongo.Client
	surveys *mongo.Collection
	devices *mongo.Collection
}

// Open connects to uri, pings the server and ensures the timestamp index.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "mongo connect")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "mongo ping")
	}
	s := New(client, database)
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// New wraps an already connected client.
func New(client *mongo.Client, database string) *Store {
	db := client.Database(database)
	return &Store{
		client:  client,
		surveys: db.Collection(surveysCollection),
		devices: db.Collection(devicesCollection),
	}
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.surveys.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "timestamp", Value: -1}},
		Options: options.Index().SetName("idx_surveys_ts"),
	})
	return errors.Wrap(err, "mongo create index")
}

// GetDevice returns domain.ErrNotFound when the device has no record.
func (s *Store) GetDevice(ctx context.Context, deviceID string) (*domain.DeviceRecord, error) {
	var d domain.DeviceRecord
	err := s.devices.FindOne(ctx, bson.M{"_id": deviceID}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "mongo get device %s", deviceID)
	}
	return &d, nil
}

func (s *Store) PutDevice(ctx context.Context, rec *domain.DeviceRecord) error {
	_, err := s.devices.ReplaceOne(ctx, bson.M{"_id": rec.DeviceID}, rec, options.Replace().SetUpsert(true))
	return errors.Wrapf(err, "mongo put device %s", rec.DeviceID)
}

func (s *Store) GetSurvey(ctx context.Context, id string) (*domain.SurveyResponse, error) {
	var r domain.SurveyResponse
	err := s.surveys.FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "mongo get survey %s", id)
	}
	return &r, nil
}

func (s *Store) PutSurvey(ctx context.Context, rec *domain.SurveyResponse) error {
	_, err := s.surveys.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec, options.Replace().SetUpsert(true))
	return errors.Wrapf(err, "mongo put survey %s", rec.ID)
}

// ListSurveys returns every survey sorted by timestamp, ties broken by _id.
// Documents that fail to decode are skipped and reported in a
// *domain.DecodeError.
func (s *Store) ListSurveys(ctx context.Context, order domain.Order) ([]domain.SurveyResponse, error) {
	dir := -1
	if order == domain.Ascending {
		dir = 1
	}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: dir}, {Key: "_id", Value: dir}})
	cur, err := s.surveys.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "mongo list surveys")
	}
	defer cur.Close(ctx)

	out := make([]domain.SurveyResponse, 0)
	var bad *domain.DecodeError
	for cur.Next(ctx) {
		var r domain.SurveyResponse
		if err := cur.Decode(&r); err != nil {
			id, _ := cur.Current.Lookup("_id").StringValueOK()
			bad = bad.Add(id, errors.Wrapf(err, "mongo decode survey %s", id))
			continue
		}
		out = append(out, r)
	}
	if err := cur.Err(); err != nil {
		return nil, errors.Wrap(err, "mongo iterate surveys")
	}
	return out, bad.OrNil()
}

// SurveysStats returns the document count and the newest timestamp.
func (s *Store) SurveysStats(ctx context.Context) (int64, *time.Time, error) {
	n, err := s.surveys.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, nil, errors.Wrap(err, "mongo count surveys")
	}
	if n == 0 {
		return 0, nil, nil
	}
	var latest domain.SurveyResponse
	opts := options.FindOne().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetProjection(bson.M{"timestamp": 1})
	if err := s.surveys.FindOne(ctx, bson.D{}, opts).Decode(&latest); err != nil {
		return 0, nil, errors.Wrap(err, "mongo latest survey")
	}
	ts := latest.Timestamp.UTC()
	return n, &ts, nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
