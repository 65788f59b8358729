// Package mongo is the MongoDB implementation of store.Store.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ankittk/osboard/internal/store"
	"github.com/ankittk/osboard/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultDatabase    = "osboard"
	filtersCollection  = "filters"
	activityCollection = "activity"
)

// Store keeps filters and the activity journal in two collections.
type Store struct {
	Client   *mongo.Client
	Filters  *mongo.Collection
	Activity *mongo.Collection
}

type filterDoc struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

type activityDoc struct {
	ID      string    `bson:"_id"`
	At      time.Time `bson:"at"`
	Action  string    `bson:"action"`
	OrderID string    `bson:"osId"`
	Date    string    `bson:"dateKey"`
	Outcome string    `bson:"outcome"`
	Detail  string    `bson:"detail"`
}

// Open connects to uri (or MONGO_URI) and ensures the indexes. db may be empty.
func Open(uri, db string) (store.Store, error) {
	if uri == "" {
		uri = os.Getenv("MONGO_URI")
	}
	if uri == "" {
		return nil, errors.New("mongo URI or MONGO_URI required")
	}
	if db == "" {
		db = defaultDatabase
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("could not instantiate mongo client: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	s := &Store{
		Client:   client,
		Filters:  client.Database(db).Collection(filtersCollection),
		Activity: client.Database(db).Collection(activityCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.Activity.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "at", Value: -1}}},
		{Keys: bson.D{{Key: "osId", Value: 1}, {Key: "at", Value: -1}}},
	})
	return err
}

// Close disconnects the client.
func (s *Store) Close() error {
	if s == nil || s.Client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Client.Disconnect(ctx)
}

func (s *Store) SaveFilters(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return errors.New("filters key required")
	}
	doc := filterDoc{Key: key, Value: string(value), UpdatedAt: time.Now().UTC()}
	_, err := s.Filters.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("error while saving filters %v in mongo: %w", key, err)
	}
	return nil
}

func (s *Store) LoadFilters(ctx context.Context, key string) ([]byte, error) {
	var doc filterDoc
	err := s.Filters.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(doc.Value), nil
}

func (s *Store) RecordActivity(ctx context.Context, a models.Activity) error {
	a = store.Prepare(a)
	_, err := s.Activity.InsertOne(ctx, activityDoc{
		ID:      a.ID,
		At:      a.At,
		Action:  a.Action,
		OrderID: a.OrderID,
		Date:    a.Date,
		Outcome: a.Outcome,
		Detail:  a.Detail,
	})
	return err
}

func (s *Store) ListActivity(ctx context.Context, q store.ActivityQuery) ([]models.Activity, error) {
	filter := bson.M{}
	if q.OrderID != "" {
		filter["osId"] = q.OrderID
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(store.Limit(q.Limit)))
	cur, err := s.Activity.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("could not find activity from mongo: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]models.Activity, 0)
	for cur.Next(ctx) {
		var d activityDoc
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("could not decode mongo response: %w", err)
		}
		out = append(out, models.Activity{
			ID:      d.ID,
			At:      d.At.UTC(),
			Action:  d.Action,
			OrderID: d.OrderID,
			Date:    d.Date,
			Outcome: d.Outcome,
			Detail:  d.Detail,
		})
	}
	return out, cur.Err()
}
