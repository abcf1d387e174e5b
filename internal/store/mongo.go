package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/techdict/backend/internal/models"
)

// MongoStore keeps the dictionary lookup log in MongoDB.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection("lookups")}
}

// EnsureIndexes creates the indexes the activity aggregations rely on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "term", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("mongo indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) RecordLookup(ctx context.Context, ev models.LookupEvent) error {
	ev.Term = strings.ToLower(strings.TrimSpace(ev.Term))
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}

	if _, err := s.col.InsertOne(ctx, ev); err != nil {
		return fmt.Errorf("mongo insert lookup: %w", err)
	}
	return nil
}

type dayBucket struct {
	Day   string `bson:"_id"`
	Count int64  `bson:"count"`
}

type termBucket struct {
	Term  string `bson:"_id"`
	Count int64  `bson:"count"`
}

// Activity aggregates unique visitors, searches per day and the most popular
// search terms.
func (s *MongoStore) Activity(ctx context.Context, topTerms int) (models.Activity, error) {
	visitors, err := s.col.Distinct(ctx, "visitor", bson.M{"visitor": bson.M{"$ne": ""}})
	if err != nil {
		return models.Activity{}, fmt.Errorf("mongo distinct visitors: %w", err)
	}

	perDay, err := s.searchesPerDay(ctx)
	if err != nil {
		return models.Activity{}, err
	}

	popular, err := s.popularTerms(ctx, topTerms)
	if err != nil {
		return models.Activity{}, err
	}

	return models.Activity{
		UniqueVisitors: int64(len(visitors)),
		SearchesPerDay: perDay,
		PopularTerms:   popular,
	}, nil
}

func (s *MongoStore) searchesPerDay(ctx context.Context) ([]models.DailyCount, error) {
	cur, err := s.col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$dateToString", Value: bson.D{
				{Key: "format", Value: "%Y-%m-%d"},
				{Key: "date", Value: "$created_at"},
			}}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("mongo searches per day: %w", err)
	}
	defer cur.Close(ctx)

	var buckets []dayBucket
	if err := cur.All(ctx, &buckets); err != nil {
		return nil, fmt.Errorf("mongo decode per day: %w", err)
	}

	out := make([]models.DailyCount, 0, len(buckets))
	for _, b := range buckets {
		d, err := time.Parse(time.DateOnly, b.Day)
		if err != nil {
			return nil, fmt.Errorf("mongo parse day %q: %w", b.Day, err)
		}
		out = append(out, models.DailyCount{Date: d, Count: b.Count})
	}
	return out, nil
}

func (s *MongoStore) popularTerms(ctx context.Context, limit int) ([]models.Count, error) {
	opts := options.Aggregate().SetAllowDiskUse(true)
	cur, err := s.col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$term"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo popular terms: %w", err)
	}
	defer cur.Close(ctx)

	var buckets []termBucket
	if err := cur.All(ctx, &buckets); err != nil {
		return nil, fmt.Errorf("mongo decode terms: %w", err)
	}

	out := make([]models.Count, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, models.Count{Key: b.Term, Count: b.Count})
	}
	return out, nil
}
