// Package history holds the audit sinks detections can be recorded to
// besides the SQL database.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/kdimtricp/leafscan/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "detection_history"
	connectTimeout = 10 * time.Second
)

// MongoSink writes each detection record as its own document.
type MongoSink struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewMongoSink(ctx context.Context, uri, database string) (*MongoSink, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	coll := client.Database(database).Collection(CollectionName)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "timestamp", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create history index: %w", err)
	}

	return &MongoSink{client: client, coll: coll}, nil
}

func (s *MongoSink) Append(ctx context.Context, rec *models.DetectionRecord) error {
	if _, err := s.coll.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("failed to insert detection record: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first. The limit is clamped
// with models.HistoryLimit so a zero limit never means "everything".
func (s *MongoSink) Recent(ctx context.Context, limit int) ([]models.DetectionRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(models.HistoryLimit(limit)))

	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query detection history: %w", err)
	}

	records := []models.DetectionRecord{}
	if err := cur.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode detection history: %w", err)
	}
	return records, nil
}

func (s *MongoSink) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
