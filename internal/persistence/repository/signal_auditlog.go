package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/virtualclassroom/backend/internal/domain"
	"github.com/virtualclassroom/backend/internal/persistence/db"
)

type signalAuditLogRepository struct {
	db *mongo.Database
}

func NewSignalAuditLogRepository(db *mongo.Database) domain.SignalAuditRepository {
	return &signalAuditLogRepository{
		db: db,
	}
}

func (r *signalAuditLogRepository) Log(ctx context.Context, entry *domain.SignalAuditLog) error {
	collection := r.db.Collection(db.SignalAuditLogsCollection)

	_, err := collection.InsertOne(ctx, entry)
	return err
}

func (r *signalAuditLogRepository) GetByRoomID(ctx context.Context, roomID string, limit int) ([]domain.SignalAuditLog, error) {
	collection := r.db.Collection(db.SignalAuditLogsCollection)

	filter := bson.M{"room_id": roomID}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var logs []domain.SignalAuditLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, err
	}

	return logs, nil
}

func (r *signalAuditLogRepository) GetByEventType(ctx context.Context, eventType domain.SignalEventType, from time.Time, to time.Time) ([]domain.SignalAuditLog, error) {
	collection := r.db.Collection(db.SignalAuditLogsCollection)

	filter := bson.M{
		"event_type": eventType,
		"timestamp": bson.M{
			"$gte": from,
			"$lte": to,
		},
	}

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var logs []domain.SignalAuditLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, err
	}

	return logs, nil
}

func (r *signalAuditLogRepository) DeleteOlderThan(ctx context.Context, before time.Time) error {
	collection := r.db.Collection(db.SignalAuditLogsCollection)

	filter := bson.M{
		"timestamp": bson.M{
			"$lt": before,
		},
	}

	_, err := collection.DeleteMany(ctx, filter)
	return err
}

func (r *signalAuditLogRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(db.SignalAuditLogsCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "room_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "event_type", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		{
			Keys:    bson.D{{Key: "timestamp", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(7776000), // 90 days TTL
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
