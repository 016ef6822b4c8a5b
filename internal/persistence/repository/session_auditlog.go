package repository

import (
	"context"
	"time"

	"github.com/hilthontt/spinwheel/internal/domain"
	"github.com/hilthontt/spinwheel/internal/persistence/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const auditRetention = 90 * 24 * time.Hour

type sessionAuditLogRepository struct {
	db *mongo.Database
}

func NewSessionAuditLogRepository(db *mongo.Database) domain.SessionAuditRepository {
	return &sessionAuditLogRepository{
		db: db,
	}
}

func (r *sessionAuditLogRepository) Log(ctx context.Context, log *domain.SessionAuditLog) error {
	collection := r.db.Collection(db.SessionAuditLogsCollection)

	_, err := collection.InsertOne(ctx, log)
	return err
}

func (r *sessionAuditLogRepository) GetBySessionID(ctx context.Context, sessionID string, limit int) ([]domain.SessionAuditLog, error) {
	collection := r.db.Collection(db.SessionAuditLogsCollection)

	filter := bson.M{"session_id": sessionID}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	logs := []domain.SessionAuditLog{}
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, err
	}

	return logs, nil
}

func (r *sessionAuditLogRepository) CountByEventType(ctx context.Context, eventType domain.SessionEventType, since time.Time) (int64, error) {
	collection := r.db.Collection(db.SessionAuditLogsCollection)

	return collection.CountDocuments(ctx, bson.M{
		"event_type": eventType,
		"timestamp":  bson.M{"$gte": since},
	})
}

func (r *sessionAuditLogRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(db.SessionAuditLogsCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "session_id", Value: 1},
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
			Options: options.Index().SetExpireAfterSeconds(int32(auditRetention.Seconds())),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
