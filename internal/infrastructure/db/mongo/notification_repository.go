package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/medora/hospital-system/internal/core/domain"
)

// NotificationRepository implements ports.NotificationRepository.
type NotificationRepository struct {
	coll *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{coll: db.Collection(collNotifications)}
}

type notificationDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	UserID    primitive.ObjectID `bson:"user_id"`
	Message   string             `bson:"message"`
	IsRead    bool               `bson:"is_read"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (r *NotificationRepository) Insert(ctx context.Context, n *domain.Notification) (string, error) {
	userID, ok := objectID(n.UserID)
	if !ok {
		return "", domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := notificationDoc{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("insert notification: %w", err)
	}
	return doc.ID.Hex(), nil
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Notification, error) {
	out := []*domain.Notification{}
	oid, ok := objectID(userID)
	if !ok {
		return out, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, bson.M{"user_id": oid}, newestFirst)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	var docs []notificationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	for _, d := range docs {
		out = append(out, &domain.Notification{
			ID:        d.ID.Hex(),
			UserID:    d.UserID.Hex(),
			Message:   d.Message,
			IsRead:    d.IsRead,
			CreatedAt: d.CreatedAt.UTC(),
		})
	}
	return out, nil
}

// MarkRead only matches when both the id and the owner agree, so users cannot
// touch each other's notifications.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	oid, ok := objectID(id)
	uid, ok2 := objectID(userID)
	if !ok || !ok2 {
		return domain.ErrNotificationNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "user_id": uid},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}
