package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/medora/hospital-system/internal/core/domain"
)

// UserRepository implements ports.UserRepository.
type UserRepository struct {
	db   *mongo.Database
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{db: db, coll: db.Collection(collUsers)}
}

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id"`
	Username     string             `bson:"username"`
	PasswordHash string             `bson:"password_hash"`
	Role         string             `bson:"role"`
	FullName     string             `bson:"full_name"`
	CreatedAt    time.Time          `bson:"created_at"`
}

func (d *userDoc) toDomain() *domain.User {
	return &domain.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		Role:         domain.Role(d.Role),
		FullName:     d.FullName,
		CreatedAt:    d.CreatedAt.UTC(),
	}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := userDoc{
		ID:           primitive.NewObjectID(),
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		FullName:     user.FullName,
		CreatedAt:    user.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

// Delete removes the user in one transaction together with the appointments
// they hold as doctor, every prescription tied to those appointments or
// written by them, and their notifications. Patients they own are unlinked.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrUserNotFound
	}

	return withTransaction(ctx, r.db, func(sc mongo.SessionContext) error {
		res, err := r.coll.DeleteOne(sc, bson.M{"_id": oid})
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		if res.DeletedCount == 0 {
			return domain.ErrUserNotFound
		}

		apptIDs, err := distinctIDs(sc, r.db.Collection(collAppointments), bson.M{"doctor_id": oid})
		if err != nil {
			return err
		}
		if _, err := r.db.Collection(collPrescriptions).DeleteMany(sc, bson.M{"$or": bson.A{
			bson.M{"doctor_id": oid},
			bson.M{"appointment_id": bson.M{"$in": apptIDs}},
		}}); err != nil {
			return fmt.Errorf("delete user prescriptions: %w", err)
		}
		if _, err := r.db.Collection(collAppointments).DeleteMany(sc, bson.M{"doctor_id": oid}); err != nil {
			return fmt.Errorf("delete user appointments: %w", err)
		}
		if _, err := r.db.Collection(collNotifications).DeleteMany(sc, bson.M{"user_id": oid}); err != nil {
			return fmt.Errorf("delete user notifications: %w", err)
		}
		if _, err := r.db.Collection(collPatients).UpdateMany(sc,
			bson.M{"owner_user_id": oid},
			bson.M{"$set": bson.M{"owner_user_id": nil}},
		); err != nil {
			return fmt.Errorf("unlink owned patients: %w", err)
		}
		return nil
	})
}

func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_username"),
	})
	return err
}

// distinctIDs returns the _id of every document in coll matching filter.
func distinctIDs(ctx context.Context, coll *mongo.Collection, filter bson.M) (bson.A, error) {
	ids, err := coll.Distinct(ctx, "_id", filter)
	if err != nil {
		return nil, fmt.Errorf("distinct %s ids: %w", coll.Name(), err)
	}
	return bson.A(ids), nil
}
