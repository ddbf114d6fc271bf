package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultTimeout = 10 * time.Second
	indexTimeout   = 30 * time.Second
)

// Collection names.
const (
	collUsers         = "users"
	collPatients      = "patients"
	collAppointments  = "appointments"
	collPrescriptions = "prescriptions"
	collBilling       = "billing"
	collNotifications = "notifications"
)

// Config captures the settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. Cascading deletes run in
// multi-document transactions, so the deployment must be a replica set.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, client.Database(cfg.Database), nil
}

// indexer is implemented by every repository that owns indexes.
type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// Migrate creates the indexes of every collection. It is idempotent.
func Migrate(ctx context.Context, db *mongo.Database) error {
	repos := []indexer{
		NewUserRepository(db),
		NewPatientRepository(db),
		NewAppointmentRepository(db),
		NewPrescriptionRepository(db),
		NewBillingRepository(db),
		NewNotificationRepository(db),
	}
	for _, r := range repos {
		if err := r.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// withTransaction runs fn inside a transaction on db's client.
func withTransaction(ctx context.Context, db *mongo.Database, fn func(sc mongo.SessionContext) error) error {
	sess, err := db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// objectID parses a hex id. Malformed ids are reported as not ok and are
// treated by callers as unknown records.
func objectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

// optionalObjectID converts a nullable hex id into its stored form.
func optionalObjectID(id *string) (*primitive.ObjectID, bool) {
	if id == nil {
		return nil, true
	}
	oid, ok := objectID(*id)
	if !ok {
		return nil, false
	}
	return &oid, true
}

func optionalHex(oid *primitive.ObjectID) *string {
	if oid == nil {
		return nil
	}
	s := oid.Hex()
	return &s
}
