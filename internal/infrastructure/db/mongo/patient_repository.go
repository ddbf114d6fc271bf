package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/medora/hospital-system/internal/core/domain"
)

// PatientRepository implements ports.PatientRepository.
type PatientRepository struct {
	db   *mongo.Database
	coll *mongo.Collection
}

func NewPatientRepository(db *mongo.Database) *PatientRepository {
	return &PatientRepository{db: db, coll: db.Collection(collPatients)}
}

type patientDoc struct {
	ID             primitive.ObjectID  `bson:"_id"`
	FirstName      string              `bson:"first_name"`
	LastName       string              `bson:"last_name"`
	DOB            string              `bson:"dob"`
	Phone          string              `bson:"phone"`
	MedicalHistory string              `bson:"medical_history"`
	OwnerUserID    *primitive.ObjectID `bson:"owner_user_id"`
	CreatedAt      time.Time           `bson:"created_at"`
}

func (r *PatientRepository) Create(ctx context.Context, p *domain.Patient) (string, error) {
	owner, ok := optionalObjectID(p.OwnerUserID)
	if !ok {
		return "", domain.InvalidInput("Invalid owner user link")
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := patientDoc{
		ID:             primitive.NewObjectID(),
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		DOB:            p.DOB,
		Phone:          p.Phone,
		MedicalHistory: p.MedicalHistory,
		OwnerUserID:    owner,
		CreatedAt:      p.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("insert patient: %w", err)
	}
	return doc.ID.Hex(), nil
}

func (r *PatientRepository) FindByID(ctx context.Context, id string) (*domain.Patient, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrPatientNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc patientDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPatientNotFound
		}
		return nil, fmt.Errorf("find patient: %w", err)
	}
	return &domain.Patient{
		ID:             doc.ID.Hex(),
		FirstName:      doc.FirstName,
		LastName:       doc.LastName,
		DOB:            doc.DOB,
		Phone:          doc.Phone,
		MedicalHistory: doc.MedicalHistory,
		OwnerUserID:    optionalHex(doc.OwnerUserID),
		CreatedAt:      doc.CreatedAt.UTC(),
	}, nil
}

// Delete removes the patient with its appointments, prescriptions and bills
// in one transaction.
func (r *PatientRepository) Delete(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrPatientNotFound
	}

	return withTransaction(ctx, r.db, func(sc mongo.SessionContext) error {
		res, err := r.coll.DeleteOne(sc, bson.M{"_id": oid})
		if err != nil {
			return fmt.Errorf("delete patient: %w", err)
		}
		if res.DeletedCount == 0 {
			return domain.ErrPatientNotFound
		}

		for _, name := range []string{collPrescriptions, collAppointments, collBilling} {
			if _, err := r.db.Collection(name).DeleteMany(sc, bson.M{"patient_id": oid}); err != nil {
				return fmt.Errorf("delete patient %s: %w", name, err)
			}
		}
		return nil
	})
}

func (r *PatientRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner_user_id", Value: 1}},
	})
	return err
}
