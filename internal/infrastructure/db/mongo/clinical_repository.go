package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/medora/hospital-system/internal/core/domain"
)

// newestFirst orders per-patient listings.
var newestFirst = options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

var patientTimelineIndex = mongo.IndexModel{
	Keys: bson.D{{Key: "patient_id", Value: 1}, {Key: "created_at", Value: -1}},
}

// PrescriptionRepository implements ports.PrescriptionRepository.
type PrescriptionRepository struct {
	coll *mongo.Collection
}

func NewPrescriptionRepository(db *mongo.Database) *PrescriptionRepository {
	return &PrescriptionRepository{coll: db.Collection(collPrescriptions)}
}

type prescriptionDoc struct {
	ID            primitive.ObjectID `bson:"_id"`
	AppointmentID primitive.ObjectID `bson:"appointment_id"`
	DoctorID      primitive.ObjectID `bson:"doctor_id"`
	PatientID     primitive.ObjectID `bson:"patient_id"`
	Medication    string             `bson:"medication"`
	Instructions  string             `bson:"instructions"`
	CreatedAt     time.Time          `bson:"created_at"`
}

func (r *PrescriptionRepository) Insert(ctx context.Context, p *domain.Prescription) (string, error) {
	apptID, ok1 := objectID(p.AppointmentID)
	doctorID, ok2 := objectID(p.DoctorID)
	patientID, ok3 := objectID(p.PatientID)
	if !ok1 || !ok2 || !ok3 {
		return "", domain.ErrAppointmentMismatch
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := prescriptionDoc{
		ID:            primitive.NewObjectID(),
		AppointmentID: apptID,
		DoctorID:      doctorID,
		PatientID:     patientID,
		Medication:    p.Medication,
		Instructions:  p.Instructions,
		CreatedAt:     p.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("insert prescription: %w", err)
	}
	return doc.ID.Hex(), nil
}

func (r *PrescriptionRepository) ListByPatient(ctx context.Context, patientID string) ([]*domain.Prescription, error) {
	out := []*domain.Prescription{}
	oid, ok := objectID(patientID)
	if !ok {
		return out, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, bson.M{"patient_id": oid}, newestFirst)
	if err != nil {
		return nil, fmt.Errorf("list prescriptions: %w", err)
	}
	var docs []prescriptionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list prescriptions: %w", err)
	}
	for _, d := range docs {
		out = append(out, &domain.Prescription{
			ID:            d.ID.Hex(),
			AppointmentID: d.AppointmentID.Hex(),
			DoctorID:      d.DoctorID.Hex(),
			PatientID:     d.PatientID.Hex(),
			Medication:    d.Medication,
			Instructions:  d.Instructions,
			CreatedAt:     d.CreatedAt.UTC(),
		})
	}
	return out, nil
}

func (r *PrescriptionRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		patientTimelineIndex,
		{Keys: bson.D{{Key: "appointment_id", Value: 1}}},
		{Keys: bson.D{{Key: "doctor_id", Value: 1}}},
	})
	return err
}

// BillingRepository implements ports.BillingRepository.
type BillingRepository struct {
	coll *mongo.Collection
}

func NewBillingRepository(db *mongo.Database) *BillingRepository {
	return &BillingRepository{coll: db.Collection(collBilling)}
}

type billDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	PatientID   primitive.ObjectID `bson:"patient_id"`
	Amount      float64            `bson:"amount"`
	Status      string             `bson:"status"`
	Description string             `bson:"description"`
	CreatedAt   time.Time          `bson:"created_at"`
}

func (r *BillingRepository) Insert(ctx context.Context, b *domain.Bill) (string, error) {
	patientID, ok := objectID(b.PatientID)
	if !ok {
		return "", domain.InvalidInput("Unknown patient")
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := billDoc{
		ID:          primitive.NewObjectID(),
		PatientID:   patientID,
		Amount:      b.Amount,
		Status:      string(b.Status),
		Description: b.Description,
		CreatedAt:   b.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("insert bill: %w", err)
	}
	return doc.ID.Hex(), nil
}

func (r *BillingRepository) ListByPatient(ctx context.Context, patientID string) ([]*domain.Bill, error) {
	out := []*domain.Bill{}
	oid, ok := objectID(patientID)
	if !ok {
		return out, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, bson.M{"patient_id": oid}, newestFirst)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	var docs []billDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	for _, d := range docs {
		out = append(out, &domain.Bill{
			ID:          d.ID.Hex(),
			PatientID:   d.PatientID.Hex(),
			Amount:      d.Amount,
			Status:      domain.BillStatus(d.Status),
			Description: d.Description,
			CreatedAt:   d.CreatedAt.UTC(),
		})
	}
	return out, nil
}

func (r *BillingRepository) UpdateStatus(ctx context.Context, id string, status domain.BillStatus) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrBillNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"status": string(status)}})
	if err != nil {
		return fmt.Errorf("update bill status: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrBillNotFound
	}
	return nil
}

func (r *BillingRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, patientTimelineIndex)
	return err
}
