package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/medora/hospital-system/internal/core/domain"
)

// slotIndexName is the unique (doctor_id, start_time) index that rejects
// double bookings.
const slotIndexName = "uniq_doctor_slot"

// AppointmentRepository implements ports.AppointmentRepository.
type AppointmentRepository struct {
	db   *mongo.Database
	coll *mongo.Collection
}

func NewAppointmentRepository(db *mongo.Database) *AppointmentRepository {
	return &AppointmentRepository{db: db, coll: db.Collection(collAppointments)}
}

type appointmentDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	PatientID primitive.ObjectID `bson:"patient_id"`
	DoctorID  primitive.ObjectID `bson:"doctor_id"`
	StartTime string             `bson:"start_time"`
	Reason    string             `bson:"reason"`
	Status    string             `bson:"status"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (d *appointmentDoc) toDomain() domain.Appointment {
	return domain.Appointment{
		ID:        d.ID.Hex(),
		PatientID: d.PatientID.Hex(),
		DoctorID:  d.DoctorID.Hex(),
		StartTime: d.StartTime,
		Reason:    d.Reason,
		Status:    domain.AppointmentStatus(d.Status),
		CreatedAt: d.CreatedAt.UTC(),
	}
}

// listingDoc is one row of the doctor schedule aggregation.
type listingDoc struct {
	Appointment  appointmentDoc      `bson:",inline"`
	PatientFirst string              `bson:"patient_first_name"`
	PatientLast  string              `bson:"patient_last_name"`
	PatientOwner *primitive.ObjectID `bson:"patient_owner_id"`
	DoctorName   string              `bson:"doctor_name"`
}

// Insert writes the appointment with a single InsertOne. The unique slot index
// is the only double-booking guard.
func (r *AppointmentRepository) Insert(ctx context.Context, a *domain.Appointment) (string, error) {
	patientID, ok := objectID(a.PatientID)
	if !ok {
		return "", domain.InvalidInput("Unknown patient")
	}
	doctorID, ok := objectID(a.DoctorID)
	if !ok {
		return "", domain.InvalidInput("doctor_id must reference a Doctor")
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := appointmentDoc{
		ID:        primitive.NewObjectID(),
		PatientID: patientID,
		DoctorID:  doctorID,
		StartTime: a.StartTime,
		Reason:    a.Reason,
		Status:    string(a.Status),
		CreatedAt: a.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", &domain.ConflictError{Detail: "unique index " + slotIndexName + " violated (doctor_id, start_time)"}
		}
		return "", fmt.Errorf("insert appointment: %w", err)
	}
	return doc.ID.Hex(), nil
}

func (r *AppointmentRepository) FindByID(ctx context.Context, id string) (*domain.Appointment, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrAppointmentNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc appointmentDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("find appointment: %w", err)
	}
	a := doc.toDomain()
	return &a, nil
}

// ListByDoctor joins each appointment with its patient and doctor names and
// returns the rows ordered by start time.
func (r *AppointmentRepository) ListByDoctor(ctx context.Context, doctorID string) ([]domain.AppointmentListing, error) {
	oid, ok := objectID(doctorID)
	if !ok {
		return []domain.AppointmentListing{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"doctor_id": oid}}},
		{{Key: "$sort", Value: bson.D{{Key: "start_time", Value: 1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         collPatients,
			"localField":   "patient_id",
			"foreignField": "_id",
			"as":           "patient",
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         collUsers,
			"localField":   "doctor_id",
			"foreignField": "_id",
			"as":           "doctor",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$patient", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$unwind", Value: bson.M{"path": "$doctor", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$addFields", Value: bson.M{
			"patient_first_name": "$patient.first_name",
			"patient_last_name":  "$patient.last_name",
			"patient_owner_id":   "$patient.owner_user_id",
			"doctor_name":        "$doctor.full_name",
		}}},
		{{Key: "$project", Value: bson.M{"patient": 0, "doctor": 0}}},
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer cur.Close(ctx)

	out := []domain.AppointmentListing{}
	for cur.Next(ctx) {
		var doc listingDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode appointment: %w", err)
		}
		out = append(out, domain.AppointmentListing{
			Appointment:    doc.Appointment.toDomain(),
			PatientName:    strings.TrimSpace(doc.PatientFirst + " " + doc.PatientLast),
			DoctorName:     doc.DoctorName,
			PatientOwnerID: optionalHex(doc.PatientOwner),
		})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return out, nil
}

func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id string, status domain.AppointmentStatus) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrAppointmentNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"status": string(status)}})
	if err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAppointmentNotFound
	}
	return nil
}

// Delete removes the appointment and its prescriptions in one transaction.
func (r *AppointmentRepository) Delete(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrAppointmentNotFound
	}

	return withTransaction(ctx, r.db, func(sc mongo.SessionContext) error {
		res, err := r.coll.DeleteOne(sc, bson.M{"_id": oid})
		if err != nil {
			return fmt.Errorf("delete appointment: %w", err)
		}
		if res.DeletedCount == 0 {
			return domain.ErrAppointmentNotFound
		}
		if _, err := r.db.Collection(collPrescriptions).DeleteMany(sc, bson.M{"appointment_id": oid}); err != nil {
			return fmt.Errorf("delete appointment prescriptions: %w", err)
		}
		return nil
	})
}

func (r *AppointmentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "doctor_id", Value: 1}, {Key: "start_time", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(slotIndexName),
		},
		{Keys: bson.D{{Key: "patient_id", Value: 1}}},
	}
	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}
