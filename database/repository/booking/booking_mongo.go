package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"samayog/models"
)

// MongoBookingRepo implements BookingRepository using MongoDB. Transitions
// are single conditional updates, so concurrent cancels and settlements
// cannot both win.
type MongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo returns a repository over dbName.bookings and makes
// sure its indexes exist.
func NewMongoBookingRepo(ctx context.Context, client *mongo.Client, dbName string) (*MongoBookingRepo, error) {
	repo := &MongoBookingRepo{coll: client.Database(dbName).Collection("bookings")}
	if err := repo.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *MongoBookingRepo) ensureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "professional_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	return nil
}

func (r *MongoBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, booking); err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var b models.Booking
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch booking %s: %w", id, err)
	}
	return &b, nil
}

func (r *MongoBookingRepo) ListByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

func (r *MongoBookingRepo) ListByProfessional(ctx context.Context, professionalID string) ([]models.Booking, error) {
	return r.find(ctx, bson.M{"professional_id": professionalID})
}

func (r *MongoBookingRepo) find(ctx context.Context, filter bson.M) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cursor.Close(ctx) //nolint:errcheck

	bookings := []models.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *MongoBookingRepo) SetPaymentURL(ctx context.Context, id, paymentURL string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"payment_url": paymentURL, "updated_at": time.Now().UTC()}}
	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to set payment url on %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoBookingRepo) Cancel(ctx context.Context, id string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"_id":    id,
		"status": bson.M{"$nin": bson.A{models.BookingCancelled, models.BookingCompleted}},
	}
	update := bson.M{"$set": bson.M{"status": models.BookingCancelled, "updated_at": time.Now().UTC()}}
	return r.transition(ctx, id, filter, update, ErrTerminal)
}

func (r *MongoBookingRepo) UpdatePayment(ctx context.Context, id string, status models.PaymentStatus, transactionID string) (*models.Booking, error) {
	if !models.PaymentPending.CanTransitionTo(status) {
		return nil, ErrIllegalTransition
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"_id":            id,
		"status":         bson.M{"$ne": models.BookingCancelled},
		"payment_status": models.PaymentPending,
	}
	set := bson.D{
		{Key: "payment_status", Value: status},
		{Key: "updated_at", Value: time.Now().UTC()},
	}
	if transactionID != "" {
		set = append(set, bson.E{Key: "transaction_id", Value: transactionID})
	}
	if status == models.PaymentCompleted {
		set = append(set, bson.E{Key: "status", Value: bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$eq", Value: bson.A{"$status", models.BookingPending}}},
			models.BookingConfirmed,
			"$status",
		}}}})
	}
	update := mongo.Pipeline{{{Key: "$set", Value: set}}}

	b, err := r.transition(ctx, id, filter, update, nil)
	if !errors.Is(err, errNoMatch) {
		return b, err
	}
	current, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	if current.Status == models.BookingCancelled {
		return nil, ErrTerminal
	}
	return nil, ErrIllegalTransition
}

var errNoMatch = errors.New("no booking matched the transition")

// transition applies update when filter matches. When nothing matches it
// reports ErrNotFound for a missing booking and otherwise onConflict, or
// errNoMatch when onConflict is nil.
func (r *MongoBookingRepo) transition(ctx context.Context, id string, filter, update interface{}, onConflict error) (*models.Booking, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var b models.Booking
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&b)
	if err == nil {
		return &b, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update booking %s: %w", id, err)
	}

	n, countErr := r.coll.CountDocuments(ctx, bson.M{"_id": id})
	if countErr != nil {
		return nil, fmt.Errorf("failed to check booking %s: %w", id, countErr)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	if onConflict != nil {
		return nil, onConflict
	}
	return nil, errNoMatch
}
