package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	bookingRepo "samayog/database/repository/booking"
	userRepo "samayog/database/repository/user"
)

// Re-export the BookingRepository interface and constructors.
type BookingRepository = bookingRepo.BookingRepository

var (
	NewMemoryBookingRepo = bookingRepo.NewMemoryBookingRepo
	NewMongoBookingRepo  = bookingRepo.NewMongoBookingRepo
)

// Re-export the UserRepository interface and constructors.
type UserRepository = userRepo.UserRepository

var (
	NewMemoryUserRepo = userRepo.NewMemoryUserRepo
	NewMongoUserRepo  = userRepo.NewMongoUserRepo
)

// Repositories bundles the stores the sandbox API needs.
type Repositories struct {
	Bookings BookingRepository
	Users    UserRepository
}

// NewMemory returns process-local repositories.
func NewMemory() *Repositories {
	return &Repositories{
		Bookings: bookingRepo.NewMemoryBookingRepo(),
		Users:    userRepo.NewMemoryUserRepo(),
	}
}

// NewMongo returns repositories backed by dbName on client.
func NewMongo(ctx context.Context, client *mongo.Client, dbName string) (*Repositories, error) {
	bookings, err := bookingRepo.NewMongoBookingRepo(ctx, client, dbName)
	if err != nil {
		return nil, err
	}
	users, err := userRepo.NewMongoUserRepo(ctx, client, dbName)
	if err != nil {
		return nil, err
	}
	return &Repositories{Bookings: bookings, Users: users}, nil
}
