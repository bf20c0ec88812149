package models

import (
	"strings"
	"time"
)

// User is an account held by the sandbox API.
type User struct {
	ID           string    `bson:"id" json:"id"`
	FirstName    string    `bson:"first_name" json:"first_name"`
	LastName     string    `bson:"last_name" json:"last_name"`
	Phone        string    `bson:"phone" json:"phone"`
	Email        string    `bson:"email,omitempty" json:"email,omitempty"`
	PasswordHash string    `bson:"password_hash,omitempty" json:"-"`
	DOB          string    `bson:"dob,omitempty" json:"dob,omitempty"`
	Gender       string    `bson:"gender,omitempty" json:"gender,omitempty"`
	City         string    `bson:"city,omitempty" json:"city,omitempty"`
	Latitude     float64   `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude    float64   `bson:"longitude,omitempty" json:"longitude,omitempty"`
	CreatedAt    time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updatedAt"`
}

// ServerUser converts u to the nested wire form of the auth endpoints.
func (u *User) ServerUser() *ServerUser {
	return &ServerUser{
		UserID:    FlexibleID(u.ID),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
	}
}

// DisplayName joins first and last name.
func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
