package model

import (
	"time"

	"github.com/google/uuid"
)

// User is an account held by the identity provider. Username is the phone
// number for OTP logins or "google:<sub>" for Google sign-ins.
type User struct {
	ID          uuid.UUID
	Username    string
	PhoneNumber string
	Email       string
	Name        string
	CreatedAt   time.Time
}

// RefreshSession is a stored refresh credential. Only the SHA-256 hash of the
// token ever reaches the database.
type RefreshSession struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// Item is a row in the single-table item store.
type Item struct {
	ItemID string  `json:"item_id"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
}
