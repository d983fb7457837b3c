package session

import (
	"context"
	"errors"
	"time"
)

var ErrRecordNotFound = errors.New("session record not found")

// Record is the saved session of one user on one day. There is at most one
// record per (user, day).
type Record struct {
	UserID    int64     `json:"userId"`
	Day       time.Time `json:"day"`
	Report    Report    `json:"report"`
	Points    int       `json:"points"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Tx is the per-user atomic scope. Everything done through a Tx is applied
// together or not at all, and no other Update for the same user runs meanwhile.
type Tx interface {
	// Profile returns the user profile, a zero profile if the user has none yet.
	Profile(ctx context.Context) (*Profile, error)
	SaveProfile(ctx context.Context, profile *Profile) error
	GetRecord(ctx context.Context, day time.Time) (*Record, error)
	// LatestRecordBefore returns the most recent record strictly before day.
	LatestRecordBefore(ctx context.Context, day time.Time) (*Record, error)
	// UpsertRecord creates the record or replaces report, points and update time of the existing one.
	UpsertRecord(ctx context.Context, record *Record) error
	DeleteRecord(ctx context.Context, day time.Time) error
}

type Store interface {
	// Update runs fn inside the atomic scope of userID. A non nil error from fn discards its writes.
	Update(ctx context.Context, userID int64, fn func(ctx context.Context, tx Tx) error) error
	GetProfile(ctx context.Context, userID int64) (*Profile, error)
	GetRecord(ctx context.Context, userID int64, day time.Time) (*Record, error)
	// ListRecords returns the records within [from, to], ordered by day.
	ListRecords(ctx context.Context, userID int64, from, to time.Time) ([]Record, error)
	// ListProfiles returns the profiles of all users, used to rebuild derived views.
	ListProfiles(ctx context.Context) ([]Profile, error)
}
