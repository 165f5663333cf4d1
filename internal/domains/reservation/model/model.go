package model

import (
	"reserve/shared/model"
	"time"
)

const (
	TableName  = "reservations"
	EntityName = "reservation"

	FieldID        = "id"
	FieldSpaceID   = "space_id"
	FieldOwnerID   = "owner_id"
	FieldStartAt   = "start_at"
	FieldEndAt     = "end_at"
	FieldStatus    = "status"
	FieldNote      = "note"
	FieldCreatedAt = "created_at"
)

const (
	StatusActive    = "active"
	StatusCancelled = "cancelled"
)

// Reservation holds a half-open interval [StartAt, EndAt) on a single space.
type Reservation struct {
	ID      string    `db:"id"`
	SpaceID string    `db:"space_id"`
	OwnerID string    `db:"owner_id"`
	StartAt time.Time `db:"start_at"`
	EndAt   time.Time `db:"end_at"`
	Status  string    `db:"status"`
	Note    string    `db:"note"`
	model.Metadata
}

func (r Reservation) IsActive() bool {
	return r.Status == StatusActive
}

// IsPast reports whether the interval has fully elapsed at now. Past is never stored.
func (r Reservation) IsPast(now time.Time) bool {
	return !r.EndAt.After(now)
}
