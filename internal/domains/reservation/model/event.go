package model

import "time"

const (
	EventCreated     = "reservation.created"
	EventCancelled   = "reservation.cancelled"
	EventRescheduled = "reservation.rescheduled"
)

// Event is published to the reservation topic after a state change commits.
type Event struct {
	Type          string    `json:"type"`
	ReservationID string    `json:"reservation_id"`
	SpaceID       string    `json:"space_id"`
	OwnerID       string    `json:"owner_id"`
	StartAt       time.Time `json:"start_at"`
	EndAt         time.Time `json:"end_at"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func NewEvent(eventType string, r Reservation, at time.Time) Event {
	return Event{
		Type:          eventType,
		ReservationID: r.ID,
		SpaceID:       r.SpaceID,
		OwnerID:       r.OwnerID,
		StartAt:       r.StartAt,
		EndAt:         r.EndAt,
		Status:        r.Status,
		OccurredAt:    at,
	}
}
