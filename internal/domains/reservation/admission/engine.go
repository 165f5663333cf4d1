// Package admission decides whether a reservation may be committed on a
// space. It performs no I/O: callers pass in a snapshot of the space's
// active reservations, taken inside a per-space critical section, and
// persist whatever the engine returns.
package admission

import (
	"reserve/internal/domains/reservation/model"
	"time"
)

// Clock supplies the current instant for expiry checks.
type Clock func() time.Time

// Availability is the outcome of an availability check. Conflict is nil when the slot is free.
type Availability struct {
	Conflict *model.Reservation
}

func (a Availability) Available() bool {
	return a.Conflict == nil
}

type Engine struct {
	now Clock
}

func New(clock Clock) *Engine {
	if clock == nil {
		clock = time.Now
	}

	return &Engine{now: clock}
}

// CheckAvailability reports the first active reservation on spaceID that
// overlaps proposed. Reservations on other spaces, non-active ones, and the
// one whose id equals excludeID are ignored. When several conflict, the
// earliest starting one wins, ties broken by the lowest id.
func (e *Engine) CheckAvailability(spaceID string, proposed Interval, active []model.Reservation, excludeID string) (Availability, error) {
	if !proposed.Valid() {
		return Availability{}, ErrInvalidInterval
	}

	var first *model.Reservation

	for i := range active {
		candidate := active[i]

		if candidate.SpaceID != spaceID || !candidate.IsActive() {
			continue
		}

		if excludeID != "" && candidate.ID == excludeID {
			continue
		}

		if !Overlaps(proposed, IntervalOf(candidate)) {
			continue
		}

		if first == nil || precedes(candidate, *first) {
			first = &candidate
		}
	}

	return Availability{Conflict: first}, nil
}

// Admit returns a new active reservation when proposed is free. The id is left
// empty for the store to assign.
func (e *Engine) Admit(spaceID string, proposed Interval, ownerID, note string, active []model.Reservation) (model.Reservation, error) {
	availability, err := e.CheckAvailability(spaceID, proposed, active, "")
	if err != nil {
		return model.Reservation{}, err
	}

	if !availability.Available() {
		return model.Reservation{}, &SlotUnavailableError{Conflict: *availability.Conflict}
	}

	now := e.now()

	reservation := model.Reservation{
		SpaceID: spaceID,
		OwnerID: ownerID,
		StartAt: proposed.Start,
		EndAt:   proposed.End,
		Status:  model.StatusActive,
		Note:    note,
	}
	reservation.CreatedAt = now
	reservation.ModifiedAt = now
	reservation.CreatedBy = ownerID
	reservation.ModifiedBy = ownerID

	return reservation, nil
}

// Cancel moves an active, not yet ended reservation to cancelled.
func (e *Engine) Cancel(reservation *model.Reservation) error {
	if !reservation.IsActive() {
		return ErrAlreadyCancelled
	}

	now := e.now()
	if reservation.IsPast(now) {
		return ErrReservationExpired
	}

	reservation.Status = model.StatusCancelled
	reservation.ModifiedAt = now

	return nil
}

// Reschedule moves reservation to to, checking it against the other active
// reservations of its space. On any error reservation is left untouched.
func (e *Engine) Reschedule(reservation *model.Reservation, to Interval, active []model.Reservation) error {
	if !reservation.IsActive() {
		return ErrAlreadyCancelled
	}

	availability, err := e.CheckAvailability(reservation.SpaceID, to, active, reservation.ID)
	if err != nil {
		return err
	}

	if !availability.Available() {
		return &SlotUnavailableError{Conflict: *availability.Conflict}
	}

	reservation.StartAt = to.Start
	reservation.EndAt = to.End
	reservation.ModifiedAt = e.now()

	return nil
}

func precedes(a, b model.Reservation) bool {
	if !a.StartAt.Equal(b.StartAt) {
		return a.StartAt.Before(b.StartAt)
	}

	return a.ID < b.ID
}
