package admission

import (
	"errors"
	"fmt"
	"reserve/internal/domains/reservation/model"
)

var (
	ErrInvalidInterval    = errors.New("invalid interval: start must be before end")
	ErrSlotUnavailable    = errors.New("slot unavailable")
	ErrAlreadyCancelled   = errors.New("reservation already cancelled")
	ErrReservationExpired = errors.New("reservation already ended")
)

// SlotUnavailableError names the active reservation that blocked an admission or reschedule.
type SlotUnavailableError struct {
	Conflict model.Reservation
}

func (e *SlotUnavailableError) Error() string {
	return fmt.Sprintf("%s: conflicts with reservation %s [%s, %s)",
		ErrSlotUnavailable.Error(),
		e.Conflict.ID,
		e.Conflict.StartAt.Format("2006-01-02T15:04:05Z07:00"),
		e.Conflict.EndAt.Format("2006-01-02T15:04:05Z07:00"),
	)
}

func (e *SlotUnavailableError) Is(target error) bool {
	return target == ErrSlotUnavailable
}
