package di

import (
	"reserve/internal/domains/reservation/admission"
	"reserve/shared/timezone"
)

// ProvideClock binds the admission engine to the application timezone clock.
func ProvideClock() admission.Clock {
	return timezone.Now
}
