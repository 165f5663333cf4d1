package dto_test

import (
	"reserve/internal/domains/reservation/admission"
	"reserve/internal/domains/reservation/model"
	"reserve/internal/domains/reservation/model/dto"
	"reserve/shared/timezone"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalInput_ToInterval(t *testing.T) {
	t.Run("timestamp pair", func(t *testing.T) {
		interval, err := dto.IntervalInput{StartAt: "2025-03-10T09:00:00Z", EndAt: "2025-03-10T10:00:00+01:00"}.ToInterval()

		require.NoError(t, err)
		assert.True(t, interval.Start.Equal(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)))
		assert.True(t, interval.End.Equal(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)))
		assert.False(t, interval.Valid())
	})

	t.Run("date with wall clock times", func(t *testing.T) {
		interval, err := dto.IntervalInput{Date: "2025-03-10", StartTime: "09:00", EndTime: "10:30"}.ToInterval()

		require.NoError(t, err)

		loc := timezone.GetLocation()
		assert.True(t, interval.Start.Equal(time.Date(2025, 3, 10, 9, 0, 0, 0, loc)))
		assert.True(t, interval.End.Equal(time.Date(2025, 3, 10, 10, 30, 0, 0, loc)))
		assert.Equal(t, 90*time.Minute, interval.Duration())
	})

	tests := []struct {
		name  string
		input dto.IntervalInput
	}{
		{name: "nothing supplied", input: dto.IntervalInput{}},
		{name: "bad start", input: dto.IntervalInput{StartAt: "tomorrow", EndAt: "2025-03-10T10:00:00Z"}},
		{name: "missing end", input: dto.IntervalInput{StartAt: "2025-03-10T09:00:00Z"}},
		{name: "bad date", input: dto.IntervalInput{Date: "10/03/2025", StartTime: "09:00", EndTime: "10:00"}},
		{name: "bad clock", input: dto.IntervalInput{Date: "2025-03-10", StartTime: "9am", EndTime: "10:00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.input.ToInterval()

			assert.ErrorIs(t, err, admission.ErrInvalidInterval)
		})
	}
}

func TestUpdateReservationRequest_IsEmpty(t *testing.T) {
	note := ""

	assert.True(t, dto.UpdateReservationRequest{}.IsEmpty())
	assert.False(t, dto.UpdateReservationRequest{Note: &note}.IsEmpty())
	assert.False(t, dto.UpdateReservationRequest{IntervalInput: dto.IntervalInput{Date: "2025-03-10"}}.IsEmpty())
}

func TestScheduleRequest_ToWindow(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 30, 0, 0, timezone.GetLocation())

	window, err := dto.ScheduleRequest{}.ToWindow(now)
	require.NoError(t, err)
	assert.True(t, window.Start.Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, timezone.GetLocation())))
	assert.Equal(t, 24*time.Hour, window.Duration())

	window, err = dto.ScheduleRequest{From: "2025-03-12T08:00:00Z", To: "2025-03-12T18:00:00Z"}.ToWindow(now)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Hour, window.Duration())

	_, err = dto.ScheduleRequest{From: "next week"}.ToWindow(now)
	assert.ErrorIs(t, err, admission.ErrInvalidInterval)
}

func TestAvailabilityResponse_FromAvailability(t *testing.T) {
	interval := admission.NewInterval(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC))
	conflict := model.Reservation{ID: "r-1", OwnerID: "u-9", StartAt: interval.Start, EndAt: interval.End}

	res := dto.AvailabilityResponse{}
	res.FromAvailability("s-1", interval, admission.Availability{Conflict: &conflict})

	assert.False(t, res.Available)
	require.NotNil(t, res.Conflict)
	assert.Equal(t, "r-1", res.Conflict.ReservationID)

	res = dto.AvailabilityResponse{}
	res.FromAvailability("s-1", interval, admission.Availability{})

	assert.True(t, res.Available)
	assert.Nil(t, res.Conflict)
}

func TestSpaceReservationResponse_HidesOwner(t *testing.T) {
	res := dto.GetSpaceReservationsResponse{}
	res.FromModels("s-1", []model.Reservation{{ID: "r-1", OwnerID: "u-9", Status: model.StatusActive}})

	require.Len(t, res.Reservations, 1)
	assert.Equal(t, dto.SpaceReservationResponse{
		ID:      "r-1",
		StartAt: res.Reservations[0].StartAt,
		EndAt:   res.Reservations[0].EndAt,
		Status:  model.StatusActive,
	}, res.Reservations[0])
}
