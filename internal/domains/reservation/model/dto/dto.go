package dto

import (
	"fmt"
	"reserve/internal/domains/reservation/admission"
	"reserve/internal/domains/reservation/model"
	"reserve/shared"
	"reserve/shared/constant"
	gDto "reserve/shared/dto"
	"reserve/shared/timezone"
	"time"
)

// IntervalInput accepts either an RFC 3339 timestamp pair or a calendar date
// with wall clock start and end times in the application timezone.
type IntervalInput struct {
	StartAt   string `json:"start_at"   validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	EndAt     string `json:"end_at"     validate:"required_with=StartAt,omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Date      string `json:"date"       validate:"excluded_with=StartAt,omitempty,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required_with=Date,omitempty,datetime=15:04"`
	EndTime   string `json:"end_time"   validate:"required_with=Date,omitempty,datetime=15:04"`
}

func (i IntervalInput) IsEmpty() bool {
	return i == IntervalInput{}
}

// ToInterval parses the input. Unparseable or missing values are reported as
// admission.ErrInvalidInterval; ordering of start and end is left to the engine.
func (i IntervalInput) ToInterval() (admission.Interval, error) {
	if i.StartAt != "" {
		return parseTimestamps(i.StartAt, i.EndAt)
	}

	if i.Date != "" {
		return parseDateAndClock(i.Date, i.StartTime, i.EndTime)
	}

	return admission.Interval{}, fmt.Errorf("%w: start_at and end_at are required", admission.ErrInvalidInterval)
}

func parseTimestamps(startAt, endAt string) (admission.Interval, error) {
	start, err := time.Parse(constant.DateFormat, startAt)
	if err != nil {
		return admission.Interval{}, fmt.Errorf("%w: start_at: %w", admission.ErrInvalidInterval, err)
	}

	end, err := time.Parse(constant.DateFormat, endAt)
	if err != nil {
		return admission.Interval{}, fmt.Errorf("%w: end_at: %w", admission.ErrInvalidInterval, err)
	}

	return admission.NewInterval(start, end), nil
}

func parseDateAndClock(date, startTime, endTime string) (admission.Interval, error) {
	day, err := timezone.Parse(constant.DateOnlyFormat, date)
	if err != nil {
		return admission.Interval{}, fmt.Errorf("%w: date: %w", admission.ErrInvalidInterval, err)
	}

	startClock, err := time.Parse(constant.TimeOfDayFormat, startTime)
	if err != nil {
		return admission.Interval{}, fmt.Errorf("%w: start_time: %w", admission.ErrInvalidInterval, err)
	}

	endClock, err := time.Parse(constant.TimeOfDayFormat, endTime)
	if err != nil {
		return admission.Interval{}, fmt.Errorf("%w: end_time: %w", admission.ErrInvalidInterval, err)
	}

	return admission.NewInterval(
		timezone.CombineDateAndClock(day, startClock),
		timezone.CombineDateAndClock(day, endClock),
	), nil
}

type CreateReservationRequest struct {
	SpaceID string `json:"space_id" validate:"required,uuid"`
	IntervalInput
	Note string `json:"note" validate:"omitempty,max=500"`
}

type UpdateReservationRequest struct {
	IntervalInput
	Note *string `json:"note" validate:"omitempty,max=500"`
}

func (u UpdateReservationRequest) IsEmpty() bool {
	return u.IntervalInput.IsEmpty() && u.Note == nil
}

type AvailabilityRequest struct {
	SpaceID string `json:"space_id" validate:"required,uuid"`
	StartAt string `json:"start_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	EndAt   string `json:"end_at"   validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
}

func (a AvailabilityRequest) ToInterval() (admission.Interval, error) {
	return parseTimestamps(a.StartAt, a.EndAt)
}

// ScheduleRequest bounds a schedule lookup. Each bound is RFC 3339 or a bare
// date at midnight in the application timezone. A missing From means today,
// a missing To means one day after From.
type ScheduleRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (s ScheduleRequest) ToWindow(now time.Time) (admission.Interval, error) {
	from := timezone.StartOfDay(now)

	if s.From != "" {
		parsed, err := parseBound(s.From)
		if err != nil {
			return admission.Interval{}, fmt.Errorf("%w: from: %w", admission.ErrInvalidInterval, err)
		}

		from = parsed
	}

	to := from.AddDate(0, 0, 1)

	if s.To != "" {
		parsed, err := parseBound(s.To)
		if err != nil {
			return admission.Interval{}, fmt.Errorf("%w: to: %w", admission.ErrInvalidInterval, err)
		}

		to = parsed
	}

	return admission.NewInterval(from, to), nil
}

func parseBound(value string) (time.Time, error) {
	if t, err := time.Parse(constant.DateFormat, value); err == nil {
		return t, nil
	}

	return timezone.Parse(constant.DateOnlyFormat, value) //nolint:wrapcheck
}

type ReservationResponse struct {
	ID      string `json:"id"`
	SpaceID string `json:"space_id"`
	OwnerID string `json:"owner_id"`
	StartAt string `json:"start_at"`
	EndAt   string `json:"end_at"`
	Status  string `json:"status"`
	Note    string `json:"note"`
	gDto.Metadata
}

func (r *ReservationResponse) FromModel(model model.Reservation) {
	r.ID = model.ID
	r.SpaceID = model.SpaceID
	r.OwnerID = model.OwnerID
	r.StartAt = timezone.Format(model.StartAt, constant.DateFormat)
	r.EndAt = timezone.Format(model.EndAt, constant.DateFormat)
	r.Status = model.Status
	r.Note = model.Note
	r.Metadata.FromModel(model.Metadata)
}

type GetReservationsResponse struct {
	Reservations []ReservationResponse `json:"reservations"`
	TotalPage    int                   `json:"total_page"`
	TotalData    int                   `json:"total_data"`
}

func (r *GetReservationsResponse) FromModels(models []model.Reservation, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Reservations = make([]ReservationResponse, len(models))
	for i, mod := range models {
		r.Reservations[i].FromModel(mod)
	}
}

// SpaceReservationResponse is the public view of a reservation on a space. It
// carries no owner information.
type SpaceReservationResponse struct {
	ID      string `json:"id"`
	StartAt string `json:"start_at"`
	EndAt   string `json:"end_at"`
	Status  string `json:"status"`
}

func (r *SpaceReservationResponse) FromModel(model model.Reservation) {
	r.ID = model.ID
	r.StartAt = timezone.Format(model.StartAt, constant.DateFormat)
	r.EndAt = timezone.Format(model.EndAt, constant.DateFormat)
	r.Status = model.Status
}

type GetSpaceReservationsResponse struct {
	SpaceID      string                     `json:"space_id"`
	Reservations []SpaceReservationResponse `json:"reservations"`
}

func (r *GetSpaceReservationsResponse) FromModels(spaceID string, models []model.Reservation) {
	r.SpaceID = spaceID
	r.Reservations = make([]SpaceReservationResponse, len(models))

	for i, mod := range models {
		r.Reservations[i].FromModel(mod)
	}
}

// ConflictResponse describes the reservation blocking a requested slot.
type ConflictResponse struct {
	ReservationID string `json:"reservation_id"`
	StartAt       string `json:"start_at"`
	EndAt         string `json:"end_at"`
}

func (c *ConflictResponse) FromModel(model model.Reservation) {
	c.ReservationID = model.ID
	c.StartAt = timezone.Format(model.StartAt, constant.DateFormat)
	c.EndAt = timezone.Format(model.EndAt, constant.DateFormat)
}

type AvailabilityResponse struct {
	SpaceID   string            `json:"space_id"`
	StartAt   string            `json:"start_at"`
	EndAt     string            `json:"end_at"`
	Available bool              `json:"available"`
	Conflict  *ConflictResponse `json:"conflict,omitempty"`
}

func (a *AvailabilityResponse) FromAvailability(spaceID string, interval admission.Interval, availability admission.Availability) {
	a.SpaceID = spaceID
	a.StartAt = timezone.Format(interval.Start, constant.DateFormat)
	a.EndAt = timezone.Format(interval.End, constant.DateFormat)
	a.Available = availability.Available()

	if availability.Conflict != nil {
		a.Conflict = &ConflictResponse{}
		a.Conflict.FromModel(*availability.Conflict)
	}
}

type IntervalResponse struct {
	StartAt string `json:"start_at"`
	EndAt   string `json:"end_at"`
}

type ScheduleResponse struct {
	SpaceID string             `json:"space_id"`
	From    string             `json:"from"`
	To      string             `json:"to"`
	Busy    []IntervalResponse `json:"busy"`
	Free    []IntervalResponse `json:"free"`
}

func (s *ScheduleResponse) FromIntervals(spaceID string, window admission.Interval, busy, free []admission.Interval) {
	s.SpaceID = spaceID
	s.From = timezone.Format(window.Start, constant.DateFormat)
	s.To = timezone.Format(window.End, constant.DateFormat)
	s.Busy = toIntervalResponses(busy)
	s.Free = toIntervalResponses(free)
}

func toIntervalResponses(intervals []admission.Interval) []IntervalResponse {
	res := make([]IntervalResponse, len(intervals))

	for i, interval := range intervals {
		res[i] = IntervalResponse{
			StartAt: timezone.Format(interval.Start, constant.DateFormat),
			EndAt:   timezone.Format(interval.End, constant.DateFormat),
		}
	}

	return res
}
