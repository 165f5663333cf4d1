package reservation

import (
	"net/http"
	"reserve/infras/otel"
	"reserve/internal/domains/reservation/model"
	"reserve/internal/domains/reservation/model/dto"
	"reserve/internal/domains/reservation/service"
	"reserve/shared/constant"
	gDto "reserve/shared/dto"
	"reserve/shared/failure"
	"reserve/shared/validator"
	"reserve/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Reservation
	otel    otel.Otel
}

func New(service service.Reservation, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/spaces/{space_id}", func(routerGroup chi.Router) {
		routerGroup.Get("/reservations", handler.GetSpaceReservations)
		routerGroup.Get("/schedule", handler.GetSpaceSchedule)
	})

	router.Route("/reservations", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateReservation)
		routerGroup.Get("/availability", handler.CheckAvailability)
		routerGroup.Get("/mine", handler.GetMyReservations)
		routerGroup.Get("/{id}", handler.GetReservationByID)
		routerGroup.Patch("/{id}", handler.UpdateReservation)
		routerGroup.Delete("/{id}", handler.CancelReservation)
	})
}

// CreateReservation admits a new reservation.
// @Summary Create a reservation
// @Description Reserve a space for a half-open interval [start_at, end_at). Either start_at/end_at or date/start_time/end_time must be given.
// @Tags Reservation
// @Accept json
// @Produce json
// @Param request body dto.CreateReservationRequest true "Create Reservation Request"
// @Success 201 {object} response.Data[dto.ReservationResponse]
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error "Slot unavailable, details holds the conflicting interval"
// @Failure 500 {object} response.Error
// @Router /v1/reservations [post]
// @Security BearerAuth
func (handler *Handler) CreateReservation(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateReservation")
	defer scope.End()

	req := dto.CreateReservationRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	res, err := handler.service.Create(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create reservation")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Reservation created " + res.ID)

	response.WithJSON(writer, http.StatusCreated, res)
}

// CheckAvailability reports whether an interval is free on a space.
// @Summary Check availability
// @Description Check a half-open interval against the active reservations of a space.
// @Tags Reservation
// @Produce json
// @Param space_id query string true "Space ID"
// @Param start_at query string true "Start (RFC 3339)"
// @Param end_at query string true "End (RFC 3339)"
// @Success 200 {object} response.Data[dto.AvailabilityResponse]
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/reservations/availability [get]
func (handler *Handler) CheckAvailability(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CheckAvailability")
	defer scope.End()

	query := request.URL.Query()
	req := dto.AvailabilityRequest{
		SpaceID: query.Get(constant.RequestParamSpaceID),
		StartAt: query.Get(constant.RequestParamStartAt),
		EndAt:   query.Get(constant.RequestParamEndAt),
	}

	if err := validator.ValidateStruct(&req); err != nil {
		scope.TraceError(err)

		response.WithError(writer, err)

		return
	}

	res, err := handler.service.CheckAvailability(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to check availability")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}

// GetSpaceReservations lists the active reservations of a space.
// @Summary List active reservations of a space
// @Description Owners are not disclosed.
// @Tags Reservation
// @Produce json
// @Param space_id path string true "Space ID"
// @Success 200 {object} response.Data[dto.GetSpaceReservationsResponse]
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/spaces/{space_id}/reservations [get]
func (handler *Handler) GetSpaceReservations(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetSpaceReservations")
	defer scope.End()

	spaceID, err := spaceIDParam(request)
	if err != nil {
		response.WithError(writer, err)

		return
	}

	res, err := handler.service.ListActiveBySpace(ctx, spaceID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get space reservations")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}

// GetSpaceSchedule returns busy and free blocks of a space.
// @Summary Get space schedule
// @Description Busy and free intervals of a space inside [from, to). Bounds accept RFC 3339 or YYYY-MM-DD; the default window is today.
// @Tags Reservation
// @Produce json
// @Param space_id path string true "Space ID"
// @Param from query string false "Window start"
// @Param to query string false "Window end"
// @Success 200 {object} response.Data[dto.ScheduleResponse]
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/spaces/{space_id}/schedule [get]
func (handler *Handler) GetSpaceSchedule(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetSpaceSchedule")
	defer scope.End()

	spaceID, err := spaceIDParam(request)
	if err != nil {
		response.WithError(writer, err)

		return
	}

	req := dto.ScheduleRequest{
		From: request.URL.Query().Get(constant.RequestParamFrom),
		To:   request.URL.Query().Get(constant.RequestParamTo),
	}

	res, err := handler.service.Schedule(ctx, spaceID, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get space schedule")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}

// GetMyReservations lists the caller's reservations.
// @Summary Get my reservations
// @Tags Reservation
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param status query string false "Filter by status (active, cancelled)"
// @Success 200 {object} response.Data[dto.GetReservationsResponse]
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/reservations/mine [get]
// @Security BearerAuth
func (handler *Handler) GetMyReservations(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetMyReservations")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(request, true)

	status := request.URL.Query().Get(constant.RequestParamStatus)
	if err := validator.ValidateVar(status, "omitempty,oneof="+model.StatusActive+" "+model.StatusCancelled); err != nil {
		response.WithError(writer, err)

		return
	}

	res, err := handler.service.GetMine(ctx, queryParams, status)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get reservations")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}

// GetReservationByID returns one of the caller's reservations.
// @Summary Get reservation by ID
// @Tags Reservation
// @Produce json
// @Param id path string true "Reservation ID"
// @Success 200 {object} response.Data[dto.ReservationResponse]
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/reservations/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetReservationByID(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetReservationByID")
	defer scope.End()

	id, err := idParam(request)
	if err != nil {
		response.WithError(writer, err)

		return
	}

	res, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get reservation")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}

// UpdateReservation reschedules a reservation or edits its note.
// @Summary Reschedule a reservation
// @Description The new interval is checked against the other active reservations of the space.
// @Tags Reservation
// @Accept json
// @Produce json
// @Param id path string true "Reservation ID"
// @Param request body dto.UpdateReservationRequest true "Update Reservation Request"
// @Success 200 {object} response.Data[dto.ReservationResponse]
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/reservations/{id} [patch]
// @Security BearerAuth
func (handler *Handler) UpdateReservation(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateReservation")
	defer scope.End()

	id, err := idParam(request)
	if err != nil {
		response.WithError(writer, err)

		return
	}

	req := dto.UpdateReservationRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	res, err := handler.service.Update(ctx, req, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update reservation")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}

// CancelReservation cancels one of the caller's reservations.
// @Summary Cancel a reservation
// @Tags Reservation
// @Produce json
// @Param id path string true "Reservation ID"
// @Success 200 {object} response.Message
// @Failure 400 {object} response.Error "Reservation already ended"
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error "Reservation already cancelled"
// @Failure 500 {object} response.Error
// @Router /v1/reservations/{id} [delete]
// @Security BearerAuth
func (handler *Handler) CancelReservation(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CancelReservation")
	defer scope.End()

	id, err := idParam(request)
	if err != nil {
		response.WithError(writer, err)

		return
	}

	if err := handler.service.Cancel(ctx, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to cancel reservation")

		response.WithError(writer, err)

		return
	}

	response.WithMessage(writer, http.StatusOK, "Reservation cancelled successfully")
}

func idParam(request *http.Request) (string, error) {
	id := chi.URLParam(request, constant.RequestParamID)
	if err := validator.ValidateVar(id, "required,uuid"); err != nil {
		return "", failure.BadRequestFromString("invalid reservation id") // nolint:wrapcheck
	}

	return id, nil
}

func spaceIDParam(request *http.Request) (string, error) {
	id := chi.URLParam(request, constant.RequestParamSpaceID)
	if err := validator.ValidateVar(id, "required,uuid"); err != nil {
		return "", failure.BadRequestFromString("invalid space id") // nolint:wrapcheck
	}

	return id, nil
}
