package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=./mocks/service_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"reserve/config"
	"reserve/infras/kafka"
	"reserve/infras/otel"
	"reserve/internal/domains/reservation/admission"
	"reserve/internal/domains/reservation/model"
	"reserve/internal/domains/reservation/model/dto"
	"reserve/internal/domains/reservation/repository"
	spaceRepo "reserve/internal/domains/space/repository"
	"reserve/shared"
	"reserve/shared/cache"
	"reserve/shared/constant"
	gDto "reserve/shared/dto"
	"reserve/shared/failure"
	"reserve/shared/timezone"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

const (
	cacheGetReservation      = "reservation:get"
	cacheGetAllReservation   = "reservation:gets"
	cacheCountReservation    = "reservation:count"
	cacheSpaceReservations   = "reservation:space"
	cacheScheduleReservation = "reservation:schedule"
)

var sortableColumns = []string{model.FieldStartAt, model.FieldEndAt, model.FieldCreatedAt, model.FieldStatus}

type Reservation interface {
	Create(ctx context.Context, req dto.CreateReservationRequest) (dto.ReservationResponse, error)
	CheckAvailability(ctx context.Context, req dto.AvailabilityRequest) (dto.AvailabilityResponse, error)
	ListActiveBySpace(ctx context.Context, spaceID string) (dto.GetSpaceReservationsResponse, error)
	Schedule(ctx context.Context, spaceID string, req dto.ScheduleRequest) (dto.ScheduleResponse, error)
	GetMine(ctx context.Context, req gDto.QueryParams, status string) (dto.GetReservationsResponse, error)
	Get(ctx context.Context, id string) (dto.ReservationResponse, error)
	Update(ctx context.Context, req dto.UpdateReservationRequest, id string) (dto.ReservationResponse, error)
	Cancel(ctx context.Context, id string) error
}

type serviceImpl struct {
	repo      repository.Reservation
	spaceRepo spaceRepo.Space
	engine    *admission.Engine
	cfg       *config.Config
	cache     cache.RedisCache
	kafka     kafka.Client
	otel      otel.Otel

	// generation moves on every committed write. A read only caches its
	// result when no write landed between its store lookup and the save.
	generation atomic.Uint64
}

func New(repo repository.Reservation, spaceRepo spaceRepo.Space, engine *admission.Engine, cfg *config.Config, cache cache.RedisCache, kafka kafka.Client, otel otel.Otel) Reservation {
	return &serviceImpl{
		repo:      repo,
		spaceRepo: spaceRepo,
		engine:    engine,
		cfg:       cfg,
		cache:     cache,
		kafka:     kafka,
		otel:      otel,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateReservationRequest) (res dto.ReservationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	interval, err := req.ToInterval()
	if err != nil {
		return res, toFailure(err)
	}

	if !interval.Valid() {
		return res, toFailure(admission.ErrInvalidInterval)
	}

	scope.SetAttributes(map[string]any{
		"reservation.space_id": req.SpaceID,
		"reservation.start_at": interval.Start,
		"reservation.end_at":   interval.End,
	})

	if err = s.ensureSpace(ctx, req.SpaceID); err != nil {
		return res, err
	}

	var created model.Reservation

	err = s.repo.WithinSpaceLock(ctx, req.SpaceID, func(tx *sqlx.Tx) error {
		active, err := s.repo.GetActiveBySpaceTx(ctx, tx, req.SpaceID)
		if err != nil {
			log.Error().Err(err).Msg("failed to get active reservations")

			return fmt.Errorf("failed to get active reservations: %w", err)
		}

		admitted, err := s.engine.Admit(req.SpaceID, interval, user, req.Note, active)
		if err != nil {
			return toFailure(err)
		}

		created, err = s.repo.CreateTx(ctx, tx, admitted)
		if err != nil {
			log.Error().Err(err).Msg("failed to create reservation")

			return fmt.Errorf("failed to create reservation: %w", err)
		}

		return nil
	})
	if err != nil {
		return res, toFailure(err)
	}

	log.Info().Str("reservation_id", created.ID).Str("space_id", created.SpaceID).Msg("reservation admitted")

	s.afterChange(ctx, model.EventCreated, created)

	res.FromModel(created)

	return res, nil
}

func (s *serviceImpl) CheckAvailability(ctx context.Context, req dto.AvailabilityRequest) (res dto.AvailabilityResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CheckAvailability")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	interval, err := req.ToInterval()
	if err != nil {
		return res, toFailure(err)
	}

	if !interval.Valid() {
		return res, toFailure(admission.ErrInvalidInterval)
	}

	if err = s.ensureSpace(ctx, req.SpaceID); err != nil {
		return res, err
	}

	active, err := s.repo.GetActiveBySpace(ctx, req.SpaceID, &repository.Window{From: interval.Start, To: interval.End})
	if err != nil {
		log.Error().Err(err).Msg("failed to get active reservations")

		return res, fmt.Errorf("failed to get active reservations: %w", err)
	}

	availability, err := s.engine.CheckAvailability(req.SpaceID, interval, active, "")
	if err != nil {
		return res, toFailure(err)
	}

	res.FromAvailability(req.SpaceID, interval, availability)

	return res, nil
}

func (s *serviceImpl) ListActiveBySpace(ctx context.Context, spaceID string) (res dto.GetSpaceReservationsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ListActiveBySpace")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKey(cacheSpaceReservations, spaceID)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for space reservations")

		return res, nil
	}

	if err = s.ensureSpace(ctx, spaceID); err != nil {
		return res, err
	}

	gen := s.generation.Load()

	models, err := s.repo.GetActiveBySpace(ctx, spaceID, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to get active reservations")

		return res, fmt.Errorf("failed to get active reservations: %w", err)
	}

	res.FromModels(spaceID, models)

	s.saveCache(ctx, gen, cacheKey, res)

	return res, nil
}

func (s *serviceImpl) Schedule(ctx context.Context, spaceID string, req dto.ScheduleRequest) (res dto.ScheduleResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Schedule")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	window, err := req.ToWindow(timezone.Now())
	if err != nil {
		return res, toFailure(err)
	}

	if !window.Valid() {
		return res, toFailure(admission.ErrInvalidInterval)
	}

	maxDays := s.cfg.Reservation.MaxScheduleDays
	if maxDays > 0 && window.Duration() > time.Duration(maxDays)*constant.HoursInDay*time.Hour {
		return res, failure.BadRequestFromString(fmt.Sprintf("schedule window cannot exceed %d days", maxDays)) // nolint:wrapcheck
	}

	cacheKey := shared.BuildCacheKey(cacheScheduleReservation, spaceID, window.Start.UTC().Format(constant.DateFormat), window.End.UTC().Format(constant.DateFormat))

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for space schedule")

		return res, nil
	}

	if err = s.ensureSpace(ctx, spaceID); err != nil {
		return res, err
	}

	gen := s.generation.Load()

	active, err := s.repo.GetActiveBySpace(ctx, spaceID, &repository.Window{From: window.Start, To: window.End})
	if err != nil {
		log.Error().Err(err).Msg("failed to get active reservations")

		return res, fmt.Errorf("failed to get active reservations: %w", err)
	}

	res.FromIntervals(spaceID, window, admission.Busy(active, window), admission.Free(active, window))

	s.saveCache(ctx, gen, cacheKey, res)

	return res, nil
}

func (s *serviceImpl) GetMine(ctx context.Context, req gDto.QueryParams, status string) (res dto.GetReservationsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetMine")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	req.RestrictSortBy(sortableColumns...)

	if req.SortBy == constant.Empty {
		req.SortBy = model.FieldStartAt
		req.SortDir = gDto.SortDirDesc
	}

	if req.SortDir == constant.Empty {
		req.SortDir = gDto.SortDirAsc
	}

	filters := []any{
		gDto.Filter{Field: model.FieldOwnerID, Value: user, Operator: gDto.FilterOperatorEq, Table: model.TableName},
	}

	if status != constant.Empty {
		filters = append(filters, gDto.Filter{Field: model.FieldStatus, Value: status, Operator: gDto.FilterOperatorEq, Table: model.TableName})
	}

	filter := gDto.FilterGroup{Operator: gDto.FilterGroupOperatorAnd, Filters: filters}
	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllReservation, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for reservations")

		return res, nil
	}

	gen := s.generation.Load()

	total, err := s.count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count reservations")

		return res, fmt.Errorf("failed to count reservations: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get reservations")

		return res, fmt.Errorf("failed to get reservations: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	s.saveCache(ctx, gen, cacheKey, res)

	return res, nil
}

func (s *serviceImpl) count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".count")
	defer scope.End()

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountReservation, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		return res, nil
	}

	gen := s.generation.Load()

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		return res, fmt.Errorf("failed to count reservations: %w", err)
	}

	s.saveCache(ctx, gen, cacheKey, res)

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.ReservationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	cacheKey := shared.BuildCacheKey(cacheGetReservation, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for reservation")

		if res.OwnerID != user {
			return dto.ReservationResponse{}, failure.ForbiddenError
		}

		return res, nil
	}

	gen := s.generation.Load()

	reservation, err := s.getOwned(ctx, id, user)
	if err != nil {
		return res, err
	}

	res.FromModel(reservation)

	s.saveCache(ctx, gen, cacheKey, res)

	return res, nil
}

// Update reschedules the reservation when an interval is supplied and edits its note.
func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateReservationRequest, id string) (res dto.ReservationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if req.IsEmpty() {
		return res, failure.BadRequestFromString("update request cannot be empty") // nolint:wrapcheck
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	var interval admission.Interval

	reschedule := !req.IntervalInput.IsEmpty()
	if reschedule {
		interval, err = req.ToInterval()
		if err != nil {
			return res, toFailure(err)
		}
	}

	current, err := s.getOwned(ctx, id, user)
	if err != nil {
		return res, err
	}

	var updated model.Reservation

	err = s.repo.WithinSpaceLock(ctx, current.SpaceID, func(tx *sqlx.Tx) error {
		reservation, err := s.repo.GetForUpdateTx(ctx, tx, id)
		if err != nil {
			log.Error().Err(err).Msg("failed to get reservation")

			return fmt.Errorf("failed to get reservation: %w", err)
		}

		if reservation.ID == constant.Empty {
			return failure.NotFound("reservation not found") // nolint:wrapcheck
		}

		fields := map[string]any{}

		if reschedule {
			active, err := s.repo.GetActiveBySpaceTx(ctx, tx, reservation.SpaceID)
			if err != nil {
				log.Error().Err(err).Msg("failed to get active reservations")

				return fmt.Errorf("failed to get active reservations: %w", err)
			}

			if err = s.engine.Reschedule(&reservation, interval, active); err != nil {
				return toFailure(err)
			}

			fields[model.FieldStartAt] = reservation.StartAt
			fields[model.FieldEndAt] = reservation.EndAt
		} else if !reservation.IsActive() {
			return toFailure(admission.ErrAlreadyCancelled)
		}

		if req.Note != nil {
			reservation.Note = *req.Note
			fields[model.FieldNote] = reservation.Note
		}

		reservation.ModifiedAt = timezone.Now()
		reservation.ModifiedBy = user
		fields[constant.FieldModifiedAt] = reservation.ModifiedAt
		fields[constant.FieldModifiedBy] = user

		if err := s.repo.UpdateTx(ctx, tx, fields, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
			log.Error().Err(err).Msg("failed to update reservation")

			return fmt.Errorf("failed to update reservation: %w", err)
		}

		updated = reservation

		return nil
	})
	if err != nil {
		return res, toFailure(err)
	}

	if reschedule {
		s.afterChange(ctx, model.EventRescheduled, updated)
	} else {
		s.afterChange(ctx, constant.Empty, updated)
	}

	res.FromModel(updated)

	return res, nil
}

func (s *serviceImpl) Cancel(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Cancel")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	current, err := s.getOwned(ctx, id, user)
	if err != nil {
		return err
	}

	var cancelled model.Reservation

	err = s.repo.WithinSpaceLock(ctx, current.SpaceID, func(tx *sqlx.Tx) error {
		reservation, err := s.repo.GetForUpdateTx(ctx, tx, id)
		if err != nil {
			log.Error().Err(err).Msg("failed to get reservation")

			return fmt.Errorf("failed to get reservation: %w", err)
		}

		if reservation.ID == constant.Empty {
			return failure.NotFound("reservation not found") // nolint:wrapcheck
		}

		if err = s.engine.Cancel(&reservation); err != nil {
			return toFailure(err)
		}

		reservation.ModifiedBy = user

		fields := map[string]any{
			model.FieldStatus:        reservation.Status,
			constant.FieldModifiedAt: reservation.ModifiedAt,
			constant.FieldModifiedBy: user,
		}

		if err := s.repo.UpdateTx(ctx, tx, fields, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
			log.Error().Err(err).Msg("failed to cancel reservation")

			return fmt.Errorf("failed to cancel reservation: %w", err)
		}

		cancelled = reservation

		return nil
	})
	if err != nil {
		return toFailure(err)
	}

	log.Info().Str("reservation_id", id).Msg("reservation cancelled")

	s.afterChange(ctx, model.EventCancelled, cancelled)

	return nil
}

func (s *serviceImpl) getOwned(ctx context.Context, id, user string) (model.Reservation, error) {
	reservation, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get reservation")

		return reservation, fmt.Errorf("failed to get reservation: %w", err)
	}

	if reservation.ID == constant.Empty {
		return reservation, failure.NotFound("reservation not found") // nolint:wrapcheck
	}

	if reservation.OwnerID != user {
		return model.Reservation{}, failure.ForbiddenError
	}

	return reservation, nil
}

func (s *serviceImpl) ensureSpace(ctx context.Context, spaceID string) error {
	exist, err := s.spaceRepo.Exist(ctx, spaceRepo.ActiveByID(spaceID))
	if err != nil {
		log.Error().Err(err).Msg("failed to check if space exists")

		return fmt.Errorf("failed to check if space exists: %w", err)
	}

	if !exist {
		return failure.NotFound("space not found") // nolint:wrapcheck
	}

	return nil
}

// saveCache stores value under key unless a write committed after gen was read.
func (s *serviceImpl) saveCache(ctx context.Context, gen uint64, key string, value any) {
	go func() {
		c := context.WithoutCancel(ctx)

		if s.generation.Load() != gen {
			log.Debug().Str("cacheKey", key).Msg("skip caching result read before a write")

			return
		}

		if err := s.cache.Save(c, key, value, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Str("cacheKey", key).Msg("failed to save reservation cache")
		}
	}()
}

// afterChange drops every cache that could show r and publishes eventType when set.
func (s *serviceImpl) afterChange(ctx context.Context, eventType string, r model.Reservation) {
	s.generation.Add(1)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetReservation, r.ID)); err != nil {
			log.Error().Err(err).Msg("failed to delete reservation from cache")
		}

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheSpaceReservations, r.SpaceID)); err != nil {
			log.Error().Err(err).Msg("failed to delete space reservations from cache")
		}

		shared.InvalidateCaches(c, s.cache, shared.BuildCacheKey(cacheScheduleReservation, r.SpaceID))
		shared.InvalidateCaches(c, s.cache, cacheGetAllReservation)
		shared.InvalidateCaches(c, s.cache, cacheCountReservation)

		if eventType == constant.Empty {
			return
		}

		event := model.NewEvent(eventType, r, timezone.Now())

		if err := s.kafka.SendMessages(c, s.cfg.Kafka.Topics.Reservation, kafka.Message{Key: r.SpaceID, Value: event}); err != nil {
			log.Error().Err(err).Str("reservation_id", r.ID).Str("event", eventType).Msg("failed to publish reservation event")
		}
	}()
}

// toFailure maps engine and store errors onto HTTP facing failures.
func toFailure(err error) error {
	var fail *failure.Failure
	if errors.As(err, &fail) {
		return err
	}

	var slotErr *admission.SlotUnavailableError

	switch {
	case errors.As(err, &slotErr):
		conflict := dto.ConflictResponse{}
		conflict.FromModel(slotErr.Conflict)

		return failure.ConflictWithDetails(admission.ErrSlotUnavailable.Error(), conflict) // nolint:wrapcheck
	case errors.Is(err, repository.ErrOverlappingReservation):
		return failure.Conflict(admission.ErrSlotUnavailable.Error()) // nolint:wrapcheck
	case errors.Is(err, admission.ErrInvalidInterval):
		return failure.BadRequest(err) // nolint:wrapcheck
	case errors.Is(err, admission.ErrAlreadyCancelled):
		return failure.Conflict(err.Error()) // nolint:wrapcheck
	case errors.Is(err, admission.ErrReservationExpired):
		return failure.BadRequest(err) // nolint:wrapcheck
	}

	return err
}
