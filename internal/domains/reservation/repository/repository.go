package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reserve/infras/otel"
	"reserve/infras/postgres"
	"reserve/internal/domains/reservation/model"
	"reserve/shared/constant"
	gDto "reserve/shared/dto"
	"reserve/shared/logger"
	gRepo "reserve/shared/repository"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// ErrOverlappingReservation is returned when the database exclusion
// constraint rejects a write that would double book a space.
var ErrOverlappingReservation = errors.New("overlapping active reservation")

const lockSpaceQuery = "SELECT pg_advisory_xact_lock(hashtext($1))"

type Reservation interface {
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Reservation, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Reservation, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	GetActiveBySpace(ctx context.Context, spaceID string, window *Window) ([]model.Reservation, error)

	// WithinSpaceLock runs fn in a write transaction holding the space's
	// advisory lock. fn must do its read, decide and write through tx.
	WithinSpaceLock(ctx context.Context, spaceID string, fn func(tx *sqlx.Tx) error) error
	GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (model.Reservation, error)
	GetActiveBySpaceTx(ctx context.Context, tx *sqlx.Tx, spaceID string) ([]model.Reservation, error)
	CreateTx(ctx context.Context, tx *sqlx.Tx, reservation model.Reservation) (model.Reservation, error)
	UpdateTx(ctx context.Context, tx *sqlx.Tx, req map[string]any, filter gDto.FilterGroup) error
}

// Window restricts a lookup to reservations overlapping [From, To).
type Window struct {
	From time.Time
	To   time.Time
}

type repositoryImpl struct {
	gRepo.Repository[model.Reservation]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Reservation {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Reservation](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

func (r *repositoryImpl) WithinSpaceLock(ctx context.Context, spaceID string, fn func(tx *sqlx.Tx) error) (err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.WithinSpaceLock")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	scope.SetAttribute(model.FieldSpaceID, spaceID)

	tx, err := r.db.Write.BeginTxx(ctx, nil)
	if err != nil {
		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err == nil {
			return
		}

		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Error().Err(rbErr).Str("space_id", spaceID).Msg("failed to rollback transaction")
		}
	}()

	if _, err = tx.ExecContext(ctx, lockSpaceQuery, spaceID); err != nil {
		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to lock space %s: %w", spaceID, err)
	}

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to commit transaction: %w", mapConstraintError(err))
	}

	return nil
}

func (r *repositoryImpl) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (model.Reservation, error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.GetForUpdateTx")
	defer scope.End()

	return r.GetTx(ctx, tx, byID(id)) //nolint:wrapcheck
}

func (r *repositoryImpl) GetActiveBySpace(ctx context.Context, spaceID string, window *Window) ([]model.Reservation, error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.GetActiveBySpace")
	defer scope.End()

	return r.GetAll(ctx, orderedByStart(), activeBySpace(spaceID, window)) //nolint:wrapcheck
}

func (r *repositoryImpl) GetActiveBySpaceTx(ctx context.Context, tx *sqlx.Tx, spaceID string) ([]model.Reservation, error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.GetActiveBySpaceTx")
	defer scope.End()

	return r.GetAllTx(ctx, tx, orderedByStart(), activeBySpace(spaceID, nil)) //nolint:wrapcheck
}

// CreateTx assigns the reservation id and inserts it.
func (r *repositoryImpl) CreateTx(ctx context.Context, tx *sqlx.Tx, reservation model.Reservation) (model.Reservation, error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.CreateTx")
	defer scope.End()

	reservation.ID = uuid.NewString()

	if err := r.InsertTx(ctx, tx, reservation); err != nil {
		return model.Reservation{}, mapConstraintError(err)
	}

	return reservation, nil
}

func (r *repositoryImpl) UpdateTx(ctx context.Context, tx *sqlx.Tx, req map[string]any, filter gDto.FilterGroup) error {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.UpdateTx")
	defer scope.End()

	return mapConstraintError(r.Repository.UpdateTx(ctx, tx, req, filter))
}

// IsExclusionViolation reports whether err came from the no-overlap exclusion constraint.
func IsExclusionViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == constant.PqErrorCodeExclusionViolation
	}

	return false
}

func mapConstraintError(err error) error {
	if IsExclusionViolation(err) {
		return fmt.Errorf("%w: %w", ErrOverlappingReservation, err)
	}

	return err
}

func byID(id string) gDto.FilterGroup {
	return gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{Field: model.FieldID, Value: id, Operator: gDto.FilterOperatorEq, Table: model.TableName},
		},
	}
}

func orderedByStart() gDto.QueryParams {
	return gDto.QueryParams{SortBy: model.TableName + "." + model.FieldStartAt + ", " + model.TableName + "." + model.FieldID, SortDir: gDto.SortDirAsc}
}

func activeBySpace(spaceID string, window *Window) gDto.FilterGroup {
	filters := []any{
		gDto.Filter{Field: model.FieldSpaceID, Value: spaceID, Operator: gDto.FilterOperatorEq, Table: model.TableName},
		gDto.Filter{Field: model.FieldStatus, Value: model.StatusActive, Operator: gDto.FilterOperatorEq, Table: model.TableName},
	}

	if window != nil {
		filters = append(filters,
			gDto.Filter{ArgName: "window_to", Field: model.FieldStartAt, Value: window.To, Operator: gDto.FilterOperatorLess, Table: model.TableName},
			gDto.Filter{ArgName: "window_from", Field: model.FieldEndAt, Value: window.From, Operator: gDto.FilterOperatorGreater, Table: model.TableName},
		)
	}

	return gDto.FilterGroup{Operator: gDto.FilterGroupOperatorAnd, Filters: filters}
}
