package service_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"reserve/config"
	"reserve/infras/kafka"
	kafkaMocks "reserve/infras/kafka/mocks"
	otelMocks "reserve/infras/otel/mocks"
	"reserve/internal/domains/reservation/admission"
	reservationMocks "reserve/internal/domains/reservation/mocks"
	"reserve/internal/domains/reservation/model"
	"reserve/internal/domains/reservation/model/dto"
	"reserve/internal/domains/reservation/repository"
	"reserve/internal/domains/reservation/service"
	spaceMocks "reserve/internal/domains/space/mocks"
	cacheMocks "reserve/shared/cache/mocks"
	"reserve/shared/constant"
	gDto "reserve/shared/dto"
	"reserve/shared/failure"
)

const (
	spaceID = "0b6f5f5e-6a53-4c1e-9a61-3f1f0c7d2a10"
	ownerID = "user-1"
)

var errCacheMiss = errors.New("cache miss")

// recorder collects the keys background cache and kafka calls were made with.
type recorder struct {
	mu   sync.Mutex
	keys []string
}

func (r *recorder) add(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.keys = append(r.keys, key)
}

func (r *recorder) has(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Contains(r.keys, key)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.keys)
}

type fixture struct {
	repo   *reservationMocks.MockReservation
	spaces *spaceMocks.MockSpace
	cache  *cacheMocks.MockRedisCache
	kafka  *kafkaMocks.MockClient
	otel   *otelMocks.Otel
	svc    service.Reservation

	saved     *recorder
	cleared   *recorder
	published *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	f := &fixture{
		repo:   reservationMocks.NewMockReservation(ctrl),
		spaces: spaceMocks.NewMockSpace(ctrl),
		cache:  cacheMocks.NewMockRedisCache(ctrl),
		kafka:  kafkaMocks.NewMockClient(ctrl),
		otel:   otelMocks.NewOtel(),

		saved:     &recorder{},
		cleared:   &recorder{},
		published: &recorder{},
	}

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600
	cfg.Reservation.MaxScheduleDays = 7
	cfg.Kafka.Topics.Reservation = "reservation.events"

	f.svc = service.New(f.repo, f.spaces, admission.New(time.Now), cfg, f.cache, f.kafka, f.otel)

	// writes fan out cache invalidation and events in the background
	f.cache.EXPECT().
		Delete(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, key string) error {
			f.cleared.add(key)

			return nil
		}).
		AnyTimes()
	f.cache.EXPECT().
		Clear(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, pattern string) error {
			f.cleared.add(pattern)

			return nil
		}).
		AnyTimes()
	f.cache.EXPECT().
		Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, key string, _ any, _ int) error {
			f.saved.add(key)

			return nil
		}).
		AnyTimes()
	f.kafka.EXPECT().
		SendMessages(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, messages ...kafka.Message) error {
			for _, message := range messages {
				f.published.add(message.Key)
			}

			return nil
		}).
		AnyTimes()

	return f
}

// waitFor blocks until the background work observed by done has happened.
func waitFor(t *testing.T, done func() bool) {
	t.Helper()

	assert.Eventually(t, done, time.Second, time.Millisecond)
}

func (f *fixture) runLocked() {
	f.repo.EXPECT().
		WithinSpaceLock(gomock.Any(), spaceID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, fn func(*sqlx.Tx) error) error {
			return fn(nil)
		})
}

func ownerContext() context.Context {
	return context.WithValue(context.Background(), constant.ContextKeyUserID, ownerID)
}

func tomorrowAt(hour int) time.Time {
	now := time.Now().UTC()

	return time.Date(now.Year(), now.Month(), now.Day()+1, hour, 0, 0, 0, time.UTC)
}

func active(id string, from, to time.Time) model.Reservation {
	return model.Reservation{
		ID:      id,
		SpaceID: spaceID,
		OwnerID: "someone-else",
		StartAt: from,
		EndAt:   to,
		Status:  model.StatusActive,
	}
}

func createRequest(from, to time.Time) dto.CreateReservationRequest {
	return dto.CreateReservationRequest{
		SpaceID: spaceID,
		IntervalInput: dto.IntervalInput{
			StartAt: from.Format(time.RFC3339),
			EndAt:   to.Format(time.RFC3339),
		},
		Note: "planning",
	}
}

func TestReservationService_Create(t *testing.T) {
	t.Run("admits a free slot", func(t *testing.T) {
		f := newFixture(t)

		f.spaces.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		f.runLocked()
		f.repo.EXPECT().
			GetActiveBySpaceTx(gomock.Any(), gomock.Any(), spaceID).
			Return([]model.Reservation{active("r-0", tomorrowAt(9), tomorrowAt(10))}, nil)
		f.repo.EXPECT().
			CreateTx(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *sqlx.Tx, r model.Reservation) (model.Reservation, error) {
				assert.Equal(t, ownerID, r.OwnerID)
				assert.Equal(t, model.StatusActive, r.Status)
				assert.Empty(t, r.ID)

				r.ID = "r-1"

				return r, nil
			})

		res, err := f.svc.Create(ownerContext(), createRequest(tomorrowAt(10), tomorrowAt(11)))

		require.NoError(t, err)
		assert.Equal(t, "r-1", res.ID)
		assert.Equal(t, ownerID, res.OwnerID)
		assert.Equal(t, "planning", res.Note)

		waitFor(t, func() bool { return f.published.has(spaceID) })
		assert.True(t, f.cleared.has("reservation:space:"+spaceID))
	})

	t.Run("conflict carries the blocking interval without its owner", func(t *testing.T) {
		f := newFixture(t)

		f.spaces.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		f.runLocked()
		f.repo.EXPECT().
			GetActiveBySpaceTx(gomock.Any(), gomock.Any(), spaceID).
			Return([]model.Reservation{active("r-0", tomorrowAt(9), tomorrowAt(10))}, nil)

		_, err := f.svc.Create(ownerContext(), createRequest(tomorrowAt(9).Add(30*time.Minute), tomorrowAt(10).Add(30*time.Minute)))

		require.Error(t, err)
		assert.Equal(t, http.StatusConflict, failure.GetCode(err))

		details, ok := failure.GetDetails(err).(dto.ConflictResponse)
		require.True(t, ok)
		assert.Equal(t, "r-0", details.ReservationID)
		assert.NotContains(t, fmt.Sprintf("%+v", details), "someone-else")

		scope := f.otel.Scope(constant.OtelServiceScopeName + ".Create")
		require.NotNil(t, scope)
		assert.True(t, scope.Ended)
		require.Len(t, scope.Errors, 1)
		assert.Equal(t, spaceID, scope.Attributes["reservation.space_id"])
	})

	t.Run("inverted interval is rejected before any lookup", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Create(ownerContext(), createRequest(tomorrowAt(11), tomorrowAt(10)))

		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})

	t.Run("unknown space", func(t *testing.T) {
		f := newFixture(t)

		f.spaces.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)

		_, err := f.svc.Create(ownerContext(), createRequest(tomorrowAt(10), tomorrowAt(11)))

		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})

	t.Run("exclusion constraint backstop maps to conflict", func(t *testing.T) {
		f := newFixture(t)

		f.spaces.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		f.runLocked()
		f.repo.EXPECT().GetActiveBySpaceTx(gomock.Any(), gomock.Any(), spaceID).Return(nil, nil)
		f.repo.EXPECT().
			CreateTx(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(model.Reservation{}, fmt.Errorf("insert: %w", repository.ErrOverlappingReservation))

		_, err := f.svc.Create(ownerContext(), createRequest(tomorrowAt(10), tomorrowAt(11)))

		assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	})

	t.Run("store failure is internal", func(t *testing.T) {
		f := newFixture(t)

		f.spaces.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		f.runLocked()
		f.repo.EXPECT().GetActiveBySpaceTx(gomock.Any(), gomock.Any(), spaceID).Return(nil, errors.New("database error"))

		_, err := f.svc.Create(ownerContext(), createRequest(tomorrowAt(10), tomorrowAt(11)))

		assert.Equal(t, http.StatusInternalServerError, failure.GetCode(err))
	})
}

func TestReservationService_EndToEnd(t *testing.T) {
	f := newFixture(t)

	store := []model.Reservation{{
		ID:      "r-1",
		SpaceID: spaceID,
		OwnerID: ownerID,
		StartAt: tomorrowAt(9),
		EndAt:   tomorrowAt(10),
		Status:  model.StatusActive,
	}}

	f.spaces.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil).AnyTimes()
	f.repo.EXPECT().
		WithinSpaceLock(gomock.Any(), spaceID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, fn func(*sqlx.Tx) error) error {
			return fn(nil)
		}).
		AnyTimes()
	f.repo.EXPECT().
		GetActiveBySpaceTx(gomock.Any(), gomock.Any(), spaceID).
		DoAndReturn(func(context.Context, *sqlx.Tx, string) ([]model.Reservation, error) {
			var out []model.Reservation
			for _, r := range store {
				if r.IsActive() {
					out = append(out, r)
				}
			}

			return out, nil
		}).
		AnyTimes()
	f.repo.EXPECT().
		CreateTx(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *sqlx.Tx, r model.Reservation) (model.Reservation, error) {
			r.ID = fmt.Sprintf("r-%d", len(store)+1)
			store = append(store, r)

			return r, nil
		}).
		AnyTimes()
	f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(store[0], nil)
	f.repo.EXPECT().GetForUpdateTx(gomock.Any(), gomock.Any(), "r-1").Return(store[0], nil)
	f.repo.EXPECT().
		UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *sqlx.Tx, fields map[string]any, _ gDto.FilterGroup) error {
			store[0].Status, _ = fields[model.FieldStatus].(string)

			return nil
		})

	_, err := f.svc.Create(ownerContext(), createRequest(tomorrowAt(9).Add(30*time.Minute), tomorrowAt(10).Add(30*time.Minute)))
	assert.Equal(t, http.StatusConflict, failure.GetCode(err))

	adjacent, err := f.svc.Create(ownerContext(), createRequest(tomorrowAt(10), tomorrowAt(11)))
	require.NoError(t, err)
	assert.Equal(t, "r-2", adjacent.ID)

	require.NoError(t, f.svc.Cancel(ownerContext(), "r-1"))
	assert.Equal(t, model.StatusCancelled, store[0].Status)

	_, err = f.svc.Create(ownerContext(), createRequest(tomorrowAt(9), tomorrowAt(10)))
	assert.NoError(t, err)

	waitFor(t, func() bool { return f.published.count() == 3 })
}

func TestReservationService_Cancel(t *testing.T) {
	owned := func(status string, from, to time.Time) model.Reservation {
		r := active("r-1", from, to)
		r.OwnerID = ownerID
		r.Status = status

		return r
	}

	tests := []struct {
		name        string
		reservation model.Reservation
		locked      bool
		wantCode    int
	}{
		{name: "future active reservation", reservation: owned(model.StatusActive, tomorrowAt(9), tomorrowAt(10)), locked: true},
		{name: "already cancelled", reservation: owned(model.StatusCancelled, tomorrowAt(9), tomorrowAt(10)), locked: true, wantCode: http.StatusConflict},
		{name: "already ended", reservation: owned(model.StatusActive, time.Now().Add(-2*time.Hour), time.Now().Add(-time.Hour)), locked: true, wantCode: http.StatusBadRequest},
		{name: "someone else's reservation", reservation: active("r-1", tomorrowAt(9), tomorrowAt(10)), wantCode: http.StatusForbidden},
		{name: "not found", reservation: model.Reservation{}, wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(tt.reservation, nil)

			if tt.locked {
				f.runLocked()
				f.repo.EXPECT().GetForUpdateTx(gomock.Any(), gomock.Any(), "r-1").Return(tt.reservation, nil)
			}

			if tt.wantCode == 0 {
				f.repo.EXPECT().
					UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, _ *sqlx.Tx, fields map[string]any, _ gDto.FilterGroup) error {
						assert.Equal(t, model.StatusCancelled, fields[model.FieldStatus])

						return nil
					})
			}

			err := f.svc.Cancel(ownerContext(), "r-1")

			if tt.wantCode == 0 {
				assert.NoError(t, err)
				waitFor(t, func() bool { return f.published.has(spaceID) })

				return
			}

			assert.Equal(t, tt.wantCode, failure.GetCode(err))
		})
	}
}

func TestReservationService_Update(t *testing.T) {
	mine := active("r-1", tomorrowAt(9), tomorrowAt(10))
	mine.OwnerID = ownerID

	t.Run("rescheduling onto its own interval succeeds", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(mine, nil)
		f.runLocked()
		f.repo.EXPECT().GetForUpdateTx(gomock.Any(), gomock.Any(), "r-1").Return(mine, nil)
		f.repo.EXPECT().GetActiveBySpaceTx(gomock.Any(), gomock.Any(), spaceID).Return([]model.Reservation{mine}, nil)
		f.repo.EXPECT().UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		req := dto.UpdateReservationRequest{IntervalInput: createRequest(tomorrowAt(9), tomorrowAt(10)).IntervalInput}

		res, err := f.svc.Update(ownerContext(), req, "r-1")

		require.NoError(t, err)
		assert.Equal(t, "r-1", res.ID)

		waitFor(t, func() bool { return f.published.has(spaceID) })
	})

	t.Run("conflicting reschedule is rejected", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(mine, nil)
		f.runLocked()
		f.repo.EXPECT().GetForUpdateTx(gomock.Any(), gomock.Any(), "r-1").Return(mine, nil)
		f.repo.EXPECT().
			GetActiveBySpaceTx(gomock.Any(), gomock.Any(), spaceID).
			Return([]model.Reservation{mine, active("r-2", tomorrowAt(11), tomorrowAt(12))}, nil)

		req := dto.UpdateReservationRequest{IntervalInput: createRequest(tomorrowAt(10), tomorrowAt(12)).IntervalInput}

		_, err := f.svc.Update(ownerContext(), req, "r-1")

		assert.Equal(t, http.StatusConflict, failure.GetCode(err))

		details, ok := failure.GetDetails(err).(dto.ConflictResponse)
		require.True(t, ok)
		assert.Equal(t, "r-2", details.ReservationID)
	})

	t.Run("note only", func(t *testing.T) {
		f := newFixture(t)
		note := "moved to the big room"

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(mine, nil)
		f.runLocked()
		f.repo.EXPECT().GetForUpdateTx(gomock.Any(), gomock.Any(), "r-1").Return(mine, nil)
		f.repo.EXPECT().
			UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *sqlx.Tx, fields map[string]any, _ gDto.FilterGroup) error {
				assert.Equal(t, note, fields[model.FieldNote])
				assert.NotContains(t, fields, model.FieldStartAt)

				return nil
			})

		res, err := f.svc.Update(ownerContext(), dto.UpdateReservationRequest{Note: &note}, "r-1")

		require.NoError(t, err)
		assert.Equal(t, note, res.Note)

		waitFor(t, func() bool { return f.cleared.has("reservation:count:*") })
		assert.Zero(t, f.published.count())
	})

	t.Run("empty request", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Update(ownerContext(), dto.UpdateReservationRequest{}, "r-1")

		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})
}

func TestReservationService_CheckAvailability(t *testing.T) {
	f := newFixture(t)

	f.spaces.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil).Times(2)
	f.repo.EXPECT().
		GetActiveBySpace(gomock.Any(), spaceID, gomock.Any()).
		Return([]model.Reservation{active("r-0", tomorrowAt(9), tomorrowAt(10))}, nil).
		Times(2)

	req := dto.AvailabilityRequest{
		SpaceID: spaceID,
		StartAt: tomorrowAt(9).Add(30 * time.Minute).Format(time.RFC3339),
		EndAt:   tomorrowAt(11).Format(time.RFC3339),
	}

	res, err := f.svc.CheckAvailability(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.Available)
	require.NotNil(t, res.Conflict)
	assert.Equal(t, "r-0", res.Conflict.ReservationID)

	req.StartAt = tomorrowAt(10).Format(time.RFC3339)

	res, err = f.svc.CheckAvailability(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.Available)
	assert.Nil(t, res.Conflict)

	req.EndAt = req.StartAt

	_, err = f.svc.CheckAvailability(context.Background(), req)
	assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
}

func TestReservationService_Schedule(t *testing.T) {
	t.Run("busy and free blocks", func(t *testing.T) {
		f := newFixture(t)

		f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errCacheMiss)
		f.spaces.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		f.repo.EXPECT().
			GetActiveBySpace(gomock.Any(), spaceID, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, window *repository.Window) ([]model.Reservation, error) {
				require.NotNil(t, window)
				assert.True(t, window.From.Equal(tomorrowAt(8)))
				assert.True(t, window.To.Equal(tomorrowAt(12)))

				return []model.Reservation{active("r-0", tomorrowAt(9), tomorrowAt(10))}, nil
			})

		req := dto.ScheduleRequest{From: tomorrowAt(8).Format(time.RFC3339), To: tomorrowAt(12).Format(time.RFC3339)}

		res, err := f.svc.Schedule(context.Background(), spaceID, req)

		require.NoError(t, err)
		assert.Len(t, res.Busy, 1)
		assert.Len(t, res.Free, 2)

		waitFor(t, func() bool { return f.saved.count() == 1 })
	})

	t.Run("window longer than the configured maximum", func(t *testing.T) {
		f := newFixture(t)

		req := dto.ScheduleRequest{From: tomorrowAt(8).Format(time.RFC3339), To: tomorrowAt(8).AddDate(0, 0, 8).Format(time.RFC3339)}

		_, err := f.svc.Schedule(context.Background(), spaceID, req)

		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})
}

func TestReservationService_ListActiveBySpace(t *testing.T) {
	f := newFixture(t)

	f.cache.EXPECT().Get(gomock.Any(), "reservation:space:"+spaceID, gomock.Any()).Return(errCacheMiss)
	f.spaces.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
	f.repo.EXPECT().
		GetActiveBySpace(gomock.Any(), spaceID, nil).
		Return([]model.Reservation{active("r-0", tomorrowAt(9), tomorrowAt(10))}, nil)

	res, err := f.svc.ListActiveBySpace(context.Background(), spaceID)

	require.NoError(t, err)
	assert.Equal(t, spaceID, res.SpaceID)
	require.Len(t, res.Reservations, 1)
	assert.Equal(t, "r-0", res.Reservations[0].ID)

	waitFor(t, func() bool { return f.saved.has("reservation:space:" + spaceID) })
}

func TestReservationService_ListActiveBySpaceRacingWrite(t *testing.T) {
	f := newFixture(t)
	cacheKey := "reservation:space:" + spaceID

	f.cache.EXPECT().Get(gomock.Any(), cacheKey, gomock.Any()).Return(errCacheMiss)
	f.spaces.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil).Times(2)
	f.runLocked()
	f.repo.EXPECT().GetActiveBySpaceTx(gomock.Any(), gomock.Any(), spaceID).Return(nil, nil)
	f.repo.EXPECT().
		CreateTx(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *sqlx.Tx, r model.Reservation) (model.Reservation, error) {
			r.ID = "r-1"

			return r, nil
		})
	f.repo.EXPECT().
		GetActiveBySpace(gomock.Any(), spaceID, nil).
		DoAndReturn(func(context.Context, string, *repository.Window) ([]model.Reservation, error) {
			// a reservation commits after the list was read
			_, err := f.svc.Create(ownerContext(), createRequest(tomorrowAt(10), tomorrowAt(11)))
			require.NoError(t, err)

			return []model.Reservation{active("r-0", tomorrowAt(8), tomorrowAt(9))}, nil
		})

	res, err := f.svc.ListActiveBySpace(context.Background(), spaceID)

	require.NoError(t, err)
	require.Len(t, res.Reservations, 1)

	waitFor(t, func() bool { return f.published.has(spaceID) })
	assert.Never(t, func() bool { return f.saved.has(cacheKey) }, 50*time.Millisecond, time.Millisecond)
}

func TestReservationService_GetMine(t *testing.T) {
	f := newFixture(t)

	f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errCacheMiss).Times(2)
	f.repo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(1, nil)
	f.repo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params gDto.QueryParams, filter gDto.FilterGroup, _ ...string) ([]model.Reservation, error) {
			assert.Equal(t, model.FieldStartAt, params.SortBy)

			where, args := filter.GetWhereClause()
			assert.Contains(t, where, "reservations.owner_id = :owner_id")
			assert.Equal(t, ownerID, args[model.FieldOwnerID])

			r := active("r-1", tomorrowAt(9), tomorrowAt(10))
			r.OwnerID = ownerID

			return []model.Reservation{r}, nil
		})

	params := gDto.QueryParams{Page: 1, Limit: 10, SortBy: "owner_id; DROP TABLE reservations", SortDir: gDto.SortDirAsc}

	res, err := f.svc.GetMine(ownerContext(), params, model.StatusActive)

	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalData)
	require.Len(t, res.Reservations, 1)

	// list and count
	waitFor(t, func() bool { return f.saved.count() == 2 })
}

func TestReservationService_GetMineSortDirection(t *testing.T) {
	tests := []struct {
		name    string
		params  gDto.QueryParams
		wantBy  string
		wantDir string
	}{
		{name: "defaults to newest first", params: gDto.QueryParams{Page: 1, Limit: 10}, wantBy: model.FieldStartAt, wantDir: gDto.SortDirDesc},
		{name: "column without direction", params: gDto.QueryParams{Page: 1, Limit: 10, SortBy: model.FieldEndAt}, wantBy: model.FieldEndAt, wantDir: gDto.SortDirAsc},
		{name: "column with direction", params: gDto.QueryParams{Page: 1, Limit: 10, SortBy: model.FieldEndAt, SortDir: gDto.SortDirDesc}, wantBy: model.FieldEndAt, wantDir: gDto.SortDirDesc},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errCacheMiss).Times(2)
			f.repo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(0, nil)
			f.repo.EXPECT().
				GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, params gDto.QueryParams, _ gDto.FilterGroup, _ ...string) ([]model.Reservation, error) {
					assert.Equal(t, tt.wantBy, params.SortBy)
					assert.Equal(t, tt.wantDir, params.SortDir)

					return nil, nil
				})

			_, err := f.svc.GetMine(ownerContext(), tt.params, constant.Empty)

			require.NoError(t, err)
			waitFor(t, func() bool { return f.saved.count() == 2 })
		})
	}
}

func TestReservationService_Get(t *testing.T) {
	f := newFixture(t)

	cached := dto.ReservationResponse{ID: "r-1", OwnerID: "someone-else"}

	f.cache.EXPECT().
		Get(gomock.Any(), "reservation:get:r-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, value any) error {
			*value.(*dto.ReservationResponse) = cached

			return nil
		})

	_, err := f.svc.Get(ownerContext(), "r-1")

	assert.Equal(t, http.StatusForbidden, failure.GetCode(err))
}
