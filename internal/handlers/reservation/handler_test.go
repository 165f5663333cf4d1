package reservation_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	otelMocks "reserve/infras/otel/mocks"
	"reserve/internal/domains/reservation/model/dto"
	serviceMocks "reserve/internal/domains/reservation/service/mocks"
	"reserve/internal/handlers/reservation"
	"reserve/shared/failure"
)

const (
	spaceID       = "0b6f5f5e-6a53-4c1e-9a61-3f1f0c7d2a10"
	reservationID = "5d8a9c2e-3b7f-4e1a-8c6d-9f0e1a2b3c4d"
)

func newRouter(t *testing.T) (*serviceMocks.MockReservation, http.Handler) {
	t.Helper()

	ctrl := gomock.NewController(t)
	svc := serviceMocks.NewMockReservation(ctrl)

	handler := reservation.New(svc, otelMocks.NewOtel())
	router := chi.NewRouter()
	handler.Router(router)

	return svc, router
}

func serve(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	return rec
}

func TestCreateReservation(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc, router := newRouter(t)

		svc.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, req dto.CreateReservationRequest) (dto.ReservationResponse, error) {
				assert.Equal(t, spaceID, req.SpaceID)
				assert.Equal(t, "2025-03-10", req.Date)

				return dto.ReservationResponse{ID: reservationID, SpaceID: spaceID}, nil
			})

		rec := serve(router, http.MethodPost, "/reservations/",
			`{"space_id":"`+spaceID+`","date":"2025-03-10","start_time":"09:00","end_time":"10:00"}`)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), reservationID)
	})

	t.Run("invalid body never reaches the service", func(t *testing.T) {
		_, router := newRouter(t)

		rec := serve(router, http.MethodPost, "/reservations/", `{"space_id":"not-a-uuid","start_at":"2025-03-10T09:00:00Z","end_at":"2025-03-10T10:00:00Z"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("conflict exposes the blocking interval", func(t *testing.T) {
		svc, router := newRouter(t)

		conflict := dto.ConflictResponse{ReservationID: "r-0", StartAt: "2025-03-10T09:00:00Z", EndAt: "2025-03-10T10:00:00Z"}
		svc.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			Return(dto.ReservationResponse{}, failure.ConflictWithDetails("slot unavailable", conflict))

		rec := serve(router, http.MethodPost, "/reservations/",
			`{"space_id":"`+spaceID+`","start_at":"2025-03-10T09:30:00Z","end_at":"2025-03-10T10:30:00Z"}`)

		require.Equal(t, http.StatusConflict, rec.Code)

		var body struct {
			Error   string               `json:"error"`
			Details dto.ConflictResponse `json:"details"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "slot unavailable", body.Error)
		assert.Equal(t, conflict, body.Details)
	})
}

func TestCheckAvailability(t *testing.T) {
	t.Run("missing parameters", func(t *testing.T) {
		_, router := newRouter(t)

		rec := serve(router, http.MethodGet, "/reservations/availability?space_id="+spaceID, "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("available", func(t *testing.T) {
		svc, router := newRouter(t)

		svc.EXPECT().
			CheckAvailability(gomock.Any(), dto.AvailabilityRequest{SpaceID: spaceID, StartAt: "2025-03-10T09:00:00Z", EndAt: "2025-03-10T10:00:00Z"}).
			Return(dto.AvailabilityResponse{SpaceID: spaceID, Available: true}, nil)

		rec := serve(router, http.MethodGet, "/reservations/availability?space_id="+spaceID+"&start_at=2025-03-10T09:00:00Z&end_at=2025-03-10T10:00:00Z", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"available":true`)
	})
}

func TestSpaceRoutes(t *testing.T) {
	svc, router := newRouter(t)

	svc.EXPECT().
		ListActiveBySpace(gomock.Any(), spaceID).
		Return(dto.GetSpaceReservationsResponse{SpaceID: spaceID}, nil)
	svc.EXPECT().
		Schedule(gomock.Any(), spaceID, dto.ScheduleRequest{From: "2025-03-10", To: "2025-03-11"}).
		Return(dto.ScheduleResponse{SpaceID: spaceID}, nil)

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/spaces/"+spaceID+"/reservations", "").Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/spaces/"+spaceID+"/schedule?from=2025-03-10&to=2025-03-11", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(router, http.MethodGet, "/spaces/room-1/schedule", "").Code)
}

func TestReservationByIDRoutes(t *testing.T) {
	svc, router := newRouter(t)

	svc.EXPECT().Get(gomock.Any(), reservationID).Return(dto.ReservationResponse{}, failure.ForbiddenError)
	svc.EXPECT().Cancel(gomock.Any(), reservationID).Return(failure.Conflict("reservation already cancelled"))
	svc.EXPECT().
		Update(gomock.Any(), gomock.Any(), reservationID).
		Return(dto.ReservationResponse{ID: reservationID}, nil)

	assert.Equal(t, http.StatusForbidden, serve(router, http.MethodGet, "/reservations/"+reservationID, "").Code)
	assert.Equal(t, http.StatusConflict, serve(router, http.MethodDelete, "/reservations/"+reservationID, "").Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodPatch, "/reservations/"+reservationID, `{"note":"bring the projector"}`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(router, http.MethodDelete, "/reservations/42", "").Code)
}

func TestGetMyReservations(t *testing.T) {
	svc, router := newRouter(t)

	svc.EXPECT().
		GetMine(gomock.Any(), gomock.Any(), "active").
		Return(dto.GetReservationsResponse{TotalData: 0, TotalPage: 1}, nil)

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/reservations/mine?status=active", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(router, http.MethodGet, "/reservations/mine?status=completed", "").Code)
}
