package triphandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"ridehailgo/internal/services/trip"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTripSvc struct {
	trips map[string]trip.TripDTO
}

func (f *fakeTripSvc) CreateTrip(context.Context, string, string, int64) (*trip.TripDTO, error) {
	panic("not used")
}

func (f *fakeTripSvc) UpdateTrip(context.Context, string, trip.UpdateTripParams) (*trip.TripDTO, error) {
	panic("not used")
}

func (f *fakeTripSvc) GetTrip(_ context.Context, nk string) (*trip.TripDTO, error) {
	if dto, ok := f.trips[nk]; ok {
		return &dto, nil
	}
	return nil, trip.ErrTripNotFound
}

func (f *fakeTripSvc) TripsForUser(context.Context, int64, string) ([]trip.TripDTO, error) {
	panic("not used")
}

func (f *fakeTripSvc) ListTrips(_ context.Context, status string, _, _ int) ([]trip.TripDTO, error) {
	out := make([]trip.TripDTO, 0)
	for _, dto := range f.trips {
		if status == "" || dto.Status == status {
			out = append(out, dto)
		}
	}
	return out, nil
}

func newTestRouter(svc trip.ITripService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	New(svc).Register(r)
	return r
}

func TestListTrips(t *testing.T) {
	now := time.Now().UTC()
	svc := &fakeTripSvc{trips: map[string]trip.TripDTO{
		"aaaabbbbccccddddeeeeffff00001111": {
			ID: 1, NK: "aaaabbbbccccddddeeeeffff00001111",
			Created: now, Updated: now,
			PickUpAddress: "A", DropOffAddress: "B",
			Status: trip.StatusRequested,
			Rider:  &trip.UserRefDTO{ID: 3, Username: "rider@example.com"},
		},
	}}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/trip", nil)
	newTestRouter(svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got []trip.TripDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, trip.StatusRequested, got[0].Status)
	assert.Nil(t, got[0].Driver)
}

func TestListTripsRejectsUnknownStatus(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/trip?status=TELEPORTED", nil)
	newTestRouter(&fakeTripSvc{}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTripDetailNotFound(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/trip/00000000000000000000000000000000", nil)
	newTestRouter(&fakeTripSvc{trips: map[string]trip.TripDTO{}}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
