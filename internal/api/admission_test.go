package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maitred/internal/admission"
	"maitred/internal/models"
)

type stubRulesStore struct{}

func (stubRulesStore) GetOpeningHours(ctx context.Context, restaurantID int64) ([]models.OpeningHours, error) {
	hours := make([]models.OpeningHours, 0, 7)
	for d := 0; d < 7; d++ {
		hours = append(hours, models.OpeningHours{
			RestaurantID: restaurantID, Weekday: d, IsOpen: true,
			OpenTime: "09:00", CloseTime: "22:00",
		})
	}
	return hours, nil
}

func (stubRulesStore) GetSpecialPeriods(ctx context.Context, restaurantID int64) ([]models.SpecialPeriod, error) {
	return nil, nil
}

func (stubRulesStore) GetCutOffTimes(ctx context.Context, restaurantID int64) ([]models.CutOffTime, error) {
	return nil, nil
}

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := zerolog.New(io.Discard)
	svc := admission.NewService(stubRulesStore{}, &logger)
	mux := http.NewServeMux()
	NewServer(svc, &logger).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postCheck(t *testing.T, srv *httptest.Server, body any) (*http.Response, map[string]any) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/api/admission/check", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestHandleAdmissionCheck_Validation(t *testing.T) {
	srv := setupTestServer(t)

	tests := []struct {
		name      string
		body      any
		wantError string
	}{
		{
			name:      "missing restaurant",
			body:      map[string]string{"date": "2099-03-10", "time": "12:00"},
			wantError: "restaurant_id is required",
		},
		{
			name:      "missing date and time",
			body:      map[string]any{"restaurant_id": 1},
			wantError: "date and time are required",
		},
		{
			name:      "bad date format",
			body:      map[string]any{"restaurant_id": 1, "date": "10-03-2099", "time": "12:00"},
			wantError: "invalid date format; expected YYYY-MM-DD",
		},
		{
			name:      "bad time format",
			body:      map[string]any{"restaurant_id": 1, "date": "2099-03-10", "time": "noon"},
			wantError: "invalid time format; expected HH:MM",
		},
		{
			name:      "unknown field",
			body:      map[string]any{"restaurant_id": 1, "date": "2099-03-10", "time": "12:00", "extra": true},
			wantError: "invalid JSON body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, decoded := postCheck(t, srv, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.wantError, decoded["error"])
		})
	}
}

func TestHandleAdmissionCheck_Decision(t *testing.T) {
	srv := setupTestServer(t)

	t.Run("Admissible", func(t *testing.T) {
		resp, decoded := postCheck(t, srv, map[string]any{
			"restaurant_id": 1, "date": "2099-03-10", "time": "12:00",
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, true, decoded["admissible"])
	})

	t.Run("OutsideHours", func(t *testing.T) {
		resp, decoded := postCheck(t, srv, map[string]any{
			"restaurant_id": 1, "date": "2099-03-10", "time": "23:30",
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, false, decoded["admissible"])
		assert.Equal(t, "outside_hours", decoded["reason"])
	})
}

func TestHandleAdmissionCheck_MethodNotAllowed(t *testing.T) {
	srv := setupTestServer(t)

	resp, err := http.Get(srv.URL + "/api/admission/check")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
