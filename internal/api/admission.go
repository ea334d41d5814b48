package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"maitred/internal/admission"
	"maitred/internal/timeutil"
)

// Server exposes the synchronous admission check consumed by the booking
// creation path.
type Server struct {
	admission *admission.Service
	logger    *zerolog.Logger
}

// NewServer creates the admission API server.
func NewServer(svc *admission.Service, logger *zerolog.Logger) *Server {
	return &Server{admission: svc, logger: logger}
}

// AdmissionRequest is the request body for POST /api/admission/check.
type AdmissionRequest struct {
	RestaurantID int64  `json:"restaurant_id"`
	Date         string `json:"date"` // Format: YYYY-MM-DD
	Time         string `json:"time"` // Format: HH:MM
}

// AdmissionResponse is the response for POST /api/admission/check.
type AdmissionResponse struct {
	Admissible bool   `json:"admissible"`
	Reason     string `json:"reason,omitempty"`
}

// Register mounts the admission routes on the mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/admission/check", s.handleAdmissionCheck)
}

// handleAdmissionCheck decides whether a requested slot may be booked.
// POST /api/admission/check
func (s *Server) handleAdmissionCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req AdmissionRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	date, err := s.validateRequest(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.admission.CheckSlot(r.Context(), req.RestaurantID, date, req.Time, time.Now())
	if err != nil {
		s.logger.Error().Err(err).Int64("restaurant_id", req.RestaurantID).Msg("admission check failed")
		writeError(w, http.StatusInternalServerError, "admission check failed")
		return
	}

	writeJSON(w, http.StatusOK, AdmissionResponse{
		Admissible: res.Admissible,
		Reason:     string(res.Reason),
	})
}

func (s *Server) validateRequest(req *AdmissionRequest) (time.Time, error) {
	if req.RestaurantID <= 0 {
		return time.Time{}, fmt.Errorf("restaurant_id is required")
	}
	if req.Date == "" || req.Time == "" {
		return time.Time{}, fmt.Errorf("date and time are required")
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format; expected YYYY-MM-DD")
	}
	if _, _, err := timeutil.ParseClock(req.Time); err != nil {
		return time.Time{}, fmt.Errorf("invalid time format; expected HH:MM")
	}

	return date, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
