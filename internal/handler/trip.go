package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/tripweaver/backend/internal/domain"
	"github.com/pkordes/tripweaver/backend/internal/middleware"
)

// createTripRequest is the POST /trips body.
type createTripRequest struct {
	Destination   string   `json:"destination"`
	StartDate     string   `json:"start_date"` // "2006-01-02"
	EndDate       string   `json:"end_date"`
	Pacing        string   `json:"pacing"`
	Anchors       []string `json:"anchors"`
	TravelerType  string   `json:"traveler_type"`
	TravelerCount int      `json:"traveler_count"`
}

// CreateTrip handles POST /trips.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var req createTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRequestError(w, "invalid request body")
		return
	}

	trip, err := requestToTrip(req, middleware.ActorID(r.Context()))
	if err != nil {
		writeRequestError(w, err.Error())
		return
	}

	created, err := s.trips.Create(r.Context(), trip)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeData(w, http.StatusCreated, created)
}

// ListTrips handles GET /trips, returning the authenticated actor's trips.
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := s.trips.ListByOwner(r.Context(), middleware.ActorID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, trips)
}

// GetTrip handles GET /trips/{tripID}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}

	trip, err := s.trips.GetByID(r.Context(), tripID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, trip)
}

// --- mapping helpers --------------------------------------------------------

// requestToTrip converts a createTripRequest into a domain.Trip owned by the
// actor. Date strings are parsed here; business validation happens in the
// service layer.
func requestToTrip(req createTripRequest, ownerID uuid.UUID) (domain.Trip, error) {
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return domain.Trip{}, errInvalidDate("start_date")
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return domain.Trip{}, errInvalidDate("end_date")
	}

	return domain.Trip{
		OwnerID:       ownerID,
		Destination:   req.Destination,
		StartDate:     start,
		EndDate:       end,
		Pacing:        domain.Pacing(req.Pacing),
		Anchors:       req.Anchors,
		TravelerType:  req.TravelerType,
		TravelerCount: req.TravelerCount,
	}, nil
}

type invalidDateError string

func errInvalidDate(field string) error { return invalidDateError(field) }

func (e invalidDateError) Error() string {
	return string(e) + ` must be a date formatted "2006-01-02"`
}

// pathUUID parses a UUID path parameter, writing a 422 on failure.
func pathUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		writeRequestError(w, param+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}
