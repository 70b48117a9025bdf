package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/tripweaver/backend/internal/middleware"
)

// GenerateItinerary handles POST /trips/{tripID}/generate, the initial
// generation with the cache-match short-circuit.
func (s *Server) GenerateItinerary(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}

	created, err := s.generation.Generate(r.Context(), tripID, middleware.ActorID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, created)
}

// RegenerateItinerary handles POST /trips/{tripID}/regenerate, the gated
// full regeneration from pending feedback.
func (s *Server) RegenerateItinerary(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}

	created, err := s.generation.Regenerate(r.Context(), tripID, middleware.ActorID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, created)
}

// versionSummary is the list-view shape: lineage metadata without the full
// itinerary document.
type versionSummary struct {
	Version             int    `json:"version"`
	SourceType          string `json:"source_type"`
	ParentVersion       *int   `json:"parent_version,omitempty"`
	SourceVersions      []int  `json:"source_versions,omitempty"`
	ModificationSummary string `json:"modification_summary"`
	CreatedBy           string `json:"created_by"`
	CreatedAt           string `json:"created_at"`
}

// ListVersions handles GET /trips/{tripID}/versions.
func (s *Server) ListVersions(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}

	versions, err := s.versions.List(r.Context(), tripID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	summaries := make([]versionSummary, len(versions))
	for i, v := range versions {
		summaries[i] = versionSummary{
			Version:             v.Version,
			SourceType:          string(v.SourceType),
			ParentVersion:       v.ParentVersion,
			SourceVersions:      v.SourceVersions,
			ModificationSummary: v.ModificationSummary,
			CreatedBy:           v.CreatedBy.String(),
			CreatedAt:           v.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}
	writeData(w, http.StatusOK, map[string]any{"versions": summaries})
}

// GetVersion handles GET /trips/{tripID}/versions/{version}.
func (s *Server) GetVersion(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}
	version, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil || version < 1 {
		writeRequestError(w, "version must be a positive integer")
		return
	}

	v, err := s.versions.Get(r.Context(), tripID, version)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, v)
}

// createVersionRequest is the POST /trips/{tripID}/versions body, a
// discriminated union on source_type:
//   - "cherry_pick": selections maps day numbers to source versions;
//   - "restore": restore_from names the version to re-adopt wholesale.
type createVersionRequest struct {
	SourceType  string         `json:"source_type"`
	Selections  map[string]int `json:"selections,omitempty"`
	RestoreFrom *int           `json:"restore_from,omitempty"`
}

// CreateVersion handles POST /trips/{tripID}/versions.
func (s *Server) CreateVersion(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}

	var req createVersionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRequestError(w, "invalid request body")
		return
	}

	actor := middleware.ActorID(r.Context())
	switch req.SourceType {
	case "cherry_pick":
		selections := make(map[int]int, len(req.Selections))
		for rawDay, version := range req.Selections {
			day, err := strconv.Atoi(rawDay)
			if err != nil || day < 1 {
				writeRequestError(w, "selection keys must be positive day numbers")
				return
			}
			selections[day] = version
		}
		created, err := s.versions.CherryPick(r.Context(), tripID, selections, actor)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeData(w, http.StatusCreated, created)
	case "restore":
		if req.RestoreFrom == nil || *req.RestoreFrom < 1 {
			writeRequestError(w, "restore_from must name a version")
			return
		}
		created, err := s.versions.Restore(r.Context(), tripID, *req.RestoreFrom, actor)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeData(w, http.StatusCreated, created)
	default:
		writeRequestError(w, `source_type must be "cherry_pick" or "restore"`)
	}
}
