package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/workway/workway/internal/model"
	"github.com/workway/workway/internal/query"
)

// jobsResponse is the GET /api/jobs body. Jobs is always an array, never
// null; NextPageMarker is null once a page comes back empty.
type jobsResponse struct {
	Jobs           []model.Posting `json:"jobs"`
	NextPageMarker *string         `json:"nextPageMarker"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := query.Request{
		LastPageMarker: q.Get("lastPageMarker"),
		Filters: model.Filters{
			Title:           q.Get("title"),
			Company:         q.Get("company"),
			Location:        q.Get("location"),
			ExperienceLevel: q.Get("experienceLevel"),
			EmploymentType:  q.Get("employmentType"),
			Domain:          q.Get("domain"),
			WorkplaceType:   q.Get("workplaceType"),
		},
	}

	if raw := q.Get("pageSize"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 || size > query.MaxPageSize {
			writeJSON(w, http.StatusBadRequest, errorResponse{Message: "pageSize must be between 1 and 100"})
			return
		}
		req.PageSize = size
	}

	page, err := s.queries.Jobs(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, query.ErrBadPageSize), errors.Is(err, query.ErrBadMarker):
			writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
		default:
			s.logger.Error("jobs query failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "Internal server error."})
		}
		return
	}

	if page.Jobs == nil {
		page.Jobs = []model.Posting{}
	}
	writeJSON(w, http.StatusOK, jobsResponse{
		Jobs:           page.Jobs,
		NextPageMarker: page.NextPageMarker,
	})
}

// handleSync triggers one full ingestion run for the named board.
func (s *Server) handleSync(board string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ing := s.ingestors[board]
		rep, err := ing.Run(r.Context())
		if err != nil {
			s.logger.Error("board sync failed", "board", board, "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "Internal server error."})
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}

func (s *Server) handleAnnounce(w http.ResponseWriter, r *http.Request) {
	if s.announcer == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Message: "Twitter announcements are not configured."})
		return
	}
	res := s.announcer.Run(r.Context())
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
