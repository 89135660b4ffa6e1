package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"weeksuntil/internal/models"
	"weeksuntil/internal/service"

	"github.com/rs/zerolog"
)

func (s *HTTPServer) handleWeeks(w http.ResponseWriter, r *http.Request, user *models.User) {
	switch r.Method {
	case http.MethodGet:
		weeks, err := s.grid.ListWeeks(r.Context(), user.ID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"weeks": weeks})
	case http.MethodPost:
		s.handleUpsertWeek(w, r, user)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type weekRequest struct {
	WeekStartDate string `json:"week_start_date"`
	IsCompleted   bool   `json:"is_completed"`
	Note          string `json:"note"`
}

func (s *HTTPServer) handleUpsertWeek(w http.ResponseWriter, r *http.Request, user *models.User) {
	var req weekRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	weekStart, err := time.Parse(dateLayout, req.WeekStartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid week_start_date; expected YYYY-MM-DD")
		return
	}

	wp, err := s.grid.UpsertWeek(r.Context(), user.ID, service.WeekInput{
		WeekStartDate: weekStart,
		IsCompleted:   req.IsCompleted,
		Note:          req.Note,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, wp)
}

// handleWeeksByUser serves another user's week marks. The whole cohort
// is mutually visible, so any authenticated user may read any grid.
func (s *HTTPServer) handleWeeksByUser(w http.ResponseWriter, r *http.Request, user *models.User) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	targetID, err := pathID(r.URL.Path, "/api/v1/grid/weeks/")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if _, err := s.users.GetUserByID(r.Context(), targetID); err != nil {
		writeServiceError(w, err)
		return
	}

	weeks, err := s.grid.ListWeeks(r.Context(), targetID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"weeks": weeks})
}

func (s *HTTPServer) handlePeriods(w http.ResponseWriter, r *http.Request, user *models.User) {
	switch r.Method {
	case http.MethodGet:
		periods, err := s.grid.ListPeriods(r.Context(), user.ID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"special_periods": periods})
	case http.MethodPost:
		s.handleCreatePeriod(w, r, user)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type periodRequest struct {
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	PeriodType  string `json:"period_type"`
	Description string `json:"description"`
}

func (s *HTTPServer) handleCreatePeriod(w http.ResponseWriter, r *http.Request, user *models.User) {
	var req periodRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_date; expected YYYY-MM-DD")
		return
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end_date; expected YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "end_date is before start_date")
		return
	}

	period, err := s.grid.CreatePeriod(r.Context(), user.ID, service.PeriodInput{
		StartDate:   start,
		EndDate:     end,
		PeriodType:  req.PeriodType,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, period)
}

// handlePeriodByID dispatches on method: GET reads another user's
// special periods (the id is a user id, cohort-visible like the weeks
// grid), DELETE removes a single period (the id is a period id).
func (s *HTTPServer) handlePeriodByID(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, err := pathID(r.URL.Path, "/api/v1/grid/special-periods/")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		if _, err := s.users.GetUserByID(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		periods, err := s.grid.ListPeriods(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"special_periods": periods})
	case http.MethodDelete:
		if err := s.grid.DeletePeriod(r.Context(), user, id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request, user *models.User) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	targetID, err := pathID(r.URL.Path, "/api/v1/grid/stats/")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	stats, err := s.grid.Stats(r.Context(), targetID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request, user *models.User) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !user.IsAdmin {
		writeError(w, http.StatusForbidden, "admin only")
		return
	}

	data, err := s.exporter.CohortGrid(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to build export")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	filename := fmt.Sprintf("weeks-grid-%s.xlsx", time.Now().Format(dateLayout))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func pathID(path, prefix string) (int64, error) {
	raw := strings.TrimPrefix(path, prefix)
	if raw == "" || strings.Contains(raw, "/") {
		return 0, fmt.Errorf("missing id")
	}
	return strconv.ParseInt(raw, 10, 64)
}
