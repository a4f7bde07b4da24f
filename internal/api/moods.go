package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/auracare/auracare/internal/insight"
	"github.com/auracare/auracare/internal/mood"
	"github.com/auracare/auracare/internal/storage"
)

type logMoodRequest struct {
	Mood      string     `json:"mood" validate:"required,max=32"`
	Notes     string     `json:"notes" validate:"max=5000"`
	CreatedAt *time.Time `json:"createdAt"`
}

func handleLogMood(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req logMoodRequest
		if err := decodeBody(w, r, &req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}

		c, ok := mood.ParseCategory(req.Mood)
		if !ok {
			httpError(w, http.StatusBadRequest, "invalid_request_error",
				"unknown mood %q (valid: %s)", req.Mood, categoryList())
			return
		}
		if c.IsJournal() {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "journal entries are written through /journal")
			return
		}

		rec := mood.Record{Mood: c, Notes: strings.TrimSpace(req.Notes)}
		if req.CreatedAt != nil {
			rec.CreatedAt = *req.CreatedAt
		}
		saved, err := deps.Store.SaveMoodLog(rec)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save mood: %v", err)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]string{"id": saved.ID})
	}
}

func categoryList() string {
	names := make([]string, len(mood.Categories))
	for i, c := range mood.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func handleListMoods(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)
		offset := parseIntParam(r, "offset", 0, 0)

		logs, err := deps.Store.ListMoodLogs(limit, offset)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list moods: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, logs)
	}
}

func handleDeleteMood(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := deps.Store.DeleteMoodLog(chi.URLParam(r, "id"))
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "mood log not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete mood log: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func handleInsight(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, err := recentHistory(deps)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load mood history: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, insight.Analyze(h))
	}
}

func handleAIInsight(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, err := recentHistory(deps)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load mood history: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, deps.Generator.Dashboard(r.Context(), h, deps.Profile.DisplayName()))
	}
}
