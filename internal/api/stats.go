package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/auracare/auracare/internal/storage"
)

type statsResponse struct {
	CheckIns       int `json:"checkIns"`
	JournalEntries int `json:"journalEntries"`
}

func handleStats(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checkIns, entries, err := deps.Store.CountMoodLogs()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to count mood logs: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, statsResponse{CheckIns: checkIns, JournalEntries: entries})
	}
}

type jobResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"lastError,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func handleGetJob(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		j, err := deps.Store.GetJob(chi.URLParam(r, "id"))
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get job: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, jobResponse{
			ID:        j.ID,
			Type:      j.Type,
			Status:    j.Status,
			Attempts:  j.Attempts,
			LastError: j.LastError,
			UpdatedAt: j.UpdatedAt,
		})
	}
}
