package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/auracare/auracare/internal/journal"
	"github.com/auracare/auracare/internal/mood"
	"github.com/auracare/auracare/internal/storage"
)

// The max rule matches journal.MaxTextLength.
type journalRequest struct {
	Text string `json:"text" validate:"required,max=20000"`
}

func (r *journalRequest) blank() bool { return strings.TrimSpace(r.Text) == "" }

func handleWriteJournal(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req journalRequest
		if err := decodeBody(w, r, &req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if req.blank() {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "text is required")
			return
		}

		entry, err := deps.Store.SaveMoodLog(mood.Record{Mood: mood.JournalEntry, Notes: strings.TrimSpace(req.Text)})
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save journal entry: %v", err)
			return
		}

		jobID, err := journal.Enqueue(deps.Store, entry.ID)
		if err != nil {
			deps.Logger.Warn("journal analysis not queued", "entry_id", entry.ID, "error", err)
			httpError(w, http.StatusInternalServerError, "api_error", "saved entry %s but failed to queue analysis: %v", entry.ID, err)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]string{
			"id":     entry.ID,
			"job_id": jobID,
			"status": "queued",
		})
	}
}

func handleListJournal(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)
		offset := parseIntParam(r, "offset", 0, 0)

		entries, err := deps.Store.ListJournalEntries(limit, offset)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list journal entries: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func handleJournalAnalysis(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		entry, err := deps.Store.GetMoodLog(id)
		if errors.Is(err, storage.ErrNotFound) || (err == nil && !entry.Mood.IsJournal()) {
			httpError(w, http.StatusNotFound, "not_found", "journal entry not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get journal entry: %v", err)
			return
		}

		a, err := deps.Store.GetJournalAnalysis(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "analysis_pending", "analysis not ready yet")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get analysis: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func handleAnalyzeJournal(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req journalRequest
		if err := decodeBody(w, r, &req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		writeJSON(w, http.StatusOK, deps.Generator.AnalyzeJournal(r.Context(), req.Text))
	}
}
