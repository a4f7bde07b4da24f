package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/auracare/auracare/internal/generative"
	"github.com/auracare/auracare/internal/storage"
)

type contactRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Phone string `json:"phone" validate:"required,max=32"`
}

func handleListContacts(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contacts, err := deps.Store.ListContacts()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list contacts: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, contacts)
	}
}

func handleAddContact(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req contactRequest
		if err := decodeBody(w, r, &req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		name, phone := strings.TrimSpace(req.Name), strings.TrimSpace(req.Phone)
		if name == "" || phone == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "name and phone are required")
			return
		}

		c, err := deps.Store.AddContact(name, phone)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to add contact: %v", err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func handleDeleteContact(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := deps.Store.DeleteContact(chi.URLParam(r, "id"))
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "contact not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete contact: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

type checkInScriptRequest struct {
	ContactID string `json:"contact_id" validate:"omitempty,max=64"`
}

type checkInScriptResponse struct {
	Script       string `json:"script"`
	Personalized string `json:"personalized,omitempty"`
}

func handleCheckInScript(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkInScriptRequest
		if r.ContentLength != 0 {
			if err := decodeBody(w, r, &req); err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
				return
			}
		}

		var contact storage.Contact
		if req.ContactID != "" {
			var err error
			contact, err = deps.Store.GetContact(req.ContactID)
			if errors.Is(err, storage.ErrNotFound) {
				httpError(w, http.StatusNotFound, "not_found", "contact not found")
				return
			}
			if err != nil {
				httpError(w, http.StatusInternalServerError, "api_error", "failed to get contact: %v", err)
				return
			}
		}

		h, err := recentHistory(deps)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load mood history: %v", err)
			return
		}

		resp := checkInScriptResponse{
			Script: deps.Generator.CheckInScript(r.Context(), deps.Profile.DisplayName(), h),
		}
		if req.ContactID != "" {
			resp.Personalized = generative.Personalize(resp.Script, contact.Name)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
