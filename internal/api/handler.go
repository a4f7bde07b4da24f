package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/auracare/auracare/internal/generative"
	"github.com/auracare/auracare/internal/insight"
	"github.com/auracare/auracare/internal/mood"
	"github.com/auracare/auracare/internal/profile"
	"github.com/auracare/auracare/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

var validate = validator.New()

func init() {
	// Report JSON field names in validation errors.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// Generator is the generative insight surface the API and MCP server use.
// generative.Adapter implements it.
type Generator interface {
	Dashboard(ctx context.Context, h mood.History, displayName string) insight.Result
	AnalyzeJournal(ctx context.Context, text string) generative.JournalAnalysis
	CheckInScript(ctx context.Context, displayName string, h mood.History) string
}

// Deps holds what the HTTP handlers need.
type Deps struct {
	Store     *storage.Store
	Profile   *profile.Manager
	Generator Generator
	Token     string

	// Location is the zone weekday/weekend buckets are computed in.
	// Nil means time.Local.
	Location *time.Location

	// HistoryLimit caps how many recent check-ins feed an insight.
	HistoryLimit int

	Logger *slog.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.HistoryLimit <= 0 {
		d.HistoryLimit = 60
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return d
}

// NewHandler returns the auracare HTTP API. Every route except /health
// requires the bearer token.
func NewHandler(deps Deps) http.Handler {
	deps = deps.withDefaults()

	r := chi.NewRouter()
	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(requireToken(deps.Token, deps.Logger))

		r.Post("/moods", handleLogMood(deps))
		r.Get("/moods", handleListMoods(deps))
		r.Delete("/moods/{id}", handleDeleteMood(deps))

		r.Get("/insights", handleInsight(deps))
		r.Get("/insights/ai", handleAIInsight(deps))

		r.Post("/journal", handleWriteJournal(deps))
		r.Get("/journal", handleListJournal(deps))
		r.Get("/journal/{id}/analysis", handleJournalAnalysis(deps))
		r.Post("/journal/analyze", handleAnalyzeJournal(deps))

		r.Post("/checkin-script", handleCheckInScript(deps))

		r.Get("/support-circle", handleListContacts(deps))
		r.Post("/support-circle", handleAddContact(deps))
		r.Delete("/support-circle/{id}", handleDeleteContact(deps))

		r.Get("/stats", handleStats(deps))
		r.Get("/jobs/{id}", handleGetJob(deps))

		r.Get("/profile", handleGetProfile(deps))
		r.Patch("/profile", handlePatchProfile(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeBody reads a JSON body into v and validates it.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %v", err)
	}
	if err := validate.Struct(v); err != nil {
		return validationMessage(err)
	}
	return nil
}

func validationMessage(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs[i] = fe.Field() + " is required"
		case "max":
			msgs[i] = fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
		default:
			msgs[i] = fmt.Sprintf("%s failed %q validation", fe.Field(), fe.Tag())
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": fmt.Sprintf(format, args...),
			"type":    errType,
		},
	})
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}

// recentHistory loads the check-in history insights are computed over,
// converted to the configured zone.
func recentHistory(deps Deps) (mood.History, error) {
	h, err := deps.Store.MoodHistory(deps.HistoryLimit)
	if err != nil {
		return nil, err
	}
	return h.In(deps.Location), nil
}
