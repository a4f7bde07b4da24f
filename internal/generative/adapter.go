// Package generative produces insights by asking a language model for a
// structured answer. Every operation makes at most one model call, never
// retries and always returns a usable value: when the call or its output
// is unusable, a fixed supportive fallback is returned instead.
package generative

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/auracare/auracare/internal/engine"
	"github.com/auracare/auracare/internal/insight"
	"github.com/auracare/auracare/internal/mood"
)

// ContactPlaceholder marks where a check-in script addresses its recipient.
const ContactPlaceholder = "[Contact Name]"

// PromptWindow is the most qualifying records sent to the model.
const PromptWindow = 7

// Chatter is the single call the adapter needs from a generation backend.
// engine.Engine satisfies it.
type Chatter interface {
	Chat(ctx context.Context, model string, messages []engine.Message, jsonSchema *engine.Schema) (string, error)
}

// JournalAnalysis is the structured reading of one journal entry.
type JournalAnalysis struct {
	Tone    string `json:"tone"`
	Theme   string `json:"theme"`
	Summary string `json:"summary"`
}

var (
	// DashboardFallback is returned when the dashboard insight cannot be
	// generated for a history that has enough data.
	DashboardFallback = insight.Result{
		HasData:              true,
		InsightText:          "You're building a helpful habit by checking in regularly.",
		PatternText:          "Take a few minutes for a breathing exercise today.",
		ActionLink:           insight.LinkBreathing,
		ResourceHighlightTag: insight.TagBreathing,
	}

	// JournalFallback is returned when a journal entry cannot be analysed.
	JournalFallback = JournalAnalysis{
		Tone:    "Neutral",
		Theme:   "Reflection",
		Summary: "Thanks for sharing. Taking time to write down your thoughts is a meaningful step.",
	}
)

// ScriptFallback is returned when no usable check-in script was generated.
const ScriptFallback = "Hey " + ContactPlaceholder + ", just checking in. I've had a lot on my mind lately and would love to catch up when you have a moment."

var errMissingPlaceholder = errors.New("script does not contain the contact placeholder")

// Adapter turns mood data into generated insights through a Chatter.
type Adapter struct {
	client Chatter
	model  string
	logger *slog.Logger
}

// NewAdapter creates an Adapter that sends requests for model to client.
// A nil logger selects slog.Default().
func NewAdapter(client Chatter, model string, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{client: client, model: model, logger: logger}
}

// Dashboard asks the model for a personalised insight about the most recent
// check-ins. Journal entries are ignored. Fewer than insight.MinRecords
// qualifying records yield insight.NoData() without calling the model.
func (a *Adapter) Dashboard(ctx context.Context, h mood.History, displayName string) insight.Result {
	q := h.Qualifying()
	if len(q) < insight.MinRecords {
		return insight.NoData()
	}
	if len(q) > PromptWindow {
		q = q[:PromptWindow]
	}

	raw, err := a.client.Chat(ctx, a.model, buildDashboardPrompt(q, displayName), dashboardSchema())
	if err != nil {
		a.warn("dashboard", err)
		return DashboardFallback
	}

	res, err := parseDashboard(raw)
	if err != nil {
		a.warn("dashboard", err, "response", raw)
		return DashboardFallback
	}
	return res
}

// AnalyzeJournal asks the model for the tone, theme and a short summary of
// a journal entry. Blank text yields JournalFallback without a call.
func (a *Adapter) AnalyzeJournal(ctx context.Context, text string) JournalAnalysis {
	if strings.TrimSpace(text) == "" {
		return JournalFallback
	}

	raw, err := a.client.Chat(ctx, a.model, buildJournalPrompt(text), journalSchema())
	if err != nil {
		a.warn("journal", err)
		return JournalFallback
	}

	res, err := parseJournal(raw)
	if err != nil {
		a.warn("journal", err, "response", raw)
		return JournalFallback
	}
	return res
}

// CheckInScript asks the model for a short message the user can send to
// someone in their support circle. The result always contains
// ContactPlaceholder.
func (a *Adapter) CheckInScript(ctx context.Context, displayName string, h mood.History) string {
	q := h.Qualifying()
	if len(q) > PromptWindow {
		q = q[:PromptWindow]
	}

	raw, err := a.client.Chat(ctx, a.model, buildScriptPrompt(displayName, q), nil)
	if err != nil {
		a.warn("script", err)
		return ScriptFallback
	}

	script := strings.TrimSpace(raw)
	if !strings.Contains(script, ContactPlaceholder) {
		a.warn("script", errMissingPlaceholder, "response", raw)
		return ScriptFallback
	}
	return script
}

// Personalize replaces every ContactPlaceholder in script with name.
func Personalize(script, name string) string {
	return strings.ReplaceAll(script, ContactPlaceholder, name)
}

// Model returns the model name requests are sent for.
func (a *Adapter) Model() string { return a.model }

func (a *Adapter) warn(op string, err error, args ...any) {
	a.logger.Warn("generative insight failed, using fallback",
		append([]any{"operation", op, "model", a.model, "error", err}, args...)...)
}

type dashboardReply struct {
	InsightText          string `json:"insightText"`
	PatternText          string `json:"patternText"`
	ActionLink           string `json:"actionLink"`
	ResourceHighlightTag string `json:"resourceHighlightTag"`
}

func parseDashboard(raw string) (insight.Result, error) {
	var r dashboardReply
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return insight.Result{}, fmt.Errorf("decoding dashboard reply: %w", err)
	}
	switch {
	case strings.TrimSpace(r.InsightText) == "":
		return insight.Result{}, errors.New("insightText is empty")
	case strings.TrimSpace(r.PatternText) == "":
		return insight.Result{}, errors.New("patternText is empty")
	case !insight.IsActionLink(r.ActionLink):
		return insight.Result{}, fmt.Errorf("actionLink %q is not an allowed link", r.ActionLink)
	case !insight.IsResourceTag(r.ResourceHighlightTag):
		return insight.Result{}, fmt.Errorf("resourceHighlightTag %q is not an allowed tag", r.ResourceHighlightTag)
	}
	return insight.Result{
		HasData:              true,
		InsightText:          strings.TrimSpace(r.InsightText),
		PatternText:          strings.TrimSpace(r.PatternText),
		ActionLink:           r.ActionLink,
		ResourceHighlightTag: r.ResourceHighlightTag,
	}, nil
}

func parseJournal(raw string) (JournalAnalysis, error) {
	var r JournalAnalysis
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return JournalAnalysis{}, fmt.Errorf("decoding journal reply: %w", err)
	}
	r.Tone = strings.TrimSpace(r.Tone)
	r.Theme = strings.TrimSpace(r.Theme)
	r.Summary = strings.TrimSpace(r.Summary)
	if r.Tone == "" || r.Theme == "" || r.Summary == "" {
		return JournalAnalysis{}, errors.New("journal reply has an empty field")
	}
	return r, nil
}

func dashboardSchema() *engine.Schema {
	return engine.ObjectSchema("mood_insight",
		engine.StringField("insightText", "One or two warm sentences about the mood pattern"),
		engine.StringField("patternText", "One concrete, gentle suggestion for today"),
		engine.StringField("actionLink", "The in-app page that fits the suggestion", insight.ActionLinks...),
		engine.StringField("resourceHighlightTag", "The resource category to highlight", insight.ResourceTags...),
	)
}

func journalSchema() *engine.Schema {
	return engine.ObjectSchema("journal_analysis",
		engine.StringField("tone", "The overall emotional tone in one or two words"),
		engine.StringField("theme", "The main theme in one or two words"),
		engine.StringField("summary", "A short, supportive summary addressed to the writer"),
	)
}
