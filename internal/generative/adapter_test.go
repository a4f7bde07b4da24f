package generative

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/auracare/auracare/internal/engine"
	"github.com/auracare/auracare/internal/insight"
	"github.com/auracare/auracare/internal/mood"
)

// mockChatter implements Chatter for testing and records every call.
type mockChatter struct {
	response string
	err      error

	calls    int
	messages []engine.Message
	schema   *engine.Schema
	model    string
}

func (m *mockChatter) Chat(_ context.Context, model string, messages []engine.Message, jsonSchema *engine.Schema) (string, error) {
	m.calls++
	m.model = model
	m.messages = messages
	m.schema = jsonSchema
	return m.response, m.err
}

func (m *mockChatter) userPrompt() string {
	for _, msg := range m.messages {
		if msg.Role == "user" {
			return msg.Content
		}
	}
	return ""
}

const validDashboard = `{"insightText":"Sam, your week has been steady.","patternText":"Try a short walk after lunch.","actionLink":"/resources","resourceHighlightTag":"resilience"}`

var start = time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)

func history(moods ...mood.Category) mood.History {
	h := make(mood.History, len(moods))
	for i, m := range moods {
		h[i] = mood.Record{
			Mood:      m,
			Notes:     fmt.Sprintf("note-%d", i),
			CreatedAt: start.Add(-time.Duration(i) * time.Hour),
		}
	}
	return h
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestDashboard_Success(t *testing.T) {
	mock := &mockChatter{response: validDashboard}
	a := NewAdapter(mock, "phi3.5", quietLogger())

	got := a.Dashboard(context.Background(), history(mood.Good, mood.Okay, mood.Down), "Sam")

	want := insight.Result{
		HasData:              true,
		InsightText:          "Sam, your week has been steady.",
		PatternText:          "Try a short walk after lunch.",
		ActionLink:           "/resources",
		ResourceHighlightTag: "resilience",
	}
	if got != want {
		t.Errorf("Dashboard() = %+v, want %+v", got, want)
	}
	if mock.calls != 1 {
		t.Errorf("calls = %d, want 1", mock.calls)
	}
	if mock.model != "phi3.5" {
		t.Errorf("model = %q, want phi3.5", mock.model)
	}
	if !strings.Contains(mock.userPrompt(), "Name: Sam") {
		t.Errorf("prompt missing display name:\n%s", mock.userPrompt())
	}
}

func TestDashboard_TooFewQualifyingRecordsSkipsCall(t *testing.T) {
	mock := &mockChatter{response: validDashboard}
	a := NewAdapter(mock, "m", quietLogger())

	h := history(mood.JournalEntry, mood.Good, mood.JournalEntry, mood.Down, mood.JournalEntry)
	got := a.Dashboard(context.Background(), h, "Sam")

	if got != insight.NoData() {
		t.Errorf("Dashboard() = %+v, want NoData", got)
	}
	if mock.calls != 0 {
		t.Errorf("calls = %d, want 0", mock.calls)
	}
}

func TestDashboard_PromptWindow(t *testing.T) {
	mock := &mockChatter{response: validDashboard}
	a := NewAdapter(mock, "m", quietLogger())

	h := history(
		mood.JournalEntry,
		mood.Good, mood.Good, mood.Okay, mood.Down, mood.Okay, mood.Good, mood.Amazing,
		mood.Terrible, mood.Terrible,
	)
	a.Dashboard(context.Background(), h, "")

	prompt := mock.userPrompt()
	if n := strings.Count(prompt, "\n- "); n != PromptWindow {
		t.Errorf("prompt lists %d records, want %d:\n%s", n, PromptWindow, prompt)
	}
	if strings.Contains(prompt, "note-0") {
		t.Error("prompt includes the journal entry")
	}
	if !strings.Contains(prompt, "note-7") {
		t.Error("prompt is missing the seventh qualifying record")
	}
	if strings.Contains(prompt, "note-8") || strings.Contains(prompt, "Terrible") {
		t.Error("prompt includes records outside the window")
	}
	if !strings.Contains(prompt, "Name: User") {
		t.Error("blank display name should fall back to User")
	}
}

func TestDashboard_Schema(t *testing.T) {
	mock := &mockChatter{response: validDashboard}
	a := NewAdapter(mock, "m", quietLogger())
	a.Dashboard(context.Background(), history(mood.Good, mood.Good, mood.Good), "Sam")

	s := mock.schema
	if s == nil {
		t.Fatal("dashboard request sent without a schema")
	}
	if s.Name != "mood_insight" {
		t.Errorf("schema name = %q, want mood_insight", s.Name)
	}
	wantRequired := []string{"insightText", "patternText", "actionLink", "resourceHighlightTag"}
	if !reflect.DeepEqual(s.Required, wantRequired) {
		t.Errorf("required = %v, want %v", s.Required, wantRequired)
	}
	if !reflect.DeepEqual(s.Properties["actionLink"].Enum, insight.ActionLinks) {
		t.Errorf("actionLink enum = %v", s.Properties["actionLink"].Enum)
	}
	if !reflect.DeepEqual(s.Properties["resourceHighlightTag"].Enum, insight.ResourceTags) {
		t.Errorf("resourceHighlightTag enum = %v", s.Properties["resourceHighlightTag"].Enum)
	}
}

func TestDashboard_FallbackOnFailure(t *testing.T) {
	cases := map[string]*mockChatter{
		"transport error": {err: errors.New("connection refused")},
		"timeout":         {err: context.DeadlineExceeded},
		"malformed json":  {response: `{"insightText": "cut off`},
		"prose":           {response: "Here is your insight: you are doing great!"},
		"missing field":   {response: `{"insightText":"a","patternText":"b","actionLink":"/resources"}`},
		"blank text":      {response: `{"insightText":"  ","patternText":"b","actionLink":"/resources","resourceHighlightTag":"music"}`},
		"unknown link":    {response: `{"insightText":"a","patternText":"b","actionLink":"/settings","resourceHighlightTag":"music"}`},
		"unknown tag":     {response: `{"insightText":"a","patternText":"b","actionLink":"/resources","resourceHighlightTag":"yoga"}`},
	}
	for name, mock := range cases {
		t.Run(name, func(t *testing.T) {
			a := NewAdapter(mock, "m", quietLogger())
			got := a.Dashboard(context.Background(), history(mood.Down, mood.Down, mood.Okay), "Sam")
			if got != DashboardFallback {
				t.Errorf("Dashboard() = %+v, want fallback", got)
			}
			if mock.calls != 1 {
				t.Errorf("calls = %d, want exactly 1", mock.calls)
			}
		})
	}
}

func TestDashboard_FallbackIsWellFormed(t *testing.T) {
	if !DashboardFallback.HasData {
		t.Error("fallback must report hasData")
	}
	if !insight.IsActionLink(DashboardFallback.ActionLink) || !insight.IsResourceTag(DashboardFallback.ResourceHighlightTag) {
		t.Errorf("fallback uses values outside the allowed sets: %+v", DashboardFallback)
	}
	if !strings.Contains(ScriptFallback, ContactPlaceholder) {
		t.Error("script fallback is missing the placeholder")
	}
}

func TestDashboard_LogsFailureOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	a := NewAdapter(&mockChatter{err: errors.New("boom")}, "m", logger)

	a.Dashboard(context.Background(), history(mood.Good, mood.Good, mood.Good), "Sam")

	out := buf.String()
	if n := strings.Count(out, "level=WARN"); n != 1 {
		t.Errorf("logged %d warnings, want 1:\n%s", n, out)
	}
	if !strings.Contains(out, "operation=dashboard") || !strings.Contains(out, "error=boom") {
		t.Errorf("log line missing operation or error: %s", out)
	}
}

func TestDashboard_DoesNotMutateHistory(t *testing.T) {
	a := NewAdapter(&mockChatter{response: validDashboard}, "m", quietLogger())
	h := history(mood.JournalEntry, mood.Good, mood.Down, mood.Okay)
	before := append(mood.History(nil), h...)

	a.Dashboard(context.Background(), h, "Sam")

	if !reflect.DeepEqual(before, h) {
		t.Error("Dashboard() mutated its input")
	}
}

func TestAnalyzeJournal_Success(t *testing.T) {
	mock := &mockChatter{response: `{"tone":"Hopeful","theme":"Growth","summary":"You are noticing progress."}`}
	a := NewAdapter(mock, "m", quietLogger())

	got := a.AnalyzeJournal(context.Background(), "Today I finally finished the project.")

	want := JournalAnalysis{Tone: "Hopeful", Theme: "Growth", Summary: "You are noticing progress."}
	if got != want {
		t.Errorf("AnalyzeJournal() = %+v, want %+v", got, want)
	}
	if mock.schema == nil || mock.schema.Name != "journal_analysis" {
		t.Errorf("schema = %+v, want journal_analysis", mock.schema)
	}
	if !reflect.DeepEqual(mock.schema.Required, []string{"tone", "theme", "summary"}) {
		t.Errorf("required = %v", mock.schema.Required)
	}
	if mock.userPrompt() != "Today I finally finished the project." {
		t.Errorf("user prompt = %q", mock.userPrompt())
	}
}

func TestAnalyzeJournal_BlankTextSkipsCall(t *testing.T) {
	mock := &mockChatter{response: `{"tone":"a","theme":"b","summary":"c"}`}
	a := NewAdapter(mock, "m", quietLogger())

	if got := a.AnalyzeJournal(context.Background(), " \n\t "); got != JournalFallback {
		t.Errorf("AnalyzeJournal(blank) = %+v, want fallback", got)
	}
	if mock.calls != 0 {
		t.Errorf("calls = %d, want 0", mock.calls)
	}
}

func TestAnalyzeJournal_Fallback(t *testing.T) {
	cases := map[string]*mockChatter{
		"error":       {err: errors.New("502 bad gateway")},
		"malformed":   {response: `tone: calm`},
		"blank field": {response: `{"tone":"Calm","theme":"","summary":"ok"}`},
		"missing":     {response: `{"tone":"Calm"}`},
	}
	for name, mock := range cases {
		t.Run(name, func(t *testing.T) {
			a := NewAdapter(mock, "m", quietLogger())
			if got := a.AnalyzeJournal(context.Background(), "dear diary"); got != JournalFallback {
				t.Errorf("AnalyzeJournal() = %+v, want fallback", got)
			}
			if mock.calls != 1 {
				t.Errorf("calls = %d, want 1", mock.calls)
			}
		})
	}
}

func TestCheckInScript_Success(t *testing.T) {
	mock := &mockChatter{response: "\n  Hey [Contact Name], are you free for a call this week?  \n"}
	a := NewAdapter(mock, "m", quietLogger())

	got := a.CheckInScript(context.Background(), "Sam", history(mood.Down, mood.Okay))

	if got != "Hey [Contact Name], are you free for a call this week?" {
		t.Errorf("CheckInScript() = %q", got)
	}
	if mock.schema != nil {
		t.Error("script request should be free text")
	}
	if !strings.Contains(mock.messages[0].Content, ContactPlaceholder) {
		t.Error("system prompt does not ask for the placeholder")
	}
	if !strings.Contains(mock.userPrompt(), "My name is Sam.") {
		t.Errorf("user prompt = %q", mock.userPrompt())
	}
}

func TestCheckInScript_Fallback(t *testing.T) {
	cases := map[string]*mockChatter{
		"error":               {err: errors.New("timeout")},
		"blank":               {response: "   "},
		"missing placeholder": {response: "Hey Alex, want to grab coffee?"},
	}
	for name, mock := range cases {
		t.Run(name, func(t *testing.T) {
			a := NewAdapter(mock, "m", quietLogger())
			if got := a.CheckInScript(context.Background(), "Sam", nil); got != ScriptFallback {
				t.Errorf("CheckInScript() = %q, want fallback", got)
			}
			if mock.calls != 1 {
				t.Errorf("calls = %d, want 1", mock.calls)
			}
		})
	}
}

func TestPersonalize(t *testing.T) {
	got := Personalize(ScriptFallback, "Alex")
	if strings.Contains(got, ContactPlaceholder) {
		t.Errorf("Personalize left the placeholder: %q", got)
	}
	if !strings.HasPrefix(got, "Hey Alex,") {
		t.Errorf("Personalize() = %q", got)
	}
}

func TestNewAdapter_DefaultLogger(t *testing.T) {
	a := NewAdapter(&mockChatter{}, "m", nil)
	if a.logger == nil {
		t.Error("logger is nil")
	}
}
