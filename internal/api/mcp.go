package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/auracare/auracare/internal/generative"
	"github.com/auracare/auracare/internal/insight"
	"github.com/auracare/auracare/internal/mood"
	"github.com/auracare/auracare/internal/storage"
)

const recentMoodsLimit = 10

// NewMCPServer creates an MCP server exposing mood logging and the insight
// operations as tools, and recent check-ins as a resource.
func NewMCPServer(deps Deps, version string) *server.MCPServer {
	deps = deps.withDefaults()

	s := server.NewMCPServer(
		"auracare",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("auracare: local mood check-ins, journal analysis and supportive insights."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("log_mood",
			mcp.WithDescription("Record a mood check-in."),
			mcp.WithString("mood", mcp.Description("One of Terrible, Down, Okay, Good, Amazing, Mixed"), mcp.Required()),
			mcp.WithString("notes", mcp.Description("Optional free-text notes about the check-in")),
		),
		mcpLogMood(deps),
	)

	s.AddTool(
		mcp.NewTool("mood_insight",
			mcp.WithDescription("Get an insight about recent mood check-ins as JSON."),
			mcp.WithBoolean("ai", mcp.Description("Use the language model instead of the built-in rules")),
		),
		mcpMoodInsight(deps),
	)

	s.AddTool(
		mcp.NewTool("analyze_journal",
			mcp.WithDescription("Read the tone, theme and a short summary of a journal entry."),
			mcp.WithString("text", mcp.Description("Journal entry text"), mcp.Required()),
		),
		mcpAnalyzeJournal(deps),
	)

	s.AddTool(
		mcp.NewTool("checkin_script",
			mcp.WithDescription("Draft a short message the user can send to someone in their support circle."),
			mcp.WithString("contact_id", mcp.Description("Support circle contact to address the message to")),
		),
		mcpCheckInScript(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"moods://recent",
			"Recent Check-ins",
			mcp.WithResourceDescription("Last 10 mood check-ins and journal entries, newest first"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceRecent(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"user://profile",
			"User Profile",
			mcp.WithResourceDescription("Current user profile as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceProfile(deps),
	)

	return s
}

func mcpLogMood(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("mood")
		if err != nil {
			return mcpError("mood is required"), nil
		}
		c, ok := mood.ParseCategory(raw)
		if !ok || c.IsJournal() {
			return mcpError(fmt.Sprintf("unknown mood %q (valid: %s)", raw, categoryList())), nil
		}

		rec, err := deps.Store.SaveMoodLog(mood.Record{
			Mood:  c,
			Notes: strings.TrimSpace(req.GetString("notes", "")),
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to save: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Logged %s (%s)", rec.Mood, rec.ID)), nil
	}
}

func mcpMoodInsight(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		h, err := recentHistory(deps)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to load mood history: %v", err)), nil
		}

		var result insight.Result
		if req.GetBool("ai", false) {
			result = deps.Generator.Dashboard(ctx, h, deps.Profile.DisplayName())
		} else {
			result = insight.Analyze(h)
		}
		return mcpJSON(result)
	}
}

func mcpAnalyzeJournal(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcpError("text is required"), nil
		}
		return mcpJSON(deps.Generator.AnalyzeJournal(ctx, text))
	}
}

func mcpCheckInScript(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		contactID := req.GetString("contact_id", "")

		var contact storage.Contact
		if contactID != "" {
			var err error
			contact, err = deps.Store.GetContact(contactID)
			if errors.Is(err, storage.ErrNotFound) {
				return mcpError(fmt.Sprintf("contact %s not found", contactID)), nil
			}
			if err != nil {
				return mcpError(fmt.Sprintf("failed to get contact: %v", err)), nil
			}
		}

		h, err := recentHistory(deps)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to load mood history: %v", err)), nil
		}

		script := deps.Generator.CheckInScript(ctx, deps.Profile.DisplayName(), h)
		if contactID != "" {
			script = generative.Personalize(script, contact.Name)
		}
		return mcpText(script), nil
	}
}

func mcpResourceRecent(deps Deps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		logs, err := deps.Store.ListMoodLogs(recentMoodsLimit, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to get recent moods: %w", err)
		}

		type moodSummary struct {
			ID        string `json:"id"`
			Mood      string `json:"mood"`
			Notes     string `json:"notes,omitempty"`
			CreatedAt string `json:"createdAt"`
		}

		summaries := make([]moodSummary, len(logs))
		for i, l := range logs {
			notes := l.Notes
			if runes := []rune(notes); len(runes) > 200 {
				notes = string(runes[:200]) + "..."
			}
			summaries[i] = moodSummary{
				ID:        l.ID,
				Mood:      string(l.Mood),
				Notes:     notes,
				CreatedAt: l.CreatedAt.In(deps.Location).Format(time.RFC3339),
			}
		}

		b, err := json.Marshal(summaries)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal moods: %w", err)
		}
		return textResource(req.Params.URI, b), nil
	}
}

func mcpResourceProfile(deps Deps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		p, err := deps.Profile.GetProfile()
		if err != nil {
			return nil, fmt.Errorf("failed to get profile: %w", err)
		}
		b, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal profile: %w", err)
		}
		return textResource(req.Params.URI, b), nil
	}
}

func textResource(uri string, b []byte) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}
}

func mcpJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcpText(string(b)), nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
