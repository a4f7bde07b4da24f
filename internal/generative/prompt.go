package generative

import (
	"fmt"
	"strings"

	"github.com/auracare/auracare/internal/engine"
	"github.com/auracare/auracare/internal/insight"
	"github.com/auracare/auracare/internal/mood"
)

const dashboardSystemPrompt = `You are a warm, supportive wellbeing companion inside a mood check-in app. You are not a therapist and you never diagnose. Look at the user's recent check-ins and write one short, personal insight. Your output must be ONLY a single valid JSON object that conforms to the provided schema. Do not include any other text, prose, or markdown.

Rules:
- insightText: one or two sentences about what the check-ins show. Address the user by name.
- patternText: one small, concrete thing they could do today.
- actionLink must be one of: %s
- resourceHighlightTag must be one of: %s
- Mood values run from 1 (Terrible) to 5 (Amazing).`

const journalSystemPrompt = `You are a gentle reader of personal journal entries. Identify the overall tone and the main theme, and write a two-sentence supportive summary addressed to the writer. Never diagnose and never give medical advice. Your output must be ONLY a single valid JSON object that conforms to the provided schema. Do not include any other text, prose, or markdown.`

const scriptSystemPrompt = `You help people reach out to someone they trust. Write a short, casual text message (two or three sentences) the user can send to a friend or family member to check in and open a conversation. Write it in the first person, as the user. Address the recipient with the literal text %s exactly once so the app can fill in their name. Reply with the message text only.`

// buildDashboardPrompt lists the given records, newest first, with the
// user's display name.
func buildDashboardPrompt(h mood.History, displayName string) []engine.Message {
	system := fmt.Sprintf(dashboardSystemPrompt,
		strings.Join(insight.ActionLinks, ", "),
		strings.Join(insight.ResourceTags, ", "))

	var sb strings.Builder
	fmt.Fprintf(&sb, "Name: %s\n\nRecent check-ins (newest first):\n", nameOrDefault(displayName))
	writeRecords(&sb, h)

	return []engine.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: sb.String()},
	}
}

func buildJournalPrompt(text string) []engine.Message {
	return []engine.Message{
		{Role: "system", Content: journalSystemPrompt},
		{Role: "user", Content: strings.TrimSpace(text)},
	}
}

func buildScriptPrompt(displayName string, h mood.History) []engine.Message {
	var sb strings.Builder
	fmt.Fprintf(&sb, "My name is %s.", nameOrDefault(displayName))
	if len(h) > 0 {
		sb.WriteString(" For context, my recent check-ins (newest first) were:\n")
		writeRecords(&sb, h)
	}
	return []engine.Message{
		{Role: "system", Content: fmt.Sprintf(scriptSystemPrompt, ContactPlaceholder)},
		{Role: "user", Content: sb.String()},
	}
}

func writeRecords(sb *strings.Builder, h mood.History) {
	for _, r := range h {
		fmt.Fprintf(sb, "- %s: %s (%d/5)", r.CreatedAt.Format("Mon 2006-01-02 15:04"), r.Mood, r.Value())
		if notes := strings.TrimSpace(r.Notes); notes != "" {
			fmt.Fprintf(sb, ". Notes: %s", oneLine(notes))
		}
		sb.WriteByte('\n')
	}
}

func nameOrDefault(name string) string {
	if name = strings.TrimSpace(name); name == "" {
		return "User"
	}
	return name
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
