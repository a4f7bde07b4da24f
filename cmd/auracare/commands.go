package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/auracare/auracare/internal/config"
	"github.com/auracare/auracare/internal/insight"
	"github.com/auracare/auracare/internal/mood"
	"github.com/auracare/auracare/internal/profile"
	"github.com/auracare/auracare/internal/storage"
)

const timeLayout = "2006-01-02 15:04"

// --- check-ins ---

var logCmd = &cobra.Command{
	Use:   "log <mood>",
	Short: "Log a mood check-in",
	Long: `Log a mood check-in.

Moods: Terrible, Down, Okay, Good, Amazing, Mixed

Examples:
  auracare log good
  auracare log down --notes "stressed about work"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, ok := mood.ParseCategory(args[0])
		if !ok || m.IsJournal() {
			return fmt.Errorf("unknown mood %q (valid: %s)", args[0], moodNames())
		}
		notes, _ := cmd.Flags().GetString("notes")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		req := map[string]string{"mood": string(m)}
		if notes != "" {
			req["notes"] = notes
		}
		var result struct {
			ID string `json:"id"`
		}
		if err := client.call(cmd.Context(), http.MethodPost, "/moods", req, &result); err != nil {
			return err
		}
		printSuccess("Logged %s (id: %s)", m, result.ID)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent check-ins and journal entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		var logs []mood.Record
		if err := client.call(cmd.Context(), http.MethodGet, "/moods?limit="+strconv.Itoa(limit), nil, &logs); err != nil {
			return err
		}
		if len(logs) == 0 {
			printWarning("No check-ins yet. Try: auracare log okay")
			return nil
		}
		printRecords(cmd.OutOrStdout(), logs)
		return nil
	},
}

func printRecords(out io.Writer, logs []mood.Record) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, r := range logs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			r.ID, r.CreatedAt.Local().Format(timeLayout),
			colorize(moodColor(string(r.Mood)), string(r.Mood)), truncate(r.Notes, 60))
	}
	tw.Flush()
}

var insightCmd = &cobra.Command{
	Use:   "insight",
	Short: "Show an insight about your recent moods",
	RunE: func(cmd *cobra.Command, args []string) error {
		ai, _ := cmd.Flags().GetBool("ai")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		path := "/insights"
		if ai {
			path = "/insights/ai"
		}
		var result insight.Result
		if err := client.call(cmd.Context(), http.MethodGet, path, nil, &result); err != nil {
			return err
		}
		printInsight(cmd.OutOrStdout(), result)
		return nil
	},
}

func printInsight(out io.Writer, r insight.Result) {
	if !r.HasData {
		printWarning("Not enough check-ins yet. Log at least %d to see an insight.", insight.MinRecords)
		return
	}
	fmt.Fprintln(out, colorize(colorBold, r.InsightText))
	fmt.Fprintln(out, r.PatternText)
	if r.ActionLink != "" {
		fmt.Fprintf(out, "Suggested: %s\n", r.ActionLink)
	}
	if r.ResourceHighlightTag != "" {
		fmt.Fprintf(out, "Resources: %s\n", r.ResourceHighlightTag)
	}
}

// --- journal ---

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Write and review journal entries",
}

var journalWriteCmd = &cobra.Command{
	Use:   "write <text>",
	Short: "Save a journal entry and queue it for analysis",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeJournal(cmd, strings.Join(args, " "))
	},
}

var journalImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Save a .txt, .md or .pdf file as a journal entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readJournalFile(args[0])
		if err != nil {
			return err
		}
		printStep("Read %d characters from %s", len([]rune(text)), args[0])
		return writeJournal(cmd, text)
	},
}

func writeJournal(cmd *cobra.Command, text string) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}
	var result struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := client.call(cmd.Context(), http.MethodPost, "/journal", map[string]string{"text": text}, &result); err != nil {
		return err
	}
	printSuccess("Saved journal entry %s (%s)", result.ID, result.Status)
	return nil
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List journal entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		var entries []mood.Record
		if err := client.call(cmd.Context(), http.MethodGet, "/journal?limit="+strconv.Itoa(limit), nil, &entries); err != nil {
			return err
		}
		if len(entries) == 0 {
			printWarning("No journal entries yet.")
			return nil
		}
		printRecords(cmd.OutOrStdout(), entries)
		return nil
	},
}

var journalAnalyzeCmd = &cobra.Command{
	Use:   "analyze [entry-id]",
	Short: "Show the stored analysis of an entry, or analyse --text directly",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, _ := cmd.Flags().GetString("text")
		if (len(args) == 0) == (text == "") {
			return fmt.Errorf("pass either an entry id or --text")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		method, path, body := http.MethodPost, "/journal/analyze", any(map[string]string{"text": text})
		if text == "" {
			method, path, body = http.MethodGet, "/journal/"+url.PathEscape(args[0])+"/analysis", nil
		}

		var a storage.JournalAnalysis
		if err := client.call(cmd.Context(), method, path, body, &a); err != nil {
			var ae *apiError
			if errors.As(err, &ae) && ae.Type == "analysis_pending" {
				printWarning("Entry %s has not been analysed yet. Try again in a moment.", args[0])
				return nil
			}
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s\n", colorize(colorBold, "Tone:"), a.Tone)
		fmt.Fprintf(out, "%s %s\n", colorize(colorBold, "Theme:"), a.Theme)
		fmt.Fprintln(out, a.Summary)
		return nil
	},
}

// --- check-in script ---

var scriptCmd = &cobra.Command{
	Use:   "script",
	Short: "Draft a check-in message for someone in your support circle",
	RunE: func(cmd *cobra.Command, args []string) error {
		contactID, _ := cmd.Flags().GetString("contact")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		var body any
		if contactID != "" {
			body = map[string]string{"contact_id": contactID}
		}
		var result struct {
			Script       string `json:"script"`
			Personalized string `json:"personalized"`
		}
		if err := client.call(cmd.Context(), http.MethodPost, "/checkin-script", body, &result); err != nil {
			return err
		}
		if result.Personalized != "" {
			fmt.Fprintln(cmd.OutOrStdout(), result.Personalized)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), result.Script)
		}
		return nil
	},
}

// --- support circle ---

var circleCmd = &cobra.Command{
	Use:   "circle",
	Short: "Manage your support circle",
}

var circleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List support circle contacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		var contacts []storage.Contact
		if err := client.call(cmd.Context(), http.MethodGet, "/support-circle", nil, &contacts); err != nil {
			return err
		}
		if len(contacts) == 0 {
			printWarning("Your support circle is empty. Try: auracare circle add <name> <phone>")
			return nil
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, c := range contacts {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.Name, c.Phone)
		}
		return tw.Flush()
	},
}

var circleAddCmd = &cobra.Command{
	Use:   "add <name> <phone>",
	Short: "Add a contact to your support circle",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		var c storage.Contact
		if err := client.call(cmd.Context(), http.MethodPost, "/support-circle", map[string]string{
			"name":  args[0],
			"phone": args[1],
		}, &c); err != nil {
			return err
		}
		printSuccess("Added %s (id: %s)", c.Name, c.ID)
		return nil
	},
}

var circleRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a contact from your support circle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		if err := client.call(cmd.Context(), http.MethodDelete, "/support-circle/"+url.PathEscape(args[0]), nil, nil); err != nil {
			if isStatus(err, http.StatusNotFound) {
				return fmt.Errorf("no support circle contact with id %s", args[0])
			}
			return err
		}
		printSuccess("Removed contact %s", args[0])
		return nil
	},
}

// --- profile ---

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "View or update your profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show your profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		var p profile.Profile
		if err := client.call(cmd.Context(), http.MethodGet, "/profile", nil, &p); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %s\n", profile.KeyDisplayName, p.DisplayName)
		fmt.Fprintf(out, "%s: %s\n", profile.KeyPhoneNumber, valueOrDash(p.PhoneNumber))
		fmt.Fprintf(out, "%s: %s\n", profile.KeyEmail, valueOrDash(p.Email))
		return nil
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a profile field (an empty value clears it)",
	Long: fmt.Sprintf(`Set a profile field. An empty value clears it.

Keys: %s`, strings.Join(profile.Keys, ", ")),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		if err := client.call(cmd.Context(), http.MethodPatch, "/profile", map[string]string{args[0]: args[1]}, nil); err != nil {
			return err
		}
		printSuccess("Updated %s", args[0])
		return nil
	},
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or change configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(tw, "%s\t%s\t(%s)\n", k.Key, k.Value, k.EnvVar)
		}
		return tw.Flush()
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Persist a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetKey(args[0], args[1]); err != nil {
			return fmt.Errorf("%w (valid keys: %s)", err, strings.Join(config.ValidKeys(), ", "))
		}
		printSuccess("Set %s", args[0])
		printWarning("Restart the server for the change to take effect")
		return nil
	},
}

func init() {
	logCmd.Flags().String("notes", "", "optional notes for this check-in")
	historyCmd.Flags().Int("limit", 20, "number of entries to show")
	insightCmd.Flags().Bool("ai", false, "ask the generation backend for a personalised insight")

	journalListCmd.Flags().Int("limit", 20, "number of entries to show")
	journalAnalyzeCmd.Flags().String("text", "", "analyse this text without saving it")
	journalCmd.AddCommand(journalWriteCmd, journalImportCmd, journalListCmd, journalAnalyzeCmd)

	scriptCmd.Flags().String("contact", "", "support circle contact id to personalise the message for")

	circleCmd.AddCommand(circleListCmd, circleAddCmd, circleRemoveCmd)
	profileCmd.AddCommand(profileShowCmd, profileSetCmd)
	configCmd.AddCommand(configShowCmd, configSetCmd)
}

func moodNames() string {
	names := make([]string, len(mood.Categories))
	for i, c := range mood.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func valueOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
