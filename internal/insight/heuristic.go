package insight

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/auracare/auracare/internal/mood"
)

const (
	// MinRecords is the shortest history that produces an insight.
	MinRecords = 3

	// RecentWindow records (newest first) are compared against up to
	// EarlierWindow records that precede them.
	RecentWindow  = 3
	EarlierWindow = 7

	// MinEarlierRecords is the fewest earlier records needed to call a trend.
	MinEarlierRecords = 3

	// TrendThreshold is the mean difference a trend must strictly exceed.
	TrendThreshold = 0.5

	// StructureThreshold is the weekday/weekend gap that must be strictly exceeded.
	StructureThreshold = 0.5

	// LowMoodCeiling is the highest ordinal value treated as a low mood.
	LowMoodCeiling = 2
)

// Strategy inspects a history and reports whether it produced an insight.
type Strategy func(h mood.History) (Result, bool)

// Strategies in priority order. The first one to report true wins.
var strategies = []Strategy{
	recentTrend,
	lowMoodTrigger,
	weeklyStructure,
}

// Analyze produces a single insight from a newest-first history. It never
// modifies h and returns the same result for the same input.
func Analyze(h mood.History) Result {
	if len(h) < MinRecords {
		return NoData()
	}
	for _, s := range strategies {
		if r, ok := s(h); ok {
			return r
		}
	}
	return stableResult
}

var (
	downwardTrendResult = textResult(
		"Heads up: your last few check-ins are noticeably lower than earlier this week.",
		"Pause for a 5-minute breathing exercise right now to help steady yourself.",
	)
	upwardTrendResult = textResult(
		"Great news: your mood has been climbing compared to earlier this week!",
		"Take a moment to reflect on what has been helping, so you can keep doing more of it.",
	)

	responsibilityTriggerResult = textResult(
		"Your lowest moods mention work, school, or stress. Your responsibilities may be weighing on you.",
		"Try breaking big tasks into small steps and schedule a short break between them.",
	)
	relationshipTriggerResult = textResult(
		"Your lowest moods mention the people around you. Relationship stress may be affecting how you feel.",
		"Reach out to someone in your support circle you trust and talk it through.",
	)
	fatigueTriggerResult = textResult(
		"Your lowest moods mention feeling tired. Low energy may be dragging your mood down.",
		"Protect your rest tonight: aim for a consistent bedtime and a screen-free wind-down.",
	)

	weekdayThrivingResult = textResult(
		"You thrive on structure! Weekday moods are higher. Try to plan activities on weekends.",
		"Your mood dips on the weekend. Plan a social call on Saturday!",
	)
	weekendThrivingResult = textResult(
		"You love relaxation! Weekend moods are highest. Look for quick ways to de-stress during the week.",
		"Your mood dips during the workweek. Take a short walk at lunch.",
	)
	stableResult = textResult(
		"Your mood is stable! Keep up the good work and log those notes.",
		"Focus on logging notes to find micro-patterns!",
	)
)

func recentTrend(h mood.History) (Result, bool) {
	if len(h) < RecentWindow+MinEarlierRecords {
		return Result{}, false
	}
	recent := h[:RecentWindow]
	end := RecentWindow + EarlierWindow
	if end > len(h) {
		end = len(h)
	}
	earlier := h[RecentWindow:end]

	diff := recent.Mean() - earlier.Mean()
	switch {
	case diff < -TrendThreshold:
		return downwardTrendResult, true
	case diff > TrendThreshold:
		return upwardTrendResult, true
	}
	return Result{}, false
}

// triggerFamily maps a set of note keywords to the insight they suggest.
type triggerFamily struct {
	keywords []string
	result   Result
}

var triggerFamilies = []triggerFamily{
	{keywords: []string{"work", "school", "stress"}, result: responsibilityTriggerResult},
	{keywords: []string{"social", "friend", "partner"}, result: relationshipTriggerResult},
	{keywords: []string{"tired", "sleep"}, result: fatigueTriggerResult},
}

func lowMoodTrigger(h mood.History) (Result, bool) {
	var low []mood.Record
	for _, r := range h {
		if r.Value() <= LowMoodCeiling && strings.TrimSpace(r.Notes) != "" {
			low = append(low, r)
		}
	}
	if len(low) == 0 {
		return Result{}, false
	}

	// low is a private copy; ties keep history order.
	sort.SliceStable(low, func(i, j int) bool {
		return low[i].Value() < low[j].Value()
	})

	notes := strings.ToLower(low[0].Notes)
	for _, f := range triggerFamilies {
		for _, kw := range f.keywords {
			if strings.Contains(notes, kw) {
				return f.result, true
			}
		}
	}
	return Result{}, false
}

func weeklyStructure(h mood.History) (Result, bool) {
	var weekdaySum, weekendSum, weekdayCount, weekendCount int
	for _, r := range h {
		switch r.CreatedAt.Weekday() {
		case time.Saturday, time.Sunday:
			weekendSum += r.Value()
			weekendCount++
		default:
			weekdaySum += r.Value()
			weekdayCount++
		}
	}

	avgWeekday := average(weekdaySum, weekdayCount)
	avgWeekend := average(weekendSum, weekendCount)

	if math.Abs(avgWeekday-avgWeekend) > StructureThreshold {
		if avgWeekday > avgWeekend {
			return weekdayThrivingResult, true
		}
		return weekendThrivingResult, true
	}
	return stableResult, true
}

func average(sum, count int) float64 {
	if count == 0 {
		return 0
	}
	return float64(sum) / float64(count)
}
