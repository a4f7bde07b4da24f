package insight

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/auracare/auracare/internal/mood"
)

// monday is 2026-03-09, a Monday.
var monday = time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)

// historyOf builds a newest-first history one day apart, starting at start
// and walking backwards.
func historyOf(start time.Time, moods ...mood.Category) mood.History {
	h := make(mood.History, len(moods))
	for i, m := range moods {
		h[i] = mood.Record{Mood: m, CreatedAt: start.AddDate(0, 0, -i)}
	}
	return h
}

// sameDay builds a history where every record falls on the same weekday.
func sameDay(moods ...mood.Category) mood.History {
	h := make(mood.History, len(moods))
	for i, m := range moods {
		h[i] = mood.Record{Mood: m, CreatedAt: monday.AddDate(0, 0, -7*i)}
	}
	return h
}

func TestAnalyze_InsufficientData(t *testing.T) {
	for n := 0; n < MinRecords; n++ {
		h := sameDay(repeat(mood.Terrible, n)...)
		got := Analyze(h)
		if got != NoData() {
			t.Errorf("Analyze(%d records) = %+v, want NoData", n, got)
		}
		b, err := json.Marshal(got)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if string(b) != `{"hasData":false}` {
			t.Errorf("json = %s, want {\"hasData\":false}", b)
		}
	}
}

func TestAnalyze_DownwardTrendEndToEnd(t *testing.T) {
	// Recent mean 1.33 against earlier mean 4.0.
	h := sameDay(
		mood.Terrible, mood.Terrible, mood.Down,
		mood.Good, mood.Good, mood.Good, mood.Good, mood.Good, mood.Good, mood.Good,
	)

	got := Analyze(h)
	if got != downwardTrendResult {
		t.Errorf("Analyze() = %+v, want downward trend", got)
	}
	if got == stableResult {
		t.Error("Analyze() fell back to the stable message")
	}
}

func TestAnalyze_TrendBeatsTrigger(t *testing.T) {
	h := sameDay(
		mood.Terrible, mood.Terrible, mood.Down,
		mood.Good, mood.Good, mood.Good, mood.Good, mood.Good, mood.Good, mood.Good,
	)
	h[0].Notes = "stressed about work"

	if got := Analyze(h); got != downwardTrendResult {
		t.Errorf("Analyze() = %+v, want downward trend over trigger", got)
	}
}

func TestAnalyze_UpwardTrend(t *testing.T) {
	h := sameDay(
		mood.Amazing, mood.Amazing, mood.Good,
		mood.Okay, mood.Okay, mood.Okay, mood.Okay, mood.Okay, mood.Okay, mood.Okay,
	)

	if got := Analyze(h); got != upwardTrendResult {
		t.Errorf("Analyze() = %+v, want upward trend", got)
	}
}

func TestAnalyze_EarlierWindowCappedAtSeven(t *testing.T) {
	// The eleventh record onwards must not count towards the earlier mean.
	h := sameDay(
		mood.Okay, mood.Okay, mood.Okay,
		mood.Okay, mood.Okay, mood.Okay, mood.Okay, mood.Okay, mood.Okay, mood.Okay,
		mood.Amazing, mood.Amazing, mood.Amazing, mood.Amazing, mood.Amazing,
	)

	if _, ok := recentTrend(h); ok {
		t.Error("recentTrend() reported a trend from records outside the window")
	}
}

func TestRecentTrend_BoundaryIsStrict(t *testing.T) {
	// Recent mean 3.0, earlier mean 3.5: diff is exactly -0.5.
	down := sameDay(mood.Okay, mood.Okay, mood.Okay, mood.Good, mood.Good, mood.Okay, mood.Okay)
	if r, ok := recentTrend(down); ok {
		t.Errorf("recentTrend() at diff -0.5 = %+v, want no trend", r)
	}
	if got := Analyze(down); got == downwardTrendResult {
		t.Error("Analyze() at diff -0.5 selected the downward alert")
	}

	// Recent mean 3.5 is impossible with three records; use 4.0 vs 3.5.
	up := sameDay(mood.Good, mood.Good, mood.Good, mood.Good, mood.Good, mood.Okay, mood.Okay)
	if r, ok := recentTrend(up); ok {
		t.Errorf("recentTrend() at diff +0.5 = %+v, want no trend", r)
	}
}

func TestRecentTrend_SkippedWithFewEarlierRecords(t *testing.T) {
	// Only two earlier records: the trend is skipped however low recent is.
	h := sameDay(mood.Terrible, mood.Terrible, mood.Terrible, mood.Amazing, mood.Amazing)
	if _, ok := recentTrend(h); ok {
		t.Error("recentTrend() ran with fewer than 3 earlier records")
	}
	if got := Analyze(h); got == downwardTrendResult {
		t.Error("Analyze() selected the downward alert without enough earlier records")
	}
}

func TestAnalyze_TriggerResponsibilities(t *testing.T) {
	// Recent mean 3.0, earlier mean 3.33: no trend.
	h := sameDay(mood.Down, mood.Good, mood.Okay, mood.Okay, mood.Okay, mood.Good)
	h[0].Notes = "Stressed about work"

	got := Analyze(h)
	if got != responsibilityTriggerResult {
		t.Errorf("Analyze() = %+v, want responsibilities trigger", got)
	}
	if got == relationshipTriggerResult || got == fatigueTriggerResult {
		t.Error("Analyze() chose the wrong trigger family")
	}
}

func TestLowMoodTrigger_FamilyOrder(t *testing.T) {
	h := sameDay(mood.Down, mood.Okay, mood.Okay)
	h[0].Notes = "too tired to see my friend after school"

	got, ok := lowMoodTrigger(h)
	if !ok {
		t.Fatal("lowMoodTrigger() found nothing")
	}
	if got != responsibilityTriggerResult {
		t.Errorf("lowMoodTrigger() = %+v, want responsibilities (first family)", got)
	}
}

func TestLowMoodTrigger_WorstEntryWins(t *testing.T) {
	h := sameDay(mood.Down, mood.Okay, mood.Terrible)
	h[0].Notes = "fight with my partner"
	h[2].Notes = "could not sleep"

	got, ok := lowMoodTrigger(h)
	if !ok {
		t.Fatal("lowMoodTrigger() found nothing")
	}
	if got != fatigueTriggerResult {
		t.Errorf("lowMoodTrigger() = %+v, want fatigue from the Terrible entry", got)
	}
	if h[0].Mood != mood.Down || h[2].Mood != mood.Terrible {
		t.Error("lowMoodTrigger() reordered the input history")
	}
}

func TestLowMoodTrigger_TiesKeepNewestFirst(t *testing.T) {
	h := sameDay(mood.Down, mood.Down, mood.Okay)
	h[0].Notes = "hung out with a friend, still sad"
	h[1].Notes = "work deadline"

	got, _ := lowMoodTrigger(h)
	if got != relationshipTriggerResult {
		t.Errorf("lowMoodTrigger() = %+v, want relationships from the newest tied entry", got)
	}
}

func TestLowMoodTrigger_FallsThrough(t *testing.T) {
	worstUnmatched := sameDay(mood.Terrible, mood.Down, mood.Okay)
	worstUnmatched[0].Notes = "rainy day"
	worstUnmatched[1].Notes = "work"

	cases := map[string]mood.History{
		"no notes":        sameDay(mood.Terrible, mood.Down, mood.Okay),
		"blank notes":     withNotes(sameDay(mood.Terrible, mood.Okay, mood.Okay), 0, "   "),
		"no keyword":      withNotes(sameDay(mood.Terrible, mood.Okay, mood.Okay), 0, "rainy day"),
		"notes on high":   withNotes(sameDay(mood.Good, mood.Okay, mood.Okay), 0, "work"),
		"worst unmatched": worstUnmatched,
	}
	for name, h := range cases {
		if r, ok := lowMoodTrigger(h); ok {
			t.Errorf("%s: lowMoodTrigger() = %+v, want fall through", name, r)
		}
	}
}

func TestAnalyze_WeekdaysThrive(t *testing.T) {
	// Tue, Mon, Sun, Sat, Fri, Thu: both windows average 3.67.
	tuesday := monday.AddDate(0, 0, 1)
	h := historyOf(tuesday, mood.Good, mood.Good, mood.Okay, mood.Okay, mood.Good, mood.Good)

	got := Analyze(h)
	if got != weekdayThrivingResult {
		t.Errorf("Analyze() = %+v, want weekday thriving", got)
	}
}

func TestAnalyze_WeekendsThrive(t *testing.T) {
	tuesday := monday.AddDate(0, 0, 1)
	h := historyOf(tuesday, mood.Okay, mood.Okay, mood.Good, mood.Good, mood.Okay, mood.Okay)

	if got := Analyze(h); got != weekendThrivingResult {
		t.Errorf("Analyze() = %+v, want weekend thriving", got)
	}
}

func TestAnalyze_StableDefault(t *testing.T) {
	h := historyOf(monday, repeat(mood.Okay, 8)...)

	if got := Analyze(h); got != stableResult {
		t.Errorf("Analyze() = %+v, want stable default", got)
	}
}

func TestWeeklyStructure_EmptyBucketCountsAsZero(t *testing.T) {
	// Every record on a Monday: the weekend mean is 0.
	h := sameDay(mood.Okay, mood.Okay, mood.Okay)
	if got := Analyze(h); got != weekdayThrivingResult {
		t.Errorf("Analyze() = %+v, want weekday thriving", got)
	}
}

func TestAnalyze_Idempotent(t *testing.T) {
	h := sameDay(mood.Down, mood.Good, mood.Okay, mood.Okay, mood.Okay, mood.Good)
	h[0].Notes = "stressed about work"
	before := append(mood.History(nil), h...)

	first, err := json.Marshal(Analyze(h))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	second, err := json.Marshal(Analyze(h))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if string(first) != string(second) {
		t.Errorf("results differ:\n%s\n%s", first, second)
	}
	if !reflect.DeepEqual(before, h) {
		t.Error("Analyze() mutated its input")
	}
}

func TestAnalyze_HeuristicOmitsGenerativeFields(t *testing.T) {
	h := historyOf(monday, repeat(mood.Okay, 8)...)
	b, err := json.Marshal(Analyze(h))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(b, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := fields["actionLink"]; ok {
		t.Error("heuristic result carries actionLink")
	}
	if _, ok := fields["resourceHighlightTag"]; ok {
		t.Error("heuristic result carries resourceHighlightTag")
	}
	if fields["hasData"] != true {
		t.Errorf("hasData = %v, want true", fields["hasData"])
	}
}

func repeat(m mood.Category, n int) []mood.Category {
	out := make([]mood.Category, n)
	for i := range out {
		out[i] = m
	}
	return out
}

func withNotes(h mood.History, i int, notes string) mood.History {
	h[i].Notes = notes
	return h
}
