package mood

import (
	"strings"
	"time"
)

// Category is the label a user picks when logging a check-in.
type Category string

const (
	Terrible     Category = "Terrible"
	Down         Category = "Down"
	Okay         Category = "Okay"
	Good         Category = "Good"
	Amazing      Category = "Amazing"
	Mixed        Category = "Mixed"
	JournalEntry Category = "Journal Entry"
)

// NeutralValue is the ordinal assigned to Okay, Mixed, journal entries and
// any label outside the known set.
const NeutralValue = 3

// Categories lists the labels a user can pick on the check-in screen.
// Journal entries are written through the journal flow, not picked.
var Categories = []Category{Terrible, Down, Okay, Good, Amazing, Mixed}

// ValueOf maps a category onto the 1..5 ordinal scale. It is total:
// unrecognised labels map to NeutralValue.
func ValueOf(c Category) int {
	switch c {
	case Terrible:
		return 1
	case Down:
		return 2
	case Okay:
		return 3
	case Good:
		return 4
	case Amazing:
		return 5
	case Mixed, JournalEntry:
		// Mixed and journal entries share the neutral value with Okay.
		return NeutralValue
	default:
		return NeutralValue
	}
}

// ParseCategory matches s against the known labels, case-insensitively.
// "JournalEntry" is accepted as an alias of "Journal Entry".
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "JournalEntry") || strings.EqualFold(s, string(JournalEntry)) {
		return JournalEntry, true
	}
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) {
			return c, true
		}
	}
	return Category(s), false
}

// IsJournal reports whether c marks a free-form journal entry.
func (c Category) IsJournal() bool {
	return c == JournalEntry
}

// Record is one logged check-in.
type Record struct {
	ID        string    `json:"id,omitempty"`
	Mood      Category  `json:"mood"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Value returns the ordinal value of the record's mood.
func (r Record) Value() int {
	return ValueOf(r.Mood)
}

// History is a snapshot of records ordered newest first.
type History []Record

// Qualifying returns a new History without journal entries, preserving order.
func (h History) Qualifying() History {
	out := make(History, 0, len(h))
	for _, r := range h {
		if !r.Mood.IsJournal() {
			out = append(out, r)
		}
	}
	return out
}

// In returns a copy of h with every CreatedAt converted to loc.
func (h History) In(loc *time.Location) History {
	out := make(History, len(h))
	for i, r := range h {
		r.CreatedAt = r.CreatedAt.In(loc)
		out[i] = r
	}
	return out
}

// Mean returns the average ordinal value of h, or 0 for an empty history.
func (h History) Mean() float64 {
	if len(h) == 0 {
		return 0
	}
	sum := 0
	for _, r := range h {
		sum += r.Value()
	}
	return float64(sum) / float64(len(h))
}
