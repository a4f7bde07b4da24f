package insight

// Result is the insight handed to the presentation layer. When HasData is
// false every other field is empty and omitted from JSON.
type Result struct {
	HasData     bool   `json:"hasData"`
	InsightText string `json:"insightText,omitempty"`
	PatternText string `json:"patternText,omitempty"`

	// Set only by the generative dashboard. An empty value means
	// "no highlighting".
	ActionLink           string `json:"actionLink,omitempty"`
	ResourceHighlightTag string `json:"resourceHighlightTag,omitempty"`
}

// NoData is the result for histories too short to analyse.
func NoData() Result {
	return Result{HasData: false}
}

func textResult(insightText, patternText string) Result {
	return Result{HasData: true, InsightText: insightText, PatternText: patternText}
}

// Internal routes a generated insight may point the user to.
const (
	LinkBreathing  = "/breathing-exercise"
	LinkJournaling = "/resources/journaling"
	LinkSupport    = "/support-circle"
	LinkLogMood    = "/log-mood"
	LinkResources  = "/resources"
)

// Resource categories the dashboard can highlight.
const (
	TagBreathing    = "breathing"
	TagMusic        = "music"
	TagJournaling   = "journaling"
	TagMentalHealth = "mental-health"
	TagResilience   = "resilience"
)

// ActionLinks is the closed set of values allowed in Result.ActionLink.
var ActionLinks = []string{LinkBreathing, LinkJournaling, LinkSupport, LinkLogMood, LinkResources}

// ResourceTags is the closed set of values allowed in Result.ResourceHighlightTag.
var ResourceTags = []string{TagBreathing, TagMusic, TagJournaling, TagMentalHealth, TagResilience}

// IsActionLink reports whether s is one of ActionLinks.
func IsActionLink(s string) bool {
	return contains(ActionLinks, s)
}

// IsResourceTag reports whether s is one of ResourceTags.
func IsResourceTag(s string) bool {
	return contains(ResourceTags, s)
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
