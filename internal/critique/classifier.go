package critique

import (
	"fmt"
	"strings"
)

// The classifier is a small state machine over the six sections plus an
// initial "no section" state. A line whose lowercase form contains any
// keyword of a section switches the machine to that section; the order of
// sectionRules is the dispatch priority and must not be reordered (a line
// mentioning "vulnerability" lands in Critical, not Security, on purpose).
// Every non-blank line is appended to the section selected at that point;
// lines seen before the first keyword hit are dropped.

type section int

const (
	sectionNone section = iota
	sectionCritical
	sectionMajor
	sectionQuality
	sectionPerformance
	sectionSecurity
	sectionRecommendations
)

var sectionRules = []struct {
	target   section
	keywords []string
}{
	{sectionCritical, []string{"critical", "severe", "urgent", "vulnerability"}},
	{sectionMajor, []string{"major", "significant", "important"}},
	{sectionQuality, []string{"quality", "maintainability", "readability", "solid"}},
	{sectionPerformance, []string{"performance", "speed", "efficiency", "optimization"}},
	{sectionSecurity, []string{"security", "vulnerability", "injection", "authentication"}},
	{sectionRecommendations, []string{"recommend", "suggest", "should", "could"}},
}

// Classify buckets reviewer text into a Document. It never fails: any
// internal panic degrades to a fixed parse-failure document.
func Classify(text string) (doc Document) {
	defer func() {
		if r := recover(); r != nil {
			doc = parseFailureDocument(r)
		}
	}()

	current := sectionNone
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		for _, rule := range sectionRules {
			if containsAny(lower, rule.keywords) {
				current = rule.target
				break
			}
		}

		trimmed := strings.TrimSpace(line)
		if current != sectionNone && trimmed != "" {
			doc.append(current, trimmed)
		}
	}

	if doc.Overall == "" {
		doc.Overall = fmt.Sprintf("Code review complete. Severity level: %s. See detailed feedback above.", doc.Severity())
	}
	return doc
}

func (d *Document) append(s section, line string) {
	switch s {
	case sectionCritical:
		d.Critical = append(d.Critical, line)
	case sectionMajor:
		d.Major = append(d.Major, line)
	case sectionQuality:
		d.Quality = append(d.Quality, line)
	case sectionPerformance:
		d.Performance = append(d.Performance, line)
	case sectionSecurity:
		d.Security = append(d.Security, line)
	case sectionRecommendations:
		d.Recommendations = append(d.Recommendations, line)
	}
}

func containsAny(line string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(line, kw) {
			return true
		}
	}
	return false
}

func parseFailureDocument(cause any) Document {
	return Document{
		Critical:        []string{"Error parsing AI response"},
		Major:           []string{fmt.Sprint(cause)},
		Recommendations: []string{"Please try again or check the logs"},
		Overall:         "Review failed due to parsing error",
	}
}
