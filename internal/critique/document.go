// Package critique turns free-form reviewer text into the fixed
// six-section critique document and renders it.
package critique

import (
	"fmt"
	"strings"
)

// Document is the canonical review output. Each bucket is either empty
// (nothing matched) or an ordered list of lines; Overall is always set by
// the time a document is rendered.
type Document struct {
	Critical        []string
	Major           []string
	Quality         []string
	Performance     []string
	Security        []string
	Recommendations []string
	Overall         string
}

// Severity derives the summary label from the populated buckets.
func (d Document) Severity() string {
	switch {
	case len(d.Critical) > 0:
		return "high"
	case len(d.Major) > 0:
		return "medium"
	default:
		return "low"
	}
}

const renderFormat = `
🔍 STATLER'S REVIEW
==================

## Critical Issues 🚨
%s

## Major Concerns ⚠️
%s

## Code Quality Issues 📝
%s

## Performance Considerations 🚀
%s

## Security Review 🔒
%s

## Recommendations 💡
%s

## Overall Assessment
%s

---
*"That's the worst code I've seen today... but at least you didn't try to add a blockchain to it."* - Statler
`

// Render produces the final critique text. Empty buckets fall back to the
// architect's stock remarks so the shape never changes.
func (d Document) Render() string {
	overall := d.Overall
	if overall == "" {
		overall = "Needs work, but salvageable - just don't make it worse by over-complicating it"
	}
	return fmt.Sprintf(renderFormat,
		bullets(d.Critical, "No critical issues found (surprisingly!)"),
		bullets(d.Major, "Some concerns, but nothing catastrophic"),
		bullets(d.Quality, "Could be cleaner, but I have seen worse"),
		bullets(d.Performance, "Performance seems acceptable"),
		bullets(d.Security, "No glaring security holes detected"),
		bullets(d.Recommendations, "Keep it simple and focused on the requirements"),
		overall,
	)
}

func bullets(lines []string, fallback string) string {
	if len(lines) == 0 {
		return fallback
	}
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("• ")
		b.WriteString(line)
	}
	return b.String()
}
