// Package classify tags fused transcript segments as decisions or action
// items and aggregates tagged segments into a meeting report.
package classify

import (
	"strings"

	"github.com/boardstream/minuted/fuse"
)

// Keywords are the marker phrases scanned for in segment text. Matching
// is plain substring containment; board minutes use a narrow, formulaic
// vocabulary for resolutions and assignments, which keeps false positives
// rare without a language model.
type Keywords struct {
	Decision []string
	Action   []string
}

// DefaultKeywords covers the Arabic boardroom phrasing the pipeline was
// built for, plus English equivalents for mixed-language minutes.
func DefaultKeywords() Keywords {
	return Keywords{
		Decision: []string{
			"القرار", "نقرر", "الموافقة", "تقرر",
			"decision", "approved", "resolved",
		},
		Action: []string{
			"مهمة", "نكلف", "يجب على", "تكليف",
			"task", "assigned to", "must",
		},
	}
}

// Tag sets IsDecision and IsActionItem on every segment in place. The two
// flags are independent: a sentence can record a decision and assign the
// follow-up task at once.
func (k Keywords) Tag(segments []fuse.Segment) {
	for i := range segments {
		segments[i].IsDecision = containsAny(segments[i].Text, k.Decision)
		segments[i].IsActionItem = containsAny(segments[i].Text, k.Action)
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
