package classify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/boardstream/minuted/fuse"
)

// Placeholder bodies for report sections with no tagged segments. A report
// is generated for every processed meeting, even an uneventful one.
const (
	NoDecisions   = "no decisions recorded"
	NoActionItems = "no action items recorded"
)

// Report is the aggregated outcome of one meeting. Decisions and
// ActionItems are newline-separated "Speaker: text" lines in time order.
type Report struct {
	Summary     string
	Decisions   string
	ActionItems string
}

type speakerStat struct {
	name       string
	utterances int
	seconds    float64
}

// BuildReport aggregates tagged segments into a report. Segments are
// expected in time order; the speaker statistics in the summary follow
// order of first appearance.
func BuildReport(segments []fuse.Segment) Report {
	ordered := make([]fuse.Segment, len(segments))
	copy(ordered, segments)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Start < ordered[j].Start })

	var (
		stats     []*speakerStat
		statIndex = make(map[string]*speakerStat)
		decisions []string
		actions   []string
	)
	for _, seg := range ordered {
		st, ok := statIndex[seg.Speaker.Name]
		if !ok {
			st = &speakerStat{name: seg.Speaker.Name}
			statIndex[seg.Speaker.Name] = st
			stats = append(stats, st)
		}
		st.utterances++
		st.seconds += seg.End - seg.Start

		line := fmt.Sprintf("%s: %s", seg.Speaker.Name, seg.Text)
		if seg.IsDecision {
			decisions = append(decisions, line)
		}
		if seg.IsActionItem {
			actions = append(actions, line)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Meeting with %d speaker(s) across %d segment(s).", len(stats), len(ordered))
	for _, st := range stats {
		fmt.Fprintf(&b, "\n%s: %d utterance(s), %.1f min", st.name, st.utterances, st.seconds/60)
	}

	return Report{
		Summary:     b.String(),
		Decisions:   joinOrPlaceholder(decisions, NoDecisions),
		ActionItems: joinOrPlaceholder(actions, NoActionItems),
	}
}

func joinOrPlaceholder(lines []string, placeholder string) string {
	if len(lines) == 0 {
		return placeholder
	}
	return strings.Join(lines, "\n")
}
