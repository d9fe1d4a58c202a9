package recurrence

import (
	"fmt"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/xfbs/libical/caltime"
)

// maxCandidates caps a single rule's expansion so that a pathological
// RRULE (e.g. FREQ=SECONDLY with a distant horizon) cannot balloon a
// transition table.
const maxCandidates = 5000

// Engine is the rrule-go backed Generator implementation.
type Engine struct{}

// NewEngine creates a new recurrence engine instance.
func NewEngine() *Engine {
	return &Engine{}
}

var _ Generator = (*Engine)(nil)

// Occurrences expands r up to the end of endYear. A rule without an RRULE
// contributes its start once; RDATE instances are merged in. The result is
// sorted and de-duplicated.
func (e *Engine) Occurrences(r Rule, endYear int) ([]caltime.Time, error) {
	horizon := time.Date(endYear+1, time.January, 1, 0, 0, 0, 0, time.UTC)

	var out []time.Time
	if r.RRule == "" {
		start := toStdTime(r.Start)
		if start.Before(horizon) {
			out = append(out, start)
		}
	} else {
		occ, err := e.expandRRule(r.Start, r.RRule, horizon)
		if err != nil {
			return nil, err
		}
		out = append(out, occ...)
	}

	for _, rd := range r.RDates {
		t := toStdTime(rd)
		if t.Before(horizon) {
			out = append(out, t)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })

	result := make([]caltime.Time, 0, len(out))
	for i, t := range out {
		if i > 0 && t.Equal(out[i-1]) {
			continue
		}
		result = append(result, fromStdTime(t))
	}
	return result, nil
}

// expandRRule expands an RRULE from its DTSTART up to the horizon.
func (e *Engine) expandRRule(start caltime.Time, rruleStr string, horizon time.Time) ([]time.Time, error) {
	// Build the full RRULE string for parsing.
	dtstart := toStdTime(start).Format("20060102T150405Z")
	fullRRule := fmt.Sprintf("DTSTART:%s\nRRULE:%s", dtstart, rruleStr)

	ruleSet, err := rrule.StrToRRuleSet(fullRRule)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RRULE %q: %w", rruleStr, err)
	}

	// Between is inclusive of start, exclusive of end.
	occ := ruleSet.Between(toStdTime(start), horizon, true)
	if len(occ) > maxCandidates {
		occ = occ[:maxCandidates]
	}
	return occ, nil
}

// The rule's local wall-clock fields ride through rrule-go as if they were
// UTC; the caller owns the conversion to real UTC instants.

func toStdTime(t caltime.Time) time.Time {
	return time.Date(t.Year, t.Month, t.Day, t.Hour, t.Minute, t.Second, 0, time.UTC)
}

func fromStdTime(t time.Time) caltime.Time {
	return caltime.NewDateTime(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second())
}
