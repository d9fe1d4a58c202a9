// Package recurrence exposes recurrence expansion as a capability consumed
// by the timezone expander: given a rule description and an end-year bound,
// a Generator produces the finite, sorted sequence of candidate local start
// times. The iCalendar recurrence algorithm itself is delegated to
// rrule-go; this package only adapts it to calendar time values.
package recurrence

import (
	"github.com/xfbs/libical/caltime"
)

// Rule describes one recurring (or one-shot) start time: a DTSTART in
// local time, an optional RRULE in iCalendar text form, and optional
// explicit RDATE instances.
type Rule struct {
	Start  caltime.Time
	RRule  string
	RDates []caltime.Time
}

// Generator enumerates the candidate occurrences of a rule. Results are
// sorted ascending, bounded by the end of endYear, and deterministic:
// calling Occurrences again with the same inputs yields the same sequence.
type Generator interface {
	Occurrences(r Rule, endYear int) ([]caltime.Time, error)
}
