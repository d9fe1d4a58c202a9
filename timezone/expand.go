package timezone

import (
	"sort"

	"github.com/xfbs/libical/caltime"
	"github.com/xfbs/libical/duration"
	"github.com/xfbs/libical/recurrence"
)

// Transition is one UTC-offset change of a timezone.
type Transition struct {
	// UTC is the instant of the change, in UTC.
	UTC caltime.Time
	// OffsetBefore and OffsetAfter are signed seconds east of UTC on
	// either side of the change.
	OffsetBefore int
	OffsetAfter  int
	// Daylight reports whether the regime entered at this change is
	// daylight-saving time.
	Daylight bool
	// Name is the TZNAME of the rule that produced the change.
	Name string
}

// Transitions returns the zone's offset changes up to the end of endYear,
// sorted by UTC instant, expanding the rule set on first use. The returned
// slice is shared with the cache and must not be modified.
func (z *Timezone) Transitions(endYear int) ([]Transition, error) {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.transitionsLocked(endYear)
}

func (z *Timezone) transitionsLocked(endYear int) ([]Transition, error) {
	if err := z.ensureRulesLocked(); err != nil {
		return nil, err
	}
	if z.changes != nil && endYear <= z.endYear {
		return z.changes, nil
	}
	// Re-expand from scratch rather than appending: rule interactions near
	// the old horizon can reorder transitions there.
	changes, err := expandRules(z.rules, endYear, z.generator())
	if err != nil {
		return nil, err
	}
	z.changes = changes
	z.endYear = endYear
	z.log().Debug("expanded timezone", "tzid", z.tzid, "end_year", endYear, "transitions", len(changes))
	return changes, nil
}

func (z *Timezone) generator() recurrence.Generator {
	if z.gen == nil {
		z.gen = recurrence.NewEngine()
	}
	return z.gen
}

// expandRules turns a VTIMEZONE rule set into a merged transition table.
// Each rule's candidate local starts are enumerated up to endYear, shifted
// to UTC under the rule's offset-from, then the per-rule streams are merged
// in UTC order. Records that do not change the effective offset are
// dropped, keeping the table strictly monotone in both instant and offset.
func expandRules(rules []zoneRule, endYear int, gen recurrence.Generator) ([]Transition, error) {
	var all []Transition
	for _, r := range rules {
		occs, err := gen.Occurrences(recurrence.Rule{
			Start:  r.start,
			RRule:  r.rrule,
			RDates: r.rdates,
		}, endYear)
		if err != nil {
			return nil, invalidInput("expanding timezone rule", err)
		}
		for _, local := range occs {
			utc := caltime.Add(local, duration.FromSeconds(-int64(r.offsetFrom)))
			utc.IsUTC = true
			all = append(all, Transition{
				UTC:          utc,
				OffsetBefore: r.offsetFrom,
				OffsetAfter:  r.offsetTo,
				Daylight:     r.daylight,
				Name:         r.name,
			})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].UTC.Compare(all[j].UTC) < 0
	})

	merged := all[:0]
	for _, tr := range all {
		if n := len(merged); n > 0 {
			prev := merged[n-1]
			if tr.OffsetAfter == prev.OffsetAfter {
				continue
			}
			if tr.UTC.Compare(prev.UTC) == 0 {
				// Two rules firing at the same instant: the later-sorted
				// record wins. When it restores the offset in effect
				// before this instant the change cancels out entirely.
				if n > 1 && tr.OffsetAfter == merged[n-2].OffsetAfter {
					merged = merged[:n-1]
				} else {
					merged[n-1] = tr
				}
				continue
			}
		}
		merged = append(merged, tr)
	}
	return merged, nil
}
