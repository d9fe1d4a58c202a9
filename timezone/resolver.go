package timezone

import (
	"sort"

	"github.com/xfbs/libical/caltime"
)

// lookaheadYears is how far past the queried year the transition table is
// expanded, so that conversions landing shortly after the query year are
// already covered.
const lookaheadYears = 2

// UTCOffset resolves the zone's UTC offset at t: the signed seconds to add
// to UTC to obtain local time, plus the informational daylight flag. When
// timeIsLocal is true t is interpreted as wall-clock time in z, otherwise
// as UTC.
//
// Local instants inside a spring-forward gap resolve to the offset after
// the gap; instants inside a fall-back overlap resolve to the earlier
// occurrence's offset. Both follow from the single bracketing rule below:
// a transition takes effect at the wall-clock instant its previous offset
// assigns to it.
//
// A zone with no transition rules reports its fixed nominal offset, which
// is 0 for UTC and degenerate zones.
func (z *Timezone) UTCOffset(t caltime.Time, timeIsLocal bool) caltime.Offset {
	if z == nil || z.utc {
		return caltime.Offset{}
	}

	z.mu.Lock()
	changes, err := z.transitionsLocked(t.Year + lookaheadYears)
	z.mu.Unlock()
	if err != nil {
		z.log().Debug("offset query falling back to fixed offset", "tzid", z.tzid, "error", err)
		return caltime.Offset{Seconds: z.fixedOffset}
	}
	if len(changes) == 0 {
		return caltime.Offset{Seconds: z.fixedOffset}
	}

	sec := t.Unix()
	idx := sort.Search(len(changes), func(i int) bool {
		at := changes[i].UTC.Unix()
		if timeIsLocal {
			at += int64(changes[i].OffsetBefore)
		}
		return at > sec
	}) - 1

	if idx < 0 {
		return caltime.Offset{Seconds: changes[0].OffsetBefore}
	}
	return caltime.Offset{Seconds: changes[idx].OffsetAfter, Daylight: changes[idx].Daylight}
}
