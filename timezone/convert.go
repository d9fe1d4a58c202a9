package timezone

import (
	"fmt"
	"io"

	"github.com/xfbs/libical/caltime"
	"github.com/xfbs/libical/duration"
)

// ConvertTime rewrites t's fields to represent the same instant in the to
// zone and re-stamps the zone reference. Converting a value to its own
// zone is the identity, and date-only values are never converted: a date
// has no offset.
func ConvertTime(t caltime.Time, from, to *Timezone) caltime.Time {
	if from == nil || to == nil || from == to || t.IsDate {
		return t
	}

	offFrom := from.UTCOffset(t, true).Seconds
	utc := caltime.Add(t, duration.FromSeconds(-int64(offFrom)))
	offTo := to.UTCOffset(utc, false).Seconds
	out := caltime.Add(utc, duration.FromSeconds(int64(offTo)))

	if to.IsUTC() {
		out.Zone = nil
		out.IsUTC = true
	} else {
		out.Zone = to
		out.IsUTC = false
	}
	return out
}

// DumpChanges writes the zone's transitions up to and including maxYear to
// w, one line per change, for debugging.
func DumpChanges(w io.Writer, z *Timezone, maxYear int) error {
	changes, err := z.Transitions(maxYear)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Transitions for %s up to %d:\n", z.TZID(), maxYear); err != nil {
		return err
	}
	for _, c := range changes {
		if c.UTC.Year > maxYear {
			break
		}
		kind := "standard"
		if c.Daylight {
			kind = "daylight"
		}
		name := c.Name
		if name == "" {
			name = "-"
		}
		_, err := fmt.Fprintf(w, "%s UTC  %s -> %s  %s %s\n",
			c.UTC, formatUTCOffset(c.OffsetBefore), formatUTCOffset(c.OffsetAfter), kind, name)
		if err != nil {
			return err
		}
	}
	return nil
}
