// Package caltime implements the calendar date-time value used throughout
// the library: broken-down civil fields plus markers for date-only values,
// UTC times and zone references. A value with no zone reference and the UTC
// flag unset is "floating" and is never offset-converted.
//
// All arithmetic is proleptic-Gregorian and deliberately independent of
// time.Location: zone resolution is the job of the timezone package, which
// consumes these values, so depending on the platform zone database here
// would be circular.
package caltime

import (
	"fmt"
	"time"
)

// Zone is the opaque handle through which a Time refers to its timezone.
// It is implemented by *timezone.Timezone. A Time borrows its Zone; it
// never manages the zone's lifetime.
type Zone interface {
	// TZID returns the timezone identifier.
	TZID() string
	// UTCOffset resolves the UTC offset at t. When timeIsLocal is true, t
	// is interpreted as wall-clock time in the zone; otherwise as UTC.
	UTCOffset(t Time, timeIsLocal bool) Offset
}

// Offset is the result of an offset query: seconds east of UTC plus an
// informational daylight-saving flag.
type Offset struct {
	Seconds  int
	Daylight bool
}

// Time is a broken-down civil date-time. The zero value is the null time.
type Time struct {
	Year   int
	Month  time.Month
	Day    int
	Hour   int
	Minute int
	Second int

	// IsDate marks a date-only value. It carries no time of day and is
	// never zone-converted.
	IsDate bool
	// IsUTC marks the value as UTC. Mutually exclusive with a Zone
	// reference.
	IsUTC bool
	// Zone is the borrowed zone reference, nil for floating and UTC
	// values.
	Zone Zone
}

// NewDate returns a date-only value.
func NewDate(year int, month time.Month, day int) Time {
	return Time{Year: year, Month: month, Day: day, IsDate: true}
}

// NewDateTime returns a floating date-time.
func NewDateTime(year int, month time.Month, day, hour, minute, second int) Time {
	return Time{Year: year, Month: month, Day: day, Hour: hour, Minute: minute, Second: second}
}

// NewUTC returns a date-time carrying the UTC marker.
func NewUTC(year int, month time.Month, day, hour, minute, second int) Time {
	t := NewDateTime(year, month, day, hour, minute, second)
	t.IsUTC = true
	return t
}

// FromUnix converts seconds since the Unix epoch to a UTC Time.
func FromUnix(sec int64) Time {
	days := floorDiv(sec, secondsPerDay)
	rem := sec - days*secondsPerDay
	y, m, d := civilFromDays(days)
	t := NewUTC(y, m, d, int(rem/3600), int(rem/60%60), int(rem%60))
	return t
}

// Unix returns the epoch seconds of t's civil fields, interpreting them as
// UTC regardless of any zone reference. For zone-aware instants use the
// timezone package, which applies the offset first.
func (t Time) Unix() int64 {
	return daysFromCivil(t.Year, t.Month, t.Day)*secondsPerDay +
		int64(t.Hour)*3600 + int64(t.Minute)*60 + int64(t.Second)
}

// IsZero reports whether t is the null time.
func (t Time) IsZero() bool {
	return t == Time{}
}

// IsFloating reports whether t has neither a zone reference nor the UTC
// marker.
func (t Time) IsFloating() bool {
	return t.Zone == nil && !t.IsUTC
}

// IsValid reports whether t's fields denote a representable civil time:
// year in [0, 9999], a real day of the real month, and in-range time
// fields.
func (t Time) IsValid() bool {
	if t.Year < 0 || t.Year > 9999 {
		return false
	}
	if t.Month < time.January || t.Month > time.December {
		return false
	}
	if t.Day < 1 || t.Day > daysInMonth(t.Year, t.Month) {
		return false
	}
	if t.IsDate {
		return t.Hour == 0 && t.Minute == 0 && t.Second == 0
	}
	return t.Hour >= 0 && t.Hour < 24 &&
		t.Minute >= 0 && t.Minute < 60 &&
		t.Second >= 0 && t.Second < 60
}

// Compare orders two values by their civil fields: -1 if t is earlier than
// u, 0 if equal, +1 if later. Zone references are not consulted.
func (t Time) Compare(u Time) int {
	a, b := t.Unix(), u.Unix()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// String renders t in iCalendar basic format: YYYYMMDD for dates,
// YYYYMMDDTHHMMSS for date-times, with a trailing Z when UTC.
func (t Time) String() string {
	if t.IsDate {
		return fmt.Sprintf("%04d%02d%02d", t.Year, t.Month, t.Day)
	}
	s := fmt.Sprintf("%04d%02d%02dT%02d%02d%02d",
		t.Year, t.Month, t.Day, t.Hour, t.Minute, t.Second)
	if t.IsUTC {
		s += "Z"
	}
	return s
}
