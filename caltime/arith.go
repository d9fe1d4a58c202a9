package caltime

import "github.com/xfbs/libical/duration"

// Add returns t advanced by d, carrying across minute, hour, day, month and
// year boundaries of the proleptic-Gregorian calendar, variable month
// lengths and leap years included. The zone reference and markers of t are
// preserved; no offset resolution happens here, the duration applies to the
// civil fields as written.
//
// A date-only value advances at day granularity: d's sub-day remainder is
// folded into whole days and the remainder truncated. The bad-duration
// sentinel leaves t unchanged.
func Add(t Time, d duration.Duration) Time {
	if d.IsBad() {
		return t
	}
	if t.IsDate {
		days := d.Seconds() / secondsPerDay
		y, m, dd := civilFromDays(daysFromCivil(t.Year, t.Month, t.Day) + days)
		t.Year, t.Month, t.Day = y, m, dd
		return t
	}
	sec := t.Unix() + d.Seconds()
	days := floorDiv(sec, secondsPerDay)
	rem := sec - days*secondsPerDay
	t.Year, t.Month, t.Day = civilFromDays(days)
	t.Hour = int(rem / 3600)
	t.Minute = int(rem / 60 % 60)
	t.Second = int(rem % 60)
	return t
}

// Sub returns the signed duration from t2 to t1, so that Add(t2, Sub(t1,
// t2)) reproduces t1 when both share the same zone or floating status.
// When the two values carry different zone references each side is first
// normalized to its UTC instant. The bad-duration sentinel is returned only
// for values outside the representable range, never silently.
func Sub(t1, t2 Time) duration.Duration {
	if !t1.IsValid() || !t2.IsValid() {
		return duration.Bad()
	}
	if t1.Zone == t2.Zone {
		return duration.FromSeconds(t1.Unix() - t2.Unix())
	}
	return duration.FromSeconds(utcInstant(t1) - utcInstant(t2))
}

// utcInstant resolves t's civil fields to epoch seconds in UTC, applying
// the zone offset for zoned values. Floating and UTC values convert
// directly.
func utcInstant(t Time) int64 {
	if t.Zone == nil {
		return t.Unix()
	}
	return t.Unix() - int64(t.Zone.UTCOffset(t, true).Seconds)
}
