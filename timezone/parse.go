package timezone

import (
	"fmt"
	"strconv"
	"time"

	"github.com/xfbs/libical/caltime"
)

// parseUTCOffset reads an iCalendar UTC-OFFSET value (±HHMM or ±HHMMSS)
// into signed seconds east of UTC.
func parseUTCOffset(s string) (int, error) {
	if len(s) != 5 && len(s) != 7 {
		return 0, invalidInput(fmt.Sprintf("utc-offset %q", s), nil)
	}
	sign := 1
	switch s[0] {
	case '+':
	case '-':
		sign = -1
	default:
		return 0, invalidInput(fmt.Sprintf("utc-offset %q", s), nil)
	}
	hh, err1 := strconv.Atoi(s[1:3])
	mm, err2 := strconv.Atoi(s[3:5])
	ss := 0
	var err3 error
	if len(s) == 7 {
		ss, err3 = strconv.Atoi(s[5:7])
	}
	if err1 != nil || err2 != nil || err3 != nil || hh > 23 || mm > 59 || ss > 59 {
		return 0, invalidInput(fmt.Sprintf("utc-offset %q", s), nil)
	}
	return sign * (hh*3600 + mm*60 + ss), nil
}

// formatUTCOffset renders signed seconds as ±HHMM, or ±HHMMSS when the
// offset is not a whole minute.
func formatUTCOffset(sec int) string {
	sign := "+"
	if sec < 0 {
		sign = "-"
		sec = -sec
	}
	hh := sec / 3600
	mm := sec / 60 % 60
	ss := sec % 60
	if ss != 0 {
		return fmt.Sprintf("%s%02d%02d%02d", sign, hh, mm, ss)
	}
	return fmt.Sprintf("%s%02d%02d", sign, hh, mm)
}

// parseDateTime reads an iCalendar basic-format DATE-TIME (or DATE) value.
// A trailing Z marks UTC.
func parseDateTime(s string) (caltime.Time, error) {
	var t caltime.Time
	if len(s) > 0 && s[len(s)-1] == 'Z' {
		t.IsUTC = true
		s = s[:len(s)-1]
	}
	switch len(s) {
	case 8:
		t.IsDate = true
		t.IsUTC = false
	case 15:
		if s[8] != 'T' {
			return caltime.Time{}, invalidInput(fmt.Sprintf("date-time %q", s), nil)
		}
	default:
		return caltime.Time{}, invalidInput(fmt.Sprintf("date-time %q", s), nil)
	}
	y, err1 := strconv.Atoi(s[0:4])
	mo, err2 := strconv.Atoi(s[4:6])
	d, err3 := strconv.Atoi(s[6:8])
	if err1 != nil || err2 != nil || err3 != nil {
		return caltime.Time{}, invalidInput(fmt.Sprintf("date-time %q", s), nil)
	}
	t.Year, t.Month, t.Day = y, time.Month(mo), d
	if !t.IsDate {
		h, err1 := strconv.Atoi(s[9:11])
		mi, err2 := strconv.Atoi(s[11:13])
		sec, err3 := strconv.Atoi(s[13:15])
		if err1 != nil || err2 != nil || err3 != nil {
			return caltime.Time{}, invalidInput(fmt.Sprintf("date-time %q", s), nil)
		}
		t.Hour, t.Minute, t.Second = h, mi, sec
	}
	if !t.IsValid() {
		return caltime.Time{}, invalidInput(fmt.Sprintf("date-time %q out of range", s), nil)
	}
	return t, nil
}
