// Package duration implements the iCalendar duration value type (RFC 5545
// section 3.3.6): a signed count of weeks, days, hours, minutes and seconds
// with a canonical text form such as "P15DT5H0M20S" or "-P7W".
//
// The canonical machine representation is the signed total-seconds integer;
// the structured form exists for parsing and display. Two sentinel values are
// defined: the null duration (exactly zero, not an error) and the bad
// duration returned for malformed input, which is distinguishable from null.
package duration

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformed is returned by Parse for input that does not match the
// duration grammar.
var ErrMalformed = errors.New("malformed duration")

const (
	secondsPerMinute = 60
	secondsPerHour   = 60 * secondsPerMinute
	secondsPerDay    = 24 * secondsPerHour
	secondsPerWeek   = 7 * secondsPerDay
)

// Duration is a signed calendar duration. The zero value is the null
// duration. Fields hold non-negative magnitudes; the sign is carried
// separately so that -PT5M and PT5M share the same component values.
type Duration struct {
	neg     bool
	weeks   int
	days    int
	hours   int
	minutes int
	seconds int
	bad     bool
}

// Null returns the null (zero) duration.
func Null() Duration {
	return Duration{}
}

// Bad returns the bad-duration sentinel used to signal malformed input.
func Bad() Duration {
	return Duration{bad: true}
}

// IsNull reports whether d is exactly zero and not the bad sentinel.
func (d Duration) IsNull() bool {
	return !d.bad && d.Seconds() == 0
}

// IsBad reports whether d is the bad-duration sentinel.
func (d Duration) IsBad() bool {
	return d.bad
}

// Negative reports whether d is a negative duration.
func (d Duration) Negative() bool {
	return d.neg
}

// Weeks returns the weeks component of d.
func (d Duration) Weeks() int { return d.weeks }

// Days returns the days component of d.
func (d Duration) Days() int { return d.days }

// Hours returns the hours component of d.
func (d Duration) Hours() int { return d.hours }

// Minutes returns the minutes component of d.
func (d Duration) Minutes() int { return d.minutes }

// SecondsPart returns the seconds component of d, as opposed to Seconds
// which returns the signed total.
func (d Duration) SecondsPart() int { return d.seconds }

// FromSeconds decomposes a signed total-seconds count into a Duration.
//
// The magnitude is expressed in weeks only when it is an exact multiple of a
// week; otherwise it is decomposed into days, hours, minutes and seconds
// with no weeks component. This keeps String round-trippable: weeks are
// never mixed with smaller units.
func FromSeconds(total int64) Duration {
	var d Duration
	if total < 0 {
		d.neg = true
		total = -total
	}
	if total%secondsPerWeek == 0 {
		d.weeks = int(total / secondsPerWeek)
		return d
	}
	d.days = int(total / secondsPerDay)
	total %= secondsPerDay
	d.hours = int(total / secondsPerHour)
	total %= secondsPerHour
	d.minutes = int(total / secondsPerMinute)
	d.seconds = int(total % secondsPerMinute)
	return d
}

// Seconds returns the signed total number of seconds in d. The bad sentinel
// reports zero; check IsBad before relying on the value.
func (d Duration) Seconds() int64 {
	total := int64(d.weeks)*secondsPerWeek +
		int64(d.days)*secondsPerDay +
		int64(d.hours)*secondsPerHour +
		int64(d.minutes)*secondsPerMinute +
		int64(d.seconds)
	if d.neg {
		return -total
	}
	return total
}

// Parse reads a duration in the RFC 5545 text form
// [+|-]P(nW | [nD][T[nH][nM][nS]]). At least one component must be present,
// weeks may not be combined with other units, and the time components must
// follow a T in H, M, S order. Malformed input yields the bad-duration
// sentinel and an error wrapping ErrMalformed.
func Parse(s string) (Duration, error) {
	orig := s
	var d Duration

	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		d.neg = s[0] == '-'
		s = s[1:]
	}
	if len(s) == 0 || s[0] != 'P' {
		return Bad(), fmt.Errorf("%w: %q", ErrMalformed, orig)
	}
	s = s[1:]

	var (
		inTime   bool
		seen     int
		timeSeen int
		// designators must appear in this order
		order    = "WDHMS"
		minOrder = -1
	)
	for len(s) > 0 {
		if s[0] == 'T' {
			if inTime {
				return Bad(), fmt.Errorf("%w: %q", ErrMalformed, orig)
			}
			inTime = true
			s = s[1:]
			continue
		}
		i := 0
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i == 0 || i == len(s) {
			return Bad(), fmt.Errorf("%w: %q", ErrMalformed, orig)
		}
		n, err := strconv.Atoi(s[:i])
		if err != nil {
			// out of range for int
			return Bad(), fmt.Errorf("%w: %q", ErrMalformed, orig)
		}
		desig := s[i]
		s = s[i+1:]

		pos := strings.IndexByte(order, desig)
		if pos < 0 || pos <= minOrder {
			return Bad(), fmt.Errorf("%w: %q", ErrMalformed, orig)
		}
		minOrder = pos

		switch desig {
		case 'W':
			d.weeks = n
		case 'D':
			if inTime {
				return Bad(), fmt.Errorf("%w: %q", ErrMalformed, orig)
			}
			d.days = n
		case 'H', 'M', 'S':
			if !inTime {
				return Bad(), fmt.Errorf("%w: %q", ErrMalformed, orig)
			}
			switch desig {
			case 'H':
				d.hours = n
			case 'M':
				d.minutes = n
			case 'S':
				d.seconds = n
			}
			timeSeen++
		}
		seen++
	}

	if seen == 0 || (inTime && timeSeen == 0) {
		return Bad(), fmt.Errorf("%w: %q", ErrMalformed, orig)
	}
	if d.weeks > 0 && seen > 1 {
		return Bad(), fmt.Errorf("%w: weeks mixed with other units in %q", ErrMalformed, orig)
	}
	return d, nil
}

// String renders d in canonical RFC 5545 form. Zero-valued components are
// omitted, except that the null duration renders as "PT0S". The bad
// sentinel renders as an empty string.
func (d Duration) String() string {
	if d.bad {
		return ""
	}
	var b strings.Builder
	if d.neg {
		b.WriteByte('-')
	}
	b.WriteByte('P')
	if d.weeks > 0 {
		fmt.Fprintf(&b, "%dW", d.weeks)
		return b.String()
	}
	if d.days > 0 {
		fmt.Fprintf(&b, "%dD", d.days)
	}
	if d.hours > 0 || d.minutes > 0 || d.seconds > 0 {
		b.WriteByte('T')
		if d.hours > 0 {
			fmt.Fprintf(&b, "%dH", d.hours)
		}
		if d.minutes > 0 {
			fmt.Fprintf(&b, "%dM", d.minutes)
		}
		if d.seconds > 0 {
			fmt.Fprintf(&b, "%dS", d.seconds)
		}
	} else if d.days == 0 {
		b.WriteString("T0S")
	}
	return b.String()
}
