package timezone

import (
	"bufio"
	"bytes"
	"embed"
	"fmt"
	"strings"
)

// The library bundles a small Olson-derived data set: a zones.tab index
// plus one VTIMEZONE file per listed city under zoneinfo/. A zone
// directory configured on the registry takes precedence and must follow
// the same layout.
//
//go:embed zones.tab zoneinfo
var embeddedZoneData embed.FS

// zoneTabEntry is one line of zones.tab: coordinates, the nominal standard
// UTC offset, and the Olson city name.
type zoneTabEntry struct {
	latitude  float64
	longitude float64
	offset    int
	location  string
}

// parseZoneTab reads a zones.tab index. Lines are
// "latitude longitude offset location" with ISO 6709 ±DDMMSS/±DDDMMSS
// coordinates and a ±HHMM offset; # starts a comment. Malformed lines are
// reported so the registry can skip them.
func parseZoneTab(data []byte) ([]zoneTabEntry, []error) {
	var (
		entries []zoneTabEntry
		errs    []error
	)
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 4 {
			errs = append(errs, invalidInput(fmt.Sprintf("zones.tab line %q", line), nil))
			continue
		}
		lat, err1 := parseCoordinate(fields[0])
		lon, err2 := parseCoordinate(fields[1])
		off, err3 := parseUTCOffset(fields[2])
		if err1 != nil || err2 != nil || err3 != nil {
			errs = append(errs, invalidInput(fmt.Sprintf("zones.tab line %q", line), nil))
			continue
		}
		entries = append(entries, zoneTabEntry{
			latitude:  lat,
			longitude: lon,
			offset:    off,
			location:  fields[3],
		})
	}
	return entries, errs
}

// parseCoordinate converts an ISO 6709 ±DDMMSS or ±DDDMMSS angle to
// decimal degrees.
func parseCoordinate(s string) (float64, error) {
	if len(s) != 7 && len(s) != 8 {
		return 0, invalidInput(fmt.Sprintf("coordinate %q", s), nil)
	}
	sign := 1.0
	switch s[0] {
	case '+':
	case '-':
		sign = -1.0
	default:
		return 0, invalidInput(fmt.Sprintf("coordinate %q", s), nil)
	}
	digits := s[1:]
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, invalidInput(fmt.Sprintf("coordinate %q", s), nil)
		}
	}
	degDigits := len(digits) - 4
	deg, min, sec := 0, 0, 0
	for _, c := range digits[:degDigits] {
		deg = deg*10 + int(c-'0')
	}
	min = int(digits[degDigits]-'0')*10 + int(digits[degDigits+1]-'0')
	sec = int(digits[degDigits+2]-'0')*10 + int(digits[degDigits+3]-'0')
	return sign * (float64(deg) + float64(min)/60 + float64(sec)/3600), nil
}
