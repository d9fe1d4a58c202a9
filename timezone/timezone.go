// Package timezone implements timezone resolution for calendar times: the
// Timezone handle, expansion of VTIMEZONE rule sets into transition tables,
// UTC-offset lookup with deterministic gap/overlap policy, conversion of
// calendar times between zones, and the builtin-zone registry.
//
// Builtin zones are owned by their Registry for the process lifetime and
// are immutable to callers apart from the lazily populated expansion cache,
// which is guarded internally. User-constructed zones belong to their
// creator and must not be mutated concurrently.
package timezone

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"sync"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
	"github.com/samber/mo"

	"github.com/xfbs/libical/caltime"
	"github.com/xfbs/libical/recurrence"
)

// zoneRule is one STANDARD or DAYLIGHT sub-rule of a VTIMEZONE: the local
// start of its regime, the offsets on either side of the transition, and an
// optional recurrence.
type zoneRule struct {
	daylight   bool
	name       string
	start      caltime.Time // local time under offsetFrom
	offsetFrom int
	offsetTo   int
	rrule      string
	rdates     []caltime.Time
}

// Timezone is a timezone definition. The zero value is not usable; obtain
// instances from New, a Registry, or UTC.
type Timezone struct {
	tzid      string
	location  string
	latitude  float64
	longitude float64
	utc       bool
	builtin   bool

	// nominal offset from the builtin table, used when the zone has no
	// transition rules
	fixedOffset int

	gen    recurrence.Generator
	logger *slog.Logger

	// source of the VTIMEZONE data for builtin handles, resolved on first
	// offset query
	source     fs.FS
	sourceFile string

	mu        sync.Mutex
	component *ical.Component
	rules     []zoneRule
	resolved  bool // rules parsed (or load attempted) from component/source
	changes   []Transition
	endYear   int
}

var _ caltime.Zone = (*Timezone)(nil)

// New creates an empty user-constructed timezone. Until a component is
// attached with SetComponent the zone carries a generated unique TZID, so
// registry identity stays unambiguous.
func New() *Timezone {
	return &Timezone{tzid: uuid.NewString(), gen: recurrence.NewEngine()}
}

// Copy returns a copy of z's definition. The expansion cache is not
// copied; the copy expands on first use.
func (z *Timezone) Copy() *Timezone {
	z.mu.Lock()
	defer z.mu.Unlock()
	c := &Timezone{
		tzid:        z.tzid,
		location:    z.location,
		latitude:    z.latitude,
		longitude:   z.longitude,
		utc:         z.utc,
		builtin:     z.builtin,
		fixedOffset: z.fixedOffset,
		gen:         z.gen,
		logger:      z.logger,
		source:      z.source,
		sourceFile:  z.sourceFile,
		component:   z.component,
		resolved:    z.resolved,
	}
	c.rules = append(c.rules, z.rules...)
	return c
}

// TZID returns the timezone identifier.
func (z *Timezone) TZID() string {
	return z.tzid
}

// Location returns the Olson city name, when known.
func (z *Timezone) Location() mo.Option[string] {
	if z.location == "" {
		return mo.None[string]()
	}
	return mo.Some(z.location)
}

// Latitude returns the latitude of a builtin timezone.
func (z *Timezone) Latitude() float64 { return z.latitude }

// Longitude returns the longitude of a builtin timezone.
func (z *Timezone) Longitude() float64 { return z.longitude }

// IsUTC reports whether z is the UTC timezone.
func (z *Timezone) IsUTC() bool { return z.utc }

// IsBuiltin reports whether z is owned by a registry for the process
// lifetime. Builtin zones must not be mutated by callers.
func (z *Timezone) IsBuiltin() bool { return z.builtin }

// TZNames returns the display names of the most recent STANDARD and
// DAYLIGHT rules. When both exist and differ they are combined like
// "EST/EDT"; a zone whose rules carry no names yields None.
func (z *Timezone) TZNames() mo.Option[string] {
	z.mu.Lock()
	defer z.mu.Unlock()
	if err := z.ensureRulesLocked(); err != nil {
		return mo.None[string]()
	}
	var std, dst string
	var stdStart, dstStart caltime.Time
	for _, r := range z.rules {
		if r.name == "" {
			continue
		}
		if r.daylight {
			if dst == "" || r.start.Compare(dstStart) > 0 {
				dst, dstStart = r.name, r.start
			}
		} else {
			if std == "" || r.start.Compare(stdStart) > 0 {
				std, stdStart = r.name, r.start
			}
		}
	}
	switch {
	case std == "" && dst == "":
		return mo.None[string]()
	case dst == "" || std == dst:
		return mo.Some(std)
	case std == "":
		return mo.Some(dst)
	default:
		return mo.Some(std + "/" + dst)
	}
}

// standardOffset returns the offset in effect outside daylight saving:
// the offset-to of the most recent STANDARD rule, falling back to the
// nominal table offset for zones without rules.
func (z *Timezone) standardOffset() int {
	z.mu.Lock()
	defer z.mu.Unlock()
	if err := z.ensureRulesLocked(); err != nil {
		return z.fixedOffset
	}
	off := z.fixedOffset
	var start caltime.Time
	found := false
	for _, r := range z.rules {
		if r.daylight {
			continue
		}
		if !found || r.start.Compare(start) > 0 {
			off, start, found = r.offsetTo, r.start, true
		}
	}
	return off
}

// Component returns the VTIMEZONE component backing z, loading it from the
// zone source for builtin handles. None for zones without a definition.
func (z *Timezone) Component() mo.Option[*ical.Component] {
	z.mu.Lock()
	defer z.mu.Unlock()
	if err := z.ensureRulesLocked(); err != nil || z.component == nil {
		return mo.None[*ical.Component]()
	}
	return mo.Some(z.component)
}

// SetComponent replaces z's defining VTIMEZONE, initializing the tzid and
// location fields from its properties and invalidating the expansion
// cache. The component must carry a TZID. On error z is left unchanged.
func (z *Timezone) SetComponent(comp *ical.Component) error {
	if comp == nil || comp.Name != ical.CompTimezone {
		return invalidInput("component is not a VTIMEZONE", nil)
	}
	tzid := propValue(comp, ical.PropTimezoneID)
	if tzid == "" {
		return invalidInput("VTIMEZONE without TZID", nil)
	}
	rules, err := parseZoneRules(comp)
	if err != nil {
		return err
	}

	z.mu.Lock()
	defer z.mu.Unlock()
	z.component = comp
	z.rules = rules
	z.resolved = true
	z.changes = nil
	z.endYear = 0
	z.tzid = tzid
	if loc := propValue(comp, "X-LIC-LOCATION"); loc != "" {
		z.location = loc
	} else if z.location == "" {
		z.location = locationFromTZID(tzid)
	}
	return nil
}

// locationFromTZID derives an Olson city name from a prefixed TZID like
// "/example.org/America/New_York": everything after the second slash-
// delimited segment. Unprefixed TZIDs pass through unchanged.
func locationFromTZID(tzid string) string {
	if !strings.HasPrefix(tzid, "/") {
		return tzid
	}
	rest := tzid[1:]
	if i := strings.Index(rest, "/"); i >= 0 {
		return rest[i+1:]
	}
	return rest
}

// ensureRulesLocked parses the zone's rules, loading the VTIMEZONE from
// the zone source first for builtin handles. Callers hold z.mu. A missing
// or malformed source leaves the zone rule-less (fixed offset) rather than
// failing the query; the error is returned once for logging.
func (z *Timezone) ensureRulesLocked() error {
	if z.resolved {
		return nil
	}
	z.resolved = true
	if z.component == nil {
		if z.source == nil {
			return nil
		}
		comp, err := loadVTimezone(z.source, z.sourceFile)
		if err != nil {
			return err
		}
		z.component = comp
	}
	rules, err := parseZoneRules(z.component)
	if err != nil {
		return err
	}
	z.rules = rules
	return nil
}

// loadVTimezone reads an iCalendar file and returns its first VTIMEZONE
// component. Line endings are normalized so zone files may be stored with
// bare newlines.
func loadVTimezone(src fs.FS, name string) (*ical.Component, error) {
	f, err := src.Open(name)
	if err != nil {
		return nil, &Error{Type: ErrNotFound, Message: fmt.Sprintf("zone data %s", name), Err: err}
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, invalidInput(fmt.Sprintf("reading zone data %s", name), err)
	}
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	data = bytes.ReplaceAll(data, []byte("\n"), []byte("\r\n"))

	cal, err := ical.NewDecoder(bytes.NewReader(data)).Decode()
	if err != nil {
		return nil, invalidInput(fmt.Sprintf("parsing zone data %s", name), err)
	}
	for _, child := range cal.Children {
		if child.Name == ical.CompTimezone {
			return child, nil
		}
	}
	return nil, invalidInput(fmt.Sprintf("no VTIMEZONE in %s", name), nil)
}

// parseZoneRules extracts the STANDARD and DAYLIGHT sub-rules of a
// VTIMEZONE component.
func parseZoneRules(comp *ical.Component) ([]zoneRule, error) {
	var rules []zoneRule
	for _, child := range comp.Children {
		if child.Name != ical.CompTimezoneStandard && child.Name != ical.CompTimezoneDaylight {
			continue
		}
		r := zoneRule{
			daylight: child.Name == ical.CompTimezoneDaylight,
			name:     propValue(child, ical.PropTimezoneName),
			rrule:    propValue(child, ical.PropRecurrenceRule),
		}
		var err error
		r.offsetFrom, err = parseUTCOffset(propValue(child, ical.PropTimezoneOffsetFrom))
		if err != nil {
			return nil, invalidInput(child.Name+" TZOFFSETFROM", err)
		}
		r.offsetTo, err = parseUTCOffset(propValue(child, ical.PropTimezoneOffsetTo))
		if err != nil {
			return nil, invalidInput(child.Name+" TZOFFSETTO", err)
		}
		r.start, err = parseDateTime(propValue(child, ical.PropDateTimeStart))
		if err != nil {
			return nil, invalidInput(child.Name+" DTSTART", err)
		}
		for _, p := range child.Props[ical.PropRecurrenceDates] {
			for _, v := range strings.Split(p.Value, ",") {
				rd, err := parseDateTime(strings.TrimSpace(v))
				if err != nil {
					return nil, invalidInput(child.Name+" RDATE", err)
				}
				r.rdates = append(r.rdates, rd)
			}
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func propValue(comp *ical.Component, name string) string {
	if p := comp.Props.Get(name); p != nil {
		return p.Value
	}
	return ""
}

func (z *Timezone) log() *slog.Logger {
	if z.logger != nil {
		return z.logger
	}
	return discardLogger()
}

var discardOnce = sync.OnceValue(func() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
})

func discardLogger() *slog.Logger {
	return discardOnce()
}
