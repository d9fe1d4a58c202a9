package timezone

import (
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/samber/mo"

	"github.com/xfbs/libical/caltime"
	"github.com/xfbs/libical/recurrence"
)

// DefaultTZIDPrefix marks TZIDs generated from the bundled zone data, per
// the iCalendar convention of globally-unique slash-delimited TZIDs.
const DefaultTZIDPrefix = "/xfbs.org/libical/"

// Registry is a catalog of builtin timezones. The catalog loads lazily on
// first lookup from a zones.tab index; each zone's VTIMEZONE data resolves
// on demand from the same source, so constructing the registry and listing
// zones stays cheap. All methods are safe for concurrent use; catalog and
// prefix mutation serialize behind one mutex.
//
// The zero value is not usable; use NewRegistry. Most programs use the
// package-level functions, which share a process-wide default registry.
type Registry struct {
	mu     sync.Mutex
	logger *slog.Logger
	gen    recurrence.Generator
	source fs.FS
	prefix string
	loaded bool
	zones  []*Timezone
	byLoc  map[string]*Timezone
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger handed to the registry and its zones.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithZoneDirectory reads zone data from a directory instead of the
// bundled data. The directory must contain zones.tab and zoneinfo/.
func WithZoneDirectory(path string) Option {
	return func(r *Registry) { r.source = os.DirFS(path) }
}

// WithZoneSource reads zone data from an arbitrary fs.FS with the same
// layout as the bundled data.
func WithZoneSource(src fs.FS) Option {
	return func(r *Registry) { r.source = src }
}

// WithGenerator sets the recurrence generator used for rule expansion.
func WithGenerator(g recurrence.Generator) Option {
	return func(r *Registry) { r.gen = g }
}

// NewRegistry creates a builtin-timezone registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		source: embeddedZoneData,
		prefix: DefaultTZIDPrefix,
		gen:    recurrence.NewEngine(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// loadLocked populates the catalog from zones.tab. Missing or malformed
// data yields an empty catalog, not a failure: lookups simply find
// nothing. Caller holds r.mu.
func (r *Registry) loadLocked() {
	if r.loaded {
		return
	}
	r.loaded = true
	r.byLoc = make(map[string]*Timezone)

	data, err := fs.ReadFile(r.source, "zones.tab")
	if err != nil {
		r.log().Debug("no builtin zone table", "error", err)
		return
	}
	entries, errs := parseZoneTab(data)
	for _, e := range errs {
		r.log().Debug("skipping zones.tab entry", "error", e)
	}
	for _, e := range entries {
		z := &Timezone{
			tzid:        r.prefix + e.location,
			location:    e.location,
			latitude:    e.latitude,
			longitude:   e.longitude,
			fixedOffset: e.offset,
			builtin:     true,
			source:      r.source,
			sourceFile:  "zoneinfo/" + e.location + ".ics",
			gen:         r.gen,
			logger:      r.logger,
		}
		r.zones = append(r.zones, z)
		r.byLoc[e.location] = z
	}
	r.log().Debug("loaded builtin zone table", "zones", len(r.zones))
}

// Builtins returns the builtin timezones in table order. The zones are
// owned by the registry; callers must not mutate them.
func (r *Registry) Builtins() []*Timezone {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadLocked()
	out := make([]*Timezone, len(r.zones))
	copy(out, r.zones)
	return out
}

// Builtin looks up a builtin timezone by exact Olson city name. "UTC"
// resolves to the UTC singleton.
func (r *Registry) Builtin(location string) mo.Option[*Timezone] {
	if location == "UTC" {
		return mo.Some(UTC())
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadLocked()
	if z, ok := r.byLoc[location]; ok {
		return mo.Some(z)
	}
	return mo.None[*Timezone]()
}

// BuiltinFromTZID looks up a builtin timezone by TZID, stripping the
// registry's TZID prefix when present. A TZID denoting UTC resolves to the
// UTC singleton.
func (r *Registry) BuiltinFromTZID(tzid string) mo.Option[*Timezone] {
	r.mu.Lock()
	prefix := r.prefix
	r.mu.Unlock()

	location := strings.TrimPrefix(tzid, prefix)
	return r.Builtin(location)
}

// BuiltinFromOffset looks up a builtin timezone by UTC offset and display
// name. The offset matches a zone when it is the zone's computed offset at
// the current instant or the zone's standard offset, so -14400/"EDT"
// resolves to America/New_York while daylight time is in effect and
// -18000/"EST" resolves year-round. Offset 0 always resolves to UTC
// regardless of name. Zones sharing an offset are disambiguated by the
// display name and otherwise by table order: the first match wins.
func (r *Registry) BuiltinFromOffset(offset int, tzname string) mo.Option[*Timezone] {
	return r.builtinFromOffsetAt(offset, tzname, caltime.FromUnix(time.Now().Unix()))
}

func (r *Registry) builtinFromOffsetAt(offset int, tzname string, now caltime.Time) mo.Option[*Timezone] {
	if offset == 0 {
		return mo.Some(UTC())
	}
	if tzname == "" {
		return mo.None[*Timezone]()
	}

	r.mu.Lock()
	r.loadLocked()
	zones := make([]*Timezone, len(r.zones))
	copy(zones, r.zones)
	r.mu.Unlock()

	for _, z := range zones {
		if z.UTCOffset(now, false).Seconds != offset && z.standardOffset() != offset {
			continue
		}
		if names, ok := z.TZNames().Get(); ok && nameMatches(names, tzname) {
			return mo.Some(z)
		}
	}
	return mo.None[*Timezone]()
}

// nameMatches accepts either the combined "EST/EDT" form or one of its
// halves.
func nameMatches(names, tzname string) bool {
	if names == tzname {
		return true
	}
	for _, part := range strings.Split(names, "/") {
		if part == tzname {
			return true
		}
	}
	return false
}

// TZIDPrefix returns the prefix used to recognize and generate builtin
// TZIDs.
func (r *Registry) TZIDPrefix() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.prefix
}

// SetTZIDPrefix changes the prefix used for TZIDs derived from builtin
// data. The prefix must begin and end with a slash. It affects subsequent
// lookups and catalog loads only; zone handles already constructed keep
// their TZIDs.
func (r *Registry) SetTZIDPrefix(prefix string) error {
	if len(prefix) < 2 || !strings.HasPrefix(prefix, "/") || !strings.HasSuffix(prefix, "/") {
		return invalidInput("tzid prefix must begin and end with '/'", nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefix = prefix
	return nil
}

// SetZoneDirectory changes where zone data is read from. It takes effect
// on the next catalog load, so call it before first use or follow it with
// ReleaseBuiltins.
func (r *Registry) SetZoneDirectory(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.source = os.DirFS(path)
}

// ReleaseBuiltins drops the catalog and every cached zone definition and
// expansion table. The next lookup reloads from the zone source. Zone
// handles obtained earlier stay valid but are no longer returned by
// lookups.
func (r *Registry) ReleaseBuiltins() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.zones = nil
	r.byLoc = nil
	r.loaded = false
}

func (r *Registry) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return discardLogger()
}

var (
	utcOnce sync.Once
	utcZone *Timezone
)

// UTC returns the process-wide UTC timezone singleton. It is never
// released and every lookup that denotes UTC resolves to it.
func UTC() *Timezone {
	utcOnce.Do(func() {
		utcZone = &Timezone{tzid: "UTC", location: "UTC", utc: true, builtin: true, resolved: true}
	})
	return utcZone
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry backing the package-level
// lookup functions.
func Default() *Registry {
	return defaultRegistry
}

// Builtins returns the builtin timezones of the default registry.
func Builtins() []*Timezone { return defaultRegistry.Builtins() }

// Builtin looks up a builtin timezone of the default registry by Olson
// city name.
func Builtin(location string) mo.Option[*Timezone] { return defaultRegistry.Builtin(location) }

// BuiltinFromTZID looks up a builtin timezone of the default registry by
// TZID.
func BuiltinFromTZID(tzid string) mo.Option[*Timezone] { return defaultRegistry.BuiltinFromTZID(tzid) }

// BuiltinFromOffset looks up a builtin timezone of the default registry by
// offset and display name.
func BuiltinFromOffset(offset int, tzname string) mo.Option[*Timezone] {
	return defaultRegistry.BuiltinFromOffset(offset, tzname)
}

// SetTZIDPrefix changes the TZID prefix of the default registry.
func SetTZIDPrefix(prefix string) error { return defaultRegistry.SetTZIDPrefix(prefix) }

// SetZoneDirectory changes the zone-data directory of the default
// registry.
func SetZoneDirectory(path string) { defaultRegistry.SetZoneDirectory(path) }

// ReleaseBuiltins releases the default registry's builtin zone data.
func ReleaseBuiltins() { defaultRegistry.ReleaseBuiltins() }
