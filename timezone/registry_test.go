package timezone

import (
	"log/slog"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xfbs/libical/caltime"
)

func TestBuiltinsLoadsTable(t *testing.T) {
	r := NewRegistry()

	zones := r.Builtins()
	require.NotEmpty(t, zones)

	// Repeated calls return the same cached handles.
	again := r.Builtins()
	require.Len(t, again, len(zones))
	assert.Same(t, zones[0], again[0])
}

func TestBuiltinByLocation(t *testing.T) {
	r := NewRegistry()

	ny, ok := r.Builtin("America/New_York").Get()
	require.True(t, ok)
	loc, ok := ny.Location().Get()
	require.True(t, ok)
	assert.Equal(t, "America/New_York", loc)
	assert.Equal(t, DefaultTZIDPrefix+"America/New_York", ny.TZID())
	assert.InDelta(t, 40.71, ny.Latitude(), 0.01)
	assert.InDelta(t, -74.0, ny.Longitude(), 0.01)

	assert.False(t, r.Builtin("Atlantis/Lost_City").IsPresent())
}

func TestBuiltinZoneResolvesOffsets(t *testing.T) {
	r := NewRegistry()

	ny, ok := r.Builtin("America/New_York").Get()
	require.True(t, ok)

	got := ny.UTCOffset(caltime.NewUTC(2022, time.January, 15, 12, 0, 0), false)
	assert.Equal(t, caltime.Offset{Seconds: -18000}, got)
	got = ny.UTCOffset(caltime.NewUTC(2022, time.July, 15, 12, 0, 0), false)
	assert.Equal(t, caltime.Offset{Seconds: -14400, Daylight: true}, got)
}

func TestBuiltinWithoutZoneDataUsesNominalOffset(t *testing.T) {
	r := NewRegistry()

	// America/Bogota is listed in zones.tab but ships no VTIMEZONE file;
	// it behaves as a fixed-offset zone.
	bogota, ok := r.Builtin("America/Bogota").Get()
	require.True(t, ok)
	got := bogota.UTCOffset(caltime.NewUTC(2022, time.January, 15, 12, 0, 0), false)
	assert.Equal(t, caltime.Offset{Seconds: -18000}, got)
}

func TestUTCSingleton(t *testing.T) {
	r := NewRegistry()

	utc := UTC()
	assert.True(t, utc.IsUTC())
	assert.Equal(t, "UTC", utc.TZID())

	fromLookup, ok := r.Builtin("UTC").Get()
	require.True(t, ok)
	assert.Same(t, utc, fromLookup)

	fromTZID, ok := r.BuiltinFromTZID("UTC").Get()
	require.True(t, ok)
	assert.Same(t, utc, fromTZID)

	fromOffset, ok := r.BuiltinFromOffset(0, "anything").Get()
	require.True(t, ok)
	assert.Same(t, utc, fromOffset)

	// The singleton survives a release.
	r.ReleaseBuiltins()
	assert.Same(t, utc, UTC())
}

func TestBuiltinFromTZID(t *testing.T) {
	r := NewRegistry()

	z, ok := r.BuiltinFromTZID(DefaultTZIDPrefix + "Europe/Berlin").Get()
	require.True(t, ok)
	loc, _ := z.Location().Get()
	assert.Equal(t, "Europe/Berlin", loc)

	// Unprefixed Olson names resolve too.
	z2, ok := r.BuiltinFromTZID("Europe/Berlin").Get()
	require.True(t, ok)
	assert.Same(t, z, z2)

	assert.False(t, r.BuiltinFromTZID("/other.org/Europe/Berlin").IsPresent())
}

func TestSetTZIDPrefix(t *testing.T) {
	r := NewRegistry()

	assert.Error(t, r.SetTZIDPrefix(""))
	assert.Error(t, r.SetTZIDPrefix("/"))
	assert.Error(t, r.SetTZIDPrefix("no-slashes"))
	assert.Error(t, r.SetTZIDPrefix("/leading-only"))

	require.NoError(t, r.SetTZIDPrefix("/example.org/zones/"))
	assert.Equal(t, "/example.org/zones/", r.TZIDPrefix())

	// The prefix applies to catalog loads after the change.
	r.ReleaseBuiltins()
	z, ok := r.BuiltinFromTZID("/example.org/zones/Asia/Tokyo").Get()
	require.True(t, ok)
	assert.Equal(t, "/example.org/zones/Asia/Tokyo", z.TZID())
}

func TestBuiltinFromOffset(t *testing.T) {
	r := NewRegistry()

	z, ok := r.BuiltinFromOffset(-18000, "EST").Get()
	require.True(t, ok)
	loc, _ := z.Location().Get()
	assert.Equal(t, "America/New_York", loc)

	// The combined name form matches as well.
	z, ok = r.BuiltinFromOffset(-18000, "EST/EDT").Get()
	require.True(t, ok)
	loc, _ = z.Location().Get()
	assert.Equal(t, "America/New_York", loc)

	assert.False(t, r.BuiltinFromOffset(-18000, "").IsPresent())
	assert.False(t, r.BuiltinFromOffset(-18000, "XXX").IsPresent())
	assert.False(t, r.BuiltinFromOffset(12345, "EST").IsPresent())
}

func TestBuiltinFromOffsetDaylight(t *testing.T) {
	r := NewRegistry()

	// Mid-July: New York is on daylight time at -0400.
	july := caltime.NewUTC(2026, time.July, 15, 12, 0, 0)
	z, ok := r.builtinFromOffsetAt(-14400, "EDT", july).Get()
	require.True(t, ok)
	loc, _ := z.Location().Get()
	assert.Equal(t, "America/New_York", loc)

	// The standard offset keeps matching while daylight time is in effect.
	z, ok = r.builtinFromOffsetAt(-18000, "EST", july).Get()
	require.True(t, ok)
	loc, _ = z.Location().Get()
	assert.Equal(t, "America/New_York", loc)

	// In winter the daylight offset is neither current nor standard.
	january := caltime.NewUTC(2026, time.January, 15, 12, 0, 0)
	assert.False(t, r.builtinFromOffsetAt(-14400, "EDT", january).IsPresent())
}

func TestReleaseBuiltinsReloads(t *testing.T) {
	r := NewRegistry()

	before, ok := r.Builtin("Europe/London").Get()
	require.True(t, ok)

	r.ReleaseBuiltins()

	after, ok := r.Builtin("Europe/London").Get()
	require.True(t, ok)
	assert.NotSame(t, before, after)
	assert.Equal(t, before.TZID(), after.TZID())
}

func TestCustomZoneSource(t *testing.T) {
	src := fstest.MapFS{
		"zones.tab": &fstest.MapFile{Data: []byte(
			"# test table\n+000000 +0000000 +0300 Test/City\nbad line here\n",
		)},
		"zoneinfo/Test/City.ics": &fstest.MapFile{Data: []byte(
			"BEGIN:VCALENDAR\n" +
				"VERSION:2.0\n" +
				"PRODID:-//test//test//EN\n" +
				"BEGIN:VTIMEZONE\n" +
				"TZID:Test/City\n" +
				"BEGIN:STANDARD\n" +
				"TZNAME:TST\n" +
				"DTSTART:19700101T000000\n" +
				"TZOFFSETFROM:+0300\n" +
				"TZOFFSETTO:+0300\n" +
				"END:STANDARD\n" +
				"END:VTIMEZONE\n" +
				"END:VCALENDAR\n",
		)},
	}
	r := NewRegistry(WithZoneSource(src), WithLogger(slog.Default()))

	zones := r.Builtins()
	require.Len(t, zones, 1)

	z, ok := r.Builtin("Test/City").Get()
	require.True(t, ok)
	got := z.UTCOffset(caltime.NewUTC(2020, time.June, 1, 0, 0, 0), false)
	assert.Equal(t, caltime.Offset{Seconds: 3 * 3600}, got)

	names, ok := z.TZNames().Get()
	require.True(t, ok)
	assert.Equal(t, "TST", names)
}

func TestMissingZoneTable(t *testing.T) {
	r := NewRegistry(WithZoneSource(fstest.MapFS{}))
	assert.Empty(t, r.Builtins())
	assert.False(t, r.Builtin("America/New_York").IsPresent())
}

func TestDefaultRegistry(t *testing.T) {
	z, ok := Builtin("America/Chicago").Get()
	require.True(t, ok)
	assert.Equal(t, Default().TZIDPrefix()+"America/Chicago", z.TZID())
}
