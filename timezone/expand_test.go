package timezone

import (
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xfbs/libical/caltime"
	"github.com/xfbs/libical/recurrence"
)

// newEasternTestZone builds a zone with US-Eastern-style rules: daylight
// time starts the second Sunday in March at 02:00 local (-0500 to -0400),
// standard time returns the first Sunday in November at 02:00 local
// (-0400 to -0500).
func newEasternTestZone(t *testing.T) *Timezone {
	t.Helper()

	comp := ical.NewComponent(ical.CompTimezone)
	comp.Props.SetText(ical.PropTimezoneID, "Test/Eastern")

	daylight := ical.NewComponent(ical.CompTimezoneDaylight)
	daylight.Props.SetText(ical.PropTimezoneName, "EDT")
	daylight.Props.SetText(ical.PropDateTimeStart, "20070311T020000")
	daylight.Props.Set(recurProp("FREQ=YEARLY;BYMONTH=3;BYDAY=2SU"))
	daylight.Props.SetText(ical.PropTimezoneOffsetFrom, "-0500")
	daylight.Props.SetText(ical.PropTimezoneOffsetTo, "-0400")
	comp.Children = append(comp.Children, daylight)

	standard := ical.NewComponent(ical.CompTimezoneStandard)
	standard.Props.SetText(ical.PropTimezoneName, "EST")
	standard.Props.SetText(ical.PropDateTimeStart, "20071104T020000")
	standard.Props.Set(recurProp("FREQ=YEARLY;BYMONTH=11;BYDAY=1SU"))
	standard.Props.SetText(ical.PropTimezoneOffsetFrom, "-0400")
	standard.Props.SetText(ical.PropTimezoneOffsetTo, "-0500")
	comp.Children = append(comp.Children, standard)

	zone := New()
	require.NoError(t, zone.SetComponent(comp))
	return zone
}

// recurProp builds an RRULE property with the raw RECUR value; SetText is
// unsuitable here because it applies TEXT escaping to the semicolons.
func recurProp(value string) *ical.Prop {
	p := ical.NewProp(ical.PropRecurrenceRule)
	p.Value = value
	return p
}

func TestTransitionsTable(t *testing.T) {
	zone := newEasternTestZone(t)

	changes, err := zone.Transitions(2008)
	require.NoError(t, err)

	want := []Transition{
		{
			// 02:00 local under -0500 is 07:00 UTC
			UTC:          caltime.NewUTC(2007, time.March, 11, 7, 0, 0),
			OffsetBefore: -18000,
			OffsetAfter:  -14400,
			Daylight:     true,
			Name:         "EDT",
		},
		{
			// 02:00 local under -0400 is 06:00 UTC
			UTC:          caltime.NewUTC(2007, time.November, 4, 6, 0, 0),
			OffsetBefore: -14400,
			OffsetAfter:  -18000,
			Daylight:     false,
			Name:         "EST",
		},
		{
			UTC:          caltime.NewUTC(2008, time.March, 9, 7, 0, 0),
			OffsetBefore: -18000,
			OffsetAfter:  -14400,
			Daylight:     true,
			Name:         "EDT",
		},
		{
			UTC:          caltime.NewUTC(2008, time.November, 2, 6, 0, 0),
			OffsetBefore: -14400,
			OffsetAfter:  -18000,
			Daylight:     false,
			Name:         "EST",
		},
	}
	if diff := cmp.Diff(want, changes); diff != "" {
		t.Errorf("transition table mismatch (-want +got):\n%s", diff)
	}
}

func TestTransitionsMonotone(t *testing.T) {
	zone := newEasternTestZone(t)

	changes, err := zone.Transitions(2030)
	require.NoError(t, err)
	require.NotEmpty(t, changes)

	for i := 1; i < len(changes); i++ {
		assert.Negative(t, changes[i-1].UTC.Compare(changes[i].UTC),
			"records %d and %d out of order", i-1, i)
		assert.NotEqual(t, changes[i-1].OffsetAfter, changes[i].OffsetAfter,
			"records %d and %d share offset_after", i-1, i)
	}
}

func TestTransitionsHorizonExtension(t *testing.T) {
	zone := newEasternTestZone(t)

	short, err := zone.Transitions(2008)
	require.NoError(t, err)
	long, err := zone.Transitions(2012)
	require.NoError(t, err)
	assert.Greater(t, len(long), len(short))

	// The longer table still starts with the same records.
	if diff := cmp.Diff(short, long[:len(short)]); diff != "" {
		t.Errorf("extension changed the head of the table (-short +long):\n%s", diff)
	}

	// A smaller horizon after extension reuses the cache.
	again, err := zone.Transitions(2008)
	require.NoError(t, err)
	assert.Len(t, again, len(long))
}

func TestTransitionsNoRules(t *testing.T) {
	comp := ical.NewComponent(ical.CompTimezone)
	comp.Props.SetText(ical.PropTimezoneID, "Test/Empty")

	zone := New()
	require.NoError(t, zone.SetComponent(comp))

	changes, err := zone.Transitions(2020)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestTransitionsMergesRedundantRules(t *testing.T) {
	// A single STANDARD rule recurring yearly with identical offsets on
	// both sides never changes the offset: after the first record the rest
	// are redundant.
	comp := ical.NewComponent(ical.CompTimezone)
	comp.Props.SetText(ical.PropTimezoneID, "Test/Fixed")

	standard := ical.NewComponent(ical.CompTimezoneStandard)
	standard.Props.SetText(ical.PropTimezoneName, "IST")
	standard.Props.SetText(ical.PropDateTimeStart, "19700101T000000")
	standard.Props.Set(recurProp("FREQ=YEARLY;BYMONTH=1;BYMONTHDAY=1"))
	standard.Props.SetText(ical.PropTimezoneOffsetFrom, "+0530")
	standard.Props.SetText(ical.PropTimezoneOffsetTo, "+0530")
	comp.Children = append(comp.Children, standard)

	zone := New()
	require.NoError(t, zone.SetComponent(comp))

	changes, err := zone.Transitions(1980)
	require.NoError(t, err)
	assert.Len(t, changes, 1)
}

func TestTransitionsSameInstantCancellation(t *testing.T) {
	// Three single-shot rules where the last two fire at the same UTC
	// instant (June 1 00:00) and the later-sorted one restores the offset
	// already in effect, so the pair must collapse to nothing.
	rules := []zoneRule{
		{name: "A", start: caltime.NewDateTime(2000, time.January, 1, 0, 0, 0), offsetFrom: 0, offsetTo: 3600},
		{name: "B", start: caltime.NewDateTime(2000, time.June, 1, 1, 0, 0), offsetFrom: 3600, offsetTo: 7200},
		{name: "C", start: caltime.NewDateTime(2000, time.June, 1, 0, 0, 0), offsetFrom: 0, offsetTo: 3600},
	}

	changes, err := expandRules(rules, 2000, recurrence.NewEngine())
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "A", changes[0].Name)
	assert.Equal(t, 3600, changes[0].OffsetAfter)
}

func TestSetComponentValidation(t *testing.T) {
	zone := New()

	assert.Error(t, zone.SetComponent(nil))

	event := ical.NewComponent(ical.CompEvent)
	assert.Error(t, zone.SetComponent(event))

	noTZID := ical.NewComponent(ical.CompTimezone)
	assert.Error(t, zone.SetComponent(noTZID))

	// A failed SetComponent leaves the zone untouched.
	generated := zone.TZID()
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, zone.TZID())
}

func TestCopyIsIndependent(t *testing.T) {
	zone := newEasternTestZone(t)
	orig, err := zone.Transitions(2008)
	require.NoError(t, err)

	clone := zone.Copy()
	assert.Equal(t, zone.TZID(), clone.TZID())

	// The expansion cache is not copied; the clone expands on its own to
	// the same table.
	assert.Nil(t, clone.changes)
	cloned, err := clone.Transitions(2008)
	require.NoError(t, err)
	if diff := cmp.Diff(orig, cloned); diff != "" {
		t.Errorf("clone expanded differently (-orig +clone):\n%s", diff)
	}

	// Replacing the clone's definition leaves the original untouched.
	other := ical.NewComponent(ical.CompTimezone)
	other.Props.SetText(ical.PropTimezoneID, "Test/Other")
	require.NoError(t, clone.SetComponent(other))
	assert.Equal(t, "Test/Other", clone.TZID())
	assert.Equal(t, "Test/Eastern", zone.TZID())

	after, err := zone.Transitions(2008)
	require.NoError(t, err)
	if diff := cmp.Diff(orig, after); diff != "" {
		t.Errorf("mutating the clone changed the original (-orig +after):\n%s", diff)
	}
}

func TestTZNames(t *testing.T) {
	zone := newEasternTestZone(t)
	names, ok := zone.TZNames().Get()
	require.True(t, ok)
	assert.Equal(t, "EST/EDT", names)
}
