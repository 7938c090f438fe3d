package sky

import (
	"testing"
	"time"

	"github.com/nathan-osman/go-sunrise"
	"github.com/sixdouglas/suncalc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var paris = Coordinates{Lat: 48.8566, Long: 2.3522}

func utcDayStart(year int, month time.Month, day int) int64 {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).UnixMilli()
}

func assertNear(t *testing.T, want time.Time, gotMs int64, tolerance time.Duration, label string) {
	t.Helper()
	diff := time.UnixMilli(gotMs).Sub(want)
	if diff < 0 {
		diff = -diff
	}
	assert.LessOrEqual(t, diff, tolerance, "%s: got %s want %s", label, time.UnixMilli(gotMs).UTC(), want.UTC())
}

func TestCalculateSolarEvents_MatchesSuncalc(t *testing.T) {
	dayStart := utcDayStart(2024, time.March, 20)
	events := CalculateSolarEvents(dayStart, paris)

	times := suncalc.GetTimes(time.UnixMilli(dayStart+msPerDay/2), paris.Lat, paris.Long)

	assertNear(t, times[suncalc.SolarNoon].Value, events.SolarNoonMs, time.Minute, "solar noon")
	require.True(t, events.Sunrise.Valid)
	require.True(t, events.Sunset.Valid)
	assertNear(t, times[suncalc.Sunrise].Value, events.Sunrise.Ms, time.Minute, "sunrise")
	assertNear(t, times[suncalc.Sunset].Value, events.Sunset.Ms, time.Minute, "sunset")
	assertNear(t, times[suncalc.Dawn].Value, events.CivilDawn.Ms, time.Minute, "civil dawn")
	assertNear(t, times[suncalc.NauticalDusk].Value, events.NauticalDusk.Ms, time.Minute, "nautical dusk")
}

func TestCalculateSolarEvents_AgreesWithGoSunrise(t *testing.T) {
	dayStart := utcDayStart(2024, time.June, 1)
	events := CalculateSolarEvents(dayStart, paris)

	rise, set := sunrise.SunriseSunset(paris.Lat, paris.Long, 2024, time.June, 1)

	require.True(t, events.Sunrise.Valid)
	require.True(t, events.Sunset.Valid)
	assertNear(t, rise, events.Sunrise.Ms, 5*time.Minute, "sunrise")
	assertNear(t, set, events.Sunset.Ms, 5*time.Minute, "sunset")
}

func TestCalculateSolarEvents_Ordering(t *testing.T) {
	events := CalculateSolarEvents(utcDayStart(2024, time.September, 23), paris)

	ordered := []EventTime{
		events.AstronomicalDawn,
		events.NauticalDawn,
		events.CivilDawn,
		events.Sunrise,
		eventAt(events.SolarNoonMs),
		events.Sunset,
		events.CivilDusk,
		events.NauticalDusk,
		events.AstronomicalDusk,
	}
	for i := 1; i < len(ordered); i++ {
		require.True(t, ordered[i].Valid)
		assert.Less(t, ordered[i-1].Ms, ordered[i].Ms, "event %d out of order", i)
	}
	assert.Empty(t, events.Unsolved())
}

func TestCalculateSolarEvents_NoonFallsInsideLocalDay(t *testing.T) {
	tokyo := Coordinates{Lat: 35.6762, Long: 139.6503}
	day, ok := ResolveLocalDay(time.Date(2024, 2, 1, 3, 0, 0, 0, time.UTC).UnixMilli(), "Asia/Tokyo")
	require.True(t, ok)

	events := CalculateSolarEvents(day.DayStartMs, tokyo)
	minutes := float64(events.SolarNoonMs-day.DayStartMs) / float64(msPerMinute)

	// 139.65E sits east of the JST meridian; early February the equation of
	// time adds about 13 minutes
	assert.InDelta(t, 11*60+55, minutes, 10)
}

func TestCalculateSolarEvents_PolarDay(t *testing.T) {
	svalbard := Coordinates{Lat: 78.2232, Long: 15.6469}
	events := CalculateSolarEvents(utcDayStart(2024, time.June, 21), svalbard)

	assert.False(t, events.Sunrise.Valid)
	assert.False(t, events.Sunset.Valid)
	assert.False(t, events.AstronomicalDawn.Valid)
	assert.Len(t, events.Unsolved(), 8)
}

func TestCalculateSolarEvents_PartialPolarTwilight(t *testing.T) {
	svalbard := Coordinates{Lat: 78.2232, Long: 15.6469}
	events := CalculateSolarEvents(utcDayStart(2024, time.April, 15), svalbard)

	assert.True(t, events.Sunrise.Valid)
	assert.True(t, events.Sunset.Valid)
	assert.False(t, events.CivilDawn.Valid)
	assert.False(t, events.AstronomicalDusk.Valid)
	assert.Equal(t, []StopName{
		StopAstronomicalDawn, StopNauticalDawn, StopCivilDawn,
		StopCivilDusk, StopNauticalDusk, StopAstronomicalDusk,
	}, events.Unsolved())
}

func TestHourAngle_Pole(t *testing.T) {
	_, ok := hourAngle(altitudeRiseSet*rad, 90*rad, 0)
	assert.False(t, ok)
}
