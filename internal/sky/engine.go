// Package sky computes the 24-hour sky ring: seventeen named instants of a
// local day, each with a clock-face angle and a perceptual sky colour that
// responds to haze, humidity, cloud, ozone, light pollution and altitude.
//
// Everything here is pure. ComputeSky24h performs no I/O, holds no state
// between calls and returns freshly allocated results, so it is safe to call
// from any number of goroutines.
package sky

import (
	"math"
	"sort"
)

// ComputeSky24h builds the sky ring for coords on the local day containing
// atMs. It never fails; degraded inputs are reported through Diagnostics.
func ComputeSky24h(coords Coordinates, env Environment, atMs int64, opts Options) Result {
	day, zoneOK := ResolveLocalDay(atMs, env.Timezone)
	events := CalculateSolarEvents(day.DayStartMs, coords)
	schedule := BuildSchedule(day.DayStartMs, events)

	samples := sortSamples(env.Samples)
	secondOrder := opts.secondOrder()

	stops := make([]ColorStop, StopCount)
	for i, name := range StopOrder {
		baseline := schedule.Minutes[i]
		factors := opts.FactorOverrides.Apply(interpolateSorted(samples, day.DayStartMs+minutesToMs(baseline)))

		shift := 0
		color := BaselineColors[name]
		if secondOrder {
			shift = ShiftMinutes(ClassOf(name), factors)
			color = TransformColor(name, factors)
		}

		minutes := finalMinutes(name, baseline, shift)
		stops[i] = ColorStop{
			Name:         name,
			TimestampMs:  day.DayStartMs + minutesToMs(minutes),
			MinutesOfDay: minutes,
			AngleDeg:     math.Mod(minutes/minutesPerDay*360, 360),
			ColorHex:     color,
			ShiftMinutes: shift,
			Factors:      factors,
		}
	}
	sortStops(stops)

	timezone := env.Timezone
	if !zoneOK {
		timezone = "UTC"
	}

	rotation := normalizeDegrees(-(day.CurrentMinutesOfDay / minutesPerDay) * 360)
	return Result{
		TimestampMs: atMs,
		Timezone:    timezone,
		RotationDeg: rotation,
		RotationRad: rotation * rad,
		Stops:       stops,
		Diagnostics: mergeDiagnostics(mergeInput{
			upstream:           env.Diagnostics,
			current:            opts.FactorOverrides.Apply(interpolateSorted(samples, atMs)),
			hasSamples:         len(samples) > 0,
			overrides:          opts.FactorOverrides,
			polarImputed:       schedule.PolarConditionImputed,
			timezoneUnresolved: !zoneOK,
		}),
	}
}

// finalMinutes applies the shift and wraps into the day. The two midnight
// anchors never move.
func finalMinutes(name StopName, baseline float64, shift int) float64 {
	switch name {
	case StopLocalMidnightStart:
		return 0
	case StopLocalMidnightEnd:
		return minutesPerDay
	}
	m := math.Mod(baseline+float64(shift), minutesPerDay)
	if m < 0 {
		m += minutesPerDay
	}
	return m
}

// sortStops orders the stops between the two anchors by final minute. Ties
// keep canonical order.
func sortStops(stops []ColorStop) {
	inner := stops[1 : len(stops)-1]
	sort.SliceStable(inner, func(i, j int) bool {
		return inner[i].MinutesOfDay < inner[j].MinutesOfDay
	})
}

// normalizeDegrees maps deg into (-180, 180].
func normalizeDegrees(deg float64) float64 {
	r := math.Mod(deg, 360)
	if r <= -180 {
		r += 360
	} else if r > 180 {
		r -= 360
	}
	if r == 0 {
		return 0
	}
	return r
}

func minutesToMs(minutes float64) int64 {
	return int64(math.Round(minutes * float64(msPerMinute)))
}
