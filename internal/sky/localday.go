package sky

import (
	"time"

	// zone rules must not depend on the host installation
	_ "time/tzdata"
)

const (
	// localMidnightMaxIterations caps the offset correction loop. Two passes
	// settle every DST transition; the rest is headroom.
	localMidnightMaxIterations = 4

	// localMidnightEpsilonMs is the correction below which a guess is accepted.
	localMidnightEpsilonMs = int64(time.Second / time.Millisecond)

	msPerMinute = int64(time.Minute / time.Millisecond)
	msPerDay    = int64(24 * time.Hour / time.Millisecond)
)

// LocalDay is the UTC span of one local calendar day.
type LocalDay struct {
	DayStartMs          int64
	DayEndMs            int64
	CurrentMinutesOfDay float64
}

// ResolveLocalDay finds the UTC bounds of the local calendar day that contains
// instantMs in the named zone. The second return value is false when the zone
// could not be loaded, in which case the day is resolved in UTC.
func ResolveLocalDay(instantMs int64, zone string) (LocalDay, bool) {
	loc, ok := loadZone(zone)

	local := time.UnixMilli(instantMs).In(loc)
	year, month, day := local.Date()

	start := localMidnight(year, month, day, loc)
	end := localMidnight(year, month, day+1, loc)

	return LocalDay{
		DayStartMs:          start,
		DayEndMs:            end,
		CurrentMinutesOfDay: float64(instantMs-start) / float64(msPerMinute),
	}, ok
}

func loadZone(zone string) (*time.Location, bool) {
	if zone == "" {
		return time.UTC, false
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return time.UTC, false
	}
	return loc, true
}

// localMidnight treats the calendar fields as UTC for a first guess and then
// corrects by the zone offset observed at the guess until it stops moving.
func localMidnight(year int, month time.Month, day int, loc *time.Location) int64 {
	naive := time.Date(year, month, day, 0, 0, 0, 0, time.UTC).UnixMilli()

	guess := naive
	for i := 0; i < localMidnightMaxIterations; i++ {
		_, offsetSec := time.UnixMilli(guess).In(loc).Zone()
		corrected := naive - int64(offsetSec)*1000
		delta := corrected - guess
		guess = corrected
		if delta <= localMidnightEpsilonMs && delta >= -localMidnightEpsilonMs {
			break
		}
	}
	return guess
}
