package sky

const (
	minutesPerDay = 1440.0

	goldenHourMinutes = 60.0
)

// fallbackDayFraction places an event that has no real solution. The values
// approximate an equinox day at mid latitudes.
var fallbackDayFraction = map[StopName]float64{
	StopAstronomicalDawn: 0.20,
	StopNauticalDawn:     0.215,
	StopCivilDawn:        0.23,
	StopSunrise:          0.25,
	StopSolarNoon:        0.50,
	StopSunset:           0.75,
	StopCivilDusk:        0.77,
	StopNauticalDusk:     0.785,
	StopAstronomicalDusk: 0.80,
}

// Schedule is the baseline minute-of-day for every stop, in StopOrder.
type Schedule struct {
	Minutes               [StopCount]float64
	PolarConditionImputed bool
	Unsolved              []StopName
}

// MinutesOf returns the scheduled minute-of-day of a stop.
func (s Schedule) MinutesOf(name StopName) float64 {
	return s.Minutes[stopIndex[name]]
}

var stopIndex = func() map[StopName]int {
	idx := make(map[StopName]int, StopCount)
	for i, name := range StopOrder {
		idx[name] = i
	}
	return idx
}()

// BuildSchedule turns solar events into monotonically ordered stop minutes.
func BuildSchedule(dayStartMs int64, events SolarEvents) Schedule {
	minutesFor := func(name StopName, ev EventTime) float64 {
		if !ev.Valid {
			return fallbackDayFraction[name] * minutesPerDay
		}
		return float64(ev.Ms-dayStartMs) / float64(msPerMinute)
	}

	astroDawn := minutesFor(StopAstronomicalDawn, events.AstronomicalDawn)
	nauticalDawn := minutesFor(StopNauticalDawn, events.NauticalDawn)
	civilDawn := minutesFor(StopCivilDawn, events.CivilDawn)
	sunrise := minutesFor(StopSunrise, events.Sunrise)
	noon := minutesFor(StopSolarNoon, eventAt(events.SolarNoonMs))
	sunset := minutesFor(StopSunset, events.Sunset)
	civilDusk := minutesFor(StopCivilDusk, events.CivilDusk)
	nauticalDusk := minutesFor(StopNauticalDusk, events.NauticalDusk)
	astroDusk := minutesFor(StopAstronomicalDusk, events.AstronomicalDusk)

	morningGolden := sunrise + goldenHourMinutes
	afternoonGolden := sunset - goldenHourMinutes

	raw := [StopCount]float64{
		0,
		midpoint(0, astroDawn),
		astroDawn,
		nauticalDawn,
		civilDawn,
		sunrise,
		morningGolden,
		midpoint(morningGolden, noon),
		noon,
		midpoint(noon, afternoonGolden),
		afternoonGolden,
		sunset,
		civilDusk,
		nauticalDusk,
		astroDusk,
		midpoint(astroDusk, minutesPerDay),
		minutesPerDay,
	}

	unsolved := events.Unsolved()
	return Schedule{
		Minutes:               repairMonotonic(raw),
		PolarConditionImputed: len(unsolved) > 0,
		Unsolved:              unsolved,
	}
}

// repairMonotonic clamps every stop into [previous+1, 1440] walking in
// canonical order. Near the poles events can collapse or cross, and the
// output order must hold regardless.
func repairMonotonic(raw [StopCount]float64) [StopCount]float64 {
	var out [StopCount]float64
	out[0] = 0
	for i := 1; i < StopCount; i++ {
		v := raw[i]
		if lower := out[i-1] + 1; v < lower {
			v = lower
		}
		if v > minutesPerDay {
			v = minutesPerDay
		}
		out[i] = v
	}
	out[StopCount-1] = minutesPerDay
	return out
}

func midpoint(a, b float64) float64 {
	return (a + b) / 2
}
