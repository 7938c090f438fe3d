package sky

import (
	"math"
)

// Solar position constants follow the low-precision formulas popularised by
// suncalc: good to about a minute for rise/set, which is far below what the
// ring can display.
const (
	rad = math.Pi / 180

	julian1970 = 2440588.0
	julian2000 = 2451545.0

	// obliquity of the ecliptic
	obliquity = rad * 23.4397

	julianCycleOffset = 0.0009
)

// Altitude thresholds in degrees for each event pair.
const (
	altitudeRiseSet      = -0.833
	altitudeCivil        = -6.0
	altitudeNautical     = -12.0
	altitudeAstronomical = -18.0
)

// EventTime is a solar event instant that may not exist at the given
// latitude and season.
type EventTime struct {
	Ms    int64
	Valid bool
}

func eventAt(ms int64) EventTime { return EventTime{Ms: ms, Valid: true} }

// SolarEvents holds the solved events for one local day.
type SolarEvents struct {
	SolarNoonMs      int64
	Sunrise          EventTime
	Sunset           EventTime
	CivilDawn        EventTime
	CivilDusk        EventTime
	NauticalDawn     EventTime
	NauticalDusk     EventTime
	AstronomicalDawn EventTime
	AstronomicalDusk EventTime
}

// Unsolved returns the names of events without a real solution, in
// chronological order.
func (e SolarEvents) Unsolved() []StopName {
	var missing []StopName
	for _, ev := range []struct {
		name StopName
		at   EventTime
	}{
		{StopAstronomicalDawn, e.AstronomicalDawn},
		{StopNauticalDawn, e.NauticalDawn},
		{StopCivilDawn, e.CivilDawn},
		{StopSunrise, e.Sunrise},
		{StopSunset, e.Sunset},
		{StopCivilDusk, e.CivilDusk},
		{StopNauticalDusk, e.NauticalDusk},
		{StopAstronomicalDusk, e.AstronomicalDusk},
	} {
		if !ev.at.Valid {
			missing = append(missing, ev.name)
		}
	}
	return missing
}

// CalculateSolarEvents solves the solar events of the local day starting at
// dayStartMs. The Julian cycle is anchored on the middle of that day so the
// transit found is the one inside it.
func CalculateSolarEvents(dayStartMs int64, coords Coordinates) SolarEvents {
	lw := rad * -coords.Long
	phi := rad * coords.Lat

	d := toDays(dayStartMs + msPerDay/2)
	n := julianCycle(d, lw)
	ds := approxTransit(0, lw, n)

	m := solarMeanAnomaly(ds)
	l := eclipticLongitude(m)
	dec := declination(l)

	jNoon := solarTransitJ(ds, m, l)
	noonMs := fromJulian(jNoon)

	pair := func(altitudeDeg float64) (dawn, dusk EventTime) {
		w, ok := hourAngle(altitudeDeg*rad, phi, dec)
		if !ok {
			return EventTime{}, EventTime{}
		}
		jSet := solarTransitJ(approxTransit(w, lw, n), m, l)
		jRise := jNoon - (jSet - jNoon)
		return normalizeDawn(fromJulian(jRise), noonMs), normalizeDusk(fromJulian(jSet), noonMs)
	}

	events := SolarEvents{SolarNoonMs: noonMs}
	events.Sunrise, events.Sunset = pair(altitudeRiseSet)
	events.CivilDawn, events.CivilDusk = pair(altitudeCivil)
	events.NauticalDawn, events.NauticalDusk = pair(altitudeNautical)
	events.AstronomicalDawn, events.AstronomicalDusk = pair(altitudeAstronomical)
	return events
}

func normalizeDawn(ms, noonMs int64) EventTime {
	if ms > noonMs {
		ms -= msPerDay
	}
	return eventAt(ms)
}

func normalizeDusk(ms, noonMs int64) EventTime {
	if ms < noonMs {
		ms += msPerDay
	}
	return eventAt(ms)
}

func toDays(ms int64) float64 {
	return float64(ms)/float64(msPerDay) - 0.5 + julian1970 - julian2000
}

func fromJulian(j float64) int64 {
	return int64(math.Round((j + 0.5 - julian1970) * float64(msPerDay)))
}

func julianCycle(d, lw float64) float64 {
	return math.Round(d - julianCycleOffset - lw/(2*math.Pi))
}

func approxTransit(ht, lw, n float64) float64 {
	return julianCycleOffset + (ht+lw)/(2*math.Pi) + n
}

func solarTransitJ(ds, m, l float64) float64 {
	return julian2000 + ds + 0.0053*math.Sin(m) - 0.0069*math.Sin(2*l)
}

func solarMeanAnomaly(d float64) float64 {
	return rad * (357.5291 + 0.98560028*d)
}

func eclipticLongitude(m float64) float64 {
	center := rad * (1.9148*math.Sin(m) + 0.02*math.Sin(2*m) + 0.0003*math.Sin(3*m))
	perihelion := rad * 102.9372
	return m + center + perihelion + math.Pi
}

func declination(l float64) float64 {
	return math.Asin(math.Sin(obliquity) * math.Sin(l))
}

// hourAngle solves cos(H) for the sun reaching altitude h. It reports false
// when the sun never reaches h that day (polar day or night).
func hourAngle(h, phi, dec float64) (float64, bool) {
	cosH := (math.Sin(h) - math.Sin(phi)*math.Sin(dec)) / (math.Cos(phi) * math.Cos(dec))
	if math.IsNaN(cosH) || math.IsInf(cosH, 0) || cosH < -1 || cosH > 1 {
		return 0, false
	}
	return math.Acos(cosH), true
}
