package sky

import "math"

// StopClass decides whether a stop moves under second-order factors.
type StopClass int

const (
	ClassFixed StopClass = iota
	ClassDawn
	ClassDusk
)

// MaxShiftMinutes bounds the perceptual shift in either direction.
const MaxShiftMinutes = 18

var stopClass = map[StopName]StopClass{
	StopAstronomicalDawn: ClassDawn,
	StopNauticalDawn:     ClassDawn,
	StopCivilDawn:        ClassDawn,
	StopSunrise:          ClassDawn,
	StopSunset:           ClassDusk,
	StopCivilDusk:        ClassDusk,
	StopNauticalDusk:     ClassDusk,
	StopAstronomicalDusk: ClassDusk,
}

// ClassOf returns the shift class of a stop. Unlisted stops are fixed.
func ClassOf(name StopName) StopClass {
	return stopClass[name]
}

// ShiftMinutes estimates how far haze and cloud move the apparent time of a
// twilight stop. A heavier atmosphere stretches dawn later and pulls dusk
// earlier. This is a perceptual fit, not radiative transfer.
func ShiftMinutes(class StopClass, f Factors) int {
	if class == ClassFixed {
		return 0
	}

	weight := f.CloudFraction*10 +
		f.Humidity*3 +
		f.Turbidity*6 +
		f.OzoneFactor*2 -
		f.Altitude*8

	if class == ClassDusk {
		weight = -weight
	}

	bound := float64(MaxShiftMinutes)
	return int(math.Round(math.Max(-bound, math.Min(bound, weight))))
}
