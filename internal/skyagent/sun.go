package skyagent

import (
	"math"
	"time"

	"github.com/sixdouglas/suncalc"
)

// goldenHourMaxAltitude is the sun altitude (degrees) below which daylight counts as golden hour
const goldenHourMaxAltitude = 6.0

// SunContext is the sun's position at publication time
type SunContext struct {
	AltitudeDeg  float64 `json:"altitudeDeg"`
	AzimuthDeg   float64 `json:"azimuthDeg"`
	IsDaytime    bool    `json:"isDaytime"`
	IsGoldenHour bool    `json:"isGoldenHour"`
}

// CalculateSunContext returns the sun position for a location. Azimuth is a
// compass bearing (0 = north, clockwise).
func CalculateSunContext(lat, lon float64, t time.Time) SunContext {
	position := suncalc.GetPosition(t, lat, lon)

	altitude := position.Altitude * (180.0 / math.Pi)
	azimuth := math.Mod(position.Azimuth*(180.0/math.Pi)+180, 360)

	return SunContext{
		AltitudeDeg:  altitude,
		AzimuthDeg:   azimuth,
		IsDaytime:    altitude > 0,
		IsGoldenHour: altitude > 0 && altitude < goldenHourMaxAltitude,
	}
}
