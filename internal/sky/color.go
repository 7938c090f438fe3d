package sky

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// BaselineColors is the canonical clear-sky colour of every stop.
var BaselineColors = map[StopName]string{
	StopLocalMidnightStart:  "#0b1026",
	StopAstronomicalNight:   "#0f1533",
	StopAstronomicalDawn:    "#1c2350",
	StopNauticalDawn:        "#2e3a74",
	StopCivilDawn:           "#5a5f9e",
	StopSunrise:             "#f29e6d",
	StopMorningGoldenHour:   "#f6c27a",
	StopMidMorning:          "#8fc3ea",
	StopSolarNoon:           "#4a90d9",
	StopMidAfternoon:        "#6aa8e0",
	StopAfternoonGoldenHour: "#f4b860",
	StopSunset:              "#e9765b",
	StopCivilDusk:           "#8a5a9e",
	StopNauticalDusk:        "#3b3f7a",
	StopAstronomicalDusk:    "#1e2452",
	StopLateNight:           "#11163a",
	StopLocalMidnightEnd:    "#0b1026",
}

// tone groups stops by how their hue reacts to the atmosphere
type tone int

const (
	toneDay tone = iota
	toneDawn
	toneDusk
	toneNight
)

var stopTone = map[StopName]tone{
	StopLocalMidnightStart:  toneNight,
	StopAstronomicalNight:   toneNight,
	StopAstronomicalDawn:    toneDawn,
	StopNauticalDawn:        toneDawn,
	StopCivilDawn:           toneDawn,
	StopSunrise:             toneDawn,
	StopMorningGoldenHour:   toneDay,
	StopMidMorning:          toneDay,
	StopSolarNoon:           toneDay,
	StopMidAfternoon:        toneDay,
	StopAfternoonGoldenHour: toneDay,
	StopSunset:              toneDusk,
	StopCivilDusk:           toneDusk,
	StopNauticalDusk:        toneDusk,
	StopAstronomicalDusk:    toneDusk,
	StopLateNight:           toneNight,
	StopLocalMidnightEnd:    toneNight,
}

const (
	// warmHue is the sodium-lamp orange light pollution drags night skies toward.
	warmHue = 30.0
	// coolHue is the pale blue haze a turbid day sky drifts toward.
	coolHue = 210.0

	minSaturation = 8.0
	maxSaturation = 98.0
	minLightness  = 2.0
	maxLightness  = 96.0
)

// TransformColor perturbs the baseline colour of a stop for the given factors.
// Saturation and lightness are in percent, hue in degrees.
func TransformColor(name StopName, f Factors) string {
	base := BaselineColors[name]
	h, s, l, err := hexToHSL(base)
	if err != nil {
		return base
	}

	s = s - f.CloudFraction*22 - f.Turbidity*14 + f.OzoneFactor*6
	l = l - f.CloudFraction*14 - f.Turbidity*8 - f.Humidity*5 - f.LightPollution*3 + f.Altitude*6

	switch stopTone[name] {
	case toneDusk, toneNight:
		h = rotateHueToward(h, warmHue, f.LightPollution*18+f.Turbidity*10)
	case toneDay:
		h = rotateHueToward(h, coolHue, f.Turbidity*8)
	}

	s = math.Max(minSaturation, math.Min(maxSaturation, s))
	l = math.Max(minLightness, math.Min(maxLightness, l))
	return hslToHex(h, s, l)
}

// rotateHueToward moves h along the shorter arc toward target by at most step
// degrees, never overshooting.
func rotateHueToward(h, target, step float64) float64 {
	diff := math.Mod(target-h+540, 360) - 180
	if math.Abs(diff) <= step {
		return math.Mod(target+360, 360)
	}
	if diff < 0 {
		step = -step
	}
	return math.Mod(h+step+360, 360)
}

func parseHex(hex string) (r, g, b float64, err error) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 0, 0, 0, fmt.Errorf("invalid hex colour %q", hex)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid hex colour %q: %w", hex, err)
	}
	return float64(v>>16&0xff) / 255, float64(v>>8&0xff) / 255, float64(v&0xff) / 255, nil
}

func hexToHSL(hex string) (h, s, l float64, err error) {
	r, g, b, err := parseHex(hex)
	if err != nil {
		return 0, 0, 0, err
	}

	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	l = (maxC + minC) / 2

	if maxC == minC {
		return 0, 0, l * 100, nil
	}

	d := maxC - minC
	if l > 0.5 {
		s = d / (2 - maxC - minC)
	} else {
		s = d / (maxC + minC)
	}

	switch maxC {
	case r:
		h = (g - b) / d
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	return h * 60, s * 100, l * 100, nil
}

func hslToHex(h, s, l float64) string {
	s /= 100
	l /= 100

	c := (1 - math.Abs(2*l-1)) * s
	hp := math.Mod(h, 360) / 60
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))

	var r, g, b float64
	switch {
	case hp < 1:
		r, g, b = c, x, 0
	case hp < 2:
		r, g, b = x, c, 0
	case hp < 3:
		r, g, b = 0, c, x
	case hp < 4:
		r, g, b = 0, x, c
	case hp < 5:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	m := l - c/2
	return fmt.Sprintf("#%02x%02x%02x", toByte(r+m), toByte(g+m), toByte(b+m))
}

func toByte(v float64) int {
	return int(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

// RGB returns the channels of a hex colour in [0,1]. Invalid input is black.
func RGB(hex string) (r, g, b float64) {
	r, g, b, err := parseHex(hex)
	if err != nil {
		return 0, 0, 0
	}
	return r, g, b
}

// Luminance returns the relative luminance (Rec. 709 weights) of a hex colour.
func Luminance(hex string) float64 {
	r, g, b, err := parseHex(hex)
	if err != nil {
		return 0
	}
	return 0.2126*r + 0.7152*g + 0.0722*b
}
