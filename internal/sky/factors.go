package sky

import (
	"math"
	"sort"
)

// NeutralFactors is used when no samples are available.
var NeutralFactors = Factors{
	Altitude:       0,
	Turbidity:      0.5,
	Humidity:       0.5,
	CloudFraction:  0.3,
	OzoneFactor:    0.5,
	LightPollution: 0.5,
}

// ClampUnit clamps v into [0,1]. NaN and infinities become 0.
func ClampUnit(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Clamped returns f with every dimension clamped into [0,1].
func (f Factors) Clamped() Factors {
	return Factors{
		Altitude:       ClampUnit(f.Altitude),
		Turbidity:      ClampUnit(f.Turbidity),
		Humidity:       ClampUnit(f.Humidity),
		CloudFraction:  ClampUnit(f.CloudFraction),
		OzoneFactor:    ClampUnit(f.OzoneFactor),
		LightPollution: ClampUnit(f.LightPollution),
	}
}

// Get returns the value of a named dimension.
func (f Factors) Get(name FactorName) float64 {
	switch name {
	case FactorAltitude:
		return f.Altitude
	case FactorTurbidity:
		return f.Turbidity
	case FactorHumidity:
		return f.Humidity
	case FactorCloudFraction:
		return f.CloudFraction
	case FactorOzone:
		return f.OzoneFactor
	case FactorLightPollution:
		return f.LightPollution
	}
	return 0
}

// Set assigns a named dimension. Unknown names are ignored.
func (f *Factors) Set(name FactorName, v float64) {
	switch name {
	case FactorAltitude:
		f.Altitude = v
	case FactorTurbidity:
		f.Turbidity = v
	case FactorHumidity:
		f.Humidity = v
	case FactorCloudFraction:
		f.CloudFraction = v
	case FactorOzone:
		f.OzoneFactor = v
	case FactorLightPollution:
		f.LightPollution = v
	}
}

// lerp interpolates every dimension between a and b at fraction t
func lerp(a, b Factors, t float64) Factors {
	mix := func(x, y float64) float64 { return x + (y-x)*t }
	return Factors{
		Altitude:       mix(a.Altitude, b.Altitude),
		Turbidity:      mix(a.Turbidity, b.Turbidity),
		Humidity:       mix(a.Humidity, b.Humidity),
		CloudFraction:  mix(a.CloudFraction, b.CloudFraction),
		OzoneFactor:    mix(a.OzoneFactor, b.OzoneFactor),
		LightPollution: mix(a.LightPollution, b.LightPollution),
	}.Clamped()
}

// sortSamples returns a timestamp-ordered copy; the caller's slice is untouched.
func sortSamples(samples []FactorSample) []FactorSample {
	sorted := make([]FactorSample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TimestampMs < sorted[j].TimestampMs
	})
	return sorted
}

// InterpolateFactors samples the factor series at atMs. Targets outside the
// sampled range clamp to the nearest end; an empty series yields NeutralFactors.
func InterpolateFactors(samples []FactorSample, atMs int64) Factors {
	return interpolateSorted(sortSamples(samples), atMs)
}

func interpolateSorted(sorted []FactorSample, atMs int64) Factors {
	if len(sorted) == 0 {
		return NeutralFactors
	}

	first, last := sorted[0], sorted[len(sorted)-1]
	if atMs <= first.TimestampMs {
		return first.Factors.Clamped()
	}
	if atMs >= last.TimestampMs {
		return last.Factors.Clamped()
	}

	// first index with timestamp > atMs; guaranteed in (0, len)
	hi := sort.Search(len(sorted), func(i int) bool {
		return sorted[i].TimestampMs > atMs
	})
	a, b := sorted[hi-1], sorted[hi]
	span := b.TimestampMs - a.TimestampMs
	if span <= 0 {
		return b.Factors.Clamped()
	}
	t := float64(atMs-a.TimestampMs) / float64(span)
	return lerp(a.Factors.Clamped(), b.Factors.Clamped(), t)
}

// Apply overlays the set fields of o onto f, clamping each into [0,1].
func (o *FactorOverrides) Apply(f Factors) Factors {
	if o == nil {
		return f
	}
	for _, name := range FactorNames {
		if v, ok := o.Lookup(name); ok {
			f.Set(name, v)
		}
	}
	return f
}

// Lookup reports the clamped override for name, if one is set.
func (o *FactorOverrides) Lookup(name FactorName) (float64, bool) {
	if o == nil {
		return 0, false
	}
	var p *float64
	switch name {
	case FactorAltitude:
		p = o.Altitude
	case FactorTurbidity:
		p = o.Turbidity
	case FactorHumidity:
		p = o.Humidity
	case FactorCloudFraction:
		p = o.CloudFraction
	case FactorOzone:
		p = o.OzoneFactor
	case FactorLightPollution:
		p = o.LightPollution
	}
	if p == nil {
		return 0, false
	}
	return ClampUnit(*p), true
}

// SetOverride sets a single override by name. It reports false for an
// unknown factor name.
func (o *FactorOverrides) SetOverride(name FactorName, v float64) bool {
	switch name {
	case FactorAltitude:
		o.Altitude = &v
	case FactorTurbidity:
		o.Turbidity = &v
	case FactorHumidity:
		o.Humidity = &v
	case FactorCloudFraction:
		o.CloudFraction = &v
	case FactorOzone:
		o.OzoneFactor = &v
	case FactorLightPollution:
		o.LightPollution = &v
	default:
		return false
	}
	return true
}
