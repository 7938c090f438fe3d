package sky

// Coordinates is a geographic position in degrees.
type Coordinates struct {
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

// Factors holds the six second-order atmospheric inputs, each in [0,1]
type Factors struct {
	Altitude       float64 `json:"altitude"`
	Turbidity      float64 `json:"turbidity"`
	Humidity       float64 `json:"humidity"`
	CloudFraction  float64 `json:"cloud_fraction"`
	OzoneFactor    float64 `json:"ozone_factor"`
	LightPollution float64 `json:"light_pollution"`
}

// FactorName identifies one dimension of Factors
type FactorName string

const (
	FactorAltitude       FactorName = "altitude"
	FactorTurbidity      FactorName = "turbidity"
	FactorHumidity       FactorName = "humidity"
	FactorCloudFraction  FactorName = "cloud_fraction"
	FactorOzone          FactorName = "ozone_factor"
	FactorLightPollution FactorName = "light_pollution"
)

// FactorNames lists the factor dimensions in their canonical order.
var FactorNames = [...]FactorName{
	FactorAltitude,
	FactorTurbidity,
	FactorHumidity,
	FactorCloudFraction,
	FactorOzone,
	FactorLightPollution,
}

// FactorSample is one timestamped observation of the factor vector.
type FactorSample struct {
	TimestampMs int64   `json:"timestampMs"`
	Factors     Factors `json:"factors"`
}

// Environment is what an environment provider resolves for a location.
type Environment struct {
	Timezone    string         `json:"timezone"`
	Samples     []FactorSample `json:"samples"`
	Diagnostics Diagnostics    `json:"diagnostics"`
}

// FactorSource describes where a factor value came from
type FactorSource string

const (
	SourceLive     FactorSource = "live"
	SourceFallback FactorSource = "fallback"
	SourceOverride FactorSource = "override"
)

// ProviderQuality summarises the upstream data quality.
type ProviderQuality string

const (
	QualityLive     ProviderQuality = "live"
	QualityMixed    ProviderQuality = "mixed"
	QualityFallback ProviderQuality = "fallback"
)

// FactorSummary records provenance for a single factor.
type FactorSummary struct {
	Value      float64      `json:"value"`
	Source     FactorSource `json:"source"`
	Confidence float64      `json:"confidence"`
	Notes      []string     `json:"notes"`
}

// Diagnostics describes how much of a result rests on live data.
type Diagnostics struct {
	Factors               map[FactorName]FactorSummary `json:"factors"`
	ProviderQuality       ProviderQuality              `json:"providerQuality"`
	Degraded              bool                         `json:"degraded"`
	FallbackReasons       []string                     `json:"fallbackReasons"`
	Interpolation         string                       `json:"interpolation"`
	PolarConditionImputed bool                         `json:"polarConditionImputed"`
}

// StopName is one of the 17 canonical points on the ring.
type StopName string

const (
	StopLocalMidnightStart  StopName = "local_midnight_start"
	StopAstronomicalNight   StopName = "astronomical_night"
	StopAstronomicalDawn    StopName = "astronomical_dawn"
	StopNauticalDawn        StopName = "nautical_dawn"
	StopCivilDawn           StopName = "civil_dawn"
	StopSunrise             StopName = "sunrise"
	StopMorningGoldenHour   StopName = "morning_golden_hour"
	StopMidMorning          StopName = "mid_morning"
	StopSolarNoon           StopName = "solar_noon"
	StopMidAfternoon        StopName = "mid_afternoon"
	StopAfternoonGoldenHour StopName = "afternoon_golden_hour"
	StopSunset              StopName = "sunset"
	StopCivilDusk           StopName = "civil_dusk"
	StopNauticalDusk        StopName = "nautical_dusk"
	StopAstronomicalDusk    StopName = "astronomical_dusk"
	StopLateNight           StopName = "late_night"
	StopLocalMidnightEnd    StopName = "local_midnight_end"
)

// StopCount is the number of stops on every ring.
const StopCount = 17

// StopOrder is the canonical stop order.
var StopOrder = [StopCount]StopName{
	StopLocalMidnightStart,
	StopAstronomicalNight,
	StopAstronomicalDawn,
	StopNauticalDawn,
	StopCivilDawn,
	StopSunrise,
	StopMorningGoldenHour,
	StopMidMorning,
	StopSolarNoon,
	StopMidAfternoon,
	StopAfternoonGoldenHour,
	StopSunset,
	StopCivilDusk,
	StopNauticalDusk,
	StopAstronomicalDusk,
	StopLateNight,
	StopLocalMidnightEnd,
}

// ColorStop is a single computed stop.
type ColorStop struct {
	Name         StopName `json:"name"`
	TimestampMs  int64    `json:"timestampMs"`
	MinutesOfDay float64  `json:"minutesOfDay"`
	AngleDeg     float64  `json:"angleDeg"`
	ColorHex     string   `json:"colorHex"`
	ShiftMinutes int      `json:"shiftMinutes"`
	Factors      Factors  `json:"factors"`
}

// Result is the full 24-hour sky ring.
type Result struct {
	TimestampMs int64       `json:"timestampMs"`
	Timezone    string      `json:"timezone"`
	RotationDeg float64     `json:"rotationDeg"`
	RotationRad float64     `json:"rotationRad"`
	Stops       []ColorStop `json:"stops"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

// FactorOverrides is a partial factor vector. Nil fields are not overridden.
type FactorOverrides struct {
	Altitude       *float64 `json:"altitude,omitempty" yaml:"altitude,omitempty"`
	Turbidity      *float64 `json:"turbidity,omitempty" yaml:"turbidity,omitempty"`
	Humidity       *float64 `json:"humidity,omitempty" yaml:"humidity,omitempty"`
	CloudFraction  *float64 `json:"cloud_fraction,omitempty" yaml:"cloud_fraction,omitempty"`
	OzoneFactor    *float64 `json:"ozone_factor,omitempty" yaml:"ozone_factor,omitempty"`
	LightPollution *float64 `json:"light_pollution,omitempty" yaml:"light_pollution,omitempty"`
}

// Options tunes a single ComputeSky24h call.
type Options struct {
	FactorOverrides *FactorOverrides
	// ApplySecondOrder defaults to true when nil.
	ApplySecondOrder *bool
}

func (o Options) secondOrder() bool {
	if o.ApplySecondOrder == nil {
		return true
	}
	return *o.ApplySecondOrder
}
