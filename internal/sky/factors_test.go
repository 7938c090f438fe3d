package sky

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func uniform(v float64) Factors {
	return Factors{
		Altitude:       v,
		Turbidity:      v,
		Humidity:       v,
		CloudFraction:  v,
		OzoneFactor:    v,
		LightPollution: v,
	}
}

func TestInterpolateFactors(t *testing.T) {
	samples := []FactorSample{
		{TimestampMs: 3000, Factors: uniform(1)},
		{TimestampMs: 1000, Factors: uniform(0)},
		{TimestampMs: 2000, Factors: uniform(0.5)},
	}

	tests := []struct {
		name string
		at   int64
		want Factors
	}{
		{"before first clamps to first", 0, uniform(0)},
		{"at first", 1000, uniform(0)},
		{"between first pair", 1500, uniform(0.25)},
		{"at middle sample", 2000, uniform(0.5)},
		{"between second pair", 2750, uniform(0.875)},
		{"after last clamps to last", 9000, uniform(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InterpolateFactors(samples, tt.at)
			for _, name := range FactorNames {
				assert.InDelta(t, tt.want.Get(name), got.Get(name), 1e-12, string(name))
			}
		})
	}

	// input order must be left alone
	assert.Equal(t, int64(3000), samples[0].TimestampMs)
}

func TestInterpolateFactors_Empty(t *testing.T) {
	assert.Equal(t, NeutralFactors, InterpolateFactors(nil, 12345))
}

func TestInterpolateFactors_ClampsSampleValues(t *testing.T) {
	samples := []FactorSample{{
		TimestampMs: 0,
		Factors: Factors{
			Altitude:       math.NaN(),
			Turbidity:      math.Inf(1),
			Humidity:       -3,
			CloudFraction:  7,
			OzoneFactor:    0.4,
			LightPollution: math.Inf(-1),
		},
	}}

	got := InterpolateFactors(samples, 0)
	assert.Equal(t, Factors{CloudFraction: 1, OzoneFactor: 0.4}, got)
}

func TestInterpolateFactors_DuplicateTimestamps(t *testing.T) {
	samples := []FactorSample{
		{TimestampMs: 1000, Factors: uniform(0.2)},
		{TimestampMs: 1000, Factors: uniform(0.4)},
		{TimestampMs: 2000, Factors: uniform(0.8)},
	}

	got := InterpolateFactors(samples, 1500)
	assert.InDelta(t, 0.6, got.Humidity, 1e-12)
}

func TestFactorOverrides_Apply(t *testing.T) {
	overrides := &FactorOverrides{}
	assert.True(t, overrides.SetOverride(FactorCloudFraction, 2))
	assert.True(t, overrides.SetOverride(FactorHumidity, -1))
	assert.False(t, overrides.SetOverride("visibility", 1))

	got := overrides.Apply(uniform(0.5))
	assert.Equal(t, 1.0, got.CloudFraction)
	assert.Equal(t, 0.0, got.Humidity)
	assert.Equal(t, 0.5, got.Turbidity)

	var none *FactorOverrides
	assert.Equal(t, uniform(0.5), none.Apply(uniform(0.5)))
}
