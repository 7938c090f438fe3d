package skyagent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/jeeves-sky/internal/sky"
	"github.com/saaga0h/jeeves-sky/pkg/redis"
)

const testRetention = 36 * time.Hour

func sampleAt(t *testing.T, at time.Time, payload string) *SampleMessage {
	t.Helper()
	msg, err := ParseSampleMessage("automation/context/atmosphere/home", []byte(payload), at)
	require.NoError(t, err)
	return msg
}

func TestStorage_StoreAndLoad(t *testing.T) {
	rdb := newFakeRedis()
	storage := NewStorage(rdb, testRetention, testLogger())
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, storage.StoreSample(ctx, sampleAt(t, at, `{"factors":{"turbidity":0.2,"cloud_fraction":0.8}}`)))
	}

	samples, err := storage.LoadSamples(ctx, "home", base.UnixMilli(), base.Add(2*time.Hour).UnixMilli())
	require.NoError(t, err)
	require.Len(t, samples, 3)
	assert.Equal(t, base.UnixMilli(), samples[0].TimestampMs)
	assert.Equal(t, 0.8, samples[2].Factors.CloudFraction)

	meta, err := storage.LoadMeta(ctx, "home")
	require.NoError(t, err)
	assert.Len(t, meta, 2)
	assert.Equal(t, sky.SourceLive, meta[sky.FactorTurbidity].Source)
	assert.Equal(t, base.Add(2*time.Hour).UnixMilli(), meta[sky.FactorCloudFraction].UpdatedAtMs)

	assert.Equal(t, testRetention, rdb.ttls[redis.SkyFactorKey("home")])
	assert.Equal(t, testRetention, rdb.ttls[redis.SkyMetaKey("home")])
}

func TestStorage_SingleFactorSamplesDoNotMixInNeutralValues(t *testing.T) {
	storage := NewStorage(newFakeRedis(), testRetention, testLogger())
	ctx := context.Background()
	noon := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	later := noon.Add(30 * time.Minute)

	require.NoError(t, storage.StoreSample(ctx, sampleAt(t, noon, `{"factors":{"turbidity":0.9}}`)))
	require.NoError(t, storage.StoreSample(ctx, sampleAt(t, later, `{"factors":{"cloud_fraction":0.9}}`)))

	provider := NewRedisEnvironmentProvider(storage, testRetention, testLogger())
	env, err := provider.Resolve(ctx, helsinki, later)
	require.NoError(t, err)
	require.Len(t, env.Samples, 2)

	atLater := sky.InterpolateFactors(env.Samples, later.UnixMilli())
	assert.Equal(t, 0.9, atLater.Turbidity)
	assert.Equal(t, 0.9, atLater.CloudFraction)

	atNoon := sky.InterpolateFactors(env.Samples, noon.UnixMilli())
	assert.Equal(t, 0.9, atNoon.Turbidity)
	assert.Equal(t, 0.9, atNoon.CloudFraction)

	// never reported by any sample
	assert.Equal(t, sky.NeutralFactors.Humidity, atLater.Humidity)
	assert.Equal(t, sky.SourceLive, env.Diagnostics.Factors[sky.FactorTurbidity].Source)
}

func TestFillFactorGaps(t *testing.T) {
	stored := []storedSample{
		{TimestampMs: 0, Factors: map[sky.FactorName]float64{sky.FactorHumidity: 0.2}},
		{TimestampMs: 100, Factors: map[sky.FactorName]float64{sky.FactorTurbidity: 0.4}},
		{TimestampMs: 300, Factors: map[sky.FactorName]float64{sky.FactorHumidity: 0.6, sky.FactorTurbidity: 0.8}},
		{TimestampMs: 400, Factors: map[sky.FactorName]float64{sky.FactorAltitude: 0.7}},
	}

	samples := fillFactorGaps(stored)
	require.Len(t, samples, 4)

	humidity := []float64{0.2, 0.2 + 0.4/3, 0.6, 0.6}
	turbidity := []float64{0.4, 0.4, 0.8, 0.8}
	for i, s := range samples {
		assert.Equal(t, stored[i].TimestampMs, s.TimestampMs)
		assert.InDelta(t, humidity[i], s.Factors.Humidity, 1e-9, "humidity[%d]", i)
		assert.InDelta(t, turbidity[i], s.Factors.Turbidity, 1e-9, "turbidity[%d]", i)
		assert.Equal(t, 0.7, s.Factors.Altitude)
		assert.Equal(t, sky.NeutralFactors.LightPollution, s.Factors.LightPollution)
	}
}

func TestStorage_TrimsOutsideRetention(t *testing.T) {
	rdb := newFakeRedis()
	storage := NewStorage(rdb, 2*time.Hour, testLogger())
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, storage.StoreSample(ctx, sampleAt(t, base, `{"factors":{"humidity":0.1}}`)))
	require.NoError(t, storage.StoreSample(ctx, sampleAt(t, base.Add(2*time.Hour), `{"factors":{"humidity":0.2}}`)))
	require.NoError(t, storage.StoreSample(ctx, sampleAt(t, base.Add(3*time.Hour), `{"factors":{"humidity":0.3}}`)))

	samples, err := storage.LoadSamples(ctx, "home", 0, base.Add(24*time.Hour).UnixMilli())
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, 0.2, samples[0].Factors.Humidity)
}

func TestStorage_SkipsUndecodableMembers(t *testing.T) {
	rdb := newFakeRedis()
	storage := NewStorage(rdb, testRetention, testLogger())
	ctx := context.Background()

	require.NoError(t, rdb.ZAdd(ctx, redis.SkyFactorKey("home"), 10, "not json"))
	require.NoError(t, rdb.HSet(ctx, redis.SkyMetaKey("home"), "turbidity", "{"))

	samples, err := storage.LoadSamples(ctx, "home", 0, 100)
	require.NoError(t, err)
	assert.Empty(t, samples)

	meta, err := storage.LoadMeta(ctx, "home")
	require.NoError(t, err)
	assert.Empty(t, meta)
}

func TestRedisEnvironmentProvider_NoSamples(t *testing.T) {
	storage := NewStorage(newFakeRedis(), testRetention, testLogger())
	provider := NewRedisEnvironmentProvider(storage, testRetention, testLogger())

	env, err := provider.Resolve(context.Background(), helsinki, time.Now())
	require.NoError(t, err)

	assert.Equal(t, "Europe/Helsinki", env.Timezone)
	assert.Empty(t, env.Samples)
	assert.Equal(t, sky.QualityFallback, env.Diagnostics.ProviderQuality)
	assert.True(t, env.Diagnostics.Degraded)
	assert.Equal(t, []string{ReasonSamplesUnavailable}, env.Diagnostics.FallbackReasons)
}

func TestRedisEnvironmentProvider_Quality(t *testing.T) {
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	allFactors := `{"factors":{"altitude":0.1,"turbidity":0.2,"humidity":0.3,"cloud_fraction":0.4,"ozone_factor":0.5,"light_pollution":0.6}}`

	tests := []struct {
		name        string
		payloads    []string
		wantQuality sky.ProviderQuality
		wantDegrade bool
		wantReasons []string
	}{
		{"all factors live", []string{allFactors}, sky.QualityLive, false, nil},
		{"some factors live", []string{`{"factors":{"turbidity":0.2}}`}, sky.QualityMixed, true, []string{ReasonSamplesPartial}},
		{"only fallback source", []string{`{"factors":{"turbidity":0.2},"source":"fallback"}`}, sky.QualityFallback, true, []string{ReasonSamplesNotLive}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := NewStorage(newFakeRedis(), testRetention, testLogger())
			for _, p := range tt.payloads {
				require.NoError(t, storage.StoreSample(context.Background(), sampleAt(t, at.Add(-time.Hour), p)))
			}
			provider := NewRedisEnvironmentProvider(storage, testRetention, testLogger())

			env, err := provider.Resolve(context.Background(), helsinki, at)
			require.NoError(t, err)
			assert.Len(t, env.Samples, len(tt.payloads))
			assert.Equal(t, tt.wantQuality, env.Diagnostics.ProviderQuality)
			assert.Equal(t, tt.wantDegrade, env.Diagnostics.Degraded)
			assert.Equal(t, tt.wantReasons, env.Diagnostics.FallbackReasons)
		})
	}
}

func TestSummarizeProvenance_Stale(t *testing.T) {
	window := int64(time.Hour / time.Millisecond)
	meta := map[sky.FactorName]factorMeta{
		sky.FactorTurbidity: {Source: sky.SourceLive, Confidence: 0.9, UpdatedAtMs: 0},
	}

	diag := summarizeProvenance(meta, 3*window, window)
	summary := diag.Factors[sky.FactorTurbidity]
	assert.Equal(t, sky.SourceFallback, summary.Source)
	assert.Equal(t, []string{noteStaleProvenance}, summary.Notes)
	assert.Equal(t, sky.QualityFallback, diag.ProviderQuality)
	assert.Equal(t, []string{ReasonSamplesNotLive}, diag.FallbackReasons)
}

func TestRedisEnvironmentProvider_UnnamedLocationSkipsStorage(t *testing.T) {
	rdb := newFakeRedis()
	rdb.failAll = errors.New("connection refused")
	provider := NewRedisEnvironmentProvider(NewStorage(rdb, testRetention, testLogger()), testRetention, testLogger())

	env, err := provider.Resolve(context.Background(), Location{Latitude: 35.68, Longitude: 139.69, Timezone: "Asia/Tokyo"}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", env.Timezone)
	assert.Empty(t, env.Samples)
	assert.Equal(t, []string{ReasonSamplesUnavailable}, env.Diagnostics.FallbackReasons)
}

func TestRedisEnvironmentProvider_StorageError(t *testing.T) {
	rdb := newFakeRedis()
	rdb.failAll = errors.New("connection refused")
	provider := NewRedisEnvironmentProvider(NewStorage(rdb, testRetention, testLogger()), testRetention, testLogger())

	_, err := provider.Resolve(context.Background(), helsinki, time.Now())
	assert.ErrorContains(t, err, "connection refused")
}
