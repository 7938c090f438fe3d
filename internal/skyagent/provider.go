package skyagent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/saaga0h/jeeves-sky/internal/sky"
)

const (
	// ReasonSamplesUnavailable is reported when no samples fall in the retention window
	ReasonSamplesUnavailable = "factor_samples_unavailable"
	// ReasonSamplesPartial is reported when only some factors have live provenance
	ReasonSamplesPartial = "factor_samples_partial"
	// ReasonSamplesNotLive is reported when samples exist but no factor has live provenance
	ReasonSamplesNotLive = "factor_samples_not_live"

	noteStaleProvenance = "last live reading outside retention window"
)

// EnvironmentProvider resolves the timezone, samples and upstream diagnostics
// the engine needs for one location and instant
type EnvironmentProvider interface {
	Resolve(ctx context.Context, loc Location, at time.Time) (sky.Environment, error)
}

// RedisEnvironmentProvider serves environments from samples stored by the agent
type RedisEnvironmentProvider struct {
	storage   *Storage
	retention time.Duration
	logger    *slog.Logger
}

// NewRedisEnvironmentProvider creates a provider reading samples within
// ±retention of the requested instant
func NewRedisEnvironmentProvider(storage *Storage, retention time.Duration, logger *slog.Logger) *RedisEnvironmentProvider {
	return &RedisEnvironmentProvider{
		storage:   storage,
		retention: retention,
		logger:    logger,
	}
}

// Resolve implements EnvironmentProvider. An unnamed location has no stored
// samples and resolves to neutral fallback factors.
func (p *RedisEnvironmentProvider) Resolve(ctx context.Context, loc Location, at time.Time) (sky.Environment, error) {
	atMs := at.UnixMilli()
	window := p.retention.Milliseconds()

	var samples []sky.FactorSample
	if loc.Name != "" {
		var err error
		samples, err = p.storage.LoadSamples(ctx, loc.Name, atMs-window, atMs+window)
		if err != nil {
			return sky.Environment{}, fmt.Errorf("failed to resolve environment for %s: %w", loc.Name, err)
		}
	}

	env := sky.Environment{
		Timezone: loc.Timezone,
		Samples:  samples,
	}

	if len(samples) == 0 {
		p.logger.Debug("No atmospheric samples in window", "location", loc.Name)
		env.Diagnostics = sky.Diagnostics{
			ProviderQuality: sky.QualityFallback,
			Degraded:        true,
			FallbackReasons: []string{ReasonSamplesUnavailable},
		}
		return env, nil
	}

	meta, err := p.storage.LoadMeta(ctx, loc.Name)
	if err != nil {
		return sky.Environment{}, fmt.Errorf("failed to resolve environment for %s: %w", loc.Name, err)
	}

	env.Diagnostics = summarizeProvenance(meta, atMs, window)
	return env, nil
}

// summarizeProvenance builds upstream diagnostics from per-factor metadata.
// Factors without metadata are left out so the engine marks them fallback.
func summarizeProvenance(meta map[sky.FactorName]factorMeta, atMs, windowMs int64) sky.Diagnostics {
	factors := make(map[sky.FactorName]sky.FactorSummary, len(meta))
	live := 0
	for _, name := range sky.FactorNames {
		m, ok := meta[name]
		if !ok {
			continue
		}
		summary := sky.FactorSummary{
			Source:     m.Source,
			Confidence: m.Confidence,
		}
		if atMs-m.UpdatedAtMs > windowMs {
			summary.Source = sky.SourceFallback
			summary.Notes = []string{noteStaleProvenance}
		}
		if summary.Source == sky.SourceLive {
			live++
		}
		factors[name] = summary
	}

	diag := sky.Diagnostics{Factors: factors}
	switch {
	case live == len(sky.FactorNames):
		diag.ProviderQuality = sky.QualityLive
	case live > 0:
		diag.ProviderQuality = sky.QualityMixed
		diag.Degraded = true
		diag.FallbackReasons = []string{ReasonSamplesPartial}
	default:
		diag.ProviderQuality = sky.QualityFallback
		diag.Degraded = true
		diag.FallbackReasons = []string{ReasonSamplesNotLive}
	}
	return diag
}
