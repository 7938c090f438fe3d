package sky

const (
	// InterpolationHourlyLinear names the sample interpolation scheme.
	InterpolationHourlyLinear = "hourly_linear"

	ReasonPolarImputed        = "polar_conditions_imputed_events"
	ReasonTimezoneUnresolved  = "timezone_unresolved"
	noteManualOverride        = "manual override"
	noteNeutralDefault        = "neutral default, no samples"
	noteNoUpstreamSummary     = "no upstream summary"
	fallbackSummaryConfidence = 0.3
)

// mergeInput gathers what MergeDiagnostics needs beyond the upstream payload.
type mergeInput struct {
	upstream           Diagnostics
	current            Factors
	hasSamples         bool
	overrides          *FactorOverrides
	polarImputed       bool
	timezoneUnresolved bool
}

// mergeDiagnostics builds the result diagnostics. It never aliases the
// upstream maps or slices.
func mergeDiagnostics(in mergeInput) Diagnostics {
	factors := make(map[FactorName]FactorSummary, len(FactorNames))
	fallbacks := 0
	for _, name := range FactorNames {
		summary, ok := in.upstream.Factors[name]
		if ok {
			summary.Notes = append([]string{}, summary.Notes...)
			summary.Confidence = ClampUnit(summary.Confidence)
			if summary.Source == "" {
				summary.Source = SourceLive
			}
		} else {
			summary = FactorSummary{
				Source:     SourceFallback,
				Confidence: fallbackSummaryConfidence,
				Notes:      []string{noteNoUpstreamSummary},
			}
			if !in.hasSamples {
				summary.Confidence = 0
				summary.Notes = []string{noteNeutralDefault}
			}
		}
		summary.Value = ClampUnit(in.current.Get(name))

		if v, set := in.overrides.Lookup(name); set {
			summary.Value = v
			summary.Source = SourceOverride
			summary.Confidence = 1
			summary.Notes = append(summary.Notes, noteManualOverride)
		}
		if summary.Source == SourceFallback {
			fallbacks++
		}
		factors[name] = summary
	}

	reasons := append([]string{}, in.upstream.FallbackReasons...)
	if in.timezoneUnresolved {
		reasons = appendUnique(reasons, ReasonTimezoneUnresolved)
	}
	if in.polarImputed {
		reasons = appendUnique(reasons, ReasonPolarImputed)
	}

	// without an upstream quality, samples whose factors carry no live
	// summary count as mixed
	quality := in.upstream.ProviderQuality
	if quality == "" {
		switch {
		case !in.hasSamples:
			quality = QualityFallback
		case fallbacks > 0:
			quality = QualityMixed
		default:
			quality = QualityLive
		}
	}

	return Diagnostics{
		Factors:               factors,
		ProviderQuality:       quality,
		Degraded:              in.upstream.Degraded || in.polarImputed || in.timezoneUnresolved,
		FallbackReasons:       reasons,
		Interpolation:         InterpolationHourlyLinear,
		PolarConditionImputed: in.polarImputed,
	}
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
