package skyagent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/saaga0h/jeeves-sky/internal/sky"
	"github.com/saaga0h/jeeves-sky/pkg/redis"
)

// storedSample is the sorted set member for one sample. Factors holds only
// the factors the sample reported.
type storedSample struct {
	TimestampMs int64                      `json:"timestampMs"`
	Factors     map[sky.FactorName]float64 `json:"factors"`
	Source      string                     `json:"source"`
	Confidence  float64                    `json:"confidence"`
}

// factorMeta is the provenance of the most recent reading of one factor
type factorMeta struct {
	Source      sky.FactorSource `json:"source"`
	Confidence  float64          `json:"confidence"`
	UpdatedAtMs int64            `json:"updatedAtMs"`
}

// Storage handles Redis storage of atmospheric samples
// - sky:factors:{location} (sorted set, score = sample timestamp ms)
// - meta:sky:{location} (hash, field = factor name, value = factorMeta JSON)
type Storage struct {
	redis     redis.Client
	retention time.Duration
	logger    *slog.Logger
}

// NewStorage creates a new storage handler
func NewStorage(redisClient redis.Client, retention time.Duration, logger *slog.Logger) *Storage {
	return &Storage{
		redis:     redisClient,
		retention: retention,
		logger:    logger,
	}
}

// StoreSample adds a sample, refreshes per-factor provenance and trims
// samples that fell out of the retention window
func (s *Storage) StoreSample(ctx context.Context, msg *SampleMessage) error {
	key := redis.SkyFactorKey(msg.Location)
	metaKey := redis.SkyMetaKey(msg.Location)

	member, err := json.Marshal(storedSample{
		TimestampMs: msg.TimestampMs,
		Factors:     msg.Values,
		Source:      string(msg.Source),
		Confidence:  msg.Confidence,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal sample: %w", err)
	}

	if err := s.redis.ZAdd(ctx, key, float64(msg.TimestampMs), string(member)); err != nil {
		return fmt.Errorf("failed to add sample to sorted set: %w", err)
	}

	for _, name := range msg.Provided {
		meta, err := json.Marshal(factorMeta{
			Source:      msg.Source,
			Confidence:  msg.Confidence,
			UpdatedAtMs: msg.TimestampMs,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal factor metadata: %w", err)
		}
		if err := s.redis.HSet(ctx, metaKey, string(name), string(meta)); err != nil {
			s.logger.Warn("Failed to update factor metadata", "location", msg.Location, "factor", name, "error", err)
		}
	}

	cutoff := msg.TimestampMs - s.retention.Milliseconds()
	if err := s.redis.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(cutoff, 10)); err != nil {
		s.logger.Warn("Failed to trim old samples", "location", msg.Location, "error", err)
	}

	for _, k := range []string{key, metaKey} {
		if err := s.redis.Expire(ctx, k, s.retention); err != nil {
			s.logger.Warn("Failed to set TTL", "key", k, "error", err)
		}
	}

	s.logger.Debug("Stored atmospheric sample",
		"location", msg.Location,
		"timestamp_ms", msg.TimestampMs,
		"factors", len(msg.Provided))

	return nil
}

// LoadSamples returns samples within [fromMs, toMs], oldest first.
// Factors a sample did not report are filled from the samples that did
// (see fillFactorGaps). Members that fail to decode are skipped.
func (s *Storage) LoadSamples(ctx context.Context, location string, fromMs, toMs int64) ([]sky.FactorSample, error) {
	members, err := s.redis.ZRangeByScoreWithScores(ctx, redis.SkyFactorKey(location), float64(fromMs), float64(toMs))
	if err != nil {
		return nil, fmt.Errorf("failed to load samples: %w", err)
	}

	stored := make([]storedSample, 0, len(members))
	for _, m := range members {
		var sample storedSample
		if err := json.Unmarshal([]byte(m.Member), &sample); err != nil {
			s.logger.Warn("Skipping undecodable sample", "location", location, "error", err)
			continue
		}
		sample.TimestampMs = int64(m.Score)
		stored = append(stored, sample)
	}
	return fillFactorGaps(stored), nil
}

// fillFactorGaps expands stored samples into full factor vectors. A factor
// missing from a sample is interpolated between the nearest earlier and later
// samples that reported it, or copied from the only side that did. A factor
// no sample reported takes its neutral value. stored must be oldest first.
func fillFactorGaps(stored []storedSample) []sky.FactorSample {
	samples := make([]sky.FactorSample, len(stored))
	for i, st := range stored {
		samples[i].TimestampMs = st.TimestampMs
	}

	for _, name := range sky.FactorNames {
		var reported []int
		for i, st := range stored {
			if _, ok := st.Factors[name]; ok {
				reported = append(reported, i)
			}
		}

		next := 0
		for i := range stored {
			for next < len(reported) && reported[next] < i {
				next++
			}

			var v float64
			switch {
			case len(reported) == 0:
				v = sky.NeutralFactors.Get(name)
			case next < len(reported) && reported[next] == i:
				v = stored[i].Factors[name]
			case next == 0:
				v = stored[reported[0]].Factors[name]
			case next == len(reported):
				v = stored[reported[next-1]].Factors[name]
			default:
				a, b := stored[reported[next-1]], stored[reported[next]]
				v = a.Factors[name]
				if span := b.TimestampMs - a.TimestampMs; span > 0 {
					t := float64(stored[i].TimestampMs-a.TimestampMs) / float64(span)
					v += (b.Factors[name] - v) * t
				}
			}
			samples[i].Factors.Set(name, sky.ClampUnit(v))
		}
	}
	return samples
}

// LoadMeta returns the provenance of each factor that has ever been reported
func (s *Storage) LoadMeta(ctx context.Context, location string) (map[sky.FactorName]factorMeta, error) {
	fields, err := s.redis.HGetAll(ctx, redis.SkyMetaKey(location))
	if err != nil {
		return nil, fmt.Errorf("failed to load factor metadata: %w", err)
	}

	meta := make(map[sky.FactorName]factorMeta, len(fields))
	for field, value := range fields {
		var m factorMeta
		if err := json.Unmarshal([]byte(value), &m); err != nil {
			s.logger.Warn("Skipping undecodable factor metadata", "location", location, "factor", field, "error", err)
			continue
		}
		meta[sky.FactorName(field)] = m
	}
	return meta, nil
}
