package skyagent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/saaga0h/jeeves-sky/internal/sky"
	"github.com/saaga0h/jeeves-sky/pkg/mqtt"
)

// samplePayload is the wire form of an atmospheric sample:
//
//	{"timestamp": "2024-06-01T12:00:00Z", "factors": {"turbidity": 0.4}, "source": "live", "confidence": 0.8}
//
// timestamp may also be epoch milliseconds.
type samplePayload struct {
	Timestamp  json.RawMessage    `json:"timestamp"`
	Factors    map[string]float64 `json:"factors"`
	Source     string             `json:"source"`
	Confidence *float64           `json:"confidence"`
}

// SampleMessage is a parsed atmospheric sample for one location. Values holds
// only the factors the payload carried, clamped into [0,1].
type SampleMessage struct {
	Location    string
	TimestampMs int64
	Values      map[sky.FactorName]float64
	Provided    []sky.FactorName
	Source      sky.FactorSource
	Confidence  float64
}

// ParseSampleMessage decodes a sample published on automation/context/atmosphere/{location}.
// now is used when the payload carries no timestamp.
func ParseSampleMessage(topic string, payload []byte, now time.Time) (*SampleMessage, error) {
	location, ok := mqtt.LocationFromTopic(topic)
	if !ok {
		return nil, fmt.Errorf("invalid topic format: %s", topic)
	}

	var p samplePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	ts, err := parseTimestamp(p.Timestamp, now)
	if err != nil {
		return nil, err
	}

	values := make(map[sky.FactorName]float64, len(p.Factors))
	var provided []sky.FactorName
	for _, name := range sky.FactorNames {
		v, ok := p.Factors[string(name)]
		if !ok {
			continue
		}
		values[name] = sky.ClampUnit(v)
		provided = append(provided, name)
	}
	if len(provided) == 0 {
		return nil, fmt.Errorf("sample for %s carries no known factors", location)
	}

	source := sky.SourceLive
	switch sky.FactorSource(p.Source) {
	case "", sky.SourceLive:
	case sky.SourceFallback:
		source = sky.SourceFallback
	default:
		return nil, fmt.Errorf("unsupported sample source %q", p.Source)
	}

	confidence := 1.0
	if p.Confidence != nil {
		confidence = sky.ClampUnit(*p.Confidence)
	}

	return &SampleMessage{
		Location:    location,
		TimestampMs: ts,
		Values:      values,
		Provided:    provided,
		Source:      source,
		Confidence:  confidence,
	}, nil
}

// parseTimestamp accepts RFC3339 strings, epoch milliseconds as a number or
// a numeric string. Missing or null falls back to now.
func parseTimestamp(raw json.RawMessage, now time.Time) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return now.UnixMilli(), nil
	}

	var ms float64
	if err := json.Unmarshal(raw, &ms); err == nil {
		return int64(ms), nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("invalid timestamp %s", string(raw))
	}
	return ParseInstant(s)
}

// ParseInstant parses an RFC3339 timestamp or epoch milliseconds.
func ParseInstant(s string) (int64, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q: expected RFC3339 or epoch milliseconds", s)
	}
	return t.UnixMilli(), nil
}
