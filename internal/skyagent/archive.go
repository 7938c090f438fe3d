package skyagent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/saaga0h/jeeves-sky/internal/sky"
	"github.com/saaga0h/jeeves-sky/pkg/postgres"
)

// SignatureDimensions is the length of a colour signature: RGB per stop
const SignatureDimensions = sky.StopCount * 3

const schemaSQL = `
	CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS sky_snapshots (
		id              UUID PRIMARY KEY,
		location        TEXT NOT NULL,
		computed_at     TIMESTAMPTZ NOT NULL,
		timezone        TEXT NOT NULL,
		degraded        BOOLEAN NOT NULL,
		polar_imputed   BOOLEAN NOT NULL,
		color_signature vector(51) NOT NULL,
		result          JSONB NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS sky_snapshots_location_idx ON sky_snapshots (location, computed_at DESC);
`

// Snapshot is one archived ring
type Snapshot struct {
	ID           uuid.UUID       `json:"id"`
	Location     string          `json:"location"`
	ComputedAt   time.Time       `json:"computedAt"`
	Timezone     string          `json:"timezone"`
	Degraded     bool            `json:"degraded"`
	PolarImputed bool            `json:"polarImputed"`
	Signature    pgvector.Vector `json:"-"`
	Result       sky.Result      `json:"result"`
	Distance     float64         `json:"distance,omitempty"`
}

// Archive stores published rings in Postgres with a pgvector colour signature
type Archive struct {
	pg     postgres.Client
	logger *slog.Logger
}

// NewArchive creates an archive on an already connected client
func NewArchive(pg postgres.Client, logger *slog.Logger) *Archive {
	return &Archive{
		pg:     pg,
		logger: logger,
	}
}

// EnsureSchema creates the vector extension and the snapshots table
func (a *Archive) EnsureSchema(ctx context.Context) error {
	if _, err := a.pg.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create sky_snapshots schema: %w", err)
	}
	return nil
}

// Store inserts a snapshot of result for location and returns its ID
func (a *Archive) Store(ctx context.Context, location string, result sky.Result) (uuid.UUID, error) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	id := uuid.New()
	query := `
		INSERT INTO sky_snapshots (
			id, location, computed_at, timezone, degraded, polar_imputed, color_signature, result
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = a.pg.Exec(ctx, query,
		id,
		location,
		time.UnixMilli(result.TimestampMs).UTC(),
		result.Timezone,
		result.Diagnostics.Degraded,
		result.Diagnostics.PolarConditionImputed,
		ColorSignature(result),
		resultJSON,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert sky snapshot: %w", err)
	}

	a.logger.Debug("Archived sky snapshot", "id", id, "location", location)
	return id, nil
}

// FindSimilar returns up to limit archived snapshots whose colour signature is
// closest (cosine distance) to result, most similar first
func (a *Archive) FindSimilar(ctx context.Context, result sky.Result, limit int) ([]*Snapshot, error) {
	query := `
		SELECT
			id, location, computed_at, timezone, degraded, polar_imputed,
			color_signature, result,
			color_signature <=> $1 AS distance
		FROM sky_snapshots
		ORDER BY color_signature <=> $1
		LIMIT $2
	`

	rows, err := a.pg.Query(ctx, query, ColorSignature(result), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*Snapshot
	for rows.Next() {
		var s Snapshot
		var resultJSON []byte

		err := rows.Scan(
			&s.ID,
			&s.Location,
			&s.ComputedAt,
			&s.Timezone,
			&s.Degraded,
			&s.PolarImputed,
			&s.Signature,
			&resultJSON,
			&s.Distance,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}

		if err := json.Unmarshal(resultJSON, &s.Result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal snapshot result: %w", err)
		}
		snapshots = append(snapshots, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot rows: %w", err)
	}

	return snapshots, nil
}

// ColorSignature flattens the stop colours into RGB components in [0,1],
// in canonical stop order regardless of the ring's time order
func ColorSignature(result sky.Result) pgvector.Vector {
	byName := make(map[sky.StopName]string, len(result.Stops))
	for _, stop := range result.Stops {
		byName[stop.Name] = stop.ColorHex
	}

	vec := make([]float32, 0, SignatureDimensions)
	for _, name := range sky.StopOrder {
		r, g, b := sky.RGB(byName[name])
		vec = append(vec, float32(r), float32(g), float32(b))
	}
	return pgvector.NewVector(vec)
}
