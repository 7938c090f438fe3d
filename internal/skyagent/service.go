package skyagent

import (
	"context"
	"log/slog"
	"time"

	"github.com/saaga0h/jeeves-sky/internal/sky"
	apperrors "github.com/saaga0h/jeeves-sky/pkg/errors"
)

// Request describes one ring computation
type Request struct {
	Location    Location
	Coordinates sky.Coordinates
	At          time.Time
	SecondOrder *bool
	Overrides   *sky.FactorOverrides
}

// Service resolves environments and runs the engine
type Service struct {
	provider    EnvironmentProvider
	secondOrder bool
	logger      *slog.Logger
}

// NewService creates a sky service. secondOrder is the default used when a
// request does not say.
func NewService(provider EnvironmentProvider, secondOrder bool, logger *slog.Logger) *Service {
	return &Service{
		provider:    provider,
		secondOrder: secondOrder,
		logger:      logger,
	}
}

// Compute resolves the environment for req.Location and computes the ring at
// req.Coordinates. Provider failures are returned as provider_error.
func (s *Service) Compute(ctx context.Context, req Request) (sky.Result, error) {
	env, err := s.provider.Resolve(ctx, req.Location, req.At)
	if err != nil {
		return sky.Result{}, apperrors.Wrap(apperrors.CodeProviderError, "failed to resolve sky environment", err)
	}

	secondOrder := s.secondOrder
	if req.SecondOrder != nil {
		secondOrder = *req.SecondOrder
	}

	result := sky.ComputeSky24h(req.Coordinates, env, req.At.UnixMilli(), sky.Options{
		FactorOverrides:  req.Overrides,
		ApplySecondOrder: &secondOrder,
	})

	if result.Diagnostics.Degraded {
		s.logger.Debug("Computed degraded sky ring",
			"location", req.Location.Name,
			"quality", result.Diagnostics.ProviderQuality,
			"reasons", result.Diagnostics.FallbackReasons)
	}
	return result, nil
}

// ComputeFor computes the ring for a location profile with its own overrides
func (s *Service) ComputeFor(ctx context.Context, loc Location, at time.Time) (sky.Result, error) {
	return s.Compute(ctx, Request{
		Location:    loc,
		Coordinates: loc.Coordinates(),
		At:          at,
		Overrides:   loc.Overrides,
	})
}
