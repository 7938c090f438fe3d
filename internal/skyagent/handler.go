package skyagent

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/saaga0h/jeeves-sky/internal/sky"
	apperrors "github.com/saaga0h/jeeves-sky/pkg/errors"
)

const (
	defaultSimilarLimit = 5
	maxSimilarLimit     = 50
)

// SnapshotFinder looks up archived rings by colour similarity
type SnapshotFinder interface {
	FindSimilar(ctx context.Context, result sky.Result, limit int) ([]*Snapshot, error)
}

// Handler exposes the sky service over HTTP
type Handler struct {
	service   *Service
	locations *Locations
	archive   SnapshotFinder
	now       func() time.Time
	logger    *slog.Logger
}

// NewHandler constructs the HTTP handler. archive may be nil.
func NewHandler(service *Service, locations *Locations, archive SnapshotFinder, logger *slog.Logger) *Handler {
	return &Handler{
		service:   service,
		locations: locations,
		archive:   archive,
		now:       time.Now,
		logger:    logger.With("component", "http.handler"),
	}
}

// GetSky handles GET /api/v1/sky?lat&long&at&secondOrder[&location|&tz]
func (h *Handler) GetSky(c *gin.Context) {
	req, err := h.parseSkyRequest(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	result, err := h.service.Compute(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// GetLocations handles GET /api/v1/locations
func (h *Handler) GetLocations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"default":   h.locations.Default().Name,
		"locations": h.locations.All(),
	})
}

// GetSimilar handles GET /api/v1/sky/similar?location&limit. It computes the
// current ring for the location and returns the closest archived rings.
func (h *Handler) GetSimilar(c *gin.Context) {
	if h.archive == nil {
		abortWithError(c, apperrors.Wrap(apperrors.CodeArchiveDisabled, "sky archive is not enabled", nil))
		return
	}

	loc, err := h.lookupLocation(c.Query("location"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	limit := defaultSimilarLimit
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxSimilarLimit {
			abortWithError(c, apperrors.Wrap(apperrors.CodeInvalidInput, "limit must be an integer between 1 and 50", err))
			return
		}
	}

	result, err := h.service.ComputeFor(c.Request.Context(), loc, h.now())
	if err != nil {
		abortWithError(c, err)
		return
	}

	snapshots, err := h.archive.FindSimilar(c.Request.Context(), result, limit)
	if err != nil {
		abortWithError(c, apperrors.Wrap(apperrors.CodeArchiveError, "failed to query sky archive", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"location": loc.Name, "snapshots": snapshots})
}

// parseSkyRequest validates query parameters. lat/long may be omitted when a
// location is named, in which case the profile's coordinates and overrides are used.
// Coordinates given with tz and no location form an unnamed location on that
// zone's local day; without tz they use the default profile.
func (h *Handler) parseSkyRequest(c *gin.Context) (Request, error) {
	name := c.Query("location")
	loc, err := h.lookupLocation(name)
	if err != nil {
		return Request{}, err
	}

	req := Request{
		Location:    loc,
		Coordinates: loc.Coordinates(),
		At:          h.now(),
	}

	latRaw, longRaw := c.Query("lat"), c.Query("long")
	switch {
	case latRaw == "" && longRaw == "":
		if name == "" {
			return Request{}, apperrors.Wrap(apperrors.CodeInvalidInput, "lat and long are required", nil)
		}
		req.Overrides = loc.Overrides
	case latRaw == "" || longRaw == "":
		return Request{}, apperrors.Wrap(apperrors.CodeInvalidInput, "lat and long must be given together", nil)
	default:
		lat, err := parseCoordinate(latRaw, "lat", 90)
		if err != nil {
			return Request{}, err
		}
		long, err := parseCoordinate(longRaw, "long", 180)
		if err != nil {
			return Request{}, err
		}
		req.Coordinates = sky.Coordinates{Lat: lat, Long: long}
		if name != "" {
			req.Overrides = loc.Overrides
		}
	}

	if tz := c.Query("tz"); tz != "" {
		if name != "" {
			return Request{}, apperrors.Wrap(apperrors.CodeInvalidInput, "tz cannot be combined with location", nil)
		}
		if latRaw == "" {
			return Request{}, apperrors.Wrap(apperrors.CodeInvalidInput, "tz requires lat and long", nil)
		}
		if _, err := time.LoadLocation(tz); err != nil {
			return Request{}, apperrors.Wrap(apperrors.CodeInvalidInput, "unknown tz "+tz, err)
		}
		req.Location = Location{
			Latitude:  req.Coordinates.Lat,
			Longitude: req.Coordinates.Long,
			Timezone:  tz,
		}
	}

	if raw := c.Query("at"); raw != "" {
		ms, err := ParseInstant(raw)
		if err != nil {
			return Request{}, apperrors.Wrap(apperrors.CodeInvalidInput, "at must be RFC3339 or epoch milliseconds", err)
		}
		req.At = time.UnixMilli(ms)
	}

	if raw := c.Query("secondOrder"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return Request{}, apperrors.Wrap(apperrors.CodeInvalidInput, "secondOrder must be a boolean", err)
		}
		req.SecondOrder = &v
	}

	return req, nil
}

func (h *Handler) lookupLocation(name string) (Location, error) {
	if name == "" {
		return h.locations.Default(), nil
	}
	loc, ok := h.locations.Get(name)
	if !ok {
		return Location{}, apperrors.Wrap(apperrors.CodeUnknownLocation, "unknown location "+name, nil)
	}
	return loc, nil
}

func parseCoordinate(raw, name string, limit float64) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeInvalidInput, name+" must be a number", err)
	}
	if math.IsNaN(v) || v < -limit || v > limit {
		return 0, apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("%s must be between -%g and %g", name, limit, limit), nil)
	}
	return v, nil
}
