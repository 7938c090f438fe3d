package skyagent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/saaga0h/jeeves-sky/internal/sky"
	"github.com/saaga0h/jeeves-sky/pkg/config"
	apperrors "github.com/saaga0h/jeeves-sky/pkg/errors"
	"github.com/saaga0h/jeeves-sky/pkg/mqtt"
	"github.com/saaga0h/jeeves-sky/pkg/redis"
)

// Archiver persists published rings
type Archiver interface {
	Store(ctx context.Context, location string, result sky.Result) (uuid.UUID, error)
}

// SkyContext is the retained payload published for each location
type SkyContext struct {
	Location    string     `json:"location"`
	Result      sky.Result `json:"result"`
	Sun         SunContext `json:"sun"`
	GeneratedAt string     `json:"generatedAt"`
}

// Agent ingests atmospheric samples and periodically publishes sky rings
type Agent struct {
	mqtt      mqtt.Client
	redis     redis.Client
	storage   *Storage
	service   *Service
	locations *Locations
	archive   Archiver
	cfg       *config.Config
	logger    *slog.Logger
	now       func() time.Time
}

// NewAgent creates a new sky agent. archive may be nil.
func NewAgent(mqttClient mqtt.Client, redisClient redis.Client, storage *Storage, service *Service,
	locations *Locations, archive Archiver, cfg *config.Config, logger *slog.Logger) *Agent {
	return &Agent{
		mqtt:      mqttClient,
		redis:     redisClient,
		storage:   storage,
		service:   service,
		locations: locations,
		archive:   archive,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Start connects, subscribes to samples and publishes rings until ctx is cancelled
func (a *Agent) Start(ctx context.Context) error {
	a.logger.Info("Starting sky agent",
		"service_name", a.cfg.ServiceName,
		"mqtt_broker", a.cfg.MQTTAddress(),
		"locations", len(a.locations.All()))

	if err := a.mqtt.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to MQTT: %w", err)
	}

	if err := a.redis.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}

	if err := a.mqtt.Subscribe(mqtt.TopicAtmosphereSamples, 0, a.handleSample); err != nil {
		return fmt.Errorf("failed to subscribe to atmosphere samples: %w", err)
	}

	a.logger.Info("Sky agent started",
		"subscribed_topic", mqtt.TopicAtmosphereSamples,
		"publish_interval", a.cfg.PublishInterval())

	a.publishAll(ctx)

	ticker := time.NewTicker(a.cfg.PublishInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Sky agent stopping")
			return nil
		case <-ticker.C:
			a.publishAll(ctx)
		}
	}
}

// Stop gracefully stops the sky agent
func (a *Agent) Stop() error {
	a.logger.Info("Stopping sky agent")

	a.mqtt.Disconnect()

	if err := a.redis.Close(); err != nil {
		a.logger.Error("Error closing Redis connection", "error", err)
		return err
	}

	a.logger.Info("Sky agent stopped")
	return nil
}

// handleSample stores an incoming atmospheric sample
func (a *Agent) handleSample(msg mqtt.Message) {
	topic := msg.Topic()

	sample, err := ParseSampleMessage(topic, msg.Payload(), a.now())
	if err != nil {
		a.logger.Error("Failed to parse atmospheric sample", "topic", topic, "error", err)
		return
	}

	if _, ok := a.locations.Get(sample.Location); !ok {
		a.logger.Debug("Storing sample for unconfigured location", "location", sample.Location)
	}

	if err := a.storage.StoreSample(context.Background(), sample); err != nil {
		a.logger.Error("Failed to store atmospheric sample", "location", sample.Location, "error", err)
		return
	}

	a.logger.Info("Atmospheric sample stored",
		"location", sample.Location,
		"source", sample.Source,
		"factors", len(sample.Provided))
}

// publishAll publishes the current ring for every configured location.
// One failing location does not stop the others; the previous retained ring
// stays on the broker.
func (a *Agent) publishAll(ctx context.Context) {
	at := a.now()
	for _, loc := range a.locations.All() {
		err := a.publishLocation(ctx, loc, at)
		switch {
		case err == nil:
		case apperrors.IsCode(err, apperrors.CodeProviderError):
			a.logger.Warn("Sky environment unavailable, skipping publish", "location", loc.Name, "error", err)
		default:
			a.logger.Error("Failed to publish sky ring", "location", loc.Name, "error", err)
		}
	}
}

func (a *Agent) publishLocation(ctx context.Context, loc Location, at time.Time) error {
	result, err := a.service.ComputeFor(ctx, loc, at)
	if err != nil {
		return err
	}

	payload := SkyContext{
		Location:    loc.Name,
		Result:      result,
		Sun:         CalculateSunContext(loc.Latitude, loc.Longitude, at),
		GeneratedAt: at.UTC().Format(time.RFC3339),
	}

	topic := mqtt.SkyTopic(loc.Name)
	if err := mqtt.PublishJSON(a.mqtt, topic, 1, true, payload); err != nil {
		return err
	}

	a.logger.Info("Published sky ring",
		"topic", topic,
		"degraded", result.Diagnostics.Degraded,
		"quality", result.Diagnostics.ProviderQuality)

	if a.archive != nil {
		if _, err := a.archive.Store(ctx, loc.Name, result); err != nil {
			a.logger.Warn("Failed to archive sky ring", "location", loc.Name, "error", err)
		}
	}
	return nil
}
