package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
)

// Config holds the configuration for a J.E.E.V.E.S. sky agent
type Config struct {
	// MQTT configuration
	MQTTBroker   string
	MQTTPort     int
	MQTTUser     string
	MQTTPassword string
	MQTTClientID string

	// Redis configuration
	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int

	// Postgres configuration
	PostgresHost               string
	PostgresPort               int
	PostgresUser               string
	PostgresPassword           string
	PostgresDB                 string
	PostgresSSLMode            string
	PostgresMaxConnections     int
	PostgresMaxIdleConnections int
	PostgresConnMaxLifetime    time.Duration

	// Service configuration
	ServiceName string
	LogLevel    string
	APIPort     int

	// Sky agent configuration
	Location             string
	Latitude             float64
	Longitude            float64
	Timezone             string
	LocationsFile        string
	PublishIntervalSec   int
	SampleRetentionHours float64
	ApplySecondOrder     bool
	EnableArchive        bool
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		MQTTBroker:    "localhost",
		MQTTPort:      1883,
		MQTTUser:      "",
		MQTTPassword:  "",
		MQTTClientID:  "",
		RedisHost:     "localhost",
		RedisPort:     6379,
		RedisPassword: "",
		RedisDB:       0,
		// Postgres defaults
		PostgresHost:               "localhost",
		PostgresPort:               5432,
		PostgresUser:               "jeeves",
		PostgresPassword:           "",
		PostgresDB:                 "jeeves",
		PostgresSSLMode:            "disable",
		PostgresMaxConnections:     10,
		PostgresMaxIdleConnections: 2,
		PostgresConnMaxLifetime:    30 * time.Minute,
		ServiceName:                "sky-agent",
		LogLevel:                   "info",
		APIPort:                    3004,
		// Sky agent defaults (Helsinki)
		Location:             "home",
		Latitude:             60.1695,
		Longitude:            24.9354,
		Timezone:             "Europe/Helsinki",
		LocationsFile:        "",
		PublishIntervalSec:   300,
		SampleRetentionHours: 36,
		ApplySecondOrder:     true,
		EnableArchive:        false,
	}
}

// LoadFromEnv loads configuration from environment variables with JEEVES_ prefix
func (c *Config) LoadFromEnv() {
	// MQTT configuration
	if v := os.Getenv("JEEVES_MQTT_BROKER"); v != "" {
		c.MQTTBroker = v
	}
	if v := os.Getenv("JEEVES_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.MQTTPort = port
		}
	}
	if v := os.Getenv("JEEVES_MQTT_USER"); v != "" {
		c.MQTTUser = v
	}
	if v := os.Getenv("JEEVES_MQTT_PASSWORD"); v != "" {
		c.MQTTPassword = v
	}
	if v := os.Getenv("JEEVES_MQTT_CLIENT_ID"); v != "" {
		c.MQTTClientID = v
	}

	// Redis configuration
	if v := os.Getenv("JEEVES_REDIS_HOST"); v != "" {
		c.RedisHost = v
	}
	if v := os.Getenv("JEEVES_REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.RedisPort = port
		}
	}
	if v := os.Getenv("JEEVES_REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("JEEVES_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.RedisDB = db
		}
	}

	// Postgres configuration
	if v := os.Getenv("JEEVES_POSTGRES_HOST"); v != "" {
		c.PostgresHost = v
	}
	if v := os.Getenv("JEEVES_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.PostgresPort = port
		}
	}
	if v := os.Getenv("JEEVES_POSTGRES_USER"); v != "" {
		c.PostgresUser = v
	}
	if v := os.Getenv("JEEVES_POSTGRES_PASSWORD"); v != "" {
		c.PostgresPassword = v
	}
	if v := os.Getenv("JEEVES_POSTGRES_DB"); v != "" {
		c.PostgresDB = v
	}
	if v := os.Getenv("JEEVES_POSTGRES_SSLMODE"); v != "" {
		c.PostgresSSLMode = v
	}

	// Service configuration
	if v := os.Getenv("JEEVES_SERVICE_NAME"); v != "" {
		c.ServiceName = v
	}
	if v := os.Getenv("JEEVES_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("JEEVES_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.APIPort = port
		}
	}

	// Sky agent configuration
	if v := os.Getenv("JEEVES_LOCATION"); v != "" {
		c.Location = v
	}
	if v := os.Getenv("JEEVES_LATITUDE"); v != "" {
		if lat, err := strconv.ParseFloat(v, 64); err == nil {
			c.Latitude = lat
		}
	}
	if v := os.Getenv("JEEVES_LONGITUDE"); v != "" {
		if lon, err := strconv.ParseFloat(v, 64); err == nil {
			c.Longitude = lon
		}
	}
	if v := os.Getenv("JEEVES_TIMEZONE"); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv("JEEVES_LOCATIONS_FILE"); v != "" {
		c.LocationsFile = v
	}
	if v := os.Getenv("JEEVES_PUBLISH_INTERVAL_SEC"); v != "" {
		if interval, err := strconv.Atoi(v); err == nil {
			c.PublishIntervalSec = interval
		}
	}
	if v := os.Getenv("JEEVES_SAMPLE_RETENTION_HOURS"); v != "" {
		if hours, err := strconv.ParseFloat(v, 64); err == nil {
			c.SampleRetentionHours = hours
		}
	}
	if v := os.Getenv("JEEVES_APPLY_SECOND_ORDER"); v != "" {
		if enable, err := strconv.ParseBool(v); err == nil {
			c.ApplySecondOrder = enable
		}
	}
	if v := os.Getenv("JEEVES_ENABLE_ARCHIVE"); v != "" {
		if enable, err := strconv.ParseBool(v); err == nil {
			c.EnableArchive = enable
		}
	}
}

// RegisterFlags binds every config field to a flag in fs
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	// MQTT flags
	fs.StringVar(&c.MQTTBroker, "mqtt-broker", c.MQTTBroker, "MQTT broker hostname")
	fs.IntVar(&c.MQTTPort, "mqtt-port", c.MQTTPort, "MQTT broker port")
	fs.StringVar(&c.MQTTUser, "mqtt-user", c.MQTTUser, "MQTT username")
	fs.StringVar(&c.MQTTPassword, "mqtt-password", c.MQTTPassword, "MQTT password")
	fs.StringVar(&c.MQTTClientID, "mqtt-client-id", c.MQTTClientID, "MQTT client ID")

	// Redis flags
	fs.StringVar(&c.RedisHost, "redis-host", c.RedisHost, "Redis hostname")
	fs.IntVar(&c.RedisPort, "redis-port", c.RedisPort, "Redis port")
	fs.StringVar(&c.RedisPassword, "redis-password", c.RedisPassword, "Redis password")
	fs.IntVar(&c.RedisDB, "redis-db", c.RedisDB, "Redis database number")

	// Postgres flags
	fs.StringVar(&c.PostgresHost, "postgres-host", c.PostgresHost, "Postgres hostname")
	fs.IntVar(&c.PostgresPort, "postgres-port", c.PostgresPort, "Postgres port")
	fs.StringVar(&c.PostgresUser, "postgres-user", c.PostgresUser, "Postgres user")
	fs.StringVar(&c.PostgresPassword, "postgres-password", c.PostgresPassword, "Postgres password")
	fs.StringVar(&c.PostgresDB, "postgres-db", c.PostgresDB, "Postgres database")
	fs.StringVar(&c.PostgresSSLMode, "postgres-sslmode", c.PostgresSSLMode, "Postgres sslmode")

	// Service flags
	fs.StringVar(&c.ServiceName, "service-name", c.ServiceName, "Service name")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")
	fs.IntVar(&c.APIPort, "api-port", c.APIPort, "HTTP API port")

	// Sky agent flags
	fs.StringVar(&c.Location, "location", c.Location, "Name of the default location")
	fs.Float64Var(&c.Latitude, "latitude", c.Latitude, "Latitude of the default location")
	fs.Float64Var(&c.Longitude, "longitude", c.Longitude, "Longitude of the default location")
	fs.StringVar(&c.Timezone, "timezone", c.Timezone, "IANA timezone of the default location")
	fs.StringVar(&c.LocationsFile, "locations-file", c.LocationsFile, "YAML file with additional location profiles")
	fs.IntVar(&c.PublishIntervalSec, "publish-interval", c.PublishIntervalSec, "Sky ring publish interval in seconds")
	fs.Float64Var(&c.SampleRetentionHours, "sample-retention-hours", c.SampleRetentionHours, "How long atmospheric samples are kept (hours)")
	fs.BoolVar(&c.ApplySecondOrder, "second-order", c.ApplySecondOrder, "Apply atmospheric second-order adjustments")
	fs.BoolVar(&c.EnableArchive, "enable-archive", c.EnableArchive, "Archive published rings to Postgres")
}

// LoadFromFlags parses command-line flags and overrides config values
func (c *Config) LoadFromFlags() {
	c.RegisterFlags(pflag.CommandLine)
	pflag.Parse()
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT broker is required")
	}
	if c.MQTTPort <= 0 || c.MQTTPort > 65535 {
		return fmt.Errorf("MQTT port must be between 1 and 65535")
	}
	if c.RedisHost == "" {
		return fmt.Errorf("Redis host is required")
	}
	if c.RedisPort <= 0 || c.RedisPort > 65535 {
		return fmt.Errorf("Redis port must be between 1 and 65535")
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("API port must be between 1 and 65535")
	}
	if c.EnableArchive && (c.PostgresPort <= 0 || c.PostgresPort > 65535) {
		return fmt.Errorf("Postgres port must be between 1 and 65535")
	}
	if c.ServiceName == "" {
		return fmt.Errorf("Service name is required")
	}
	if c.Location == "" {
		return fmt.Errorf("Location name is required")
	}
	if math.IsNaN(c.Latitude) || c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude must be between -90 and 90, got %v", c.Latitude)
	}
	if math.IsNaN(c.Longitude) || c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180, got %v", c.Longitude)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if c.PublishIntervalSec <= 0 {
		return fmt.Errorf("publish interval must be positive")
	}
	if c.SampleRetentionHours <= 0 {
		return fmt.Errorf("sample retention must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// MQTTAddress returns the full MQTT broker address
func (c *Config) MQTTAddress() string {
	return fmt.Sprintf("tcp://%s:%d", c.MQTTBroker, c.MQTTPort)
}

// RedisAddress returns the full Redis address
func (c *Config) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// PostgresConnectionString returns a lib/pq connection string
func (c *Config) PostgresConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode)
}

// SampleRetention returns the sample retention window as a duration
func (c *Config) SampleRetention() time.Duration {
	return time.Duration(c.SampleRetentionHours * float64(time.Hour))
}

// PublishInterval returns the publish interval as a duration
func (c *Config) PublishInterval() time.Duration {
	return time.Duration(c.PublishIntervalSec) * time.Second
}
