package skyagent

import (
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/saaga0h/jeeves-sky/internal/sky"
	"github.com/saaga0h/jeeves-sky/pkg/config"
)

// Location is a named place the agent computes rings for
type Location struct {
	Name      string               `yaml:"name" json:"name"`
	Latitude  float64              `yaml:"latitude" json:"latitude"`
	Longitude float64              `yaml:"longitude" json:"longitude"`
	Timezone  string               `yaml:"timezone" json:"timezone"`
	Overrides *sky.FactorOverrides `yaml:"overrides,omitempty" json:"overrides,omitempty"`
}

// Coordinates returns the location as engine coordinates
func (l Location) Coordinates() sky.Coordinates {
	return sky.Coordinates{Lat: l.Latitude, Long: l.Longitude}
}

func (l Location) validate() error {
	if l.Name == "" {
		return fmt.Errorf("location name is required")
	}
	if math.IsNaN(l.Latitude) || l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("location %s: latitude must be between -90 and 90, got %v", l.Name, l.Latitude)
	}
	if math.IsNaN(l.Longitude) || l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("location %s: longitude must be between -180 and 180, got %v", l.Name, l.Longitude)
	}
	return nil
}

type locationsFile struct {
	Locations []Location `yaml:"locations"`
}

// Locations is the set of configured location profiles
type Locations struct {
	byName      map[string]Location
	defaultName string
}

// DefaultLocation builds the profile for the location configured by flags/env
func DefaultLocation(cfg *config.Config) Location {
	return Location{
		Name:      cfg.Location,
		Latitude:  cfg.Latitude,
		Longitude: cfg.Longitude,
		Timezone:  cfg.Timezone,
	}
}

// LoadLocations reads profiles from path. An empty path yields only def.
func LoadLocations(path string, def Location) (*Locations, error) {
	if path == "" {
		return ParseLocations(nil, def)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read locations file %s: %w", path, err)
	}
	return ParseLocations(data, def)
}

// ParseLocations parses a YAML document of the form
//
//	locations:
//	  - name: cabin
//	    latitude: 61.5
//	    longitude: 23.7
//	    timezone: Europe/Helsinki
//	    overrides:
//	      light_pollution: 0.05
//
// def is always part of the result. A file entry with the same name replaces it.
func ParseLocations(data []byte, def Location) (*Locations, error) {
	if err := def.validate(); err != nil {
		return nil, fmt.Errorf("invalid default location: %w", err)
	}

	locs := &Locations{
		byName:      map[string]Location{def.Name: def},
		defaultName: def.Name,
	}
	if len(data) == 0 {
		return locs, nil
	}

	var file locationsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse locations: %w", err)
	}

	seen := make(map[string]bool, len(file.Locations))
	for _, l := range file.Locations {
		if err := l.validate(); err != nil {
			return nil, err
		}
		if seen[l.Name] {
			return nil, fmt.Errorf("duplicate location %s", l.Name)
		}
		seen[l.Name] = true
		if l.Timezone == "" {
			l.Timezone = def.Timezone
		}
		locs.byName[l.Name] = l
	}
	return locs, nil
}

// Get returns the named profile
func (l *Locations) Get(name string) (Location, bool) {
	loc, ok := l.byName[name]
	return loc, ok
}

// Default returns the configured default profile
func (l *Locations) Default() Location {
	return l.byName[l.defaultName]
}

// All returns every profile sorted by name
func (l *Locations) All() []Location {
	all := make([]Location, 0, len(l.byName))
	for _, loc := range l.byName {
		all = append(all, loc)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all
}
