package skyagent

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/jeeves-sky/pkg/config"
)

func TestParseLocations_DefaultOnly(t *testing.T) {
	locs, err := ParseLocations(nil, helsinki)
	require.NoError(t, err)

	assert.Equal(t, helsinki, locs.Default())
	assert.Len(t, locs.All(), 1)
}

func TestParseLocations_MergesFile(t *testing.T) {
	locs := testLocations(t)

	all := locs.All()
	require.Len(t, all, 2)
	assert.Equal(t, "home", all[0].Name)
	assert.Equal(t, "paris", all[1].Name)

	p, ok := locs.Get("paris")
	require.True(t, ok)
	assert.Equal(t, "Europe/Paris", p.Timezone)
	require.NotNil(t, p.Overrides)
	require.NotNil(t, p.Overrides.LightPollution)
	assert.Equal(t, 0.9, *p.Overrides.LightPollution)
	assert.Nil(t, p.Overrides.Turbidity)
}

func TestParseLocations_FileReplacesDefault(t *testing.T) {
	locs, err := ParseLocations([]byte(`
locations:
  - name: home
    latitude: 61.5
    longitude: 23.8
`), helsinki)
	require.NoError(t, err)

	home := locs.Default()
	assert.Equal(t, 61.5, home.Latitude)
	assert.Equal(t, "Europe/Helsinki", home.Timezone, "missing timezone inherits the default")
}

func TestParseLocations_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing name", "locations:\n  - latitude: 10\n    longitude: 10\n"},
		{"latitude out of range", "locations:\n  - name: x\n    latitude: 91\n    longitude: 0\n"},
		{"longitude out of range", "locations:\n  - name: x\n    latitude: 0\n    longitude: -181\n"},
		{"latitude NaN", "locations:\n  - name: x\n    latitude: .nan\n    longitude: 0\n"},
		{"duplicate", "locations:\n  - name: x\n    latitude: 0\n    longitude: 0\n  - name: x\n    latitude: 1\n    longitude: 1\n"},
		{"malformed", "locations: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLocations([]byte(tt.yaml), helsinki)
			assert.Error(t, err)
		})
	}
}

func TestParseLocations_InvalidDefault(t *testing.T) {
	_, err := ParseLocations(nil, Location{Name: "bad", Latitude: 100})
	assert.Error(t, err)
}

func TestLoadLocations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locations.yaml")
	require.NoError(t, os.WriteFile(path, []byte("locations:\n  - name: cabin\n    latitude: 61.5\n    longitude: 23.7\n"), 0o600))

	locs, err := LoadLocations(path, helsinki)
	require.NoError(t, err)
	_, ok := locs.Get("cabin")
	assert.True(t, ok)

	_, err = LoadLocations(filepath.Join(t.TempDir(), "missing.yaml"), helsinki)
	assert.Error(t, err)

	locs, err = LoadLocations("", helsinki)
	require.NoError(t, err)
	assert.Len(t, locs.All(), 1)
}

func TestDefaultLocation(t *testing.T) {
	cfg := config.NewConfig()
	loc := DefaultLocation(cfg)

	assert.Equal(t, cfg.Location, loc.Name)
	assert.Equal(t, cfg.Timezone, loc.Timezone)
	assert.Equal(t, cfg.Latitude, loc.Coordinates().Lat)
	assert.Equal(t, cfg.Longitude, loc.Coordinates().Long)
}
