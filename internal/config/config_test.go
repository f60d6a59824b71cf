package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "Bangalore,IN", cfg.Weather.City)
	assert.Equal(t, "metric", cfg.Weather.Units)
	assert.Equal(t, 8, cfg.Weather.ForecastCount)
	assert.Equal(t, 5, cfg.Weather.ProbeRequests)
	assert.Equal(t, "IN", cfg.Scraper.Country)
	assert.Equal(t, "https://maps.googleapis.com/maps/api", cfg.Maps.BaseURL)
	assert.Equal(t, "Koramangala, Bangalore, India", cfg.Commute.HomeAddress)
	assert.Equal(t, "Electronic City, Bangalore, India", cfg.Commute.OfficeAddress)
	assert.Equal(t, 300, cfg.Server.CacheTTL)
	assert.False(t, cfg.Notify.Enabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Notify.Brokers)
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SMC_WEATHER_API_KEY", "owm-key")
	t.Setenv("SMC_WEATHER_CITY", "Pune,IN")
	t.Setenv("SMC_MAPS_API_KEY", "maps-key")
	t.Setenv("SMC_SCRAPER_API_TOKEN", "bd-token")
	t.Setenv("SMC_SERVER_PORT", "9090")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "owm-key", cfg.Weather.APIKey)
	assert.Equal(t, "Pune,IN", cfg.Weather.City)
	assert.Equal(t, "maps-key", cfg.Maps.APIKey)
	assert.Equal(t, "bd-token", cfg.Scraper.APIToken)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Empty(t, cfg.MissingCredentials())
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "commute.yaml")
	content := []byte(`
weather:
  api_key: file-key
  units: imperial
commute:
  home_address: "Indiranagar, Bangalore, India"
logging:
  level: debug
  format: json
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.Weather.APIKey)
	assert.Equal(t, "imperial", cfg.Weather.Units)
	assert.Equal(t, "Indiranagar, Bangalore, India", cfg.Commute.HomeAddress)
	assert.Equal(t, "Electronic City, Bangalore, India", cfg.Commute.OfficeAddress)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoad_InvalidUnits(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SMC_WEATHER_UNITS", "kelvin")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Units")
}

func TestMissingCredentials(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.Equal(t, []string{
		"Bright Data API token",
		"Google Maps API key",
		"OpenWeatherMap API key",
	}, cfg.MissingCredentials())

	cfg.Maps.APIKey = "real"
	assert.Equal(t, []string{
		"Bright Data API token",
		"OpenWeatherMap API key",
	}, cfg.MissingCredentials())

	cfg.Scraper.APIToken = ""
	assert.Contains(t, cfg.MissingCredentials(), "Bright Data API token")
}

func TestGetConfig_FallsBackToDefaults(t *testing.T) {
	cfg := GetConfig()
	require.NotNil(t, cfg)

	custom := NewDefaultConfig()
	custom.Environment = "test"
	SetConfig(custom)
	assert.Equal(t, "test", GetConfig().Environment)
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
