package config

import (
	"sync/atomic"
)

// Placeholder credentials shipped in the default config. A credential still
// holding one of these has not been configured yet.
const (
	PlaceholderBrightDataToken = "Your_Bright_Data_API_Token"
	PlaceholderGoogleMapsKey   = "YOUR_GOOGLE_MAPS_API_KEY_HERE"
	PlaceholderOpenWeatherKey  = "YOUR_OPENWEATHER_API_KEY_HERE"
)

var configValue atomic.Value

func GetConfig() *Config {
	cfg, _ := configValue.Load().(*Config)
	if cfg == nil {
		return NewDefaultConfig()
	}
	return cfg
}

func SetConfig(cfg *Config) {
	configValue.Store(cfg)
}

type Config struct {
	Version     string          `mapstructure:"version"`
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	Scraper     ScraperConfig   `mapstructure:"scraper"`
	Maps        MapsConfig      `mapstructure:"maps"`
	Weather     WeatherConfig   `mapstructure:"weather"`
	Commute     CommuteConfig   `mapstructure:"commute"`
	Notify      NotifyConfig    `mapstructure:"notify"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	Telemetry   TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port            int    `mapstructure:"port" validate:"min=1,max=65535"`
	Host            string `mapstructure:"host"`
	ReadTimeout     int    `mapstructure:"read_timeout"`
	WriteTimeout    int    `mapstructure:"write_timeout"`
	IdleTimeout     int    `mapstructure:"idle_timeout"`
	CacheTTL        int    `mapstructure:"cache_ttl" validate:"min=0"`
	RefreshInterval int    `mapstructure:"refresh_interval" validate:"min=0"`
}

// ScraperConfig configures the Bright Data collect endpoint.
type ScraperConfig struct {
	BaseURL  string `mapstructure:"base_url" validate:"required,url"`
	APIToken string `mapstructure:"api_token"`
	Zone     string `mapstructure:"zone"`
	Country  string `mapstructure:"country" validate:"required,len=2"`
	Timeout  int    `mapstructure:"timeout" validate:"min=1"`
}

// MapsConfig configures the Google Maps web services.
type MapsConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout" validate:"min=1"`
}

// WeatherConfig configures the OpenWeatherMap API.
type WeatherConfig struct {
	BaseURL       string `mapstructure:"base_url" validate:"required,url"`
	APIKey        string `mapstructure:"api_key"`
	City          string `mapstructure:"city" validate:"required"`
	Units         string `mapstructure:"units" validate:"oneof=metric imperial standard"`
	ForecastCount int    `mapstructure:"forecast_count" validate:"min=1,max=40"`
	ProbeRequests int    `mapstructure:"probe_requests" validate:"min=1,max=20"`
	Timeout       int    `mapstructure:"timeout" validate:"min=1"`
}

// CommuteConfig holds the addresses the workflow plans between.
type CommuteConfig struct {
	HomeAddress        string `mapstructure:"home_address" validate:"required"`
	OfficeAddress      string `mapstructure:"office_address" validate:"required"`
	AlternativeAddress string `mapstructure:"alternative_address"`
	PlacesQuery        string `mapstructure:"places_query"`
	PlacesLocation     string `mapstructure:"places_location"`
	PlacesRadius       int    `mapstructure:"places_radius"`
	TimeZone           string `mapstructure:"time_zone"`
}

// NotifyConfig controls publishing of recommendations to Kafka.
type NotifyConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"oneof=json console"`
	OutputPath string `mapstructure:"output_path"`
}

type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// MissingCredentials lists the API credentials still set to their
// placeholder (or empty) value, in the order the setup steps are printed.
func (c *Config) MissingCredentials() []string {
	var missing []string
	if isPlaceholder(c.Scraper.APIToken, PlaceholderBrightDataToken) {
		missing = append(missing, "Bright Data API token")
	}
	if isPlaceholder(c.Maps.APIKey, PlaceholderGoogleMapsKey) {
		missing = append(missing, "Google Maps API key")
	}
	if isPlaceholder(c.Weather.APIKey, PlaceholderOpenWeatherKey) {
		missing = append(missing, "OpenWeatherMap API key")
	}
	return missing
}

func isPlaceholder(value, placeholder string) bool {
	return value == "" || value == placeholder
}

func NewDefaultConfig() *Config {
	return &Config{
		Version:     "1.0.0",
		Environment: "development",
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			ReadTimeout:     30,
			WriteTimeout:    60,
			IdleTimeout:     60,
			CacheTTL:        300,
			RefreshInterval: 0,
		},
		Scraper: ScraperConfig{
			BaseURL:  "https://brightdata.com/api/collect",
			APIToken: PlaceholderBrightDataToken,
			Zone:     "YOUR_ZONE_NAME",
			Country:  "IN",
			Timeout:  60,
		},
		Maps: MapsConfig{
			BaseURL: "https://maps.googleapis.com/maps/api",
			APIKey:  PlaceholderGoogleMapsKey,
			Timeout: 10,
		},
		Weather: WeatherConfig{
			BaseURL:       "https://api.openweathermap.org/data/2.5",
			APIKey:        PlaceholderOpenWeatherKey,
			City:          "Bangalore,IN",
			Units:         "metric",
			ForecastCount: 8,
			ProbeRequests: 5,
			Timeout:       10,
		},
		Commute: CommuteConfig{
			HomeAddress:        "Koramangala, Bangalore, India",
			OfficeAddress:      "Electronic City, Bangalore, India",
			AlternativeAddress: "Whitefield, Bangalore, India",
			PlacesQuery:        "Koramangala",
			PlacesLocation:     "12.9352,77.6245",
			PlacesRadius:       50000,
			TimeZone:           "Asia/Kolkata",
		},
		Notify: NotifyConfig{
			Enabled: false,
			Brokers: []string{"localhost:9092"},
			Topic:   "commute.recommendations",
		},
		Logging: LoggingConfig{
			Level:      "warn",
			Format:     "console",
			OutputPath: "",
		},
		Telemetry: TelemetryConfig{
			Enabled:  false,
			Endpoint: "tempo:4317",
		},
	}
}
