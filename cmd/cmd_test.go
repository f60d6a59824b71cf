package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/smart-commute/internal/probe"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SMC_LOGGING_LEVEL", "error")

	var out bytes.Buffer
	root := rootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := run(context.Background(), root)
	return out.String(), err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestCheck_MissingCredentialsPrintsSetup(t *testing.T) {
	out, err := execute(t, "check")

	require.NoError(t, err)
	assert.Contains(t, out, "Configuration incomplete!")
	assert.Contains(t, out, "Bright Data API token, Google Maps API key, OpenWeatherMap API key")
}

func TestWeather_OnlyNeedsWeatherKey(t *testing.T) {
	t.Setenv("SMC_WEATHER_API_KEY", "bad-key")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"cod": 401, "message": "Invalid API key"})
	}))
	defer srv.Close()
	t.Setenv("SMC_WEATHER_BASE_URL", srv.URL)

	out, err := execute(t, "weather")

	assert.ErrorIs(t, err, probe.ErrSuiteFailed)
	assert.NotContains(t, out, "Configuration incomplete!")
	assert.Contains(t, out, "[FAIL] Current weather")
	assert.Contains(t, out, "hint: invalid API key or not activated yet")
	assert.Contains(t, out, "Overall: 0/4 passed (need 3)")
	assert.Nil(t, log, "logger must be released after a failed command")
	assert.Nil(t, tele)
}

func TestMaps_AllChecksPass(t *testing.T) {
	t.Setenv("SMC_MAPS_API_KEY", "maps-key")

	route := map[string]any{
		"summary": "Hosur Rd",
		"legs": []any{map[string]any{
			"duration": map[string]any{"text": "48 mins", "value": 2880},
			"distance": map[string]any{"text": "17.2 km", "value": 17200},
		}},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/directions/json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "OK", "routes": []any{route}})
	})
	mux.HandleFunc("/geocode/json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "OK", "results": []any{map[string]any{
			"formatted_address": "Koramangala, Bengaluru",
			"place_id":          "p1",
			"geometry":          map[string]any{"location": map[string]any{"lat": 12.93, "lng": 77.62}},
		}}})
	})
	mux.HandleFunc("/place/autocomplete/json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "OK", "predictions": []any{
			map[string]any{"description": "Koramangala 5th Block"},
		}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	t.Setenv("SMC_MAPS_BASE_URL", srv.URL)

	out, err := execute(t, "maps")

	require.NoError(t, err)
	assert.Contains(t, out, "Overall: 4/4 passed (need 4)")
	assert.Contains(t, out, "No traffic data (might be off-peak)")
	assert.Contains(t, out, "Google Maps API is ready")
}

func TestScrape_MissingToken(t *testing.T) {
	out, err := execute(t, "scrape")

	require.NoError(t, err)
	assert.Contains(t, out, "Missing: Bright Data API token")
	assert.NotContains(t, out, "Google Maps API key")
}
