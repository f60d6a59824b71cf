package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/smart-commute/internal/service"
	"go.uber.org/zap/zaptest"
)

func passing(name string) Check {
	return Check{Name: name, Run: func(context.Context) Result { return Pass(name, "ok") }}
}

func failing(name string, err error) Check {
	return Check{Name: name, Run: func(context.Context) Result { return Fail(name, err) }}
}

func newTestRunner(t *testing.T) (*Runner, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	return NewRunner(&out, zaptest.NewLogger(t)), &out
}

func TestRunner_MeetsThreshold(t *testing.T) {
	r, out := newTestRunner(t)

	summary := r.Run(context.Background(), Suite{
		Title: "Weather API",
		Checks: []Check{
			passing("Current weather"),
			passing("Forecast"),
			passing("Commute impact"),
			failing("Quota probe", errors.New("boom")),
		},
		PassThreshold: 3,
		OnPass:        []string{"Weather API integration is ready"},
		OnFail:        []string{"Check your API key"},
	})

	assert.True(t, summary.OK())
	assert.NoError(t, summary.Err())
	assert.Equal(t, 3, summary.Passed)
	assert.Equal(t, 4, summary.Total)

	text := out.String()
	assert.Contains(t, text, "=== Weather API ===")
	assert.Contains(t, text, "[PASS] Current weather")
	assert.Contains(t, text, "[FAIL] Quota probe")
	assert.Contains(t, text, "error: boom")
	assert.Contains(t, text, "Overall: 3/4 passed (need 3)")
	assert.Contains(t, text, "Weather API integration is ready")
	assert.NotContains(t, text, "Check your API key")
}

func TestRunner_BelowThreshold(t *testing.T) {
	r, out := newTestRunner(t)

	summary := r.Run(context.Background(), Suite{
		Title:         "Google Maps API",
		Checks:        []Check{passing("Directions"), failing("Geocoding", errors.New("x"))},
		PassThreshold: 2,
		OnFail:        []string{"Ensure billing is enabled"},
	})

	assert.False(t, summary.OK())
	assert.ErrorIs(t, summary.Err(), ErrSuiteFailed)
	assert.Contains(t, out.String(), "1. Ensure billing is enabled")
}

func TestRunner_RequiredCheckGatesSuite(t *testing.T) {
	r, out := newTestRunner(t)

	summary := r.Run(context.Background(), Suite{
		Title:         "Combined",
		Checks:        []Check{passing("a"), passing("b"), passing("c"), passing("d")},
		Required:      []Check{failing("Workflow simulation", errors.New("too few steps"))},
		PassThreshold: 4,
	})

	assert.Equal(t, 4, summary.Passed)
	assert.False(t, summary.OK())
	require.Len(t, summary.Required, 1)
	assert.Contains(t, out.String(), "Workflow simulation")
}

func TestRunner_FillsNameAndElapsed(t *testing.T) {
	r, _ := newTestRunner(t)
	clock := clockwork.NewFakeClock()
	r.SetClock(clock)

	summary := r.Run(context.Background(), Suite{
		Title: "Timed",
		Checks: []Check{{
			Name: "slow",
			Run: func(context.Context) Result {
				clock.Advance(1500 * time.Millisecond)
				return Result{Success: true}
			},
		}},
		PassThreshold: 1,
	})

	assert.Equal(t, "slow", summary.Results[0].Name)
	assert.Equal(t, 1500*time.Millisecond, summary.Elapsed)
}

func TestHint(t *testing.T) {
	wrap := func(code int) error {
		return fmt.Errorf("current weather: %w", &service.APIError{Service: "openweather", StatusCode: code})
	}

	assert.Equal(t, "invalid API key or not activated yet", Hint(wrap(http.StatusUnauthorized)))
	assert.Equal(t, "rate limit exceeded", Hint(wrap(http.StatusTooManyRequests)))
	assert.Equal(t, "location not found", Hint(wrap(http.StatusNotFound)))
	assert.Empty(t, Hint(wrap(http.StatusInternalServerError)))
	assert.Empty(t, Hint(errors.New("dial tcp: refused")))
	assert.Empty(t, Hint(nil))
}

func TestRunner_PrintsHint(t *testing.T) {
	r, out := newTestRunner(t)

	r.Run(context.Background(), Suite{
		Title:         "Hints",
		Checks:        []Check{failing("Current weather", &service.APIError{Service: "openweather", StatusCode: 401})},
		PassThreshold: 1,
	})

	assert.Contains(t, out.String(), "hint: invalid API key or not activated yet")
}

func TestPrintSetup(t *testing.T) {
	var out bytes.Buffer
	PrintSetup(&out, []string{"Google Maps API key", "OpenWeatherMap API key"})

	text := out.String()
	assert.Contains(t, text, "Missing: Google Maps API key, OpenWeatherMap API key")
	assert.Contains(t, text, "SMC_MAPS_API_KEY")
	assert.Contains(t, text, "SMC_WEATHER_API_KEY")
	assert.NotContains(t, text, "brightdata.com")
	assert.Contains(t, text, "9. Run this command again")
}

func TestPrintCostAnalysis(t *testing.T) {
	var out bytes.Buffer
	PrintCostAnalysis(&out, WorkflowUsage)

	text := out.String()
	assert.Contains(t, text, "120 workflow runs/month")
	assert.Contains(t, text, "360/month of 1000 free")
	assert.Contains(t, text, "240/month of 40000 free")
	assert.Contains(t, text, "Total monthly cost: $0.00")

	out.Reset()
	PrintCostAnalysis(&out, []Usage{{Service: "Tiny", CallsPerRun: 10, FreeTierPerMon: 100}})
	assert.Contains(t, out.String(), "exceeds a free tier")
}
