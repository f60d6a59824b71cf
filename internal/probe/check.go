// Package probe runs named diagnostic checks against the external APIs and
// reports them on the console.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vzahanych/smart-commute/internal/service"
)

// ErrSuiteFailed is returned when a suite misses its pass threshold.
var ErrSuiteFailed = errors.New("suite failed")

// Result is the outcome of a single check.
type Result struct {
	Name    string
	Success bool
	Err     error
	Details []string
}

func Pass(name string, details ...string) Result {
	return Result{Name: name, Success: true, Details: details}
}

func Fail(name string, err error, details ...string) Result {
	return Result{Name: name, Err: err, Details: details}
}

type Check struct {
	Name string
	Run  func(ctx context.Context) Result
}

// Suite groups checks under a title. The suite passes when at least
// PassThreshold of Checks succeed and every Required check succeeds.
type Suite struct {
	Title         string
	Checks        []Check
	Required      []Check
	PassThreshold int
	OnPass        []string
	OnFail        []string
}

type Summary struct {
	Title     string
	Results   []Result
	Required  []Result
	Passed    int
	Total     int
	Threshold int
	Elapsed   time.Duration
}

func (s Summary) OK() bool {
	if s.Passed < s.Threshold {
		return false
	}
	for _, r := range s.Required {
		if !r.Success {
			return false
		}
	}
	return true
}

// Err wraps ErrSuiteFailed when the summary is not OK.
func (s Summary) Err() error {
	if s.OK() {
		return nil
	}
	return fmt.Errorf("%s: %d/%d passed, %d needed: %w", s.Title, s.Passed, s.Total, s.Threshold, ErrSuiteFailed)
}

// Hint maps well-known API status codes to a console hint.
func Hint(err error) string {
	switch service.StatusCode(err) {
	case http.StatusUnauthorized:
		return "invalid API key or not activated yet"
	case http.StatusTooManyRequests:
		return "rate limit exceeded"
	case http.StatusNotFound:
		return "location not found"
	default:
		return ""
	}
}
