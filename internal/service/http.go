package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
)

// CallRecorder receives one observation per outbound API call.
type CallRecorder interface {
	RecordServiceCall(service string, success bool, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordServiceCall(string, bool, time.Duration) {}

// transport bundles what every client needs to issue a request.
type transport struct {
	service string
	client  *http.Client
	clock   clockwork.Clock
	metrics CallRecorder
}

func newTransport(service string, timeout time.Duration) transport {
	return transport{
		service: service,
		client:  &http.Client{Timeout: timeout},
		clock:   clockwork.NewRealClock(),
		metrics: nopRecorder{},
	}
}

// doJSON sends req and decodes a 2xx JSON body into out.
func (t transport) doJSON(req *http.Request, out any) error {
	start := t.clock.Now()
	err := t.send(req, out)
	t.metrics.RecordServiceCall(t.service, err == nil, t.clock.Since(start))
	return err
}

func (t transport) send(req *http.Request, out any) error {
	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", t.service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(t.service, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", t.service, err)
	}
	return nil
}

func (t transport) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return t.doJSON(req, out)
}
