package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/vzahanych/smart-commute/internal/config"
	"github.com/vzahanych/smart-commute/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const brightDataName = "bright-data"

type ExtractSpec struct {
	Selector string            `json:"selector"`
	Type     string            `json:"type"`
	Fields   map[string]string `json:"fields"`
}

type CollectRequest struct {
	URL       string                 `json:"url"`
	Format    string                 `json:"format"`
	Country   string                 `json:"country"`
	SessionID string                 `json:"session_id"`
	WaitFor   string                 `json:"wait_for"`
	Extract   map[string]ExtractSpec `json:"extract"`
}

// CollectResult maps each extract name to its raw records.
type CollectResult map[string]json.RawMessage

// Records decodes the named list. A missing list yields no records.
func (r CollectResult) Records(name string) ([]Record, error) {
	raw, ok := r[name]
	if !ok || string(raw) == "null" {
		return nil, nil
	}
	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode %q records: %w", name, err)
	}
	return records, nil
}

type Record map[string]any

// String returns the field as a string, or "" when absent or not a string.
func (r Record) String(field string) string {
	s, _ := r[field].(string)
	return s
}

// Job is a predefined scrape: a target page and one list to extract.
type Job struct {
	Name          string
	SessionPrefix string
	URL           string
	List          string
	Spec          ExtractSpec
}

func (j Job) WithSessionPrefix(prefix string) Job {
	j.SessionPrefix = prefix
	return j
}

func NewsJob() Job {
	return Job{
		Name:          "news",
		SessionPrefix: "test_news",
		URL:           "https://timesofindia.indiatimes.com/city/bengaluru",
		List:          "articles",
		Spec: ExtractSpec{
			Selector: ".content .story-list .story, article",
			Type:     "list",
			Fields: map[string]string{
				"title":     "h1, h2, h3, .headline",
				"url":       "a@href",
				"content":   ".brief, .summary, .excerpt, p",
				"timestamp": ".time, .date, time",
			},
		},
	}
}

func SocialJob() Job {
	return Job{
		Name:          "social",
		SessionPrefix: "test_social",
		URL:           "https://twitter.com/search?q=%23BengaluruTraffic",
		List:          "tweets",
		Spec: ExtractSpec{
			Selector: `[data-testid="tweet"]`,
			Type:     "list",
			Fields: map[string]string{
				"text":      `[data-testid="tweetText"]`,
				"username":  `[data-testid="User-Name"] span`,
				"timestamp": "time@datetime",
			},
		},
	}
}

func OfficialTrafficJob() Job {
	return Job{
		Name:          "official",
		SessionPrefix: "test_official",
		URL:           "https://trafficpolicebangalore.gov.in",
		List:          "updates",
		Spec: ExtractSpec{
			Selector: ".traffic-update, .news-item, .announcement, .content",
			Type:     "list",
			Fields: map[string]string{
				"title":     "h1, h2, h3, .title",
				"message":   ".content, .description, p",
				"timestamp": ".date, .time, time",
			},
		},
	}
}

type BrightDataService struct {
	baseURL string
	token   string
	country string
	http    transport
	logger  *zap.Logger
	tele    *telemetry.Telemetry
}

func NewBrightDataService(cfg config.ScraperConfig, logger *zap.Logger, tele *telemetry.Telemetry) *BrightDataService {
	return &BrightDataService{
		baseURL: cfg.BaseURL,
		token:   cfg.APIToken,
		country: cfg.Country,
		http:    newTransport(brightDataName, time.Duration(cfg.Timeout)*time.Second),
		logger:  logger.With(zap.String("service", brightDataName)),
		tele:    tele,
	}
}

func (s *BrightDataService) Name() string {
	return brightDataName
}

func (s *BrightDataService) SetClock(clock clockwork.Clock) {
	s.http.clock = clock
}

func (s *BrightDataService) SetMetricsRecorder(metrics CallRecorder) {
	s.http.metrics = metrics
}

func (s *BrightDataService) Collect(ctx context.Context, req CollectRequest) (result CollectResult, err error) {
	ctx, span := s.tele.GetTracer().Start(ctx, "brightdata.Collect")
	defer func() {
		telemetry.EndSpan(span, err,
			attribute.String("url", req.URL),
			attribute.String("session_id", req.SessionID))
	}()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode collect request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+s.token)
	httpReq.Header.Set("Content-Type", "application/json")

	result = CollectResult{}
	if err = s.http.doJSON(httpReq, &result); err != nil {
		return nil, fmt.Errorf("collect %s: %w", req.URL, err)
	}
	return result, nil
}

// Run executes job with a fresh session id and returns its extracted list.
func (s *BrightDataService) Run(ctx context.Context, job Job) ([]Record, error) {
	req := CollectRequest{
		URL:       job.URL,
		Format:    "json",
		Country:   s.country,
		SessionID: fmt.Sprintf("%s_%d", job.SessionPrefix, s.http.clock.Now().UnixMilli()),
		WaitFor:   "networkidle",
		Extract:   map[string]ExtractSpec{job.List: job.Spec},
	}

	result, err := s.Collect(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s scrape: %w", job.Name, err)
	}

	records, err := result.Records(job.List)
	if err != nil {
		return nil, fmt.Errorf("%s scrape: %w", job.Name, err)
	}

	s.logger.Debug("Scrape completed",
		zap.String("job", job.Name),
		zap.String("session_id", req.SessionID),
		zap.Int("records", len(records)))

	return records, nil
}
