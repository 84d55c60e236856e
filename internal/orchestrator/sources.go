package orchestrator

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"labelsense/internal/config"
	"labelsense/internal/models"
)

// SourceResult is the normalized output of one source adapter. Each adapter
// translates its capability-specific response shape into this form before the
// orchestrator core sees it.
type SourceResult struct {
	Confidence float64
	Fields     map[string]string
}

// Source is one external capability source in a failover chain
type Source interface {
	Name() string
	Priority() int
	Timeout() time.Duration
	RateLimit() *config.RateLimitConfig
	Supports(capability models.Capability) bool
	Fetch(ctx context.Context, capability models.Capability, query string, opts map[string]string) (*SourceResult, error)
}

// httpSource adapts one declared HTTP endpoint to the Source interface
type httpSource struct {
	cfg    config.SourceConfig
	client *http.Client
}

// NewHTTPSource builds an HTTP source adapter from its registry entry.
// Requests get a couple of bounded retries; the per-source timeout is applied
// by the orchestrator through the request context.
func NewHTTPSource(cfg config.SourceConfig) Source {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = time.Second
	retryClient.Logger = nil

	return &httpSource{
		cfg:    cfg,
		client: retryClient.StandardClient(),
	}
}

func (s *httpSource) Name() string                       { return s.cfg.Name }
func (s *httpSource) Priority() int                      { return s.cfg.Priority }
func (s *httpSource) Timeout() time.Duration             { return s.cfg.Timeout() }
func (s *httpSource) RateLimit() *config.RateLimitConfig { return s.cfg.RateLimit }

func (s *httpSource) Supports(capability models.Capability) bool {
	for _, c := range s.cfg.Capabilities {
		if models.Capability(c) == capability {
			return true
		}
	}
	return false
}

// Fetch queries the source and normalizes its JSON response
func (s *httpSource) Fetch(ctx context.Context, capability models.Capability, query string, opts map[string]string) (*SourceResult, error) {
	endpoint, err := url.Parse(s.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid source url: %w", err)
	}

	params := endpoint.Query()
	params.Set("q", query)
	params.Set("capability", string(capability))
	for key, value := range opts {
		params.Set(key, value)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if credential := s.cfg.Credential(); credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", s.cfg.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source %s: unexpected status %d", s.cfg.Name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("source %s: failed to read response: %w", s.cfg.Name, err)
	}

	return normalizeResponse(body), nil
}

// normalizeResponse picks the adapter's normalized output out of a
// capability-specific response document
func normalizeResponse(body []byte) *SourceResult {
	parsed := gjson.ParseBytes(body)

	confidence := parsed.Get("confidence").Float()
	if confidence == 0 && parsed.Get("data").Exists() {
		// Sources without an explicit confidence that still returned data are
		// treated as moderately confident.
		confidence = 0.7
	}

	fields := make(map[string]string)
	data := parsed.Get("data")
	if !data.Exists() {
		data = parsed
	}
	data.ForEach(func(key, value gjson.Result) bool {
		if key.String() == "confidence" {
			return true
		}
		switch value.Type {
		case gjson.String:
			fields[key.String()] = value.String()
		case gjson.Number, gjson.True, gjson.False:
			fields[key.String()] = value.String()
		}
		return true
	})

	return &SourceResult{Confidence: confidence, Fields: fields}
}
