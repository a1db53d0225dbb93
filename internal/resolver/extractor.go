package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/I-No-oNe/TuneX/internal/models"
	"github.com/I-No-oNe/TuneX/internal/shared"
)

const defaultBaseURL string = "http://localhost:9090"

var (
	upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tunex_upstream_requests_total",
		Help: "Requests issued to the extractor per operation.",
	}, []string{"operation"})
	upstreamFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tunex_upstream_failures_total",
		Help: "Failed extractor requests per operation.",
	}, []string{"operation"})
)

// Extractor implements [Resolver] against the HTTP extractor service.
//
// Every call waits on a shared rate limiter before hitting the upstream, so
// bursts of cache misses cannot hammer it.
type Extractor struct {
	baseURL      string
	httpClient   *http.Client
	limiter      *rate.Limiter
	logger       *log.Logger
	searchLimit  int
	relatedLimit int
}

// NewExtractor creates an [Extractor] from the upstream configuration.
//
// When OAuth client credentials are configured the HTTP client transparently
// fetches and refreshes upstream tokens.
func NewExtractor(cfg shared.UpstreamConfig, logger *log.Logger) *Extractor {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	limit := rate.Limit(cfg.RateLimit)
	if limit <= 0 {
		limit = rate.Inf
	}

	client := &http.Client{Timeout: timeout}
	if cfg.OAuthClientID != "" && cfg.OAuthTokenURL != "" {
		creds := &clientcredentials.Config{
			ClientID:     cfg.OAuthClientID,
			ClientSecret: cfg.OAuthSecret,
			TokenURL:     cfg.OAuthTokenURL,
		}
		client = creds.Client(context.Background())
		client.Timeout = timeout
	}

	searchLimit := cfg.SearchLimit
	if searchLimit <= 0 {
		searchLimit = 10
	}

	relatedLimit := cfg.RelatedLimit
	if relatedLimit <= 0 {
		relatedLimit = 12
	}

	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Extractor{
		baseURL:      baseURL,
		httpClient:   client,
		limiter:      rate.NewLimiter(limit, 1),
		logger:       shared.WithLogger(logger, "component", "extractor"),
		searchLimit:  searchLimit,
		relatedLimit: relatedLimit,
	}
}

// doRequest performs a rate-limited GET against the extractor and decodes
// the JSON response into result.
func (e *Extractor) doRequest(ctx context.Context, operation, endpoint string, result any) error {
	if err := e.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	upstreamRequests.WithLabelValues(operation).Inc()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		upstreamFailures.WithLabelValues(operation).Inc()
		return fmt.Errorf("%w: %v", shared.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		upstreamFailures.WithLabelValues(operation).Inc()
		var errResp struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
			return fmt.Errorf("%w: status %d: %s", shared.ErrUpstream, resp.StatusCode, errResp.Detail)
		}
		return fmt.Errorf("%w: status %d", shared.ErrUpstream, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Resolve fetches the audio URL and metadata for a media id.
func (e *Extractor) Resolve(ctx context.Context, id string) (*Resolution, error) {
	var payload struct {
		StreamURL string       `json:"stream_url"`
		Track     models.Track `json:"track"`
	}

	endpoint := fmt.Sprintf("/extract/%s", url.PathEscape(id))
	if err := e.doRequest(ctx, "resolve", endpoint, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrResolutionFailed, err)
	}

	if payload.StreamURL == "" {
		return nil, fmt.Errorf("%w: %s", shared.ErrNoAudioFormat, id)
	}

	track := payload.Track
	if track.ID == "" {
		track.ID = id
	}
	if runes := []rune(track.Description); len(runes) > 300 {
		track.Description = string(runes[:300])
	}

	return &Resolution{StreamURL: payload.StreamURL, Track: track}, nil
}

// Search runs a free-text search, dropping entries without an id.
func (e *Extractor) Search(ctx context.Context, query string) ([]models.Track, error) {
	var payload struct {
		Results []models.Track `json:"results"`
	}

	endpoint := fmt.Sprintf("/search?q=%s&limit=%d", url.QueryEscape(query), e.searchLimit)
	if err := e.doRequest(ctx, "search", endpoint, &payload); err != nil {
		return nil, err
	}

	results := make([]models.Track, 0, len(payload.Results))
	for _, t := range payload.Results {
		if t.ID != "" {
			results = append(results, t)
		}
	}

	return results, nil
}

// Related lists tracks related to id, excluding the seed itself.
func (e *Extractor) Related(ctx context.Context, id string) ([]models.Track, error) {
	var payload struct {
		Related []models.Track `json:"related"`
	}

	endpoint := fmt.Sprintf("/related/%s?limit=%d", url.PathEscape(id), e.relatedLimit)
	if err := e.doRequest(ctx, "related", endpoint, &payload); err != nil {
		return nil, err
	}

	related := make([]models.Track, 0, len(payload.Related))
	for _, t := range payload.Related {
		if t.ID == "" || t.ID == id {
			continue
		}
		related = append(related, t)
		if len(related) == e.relatedLimit {
			break
		}
	}

	return related, nil
}
