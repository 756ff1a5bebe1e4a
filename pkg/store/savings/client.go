package savings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/de-tools/benford-monitor/pkg/adapters"
	"github.com/de-tools/benford-monitor/pkg/models/api"
	"github.com/de-tools/benford-monitor/pkg/models/domain"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 64 << 20
)

// ErrSourceUnavailable is returned while a category's circuit breaker is open.
var ErrSourceUnavailable = errors.New("savings source unavailable: circuit breaker is open")

// Store fetches the savings values of a single category.
type Store interface {
	Fetch(ctx context.Context, category domain.Category) ([]domain.Record, error)
}

type Settings struct {
	BaseURL string
	// Timeout bounds a single fetch, connection through body decode.
	Timeout   time.Duration
	RateLimit float64
	RateBurst int
	// BreakerFailures consecutive failures open a category's breaker for
	// BreakerOpenTimeout. Zero disables the breaker.
	BreakerFailures    uint32
	BreakerOpenTimeout time.Duration
	HTTPClient         *http.Client
	Logger             zerolog.Logger
}

type httpStore struct {
	baseURL  *url.URL
	client   *http.Client
	timeout  time.Duration
	limiter  *rate.Limiter
	settings Settings

	mu       sync.Mutex
	breakers map[domain.Category]*gobreaker.CircuitBreaker
}

func NewStore(settings Settings) (Store, error) {
	if settings.BaseURL == "" {
		return nil, fmt.Errorf("savings base url is empty")
	}
	base, err := url.Parse(settings.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse savings base url: %w", err)
	}

	client := settings.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	timeout := settings.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	limit := rate.Inf
	if settings.RateLimit > 0 {
		limit = rate.Limit(settings.RateLimit)
	}
	burst := settings.RateBurst
	if burst <= 0 {
		burst = len(domain.DefaultCategories)
	}

	return &httpStore{
		baseURL:  base,
		client:   client,
		timeout:  timeout,
		limiter:  rate.NewLimiter(limit, burst),
		settings: settings,
		breakers: make(map[domain.Category]*gobreaker.CircuitBreaker),
	}, nil
}

func (s *httpStore) Fetch(ctx context.Context, category domain.Category) ([]domain.Record, error) {
	cb := s.breaker(category)
	if cb == nil {
		return s.fetch(ctx, category)
	}

	res, err := cb.Execute(func() (interface{}, error) {
		return s.fetch(ctx, category)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s", ErrSourceUnavailable, category)
		}
		return nil, err
	}
	return res.([]domain.Record), nil
}

func (s *httpStore) fetch(ctx context.Context, category domain.Category) ([]domain.Record, error) {
	logger := zerolog.Ctx(ctx)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for rate limiter: %w", err)
	}

	endpoint := s.baseURL.JoinPath("savings", string(category))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s savings request: %w", category, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s savings: %w", category, err)
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			logger.Warn().Err(err).Msg("failed to close response body")
		}
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d for %s savings", resp.StatusCode, category)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s savings response: %w", category, err)
	}

	var envelope api.SavingsResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s savings response: %w", category, err)
	}

	records, err := adapters.MapSavingsResponseToRecords(envelope, category)
	if err != nil {
		return nil, fmt.Errorf("failed to map %s savings: %w", category, err)
	}
	return records, nil
}

func (s *httpStore) breaker(category domain.Category) *gobreaker.CircuitBreaker {
	if s.settings.BreakerFailures == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cb, ok := s.breakers[category]; ok {
		return cb
	}

	logger := s.settings.Logger
	threshold := s.settings.BreakerFailures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    string(category),
		Timeout: s.settings.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("category", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("savings source breaker state changed")
		},
	})
	s.breakers[category] = cb
	return cb
}
