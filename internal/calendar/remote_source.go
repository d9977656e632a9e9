package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultTimeout = 10 * time.Second
)

// RemoteSource fetches custom holidays as a JSON array of CustomHolidaySpec
// from an HTTP endpoint (e.g. a shared patron-saint list) and caches them.
type RemoteSource struct {
	url        string
	cacheTTL   time.Duration
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time

	cacheMu   sync.RWMutex
	cached    []CustomHolidaySpec
	fetchedAt time.Time
}

// NewRemoteSource creates a new RemoteSource instance
func NewRemoteSource(url string, cacheTTL time.Duration, logger *zap.Logger) *RemoteSource {
	return &RemoteSource{
		url:      url,
		cacheTTL: cacheTTL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
		now:    time.Now,
	}
}

// CustomHolidays returns the cached list or fetches a fresh one
func (rs *RemoteSource) CustomHolidays(ctx context.Context) ([]CustomHolidaySpec, error) {
	rs.cacheMu.RLock()
	if rs.cached != nil && rs.now().Sub(rs.fetchedAt) < rs.cacheTTL {
		specs := append([]CustomHolidaySpec(nil), rs.cached...)
		rs.cacheMu.RUnlock()
		rs.logger.Debug("Using cached custom holidays",
			zap.String("url", rs.url),
			zap.Int("holidays", len(specs)))
		return specs, nil
	}
	rs.cacheMu.RUnlock()

	specs, err := rs.fetch(ctx)
	if err != nil {
		return nil, err
	}

	rs.cacheMu.Lock()
	rs.cached = specs
	rs.fetchedAt = rs.now()
	rs.cacheMu.Unlock()

	rs.logger.Info("Custom holidays fetched and cached",
		zap.String("url", rs.url),
		zap.Int("holidays", len(specs)))

	return append([]CustomHolidaySpec(nil), specs...), nil
}

// fetch downloads and validates the list
func (rs *RemoteSource) fetch(ctx context.Context) ([]CustomHolidaySpec, error) {
	rs.logger.Debug("Fetching custom holidays", zap.String("url", rs.url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rs.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := rs.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch custom holidays: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("holiday server returned status %d", resp.StatusCode)
	}

	specs := []CustomHolidaySpec{}
	if err := json.NewDecoder(resp.Body).Decode(&specs); err != nil {
		return nil, fmt.Errorf("failed to parse holiday response: %w", err)
	}

	if _, err := ParseCustomHolidays(specs); err != nil {
		return nil, fmt.Errorf("holiday server sent an invalid list: %w", err)
	}

	return specs, nil
}
