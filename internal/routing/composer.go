package routing

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tripxl/service-booking/internal/domain/route"
	"github.com/tripxl/service-booking/internal/platform/domain"
)

const (
	// DefaultTimeout bounds one provider call.
	DefaultTimeout = 8 * time.Second

	maxResponseBytes = 8 << 20
	noProviderName   = "none"
)

// Composer calculates routes through a Provider and falls back to a
// straight-line estimate whenever the provider cannot produce a usable route.
// It is safe for concurrent use.
type Composer struct {
	provider Provider
	client   *http.Client
	timeout  time.Duration
	limiter  *rate.Limiter
	cache    RouteCache
	cacheTTL time.Duration
	metrics  *Metrics
	logger   *zap.Logger
}

// Option configures a Composer.
type Option func(*Composer)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Composer) { c.client = client }
}

// WithTimeout sets the per-call provider timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Composer) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit caps provider calls at perSecond with the given burst.
// Calls over the limit use the fallback.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Composer) {
		if perSecond > 0 {
			if burst < 1 {
				burst = 1
			}
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithCache caches provider routes for ttl.
func WithCache(cache RouteCache, ttl time.Duration) Option {
	return func(c *Composer) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

// WithMetrics records outcomes on m.
func WithMetrics(m *Metrics) Option {
	return func(c *Composer) { c.metrics = m }
}

// NewComposer creates a Composer. A nil provider makes every call use the fallback.
func NewComposer(provider Provider, logger *zap.Logger, opts ...Option) *Composer {
	c := &Composer{
		provider: provider,
		timeout:  DefaultTimeout,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: c.timeout}
	}
	return c
}

// CalculateRoute returns a route from origin through waypoints to destination.
//
// The only error it returns is a validation error for bad coordinates or
// options, raised before any network call. Provider failures of any kind
// produce a route with Source == route.SourceFallback instead.
func (c *Composer) CalculateRoute(ctx context.Context, origin, destination route.Waypoint, waypoints []route.Waypoint, opts route.Options) (*route.Route, error) {
	normalized, err := opts.Normalized()
	if err != nil {
		return nil, err
	}

	stops := route.Stops(origin, destination, waypoints)
	for i, s := range stops {
		if err := s.Location.Validate(); err != nil {
			return nil, domain.NewValidationError(fmt.Sprintf("%s: %s", stopLabel(i, len(stops)), err.Error()))
		}
	}
	rc := RequestContext{Stops: stops, Options: normalized}

	name := c.providerName()
	r, err := c.fromProvider(ctx, rc)
	if err == nil {
		c.logger.Info("route calculated by provider",
			zap.String("provider", name),
			zap.Int("stops", len(stops)),
			zap.Float64("distance_m", r.TotalDistanceMeters),
			zap.Float64("time_s", r.TotalTimeSeconds),
		)
		c.metrics.observeResult(name, route.SourceProvider)
		return r, nil
	}

	c.logger.Warn("routing provider failed, using straight-line fallback",
		zap.String("provider", name),
		zap.Int("stops", len(stops)),
		zap.String("mode", string(normalized.Mode)),
		zap.Error(err),
	)

	fb, err := Normalize(Fallback(stops, normalized.Mode), rc)
	if err != nil {
		return nil, err
	}
	c.metrics.observeResult(name, route.SourceFallback)
	return fb, nil
}

func (c *Composer) providerName() string {
	if c.provider == nil {
		return noProviderName
	}
	return c.provider.Name()
}

func (c *Composer) fromProvider(ctx context.Context, rc RequestContext) (*route.Route, error) {
	if c.provider == nil {
		return nil, errors.Wrap(ErrProviderUnavailable, "no provider configured")
	}
	name := c.provider.Name()

	var key string
	if c.cache != nil {
		key = cacheKey(name, rc)
		cached, ok, err := c.cache.Get(ctx, key)
		switch {
		case err != nil:
			c.logger.Warn("route cache read failed", zap.Error(err))
		case ok && cached.Source == route.SourceProvider:
			c.logger.Debug("route served from cache", zap.String("provider", name))
			c.metrics.observeProvider(name, outcomeCacheHit, 0)
			return cached, nil
		}
	}

	if c.limiter != nil && !c.limiter.Allow() {
		c.metrics.observeProvider(name, outcomeRateLimited, 0)
		return nil, errors.Wrap(ErrProviderUnavailable, "rate limit exceeded")
	}

	r, _, err := c.call(ctx, rc)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, r, c.cacheTTL); err != nil {
			c.logger.Warn("route cache write failed", zap.Error(err))
		}
	}
	return r, nil
}

// call performs exactly one provider round trip under the configured timeout.
func (c *Composer) call(ctx context.Context, rc RequestContext) (r *route.Route, outcome string, err error) {
	name := c.provider.Name()
	start := time.Now()
	defer func() {
		c.metrics.observeProvider(name, outcome, time.Since(start))
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.provider.BuildRequest(ctx, rc.Stops, rc.Options)
	if err != nil {
		return nil, outcomeError, errors.Wrapf(ErrProviderUnavailable, "build request: %v", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, outcomeError, errors.Wrapf(ErrProviderUnavailable, "request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, outcomeError, errors.Wrapf(ErrProviderUnavailable, "read body: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, outcomeStatus, errors.Wrapf(ErrProviderUnavailable, "status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	raw, err := c.provider.Decode(body)
	if err != nil {
		return nil, outcomeMalformed, errors.Wrapf(ErrMalformedResponse, "%v", err)
	}

	r, err = Normalize(raw, rc)
	if err != nil {
		return nil, outcomeMalformed, err
	}
	return r, outcomeOK, nil
}

func stopLabel(i, n int) string {
	switch i {
	case 0:
		return "origin"
	case n - 1:
		return "destination"
	default:
		return fmt.Sprintf("waypoint %d", i)
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
