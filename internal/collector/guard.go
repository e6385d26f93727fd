package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"MarketLens/internal/metrics"
	"MarketLens/internal/model"
)

// GuardConfig tunes the protection applied around a provider.
type GuardConfig struct {
	RatePerSecond   float64       `yaml:"rate_per_second" split_words:"true" validate:"gte=0"`
	Burst           int           `yaml:"burst" split_words:"true" validate:"gte=0"`
	MaxRetries      int           `yaml:"max_retries" split_words:"true" validate:"gte=0,lte=10"`
	BaseBackoff     time.Duration `yaml:"base_backoff" split_words:"true"`
	BreakerFailures uint32        `yaml:"breaker_failures" split_words:"true"`
	BreakerTimeout  time.Duration `yaml:"breaker_timeout" split_words:"true"`
}

// DefaultGuardConfig returns conservative limits for public endpoints.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		RatePerSecond:   2,
		Burst:           4,
		MaxRetries:      2,
		BaseBackoff:     time.Second,
		BreakerFailures: 3,
		BreakerTimeout:  60 * time.Second,
	}
}

// Guarded wraps a Fetcher with rate limiting, a circuit breaker and retries.
type Guarded struct {
	next    Fetcher
	cfg     GuardConfig
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	metrics *metrics.Registry
}

// Guard wraps next. m may be nil.
func Guard(next Fetcher, cfg GuardConfig, m *metrics.Registry) *Guarded {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 3
	}

	st := gobreaker.Settings{Name: next.Name()}
	st.Interval = 60 * time.Second
	st.Timeout = cfg.BreakerTimeout
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= failures
	}
	st.IsSuccessful = func(err error) bool {
		// a bad symbol or a cancelled caller says nothing about provider health
		return err == nil || !retryable(err)
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn().Str("provider", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		m.SetBreakerState(name, int(to))
	}

	return &Guarded{
		next:    next,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, burst),
		breaker: gobreaker.NewCircuitBreaker(st),
		metrics: m,
	}
}

func (g *Guarded) Name() string { return g.next.Name() }

// FetchOHLCV calls the provider with exponential backoff between attempts.
func (g *Guarded) FetchOHLCV(ctx context.Context, req model.FetchRequest) (*model.RawTable, error) {
	var lastErr error
	for i := 0; i <= g.cfg.MaxRetries; i++ {
		if i > 0 {
			backoff := g.cfg.BaseBackoff * time.Duration(1<<uint(i-1))
			log.Warn().Str("provider", g.Name()).Str("symbol", req.Symbol).Err(lastErr).
				Msgf("fetch failed (attempt %d/%d), retrying in %v", i, g.cfg.MaxRetries+1, backoff)
			g.metrics.IncRetry(g.Name())
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		table, err := g.call(ctx, req)
		if err == nil {
			return table, nil
		}
		lastErr = err
		if !retryable(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("all %d attempts exhausted: %w", g.cfg.MaxRetries+1, lastErr)
}

func (g *Guarded) call(ctx context.Context, req model.FetchRequest) (*model.RawTable, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	start := time.Now()
	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.next.FetchOHLCV(ctx, req)
	})
	g.metrics.ObserveFetch(g.Name(), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return out.(*model.RawTable), nil
}

// FetchProfile rate limits profile lookups. It does not retry.
func (g *Guarded) FetchProfile(ctx context.Context, symbol string) (*model.SymbolProfile, error) {
	pf, ok := g.next.(ProfileFetcher)
	if !ok {
		return nil, ErrNoProfiles
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return pf.FetchProfile(ctx, symbol)
}

// retryable reports whether err is worth another attempt.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	var status *StatusError
	if errors.As(err, &status) {
		return status.Temporary()
	}
	return true
}
