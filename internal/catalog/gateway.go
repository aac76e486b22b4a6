package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sony/gobreaker"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/internal/metrics"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/pkg/model"
	"go.uber.org/zap"
)

// DoctorStore is the persistence behind the catalog
type DoctorStore interface {
	ListDoctors(ctx context.Context, q model.DoctorQuery) ([]model.Doctor, error)
	FindDoctorByID(ctx context.Context, id string) (*model.Doctor, error)
}

// Config configures the gateway cache and circuit breaker
type Config struct {
	CacheSize        int
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// Gateway fronts the doctor catalog with a circuit breaker and a doctor-by-id cache.
// Every failure it returns wraps model.ErrUpstreamUnavailable, except model.ErrNotFound.
type Gateway struct {
	store   DoctorStore
	breaker *gobreaker.CircuitBreaker
	cache   *lru.Cache[string, model.Doctor]
	metrics *metrics.Collector
	logger  *zap.Logger
}

// NewGateway creates a new catalog Gateway
func NewGateway(store DoctorStore, cfg Config, collector *metrics.Collector, logger *zap.Logger) (*Gateway, error) {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 512
	}
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 3
	}
	if cfg.Interval == 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}

	cache, err := lru.New[string, model.Doctor](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create doctor cache: %w", err)
	}

	settings := gobreaker.Settings{
		Name:        "doctor-catalog",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, model.ErrNotFound)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("circuit_breaker", name),
				zap.String("from_state", from.String()),
				zap.String("to_state", to.String()),
			)
			collector.SetCatalogBreakerOpen(to == gobreaker.StateOpen)
		},
	}

	return &Gateway{
		store:   store,
		breaker: gobreaker.NewCircuitBreaker(settings),
		cache:   cache,
		metrics: collector,
		logger:  logger,
	}, nil
}

// ListDoctors queries the catalog and refreshes the cache with the returned doctors
func (g *Gateway) ListDoctors(ctx context.Context, q model.DoctorQuery) ([]model.Doctor, error) {
	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.store.ListDoctors(ctx, q)
	})
	if err != nil {
		return nil, g.upstreamError("list doctors", err)
	}

	doctors := result.([]model.Doctor)
	for _, d := range doctors {
		g.cache.Add(d.ID, d)
	}
	return doctors, nil
}

// GetDoctor returns a doctor by id, from the cache when possible
func (g *Gateway) GetDoctor(ctx context.Context, id string) (*model.Doctor, error) {
	if d, ok := g.cache.Get(id); ok {
		g.metrics.ObserveCatalogCache(true)
		return &d, nil
	}
	g.metrics.ObserveCatalogCache(false)

	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.store.FindDoctorByID(ctx, id)
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("doctor %s: %w", id, model.ErrNotFound)
		}
		return nil, g.upstreamError("get doctor", err)
	}

	doctor := result.(*model.Doctor)
	g.cache.Add(doctor.ID, *doctor)
	return doctor, nil
}

// Invalidate drops a cached doctor
func (g *Gateway) Invalidate(id string) {
	g.cache.Remove(id)
}

// State returns the breaker state, for health reporting
func (g *Gateway) State() gobreaker.State {
	return g.breaker.State()
}

func (g *Gateway) upstreamError(op string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		g.logger.Debug("catalog call rejected by circuit breaker", zap.String("operation", op))
	} else {
		g.logger.Error("catalog call failed", zap.String("operation", op), zap.Error(err))
	}
	return fmt.Errorf("failed to %s: %w: %w", op, model.ErrUpstreamUnavailable, err)
}
