package users

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerConfig configures a BreakerDataSource.
type BreakerConfig struct {
	Name string
	// MaxFailures is the number of consecutive failures that opens the
	// breaker.
	MaxFailures uint32
	// Timeout is how long the breaker stays open before letting a trial
	// fetch through.
	Timeout time.Duration
}

// BreakerDataSource guards another DataSource with a circuit breaker. While
// the breaker is open fetches fail fast with a FetchError whose cause is
// "circuit open".
type BreakerDataSource struct {
	next   DataSource
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

var _ DataSource = (*BreakerDataSource)(nil)

// NewBreakerDataSource wraps next.
func NewBreakerDataSource(next DataSource, cfg BreakerConfig, logger *zap.Logger) *BreakerDataSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Name == "" {
		cfg.Name = "users"
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}

	logger = logger.Named("breaker")
	s := &BreakerDataSource{next: next, logger: logger}
	s.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
		IsSuccessful: func(err error) bool {
			// Canceled fetches do not count as failures.
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return s
}

// FetchAll calls the wrapped DataSource through the breaker.
func (s *BreakerDataSource) FetchAll(ctx context.Context) ([]User, error) {
	result, err := s.cb.Execute(func() (interface{}, error) {
		return s.next.FetchAll(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			s.logger.Debug("fetch rejected", zap.Error(err))
			return nil, &FetchError{Cause: "circuit open", Err: err}
		}
		return nil, err
	}

	users, _ := result.([]User)
	return users, nil
}

// State returns the breaker state: "closed", "half-open" or "open".
func (s *BreakerDataSource) State() string {
	return s.cb.State().String()
}
