package users

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DataSource produces raw user records.
type DataSource interface {
	FetchAll(ctx context.Context) ([]User, error)
}

// FetchError is returned by a DataSource that could not produce records.
// Cause is a human-readable description suitable for display.
type FetchError struct {
	Cause string
	Err   error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return "fetch failed: " + e.Cause + ": " + e.Err.Error()
	}
	return "fetch failed: " + e.Cause
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// MockConfig configures a MockDataSource.
type MockConfig struct {
	// Count is the number of users returned by each fetch.
	Count int
	// Delay simulates I/O latency before each fetch completes.
	Delay time.Duration
	// FailWith, when not empty, makes every fetch fail with this cause.
	FailWith string
}

// MockDataSource generates users in memory after a simulated delay.
type MockDataSource struct {
	cfg    MockConfig
	logger *zap.Logger
	calls  atomic.Int64
}

var _ DataSource = (*MockDataSource)(nil)

// NewMockDataSource creates a MockDataSource. A nil logger discards output.
func NewMockDataSource(cfg MockConfig, logger *zap.Logger) *MockDataSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MockDataSource{cfg: cfg, logger: logger.Named("datasource")}
}

// FetchAll waits for the configured delay and returns the generated users.
// It returns a FetchError if ctx is done first or if FailWith is set.
func (s *MockDataSource) FetchAll(ctx context.Context) ([]User, error) {
	call := s.calls.Add(1)
	s.logger.Debug("fetching users",
		zap.Int64("call", call),
		zap.Duration("delay", s.cfg.Delay),
	)

	if s.cfg.Delay > 0 {
		timer := time.NewTimer(s.cfg.Delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return nil, &FetchError{Cause: "canceled", Err: ctx.Err()}
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, &FetchError{Cause: "canceled", Err: err}
	}

	if s.cfg.FailWith != "" {
		s.logger.Warn("fetch failed", zap.String("cause", s.cfg.FailWith))
		return nil, &FetchError{Cause: s.cfg.FailWith}
	}

	users := GenerateUsers(s.cfg.Count)
	s.logger.Debug("fetched users", zap.Int("count", len(users)))
	return users, nil
}

// Calls returns how many times FetchAll has been called.
func (s *MockDataSource) Calls() int64 {
	return s.calls.Load()
}
