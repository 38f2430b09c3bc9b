package graphdi_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/junioryono/graphdi"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Shared Test Types
// ============================================================================

// TSource is a leaf dependency.
type TSource struct {
	ID int
}

// TRepository depends on TSource.
type TRepository struct {
	Source *TSource
}

// TConsumer depends on TRepository and TSource.
type TConsumer struct {
	Repo   *TRepository
	Source *TSource
}

// TReader is an interface implemented by TSource.
type TReader interface {
	Read() int
}

func (s *TSource) Read() int { return s.ID }

// TCycleA and TCycleB depend on each other.
type TCycleA struct{ B *TCycleB }
type TCycleB struct{ A *TCycleA }

// TDisposable records the order in which instances are closed.
type TDisposable struct {
	Name     string
	closed   atomic.Bool
	closeErr error
	log      *closeLog
}

func (d *TDisposable) Close() error {
	if d.closed.Swap(true) {
		return errors.New("already closed")
	}
	if d.log != nil {
		d.log.add(d.Name)
	}
	return d.closeErr
}

func (d *TDisposable) IsClosed() bool {
	return d.closed.Load()
}

type closeLog struct {
	mu    sync.Mutex
	names []string
}

func (l *closeLog) add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.names = append(l.names, name)
}

func (l *closeLog) get() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.names...)
}

// counter counts factory invocations.
type counter struct {
	n atomic.Int32
}

func (c *counter) inc() int32  { return c.n.Add(1) }
func (c *counter) load() int32 { return c.n.Load() }

// ============================================================================
// Builders
// ============================================================================

func newSourceRule(lifetime graphdi.Lifetime, calls *counter) *graphdi.Rule {
	return graphdi.Provide(lifetime, func() (*TSource, error) {
		n := calls.inc()
		return &TSource{ID: int(n)}, nil
	})
}

func newRepositoryRule(lifetime graphdi.Lifetime, calls *counter) *graphdi.Rule {
	return graphdi.Provide1(lifetime, func(src *TSource) (*TRepository, error) {
		calls.inc()
		return &TRepository{Source: src}, nil
	})
}

func newConsumerRule(lifetime graphdi.Lifetime) *graphdi.Rule {
	return graphdi.Provide2(lifetime, func(repo *TRepository, src *TSource) (*TConsumer, error) {
		return &TConsumer{Repo: repo, Source: src}, nil
	})
}

func cycleRules() []*graphdi.Rule {
	return []*graphdi.Rule{
		graphdi.Provide1(graphdi.Singleton, func(b *TCycleB) (*TCycleA, error) {
			return &TCycleA{B: b}, nil
		}),
		graphdi.Provide1(graphdi.Singleton, func(a *TCycleA) (*TCycleB, error) {
			return &TCycleB{A: a}, nil
		}),
	}
}

// buildContainer registers rules into a fresh graph and builds it.
func buildContainer(t *testing.T, options *graphdi.Options, rules ...*graphdi.Rule) *graphdi.Container {
	t.Helper()

	g := graphdi.NewProviderGraph()
	for _, rule := range rules {
		require.NoError(t, g.Register(rule))
	}

	c, err := g.BuildWithOptions(options)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}
