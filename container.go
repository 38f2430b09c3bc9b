package graphdi

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Container resolves instances from the rules of a built ProviderGraph and
// owns the cache of singleton instances. Containers are independent of each
// other: two containers built from the same graph never share instances.
//
// A Container is safe for concurrent use.
type Container struct {
	id      string
	rules   map[TypeID]*Rule
	options *Options
	logger  *zap.Logger

	// entries holds one *entry per singleton TypeID that has been requested.
	entries sync.Map
	// planned records TypeIDs whose dependency closure has been checked.
	planned sync.Map

	disposables   []Disposable
	disposablesMu sync.Mutex

	closed atomic.Bool
}

// entry is the cache slot of one singleton. mu serialises construction of
// that TypeID only; done is set once value has been written.
type entry struct {
	mu    sync.Mutex
	done  atomic.Bool
	value any
}

func newContainer(rules map[TypeID]*Rule, options *Options) *Container {
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	id := uuid.NewString()
	return &Container{
		id:      id,
		rules:   rules,
		options: options,
		logger:  logger.With(zap.String("container", id)),
	}
}

// ID returns the unique identifier of this container.
func (c *Container) ID() string {
	return c.id
}

// Contains reports whether the container has a rule for id.
func (c *Container) Contains(id TypeID) bool {
	_, ok := c.rules[id]
	return ok
}

// IsClosed reports whether Close has been called.
func (c *Container) IsClosed() bool {
	return c.closed.Load()
}

// Resolve returns a fully constructed instance for id.
//
// A cached singleton is returned without invoking any factory. Otherwise the
// dependency closure of id is checked, failing with UnknownTypeError or
// CyclicDependencyError, and the instance is built bottom-up. Singleton
// results are cached before Resolve returns.
func (c *Container) Resolve(id TypeID) (any, error) {
	if c.closed.Load() {
		return nil, ErrContainerClosed
	}

	start := time.Now()
	instance, err := c.resolve(id)
	if err != nil {
		c.logger.Warn("resolution failed",
			zap.Stringer("type", id),
			zap.Error(err),
		)
		if c.options.OnError != nil {
			c.options.OnError(id, err)
		}
		return nil, err
	}

	if c.options.OnResolved != nil {
		c.options.OnResolved(id, instance, time.Since(start))
	}

	return instance, nil
}

// Close disposes every cached singleton implementing Disposable, in reverse
// construction order, and clears the cache. Resolve fails with
// ErrContainerClosed afterwards. Close is idempotent.
func (c *Container) Close() error {
	// closed flips under disposablesMu so that commit either tracks an
	// instance before the swap below or sees the container closed.
	c.disposablesMu.Lock()
	if !c.closed.CompareAndSwap(false, true) {
		c.disposablesMu.Unlock()
		return nil
	}
	disposables := c.disposables
	c.disposables = nil
	c.disposablesMu.Unlock()

	var errs []error
	for i := len(disposables) - 1; i >= 0; i-- {
		if err := disposables[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}

	c.entries.Range(func(key, _ any) bool {
		c.entries.Delete(key)
		return true
	})

	c.logger.Debug("container closed",
		zap.Int("disposed", len(disposables)),
		zap.Int("errors", len(errs)),
	)

	if len(errs) > 0 {
		return DisposalError{Errors: errs}
	}

	return nil
}

// commit caches a freshly built singleton and registers it for disposal.
// A singleton finished after Close is disposed at once instead, and the
// caller gets ErrContainerClosed.
func (c *Container) commit(e *entry, id TypeID, instance any) error {
	c.disposablesMu.Lock()
	defer c.disposablesMu.Unlock()

	d, disposable := instance.(Disposable)
	if c.closed.Load() {
		if disposable {
			if err := d.Close(); err != nil {
				c.logger.Warn("failed to dispose singleton built during close",
					zap.Stringer("type", id),
					zap.Error(err),
				)
			}
		}
		return ErrContainerClosed
	}

	e.value = instance
	e.done.Store(true)
	if disposable {
		c.disposables = append(c.disposables, d)
	}
	return nil
}

func (c *Container) entry(id TypeID) *entry {
	if e, ok := c.entries.Load(id); ok {
		return e.(*entry)
	}

	e, _ := c.entries.LoadOrStore(id, &entry{})
	return e.(*entry)
}
