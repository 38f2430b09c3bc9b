package users

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/junioryono/graphdi/observable"
)

// RecordSource is what a ViewModel loads from. *Repository implements it.
type RecordSource interface {
	GetRecords(ctx context.Context) ([]User, error)
}

// UsersState is the observable state of a ViewModel.
type UsersState = observable.State[[]User]

// ViewModel runs at most one asynchronous load at a time and publishes its
// progress as UsersState. The state machine is
//
//	Idle → Loading → (Success | Failure) → Loading → …
//
// Subscribers are called on the goroutine that causes the transition while
// the ViewModel is locked. From inside a callback they may call State,
// Loading, Closed and the methods of any Subscription; calling Load, Close
// or Subscribe deadlocks.
type ViewModel struct {
	source RecordSource
	logger *zap.Logger
	state  *observable.Observable[[]User]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu serialises transitions; loading and closed are only written with
	// mu held but may be read without it.
	mu      sync.Mutex
	loading atomic.Bool
	closed  atomic.Bool
}

// NewViewModel creates a ViewModel in the Idle state.
func NewViewModel(source RecordSource, logger *zap.Logger) *ViewModel {
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &ViewModel{
		source: source,
		logger: logger.Named("viewmodel"),
		state:  observable.New(observable.Idle[[]User]()),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Load starts fetching records. It publishes Loading before returning and
// Success or Failure once the fetch completes. Load reports false, doing
// nothing, if a load is already in flight or the ViewModel is closed.
func (vm *ViewModel) Load() bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if vm.closed.Load() || vm.loading.Load() {
		return false
	}

	vm.loading.Store(true)
	vm.state.Publish(observable.Loading[[]User]())
	vm.logger.Debug("load started")

	vm.wg.Add(1)
	go vm.fetch()
	return true
}

func (vm *ViewModel) fetch() {
	defer vm.wg.Done()

	records, err := vm.source.GetRecords(vm.ctx)

	vm.mu.Lock()
	defer vm.mu.Unlock()

	if vm.closed.Load() {
		vm.logger.Debug("load result discarded after close")
		return
	}
	vm.loading.Store(false)

	if err != nil {
		cause := failureCause(err)
		vm.logger.Warn("load failed", zap.String("cause", cause), zap.Error(err))
		vm.state.Publish(observable.Failure[[]User](cause))
		return
	}

	vm.logger.Debug("load succeeded", zap.Int("count", len(records)))
	vm.state.Publish(observable.Success(records))
}

// failureCause extracts the displayable cause of a failed fetch.
func failureCause(err error) string {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Cause
	}
	return err.Error()
}

// State returns the current state.
func (vm *ViewModel) State() UsersState {
	return vm.state.Value()
}

// Loading reports whether a load is in flight. It is safe to call from a
// subscriber callback.
func (vm *ViewModel) Loading() bool {
	return vm.loading.Load()
}

// Closed reports whether Close has been called.
func (vm *ViewModel) Closed() bool {
	return vm.closed.Load()
}

// Subscribe calls fn with the current state and then with every transition
// until the subscription is cancelled or the ViewModel is closed.
func (vm *ViewModel) Subscribe(fn func(UsersState)) *observable.Subscription[[]User] {
	return vm.state.Subscribe(fn)
}

// Close cancels an in-flight load, waits for it to return and drops all
// subscriptions. No transition is published once Close has been called.
// Close is idempotent and always returns nil.
func (vm *ViewModel) Close() error {
	vm.mu.Lock()
	if vm.closed.Load() {
		vm.mu.Unlock()
		return nil
	}
	vm.closed.Store(true)
	vm.mu.Unlock()

	vm.cancel()
	vm.wg.Wait()
	vm.state.Close()

	vm.logger.Debug("closed")
	return nil
}
