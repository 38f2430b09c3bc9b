package users_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/junioryono/graphdi"
	"github.com/junioryono/graphdi/observable"
	"github.com/junioryono/graphdi/users"
)

func buildUsers(t *testing.T, cfg users.Config) *graphdi.Container {
	t.Helper()

	g := graphdi.NewProviderGraph()
	require.NoError(t, g.Register(graphdi.Value(zaptest.NewLogger(t))))
	require.NoError(t, g.AddModules(users.Module(cfg)))

	c, err := g.Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestModule_SingletonChain(t *testing.T) {
	c := buildUsers(t, users.Config{Count: 10})

	repo1 := graphdi.MustResolve[*users.Repository](c)
	repo2 := graphdi.MustResolve[*users.Repository](c)
	assert.Same(t, repo1, repo2)

	source1 := graphdi.MustResolve[users.DataSource](c)
	source2 := graphdi.MustResolve[users.DataSource](c)
	assert.Same(t, source1, source2)
}

func TestModule_ViewModelsAreUnscoped(t *testing.T) {
	c := buildUsers(t, users.Config{Count: 10})

	vm1 := graphdi.MustResolve[*users.ViewModel](c)
	vm2 := graphdi.MustResolve[*users.ViewModel](c)
	defer vm1.Close()
	defer vm2.Close()

	assert.NotSame(t, vm1, vm2)
}

func TestModule_ConcurrentViewModelsShareSource(t *testing.T) {
	c := buildUsers(t, users.Config{Count: 50, Delay: time.Millisecond})

	var wg sync.WaitGroup
	vms := make([]*users.ViewModel, 16)
	for i := range vms {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			vm, err := graphdi.Resolve[*users.ViewModel](c)
			assert.NoError(t, err)
			vms[i] = vm
		}(i)
	}
	wg.Wait()

	source := graphdi.MustResolve[users.DataSource](c).(*users.MockDataSource)
	for _, vm := range vms {
		require.NotNil(t, vm)
		require.True(t, vm.Load())
	}
	for _, vm := range vms {
		state := waitForStatus(t, vm, observable.StatusSuccess)
		assert.Len(t, state.Data, 50)
		require.NoError(t, vm.Close())
	}

	assert.Equal(t, int64(len(vms)), source.Calls())
}

func TestModule_Breaker(t *testing.T) {
	c := buildUsers(t, users.Config{FailWith: "network", BreakerMaxFailures: 1, BreakerTimeout: time.Hour})

	source := graphdi.MustResolve[users.DataSource](c)
	require.IsType(t, &users.BreakerDataSource{}, source)

	vm := graphdi.MustResolve[*users.ViewModel](c)
	defer vm.Close()

	require.True(t, vm.Load())
	assert.Equal(t, "network", waitForStatus(t, vm, observable.StatusFailure).Err)

	require.True(t, vm.Load())
	require.Eventually(t, func() bool {
		return vm.State().Err == "circuit open"
	}, time.Second, time.Millisecond)
}

func TestModule_RequiresLogger(t *testing.T) {
	g := graphdi.NewProviderGraph()
	require.NoError(t, g.AddModules(users.Module(users.Config{})))

	_, err := g.Build()
	require.Error(t, err)
	assert.True(t, graphdi.IsUnknownType(err))

	var unknown graphdi.UnknownTypeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, graphdi.ID[*zap.Logger](), unknown.ID)
}
