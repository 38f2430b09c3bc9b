package users_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/junioryono/graphdi/users"
)

func TestMockDataSource(t *testing.T) {
	tests := []struct {
		name      string
		cfg       users.MockConfig
		wantCount int
		wantCause string
	}{
		{name: "records", cfg: users.MockConfig{Count: 50}, wantCount: 50},
		{name: "empty", cfg: users.MockConfig{}, wantCount: 0},
		{name: "delayed", cfg: users.MockConfig{Count: 2, Delay: 5 * time.Millisecond}, wantCount: 2},
		{name: "failure", cfg: users.MockConfig{Count: 2, FailWith: "network"}, wantCause: "network"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := users.NewMockDataSource(tt.cfg, zaptest.NewLogger(t))

			records, err := source.FetchAll(context.Background())
			if tt.wantCause != "" {
				var fe *users.FetchError
				require.ErrorAs(t, err, &fe)
				assert.Equal(t, tt.wantCause, fe.Cause)
				assert.Nil(t, records)
				return
			}

			require.NoError(t, err)
			assert.Len(t, records, tt.wantCount)
		})
	}
}

func TestMockDataSource_Canceled(t *testing.T) {
	source := users.NewMockDataSource(users.MockConfig{Count: 1, Delay: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := source.FetchAll(ctx)

	var fe *users.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "canceled", fe.Cause)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchError(t *testing.T) {
	assert.Equal(t, "fetch failed: network", (&users.FetchError{Cause: "network"}).Error())

	cause := errors.New("dial tcp: refused")
	err := &users.FetchError{Cause: "network", Err: cause}
	assert.Equal(t, "fetch failed: network: dial tcp: refused", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestBreakerDataSource(t *testing.T) {
	failing := users.NewMockDataSource(users.MockConfig{FailWith: "network"}, nil)
	source := users.NewBreakerDataSource(failing, users.BreakerConfig{
		MaxFailures: 2,
		Timeout:     time.Hour,
	}, zaptest.NewLogger(t))

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := source.FetchAll(ctx)
		var fe *users.FetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "network", fe.Cause)
	}
	assert.Equal(t, "open", source.State())

	_, err := source.FetchAll(ctx)
	var fe *users.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "circuit open", fe.Cause)
	assert.Equal(t, int64(2), failing.Calls())
}

func TestBreakerDataSource_PassesRecords(t *testing.T) {
	source := users.NewBreakerDataSource(
		users.NewMockDataSource(users.MockConfig{Count: 3}, nil),
		users.BreakerConfig{MaxFailures: 1},
		nil,
	)

	records, err := source.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, "closed", source.State())
}
