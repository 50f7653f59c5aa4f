package circuit_breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_circuitBreaker_Call(t *testing.T) {
	errBroker := errors.New("broker unavailable")
	ok := func() error { return nil }
	fail := func() error { return errBroker }

	t.Run("stays closed under threshold", func(t *testing.T) {
		cb := New(10, time.Second, 0.5, 2)
		for i := 0; i < 4; i++ {
			require.ErrorIs(t, cb.Call(fail), errBroker)
		}
		require.NoError(t, cb.Call(ok))
		require.Equal(t, Closed, cb.State())
	})

	t.Run("opens and rejects", func(t *testing.T) {
		cb := New(4, time.Minute, 0.5, 2)
		require.Error(t, cb.Call(fail))
		require.Error(t, cb.Call(fail))
		require.Equal(t, Open, cb.State())

		called := false
		err := cb.Call(func() error { called = true; return nil })
		require.ErrorIs(t, err, ErrOpen)
		require.False(t, called)
	})

	t.Run("half-open recovers", func(t *testing.T) {
		now := time.Now()
		cb := New(2, time.Second, 0.5, 2).(*circuitBreaker)
		cb.now = func() time.Time { return now }

		require.Error(t, cb.Call(fail))
		require.Equal(t, Open, cb.State())

		now = now.Add(2 * time.Second)
		require.NoError(t, cb.Call(ok))
		require.Equal(t, HalfOpen, cb.State())
		require.NoError(t, cb.Call(ok))
		require.Equal(t, Closed, cb.State())
	})

	t.Run("half-open failure reopens", func(t *testing.T) {
		now := time.Now()
		cb := New(2, time.Second, 0.5, 3).(*circuitBreaker)
		cb.now = func() time.Time { return now }

		require.Error(t, cb.Call(fail))
		now = now.Add(2 * time.Second)
		require.Error(t, cb.Call(fail))
		require.Equal(t, Open, cb.State())
		require.ErrorIs(t, cb.Call(ok), ErrOpen)
	})
}
