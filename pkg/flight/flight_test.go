package flight_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/cloud-shuttle/ogimage/pkg/flight"
)

func TestGroup_Do(t *testing.T) {
	t.Parallel()

	t.Run("returns the function result", func(t *testing.T) {
		t.Parallel()

		var g flight.Group[string]

		v, shared, err := g.Do(context.Background(), "key", func() (string, error) {
			return "value", nil
		})
		require.NoError(t, err)
		require.False(t, shared)
		require.Equal(t, "value", v)
	})

	t.Run("coalesces concurrent callers onto one execution", func(t *testing.T) {
		t.Parallel()

		var g flight.Group[int]
		var calls atomic.Int64
		release := make(chan struct{})

		var eg errgroup.Group
		results := make([]int, 50)
		for i := range results {
			i := i
			eg.Go(func() error {
				v, _, err := g.Do(context.Background(), "key", func() (int, error) {
					calls.Add(1)
					<-release
					return 42, nil
				})
				if err != nil {
					return err
				}
				results[i] = v
				return nil
			})
		}

		// Let the leader start and the waiters pile up, then release.
		time.Sleep(50 * time.Millisecond)
		close(release)
		require.NoError(t, eg.Wait())

		require.Equal(t, int64(1), calls.Load())
		for _, v := range results {
			require.Equal(t, 42, v)
		}
	})

	t.Run("waiters share the leader's error", func(t *testing.T) {
		t.Parallel()

		var g flight.Group[int]
		wantErr := errors.New("render failed")
		release := make(chan struct{})

		var wg sync.WaitGroup
		errs := make([]error, 10)
		for i := range errs {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _, errs[i] = g.Do(context.Background(), "key", func() (int, error) {
					<-release
					return 0, wantErr
				})
			}()
		}

		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		for _, err := range errs {
			require.ErrorIs(t, err, wantErr)
		}
	})

	t.Run("failed key can be re-attempted", func(t *testing.T) {
		t.Parallel()

		var g flight.Group[int]
		var calls atomic.Int64

		_, _, err := g.Do(context.Background(), "key", func() (int, error) {
			calls.Add(1)
			return 0, errors.New("boom")
		})
		require.Error(t, err)

		v, _, err := g.Do(context.Background(), "key", func() (int, error) {
			calls.Add(1)
			return 7, nil
		})
		require.NoError(t, err)
		require.Equal(t, 7, v)
		require.Equal(t, int64(2), calls.Load())
	})

	t.Run("leader panic is delivered as an error", func(t *testing.T) {
		t.Parallel()

		var g flight.Group[int]

		_, _, err := g.Do(context.Background(), "key", func() (int, error) {
			panic("encode blew up")
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "encode blew up")

		// The slot is released: the key works again.
		v, _, err := g.Do(context.Background(), "key", func() (int, error) {
			return 1, nil
		})
		require.NoError(t, err)
		require.Equal(t, 1, v)
	})

	t.Run("cancelled waiter abandons without stopping the leader", func(t *testing.T) {
		t.Parallel()

		var g flight.Group[int]
		started := make(chan struct{})
		release := make(chan struct{})

		leaderDone := make(chan error, 1)
		go func() {
			_, _, err := g.Do(context.Background(), "key", func() (int, error) {
				close(started)
				<-release
				return 42, nil
			})
			leaderDone <- err
		}()

		<-started

		ctx, cancel := context.WithCancel(context.Background())
		waiterDone := make(chan error, 1)
		go func() {
			_, _, err := g.Do(ctx, "key", func() (int, error) {
				return 0, errors.New("should not run")
			})
			waiterDone <- err
		}()

		cancel()
		require.ErrorIs(t, <-waiterDone, context.Canceled)

		close(release)
		require.NoError(t, <-leaderDone)
	})
}

func TestGroup_Forget(t *testing.T) {
	t.Parallel()

	t.Run("next caller starts fresh after forget", func(t *testing.T) {
		t.Parallel()

		var g flight.Group[int]
		var calls atomic.Int64
		release := make(chan struct{})
		started := make(chan struct{})

		go func() {
			_, _, _ = g.Do(context.Background(), "key", func() (int, error) {
				close(started)
				calls.Add(1)
				<-release
				return 1, nil
			})
		}()
		<-started

		g.Forget("key")

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _, _ = g.Do(context.Background(), "key", func() (int, error) {
				calls.Add(1)
				return 2, nil
			})
		}()
		<-done

		close(release)
		require.Equal(t, int64(2), calls.Load())
	})
}
