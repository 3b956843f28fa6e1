package ogimage_test

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/cloud-shuttle/ogimage"
	"github.com/cloud-shuttle/ogimage/pkg/encoder"
	"github.com/cloud-shuttle/ogimage/pkg/template"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

// slowSource serves one template document with a configurable delay and
// counts loads, so tests can observe how many renders actually ran and
// hold a render in flight.
type slowSource struct {
	doc   []byte
	delay time.Duration
	gate  chan struct{}
	loads atomic.Int64
}

func (s *slowSource) Load(ctx context.Context, id string) ([]byte, error) {
	if id != "slow" {
		return nil, template.ErrNotFound
	}
	s.loads.Add(1)
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.doc, nil
}

const slowDoc = `width: 400
height: 200
background:
  color: '#0f172a'
layers:
  - type: text
    text: '{{ .Title }}'
    x: 20
    y: 40
    size: 32
    color: '#f8fafc'
`

func TestEngine_GetOrRender(t *testing.T) {
	t.Parallel()

	t.Run("end to end: repeat request renders once", func(t *testing.T) {
		t.Parallel()

		eng := ogimage.New()
		defer eng.Close()

		ctx := context.Background()
		req := ogimage.Request{
			Template: "simple",
			Title:    "Hello",
			Width:    1200,
			Height:   630,
		}

		first, err := eng.GetOrRender(ctx, req)
		require.NoError(t, err)
		require.NotEmpty(t, first)
		require.True(t, bytes.HasPrefix(first, pngMagic))

		second, err := eng.GetOrRender(ctx, req)
		require.NoError(t, err)
		require.Equal(t, first, second)

		stats := eng.Stats()
		require.Equal(t, int64(1), stats.Renders)
		require.Equal(t, int64(1), stats.Hits)
		require.Equal(t, int64(1), stats.Misses)
	})

	t.Run("extra params contribute to the cache key", func(t *testing.T) {
		t.Parallel()

		eng := ogimage.New()
		defer eng.Close()

		ctx := context.Background()
		base := ogimage.Request{Template: "simple", Title: "T", Width: 300, Height: 150}

		_, err := eng.GetOrRender(ctx, base)
		require.NoError(t, err)

		withExtra := base
		withExtra.Extra = map[string]string{"Tag": "release"}
		_, err = eng.GetOrRender(ctx, withExtra)
		require.NoError(t, err)

		require.Equal(t, int64(2), eng.Stats().Renders)
	})

	t.Run("50 concurrent callers share one render", func(t *testing.T) {
		t.Parallel()

		src := &slowSource{doc: []byte(slowDoc), delay: 100 * time.Millisecond}
		eng := ogimage.New(ogimage.WithTemplateSource(src), ogimage.WithMaxConcurrent(4))
		defer eng.Close()

		ctx := context.Background()
		req := ogimage.Request{Template: "slow", Title: "Hello"}

		results := make([][]byte, 50)
		var eg errgroup.Group
		for i := range results {
			i := i
			eg.Go(func() error {
				data, err := eng.GetOrRender(ctx, req)
				if err != nil {
					return err
				}
				results[i] = data
				return nil
			})
		}
		require.NoError(t, eg.Wait())

		require.Equal(t, int64(1), src.loads.Load())
		require.Equal(t, int64(1), eng.Stats().Renders)
		for _, data := range results {
			require.Equal(t, results[0], data)
		}
	})

	t.Run("failed render releases the key", func(t *testing.T) {
		t.Parallel()

		eng := ogimage.New()
		defer eng.Close()

		ctx := context.Background()
		req := ogimage.Request{Template: "does-not-exist", Title: "x"}

		_, err := eng.GetOrRender(ctx, req)
		require.ErrorIs(t, err, template.ErrNotFound)
		require.True(t, ogimage.IsBadInput(err))

		// The key is not wedged: a second attempt renders again.
		_, err = eng.GetOrRender(ctx, req)
		require.ErrorIs(t, err, template.ErrNotFound)
		require.Equal(t, int64(2), eng.Stats().Renders)
	})

	t.Run("geometry out of bounds is bad input", func(t *testing.T) {
		t.Parallel()

		eng := ogimage.New()
		defer eng.Close()

		ctx := context.Background()

		_, err := eng.GetOrRender(ctx, ogimage.Request{Template: "simple", Title: "x", Width: 5000, Height: 630})
		require.ErrorIs(t, err, encoder.ErrGeometry)
		require.True(t, ogimage.IsBadInput(err))

		data, err := eng.GetOrRender(ctx, ogimage.Request{Template: "simple", Title: "x", Width: 1200, Height: 630})
		require.NoError(t, err)
		require.NotEmpty(t, data)
	})

	t.Run("expired artifact is re-rendered", func(t *testing.T) {
		t.Parallel()

		eng := ogimage.New(ogimage.WithDefaultTTL(30 * time.Millisecond))
		defer eng.Close()

		ctx := context.Background()
		req := ogimage.Request{Template: "simple", Title: "ttl", Width: 300, Height: 150}

		_, err := eng.GetOrRender(ctx, req)
		require.NoError(t, err)

		time.Sleep(50 * time.Millisecond)

		_, err = eng.GetOrRender(ctx, req)
		require.NoError(t, err)
		require.Equal(t, int64(2), eng.Stats().Renders)
	})

	t.Run("cancelled waiter gets ErrCancelled without stopping the leader", func(t *testing.T) {
		t.Parallel()

		src := &slowSource{doc: []byte(slowDoc), gate: make(chan struct{})}
		eng := ogimage.New(ogimage.WithTemplateSource(src))
		defer eng.Close()

		req := ogimage.Request{Template: "slow", Title: "Hello"}

		leaderDone := make(chan error, 1)
		go func() {
			_, err := eng.GetOrRender(context.Background(), req)
			leaderDone <- err
		}()

		// Wait for the leader to be inside the render.
		require.Eventually(t, func() bool {
			return src.loads.Load() == 1
		}, time.Second, time.Millisecond)

		ctx, cancel := context.WithCancel(context.Background())
		waiterDone := make(chan error, 1)
		go func() {
			_, err := eng.GetOrRender(ctx, req)
			waiterDone <- err
		}()
		cancel()

		err := <-waiterDone
		require.ErrorIs(t, err, ogimage.ErrCancelled)
		require.False(t, ogimage.IsBadInput(err))

		close(src.gate)
		require.NoError(t, <-leaderDone)
		require.Equal(t, int64(1), src.loads.Load())
	})

	t.Run("render timeout cuts off a blocking template source", func(t *testing.T) {
		t.Parallel()

		// The gate is never closed: only the timeout can free the leader.
		src := &slowSource{doc: []byte(slowDoc), gate: make(chan struct{})}
		eng := ogimage.New(
			ogimage.WithTemplateSource(src),
			ogimage.WithRenderTimeout(50*time.Millisecond),
		)
		defer eng.Close()

		req := ogimage.Request{Template: "slow", Title: "Hello"}

		leaderDone := make(chan error, 1)
		go func() {
			_, err := eng.GetOrRender(context.Background(), req)
			leaderDone <- err
		}()

		require.Eventually(t, func() bool {
			return src.loads.Load() == 1
		}, time.Second, time.Millisecond)

		waiterDone := make(chan error, 1)
		go func() {
			_, err := eng.GetOrRender(context.Background(), req)
			waiterDone <- err
		}()

		for _, ch := range []chan error{leaderDone, waiterDone} {
			select {
			case err := <-ch:
				require.ErrorIs(t, err, ogimage.ErrCancelled)
			case <-time.After(time.Second):
				t.Fatal("caller still parked after the render timeout")
			}
		}

		// The timed-out key is released: a fresh attempt reaches the
		// source again instead of joining a dead flight.
		before := src.loads.Load()
		_, err := eng.GetOrRender(context.Background(), req)
		require.ErrorIs(t, err, ogimage.ErrCancelled)
		require.Greater(t, src.loads.Load(), before)
	})
}

// recordingPublisher captures published artifacts.
type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPublisher) Put(_ context.Context, key string, data []byte, contentType string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	return nil
}

func TestEngine_Publisher(t *testing.T) {
	t.Parallel()

	t.Run("rendered artifacts are written through", func(t *testing.T) {
		t.Parallel()

		pub := &recordingPublisher{}
		eng := ogimage.New(ogimage.WithPublisher(pub, "og"))
		defer eng.Close()

		_, err := eng.GetOrRender(context.Background(), ogimage.Request{
			Template: "simple",
			Title:    "publish me",
			Width:    300,
			Height:   150,
		})
		require.NoError(t, err)

		pub.mu.Lock()
		defer pub.mu.Unlock()
		require.Len(t, pub.keys, 1)
		require.Regexp(t, `^og/[0-9a-f]{16}\.png$`, pub.keys[0])
	})
}
