package flight

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"
)

// Group coordinates per-key single-flight execution: for any key, at most
// one call to fn runs at a time, and every concurrent caller for that key
// receives the identical outcome (value or error).
//
// The per-key slot lives exactly as long as the leader's call: it is
// created when the first caller arrives and removed when the outcome is
// published, so a failed key can be re-attempted immediately from a clean
// state. The zero value is ready to use.
type Group[V any] struct {
	sf singleflight.Group
}

// Do executes fn under single-flight discipline.
//
// The first caller for a key becomes the leader and runs fn on a separate
// goroutine; later callers park until the leader publishes an outcome and
// then receive that shared outcome. The returned shared flag reports
// whether the outcome was also delivered to other callers.
//
// Cancelling ctx abandons the wait for this caller only: the leader's fn
// keeps running so other waiters (and the cache behind them) still get a
// result. A panic inside fn is recovered and delivered to every waiter as
// an error, so a dying leader can never strand the slot.
func (g *Group[V]) Do(ctx context.Context, key string, fn func() (V, error)) (V, bool, error) {
	var zero V

	ch := g.sf.DoChan(key, func() (v any, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("flight: leader panicked: %v", r)
			}
		}()
		return fn()
	})

	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Shared, res.Err
		}
		v, ok := res.Val.(V)
		if !ok {
			return zero, res.Shared, fmt.Errorf("flight: unexpected outcome type %T", res.Val)
		}
		return v, res.Shared, nil
	}
}

// Forget drops the in-flight slot for key, if any. The next caller will
// start a fresh execution instead of joining the current one. Intended
// for explicit invalidation; normal completion removes the slot on its own.
func (g *Group[V]) Forget(key string) {
	g.sf.Forget(key)
}
