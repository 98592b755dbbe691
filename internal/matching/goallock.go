package matching

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// goalLocks serializes check-then-act sequences per goal. Operations on
// different goals never contend. Acquisition waits at most the given
// bound and surfaces ErrBusy instead of deadlocking. Entries are
// refcounted and reclaimed once the last holder or waiter is gone, so
// the map does not grow with every goal ever touched.
type goalLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*goalLock
}

type goalLock struct {
	ch   chan struct{}
	refs int
}

func newGoalLocks() *goalLocks {
	return &goalLocks{locks: make(map[uuid.UUID]*goalLock)}
}

func (g *goalLocks) get(goalID uuid.UUID) *goalLock {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.locks[goalID]
	if !ok {
		l = &goalLock{ch: make(chan struct{}, 1)}
		g.locks[goalID] = l
	}
	l.refs++
	return l
}

func (g *goalLocks) put(goalID uuid.UUID, l *goalLock) {
	g.mu.Lock()
	defer g.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(g.locks, goalID)
	}
}

// acquire takes the lock for goalID, returning a release func. The
// caller must invoke release exactly once.
func (g *goalLocks) acquire(ctx context.Context, goalID uuid.UUID, wait time.Duration) (func(), error) {
	l := g.get(goalID)

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case l.ch <- struct{}{}:
		return func() {
			<-l.ch
			g.put(goalID, l)
		}, nil
	case <-ctx.Done():
		g.put(goalID, l)
		return nil, fmt.Errorf("%w: goal %s: %v", ErrBusy, goalID, ctx.Err())
	case <-timer.C:
		g.put(goalID, l)
		return nil, fmt.Errorf("%w: goal %s: lock wait exceeded %s", ErrBusy, goalID, wait)
	}
}
