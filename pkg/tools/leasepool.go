package tools

import (
	"context"
	"sync"
	"time"

	opserrors "github.com/opscorehq/opscore/pkg/errors"
)

// LeasePool bounds concurrent in-flight adapter calls per backend endpoint:
// lease acquisition is bounded by a configurable max-per-endpoint (default
// 4) and blocks with a timeout (spec §5), grounded on the teacher's
// session.Manager map+mutex bookkeeping, generalized here from sessions to
// backend connection leases.
type LeasePool struct {
	mu     sync.Mutex
	sem    map[string]chan struct{}
	maxPer int
}

// NewLeasePool creates a pool allowing maxPerEndpoint concurrent leases per
// endpoint key. A non-positive value falls back to the spec's default of 4.
func NewLeasePool(maxPerEndpoint int) *LeasePool {
	if maxPerEndpoint <= 0 {
		maxPerEndpoint = 4
	}
	return &LeasePool{sem: make(map[string]chan struct{}), maxPer: maxPerEndpoint}
}

func (p *LeasePool) channelFor(key string) chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch, ok := p.sem[key]
	if !ok {
		ch = make(chan struct{}, p.maxPer)
		p.sem[key] = ch
	}
	return ch
}

// Acquire blocks until a lease for key is available or timeout elapses. The
// returned release function must be called exactly once.
func (p *LeasePool) Acquire(ctx context.Context, key string, timeout time.Duration) (release func(), err error) {
	ch := p.channelFor(key)

	acquireCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-acquireCtx.Done():
		return nil, opserrors.NewAdapterError(
			opserrors.SubKindTimeout, "timed out acquiring backend connection lease for "+key, acquireCtx.Err())
	}
}
