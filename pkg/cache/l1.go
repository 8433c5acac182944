package cache

import (
	"context"
	"errors"
	"fmt"
)

// ErrTransport is returned by a RemoteObjectService when the remote call
// itself failed (network, timeout, bad response) — distinct from a clean
// "object not found", which the adapter must map to (nil, nil) per spec
// §4.2 ("a remote 'not found' maps to Ok(None), a transport failure maps
// to Err(Transport)").
var ErrTransport = errors.New("cache: remote object service transport error")

// RemoteObjectService is the L1 adapter: an async remote object-service
// client. It is an explicit external collaborator (the chain's RPC
// endpoint, spec §1/§6 --sui-rpc-url); callers only ever see it through the
// asyncBridge below, never directly from the VM-facing views.
type RemoteObjectService interface {
	FetchObject(ctx context.Context, id ObjectId) (*Object, error)
	FetchObjects(ctx context.Context, ids []ObjectId) ([]*Object, error)
}

// asyncBridge is the "suspend and pump" wrapper (spec §9 "Reshaped
// patterns"): the VM-facing cache is synchronous, but the remote adapter is
// asynchronous in the sense that its calls are serviced by a small pool of
// worker goroutines rather than run inline on the caller. A synchronous
// caller submits a request and blocks on a per-request response channel
// until a worker completes it — the one sanctioned point in the system
// where an async call is run to completion on a borrowed handle instead of
// propagating suspension to the caller.
type asyncBridge struct {
	remote RemoteObjectService
	work   chan func()
	done   chan struct{}
}

func newAsyncBridge(remote RemoteObjectService, workers int) *asyncBridge {
	if workers < 1 {
		workers = 1
	}
	b := &asyncBridge{
		remote: remote,
		work:   make(chan func(), workers*4),
		done:   make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		go b.runWorker()
	}
	return b
}

func (b *asyncBridge) runWorker() {
	for {
		select {
		case fn := <-b.work:
			fn()
		case <-b.done:
			return
		}
	}
}

func (b *asyncBridge) stop() {
	close(b.done)
}

// fetch runs a single-id lookup to completion on the calling goroutine,
// pumping the actual RPC onto a pool worker. A not-found result is reported
// as (nil, nil); only a genuine transport failure returns an error.
func (b *asyncBridge) fetch(ctx context.Context, id ObjectId) (*Object, error) {
	type result struct {
		obj *Object
		err error
	}
	resCh := make(chan result, 1)

	select {
	case b.work <- func() {
		obj, err := b.remote.FetchObject(ctx, id)
		resCh <- result{obj, err}
	}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-resCh:
		if r.err != nil {
			return nil, fmt.Errorf("%w: %s", ErrTransport, r.err)
		}
		return r.obj, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// fetchBatch runs a multi-id lookup to completion on the calling goroutine,
// used by the cache-priming walk (spec §4.2 "Priming", batched by 50 ids).
func (b *asyncBridge) fetchBatch(ctx context.Context, ids []ObjectId) ([]*Object, error) {
	type result struct {
		objs []*Object
		err  error
	}
	resCh := make(chan result, 1)

	select {
	case b.work <- func() {
		objs, err := b.remote.FetchObjects(ctx, ids)
		resCh <- result{objs, err}
	}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-resCh:
		if r.err != nil {
			return nil, fmt.Errorf("%w: %s", ErrTransport, r.err)
		}
		return r.objs, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
