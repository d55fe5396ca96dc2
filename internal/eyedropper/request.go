package eyedropper

import (
	"context"
	"sync"
)

// Request is the pending outcome of one Open call. It settles exactly once,
// either with a ColorSelectionResult or with an error.
type Request struct {
	id   string
	once sync.Once
	done chan struct{}

	result ColorSelectionResult
	err    error
}

func newRequest(id string) *Request {
	return &Request{id: id, done: make(chan struct{})}
}

// ID identifies the session the request belongs to.
func (r *Request) ID() string { return r.id }

// Done is closed once the request has settled.
func (r *Request) Done() <-chan struct{} { return r.done }

// Settled reports whether the request has a final outcome.
func (r *Request) Settled() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the request settles or ctx is done. Cancelling ctx only
// stops waiting; it does not cancel the session.
func (r *Request) Wait(ctx context.Context) (ColorSelectionResult, error) {
	select {
	case <-r.done:
		return r.result, r.err
	case <-ctx.Done():
		return ColorSelectionResult{}, ctx.Err()
	}
}

// settle records the outcome. Only the first call has effect; it reports
// whether this call settled the request.
func (r *Request) settle(res ColorSelectionResult, err error) bool {
	settled := false
	r.once.Do(func() {
		r.result, r.err = res, err
		close(r.done)
		settled = true
	})
	return settled
}
