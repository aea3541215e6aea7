package build

import "github.com/ChuLiYu/mozc-loader/pkg/types"

// ResponseFuture is a one-shot handle to a build's terminal outcome. Multiple
// futures may subscribe to the same underlying task; all observe the same
// Response value once it settles.
type ResponseFuture struct {
	done chan struct{}
	resp *types.Response
}

// newReadyFuture returns a future that is already settled with resp, used
// for cache hits and the synthesized DATA_MISSING outcome.
func newReadyFuture(resp types.Response) *ResponseFuture {
	f := &ResponseFuture{done: make(chan struct{})}
	f.resp = &resp
	close(f.done)
	return f
}

// newPendingFuture returns a future subscribed to a task that has not
// settled yet; the caller must arrange for settle to be called exactly once.
func newPendingFuture() *ResponseFuture {
	return &ResponseFuture{done: make(chan struct{})}
}

func (f *ResponseFuture) settle(resp types.Response) {
	f.resp = &resp
	close(f.done)
}

// Wait blocks until the task backing this future has produced a Response.
func (f *ResponseFuture) Wait() {
	<-f.done
}

// Ready reports whether Get would return immediately.
func (f *ResponseFuture) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Get returns the settled Response. Calling Get before Wait returns or
// Ready reports true is a caller error; this mirrors the source contract's
// "Get before Ready is undefined" rule rather than silently blocking.
func (f *ResponseFuture) Get() types.Response {
	if f.resp == nil {
		panic("build: ResponseFuture.Get called before Ready")
	}
	return *f.resp
}
