// ============================================================================
// Build Orchestrator
// ============================================================================
//
// Package: internal/build
// File: orchestrator.go
// Purpose: Single-flight, cached asynchronous execution of PackageLoader.Load
//          keyed by request fingerprint.
//
// Design:
//   Two maps under one mutex:
//     pending  fingerprint -> *sharedTask   in-flight builds
//     cache    fingerprint -> Response      terminal outcomes since last Clear
//
//   Build(id) never blocks on the load itself. It either serves a cached
//   terminal Response immediately, subscribes to an already-running task, or
//   starts exactly one new goroutine for a fingerprint that is neither
//   cached nor pending. A fingerprint absent from the registry (or present
//   only in unregistered form) short-circuits before any map is touched:
//   the caller gets a DATA_MISSING future synthesized on the spot.
//
//   Distinct fingerprints build concurrently -- the invariant is "at most
//   one worker per fingerprint", not "at most one worker overall" -- so
//   each sharedTask owns its own goroutine rather than drawing from a fixed
//   worker pool.
//
// ============================================================================

package build

import (
	"log/slog"
	"sync"

	"github.com/ChuLiYu/mozc-loader/internal/loader"
	"github.com/ChuLiYu/mozc-loader/pkg/types"
)

var log = slog.Default()

// requestResolver resolves a fingerprint to the request that should be
// built, reporting eligibility. Satisfied by *registry.Registry.
type requestResolver interface {
	Lookup(fp uint64) (types.Request, bool)
}

// sharedTask represents one in-flight build for a single fingerprint. Its
// futures slice is guarded by the owning Orchestrator's mutex, not its own:
// a task never outlives the map entry that points to it.
type sharedTask struct {
	fp      uint64
	futures []*ResponseFuture
}

// Orchestrator implements single-flight, cached builds over a PackageLoader.
type Orchestrator struct {
	mu       sync.Mutex
	pending  map[uint64]*sharedTask
	cache    map[uint64]types.Response
	registry requestResolver
	loader   *loader.PackageLoader
}

// New returns an Orchestrator that resolves fingerprints via registry and
// runs builds through ld.
func New(registry requestResolver, ld *loader.PackageLoader) *Orchestrator {
	return &Orchestrator{
		pending:  make(map[uint64]*sharedTask),
		cache:    make(map[uint64]types.Response),
		registry: registry,
		loader:   ld,
	}
}

// Build returns a future for the terminal Response of fingerprint id. It
// never spawns a second worker for the same id while one is already running
// or cached, and it never spawns a worker at all for an ineligible id.
func (o *Orchestrator) Build(id uint64) *ResponseFuture {
	req, ok := o.registry.Lookup(id)
	if !ok {
		return newReadyFuture(types.Response{ID: id, Status: types.StatusDataMissing})
	}

	o.mu.Lock()

	if resp, ok := o.cache[id]; ok {
		o.mu.Unlock()
		return newReadyFuture(resp)
	}

	if task, ok := o.pending[id]; ok {
		f := newPendingFuture()
		task.futures = append(task.futures, f)
		o.mu.Unlock()
		return f
	}

	f := newPendingFuture()
	task := &sharedTask{fp: id, futures: []*ResponseFuture{f}}
	o.pending[id] = task
	o.mu.Unlock()

	go o.run(task, req)

	return f
}

// run executes the load for one sharedTask, then settles every future that
// had subscribed by the time it finishes -- including ones that subscribed
// after run started but before it finished, since those arrived under the
// same lock that protects task.futures.
func (o *Orchestrator) run(task *sharedTask, req types.Request) {
	resp := o.loader.Load(req)
	resp.ID = task.fp

	o.mu.Lock()
	// After a Clear, this task is no longer the one registered for its
	// fingerprint; its outcome must not leak into the fresh maps.
	if o.pending[task.fp] == task {
		delete(o.pending, task.fp)
		o.cache[task.fp] = resp
	}
	subscribers := task.futures
	o.mu.Unlock()

	log.Info("build settled", "fingerprint", task.fp, "status", resp.Status.String())

	for _, f := range subscribers {
		f.settle(resp)
	}
}

// Clear drops the pending and cache maps. Futures already handed out still
// settle when their worker finishes, but that worker's outcome is not
// stored in the new cache; no in-flight OS call is preempted.
func (o *Orchestrator) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.pending = make(map[uint64]*sharedTask)
	o.cache = make(map[uint64]types.Response)
}

// Stats summarizes the orchestrator's current in-flight and cached load for
// metrics gauges.
type Stats struct {
	Pending int
	Cached  int
}

// Stats returns a snapshot of the pending/cache map sizes.
func (o *Orchestrator) Stats() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()

	return Stats{Pending: len(o.pending), Cached: len(o.cache)}
}
