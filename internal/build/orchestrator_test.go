package build

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ChuLiYu/mozc-loader/internal/loader"
	"github.com/ChuLiYu/mozc-loader/internal/parser"
	"github.com/ChuLiYu/mozc-loader/internal/registry"
	"github.com/ChuLiYu/mozc-loader/pkg/types"
	"github.com/stretchr/testify/require"
)

func newTestOrchestrator() (*Orchestrator, *registry.Registry) {
	reg := registry.New()
	ld := loader.New(parser.NewMockParser())
	return New(reg, ld), reg
}

func TestBuild_InvalidID_NoWorkerSpawned(t *testing.T) {
	o, reg := newTestOrchestrator()
	id0 := reg.RegisterRequest(types.Request{FilePath: "x", MagicNumber: "MOCK"})

	f := o.Build(id0 + 1)
	require.True(t, f.Ready(), "DATA_MISSING future must be ready immediately")

	resp := f.Get()
	require.Equal(t, types.StatusDataMissing, resp.Status)
	require.Equal(t, id0+1, resp.ID)

	s := o.Stats()
	require.Equal(t, 0, s.Pending)
	require.Equal(t, 0, s.Cached, "DATA_MISSING must never touch the cache")
}

func TestBuild_CachesTerminalResponse(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mock.data")
	require.NoError(t, os.WriteFile(path, []byte("MOCKv1"), 0o644))

	o, reg := newTestOrchestrator()
	id := reg.RegisterRequest(types.Request{FilePath: path, MagicNumber: "MOCK"})

	f1 := o.Build(id)
	f1.Wait()
	require.Equal(t, types.StatusReloadReady, f1.Get().Status)

	f2 := o.Build(id)
	require.True(t, f2.Ready(), "second Build on a cached id must be immediately ready")
	require.Equal(t, f1.Get().Status, f2.Get().Status)
}

// TestBuild_SingleFlight exercises the core invariant: for any fingerprint,
// concurrent Build calls cause the loader to run at most once between Clears.
func TestBuild_SingleFlight(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mock.data")
	require.NoError(t, os.WriteFile(path, []byte("MOCKv1"), 0o644))

	reg := registry.New()
	id := reg.RegisterRequest(types.Request{FilePath: path, MagicNumber: "MOCK"})

	var calls int32
	o := New(reg, loader.New(&countingParser{n: &calls}))

	const n = 50
	var wg sync.WaitGroup
	futures := make([]*ResponseFuture, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			futures[i] = o.Build(id)
		}(i)
	}
	wg.Wait()

	for _, f := range futures {
		f.Wait()
		require.Equal(t, types.StatusReloadReady, f.Get().Status)
	}

	require.Equal(t, int32(1), atomic.LoadInt32(&calls), "loader must run exactly once for concurrent Builds of the same id")
}

func TestBuild_Clear_AllowsRebuild(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mock.data")
	require.NoError(t, os.WriteFile(path, []byte("MOCKv1"), 0o644))

	var calls int32
	reg := registry.New()
	id := reg.RegisterRequest(types.Request{FilePath: path, MagicNumber: "MOCK"})
	o := New(reg, loader.New(&countingParser{n: &calls}))

	o.Build(id).Wait()
	o.Clear()
	o.Build(id).Wait()

	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFuture_GetBeforeReadyPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected Get before Ready to panic")
		}
	}()
	f := newPendingFuture()
	f.Get()
}

// countingParser wraps the mock parser's behavior but counts invocations and
// sleeps briefly to widen the race window for single-flight tests.
type countingParser struct {
	n *int32
}

func (p *countingParser) Parse(data []byte, magicNumber string) (types.ModuleBundle, error) {
	atomic.AddInt32(p.n, 1)
	time.Sleep(5 * time.Millisecond)
	return parser.NewMockParser().Parse(data, magicNumber)
}
