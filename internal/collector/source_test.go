package collector

import (
	"context"
	"sync"

	"github.com/prabalesh/calltop/internal/models"
)

type fakeSource struct {
	mu sync.Mutex

	kind     models.SourceKind
	pid      int
	samples  []models.Sample
	names    map[uint32]string
	drainErr error
	evictErr error

	evicted []models.Sample
	closed  bool
}

func newSyscallSource(samples ...models.Sample) *fakeSource {
	return &fakeSource{kind: models.SourceSyscall, samples: samples}
}

func (f *fakeSource) set(samples ...models.Sample) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples = samples
}

func (f *fakeSource) Kind() models.SourceKind { return f.kind }
func (f *fakeSource) PID() int                { return f.pid }

func (f *fakeSource) Drain(_ context.Context) ([]models.Sample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.drainErr != nil {
		return nil, f.drainErr
	}
	out := make([]models.Sample, len(f.samples))
	copy(out, f.samples)
	return out, nil
}

func (f *fakeSource) Evict(s models.Sample) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.evictErr != nil {
		return f.evictErr
	}
	f.evicted = append(f.evicted, s)
	return nil
}

func (f *fakeSource) ResolveName(id uint32) string {
	if n, ok := f.names[id]; ok {
		return n
	}
	return "unknown"
}

func (f *fakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSource) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
