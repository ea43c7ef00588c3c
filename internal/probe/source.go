package probe

import (
	"context"
	"errors"
	"fmt"

	"github.com/cilium/ebpf/link"

	"github.com/prabalesh/calltop/internal/models"
)

// tableSource reads one counter table. A user-space source only sees the
// entries of its own process; its table is shared with the other traced
// processes.
type tableSource struct {
	kind  models.SourceKind
	pid   int
	table counterTable
	clock ktimeClock
	names func(id uint32) string
	links []link.Link
}

func (s *tableSource) Kind() models.SourceKind {
	return s.kind
}

func (s *tableSource) PID() int {
	return s.pid
}

func (s *tableSource) Drain(ctx context.Context) ([]models.Sample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := s.table.entries()
	if err != nil {
		return nil, err
	}
	toWall, err := s.clock.converter()
	if err != nil {
		return nil, fmt.Errorf("read monotonic clock: %w", err)
	}

	samples := make([]models.Sample, 0, len(entries))
	for _, e := range entries {
		if s.pid != 0 && int(e.key.Pid) != s.pid {
			continue
		}
		samples = append(samples, models.Sample{
			PID:             int(e.key.Pid),
			ProcessName:     e.key.comm(),
			FunctionID:      e.key.ID,
			RawCount:        e.value.Counter,
			RawCumLatencyNs: e.value.CumLat,
			LastActiveAt:    toWall(e.value.StartTime),
			Kind:            s.kind,
			Key:             e.key,
		})
	}
	return samples, nil
}

func (s *tableSource) Evict(sample models.Sample) error {
	k, ok := sample.Key.(counterKey)
	if !ok {
		return fmt.Errorf("sample of pid %d has no counter key", sample.PID)
	}
	return s.table.delete(k)
}

func (s *tableSource) ResolveName(id uint32) string {
	return s.names(id)
}

func (s *tableSource) Close() error {
	var errs error
	for _, l := range s.links {
		errs = errors.Join(errs, l.Close())
	}
	s.links = nil
	return errs
}
