package collector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/prabalesh/calltop/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeAttacher struct {
	err error
}

func (a fakeAttacher) Attach(_ context.Context, pid int) (Source, error) {
	if a.err != nil {
		return nil, a.err
	}
	return &fakeSource{kind: models.SourceUserSpace, pid: pid}, nil
}

type collectorHarness struct {
	clock     *testingclock.FakeClock
	collector *Collector
	src       *fakeSource
	snapshots chan models.ProcessList
	cancel    context.CancelFunc
	errc      chan error
	stopOnce  sync.Once
}

func startCollector(t *testing.T, attacher Attacher) *collectorHarness {
	t.Helper()
	clk := testingclock.NewFakeClock(time.Unix(1700000000, 0))
	src := newSyscallSource(active(sample(42, "nginx", "read", 10, 1000), clk.Now()))
	rec := NewReconciler(log.NewNopLogger(), prometheus.NewRegistry(), clk, NewCollection(), nil, ReconcilerConfig{})

	h := &collectorHarness{
		clock:     clk,
		src:       src,
		snapshots: make(chan models.ProcessList, 16),
		errc:      make(chan error, 1),
	}
	h.collector = NewCollector(log.NewNopLogger(), clk, rec, []Source{src}, attacher, time.Second, func(l models.ProcessList) {
		h.snapshots <- l
	})

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.errc <- h.collector.Run(ctx) }()
	t.Cleanup(h.stop)
	return h
}

func (h *collectorHarness) stop() {
	h.stopOnce.Do(func() {
		h.cancel()
		<-h.errc
	})
}

func (h *collectorHarness) step(t *testing.T, d time.Duration) {
	t.Helper()
	require.Eventually(t, h.clock.HasWaiters, time.Second, time.Millisecond)
	h.clock.Step(d)
}

func (h *collectorHarness) next(t *testing.T) models.ProcessList {
	t.Helper()
	select {
	case l := <-h.snapshots:
		return l
	case <-time.After(5 * time.Second):
		t.Fatal("no snapshot published")
		return models.ProcessList{}
	}
}

func TestCollectorPublishesOnTick(t *testing.T) {
	h := startCollector(t, nil)

	h.step(t, time.Second)
	l := h.next(t)
	require.Equal(t, uint64(1), l.Tick)
	require.Equal(t, 1, l.Total)
	require.Equal(t, "[read]", l.Processes[0].Functions[0].Name)
	require.Equal(t, time.Second, l.Interval)

	h.step(t, time.Second)
	l = h.next(t)
	require.Equal(t, uint64(2), l.Tick)
}

func TestCollectorReset(t *testing.T) {
	h := startCollector(t, nil)
	h.step(t, time.Second)
	require.Equal(t, 1, h.next(t).Total)

	require.NoError(t, h.collector.Reset(context.Background()))
	l := h.next(t)
	require.Zero(t, l.Total)
	require.Zero(t, l.Tick)
}

func TestCollectorSetInterval(t *testing.T) {
	h := startCollector(t, nil)
	require.Error(t, h.collector.SetInterval(context.Background(), 0))
	require.NoError(t, h.collector.SetInterval(context.Background(), 3*time.Second))

	h.step(t, 3*time.Second)
	l := h.next(t)
	require.Equal(t, 3*time.Second, l.Interval)
}

func TestCollectorAttach(t *testing.T) {
	h := startCollector(t, fakeAttacher{})

	require.NoError(t, <-h.collector.Attach(context.Background(), 1234))
	require.ErrorContains(t, <-h.collector.Attach(context.Background(), 1234), "already traced")
}

func TestCollectorAttachFailure(t *testing.T) {
	errNoProc := errors.New("no such process")
	h := startCollector(t, fakeAttacher{err: errNoProc})

	require.ErrorIs(t, <-h.collector.Attach(context.Background(), 1234), errNoProc)
}

func TestCollectorAttachUnsupported(t *testing.T) {
	h := startCollector(t, nil)
	require.Error(t, <-h.collector.Attach(context.Background(), 1234))
}

func TestCollectorStop(t *testing.T) {
	h := startCollector(t, nil)
	h.stop()

	require.True(t, h.src.isClosed())
	require.ErrorIs(t, h.collector.Reset(context.Background()), ErrCollectorStopped)
	require.ErrorIs(t, <-h.collector.Attach(context.Background(), 1), ErrCollectorStopped)
}

func TestLatestOnlyKeepsNewest(t *testing.T) {
	ch := make(chan models.ProcessList, 1)
	publish := LatestOnly(ch)

	publish(models.ProcessList{Tick: 1})
	publish(models.ProcessList{Tick: 2})
	publish(models.ProcessList{Tick: 3})

	require.Equal(t, uint64(3), (<-ch).Tick)
	require.Empty(t, ch)
}
