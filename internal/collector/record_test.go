package collector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/prabalesh/calltop/internal/models"
)

func sample(pid int, comm, fn string, count, latency uint64) models.Sample {
	return models.Sample{
		PID:             pid,
		ProcessName:     comm,
		FunctionName:    fn,
		RawCount:        count,
		RawCumLatencyNs: latency,
	}
}

func TestProcessRecordCommandFallback(t *testing.T) {
	require.Equal(t, "nginx", newProcessRecord(1, "nginx", "").CommandLine)
	require.Equal(t, "nginx -g daemon", newProcessRecord(1, "nginx", "nginx -g daemon").CommandLine)
}

func TestProcessRecordUpdateWith(t *testing.T) {
	start := time.Unix(1700000000, 0)
	p := newProcessRecord(42, "nginx", "")

	p.UpdateWith(sample(42, "nginx", "[read]", 10, 1000), start)
	p.UpdateWith(sample(42, "nginx", "[write]", 4, 400), start)

	require.Equal(t, uint64(14), p.TotalFunctionCount)
	require.Equal(t, uint64(14), p.TotalFunctionCountThisInterval)
	require.Equal(t, uint64(1400), p.TotalFunctionLatencyNs)
	require.Zero(t, p.ElapsedSinceLast("[read]"))

	ref, lat := p.References("[read]")
	require.Zero(t, ref)
	require.Zero(t, lat)

	p.resetInterval()
	require.Zero(t, p.TotalFunctionCountThisInterval)

	p.UpdateWith(sample(42, "nginx", "[read]", 16, 1600), start.Add(2*time.Second))
	require.Equal(t, uint64(20), p.TotalFunctionCount)
	require.Equal(t, uint64(6), p.TotalFunctionCountThisInterval)
	require.Equal(t, uint64(2000), p.TotalFunctionLatencyNs)
	require.Equal(t, 2*time.Second, p.ElapsedSinceLast("[read]"))

	f, ok := p.Function("[read]")
	require.True(t, ok)
	require.Equal(t, uint64(6), f.CountThisInterval)

	_, ok = p.Function("[open]")
	require.False(t, ok)
}

func TestProcessRecordStaleSampleKeepsTimestamp(t *testing.T) {
	start := time.Unix(1700000000, 0)
	p := newProcessRecord(42, "nginx", "")

	p.UpdateWith(sample(42, "nginx", "[read]", 10, 1000), start)
	p.UpdateWith(sample(42, "nginx", "[read]", 10, 1000), start.Add(time.Second))
	p.UpdateWith(sample(42, "nginx", "[read]", 12, 1200), start.Add(3*time.Second))

	require.Equal(t, 3*time.Second, p.ElapsedSinceLast("[read]"))
	require.Equal(t, uint64(12), p.TotalFunctionCount)
}

func TestProcessRecordKeepPreviousCount(t *testing.T) {
	start := time.Unix(1700000000, 0)
	p := newProcessRecord(42, "nginx", "")

	s := sample(42, "nginx", "[read]", 100, 5000)
	p.UpdateWith(s, start)
	p.KeepPreviousCount(s)

	ref, lat := p.References("[read]")
	require.Equal(t, uint64(100), ref)
	require.Equal(t, uint64(5000), lat)

	p.resetInterval()
	p.UpdateWith(sample(42, "nginx", "[read]", 5, 250), start.Add(time.Second))

	f, _ := p.Function("[read]")
	require.Equal(t, uint64(105), f.TotalCount)
	require.Equal(t, uint64(5), f.CountThisInterval)
	require.Equal(t, uint64(5250), f.TotalLatencyNs)
	require.Equal(t, uint64(105), p.TotalFunctionCount)
}

func TestProcessRecordExternalReset(t *testing.T) {
	start := time.Unix(1700000000, 0)
	p := newProcessRecord(42, "nginx", "")

	p.UpdateWith(sample(42, "nginx", "[read]", 100, 1000), start)
	p.resetInterval()
	// The entry vanished without us evicting it and restarted at 3.
	p.UpdateWith(sample(42, "nginx", "[read]", 3, 30), start.Add(time.Second))

	f, _ := p.Function("[read]")
	require.Equal(t, uint64(103), f.TotalCount)
	require.Equal(t, uint64(3), f.CountThisInterval)
	require.Equal(t, uint64(103), p.TotalFunctionCount)
}

func TestProcessRecordSnapshotIsACopy(t *testing.T) {
	p := newProcessRecord(42, "nginx", "nginx: worker")
	p.UpdateWith(sample(42, "nginx", "[read]", 10, 1000), time.Unix(1700000000, 0))

	snap := p.snapshot()
	require.Equal(t, 42, snap.PID)
	require.Equal(t, "nginx: worker", snap.Command)
	require.Len(t, snap.Functions, 1)

	snap.Functions[0].TotalCount = 999
	f, _ := p.Function("[read]")
	require.Equal(t, uint64(10), f.TotalCount)
}
