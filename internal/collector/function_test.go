package collector

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prabalesh/calltop/internal/models"
)

func TestNewFunctionStat(t *testing.T) {
	f := newFunctionStat(models.Sample{FunctionName: "[read]", RawCount: 4, RawCumLatencyNs: 2000})

	require.Equal(t, uint64(4), f.TotalCount)
	require.Equal(t, uint64(4), f.CountThisInterval)
	require.Equal(t, uint64(2000), f.TotalLatencyNs)
	require.InDelta(t, 500.0, f.AvgLatencyNs, 1e-9)
	require.Equal(t, uint64(1), f.SampleGeneration)

	zero := newFunctionStat(models.Sample{FunctionName: "[read]"})
	require.Zero(t, zero.AvgLatencyNs)
}

func TestFunctionStatApply(t *testing.T) {
	f := newFunctionStat(models.Sample{RawCount: 10, RawCumLatencyNs: 1000})
	f.resetInterval()

	require.True(t, f.Apply(models.Sample{RawCount: 15, RawCumLatencyNs: 2000}, 0, 0))
	require.Equal(t, uint64(5), f.CountThisInterval)
	require.Equal(t, uint64(1000), f.LatencyThisIntervalNs)
	require.Equal(t, uint64(15), f.TotalCount)
	require.Equal(t, uint64(2000), f.TotalLatencyNs)
	require.InDelta(t, 200.0, f.AvgLatencyNs, 1e-9)
	require.Equal(t, uint64(2), f.SampleGeneration)
}

func TestFunctionStatApplySkipsStaleSample(t *testing.T) {
	f := newFunctionStat(models.Sample{RawCount: 10, RawCumLatencyNs: 1000})
	f.resetInterval()

	require.False(t, f.Apply(models.Sample{RawCount: 10, RawCumLatencyNs: 1000}, 0, 0))
	require.False(t, f.Apply(models.Sample{RawCount: 10, RawCumLatencyNs: 1000}, 0, 0))

	require.Zero(t, f.CountThisInterval)
	require.Zero(t, f.AvgLatencyNs)
	require.Equal(t, uint64(10), f.TotalCount)
	require.Equal(t, uint64(1), f.SampleGeneration)
}

func TestFunctionStatApplyWithReference(t *testing.T) {
	f := newFunctionStat(models.Sample{RawCount: 100, RawCumLatencyNs: 10000})
	f.resetInterval()

	// Counter evicted at 100 and restarted.
	require.True(t, f.Apply(models.Sample{RawCount: 5, RawCumLatencyNs: 500}, 100, 10000))
	require.Equal(t, uint64(105), f.TotalCount)
	require.Equal(t, uint64(5), f.CountThisInterval)
	require.Equal(t, uint64(500), f.LatencyThisIntervalNs)
	require.InDelta(t, 100.0, f.AvgLatencyNs, 1e-9)
}

func TestFunctionStatTotalNeverDecreases(t *testing.T) {
	f := newFunctionStat(models.Sample{RawCount: 100})
	require.True(t, f.Apply(models.Sample{RawCount: 3}, 0, 0))
	require.Equal(t, uint64(100), f.TotalCount)
	require.Zero(t, f.CountThisInterval)
}
