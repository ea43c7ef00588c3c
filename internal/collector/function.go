package collector

import "github.com/prabalesh/calltop/internal/models"

// FunctionStat is the reconciled statistic of one traced function inside a
// process. It folds a sequence of raw cumulative samples into per-interval
// deltas and totals that never go backwards.
type FunctionStat struct {
	Name string

	CountThisInterval     uint64
	LatencyThisIntervalNs uint64
	TotalCount            uint64
	TotalLatencyNs        uint64
	AvgLatencyNs          float64
	SampleGeneration      uint64

	// raw values seen on the last successful update
	prevRawCount   uint64
	prevRawLatency uint64
}

func newFunctionStat(s models.Sample) *FunctionStat {
	f := &FunctionStat{
		Name:                  s.FunctionName,
		CountThisInterval:     s.RawCount,
		LatencyThisIntervalNs: s.RawCumLatencyNs,
		TotalCount:            s.RawCount,
		TotalLatencyNs:        s.RawCumLatencyNs,
		SampleGeneration:      1,
		prevRawCount:          s.RawCount,
		prevRawLatency:        s.RawCumLatencyNs,
	}
	f.AvgLatencyNs = average(f.LatencyThisIntervalNs, f.CountThisInterval)
	return f
}

// Apply folds a new raw sample into the statistic. counterRef and latencyRef
// are the amounts banked for this function when its raw counter was evicted.
// It reports false when the raw counter did not move since the last update.
//
// A raw counter that restarts and lands exactly on the previously recorded
// value is indistinguishable from a stale read and that tick is dropped.
func (f *FunctionStat) Apply(s models.Sample, counterRef, latencyRef uint64) bool {
	if s.RawCount == f.prevRawCount {
		return false
	}

	total := counterRef + s.RawCount
	totalLatency := latencyRef + s.RawCumLatencyNs

	f.CountThisInterval = sub(total, f.TotalCount)
	f.LatencyThisIntervalNs = sub(totalLatency, f.TotalLatencyNs)
	f.TotalCount = max(total, f.TotalCount)
	f.TotalLatencyNs = max(totalLatency, f.TotalLatencyNs)
	f.AvgLatencyNs = average(f.LatencyThisIntervalNs, f.CountThisInterval)
	f.SampleGeneration++

	f.prevRawCount = s.RawCount
	f.prevRawLatency = s.RawCumLatencyNs
	return true
}

// resetInterval zeroes the per-interval figures; totals are untouched.
func (f *FunctionStat) resetInterval() {
	f.CountThisInterval = 0
	f.LatencyThisIntervalNs = 0
	f.AvgLatencyNs = 0
}

func average(latency, count uint64) float64 {
	if count == 0 {
		return 0
	}
	return float64(latency) / float64(count)
}

// sub is a saturating a-b.
func sub(a, b uint64) uint64 {
	if a < b {
		return 0
	}
	return a - b
}
