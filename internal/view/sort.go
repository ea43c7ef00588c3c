package view

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/prabalesh/calltop/internal/models"
)

type processSort struct {
	key  ProcessKey
	desc bool
}

type functionSort struct {
	key  FunctionKey
	desc bool
}

func compareNames(a, b string) int {
	if c := cmp.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return cmp.Compare(a, b)
}

func (s processSort) sort(procs []models.Process) {
	slices.SortStableFunc(procs, func(a, b models.Process) int {
		c := 0
		switch s.key {
		case ProcessByPID:
			c = cmp.Compare(a.PID, b.PID)
		case ProcessByName:
			c = compareNames(a.Name, b.Name)
		case ProcessByIntervalCount:
			c = cmp.Compare(a.TotalFunctionCountThisInterval, b.TotalFunctionCountThisInterval)
		case ProcessByTotalCount:
			c = cmp.Compare(a.TotalFunctionCount, b.TotalFunctionCount)
		case ProcessByTotalLatency:
			c = cmp.Compare(a.TotalFunctionLatencyNs, b.TotalFunctionLatencyNs)
		}
		if s.desc {
			c = -c
		}
		if c != 0 {
			return c
		}
		if c = cmp.Compare(a.PID, b.PID); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
}

func (s functionSort) sort(fns []models.FunctionSnapshot, fallback time.Duration) {
	slices.SortStableFunc(fns, func(a, b models.FunctionSnapshot) int {
		c := 0
		switch s.key {
		case FunctionByName:
			c = compareNames(a.Name, b.Name)
		case FunctionByAvgLatency:
			c = cmp.Compare(a.AvgLatencyNs, b.AvgLatencyNs)
		case FunctionByIntervalLatency:
			c = cmp.Compare(a.LatencyThisIntervalNs, b.LatencyThisIntervalNs)
		case FunctionByRate:
			c = cmp.Compare(Rate(a, fallback), Rate(b, fallback))
		case FunctionByTotalCount:
			c = cmp.Compare(a.TotalCount, b.TotalCount)
		case FunctionByTotalLatency:
			c = cmp.Compare(a.TotalLatencyNs, b.TotalLatencyNs)
		}
		if s.desc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
}

// Rate is the number of calls per second of f over its last update. A
// function observed only once uses fallback as its elapsed time.
func Rate(f models.FunctionSnapshot, fallback time.Duration) float64 {
	elapsed := f.ElapsedSinceLast
	if elapsed <= 0 {
		elapsed = fallback
	}
	if elapsed <= 0 {
		return 0
	}
	return float64(f.CountThisInterval) / elapsed.Seconds()
}
