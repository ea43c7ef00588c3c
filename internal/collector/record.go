package collector

import (
	"time"

	"github.com/prabalesh/calltop/internal/models"
)

type lastSeen struct {
	At      time.Time
	Elapsed time.Duration
}

// ProcessRecord holds the function statistics of one (pid, name) identity
// together with the references banked whenever a raw counter was evicted.
type ProcessRecord struct {
	PID         int
	ProcessName string
	CommandLine string

	TotalFunctionCount             uint64
	TotalFunctionLatencyNs         uint64
	TotalFunctionCountThisInterval uint64

	// functions keeps first-seen order; byName indexes into it.
	functions []*FunctionStat
	byName    map[string]*FunctionStat

	counterReference map[string]uint64
	latencyReference map[string]uint64
	lastSeen         map[string]lastSeen
}

func newProcessRecord(pid int, name, command string) *ProcessRecord {
	if command == "" {
		command = name
	}
	return &ProcessRecord{
		PID:              pid,
		ProcessName:      name,
		CommandLine:      command,
		byName:           make(map[string]*FunctionStat),
		counterReference: make(map[string]uint64),
		latencyReference: make(map[string]uint64),
		lastSeen:         make(map[string]lastSeen),
	}
}

// Function returns the statistic for name, if it has been seen.
func (p *ProcessRecord) Function(name string) (*FunctionStat, bool) {
	f, ok := p.byName[name]
	return f, ok
}

// References returns the banked count and latency of a function.
func (p *ProcessRecord) References(name string) (uint64, uint64) {
	return p.counterReference[name], p.latencyReference[name]
}

// ElapsedSinceLast is the time between the last two successful updates of a
// function, zero when it has been observed only once.
func (p *ProcessRecord) ElapsedSinceLast(name string) time.Duration {
	return p.lastSeen[name].Elapsed
}

// UpdateWith applies a sample whose function name is already resolved.
func (p *ProcessRecord) UpdateWith(s models.Sample, now time.Time) {
	name := s.FunctionName
	f, ok := p.byName[name]
	if !ok {
		p.counterReference[name] = 0
		p.latencyReference[name] = 0
		f = newFunctionStat(s)
		p.functions = append(p.functions, f)
		p.byName[name] = f
		p.accumulate(f)
		p.lastSeen[name] = lastSeen{At: now}
		return
	}

	// The raw counter went below what we have already banked without us
	// having evicted it: the entry was dropped by someone else. Bank the
	// last raw values so the total keeps growing from where it was.
	if s.RawCount != f.prevRawCount && p.counterReference[name]+s.RawCount < f.TotalCount {
		p.counterReference[name] += f.prevRawCount
		p.latencyReference[name] += f.prevRawLatency
	}

	if !f.Apply(s, p.counterReference[name], p.latencyReference[name]) {
		return
	}
	p.accumulate(f)

	prev := p.lastSeen[name]
	p.lastSeen[name] = lastSeen{At: now, Elapsed: now.Sub(prev.At)}
}

// KeepPreviousCount banks the raw values of a sample whose counter entry has
// just been evicted from the source, so the restarted counter is offset.
func (p *ProcessRecord) KeepPreviousCount(s models.Sample) {
	p.counterReference[s.FunctionName] += s.RawCount
	p.latencyReference[s.FunctionName] += s.RawCumLatencyNs
}

func (p *ProcessRecord) accumulate(f *FunctionStat) {
	p.TotalFunctionCount += f.CountThisInterval
	p.TotalFunctionCountThisInterval += f.CountThisInterval
	p.TotalFunctionLatencyNs += f.LatencyThisIntervalNs
}

func (p *ProcessRecord) resetInterval() {
	p.TotalFunctionCountThisInterval = 0
	for _, f := range p.functions {
		f.resetInterval()
	}
}

func (p *ProcessRecord) snapshot() models.Process {
	out := models.Process{
		PID:                            p.PID,
		Name:                           p.ProcessName,
		Command:                        p.CommandLine,
		TotalFunctionCount:             p.TotalFunctionCount,
		TotalFunctionLatencyNs:         p.TotalFunctionLatencyNs,
		TotalFunctionCountThisInterval: p.TotalFunctionCountThisInterval,
		Functions:                      make([]models.FunctionSnapshot, 0, len(p.functions)),
	}
	for _, f := range p.functions {
		out.Functions = append(out.Functions, models.FunctionSnapshot{
			Name:                  f.Name,
			CountThisInterval:     f.CountThisInterval,
			LatencyThisIntervalNs: f.LatencyThisIntervalNs,
			TotalCount:            f.TotalCount,
			TotalLatencyNs:        f.TotalLatencyNs,
			AvgLatencyNs:          f.AvgLatencyNs,
			SampleGeneration:      f.SampleGeneration,
			ElapsedSinceLast:      p.lastSeen[f.Name].Elapsed,
		})
	}
	return out
}
