package models

import (
	"fmt"
	"time"
)

// SourceKind tells which flavor of counter table a sample was read from.
type SourceKind int

const (
	SourceSyscall SourceKind = iota
	SourceUserSpace
)

func (k SourceKind) String() string {
	switch k {
	case SourceSyscall:
		return "syscall"
	case SourceUserSpace:
		return "userspace"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Decorate frames a function name the way the view shows it:
// [read] for syscalls, {malloc} for user-space functions.
func (k SourceKind) Decorate(name string) string {
	if k == SourceUserSpace {
		return "{" + name + "}"
	}
	return "[" + name + "]"
}

// Sample is one raw observation of a traced function for a single tick.
// RawCount and RawCumLatencyNs are cumulative since the counter entry was
// created and restart near zero once the entry is evicted.
type Sample struct {
	PID             int        `json:"pid"`
	ProcessName     string     `json:"process_name"`
	FunctionName    string     `json:"function_name"`
	FunctionID      uint32     `json:"function_id"`
	RawCount        uint64     `json:"raw_count"`
	RawCumLatencyNs uint64     `json:"raw_cum_latency_ns"`
	LastActiveAt    time.Time  `json:"last_active_at"`
	Kind            SourceKind `json:"kind"`

	// Key is the opaque counter table key, handed back on eviction.
	Key any `json:"-"`
}
