package models

import "time"

// FunctionSnapshot is an immutable copy of one reconciled function statistic.
type FunctionSnapshot struct {
	Name                  string        `json:"name"`
	CountThisInterval     uint64        `json:"count_this_interval"`
	LatencyThisIntervalNs uint64        `json:"latency_this_interval_ns"`
	TotalCount            uint64        `json:"total_count"`
	TotalLatencyNs        uint64        `json:"total_latency_ns"`
	AvgLatencyNs          float64       `json:"avg_latency_ns"`
	SampleGeneration      uint64        `json:"sample_generation"`
	ElapsedSinceLast      time.Duration `json:"elapsed_since_last"`
}

// Process is an immutable copy of one process record.
type Process struct {
	PID                            int                `json:"pid"`
	Name                           string             `json:"name"`
	Command                        string             `json:"command"`
	TotalFunctionCount             uint64             `json:"total_function_count"`
	TotalFunctionLatencyNs         uint64             `json:"total_function_latency_ns"`
	TotalFunctionCountThisInterval uint64             `json:"total_function_count_this_interval"`
	Functions                      []FunctionSnapshot `json:"functions"`
}

// ProcessList is what the collector publishes after every tick.
type ProcessList struct {
	Processes []Process     `json:"processes"`
	Total     int           `json:"total"`
	Functions int           `json:"functions"`
	Tick      uint64        `json:"tick"`
	TakenAt   time.Time     `json:"taken_at"`
	Interval  time.Duration `json:"interval"`
}
