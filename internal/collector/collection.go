package collector

import (
	"sort"
	"time"

	"github.com/prabalesh/calltop/internal/models"
)

// processKey identifies a process. pids get reused, so the name is part of it.
type processKey struct {
	PID  int
	Name string
}

// Collection is the store of process records. It is owned by the goroutine
// running the Collector and must not be shared.
type Collection struct {
	records map[processKey]*ProcessRecord
}

func NewCollection() *Collection {
	return &Collection{records: make(map[processKey]*ProcessRecord)}
}

// Lookup returns the record of (pid, name) if present.
func (c *Collection) Lookup(pid int, name string) (*ProcessRecord, bool) {
	r, ok := c.records[processKey{PID: pid, Name: name}]
	return r, ok
}

// LookupOrCreate returns the record of (pid, name), creating it with the
// command line produced by command when it is unseen.
func (c *Collection) LookupOrCreate(pid int, name string, command func() string) *ProcessRecord {
	k := processKey{PID: pid, Name: name}
	if r, ok := c.records[k]; ok {
		return r
	}
	cmd := ""
	if command != nil {
		cmd = command()
	}
	r := newProcessRecord(pid, name, cmd)
	c.records[k] = r
	return r
}

// ResetInterval zeroes every per-interval counter. Called at tick start.
func (c *Collection) ResetInterval() {
	for _, r := range c.records {
		r.resetInterval()
	}
}

// Drop forgets every record.
func (c *Collection) Drop() {
	clear(c.records)
}

func (c *Collection) Len() int {
	return len(c.records)
}

// Snapshot deep-copies the collection. Processes are ordered by pid then
// name so two snapshots of the same state are identical.
func (c *Collection) Snapshot(tick uint64, now time.Time, interval time.Duration) models.ProcessList {
	list := models.ProcessList{
		Processes: make([]models.Process, 0, len(c.records)),
		Tick:      tick,
		TakenAt:   now,
		Interval:  interval,
	}
	for _, r := range c.records {
		p := r.snapshot()
		list.Functions += len(p.Functions)
		list.Processes = append(list.Processes, p)
	}
	sort.Slice(list.Processes, func(i, j int) bool {
		a, b := list.Processes[i], list.Processes[j]
		if a.PID != b.PID {
			return a.PID < b.PID
		}
		return a.Name < b.Name
	})
	list.Total = len(list.Processes)
	return list
}
