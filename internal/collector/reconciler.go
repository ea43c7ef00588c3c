package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"k8s.io/utils/clock"

	"github.com/prabalesh/calltop/internal/models"
)

// DefaultInactivityThreshold is how long a counter entry may stay untouched
// before its eviction is requested from the source.
const DefaultInactivityThreshold = time.Second

// Source is a table of live counters maintained by the instrumentation layer.
type Source interface {
	Kind() models.SourceKind
	// PID is the traced process of a user-space source, 0 for syscalls.
	PID() int
	// Drain returns every entry currently present. It must not block on
	// future activity.
	Drain(ctx context.Context) ([]models.Sample, error)
	// Evict removes the entry of s. It may race with writers; failures are
	// retried implicitly on the next tick.
	Evict(s models.Sample) error
	// ResolveName maps a numeric function id to a name.
	ResolveName(id uint32) string
	Close() error
}

// AllowList restricts ingestion to the given pids and process names.
// Empty sets allow everything.
type AllowList struct {
	PIDs  map[int]struct{}
	Comms map[string]struct{}
}

func NewAllowList(pids []int, comms []string) AllowList {
	a := AllowList{}
	if len(pids) > 0 {
		a.PIDs = make(map[int]struct{}, len(pids))
		for _, p := range pids {
			a.PIDs[p] = struct{}{}
		}
	}
	if len(comms) > 0 {
		a.Comms = make(map[string]struct{}, len(comms))
		for _, c := range comms {
			a.Comms[c] = struct{}{}
		}
	}
	return a
}

// Allows reports whether a sample of pid/comm should be aggregated.
// pid 0 is the idle task and never is.
func (a AllowList) Allows(pid int, comm string) bool {
	if pid == 0 {
		return false
	}
	if a.PIDs != nil {
		if _, ok := a.PIDs[pid]; !ok {
			return false
		}
	}
	if a.Comms != nil {
		if _, ok := a.Comms[comm]; !ok {
			return false
		}
	}
	return true
}

type ReconcilerConfig struct {
	Allow AllowList
	// InactivityThreshold defaults to DefaultInactivityThreshold.
	InactivityThreshold time.Duration
}

// Reconciler drains the sources once per tick and applies the samples to
// the collection.
type Reconciler struct {
	logger     log.Logger
	metrics    *metrics
	clock      clock.PassiveClock
	collection *Collection
	commands   CommandLookup

	allow      AllowList
	inactivity time.Duration
}

func NewReconciler(logger log.Logger, reg prometheus.Registerer, clk clock.PassiveClock, collection *Collection, commands CommandLookup, cfg ReconcilerConfig) *Reconciler {
	if cfg.InactivityThreshold <= 0 {
		cfg.InactivityThreshold = DefaultInactivityThreshold
	}
	return &Reconciler{
		logger:     logger,
		metrics:    newMetrics(reg),
		clock:      clk,
		collection: collection,
		commands:   commands,
		allow:      cfg.Allow,
		inactivity: cfg.InactivityThreshold,
	}
}

func (r *Reconciler) Collection() *Collection {
	return r.collection
}

// Reset forgets every process record and cached command line.
func (r *Reconciler) Reset() {
	r.collection.Drop()
	if r.commands != nil {
		r.commands.Forget()
	}
}

// Tick runs one reconciliation cycle over sources. A source that fails to
// drain is skipped for this tick; the joined errors are returned.
func (r *Reconciler) Tick(ctx context.Context, sources []Source) error {
	start := r.clock.Now()
	defer func() {
		r.metrics.drainDuration.Observe(r.clock.Since(start).Seconds())
	}()
	r.metrics.ticks.Inc()

	r.collection.ResetInterval()

	var errs error
	for _, src := range sources {
		samples, err := src.Drain(ctx)
		if err != nil {
			r.metrics.drainErrors.Inc()
			errs = errors.Join(errs, fmt.Errorf("drain %s source (pid %d): %w", src.Kind(), src.PID(), err))
			continue
		}
		r.metrics.samples.WithLabelValues(src.Kind().String()).Add(float64(len(samples)))

		now := r.clock.Now()
		for _, s := range samples {
			r.apply(src, s, now)
		}
	}

	r.metrics.processes.Set(float64(r.collection.Len()))
	r.metrics.sources.Set(float64(len(sources)))
	return errs
}

func (r *Reconciler) apply(src Source, s models.Sample, now time.Time) {
	evicted := false
	if now.Sub(s.LastActiveAt) > r.inactivity {
		if err := src.Evict(s); err != nil {
			r.metrics.evictions.WithLabelValues(lvFail).Inc()
			level.Debug(r.logger).Log("msg", "failed to evict counter", "pid", s.PID, "function", s.FunctionName, "err", err)
		} else {
			r.metrics.evictions.WithLabelValues(lvSuccess).Inc()
			evicted = true
		}
	}

	if !r.allow.Allows(s.PID, s.ProcessName) {
		r.metrics.filtered.Inc()
		return
	}

	name := s.FunctionName
	if name == "" {
		name = src.ResolveName(s.FunctionID)
	}
	s.FunctionName = src.Kind().Decorate(name)

	rec := r.collection.LookupOrCreate(s.PID, s.ProcessName, func() string {
		if r.commands == nil {
			return s.ProcessName
		}
		return r.commands.Command(s.PID, s.ProcessName)
	})
	rec.UpdateWith(s, now)
	if evicted {
		rec.KeepPreviousCount(s)
	}
}
