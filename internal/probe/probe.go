// Package probe loads the BPF counter program and exposes its tables as
// counter sources.
package probe

import (
	"context"
	"errors"
	"fmt"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/link"
	"github.com/cilium/ebpf/rlimit"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/prabalesh/calltop/internal/collector"
	"github.com/prabalesh/calltop/internal/models"
)

// ErrNoFunctionsAttached is returned by Attach when none of the configured
// functions could be probed in the target executable.
var ErrNoFunctionsAttached = errors.New("no functions attached")

const (
	progSysEnter      = "sys_enter"
	progSysExit       = "sys_exit"
	progFunctionEnter = "function_enter"
	progFunctionExit  = "function_exit"

	mapSyscallCounters  = "syscall_counters"
	mapFunctionCounters = "function_counters"
	mapTracedSyscalls   = "traced_syscalls"
	mapConfig           = "config_map"
)

type Config struct {
	// ObjectPath is the compiled BPF object.
	ObjectPath string
	// Syscalls restricts tracing to the named syscalls; empty traces all.
	Syscalls []string
	// Latency enables the exit probes measuring time spent per call.
	Latency bool
	// Functions are the user-space symbols probed by Attach.
	Functions []string
}

// Probe owns the loaded BPF collection and the syscall tracepoints.
type Probe struct {
	logger log.Logger
	cfg    Config
	coll   *ebpf.Collection
	links  []link.Link
	clock  ktimeClock

	syscalls  counterTable
	functions counterTable
}

// Load loads the BPF object, configures it and attaches the syscall
// tracepoints. Counter tables start empty.
func Load(logger log.Logger, cfg Config) (*Probe, error) {
	if err := rlimit.RemoveMemlock(); err != nil {
		return nil, fmt.Errorf("remove memlock rlimit: %w", err)
	}

	spec, err := ebpf.LoadCollectionSpec(cfg.ObjectPath)
	if err != nil {
		return nil, fmt.Errorf("load BPF object %s: %w", cfg.ObjectPath, err)
	}
	coll, err := ebpf.NewCollection(spec)
	if err != nil {
		return nil, fmt.Errorf("create BPF collection: %w", err)
	}

	p := &Probe{
		logger:    logger,
		cfg:       cfg,
		coll:      coll,
		clock:     newKtimeClock(),
		syscalls:  counterTable{m: coll.Maps[mapSyscallCounters]},
		functions: counterTable{m: coll.Maps[mapFunctionCounters]},
	}
	if p.syscalls.m == nil || p.functions.m == nil {
		coll.Close()
		return nil, fmt.Errorf("BPF object %s lacks counter maps", cfg.ObjectPath)
	}

	if err := p.configure(); err != nil {
		p.Close()
		return nil, err
	}
	if err := p.attachSyscalls(); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

func (p *Probe) configure() error {
	ids := make([]uint32, 0, len(p.cfg.Syscalls))
	for _, name := range p.cfg.Syscalls {
		id, ok := SyscallID(name)
		if !ok {
			return fmt.Errorf("unknown syscall %q", name)
		}
		ids = append(ids, id)
	}

	var cfg bpfConfig
	if len(ids) > 0 {
		cfg.FilterSyscalls = 1
		traced := p.coll.Maps[mapTracedSyscalls]
		for _, id := range ids {
			if err := traced.Put(id, uint8(1)); err != nil {
				return fmt.Errorf("trace syscall %d: %w", id, err)
			}
		}
	}
	if p.cfg.Latency {
		cfg.Latency = 1
	}
	if err := p.coll.Maps[mapConfig].Put(uint32(0), cfg); err != nil {
		return fmt.Errorf("write BPF config: %w", err)
	}

	// Every entry starts counting at the same moment.
	if err := p.syscalls.clear(); err != nil {
		return fmt.Errorf("clear syscall counters: %w", err)
	}
	if err := p.functions.clear(); err != nil {
		return fmt.Errorf("clear function counters: %w", err)
	}
	return nil
}

func (p *Probe) attachSyscalls() error {
	enter, err := link.Tracepoint("raw_syscalls", "sys_enter", p.coll.Programs[progSysEnter], nil)
	if err != nil {
		return fmt.Errorf("attach raw_syscalls:sys_enter: %w", err)
	}
	p.links = append(p.links, enter)

	if !p.cfg.Latency {
		return nil
	}
	exit, err := link.Tracepoint("raw_syscalls", "sys_exit", p.coll.Programs[progSysExit], nil)
	if err != nil {
		return fmt.Errorf("attach raw_syscalls:sys_exit: %w", err)
	}
	p.links = append(p.links, exit)
	return nil
}

// SyscallSource returns the source covering every traced syscall.
func (p *Probe) SyscallSource() collector.Source {
	return &tableSource{
		kind:  models.SourceSyscall,
		table: p.syscalls,
		clock: p.clock,
		names: SyscallName,
	}
}

// Attach probes the configured functions in the executable of pid. The
// returned source detaches the probes when closed.
func (p *Probe) Attach(ctx context.Context, pid int) (collector.Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(p.cfg.Functions) == 0 {
		return nil, fmt.Errorf("%w: no user-space functions configured", ErrNoFunctionsAttached)
	}

	ex, err := link.OpenExecutable(fmt.Sprintf("/proc/%d/exe", pid))
	if err != nil {
		return nil, fmt.Errorf("open executable of pid %d: %w", pid, err)
	}

	src := &tableSource{
		kind:  models.SourceUserSpace,
		pid:   pid,
		table: p.functions,
		clock: p.clock,
		names: functionNames(p.cfg.Functions),
	}
	for id, fn := range p.cfg.Functions {
		opts := &link.UprobeOptions{PID: pid, Cookie: uint64(id)}
		up, err := ex.Uprobe(fn, p.coll.Programs[progFunctionEnter], opts)
		if err != nil {
			level.Debug(p.logger).Log("msg", "failed to attach uprobe", "pid", pid, "function", fn, "err", err)
			continue
		}
		src.links = append(src.links, up)

		if !p.cfg.Latency {
			continue
		}
		ret, err := ex.Uretprobe(fn, p.coll.Programs[progFunctionExit], opts)
		if err != nil {
			level.Debug(p.logger).Log("msg", "failed to attach uretprobe", "pid", pid, "function", fn, "err", err)
			continue
		}
		src.links = append(src.links, ret)
	}

	if len(src.links) == 0 {
		return nil, fmt.Errorf("%w: pid %d", ErrNoFunctionsAttached, pid)
	}
	return src, nil
}

// Close detaches the syscall tracepoints and unloads the collection.
// Sources returned by Attach must be closed first.
func (p *Probe) Close() error {
	var errs error
	for _, l := range p.links {
		errs = errors.Join(errs, l.Close())
	}
	p.links = nil
	p.coll.Close()
	return errs
}

func functionNames(functions []string) func(uint32) string {
	return func(id uint32) string {
		if int(id) < len(functions) {
			return functions[id]
		}
		return fmt.Sprintf("fn_%d", id)
	}
}
