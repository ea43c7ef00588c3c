package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"k8s.io/utils/clock"

	"github.com/prabalesh/calltop/internal/models"
)

// ErrCollectorStopped is returned by commands sent after Run has returned.
var ErrCollectorStopped = errors.New("collector stopped")

// Attacher creates a user-space counter source for a running process.
type Attacher interface {
	Attach(ctx context.Context, pid int) (Source, error)
}

// Publisher receives every snapshot taken by the collector. It is called
// from the collector goroutine and must not block for long.
type Publisher func(models.ProcessList)

// LatestOnly publishes into ch, replacing a snapshot the reader has not
// picked up yet. ch must be buffered and have no other writer.
func LatestOnly(ch chan models.ProcessList) Publisher {
	return func(l models.ProcessList) {
		select {
		case <-ch:
		default:
		}
		ch <- l
	}
}

type commandKind int

const (
	cmdReset commandKind = iota
	cmdSetInterval
	cmdAttach
)

type command struct {
	kind     commandKind
	interval time.Duration
	pid      int
	reply    chan error
}

// Collector owns the collection and the counter sources. Everything it owns
// is touched only from the goroutine running Run; other goroutines talk to
// it through Reset, SetInterval and Attach.
type Collector struct {
	logger     log.Logger
	clock      clock.Clock
	reconciler *Reconciler
	attacher   Attacher
	publish    Publisher

	sources  []Source
	interval time.Duration
	tick     uint64

	commands chan command
	done     chan struct{}
}

func NewCollector(logger log.Logger, clk clock.Clock, reconciler *Reconciler, sources []Source, attacher Attacher, interval time.Duration, publish Publisher) *Collector {
	if publish == nil {
		publish = func(models.ProcessList) {}
	}
	return &Collector{
		logger:     logger,
		clock:      clk,
		reconciler: reconciler,
		attacher:   attacher,
		publish:    publish,
		sources:    sources,
		interval:   interval,
		commands:   make(chan command),
		done:       make(chan struct{}),
	}
}

// Run ticks the reconciler every interval until ctx is done, then closes
// every source.
func (c *Collector) Run(ctx context.Context) error {
	defer close(c.done)
	defer c.closeSources()

	timer := c.clock.NewTimer(c.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C():
			c.collect(ctx)
			timer.Reset(c.interval)
		case cmd := <-c.commands:
			switch cmd.kind {
			case cmdReset:
				c.reconciler.Reset()
				c.tick = 0
				c.publish(c.snapshot())
				cmd.reply <- nil
			case cmdSetInterval:
				c.interval = cmd.interval
				if !timer.Stop() {
					select {
					case <-timer.C():
					default:
					}
				}
				timer.Reset(c.interval)
				cmd.reply <- nil
			case cmdAttach:
				cmd.reply <- c.attach(ctx, cmd.pid)
			}
		}
	}
}

// Reset drops every process record.
func (c *Collector) Reset(ctx context.Context) error {
	return c.wait(ctx, c.send(ctx, command{kind: cmdReset}))
}

// SetInterval changes the refresh interval. The next tick is one full
// interval away.
func (c *Collector) SetInterval(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("invalid refresh interval %s", d)
	}
	return c.wait(ctx, c.send(ctx, command{kind: cmdSetInterval, interval: d}))
}

// Attach starts tracing the user-space functions of pid. The returned
// channel yields exactly one value.
func (c *Collector) Attach(ctx context.Context, pid int) <-chan error {
	return c.send(ctx, command{kind: cmdAttach, pid: pid})
}

func (c *Collector) send(ctx context.Context, cmd command) <-chan error {
	cmd.reply = make(chan error, 1)
	select {
	case c.commands <- cmd:
	case <-c.done:
		cmd.reply <- ErrCollectorStopped
	case <-ctx.Done():
		cmd.reply <- ctx.Err()
	}
	return cmd.reply
}

func (c *Collector) wait(ctx context.Context, reply <-chan error) error {
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Collector) collect(ctx context.Context) {
	if err := c.reconciler.Tick(ctx, c.sources); err != nil {
		level.Warn(c.logger).Log("msg", "failed to drain some counter sources", "err", err)
	}
	c.tick++
	c.publish(c.snapshot())
}

func (c *Collector) snapshot() models.ProcessList {
	return c.reconciler.Collection().Snapshot(c.tick, c.clock.Now(), c.interval)
}

func (c *Collector) attach(ctx context.Context, pid int) error {
	if c.attacher == nil {
		return errors.New("attaching to processes is not supported")
	}
	for _, s := range c.sources {
		if s.Kind() == models.SourceUserSpace && s.PID() == pid {
			return fmt.Errorf("pid %d is already traced", pid)
		}
	}
	src, err := c.attacher.Attach(ctx, pid)
	if err != nil {
		return fmt.Errorf("attach to pid %d: %w", pid, err)
	}
	c.sources = append(c.sources, src)
	level.Info(c.logger).Log("msg", "attached user-space probes", "pid", pid)
	return nil
}

func (c *Collector) closeSources() {
	var errs error
	for _, s := range c.sources {
		if err := s.Close(); err != nil {
			errs = errors.Join(errs, fmt.Errorf("close %s source (pid %d): %w", s.Kind(), s.PID(), err))
		}
	}
	c.sources = nil
	if errs != nil {
		level.Warn(c.logger).Log("msg", "failed to close counter sources", "err", errs)
	}
}
