package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	okrun "github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/procfs"
	"k8s.io/utils/clock"

	"github.com/prabalesh/calltop/internal/collector"
	"github.com/prabalesh/calltop/internal/flags"
	"github.com/prabalesh/calltop/internal/logger"
	"github.com/prabalesh/calltop/internal/models"
	"github.com/prabalesh/calltop/internal/probe"
	"github.com/prabalesh/calltop/internal/ui"
)

func main() {
	f := flags.Parse()
	if code := f.Validate(); code != flags.ExitSuccess {
		os.Exit(int(code))
	}

	out, closeLog, err := logOutput(f)
	if err != nil {
		flags.Failure("failed to open log file: %v", err)
		os.Exit(int(flags.ExitFailure))
	}
	defer closeLog()

	logger := logger.NewLoggerTo(out, f.Log.Level, f.Log.Format, "calltop")

	// The terminal has been restored by the time run returns.
	if err := run(logger, f); err != nil {
		level.Error(logger).Log("err", err)
		fmt.Fprintf(os.Stderr, "calltop: %v\n", err)
		closeLog()
		os.Exit(int(flags.ExitFailure))
	}
}

// logOutput picks where logs go. The interactive view owns the terminal, so
// it only logs to a file.
func logOutput(f flags.Flags) (io.Writer, func(), error) {
	if f.Log.File == "" {
		if f.Batch.Batch {
			return os.Stderr, func() {}, nil
		}
		return io.Discard, func() {}, nil
	}
	file, err := os.OpenFile(f.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return file, func() { file.Close() }, nil
}

func run(logger log.Logger, f flags.Flags) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var (
		ctx = context.Background()
		clk = clock.RealClock{}

		g okrun.Group
	)

	p, err := probe.Load(log.With(logger, "component", "probe"), probe.Config{
		ObjectPath: f.Probe.BPFObject,
		Syscalls:   f.Probe.Syscalls,
		Latency:    f.Probe.Latency,
		Functions:  f.Probe.UprobeFunctions,
	})
	if err != nil {
		return fmt.Errorf("load probe: %w", err)
	}
	defer p.Close()

	sources := []collector.Source{p.SyscallSource()}
	for _, pid := range f.Probe.UprobePIDs {
		src, err := p.Attach(ctx, pid)
		if err != nil {
			closeAll(logger, sources)
			return fmt.Errorf("attach to pid %d: %w", pid, err)
		}
		sources = append(sources, src)
	}

	fs, err := procfs.NewDefaultFS()
	if err != nil {
		closeAll(logger, sources)
		return fmt.Errorf("open procfs: %w", err)
	}
	commands := collector.NewCommandResolver(log.With(logger, "component", "commands"), fs, collector.NewCommandCache(clk.Now))

	reconciler := collector.NewReconciler(
		log.With(logger, "component", "reconciler"),
		reg,
		clk,
		collector.NewCollection(),
		commands,
		collector.ReconcilerConfig{Allow: collector.NewAllowList(f.PIDs, f.Comms)},
	)

	snapshots := make(chan models.ProcessList, 1)
	coll := collector.NewCollector(
		log.With(logger, "component", "collector"),
		clk,
		reconciler,
		sources,
		p,
		f.Interval,
		collector.LatestOnly(snapshots),
	)

	{
		ctx, cancel := context.WithCancel(ctx)
		g.Add(func() error {
			level.Debug(logger).Log("msg", "starting: collector")
			defer level.Debug(logger).Log("msg", "stopped: collector")

			return coll.Run(ctx)
		}, func(error) {
			cancel()
		})
	}

	if f.Batch.Batch {
		batch, err := ui.NewBatch(os.Stdout, snapshots, f.Interval, f.Batch.BatchCount, f.Filter)
		if err != nil {
			closeAll(logger, sources)
			return err
		}
		ctx, cancel := context.WithCancel(ctx)
		g.Add(func() error {
			level.Debug(logger).Log("msg", "starting: batch output")
			defer level.Debug(logger).Log("msg", "stopped: batch output")

			return batch.Run(ctx)
		}, func(error) {
			cancel()
		})
	} else {
		ctx, cancel := context.WithCancel(ctx)
		app := ui.NewApp(ctx, coll, snapshots, f.Interval)
		if err := app.SetFilter(f.Filter); err != nil {
			cancel()
			closeAll(logger, sources)
			return err
		}
		prog := tea.NewProgram(app, tea.WithAltScreen())
		g.Add(func() error {
			level.Debug(logger).Log("msg", "starting: interactive view")
			defer level.Debug(logger).Log("msg", "stopped: interactive view")

			_, err := prog.Run()
			return err
		}, func(error) {
			cancel()
			prog.Quit()
		})
	}

	if f.HTTPAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		srv := &http.Server{
			Addr:         f.HTTPAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: time.Minute,
		}
		g.Add(func() error {
			level.Debug(logger).Log("msg", "starting: http server", "address", f.HTTPAddress)
			defer level.Debug(logger).Log("msg", "stopped: http server")

			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}, func(error) {
			srv.Close()
		})
	}

	g.Add(okrun.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))

	level.Info(logger).Log("msg", "starting", "interval", f.Interval, "sources", len(sources), "batch", f.Batch.Batch)
	err = g.Run()

	var sig okrun.SignalError
	if errors.As(err, &sig) {
		level.Info(logger).Log("msg", "exiting", "signal", sig.Signal)
		return nil
	}
	return err
}

func closeAll(logger log.Logger, sources []collector.Source) {
	for _, src := range sources {
		if err := src.Close(); err != nil {
			level.Warn(logger).Log("msg", "failed to close source", "err", err)
		}
	}
}
