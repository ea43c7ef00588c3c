// Package flags defines the calltop command line.
package flags

import (
	"errors"
	"fmt"
	"time"

	"github.com/alecthomas/kong"
	"github.com/go-kit/log/level"

	"github.com/prabalesh/calltop/internal/logger"
	"github.com/prabalesh/calltop/internal/view"
)

const (
	defaultInterval  = time.Second
	minInterval      = 100 * time.Millisecond
	defaultBPFObject = "/usr/lib/calltop/calltop.bpf.o"
	filterExample    = "comm:nginx,sys:read"
)

var errLogger = logger.NewLogger("error", logger.LogFormatLogfmt, "")

func vars() kong.Vars {
	return kong.Vars{
		"default_interval":   defaultInterval.String(),
		"default_bpf_object": defaultBPFObject,
		"filter_example":     filterExample,
	}
}

// Parse parses os.Args, exiting on --help or malformed input.
func Parse() Flags {
	flags := Flags{}
	kong.Parse(&flags,
		kong.Name("calltop"),
		kong.Description("Live call rate and latency per process, for syscalls and user-space functions."),
		vars(),
	)
	return flags
}

// ParseArgs parses args without touching the process state.
func ParseArgs(args []string) (Flags, error) {
	flags := Flags{}
	parser, err := kong.New(&flags, kong.Name("calltop"), vars())
	if err != nil {
		return Flags{}, err
	}
	if _, err := parser.Parse(args); err != nil {
		return Flags{}, err
	}
	return flags, nil
}

type Flags struct {
	Log         FlagsLogs `embed:""   prefix:"log-"`
	HTTPAddress string    `default:"" help:"Address to serve Prometheus metrics on. Disabled when empty."`

	Interval time.Duration `default:"${default_interval}" help:"Refresh interval."`
	PIDs     []int         `name:"pid"                    help:"Only show these process ids. Repeatable."`
	Comms    []string      `name:"comm"                   help:"Only show processes with these names. Repeatable."`
	Filter   string        `default:""                    help:"Initial view filter, e.g. '${filter_example}'."`

	Probe FlagsProbe `embed:"" prefix:""`
	Batch FlagsBatch `embed:"" prefix:""`
}

// FlagsLogs configures the logger. The terminal belongs to the UI in
// interactive mode, so logs are dropped unless a file is given.
type FlagsLogs struct {
	Level  string `default:"info"   enum:"error,warn,info,debug" help:"Log level."`
	Format string `default:"logfmt" enum:"logfmt,json"           help:"Configure if structured logging as JSON or as logfmt"`
	File   string `default:""                                    help:"Write logs to this file. Batch mode logs to stderr when empty."`
}

// FlagsProbe configures what the BPF program counts.
type FlagsProbe struct {
	Syscalls        []string `help:"Syscalls to trace. All when empty."`
	Latency         bool     `default:"false"                 help:"Measure time spent in each call."`
	BPFObject       string   `default:"${default_bpf_object}" help:"Path to the compiled BPF object." name:"bpf-object"`
	UprobeFunctions []string `help:"User-space functions to count in attached processes." name:"uprobe-functions"`
	UprobePIDs      []int    `help:"Processes to attach the user-space probes to at startup." name:"uprobe-pids"`
}

// FlagsBatch selects the headless text output.
type FlagsBatch struct {
	Batch      bool `default:"false" help:"Print a table every interval instead of running the interactive view."`
	BatchCount int  `default:"0"     help:"Stop after this many tables in batch mode. 0 runs until interrupted."`
}

type ExitCode int

const (
	ExitSuccess ExitCode = 0
	ExitFailure ExitCode = 1

	// Go 'flag' package calls os.Exit(2) on flag parse errors, if ExitOnError is set
	ExitParseError ExitCode = 2
)

func ParseError(msg string, args ...interface{}) ExitCode {
	level.Error(errLogger).Log("msg", fmt.Sprintf(msg, args...))
	return ExitParseError
}

func Failure(msg string, args ...interface{}) ExitCode {
	level.Error(errLogger).Log("msg", fmt.Sprintf(msg, args...))
	return ExitFailure
}

// Validate checks constraints kong cannot express.
func (f Flags) Validate() ExitCode {
	if err := f.validate(); err != nil {
		return ParseError("%v", err)
	}
	return ExitSuccess
}

func (f Flags) validate() error {
	if f.Interval < minInterval {
		return fmt.Errorf("interval %s is below the minimum of %s", f.Interval, minInterval)
	}
	if f.Interval%minInterval != 0 {
		return fmt.Errorf("interval %s must be a multiple of %s", f.Interval, minInterval)
	}

	for _, pid := range f.PIDs {
		if pid <= 0 {
			return fmt.Errorf("invalid pid %d", pid)
		}
	}
	for _, pid := range f.Probe.UprobePIDs {
		if pid <= 0 {
			return fmt.Errorf("invalid uprobe pid %d", pid)
		}
	}
	if len(f.Probe.UprobePIDs) > 0 && len(f.Probe.UprobeFunctions) == 0 {
		return errors.New("--uprobe-pids needs at least one --uprobe-functions")
	}

	if f.Batch.BatchCount < 0 {
		return fmt.Errorf("batch count %d is negative", f.Batch.BatchCount)
	}
	if f.Batch.BatchCount > 0 && !f.Batch.Batch {
		return errors.New("--batch-count is only valid with --batch")
	}

	if _, err := view.ParseFilter(f.Filter); err != nil {
		return err
	}
	return nil
}
