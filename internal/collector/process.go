package collector

import (
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/procfs"
)

// CommandLookup turns a pid into a full command line. fallback is the
// process name, which also tells apart processes reusing a pid.
type CommandLookup interface {
	Command(pid int, fallback string) string
	// Forget drops whatever was remembered about earlier processes.
	Forget()
}

// CommandResolver reads command lines from procfs. A pid that is gone or
// unreadable resolves to the fallback, which is the last known process name.
type CommandResolver struct {
	logger log.Logger
	fs     procfs.FS
	cache  *CommandCache
}

func NewCommandResolver(logger log.Logger, fs procfs.FS, cache *CommandCache) *CommandResolver {
	if cache == nil {
		cache = NewCommandCache(nil)
	}
	return &CommandResolver{logger: logger, fs: fs, cache: cache}
}

func (r *CommandResolver) Command(pid int, fallback string) string {
	if cmd, found, ok := r.cache.Get(pid, fallback); ok {
		if found {
			return cmd
		}
		return fallback
	}

	cmd, err := r.read(pid)
	if err != nil {
		level.Debug(r.logger).Log("msg", "failed to read command line", "pid", pid, "err", err)
		r.cache.SetMissing(pid, fallback)
		return fallback
	}
	if cmd == "" {
		// Kernel threads have an empty cmdline.
		r.cache.SetMissing(pid, fallback)
		return fallback
	}
	r.cache.Set(pid, fallback, cmd)
	return cmd
}

// Forget drops every cached command line.
func (r *CommandResolver) Forget() {
	r.cache.Clear()
}

func (r *CommandResolver) read(pid int) (string, error) {
	proc, err := r.fs.Proc(pid)
	if err != nil {
		return "", err
	}
	args, err := proc.CmdLine()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.Join(args, " ")), nil
}
