package flags

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/prabalesh/calltop/internal/view"
)

func TestParseArgsDefaults(t *testing.T) {
	f, err := ParseArgs(nil)
	require.NoError(t, err)

	require.Equal(t, time.Second, f.Interval)
	require.Equal(t, "info", f.Log.Level)
	require.Equal(t, "logfmt", f.Log.Format)
	require.Empty(t, f.Log.File)
	require.Empty(t, f.HTTPAddress)
	require.Equal(t, defaultBPFObject, f.Probe.BPFObject)
	require.False(t, f.Probe.Latency)
	require.False(t, f.Batch.Batch)
	require.Equal(t, ExitSuccess, f.Validate())
}

func TestParseArgs(t *testing.T) {
	f, err := ParseArgs([]string{
		"--interval=500ms",
		"--pid=10", "--pid=20",
		"--comm=nginx,bash",
		"--syscalls=read,write",
		"--latency",
		"--uprobe-functions=malloc",
		"--uprobe-pids=42",
		"--batch", "--batch-count=3",
		"--log-level=debug", "--log-format=json",
		"--filter=comm:nginx",
	})
	require.NoError(t, err)

	require.Equal(t, 500*time.Millisecond, f.Interval)
	require.Equal(t, []int{10, 20}, f.PIDs)
	require.Equal(t, []string{"nginx", "bash"}, f.Comms)
	require.Equal(t, []string{"read", "write"}, f.Probe.Syscalls)
	require.True(t, f.Probe.Latency)
	require.Equal(t, []string{"malloc"}, f.Probe.UprobeFunctions)
	require.Equal(t, []int{42}, f.Probe.UprobePIDs)
	require.True(t, f.Batch.Batch)
	require.Equal(t, 3, f.Batch.BatchCount)
	require.Equal(t, "debug", f.Log.Level)
	require.Equal(t, "json", f.Log.Format)
	require.Equal(t, ExitSuccess, f.Validate())
}

func TestParseArgsRejectsUnknownLogLevel(t *testing.T) {
	_, err := ParseArgs([]string{"--log-level=trace"})
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Flags {
		f, err := ParseArgs(nil)
		require.NoError(t, err)
		return f
	}

	tests := []struct {
		name   string
		modify func(*Flags)
	}{
		{"interval too short", func(f *Flags) { f.Interval = 50 * time.Millisecond }},
		{"interval not in tenths", func(f *Flags) { f.Interval = 1250 * time.Millisecond }},
		{"non-positive pid", func(f *Flags) { f.PIDs = []int{0} }},
		{"non-positive uprobe pid", func(f *Flags) {
			f.Probe.UprobeFunctions = []string{"malloc"}
			f.Probe.UprobePIDs = []int{-1}
		}},
		{"uprobe pids without functions", func(f *Flags) { f.Probe.UprobePIDs = []int{42} }},
		{"negative batch count", func(f *Flags) {
			f.Batch.Batch = true
			f.Batch.BatchCount = -1
		}},
		{"batch count without batch", func(f *Flags) { f.Batch.BatchCount = 2 }},
		{"invalid filter", func(f *Flags) { f.Filter = "pid:abc" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid()
			tt.modify(&f)
			require.Error(t, f.validate())
			require.Equal(t, ExitParseError, f.Validate())
		})
	}
}

func TestFilterExampleParses(t *testing.T) {
	f, err := view.ParseFilter(filterExample)
	require.NoError(t, err)
	require.Equal(t, "nginx", f.Comm)
	require.Equal(t, "read", f.Syscall)
}
