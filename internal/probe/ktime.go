package probe

import (
	"time"

	"golang.org/x/sys/unix"
)

// monotonicNow reads CLOCK_MONOTONIC, the clock behind bpf_ktime_get_ns.
func monotonicNow() (time.Duration, error) {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0, err
	}
	return time.Duration(ts.Nano()), nil
}

// ktimeClock converts kernel timestamps to wall clock time.
type ktimeClock struct {
	monotonic func() (time.Duration, error)
	wall      func() time.Time
}

func newKtimeClock() ktimeClock {
	return ktimeClock{monotonic: monotonicNow, wall: time.Now}
}

// converter returns a function mapping ktime values to wall clock time,
// anchored at the current instant.
func (c ktimeClock) converter() (func(ktime uint64) time.Time, error) {
	mono, err := c.monotonic()
	if err != nil {
		return nil, err
	}
	wall := c.wall()
	return func(ktime uint64) time.Time {
		return wall.Add(time.Duration(ktime) - mono)
	}, nil
}
