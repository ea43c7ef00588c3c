package collector

import (
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// cache durations
const (
	CommandCacheDuration  = 30 * time.Second
	NegativeCacheDuration = 5 * time.Second
)

type cachedCommand struct {
	command string
	found   bool
	at      time.Time
}

// CommandCache remembers resolved command lines per (pid, name). Misses are
// cached for a shorter time since the process may simply not be readable yet.
type CommandCache struct {
	entries *xsync.MapOf[processKey, cachedCommand]
	now     func() time.Time
}

func NewCommandCache(now func() time.Time) *CommandCache {
	if now == nil {
		now = time.Now
	}
	return &CommandCache{
		entries: xsync.NewMapOf[processKey, cachedCommand](),
		now:     now,
	}
}

// Get returns the cached command line of the process pid running name. ok
// is false when nothing valid is cached; found is false for a cached miss.
func (c *CommandCache) Get(pid int, name string) (command string, found bool, ok bool) {
	k := processKey{PID: pid, Name: name}
	e, ok := c.entries.Load(k)
	if !ok {
		return "", false, false
	}
	ttl := CommandCacheDuration
	if !e.found {
		ttl = NegativeCacheDuration
	}
	if c.now().Sub(e.at) >= ttl {
		c.entries.Delete(k)
		return "", false, false
	}
	return e.command, e.found, true
}

func (c *CommandCache) Set(pid int, name, command string) {
	c.entries.Store(processKey{PID: pid, Name: name}, cachedCommand{command: command, found: true, at: c.now()})
}

func (c *CommandCache) SetMissing(pid int, name string) {
	c.entries.Store(processKey{PID: pid, Name: name}, cachedCommand{at: c.now()})
}

func (c *CommandCache) Len() int {
	return c.entries.Size()
}

func (c *CommandCache) Clear() {
	c.entries.Clear()
}
