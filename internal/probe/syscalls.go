package probe

import (
	"fmt"
	"sync"
)

var (
	syscallIDsOnce sync.Once
	syscallIDs     map[string]uint32
)

// SyscallName returns the name of syscall number id.
func SyscallName(id uint32) string {
	if name, ok := syscallNames[id]; ok {
		return name
	}
	return fmt.Sprintf("sys_%d", id)
}

// SyscallID returns the number of the named syscall.
func SyscallID(name string) (uint32, bool) {
	syscallIDsOnce.Do(func() {
		syscallIDs = make(map[string]uint32, len(syscallNames))
		for id, n := range syscallNames {
			syscallIDs[n] = id
		}
	})
	id, ok := syscallIDs[name]
	return id, ok
}
