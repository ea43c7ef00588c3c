//go:build !amd64

package probe

// Only x86_64 numbers are known; other architectures fall back to sys_<nr>.
var syscallNames = map[uint32]string{}
