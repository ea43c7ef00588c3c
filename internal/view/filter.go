package view

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/prabalesh/calltop/internal/models"
)

// ErrInvalidFilter is returned for a filter expression that cannot be parsed.
var ErrInvalidFilter = errors.New("invalid filter")

// Filter selects which processes and functions are shown. The zero value
// matches everything.
//
// Expressions are comma separated tokens:
//
//	nginx         process name or command line contains "nginx"
//	comm:nginx    same as above
//	pid:42        process id is exactly 42
//	sys:read      function name contains "read"
//	fn:malloc     function name contains "malloc"
//
// sys and fn must both match when both are given. A later token of the same
// kind replaces an earlier one.
type Filter struct {
	PID      int
	HasPID   bool
	Comm     string
	Syscall  string
	Function string
}

func ParseFilter(expr string) (Filter, error) {
	var f Filter
	for _, tok := range strings.Split(expr, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		key, value, ok := strings.Cut(tok, ":")
		if !ok {
			f.Comm = strings.ToLower(tok)
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "pid":
			if value == "" {
				f.PID, f.HasPID = 0, false
				continue
			}
			pid, err := strconv.Atoi(value)
			if err != nil || pid < 0 {
				return Filter{}, fmt.Errorf("%w: pid %q is not a process id", ErrInvalidFilter, value)
			}
			f.PID, f.HasPID = pid, true
		case "comm":
			f.Comm = strings.ToLower(value)
		case "sys":
			f.Syscall = strings.ToLower(value)
		case "fn":
			f.Function = strings.ToLower(value)
		default:
			return Filter{}, fmt.Errorf("%w: unknown key %q", ErrInvalidFilter, key)
		}
	}
	return f, nil
}

func (f Filter) IsZero() bool {
	return f == Filter{}
}

// MatchProcess applies the pid and comm components.
func (f Filter) MatchProcess(p models.Process) bool {
	if f.HasPID && p.PID != f.PID {
		return false
	}
	if f.Comm == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), f.Comm) ||
		strings.Contains(strings.ToLower(p.Command), f.Comm)
}

// MatchFunction applies the sys and fn components.
func (f Filter) MatchFunction(name string) bool {
	if f.Syscall == "" && f.Function == "" {
		return true
	}
	name = strings.ToLower(name)
	return strings.Contains(name, f.Syscall) && strings.Contains(name, f.Function)
}

func (f Filter) filtersFunctions() bool {
	return f.Syscall != "" || f.Function != ""
}
