package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/prabalesh/calltop/internal/models"
)

func fn(name string, interval, total uint64, elapsed time.Duration) models.FunctionSnapshot {
	return models.FunctionSnapshot{
		Name:              name,
		CountThisInterval: interval,
		TotalCount:        total,
		ElapsedSinceLast:  elapsed,
	}
}

func testSnapshot() models.ProcessList {
	return models.ProcessList{
		Processes: []models.Process{
			{
				PID: 7, Name: "sshd", Command: "sshd: root",
				TotalFunctionCount: 50, TotalFunctionCountThisInterval: 1,
				Functions: []models.FunctionSnapshot{fn("[read]", 1, 50, time.Second)},
			},
			{
				PID: 42, Name: "nginx", Command: "nginx: worker",
				TotalFunctionCount: 300, TotalFunctionCountThisInterval: 30,
				Functions: []models.FunctionSnapshot{
					fn("[write]", 10, 100, 2*time.Second),
					fn("[read]", 20, 200, 2*time.Second),
				},
			},
			{
				PID: 9, Name: "bash", Command: "bash",
				TotalFunctionCount: 50, TotalFunctionCountThisInterval: 5,
				Functions: []models.FunctionSnapshot{fn("[execve]", 5, 50, 0)},
			},
		},
		Total: 3,
	}
}

func processOrder(rows []Row) []int {
	var out []int
	for _, r := range rows {
		if r.First {
			out = append(out, r.PID)
		}
	}
	return out
}

func TestRate(t *testing.T) {
	require.InDelta(t, 5.0, Rate(fn("f", 10, 10, 2*time.Second), time.Second), 1e-9)
	require.InDelta(t, 20.0, Rate(fn("f", 10, 10, 0), 500*time.Millisecond), 1e-9)
	require.Zero(t, Rate(fn("f", 10, 10, 0), 0))
	require.Zero(t, Rate(fn("f", 0, 10, time.Second), time.Second))
}

func TestViewModelDefaultSort(t *testing.T) {
	vm := New(time.Second)
	require.False(t, vm.Ready())
	vm.SetSnapshot(testSnapshot())
	require.True(t, vm.Ready())

	require.Equal(t, "TOTAL", Columns[vm.ActiveColumn()].Title)
	require.True(t, vm.SortDesc())

	rows := vm.Rows()
	require.Len(t, rows, 4)
	// Ties on total count break on pid.
	require.Equal(t, []int{42, 7, 9}, processOrder(rows))
	require.Equal(t, "[read]", rows[0].Function)
	require.Equal(t, "[write]", rows[1].Function)
	require.False(t, rows[1].First)
	require.Equal(t, 0, rows[1].Group)
	require.Equal(t, 1, rows[2].Group)

	require.InDelta(t, 10.0, rows[0].Rate, 1e-9)
	// Seen once: the refresh interval stands in for elapsed time.
	require.InDelta(t, 5.0, rows[3].Rate, 1e-9)
}

func TestViewModelSortColumns(t *testing.T) {
	vm := New(time.Second)
	vm.SetSnapshot(testSnapshot())

	vm.PrevColumn()
	require.Equal(t, "CALLS/s", Columns[vm.ActiveColumn()].Title)
	require.Equal(t, []int{42, 9, 7}, processOrder(vm.Rows()))

	vm.Reverse()
	require.False(t, vm.SortDesc())
	require.Equal(t, []int{7, 9, 42}, processOrder(vm.Rows()))

	for i := 0; i < 10; i++ {
		vm.PrevColumn()
	}
	require.Equal(t, 0, vm.ActiveColumn())
	require.Equal(t, []int{7, 9, 42}, processOrder(vm.Rows()))

	vm.NextColumn()
	require.Equal(t, "PROCESS", Columns[vm.ActiveColumn()].Title)
	require.Equal(t, []int{9, 42, 7}, processOrder(vm.Rows()))

	// FUNCTION only drives the function level; processes keep their order.
	vm.NextColumn()
	vm.Reverse()
	rows := vm.Rows()
	require.Equal(t, []int{9, 42, 7}, processOrder(rows))
	require.Equal(t, "[write]", rows[1].Function)
	require.Equal(t, "[read]", rows[2].Function)

	for i := 0; i < 10; i++ {
		vm.NextColumn()
	}
	require.Equal(t, len(Columns)-1, vm.ActiveColumn())
}

func TestViewModelSortIsStable(t *testing.T) {
	vm := New(time.Second)
	snap := testSnapshot()
	vm.SetSnapshot(snap)
	first := vm.Rows()

	// Same data in a different order renders identically.
	snap.Processes[0], snap.Processes[2] = snap.Processes[2], snap.Processes[0]
	vm.SetSnapshot(snap)
	require.Equal(t, first, vm.Rows())
}

func TestViewModelDoesNotModifySnapshot(t *testing.T) {
	vm := New(time.Second)
	snap := testSnapshot()
	vm.SetSnapshot(snap)
	require.Equal(t, "[write]", snap.Processes[1].Functions[0].Name)
}

func TestViewModelFilter(t *testing.T) {
	vm := New(time.Second)
	vm.SetSnapshot(testSnapshot())

	require.NoError(t, vm.SetFilter("comm:nginx,fn:read"))
	rows := vm.Rows()
	require.Len(t, rows, 1)
	require.Equal(t, 42, rows[0].PID)
	require.Equal(t, "[read]", rows[0].Function)
	require.True(t, rows[0].First)

	// A process whose functions are all filtered out disappears.
	require.NoError(t, vm.SetFilter("fn:execve"))
	require.Equal(t, []int{9}, processOrder(vm.Rows()))

	require.ErrorIs(t, vm.SetFilter("pid:x"), ErrInvalidFilter)
	require.Equal(t, "fn:execve", vm.FilterExpr())
	require.Equal(t, []int{9}, processOrder(vm.Rows()))

	vm.ClearFilter()
	require.Len(t, vm.Rows(), 4)
	require.True(t, vm.Filter().IsZero())
}

func TestViewModelScrollClamp(t *testing.T) {
	vm := New(time.Second)
	vm.SetViewport(2)

	vm.ScrollBy(5)
	require.Zero(t, vm.ScrollTop())
	require.Empty(t, vm.Window())

	vm.SetSnapshot(testSnapshot())
	vm.ScrollBy(-3)
	require.Zero(t, vm.ScrollTop())

	vm.ScrollBy(100)
	require.Equal(t, 3, vm.ScrollTop())
	require.Len(t, vm.Window(), 1)

	vm.PageUp()
	require.Equal(t, 1, vm.ScrollTop())
	require.Len(t, vm.Window(), 2)

	vm.PageDown()
	vm.PageDown()
	require.Equal(t, 3, vm.ScrollTop())

	vm.ScrollToTop()
	require.Zero(t, vm.ScrollTop())
	vm.ScrollToBottom()
	require.Equal(t, 3, vm.ScrollTop())

	// Fewer rows after a filter pull the window back.
	require.NoError(t, vm.SetFilter("nginx"))
	require.Equal(t, 1, vm.ScrollTop())
}

func TestViewModelInterval(t *testing.T) {
	vm := New(time.Second)
	require.Equal(t, time.Second, vm.Interval())

	require.Equal(t, 2*time.Second, vm.IncreaseInterval())
	require.Equal(t, 3*time.Second, vm.IncreaseInterval())
	require.Equal(t, 2*time.Second, vm.DecreaseInterval())
	require.Equal(t, time.Second, vm.DecreaseInterval())
	require.Equal(t, 900*time.Millisecond, vm.DecreaseInterval())

	for i := 0; i < 20; i++ {
		vm.DecreaseInterval()
	}
	require.Equal(t, 100*time.Millisecond, vm.Interval())
	require.Equal(t, 200*time.Millisecond, vm.IncreaseInterval())

	vm = New(1500 * time.Millisecond)
	require.Equal(t, 2*time.Second, vm.IncreaseInterval())
	vm = New(1500 * time.Millisecond)
	require.Equal(t, time.Second, vm.DecreaseInterval())

	require.Equal(t, 100*time.Millisecond, New(0).Interval())
}
