package view

import (
	"time"

	"github.com/prabalesh/calltop/internal/models"
)

// Refresh interval bounds, in tenths of a second.
const (
	minIntervalTenths = 1
	secondTenths      = 10
)

// Row is one flattened (process, function) line of the table.
type Row struct {
	// First is set on the first row of a process; only it shows pid and name.
	First   bool
	Group   int
	PID     int
	Process string
	Command string

	Function          string
	AvgLatencyNs      float64
	IntervalLatencyNs uint64
	Rate              float64
	TotalCount        uint64
	TotalLatencyNs    uint64
}

// ViewModel turns a snapshot into the ordered, filtered and windowed rows
// of the table. It holds no reference to live collector state and is owned
// by the UI loop.
type ViewModel struct {
	processSort  processSort
	functionSort functionSort
	active       int

	filter     Filter
	filterExpr string

	scrollTop int
	viewport  int
	tenths    int

	snapshot models.ProcessList
	ready    bool
	rows     []Row
}

func New(interval time.Duration) *ViewModel {
	vm := &ViewModel{
		viewport: 1,
		tenths:   max(minIntervalTenths, int(interval/(100*time.Millisecond))),
	}
	vm.selectColumn(defaultColumn)
	return vm
}

// SetSnapshot replaces the data shown and rebuilds the rows.
func (vm *ViewModel) SetSnapshot(l models.ProcessList) {
	vm.snapshot = l
	vm.ready = true
	vm.rebuild()
}

// Ready reports whether a snapshot has been received.
func (vm *ViewModel) Ready() bool {
	return vm.ready
}

func (vm *ViewModel) Snapshot() models.ProcessList {
	return vm.snapshot
}

// SetViewport sets the number of table rows visible at once.
func (vm *ViewModel) SetViewport(lines int) {
	vm.viewport = max(1, lines)
}

func (vm *ViewModel) Viewport() int {
	return vm.viewport
}

func (vm *ViewModel) ActiveColumn() int {
	return vm.active
}

// SortDesc reports the direction of the active column.
func (vm *ViewModel) SortDesc() bool {
	c := Columns[vm.active]
	if c.Process != ProcessUnsorted {
		return vm.processSort.desc
	}
	return vm.functionSort.desc
}

// NextColumn moves the sort to the next sortable column on the right.
func (vm *ViewModel) NextColumn() {
	for i := vm.active + 1; i < len(Columns); i++ {
		if Columns[i].Sortable() {
			vm.selectColumn(i)
			vm.rebuild()
			return
		}
	}
}

// PrevColumn moves the sort to the next sortable column on the left.
func (vm *ViewModel) PrevColumn() {
	for i := vm.active - 1; i >= 0; i-- {
		if Columns[i].Sortable() {
			vm.selectColumn(i)
			vm.rebuild()
			return
		}
	}
}

// Reverse flips the direction of the levels the active column drives.
func (vm *ViewModel) Reverse() {
	c := Columns[vm.active]
	if c.Process != ProcessUnsorted {
		vm.processSort.desc = !vm.processSort.desc
	}
	if c.Function != FunctionUnsorted {
		vm.functionSort.desc = !vm.functionSort.desc
	}
	vm.rebuild()
}

func (vm *ViewModel) selectColumn(i int) {
	c := Columns[i]
	vm.active = i
	if c.Process != ProcessUnsorted {
		vm.processSort = processSort{key: c.Process, desc: c.Desc}
	}
	if c.Function != FunctionUnsorted {
		vm.functionSort = functionSort{key: c.Function, desc: c.Desc}
	}
}

// SetFilter parses and applies expr. On error the previous filter stays in
// effect.
func (vm *ViewModel) SetFilter(expr string) error {
	f, err := ParseFilter(expr)
	if err != nil {
		return err
	}
	vm.filter = f
	vm.filterExpr = expr
	vm.rebuild()
	return nil
}

func (vm *ViewModel) ClearFilter() {
	vm.filter = Filter{}
	vm.filterExpr = ""
	vm.rebuild()
}

func (vm *ViewModel) FilterExpr() string {
	return vm.filterExpr
}

func (vm *ViewModel) Filter() Filter {
	return vm.filter
}

// ScrollBy moves the window by n rows, negative is up.
func (vm *ViewModel) ScrollBy(n int) {
	vm.scrollTop += n
	vm.clampScroll()
}

func (vm *ViewModel) PageUp() {
	vm.ScrollBy(-vm.viewport)
}

func (vm *ViewModel) PageDown() {
	vm.ScrollBy(vm.viewport)
}

func (vm *ViewModel) ScrollToTop() {
	vm.scrollTop = 0
}

func (vm *ViewModel) ScrollToBottom() {
	vm.scrollTop = len(vm.rows) - 1
	vm.clampScroll()
}

func (vm *ViewModel) ScrollTop() int {
	return vm.scrollTop
}

func (vm *ViewModel) clampScroll() {
	vm.scrollTop = min(max(vm.scrollTop, 0), max(0, len(vm.rows)-1))
}

// Interval is the refresh interval shown and used for rates of functions
// seen only once.
func (vm *ViewModel) Interval() time.Duration {
	return time.Duration(vm.tenths) * 100 * time.Millisecond
}

// IncreaseInterval steps the refresh interval up: by 0.1s below one second,
// to the next whole second above.
func (vm *ViewModel) IncreaseInterval() time.Duration {
	if vm.tenths < secondTenths {
		vm.tenths++
	} else {
		vm.tenths = (vm.tenths/secondTenths + 1) * secondTenths
	}
	vm.rebuild()
	return vm.Interval()
}

// DecreaseInterval steps the refresh interval down, never below 0.1s.
func (vm *ViewModel) DecreaseInterval() time.Duration {
	if vm.tenths <= secondTenths {
		vm.tenths--
	} else {
		vm.tenths = ((vm.tenths - 1) / secondTenths) * secondTenths
	}
	vm.tenths = max(vm.tenths, minIntervalTenths)
	vm.rebuild()
	return vm.Interval()
}

// Rows returns every row passing the filter, in display order.
func (vm *ViewModel) Rows() []Row {
	return vm.rows
}

// Window returns the rows visible in the viewport.
func (vm *ViewModel) Window() []Row {
	if len(vm.rows) == 0 {
		return nil
	}
	end := min(vm.scrollTop+vm.viewport, len(vm.rows))
	return vm.rows[vm.scrollTop:end]
}

// Reset forgets the current snapshot rows and scroll position.
func (vm *ViewModel) Reset() {
	vm.scrollTop = 0
	vm.snapshot = models.ProcessList{}
	vm.rows = nil
}

func (vm *ViewModel) rebuild() {
	vm.rows = build(vm.snapshot, vm.filter, vm.processSort, vm.functionSort, vm.Interval())
	vm.clampScroll()
}

// build runs one render pass over a snapshot. It does not modify l.
func build(l models.ProcessList, f Filter, ps processSort, fs functionSort, interval time.Duration) []Row {
	procs := make([]models.Process, 0, len(l.Processes))
	for _, p := range l.Processes {
		if !f.MatchProcess(p) {
			continue
		}
		fns := make([]models.FunctionSnapshot, 0, len(p.Functions))
		for _, fn := range p.Functions {
			if f.MatchFunction(fn.Name) {
				fns = append(fns, fn)
			}
		}
		if len(fns) == 0 && f.filtersFunctions() {
			continue
		}
		p.Functions = fns
		procs = append(procs, p)
	}
	ps.sort(procs)

	var rows []Row
	for group, p := range procs {
		fs.sort(p.Functions, interval)
		for i, fn := range p.Functions {
			rows = append(rows, Row{
				First:             i == 0,
				Group:             group,
				PID:               p.PID,
				Process:           p.Name,
				Command:           p.Command,
				Function:          fn.Name,
				AvgLatencyNs:      fn.AvgLatencyNs,
				IntervalLatencyNs: fn.LatencyThisIntervalNs,
				Rate:              Rate(fn, interval),
				TotalCount:        fn.TotalCount,
				TotalLatencyNs:    fn.TotalLatencyNs,
			})
		}
	}
	return rows
}
