package view

// ProcessKey orders processes against each other.
type ProcessKey int

const (
	ProcessUnsorted ProcessKey = iota
	ProcessByPID
	ProcessByName
	ProcessByIntervalCount
	ProcessByTotalCount
	ProcessByTotalLatency
)

// FunctionKey orders the functions of one process.
type FunctionKey int

const (
	FunctionUnsorted FunctionKey = iota
	FunctionByName
	FunctionByAvgLatency
	FunctionByIntervalLatency
	FunctionByRate
	FunctionByTotalCount
	FunctionByTotalLatency
)

// Column is a table column. Selecting it as the sort column applies its
// keys to the levels it drives; a column that drives neither level cannot
// be selected.
type Column struct {
	Title string
	Width int
	Left  bool

	Process  ProcessKey
	Function FunctionKey
	Desc     bool
}

func (c Column) Sortable() bool {
	return c.Process != ProcessUnsorted || c.Function != FunctionUnsorted
}

const defaultColumn = 6

// Columns in display order.
var Columns = []Column{
	{Title: "PID", Width: 7, Process: ProcessByPID},
	{Title: "PROCESS", Width: 16, Left: true, Process: ProcessByName},
	{Title: "FUNCTION", Width: 24, Left: true, Function: FunctionByName},
	{Title: "AVG LAT(us)", Width: 12, Function: FunctionByAvgLatency, Desc: true},
	{Title: "INTVL LAT(us)", Width: 14, Function: FunctionByIntervalLatency, Desc: true},
	{Title: "CALLS/s", Width: 10, Process: ProcessByIntervalCount, Function: FunctionByRate, Desc: true},
	{Title: "TOTAL", Width: 14, Process: ProcessByTotalCount, Function: FunctionByTotalCount, Desc: true},
	{Title: "TOTAL LAT(us)", Width: 16, Process: ProcessByTotalLatency, Function: FunctionByTotalLatency, Desc: true},
}
