package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/prabalesh/calltop/internal/models"
	"github.com/prabalesh/calltop/internal/view"
)

// Collector is the part of the collector the UI drives.
type Collector interface {
	Reset(ctx context.Context) error
	SetInterval(ctx context.Context, d time.Duration) error
	Attach(ctx context.Context, pid int) <-chan error
}

type snapshotMsg models.ProcessList

type statusMsg struct {
	text    string
	isError bool
}

type attachedMsg struct {
	pid int
	err error
}

type resetMsg struct {
	err error
}

type uiMode int

const (
	normalMode uiMode = iota
	filterMode
	attachMode
)

// Lines used by the title and the table header, above the rows.
const headerHeight = 2

type App struct {
	ctx       context.Context
	collector Collector
	snapshots <-chan models.ProcessList

	vm    *view.ViewModel
	help  help.Model
	input textinput.Model
	mode  uiMode

	status      string
	statusError bool

	// Set between a reset request and the first snapshot taken after it.
	awaitingReset bool

	width  int
	height int
}

func NewApp(ctx context.Context, collector Collector, snapshots <-chan models.ProcessList, interval time.Duration) *App {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 128

	h := help.New()
	h.Styles.ShortKey = HelpStyle.Bold(true)
	h.Styles.ShortDesc = HelpStyle

	return &App{
		ctx:       ctx,
		collector: collector,
		snapshots: snapshots,
		vm:        view.New(interval),
		help:      h,
		input:     ti,
	}
}

// SetFilter sets the filter shown before the first key press.
func (a *App) SetFilter(expr string) error {
	if err := a.vm.SetFilter(expr); err != nil {
		return err
	}
	a.input.SetValue(expr)
	return nil
}

func (a *App) Init() tea.Cmd {
	return a.waitForSnapshot()
}

// waitForSnapshot delivers the next published snapshot as a message.
func (a *App) waitForSnapshot() tea.Cmd {
	return func() tea.Msg {
		select {
		case l, ok := <-a.snapshots:
			if !ok {
				return nil
			}
			return snapshotMsg(l)
		case <-a.ctx.Done():
			return nil
		}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.resize()
		return a, nil

	case snapshotMsg:
		if a.awaitingReset {
			if msg.Tick != 0 {
				return a, a.waitForSnapshot()
			}
			a.awaitingReset = false
		}
		a.vm.SetSnapshot(models.ProcessList(msg))
		return a, a.waitForSnapshot()

	case resetMsg:
		if msg.err != nil {
			a.awaitingReset = false
			a.status = fmt.Sprintf("failed to reset: %v", msg.err)
			a.statusError = true
		}
		return a, nil

	case statusMsg:
		a.status = msg.text
		a.statusError = msg.isError
		return a, nil

	case attachedMsg:
		if msg.err != nil {
			a.status = msg.err.Error()
			a.statusError = true
			return a, nil
		}
		a.status = fmt.Sprintf("tracing user-space functions of pid %d", msg.pid)
		a.statusError = false
		return a, nil

	case tea.KeyMsg:
		switch a.mode {
		case filterMode:
			return a.handleFilterMode(msg)
		case attachMode:
			return a.handleAttachMode(msg)
		default:
			return a.handleNormalMode(msg)
		}
	}

	if a.mode != normalMode {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.status = ""

	switch {
	case key.Matches(msg, keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, keys.Up):
		a.vm.ScrollBy(-1)
	case key.Matches(msg, keys.Down):
		a.vm.ScrollBy(1)
	case key.Matches(msg, keys.PageUp):
		a.vm.PageUp()
	case key.Matches(msg, keys.PageDown):
		a.vm.PageDown()
	case key.Matches(msg, keys.Top):
		a.vm.ScrollToTop()
	case key.Matches(msg, keys.Bottom):
		a.vm.ScrollToBottom()
	case key.Matches(msg, keys.SortLeft):
		a.vm.PrevColumn()
	case key.Matches(msg, keys.SortRight):
		a.vm.NextColumn()
	case key.Matches(msg, keys.Reverse):
		a.vm.Reverse()
	case key.Matches(msg, keys.Slower):
		return a, a.setInterval(a.vm.IncreaseInterval())
	case key.Matches(msg, keys.Faster):
		return a, a.setInterval(a.vm.DecreaseInterval())
	case key.Matches(msg, keys.Reset):
		a.vm.Reset()
		a.awaitingReset = true
		return a, a.reset()
	case key.Matches(msg, keys.Filter):
		a.mode = filterMode
		a.input.Placeholder = "comm:nginx,pid:42,sys:read,fn:malloc"
		a.input.SetValue(a.vm.FilterExpr())
		a.input.CursorEnd()
		a.resize()
		return a, a.input.Focus()
	case key.Matches(msg, keys.Attach):
		a.mode = attachMode
		a.input.Placeholder = "pid"
		a.input.SetValue("")
		a.resize()
		return a, a.input.Focus()
	case key.Matches(msg, keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		a.resize()
	}
	return a, nil
}

func (a *App) handleFilterMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return a, tea.Quit
	case key.Matches(msg, keys.Cancel):
		a.vm.ClearFilter()
		a.leavePrompt()
		return a, nil
	case key.Matches(msg, keys.Confirm):
		err := a.vm.SetFilter(a.input.Value())
		a.leavePrompt()
		if err != nil {
			a.status, a.statusError = err.Error(), true
		}
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	// An incomplete expression keeps the last valid filter while typing.
	if err := a.vm.SetFilter(a.input.Value()); err != nil {
		a.status, a.statusError = err.Error(), true
	} else {
		a.status = ""
	}
	return a, cmd
}

func (a *App) handleAttachMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return a, tea.Quit
	case key.Matches(msg, keys.Cancel):
		a.leavePrompt()
		return a, nil
	case key.Matches(msg, keys.Confirm):
		value := strings.TrimSpace(a.input.Value())
		a.leavePrompt()
		pid, err := strconv.Atoi(value)
		if err != nil || pid <= 0 {
			a.status, a.statusError = fmt.Sprintf("invalid pid %q", value), true
			return a, nil
		}
		a.status, a.statusError = fmt.Sprintf("attaching to pid %d ...", pid), false
		return a, a.attach(pid)
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) leavePrompt() {
	a.mode = normalMode
	a.input.Blur()
	a.input.SetValue("")
	a.resize()
}

// resize recomputes how many table rows fit between header and footer.
func (a *App) resize() {
	footer := lipgloss.Height(a.renderFooter())
	a.vm.SetViewport(a.height - headerHeight - footer - 1)
}

func (a *App) setInterval(d time.Duration) tea.Cmd {
	return func() tea.Msg {
		if err := a.collector.SetInterval(a.ctx, d); err != nil {
			return statusMsg{text: fmt.Sprintf("failed to set refresh interval: %v", err), isError: true}
		}
		return nil
	}
}

func (a *App) reset() tea.Cmd {
	return func() tea.Msg {
		return resetMsg{err: a.collector.Reset(a.ctx)}
	}
}

func (a *App) attach(pid int) tea.Cmd {
	return func() tea.Msg {
		select {
		case err := <-a.collector.Attach(a.ctx, pid):
			return attachedMsg{pid: pid, err: err}
		case <-a.ctx.Done():
			return nil
		}
	}
}
