package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/prabalesh/calltop/internal/view"
)

func (a *App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	lines := []string{a.renderTitle(), a.renderTableHeader()}

	window := a.vm.Window()
	for _, r := range window {
		lines = append(lines, a.renderRow(r))
	}
	for i := len(window); i < a.vm.Viewport(); i++ {
		lines = append(lines, "")
	}

	lines = append(lines, a.renderStatus(), a.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (a *App) renderTitle() string {
	if !a.vm.Ready() {
		return TitleStyle.Render("Collecting first data ...")
	}
	snap := a.vm.Snapshot()
	var total uint64
	for _, p := range snap.Processes {
		total += p.TotalFunctionCount
	}
	title := fmt.Sprintf("calltop - %d processes, %d functions, %s calls",
		snap.Total, snap.Functions, humanize.Comma(int64(total)))
	if expr := a.vm.FilterExpr(); expr != "" && a.mode != filterMode {
		title += " - filter: " + expr
	}
	return TitleStyle.Render(truncateString(title, a.width))
}

func (a *App) renderTableHeader() string {
	var b strings.Builder
	for i, c := range view.Columns {
		title := c.Title
		if i == a.vm.ActiveColumn() {
			if a.vm.SortDesc() {
				title += "▼"
			} else {
				title += "▲"
			}
		}
		cell := pad(title, c.Width, c.Left) + " "
		if i == a.vm.ActiveColumn() {
			b.WriteString(ActiveHeaderStyle.Render(cell))
		} else {
			b.WriteString(TableHeaderStyle.Render(cell))
		}
	}
	return b.String()
}

func (a *App) renderRow(r view.Row) string {
	line := truncateString(formatRow(r), a.width)
	line += strings.Repeat(" ", max(0, a.width-lipgloss.Width(line)))
	if r.Group%2 == 0 {
		return EvenRowStyle.Render(line)
	}
	return OddRowStyle.Render(line)
}

func (a *App) renderStatus() string {
	if a.status == "" {
		return ""
	}
	if a.statusError {
		return ErrorStyle.Render(truncateString(a.status, a.width))
	}
	return SuccessStyle.Render(truncateString(a.status, a.width))
}

func (a *App) renderFooter() string {
	switch a.mode {
	case filterMode:
		return PromptStyle.Render("Filter: ") + a.input.View()
	case attachMode:
		return PromptStyle.Render("Attach pid: ") + a.input.View()
	}

	position := FooterStyle.Render(fmt.Sprintf(" (%d/%d) [refresh=%.1fs]",
		a.vm.ScrollTop(), max(0, len(a.vm.Rows())-1), a.vm.Interval().Seconds()))
	return lipgloss.JoinHorizontal(lipgloss.Bottom, a.help.View(keys), position)
}

// Cells formats a row in column order. Only the first row of a process
// carries its pid and name.
func Cells(r view.Row) []string {
	pid, name := "", ""
	if r.First {
		pid, name = strconv.Itoa(r.PID), r.Process
	}
	return []string{
		pid,
		name,
		r.Function,
		micros(r.AvgLatencyNs),
		micros(float64(r.IntervalLatencyNs)),
		humanize.FormatFloat("#,###.", r.Rate),
		humanize.Comma(int64(r.TotalCount)),
		humanize.FormatFloat("#,###.##", float64(r.TotalLatencyNs)/1e3),
	}
}

func formatRow(r view.Row) string {
	var b strings.Builder
	for i, cell := range Cells(r) {
		c := view.Columns[i]
		b.WriteString(pad(truncateString(cell, c.Width), c.Width, c.Left))
		b.WriteString(" ")
	}
	return b.String()
}

func micros(ns float64) string {
	return fmt.Sprintf("%.2f", ns/1e3)
}

func pad(s string, width int, left bool) string {
	if left {
		return fmt.Sprintf("%-*s", width, s)
	}
	return fmt.Sprintf("%*s", width, s)
}

// truncateString shortens s to maxLen terminal cells.
func truncateString(s string, maxLen int) string {
	if maxLen <= 0 || ansi.StringWidth(s) <= maxLen {
		return s
	}
	if maxLen < 4 {
		return ansi.Truncate(s, maxLen, "")
	}
	return ansi.Truncate(s, maxLen, "...")
}
