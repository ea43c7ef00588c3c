package ui

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/prabalesh/calltop/internal/models"
	"github.com/prabalesh/calltop/internal/view"
)

// Batch writes every snapshot as a plain table instead of driving a
// terminal UI.
type Batch struct {
	out       io.Writer
	snapshots <-chan models.ProcessList
	vm        *view.ViewModel
	count     int
}

// NewBatch returns a Batch that stops after count snapshots, or never when
// count is 0.
func NewBatch(out io.Writer, snapshots <-chan models.ProcessList, interval time.Duration, count int, filter string) (*Batch, error) {
	vm := view.New(interval)
	if err := vm.SetFilter(filter); err != nil {
		return nil, err
	}
	return &Batch{out: out, snapshots: snapshots, vm: vm, count: count}, nil
}

func (b *Batch) Run(ctx context.Context) error {
	for written := 0; b.count == 0 || written < b.count; written++ {
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-b.snapshots:
			if !ok {
				return nil
			}
			if err := b.write(l); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Batch) write(l models.ProcessList) error {
	b.vm.SetSnapshot(l)
	_, err := fmt.Fprintf(b.out, "%s tick=%d processes=%d functions=%d\n%s\n",
		l.TakenAt.Format(time.RFC3339), l.Tick, l.Total, l.Functions, RenderTable(b.vm.Rows()))
	return err
}

// RenderTable lays rows out as a bordered text table.
func RenderTable(rows []view.Row) string {
	headers := make([]string, 0, len(view.Columns))
	for _, c := range view.Columns {
		headers = append(headers, c.Title)
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if !view.Columns[col].Left {
				s = s.Align(lipgloss.Right)
			}
			return s
		})
	for _, r := range rows {
		t.Row(Cells(r)...)
	}
	return t.String()
}
