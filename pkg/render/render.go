// Package render owns the terminal presentation of flow snapshots: a live
// tview table plus, optionally, a plain-text file snapshot per sample tick.
package render

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/flowtopdev/nettop/pkg/dissect"
	"github.com/flowtopdev/nettop/pkg/flowtable"
)

var columns = []string{"PROTO", "SOURCE", "DESTINATION", "RX B/s", "RX PKT/s", "TX B/s", "TX PKT/s"}

// Renderer owns the tview.Application and redraws a table of flows each
// time Update is called. The application's own event loop must be started
// by calling Run from the goroutine that owns the terminal; Update is safe
// to call from any other goroutine because it goes through
// tview.Application.QueueUpdateDraw.
type Renderer struct {
	app   *tview.Application
	table *tview.Table
}

// New builds a Renderer with an empty table and a 'q' quit binding.
func New() *Renderer {
	table := tview.NewTable().SetBorders(false).SetFixed(1, 0)
	table.SetBackgroundColor(tcell.ColorDefault)
	writeHeader(table)

	app := tview.NewApplication()
	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if r := event.Rune(); r == 'q' || r == 'Q' {
			app.Stop()
		}
		return event
	})
	app.SetRoot(table, true).SetFocus(table)

	return &Renderer{app: app, table: table}
}

// Run blocks running the terminal event loop until Stop is called (by the
// quit keybinding or externally). Resize is handled for free: tview
// recomputes the table's box layout against every tcell.EventResize.
func (r *Renderer) Run() error {
	return r.app.Run()
}

// Stop tears down the terminal application.
func (r *Renderer) Stop() {
	r.app.Stop()
}

// Update redraws the table from a fresh snapshot, busiest flow first. The
// entries are passed in drain order (ascending) and reversed at draw time,
// the same way Rows reverses them for the snapshot writer.
func (r *Renderer) Update(entries []flowtable.Entry, intervalSeconds int) {
	r.app.QueueUpdateDraw(func() {
		writeRows(r.table, entries, intervalSeconds)
	})
}

// Rows renders the same content Update draws into the live table, as plain
// text lines, for use by the file snapshot writer and by tests that don't
// want to drive a tview.Application.
func Rows(entries []flowtable.Entry, intervalSeconds int) []string {
	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, strings.Join(columns, "\t"))
	for i := len(entries) - 1; i >= 0; i-- {
		lines = append(lines, strings.Join(rowValues(entries[i], intervalSeconds), "\t"))
	}
	return lines
}

func writeHeader(table *tview.Table) {
	for col, name := range columns {
		table.SetCell(0, col, tview.NewTableCell(name).
			SetTextColor(tcell.ColorYellow).
			SetSelectable(false).
			SetAlign(tview.AlignLeft))
	}
}

func writeRows(table *tview.Table, entries []flowtable.Entry, intervalSeconds int) {
	clearRows(table)
	for i := len(entries) - 1; i >= 0; i-- {
		row := table.GetRowCount()
		for col, v := range rowValues(entries[i], intervalSeconds) {
			table.SetCell(row, col, tview.NewTableCell(v).SetAlign(tview.AlignLeft))
		}
	}
}

func rowValues(e flowtable.Entry, intervalSeconds int) []string {
	return []string{
		e.Key.Protocol.String(),
		endpoint(e.Key.SrcAddr, e.Key.SrcPort),
		endpoint(e.Key.DstAddr, e.Key.DstPort),
		rate(e.Stats.RxBytes, intervalSeconds),
		rate(e.Stats.RxPackets, intervalSeconds),
		rate(e.Stats.TxBytes, intervalSeconds),
		rate(e.Stats.TxPackets, intervalSeconds),
	}
}

// endpoint renders an address:port pair, bracketing IPv6 literals the way
// a URL authority would. Family drives rendering only.
func endpoint(addr dissect.Addr, port uint16) string {
	text := addr.String()
	if addr.Family() == dissect.IPv6 {
		return fmt.Sprintf("[%s]:%d", text, port)
	}
	return fmt.Sprintf("%s:%d", text, port)
}

func clearRows(table *tview.Table) {
	for r := table.GetRowCount() - 1; r >= 1; r-- {
		table.RemoveRow(r)
	}
}

func rate(counter uint64, intervalSeconds int) string {
	if intervalSeconds <= 0 {
		intervalSeconds = 1
	}
	return humanRate(float64(counter) / float64(intervalSeconds))
}

// humanRate formats a rate with a decimal (not binary-prefix) unit
// suffix, the way top-style displays scale counters for readability at a
// glance.
func humanRate(v float64) string {
	const unit = 1000.0
	suffixes := []string{"", "K", "M", "G", "T"}
	i := 0
	for v >= unit && i < len(suffixes)-1 {
		v /= unit
		i++
	}
	return fmt.Sprintf("%.2f%s", v, suffixes[i])
}
