// Package components provides the dashboard's reusable panels.
package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// OpportunityRow is one ranked opportunity prepared for display. All
// values are pre-computed by the domain; the panel only formats.
type OpportunityRow struct {
	Timestamp   string
	BlockNumber uint64
	Pair        string
	Route       string
	SpreadBps   string
	NetProfit   decimal.Decimal
	LoanVia     string
	Profitable  bool
}

// OpportunitiesPanel renders the ranked opportunity list, newest
// first.
type OpportunitiesPanel struct {
	rows    []OpportunityRow
	maxRows int
	offset  int
}

// NewOpportunitiesPanel creates a panel retaining up to maxRows
// entries.
func NewOpportunitiesPanel(maxRows int) *OpportunitiesPanel {
	return &OpportunitiesPanel{
		rows:    make([]OpportunityRow, 0, maxRows),
		maxRows: maxRows,
	}
}

// Add prepends a row, trimming the history to maxRows.
func (o *OpportunitiesPanel) Add(row OpportunityRow) {
	o.rows = append([]OpportunityRow{row}, o.rows...)
	if len(o.rows) > o.maxRows {
		o.rows = o.rows[:o.maxRows]
	}
}

// Clear drops all rows.
func (o *OpportunitiesPanel) Clear() {
	o.rows = o.rows[:0]
	o.offset = 0
}

// ScrollUp moves the view window up.
func (o *OpportunitiesPanel) ScrollUp() {
	if o.offset > 0 {
		o.offset--
	}
}

// ScrollDown moves the view window down.
func (o *OpportunitiesPanel) ScrollDown() {
	if o.offset < len(o.rows)-1 {
		o.offset++
	}
}

// View renders the panel.
func (o *OpportunitiesPanel) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	profitStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	lossStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	if len(o.rows) == 0 {
		return headerStyle.Render("OPPORTUNITIES") + "\n\n  No opportunities detected yet..."
	}

	result := headerStyle.Render("OPPORTUNITIES") + "\n"
	result += "┌──────────┬──────────┬─────────────┬────────┬───────────┬──────────┐\n"
	result += "│   Time   │  Block   │    Pair     │ Spread │   Route   │   Net    │\n"
	result += "├──────────┼──────────┼─────────────┼────────┼───────────┼──────────┤\n"

	for i := o.offset; i < len(o.rows) && i < o.offset+12; i++ {
		row := o.rows[i]
		style := profitStyle
		if !row.Profitable {
			style = lossStyle
		}

		result += fmt.Sprintf("│ %-8s │ %8d │ %-11s │ %6s │ %-9s │ %s │\n",
			row.Timestamp,
			row.BlockNumber,
			truncate(row.Pair, 11),
			row.SpreadBps+"bp",
			truncate(row.Route, 9),
			style.Render(fmt.Sprintf("$%8.2f", row.NetProfit.InexactFloat64())),
		)
	}

	result += "└──────────┴──────────┴─────────────┴────────┴───────────┴──────────┘"
	return result
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
