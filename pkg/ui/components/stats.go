package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Stats accumulates per-cycle figures for display.
type Stats struct {
	Cycles          uint64
	PoolsScanned    int64
	CandidatesFound int64
	Opportunities   int64
	Profitable      int64
	Errors          int64
	LastCycleTime   time.Duration
}

// StatsPanel renders scan statistics.
type StatsPanel struct {
	stats Stats
}

// NewStatsPanel creates a stats panel.
func NewStatsPanel() *StatsPanel {
	return &StatsPanel{}
}

// Update replaces the displayed statistics.
func (s *StatsPanel) Update(stats Stats) {
	s.stats = stats
}

// View renders the stats panel.
func (s *StatsPanel) View() string {
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	hitRate := float64(0)
	if s.stats.CandidatesFound > 0 {
		hitRate = float64(s.stats.Profitable) / float64(s.stats.CandidatesFound) * 100
	}

	errorsDisplay := valueStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	if s.stats.Errors > 0 {
		errorsDisplay = errorStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	}

	return labelStyle.Render("STATS") + "\n" +
		fmt.Sprintf("Cycles: %s  │  Pools: %s  │  Candidates: %s  │  Profitable: %s (%.1f%%)\n",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Cycles)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.PoolsScanned)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.CandidatesFound)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Profitable)),
			hitRate,
		) +
		fmt.Sprintf("Last cycle: %s  │  Errors: %s",
			valueStyle.Render(s.stats.LastCycleTime.Round(time.Millisecond).String()),
			errorsDisplay,
		)
}
