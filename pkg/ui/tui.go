package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/dex-scanner/pkg/ui/components"
)

// ConnectionInfo holds one upstream connection's state.
type ConnectionInfo struct {
	Connected bool
	LastSeen  time.Time
}

// Model is the main Bubble Tea model for the dashboard.
type Model struct {
	opportunities *components.OpportunitiesPanel
	statsPanel    *components.StatsPanel

	ready    bool
	quitting bool
	paused   bool
	width    int
	height   int

	currentBlock uint64
	gasPrice     float64
	ethPrice     string
	connections  map[string]*ConnectionInfo
	lastUpdate   time.Time
	startTime    time.Time

	stats components.Stats
	logs  []string
}

// New creates the dashboard model.
func New() Model {
	return Model{
		opportunities: components.NewOpportunitiesPanel(50),
		statsPanel:    components.NewStatsPanel(),
		connections:   make(map[string]*ConnectionInfo),
		logs:          make([]string, 0, 6),
		startTime:     time.Now(),
	}
}

// Init starts the animation ticker.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "c":
			m.opportunities.Clear()
		case "p":
			m.paused = !m.paused
		case "up", "k":
			m.opportunities.ScrollUp()
		case "down", "j":
			m.opportunities.ScrollDown()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case TickMsg:
		return m, tickCmd()

	case ReportMsg:
		if msg.Report != nil && !m.paused {
			s := msg.Report.Stats
			m.stats.Cycles = s.Cycle
			m.stats.PoolsScanned += int64(s.PoolsScanned)
			m.stats.CandidatesFound += int64(s.CandidatesFound)
			m.stats.Opportunities += int64(len(msg.Report.Opportunities))
			m.stats.Profitable += int64(s.Profitable)
			m.stats.Errors += int64(s.CycleErrors)
			m.stats.LastCycleTime = s.CycleDuration
			m.statsPanel.Update(m.stats)

			m.currentBlock = s.BlockNumber
			m.gasPrice = s.GasPriceGwei
			m.ethPrice = s.EthPriceUSD.StringFixed(2)

			for _, opp := range msg.Report.Opportunities {
				m.opportunities.Add(components.OpportunityRow{
					Timestamp:   opp.Timestamp.Format("15:04:05"),
					BlockNumber: opp.BlockNumber,
					Pair:        opp.Pair.String(),
					Route:       opp.Direction(),
					SpreadBps:   opp.SpreadBps.String(),
					NetProfit:   opp.NetProfitUSD,
					LoanVia:     opp.LoanProvider.Name,
					Profitable:  opp.Profitable,
				})
			}
			m.lastUpdate = time.Now()
		}

	case ConnectionMsg:
		m.connections[msg.Name] = &ConnectionInfo{
			Connected: msg.Connected,
			LastSeen:  time.Now(),
		}

	case BlockMsg:
		m.currentBlock = msg.Number
		m.lastUpdate = time.Now()

	case LogMsg:
		line := fmt.Sprintf("[%s] %s: %s", time.Now().Format("15:04:05"), msg.Level, msg.Message)
		m.logs = append(m.logs, line)
		if len(m.logs) > 6 {
			m.logs = m.logs[len(m.logs)-6:]
		}
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}
	if !m.ready {
		return "\n  Loading..."
	}
	if m.currentBlock == 0 {
		return m.renderWaitScreen()
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(" DEX Scanner "))
	b.WriteString("\n\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	left := m.opportunities.View()
	right := m.statsPanel.View() + "\n\n" + m.renderLogs()

	if m.width > 110 {
		leftBox := BoxStyle.Width(2*m.width/3 - 2).Render(left)
		rightBox := BoxStyle.Width(m.width/3 - 2).Render(right)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, leftBox, rightBox))
	} else {
		b.WriteString(BoxStyle.Width(m.width - 4).Render(left))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Width(m.width - 4).Render(right))
	}

	b.WriteString("\n\n")

	if m.paused {
		pauseStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorWarning)
		b.WriteString(pauseStyle.Render("⏸ PAUSED"))
		b.WriteString(" • ")
	}
	b.WriteString(HelpStyle.Render("q: quit • c: clear • p: pause • ↑↓: scroll"))

	return b.String()
}

func (m Model) renderWaitScreen() string {
	mutedStyle := lipgloss.NewStyle().Foreground(ColorMuted)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)

	spinners := []string{"◐", "◓", "◑", "◒"}
	idx := int(time.Since(m.startTime).Milliseconds()/200) % len(spinners)

	var sb strings.Builder
	sb.WriteString("\n\n")
	sb.WriteString(titleStyle.Render("  DEX Scanner"))
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("  %s Waiting for the first block...\n\n", spinners[idx]))

	for name, info := range m.connections {
		status := StatusDisconnected.Render("○ " + name)
		if info.Connected {
			status = StatusConnected.Render("● " + name)
		}
		sb.WriteString("  " + status + "\n")
	}

	sb.WriteString("\n")
	sb.WriteString(mutedStyle.Render(fmt.Sprintf("  Elapsed: %s", time.Since(m.startTime).Round(time.Second))))
	sb.WriteString("\n")

	return sb.String()
}

func (m Model) renderStatusBar() string {
	parts := []string{
		fmt.Sprintf("Block: #%d", m.currentBlock),
	}

	if m.gasPrice > 0 {
		parts = append(parts, fmt.Sprintf("Gas: %.1f gwei", m.gasPrice))
	}
	if m.ethPrice != "" {
		parts = append(parts, fmt.Sprintf("ETH: $%s", m.ethPrice))
	}

	for name, info := range m.connections {
		if info.Connected {
			parts = append(parts, StatusConnected.Render("● "+name))
		} else {
			parts = append(parts, StatusDisconnected.Render("○ "+name))
		}
	}

	if !m.lastUpdate.IsZero() {
		ago := time.Since(m.lastUpdate).Round(time.Second)
		parts = append(parts, MutedValue.Render(fmt.Sprintf("Updated: %s ago", ago)))
	}

	return strings.Join(parts, "  │  ")
}

func (m Model) renderLogs() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	mutedStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("LOG"))
	sb.WriteString("\n")

	if len(m.logs) == 0 {
		sb.WriteString(mutedStyle.Render("  quiet so far"))
	} else {
		for _, line := range m.logs {
			sb.WriteString(mutedStyle.Render("  " + line))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// NewProgram wraps the model in a full-screen Bubble Tea program.
func NewProgram() *tea.Program {
	return tea.NewProgram(New(), tea.WithAltScreen())
}
