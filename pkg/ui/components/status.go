package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// ConnectionStatus is one named upstream connection.
type ConnectionStatus struct {
	Name       string
	Connected  bool
	LastUpdate time.Time
}

// StatusPanel renders connection indicators.
type StatusPanel struct {
	connections []ConnectionStatus
}

// NewStatusPanel creates a status panel.
func NewStatusPanel() *StatusPanel {
	return &StatusPanel{}
}

// Update replaces or appends a connection's status by name.
func (s *StatusPanel) Update(status ConnectionStatus) {
	for i, conn := range s.connections {
		if conn.Name == status.Name {
			s.connections[i] = status
			return
		}
	}
	s.connections = append(s.connections, status)
}

// View renders the status panel.
func (s *StatusPanel) View() string {
	if len(s.connections) == 0 {
		return "No connections"
	}

	connectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	downStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	var result string
	for _, conn := range s.connections {
		status := connectedStyle.Render("● connected")
		if !conn.Connected {
			status = downStyle.Render("○ disconnected")
		}
		result += fmt.Sprintf("├─ %s: %s\n", conn.Name, status)
	}
	return result
}
