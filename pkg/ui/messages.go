// Package ui provides the Bubble Tea terminal dashboard for the
// scanner.
package ui

import (
	"github.com/fd1az/dex-scanner/business/arbitrage/domain"
)

// ReportMsg delivers one detection cycle's ranked output.
type ReportMsg struct {
	Report *domain.Report
}

// ConnectionMsg updates a named connection indicator.
type ConnectionMsg struct {
	Name      string
	Connected bool
}

// BlockMsg announces a new chain head.
type BlockMsg struct {
	Number uint64
}

// LogMsg appends a line to the on-screen log panel.
type LogMsg struct {
	Level   string // "info", "warn", "error"
	Message string
}

// TickMsg drives spinner animation and screen refresh.
type TickMsg struct{}
