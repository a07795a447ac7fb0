package infra

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fd1az/dex-scanner/business/arbitrage/app"
	"github.com/fd1az/dex-scanner/business/arbitrage/domain"
	"github.com/fd1az/dex-scanner/internal/logger"
	"github.com/fd1az/dex-scanner/pkg/ui"
)

// Ensure TUIReporter implements the reporter port.
var _ app.Reporter = (*TUIReporter)(nil)

// TUIReporter renders cycle output on the Bubble Tea dashboard. The
// program runs on its own goroutine; Done() closes when the user
// quits so main can shut the process down.
type TUIReporter struct {
	log logger.LoggerInterface

	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
}

// NewTUIReporter creates a TUI reporter.
func NewTUIReporter(log logger.LoggerInterface) *TUIReporter {
	return &TUIReporter{
		log:  log,
		done: make(chan struct{}),
	}
}

// Start launches the dashboard program.
func (r *TUIReporter) Start(ctx context.Context) error {
	r.mu.Lock()
	r.program = ui.NewProgram()
	program := r.program
	r.mu.Unlock()

	go func() {
		defer close(r.done)
		if _, err := program.Run(); err != nil {
			r.log.Error(ctx, "dashboard exited with error", "error", err)
		}
	}()
	return nil
}

// Done closes when the user quits the dashboard.
func (r *TUIReporter) Done() <-chan struct{} {
	return r.done
}

// Report forwards a cycle's output to the dashboard.
func (r *TUIReporter) Report(report *domain.Report) {
	r.send(ui.ReportMsg{Report: report})
}

// UpdateConnection forwards a connection state change.
func (r *TUIReporter) UpdateConnection(name string, connected bool) {
	r.send(ui.ConnectionMsg{Name: name, Connected: connected})
}

// UpdateBlock forwards a new chain head.
func (r *TUIReporter) UpdateBlock(number uint64) {
	r.send(ui.BlockMsg{Number: number})
}

// Stop quits the dashboard and waits for it to wind down.
func (r *TUIReporter) Stop() error {
	r.mu.Lock()
	program := r.program
	r.mu.Unlock()

	if program != nil {
		program.Quit()
		<-r.done
	}
	return nil
}

func (r *TUIReporter) send(msg tea.Msg) {
	r.mu.Lock()
	program := r.program
	r.mu.Unlock()

	if program != nil {
		program.Send(msg)
	}
}
