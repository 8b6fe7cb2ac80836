package ui

import (
	"github.com/billy398/auction-dashboard/internal/coord"
	tea "github.com/charmbracelet/bubbletea"
)

// ProgramListener forwards coordinator notifications into a running
// Bubble Tea program as messages.
type ProgramListener struct {
	send func(tea.Msg)
}

// NewProgramListener wraps p.
func NewProgramListener(p *tea.Program) *ProgramListener {
	return &ProgramListener{send: p.Send}
}

func (l *ProgramListener) RefreshStarted(auto bool) {
	l.send(RefreshStarted{Auto: auto})
}

func (l *ProgramListener) RefreshFinished(r coord.Result, auto bool) {
	l.send(RefreshFinished{Result: r, Auto: auto})
}

var _ coord.Listener = (*ProgramListener)(nil)
