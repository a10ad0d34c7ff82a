package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"carecompanion/internal/app"
)

// Run starts the chat interface and blocks until the user quits.
func Run(application *app.Application) error {
	model := NewChatModel(application)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
