package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TickFrame() tea.Msg { return tickMsg(time.Now()) }
