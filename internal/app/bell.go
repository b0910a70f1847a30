package app

import (
	tea "charm.land/bubbletea/v2"
	"github.com/sirupsen/logrus"
)

const bellQueueSize = 4

// TerminalBell is the writer behind audio.Bell while the kiosk UI owns the
// terminal. Written bytes are handed to the program, which emits them
// through its renderer. Write never blocks; bells arriving while the queue
// is full are dropped.
type TerminalBell struct {
	ch  chan string
	log logrus.FieldLogger
}

// NewTerminalBell creates a TerminalBell.
func NewTerminalBell(log logrus.FieldLogger) *TerminalBell {
	return &TerminalBell{ch: make(chan string, bellQueueSize), log: log}
}

func (b *TerminalBell) Write(p []byte) (int, error) {
	select {
	case b.ch <- string(p):
	default:
		b.log.Debug("Bell queue full, dropping bell")
	}
	return len(p), nil
}

type bellMsg struct {
	seq string
}

func (b *TerminalBell) listen() tea.Cmd {
	return func() tea.Msg {
		return bellMsg{seq: <-b.ch}
	}
}
