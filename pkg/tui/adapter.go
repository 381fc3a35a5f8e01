package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ilkoid/roy-ai/pkg/events"
)

// EventMsg оборачивает events.Event в tea.Msg для Bubble Tea цикла.
type EventMsg events.Event

// waitForEvent возвращает tea.Cmd, который блокируется до следующего
// события подписчика. После каждого события команда перевыпускается
// из Update — так события агента въезжают в цикл Bubble Tea.
func waitForEvent(sub events.Subscriber) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-sub.Events()
		if !ok {
			return nil
		}
		return EventMsg(event)
	}
}
