// Package events предоставляет интерфейсы для реализации Port & Adapter паттерна.
//
// Это Port (интерфейс) для подписки на события выполнения цепочек и агентов.
// Позволяет подключать любые UI (TUI, Web, CLI) без изменения библиотечной логики.
//
// # Port & Adapter Pattern
//
//	Port — это интерфейс (Emitter, Subscriber), определённый в библиотеке.
//	Adapter — это реализация интерфейса для конкретного UI (TUI, Web, etc).
//
// # Basic Usage
//
//	emitter := events.NewChanEmitter(32)
//	chain.SetEmitter(emitter)
//
//	sub := emitter.Subscribe()
//	for event := range sub.Events() {
//	    switch event.Type {
//	    case events.EventStepStart:
//	        ui.showSpinner()
//	    case events.EventMessage:
//	        ui.showMessage(event.Data)
//	    }
//	}
//
// # Thread Safety
//
// Все реализации интерфейсов должны быть thread-safe.
package events

import (
	"context"
	"time"
)

// EventType представляет тип события.
type EventType string

const (
	// EventStepStart отправляется перед выполнением шага цепочки.
	EventStepStart EventType = "step_start"

	// EventStepEnd отправляется после выполнения шага цепочки.
	EventStepEnd EventType = "step_end"

	// EventToolCall отправляется когда агент вызывает инструмент.
	EventToolCall EventType = "tool_call"

	// EventToolResult отправляется когда инструмент вернул результат.
	EventToolResult EventType = "tool_result"

	// EventMessage отправляется когда агент генерирует сообщение.
	EventMessage EventType = "message"

	// EventDiagnostic отправляется при неразрешённом placeholder в шаблоне.
	EventDiagnostic EventType = "diagnostic"

	// EventError отправляется при ошибке.
	EventError EventType = "error"

	// EventDone отправляется когда выполнение завершено.
	EventDone EventType = "done"
)

// EventData — sealed interface для данных события.
//
// Только типы из пакета events могут реализовать этот интерфейс,
// что обеспечивает compile-time type safety.
type EventData interface {
	eventData()
}

// StepData содержит данные для EventStepStart и EventStepEnd.
type StepData struct {
	StepName string
	Index    int
	Duration time.Duration // Заполняется только для EventStepEnd
}

func (StepData) eventData() {}

// ToolCallData содержит данные о вызове инструмента.
type ToolCallData struct {
	ToolName string
	Args     string
}

func (ToolCallData) eventData() {}

// ToolResultData содержит результат выполнения инструмента.
type ToolResultData struct {
	ToolName string
	Result   string
	Duration time.Duration
}

func (ToolResultData) eventData() {}

// MessageData содержит данные для EventMessage и EventDone.
type MessageData struct {
	Content string
}

func (MessageData) eventData() {}

// DiagnosticData содержит данные для EventDiagnostic.
type DiagnosticData struct {
	Expression string
	Err        error
}

func (DiagnosticData) eventData() {}

// ErrorData содержит данные для EventError.
type ErrorData struct {
	Err error
}

func (ErrorData) eventData() {}

// Event представляет событие выполнения.
//
// Data содержит типизированные данные события (EventData):
//   - EventStepStart/EventStepEnd: StepData
//   - EventToolCall: ToolCallData
//   - EventToolResult: ToolResultData
//   - EventMessage: MessageData
//   - EventDiagnostic: DiagnosticData
//   - EventError: ErrorData
//   - EventDone: MessageData
type Event struct {
	Type      EventType
	Data      EventData
	Timestamp time.Time
}

// Emitter — это Port для отправки событий.
//
// Emitter инвертирует зависимость: библиотека (pkg/chain, pkg/agent)
// зависит от этого интерфейса, а не от конкретного UI.
type Emitter interface {
	// Emit отправляет событие.
	//
	// Если context отменён, операция должна прерваться.
	Emit(ctx context.Context, event Event)
}

// Subscriber позволяет читать события из канала.
type Subscriber interface {
	// Events возвращает read-only канал событий.
	//
	// Канал закрывается при вызове Close().
	Events() <-chan Event

	// Close закрывает канал событий и освобождает ресурсы.
	Close()
}

// New создаёт событие с текущим временем.
func New(t EventType, data EventData) Event {
	return Event{Type: t, Data: data, Timestamp: time.Now()}
}
