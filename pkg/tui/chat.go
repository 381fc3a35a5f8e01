// Package tui предоставляет ChatTui — переиспользуемый TUI компонент чата.
//
// ChatTui не содержит бизнес-логики агента, только UI. События агента
// приходят через events.Subscriber (Port & Adapter), пользовательский
// ввод уходит через callback OnInput.
//
// # Layout
//
//	┌─────────────────────────────────────────────┐
//	│ Roy AI | Model: gpt-4o                      │ ← Status Bar
//	├─────────────────────────────────────────────┤
//	│ [14:32:15] Вы: найди платья                 │
//	│ Tool: search({"q":"платья"})                │
//	│ [14:32:18] AI: Нашёл 12 моделей...          │
//	├─────────────────────────────────────────────┤
//	│ > ввод пользователя                         │ ← Input Area
//	└─────────────────────────────────────────────┘
//
// # Basic Usage
//
//	emitter := events.NewChanEmitter(100)
//	a.SetEmitter(emitter)
//
//	ui := tui.NewChatTui(emitter.Subscribe(), tui.Config{ModelName: "gpt-4o"})
//	ui.OnInput(func(input string) { a.Run(ctx, input) })
//	ui.Run()
package tui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"

	"github.com/ilkoid/roy-ai/pkg/events"
)

// Config конфигурирует ChatTui. Все поля опциональны.
type Config struct {
	// Colors определяет цветовую схему
	Colors ColorScheme

	// Title — заголовок в статус-баре
	Title string

	// ModelName — имя модели для статус-бара
	ModelName string

	// InputPrompt — текст приглашения ввода
	InputPrompt string

	// ShowTimestamp — показывать время в сообщениях
	ShowTimestamp bool

	// MaxMessages — лимит строк лога (0 = безлимит)
	MaxMessages int
}

// ChatTui — компонент чата поверх Bubble Tea.
//
// Thread-safe.
type ChatTui struct {
	config Config
	styles styles

	// subscriber — подписчик на события агента (Port & Adapter)
	subscriber events.Subscriber

	// onInput — callback для обработки пользовательского ввода
	onInput func(input string)

	viewport viewport.Model
	textarea textarea.Model

	mu           sync.RWMutex
	messages     []string
	ready        bool
	isProcessing bool
}

var _ tea.Model = (*ChatTui)(nil)

// NewChatTui создает компонент чата с указанным подписчиком событий.
func NewChatTui(subscriber events.Subscriber, config Config) *ChatTui {
	if config.Title == "" {
		config.Title = "Roy AI"
	}
	if config.InputPrompt == "" {
		config.InputPrompt = "> "
	}
	if config.Colors.StatusForeground == "" {
		config.Colors = DefaultColorScheme()
	}

	ta := textarea.New()
	ta.Placeholder = "Введите запрос..."
	ta.Focus()
	ta.Prompt = config.InputPrompt
	ta.CharLimit = 500
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	vp := viewport.New(0, 0)

	t := &ChatTui{
		config:     config,
		styles:     newStyles(config.Colors),
		subscriber: subscriber,
		viewport:   vp,
		textarea:   ta,
	}
	t.viewport.SetContent(t.styles.system.Render("Готов к работе. Введите запрос..."))
	return t
}

// OnInput устанавливает callback для обработки пользовательского ввода.
// Вызывается каждый раз когда пользователь нажимает Enter.
func (t *ChatTui) OnInput(handler func(input string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onInput = handler
}

// Run запускает TUI (блокирующий вызов).
func (t *ChatTui) Run() error {
	p := tea.NewProgram(t)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

// Init реализует tea.Model.
func (t *ChatTui) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, waitForEvent(t.subscriber))
}

// Update реализует tea.Model.
func (t *ChatTui) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	t.textarea, tiCmd = t.textarea.Update(msg)
	t.viewport, vpCmd = t.viewport.Update(msg)

	switch msg := msg.(type) {
	case EventMsg:
		return t.handleAgentEvent(events.Event(msg))

	case tea.WindowSizeMsg:
		return t.handleWindowSize(msg)

	case tea.KeyMsg:
		return t.handleKeyPress(msg)
	}

	return t, tea.Batch(tiCmd, vpCmd)
}

// handleAgentEvent обрабатывает события от агента.
func (t *ChatTui) handleAgentEvent(event events.Event) (tea.Model, tea.Cmd) {
	switch event.Type {
	case events.EventToolCall:
		if data, ok := event.Data.(events.ToolCallData); ok {
			t.appendMessage(t.styles.tool.Render(
				fmt.Sprintf("Tool: %s(%s)", data.ToolName, data.Args)), false)
		}

	case events.EventToolResult:
		if data, ok := event.Data.(events.ToolResultData); ok {
			t.appendMessage(t.styles.tool.Render(
				fmt.Sprintf("Result: %s (%dms)", data.ToolName, data.Duration.Milliseconds())), false)
		}

	case events.EventStepStart:
		if data, ok := event.Data.(events.StepData); ok {
			t.appendMessage(t.styles.system.Render("Step: "+data.StepName), false)
		}

	case events.EventDiagnostic:
		if data, ok := event.Data.(events.DiagnosticData); ok {
			t.appendMessage(t.styles.system.Render(
				fmt.Sprintf("Diagnostic: {%s}: %v", data.Expression, data.Err)), false)
		}

	case events.EventError:
		if data, ok := event.Data.(events.ErrorData); ok {
			t.appendMessage(t.styles.errorMsg.Render("ERROR: "+data.Err.Error()), true)
		}
		t.setProcessing(false)

	case events.EventDone:
		if data, ok := event.Data.(events.MessageData); ok {
			t.appendMessage(t.styles.assistant.Render("AI: ")+data.Content, true)
		}
		t.setProcessing(false)
	}

	return t, waitForEvent(t.subscriber)
}

// handleWindowSize пересчитывает размеры областей.
func (t *ChatTui) handleWindowSize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	headerHeight := 1
	footerHeight := t.textarea.Height() + 1

	vpHeight := msg.Height - headerHeight - footerHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	vpWidth := msg.Width
	if vpWidth < 20 {
		vpWidth = 20
	}

	t.viewport.Width = vpWidth
	t.viewport.Height = vpHeight
	t.textarea.SetWidth(vpWidth)
	t.ready = true

	return t, nil
}

// handleKeyPress обрабатывает нажатия клавиш.
func (t *ChatTui) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return t, tea.Quit

	case tea.KeyEnter:
		input := strings.TrimSpace(t.textarea.Value())
		if input == "" {
			return t, nil
		}

		t.mu.RLock()
		busy := t.isProcessing
		handler := t.onInput
		t.mu.RUnlock()
		if busy {
			return t, nil
		}

		t.textarea.Reset()
		t.appendMessage(t.styles.user.Render("Вы: ")+input, true)
		t.setProcessing(true)

		if handler != nil {
			// Handler блокирующий (agent.Run) — уводим в горутину,
			// ответ приедет событиями
			go handler(input)
		}
	}

	return t, nil
}

// View реализует tea.Model.
func (t *ChatTui) View() string {
	return fmt.Sprintf("%s\n%s\n%s",
		t.renderStatusBar(),
		t.viewport.View(),
		t.textarea.View(),
	)
}

// renderStatusBar рендерит статус-бар.
func (t *ChatTui) renderStatusBar() string {
	status := t.config.Title
	if t.config.ModelName != "" {
		status += " | Model: " + t.config.ModelName
	}
	t.mu.RLock()
	if t.isProcessing {
		status += " | ..."
	}
	t.mu.RUnlock()
	return t.styles.status.Render(status)
}

// appendMessage добавляет строку в лог с переносом по ширине viewport.
func (t *ChatTui) appendMessage(msg string, showTimestamp bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	line := msg
	if showTimestamp && t.config.ShowTimestamp {
		line = fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), msg)
	}
	if t.viewport.Width > 0 {
		line = wordwrap.String(line, t.viewport.Width)
	}

	t.messages = append(t.messages, line)
	if t.config.MaxMessages > 0 && len(t.messages) > t.config.MaxMessages {
		t.messages = t.messages[len(t.messages)-t.config.MaxMessages:]
	}

	// Автопрокрутку держим только если пользователь уже внизу
	atBottom := t.viewport.AtBottom()
	t.viewport.SetContent(strings.Join(t.messages, "\n"))
	if atBottom {
		t.viewport.GotoBottom()
	}
}

// setProcessing переключает флаг занятости агента.
func (t *ChatTui) setProcessing(busy bool) {
	t.mu.Lock()
	t.isProcessing = busy
	t.mu.Unlock()
	if !busy {
		t.textarea.Focus()
	}
}
