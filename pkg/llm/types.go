// Базовые типы — универсальный язык общения с моделями.
package llm

// Role — роль участника диалога.
type Role string

// Константы ролей (совпадают с wire-форматом OpenAI-совместимых API).
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message — одно сообщение диалога.
//
// Универсальный формат для всех провайдеров. Адаптеры (pkg/llm/openai,
// pkg/llm/mistral) конвертируют Message в свой wire-формат и обратно.
type Message struct {
	Role    Role
	Content string

	// Images — список картинок для Vision запросов.
	// Каждый элемент: base64 data-uri или http ссылка.
	Images []string

	// ToolCalls — вызовы инструментов, которые запросила модель.
	// Заполняется только в ответах ассистента.
	ToolCalls []ToolCall

	// ToolCallID — ID вызова, на который отвечает это сообщение.
	// Заполняется только для Role == RoleTool.
	ToolCallID string

	// Name — имя инструмента для tool-сообщений.
	Name string
}

// ToolCall — запрос модели на вызов инструмента.
type ToolCall struct {
	ID   string
	Name string
	Args string // Сырой JSON с аргументами
}

// HasToolCalls сообщает, запросила ли модель вызов инструментов.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// NewSystemMessage создаёт системное сообщение.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage создаёт сообщение пользователя.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage создаёт сообщение ассистента.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// NewToolMessage создаёт ответ инструмента на конкретный tool call.
func NewToolMessage(callID, name, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID, Name: name}
}
