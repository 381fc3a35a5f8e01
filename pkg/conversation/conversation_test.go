package conversation

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/roy-ai/pkg/llm"
)

func TestConversationSystemPromptPinned(t *testing.T) {
	c := NewWithSystem("ты — ассистент")
	c.AddUserMessage("привет")
	c.AddAssistantMessage("здравствуйте")

	msgs := c.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
	assert.Equal(t, "ты — ассистент", msgs[0].Content)
	assert.Equal(t, llm.RoleUser, msgs[1].Role)

	// История не включает системный промпт
	assert.Len(t, c.History(), 2)
	assert.Equal(t, 2, c.Len())
}

func TestConversationLast(t *testing.T) {
	c := New()

	_, ok := c.Last()
	assert.False(t, ok, "Last() on empty conversation")

	c.AddUserMessage("первое")
	c.AddAssistantMessage("второе")

	last, ok := c.Last()
	require.True(t, ok)
	assert.Equal(t, "второе", last.Content)
}

func TestConversationWindowTrim(t *testing.T) {
	c := NewWithSystem("system")
	c.SetMaxWindow(3)

	for i := 1; i <= 5; i++ {
		c.AddUserMessage(fmt.Sprintf("msg-%d", i))
	}

	history := c.History()
	require.Len(t, history, 3)
	assert.Equal(t, "msg-3", history[0].Content)
	assert.Equal(t, "msg-5", history[2].Content)

	// Системный промпт пережил обрезку
	msgs := c.Messages()
	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
}

func TestConversationTrimDropsOrphanToolMessages(t *testing.T) {
	c := New()
	c.AddUserMessage("запрос")
	c.AddMessage(llm.Message{
		Role:      llm.RoleAssistant,
		ToolCalls: []llm.ToolCall{{ID: "call_1", Name: "search", Args: "{}"}},
	})
	c.AddMessage(llm.NewToolMessage("call_1", "search", "результат"))
	c.AddAssistantMessage("итог")

	// Окно в 2 сообщения оставило бы [tool, assistant] —
	// висячий tool-ответ должен быть отброшен
	c.SetMaxWindow(2)

	history := c.History()
	require.Len(t, history, 1)
	assert.Equal(t, llm.RoleAssistant, history[0].Role)
	assert.Equal(t, "итог", history[0].Content)
}

func TestConversationMessagesReturnsCopy(t *testing.T) {
	c := New()
	c.AddUserMessage("оригинал")

	msgs := c.Messages()
	msgs[0].Content = "испорчено"

	fresh := c.Messages()
	assert.Equal(t, "оригинал", fresh[0].Content)
}

func TestConversationClearKeepsSystemPrompt(t *testing.T) {
	c := NewWithSystem("system")
	c.AddUserMessage("что-то")
	c.Clear()

	assert.Equal(t, 0, c.Len())
	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
}

func TestConversationConcurrentAccess(t *testing.T) {
	c := New()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			c.AddUserMessage(fmt.Sprintf("msg-%d", n))
		}(i)
		go func() {
			defer wg.Done()
			_ = c.Messages()
			_, _ = c.Last()
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, c.Len())
}

func TestAddUserMessageWithImage(t *testing.T) {
	// Генерируем валидный JPEG 100x50
	img := image.NewRGBA(image.Rect(0, 0, 100, 50))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))

	c := New()
	err := c.AddUserMessageWithImage("что на картинке?", buf.Bytes(), 50, 80)
	require.NoError(t, err)

	last, ok := c.Last()
	require.True(t, ok)
	assert.Equal(t, "что на картинке?", last.Content)
	require.Len(t, last.Images, 1)
	assert.True(t, strings.HasPrefix(last.Images[0], "data:image/jpeg;base64,"))
}

func TestAddUserMessageWithImageInvalidData(t *testing.T) {
	c := New()
	err := c.AddUserMessageWithImage("битая картинка", []byte("not an image"), 0, 0)
	assert.Error(t, err)
	assert.Equal(t, 0, c.Len(), "битая картинка не попадает в историю")
}
