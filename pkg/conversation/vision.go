package conversation

import (
	"fmt"

	"github.com/ilkoid/roy-ai/pkg/llm"
	"github.com/ilkoid/roy-ai/pkg/utils"
)

// Дефолты обработки изображений для Vision запросов.
const (
	DefaultImageMaxWidth = 1024
	DefaultImageQuality  = 85
)

// AddUserMessageWithImage добавляет сообщение пользователя с картинкой.
//
// Картинка уменьшается до maxWidth и пережимается в JPEG перед
// кодированием в data-uri — большие оригиналы впустую жгут токены
// vision-моделей. При maxWidth/quality <= 0 применяются дефолты.
func (c *Conversation) AddUserMessageWithImage(content string, imageData []byte, maxWidth, quality int) error {
	if maxWidth <= 0 {
		maxWidth = DefaultImageMaxWidth
	}
	if quality <= 0 {
		quality = DefaultImageQuality
	}

	resized, err := utils.ResizeImage(imageData, maxWidth, quality)
	if err != nil {
		return fmt.Errorf("failed to prepare image: %w", err)
	}

	utils.Debug("Image prepared for vision request",
		"original_bytes", len(imageData),
		"resized_bytes", len(resized))

	c.AddMessage(llm.Message{
		Role:    llm.RoleUser,
		Content: content,
		Images:  []string{utils.ImageDataURL(resized)},
	})
	return nil
}
