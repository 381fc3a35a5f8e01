package prompts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/roy-ai/pkg/config"
	"github.com/ilkoid/roy-ai/pkg/s3storage"
)

const samplePrompt = `
system: "Ты — ассистент дизайнера."
template: "Опиши {item} в стиле {style}."
variables:
  style: "минимализм"
metadata:
  version: "1.0"
`

func writePrompt(t *testing.T, dir, id, content string) {
	t.Helper()
	path := filepath.Join(dir, id+".yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestFileSourceLoad(t *testing.T) {
	dir := t.TempDir()
	writePrompt(t, dir, "describe", samplePrompt)

	src := NewFileSource(dir)
	p, err := src.Load(context.Background(), "describe")
	require.NoError(t, err)

	assert.Equal(t, "Ты — ассистент дизайнера.", p.System)
	assert.Equal(t, "минимализм", p.Variables["style"])
	assert.Equal(t, "1.0", p.Metadata["version"])
}

func TestFileSourceMissing(t *testing.T) {
	src := NewFileSource(t.TempDir())
	_, err := src.Load(context.Background(), "ghost")
	assert.Error(t, err)
}

func TestFileSourceRejectsTraversal(t *testing.T) {
	src := NewFileSource(t.TempDir())

	for _, id := range []string{"", "../etc/passwd", "a/b", `a\b`} {
		_, err := src.Load(context.Background(), id)
		assert.Error(t, err, "id=%q", id)
	}
}

func TestFileSourceEmptyPrompt(t *testing.T) {
	dir := t.TempDir()
	writePrompt(t, dir, "empty", "metadata:\n  note: nothing\n")

	src := NewFileSource(dir)
	_, err := src.Load(context.Background(), "empty")
	assert.Error(t, err)
}

func TestPromptRender(t *testing.T) {
	p := &PromptFile{
		Template:  "Опиши {item} в стиле {style}.",
		Variables: map[string]string{"style": "минимализм"},
	}

	// Дефолт из Variables + override
	got := p.Render(map[string]any{"item": "платье"})
	assert.Equal(t, "Опиши платье в стиле минимализм.", got)

	// Override перекрывает дефолт
	got = p.Render(map[string]any{"item": "пальто", "style": "авангард"})
	assert.Equal(t, "Опиши пальто в стиле авангард.", got)

	// Fail-soft: неразрешённый плейсхолдер остаётся как есть
	got = p.Render(nil)
	assert.Equal(t, "Опиши {item} в стиле минимализм.", got)
}

// memStorage реализует s3storage.ClientInterface в памяти.
type memStorage struct {
	objects map[string][]byte
}

func newMemStorage(objects map[string][]byte) *memStorage {
	return &memStorage{objects: objects}
}

func (m *memStorage) ListFiles(ctx context.Context, prefix string) ([]s3storage.StoredObject, error) {
	var result []s3storage.StoredObject
	for key, data := range m.objects {
		if strings.HasPrefix(key, prefix) {
			result = append(result, s3storage.StoredObject{Key: key, Size: int64(len(data))})
		}
	}
	return result, nil
}

func (m *memStorage) DownloadFile(ctx context.Context, key string) ([]byte, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return data, nil
}

func (m *memStorage) UploadFile(ctx context.Context, key string, data []byte, contentType string) error {
	m.objects[key] = data
	return nil
}

func TestS3SourceLoad(t *testing.T) {
	storage := newMemStorage(map[string][]byte{
		"prompts/describe.yaml": []byte(samplePrompt),
	})

	src := NewS3Source(storage, "prompts/")
	p, err := src.Load(context.Background(), "describe")
	require.NoError(t, err)
	assert.Equal(t, "Ты — ассистент дизайнера.", p.System)

	_, err = src.Load(context.Background(), "ghost")
	assert.Error(t, err)
}

func TestChainFirstHitWins(t *testing.T) {
	dir := t.TempDir()
	writePrompt(t, dir, "local", "template: \"из файла\"\n")

	storage := newMemStorage(map[string][]byte{
		"local.yaml":  []byte("template: \"из s3\"\n"),
		"remote.yaml": []byte("template: \"только в s3\"\n"),
	})

	c := NewChain(NewFileSource(dir), NewS3Source(storage, ""))

	p, err := c.Load(context.Background(), "local")
	require.NoError(t, err)
	assert.Equal(t, "из файла", p.Template, "файловый источник приоритетнее")

	p, err = c.Load(context.Background(), "remote")
	require.NoError(t, err)
	assert.Equal(t, "только в s3", p.Template)

	_, err = c.Load(context.Background(), "nowhere")
	assert.Error(t, err)
}

func TestFromConfigFileOnly(t *testing.T) {
	dir := t.TempDir()
	writePrompt(t, dir, "describe", samplePrompt)

	cfg := &config.AppConfig{Prompts: config.PromptsConfig{Dir: dir}}
	src, err := FromConfig(cfg)
	require.NoError(t, err)
	assert.IsType(t, &FileSource{}, src, "без s3_prefix — чисто файловый источник")

	p, err := src.Load(context.Background(), "describe")
	require.NoError(t, err)
	assert.Equal(t, "Ты — ассистент дизайнера.", p.System)
}

func TestFromConfigWithS3(t *testing.T) {
	dir := t.TempDir()
	writePrompt(t, dir, "describe", samplePrompt)

	cfg := &config.AppConfig{
		Prompts: config.PromptsConfig{Dir: dir, S3Prefix: "prompts"},
		S3: config.S3Config{
			Endpoint:  "localhost:9000",
			Bucket:    "roy",
			AccessKey: "key",
			SecretKey: "secret",
		},
	}

	src, err := FromConfig(cfg)
	require.NoError(t, err)
	assert.IsType(t, &Chain{}, src, "с s3_prefix — цепочка файл+S3")

	// Файловый источник стоит первым: локальный промпт находится
	// без обращения к S3
	p, err := src.Load(context.Background(), "describe")
	require.NoError(t, err)
	assert.Equal(t, "Ты — ассистент дизайнера.", p.System)
}

func TestChainNoSources(t *testing.T) {
	c := NewChain()
	_, err := c.Load(context.Background(), "any")
	assert.Error(t, err)
}

func ExamplePromptFile_Render() {
	p := &PromptFile{
		Template:  "Привет, {name}!",
		Variables: map[string]string{"name": "мир"},
	}
	fmt.Println(p.Render(nil))
	// Output: Привет, мир!
}
