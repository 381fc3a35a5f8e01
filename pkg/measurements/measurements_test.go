package measurements

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/roy-ai/pkg/llm"
)

func TestTokenCountEstimator(t *testing.T) {
	e, err := NewTokenCountEstimator("")
	require.NoError(t, err)

	assert.Equal(t, 0, e.Count(""))
	assert.Greater(t, e.Count("hello world"), 0)

	// Длинный текст даёт больше токенов
	short := e.Count("hello")
	long := e.Count("hello hello hello hello hello")
	assert.Greater(t, long, short)
}

func TestTokenCountEstimatorUnknownEncoding(t *testing.T) {
	_, err := NewTokenCountEstimator("no-such-encoding")
	assert.Error(t, err)
}

func TestCountMessages(t *testing.T) {
	e, err := NewTokenCountEstimator(DefaultEncoding)
	require.NoError(t, err)

	messages := []llm.Message{
		llm.NewSystemMessage("ты — ассистент"),
		llm.NewUserMessage("привет"),
	}

	total := e.CountMessages(messages)
	contentOnly := e.Count("ты — ассистент") + e.Count("привет")

	// Накладные расходы формата учтены для каждого сообщения
	assert.Equal(t, contentOnly+2*perMessageOverhead, total)
}

func TestCountMessagesToolCalls(t *testing.T) {
	e, err := NewTokenCountEstimator(DefaultEncoding)
	require.NoError(t, err)

	withCall := []llm.Message{{
		Role:      llm.RoleAssistant,
		ToolCalls: []llm.ToolCall{{ID: "call_1", Name: "search", Args: `{"q":"test"}`}},
	}}
	plain := []llm.Message{{Role: llm.RoleAssistant}}

	assert.Greater(t, e.CountMessages(withCall), e.CountMessages(plain))
}

func TestMutualInformationIndependent(t *testing.T) {
	// Все комбинации равновероятны — признаки независимы
	xs := []string{"a", "a", "b", "b"}
	ys := []string{"0", "1", "0", "1"}

	mi, err := MutualInformation(xs, ys)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, mi, 1e-9)
}

func TestMutualInformationPerfectDependence(t *testing.T) {
	// y однозначно определяется x: MI = H(X) = 1 бит
	xs := []string{"a", "b", "a", "b"}
	ys := []string{"0", "1", "0", "1"}

	mi, err := MutualInformation(xs, ys)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, mi, 1e-9)
}

func TestMutualInformationErrors(t *testing.T) {
	_, err := MutualInformation([]string{"a"}, []string{"0", "1"})
	assert.Error(t, err, "разная длина")

	_, err = MutualInformation(nil, nil)
	assert.Error(t, err, "пустые наблюдения")
}

func TestEntropy(t *testing.T) {
	h, err := Entropy([]string{"a", "a", "a"})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, h, 1e-9, "константа не несёт информации")

	h, err = Entropy([]string{"a", "b", "c", "d"})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, h, 1e-9, "равномерное распределение из 4 значений")

	_, err = Entropy(nil)
	assert.Error(t, err)
}

func TestMeanAndStdDev(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.InDelta(t, 2.0, Mean([]float64{1, 2, 3}), 1e-9)

	assert.Equal(t, 0.0, StdDev([]float64{5}))
	assert.InDelta(t, math.Sqrt(2.0/3.0), StdDev([]float64{1, 2, 3}), 1e-9)
}

func TestDistinctRatio(t *testing.T) {
	assert.Equal(t, 0.0, DistinctRatio(nil))
	assert.InDelta(t, 1.0, DistinctRatio([]string{"a", "b", "c"}), 1e-9)
	assert.InDelta(t, 1.0/3.0, DistinctRatio([]string{"x", "x", "x"}), 1e-9)
	assert.InDelta(t, 0.5, DistinctRatio([]string{"a", "a", "b", "b"}), 1e-9)
}
