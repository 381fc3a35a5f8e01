// Package chain предоставляет Chain Pattern для AI агента.
//
// Этот файл реализует f-string-подобную подстановку значений Context
// в декларативные шаблоны (аргументы шагов, промпты). Политика fail-soft:
// неразрешимый placeholder остаётся в тексте как есть, цепочка не падает.
package chain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ilkoid/roy-ai/pkg/utils"
)

// placeholderPattern находит все непересекающиеся вхождения {expression}.
// Expression — любая последовательность символов кроме '}'.
var placeholderPattern = regexp.MustCompile(`\{([^}]+)\}`)

// Diagnostic — одна неудача разрешения placeholder'а.
//
// Сам placeholder при этом сохранён в выходной строке дословно;
// диагностика накапливается на ChainContext для вызывающего кода.
type Diagnostic struct {
	// Expression — текст выражения внутри скобок (без '{' и '}').
	Expression string

	// Err — причина неудачи (ErrUnknownName, ErrExprParse и т.д.).
	Err error
}

// String возвращает человекочитаемое описание диагностики.
func (d Diagnostic) String() string {
	return fmt.Sprintf("failed to resolve expression: %s. Error: %v", d.Expression, d.Err)
}

// ResolveFString подставляет значения Context в шаблон.
//
// Для каждого вхождения {expression}:
//   - выражение вычисляется ограниченным вычислителем (см. expr.go)
//     против текущего Context;
//   - при успехе совпадение заменяется строковым представлением результата;
//   - при любой ошибке исходный текст {expression} остаётся без изменений,
//     пишется диагностика в лог и на ChainContext.
//
// Операция никогда не возвращает ошибку — только деградирует до
// неразрешённых placeholder'ов. Context читается в момент разрешения.
func (c *ChainContext) ResolveFString(template string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		expression := match[1 : len(match)-1]

		value, err := EvalExpr(expression, c.lookup)
		if err != nil {
			diag := Diagnostic{Expression: expression, Err: err}
			utils.Warn("failed to resolve expression", "expression", expression, "error", err)
			c.addDiagnostic(diag)
			return match
		}

		return Stringify(value)
	})
}

// ResolvePlaceholders рекурсивно применяет ResolveFString к значению:
//
//   - строка — разрешается как шаблон;
//   - map[string]any — новая map, значения разрешены рекурсивно, ключи без изменений;
//   - []any — новый slice, элементы разрешены рекурсивно, порядок сохранён;
//   - любой другой тип — возвращается как есть.
//
// Циклы не детектируются: глубина рекурсии равна глубине вложенности,
// вызывающий код отвечает за ацикличность структур.
func (c *ChainContext) ResolvePlaceholders(value any) any {
	switch v := value.(type) {
	case string:
		return c.ResolveFString(v)
	case map[string]any:
		resolved := make(map[string]any, len(v))
		for k, item := range v {
			resolved[k] = c.ResolvePlaceholders(item)
		}
		return resolved
	case []any:
		resolved := make([]any, len(v))
		for i, item := range v {
			resolved[i] = c.ResolvePlaceholders(item)
		}
		return resolved
	default:
		return value
	}
}

// ResolveRef снимает сигил '$' с строкового значения.
//
// "$name" превращается в "name" — только маркер, без поиска в Context.
// Любое другое значение возвращается без изменений. Дальнейшее
// разыменование — ответственность вызывающего кода.
func ResolveRef(value any) any {
	if s, ok := value.(string); ok && strings.HasPrefix(s, "$") {
		return s[1:]
	}
	return value
}

// ResolveRef — метод-обёртка для удобства вызова на контексте.
func (c *ChainContext) ResolveRef(value any) any {
	return ResolveRef(value)
}
