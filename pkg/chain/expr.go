// Package chain предоставляет Chain Pattern для AI агента.
//
// Этот файл реализует ограниченный вычислитель выражений для шаблонов.
// Вычислитель умеет только читать данные из Context: никаких вызовов
// функций, доступа к процессу или состоянию за пределами переданного
// окружения. Это сознательная замена общего eval — шаблоны приходят
// из конфигурации и не могут считаться доверенным кодом.
//
// Грамматика:
//
//	expr    = sum
//	sum     = product (('+' | '-') product)*
//	product = unary (('*' | '/' | '%') unary)*
//	unary   = '-' unary | postfix
//	postfix = primary ('.' ident | '[' expr ']')*
//	primary = ident | number | string | '(' expr ')'
//
// '+' складывает числа или конкатенирует две строки.
// Идентификаторы: ASCII буквы, цифры, '_'. Строки: '...' или "...".
package chain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Ошибки вычисления выражений.
//
// Все ошибки оборачиваются с контекстом через fmt.Errorf("%w", ...),
// проверка — через errors.Is.
var (
	// ErrExprParse — синтаксическая ошибка в выражении.
	ErrExprParse = errors.New("expression parse error")

	// ErrUnknownName — имя или атрибут не найдены в окружении.
	ErrUnknownName = errors.New("unknown name")

	// ErrExprType — операция неприменима к типам операндов.
	ErrExprType = errors.New("type mismatch")

	// ErrExprIndex — индекс вне границ или неверного типа.
	ErrExprIndex = errors.New("index error")

	// ErrDivisionByZero — деление или остаток на ноль.
	ErrDivisionByZero = errors.New("division by zero")
)

// lookupFunc читает имя из окружения (Context) на момент вычисления.
type lookupFunc func(name string) (any, bool)

// EvalExpr парсит и вычисляет выражение против окружения.
//
// Окружение read-only: вычислитель никогда не модифицирует Context.
func EvalExpr(expression string, lookup lookupFunc) (any, error) {
	node, err := parseExpr(expression)
	if err != nil {
		return nil, err
	}
	return node.eval(lookup)
}

// Лексер

type tokKind int

const (
	tokEOF tokKind = iota
	tokIdent
	tokNumber
	tokString
	tokOp // + - * / %
	tokDot
	tokLBracket
	tokRBracket
	tokLParen
	tokRParen
)

type token struct {
	kind tokKind
	text string
	pos  int
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func tokenize(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '+' || c == '-' || c == '*' || c == '/' || c == '%':
			toks = append(toks, token{tokOp, string(c), i})
			i++
		case c == '.':
			toks = append(toks, token{tokDot, ".", i})
			i++
		case c == '[':
			toks = append(toks, token{tokLBracket, "[", i})
			i++
		case c == ']':
			toks = append(toks, token{tokRBracket, "]", i})
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i++
		case c == '\'' || c == '"':
			quote := c
			j := i + 1
			var sb strings.Builder
			for j < len(src) && src[j] != quote {
				if src[j] == '\\' && j+1 < len(src) {
					j++
				}
				sb.WriteByte(src[j])
				j++
			}
			if j >= len(src) {
				return nil, fmt.Errorf("%w: unterminated string at %d", ErrExprParse, i)
			}
			toks = append(toks, token{tokString, sb.String(), i})
			i = j + 1
		case c >= '0' && c <= '9':
			j := i
			for j < len(src) && ((src[j] >= '0' && src[j] <= '9') || src[j] == '.') {
				j++
			}
			toks = append(toks, token{tokNumber, src[i:j], i})
			i = j
		case isIdentStart(c):
			j := i
			for j < len(src) && isIdentPart(src[j]) {
				j++
			}
			toks = append(toks, token{tokIdent, src[i:j], i})
			i = j
		default:
			return nil, fmt.Errorf("%w: unexpected character %q at %d", ErrExprParse, string(c), i)
		}
	}
	toks = append(toks, token{tokEOF, "", len(src)})
	return toks, nil
}

// Парсер (рекурсивный спуск)

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	p.pos++
	return t
}

func parseExpr(src string) (exprNode, error) {
	if strings.TrimSpace(src) == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrExprParse)
	}

	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}

	p := &parser{toks: toks}
	node, err := p.parseSum()
	if err != nil {
		return nil, err
	}

	if tok := p.peek(); tok.kind != tokEOF {
		return nil, fmt.Errorf("%w: unexpected token %q at %d", ErrExprParse, tok.text, tok.pos)
	}
	return node, nil
}

func (p *parser) parseSum() (exprNode, error) {
	left, err := p.parseProduct()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		if tok.kind != tokOp || (tok.text != "+" && tok.text != "-") {
			return left, nil
		}
		p.next()

		right, err := p.parseProduct()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: tok.text, left: left, right: right}
	}
}

func (p *parser) parseProduct() (exprNode, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		if tok.kind != tokOp || (tok.text != "*" && tok.text != "/" && tok.text != "%") {
			return left, nil
		}
		p.next()

		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: tok.text, left: left, right: right}
	}
}

func (p *parser) parseUnary() (exprNode, error) {
	if tok := p.peek(); tok.kind == tokOp && tok.text == "-" {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unaryNode{operand: operand}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (exprNode, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch tok := p.peek(); tok.kind {
		case tokDot:
			p.next()
			name := p.next()
			if name.kind != tokIdent {
				return nil, fmt.Errorf("%w: expected attribute name at %d", ErrExprParse, name.pos)
			}
			node = attrNode{recv: node, name: name.text}
		case tokLBracket:
			p.next()
			idx, err := p.parseSum()
			if err != nil {
				return nil, err
			}
			if closing := p.next(); closing.kind != tokRBracket {
				return nil, fmt.Errorf("%w: expected ']' at %d", ErrExprParse, closing.pos)
			}
			node = indexNode{recv: node, index: idx}
		default:
			return node, nil
		}
	}
}

func (p *parser) parsePrimary() (exprNode, error) {
	tok := p.next()
	switch tok.kind {
	case tokIdent:
		return identNode{name: tok.text}, nil
	case tokNumber:
		if strings.Contains(tok.text, ".") {
			f, err := strconv.ParseFloat(tok.text, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: bad number %q at %d", ErrExprParse, tok.text, tok.pos)
			}
			return literalNode{value: f}, nil
		}
		n, err := strconv.ParseInt(tok.text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad number %q at %d", ErrExprParse, tok.text, tok.pos)
		}
		return literalNode{value: n}, nil
	case tokString:
		return literalNode{value: tok.text}, nil
	case tokLParen:
		node, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, fmt.Errorf("%w: expected ')' at %d", ErrExprParse, closing.pos)
		}
		return node, nil
	default:
		return nil, fmt.Errorf("%w: unexpected token %q at %d", ErrExprParse, tok.text, tok.pos)
	}
}

// AST и вычисление

type exprNode interface {
	eval(lookup lookupFunc) (any, error)
}

type identNode struct {
	name string
}

func (n identNode) eval(lookup lookupFunc) (any, error) {
	v, ok := lookup(n.name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownName, n.name)
	}
	return v, nil
}

type literalNode struct {
	value any
}

func (n literalNode) eval(lookup lookupFunc) (any, error) {
	return n.value, nil
}

type attrNode struct {
	recv exprNode
	name string
}

func (n attrNode) eval(lookup lookupFunc) (any, error) {
	recv, err := n.recv.eval(lookup)
	if err != nil {
		return nil, err
	}

	switch m := recv.(type) {
	case map[string]any:
		v, ok := m[n.name]
		if !ok {
			return nil, fmt.Errorf("%w: attribute %s", ErrUnknownName, n.name)
		}
		return v, nil
	case map[string]string:
		v, ok := m[n.name]
		if !ok {
			return nil, fmt.Errorf("%w: attribute %s", ErrUnknownName, n.name)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%w: %T has no attributes", ErrExprType, recv)
	}
}

type indexNode struct {
	recv  exprNode
	index exprNode
}

func (n indexNode) eval(lookup lookupFunc) (any, error) {
	recv, err := n.recv.eval(lookup)
	if err != nil {
		return nil, err
	}
	idx, err := n.index.eval(lookup)
	if err != nil {
		return nil, err
	}

	switch coll := recv.(type) {
	case map[string]any:
		key, ok := idx.(string)
		if !ok {
			return nil, fmt.Errorf("%w: map key must be a string, got %T", ErrExprIndex, idx)
		}
		v, ok := coll[key]
		if !ok {
			return nil, fmt.Errorf("%w: key %q", ErrUnknownName, key)
		}
		return v, nil
	case map[string]string:
		key, ok := idx.(string)
		if !ok {
			return nil, fmt.Errorf("%w: map key must be a string, got %T", ErrExprIndex, idx)
		}
		v, ok := coll[key]
		if !ok {
			return nil, fmt.Errorf("%w: key %q", ErrUnknownName, key)
		}
		return v, nil
	case []any:
		i, ok := toInt(idx)
		if !ok {
			return nil, fmt.Errorf("%w: list index must be an integer, got %T", ErrExprIndex, idx)
		}
		if i < 0 || i >= len(coll) {
			return nil, fmt.Errorf("%w: index %d out of range (len %d)", ErrExprIndex, i, len(coll))
		}
		return coll[i], nil
	case []string:
		i, ok := toInt(idx)
		if !ok {
			return nil, fmt.Errorf("%w: list index must be an integer, got %T", ErrExprIndex, idx)
		}
		if i < 0 || i >= len(coll) {
			return nil, fmt.Errorf("%w: index %d out of range (len %d)", ErrExprIndex, i, len(coll))
		}
		return coll[i], nil
	default:
		return nil, fmt.Errorf("%w: %T is not indexable", ErrExprType, recv)
	}
}

type unaryNode struct {
	operand exprNode
}

func (n unaryNode) eval(lookup lookupFunc) (any, error) {
	v, err := n.operand.eval(lookup)
	if err != nil {
		return nil, err
	}
	f, ok := toFloat(v)
	if !ok {
		return nil, fmt.Errorf("%w: cannot negate %T", ErrExprType, v)
	}
	return -f, nil
}

type binaryNode struct {
	op    string
	left  exprNode
	right exprNode
}

func (n binaryNode) eval(lookup lookupFunc) (any, error) {
	l, err := n.left.eval(lookup)
	if err != nil {
		return nil, err
	}
	r, err := n.right.eval(lookup)
	if err != nil {
		return nil, err
	}

	// '+' для двух строк — конкатенация
	if n.op == "+" {
		ls, lok := l.(string)
		rs, rok := r.(string)
		if lok || rok {
			if lok && rok {
				return ls + rs, nil
			}
			return nil, fmt.Errorf("%w: cannot add %T and %T", ErrExprType, l, r)
		}
	}

	lf, ok := toFloat(l)
	if !ok {
		return nil, fmt.Errorf("%w: %q needs numbers, got %T", ErrExprType, n.op, l)
	}
	rf, ok := toFloat(r)
	if !ok {
		return nil, fmt.Errorf("%w: %q needs numbers, got %T", ErrExprType, n.op, r)
	}

	switch n.op {
	case "+":
		return lf + rf, nil
	case "-":
		return lf - rf, nil
	case "*":
		return lf * rf, nil
	case "/":
		if rf == 0 {
			return nil, ErrDivisionByZero
		}
		return lf / rf, nil
	case "%":
		if rf == 0 {
			return nil, ErrDivisionByZero
		}
		return math.Mod(lf, rf), nil
	default:
		return nil, fmt.Errorf("%w: unknown operator %q", ErrExprParse, n.op)
	}
}

// Конвертация числовых значений

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}

func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		if x == math.Trunc(x) {
			return int(x), true
		}
		return 0, false
	default:
		f, ok := toFloat(v)
		if !ok || f != math.Trunc(f) {
			return 0, false
		}
		return int(f), true
	}
}

// Stringify возвращает строковое представление значения для подстановки
// в шаблон. Числа с плавающей точкой без дробной части печатаются как
// целые ("15", не "15.000000").
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return "<nil>"
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}
