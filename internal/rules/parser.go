// Package rules compiles business-rule predicate expressions and evaluates
// them against in-memory dataset rows. Expressions use a small SQL-flavored
// grammar: comparisons, AND/OR/NOT, IS NULL, IN, BETWEEN, LIKE, CONTAINS,
// STARTS WITH, ENDS WITH. Example:
//
//	end_date >= start_date AND status IN ('active', 'pending')
package rules

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Rule is a compiled predicate ready for repeated evaluation.
type Rule struct {
	Expression string
	root       node
}

// Compile parses an expression into a reusable Rule.
func Compile(expression string) (*Rule, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, fmt.Errorf("empty rule expression")
	}

	tokens, err := tokenize(expression)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}

	p := &parser{tokens: tokens}
	root, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		return nil, fmt.Errorf("unexpected token %q at position %d", p.tokens[p.pos].value, p.tokens[p.pos].pos)
	}

	return &Rule{Expression: expression, root: root}, nil
}

// ---------------------------------------------------------------------------
// Token types
// ---------------------------------------------------------------------------

type tokenType int

const (
	tokIdentifier tokenType = iota
	tokNumber
	tokString
	tokOperator // =, !=, <>, >, >=, <, <=
	tokLParen
	tokRParen
	tokComma
	// Keywords (identifiers promoted to keywords during tokenization).
	tokAND
	tokOR
	tokNOT
	tokIN
	tokLIKE
	tokIS
	tokNULL
	tokBETWEEN
	tokCONTAINS
	tokSTARTS
	tokENDS
	tokWITH
	tokTRUE
	tokFALSE
)

type token struct {
	typ   tokenType
	value string // Original text (keywords uppercased).
	pos   int    // Byte offset in the input for error messages.
}

// keywords maps uppercased words to keyword token types.
var keywords = map[string]tokenType{
	"AND":      tokAND,
	"OR":       tokOR,
	"NOT":      tokNOT,
	"IN":       tokIN,
	"LIKE":     tokLIKE,
	"IS":       tokIS,
	"NULL":     tokNULL,
	"BETWEEN":  tokBETWEEN,
	"CONTAINS": tokCONTAINS,
	"STARTS":   tokSTARTS,
	"ENDS":     tokENDS,
	"WITH":     tokWITH,
	"TRUE":     tokTRUE,
	"FALSE":    tokFALSE,
}

// ---------------------------------------------------------------------------
// Tokenizer
// ---------------------------------------------------------------------------

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0
	n := len(input)

	for i < n {
		if unicode.IsSpace(rune(input[i])) {
			i++
			continue
		}

		ch := input[i]

		switch ch {
		case '(':
			tokens = append(tokens, token{typ: tokLParen, value: "(", pos: i})
			i++
			continue
		case ')':
			tokens = append(tokens, token{typ: tokRParen, value: ")", pos: i})
			i++
			continue
		case ',':
			tokens = append(tokens, token{typ: tokComma, value: ",", pos: i})
			i++
			continue
		}

		// Two-character operators.
		if i+1 < n {
			two := input[i : i+2]
			switch two {
			case "!=", "<>", ">=", "<=":
				tokens = append(tokens, token{typ: tokOperator, value: two, pos: i})
				i += 2
				continue
			}
		}

		// Single-character operators.
		switch ch {
		case '=', '>', '<':
			tokens = append(tokens, token{typ: tokOperator, value: string(ch), pos: i})
			i++
			continue
		}

		// Single-quoted string literal with '' escaping.
		if ch == '\'' {
			start := i
			i++ // skip opening quote
			var sb strings.Builder
			closed := false
			for i < n {
				if input[i] == '\'' {
					if i+1 < n && input[i+1] == '\'' {
						sb.WriteByte('\'')
						i += 2
						continue
					}
					i++ // skip closing quote
					closed = true
					break
				}
				sb.WriteByte(input[i])
				i++
			}
			if !closed {
				return nil, fmt.Errorf("unterminated string literal starting at position %d", start)
			}
			tokens = append(tokens, token{typ: tokString, value: sb.String(), pos: start})
			continue
		}

		// Number: optional leading minus, digits, optional decimal part.
		if (ch >= '0' && ch <= '9') || (ch == '-' && i+1 < n && input[i+1] >= '0' && input[i+1] <= '9') {
			start := i
			if ch == '-' {
				i++
			}
			for i < n && input[i] >= '0' && input[i] <= '9' {
				i++
			}
			if i < n && input[i] == '.' {
				i++
				if i >= n || input[i] < '0' || input[i] > '9' {
					return nil, fmt.Errorf("invalid number at position %d: trailing decimal point", start)
				}
				for i < n && input[i] >= '0' && input[i] <= '9' {
					i++
				}
			}
			tokens = append(tokens, token{typ: tokNumber, value: input[start:i], pos: start})
			continue
		}

		// Identifier or keyword.
		if ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') {
			start := i
			for i < n && (input[i] == '_' || (input[i] >= 'a' && input[i] <= 'z') || (input[i] >= 'A' && input[i] <= 'Z') || (input[i] >= '0' && input[i] <= '9')) {
				i++
			}
			word := input[start:i]
			upper := strings.ToUpper(word)

			if kt, ok := keywords[upper]; ok {
				tokens = append(tokens, token{typ: kt, value: upper, pos: start})
			} else {
				tokens = append(tokens, token{typ: tokIdentifier, value: word, pos: start})
			}
			continue
		}

		return nil, fmt.Errorf("unexpected character %q at position %d", string(ch), i)
	}

	return tokens, nil
}

// ---------------------------------------------------------------------------
// Parser (recursive descent)
// ---------------------------------------------------------------------------

type parser struct {
	tokens []token
	pos    int
}

// peek returns the current token without advancing, or nil at EOF.
func (p *parser) peek() *token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	return &p.tokens[p.pos]
}

// advance moves to the next token and returns the consumed token.
func (p *parser) advance() *token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	t := &p.tokens[p.pos]
	p.pos++
	return t
}

// expect consumes the next token, requiring it to match the given type.
func (p *parser) expect(typ tokenType) (*token, error) {
	t := p.advance()
	if t == nil {
		return nil, fmt.Errorf("unexpected end of expression")
	}
	if t.typ != typ {
		return nil, fmt.Errorf("unexpected token %q at position %d", t.value, t.pos)
	}
	return t, nil
}

// parseExpression handles OR, the lowest-precedence operator.
func (p *parser) parseExpression() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t == nil || t.typ != tokOR {
			return left, nil
		}
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: "OR", left: left, right: right}
	}
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t == nil || t.typ != tokAND {
			return left, nil
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: "AND", left: left, right: right}
	}
}

func (p *parser) parseUnary() (node, error) {
	t := p.peek()
	if t != nil && t.typ == tokNOT {
		p.advance()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &notNode{inner: inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	t := p.peek()
	if t == nil {
		return nil, fmt.Errorf("unexpected end of expression")
	}
	if t.typ == tokLParen {
		p.advance()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return inner, nil
	}
	return p.parseComparison()
}

// parseComparison handles all the leaf predicates: field op value,
// IS [NOT] NULL, [NOT] IN, BETWEEN, LIKE, CONTAINS, STARTS/ENDS WITH.
func (p *parser) parseComparison() (node, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	t := p.peek()
	if t == nil {
		return nil, fmt.Errorf("expected operator after operand")
	}

	negated := false
	if t.typ == tokNOT {
		p.advance()
		negated = true
		t = p.peek()
		if t == nil {
			return nil, fmt.Errorf("expected IN or LIKE after NOT")
		}
	}

	switch t.typ {
	case tokOperator:
		if negated {
			return nil, fmt.Errorf("NOT cannot precede %q at position %d", t.value, t.pos)
		}
		p.advance()
		right, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		return &compareNode{op: t.value, left: left, right: right}, nil

	case tokIS:
		if negated {
			return nil, fmt.Errorf("NOT cannot precede IS at position %d", t.pos)
		}
		p.advance()
		isNot := false
		if nt := p.peek(); nt != nil && nt.typ == tokNOT {
			p.advance()
			isNot = true
		}
		if _, err := p.expect(tokNULL); err != nil {
			return nil, err
		}
		return &nullNode{operand: left, wantNull: !isNot}, nil

	case tokIN:
		p.advance()
		if _, err := p.expect(tokLParen); err != nil {
			return nil, err
		}
		var values []any
		for {
			lit, err := p.parseLiteral()
			if err != nil {
				return nil, err
			}
			values = append(values, lit)
			nt := p.peek()
			if nt == nil {
				return nil, fmt.Errorf("unterminated IN list")
			}
			if nt.typ == tokComma {
				p.advance()
				continue
			}
			if nt.typ == tokRParen {
				p.advance()
				break
			}
			return nil, fmt.Errorf("unexpected token %q in IN list at position %d", nt.value, nt.pos)
		}
		return &inNode{operand: left, values: values, negated: negated}, nil

	case tokBETWEEN:
		if negated {
			return nil, fmt.Errorf("NOT BETWEEN is not supported")
		}
		p.advance()
		low, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokAND); err != nil {
			return nil, err
		}
		high, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		return &betweenNode{operand: left, low: low, high: high}, nil

	case tokLIKE:
		p.advance()
		pat, err := p.expect(tokString)
		if err != nil {
			return nil, err
		}
		return &likeNode{operand: left, pattern: pat.value, negated: negated}, nil

	case tokCONTAINS:
		p.advance()
		s, err := p.expect(tokString)
		if err != nil {
			return nil, err
		}
		return &substringNode{operand: left, needle: s.value, mode: matchContains, negated: negated}, nil

	case tokSTARTS:
		p.advance()
		if _, err := p.expect(tokWITH); err != nil {
			return nil, err
		}
		s, err := p.expect(tokString)
		if err != nil {
			return nil, err
		}
		return &substringNode{operand: left, needle: s.value, mode: matchPrefix, negated: negated}, nil

	case tokENDS:
		p.advance()
		if _, err := p.expect(tokWITH); err != nil {
			return nil, err
		}
		s, err := p.expect(tokString)
		if err != nil {
			return nil, err
		}
		return &substringNode{operand: left, needle: s.value, mode: matchSuffix, negated: negated}, nil
	}

	return nil, fmt.Errorf("unexpected token %q at position %d", t.value, t.pos)
}

// parseOperand parses a column reference or a literal.
func (p *parser) parseOperand() (operand, error) {
	t := p.peek()
	if t == nil {
		return nil, fmt.Errorf("unexpected end of expression")
	}
	if t.typ == tokIdentifier {
		p.advance()
		return fieldRef{name: t.value}, nil
	}
	v, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}
	return literal{val: v}, nil
}

// parseLiteral parses a string, number, or boolean literal into a Go value.
func (p *parser) parseLiteral() (any, error) {
	t := p.advance()
	if t == nil {
		return nil, fmt.Errorf("unexpected end of expression")
	}
	switch t.typ {
	case tokString:
		return t.value, nil
	case tokNumber:
		f, err := strconv.ParseFloat(t.value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q at position %d", t.value, t.pos)
		}
		return f, nil
	case tokTRUE:
		return true, nil
	case tokFALSE:
		return false, nil
	case tokNULL:
		return nil, nil
	}
	return nil, fmt.Errorf("expected literal, got %q at position %d", t.value, t.pos)
}
