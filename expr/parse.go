package expr

import (
	"fmt"

	"github.com/mxkacsa/jsonla/jsonlaerr"
)

// parser is a hand-written recursive-descent parser for the filter
// expression grammar: a classic operator-precedence expression
// language, not a JSON rule format.
type parser struct {
	lex  *lexer
	cur  token
	src  string
	done bool
}

func newParser(src string) (*parser, error) {
	p := &parser{lex: newLexer(src), src: src}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

func (p *parser) errf(format string, args ...any) error {
	return jsonlaerr.New(jsonlaerr.ExpressionError, format, args...).AtColumn(p.cur.pos)
}

// parseExpr parses the full grammar and requires EOF afterward.
func parseExpr(src string) (node, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, jsonlaerr.Wrap(jsonlaerr.ExpressionError, err, "lex error")
	}
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokEOF {
		return nil, p.errf("unexpected trailing input %q", p.cur.text)
	}
	return n, nil
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tokIdent && p.cur.text == "or" {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: "or", left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tokIdent && p.cur.text == "and" {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: "and", left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (node, error) {
	if p.cur.kind == tokIdent && p.cur.text == "not" {
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return unaryNode{op: "not", expr: inner}, nil
	}
	return p.parseCmp()
}

var cmpOps = map[string]bool{"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}

func (p *parser) parseCmp() (node, error) {
	left, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	if p.cur.kind == tokOp && cmpOps[p.cur.text] {
		op := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAdd()
		if err != nil {
			return nil, err
		}
		return binaryNode{op: op, left: left, right: right}, nil
	}
	return left, nil
}

func (p *parser) parseAdd() (node, error) {
	left, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tokOp && (p.cur.text == "+" || p.cur.text == "-") {
		op := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseMul()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseMul() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tokOp && (p.cur.text == "*" || p.cur.text == "/" || p.cur.text == "%") {
		op := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (node, error) {
	if p.cur.kind == tokOp && p.cur.text == "-" {
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unaryNode{op: "-", expr: inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	switch p.cur.kind {
	case tokNumber:
		lit := literal{kind: litNumber, n: p.cur.num, isI: p.cur.isI, i: p.cur.i}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return litNode{val: lit}, nil
	case tokString:
		s := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return litNode{val: literal{kind: litString, s: s}}, nil
	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.cur.kind != tokRParen {
			return nil, p.errf("expected ')'")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return inner, nil
	case tokIdent:
		return p.parseIdentLike()
	default:
		return nil, p.errf("unexpected token %q", p.cur.text)
	}
}

func (p *parser) parseIdentLike() (node, error) {
	name := p.cur.text
	switch name {
	case "true":
		if err := p.advance(); err != nil {
			return nil, err
		}
		return litNode{val: literal{kind: litBool, b: true}}, nil
	case "false":
		if err := p.advance(); err != nil {
			return nil, err
		}
		return litNode{val: literal{kind: litBool, b: false}}, nil
	case "null":
		if err := p.advance(); err != nil {
			return nil, err
		}
		return litNode{val: literal{kind: litNull}}, nil
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.cur.kind == tokLParen {
		return p.parseCall(name)
	}
	return pathNode{raw: name, tokens: splitPath(name)}, nil
}

func (p *parser) parseCall(name string) (node, error) {
	if err := p.advance(); err != nil { // consume '('
		return nil, err
	}
	var args []node
	if p.cur.kind != tokRParen {
		for {
			arg, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.cur.kind == tokComma {
				if err := p.advance(); err != nil {
					return nil, err
				}
				continue
			}
			break
		}
	}
	if p.cur.kind != tokRParen {
		return nil, p.errf("expected ')' after arguments to %s", name)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return callNode{name: name, args: args}, nil
}

func splitPath(s string) []string {
	tokens := []string{}
	start := 0
	for i, r := range s {
		if r == '.' {
			tokens = append(tokens, s[start:i])
			start = i + 1
		}
	}
	tokens = append(tokens, s[start:])
	return tokens
}

// Diagnostic renders a caret-position parse error for expr parse
// failures.
func Diagnostic(src string, err error) string {
	var col int
	if e, ok := err.(*jsonlaerr.Error); ok {
		col = e.Column
	}
	if col <= 0 {
		return fmt.Sprintf("%s\n%v", src, err)
	}
	caret := make([]byte, col)
	for i := range caret {
		caret[i] = ' '
	}
	if col > 0 {
		caret[col-1] = '^'
	}
	return fmt.Sprintf("%s\n%s\n%v", src, caret, err)
}
