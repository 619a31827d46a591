package sml

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nexosec/gosecs/pkg/ast"
	"github.com/nexosec/gosecs/pkg/secserr"
)

// Parse parses an SML source document. On any error the returned slice of
// errors is non-empty and doc is the partial result built so far.
func Parse(input string) (doc *Document, errs []error) {
	p := &parser{tokens: lex(input).tokens, doc: &Document{}}
	for p.peek().typ != tokEOF {
		if !p.parseStatement() {
			break
		}
	}
	return p.doc, p.errs
}

type parser struct {
	tokens []token
	pos    int
	doc    *Document
	errs   []error
}

func (p *parser) peek() token {
	if p.pos >= len(p.tokens) {
		return token{typ: tokEOF}
	}
	return p.tokens[p.pos]
}

func (p *parser) peekAt(n int) token {
	if p.pos+n >= len(p.tokens) {
		return token{typ: tokEOF}
	}
	return p.tokens[p.pos+n]
}

func (p *parser) next() token {
	t := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return t
}

func (p *parser) accept(typ tokenType) (token, bool) {
	if p.peek().typ == typ {
		return p.next(), true
	}
	return p.peek(), false
}

func (p *parser) errorf(t token, format string, args ...interface{}) {
	p.errorCode(t, secserr.CodeSyntaxError, format, args...)
}

func (p *parser) errorCode(t token, code secserr.Code, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	p.errs = append(p.errs, secserr.At(secserr.CategorySMLParser, code, t.line, t.col, msg))
}

func (p *parser) parseStatement() bool {
	switch p.peek().typ {
	case tokError:
		t := p.next()
		p.errorCode(t, secserr.CodeInvalidToken, "lexing error: %s", t.val)
		return false
	case tokIf:
		return p.parseIfRule()
	case tokEvery:
		return p.parseEveryRule()
	case tokIdent:
		return p.parseMessageDef()
	default:
		t := p.peek()
		p.errorf(t, "expected message definition, if-rule or every-rule, found %q", t.val)
		return false
	}
}

// parseMessageDef parses `[Ident ":"] SFToken [W] [item] "."`.
func (p *parser) parseMessageDef() bool {
	name := ""
	if p.peek().typ == tokIdent && p.peekAt(1).typ == tokColon {
		name = p.next().val
		p.next() // consume ':'
	}

	sfTok, ok := p.accept(tokIdent)
	if !ok || !isStreamFunction(sfTok.val) {
		p.errorf(sfTok, "expected S<n>F<m>, found %q", sfTok.val)
		return false
	}
	stream, function, err := parseStreamFunction(strings.ToUpper(sfTok.val))
	if err != nil {
		p.errorCode(sfTok, secserr.CodeInvalidStreamFunc, "%s", err)
		return false
	}

	waitBit := false
	if _, ok := p.accept(tokW); ok {
		waitBit = true
		if function%2 == 0 {
			p.errorf(sfTok, "wait bit cannot be true on a reply message (even function code)")
			waitBit = false
		}
	}

	var item ast.ItemNode = ast.NewEmptyItemNode()
	if p.peek().typ == tokLAngle {
		item, ok = p.parseItem()
		if !ok {
			return false
		}
	}

	if _, ok := p.accept(tokDot); !ok {
		t := p.peek()
		p.errorf(t, "expected '.', found %q", t.val)
		return false
	}

	w := 0
	if waitBit {
		w = 1
	}
	p.doc.Messages = append(p.doc.Messages, ast.NewDataMessage(name, stream, function, w, "H<->E", item))
	return true
}

// parseIfRule parses `"if" "(" condition ")" Ident "."`.
func (p *parser) parseIfRule() bool {
	p.next() // 'if'
	if _, ok := p.accept(tokLParen); !ok {
		t := p.peek()
		p.errorf(t, "expected '(' after if, found %q", t.val)
		return false
	}
	cond, ok := p.parseCondition()
	if !ok {
		return false
	}
	if _, ok := p.accept(tokRParen); !ok {
		t := p.peek()
		p.errorf(t, "expected ')', found %q", t.val)
		return false
	}
	nameTok, ok := p.accept(tokIdent)
	if !ok {
		p.errorf(nameTok, "expected response message name, found %q", nameTok.val)
		return false
	}
	if _, ok := p.accept(tokDot); !ok {
		t := p.peek()
		p.errorf(t, "expected '.', found %q", t.val)
		return false
	}
	p.doc.IfRules = append(p.doc.IfRules, &IfRule{Cond: cond, Response: nameTok.val})
	return true
}

// parseEveryRule parses `"every" Integer "send" Ident "."`.
func (p *parser) parseEveryRule() bool {
	p.next() // 'every'
	intTok, ok := p.accept(tokInt)
	if !ok {
		p.errorf(intTok, "expected integer interval, found %q", intTok.val)
		return false
	}
	interval, err := strconv.Atoi(intTok.val)
	if err != nil || interval <= 0 {
		p.errorf(intTok, "invalid every-rule interval %q", intTok.val)
		return false
	}
	if _, ok := p.accept(tokSend); !ok {
		t := p.peek()
		p.errorf(t, "expected 'send', found %q", t.val)
		return false
	}
	nameTok, ok := p.accept(tokIdent)
	if !ok {
		t := p.peek()
		p.errorf(t, "expected message name, found %q", t.val)
		return false
	}
	if _, ok := p.accept(tokDot); !ok {
		t := p.peek()
		p.errorf(t, "expected '.', found %q", t.val)
		return false
	}
	p.doc.EveryRules = append(p.doc.EveryRules, &EveryRule{Interval: interval, Response: nameTok.val})
	return true
}

// parseCondition parses `Ident ["(" Integer ")"] ["==" item]`.
func (p *parser) parseCondition() (Condition, bool) {
	nameTok := p.peek()
	if nameTok.typ != tokIdent {
		p.errorf(nameTok, "expected condition name, found %q", nameTok.val)
		return Condition{}, false
	}
	p.next()
	cond := Condition{Name: nameTok.val}

	if _, ok := p.accept(tokLParen); ok {
		idxTok, ok := p.accept(tokInt)
		if !ok {
			p.errorf(idxTok, "expected integer index, found %q", idxTok.val)
			return Condition{}, false
		}
		idx, err := strconv.Atoi(idxTok.val)
		if err != nil || idx < 1 {
			p.errorf(idxTok, "condition index must be a positive integer, found %q", idxTok.val)
			return Condition{}, false
		}
		cond.Index = idx
		if _, ok := p.accept(tokRParen); !ok {
			t := p.peek()
			p.errorf(t, "expected ')', found %q", t.val)
			return Condition{}, false
		}
	}

	if _, ok := p.accept(tokEqEq); ok {
		item, ok := p.parseItem()
		if !ok {
			return Condition{}, false
		}
		cond.Expected = item
		cond.HasExpected = true
	}

	return cond, true
}

// parseItem parses `"<" type body ">"`.
func (p *parser) parseItem() (ast.ItemNode, bool) {
	langle, ok := p.accept(tokLAngle)
	if !ok {
		p.errorf(langle, "expected '<', found %q", langle.val)
		return ast.NewEmptyItemNode(), false
	}

	typeTok, ok := p.accept(tokItemType)
	if !ok {
		p.errorf(typeTok, "expected item type, found %q", typeTok.val)
		return ast.NewEmptyItemNode(), false
	}

	var item ast.ItemNode
	switch typeTok.val {
	case "L":
		item, ok = p.parseListBody()
	case "A":
		item, ok = p.parseASCIIBody()
	case "B":
		item, ok = p.parseNumericBody("B", 1)
	case "BOOLEAN":
		item, ok = p.parseBooleanBody()
	case "F4":
		item, ok = p.parseFloatBody(4)
	case "F8":
		item, ok = p.parseFloatBody(8)
	case "I1":
		item, ok = p.parseIntBody(1)
	case "I2":
		item, ok = p.parseIntBody(2)
	case "I4":
		item, ok = p.parseIntBody(4)
	case "I8":
		item, ok = p.parseIntBody(8)
	case "U1":
		item, ok = p.parseUintBody(1)
	case "U2":
		item, ok = p.parseUintBody(2)
	case "U4":
		item, ok = p.parseUintBody(4)
	case "U8":
		item, ok = p.parseUintBody(8)
	default:
		p.errorf(typeTok, "unknown item type %q", typeTok.val)
		return ast.NewEmptyItemNode(), false
	}
	if !ok {
		return ast.NewEmptyItemNode(), false
	}

	if _, ok := p.accept(tokRAngle); !ok {
		t := p.peek()
		p.errorCode(t, secserr.CodeUnterminatedItem, "expected '>', found %q", t.val)
		return ast.NewEmptyItemNode(), false
	}
	return item, true
}

// parseListBody parses `["[" number "]"] item*`. The size hint is advisory
// and is consumed but not enforced, per spec.
func (p *parser) parseListBody() (ast.ItemNode, bool) {
	if _, ok := p.accept(tokLBracket); ok {
		if _, ok := p.accept(tokInt); !ok {
			t := p.peek()
			p.errorf(t, "expected list size, found %q", t.val)
			return ast.NewEmptyItemNode(), false
		}
		if _, ok := p.accept(tokRBracket); !ok {
			t := p.peek()
			p.errorf(t, "expected ']', found %q", t.val)
			return ast.NewEmptyItemNode(), false
		}
	}

	values := []interface{}{}
	for p.peek().typ == tokLAngle {
		child, ok := p.parseItem()
		if !ok {
			return ast.NewEmptyItemNode(), false
		}
		values = append(values, child)
	}
	return ast.NewListNode(values...), true
}

// parseASCIIBody parses `[String | VarRef]`.
func (p *parser) parseASCIIBody() (ast.ItemNode, bool) {
	switch t := p.peek(); t.typ {
	case tokRAngle:
		return ast.NewASCIINode(""), true
	case tokString:
		p.next()
		return ast.NewASCIINode(t.val), true
	case tokIdent:
		p.next()
		return ast.NewASCIINodeVariable(t.val, 0, -1), true
	default:
		p.errorf(t, "expected string literal or variable, found %q", t.val)
		return ast.NewEmptyItemNode(), false
	}
}

func (p *parser) collectValueExprs() []token {
	var toks []token
	for {
		switch p.peek().typ {
		case tokInt, tokFloat, tokIdent:
			toks = append(toks, p.next())
		default:
			return toks
		}
	}
}

func (p *parser) parseNumericBody(label string, byteSize int) (ast.ItemNode, bool) {
	values := []interface{}{}
	for _, t := range p.collectValueExprs() {
		if t.typ == tokIdent {
			values = append(values, t.val)
			continue
		}
		v, err := strconv.ParseInt(t.val, 0, 0)
		if err != nil || v < 0 || v > 255 {
			p.errorf(t, "binary value overflow, should be in range of [0, 256)")
			values = append(values, 0)
			continue
		}
		values = append(values, int(v))
	}
	return ast.NewBinaryNode(values...), true
}

func (p *parser) parseBooleanBody() (ast.ItemNode, bool) {
	values := []interface{}{}
	for _, t := range p.collectValueExprs() {
		if t.typ == tokIdent {
			lower := strings.ToLower(t.val)
			if lower == "true" {
				values = append(values, true)
			} else if lower == "false" {
				values = append(values, false)
			} else {
				values = append(values, t.val)
			}
			continue
		}
		v, err := strconv.ParseInt(t.val, 0, 0)
		if err != nil || (v != 0 && v != 1) {
			p.errorf(t, "expected 0, 1, true or false, found %q", t.val)
			values = append(values, false)
			continue
		}
		values = append(values, v == 1)
	}
	return ast.NewBooleanNode(values...), true
}

func (p *parser) parseFloatBody(byteSize int) (ast.ItemNode, bool) {
	values := []interface{}{}
	for _, t := range p.collectValueExprs() {
		if t.typ == tokIdent {
			values = append(values, t.val)
			continue
		}
		v, err := strconv.ParseFloat(t.val, byteSize*8)
		if err != nil {
			p.errorf(t, "expected float, found %q", t.val)
			values = append(values, 0.0)
			continue
		}
		values = append(values, v)
	}
	return ast.NewFloatNode(byteSize, values...), true
}

func (p *parser) parseIntBody(byteSize int) (ast.ItemNode, bool) {
	values := []interface{}{}
	for _, t := range p.collectValueExprs() {
		if t.typ == tokIdent {
			values = append(values, t.val)
			continue
		}
		v, err := strconv.ParseInt(t.val, 0, byteSize*8)
		if err != nil {
			p.errorf(t, "I%d range overflow or invalid literal %q", byteSize, t.val)
			values = append(values, int64(0))
			continue
		}
		values = append(values, v)
	}
	return ast.NewIntNode(byteSize, values...), true
}

func (p *parser) parseUintBody(byteSize int) (ast.ItemNode, bool) {
	values := []interface{}{}
	for _, t := range p.collectValueExprs() {
		if t.typ == tokIdent {
			values = append(values, t.val)
			continue
		}
		v, err := strconv.ParseUint(t.val, 0, byteSize*8)
		if err != nil {
			p.errorf(t, "U%d range overflow or invalid literal %q", byteSize, t.val)
			values = append(values, uint64(0))
			continue
		}
		values = append(values, v)
	}
	return ast.NewUintNode(byteSize, values...), true
}

// parseStreamFunction parses an upper-cased "SnFm" token into its stream
// and function codes.
func parseStreamFunction(val string) (stream, function int, err error) {
	i := strings.Index(val, "F")
	stream, errS := strconv.Atoi(val[1:i])
	function, errF := strconv.Atoi(val[i+1:])
	if errS != nil || errF != nil {
		return 0, 0, fmt.Errorf("malformed stream-function token %q", val)
	}
	if stream < 0 || stream > 127 {
		return 0, 0, fmt.Errorf("invalid_stream_function: stream %d out of range [0,127]", stream)
	}
	if function < 0 || function > 255 {
		return 0, 0, fmt.Errorf("invalid_stream_function: function %d out of range [0,255]", function)
	}
	return stream, function, nil
}
