package sml

import (
	"strings"

	"github.com/nexosec/gosecs/pkg/ast"
	"github.com/nexosec/gosecs/pkg/secserr"
)

const floatTolerance = 1e-4

type sfKey struct {
	stream, function int
}

// Runtime indexes a parsed Document for O(1) lookup and implements
// condition-to-response matching and template rendering, per spec.md §4.9.
type Runtime struct {
	byName     map[string]*ast.DataMessage
	bySF       map[sfKey]*ast.DataMessage
	ifRules    []*IfRule
	everyRules []*EveryRule
}

// Load builds a Runtime's indices from doc. Duplicate message names are
// rejected; when several messages share a (stream, function) pair, the first
// one is indexed under it and no error is returned.
func Load(doc *Document) (*Runtime, error) {
	rt := &Runtime{
		byName:     make(map[string]*ast.DataMessage),
		bySF:       make(map[sfKey]*ast.DataMessage),
		ifRules:    doc.IfRules,
		everyRules: doc.EveryRules,
	}
	for _, msg := range doc.Messages {
		if msg.Name() != "" {
			if _, dup := rt.byName[msg.Name()]; dup {
				return nil, secserr.Newf(secserr.CategorySMLRender, secserr.CodeTypeMismatch,
					"duplicate message name %q", msg.Name())
			}
			rt.byName[msg.Name()] = msg
		}
		key := sfKey{msg.StreamCode(), msg.FunctionCode()}
		if _, dup := rt.bySF[key]; !dup {
			rt.bySF[key] = msg
		}
	}
	return rt, nil
}

// GetMessageByName returns the message template registered under name.
func (rt *Runtime) GetMessageByName(name string) (*ast.DataMessage, bool) {
	m, ok := rt.byName[name]
	return m, ok
}

// GetMessageBySF returns the message template registered under
// (stream, function).
func (rt *Runtime) GetMessageBySF(stream, function int) (*ast.DataMessage, bool) {
	m, ok := rt.bySF[sfKey{stream, function}]
	return m, ok
}

// MatchResponse iterates if_rules in declaration order and returns the
// response message name of the first rule whose condition matches the
// inbound (stream, function, item).
func (rt *Runtime) MatchResponse(stream, function int, item ast.ItemNode) (string, bool) {
	for _, rule := range rt.ifRules {
		if rt.conditionMatches(rule.Cond, stream, function, item) {
			return rule.Response, true
		}
	}
	return "", false
}

func (rt *Runtime) conditionMatches(cond Condition, stream, function int, item ast.ItemNode) bool {
	if !rt.nameMatchesSF(cond.Name, stream, function) {
		return false
	}
	if cond.Index == 0 {
		return true
	}

	list, ok := item.(*ast.ListNode)
	if !ok {
		return false
	}
	values := list.Value()
	if cond.Index < 1 || cond.Index > len(values) {
		return false
	}
	element := values[cond.Index-1]
	if !cond.HasExpected {
		return true
	}
	return itemsEqual(element, cond.Expected)
}

// nameMatchesSF reports whether name resolves to (stream, function), either
// by looking it up as a registered message name or by parsing it directly
// as an S<n>F<m> literal.
func (rt *Runtime) nameMatchesSF(name string, stream, function int) bool {
	if msg, ok := rt.byName[name]; ok {
		return msg.StreamCode() == stream && msg.FunctionCode() == function
	}
	if isStreamFunction(name) {
		s, f, err := parseStreamFunction(strings.ToUpper(name))
		if err == nil {
			return s == stream && f == function
		}
	}
	return false
}

// EncodeMessageBody renders name's template, substituting ctx values into
// variable references, and returns the SECS-II wire bytes of the resulting
// item (excluding the message header).
func (rt *Runtime) EncodeMessageBody(name string, ctx map[string]interface{}) ([]byte, error) {
	msg, ok := rt.byName[name]
	if !ok {
		return nil, secserr.Newf(secserr.CategorySMLRender, secserr.CodeMissingVariable,
			"no message registered under name %q", name)
	}

	for _, v := range msg.Variables() {
		if _, ok := ctx[v]; !ok {
			return nil, secserr.Newf(secserr.CategorySMLRender, secserr.CodeMissingVariable,
				"missing value for variable %q", v)
		}
	}

	filled := msg.FillVariables(ctx)
	body := filled.DataItem().ToBytes()
	if len(body) == 0 && filled.DataItem().Size() != 0 {
		return nil, secserr.Newf(secserr.CategorySMLRender, secserr.CodeTypeMismatch,
			"failed to render message %q: check variable types match their surrounding item", name)
	}
	return body, nil
}

// itemsEqual deep-compares two ItemNodes, treating F4/F8 leaves with
// absolute tolerance 1e-4 instead of exact equality.
func itemsEqual(a, b ast.ItemNode) bool {
	switch av := a.(type) {
	case *ast.ListNode:
		bv, ok := b.(*ast.ListNode)
		if !ok || av.Size() != bv.Size() {
			return false
		}
		for i, child := range av.Value() {
			if !itemsEqual(child, bv.Value()[i]) {
				return false
			}
		}
		return true

	case *ast.FloatNode:
		bv, ok := b.(*ast.FloatNode)
		if !ok || len(av.Value()) != len(bv.Value()) {
			return false
		}
		for i, v := range av.Value() {
			if !floatsEqual(v, bv.Value()[i]) {
				return false
			}
		}
		return true

	default:
		return bytesEqual(a.ToBytes(), b.ToBytes())
	}
}

func floatsEqual(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff <= floatTolerance
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
