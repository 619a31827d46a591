// Package sml implements the SML message-template language: a lexer and
// recursive-descent parser producing a Document, and a Runtime that indexes
// message definitions, matches inbound messages against condition rules, and
// renders templates with variable substitution.
package sml

import "github.com/nexosec/gosecs/pkg/ast"

// Document is the parsed form of an SML source file: message templates plus
// the condition/timer rules that reference them by name.
type Document struct {
	Messages   []*ast.DataMessage
	IfRules    []*IfRule
	EveryRules []*EveryRule
}

// Condition is the predicate half of an if_rule: a message name (or literal
// S<n>F<m> form) optionally narrowed to one list index compared against an
// expected item.
type Condition struct {
	Name        string
	Index       int // 1-based; zero when absent
	Expected    ast.ItemNode
	HasExpected bool
}

// IfRule fires Response when Cond matches an inbound message.
type IfRule struct {
	Cond     Condition
	Response string
}

// EveryRule fires Response every Interval occurrences of a poll/tick, per
// spec.md's every_rule grammar.
type EveryRule struct {
	Interval int
	Response string
}
