// Package source locates branch-bearing constructs (loop headers, if
// conditions, short-circuit boolean operands) in original source files. The
// branch matcher consults a Locator to correlate raw gcov branch records with
// source syntax.
package source

import "github.com/zjy-dev/covlens/internal/model"

// Kind classifies a branch-bearing construct.
type Kind int

const (
	// KindLoop is a while/for/do loop header.
	KindLoop Kind = iota
	// KindCondition is an if-statement condition.
	KindCondition
	// KindOperand is one operand of a short-circuit boolean chain.
	KindOperand
)

// Operator is the short-circuit operator joining the operands of a chain.
type Operator int

const (
	OpNone Operator = iota
	OpAnd
	OpOr
)

// Construct is one branch-bearing construct on a line.
//
// A loop or condition whose controlling expression has a top-level
// short-circuit operator carries the chain in Operator/Operands; such a
// statement receives no branch pair of its own and its coverage is derived
// from the operands. An operand whose sub-expression still contains a
// short-circuit operator is marked Nested and is matched by a deeper pass,
// not at the current level.
type Construct struct {
	Kind      Kind
	Start     model.Position
	OpenParen *model.Position // opening parenthesis of the controlling expression, if any
	Operator  Operator
	Operands  []Construct
	Nested    bool
}

// LeftOut reports whether the construct's own branch is not directly
// instrumented because its short-circuit operands are instrumented
// individually.
func (c *Construct) LeftOut() bool {
	return c.Operator != OpNone && len(c.Operands) > 0
}

// Position returns where the construct's branch record is anchored: the
// controlling expression's opening parenthesis when present, else the
// construct's own start.
func (c *Construct) Position() model.Position {
	if c.OpenParen != nil {
		return *c.OpenParen
	}
	return c.Start
}

// Locator supplies the ordered branch-bearing constructs of a source line.
// Implementations must be safe for concurrent read access; assembly workers
// share one locator.
type Locator interface {
	ConstructsOnLine(path string, line int) []Construct
}
