// Package branches maps raw gcov branch records onto source constructs.
//
// gcov emits branch outcomes per line as flat two-way pairs with no tie to
// syntax. The matcher re-establishes that tie: pairs are zipped positionally
// with the branch-bearing constructs the source locator reports for the
// line, and the pairs of a short-circuit chain are folded back into a single
// steppedIn/skipped result for the enclosing statement.
package branches

import (
	"github.com/zjy-dev/covlens/internal/model"
	"github.com/zjy-dev/covlens/internal/source"
)

// Record is one raw branch record of a line. Fallthrough marks the edge gcov
// treats as the natural continuation; Throwing marks an exceptional edge,
// which disqualifies the record's pair from matching.
type Record struct {
	Count       int64
	Fallthrough bool
	Throwing    bool
}

// Flags gates per construct kind whether directly attributed branch records
// are emitted. Records synthesized for a left-out statement are always
// emitted when its operands produced a result.
type Flags struct {
	Loop      bool
	If        bool
	BooleanOp bool
}

// AllFlags enables every construct kind.
func AllFlags() Flags {
	return Flags{Loop: true, If: true, BooleanOp: true}
}

// result is the oriented outcome of one clean pair.
type result struct {
	steppedIn int64
	skipped   int64
}

// orient picks the pair members: steppedIn is the fallthrough edge, the one
// actually taken when the condition succeeds.
func orient(first, second Record) result {
	if first.Fallthrough {
		return result{steppedIn: first.Count, skipped: second.Count}
	}
	return result{steppedIn: second.Count, skipped: first.Count}
}

// cleanPairs chunks a line's records two per slot and keeps the pairs where
// both members are present and neither throws. Disqualified pairs shift the
// later correspondence within the line; an odd trailing record is dropped.
func cleanPairs(records []Record) []result {
	var pairs []result
	for i := 0; i+1 < len(records); i += 2 {
		if records[i].Throwing || records[i+1].Throwing {
			continue
		}
		pairs = append(pairs, orient(records[i], records[i+1]))
	}
	return pairs
}

// matchable is one construct slot eligible for a pair of its own: either a
// directly attributed construct or one operand of a left-out statement.
type matchable struct {
	construct *source.Construct // emitted construct, nil for chain operands
	owner     int               // constructs index of the owning statement
	operand   int               // operand index within the owner, -1 for direct
}

// MatchLine zips a line's clean branch pairs with its constructs and returns
// the branch records to attach to the owning function, in construct order.
func MatchLine(records []Record, constructs []source.Construct, flags Flags) []model.Branch {
	if len(records) == 0 || len(constructs) == 0 {
		return nil
	}

	pairs := cleanPairs(records)
	if len(pairs) == 0 {
		return nil
	}

	// Expand the constructs into pair slots. A statement with a top-level
	// short-circuit chain is left out; its non-nested operands each take a
	// slot. Nested operands are skipped here and matched by the deeper
	// constructs the locator reports for their own chains.
	var slots []matchable
	for ci := range constructs {
		c := &constructs[ci]
		if c.LeftOut() {
			for oi := range c.Operands {
				if c.Operands[oi].Nested {
					continue
				}
				slots = append(slots, matchable{owner: ci, operand: oi})
			}
			continue
		}
		if c.Kind == source.KindOperand && c.Nested {
			continue
		}
		slots = append(slots, matchable{construct: c, owner: ci, operand: -1})
	}

	// Positional zip; slots beyond the clean pairs get nothing.
	direct := make(map[int]result)           // constructs index -> result
	operandResults := make(map[int][]result) // constructs index -> in-order operand results
	for i, slot := range slots {
		if i >= len(pairs) {
			break
		}
		if slot.operand < 0 {
			direct[slot.owner] = pairs[i]
			continue
		}
		operandResults[slot.owner] = append(operandResults[slot.owner], pairs[i])
	}

	var branches []model.Branch
	for ci := range constructs {
		c := &constructs[ci]
		if c.LeftOut() {
			results := operandResults[ci]
			if len(results) == 0 {
				continue
			}
			folded := foldChain(c.Operator, results)
			branches = append(branches, model.Branch{
				Position:  c.Position(),
				SteppedIn: folded.steppedIn,
				Skipped:   folded.skipped,
			})
			continue
		}
		res, ok := direct[ci]
		if !ok || !enabled(flags, c.Kind) {
			continue
		}
		branches = append(branches, model.Branch{
			Position:  c.Position(),
			SteppedIn: res.steppedIn,
			Skipped:   res.skipped,
		})
	}
	return branches
}

func enabled(flags Flags, kind source.Kind) bool {
	switch kind {
	case source.KindLoop:
		return flags.Loop
	case source.KindCondition:
		return flags.If
	case source.KindOperand:
		return flags.BooleanOp
	}
	return false
}

// foldChain reconstructs the construct-level count of a left-out statement
// from its operand results, in source order.
//
// The combination rules follow gcov's code generation for short-circuit
// chains: an operand contributes only when prior evaluation could reach it,
// i.e. while the running steppedIn is non-zero. The mapping is a heuristic;
// deeply nested chains are matched level by level, not proven exhaustive.
func foldChain(op source.Operator, results []result) result {
	acc := results[0]
	switch op {
	case source.OpOr:
		for i := 1; i < len(results); i++ {
			if acc.steppedIn == 0 {
				continue
			}
			if i == len(results)-1 {
				acc.skipped += results[i].skipped
			} else {
				acc.skipped += results[i].steppedIn
				acc.steppedIn = results[i].skipped
			}
		}
	case source.OpAnd:
		for i := 1; i < len(results); i++ {
			if acc.steppedIn == 0 {
				continue
			}
			acc.skipped += results[i].skipped
		}
	}
	return acc
}
