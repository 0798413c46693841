package source

import (
	"os"
	"sort"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"

	"github.com/zjy-dev/covlens/internal/model"
)

// CppLocator locates branch-bearing constructs in C/C++ sources with
// tree-sitter. Files are parsed once and the per-line construct index is
// cached; unreadable or unparseable files yield no constructs.
type CppLocator struct {
	mu     sync.Mutex
	parser *tree_sitter.Parser
	files  map[string]map[int][]Construct

	// readFile is swappable for tests.
	readFile func(path string) ([]byte, error)
}

// NewCppLocator creates a locator for C/C++ source files.
func NewCppLocator() *CppLocator {
	parser := tree_sitter.NewParser()
	parser.SetLanguage(tree_sitter.NewLanguage(tree_sitter_cpp.Language()))

	return &CppLocator{
		parser:   parser,
		files:    make(map[string]map[int][]Construct),
		readFile: os.ReadFile,
	}
}

// ConstructsOnLine returns the branch-bearing constructs anchored on the
// given 1-based line, in source order.
func (l *CppLocator) ConstructsOnLine(path string, line int) []Construct {
	l.mu.Lock()
	defer l.mu.Unlock()

	byLine, ok := l.files[path]
	if !ok {
		byLine = l.scanFile(path)
		l.files[path] = byLine
	}
	return byLine[line]
}

// scanFile parses one source file and indexes its constructs by line. Any
// failure produces an empty index; locating never errors.
func (l *CppLocator) scanFile(path string) map[int][]Construct {
	byLine := make(map[int][]Construct)

	src, err := l.readFile(path)
	if err != nil {
		return byLine
	}
	tree := l.parser.Parse(src, nil)
	if tree == nil {
		return byLine
	}
	defer tree.Close()

	scan := &cppScan{src: src, consumed: make(map[uintptr]bool), byLine: byLine}
	scan.visit(tree.RootNode())

	for line := range byLine {
		constructs := byLine[line]
		sort.SliceStable(constructs, func(i, j int) bool {
			return constructs[i].Start.Less(constructs[j].Start)
		})
	}
	return byLine
}

// cppScan walks one parsed file. consumed holds the ids of binary-expression
// nodes already claimed by an enclosing chain, so an operand is never
// processed twice.
type cppScan struct {
	src      []byte
	consumed map[uintptr]bool
	byLine   map[int][]Construct
}

func (s *cppScan) visit(node *tree_sitter.Node) {
	if node == nil {
		return
	}

	switch node.Kind() {
	case "if_statement":
		if cond := node.ChildByFieldName("condition"); cond != nil {
			s.addStatement(KindCondition, node, cond)
		}
	case "while_statement", "do_statement", "for_statement":
		if cond := node.ChildByFieldName("condition"); cond != nil {
			s.addStatement(KindLoop, node, cond)
		}
	case "binary_expression":
		if op := s.shortCircuitOp(node); op != OpNone && !s.consumed[node.Id()] {
			s.addStandaloneChain(node, op)
		}
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		s.visit(node.Child(i))
	}
}

// addStatement registers an if/loop statement. When its controlling
// expression is a top-level short-circuit chain the statement is left out of
// direct attribution and carries its operands instead.
func (s *cppScan) addStatement(kind Kind, stmt, cond *tree_sitter.Node) {
	construct := Construct{Kind: kind, Start: s.pos(stmt)}
	if s.src[cond.StartByte()] == '(' {
		paren := s.pos(cond)
		construct.OpenParen = &paren
	}

	inner := s.unwrapParens(cond)
	if inner != nil {
		if op := s.shortCircuitOp(inner); op != OpNone {
			leaves := s.flatten(inner, op)
			if len(leaves) >= 2 {
				construct.Operator = op
				for _, leaf := range leaves {
					construct.Operands = append(construct.Operands, s.operand(leaf))
				}
			}
		}
	}

	line := construct.Position().Line
	s.byLine[line] = append(s.byLine[line], construct)
}

// addStandaloneChain registers the operands of a short-circuit chain outside
// any if/loop header, one KindOperand construct per leaf.
func (s *cppScan) addStandaloneChain(root *tree_sitter.Node, op Operator) {
	for _, leaf := range s.flatten(root, op) {
		construct := s.operand(leaf)
		line := construct.Position().Line
		s.byLine[line] = append(s.byLine[line], construct)
	}
}

// operand builds the construct for one chain leaf. A leaf whose own
// sub-expression still contains a short-circuit operator is marked Nested
// and left for a deeper pass.
func (s *cppScan) operand(leaf *tree_sitter.Node) Construct {
	construct := Construct{Kind: KindOperand, Start: s.pos(leaf)}
	if s.src[leaf.StartByte()] == '(' {
		paren := s.pos(leaf)
		construct.OpenParen = &paren
	}
	construct.Nested = s.containsShortCircuit(leaf)
	return construct
}

// flatten collects the leaves of a same-operator chain in source order and
// marks the chain's interior nodes consumed. Mixed-operator or parenthesized
// sub-chains stay whole and become nested leaves.
func (s *cppScan) flatten(node *tree_sitter.Node, op Operator) []*tree_sitter.Node {
	if node == nil || s.consumed[node.Id()] {
		return nil
	}
	if s.shortCircuitOp(node) == op {
		s.consumed[node.Id()] = true
		left := s.flatten(node.ChildByFieldName("left"), op)
		return append(left, s.flatten(node.ChildByFieldName("right"), op)...)
	}
	return []*tree_sitter.Node{node}
}

// shortCircuitOp returns the operator of a short-circuit binary expression,
// recognizing both the symbolic and the C++ alternative spellings.
func (s *cppScan) shortCircuitOp(node *tree_sitter.Node) Operator {
	if node.Kind() != "binary_expression" {
		return OpNone
	}
	opNode := node.ChildByFieldName("operator")
	if opNode == nil {
		return OpNone
	}
	switch string(s.src[opNode.StartByte():opNode.EndByte()]) {
	case "&&", "and":
		return OpAnd
	case "||", "or":
		return OpOr
	}
	return OpNone
}

// containsShortCircuit reports whether any descendant of node is a
// short-circuit binary expression.
func (s *cppScan) containsShortCircuit(node *tree_sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if s.shortCircuitOp(child) != OpNone || s.containsShortCircuit(child) {
			return true
		}
	}
	return false
}

// unwrapParens strips condition clauses and parentheses down to the
// controlling expression itself.
func (s *cppScan) unwrapParens(node *tree_sitter.Node) *tree_sitter.Node {
	for node != nil {
		kind := node.Kind()
		if kind != "parenthesized_expression" && kind != "condition_clause" {
			return node
		}
		inner := node.ChildByFieldName("value")
		if inner == nil && node.NamedChildCount() > 0 {
			inner = node.NamedChild(0)
		}
		node = inner
	}
	return nil
}

func (s *cppScan) pos(node *tree_sitter.Node) model.Position {
	p := node.StartPosition()
	return model.Position{Line: int(p.Row) + 1, Column: int(p.Column) + 1}
}
