package source

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjy-dev/covlens/internal/model"
)

func locatorFor(t *testing.T, src string) *CppLocator {
	t.Helper()
	l := NewCppLocator()
	l.readFile = func(path string) ([]byte, error) {
		if path != "test.cc" {
			return nil, errors.New("unexpected path")
		}
		return []byte(src), nil
	}
	return l
}

func TestConstructsOnLine_SimpleIf(t *testing.T) {
	l := locatorFor(t, `int f(int x) {
  if (x > 0) {
    return 1;
  }
  return 0;
}
`)

	constructs := l.ConstructsOnLine("test.cc", 2)
	require.Len(t, constructs, 1)
	c := constructs[0]
	assert.Equal(t, KindCondition, c.Kind)
	assert.False(t, c.LeftOut())
	require.NotNil(t, c.OpenParen)
	// "if" starts at column 3, its parenthesis at column 6.
	assert.Equal(t, model.Position{Line: 2, Column: 3}, c.Start)
	assert.Equal(t, model.Position{Line: 2, Column: 6}, *c.OpenParen)
	assert.Equal(t, model.Position{Line: 2, Column: 6}, c.Position())
}

func TestConstructsOnLine_Loops(t *testing.T) {
	l := locatorFor(t, `void f(int n) {
  while (n > 0) {
    n--;
  }
  for (int i = 0; i < n; i++) {
  }
  do {
    n++;
  } while (n < 10);
}
`)

	for _, line := range []int{2, 5} {
		constructs := l.ConstructsOnLine("test.cc", line)
		require.Len(t, constructs, 1, "line %d", line)
		assert.Equal(t, KindLoop, constructs[0].Kind, "line %d", line)
	}

	// The do-while loop anchors on its trailing condition, where gcov
	// reports the branch.
	constructs := l.ConstructsOnLine("test.cc", 9)
	require.Len(t, constructs, 1)
	assert.Equal(t, KindLoop, constructs[0].Kind)
	assert.Equal(t, 7, constructs[0].Start.Line)
}

func TestConstructsOnLine_ShortCircuitChain(t *testing.T) {
	l := locatorFor(t, `int f(int a, int b) {
  if (a > 0 || b > 0) {
    return 1;
  }
  return 0;
}
`)

	constructs := l.ConstructsOnLine("test.cc", 2)
	require.Len(t, constructs, 1)
	c := constructs[0]
	assert.Equal(t, KindCondition, c.Kind)
	assert.True(t, c.LeftOut())
	assert.Equal(t, OpOr, c.Operator)
	require.Len(t, c.Operands, 2)
	assert.False(t, c.Operands[0].Nested)
	assert.False(t, c.Operands[1].Nested)
	assert.True(t, c.Operands[0].Start.Less(c.Operands[1].Start))
}

func TestConstructsOnLine_FlattensSameOperatorChain(t *testing.T) {
	l := locatorFor(t, `int f(int a, int b, int c) {
  if (a && b && c) {
    return 1;
  }
  return 0;
}
`)

	constructs := l.ConstructsOnLine("test.cc", 2)
	require.Len(t, constructs, 1)
	c := constructs[0]
	assert.Equal(t, OpAnd, c.Operator)
	assert.Len(t, c.Operands, 3)
}

func TestConstructsOnLine_MixedOperatorsNest(t *testing.T) {
	// The || chain is top level; the parenthesized && sub-chain stays one
	// operand of it, marked nested. The sub-chain's own leaves are then
	// reported as standalone operand constructs so the deeper level can
	// consume branch pairs of its own.
	l := locatorFor(t, `int f(int a, int b, int c) {
  if (a || (b && c)) {
    return 1;
  }
  return 0;
}
`)

	constructs := l.ConstructsOnLine("test.cc", 2)
	require.Len(t, constructs, 3)

	c := constructs[0]
	assert.Equal(t, KindCondition, c.Kind)
	assert.Equal(t, OpOr, c.Operator)
	require.Len(t, c.Operands, 2)
	assert.False(t, c.Operands[0].Nested)
	assert.True(t, c.Operands[1].Nested)

	// "b" at column 13, "c" at column 18, after the condition's start.
	assert.Equal(t, KindOperand, constructs[1].Kind)
	assert.Equal(t, model.Position{Line: 2, Column: 13}, constructs[1].Start)
	assert.False(t, constructs[1].Nested)
	assert.Equal(t, KindOperand, constructs[2].Kind)
	assert.Equal(t, model.Position{Line: 2, Column: 18}, constructs[2].Start)
	assert.False(t, constructs[2].Nested)
}

func TestConstructsOnLine_StandaloneChain(t *testing.T) {
	// Short-circuit chains in plain expressions still branch; each leaf
	// becomes an operand construct of its own.
	l := locatorFor(t, `int f(int a, int b) {
  int ok = a > 0 && b > 0;
  return ok;
}
`)

	constructs := l.ConstructsOnLine("test.cc", 2)
	require.Len(t, constructs, 2)
	for _, c := range constructs {
		assert.Equal(t, KindOperand, c.Kind)
		assert.False(t, c.Nested)
	}
	assert.True(t, constructs[0].Start.Less(constructs[1].Start))
}

func TestConstructsOnLine_HeaderOperandsNotDuplicated(t *testing.T) {
	// Operands of an if header's chain are carried by the statement, not
	// reported again as standalone constructs.
	l := locatorFor(t, `int f(int a, int b) {
  if (a > 0 || b > 0) {
    return 1;
  }
  return 0;
}
`)

	constructs := l.ConstructsOnLine("test.cc", 2)
	require.Len(t, constructs, 1)
	assert.True(t, constructs[0].LeftOut())
}

func TestConstructsOnLine_MultipleStatementsOnOneLine(t *testing.T) {
	l := locatorFor(t, `int f(int a, int b) {
  if (a) { if (b) { return 2; } return 1; }
  return 0;
}
`)

	constructs := l.ConstructsOnLine("test.cc", 2)
	require.Len(t, constructs, 2)
	assert.True(t, constructs[0].Start.Less(constructs[1].Start))
}

func TestConstructsOnLine_UnreadableFile(t *testing.T) {
	l := NewCppLocator()
	l.readFile = func(string) ([]byte, error) {
		return nil, errors.New("no such file")
	}

	assert.Empty(t, l.ConstructsOnLine("missing.cc", 1))
	// The failure is cached like a parse result; asking again is cheap.
	assert.Empty(t, l.ConstructsOnLine("missing.cc", 2))
}

func TestConstructsOnLine_CachesParsedFile(t *testing.T) {
	reads := 0
	l := NewCppLocator()
	l.readFile = func(string) ([]byte, error) {
		reads++
		return []byte("int f() { if (1) { return 1; } return 0; }\n"), nil
	}

	l.ConstructsOnLine("test.cc", 1)
	l.ConstructsOnLine("test.cc", 1)
	l.ConstructsOnLine("test.cc", 99)
	assert.Equal(t, 1, reads)
}

func TestConstructsOnLine_LineWithoutConstructs(t *testing.T) {
	l := locatorFor(t, `int f() {
  return 0;
}
`)
	assert.Empty(t, l.ConstructsOnLine("test.cc", 2))
}
