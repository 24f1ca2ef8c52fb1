package filter

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperatorCategories(t *testing.T) {
	t.Parallel()
	ops := Operators()
	assert.Len(t, ops, 20)
	for _, op := range ops {
		assert.True(t, op.Valid(), op)
	}
	c, ok := OpRange.Category()
	assert.True(t, ok)
	assert.Equal(t, CategoryRange, c)
	assert.False(t, Operator("and").Valid())
	assert.True(t, Not.Valid())
	assert.False(t, BoolOp("xor").Valid())
}

func TestLeafValidateMismatches(t *testing.T) {
	t.Parallel()
	half := 0.5
	nan := math.NaN()
	cases := []struct {
		name string
		leaf *Leaf
		kind Kind
		path string
	}{
		{"scalar wants scalar", NewLeaf("a", OpEq, Text("x")), KindValidation, "$.value"},
		{"zero scalar", NewLeaf("a", OpEq, Scalar{}), KindValidation, "$.value"},
		{"infinite float", NewLeaf("a", OpGt, Float(math.Inf(1))), KindValidation, "$.value"},
		{"text wants text", NewLeaf("a", OpContains, String("x")), KindValidation, "$.value"},
		{"list empty", NewLeaf("a", OpIn, List{}), KindValidation, "$.value"},
		{"array mixed", NewLeaf("a", OpContainsAll, List{Int(1), String("x")}), KindValidation, "$.value[1]"},
		{"none with value", NewLeaf("a", OpIsNull, Int(1)), KindValidation, "$.value"},
		{"bounds missing", NewLeaf("a", OpBetween, Bounds{To: ptr(Int(1))}), KindValidation, "$.value.from"},
		{"semantic nan", NewLeaf("a", OpSemantic, Semantic{Query: "x", Threshold: &nan}), KindValidation, "$.value.threshold"},
		{"unknown op", NewLeaf("a", Operator("regex"), Text("x")), KindUnsupportedOperator, "$"},
		{"field missing", NewLeaf("", OpIsNull, None{}), KindValidation, "$.field"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := tc.leaf.Validate(Root)
			require.Error(t, err)
			assert.Equal(t, tc.kind, KindOf(err))
			assert.Equal(t, tc.path, PathOf(err))
		})
	}

	require.NoError(t, NewLeaf("a", OpSemantic, Semantic{Query: "x", Threshold: &half}).Validate(Root))
	require.NoError(t, NewLeaf("a", OpIsNull, nil).Validate(Root))
	require.NoError(t, NewLeaf("a", OpContainsAny, List{Int(1), Float(2.5)}).Validate(Root))
}

func TestValidateTree(t *testing.T) {
	t.Parallel()
	tree := NewAnd(
		NewLeaf("a", OpEq, Int(1)),
		NewNot(NewOr(NewLeaf("b", OpIsNull, None{}), NewLeaf("c", OpIn, List{}))),
	)
	err := Validate(tree, 0)
	require.Error(t, err)
	assert.Equal(t, "$.children[1].children[0].children[1].value", PathOf(err))

	assert.Error(t, Validate(nil, 0))
	assert.Error(t, Validate(&Group{Op: And, Children: []Node{nil}}, 0))
	assert.Equal(t, KindUnsupportedOperator, KindOf(Validate(&Group{Op: "xor", Children: []Node{NewLeaf("a", OpIsNull, None{})}}, 0)))

	deep := Node(NewLeaf("a", OpIsNull, None{}))
	for i := 0; i < 3; i++ {
		deep = NewNot(deep)
	}
	require.NoError(t, Validate(deep, 4))
	assert.Error(t, Validate(deep, 3))
}

func TestWalkOrder(t *testing.T) {
	t.Parallel()
	tree := NewAnd(NewLeaf("a", OpIsNull, None{}), NewOr(NewLeaf("b", OpIsNull, None{})))
	var paths []string
	err := Walk(tree, func(n Node, path string, depth int) error {
		paths = append(paths, path)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"$", "$.children[0]", "$.children[1]", "$.children[1].children[0]"}, paths)

	stop := errors.New("stop")
	calls := 0
	err = Walk(tree, func(Node, string, int) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestErrorFormatting(t *testing.T) {
	t.Parallel()
	err := Validationf("$.children[0]", "bad %s", "thing")
	assert.Equal(t, "ValidationError at $.children[0]: bad thing", err.Error())
	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrAssembly))

	cause := errors.New("timeout")
	emb := Embedding("$", cause)
	assert.True(t, errors.Is(emb, ErrEmbedding))
	assert.True(t, errors.Is(emb, cause))
	assert.Equal(t, "EmbeddingError at $: timeout", emb.Error())

	assert.Equal(t, `UnsupportedOperatorError at $: "like"`, Unsupported("$", "like", "").Error())
	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
}

func TestFormat(t *testing.T) {
	t.Parallel()
	tree := NewAnd(
		NewLeaf("industry", OpEq, String("automotive")),
		NewNot(NewLeaf("budget", OpBetween, Bounds{From: ptr(Int(1)), To: ptr(Float(2.5))})),
		NewLeaf("id", OpIn, List{Int(1), Int(2)}),
	)
	assert.Equal(t, `(industry eq "automotive" and not (budget between 1..2.5) and id in [1, 2])`, Format(tree))
}

func TestScalarOf(t *testing.T) {
	t.Parallel()
	s, err := ScalarOf(3)
	require.NoError(t, err)
	assert.Equal(t, Int(3), s)

	_, err = ScalarOf(true)
	assert.Error(t, err)
	_, err = ScalarOf(nil)
	assert.Error(t, err)
}

func ptr(s Scalar) *Scalar { return &s }
