package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlinePassFollowsSingleChain(t *testing.T) {
	p := &Program{Blocks: []*Block{{Id: 0, Instructions: []Instruction{
		Assignment{Id: 0, Value: Single{Src: Const(5)}},
		Assignment{Id: 1, Value: Single{Src: Var(0)}},
		Assignment{Id: 2, Value: BinaryOp{LHS: Var(1), Op: OpAdd, RHS: Const(1)}},
	}}}}

	changed := InlinePass{}.Apply(p)
	require.True(t, changed)

	bin := p.Blocks[0].Instructions[2].(Assignment).Value.(BinaryOp)
	assert.Equal(t, Const(5), bin.LHS, "v2's lhs should resolve through v1 and v0 to the literal")
}

func TestInlinePassCollapsesUniformPhi(t *testing.T) {
	p := &Program{Blocks: []*Block{{Id: 0, Instructions: []Instruction{
		Assignment{Id: 0, Value: Single{Src: Const(7)}},
		Assignment{Id: 1, Value: Single{Src: Const(7)}},
		Assignment{Id: 2, Value: Phi{Args: []VarId{0, 1}}},
	}}}}

	InlinePass{}.Apply(p)

	single, ok := p.Blocks[0].Instructions[2].(Assignment).Value.(Single)
	require.True(t, ok, "a phi whose operands all resolve to 7 should collapse to Single{7}")
	assert.Equal(t, Const(7), single.Src)
}

func TestDCEPassRemovesUnusedAssignment(t *testing.T) {
	p := &Program{Blocks: []*Block{{Id: 0, Instructions: []Instruction{
		Assignment{Id: 0, Value: Single{Src: Const(1)}}, // unused
		Assignment{Id: 1, Value: Single{Src: Const(2)}},
		Return{Value: Var(1), HasValue: true},
	}}}}

	changed := DCEPass{}.Apply(p)
	require.True(t, changed)
	require.Len(t, p.Blocks[0].Instructions, 2, "the unused v0 assignment should be removed")

	kept := p.Blocks[0].Instructions[0].(Assignment)
	assert.Equal(t, VarId(1), kept.Id)
}

func TestDCEPassAlwaysKeepsStore(t *testing.T) {
	p := &Program{Blocks: []*Block{{Id: 0, Instructions: []Instruction{
		Assignment{Id: 0, Value: Single{Src: Const(1)}},
		Assignment{Id: 1, Value: Call{Name: PrimitiveStore, Args: []VarOrConst{
			External("d0"), External("Setting"), Var(0),
		}}},
	}}}}

	changed := DCEPass{}.Apply(p)
	assert.False(t, changed, "both instructions are reachable from the store root")
	require.Len(t, p.Blocks[0].Instructions, 2)
}
