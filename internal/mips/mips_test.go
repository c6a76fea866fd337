package mips

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmitRoundTrip(t *testing.T) {
	lines := []string{
		"add r0 r1 r2",
		"move r3 5",
		"s db Setting r0",
		"l r1 d0 Temperature",
		"beqz r0 12",
		"j 3",
		"jal 7",
		"jr ra",
		"yield",
	}
	for _, line := range lines {
		instr, err := Parse(line)
		require.NoError(t, err, line)
		assert.Equal(t, line, instr.String(), "parse(emit(i)) should reproduce the original text")
	}
}

func TestParseCommentAndLabel(t *testing.T) {
	c, err := Parse("# a note")
	require.NoError(t, err)
	assert.Equal(t, Comment{Text: "a note"}, c)

	l, err := Parse("loop_start:")
	require.NoError(t, err)
	assert.Equal(t, Label2{Name: "loop_start"}, l)
}

func TestParseGenericFallback(t *testing.T) {
	instr, err := Parse("push r0")
	require.NoError(t, err)
	g, ok := instr.(Generic)
	require.True(t, ok)
	assert.Equal(t, "push", g.Mnemonic)
	assert.Equal(t, "push r0", instr.String())
}

func TestOperandClassification(t *testing.T) {
	assert.Equal(t, OpReg, parseOperand("r5").Kind)
	assert.Equal(t, OpReg, parseOperand("sp").Kind)
	assert.Equal(t, OpReg, parseOperand("ra").Kind)
	assert.Equal(t, OpDevice, parseOperand("d0").Kind)
	assert.Equal(t, OpAttribute, parseOperand("Setting").Kind)
	assert.Equal(t, OpNumber, parseOperand("3.5").Kind)
	assert.Equal(t, OpLabel, parseOperand("loop_start").Kind)
}

func TestParseProgram(t *testing.T) {
	text := "move r0 1\nmove r1 2\nadd r2 r0 r1\n"
	prog, err := ParseProgram(text)
	require.NoError(t, err)
	assert.Len(t, prog.Instructions, 3)
	assert.Equal(t, "move r0 1\nmove r1 2\nadd r2 r0 r1", prog.String())
}
