package surface

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devicemips/internal/diag"
)

func TestParseLetAndStore(t *testing.T) {
	prog, err := Parse("t.dm", `
		let x = 1;
		let y = x + 2;
		d0.Setting = y;
	`)
	require.NoError(t, err)
	require.Len(t, prog.Statements, 3)

	assert.Equal(t, "x", prog.Statements[0].Let.Name)
	assert.Equal(t, "y", prog.Statements[1].Let.Name)
	assert.Equal(t, "d0", prog.Statements[2].FieldWrite.Device)
	assert.Equal(t, "Setting", prog.Statements[2].FieldWrite.Attribute)
}

func TestParseBinaryPrecedence(t *testing.T) {
	prog, err := Parse("t.dm", `let x = 1 + 2 * 3;`)
	require.NoError(t, err)

	bin := prog.Statements[0].Let.Expr.Binary
	require.NotNil(t, bin)
	assert.Equal(t, "+", bin.Op.String(), "addition should be the outermost node since * binds tighter")
	assert.Equal(t, int64(1), *bin.LHS.IntLit)
	require.NotNil(t, bin.RHS.Binary)
	assert.Equal(t, "*", bin.RHS.Binary.Op.String())
}

func TestParseIfElseAndLoopAndYield(t *testing.T) {
	prog, err := Parse("t.dm", `
		let x = 0;
		loop {
			if x == 10 {
				yield;
			} else {
				x = x + 1;
			}
		}
	`)
	require.NoError(t, err)
	require.NotNil(t, prog.Statements[1].Loop)

	body := prog.Statements[1].Loop.Body
	require.Len(t, body, 1)
	ifStmt := body[0].If
	require.NotNil(t, ifStmt)
	assert.Len(t, ifStmt.Then, 1)
	assert.Len(t, ifStmt.Else, 1)
}

func TestParseFunctionAndCallAndReturn(t *testing.T) {
	prog, err := Parse("t.dm", `
		fn double(a) {
			return a + a;
		}
		let x = double(21);
	`)
	require.NoError(t, err)

	fn := prog.Statements[0].Function
	require.NotNil(t, fn)
	assert.Equal(t, "double", fn.Name)
	assert.Equal(t, []string{"a"}, fn.Params)

	call := prog.Statements[1].Let.Expr.Call
	require.NotNil(t, call)
	assert.Equal(t, "double", call.Name)
	assert.Equal(t, int64(21), *call.Args[0].IntLit)
}

func TestParseSyntaxErrorReportsParseErrorKind(t *testing.T) {
	_, err := Parse("t.dm", `let x = ;`)
	require.Error(t, err)
	de, ok := err.(*diag.Error)
	require.True(t, ok)
	assert.Equal(t, diag.ParseError, de.Kind)
}

func TestFormatRoundTripsParse(t *testing.T) {
	prog, err := Parse("t.dm", `let x = 1; d0.Setting = x;`)
	require.NoError(t, err)

	formatted := Format(prog)
	reparsed, err := Parse("t2.dm", formatted)
	require.NoError(t, err)
	assert.Equal(t, "x", reparsed.Statements[0].Let.Name)
	assert.Equal(t, "d0", reparsed.Statements[1].FieldWrite.Device)
}
