package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devicemips/internal/ast"
	"devicemips/internal/diag"
)

func ident(name string) ast.Expr { return ast.Expr{Identifier: &name} }
func intLit(v int64) ast.Expr    { v2 := v; return ast.Expr{IntLit: &v2} }

func binary(lhs ast.Expr, op ast.BinaryOp, rhs ast.Expr) ast.Expr {
	return ast.Expr{Binary: &ast.BinaryExpr{LHS: lhs, Op: op, RHS: rhs}}
}

func TestBuildStraightLineChainsAssignments(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Statement{
		{Let: &ast.LetStmt{Name: "x", Expr: intLit(1)}},
		{Assign: &ast.AssignStmt{Name: "x", Expr: binary(ident("x"), ast.Add, intLit(2))}},
		{FieldWrite: &ast.FieldWriteStmt{Device: "d0", Attribute: "Setting", Expr: ident("x")}},
	}}

	p, err := Build(prog)
	require.NoError(t, err)
	require.Len(t, p.Blocks, 1, "no branching, so the whole program lives in the entry block")

	blk := p.Blocks[0]
	var sawStore bool
	for _, instr := range blk.Instructions {
		if a, ok := instr.(Assignment); ok {
			if c, ok := a.Value.(Call); ok && c.Name == PrimitiveStore {
				sawStore = true
			}
		}
	}
	assert.True(t, sawStore, "field write should lower to a store call")
}

func TestBuildIfElseMergesThroughPhi(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Statement{
		{Let: &ast.LetStmt{Name: "x", Expr: intLit(1)}},
		{If: &ast.IfStmt{
			Cond: ident("x"),
			Then: []ast.Statement{{Assign: &ast.AssignStmt{Name: "x", Expr: intLit(2)}}},
			Else: []ast.Statement{{Assign: &ast.AssignStmt{Name: "x", Expr: intLit(3)}}},
		}},
		{FieldWrite: &ast.FieldWriteStmt{Device: "d0", Attribute: "Setting", Expr: ident("x")}},
	}}

	p, err := Build(prog)
	require.NoError(t, err)
	require.Len(t, p.Blocks, 4, "entry, then, else, join")

	join := p.Blocks[3]
	var sawPhi bool
	for _, instr := range join.Instructions {
		if a, ok := instr.(Assignment); ok {
			if _, ok := a.Value.(Phi); ok {
				sawPhi = true
			}
		}
	}
	assert.True(t, sawPhi, "x's join-point read should resolve to a 2-operand phi")
}

func TestBuildLoopBodyResolvesPhiOnSeal(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Statement{
		{Let: &ast.LetStmt{Name: "x", Expr: intLit(0)}},
		{Loop: &ast.LoopStmt{Body: []ast.Statement{
			{Assign: &ast.AssignStmt{Name: "x", Expr: binary(ident("x"), ast.Add, intLit(1))}},
			{Yield: &ast.YieldStmt{}},
		}}},
	}}

	p, err := Build(prog)
	require.NoError(t, err)
	require.Len(t, p.Blocks, 3, "entry, loop body, unreachable after-block")

	after := p.Blocks[2]
	assert.Empty(t, after.Prev, "a loop with no break leaves its after-block with zero predecessors")

	body := p.Blocks[1]
	var sawPhi bool
	for _, instr := range body.Instructions {
		if a, ok := instr.(Assignment); ok {
			if _, ok := a.Value.(Phi); ok {
				sawPhi = true
			}
		}
	}
	assert.True(t, sawPhi, "x read at loop entry should become a phi once the back-edge resolves it")
}

func TestBuildLoopPropagatesSealingToNestedIfJoin(t *testing.T) {
	// let x = 0; loop { if x < 10 { x = x + 1; } store(d0, Setting, x); yield; }
	//
	// Regression test: the if-join inside the loop body must seal as soon
	// as both its branches are lowered, independent of the loop body's own
	// (not-yet-sealed) state, or the store below reads an unresolved,
	// empty phi instead of a real 2-operand one.
	prog := &ast.Program{Statements: []ast.Statement{
		{Let: &ast.LetStmt{Name: "x", Expr: intLit(0)}},
		{Loop: &ast.LoopStmt{Body: []ast.Statement{
			{If: &ast.IfStmt{
				Cond: binary(ident("x"), ast.Lt, intLit(10)),
				Then: []ast.Statement{{Assign: &ast.AssignStmt{Name: "x", Expr: binary(ident("x"), ast.Add, intLit(1))}}},
			}},
			{FieldWrite: &ast.FieldWriteStmt{Device: "d0", Attribute: "Setting", Expr: ident("x")}},
			{Yield: &ast.YieldStmt{}},
		}}},
	}}

	p, err := Build(prog)
	require.NoError(t, err)

	var sawStore bool
	for _, blk := range p.Blocks {
		for _, instr := range blk.Instructions {
			a, ok := instr.(Assignment)
			if !ok {
				continue
			}
			c, ok := a.Value.(Call)
			if !ok || c.Name != PrimitiveStore {
				continue
			}
			sawStore = true
			require.Len(t, c.Args, 3)
			def := findDef(p, c.Args[2])
			require.NotNil(t, def, "the stored value must resolve to a real definition")
			if phi, ok := def.(Phi); ok {
				assert.NotEmpty(t, phi.Args, "the if-join's phi must not be left empty/unresolved")
			}
		}
	}
	assert.True(t, sawStore)
}

// findDef looks up the VarValue that defines operand's VarId, across every
// block, for asserting on what a read ultimately resolved to.
func findDef(p *Program, operand VarOrConst) VarValue {
	if operand.Kind != KindVar {
		return nil
	}
	for _, blk := range p.Blocks {
		for _, instr := range blk.Instructions {
			if a, ok := instr.(Assignment); ok && a.Id == operand.Var {
				return a.Value
			}
		}
	}
	return nil
}

func TestBuildUndefinedNameFails(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Statement{
		{FieldWrite: &ast.FieldWriteStmt{Device: "d0", Attribute: "Setting", Expr: ident("never_defined")}},
	}}

	_, err := Build(prog)
	require.Error(t, err)
	de, ok := err.(*diag.Error)
	require.True(t, ok)
	assert.Equal(t, diag.UndefinedName, de.Kind)
}

func TestBuildUnaryIsUnsupported(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Statement{
		{ExprStmt: &ast.ExprStmt{Expr: ast.Expr{Unary: &ast.UnaryExpr{Op: ast.Not, Value: ident("x")}}}},
	}}

	_, err := Build(prog)
	require.Error(t, err)
	de, ok := err.(*diag.Error)
	require.True(t, ok)
	assert.Equal(t, diag.UnsupportedSyntax, de.Kind)
}

func TestBuildUnknownCallFails(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Statement{
		{ExprStmt: &ast.ExprStmt{Expr: ast.Expr{Call: &ast.CallExpr{Name: "frobnicate"}}}},
	}}

	_, err := Build(prog)
	require.Error(t, err)
	de, ok := err.(*diag.Error)
	require.True(t, ok)
	assert.Equal(t, diag.UnknownCall, de.Kind)
}

func TestBuildFunctionParamsAndReturn(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Statement{
		{Function: &ast.FunctionStmt{
			Name:   "double",
			Params: []string{"a"},
			Body: []ast.Statement{
				{Return: &ast.ReturnStmt{Expr: exprPtr(binary(ident("a"), ast.Add, ident("a")))}},
			},
		}},
		{Let: &ast.LetStmt{Name: "x", Expr: ast.Expr{Call: &ast.CallExpr{Name: "double", Args: []ast.Expr{intLit(21)}}}}},
	}}

	p, err := Build(prog)
	require.NoError(t, err)
	require.Contains(t, p.Functions, "double")

	fn := p.Functions["double"]
	entry := p.Block(fn.Entry)
	var sawParam bool
	for _, instr := range entry.Instructions {
		if a, ok := instr.(Assignment); ok {
			if param, ok := a.Value.(Param); ok {
				sawParam = true
				assert.Equal(t, 0, param.Index)
			}
		}
	}
	assert.True(t, sawParam, "the function's first statement should bind parameter 0")
}

func exprPtr(e ast.Expr) *ast.Expr { return &e }
