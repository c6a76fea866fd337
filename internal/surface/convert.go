package surface

import "devicemips/internal/ast"

// toAST lowers the participle parse tree to the builder's AST contract.
// Each fold* function eliminates one precedence level's left recursion
// back into a left-associative ast.BinaryExpr chain.
func toAST(p *Program) *ast.Program {
	return &ast.Program{Statements: toStatements(p.Statements)}
}

func toStatements(in []*Statement) []ast.Statement {
	out := make([]ast.Statement, len(in))
	for i, s := range in {
		out[i] = toStatement(s)
	}
	return out
}

func toStatement(s *Statement) ast.Statement {
	switch {
	case s.Let != nil:
		return ast.Statement{Let: &ast.LetStmt{Name: s.Let.Name, Expr: toExpr(s.Let.Expr)}}
	case s.Const != nil:
		return ast.Statement{Const: &ast.ConstStmt{Name: s.Const.Name, Expr: toExpr(s.Const.Expr)}}
	case s.Function != nil:
		return ast.Statement{Function: &ast.FunctionStmt{
			Name:   s.Function.Name,
			Params: s.Function.Params,
			Body:   toStatements(s.Function.Body),
		}}
	case s.Loop != nil:
		return ast.Statement{Loop: &ast.LoopStmt{Body: toStatements(s.Loop.Body)}}
	case s.If != nil:
		return ast.Statement{If: &ast.IfStmt{
			Cond: toExpr(s.If.Cond),
			Then: toStatements(s.If.Then),
			Else: toStatements(s.If.Else),
		}}
	case s.Yield != nil:
		return ast.Statement{Yield: &ast.YieldStmt{}}
	case s.Return != nil:
		var e *ast.Expr
		if s.Return.Expr != nil {
			v := toExpr(s.Return.Expr)
			e = &v
		}
		return ast.Statement{Return: &ast.ReturnStmt{Expr: e}}
	case s.FieldWrite != nil:
		return ast.Statement{FieldWrite: &ast.FieldWriteStmt{
			Device:    s.FieldWrite.Device,
			Attribute: s.FieldWrite.Attribute,
			Expr:      toExpr(s.FieldWrite.Expr),
		}}
	case s.Assign != nil:
		return ast.Statement{Assign: &ast.AssignStmt{Name: s.Assign.Name, Expr: toExpr(s.Assign.Expr)}}
	case s.Block != nil:
		return ast.Statement{Block: &ast.BlockStmt{Body: toStatements(s.Block.Body)}}
	case s.ExprStmt != nil:
		return ast.Statement{ExprStmt: &ast.ExprStmt{Expr: toExpr(s.ExprStmt.Expr)}}
	default:
		return ast.Statement{}
	}
}

func toExpr(e *Expr) ast.Expr { return foldOr(e.Or) }

func foldOr(o *OrExpr) ast.Expr {
	left := foldAnd(o.Left)
	for _, rhs := range o.Ops {
		left = ast.Expr{Binary: &ast.BinaryExpr{LHS: left, Op: ast.Or, RHS: foldAnd(rhs)}}
	}
	return left
}

func foldAnd(a *AndExpr) ast.Expr {
	left := foldEq(a.Left)
	for _, rhs := range a.Ops {
		left = ast.Expr{Binary: &ast.BinaryExpr{LHS: left, Op: ast.And, RHS: foldEq(rhs)}}
	}
	return left
}

func foldEq(e *EqExpr) ast.Expr {
	left := foldRel(e.Left)
	for _, op := range e.Ops {
		o := ast.Eq
		if op.Op == "!=" {
			o = ast.Ne
		}
		left = ast.Expr{Binary: &ast.BinaryExpr{LHS: left, Op: o, RHS: foldRel(op.Right)}}
	}
	return left
}

func foldRel(r *RelExpr) ast.Expr {
	left := foldAdd(r.Left)
	for _, op := range r.Ops {
		var o ast.BinaryOp
		switch op.Op {
		case ">=":
			o = ast.Ge
		case "<=":
			o = ast.Le
		case ">":
			o = ast.Gt
		default:
			o = ast.Lt
		}
		left = ast.Expr{Binary: &ast.BinaryExpr{LHS: left, Op: o, RHS: foldAdd(op.Right)}}
	}
	return left
}

func foldAdd(a *AddExpr) ast.Expr {
	left := foldMul(a.Left)
	for _, op := range a.Ops {
		o := ast.Add
		if op.Op == "-" {
			o = ast.Sub
		}
		left = ast.Expr{Binary: &ast.BinaryExpr{LHS: left, Op: o, RHS: foldMul(op.Right)}}
	}
	return left
}

func foldMul(m *MulExpr) ast.Expr {
	left := foldUnary(m.Left)
	for _, op := range m.Ops {
		o := ast.Mul
		if op.Op == "/" {
			o = ast.Div
		}
		left = ast.Expr{Binary: &ast.BinaryExpr{LHS: left, Op: o, RHS: foldUnary(op.Right)}}
	}
	return left
}

func foldUnary(u *UnaryExpr) ast.Expr {
	prim := foldPrimary(u.Primary)
	if u.Op == nil {
		return prim
	}
	op := ast.Not
	if *u.Op == "-" {
		op = ast.Neg
	}
	return ast.Expr{Unary: &ast.UnaryExpr{Op: op, Value: prim}}
}

func foldPrimary(p *Primary) ast.Expr {
	switch {
	case p.Call != nil:
		args := make([]ast.Expr, len(p.Call.Args))
		for i, a := range p.Call.Args {
			args[i] = toExpr(a)
		}
		return ast.Expr{Call: &ast.CallExpr{Name: p.Call.Name, Args: args}}
	case p.Field != nil:
		return ast.Expr{Field: &ast.FieldExpr{Device: p.Field.Device, Attribute: p.Field.Attribute}}
	case p.Float != nil:
		v := *p.Float
		return ast.Expr{FloatLit: &v}
	case p.Int != nil:
		v := *p.Int
		return ast.Expr{IntLit: &v}
	case p.Bool != nil:
		v := *p.Bool == "true"
		return ast.Expr{BoolLit: &v}
	case p.Ident != nil:
		v := *p.Ident
		return ast.Expr{Identifier: &v}
	case p.Paren != nil:
		return toExpr(p.Paren)
	default:
		return ast.Expr{}
	}
}
