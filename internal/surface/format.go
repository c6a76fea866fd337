package surface

import (
	"fmt"
	"strconv"
	"strings"

	"devicemips/internal/ast"
)

// Format renders an AST back to surface-language text. Pretty-printing is
// named a deliberately-out-of-scope collaborator concern in spec §1, so
// this is a minimal, functional renderer for the CLI's `format` command,
// not a spec-governed component with its own invariants.
func Format(p *ast.Program) string {
	var sb strings.Builder
	writeStatements(&sb, p.Statements, 0)
	return sb.String()
}

func indent(sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat("    ", depth))
}

func writeStatements(sb *strings.Builder, stmts []ast.Statement, depth int) {
	for _, s := range stmts {
		writeStatement(sb, s, depth)
	}
}

func writeStatement(sb *strings.Builder, s ast.Statement, depth int) {
	indent(sb, depth)
	switch {
	case s.Let != nil:
		fmt.Fprintf(sb, "let %s = %s;\n", s.Let.Name, writeExpr(s.Let.Expr))
	case s.Const != nil:
		fmt.Fprintf(sb, "const %s = %s;\n", s.Const.Name, writeExpr(s.Const.Expr))
	case s.Assign != nil:
		fmt.Fprintf(sb, "%s = %s;\n", s.Assign.Name, writeExpr(s.Assign.Expr))
	case s.FieldWrite != nil:
		fmt.Fprintf(sb, "%s.%s = %s;\n", s.FieldWrite.Device, s.FieldWrite.Attribute, writeExpr(s.FieldWrite.Expr))
	case s.Function != nil:
		fmt.Fprintf(sb, "fn %s(%s) {\n", s.Function.Name, strings.Join(s.Function.Params, ", "))
		writeStatements(sb, s.Function.Body, depth+1)
		indent(sb, depth)
		sb.WriteString("}\n")
	case s.Block != nil:
		sb.WriteString("{\n")
		writeStatements(sb, s.Block.Body, depth+1)
		indent(sb, depth)
		sb.WriteString("}\n")
	case s.Loop != nil:
		sb.WriteString("loop {\n")
		writeStatements(sb, s.Loop.Body, depth+1)
		indent(sb, depth)
		sb.WriteString("}\n")
	case s.If != nil:
		fmt.Fprintf(sb, "if %s {\n", writeExpr(s.If.Cond))
		writeStatements(sb, s.If.Then, depth+1)
		indent(sb, depth)
		if len(s.If.Else) > 0 {
			sb.WriteString("} else {\n")
			writeStatements(sb, s.If.Else, depth+1)
			indent(sb, depth)
		}
		sb.WriteString("}\n")
	case s.Yield != nil:
		sb.WriteString("yield;\n")
	case s.Return != nil:
		if s.Return.Expr != nil {
			fmt.Fprintf(sb, "return %s;\n", writeExpr(*s.Return.Expr))
		} else {
			sb.WriteString("return;\n")
		}
	case s.ExprStmt != nil:
		fmt.Fprintf(sb, "%s;\n", writeExpr(s.ExprStmt.Expr))
	}
}

func writeExpr(e ast.Expr) string {
	switch {
	case e.IntLit != nil:
		return strconv.FormatInt(*e.IntLit, 10)
	case e.FloatLit != nil:
		return strconv.FormatFloat(*e.FloatLit, 'g', -1, 64)
	case e.BoolLit != nil:
		return strconv.FormatBool(*e.BoolLit)
	case e.Identifier != nil:
		return *e.Identifier
	case e.Field != nil:
		return e.Field.Device + "." + e.Field.Attribute
	case e.Unary != nil:
		return e.Unary.Op.String() + writeExpr(e.Unary.Value)
	case e.Binary != nil:
		return fmt.Sprintf("(%s %s %s)", writeExpr(e.Binary.LHS), e.Binary.Op, writeExpr(e.Binary.RHS))
	case e.Call != nil:
		args := make([]string, len(e.Call.Args))
		for i, a := range e.Call.Args {
			args[i] = writeExpr(a)
		}
		return fmt.Sprintf("%s(%s)", e.Call.Name, strings.Join(args, ", "))
	default:
		return "?"
	}
}
