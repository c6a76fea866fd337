package ir

import (
	"fmt"

	"devicemips/internal/ast"
	"devicemips/internal/diag"
)

// deviceNames and attributeNames are the fixed, hardcoded set spec §4.1
// and §9's open question settle on ("assume fixed for now").
var deviceNames = []string{"db", "d0", "d1", "d2", "d3", "d4", "d5"}
var attributeNames = []string{"Setting", "Temperature", "Pressure", "Power", "On"}

type unresolvedPhi struct {
	name  string
	id    VarId
	index int
}

// Builder translates an *ast.Program into a *Program in pruned SSA form,
// implementing Braun et al.'s "Simple and Efficient Construction of SSA
// Form" via sealed blocks and incomplete phis (spec §4.1).
type Builder struct {
	prog *Program

	defs           map[string]map[BlockId]VarId
	nextVar        VarId
	sealed         map[BlockId]bool
	unresolvedPhis map[BlockId][]unresolvedPhi
	consts         map[string]VarOrConst

	currentBlock BlockId
}

// NewBuilder creates a Builder with the entry block already sealed and
// the fixed device/attribute names seeded as externals (spec §4.1
// Initialization).
func NewBuilder() *Builder {
	b := &Builder{
		prog:           &Program{Functions: map[string]*Function{}},
		defs:           map[string]map[BlockId]VarId{},
		sealed:         map[BlockId]bool{},
		unresolvedPhis: map[BlockId][]unresolvedPhi{},
		consts:         map[string]VarOrConst{},
	}
	entry := b.createBlock()
	b.sealed[entry] = true
	b.currentBlock = entry

	for _, d := range deviceNames {
		b.consts[d] = External(d)
	}
	for _, a := range attributeNames {
		b.consts[a] = External(a)
	}
	return b
}

// Build lowers prog's statements starting in the entry block and returns
// the resulting Program.
func Build(prog *ast.Program) (*Program, error) {
	b := NewBuilder()

	// Pre-pass: register function entry blocks so calls that textually
	// precede a declaration still resolve (SPEC_FULL.md §3).
	for _, s := range prog.Statements {
		if s.Function == nil {
			continue
		}
		fn := s.Function
		entry := b.createBlock()
		b.sealed[entry] = true
		b.prog.Functions[fn.Name] = &Function{Name: fn.Name, Entry: entry, Params: fn.Params}
	}

	if err := b.lowerStatements(prog.Statements); err != nil {
		return nil, err
	}

	// Second pass: build each function's body in its pre-registered
	// entry block.
	for _, s := range prog.Statements {
		if s.Function == nil {
			continue
		}
		fn := b.prog.Functions[s.Function.Name]
		saved := b.currentBlock
		b.currentBlock = fn.Entry
		for i, p := range s.Function.Params {
			id := b.newVar()
			b.addInstruction(b.currentBlock, Assignment{Id: id, Value: Param{Index: i}})
			b.setDef(p, b.currentBlock, id)
		}
		if err := b.lowerStatements(s.Function.Body); err != nil {
			return nil, err
		}
		b.currentBlock = saved
	}

	return b.prog, nil
}

func (b *Builder) createBlock() BlockId {
	id := BlockId(len(b.prog.Blocks))
	blk := &Block{Id: id}
	b.prog.Blocks = append(b.prog.Blocks, blk)
	return id
}

func (b *Builder) connect(from, to BlockId) {
	b.prog.Blocks[from].Next = append(b.prog.Blocks[from].Next, to)
	b.prog.Blocks[to].Prev = append(b.prog.Blocks[to].Prev, from)
}

func (b *Builder) addInstruction(block BlockId, instr Instruction) int {
	blk := b.prog.Blocks[block]
	blk.Instructions = append(blk.Instructions, instr)
	return len(blk.Instructions) - 1
}

func (b *Builder) newVar() VarId {
	v := b.nextVar
	b.nextVar++
	return v
}

func (b *Builder) setDef(name string, block BlockId, id VarId) {
	m, ok := b.defs[name]
	if !ok {
		m = map[BlockId]VarId{}
		b.defs[name] = m
	}
	m[block] = id
}

// readVariable implements spec §4.1's three-case algorithm.
func (b *Builder) readVariable(block BlockId, name string) (VarId, error) {
	if m, ok := b.defs[name]; ok {
		if id, ok := m[block]; ok {
			return id, nil
		}
	}

	if !b.sealed[block] {
		id := b.newVar()
		index := b.addInstruction(block, Assignment{Id: id, Value: Phi{}})
		b.setDef(name, block, id)
		b.unresolvedPhis[block] = append(b.unresolvedPhis[block], unresolvedPhi{name: name, id: id, index: index})
		return id, nil
	}

	preds := b.prog.Blocks[block].Prev
	if len(preds) == 0 {
		return 0, diag.Undefined(name)
	}

	id := b.newVar()
	b.setDef(name, block, id) // pre-record to terminate cycles

	operands := make([]VarId, 0, len(preds))
	for _, p := range preds {
		v, err := b.readVariable(p, name)
		if err != nil {
			return 0, err
		}
		operands = append(operands, v)
	}

	var value VarValue
	if len(operands) == 1 {
		value = Single{Src: Var(operands[0])}
	} else {
		value = Phi{Args: operands}
	}
	b.addInstruction(block, Assignment{Id: id, Value: value})
	return id, nil
}

// seal marks block sealed and resolves every phi recorded against it
// while it was unsealed (spec §4.1 Sealing).
func (b *Builder) seal(block BlockId) error {
	b.sealed[block] = true
	pending := b.unresolvedPhis[block]
	delete(b.unresolvedPhis, block)

	for _, up := range pending {
		var operands []VarId
		for _, p := range b.prog.Blocks[block].Prev {
			v, err := b.readVariable(p, up.name)
			if err != nil {
				return err
			}
			if v == up.id {
				// skip the self-reference to avoid a trivial self-loop
				continue
			}
			operands = append(operands, v)
		}
		blk := b.prog.Blocks[block]
		blk.Instructions[up.index] = Assignment{Id: up.id, Value: Phi{Args: operands}}
	}
	return nil
}

func (b *Builder) lowerStatements(stmts []ast.Statement) error {
	for _, s := range stmts {
		if err := b.lowerStatement(s); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) lowerStatement(s ast.Statement) error {
	switch {
	case s.Let != nil:
		return b.lowerDefine(s.Let.Name, s.Let.Expr)
	case s.Assign != nil:
		return b.lowerDefine(s.Assign.Name, s.Assign.Expr)
	case s.FieldWrite != nil:
		value, err := b.lowerExpr(s.FieldWrite.Expr)
		if err != nil {
			return err
		}
		call := Call{Name: PrimitiveStore, Args: []VarOrConst{
			External(s.FieldWrite.Device), External(s.FieldWrite.Attribute), value,
		}}
		b.addInstruction(b.currentBlock, Assignment{Id: b.newVar(), Value: call})
		return nil
	case s.Const != nil:
		value, err := b.lowerExpr(s.Const.Expr)
		if err != nil {
			return err
		}
		b.consts[s.Const.Name] = value
		return nil
	case s.Function != nil:
		return nil // built in the second pass of Build
	case s.ExprStmt != nil:
		_, err := b.lowerExpr(s.ExprStmt.Expr)
		return err
	case s.Block != nil:
		return b.lowerStatements(s.Block.Body)
	case s.Loop != nil:
		return b.lowerLoop(s.Loop)
	case s.If != nil:
		return b.lowerIf(s.If)
	case s.Yield != nil:
		b.addInstruction(b.currentBlock, Yield{})
		return nil
	case s.Return != nil:
		if s.Return.Expr == nil {
			b.addInstruction(b.currentBlock, Return{HasValue: false})
			return nil
		}
		value, err := b.lowerExpr(*s.Return.Expr)
		if err != nil {
			return err
		}
		b.addInstruction(b.currentBlock, Return{Value: value, HasValue: true})
		return nil
	default:
		return diag.Unsupported("empty or unrecognized statement")
	}
}

func (b *Builder) lowerDefine(name string, e ast.Expr) error {
	value, err := b.lowerExpr(e)
	if err != nil {
		return err
	}
	if value.Kind == KindVar {
		b.setDef(name, b.currentBlock, value.Var)
		return nil
	}
	id := b.newVar()
	b.addInstruction(b.currentBlock, Assignment{Id: id, Value: Single{Src: value}})
	b.setDef(name, b.currentBlock, id)
	return nil
}

func (b *Builder) lowerIf(s *ast.IfStmt) error {
	savedCurrent := b.currentBlock

	cond, err := b.lowerExpr(s.Cond)
	if err != nil {
		return err
	}

	// tBlock and fBlock each gain exactly one predecessor, ever
	// (savedCurrent, connected right here), independent of whether
	// savedCurrent itself is sealed — so both seal immediately (spec
	// §4.1 Sealing: seal as soon as a block's full predecessor set is
	// known, not when the enclosing block happens to be sealed).
	tBlock := b.createBlock()
	fBlock := b.createBlock()
	b.connect(savedCurrent, tBlock)
	b.connect(savedCurrent, fBlock)
	b.addInstruction(savedCurrent, Branch{Cond: cond, TrueBlock: tBlock, FalseBlock: fBlock})
	b.sealed[tBlock] = true
	b.sealed[fBlock] = true

	b.currentBlock = tBlock
	if err := b.lowerStatements(s.Then); err != nil {
		return err
	}
	tEnd := b.currentBlock

	b.currentBlock = fBlock
	if err := b.lowerStatements(s.Else); err != nil {
		return err
	}
	fEnd := b.currentBlock

	// join's predecessors are exactly {tEnd, fEnd}, both known the
	// instant both connects below complete — seal it unconditionally.
	join := b.createBlock()
	b.connect(tEnd, join)
	b.connect(fEnd, join)
	if err := b.seal(join); err != nil {
		return err
	}

	b.currentBlock = join
	return nil
}

func (b *Builder) lowerLoop(s *ast.LoopStmt) error {
	savedCurrent := b.currentBlock

	body := b.createBlock()
	after := b.createBlock()
	b.connect(savedCurrent, body)

	b.currentBlock = body
	if err := b.lowerStatements(s.Body); err != nil {
		return err
	}
	bodyEnd := b.currentBlock
	b.connect(bodyEnd, body) // back-edge

	// body's predecessors are exactly {savedCurrent, bodyEnd}; the
	// second only becomes known once the back-edge above is installed,
	// but at that point the set is complete regardless of whether
	// savedCurrent is itself sealed, so seal unconditionally.
	if err := b.seal(body); err != nil {
		return err
	}

	// `after` never gains a predecessor: this language has no `break`,
	// so code following an infinite loop is unreachable. Seal it
	// immediately so any read there resolves through case 3 (zero
	// predecessors => UndefinedName) rather than leaving a dangling
	// unresolved phi.
	b.sealed[after] = true
	b.currentBlock = after
	return nil
}

// lowerExpr recurses over e, returning the VarOrConst it evaluates to,
// per spec §4.1 Expression lowering.
func (b *Builder) lowerExpr(e ast.Expr) (VarOrConst, error) {
	switch {
	case e.IntLit != nil:
		return Const(float64(*e.IntLit)), nil
	case e.FloatLit != nil:
		return Const(*e.FloatLit), nil
	case e.BoolLit != nil:
		if *e.BoolLit {
			return Const(1.0), nil
		}
		return Const(0.0), nil
	case e.Identifier != nil:
		name := *e.Identifier
		if v, ok := b.consts[name]; ok {
			return v, nil
		}
		id, err := b.readVariable(b.currentBlock, name)
		if err != nil {
			return VarOrConst{}, err
		}
		return Var(id), nil
	case e.Binary != nil:
		return b.lowerBinary(e.Binary)
	case e.Unary != nil:
		// Unary minus is explicitly cited by spec §7 as an example of
		// UnsupportedSyntax; unary not is rejected the same way, which
		// is also what makes a bare `!x;` statement unsupported (spec
		// §8's negative tests).
		return VarOrConst{}, diag.Unsupported(fmt.Sprintf("unary operator %q", e.Unary.Op))
	case e.Call != nil:
		return b.lowerCall(e.Call)
	case e.Field != nil:
		call := Call{Name: PrimitiveLoad, Args: []VarOrConst{
			External(e.Field.Device), External(e.Field.Attribute),
		}}
		id := b.newVar()
		b.addInstruction(b.currentBlock, Assignment{Id: id, Value: call})
		return Var(id), nil
	default:
		return VarOrConst{}, diag.Unsupported("empty expression")
	}
}

func (b *Builder) lowerBinary(e *ast.BinaryExpr) (VarOrConst, error) {
	lhs, err := b.lowerExpr(e.LHS)
	if err != nil {
		return VarOrConst{}, err
	}
	rhs, err := b.lowerExpr(e.RHS)
	if err != nil {
		return VarOrConst{}, err
	}
	op, err := translateOp(e.Op)
	if err != nil {
		return VarOrConst{}, err
	}
	id := b.newVar()
	b.addInstruction(b.currentBlock, Assignment{Id: id, Value: BinaryOp{LHS: lhs, Op: op, RHS: rhs}})
	return Var(id), nil
}

func translateOp(op ast.BinaryOp) (BinOp, error) {
	switch op {
	case ast.Add:
		return OpAdd, nil
	case ast.Sub:
		return OpSub, nil
	case ast.Mul:
		return OpMul, nil
	case ast.Div:
		return OpDiv, nil
	case ast.And:
		return OpAnd, nil
	case ast.Or:
		return OpOr, nil
	case ast.Eq:
		return OpEq, nil
	case ast.Ne:
		return OpNe, nil
	case ast.Gt:
		return OpGt, nil
	case ast.Ge:
		return OpGe, nil
	case ast.Lt:
		return OpLt, nil
	case ast.Le:
		return OpLe, nil
	default:
		return 0, diag.Unsupported(fmt.Sprintf("binary operator %q", op))
	}
}

func (b *Builder) lowerCall(e *ast.CallExpr) (VarOrConst, error) {
	args := make([]VarOrConst, 0, len(e.Args))
	for _, a := range e.Args {
		v, err := b.lowerExpr(a)
		if err != nil {
			return VarOrConst{}, err
		}
		args = append(args, v)
	}

	if e.Name != PrimitiveStore && e.Name != PrimitiveLoad {
		if _, ok := b.prog.Functions[e.Name]; !ok {
			return VarOrConst{}, diag.UnknownCallTo(e.Name)
		}
	}

	id := b.newVar()
	b.addInstruction(b.currentBlock, Assignment{Id: id, Value: Call{Name: e.Name, Args: args}})
	return Var(id), nil
}
