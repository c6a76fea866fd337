// Package ir implements the SSA-form control-flow graph of spec §3–§4.2:
// dense-index VarIds and BlockIds, a Braun-et-al IR Builder with sealed
// blocks and incomplete phis, and an inline+DCE Optimizer.
//
// Instruction, VarValue and VarOrConst are closed sums (spec's DESIGN
// NOTES: "tagged variants over inheritance"). Each is modeled the way
// kanso's own internal/ir/types.go models its Instruction/Terminator
// hierarchy: a small interface plus one concrete struct per variant, so
// every use site does an exhaustive type switch instead of relying on
// virtual dispatch.
package ir

import "fmt"

// VarId is an opaque dense integer identifying an SSA value. Each VarId is
// assigned exactly once across a compilation (SSA invariant).
type VarId int

// BlockId is an opaque dense integer naming a basic block.
type BlockId int

// VarOrConstKind tags the three cases of VarOrConst.
type VarOrConstKind int

const (
	KindVar VarOrConstKind = iota
	KindConst
	KindExternal
)

// VarOrConst is a tagged variant: a reference to an SSA value, a literal
// f64, or a symbolic external name (a device or device-attribute, spec
// §3). Exactly one of Var/Const/External is meaningful, selected by Kind.
type VarOrConst struct {
	Kind     VarOrConstKind
	Var      VarId
	Const    float64
	External string
}

// Var constructs a VarOrConst referencing an SSA value.
func Var(id VarId) VarOrConst { return VarOrConst{Kind: KindVar, Var: id} }

// Const constructs a VarOrConst literal.
func Const(f float64) VarOrConst { return VarOrConst{Kind: KindConst, Const: f} }

// External constructs a VarOrConst naming a device/attribute.
func External(name string) VarOrConst { return VarOrConst{Kind: KindExternal, External: name} }

func (v VarOrConst) String() string {
	switch v.Kind {
	case KindVar:
		return fmt.Sprintf("v%d", v.Var)
	case KindConst:
		return fmt.Sprintf("%g", v.Const)
	case KindExternal:
		return v.External
	default:
		return "?"
	}
}

// UsedVars returns the VarIds this operand references (zero or one).
func (v VarOrConst) UsedVars() []VarId {
	if v.Kind == KindVar {
		return []VarId{v.Var}
	}
	return nil
}

// BinOp enumerates the arithmetic/logic/comparison operators of spec §3.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpAnd
	OpOr
	OpEq
	OpNe
	OpGt
	OpGe
	OpLt
	OpLe
)

func (op BinOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	default:
		return "?"
	}
}

// VarValue is a closed sum: the right-hand side of an Assignment.
type VarValue interface {
	isVarValue()
	// UsedVars returns the VarIds this value reads, in a stable order.
	UsedVars() []VarId
	String() string
}

// Single is a pure copy/materialization of an operand.
type Single struct {
	Src VarOrConst
}

func (Single) isVarValue() {}
func (s Single) UsedVars() []VarId { return s.Src.UsedVars() }
func (s Single) String() string { return s.Src.String() }

// Phi is a join of values from predecessors, one per predecessor of the
// owning block, positionally consistent with Block.Prev.
type Phi struct {
	Args []VarId
}

func (Phi) isVarValue() {}
func (p Phi) UsedVars() []VarId {
	out := make([]VarId, len(p.Args))
	copy(out, p.Args)
	return out
}
func (p Phi) String() string {
	s := "phi("
	for i, a := range p.Args {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("v%d", a)
	}
	return s + ")"
}

// Param is a function parameter's value, bound to the fixed calling
// convention of SPEC_FULL.md §3: the i-th argument arrives in register
// r(i) immediately before the call's `jal`.
type Param struct {
	Index int
}

func (Param) isVarValue() {}
func (p Param) UsedVars() []VarId { return nil }
func (p Param) String() string { return fmt.Sprintf("param(%d)", p.Index) }

// BinaryOp is lhs `op` rhs.
type BinaryOp struct {
	LHS VarOrConst
	Op  BinOp
	RHS VarOrConst
}

func (BinaryOp) isVarValue() {}
func (b BinaryOp) UsedVars() []VarId {
	return append(b.LHS.UsedVars(), b.RHS.UsedVars()...)
}
func (b BinaryOp) String() string {
	return fmt.Sprintf("%s %s %s", b.LHS, b.Op, b.RHS)
}

// Call is a primitive (store/load) or user-function invocation.
type Call struct {
	Name string
	Args []VarOrConst
}

func (Call) isVarValue() {}
func (c Call) UsedVars() []VarId {
	var out []VarId
	for _, a := range c.Args {
		out = append(out, a.UsedVars()...)
	}
	return out
}
func (c Call) String() string {
	s := c.Name + "("
	for i, a := range c.Args {
		if i > 0 {
			s += ", "
		}
		s += a.String()
	}
	return s + ")"
}

const (
	// PrimitiveStore is the reserved store(device, attr, value) call.
	PrimitiveStore = "store"
	// PrimitiveLoad is the reserved load(device, attr) call.
	PrimitiveLoad = "load"
)

// Instruction is a closed sum: Assignment, Branch, Yield, or Return.
type Instruction interface {
	isInstruction()
	String() string
}

// Assignment defines Id with Value.
type Assignment struct {
	Id    VarId
	Value VarValue
}

func (Assignment) isInstruction() {}
func (a Assignment) String() string {
	return fmt.Sprintf("v%d = %s", a.Id, a.Value)
}

// Branch is a terminator producing two successors.
type Branch struct {
	Cond       VarOrConst
	TrueBlock  BlockId
	FalseBlock BlockId
}

func (Branch) isInstruction() {}
func (b Branch) String() string {
	return fmt.Sprintf("branch %s ? b%d : b%d", b.Cond, b.TrueBlock, b.FalseBlock)
}

// Yield is an explicit suspension point.
type Yield struct{}

func (Yield) isInstruction() {}
func (Yield) String() string { return "yield" }

// Return is a function return.
type Return struct {
	Value VarOrConst
	// HasValue distinguishes `return;` from `return e;`; spec's AST
	// always carries an Expr for Return, but the supplemented function
	// feature (SPEC_FULL.md §3) allows a bare `return;` to fall through
	// as "no value", represented by HasValue=false.
	HasValue bool
}

func (Return) isInstruction() {}
func (r Return) String() string {
	if !r.HasValue {
		return "return"
	}
	return fmt.Sprintf("return %s", r.Value)
}

// Block is an ordered instruction sequence plus predecessor/successor
// BlockIds. Invariant: a Branch, if present, is the last instruction;
// len(Next) is 0, 1, or 2.
type Block struct {
	Id           BlockId
	Instructions []Instruction
	Prev         []BlockId
	Next         []BlockId
}

// Terminator returns the block's last instruction if it is a Branch or a
// Return, else nil (a trailing Yield is not a terminator).
func (b *Block) Terminator() Instruction {
	if len(b.Instructions) == 0 {
		return nil
	}
	last := b.Instructions[len(b.Instructions)-1]
	switch last.(type) {
	case Branch, Return:
		return last
	default:
		return nil
	}
}

// Function names an entry block and (if user functions are used) its
// declared parameters, in the fixed calling convention of SPEC_FULL.md §3:
// the i-th parameter is read from r(i) at entry.
type Function struct {
	Name   string
	Entry  BlockId
	Params []string
}

// Program is a vector of Blocks; block 0 is the entry. Functions maps
// declared function names to their entry blocks (spec §3's "distinguished
// function table (optional)").
type Program struct {
	Blocks    []*Block
	Functions map[string]*Function
}

// Block looks up a block by id.
func (p *Program) Block(id BlockId) *Block {
	return p.Blocks[id]
}
