// Package mips implements the target "device MIPS" instruction set of
// spec §6.2: one instruction per line, whitespace-separated mnemonic and
// operands, with a textual parse/emit pair satisfying
// parse(emit(i)) == i for every instruction the compiler ever emits.
//
// Grounded on original_source/crates/mips/src/instructions.rs: an
// Instruction enum wrapping per-category submodules, each a closed set
// with Display+FromStr. We model the same closed-sum-over-interface
// idiom kanso's IR types use, one concrete struct per category member
// that the code generator actually emits, Label2 and Comment for labels
// and comments, plus a Generic fallback that preserves round-tripping for
// the rest of the target's surface (stack ops, aliasing, sleep/hcf) which
// the compiler itself never emits but which spec §8's broader round-trip
// property covers.
package mips

import (
	"fmt"
	"strconv"
	"strings"
)

// deviceNames/attributeNames mirror internal/ir's fixed set (spec §9
// open question: "assume fixed for now"); duplicated here deliberately
// since this package models the target ISA independent of the IR layer.
var deviceNames = map[string]bool{"db": true, "d0": true, "d1": true, "d2": true, "d3": true, "d4": true, "d5": true}
var attributeNames = map[string]bool{"Setting": true, "Temperature": true, "Pressure": true, "Power": true, "On": true}

// OperandKind tags the four operand shapes spec §6.2 names.
type OperandKind int

const (
	OpReg OperandKind = iota
	OpDevice
	OpAttribute
	OpNumber
	OpLabel // an otherwise-unrecognized identifier, e.g. a jump label
)

// Operand is one instruction argument.
type Operand struct {
	Kind  OperandKind
	Text  string  // register/device/attribute/label name
	Value float64 // meaningful when Kind == OpNumber
}

// Reg builds a register operand. name is one of r0..r15, sp, ra.
func Reg(name string) Operand { return Operand{Kind: OpReg, Text: name} }

// Device builds a device-name operand.
func Device(name string) Operand { return Operand{Kind: OpDevice, Text: name} }

// Attribute builds a device-attribute-name operand.
func Attribute(name string) Operand { return Operand{Kind: OpAttribute, Text: name} }

// Number builds a numeric-literal operand.
func Number(v float64) Operand { return Operand{Kind: OpNumber, Value: v} }

// Label builds a bare-identifier operand (register/device/attribute-name
// shaped tokens are classified as such above this path is reached).
func Label(name string) Operand { return Operand{Kind: OpLabel, Text: name} }

func (o Operand) String() string {
	switch o.Kind {
	case OpNumber:
		return strconv.FormatFloat(o.Value, 'g', -1, 64)
	default:
		return o.Text
	}
}

func parseOperand(tok string) Operand {
	if isRegisterName(tok) {
		return Reg(tok)
	}
	if deviceNames[tok] {
		return Device(tok)
	}
	if attributeNames[tok] {
		return Attribute(tok)
	}
	if v, err := strconv.ParseFloat(tok, 64); err == nil {
		return Number(v)
	}
	return Label(tok)
}

func isRegisterName(tok string) bool {
	if tok == "sp" || tok == "ra" {
		return true
	}
	if len(tok) >= 2 && tok[0] == 'r' {
		if _, err := strconv.Atoi(tok[1:]); err == nil {
			return true
		}
	}
	return false
}

// RegIndex returns the numeric index for r0..r15, or -1 for sp/ra/non-gpr.
func RegIndex(name string) int {
	if len(name) >= 2 && name[0] == 'r' {
		if n, err := strconv.Atoi(name[1:]); err == nil {
			return n
		}
	}
	return -1
}

// Instruction is a closed sum; one concrete type per mnemonic family the
// code generator emits, Label2 and Comment, plus Generic for everything
// else in spec §6.2's surface.
type Instruction interface {
	isInstruction()
	String() string
}

// BinOp is one of add/sub/mul/div/and/or/s{eq,ne,gt,ge,lt,le}: dst, lhs,
// rhs (spec §4.4's Arithmetic/Logic/VariableSelection categories).
type BinOp struct {
	Mnemonic string
	Dst      Operand
	LHS      Operand
	RHS      Operand
}

func (BinOp) isInstruction() {}
func (b BinOp) String() string {
	return fmt.Sprintf("%s %s %s %s", b.Mnemonic, b.Dst, b.LHS, b.RHS)
}

// Move is `move dst, src` (spec §4.4's Single lowering and Misc category).
type Move struct {
	Dst Operand
	Src Operand
}

func (Move) isInstruction() {}
func (m Move) String() string { return fmt.Sprintf("move %s %s", m.Dst, m.Src) }

// Store is `s dev attr reg` (DeviceIo).
type Store struct {
	Dev  Operand
	Attr Operand
	Src  Operand
}

func (Store) isInstruction() {}
func (s Store) String() string {
	return fmt.Sprintf("s %s %s %s", s.Dev, s.Attr, s.Src)
}

// Load is `l reg, dev, attr` (DeviceIo).
type Load struct {
	Dst  Operand
	Dev  Operand
	Attr Operand
}

func (Load) isInstruction() {}
func (l Load) String() string {
	return fmt.Sprintf("l %s %s %s", l.Dst, l.Dev, l.Attr)
}

// BranchEqualZero is `beqz reg, target` (FlowControl).
type BranchEqualZero struct {
	Cond   Operand
	Target Operand
}

func (BranchEqualZero) isInstruction() {}
func (b BranchEqualZero) String() string {
	return fmt.Sprintf("beqz %s %s", b.Cond, b.Target)
}

// Jump is `j target`.
type Jump struct {
	Target Operand
}

func (Jump) isInstruction() {}
func (j Jump) String() string { return fmt.Sprintf("j %s", j.Target) }

// JumpAndLink is `jal target`.
type JumpAndLink struct {
	Target Operand
}

func (JumpAndLink) isInstruction() {}
func (j JumpAndLink) String() string { return fmt.Sprintf("jal %s", j.Target) }

// JumpRegister is `jr reg`.
type JumpRegister struct {
	Reg Operand
}

func (JumpRegister) isInstruction() {}
func (j JumpRegister) String() string { return fmt.Sprintf("jr %s", j.Reg) }

// YieldInstr is `yield`.
type YieldInstr struct{}

func (YieldInstr) isInstruction() {}
func (YieldInstr) String() string { return "yield" }

// Label2 is `name:` (Misc).
type Label2 struct {
	Name string
}

func (Label2) isInstruction() {}
func (l Label2) String() string { return l.Name + ":" }

// Comment is `# text` (Misc).
type Comment struct {
	Text string
}

func (Comment) isInstruction() {}
func (c Comment) String() string { return "# " + c.Text }

// Generic is any instruction this compiler never emits itself (push,
// pop, peek, alias, define, sleep, hcf, the relative-branch family,
// ...) but which spec §6.2's round-trip law still covers for arbitrary
// target text. Preserving mnemonic + operands verbatim is sufficient
// for parse(emit(i)) == i.
type Generic struct {
	Mnemonic string
	Operands []Operand
}

func (Generic) isInstruction() {}
func (g Generic) String() string {
	parts := make([]string, len(g.Operands))
	for i, o := range g.Operands {
		parts[i] = o.String()
	}
	if len(parts) == 0 {
		return g.Mnemonic
	}
	return g.Mnemonic + " " + strings.Join(parts, " ")
}

var binOpMnemonics = map[string]bool{
	"add": true, "sub": true, "mul": true, "div": true,
	"and": true, "or": true,
	"seq": true, "sne": true, "sgt": true, "sge": true, "slt": true, "sle": true,
}

// Parse parses one line of target text into an Instruction. Comments and
// labels are recognized by leading `#`/trailing `:`; everything else is
// split on whitespace into a mnemonic and operands.
func Parse(line string) (Instruction, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil, fmt.Errorf("mips: empty instruction line")
	}
	if strings.HasPrefix(trimmed, "#") {
		return Comment{Text: strings.TrimSpace(strings.TrimPrefix(trimmed, "#"))}, nil
	}
	if strings.HasSuffix(trimmed, ":") && !strings.Contains(trimmed, " ") {
		return Label2{Name: strings.TrimSuffix(trimmed, ":")}, nil
	}

	fields := strings.Fields(trimmed)
	mnemonic := fields[0]
	operands := make([]Operand, len(fields)-1)
	for i, f := range fields[1:] {
		operands[i] = parseOperand(f)
	}

	switch {
	case binOpMnemonics[mnemonic] && len(operands) == 3:
		return BinOp{Mnemonic: mnemonic, Dst: operands[0], LHS: operands[1], RHS: operands[2]}, nil
	case mnemonic == "move" && len(operands) == 2:
		return Move{Dst: operands[0], Src: operands[1]}, nil
	case mnemonic == "s" && len(operands) == 3:
		return Store{Dev: operands[0], Attr: operands[1], Src: operands[2]}, nil
	case mnemonic == "l" && len(operands) == 3:
		return Load{Dst: operands[0], Dev: operands[1], Attr: operands[2]}, nil
	case mnemonic == "beqz" && len(operands) == 2:
		return BranchEqualZero{Cond: operands[0], Target: operands[1]}, nil
	case mnemonic == "j" && len(operands) == 1:
		return Jump{Target: operands[0]}, nil
	case mnemonic == "jal" && len(operands) == 1:
		return JumpAndLink{Target: operands[0]}, nil
	case mnemonic == "jr" && len(operands) == 1:
		return JumpRegister{Reg: operands[0]}, nil
	case mnemonic == "yield" && len(operands) == 0:
		return YieldInstr{}, nil
	default:
		return Generic{Mnemonic: mnemonic, Operands: operands}, nil
	}
}

// Program is an ordered list of target instructions (spec §6.2).
type Program struct {
	Instructions []Instruction
}

// String renders the program one instruction per line.
func (p Program) String() string {
	lines := make([]string, len(p.Instructions))
	for i, instr := range p.Instructions {
		lines[i] = instr.String()
	}
	return strings.Join(lines, "\n")
}

// ParseProgram parses a full program, one instruction per non-blank line.
func ParseProgram(text string) (Program, error) {
	var prog Program
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		instr, err := Parse(line)
		if err != nil {
			return Program{}, err
		}
		prog.Instructions = append(prog.Instructions, instr)
	}
	return prog, nil
}
