// Package simulator implements the deterministic test-oracle interpreter
// of spec §4.5: a register file plus a two-level device-variable store,
// a `sp` program counter, a 127-instruction-per-tick budget, and
// IEEE-754 f64 arithmetic throughout.
//
// Grounded in shape on original_source/crates/compiler/src/simulator.rs
// (State{registers,devices}, TickResult, the tick loop structure); that
// reference file only dispatches 2 of the target's instruction
// categories (the rest are `todo!()`), so the full arithmetic/logic/
// selection/branch/jump dispatch here is built from spec §4.5's text,
// not copied from the stub.
package simulator

import (
	"fmt"

	"devicemips/internal/mips"
)

// TickBudget is the maximum number of instructions a single Tick
// executes before returning LimitHit (spec §4.5, §5).
const TickBudget = 127

// TickResult is the outcome of one Tick call.
type TickResult int

const (
	// Yield means a `yield` instruction executed; sp has already advanced.
	Yield TickResult = iota
	// LimitHit means the 127-instruction budget was exhausted.
	LimitHit
	// End means sp stepped past the last instruction.
	End
)

func (r TickResult) String() string {
	switch r {
	case Yield:
		return "Yield"
	case LimitHit:
		return "LimitHit"
	case End:
		return "End"
	default:
		return "?"
	}
}

// State is the simulator's machine state: registers (sp included),
// unset = 0.0, and a Device -> Attribute -> f64 store, unset = 0.0.
type State struct {
	registers map[string]float64
	devices   map[string]map[string]float64
	program   mips.Program
}

// New builds a State for program, sp initialized to 0.
func New(program mips.Program) *State {
	return &State{
		registers: map[string]float64{"sp": 0},
		devices:   map[string]map[string]float64{},
		program:   program,
	}
}

// Register reads a register's value (0.0 if never written).
func (s *State) Register(name string) float64 { return s.registers[name] }

// SetRegister sets a register directly; useful for test setup.
func (s *State) SetRegister(name string, v float64) { s.registers[name] = v }

// Device reads a device attribute's value (0.0 if never written).
func (s *State) Device(device, attribute string) float64 {
	if dev, ok := s.devices[device]; ok {
		return dev[attribute]
	}
	return 0
}

// SetDevice pre-writes a device attribute; useful to set up oracle tests'
// "pre-write" preconditions.
func (s *State) SetDevice(device, attribute string, v float64) {
	dev, ok := s.devices[device]
	if !ok {
		dev = map[string]float64{}
		s.devices[device] = dev
	}
	dev[attribute] = v
}

// Tick executes up to TickBudget instructions, per spec §4.5.
func (s *State) Tick() (TickResult, error) {
	for i := 0; i < TickBudget; i++ {
		pc := int(s.registers["sp"])
		if pc < 0 || pc >= len(s.program.Instructions) {
			return End, nil
		}

		instr := s.program.Instructions[pc]
		yielded, err := s.step(pc, instr)
		if err != nil {
			return End, err
		}
		// Every instruction advances sp by 1 after effect; branches and
		// jumps pre-adjust sp to target-1 so this universal +1 lands
		// exactly on the target (spec §4.5 Branch semantics).
		s.registers["sp"]++
		if yielded {
			return Yield, nil
		}
	}
	return LimitHit, nil
}

func (s *State) step(pc int, instr mips.Instruction) (yielded bool, err error) {
	switch ins := instr.(type) {
	case mips.BinOp:
		return false, s.execBinOp(ins)
	case mips.Move:
		v, err := s.readScalar(ins.Src)
		if err != nil {
			return false, err
		}
		s.writeScalar(ins.Dst, v)
		return false, nil
	case mips.Store:
		v, err := s.readScalar(ins.Src)
		if err != nil {
			return false, err
		}
		s.SetDevice(ins.Dev.Text, ins.Attr.Text, v)
		return false, nil
	case mips.Load:
		s.writeScalar(ins.Dst, s.Device(ins.Dev.Text, ins.Attr.Text))
		return false, nil
	case mips.BranchEqualZero:
		cond, err := s.readScalar(ins.Cond)
		if err != nil {
			return false, err
		}
		if cond == 0 {
			target, err := s.target(ins.Target)
			if err != nil {
				return false, err
			}
			s.registers["sp"] = target - 1
		}
		return false, nil
	case mips.Jump:
		target, err := s.target(ins.Target)
		if err != nil {
			return false, err
		}
		s.registers["sp"] = target - 1
		return false, nil
	case mips.JumpAndLink:
		target, err := s.target(ins.Target)
		if err != nil {
			return false, err
		}
		s.registers["ra"] = float64(pc + 1)
		s.registers["sp"] = target - 1
		return false, nil
	case mips.JumpRegister:
		target, err := s.readScalar(ins.Reg)
		if err != nil {
			return false, err
		}
		s.registers["sp"] = target - 1
		return false, nil
	case mips.YieldInstr:
		return true, nil
	case mips.Label2, mips.Comment:
		return false, nil
	default:
		return false, fmt.Errorf("simulator: unsupported instruction %q", instr)
	}
}

func (s *State) execBinOp(ins mips.BinOp) error {
	lhs, err := s.readScalar(ins.LHS)
	if err != nil {
		return err
	}
	rhs, err := s.readScalar(ins.RHS)
	if err != nil {
		return err
	}
	var result float64
	switch ins.Mnemonic {
	case "add":
		result = lhs + rhs
	case "sub":
		result = lhs - rhs
	case "mul":
		result = lhs * rhs
	case "div":
		result = lhs / rhs // IEEE inf/NaN on division by zero, not specially handled
	case "and":
		result = boolToF(lhs != 0 && rhs != 0)
	case "or":
		result = boolToF(lhs != 0 || rhs != 0)
	case "seq":
		result = boolToF(lhs == rhs)
	case "sne":
		result = boolToF(lhs != rhs)
	case "sgt":
		result = boolToF(lhs > rhs)
	case "sge":
		result = boolToF(lhs >= rhs)
	case "slt":
		result = boolToF(lhs < rhs)
	case "sle":
		result = boolToF(lhs <= rhs)
	default:
		return fmt.Errorf("simulator: unknown arithmetic mnemonic %q", ins.Mnemonic)
	}
	s.writeScalar(ins.Dst, result)
	return nil
}

func boolToF(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}

// readScalar reads a register or numeric-literal operand's value.
func (s *State) readScalar(op mips.Operand) (float64, error) {
	switch op.Kind {
	case mips.OpReg:
		return s.registers[op.Text], nil
	case mips.OpNumber:
		return op.Value, nil
	default:
		return 0, fmt.Errorf("simulator: operand %q is not a scalar", op)
	}
}

func (s *State) writeScalar(op mips.Operand, v float64) {
	if op.Kind == mips.OpReg {
		s.registers[op.Text] = v
	}
}

// target resolves a jump/branch target operand to an instruction index.
// Spec §4.5: "a may be a number, a register (read indirectly), or a
// label (unsupported; error)".
func (s *State) target(op mips.Operand) (float64, error) {
	switch op.Kind {
	case mips.OpNumber:
		return op.Value, nil
	case mips.OpReg:
		return s.registers[op.Text], nil
	default:
		return 0, fmt.Errorf("simulator: label jump targets are unsupported (%q)", op)
	}
}
