package ir

// Pass is one optimization pass over a Program. Apply reports whether it
// changed anything, matching the teacher's OptimizationPass idiom
// (internal/ir/optimizations.go in kanso-lang-kanso) adapted to this
// domain's two concrete passes.
type Pass interface {
	Name() string
	Apply(p *Program) bool
}

// Pipeline runs a fixed ordered list of passes (spec §4.2: inline, then
// DCE, both idempotent).
type Pipeline struct {
	passes []Pass
}

// NewPipeline builds the standard inline+DCE pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{passes: []Pass{InlinePass{}, DCEPass{}}}
}

// Run executes every pass once, in order.
func (pl *Pipeline) Run(p *Program) {
	for _, pass := range pl.passes {
		pass.Apply(p)
	}
}

// Optimize runs the standard pipeline over p in place.
func Optimize(p *Program) {
	NewPipeline().Run(p)
}

// InlinePass implements spec §4.2's Inline pass: recursively rewrite
// every SSA value's defining expression, substituting any operand
// defined by a Single copy with the copy's source, and collapsing a Phi
// whose operands converge to one distinct value into a Single. Grounded
// on original_source/crates/compiler/src/ir/optimize.rs's InlineState.
type InlinePass struct{}

func (InlinePass) Name() string { return "inline" }

func (InlinePass) Apply(p *Program) bool {
	st := &inlineState{p: p, defOf: map[VarId]*Assignment{}, inlined: map[VarId]bool{}}
	for _, blk := range p.Blocks {
		for i := range blk.Instructions {
			if a, ok := blk.Instructions[i].(Assignment); ok {
				st.defOf[a.Id] = &Assignment{Id: a.Id, Value: a.Value}
			}
		}
	}

	changed := false
	for _, blk := range p.Blocks {
		for i, instr := range blk.Instructions {
			switch ins := instr.(type) {
			case Assignment:
				newVal := st.inlineValue(ins.Value)
				if !sameValue(newVal, ins.Value) {
					blk.Instructions[i] = Assignment{Id: ins.Id, Value: newVal}
					changed = true
				}
			case Branch:
				newCond := st.inlineOperand(ins.Cond)
				if newCond != ins.Cond {
					blk.Instructions[i] = Branch{Cond: newCond, TrueBlock: ins.TrueBlock, FalseBlock: ins.FalseBlock}
					changed = true
				}
			case Return:
				if ins.HasValue {
					newVal := st.inlineOperand(ins.Value)
					if newVal != ins.Value {
						blk.Instructions[i] = Return{Value: newVal, HasValue: true}
						changed = true
					}
				}
			}
		}
	}
	return changed
}

type inlineState struct {
	p       *Program
	defOf   map[VarId]*Assignment
	inlined map[VarId]bool
}

// resolve follows a chain of Single copies to its ultimate source. The
// chain is walked afresh on every call; results are not cached across
// calls.
func (st *inlineState) resolve(id VarId) VarOrConst {
	seen := map[VarId]bool{}
	cur := id
	for {
		if seen[cur] {
			return Var(cur) // defensive: a cycle should never occur post-sealing
		}
		seen[cur] = true
		def, ok := st.defOf[cur]
		if !ok {
			return Var(cur)
		}
		single, ok := def.Value.(Single)
		if !ok {
			return Var(cur)
		}
		if single.Src.Kind != KindVar {
			return single.Src
		}
		cur = single.Src.Var
	}
}

func (st *inlineState) inlineOperand(op VarOrConst) VarOrConst {
	if op.Kind != KindVar {
		return op
	}
	return st.resolve(op.Var)
}

func (st *inlineState) inlineValue(v VarValue) VarValue {
	switch val := v.(type) {
	case Single:
		return Single{Src: st.inlineOperand(val.Src)}
	case BinaryOp:
		return BinaryOp{LHS: st.inlineOperand(val.LHS), Op: val.Op, RHS: st.inlineOperand(val.RHS)}
	case Call:
		args := make([]VarOrConst, len(val.Args))
		for i, a := range val.Args {
			args[i] = st.inlineOperand(a)
		}
		return Call{Name: val.Name, Args: args}
	case Phi:
		resolved := make([]VarOrConst, len(val.Args))
		for i, a := range val.Args {
			resolved[i] = st.resolve(a)
		}
		if allSame(resolved) && len(resolved) > 0 {
			return Single{Src: resolved[0]}
		}
		return val
	default:
		return v
	}
}

func allSame(vs []VarOrConst) bool {
	for i := 1; i < len(vs); i++ {
		if vs[i] != vs[0] {
			return false
		}
	}
	return true
}

func sameValue(a, b VarValue) bool {
	switch av := a.(type) {
	case Single:
		bv, ok := b.(Single)
		return ok && av.Src == bv.Src
	case BinaryOp:
		bv, ok := b.(BinaryOp)
		return ok && av.LHS == bv.LHS && av.Op == bv.Op && av.RHS == bv.RHS
	case Call:
		bv, ok := b.(Call)
		if !ok || av.Name != bv.Name || len(av.Args) != len(bv.Args) {
			return false
		}
		for i := range av.Args {
			if av.Args[i] != bv.Args[i] {
				return false
			}
		}
		return true
	case Phi:
		bv, ok := b.(Phi)
		if !ok || len(av.Args) != len(bv.Args) {
			return false
		}
		for i := range av.Args {
			if av.Args[i] != bv.Args[i] {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// DCEPass implements spec §4.2's dead-code elimination: roots are every
// store call, every Branch's cond, and every Return's operand; the
// backward closure of used VarIds is computed by visiting each used
// VarId's defining instruction, and any Assignment whose id is not in
// the used set is removed. Branch, Yield, Return are never removed.
// Grounded on original_source/crates/compiler/src/ir/optimize.rs's
// remove_unused_variables.
type DCEPass struct{}

func (DCEPass) Name() string { return "dce" }

func (DCEPass) Apply(p *Program) bool {
	defOf := map[VarId]VarValue{}
	for _, blk := range p.Blocks {
		for _, instr := range blk.Instructions {
			if a, ok := instr.(Assignment); ok {
				defOf[a.Id] = a.Value
			}
		}
	}

	used := map[VarId]bool{}
	var roots []VarId
	for _, blk := range p.Blocks {
		for _, instr := range blk.Instructions {
			switch ins := instr.(type) {
			case Assignment:
				if call, ok := ins.Value.(Call); ok && call.Name == PrimitiveStore {
					roots = append(roots, call.UsedVars()...)
				}
			case Branch:
				roots = append(roots, ins.Cond.UsedVars()...)
			case Return:
				if ins.HasValue {
					roots = append(roots, ins.Value.UsedVars()...)
				}
			}
		}
	}

	stack := append([]VarId{}, roots...)
	for _, r := range roots {
		used[r] = true
	}
	for len(stack) > 0 {
		n := len(stack) - 1
		id := stack[n]
		stack = stack[:n]
		val, ok := defOf[id]
		if !ok {
			continue
		}
		for _, u := range val.UsedVars() {
			if !used[u] {
				used[u] = true
				stack = append(stack, u)
			}
		}
	}

	changed := false
	for _, blk := range p.Blocks {
		kept := blk.Instructions[:0]
		for _, instr := range blk.Instructions {
			if a, ok := instr.(Assignment); ok {
				if call, ok := a.Value.(Call); ok && call.Name == PrimitiveStore {
					kept = append(kept, instr) // store is a root itself: an observable side effect
					continue
				}
				if !used[a.Id] {
					changed = true
					continue
				}
			}
			kept = append(kept, instr)
		}
		blk.Instructions = kept
	}
	return changed
}
