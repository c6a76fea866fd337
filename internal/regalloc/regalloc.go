// Package regalloc implements the Chaitin-style graph-coloring register
// allocator of spec §4.3: phi operands are pre-unified with their phi's
// result (coalescing through phi), an interference graph is built from a
// forward liveness walk, and the graph is colored with <=16 colors by
// simplify/select. Grounded near-verbatim in logic on
// original_source/crates/compiler/src/ir/register_allocation.rs.
package regalloc

import (
	"sort"

	"devicemips/internal/diag"
	"devicemips/internal/ir"
)

// NumRegisters is the target's fixed general-purpose register count
// (spec §1, §4.3).
const NumRegisters = 16

// Allocation maps every SSA VarId to one of [0, NumRegisters).
type Allocation struct {
	regOf map[ir.VarId]int
}

// Register returns the register color assigned to v.
func (a *Allocation) Register(v ir.VarId) int {
	return a.regOf[v]
}

// Allocate builds an interference graph over p and colors it, per
// spec §4.3. Returns a diag.Error of kind RegisterPressure if 16 colors
// do not suffice.
func Allocate(p *ir.Program) (*Allocation, error) {
	varToNode := map[ir.VarId]int{}
	next := 0

	// Phi pre-unification: a phi's result and every one of its operands
	// share a single graph node, so coloring them the same register
	// makes emitting the phi a no-op (spec §4.3, §9 phi-coalescing).
	for _, blk := range p.Blocks {
		for _, instr := range blk.Instructions {
			a, ok := instr.(ir.Assignment)
			if !ok {
				continue
			}
			phi, ok := a.Value.(ir.Phi)
			if !ok {
				continue
			}
			node := next
			next++
			members := append([]ir.VarId{a.Id}, phi.Args...)
			for _, v := range members {
				// a var already unified through an earlier phi pulls that
				// phi's whole node into this one
				if old, ok := varToNode[v]; ok && old != node {
					for w, n := range varToNode {
						if n == old {
							varToNode[w] = node
						}
					}
				}
				varToNode[v] = node
			}
		}
	}

	// Remaining variables each get a fresh node.
	for _, blk := range p.Blocks {
		for _, instr := range blk.Instructions {
			a, ok := instr.(ir.Assignment)
			if !ok {
				continue
			}
			if _, ok := varToNode[a.Id]; ok {
				continue
			}
			varToNode[a.Id] = next
			next++
		}
	}

	vars := make([]ir.VarId, 0, len(varToNode))
	for v := range varToNode {
		vars = append(vars, v)
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i] < vars[j] })

	g := newGraph()
	for _, v := range vars {
		addEdges(g, p, v, varToNode)
	}

	colors, ok := colorGraph(g)
	if !ok {
		return nil, diag.TooComplex()
	}

	regOf := make(map[ir.VarId]int, len(vars))
	for _, v := range vars {
		node := varToNode[v]
		regOf[v] = colors[node]
	}
	return &Allocation{regOf: regOf}, nil
}

type graph struct {
	edges map[int]map[int]bool
}

func newGraph() *graph {
	return &graph{edges: map[int]map[int]bool{}}
}

func (g *graph) ensureNode(n int) {
	if _, ok := g.edges[n]; !ok {
		g.edges[n] = map[int]bool{}
	}
}

func (g *graph) addEdge(a, b int) {
	if a == b {
		return
	}
	g.ensureNode(a)
	g.ensureNode(b)
	g.edges[a][b] = true
	g.edges[b][a] = true
}

// removeNode deletes n and returns its former neighbor set.
func (g *graph) removeNode(n int) []int {
	neighbors := g.edges[n]
	out := make([]int, 0, len(neighbors))
	for nb := range neighbors {
		out = append(out, nb)
		delete(g.edges[nb], n)
	}
	delete(g.edges, n)
	return out
}

// colorGraph implements spec §4.3's recursive simplify/select: repeatedly
// remove a node of degree < 16 (lowest id first, for determinism), recurse
// on what's left, then on unwind assign the smallest unused color among
// the node's (now-colored) neighbors.
func colorGraph(g *graph) (map[int]int, bool) {
	colors := map[int]int{}
	ok := colorGraphRec(g, colors)
	return colors, ok
}

func colorGraphRec(g *graph, colors map[int]int) bool {
	if len(g.edges) == 0 {
		return true
	}
	nodes := make([]int, 0, len(g.edges))
	for n := range g.edges {
		nodes = append(nodes, n)
	}
	sort.Ints(nodes)

	chosen := -1
	for _, n := range nodes {
		if len(g.edges[n]) < NumRegisters {
			chosen = n
			break
		}
	}
	if chosen < 0 {
		return false
	}

	neighbors := g.removeNode(chosen)
	if !colorGraphRec(g, colors) {
		return false
	}

	used := map[int]bool{}
	for _, n := range neighbors {
		used[colors[n]] = true
	}
	for c := 0; c < NumRegisters; c++ {
		if !used[c] {
			colors[chosen] = c
			return true
		}
	}
	return false // unreachable: degree < 16 guarantees a free color
}

// usedVarsAt returns the VarIds an instruction uses, plus (for an
// Assignment) the VarId it defines — overlapping defs interfere (spec
// §4.3).
func usedVarsAt(instr ir.Instruction) []ir.VarId {
	switch i := instr.(type) {
	case ir.Assignment:
		return append(i.Value.UsedVars(), i.Id)
	case ir.Branch:
		return i.Cond.UsedVars()
	case ir.Return:
		if i.HasValue {
			return i.Value.UsedVars()
		}
		return nil
	default: // ir.Yield
		return nil
	}
}

func findVar(p *ir.Program, v ir.VarId) (ir.BlockId, int) {
	for bi, blk := range p.Blocks {
		for ii, instr := range blk.Instructions {
			if a, ok := instr.(ir.Assignment); ok && a.Id == v {
				return ir.BlockId(bi), ii
			}
		}
	}
	panic("regalloc: no assignment found for var")
}

func addEdges(g *graph, p *ir.Program, v ir.VarId, varToNode map[ir.VarId]int) {
	block, idx := findVar(p, v)
	idx++ // move to the instruction right after the definition

	g.ensureNode(varToNode[v])

	visited := map[ir.BlockId]bool{block: true}
	addEdgesRec(g, p, block, idx, v, visited, varToNode)
}

// addEdgesRec walks forward from (block, idx), returning whether v is
// used at or after this point on some path. Grounded verbatim on
// register_allocation.rs's add_edges_rec.
func addEdgesRec(g *graph, p *ir.Program, block ir.BlockId, idx int, v ir.VarId, visited map[ir.BlockId]bool, varToNode map[ir.VarId]int) bool {
	blk := p.Blocks[block]

	if idx >= len(blk.Instructions) {
		used := false
		for _, n := range blk.Next {
			if !visited[n] {
				visited[n] = true
				if addEdgesRec(g, p, n, 0, v, visited, varToNode) {
					used = true
				}
			}
		}
		return used
	}

	usedLater := addEdgesRec(g, p, block, idx+1, v, visited, varToNode)
	used := usedLater

	instr := blk.Instructions[idx]
	usedVars := usedVarsAt(instr)

	for _, u := range usedVars {
		if u == v {
			used = true
		}
	}

	if usedLater {
		node := varToNode[v]
		for _, u := range usedVars {
			g.addEdge(node, varToNode[u])
		}
	}

	return used
}
