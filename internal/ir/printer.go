package ir

import (
	"fmt"
	"sort"
	"strings"
)

// Print renders p as a readable textual dump, in the spirit of kanso's
// internal/ir/printer.go: one block per section, instructions indented,
// predecessor/successor lists shown for sanity-checking the CFG by eye.
func Print(p *Program) string {
	var sb strings.Builder
	for _, blk := range p.Blocks {
		prev := idList(blk.Prev)
		next := idList(blk.Next)
		fmt.Fprintf(&sb, "b%d: preds=%s succs=%s\n", blk.Id, prev, next)
		for _, instr := range blk.Instructions {
			fmt.Fprintf(&sb, "    %s\n", instr)
		}
	}
	if len(p.Functions) > 0 {
		names := make([]string, 0, len(p.Functions))
		for n := range p.Functions {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			fn := p.Functions[n]
			fmt.Fprintf(&sb, "fn %s -> b%d (%v)\n", fn.Name, fn.Entry, fn.Params)
		}
	}
	return sb.String()
}

func idList(ids []BlockId) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("b%d", id)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
