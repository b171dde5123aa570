package main

import (
	"fmt"
	"io"

	"github.com/relay-jit/regalloc/ir"
	"github.com/relay-jit/regalloc/regalloc"
)

// dumpAllocation writes, for every block in g, its phis and nodes annotated
// with the operand the allocator settled on, in the order a code-generation
// pass would read them (phis, then ordinary nodes including any gap moves
// the allocator spliced in, then the control node).
func dumpAllocation(w io.Writer, g *ir.Graph) {
	for _, b := range g.Blocks() {
		fmt.Fprintf(w, "block %d:\n", b.ID())
		for _, phi := range b.Phis() {
			fmt.Fprintf(w, "  phi %d -> %s\n", phi.ID(), phi.Result())
		}
		nodes := b.Nodes()
		for i := 0; i < nodes.Len(); i++ {
			n := nodes.At(i)
			if regalloc.IsGapMove(n) {
				fmt.Fprintf(w, "  %s\n", n.(fmt.Stringer).String())
				continue
			}
			if v, ok := n.AsValue(); ok {
				fmt.Fprintf(w, "  %d -> %s\n", n.ID(), v.Result())
			} else {
				fmt.Fprintf(w, "  %d (effect)\n", n.ID())
			}
		}
		c := b.Control()
		fmt.Fprintf(w, "  %d %s\n", c.ID(), c.Kind())
	}
	fmt.Fprintf(w, "stack slots: %d\n", g.StackSlots())
}

// dumpHoles writes, for every block's control node, the nearest
// post-dominating hole computed by the reverse pass -- useful for checking
// that pass in isolation, before any register is ever assigned.
func dumpHoles(w io.Writer, g *ir.Graph) {
	regalloc.ComputePostDominatingHoles(g.Blocks())
	for _, b := range g.Blocks() {
		c := b.Control()
		hole := c.NextHole()
		if hole == nil {
			fmt.Fprintf(w, "block %d: %s -> (none)\n", b.ID(), c.Kind())
		} else {
			fmt.Fprintf(w, "block %d: %s -> hole at node %d\n", b.ID(), c.Kind(), hole.ID())
		}
	}
}
