package regalloc

// allocatePhis places every phi in b into its final location, using a
// three-tier policy: first try to reuse a register some
// predecessor edge already left the value in, then fall back to any other
// free register, and finally to a stack slot if the register file is
// exhausted. Every predecessor edge whose recorded operand doesn't already
// match gets a gap move appended to its own node list, via b.Predecessors().
func (a *Allocator) allocatePhis(b Block) {
	phis := b.Phis()
	if len(phis) == 0 {
		return
	}
	preds := b.Predecessors()
	for _, phi := range phis {
		var dst Operand
		if r := a.tryReusePhiInputRegister(phi); r != NoRegister {
			a.occupy(r, phi)
			dst = AllocatedRegister(r)
			a.tracef("phi %d -> r%d (reused)", phi.ID(), r)
		} else if r, ok := a.TryAllocateRegister(); ok {
			a.occupy(r, phi)
			dst = AllocatedRegister(r)
			a.tracef("phi %d -> r%d (fresh)", phi.ID(), r)
		} else {
			dst = a.AllocateSpillSlot()
			phi.SetSpillSlot(dst)
			a.tracef("phi %d -> %s (spilled)", phi.ID(), dst)
		}
		phi.SetResult(dst)
		a.reconcilePhiEdges(phi, preds, dst)
	}
}

// tryReusePhiInputRegister looks for a predecessor edge whose recorded
// operand for this phi is a register that is still free in the join's
// freshly restored state, so placing the phi there costs that edge nothing.
func (a *Allocator) tryReusePhiInputRegister(phi Phi) RegIndex {
	for _, in := range phi.Inputs() {
		if in.Allocated.IsRegister() {
			if r := in.Allocated.Register(); a.free.Has(r) {
				return r
			}
		}
	}
	return NoRegister
}

// reconcilePhiEdges appends a gap move to every predecessor edge whose
// recorded operand doesn't already match the phi's final location. A loop
// header's back edge hasn't been visited yet at this point, so its input is
// still unallocated; recordPhiInputs reconciles that edge itself, once it is
// finally visited and can see the phi's now-decided destination.
func (a *Allocator) reconcilePhiEdges(phi Phi, preds []Block, dst Operand) {
	inputs := phi.Inputs()
	for p, pred := range preds {
		src := inputs[p].Allocated
		if !src.IsAllocated() {
			continue
		}
		if src == dst {
			continue
		}
		pred.Nodes().Append(a.newGapMove(src, dst))
	}
}
