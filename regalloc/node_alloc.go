package regalloc

// allocateNode assigns operands to one ordinary node in four passes: every
// input is assigned its location first, with all of them still counted
// live; only once that's settled are scratch temporaries carved out, so
// AssignTemporaries never evicts a register an input still needs; then
// every input's next-use cursor is advanced (and freed if this was its
// last use); and finally the call/deopt side effects and the node's own
// result are handled. nodes is the block's node list the node belongs to,
// needed so AssignInput can splice gap moves ahead of the node's cursor
// position.
func (a *Allocator) allocateNode(nodes *NodeList, n Node) {
	inputs := n.Inputs()
	for _, in := range inputs {
		a.AssignInput(nodes, in)
	}

	a.assignTemporaries(n)

	for _, in := range inputs {
		a.updateInputUse(in)
	}

	props := n.Properties()
	if props.CanDeopt() && a.SpillOnDeopt {
		a.spillAllLive()
	}
	if props.IsCall() {
		a.spillAllLive()
		a.clearAllRegisters()
	}

	if v, ok := n.AsValue(); ok {
		a.allocateNodeResult(n, v)
	}
}

// AssignInput resolves one input's unallocated policy to a concrete
// operand, inserting whatever gap move is needed to get the producer into
// place first. It does not touch the producer's next-use cursor --
// allocateNode advances every input's cursor only after every input has
// been assigned, so an earlier input in the same node can never see a
// later one's register freed prematurely.
func (a *Allocator) AssignInput(nodes *NodeList, in *Input) {
	switch policy := in.Policy.Policy(); policy {
	case PolicyRegisterOrSlot, PolicyRegisterOrSlotOrConstant:
		in.Allocated = a.currentLocation(in.Producer)
	case PolicyFixedRegister:
		r := in.Policy.FixedRegister()
		a.moveValueToRegister(nodes, in.Producer, r)
		in.Allocated = AllocatedRegister(r)
	case PolicyMustHaveRegister:
		r := a.ensureRegister(nodes, in.Producer)
		in.Allocated = AllocatedRegister(r)
	default:
		invariant(false, "AssignInput: invalid input policy %d", policy)
	}
}

// ensureRegister returns a register holding v, moving it out of its spill
// slot first if it isn't already resident in one.
func (a *Allocator) ensureRegister(nodes *NodeList, v Value) RegIndex {
	if regs := v.Registers(); !regs.Empty() {
		r, _ := regs.Any()
		return r
	}
	invariant(v.IsSpilled(), "ensureRegister: value %d has neither a register nor a spill slot", v.ID())
	r := a.AllocateRegister()
	a.insertGapMove(nodes, v.SpillSlot(), AllocatedRegister(r))
	a.SetRegister(r, v)
	return r
}

// moveValueToRegister gets v resident in exactly register r, evicting r's
// current occupant first if it holds a different value.
func (a *Allocator) moveValueToRegister(nodes *NodeList, v Value, r RegIndex) {
	if regs := v.Registers(); regs.Has(r) {
		return
	}
	if occ := a.occupant[r]; occ != nil && occ != v {
		a.evict(r)
	}
	src := a.currentLocation(v)
	a.insertGapMove(nodes, src, AllocatedRegister(r))
	if old := v.Registers(); !old.Empty() {
		oldReg, _ := old.Any()
		a.unoccupy(oldReg)
	}
	a.SetRegister(r, v)
}

// updateInputUse advances the producer's next-use pointer past this input
// and, if that was its last use, frees any register it holds and returns its
// spill slot (if any, and above slot 0) to the free list.
func (a *Allocator) updateInputUse(in *Input) {
	v := in.Producer
	wasDead := v.IsDead()
	v.SetNextUse(in.NextUse)
	if v.IsDead() {
		regs := v.Registers()
		regs.Range(func(r RegIndex) { a.unoccupy(r) })
		if slot := v.SpillSlot(); !wasDead && v.IsSpilled() && slot.IsStackSlot() && slot.StackSlot() > 0 {
			a.spillFreeList = append(a.spillFreeList, slot.StackSlot())
		}
	}
}

// spillAllLive ensures every value currently resident in a register has a
// valid spill slot, without evicting it from that register. Used ahead of a
// node that can deopt, so the deopt's frame description always has a stack
// location to read a live value from
func (a *Allocator) spillAllLive() {
	for i := 0; i < a.regInfo.Count; i++ {
		if v := a.occupant[RegIndex(i)]; v != nil && !v.IsDead() {
			a.spillValue(v)
		}
	}
}

// clearAllRegisters marks every register free without touching spill
// slots, used after a call whose callee is free to clobber the whole
// register file.
func (a *Allocator) clearAllRegisters() {
	for i := 0; i < a.regInfo.Count; i++ {
		a.unoccupy(RegIndex(i))
	}
}

// assignTemporaries reserves n.TemporariesNeeded() scratch registers for
// the duration of this node's emission and returns them to the free set
// immediately afterward: nothing else in the allocator's bookkeeping needs
// to track a scratch register once the node that requested it has been
// assigned.
func (a *Allocator) assignTemporaries(n Node) {
	count := n.TemporariesNeeded()
	if count == 0 {
		return
	}
	var set RegSet
	for i := 0; i < count; i++ {
		r := a.AllocateRegister()
		a.free = a.free.Remove(r)
		set = set.Add(r)
	}
	n.AssignTemporaries(set)
	set.Range(func(r RegIndex) { a.free = a.free.Add(r) })
}

// allocateNodeResult resolves a node's result policy to a concrete
// location, then immediately frees it again if it turns out to be
// produced-but-dead: a value with no use at all within its own live range
// ("produced but immediately dead" case).
func (a *Allocator) allocateNodeResult(n Node, v Value) {
	result := v.Result()
	switch result.Policy() {
	case PolicyFixedSlot:
		slot := AllocatedStackSlot(result.FixedSlot())
		v.SetResult(slot)
		v.SetSpillSlot(slot)
	case PolicySameAsInput:
		inputs := n.Inputs()
		src := inputs[result.InputIndex()].Allocated
		invariant(src.IsRegister(), "SameAsInput result requires its input to be in a register")
		r := src.Register()
		a.reassign(r, v)
		v.SetResult(AllocatedRegister(r))
	case PolicyFixedRegister:
		r := result.FixedRegister()
		if a.occupant[r] != nil {
			a.evict(r)
		}
		a.occupy(r, v)
		v.SetResult(AllocatedRegister(r))
	case PolicyMustHaveRegister, PolicyNone:
		r := a.AllocateRegister()
		a.occupy(r, v)
		v.SetResult(AllocatedRegister(r))
	default:
		invariant(false, "allocateNodeResult: invalid result policy %d", result.Policy())
	}

	if !v.HasValidLiveRange() {
		regs := v.Registers()
		regs.Range(func(r RegIndex) { a.unoccupy(r) })
	}
}

// reassign relabels register r as holding v, clearing whatever value
// previously claimed it without evicting (spilling) that value -- used for
// SameAsInput results, where the input producer's lifetime is understood to
// end exactly where the new value takes over the register.
func (a *Allocator) reassign(r RegIndex, v Value) {
	if old := a.occupant[r]; old != nil && old != v {
		old.RemoveRegister(r)
	}
	a.occupant[r] = v
	a.free = a.free.Remove(r)
	v.AddRegister(r)
}
