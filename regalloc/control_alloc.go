package regalloc

// allocateControlNode assigns operands to a block's terminating control
// node and propagates register state to every successor it has: inputs
// first, then the control node's own scratch temporaries, then the
// input cursors advance, then call/deopt side effects, and finally
// successor propagation -- the same four passes allocateNode uses for an
// ordinary node (minus the result), plus the successor step a control node
// alone needs.
// Any gap move needed for the control node's own inputs (a Branch's
// condition, a Return's value) is appended at the end of the block's node
// list, since cursor already sits past the last ordinary node by the time
// this runs.
func (a *Allocator) allocateControlNode(b Block, c ControlNode) {
	nodes := b.Nodes()
	a.cursor = nodes.Len()

	inputs := c.Inputs()
	for _, in := range inputs {
		a.AssignInput(nodes, in)
	}

	a.assignTemporaries(c)

	for _, in := range inputs {
		a.updateInputUse(in)
	}

	props := c.Properties()
	if props.CanDeopt() && a.SpillOnDeopt {
		a.spillAllLive()
	}
	if props.IsCall() {
		a.spillAllLive()
		a.clearAllRegisters()
	}

	switch c.Kind() {
	case Return:
		// Terminal: no successor to propagate to.
	case Jump, JumpLoop:
		a.mergeIntoSuccessor(nodes, b, c.Target())
		a.clearDeadRegisters()
	case Branch:
		ifTrue, ifFalse := c.Branches()
		a.initializeConditionalBranchRegisters(nodes, b, ifTrue)
		a.initializeConditionalBranchRegisters(nodes, b, ifFalse)
	}
}

// initializeConditionalBranchRegisters propagates the register file, as it
// stands right after a Branch's own inputs are assigned, into one of its
// two targets. It handles three cases: an empty-block target is just a
// relay, so the routing looks through it to its own successor; a target
// that is itself a join gets the same unconditional merge treatment as a
// Jump; and a plain single-predecessor target -- a genuine fork, not a
// join -- gets nothing else to reconcile, so the only thing left to do is
// free whichever registers hold a value that's dead by the time execution
// reaches it, rather than carrying them in falsely occupied.
func (a *Allocator) initializeConditionalBranchRegisters(nodes *NodeList, from Block, target Block) {
	for target.IsEmptyBlock() {
		target = target.Control().Target()
	}

	if target.State() != nil {
		a.mergeIntoSuccessor(nodes, from, target)
		return
	}

	a.recordPhiInputs(nodes, from, target)
	for i := 0; i < a.regInfo.Count; i++ {
		r := RegIndex(i)
		if v := a.occupant[r]; v != nil && !a.liveAtTarget(v, target) {
			a.unoccupy(r)
		}
	}
}

// clearDeadRegisters drops any register whose occupant's live range has
// already ended by the time the control node finishes, so a block that
// falls straight through to a single-predecessor successor never carries
// stale occupancy into it.
func (a *Allocator) clearDeadRegisters() {
	for i := 0; i < a.regInfo.Count; i++ {
		r := RegIndex(i)
		if v := a.occupant[r]; v != nil && v.IsDead() {
			a.unoccupy(r)
		}
	}
}
