package regalloc

// mergeIntoSuccessor reconciles the register file as it stands at the end
// of from's control node against target's incoming state, and records
// target's phi inputs for this edge. Called once per control-flow edge,
// while from's node list is still the one being appended to.
func (a *Allocator) mergeIntoSuccessor(nodes *NodeList, from Block, target Block) {
	a.recordPhiInputs(nodes, from, target)

	state := target.State()
	if state == nil {
		// Single predecessor: whatever is resident now carries straight
		// through to target's own processing, nothing to reconcile.
		return
	}
	if !state.IsInitialized() {
		a.initializeBranchTargetRegisterValues(state, target)
		return
	}
	for i := 0; i < a.regInfo.Count; i++ {
		a.mergeRegisterAtEdge(from, target, state, RegIndex(i))
	}
}

// liveAtTarget reports whether v's live range reaches as far as target, so
// it's worth propagating into target's incoming register state at all. A
// value whose last use falls before target is dead weight on this edge --
// carrying it forward would, at best, occupy a register nothing will ever
// read again, and at worst force a reconciling move for a location that no
// longer holds anything valid. target.FirstNonGapMoveID looks past any gap
// moves already spliced into target (a loop header revisited via its back
// edge) to the id of the first node the front end actually supplied.
func (a *Allocator) liveAtTarget(v Value, target Block) bool {
	if v == nil || v.IsDead() {
		return false
	}
	return v.LiveRangeEnd() >= target.FirstNonGapMoveID()
}

// initializeBranchTargetRegisterValues runs once per join, on the edge that
// reaches it first: whatever this predecessor happens to have resident in
// each register becomes that register's expected value at the join, unless
// it doesn't actually live that far, in which case the register is simply
// expected dead on entry instead.
func (a *Allocator) initializeBranchTargetRegisterValues(state *JoinState, target Block) {
	for i := 0; i < a.regInfo.Count; i++ {
		r := RegIndex(i)
		v := a.occupant[r]
		if !a.liveAtTarget(v, target) {
			v = nil
		}
		state.setCell(r, nodeCell(v))
	}
}

// mergeRegisterAtEdge reconciles one register's cell against what this
// predecessor edge can actually offer it. The first edge to disagree with
// the cell upgrades it to a MergeRecord, recording -- for every edge seen
// so far, including this one -- wherever the expected value actually lives
// right now, rather than forcing it into r immediately. A predecessor
// where the value has already died naturally (dead on one arm of a branch
// that another arm still reads after the join) has nothing to offer on
// this edge and records a bare, unallocated operand instead of being
// dragged back into a register it no longer occupies; restoreJoinState
// inserts the actual reconciling moves once every predecessor has been
// seen, each into whichever predecessor's own node list needs one.
func (a *Allocator) mergeRegisterAtEdge(from Block, target Block, state *JoinState, r RegIndex) {
	cell := state.cell(r)
	if cell.IsMerge() {
		m := cell.Merge()
		m.SetOperand(from.PredecessorID(), a.mergeOperand(m.Node, target))
		return
	}

	node := cell.Node()
	occ := a.occupant[r]
	if !a.liveAtTarget(occ, target) {
		occ = nil
	}
	if occ == node {
		return
	}

	m := a.mergeRecords.Allocate()
	*m = MergeRecord{Node: node, Operands: make([]Operand, state.PredecessorCount)}
	for p := 0; p < from.PredecessorID(); p++ {
		// Every earlier edge is known, by induction, to have already had
		// the expected value resident in this exact register -- a
		// disagreeing earlier edge would already have triggered this
		// same upgrade instead of leaving the cell as a plain node cell.
		m.SetOperand(p, AllocatedRegister(r))
	}
	m.SetOperand(from.PredecessorID(), a.mergeOperand(node, target))
	state.setCell(r, mergeCell(m))
}

// mergeOperand reports where v actually resides right now, for recording
// into a MergeRecord -- the zero, unallocated Operand if v isn't live at
// target, since there is then nothing on this edge to reconcile.
func (a *Allocator) mergeOperand(v Value, target Block) Operand {
	if !a.liveAtTarget(v, target) {
		return Operand{}
	}
	return a.currentLocation(v)
}

// recordPhiInputs pins down, for each of target's phis, exactly where its
// value for this predecessor edge lives right now -- a static fact about
// the end of from's control node that remains valid no matter what the
// shared register file goes on to do in later blocks. allocatePhis reads
// these back once it decides each phi's final location.
//
// A loop header's phis are placed before its back edge is ever visited, so
// for that one edge the reconciling gap move can't be inserted by
// allocatePhis -- it doesn't exist yet. Once the phi's destination is
// already decided (true for every predecessor except a not-yet-visited
// back edge), this reconciles the edge immediately instead.
func (a *Allocator) recordPhiInputs(nodes *NodeList, from Block, target Block) {
	for _, phi := range target.Phis() {
		in := phi.Inputs()[from.PredecessorID()]
		in.InjectAllocated(a.currentLocation(in.Producer))
		a.updateInputUse(in)
		if dst := phi.Result(); dst.IsAllocated() && in.Allocated != dst {
			nodes.Append(a.newGapMove(in.Allocated, dst))
		}
	}
}
