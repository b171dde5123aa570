package regalloc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relay-jit/regalloc/ir"
	"github.com/relay-jit/regalloc/regalloc"
)

func newRegInfo(count int) *regalloc.RegisterInfo {
	return &regalloc.RegisterInfo{Count: count}
}

func TestStraightLineAssignsEveryValueARegister(t *testing.T) {
	g := ir.NewGraph(4)
	b := g.NewBlock(0)

	v0 := ir.NewValueNode(0, nil, 0, 0, regalloc.UnallocatedMustHaveRegister(), 0, false)
	b.AddNode(v0)
	in := &regalloc.Input{Producer: v0, Policy: regalloc.UnallocatedMustHaveRegister(), NextUse: regalloc.NoMoreUses}
	v0.SetLiveRangeEnd(1)
	v1 := ir.NewValueNode(1, []*regalloc.Input{in}, 0, 0, regalloc.UnallocatedMustHaveRegister(), 0, false)
	b.AddNode(v1)

	retIn := &regalloc.Input{Producer: v1, Policy: regalloc.UnallocatedRegisterOrSlot(), NextUse: regalloc.NoMoreUses}
	v1.SetLiveRangeEnd(2)
	b.SetControl(ir.NewReturn(2, []*regalloc.Input{retIn}))

	a := regalloc.NewAllocator(g, newRegInfo(4))
	a.Allocate()

	require.True(t, v0.Result().IsRegister())
	require.True(t, v1.Result().IsRegister())
	// v0's last use is v1's own input, so v0's register is free again by the
	// time v1's result is placed, and v1 takes it over.
	require.Equal(t, v0.Result(), v1.Result(), "v1 should reuse the register v0 frees at its last use")
}

func TestEvictionSpillsTheFurthestNextUse(t *testing.T) {
	// Three values need a register at once, over a two-register file: one
	// of them must be spilled to a stack slot rather than evicted outright.
	g := ir.NewGraph(2)
	b := g.NewBlock(0)

	v0 := ir.NewValueNode(0, nil, 0, 0, regalloc.UnallocatedMustHaveRegister(), 0, false)
	v1 := ir.NewValueNode(1, nil, 0, 0, regalloc.UnallocatedMustHaveRegister(), 0, false)
	v2 := ir.NewValueNode(2, nil, 0, 0, regalloc.UnallocatedMustHaveRegister(), 0, false)
	b.AddNode(v0)
	b.AddNode(v1)
	b.AddNode(v2)

	in0 := &regalloc.Input{Producer: v0, Policy: regalloc.UnallocatedMustHaveRegister(), NextUse: regalloc.NoMoreUses}
	in1 := &regalloc.Input{Producer: v1, Policy: regalloc.UnallocatedMustHaveRegister(), NextUse: regalloc.NoMoreUses}
	in2 := &regalloc.Input{Producer: v2, Policy: regalloc.UnallocatedMustHaveRegister(), NextUse: regalloc.NoMoreUses}
	v0.SetLiveRangeEnd(3)
	v1.SetLiveRangeEnd(4)
	v2.SetLiveRangeEnd(5)
	n0 := ir.NewValueNode(3, []*regalloc.Input{in0}, 0, 0, regalloc.UnallocatedMustHaveRegister(), 0, false)
	n1 := ir.NewValueNode(4, []*regalloc.Input{in1}, 0, 0, regalloc.UnallocatedMustHaveRegister(), 0, false)
	n2 := ir.NewValueNode(5, []*regalloc.Input{in2}, 0, 0, regalloc.UnallocatedMustHaveRegister(), 0, false)
	b.AddNode(n0)
	b.AddNode(n1)
	b.AddNode(n2)

	retIn := &regalloc.Input{Producer: n2, Policy: regalloc.UnallocatedRegisterOrSlot(), NextUse: regalloc.NoMoreUses}
	n2.SetLiveRangeEnd(6)
	b.SetControl(ir.NewReturn(6, []*regalloc.Input{retIn}))

	a := regalloc.NewAllocator(g, newRegInfo(2))
	a.Allocate()

	require.Equal(t, 1, g.StackSlots()-1, "exactly one value should have needed a spill slot beyond the reserved slot 0")
}

func TestCallSpillsAndClearsLiveValues(t *testing.T) {
	g := ir.NewGraph(4)
	b := g.NewBlock(0)

	survivor := ir.NewValueNode(0, nil, 0, 0, regalloc.UnallocatedMustHaveRegister(), 0, false)
	b.AddNode(survivor)

	call := ir.NewEffectNode(1, nil, regalloc.PropCall, 0)
	b.AddNode(call)

	useIn := &regalloc.Input{Producer: survivor, Policy: regalloc.UnallocatedMustHaveRegister(), NextUse: regalloc.NoMoreUses}
	survivor.SetLiveRangeEnd(2)
	use := ir.NewValueNode(2, []*regalloc.Input{useIn}, 0, 0, regalloc.UnallocatedMustHaveRegister(), 0, false)
	b.AddNode(use)

	retIn := &regalloc.Input{Producer: use, Policy: regalloc.UnallocatedRegisterOrSlot(), NextUse: regalloc.NoMoreUses}
	use.SetLiveRangeEnd(3)
	b.SetControl(ir.NewReturn(3, []*regalloc.Input{retIn}))

	a := regalloc.NewAllocator(g, newRegInfo(4))
	a.Allocate()

	require.True(t, survivor.IsSpilled(), "a value live across a call must be spilled so it survives the clobber")
	require.True(t, use.Result().IsRegister())
}

func TestDiamondPhiReconcilesBothBranches(t *testing.T) {
	g := ir.NewGraph(4)

	entry := g.NewBlock(0)
	thenB := g.NewBlock(1)
	elseB := g.NewBlock(1)
	joinB := g.NewBlock(2)

	cond := ir.NewValueNode(0, nil, 0, 0, regalloc.UnallocatedMustHaveRegister(), 0, false)
	entry.AddNode(cond)
	condIn := &regalloc.Input{Producer: cond, Policy: regalloc.UnallocatedRegisterOrSlot(), NextUse: regalloc.NoMoreUses}
	cond.SetLiveRangeEnd(1)
	entry.SetControl(ir.NewBranch(1, condIn, thenB, elseB))

	tv := ir.NewValueNode(2, nil, 0, 0, regalloc.UnallocatedMustHaveRegister(), 0, false)
	thenB.AddNode(tv)
	thenB.SetControl(ir.NewJump(3, joinB))

	ev := ir.NewValueNode(4, nil, 0, 0, regalloc.UnallocatedMustHaveRegister(), 0, false)
	elseB.AddNode(ev)
	elseB.SetControl(ir.NewJump(5, joinB))

	joinB.SetPredecessor(0, thenB)
	joinB.SetPredecessor(1, elseB)

	tv.SetLiveRangeEnd(6)
	ev.SetLiveRangeEnd(6)
	phiInputs := []*regalloc.Input{
		{Producer: tv, NextUse: regalloc.NoMoreUses},
		{Producer: ev, NextUse: regalloc.NoMoreUses},
	}
	phi := ir.NewPhi(6, phiInputs, 6)
	joinB.AddPhi(phi)

	retIn := &regalloc.Input{Producer: phi, Policy: regalloc.UnallocatedRegisterOrSlot(), NextUse: regalloc.NoMoreUses}
	phi.SetLiveRangeEnd(7)
	joinB.SetControl(ir.NewReturn(7, []*regalloc.Input{retIn}))

	a := regalloc.NewAllocator(g, newRegInfo(4))
	a.Allocate()

	require.True(t, phi.Result().IsAllocated(), "the phi must have been placed somewhere")
	for p, in := range phi.Inputs() {
		require.True(t, in.Allocated.IsAllocated(), "predecessor %d's input must have been resolved", p)
	}
}

func TestLoopHeaderPhiBackEdgeReconciles(t *testing.T) {
	g := ir.NewGraph(4)

	preheader := g.NewBlock(0)
	header := g.NewBlock(2)
	body := g.NewBlock(1)
	exit := g.NewBlock(1)

	init := ir.NewValueNode(0, nil, 0, 0, regalloc.UnallocatedMustHaveRegister(), 0, false)
	preheader.AddNode(init)
	preheader.SetControl(ir.NewJump(1, header))

	header.SetPredecessor(0, preheader)
	header.SetPredecessor(1, body)

	init.SetLiveRangeEnd(2)
	phiInputs := make([]*regalloc.Input, 2)
	phiInputs[0] = &regalloc.Input{Producer: init, NextUse: regalloc.NoMoreUses}
	phi := ir.NewPhi(2, phiInputs, 2)
	header.AddPhi(phi)

	condIn := &regalloc.Input{Producer: phi, Policy: regalloc.UnallocatedRegisterOrSlot(), NextUse: 6}
	phi.SetLiveRangeEnd(6) // read again by exit's Return
	header.SetControl(ir.NewBranch(3, condIn, body, exit))

	next := ir.NewValueNode(4, nil, 0, 0, regalloc.UnallocatedMustHaveRegister(), 0, false)
	body.AddNode(next)
	body.SetControl(ir.NewJumpLoop(5, header))
	next.SetLiveRangeEnd(5)
	phiInputs[1] = &regalloc.Input{Producer: next, NextUse: regalloc.NoMoreUses}

	exitIn := &regalloc.Input{Producer: phi, Policy: regalloc.UnallocatedRegisterOrSlot(), NextUse: regalloc.NoMoreUses}
	exit.SetControl(ir.NewReturn(6, []*regalloc.Input{exitIn}))

	a := regalloc.NewAllocator(g, newRegInfo(4))
	require.NotPanics(t, func() { a.Allocate() }, "the back edge's input must not be read before it is recorded")

	require.True(t, phi.Result().IsAllocated())
	require.True(t, phiInputs[0].Allocated.IsAllocated(), "the forward edge's input must have been resolved")
	require.True(t, phiInputs[1].Allocated.IsAllocated(), "the back edge's input must have been resolved once visited")
}

func TestEmptyFallthroughNeedsNoMergeState(t *testing.T) {
	g := ir.NewGraph(4)

	entry := g.NewBlock(0)
	shim := g.NewBlock(1)
	target := g.NewBlock(1)

	cond := ir.NewValueNode(0, nil, 0, 0, regalloc.UnallocatedMustHaveRegister(), 0, false)
	entry.AddNode(cond)
	condIn := &regalloc.Input{Producer: cond, Policy: regalloc.UnallocatedRegisterOrSlot(), NextUse: regalloc.NoMoreUses}
	cond.SetLiveRangeEnd(1)
	entry.SetControl(ir.NewBranch(1, condIn, shim, target))

	shim.SetControl(ir.NewJump(2, target))
	target.SetControl(ir.NewReturn(3, nil))

	require.True(t, shim.IsEmptyBlock())

	a := regalloc.NewAllocator(g, newRegInfo(4))
	require.NotPanics(t, func() { a.Allocate() })
}

func TestMergeDiesOnOneBranchOnly(t *testing.T) {
	// v is still resident when thenB reaches the join (thenB never touches
	// it), but elseB consumes it as its own last use before the join --
	// so the two edges disagree about whether the join's register holds v
	// at all. This must reconcile via a recorded operand, not a forced
	// move: v is never spilled on the dying arm, so a move there would
	// have nothing valid to read from.
	g := ir.NewGraph(4)

	entry := g.NewBlock(0)
	thenB := g.NewBlock(1)
	elseB := g.NewBlock(1)
	joinB := g.NewBlock(2)

	v := ir.NewValueNode(0, nil, 0, 0, regalloc.UnallocatedMustHaveRegister(), 0, false)
	entry.AddNode(v)
	condIn := &regalloc.Input{Producer: v, Policy: regalloc.UnallocatedRegisterOrSlot(), NextUse: 3}
	entry.SetControl(ir.NewBranch(1, condIn, thenB, elseB))

	thenB.SetControl(ir.NewJump(2, joinB))

	elseUseIn := &regalloc.Input{Producer: v, Policy: regalloc.UnallocatedMustHaveRegister(), NextUse: regalloc.NoMoreUses}
	elseUse := ir.NewValueNode(3, []*regalloc.Input{elseUseIn}, 0, 0, regalloc.UnallocatedMustHaveRegister(), 0, false)
	elseB.AddNode(elseUse)
	elseB.SetControl(ir.NewJump(4, joinB))

	joinB.SetPredecessor(0, thenB)
	joinB.SetPredecessor(1, elseB)

	joinUseIn := &regalloc.Input{Producer: v, Policy: regalloc.UnallocatedMustHaveRegister(), NextUse: regalloc.NoMoreUses}
	joinUse := ir.NewValueNode(5, []*regalloc.Input{joinUseIn}, 0, 0, regalloc.UnallocatedMustHaveRegister(), 0, false)
	joinB.AddNode(joinUse)
	v.SetLiveRangeEnd(5)
	joinB.SetControl(ir.NewReturn(6, nil))

	a := regalloc.NewAllocator(g, newRegInfo(4))
	require.NotPanics(t, func() { a.Allocate() }, "a value dead on one arm of a branch must not crash the other arm's join reconciliation")
}

func TestComputePostDominatingHolesLinksJumpsAndBranches(t *testing.T) {
	g := ir.NewGraph(4)
	entry := g.NewBlock(0)
	mid := g.NewBlock(1)
	final := g.NewBlock(1)

	entry.SetControl(ir.NewJump(0, mid))
	mid.SetControl(ir.NewJump(1, final))
	final.SetControl(ir.NewReturn(2, nil))

	regalloc.ComputePostDominatingHoles(g.Blocks())

	// entry's Jump lands on mid, whose own control node is itself a hole
	// (another Jump), so that is the nearest post-dominating hole.
	require.Equal(t, mid.Control(), entry.Control().NextHole())
	// mid's Jump lands on final, whose Return is not a hole and has none
	// of its own, so mid has no post-dominating hole to report either.
	require.Nil(t, mid.Control().NextHole())
	require.Nil(t, final.Control().NextHole(), "Return never admits a post-dominating hole")
}
