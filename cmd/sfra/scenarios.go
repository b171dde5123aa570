package main

import (
	"fmt"

	"github.com/relay-jit/regalloc/ir"
	"github.com/relay-jit/regalloc/regalloc"
)

// scenario bundles a demo graph with the register file it was built for and
// a one-line description, so run and dump-holes can share the same catalog.
type scenario struct {
	name        string
	description string
	build       func() (*ir.Graph, *regalloc.RegisterInfo)
}

func regInfo(count int) *regalloc.RegisterInfo {
	return &regalloc.RegisterInfo{
		Count: count,
		Name:  func(r regalloc.RegIndex) string { return fmt.Sprintf("r%d", r) },
	}
}

// idGen mints monotonically increasing NodeIDs across a whole graph, as the
// allocator requires.
type idGen struct{ next regalloc.NodeID }

func (g *idGen) next_() regalloc.NodeID {
	id := g.next
	g.next++
	return id
}

var scenarios = []scenario{
	{"straight-line", "five chained values, each needing a register, no branches", buildStraightLine},
	{"call-in-middle", "a value must survive a call node between its definition and its use", buildCallInMiddle},
	{"eviction", "three simultaneously live values over a two-register file", buildEviction},
	{"diamond-phi", "if/else merge with a phi combining the two branch results", buildDiamondPhi},
	{"loop-header-phi", "a loop-carried value threaded through a header phi", buildLoopHeaderPhi},
	{"empty-fallthrough", "a branch arm that is an empty block jumping straight through", buildEmptyFallthrough},
}

func findScenario(name string) *scenario {
	for i := range scenarios {
		if scenarios[i].name == name {
			return &scenarios[i]
		}
	}
	return nil
}

func buildStraightLine() (*ir.Graph, *regalloc.RegisterInfo) {
	g := ir.NewGraph(4)
	b := g.NewBlock(0)
	ids := &idGen{}

	prev := ir.NewValueNode(ids.next_(), nil, 0, 0, regalloc.UnallocatedMustHaveRegister(), 0, false)
	b.AddNode(prev)
	for i := 0; i < 4; i++ {
		nid := ids.next_()
		in := &regalloc.Input{Producer: prev, Policy: regalloc.UnallocatedMustHaveRegister(), NextUse: regalloc.NoMoreUses}
		prev.SetLiveRangeEnd(nid)
		v := ir.NewValueNode(nid, []*regalloc.Input{in}, 0, 0, regalloc.UnallocatedMustHaveRegister(), 0, false)
		b.AddNode(v)
		prev = v
	}
	retID := ids.next_()
	retIn := &regalloc.Input{Producer: prev, Policy: regalloc.UnallocatedRegisterOrSlot(), NextUse: regalloc.NoMoreUses}
	prev.SetLiveRangeEnd(retID)
	b.SetControl(ir.NewReturn(retID, []*regalloc.Input{retIn}))
	return g, regInfo(4)
}

func buildCallInMiddle() (*ir.Graph, *regalloc.RegisterInfo) {
	g := ir.NewGraph(4)
	b := g.NewBlock(0)
	ids := &idGen{}

	survivor := ir.NewValueNode(ids.next_(), nil, 0, 0, regalloc.UnallocatedMustHaveRegister(), 0, false)
	b.AddNode(survivor)

	call := ir.NewEffectNode(ids.next_(), nil, regalloc.PropCall, 0)
	b.AddNode(call)

	useID := ids.next_()
	in := &regalloc.Input{Producer: survivor, Policy: regalloc.UnallocatedMustHaveRegister(), NextUse: regalloc.NoMoreUses}
	survivor.SetLiveRangeEnd(useID)
	use := ir.NewValueNode(useID, []*regalloc.Input{in}, 0, 0, regalloc.UnallocatedMustHaveRegister(), 0, false)
	b.AddNode(use)

	retID := ids.next_()
	retIn := &regalloc.Input{Producer: use, Policy: regalloc.UnallocatedRegisterOrSlot(), NextUse: regalloc.NoMoreUses}
	use.SetLiveRangeEnd(retID)
	b.SetControl(ir.NewReturn(retID, []*regalloc.Input{retIn}))
	return g, regInfo(4)
}

func buildEviction() (*ir.Graph, *regalloc.RegisterInfo) {
	g := ir.NewGraph(2)
	b := g.NewBlock(0)
	ids := &idGen{}

	v0 := ir.NewValueNode(ids.next_(), nil, 0, 0, regalloc.UnallocatedMustHaveRegister(), 0, false)
	b.AddNode(v0)
	v1 := ir.NewValueNode(ids.next_(), nil, 0, 0, regalloc.UnallocatedMustHaveRegister(), 0, false)
	b.AddNode(v1)
	v2 := ir.NewValueNode(ids.next_(), nil, 0, 0, regalloc.UnallocatedMustHaveRegister(), 0, false)
	b.AddNode(v2)

	use0ID := ids.next_()
	in0 := &regalloc.Input{Producer: v0, Policy: regalloc.UnallocatedMustHaveRegister(), NextUse: regalloc.NoMoreUses}
	v0.SetLiveRangeEnd(use0ID)
	n0 := ir.NewValueNode(use0ID, []*regalloc.Input{in0}, 0, 0, regalloc.UnallocatedMustHaveRegister(), 0, false)
	b.AddNode(n0)

	use1ID := ids.next_()
	in1 := &regalloc.Input{Producer: v1, Policy: regalloc.UnallocatedMustHaveRegister(), NextUse: regalloc.NoMoreUses}
	v1.SetLiveRangeEnd(use1ID)
	n1 := ir.NewValueNode(use1ID, []*regalloc.Input{in1}, 0, 0, regalloc.UnallocatedMustHaveRegister(), 0, false)
	b.AddNode(n1)

	use2ID := ids.next_()
	in2 := &regalloc.Input{Producer: v2, Policy: regalloc.UnallocatedMustHaveRegister(), NextUse: regalloc.NoMoreUses}
	v2.SetLiveRangeEnd(use2ID)
	n2 := ir.NewValueNode(use2ID, []*regalloc.Input{in2}, 0, 0, regalloc.UnallocatedMustHaveRegister(), 0, false)
	b.AddNode(n2)

	retID := ids.next_()
	retIn := &regalloc.Input{Producer: n2, Policy: regalloc.UnallocatedRegisterOrSlot(), NextUse: regalloc.NoMoreUses}
	n2.SetLiveRangeEnd(retID)
	b.SetControl(ir.NewReturn(retID, []*regalloc.Input{retIn}))
	return g, regInfo(2)
}

func buildDiamondPhi() (*ir.Graph, *regalloc.RegisterInfo) {
	g := ir.NewGraph(4)
	ids := &idGen{}

	entry := g.NewBlock(0)
	thenB := g.NewBlock(1)
	elseB := g.NewBlock(1)
	joinB := g.NewBlock(2)

	cond := ir.NewValueNode(ids.next_(), nil, 0, 0, regalloc.UnallocatedMustHaveRegister(), 0, false)
	entry.AddNode(cond)
	branchID := ids.next_()
	condIn := &regalloc.Input{Producer: cond, Policy: regalloc.UnallocatedRegisterOrSlot(), NextUse: regalloc.NoMoreUses}
	cond.SetLiveRangeEnd(branchID)
	entry.SetControl(ir.NewBranch(branchID, condIn, thenB, elseB))

	tv := ir.NewValueNode(ids.next_(), nil, 0, 0, regalloc.UnallocatedMustHaveRegister(), 0, false)
	thenB.AddNode(tv)
	thenJumpID := ids.next_()
	thenB.SetControl(ir.NewJump(thenJumpID, joinB))

	ev := ir.NewValueNode(ids.next_(), nil, 0, 0, regalloc.UnallocatedMustHaveRegister(), 0, false)
	elseB.AddNode(ev)
	elseJumpID := ids.next_()
	elseB.SetControl(ir.NewJump(elseJumpID, joinB))

	joinB.SetPredecessor(0, thenB)
	joinB.SetPredecessor(1, elseB)

	phiID := ids.next_()
	tv.SetLiveRangeEnd(phiID)
	ev.SetLiveRangeEnd(phiID)
	phiInputs := []*regalloc.Input{
		{Producer: tv, NextUse: regalloc.NoMoreUses},
		{Producer: ev, NextUse: regalloc.NoMoreUses},
	}
	phi := ir.NewPhi(phiID, phiInputs, phiID)
	joinB.AddPhi(phi)

	retID := ids.next_()
	retIn := &regalloc.Input{Producer: phi, Policy: regalloc.UnallocatedRegisterOrSlot(), NextUse: regalloc.NoMoreUses}
	phi.SetLiveRangeEnd(retID)
	joinB.SetControl(ir.NewReturn(retID, []*regalloc.Input{retIn}))
	return g, regInfo(4)
}

func buildLoopHeaderPhi() (*ir.Graph, *regalloc.RegisterInfo) {
	g := ir.NewGraph(4)
	ids := &idGen{}

	preheader := g.NewBlock(0)
	header := g.NewBlock(2)
	body := g.NewBlock(1)
	exit := g.NewBlock(1)

	init := ir.NewValueNode(ids.next_(), nil, 0, 0, regalloc.UnallocatedMustHaveRegister(), 0, false)
	preheader.AddNode(init)
	preheaderJumpID := ids.next_()
	preheader.SetControl(ir.NewJump(preheaderJumpID, header))

	header.SetPredecessor(0, preheader)
	header.SetPredecessor(1, body) // back edge, filled in once body's JumpLoop is built

	phiID := ids.next_()
	init.SetLiveRangeEnd(phiID)
	phiInputs := make([]*regalloc.Input, 2)
	phiInputs[0] = &regalloc.Input{Producer: init, NextUse: regalloc.NoMoreUses}
	phi := ir.NewPhi(phiID, phiInputs, phiID)
	header.AddPhi(phi)

	condID := ids.next_()
	condIn := &regalloc.Input{Producer: phi, Policy: regalloc.UnallocatedRegisterOrSlot(), NextUse: regalloc.NoMoreUses}
	phi.SetLiveRangeEnd(condID)
	header.SetControl(ir.NewBranch(condID, condIn, body, exit))

	next := ir.NewValueNode(ids.next_(), nil, 0, 0, regalloc.UnallocatedMustHaveRegister(), 0, false)
	body.AddNode(next)
	backEdgeID := ids.next_()
	body.SetControl(ir.NewJumpLoop(backEdgeID, header))
	next.SetLiveRangeEnd(backEdgeID)
	phiInputs[1] = &regalloc.Input{Producer: next, NextUse: regalloc.NoMoreUses}

	exitID := ids.next_()
	condIn.NextUse = exitID
	phi.SetLiveRangeEnd(exitID)
	exitIn := &regalloc.Input{Producer: phi, Policy: regalloc.UnallocatedRegisterOrSlot(), NextUse: regalloc.NoMoreUses}
	exit.SetControl(ir.NewReturn(exitID, []*regalloc.Input{exitIn}))
	return g, regInfo(4)
}

func buildEmptyFallthrough() (*ir.Graph, *regalloc.RegisterInfo) {
	g := ir.NewGraph(4)
	ids := &idGen{}

	entry := g.NewBlock(0)
	shim := g.NewBlock(1)
	target := g.NewBlock(1)

	cond := ir.NewValueNode(ids.next_(), nil, 0, 0, regalloc.UnallocatedMustHaveRegister(), 0, false)
	entry.AddNode(cond)
	branchID := ids.next_()
	condIn := &regalloc.Input{Producer: cond, Policy: regalloc.UnallocatedRegisterOrSlot(), NextUse: regalloc.NoMoreUses}
	cond.SetLiveRangeEnd(branchID)
	entry.SetControl(ir.NewBranch(branchID, condIn, shim, target))

	shimJumpID := ids.next_()
	shim.SetControl(ir.NewJump(shimJumpID, target))

	retID := ids.next_()
	target.SetControl(ir.NewReturn(retID, nil))
	return g, regInfo(4)
}
