package ir

import "github.com/relay-jit/regalloc/regalloc"

// valueState is the allocation-relevant state shared by every value-
// producing construct in this package (ordinary value nodes and phis):
// next-use tracking, live-range end, held registers, and spill/result
// operands. Embedding it once avoids writing the same fifteen methods
// twice for ValueNode and Phi.
type valueState struct {
	id             regalloc.NodeID
	nextUse        regalloc.NodeID
	liveRangeEnd   regalloc.NodeID
	validLiveRange bool
	regs           regalloc.RegSet
	spillSlot      regalloc.Operand
	spilled        bool
	result         regalloc.Operand
}

func (v *valueState) ID() regalloc.NodeID            { return v.id }
func (v *valueState) NextUse() regalloc.NodeID       { return v.nextUse }
func (v *valueState) SetNextUse(id regalloc.NodeID)  { v.nextUse = id }
func (v *valueState) LiveRangeEnd() regalloc.NodeID  { return v.liveRangeEnd }
func (v *valueState) IsDead() bool                   { return v.nextUse > v.liveRangeEnd }
func (v *valueState) HasValidLiveRange() bool        { return v.validLiveRange }
func (v *valueState) Registers() regalloc.RegSet     { return v.regs }
func (v *valueState) AddRegister(r regalloc.RegIndex) { v.regs = v.regs.Add(r) }
func (v *valueState) RemoveRegister(r regalloc.RegIndex) { v.regs = v.regs.Remove(r) }
func (v *valueState) ClearRegisters()                { v.regs = regalloc.RegSet(0) }
func (v *valueState) IsSpilled() bool                { return v.spilled }
func (v *valueState) SpillSlot() regalloc.Operand    { return v.spillSlot }
func (v *valueState) SetSpillSlot(o regalloc.Operand) {
	v.spillSlot = o
	v.spilled = true
}
func (v *valueState) Result() regalloc.Operand       { return v.result }
func (v *valueState) SetResult(o regalloc.Operand)   { v.result = o }

// SetLiveRangeEnd extends this value's live range to cover a use at id,
// marking it as having a valid (non-empty) live range. Builders call this
// as each consumer is wired up, since a value's last use isn't known until
// every consumer has been constructed.
func (v *valueState) SetLiveRangeEnd(id regalloc.NodeID) {
	if !v.validLiveRange || id > v.liveRangeEnd {
		v.liveRangeEnd = id
	}
	v.validLiveRange = true
}

// ValueNode is an ordinary instruction that produces a value: it is both a
// regalloc.Node (inputs, properties, temporaries) and, through AsValue, a
// regalloc.Value.
type ValueNode struct {
	valueState
	inputs            []*regalloc.Input
	props             regalloc.Properties
	temporariesNeeded int
	temporaries       regalloc.RegSet
}

// NewValueNode builds a value-producing node. liveRangeEnd is the id of
// this value's last use; validLiveRange is false for a value that is
// produced but never read (dead on arrival), the produced-but-immediately-dead
// case.
func NewValueNode(id regalloc.NodeID, inputs []*regalloc.Input, props regalloc.Properties, temporariesNeeded int, result regalloc.Operand, liveRangeEnd regalloc.NodeID, validLiveRange bool) *ValueNode {
	return &ValueNode{
		valueState: valueState{
			id:             id,
			nextUse:        id,
			liveRangeEnd:   liveRangeEnd,
			validLiveRange: validLiveRange,
			result:         result,
		},
		inputs:            inputs,
		props:              props,
		temporariesNeeded: temporariesNeeded,
	}
}

func (n *ValueNode) Inputs() []*regalloc.Input          { return n.inputs }
func (n *ValueNode) Properties() regalloc.Properties    { return n.props }
func (n *ValueNode) TemporariesNeeded() int             { return n.temporariesNeeded }
func (n *ValueNode) AssignTemporaries(s regalloc.RegSet) { n.temporaries = s }
func (n *ValueNode) Temporaries() regalloc.RegSet       { return n.temporaries }
func (n *ValueNode) AsValue() (regalloc.Value, bool)    { return n, true }

// EffectNode is an instruction with no result: it still has inputs,
// properties, and temporaries, but AsValue always reports none.
type EffectNode struct {
	id                regalloc.NodeID
	inputs            []*regalloc.Input
	props             regalloc.Properties
	temporariesNeeded int
	temporaries       regalloc.RegSet
}

// NewEffectNode builds a node with no result, such as a store or a bare
// side-effecting call whose return value is discarded.
func NewEffectNode(id regalloc.NodeID, inputs []*regalloc.Input, props regalloc.Properties, temporariesNeeded int) *EffectNode {
	return &EffectNode{id: id, inputs: inputs, props: props, temporariesNeeded: temporariesNeeded}
}

func (n *EffectNode) ID() regalloc.NodeID               { return n.id }
func (n *EffectNode) Inputs() []*regalloc.Input          { return n.inputs }
func (n *EffectNode) Properties() regalloc.Properties    { return n.props }
func (n *EffectNode) TemporariesNeeded() int             { return n.temporariesNeeded }
func (n *EffectNode) AssignTemporaries(s regalloc.RegSet) { n.temporaries = s }
func (n *EffectNode) AsValue() (regalloc.Value, bool)    { return nil, false }

// Phi selects a value per incoming edge at a join block. Its Inputs are
// indexed by predecessor id, distinct from an ordinary node's Inputs which
// are indexed by operand position.
type Phi struct {
	valueState
	inputs []*regalloc.Input
}

// NewPhi builds a phi with one input slot per predecessor edge. Each
// element of inputs should have its Producer set to the value selected
// along that edge; Policy is unused for phi inputs (they are resolved by
// location, not policy) and NextUse is the id of the producer's next use
// after this edge (NoMoreUses if the phi is its last use), which the
// allocator installs as the producer's NextUse when the edge is processed.
func NewPhi(id regalloc.NodeID, inputs []*regalloc.Input, liveRangeEnd regalloc.NodeID) *Phi {
	return &Phi{
		valueState: valueState{id: id, nextUse: id, liveRangeEnd: liveRangeEnd, validLiveRange: true},
		inputs:     inputs,
	}
}

func (p *Phi) Inputs() []*regalloc.Input { return p.inputs }
