package ir

import "github.com/relay-jit/regalloc/regalloc"

// ControlNode is a block's terminating instruction: Jump, JumpLoop, Return,
// or Branch.
type ControlNode struct {
	id       regalloc.NodeID
	inputs   []*regalloc.Input
	kind     regalloc.ControlKind
	target   *Block
	ifTrue   *Block
	ifFalse  *Block
	nextHole regalloc.ControlNode
}

// NewJump builds an unconditional jump to target.
func NewJump(id regalloc.NodeID, target *Block) *ControlNode {
	return &ControlNode{id: id, kind: regalloc.Jump, target: target}
}

// NewJumpLoop builds a back edge to a loop header.
func NewJumpLoop(id regalloc.NodeID, header *Block) *ControlNode {
	return &ControlNode{id: id, kind: regalloc.JumpLoop, target: header}
}

// NewReturn builds a return, optionally carrying a return-value input.
func NewReturn(id regalloc.NodeID, inputs []*regalloc.Input) *ControlNode {
	return &ControlNode{id: id, kind: regalloc.Return, inputs: inputs}
}

// NewBranch builds a conditional branch over a single condition input.
func NewBranch(id regalloc.NodeID, condition *regalloc.Input, ifTrue, ifFalse *Block) *ControlNode {
	var inputs []*regalloc.Input
	if condition != nil {
		inputs = []*regalloc.Input{condition}
	}
	return &ControlNode{id: id, kind: regalloc.Branch, inputs: inputs, ifTrue: ifTrue, ifFalse: ifFalse}
}

func (c *ControlNode) ID() regalloc.NodeID               { return c.id }
func (c *ControlNode) Inputs() []*regalloc.Input          { return c.inputs }
func (c *ControlNode) Properties() regalloc.Properties    { return 0 }
func (c *ControlNode) TemporariesNeeded() int             { return 0 }
func (c *ControlNode) AssignTemporaries(regalloc.RegSet)  {}
func (c *ControlNode) AsValue() (regalloc.Value, bool)    { return nil, false }
func (c *ControlNode) Kind() regalloc.ControlKind         { return c.kind }

func (c *ControlNode) Target() regalloc.Block {
	if c.target == nil {
		return nil
	}
	return c.target
}

func (c *ControlNode) Branches() (ifTrue, ifFalse regalloc.Block) {
	if c.ifTrue != nil {
		ifTrue = c.ifTrue
	}
	if c.ifFalse != nil {
		ifFalse = c.ifFalse
	}
	return
}

func (c *ControlNode) NextHole() regalloc.ControlNode      { return c.nextHole }
func (c *ControlNode) SetNextHole(h regalloc.ControlNode)   { c.nextHole = h }
