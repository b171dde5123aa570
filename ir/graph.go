// Package ir is a minimal, concrete control-flow graph that implements the
// regalloc package's collaborator interfaces (Graph, Block, Node,
// ControlNode, Value, Phi): constructing the CFG and annotating
// next-use/live-range information. No optimization, no SSA construction, no
// machine-code emission -- just enough structure to build graphs by hand,
// which is how both the test suite and the command-line demo scenarios use
// it.
package ir

import "github.com/relay-jit/regalloc/regalloc"

// Graph is a sequence of Blocks, already laid out in the reverse-post order
// the allocator requires: every predecessor of a non-loop-header block
// precedes it.
type Graph struct {
	regCount int
	blocks   []*Block
	stackSlots int
}

// NewGraph starts an empty graph targeting a register file of regCount
// allocatable registers.
func NewGraph(regCount int) *Graph {
	return &Graph{regCount: regCount}
}

// NewBlock appends a new block to the graph and returns it. predecessorCount
// is the number of control-flow edges that will target this block; a count
// of 0 or 1 means no join-state tracking is needed (the entry block, or any
// block with a single predecessor).
func (g *Graph) NewBlock(predecessorCount int) *Block {
	b := &Block{
		id:    regalloc.NodeID(len(g.blocks)),
		nodes: regalloc.NewNodeList(nil),
	}
	if predecessorCount > 1 {
		b.state = regalloc.NewJoinState(predecessorCount, g.regCount)
		b.predecessors = make([]regalloc.Block, predecessorCount)
	}
	g.blocks = append(g.blocks, b)
	return b
}

// Blocks implements regalloc.Graph.
func (g *Graph) Blocks() []regalloc.Block {
	out := make([]regalloc.Block, len(g.blocks))
	for i, b := range g.blocks {
		out[i] = b
	}
	return out
}

// SetStackSlots implements regalloc.Graph.
func (g *Graph) SetStackSlots(n int) { g.stackSlots = n }

// StackSlots returns the final stack-slot count the allocator recorded.
func (g *Graph) StackSlots() int { return g.stackSlots }

// Block is a basic block: an optional join state, phis, ordinary nodes, and
// a terminating control node.
type Block struct {
	id            regalloc.NodeID
	state         *regalloc.JoinState
	phis          []regalloc.Phi
	nodes         *regalloc.NodeList
	control       *ControlNode
	predecessorID int
	predecessors  []regalloc.Block
}

// SetPredecessor records pred as this block's incoming edge at index, and
// tells pred which index it occupies among this block's predecessors --
// the value pred.PredecessorID() will report when its own control node
// merges into this block.
func (b *Block) SetPredecessor(index int, pred *Block) {
	b.predecessors[index] = pred
	pred.predecessorID = index
}

// AddPhi appends a phi to this block's phi list.
func (b *Block) AddPhi(p *Phi) { b.phis = append(b.phis, p) }

// AddNode appends an ordinary node to this block.
func (b *Block) AddNode(n regalloc.Node) { b.nodes.Append(n) }

// SetControl sets this block's terminating control node.
func (b *Block) SetControl(c *ControlNode) { b.control = c }

func (b *Block) ID() regalloc.NodeID           { return b.id }
func (b *Block) State() *regalloc.JoinState    { return b.state }
func (b *Block) Phis() []regalloc.Phi          { return b.phis }
func (b *Block) Nodes() *regalloc.NodeList     { return b.nodes }
func (b *Block) Control() regalloc.ControlNode { return b.control }
func (b *Block) PredecessorID() int            { return b.predecessorID }
func (b *Block) Predecessors() []regalloc.Block { return b.predecessors }

// IsEmptyBlock reports whether b is an empty shim: no phis, no ordinary
// nodes, and a Jump (or no control node yet) as its terminator.
func (b *Block) IsEmptyBlock() bool {
	return len(b.phis) == 0 && b.nodes.Len() == 0 && (b.control == nil || b.control.kind == regalloc.Jump)
}

func (b *Block) FirstID() regalloc.NodeID {
	if len(b.phis) > 0 {
		return b.phis[0].ID()
	}
	if b.nodes.Len() > 0 {
		return b.nodes.At(0).ID()
	}
	return b.control.ID()
}

func (b *Block) FirstNonGapMoveID() regalloc.NodeID {
	for _, n := range b.nodes.All() {
		if !regalloc.IsGapMove(n) {
			return n.ID()
		}
	}
	return b.control.ID()
}
