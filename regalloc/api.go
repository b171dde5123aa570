// Package regalloc implements the core of a single-pass, "straight-forward"
// register allocator for a mid-tier JIT backend. It is driven in one forward
// pass over a control-flow graph supplied in reverse-post order, preceded by
// one reverse pass that links every control node to its nearest
// post-dominating control-flow hole. For each value-producing node it
// assigns either a general-purpose register or a numbered stack slot,
// inserting gap-move nodes to reconcile a value's current location with
// where an operand needs it, and records per-register merge information at
// every multi-predecessor join so a later code-generation pass can emit the
// right parallel move along each incoming edge.
//
// Construction of the control-flow graph and its value nodes, liveness
// analysis, operand-policy annotation, and machine-code emission are all
// external collaborators: this package only consumes the interfaces below.
package regalloc

import "fmt"

// NodeID reflects program order: it is assigned monotonically increasing by
// the front end, and the allocator never mutates it.
type NodeID int32

// NoMoreUses is the sentinel an Input's NextUse (and, following it, a
// Value's own NextUse) carries once there is no further use to point to.
// It compares greater than every real NodeID, so a value's last use drives
// its NextUse strictly past LiveRangeEnd and IsDead starts reporting true.
const NoMoreUses NodeID = 1<<31 - 1

// Properties is a small bitset of node properties the allocator reacts to.
type Properties uint8

const (
	PropCall Properties = 1 << iota
	PropCanDeopt
)

func (p Properties) IsCall() bool    { return p&PropCall != 0 }
func (p Properties) CanDeopt() bool  { return p&PropCanDeopt != 0 }

type (
	// Graph is the control-flow graph the allocator consumes, laid out in
	// the order its blocks should be visited: every predecessor of a
	// non-loop-header block must appear before it.
	Graph interface {
		Blocks() []Block
		// SetStackSlots records the final stack-slot count once allocation
		// has finished.
		SetStackSlots(n int)
	}

	// Block is a basic block: an optional multi-predecessor join state, an
	// optional phi list, a sequence of ordinary nodes, and a control node.
	Block interface {
		ID() NodeID
		// State returns the block's join state, or nil for a
		// single-predecessor block (including the entry block).
		State() *JoinState
		Phis() []Phi
		// Nodes returns the block's ordinary node list. The allocator
		// inserts gap moves into this list as it processes nodes in order.
		Nodes() *NodeList
		Control() ControlNode
		// IsEmptyBlock reports whether this block is an "empty shim": no
		// phis, no ordinary nodes, just an unconditional Jump.
		IsEmptyBlock() bool
		// FirstID is the id of the first node reachable in program order in
		// this block (a phi's id if any, else the first ordinary node's,
		// else the control node's).
		FirstID() NodeID
		// FirstNonGapMoveID is the id of the first node in this block that
		// was not inserted by the allocator as a gap move.
		FirstNonGapMoveID() NodeID
		// PredecessorID is this block's index among the predecessors of
		// whichever successor it is currently being merged into. The
		// front end tracks this per edge as the CFG is built.
		PredecessorID() int
		// Predecessors returns this block's predecessor blocks, indexed by
		// PredecessorID. Only meaningful (and only called) on a block whose
		// State() is non-nil. The allocator needs this to reach back into
		// an already-processed predecessor's node list once a phi's final
		// register is decided, since that decision can only be made once
		// every predecessor has been visited.
		Predecessors() []Block
	}

	// Node is an ordinary (non-phi, non-control) instruction.
	Node interface {
		ID() NodeID
		// Inputs returns this node's operand inputs, in the order they
		// should be assigned.
		Inputs() []*Input
		Properties() Properties
		// TemporariesNeeded returns how many scratch registers this node
		// needs beyond its inputs and result.
		TemporariesNeeded() int
		// AssignTemporaries records the registers set aside as scratch
		// space for this node.
		AssignTemporaries(RegSet)
		// AsValue returns the Value this node produces, if any.
		AsValue() (Value, bool)
	}

	// ControlKind distinguishes the four control-node shapes the allocator
	// has to special-case.
	ControlKind uint8

	// ControlNode is the single control-flow instruction that terminates a
	// block.
	ControlNode interface {
		Node
		Kind() ControlKind
		// Target is valid for Jump and JumpLoop.
		Target() Block
		// Branches is valid for Branch.
		Branches() (ifTrue, ifFalse Block)
		// NextHole is the nearest post-dominating control-flow hole, filled
		// in by the reverse pass Nil for Return and JumpLoop.
		NextHole() ControlNode
		SetNextHole(ControlNode)
	}

	// Value is a value-producing node's allocation-relevant state. The
	// allocator both reads and mutates these fields as it runs; the Value's
	// identity, id, and use/live-range bookkeeping up to this point are
	// owned by liveness analysis, an external collaborator.
	Value interface {
		ID() NodeID
		NextUse() NodeID
		SetNextUse(NodeID)
		LiveRangeEnd() NodeID
		// IsDead is true once NextUse has advanced past LiveRangeEnd.
		IsDead() bool
		// HasValidLiveRange is false for a node that is produced but
		// immediately dead (no use at all within its own live range).
		HasValidLiveRange() bool

		Registers() RegSet
		AddRegister(RegIndex)
		RemoveRegister(RegIndex)
		ClearRegisters()

		IsSpilled() bool
		SpillSlot() Operand
		SetSpillSlot(Operand)

		// Result is the node's result operand: an unallocated policy until
		// the allocator overwrites it via SetResult.
		Result() Operand
		SetResult(Operand)
	}

	// Phi is a join-block pseudo-operation selecting a value per incoming
	// edge. Phis do not consume registers through AssignInput at their own
	// block -- their inputs are materialized on the predecessor edges by
	// the control-node allocator
	Phi interface {
		Value
		// Inputs returns one Input per predecessor edge, indexed by
		// predecessor id.
		Inputs() []*Input
	}
)

const (
	Jump ControlKind = iota
	JumpLoop
	Return
	Branch
)

func (k ControlKind) String() string {
	switch k {
	case Jump:
		return "Jump"
	case JumpLoop:
		return "JumpLoop"
	case Return:
		return "Return"
	case Branch:
		return "Branch"
	default:
		return "?"
	}
}

// Input is a reference from a using node to a producing Value, plus the
// unallocated operand policy under which it must be assigned and the id of
// the producer's next use after this one.
type Input struct {
	Producer Value
	Policy   Operand
	NextUse  NodeID
	// Allocated is filled in by AssignInput (or, for phi inputs, injected
	// directly by the control-node allocator).
	Allocated Operand
}

// InjectAllocated records the operand a phi's predecessor-edge input was
// resolved to, without going through the general AssignInput policy
// dispatch -- used only for phi inputs at block exits
func (in *Input) InjectAllocated(o Operand) { in.Allocated = o }

// NodeList holds a block's ordinary nodes with cursor-based insertion, so
// the allocator can splice a gap move immediately before the node currently
// being processed without disturbing positions already visited.
type NodeList struct {
	nodes []Node
}

// NewNodeList wraps an existing node slice.
func NewNodeList(nodes []Node) *NodeList { return &NodeList{nodes: nodes} }

func (l *NodeList) Len() int      { return len(l.nodes) }
func (l *NodeList) At(i int) Node { return l.nodes[i] }
func (l *NodeList) All() []Node   { return l.nodes }

// InsertBefore splices n into the list immediately before index pos.
func (l *NodeList) InsertBefore(pos int, n Node) {
	l.nodes = append(l.nodes, nil)
	copy(l.nodes[pos+1:], l.nodes[pos:])
	l.nodes[pos] = n
}

// Append adds n to the end of the list.
func (l *NodeList) Append(n Node) { l.nodes = append(l.nodes, n) }

func invariant(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Sprintf("BUG: "+format, args...))
	}
}
