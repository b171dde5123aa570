package regalloc

// JoinState is the per-join register state a multi-predecessor block carries
// once the forward pass reaches it: one cell per allocatable register,
// populated by initializeBranchTargetRegisterValues on the first predecessor
// edge and reconciled by mergeRegisterAtEdge on every subsequent one
type JoinState struct {
	PredecessorCount int
	cells            []RegisterCell
}

// NewJoinState allocates a join state sized for regCount registers.
func NewJoinState(predecessorCount, regCount int) *JoinState {
	return &JoinState{PredecessorCount: predecessorCount, cells: make([]RegisterCell, regCount)}
}

// IsInitialized reports whether any predecessor edge has reached this join
// yet. Initialization of a join's cells is all-or-nothing (Initialize*
// always fills every cell), so checking one cell is sufficient -- mirrors
// the source's target_state[0].GetPayload().is_initialized check.
func (j *JoinState) IsInitialized() bool {
	return len(j.cells) > 0 && !j.cells[0].IsUninitialized()
}

func (j *JoinState) cell(i RegIndex) RegisterCell { return j.cells[i] }

func (j *JoinState) setCell(i RegIndex, c RegisterCell) { j.cells[i] = c }

// cellTag distinguishes the three states a register's join cell can be in.
// A plain three-valued tag, preferred here over packing the state into
// pointer-alignment bits.
type cellTag uint8

const (
	cellUninit cellTag = iota
	cellNode
	cellMerge
)

// RegisterCell is one slot of a JoinState: either untouched, holding a
// single value expected from every predecessor (possibly nil, meaning the
// register is expected to be dead on entry), or upgraded to a MergeRecord
// once two predecessors disagree on where the value lives.
type RegisterCell struct {
	tag   cellTag
	node  Value
	merge *MergeRecord
}

func nodeCell(v Value) RegisterCell        { return RegisterCell{tag: cellNode, node: v} }
func mergeCell(m *MergeRecord) RegisterCell { return RegisterCell{tag: cellMerge, merge: m} }

func (c RegisterCell) IsUninitialized() bool { return c.tag == cellUninit }
func (c RegisterCell) IsMerge() bool         { return c.tag == cellMerge }

// Node returns the single value this cell expects on entry (nil if the
// register is dead on entry), decoding a merge cell's node the same way the
// source's LoadMergeState does.
func (c RegisterCell) Node() Value {
	if c.tag == cellMerge {
		return c.merge.Node
	}
	return c.node
}

// Merge returns the cell's MergeRecord, or nil if it hasn't been upgraded.
func (c RegisterCell) Merge() *MergeRecord {
	if c.tag == cellMerge {
		return c.merge
	}
	return nil
}

// MergeRecord backs an upgraded cell: the value all predecessors agree is in
// this register after the merge, plus one operand per predecessor edge
// giving the location to move it from along that edge. Allocated from the
// allocator's arena since its lifetime matches the whole compilation,
// outliving the allocator itself.
type MergeRecord struct {
	Node     Value
	Operands []Operand
}

func (m *MergeRecord) Operand(predecessorID int) Operand { return m.Operands[predecessorID] }

func (m *MergeRecord) SetOperand(predecessorID int, o Operand) { m.Operands[predecessorID] = o }
