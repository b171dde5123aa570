package regalloc

import "testing"

// fakeValue is the minimal Value a cells test needs: its identity is all
// that RegisterCell.Node comparisons care about.
type fakeValue struct{ id NodeID }

func (f *fakeValue) ID() NodeID                  { return f.id }
func (f *fakeValue) NextUse() NodeID             { return 0 }
func (f *fakeValue) SetNextUse(NodeID)           {}
func (f *fakeValue) LiveRangeEnd() NodeID        { return 0 }
func (f *fakeValue) IsDead() bool                { return false }
func (f *fakeValue) HasValidLiveRange() bool     { return true }
func (f *fakeValue) Registers() RegSet           { return 0 }
func (f *fakeValue) AddRegister(RegIndex)        {}
func (f *fakeValue) RemoveRegister(RegIndex)     {}
func (f *fakeValue) ClearRegisters()             {}
func (f *fakeValue) IsSpilled() bool             { return false }
func (f *fakeValue) SpillSlot() Operand          { return Operand{} }
func (f *fakeValue) SetSpillSlot(Operand)        {}
func (f *fakeValue) Result() Operand             { return Operand{} }
func (f *fakeValue) SetResult(Operand)           {}

func TestJoinStateStartsUninitialized(t *testing.T) {
	j := NewJoinState(2, 4)
	if j.IsInitialized() {
		t.Fatal("a fresh JoinState must report not initialized")
	}
	for i := 0; i < 4; i++ {
		if !j.cell(RegIndex(i)).IsUninitialized() {
			t.Fatalf("cell %d should start uninitialized", i)
		}
	}
}

func TestJoinStateInitializedOnceFirstCellSet(t *testing.T) {
	j := NewJoinState(2, 4)
	j.setCell(0, nodeCell(&fakeValue{id: 1}))
	if !j.IsInitialized() {
		t.Fatal("setting cell 0 should mark the whole JoinState initialized")
	}
}

func TestRegisterCellNodeDecoding(t *testing.T) {
	v := &fakeValue{id: 9}
	plain := nodeCell(v)
	if plain.IsMerge() {
		t.Fatal("a plain node cell must not report IsMerge")
	}
	if plain.Node() != v {
		t.Fatal("plain cell's Node() must return the value it was built with")
	}

	rec := &MergeRecord{Node: v, Operands: make([]Operand, 2)}
	merged := mergeCell(rec)
	if !merged.IsMerge() {
		t.Fatal("a cell built with mergeCell must report IsMerge")
	}
	if merged.Node() != v {
		t.Fatal("a merge cell's Node() must delegate to its MergeRecord")
	}
	if merged.Merge() != rec {
		t.Fatal("Merge() must return the exact record it was built from")
	}
}

func TestMergeRecordOperands(t *testing.T) {
	rec := &MergeRecord{Node: &fakeValue{id: 1}, Operands: make([]Operand, 3)}
	rec.SetOperand(1, AllocatedRegister(4))
	if got := rec.Operand(1); got != AllocatedRegister(4) {
		t.Fatalf("Operand(1) = %+v, want r4", got)
	}
	if got := rec.Operand(0); got.IsAllocated() {
		t.Fatalf("untouched operand 0 should remain unallocated, got %+v", got)
	}
}
