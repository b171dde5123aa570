package ir

import (
	"testing"

	"github.com/relay-jit/regalloc/regalloc"
)

func TestNewJumpTarget(t *testing.T) {
	target := &Block{id: 1}
	j := NewJump(0, target)
	if j.Kind() != regalloc.Jump {
		t.Fatalf("Kind() = %v, want Jump", j.Kind())
	}
	if j.Target() != regalloc.Block(target) {
		t.Fatal("Target() must return the block passed to NewJump")
	}
}

func TestNewBranchWithoutConditionHasNoInputs(t *testing.T) {
	ifTrue, ifFalse := &Block{id: 1}, &Block{id: 2}
	br := NewBranch(0, nil, ifTrue, ifFalse)
	if len(br.Inputs()) != 0 {
		t.Fatal("a Branch built with a nil condition must have no inputs")
	}
	gotTrue, gotFalse := br.Branches()
	if gotTrue != regalloc.Block(ifTrue) || gotFalse != regalloc.Block(ifFalse) {
		t.Fatal("Branches() must return the blocks passed to NewBranch")
	}
}

func TestNewBranchWithConditionCarriesOneInput(t *testing.T) {
	cond := &regalloc.Input{}
	br := NewBranch(0, cond, &Block{id: 1}, &Block{id: 2})
	if len(br.Inputs()) != 1 || br.Inputs()[0] != cond {
		t.Fatal("a Branch built with a condition must carry exactly that input")
	}
}

func TestNextHoleRoundTrips(t *testing.T) {
	a := NewJump(0, &Block{id: 1})
	b := NewReturn(1, nil)
	if a.NextHole() != nil {
		t.Fatal("NextHole must start nil")
	}
	a.SetNextHole(b)
	if a.NextHole() != regalloc.ControlNode(b) {
		t.Fatal("SetNextHole/NextHole must round-trip")
	}
}

func TestJumpLoopTargetsHeader(t *testing.T) {
	header := &Block{id: 0}
	jl := NewJumpLoop(5, header)
	if jl.Kind() != regalloc.JumpLoop {
		t.Fatalf("Kind() = %v, want JumpLoop", jl.Kind())
	}
	if jl.Target() != regalloc.Block(header) {
		t.Fatal("Target() must return the header passed to NewJumpLoop")
	}
}
