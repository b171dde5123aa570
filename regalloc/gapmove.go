package regalloc

import "fmt"

// GapMove is a parallel-move instruction the allocator inserts into a
// block's node list to reconcile a value's current location with wherever
// an upcoming input or merge needs it It carries no inputs of
// its own and produces no Value visible to the rest of the graph -- it is
// pure allocator bookkeeping that a later code-generation pass lowers
// directly from Src/Dst.
type GapMove struct {
	id       NodeID
	Src, Dst Operand
}

func (g *GapMove) ID() NodeID               { return g.id }
func (g *GapMove) Inputs() []*Input         { return nil }
func (g *GapMove) Properties() Properties   { return 0 }
func (g *GapMove) TemporariesNeeded() int   { return 0 }
func (g *GapMove) AssignTemporaries(RegSet) {}
func (g *GapMove) AsValue() (Value, bool)   { return nil, false }

func (g *GapMove) String() string {
	return fmt.Sprintf("gap-move %s <- %s", g.Dst, g.Src)
}

// IsGapMove reports whether n is a gap move the allocator inserted, as
// opposed to a node the front end supplied. A front end's Block
// implementation uses this to compute FirstNonGapMoveID once allocation has
// run.
func IsGapMove(n Node) bool {
	_, ok := n.(*GapMove)
	return ok
}

func (a *Allocator) newGapMove(src, dst Operand) *GapMove {
	g := a.gapMoves.Allocate()
	g.id = a.nextGapMoveID()
	g.Src, g.Dst = src, dst
	return g
}

// nextGapMoveID mints an id below the allocator's lowest real node id so
// that gap moves always sort before program-order nodes when traced; the
// allocator never compares a gap move's id against a real NodeID for
// anything but display.
func (a *Allocator) nextGapMoveID() NodeID {
	a.gapMoveIDSeq--
	return a.gapMoveIDSeq
}
