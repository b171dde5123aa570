package regalloc

// ComputePostDominatingHoles links every control node to the nearest
// control-flow "hole" that post-dominates it: a real, non-fallthrough Jump,
// the only kind of control transfer that can receive a gap move on its own
// incoming edge without that move being ambiguous with anything else. A
// Branch never causes a hole itself -- it always defers to whichever of its
// two targets has the nearer one -- and neither does a fallthrough Jump,
// since nothing distinguishes "the gap move landed right before it" from
// just appending to the end of the current block. This is the single
// reverse pass that runs before the forward allocation pass; the allocator
// itself does not read the links it sets (cmd/sfra's dump-holes prints them).
//
// blocks must be in the same reverse-post order the forward pass will use;
// this function walks it back to front, relying on that order to tell a
// fallthrough Jump (target is literally the next block) from a real one.
func ComputePostDominatingHoles(blocks []Block) {
	for i := len(blocks) - 1; i >= 0; i-- {
		control := blocks[i].Control()
		switch control.Kind() {
		case Jump:
			target := control.Target()
			if isFallthrough(blocks, i, target) {
				control.SetNextHole(target.Control().NextHole())
			} else {
				// A real jump instruction will be emitted here: it is
				// itself the nearest hole on this edge.
				control.SetNextHole(control)
			}
		case Branch:
			ifTrue, ifFalse := control.Branches()
			control.SetNextHole(nearestHoleOf(ifTrue.Control(), ifFalse.Control()))
		case Return, JumpLoop:
			// Neither admits a gap move on the way out: Return ends the
			// function and JumpLoop's target has already been fully
			// processed by the forward pass.
			control.SetNextHole(nil)
		}
	}
}

// isFallthrough reports whether blocks[i]'s Jump to target needs no actual
// jump instruction because target is laid out immediately after it.
func isFallthrough(blocks []Block, i int, target Block) bool {
	return i+1 < len(blocks) && blocks[i+1] == target
}

// isHole reports whether c is itself a post-dominating hole, which
// ComputePostDominatingHoles encodes by pointing c's own NextHole back at
// c.
func isHole(c ControlNode) bool {
	return c.NextHole() == c
}

// nearestHoleOf picks whichever of a and b is itself a hole or, failing
// that, whichever has a closer post-dominating hole already linked. Ties
// (both nil) resolve to nil: the nearest common hole, if any, is computed by
// NearestPostDominatingHole's walk from the merge point instead.
func nearestHoleOf(a, b ControlNode) ControlNode {
	ha, hb := holeOrSelf(a), holeOrSelf(b)
	if ha != nil {
		return ha
	}
	return hb
}

func holeOrSelf(c ControlNode) ControlNode {
	if isHole(c) {
		return c
	}
	return c.NextHole()
}

// NearestPostDominatingHole returns the nearest hole reachable from n,
// including n itself if it already is one.
func NearestPostDominatingHole(n ControlNode) ControlNode {
	if n == nil {
		return nil
	}
	if isHole(n) {
		return n
	}
	return n.NextHole()
}
