package regalloc

import "math/bits"

// RegIndex is an index into the fixed, ordered list of allocatable
// general-purpose registers the target exposes. The bijection between an
// index and the register's real identity is owned by the front end via
// RegisterInfo.
type RegIndex int8

// NoRegister is the sentinel used where a RegIndex is not (yet) assigned.
const NoRegister RegIndex = -1

// RegisterInfo holds the statically-known, ISA-specific register information.
// Count must not exceed 64: RegSet packs the free/occupied state into a
// single machine word, which this domain never outgrows -- this allocator
// targets a small, fixed set of general-purpose registers, not the wider
// register files a linear-scan or graph-coloring allocator has to span.
type RegisterInfo struct {
	Count int
	// Name returns a human-readable register name for tracing.
	Name func(RegIndex) string
}

func (r *RegisterInfo) name(i RegIndex) string {
	if r.Name == nil {
		return "?"
	}
	return r.Name(i)
}

// RegSet is a bitset over RegIndex values in [0, 64).
type RegSet uint64

// NewRegSet builds a RegSet containing every register in [0, count).
func NewRegSet(count int) RegSet {
	if count >= 64 {
		return ^RegSet(0)
	}
	return RegSet(1<<uint(count)) - 1
}

func (s RegSet) Has(r RegIndex) bool { return s&(1<<uint(r)) != 0 }

func (s RegSet) Add(r RegIndex) RegSet { return s | 1<<uint(r) }

func (s RegSet) Remove(r RegIndex) RegSet { return s &^ (1 << uint(r)) }

func (s RegSet) Empty() bool { return s == 0 }

func (s RegSet) Count() int { return bits.OnesCount64(uint64(s)) }

// Any returns an arbitrary member of the set.
func (s RegSet) Any() (RegIndex, bool) {
	if s == 0 {
		return NoRegister, false
	}
	return RegIndex(bits.TrailingZeros64(uint64(s))), true
}

// Range calls f for every register index present in the set, in index order.
func (s RegSet) Range(f func(RegIndex)) {
	for s != 0 {
		i := RegIndex(bits.TrailingZeros64(uint64(s)))
		f(i)
		s = s.Remove(i)
	}
}
