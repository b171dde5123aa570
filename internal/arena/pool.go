// Package arena provides a compilation-scoped bump-allocation pool.
//
// The straight-forward register allocator (package regalloc) never frees
// the merge records or gap-move nodes it creates: they either outlive the
// allocator (merge records, read by the code generator that follows) or
// live for the rest of the containing block's node list (gap moves). A pool
// that only ever grows and is reset in bulk between compilations avoids the
// per-object allocator churn that would otherwise dominate a pass this
// small.
package arena

const poolPageSize = 128

// Pool is a pool of T that can be allocated from and reset in bulk.
type Pool[T any] struct {
	pages            []*[poolPageSize]T
	allocated, index int
}

// NewPool returns a new, empty Pool.
func NewPool[T any]() Pool[T] {
	var ret Pool[T]
	ret.Reset()
	return ret
}

// Allocated returns the number of T values allocated from the pool since
// the last Reset.
func (p *Pool[T]) Allocated() int { return p.allocated }

// Allocate returns a pointer to a fresh, zero-valued T.
func (p *Pool[T]) Allocate() *T {
	if p.index == poolPageSize {
		if len(p.pages) == cap(p.pages) {
			p.pages = append(p.pages, new([poolPageSize]T))
		} else {
			i := len(p.pages)
			p.pages = p.pages[:i+1]
			if p.pages[i] == nil {
				p.pages[i] = new([poolPageSize]T)
			}
		}
		p.index = 0
	}
	ret := &p.pages[len(p.pages)-1][p.index]
	p.index++
	p.allocated++
	return ret
}

// View returns a pointer to the i-th item ever allocated from the pool.
func (p *Pool[T]) View(i int) *T {
	page, index := i/poolPageSize, i%poolPageSize
	return &p.pages[page][index]
}

// Reset clears every page back to its zero value and returns the pool to
// the empty state, ready for the next compilation.
func (p *Pool[T]) Reset() {
	for _, ns := range p.pages {
		pages := ns[:]
		for i := range pages {
			var v T
			pages[i] = v
		}
	}
	p.pages = p.pages[:0]
	p.index = poolPageSize
	p.allocated = 0
}
