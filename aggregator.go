package imdbtsv

import (
	"sync"
	"sync/atomic"

	"github.com/nao1215/imdbtsv/domain/model"
)

// aggregator joins the chains produced by all workers into one shared chain.
//
// The first chain is installed under a short critical section. Every later chain
// is appended lock-free: the shared tail is read, the chain is linked with a CAS on
// the tail's next pointer, and the shared tail is then advanced. A goroutine that
// finds the shared tail lagging behind (its next pointer already set) advances it
// before retrying, so a delayed tail update never loses or double-links a chain.
//
// Thread Safety: merge is safe for concurrent use. result must only be called
// after every merge has returned.
type aggregator struct {
	order MergeOrder

	initMu sync.Mutex
	head   atomic.Pointer[model.Node]
	tail   atomic.Pointer[model.Node]
	count  atomic.Int64

	// Input order only: chains waiting for their predecessors.
	seqMu   sync.Mutex
	nextSeq int
	pending map[int]chain
}

func newAggregator(order MergeOrder) *aggregator {
	a := &aggregator{order: order}
	if order == MergeOrderInput {
		a.pending = make(map[int]chain)
	}
	return a
}

// merge adds one chain. Every range must be merged exactly once, including empty
// ones, so that input order can advance past them.
func (a *aggregator) merge(c chain) {
	if a.order == MergeOrderInput {
		a.mergeInOrder(c)
		return
	}
	a.splice(c)
}

// mergeInOrder holds chains back until all earlier ranges have been spliced.
func (a *aggregator) mergeInOrder(c chain) {
	a.seqMu.Lock()
	defer a.seqMu.Unlock()

	a.pending[c.seq] = c
	for {
		next, ok := a.pending[a.nextSeq]
		if !ok {
			return
		}
		delete(a.pending, a.nextSeq)
		a.nextSeq++
		a.splice(next)
	}
}

func (a *aggregator) splice(c chain) {
	if c.count == 0 {
		return
	}

	if a.tail.Load() != nil || !a.install(c) {
		for {
			tail := a.tail.Load()
			if next := tail.Next(); next != nil {
				a.tail.CompareAndSwap(tail, next)
				continue
			}
			if tail.TryLink(c.first) {
				a.tail.CompareAndSwap(tail, c.last)
				break
			}
		}
	}
	a.count.Add(int64(c.count))
}

// install makes c the whole shared chain if nothing has been merged yet.
func (a *aggregator) install(c chain) bool {
	a.initMu.Lock()
	defer a.initMu.Unlock()

	if a.head.Load() != nil {
		return false
	}
	a.head.Store(c.first)
	a.tail.Store(c.last)
	return true
}

// result returns the head of the shared chain and the number of records in it.
func (a *aggregator) result() (*model.Node, int) {
	return a.head.Load(), int(a.count.Load())
}
