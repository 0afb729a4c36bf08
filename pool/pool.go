// Package pool implements a fixed worker pool plus a Communicator
// offering barrier/checkpoint collectives, used to scatter one tree
// node's split search across contiguous ranges and gather the best
// candidate on the coordinating goroutine, where the package-level Reduce
// folds the gathered results.
package pool

import (
	"runtime"
	"sync"

	"go.uber.org/atomic"
	_ "go.uber.org/automaxprocs" // adjusts runtime.GOMAXPROCS to the container cgroup at init
)

// Size resolves num_threads: 0 means hardware concurrency.
func Size(numThreads int) int {
	if numThreads > 0 {
		return numThreads
	}
	return runtime.GOMAXPROCS(0)
}

// Communicator coordinates a fixed set of n participants around one
// collective operation at a time. Barrier and Checkpoint are generation
// counted so the same Communicator can be reused across many rounds
// without re-allocating per call.
type Communicator struct {
	n        int
	canceled *atomic.Bool

	mu         sync.Mutex
	gen        int
	arrived    int
	allOK      bool
	lastResult bool
	done       *sync.Cond
}

// New builds a Communicator for n participants (workers + main thread, if
// the main thread itself takes part in the collective calls).
func New(n int) *Communicator {
	c := &Communicator{n: n, canceled: atomic.NewBool(false), allOK: true}
	c.done = sync.NewCond(&c.mu)
	return c
}

// Cancel sets the shared cancellation flag, observed by every participant
// at their next Checkpoint call.
func (c *Communicator) Cancel() { c.canceled.Store(true) }

// Canceled reports whether Cancel has been called.
func (c *Communicator) Canceled() bool { return c.canceled.Load() }

// Barrier blocks the calling goroutine until all n participants have
// called Barrier for the current generation.
func (c *Communicator) Barrier() {
	c.Checkpoint(true)
}

// Checkpoint is a barrier that also all-reduces a boolean: every
// participant passes its own local ok, and every participant's call
// returns true only if ALL participants since the previous checkpoint
// passed true and no one has called Cancel. A worker whose step failed
// passes ok=false so the collective result flips to false everywhere,
// propagating the failure to every participant at the next
// synchronization point.
func (c *Communicator) Checkpoint(ok bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	myGen := c.gen
	if ok {
		ok = !c.canceled.Load()
	}
	if !ok {
		c.allOK = false
	}
	c.arrived++
	if c.arrived == c.n {
		c.arrived = 0
		c.gen++
		result := c.allOK && !c.canceled.Load()
		c.lastResult = result
		c.allOK = true
		c.done.Broadcast()
		return result
	}
	for c.gen == myGen {
		c.done.Wait()
	}
	return c.lastResult
}

// ReduceOp combines two partial values into one; must be associative and
// commutative since reduction order across participants is unspecified.
type ReduceOp func(a, b interface{}) interface{}

// SumFloat64 is the ReduceOp for accumulating float64 partial sums (used
// to combine each worker's local Σg/Σh into the node totals).
func SumFloat64(a, b interface{}) interface{} { return a.(float64) + b.(float64) }

// MaxByReduction picks whichever of two *RankedResult has the larger
// Reduction, breaking ties by the smaller (AttrID, AggID) pair so that
// split search results are reproducible across different worker counts.
func MaxByReduction(a, b interface{}) interface{} {
	ra, rb := a.(*RankedResult), b.(*RankedResult)
	if ra == nil {
		return rb
	}
	if rb == nil {
		return ra
	}
	if ra.Reduction != rb.Reduction {
		if ra.Reduction > rb.Reduction {
			return ra
		}
		return rb
	}
	if ra.AttrID != rb.AttrID {
		if ra.AttrID < rb.AttrID {
			return ra
		}
		return rb
	}
	if ra.AggID <= rb.AggID {
		return ra
	}
	return rb
}

// RankedResult is one worker's candidate split result, ranked by
// Reduction with (AttrID, AggID) as the deterministic tie-break total
// order.
type RankedResult struct {
	AttrID    int
	AggID     int
	Reduction float64
	Payload   interface{}
}

// Reduce folds values pairwise with op. It is not itself a collective
// synchronization primitive: by the time Reduce runs, every worker's
// scatter-phase result is already collected in values (the parallel
// dispatch in Scatter already waited on them), so Reduce only needs to
// combine what is already in hand.
func Reduce(values []interface{}, op ReduceOp) interface{} {
	if len(values) == 0 {
		return nil
	}
	acc := values[0]
	for _, v := range values[1:] {
		acc = op(acc, v)
	}
	return acc
}
