package pool

import (
	"sync"
	"time"

	"github.com/ngaut/pools"
	"github.com/pingcap/errors"
)

// token is the resource handed out by the ResourcePool; worker slots
// carry no state of their own; the pool only exists to cap concurrency at
// Size goroutines at a time.
type token struct{}

func (token) Close() {}

// Pool is a fixed-size worker pool used to scatter contiguous ranges of
// work across goroutines and gather their results in range order.
type Pool struct {
	slots *pools.ResourcePool
	size  int
}

// NewPool creates a Pool sized per Size(numThreads).
func NewPool(numThreads int) *Pool {
	n := Size(numThreads)
	factory := func() (pools.Resource, error) { return token{}, nil }
	return &Pool{slots: pools.NewResourcePool(factory, n, n, time.Duration(0)), size: n}
}

// Size reports how many row ranges Scatter will split work into.
func (p *Pool) Size() int { return p.size }

// Close releases the underlying resource pool.
func (p *Pool) Close() { p.slots.Close() }

// Ranges partitions [0, total) into at most p.Size() contiguous,
// roughly-equal row ranges, skipping empty trailing ranges when total is
// smaller than the pool size.
func (p *Pool) Ranges(total int) [][2]int {
	if total <= 0 {
		return nil
	}
	n := p.size
	if n > total {
		n = total
	}
	base := total / n
	rem := total % n
	ranges := make([][2]int, 0, n)
	start := 0
	for i := 0; i < n; i++ {
		size := base
		if i < rem {
			size++
		}
		if size == 0 {
			continue
		}
		ranges = append(ranges, [2]int{start, start + size})
		start += size
	}
	return ranges
}

// Scatter runs fn once per range returned by Ranges(total), each on its
// own worker slot, and gathers the per-range results in range order. If
// any fn call returns an error, Scatter cancels the Communicator (if non-
// nil) so other in-flight workers observe it at their next Checkpoint,
// waits for all workers to finish, and returns the first error.
func (p *Pool) Scatter(comm *Communicator, total int, fn func(lo, hi, worker int) (interface{}, error)) ([]interface{}, error) {
	ranges := p.Ranges(total)
	results := make([]interface{}, len(ranges))
	errs := make([]error, len(ranges))

	var wg sync.WaitGroup
	wg.Add(len(ranges))
	for i, r := range ranges {
		i, r := i, r
		go func() {
			defer wg.Done()
			res, err := p.slots.Get()
			if err != nil {
				errs[i] = errors.Trace(err)
				if comm != nil {
					comm.Cancel()
				}
				return
			}
			defer p.slots.Put(res)

			out, err := fn(r[0], r[1], i)
			if err != nil {
				errs[i] = errors.Trace(err)
				if comm != nil {
					comm.Cancel()
				}
				return
			}
			results[i] = out
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
