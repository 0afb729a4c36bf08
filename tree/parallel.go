package tree

import (
	"github.com/sqlnet/relboost/lossfunction"
	"github.com/sqlnet/relboost/matchmaker"
	"github.com/sqlnet/relboost/pool"
)

// FitWithPool grows a tree exactly as Fit does, but distributes each
// node's candidate search across p's worker slots: each worker scans a
// contiguous range of candidates and returns its own local best, and the
// main goroutine reduces those local bests with the same deterministic
// (reduction, column, pop-column, aggregation) tie-break the serial scan
// applies, so the accepted split is independent of the worker count.
//
// p may be nil, in which case the search runs serially on the calling
// goroutine (equivalent to Fit). comm, if non-nil, is polled once before
// each node's search, so a cancellation mid-tree stops the remaining split
// searches promptly instead of only at the next round boundary.
func FitWithPool(matches []matchmaker.Match, g, h []float64, candidates []Candidate, loss lossfunction.Loss, hp Hyperparams, p *pool.Pool, comm *pool.Communicator) *Node {
	sorted := sortCandidates(candidates)
	search := serialSearch
	if p != nil {
		search = func(matches []matchmaker.Match, g, h []float64, candidates []Candidate, hp Hyperparams) *searchResult {
			return poolSearch(p, matches, g, h, candidates, hp)
		}
	}
	return fitNodeCancelable(matches, g, h, sorted, 0, hp, search, comm)
}

// fitNodeCancelable is fitNode plus a cancellation poll per node, used only
// by the pool-parallel entry point; Fit's plain serial path has no
// Communicator to poll and stays on the simpler fitNode signature.
func fitNodeCancelable(matches []matchmaker.Match, g, h []float64, candidates []Candidate, depth int, hp Hyperparams, search searchFunc, comm *pool.Communicator) *Node {
	if comm != nil && comm.Canceled() {
		return leafFromFallback(matches, g, h, candidates, hp.RegLambda)
	}
	best := search(matches, g, h, candidates, hp)

	if best == nil {
		return leafFromFallback(matches, g, h, candidates, hp.RegLambda)
	}

	if depth < hp.MaxDepth && best.split.Reduction >= hp.MinReduction {
		leftMatches, rightMatches := partition(best.candidate, best.split.Predicate, matches)
		if distinctRows(leftMatches) >= hp.MinNumSamples && distinctRows(rightMatches) >= hp.MinNumSamples {
			return &Node{
				IsLeaf: false,
				Condition: Condition{
					Column:      best.candidate.Column,
					PopColumn:   best.candidate.PopColumn,
					Class:       best.candidate.Class,
					Aggregation: best.candidate.Aggregation,
					Predicate:   best.split.Predicate,
				},
				Left:  fitNodeCancelable(leftMatches, g, h, candidates, depth+1, hp, search, comm),
				Right: fitNodeCancelable(rightMatches, g, h, candidates, depth+1, hp, search, comm),
			}
		}
	}

	return makeLeaf(best.candidate, matches, g, h, hp.RegLambda)
}

// poolSearch scatters candidates (not rows: a node's candidate list is
// usually far larger than the pool, and each candidate's scan already
// touches every match, so candidate-range scatter keeps workers balanced
// without re-partitioning the match buffer per attribute).
func poolSearch(p *pool.Pool, matches []matchmaker.Match, g, h []float64, candidates []Candidate, hp Hyperparams) *searchResult {
	if len(candidates) == 0 {
		return nil
	}
	results, err := p.Scatter(nil, len(candidates), func(lo, hi, _ int) (interface{}, error) {
		return serialSearch(matches, g, h, candidates[lo:hi], hp), nil
	})
	if err != nil {
		return serialSearch(matches, g, h, candidates, hp)
	}
	var best *searchResult
	for _, r := range results {
		local, _ := r.(*searchResult)
		if local == nil {
			continue
		}
		if best == nil || betterSearchResult(local, best) {
			best = local
		}
	}
	return best
}

// betterSearchResult breaks ties the same way serialSearch's in-order scan
// does: larger reduction wins; on an exact tie, the smaller
// (column, pop-column, aggregation) triple wins.
func betterSearchResult(a, b *searchResult) bool {
	if a.split.Reduction != b.split.Reduction {
		return a.split.Reduction > b.split.Reduction
	}
	if a.candidate.Column != b.candidate.Column {
		return a.candidate.Column < b.candidate.Column
	}
	if a.candidate.PopColumn != b.candidate.PopColumn {
		return a.candidate.PopColumn < b.candidate.PopColumn
	}
	return a.candidate.Aggregation < b.candidate.Aggregation
}
