// Package placeholder implements the declarative join graph: a tree
// rooted at the population table whose children are peripheral tables,
// possibly several levels deep (deeper levels are "subfeatures").
//
// All nodes live in one owned slice; children are referenced by index, so
// the structure is a tree by construction — there is no way to introduce
// a cycle through this API.
package placeholder

import "github.com/sqlnet/relboost/errs"

// Relationship tags how population rows relate to peripheral rows across
// one edge.
type Relationship int

const (
	OneToOne Relationship = iota
	OneToMany
	ManyToMany
	ManyToManyPropositionalization
)

func (r Relationship) String() string {
	switch r {
	case OneToOne:
		return "one-to-one"
	case OneToMany:
		return "one-to-many"
	case ManyToMany:
		return "many-to-many"
	case ManyToManyPropositionalization:
		return "many-to-many-propositionalization"
	default:
		return "unknown"
	}
}

// JoinKeyPair pairs a left-side (parent) join-key column with its right-side
// (child) counterpart.
type JoinKeyPair struct {
	Left  string
	Right string
}

// TimeStamp configures the time-stamp window of one edge.
type TimeStamp struct {
	Left  string // time_stamp column on the parent side
	Right string // time_stamp column on the child (peripheral) side
	// Upper, if set, names a population-side column giving a per-row
	// exclusive upper timestamp bound: a match is rejected whenever
	// peripheral.ts >= population.Upper, independent of horizon/memory.
	// Resolved against the parent DataFrame, not the peripheral one.
	Upper string
}

// Edge is one node of the join tree: a peripheral table joined to its
// parent (population, or an enclosing peripheral for a subfeature).
type Edge struct {
	// Peripheral is the table name, resolved by external lookup at Fit
	// time (the Placeholder never holds a DataFrame reference directly,
	// per the Design Notes' "no back-references" rule).
	Peripheral string
	JoinKeys   []JoinKeyPair
	TimeStamp  *TimeStamp // nil if this edge ignores timestamps
	Memory     float64    // peripheral.ts >= population.ts - memory; <= 0 means no memory bound
	Horizon    float64    // population.ts_effective = population.ts - horizon
	Relationship Relationship
	AllowLaggedTargets bool

	children []int
}

// Children returns the indices (into Placeholder.Node) of this edge's
// nested subfeature edges.
func (e *Edge) Children() []int { return append([]int(nil), e.children...) }

// Placeholder is the join graph: population name plus an arena of Edge
// nodes and the indices of the top-level edges hanging directly off the
// population.
type Placeholder struct {
	Population string
	nodes      []Edge
	roots      []int
}

// New creates an empty join graph rooted at population.
func New(population string) *Placeholder {
	return &Placeholder{Population: population}
}

// AddRoot appends a top-level peripheral edge (population -> peripheral)
// and returns its node index, to be used as a parent argument to AddChild
// for deeper (subfeature) levels.
func (p *Placeholder) AddRoot(e Edge) int {
	idx := len(p.nodes)
	e.children = nil
	p.nodes = append(p.nodes, e)
	p.roots = append(p.roots, idx)
	return idx
}

// AddChild appends e as a nested subfeature edge under the edge at
// parentIdx and returns its node index. parentIdx must be a previously
// returned index from AddRoot/AddChild on this same Placeholder.
func (p *Placeholder) AddChild(parentIdx int, e Edge) (int, error) {
	if parentIdx < 0 || parentIdx >= len(p.nodes) {
		return 0, errs.Validation("placeholder: parent index %d out of range", parentIdx)
	}
	idx := len(p.nodes)
	e.children = nil
	p.nodes = append(p.nodes, e)
	p.nodes[parentIdx].children = append(p.nodes[parentIdx].children, idx)
	return idx, nil
}

// Roots returns the indices of the edges directly off the population.
func (p *Placeholder) Roots() []int { return append([]int(nil), p.roots...) }

// Node returns the edge at idx.
func (p *Placeholder) Node(idx int) *Edge { return &p.nodes[idx] }

// NumNodes reports the arena size.
func (p *Placeholder) NumNodes() int { return len(p.nodes) }

// IsSubfeatureLevel reports whether idx's edge sits below a nested parent
// (depth >= 2), meaning it contributes to an inner model fitted on its
// parent peripheral rather than directly to the outer population.
func (p *Placeholder) IsSubfeatureLevel(idx int) bool {
	for _, r := range p.roots {
		if r == idx {
			return false
		}
	}
	return true
}
