package dataframe

import "github.com/sqlnet/relboost/types"

// View presents a DataFrame under a row permutation/projection, letting
// the per-round resample or a match partition address a subset of rows
// without copying the backing columns.
type View struct {
	base *DataFrame
	idx  []int32 // view row i ↦ base row idx[i]
}

// NewView wraps base under idx. idx is not copied; callers must not mutate
// it afterwards.
func NewView(base *DataFrame, idx []int32) *View {
	return &View{base: base, idx: idx}
}

// Identity returns a View over every row of base in order, the natural
// starting point before any subsampling.
func Identity(base *DataFrame) *View {
	idx := make([]int32, base.NRows())
	for i := range idx {
		idx[i] = int32(i)
	}
	return NewView(base, idx)
}

// Base returns the underlying DataFrame.
func (v *View) Base() *DataFrame { return v.base }

// Len returns the number of rows visible through this view.
func (v *View) Len() int { return len(v.idx) }

// Index returns the row projection.
func (v *View) Index() []int32 { return v.idx }

// RowOf translates a view-local row to the underlying DataFrame's row
// number.
func (v *View) RowOf(viewRow int) int32 { return v.idx[viewRow] }

// Column returns a *types.ColumnView over the named column, projected
// through this view's row index. ok is false if the column doesn't exist.
func (v *View) Column(name string) (*types.ColumnView, bool) {
	c, ok := v.base.Column(name)
	if !ok {
		return nil, false
	}
	return types.NewColumnView(c, v.idx), true
}
