// Package joinindex implements a hash index from a (possibly composite)
// join-key value to the sorted row numbers carrying it in one peripheral
// DataFrame, rebuilt incrementally as the table grows.
package joinindex

import (
	"encoding/binary"
	"sync"

	"github.com/spaolacci/murmur3"
	"go.uber.org/atomic"

	"github.com/sqlnet/relboost/dataframe"
	"github.com/sqlnet/relboost/types"
)

// Index is the join-key -> row-list hash index for one peripheral
// DataFrame over one or more join-key columns.
//
// Multi-key joins hash the tuple of per-key cat values into a single
// bucket key with murmur3: a composite hash bucket is already as
// selective as the conjunction of all keys, so there is nothing left to
// filter after a bucket hit.
type Index struct {
	table   *dataframe.DataFrame
	keyCols []string

	mu      sync.Mutex
	begin   atomic.Int64
	buckets map[uint64][]int32
}

// New builds an (initially empty) index over keyCols on table. Call
// RebuildIfNeeded before first use.
func New(table *dataframe.DataFrame, keyCols []string) *Index {
	return &Index{
		table:   table,
		keyCols: append([]string(nil), keyCols...),
		buckets: make(map[uint64][]int32),
	}
}

// RebuildIfNeeded appends entries for any rows added since the last call.
// If the table's current row count is smaller than what was last indexed
// (a shrink), the index is invalidated and rebuilt from zero.
func (idx *Index) RebuildIfNeeded() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	nrows := int64(idx.table.NRows())
	begin := idx.begin.Load()
	if nrows < begin {
		idx.buckets = make(map[uint64][]int32)
		begin = 0
	}
	if nrows == begin {
		return nil
	}

	cols := make([]*types.IntColumn, len(idx.keyCols))
	for i, name := range idx.keyCols {
		c, ok := idx.table.Column(name)
		if !ok {
			return errColumnMissing(name)
		}
		ic, ok := c.(*types.IntColumn)
		if !ok {
			return errColumnNotInt(name)
		}
		cols[i] = ic
	}

	for r := begin; r < nrows; r++ {
		key, isNull := bucketKey(cols, int(r))
		if isNull {
			continue
		}
		idx.buckets[key] = append(idx.buckets[key], int32(r))
	}
	idx.begin.Store(nrows)
	return nil
}

// Lookup returns the sorted row numbers whose join-key tuple matches vals
// (one value per key column, same order as New's keyCols). A null
// component always yields no rows; nulls never match.
func (idx *Index) Lookup(vals []int32) []int32 {
	for _, v := range vals {
		if types.IsNullCat(v) {
			return nil
		}
	}
	key := hashVals(vals)
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.buckets[key]
}

func bucketKey(cols []*types.IntColumn, row int) (key uint64, isNull bool) {
	vals := make([]int32, len(cols))
	for i, c := range cols {
		v := c.At(row)
		if types.IsNullCat(v) {
			return 0, true
		}
		vals[i] = v
	}
	return hashVals(vals), false
}

func hashVals(vals []int32) uint64 {
	buf := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(v))
	}
	return murmur3.Sum64(buf)
}
