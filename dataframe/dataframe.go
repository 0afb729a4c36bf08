package dataframe

import (
	"sort"
	"time"

	"github.com/sqlnet/relboost/errs"
	"github.com/sqlnet/relboost/types"
)

// DataFrame is a named bundle of columns plus the Schema classifying each
// one. Construction validates that every column has the same length and
// appears under exactly one role; once built, a DataFrame never mutates
// its column set — callers build a derived View for subsampling instead.
type DataFrame struct {
	name    string
	cols    map[string]types.Column
	schema  Schema
	nrows   int
	lock    *timedRWMutex

	joinKeys   []string
	timeStamp  string // "" if none
	targets    []string
	numerical  []string
	categorical []string
	discrete   []string
	text       []string
}

// New builds a DataFrame, validating lengths and role uniqueness and
// indexing roles for O(1) lookup. Column order is not significant; role
// lists are returned in sorted-by-name order so iteration is
// deterministic across runs.
func New(name string, cols []types.Column, schema Schema) (*DataFrame, error) {
	if len(cols) == 0 {
		return nil, errs.Validation("dataframe %q has no columns", name)
	}
	byName := make(map[string]types.Column, len(cols))
	index := make(map[string]int, len(cols))
	nrows := cols[0].Len()
	for i, c := range cols {
		if _, dup := byName[c.Name()]; dup {
			return nil, errs.Validation("dataframe %q: duplicate column %q", name, c.Name())
		}
		if c.Len() != nrows {
			return nil, errs.Validation("dataframe %q: column %q has length %d, want %d", name, c.Name(), c.Len(), nrows)
		}
		byName[c.Name()] = c
		index[c.Name()] = i
	}
	if err := schema.validate(index); err != nil {
		return nil, errs.Trace(err)
	}

	df := &DataFrame{
		name:   name,
		cols:   byName,
		schema: schema,
		nrows:  nrows,
		lock:   newTimedRWMutex(),
	}
	df.indexRoles()
	return df, nil
}

func (df *DataFrame) indexRoles() {
	df.joinKeys = df.schema.ColumnsWithRole(RoleJoinKey)
	sort.Strings(df.joinKeys)
	ts := df.schema.ColumnsWithRole(RoleTimeStamp)
	if len(ts) > 0 {
		df.timeStamp = ts[0]
	}
	df.targets = sortedCopy(df.schema.ColumnsWithRole(RoleTarget))
	df.numerical = sortedCopy(df.schema.ColumnsWithRole(RoleNumerical))
	df.categorical = sortedCopy(df.schema.ColumnsWithRole(RoleCategorical))
	df.discrete = sortedCopy(df.schema.ColumnsWithRole(RoleDiscrete))
	df.text = sortedCopy(df.schema.ColumnsWithRole(RoleText))
}

func sortedCopy(ss []string) []string {
	sort.Strings(ss)
	return ss
}

// Name returns the DataFrame's table name, as referenced by a Placeholder
// edge.
func (df *DataFrame) Name() string { return df.name }

// NRows returns the number of logical rows.
func (df *DataFrame) NRows() int { return df.nrows }

// Column looks up a column by name regardless of role.
func (df *DataFrame) Column(name string) (types.Column, bool) {
	c, ok := df.cols[name]
	return c, ok
}

// JoinKeys returns the join-key column names in sorted order.
func (df *DataFrame) JoinKeys() []string { return df.joinKeys }

// TimeStamp returns the time_stamp column name, if any.
func (df *DataFrame) TimeStamp() (string, bool) { return df.timeStamp, df.timeStamp != "" }

// Targets returns the target column names (population only).
func (df *DataFrame) Targets() []string { return df.targets }

// Numerical returns the numerical column names.
func (df *DataFrame) Numerical() []string { return df.numerical }

// Categorical returns the categorical column names.
func (df *DataFrame) Categorical() []string { return df.categorical }

// Discrete returns the discrete (integer-valued numerical) column names.
func (df *DataFrame) Discrete() []string { return df.discrete }

// Text returns the text column names.
func (df *DataFrame) Text() []string { return df.text }

// RLock acquires a read lock, blocking indefinitely. Multiple readers may
// hold it concurrently.
func (df *DataFrame) RLock() { df.lock.RLock() }

// RUnlock releases a read lock acquired by RLock.
func (df *DataFrame) RUnlock() { df.lock.RUnlock() }

// RLockTimeout acquires a read lock, returning errs.LockTimeout if it
// could not be acquired within timeout.
func (df *DataFrame) RLockTimeout(timeout time.Duration) error {
	if df.lock.RTryLockTimeout(timeout) {
		return nil
	}
	return errs.LockTimeout
}

// Lock acquires the exclusive write lock (used only by the out-of-scope
// ingestion/preprocessing layer; the core never mutates a DataFrame).
func (df *DataFrame) Lock() { df.lock.Lock() }

// Unlock releases the exclusive write lock.
func (df *DataFrame) Unlock() { df.lock.Unlock() }
