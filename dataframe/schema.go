// Package dataframe implements the named bundle of columns plus a role
// Schema, the per-DataFrame read-write lock, and the row-index projection
// View.
package dataframe

import "github.com/sqlnet/relboost/errs"

// Role classifies a column's purpose within a DataFrame. Every column
// belongs to exactly one role (invariant I-2).
type Role int

const (
	RoleJoinKey Role = iota
	RoleTimeStamp
	RoleTarget
	RoleNumerical
	RoleCategorical
	RoleDiscrete
	RoleText
	RoleUnused
)

func (r Role) String() string {
	switch r {
	case RoleJoinKey:
		return "join_key"
	case RoleTimeStamp:
		return "time_stamp"
	case RoleTarget:
		return "target"
	case RoleNumerical:
		return "numerical"
	case RoleCategorical:
		return "categorical"
	case RoleDiscrete:
		return "discrete"
	case RoleText:
		return "text"
	case RoleUnused:
		return "unused"
	default:
		return "unknown"
	}
}

// Schema maps a column name to its Role. It is built alongside the
// DataFrame's columns and validated against them (invariant I-1/I-2).
type Schema map[string]Role

// ColumnsWithRole returns the column names assigned to a role in Go map
// iteration order, which is unspecified (dataframe.New sorts once at
// construction and caches the result).
func (s Schema) ColumnsWithRole(r Role) []string {
	var out []string
	for name, role := range s {
		if role == r {
			out = append(out, name)
		}
	}
	return out
}

// validate checks Schema soundness against the known column names: every
// schema entry must reference an existing column. A column cannot be
// referenced more than once because Schema is a map; no separate conflict
// check exists.
func (s Schema) validate(columnNames map[string]int) error {
	for name := range s {
		if _, ok := columnNames[name]; !ok {
			return errs.Validation("schema references unknown column %q", name)
		}
	}
	return nil
}
