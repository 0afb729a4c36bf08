package placeholder

import (
	"github.com/sqlnet/relboost/dataframe"
	"github.com/sqlnet/relboost/errs"
)

// Resolver looks peripheral DataFrames up by name; the join graph stores
// table names only and never holds a DataFrame pointer directly.
type Resolver func(name string) (*dataframe.DataFrame, bool)

// Validate checks every edge in the graph against the population and (via
// resolve) peripheral DataFrames: unknown peripheral names, join keys that
// aren't actually tagged RoleJoinKey on both sides, and timestamp columns
// that aren't tagged RoleTimeStamp. All are surfaced immediately as
// validation errors, with no retry.
func (p *Placeholder) Validate(population *dataframe.DataFrame, resolve Resolver) error {
	for _, idx := range p.roots {
		if err := p.validateEdge(idx, population, resolve); err != nil {
			return err
		}
	}
	return nil
}

func (p *Placeholder) validateEdge(idx int, parent *dataframe.DataFrame, resolve Resolver) error {
	e := &p.nodes[idx]
	child, ok := resolve(e.Peripheral)
	if !ok {
		return errs.Validation("placeholder: unknown peripheral %q", e.Peripheral)
	}
	if len(e.JoinKeys) == 0 {
		return errs.Validation("placeholder: edge to %q has no join keys", e.Peripheral)
	}
	for _, jk := range e.JoinKeys {
		if !hasRole(parent, jk.Left, dataframe.RoleJoinKey) {
			return errs.Validation("placeholder: %q is not a join_key on %q", jk.Left, parent.Name())
		}
		if !hasRole(child, jk.Right, dataframe.RoleJoinKey) {
			return errs.Validation("placeholder: %q is not a join_key on %q", jk.Right, child.Name())
		}
	}
	if e.TimeStamp != nil {
		if !hasRole(parent, e.TimeStamp.Left, dataframe.RoleTimeStamp) {
			return errs.Validation("placeholder: %q is not a time_stamp on %q", e.TimeStamp.Left, parent.Name())
		}
		if !hasRole(child, e.TimeStamp.Right, dataframe.RoleTimeStamp) {
			return errs.Validation("placeholder: %q is not a time_stamp on %q", e.TimeStamp.Right, child.Name())
		}
		if e.TimeStamp.Upper != "" && !hasRole(parent, e.TimeStamp.Upper, dataframe.RoleTimeStamp) {
			return errs.Validation("placeholder: %q is not a time_stamp on %q", e.TimeStamp.Upper, parent.Name())
		}
	}
	if !e.AllowLaggedTargets && len(child.Targets()) > 0 {
		// Targets are allowed to exist on the peripheral schema; they are
		// simply not usable as aggregation input unless explicitly
		// permitted, checked again at candidate-generation time (C8).
	}
	for _, childIdx := range e.children {
		if err := p.validateEdge(childIdx, child, resolve); err != nil {
			return err
		}
	}
	return nil
}

func hasRole(df *dataframe.DataFrame, col string, role dataframe.Role) bool {
	for _, name := range roleColumns(df, role) {
		if name == col {
			return true
		}
	}
	return false
}

func roleColumns(df *dataframe.DataFrame, role dataframe.Role) []string {
	switch role {
	case dataframe.RoleJoinKey:
		return df.JoinKeys()
	case dataframe.RoleTimeStamp:
		if ts, ok := df.TimeStamp(); ok {
			return []string{ts}
		}
		return nil
	default:
		return nil
	}
}
