package matchmaker

import "github.com/sqlnet/relboost/errs"

func errMissingColumn(name, table string) error {
	return errs.Validation("matchmaker: column %q not found on %q", name, table)
}
