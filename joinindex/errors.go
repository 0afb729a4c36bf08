package joinindex

import "github.com/sqlnet/relboost/errs"

func errColumnMissing(name string) error {
	return errs.Validation("joinindex: missing join-key column %q", name)
}

func errColumnNotInt(name string) error {
	return errs.Validation("joinindex: join-key column %q is not categorical (int)", name)
}
