package database

import (
	"errors"

	"github.com/lib/pq"

	"finboard/internal/apperr"
)

// undefinedTable is the postgres error code for a missing relation. It is
// the typed discriminator for the "run the schema migration" downgrade path,
// never matched on error text.
const undefinedTable = "42P01"

func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == undefinedTable {
		return apperr.E(apperr.SchemaMissing, op, err)
	}
	return apperr.E(apperr.PersistenceFailed, op, err)
}
