package docstore

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the SQLSTATE for a duplicate key; within a collection
// it means an id collision inside a partition.
const uniqueViolation = "23505"

var (
	// ErrPartitionKeyMissing reports an entity whose partition-key
	// attribute is empty. Validation upstream should make this
	// unreachable; treat occurrences as a programming defect.
	ErrPartitionKeyMissing = errors.New("docstore: partition key is missing or empty")

	// ErrConflict reports an insert whose id already exists within the
	// target partition.
	ErrConflict = errors.New("docstore: document with this id already exists")
)

// StoreError wraps any backend failure that is not part of the adapter's
// error taxonomy, preserving the SQLSTATE code for diagnostics.
type StoreError struct {
	Op   string
	Code string
	Err  error
}

func (e *StoreError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("docstore: %s failed (code %s): %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("docstore: %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// translate maps backend errors onto the adapter taxonomy.
func translate(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == uniqueViolation {
			return ErrConflict
		}
		return &StoreError{Op: op, Code: pgErr.Code, Err: err}
	}
	return &StoreError{Op: op, Err: err}
}
