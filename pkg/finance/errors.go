package finance

import "errors"

// ErrNotFound is returned when a transaction id does not exist or the
// record is soft-deleted.
var ErrNotFound = errors.New("transaction not found")

// ErrInvalidState is returned when a status transition is not legal from
// the transaction's current status.
var ErrInvalidState = errors.New("invalid transaction state for this operation")

// ErrStorage is returned when the receipt file could not be stored; the
// transition it belonged to is rolled back.
var ErrStorage = errors.New("receipt storage failed")
